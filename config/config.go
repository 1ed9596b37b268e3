package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/talkincode/bakeshop/pkg/common"
	"gopkg.in/yaml.v3"
)

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host   string `yaml:"host" json:"host"`
	Port   int    `yaml:"port" json:"port"`
	Secret string `yaml:"secret" json:"secret"`
}

type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type SmtpConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	From     string `yaml:"from" json:"from"`
}

type LoggerConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type AppConfig struct {
	System   SysConfig    `yaml:"system" json:"system"`
	Web      WebConfig    `yaml:"web" json:"web"`
	Database DBConfig     `yaml:"database" json:"database"`
	Smtp     SmtpConfig   `yaml:"smtp" json:"smtp"`
	Logger   LoggerConfig `yaml:"logger" json:"logger"`
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "bakeshop",
		Location: "Asia/Manila",
		Workdir:  "/var/bakeshop",
		Debug:    true,
	},
	Web: WebConfig{
		Host:   "0.0.0.0",
		Port:   1980,
		Secret: "9b6de5cc-bakeshop-1203-xxtt",
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "bakeshop",
		User:     "postgres",
		Passwd:   "myroot",
		MaxConn:  100,
		IdleConn: 10,
	},
	Smtp: SmtpConfig{
		Host: "smtp.gmail.com",
		Port: 587,
		From: "orders@bakeshop.local",
	},
	Logger: LoggerConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/bakeshop/bakeshop.log",
	},
}

// UploadsDir returns the payment proof staging directory under workdir.
func (c *AppConfig) UploadsDir() string {
	return filepath.Join(c.System.Workdir, "uploads", "payment-proofs")
}

// ProductImagesDir returns the product image directory under workdir.
func (c *AppConfig) ProductImagesDir() string {
	return filepath.Join(c.System.Workdir, "uploads", "product-images")
}

// BackupDir returns the database snapshot directory under workdir.
func (c *AppConfig) BackupDir() string {
	return filepath.Join(c.System.Workdir, "backups")
}

func (c *AppConfig) InitDirs() {
	_ = os.MkdirAll(filepath.Join(c.System.Workdir, "data"), 0755)
	_ = os.MkdirAll(c.UploadsDir(), 0755)
	_ = os.MkdirAll(c.ProductImagesDir(), 0755)
	_ = os.MkdirAll(c.BackupDir(), 0755)
}

func setEnvValue(name string, val *string) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		*val = evalue
	}
}

func setEnvBoolValue(name string, val *bool) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		*val = evalue == "true" || evalue == "1" || evalue == "on"
	}
}

func setEnvIntValue(name string, val *int) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	p, err := strconv.ParseInt(evalue, 10, 64)
	if err == nil {
		*val = int(p)
	}
}

// LoadConfig loads the YAML configuration file and applies
// BAKESHOP_* environment overrides over it.
func LoadConfig(cfile string) *AppConfig {
	cfg := new(AppConfig)
	*cfg = *DefaultAppConfig
	if cfile != "" && common.FileExists(cfile) {
		data, err := os.ReadFile(cfile)
		if err == nil {
			if err = yaml.Unmarshal(data, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "parse config %s error: %v\n", cfile, err)
			}
		}
	}

	setEnvValue("BAKESHOP_WORKDIR", &cfg.System.Workdir)
	setEnvValue("BAKESHOP_LOCATION", &cfg.System.Location)
	setEnvBoolValue("BAKESHOP_DEBUG", &cfg.System.Debug)

	setEnvValue("BAKESHOP_WEB_HOST", &cfg.Web.Host)
	setEnvValue("BAKESHOP_WEB_SECRET", &cfg.Web.Secret)
	setEnvIntValue("BAKESHOP_WEB_PORT", &cfg.Web.Port)

	setEnvValue("BAKESHOP_DB_HOST", &cfg.Database.Host)
	setEnvValue("BAKESHOP_DB_NAME", &cfg.Database.Name)
	setEnvValue("BAKESHOP_DB_USER", &cfg.Database.User)
	setEnvValue("BAKESHOP_DB_PWD", &cfg.Database.Passwd)
	setEnvIntValue("BAKESHOP_DB_PORT", &cfg.Database.Port)
	setEnvBoolValue("BAKESHOP_DB_DEBUG", &cfg.Database.Debug)

	setEnvValue("BAKESHOP_SMTP_HOST", &cfg.Smtp.Host)
	setEnvValue("BAKESHOP_SMTP_USER", &cfg.Smtp.Username)
	setEnvValue("BAKESHOP_SMTP_PWD", &cfg.Smtp.Password)
	setEnvValue("BAKESHOP_SMTP_FROM", &cfg.Smtp.From)
	setEnvIntValue("BAKESHOP_SMTP_PORT", &cfg.Smtp.Port)

	setEnvValue("BAKESHOP_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBoolValue("BAKESHOP_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)

	return cfg
}
