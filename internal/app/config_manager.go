package app

import (
	"sync"
	"time"

	"github.com/spf13/cast"
	"github.com/talkincode/bakeshop/internal/domain"
	"go.uber.org/zap"
)

const settingsCacheTTL = 30 * time.Second

// ConfigManager reads runtime settings from the sys_config table with a
// short-lived cache in front of it.
type ConfigManager struct {
	app    *Application
	mu     sync.RWMutex
	cache  map[string]string
	loaded time.Time
}

func NewConfigManager(app *Application) *ConfigManager {
	return &ConfigManager{app: app, cache: make(map[string]string)}
}

func (m *ConfigManager) load() map[string]string {
	m.mu.RLock()
	if time.Since(m.loaded) < settingsCacheTTL && len(m.cache) > 0 {
		defer m.mu.RUnlock()
		return m.cache
	}
	m.mu.RUnlock()

	var rows []domain.SysConfig
	if err := m.app.gormDB.Find(&rows).Error; err != nil {
		zap.L().Error("failed to load sys_config", zap.Error(err))
		return m.cache
	}

	next := make(map[string]string, len(rows))
	for _, row := range rows {
		next[row.Type+"."+row.Name] = row.Value
	}

	m.mu.Lock()
	m.cache = next
	m.loaded = time.Now()
	m.mu.Unlock()
	return next
}

func (m *ConfigManager) GetString(category, key string) string {
	return m.load()[category+"."+key]
}

func (m *ConfigManager) GetInt64(category, key string) int64 {
	return cast.ToInt64(m.load()[category+"."+key])
}

func (m *ConfigManager) GetInt(category, key string) int {
	return cast.ToInt(m.load()[category+"."+key])
}

func (m *ConfigManager) GetBool(category, key string) bool {
	return cast.ToBool(m.load()[category+"."+key])
}

// SetValue updates a setting row and invalidates the cache.
func (m *ConfigManager) SetValue(category, key, value string) error {
	err := m.app.gormDB.Model(&domain.SysConfig{}).
		Where("type = ? and name = ?", category, key).
		Update("value", value).Error
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.loaded = time.Time{}
	m.mu.Unlock()
	return nil
}
