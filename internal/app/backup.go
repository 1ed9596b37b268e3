package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// WriteBackup streams a SQL dump of every table (DDL plus INSERTs) to w.
// Used by both the scheduled snapshot job and the admin download endpoint.
func (a *Application) WriteBackup(w io.Writer) error {
	db := a.gormDB

	var dump strings.Builder
	dump.WriteString("-- bakeshop database backup\n")
	dump.WriteString(fmt.Sprintf("-- Generated at: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	dump.WriteString("-- ============================================\n\n")

	var tableNames []string
	err := db.Raw(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name
	`).Scan(&tableNames).Error
	if err != nil {
		return errors.Wrap(err, "list tables")
	}

	for _, tableName := range tableNames {
		dump.WriteString("-- ============================================\n")
		dump.WriteString(fmt.Sprintf("-- Table: %s\n", tableName))
		dump.WriteString("-- ============================================\n\n")

		ddl := backupTableDDL(db, tableName)
		if ddl != "" {
			dump.WriteString(fmt.Sprintf("DROP TABLE IF EXISTS %s;\n", backupQuote(tableName)))
			dump.WriteString(ddl)
			dump.WriteString("\n\n")
		}

		inserts := backupTableInserts(db, tableName)
		if inserts != "" {
			dump.WriteString(inserts)
			dump.WriteString("\n")
		}
	}

	_, err = io.WriteString(w, dump.String())
	return err
}

// RunBackupSnapshot writes a timestamped dump file under the backup dir.
func (a *Application) RunBackupSnapshot() (string, error) {
	filename := fmt.Sprintf("bakeshop_backup_%s.sql", time.Now().Format("20060102_150405"))
	path := filepath.Join(a.appConfig.BackupDir(), filename)

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "create backup file")
	}
	defer f.Close()

	if err := a.WriteBackup(f); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

func backupQuote(identifier string) string {
	return fmt.Sprintf("\"%s\"", identifier)
}

// backupTableDDL builds a CREATE TABLE statement from the catalog views.
func backupTableDDL(db *gorm.DB, tableName string) string {
	type ColumnDef struct {
		ColumnName    string
		DataType      string
		CharMaxLen    *int
		IsNullable    string
		ColumnDefault *string
	}

	var columns []ColumnDef
	db.Raw(`
		SELECT column_name, data_type, character_maximum_length, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_name = ? AND table_schema = 'public'
		ORDER BY ordinal_position
	`, tableName).Scan(&columns)

	if len(columns) == 0 {
		return ""
	}

	var pkColumns []string
	db.Raw(`
		SELECT a.attname
		FROM pg_index i
		JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
		WHERE i.indrelid = ?::regclass AND i.indisprimary
	`, tableName).Scan(&pkColumns)

	var ddl strings.Builder
	ddl.WriteString(fmt.Sprintf("CREATE TABLE \"%s\" (\n", tableName))

	for i, col := range columns {
		ddl.WriteString(fmt.Sprintf("    \"%s\" ", col.ColumnName))

		dataType := strings.ToUpper(col.DataType)
		if col.CharMaxLen != nil && *col.CharMaxLen > 0 {
			ddl.WriteString(fmt.Sprintf("%s(%d)", dataType, *col.CharMaxLen))
		} else {
			ddl.WriteString(dataType)
		}

		if col.IsNullable == "NO" {
			ddl.WriteString(" NOT NULL")
		}

		if col.ColumnDefault != nil && *col.ColumnDefault != "" {
			ddl.WriteString(fmt.Sprintf(" DEFAULT %s", *col.ColumnDefault))
		}

		if i < len(columns)-1 || len(pkColumns) > 0 {
			ddl.WriteString(",")
		}
		ddl.WriteString("\n")
	}

	if len(pkColumns) > 0 {
		ddl.WriteString(fmt.Sprintf("    PRIMARY KEY (\"%s\")\n", strings.Join(pkColumns, "\", \"")))
	}

	ddl.WriteString(");")
	return ddl.String()
}

// backupTableInserts dumps every row of a table as INSERT statements.
func backupTableInserts(db *gorm.DB, tableName string) string {
	var columns []string
	db.Raw(`
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = ? AND table_schema = 'public'
		ORDER BY ordinal_position
	`, tableName).Scan(&columns)

	if len(columns) == 0 {
		return ""
	}

	var rows []map[string]interface{}
	db.Table(tableName).Find(&rows)

	if len(rows) == 0 {
		return ""
	}

	var inserts strings.Builder
	quotedTable := backupQuote(tableName)

	for _, row := range rows {
		var quotedCols []string
		var values []string

		for _, col := range columns {
			quotedCols = append(quotedCols, backupQuote(col))
			values = append(values, formatSQLValue(row[col]))
		}

		inserts.WriteString(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);\n",
			quotedTable,
			strings.Join(quotedCols, ", "),
			strings.Join(values, ", "),
		))
	}

	return inserts.String()
}

// formatSQLValue formats a Go value as a SQL literal
func formatSQLValue(val interface{}) string {
	if val == nil {
		return "NULL"
	}

	switch v := val.(type) {
	case string:
		escaped := strings.ReplaceAll(v, "'", "''")
		return fmt.Sprintf("'%s'", escaped)
	case []byte:
		escaped := strings.ReplaceAll(string(v), "'", "''")
		return fmt.Sprintf("'%s'", escaped)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%v", v)
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return fmt.Sprintf("'%s'", v.Format("2006-01-02 15:04:05"))
	default:
		str := fmt.Sprintf("%v", v)
		escaped := strings.ReplaceAll(str, "'", "''")
		return fmt.Sprintf("'%s'", escaped)
	}
}
