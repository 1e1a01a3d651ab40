package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
)

//go:embed schema_sqlite.sql
var sqliteSchemaFS embed.FS

func EnsureSQLiteSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("db 为空")
	}
	raw, err := sqliteSchemaFS.ReadFile("schema_sqlite.sql")
	if err != nil {
		return fmt.Errorf("读取内嵌 schema 失败: %w", err)
	}
	if _, err := db.Exec(string(raw)); err != nil {
		return fmt.Errorf("初始化 SQLite schema 失败: %w", err)
	}
	return nil
}

// ApplyMigrations 为 MySQL 建表；语句全部幂等，可重复执行。
func ApplyMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("db 为空")
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
  id         VARCHAR(36) PRIMARY KEY,
  email      VARCHAR(255) NOT NULL,
  credits    BIGINT NOT NULL DEFAULT 0,
  created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
  last_login TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE KEY uk_users_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS waitlist (
  id         VARCHAR(64) PRIMARY KEY,
  email      VARCHAR(255) NOT NULL,
  name       VARCHAR(255) NOT NULL DEFAULT '',
  joined_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
  email_sent TINYINT NOT NULL DEFAULT 0,
  ip_address VARCHAR(64) NOT NULL DEFAULT '',
  UNIQUE KEY uk_waitlist_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("执行数据库迁移失败: %w", err)
		}
	}
	return nil
}
