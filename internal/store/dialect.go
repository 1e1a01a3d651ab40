package store

// Dialect 表示数据库方言，用于处理 MySQL/SQLite 的 SQL 语法差异。
type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite"
)

// forUpdateClause 在 MySQL 下为读-改-写加行锁；SQLite 单写连接本身即串行。
func forUpdateClause(d Dialect) string {
	if d == DialectMySQL {
		return " FOR UPDATE"
	}
	return ""
}

func insertIgnoreVerb(d Dialect) string {
	if d == DialectMySQL {
		return "INSERT IGNORE"
	}
	return "INSERT OR IGNORE"
}
