package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect は接続先データベースの種別を表す。
type Dialect string

const (
	// DialectPostgres はPostgreSQLを表す。
	DialectPostgres Dialect = "postgres"
	// DialectSQLite はファイルベースのSQLiteを表す。
	DialectSQLite Dialect = "sqlite3"
)

const sqliteScheme = "sqlite3://"

// ParseDialect はデータベースURLのスキームから種別を判定する。
// "postgres://" または "postgresql://" はPostgreSQL、"sqlite3://" はSQLiteとして扱う。
func ParseDialect(databaseURL string) (Dialect, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return DialectPostgres, nil
	case strings.HasPrefix(databaseURL, sqliteScheme):
		if strings.TrimPrefix(databaseURL, sqliteScheme) == "" {
			return "", fmt.Errorf("sqlite database path is empty")
		}
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database URL scheme: %q", MaskURL(databaseURL))
	}
}

// Open はデータベースURLに応じたドライバで接続を開く。
// SQLiteの場合は外部キー制約を有効化し、書き込み競合時のビジー待ちを設定する。
// sql.Openは接続を試行しないため、実際の接続確認にはdb.Ping()を使用すること。
func Open(databaseURL string) (*sql.DB, error) {
	dialect, err := ParseDialect(databaseURL)
	if err != nil {
		return nil, err
	}

	switch dialect {
	case DialectSQLite:
		db, err := sql.Open("sqlite3", sqliteDSN(databaseURL))
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		// SQLiteは単一ライター。コネクションを絞りロック競合を避ける。
		db.SetMaxOpenConns(1)
		return db, nil
	default:
		db, err := sql.Open("postgres", databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return db, nil
	}
}

// sqliteDSN は "sqlite3://path?query" をmattn/go-sqlite3のDSNに変換する。
func sqliteDSN(databaseURL string) string {
	dsn := strings.TrimPrefix(databaseURL, sqliteScheme)
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// MaskURL はURLの認証情報をログに出さないようマスクする。
func MaskURL(url string) string {
	if i := strings.Index(url, "@"); i >= 0 {
		if j := strings.Index(url, "://"); j >= 0 && j < i {
			return url[:j+3] + "***" + url[i:]
		}
		return "***" + url[i:]
	}
	return url
}
