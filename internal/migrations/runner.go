// 文件路径: internal/migrations/runner.go
// 模块说明: 这是 internal 模块里的 runner 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package migrations

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
)

const dir = "sqlite"

func setup() error {
	goose.SetBaseFS(SQLite)
	return goose.SetDialect("sqlite3")
}

// Up migrates the profile schema to the latest version.
func Up(db *sql.DB) error {
	if err := setup(); err != nil {
		return err
	}
	return goose.Up(db, dir)
}

// Down rolls back a single migration.
func Down(db *sql.DB) error {
	if err := setup(); err != nil {
		return err
	}
	return goose.Down(db, dir)
}

// Status prints migration status.
func Status(db *sql.DB) error {
	if err := setup(); err != nil {
		return err
	}
	return goose.Status(db, dir)
}

// Run dispatches a migrate sub-command ("up", "down", "status").
func Run(db *sql.DB, command string) error {
	switch strings.ToLower(strings.TrimSpace(command)) {
	case "", "up":
		return Up(db)
	case "down":
		return Down(db)
	case "status":
		return Status(db)
	default:
		return fmt.Errorf("migrations: unknown command %q / 未知迁移命令", command)
	}
}
