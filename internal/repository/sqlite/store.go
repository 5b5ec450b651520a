// 文件路径: internal/repository/sqlite/store.go
// 模块说明: 这是 internal 模块里的 store 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package sqlite

import (
	"database/sql"

	"github.com/creamcroissant/boxbuild/internal/repository"
)

// Store wires SQLite-backed repository implementations.
type Store struct {
	db       *sql.DB
	profiles repository.ProfileRepository
	groups   repository.GroupRepository
	rules    repository.RuleRepository
}

// NewStore constructs a SQLite-backed repository store.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:       db,
		profiles: newProfileRepo(db),
		groups:   newGroupRepo(db),
		rules:    newRuleRepo(db),
	}
}

func (s *Store) Profiles() repository.ProfileRepository {
	return s.profiles
}

func (s *Store) Groups() repository.GroupRepository {
	return s.groups
}

func (s *Store) Rules() repository.RuleRepository {
	return s.rules
}
