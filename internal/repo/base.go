// Package repo holds the shared GORM plumbing for journal repositories.
package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base binds a repository to a connection or an open transaction.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection scoped to ctx. A nil ctx returns it unscoped.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Valid reports whether a connection is bound.
func (b Base) Valid() bool {
	return b.db != nil
}

// Within returns a Base bound to tx, or b itself when tx is nil.
func (b Base) Within(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}
