package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is the shared foundation embedded by every gorm repository. It
// holds the connection (or a transaction handle via WithTx copies).
type Base struct {
	db *gorm.DB
}

// NewBase wraps a gorm connection for embedding.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB binds the connection to the supplied context.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}
