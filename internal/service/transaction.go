package service

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// dbExecutor runs statements directly or inside a transaction it opens.
type dbExecutor interface {
	txProvider
	sqlx.ExtContext
}

var writeTxOptions = &sql.TxOptions{Isolation: sql.LevelReadCommitted}

func rollbackOnError(tx *sqlx.Tx, err *error) {
	if *err != nil {
		_ = tx.Rollback()
	}
}
