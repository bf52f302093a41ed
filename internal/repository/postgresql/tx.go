package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"campus_parking/internal/repository"
)

// pgTx bọc *sql.Tx đằng sau repository.Tx. Các repository trong package
// này lấy lại *sql.Tx bằng unwrapTx khi thực hiện thao tác trong transaction.
type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) Commit() error   { return t.tx.Commit() }
func (t *pgTx) Rollback() error { return t.tx.Rollback() }

type txBeginner struct {
	db *sql.DB
}

func NewTxBeginner(db *sql.DB) repository.TxBeginner {
	return &txBeginner{db: db}
}

func (b *txBeginner) BeginTx(ctx context.Context) (repository.Tx, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("lỗi mở transaction: %w", err)
	}
	return &pgTx{tx: tx}, nil
}

func unwrapTx(tx repository.Tx) (*sql.Tx, error) {
	pt, ok := tx.(*pgTx)
	if !ok {
		return nil, fmt.Errorf("transaction không phải do postgresql.TxBeginner tạo ra: %T", tx)
	}
	return pt.tx, nil
}
