package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/pazar_api/internal/database"
)

// InsertChunkSize bounds the rows sent in one multi-row INSERT.
const InsertChunkSize = 500

// Chunk splits rows into consecutive slices of at most size elements.
func Chunk[T any](rows []T, size int) [][]T {
	if size <= 0 {
		size = InsertChunkSize
	}
	out := make([][]T, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		out = append(out, rows[start:end])
	}
	return out
}

// replaceUserRows deletes every row of table owned by userID and inserts rows
// in chunks, all inside one transaction. insertQ is a named multi-row insert.
func replaceUserRows[T any](ctx context.Context, db *sqlx.DB, table string, userID int, insertQ string, rows []T) error {
	return database.WithTx(ctx, db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, table), userID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
		for _, chunk := range Chunk(rows, InsertChunkSize) {
			if _, err := tx.NamedExecContext(ctx, insertQ, chunk); err != nil {
				return fmt.Errorf("insert %s: %w", table, err)
			}
		}
		return nil
	})
}
