package dbopen

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// The index watcher and click-time lookups share one database file, so
// short bursts of lock contention are expected. Transactions are retried
// with linear backoff rather than failing the caller.
const (
	busyRetries = 3
	busyBackoff = 100 * time.Millisecond
)

// IsBusy reports whether err is SQLite lock contention, in any of the
// spellings the driver uses for it.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	for _, marker := range []string{
		"SQLITE_BUSY",
		"database is locked",
		"database table is locked",
	} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// RunTx runs fn inside a transaction, retrying the whole transaction on
// busy errors. fn must tolerate re-running from the top; any error it
// returns other than contention is final and rolls back.
func RunTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	var err error
	for attempt := 0; attempt < busyRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * busyBackoff
			select {
			case <-ctx.Done():
				return fmt.Errorf("dbopen: retry wait: %w", ctx.Err())
			case <-time.After(wait):
			}
		}
		if err = runTxOnce(ctx, db, fn); err == nil || !IsBusy(err) {
			return err
		}
	}
	return fmt.Errorf("dbopen: still busy after %d attempts: %w", busyRetries, err)
}

func runTxOnce(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("dbopen: begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("dbopen: commit: %w", err)
	}
	return nil
}
