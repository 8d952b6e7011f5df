package registry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // sqlite driver for database/sql
)

// AuditStore mirrors validated operations into a SQL table for ad hoc
// operator queries. It is a non-authoritative secondary sink: the mmap
// log (logstore.go) is always the source of truth, and this mirror can
// be rebuilt from scratch by replaying the log.
type AuditStore struct{ db *sql.DB }

// OpenAuditStore opens/creates a SQLite database at dsn and ensures schema.
func OpenAuditStore(dsn string) (*AuditStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errKind(KindIOError, "open audit store: %v", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errKind(KindIOError, "ping audit store: %v", err)
	}

	for _, p := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, errKind(KindIOError, "set %s: %v", p, err)
		}
	}

	schema := `
CREATE TABLE IF NOT EXISTS trusts (
  id       INTEGER PRIMARY KEY AUTOINCREMENT,
  ts       INTEGER NOT NULL,
  from_idx INTEGER NOT NULL,
  to_key   TEXT    NOT NULL,
  amount   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS transfers (
  id    INTEGER PRIMARY KEY AUTOINCREMENT,
  ts    INTEGER NOT NULL,
  nhops INTEGER NOT NULL,
  nsigs INTEGER NOT NULL
);
`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errKind(KindIOError, "create audit schema: %v", err)
	}
	return &AuditStore{db: db}, nil
}

// Record mirrors a freshly-appended operation.
func (a *AuditStore) Record(op Operation) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch op.Tag {
	case TagTrust:
		t := op.Trust
		_, err := a.db.ExecContext(ctx,
			`INSERT INTO trusts(ts, from_idx, to_key, amount) VALUES(?, ?, ?, ?)`,
			t.TS, t.From, t.To.Hex(), t.Amount)
		return err
	case TagTransfer:
		t := op.Transfer
		_, err := a.db.ExecContext(ctx,
			`INSERT INTO transfers(ts, nhops, nsigs) VALUES(?, ?, ?)`,
			t.TS, len(t.Hops), len(t.Sigs))
		return err
	default:
		return fmt.Errorf("cannot mirror an unknown operation")
	}
}

// Close closes the underlying database handle.
func (a *AuditStore) Close() error { return a.db.Close() }
