/*
Package sqlitebackend is a fifth, file-durable Backend variant wrapping
github.com/mattn/go-sqlite3 over a two-table schema: kv for point values and
zset for sorted-set membership. This is how the teacher's own storage
dependency is kept busy in the new domain: the WAL-mode, migration-on-New(),
and sync.RWMutex texture of store/sqlite/sqlite.go is reused, just
re-targeted at the byte-level KV vocabulary instead of a transactions table.

WAL MODE:
  Opened with _journal_mode=WAL for the same reason the teacher opens it:
  multiple readers don't block each other, and crash recovery is cheap.

ATOMIC WRITE:
  AtomicWrite runs as a single BEGIN IMMEDIATE transaction on a dedicated
  connection, acquiring the write lock up front so a SetIfAbsent existence
  check and its following INSERT can't race with another writer.
*/
package sqlitebackend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dskart/payment-engine/backend"
)

type Backend struct {
	db *sql.DB
	mu sync.RWMutex
}

func New(dbPath string) (*Backend, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	b := &Backend{db: db}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return b, nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}

func (b *Backend) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key   BLOB PRIMARY KEY,
		value BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS zset (
		set_key BLOB NOT NULL,
		member  BLOB NOT NULL,
		score   REAL NOT NULL,
		PRIMARY KEY (set_key, member)
	);

	CREATE INDEX IF NOT EXISTS idx_zset_score ON zset(set_key, score);
	`
	_, err := b.db.Exec(schema)
	return err
}

func (b *Backend) Get(ctx context.Context, key []byte) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var value []byte
	err := b.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return value, err
}

func (b *Backend) BatchGet(ctx context.Context, keys [][]byte) (map[string][]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string][]byte, len(keys))
	// go-sqlite3 has no multi-value IN binding helper at the database/sql
	// layer, so resolve one key per round trip against the same connection.
	for _, k := range keys {
		var value []byte
		err := b.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", k).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[string(k)] = value
	}
	return out, nil
}

func (b *Backend) ZAdd(ctx context.Context, setKey, member []byte, score float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO zset(set_key, member, score) VALUES (?, ?, ?)
		 ON CONFLICT(set_key, member) DO UPDATE SET score = excluded.score`,
		setKey, member, score)
	return err
}

func (b *Backend) ZRem(ctx context.Context, setKey, member []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.db.ExecContext(ctx, "DELETE FROM zset WHERE set_key = ? AND member = ?", setKey, member)
	return err
}

func (b *Backend) ZRangeByScore(ctx context.Context, setKey []byte, min, max float64, limit int) ([][]byte, error) {
	return b.rangeByScore(ctx, setKey, min, max, limit, false)
}

func (b *Backend) ZRevRangeByScore(ctx context.Context, setKey []byte, min, max float64, limit int) ([][]byte, error) {
	return b.rangeByScore(ctx, setKey, min, max, limit, true)
}

func (b *Backend) rangeByScore(ctx context.Context, setKey []byte, min, max float64, limit int, descending bool) ([][]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	order := "ASC"
	if descending {
		order = "DESC"
	}
	query := fmt.Sprintf("SELECT member FROM zset WHERE set_key = ? AND score BETWEEN ? AND ? ORDER BY score %s", order)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := b.db.QueryContext(ctx, query, setKey, min, max)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var member []byte
		if err := rows.Scan(&member); err != nil {
			return nil, err
		}
		out = append(out, member)
	}
	return out, rows.Err()
}

func (b *Backend) AtomicWrite(ctx context.Context, batch *backend.WriteBatch) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	conn, err := b.db.Conn(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return false, err
	}

	committed := false
	defer func() {
		if !committed {
			conn.ExecContext(ctx, "ROLLBACK")
		}
	}()

	for _, op := range batch.Ops() {
		switch op.Kind {
		case backend.OpSetIfAbsent:
			var exists int
			err := conn.QueryRowContext(ctx, "SELECT 1 FROM kv WHERE key = ?", op.Key).Scan(&exists)
			if err == nil {
				return false, nil
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return false, err
			}
			if _, err := conn.ExecContext(ctx, "INSERT INTO kv(key, value) VALUES (?, ?)", op.Key, op.Value); err != nil {
				return false, err
			}
		case backend.OpSet:
			if _, err := conn.ExecContext(ctx,
				`INSERT INTO kv(key, value) VALUES (?, ?)
				 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, op.Key, op.Value); err != nil {
				return false, err
			}
		case backend.OpZAdd:
			if _, err := conn.ExecContext(ctx,
				`INSERT INTO zset(set_key, member, score) VALUES (?, ?, ?)
				 ON CONFLICT(set_key, member) DO UPDATE SET score = excluded.score`,
				op.SetKey, op.Member, op.Score); err != nil {
				return false, err
			}
		case backend.OpZRem:
			if _, err := conn.ExecContext(ctx, "DELETE FROM zset WHERE set_key = ? AND member = ?", op.SetKey, op.Member); err != nil {
				return false, err
			}
		}
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}
