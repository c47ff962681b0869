package migration

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// lockKey serialises concurrent runners, e.g. the server booting while
// todoctl migrate runs.
const lockKey int64 = 581204773

var (
	ErrNilDB = errors.New("migration: nil db")

	fileRe = regexp.MustCompile(`^V(\d+)__([A-Za-z0-9_.-]+)\.sql$`)
)

// Runner applies V<version>__<name>.sql files from Dir.
type Runner struct {
	Dir    string
	Logger *zap.Logger
}

type Migration struct {
	Version  int64
	Name     string
	Filename string
	SQL      string
	Checksum string
}

// Status is one migration file and, when it already ran, when that was.
type Status struct {
	Migration
	AppliedAt *time.Time
}

func (s Status) Applied() bool { return s.AppliedAt != nil }

type applied struct {
	checksum  string
	appliedAt time.Time
}

// Run applies every pending migration in version order and returns the
// versions it applied. Files that already ran must keep their checksum.
func (r Runner) Run(ctx context.Context, db *sql.DB) ([]int64, error) {
	migs, err := r.load()
	if err != nil || len(migs) == 0 {
		return nil, err
	}

	var done []int64
	err = r.locked(ctx, db, func(conn *sql.Conn) error {
		seen, err := appliedVersions(ctx, conn)
		if err != nil {
			return err
		}
		for _, m := range migs {
			if a, ok := seen[m.Version]; ok {
				if a.checksum != m.Checksum {
					return fmt.Errorf("migration %s was changed after it was applied", m.Filename)
				}
				continue
			}
			if err := apply(ctx, conn, m); err != nil {
				return err
			}
			done = append(done, m.Version)
			r.logger().Info("migration applied", zap.Int64("version", m.Version), zap.String("file", m.Filename))
		}
		return nil
	})
	return done, err
}

// Status lists every migration file with its applied time, if any.
func (r Runner) Status(ctx context.Context, db *sql.DB) ([]Status, error) {
	migs, err := r.load()
	if err != nil {
		return nil, err
	}

	out := make([]Status, 0, len(migs))
	err = r.locked(ctx, db, func(conn *sql.Conn) error {
		seen, err := appliedVersions(ctx, conn)
		if err != nil {
			return err
		}
		for _, m := range migs {
			st := Status{Migration: m}
			if a, ok := seen[m.Version]; ok {
				at := a.appliedAt
				st.AppliedAt = &at
			}
			out = append(out, st)
		}
		return nil
	})
	return out, err
}

func (r Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r Runner) load() ([]Migration, error) {
	dir := strings.TrimSpace(r.Dir)
	if dir == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(filepath.Dir(exe), "migrations")
	}
	return Load(dir)
}

// locked runs fn on a single connection holding the advisory lock, after
// making sure the bookkeeping table exists.
func (r Runner) locked(ctx context.Context, db *sql.DB, fn func(conn *sql.Conn) error) error {
	if db == nil {
		return ErrNilDB
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, lockKey); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockKey)
	}()

	if _, err := conn.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version BIGINT PRIMARY KEY,
	name TEXT NOT NULL,
	checksum TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	return fn(conn)
}

// Load reads migrations from dir, sorted by version. A missing directory
// yields none.
func Load(dir string) ([]Migration, error) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return LoadFS(os.DirFS(dir))
}

// LoadFS reads migrations from the root of fsys.
func LoadFS(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}

	var migs []Migration
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m, ok, err := parse(fsys, e.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			migs = append(migs, m)
		}
	}

	sort.Slice(migs, func(i, j int) bool { return migs[i].Version < migs[j].Version })
	for i := 1; i < len(migs); i++ {
		if migs[i].Version == migs[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version: %d", migs[i].Version)
		}
	}
	return migs, nil
}

func parse(fsys fs.FS, name string) (Migration, bool, error) {
	match := fileRe.FindStringSubmatch(name)
	if match == nil {
		return Migration{}, false, nil
	}
	version, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return Migration{}, false, fmt.Errorf("invalid migration version: %s", name)
	}

	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Migration{}, false, err
	}
	body := strings.TrimSpace(string(raw))
	if body == "" {
		return Migration{}, false, fmt.Errorf("empty migration file: %s", name)
	}

	sum := sha256.Sum256([]byte(body))
	return Migration{
		Version:  version,
		Name:     match[2],
		Filename: name,
		SQL:      body,
		Checksum: hex.EncodeToString(sum[:]),
	}, true, nil
}

func appliedVersions(ctx context.Context, conn *sql.Conn) (map[int64]applied, error) {
	rows, err := conn.QueryContext(ctx, `SELECT version, checksum, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64]applied{}
	for rows.Next() {
		var (
			v int64
			a applied
		)
		if err := rows.Scan(&v, &a.checksum, &a.appliedAt); err != nil {
			return nil, err
		}
		out[v] = a
	}
	return out, rows.Err()
}

func apply(ctx context.Context, conn *sql.Conn, m Migration) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("apply %s: %w", m.Filename, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name, checksum) VALUES ($1, $2, $3)`,
		m.Version, m.Name, m.Checksum,
	); err != nil {
		return fmt.Errorf("record %s: %w", m.Filename, err)
	}
	return tx.Commit()
}
