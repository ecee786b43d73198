package server

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"

	DefaultSQLitePath = "data/devtycoon.sqlite"

	// The game has a single player slot.
	playerID = "default"
)

// Repository persists the player record.
type Repository interface {
	Load(ctx context.Context) (Player, bool, error)
	Save(ctx context.Context, p Player) error
	Close() error
}

type SQLRepository struct {
	dialect Dialect
	db      *sql.DB
}

// OpenRepositoryFromEnv picks the database from DB_DIALECT (sqlite by
// default), DB_SQLITE_PATH and DB_POSTGRES_DSN or DATABASE_URL.
func OpenRepositoryFromEnv(logger *log.Logger) (*SQLRepository, error) {
	dialectRaw := strings.TrimSpace(strings.ToLower(os.Getenv("DB_DIALECT")))
	if dialectRaw == "" {
		dialectRaw = string(DialectSQLite)
	}
	dialect := Dialect(dialectRaw)

	var dsn string
	switch dialect {
	case DialectSQLite:
		dsn = strings.TrimSpace(os.Getenv("DB_SQLITE_PATH"))
		if dsn == "" {
			dsn = DefaultSQLitePath
		}
	case DialectPostgres:
		dsn = strings.TrimSpace(os.Getenv("DB_POSTGRES_DSN"))
		if dsn == "" {
			dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
		}
		if dsn == "" {
			return nil, errors.New("DB_DIALECT=postgres requires DB_POSTGRES_DSN or DATABASE_URL")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DIALECT %q", dialectRaw)
	}
	repo, err := OpenRepository(dialect, dsn)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Printf("database: dialect=%s", dialect)
	}
	return repo, nil
}

func OpenRepository(dialect Dialect, dsn string) (*SQLRepository, error) {
	var driverName string
	switch dialect {
	case DialectSQLite:
		driverName = "sqlite"
		if dsn == "" {
			return nil, errors.New("empty sqlite path")
		}
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	case DialectPostgres:
		driverName = "pgx"
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}

	r := &SQLRepository{dialect: dialect, db: db}
	if dialect == DialectSQLite {
		if err := initPragmas(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := r.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func initPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("sqlite %s: %w", p, err)
		}
	}
	return nil
}

func (r *SQLRepository) Dialect() Dialect { return r.dialect }

func (r *SQLRepository) Close() error { return r.db.Close() }

func (r *SQLRepository) bind(pos int) string {
	if r.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

func (r *SQLRepository) applyMigrations(ctx context.Context) error {
	create := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL
		)
	`
	if _, err := r.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := map[string]bool{}
	rows, err := r.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema migration: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate schema migrations: %w", err)
	}
	rows.Close()

	files, err := fs.Glob(migrationFS, fmt.Sprintf("migrations/%s/*.sql", r.dialect))
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)
	for _, file := range files {
		base := filepath.Base(file)
		if applied[base] {
			continue
		}
		body, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration tx %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		q := fmt.Sprintf("INSERT INTO schema_migrations (version, applied_at) VALUES (%s, %s)", r.bind(1), r.bind(2))
		if _, err := tx.ExecContext(ctx, q, base, time.Now().UTC()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

func (r *SQLRepository) Load(ctx context.Context) (Player, bool, error) {
	var payload string
	q := "SELECT payload FROM players WHERE player_id = " + r.bind(1)
	err := r.db.QueryRowContext(ctx, q, playerID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Player{}, false, nil
	}
	if err != nil {
		return Player{}, false, fmt.Errorf("load player: %w", err)
	}
	var p Player
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return Player{}, false, fmt.Errorf("decode player: %w", err)
	}
	if p.Upgrades == nil {
		p.Upgrades = []string{}
	}
	return p, true, nil
}

func (r *SQLRepository) Save(ctx context.Context, p Player) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode player: %w", err)
	}
	q := fmt.Sprintf(`INSERT INTO players (player_id, payload, updated_at) VALUES (%s, %s, %s)
		ON CONFLICT (player_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		r.bind(1), r.bind(2), r.bind(3))
	if _, err := r.db.ExecContext(ctx, q, playerID, string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("save player: %w", err)
	}
	return nil
}
