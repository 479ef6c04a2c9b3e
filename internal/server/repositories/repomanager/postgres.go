package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cloudrive/internal/dbx"
	"github.com/dmitrijs2005/cloudrive/internal/server/migrations"
	"github.com/dmitrijs2005/cloudrive/internal/server/repositories/nodes"
	"github.com/dmitrijs2005/cloudrive/internal/server/repositories/shares"
	"github.com/dmitrijs2005/cloudrive/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager serves users and nodes from one database and
// shares from a second one, which may be the same database.
type PostgresRepositoryManager struct {
	db      *sql.DB
	shareDB *sql.DB
	// ownsShareDB is false when both handles are the same pool.
	ownsShareDB bool
}

// NewPostgresRepositoryManager wraps already opened connection pools.
// shareDB may be nil, in which case db is used for shares as well.
func NewPostgresRepositoryManager(db *sql.DB, shareDB *sql.DB) *PostgresRepositoryManager {
	m := &PostgresRepositoryManager{db: db, shareDB: shareDB, ownsShareDB: shareDB != nil && shareDB != db}
	if shareDB == nil {
		m.shareDB = db
	}
	return m
}

// OpenPostgres opens both pools with the pgx driver and pings them.
func OpenPostgres(ctx context.Context, dsn, shareDSN string) (*PostgresRepositoryManager, error) {
	db, err := openDB(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if shareDSN == "" || shareDSN == dsn {
		return NewPostgresRepositoryManager(db, nil), nil
	}
	shareDB, err := openDB(ctx, shareDSN)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewPostgresRepositoryManager(db, shareDB), nil
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func (m *PostgresRepositoryManager) Users() users.Repository {
	return users.NewPostgresRepository(m.db)
}

func (m *PostgresRepositoryManager) Nodes() nodes.Repository {
	return nodes.NewPostgresRepository(m.db)
}

func (m *PostgresRepositoryManager) Shares() shares.Repository {
	return shares.NewPostgresRepository(m.shareDB)
}

// WithOwnerLock opens a transaction and takes a transaction-scoped advisory
// lock keyed by the owner id before running fn. The lock is released on
// commit or rollback.
func (m *PostgresRepositoryManager) WithOwnerLock(ctx context.Context, ownerID string, fn OwnerTxFunc) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, ownerID); err != nil {
			return fmt.Errorf("db error: acquire owner lock: %w", err)
		}
		return fn(ctx, nodes.NewPostgresRepository(tx))
	})
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded metadata migrations to the main
// database and the share migrations to the share database. Each set keeps
// its own goose version table, so both can target the same database.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	defer goose.SetTableName(migrations.MetaVersionTable)

	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	goose.SetTableName(migrations.MetaVersionTable)
	if err := gooseUpContext(ctx, m.db, migrations.MetaDir); err != nil {
		return fmt.Errorf("migrate metadata: %w", err)
	}

	goose.SetTableName(migrations.SharesVersionTable)
	if err := gooseUpContext(ctx, m.shareDB, migrations.SharesDir); err != nil {
		return fmt.Errorf("migrate shares: %w", err)
	}
	return nil
}

func (m *PostgresRepositoryManager) Close() error {
	var errs []error
	if m.ownsShareDB {
		errs = append(errs, m.shareDB.Close())
	}
	errs = append(errs, m.db.Close())
	return errors.Join(errs...)
}
