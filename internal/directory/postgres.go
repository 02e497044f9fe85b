package directory

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
)

// PostgresStore keeps the identity→address mapping in a single table.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects with the given DSN and ensures the schema exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	const schema = `CREATE TABLE IF NOT EXISTS addresses (
		identity TEXT PRIMARY KEY,
		address  TEXT NOT NULL UNIQUE
	)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) Get(ctx context.Context, identity string) (string, bool, error) {
	const query = `SELECT address FROM addresses WHERE identity = $1`

	var address string
	err := p.db.QueryRowContext(ctx, query, identity).Scan(&address)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return address, true, nil
}

func (p *PostgresStore) Put(ctx context.Context, identity, address string) error {
	const query = `INSERT INTO addresses (identity, address)
	VALUES ($1, $2) ON CONFLICT (identity) DO NOTHING`

	_, err := p.db.ExecContext(ctx, query, identity, address)
	return err
}

func (p *PostgresStore) Close() error { return p.db.Close() }

var _ Store = (*PostgresStore)(nil)
