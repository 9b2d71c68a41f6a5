package persistence

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/database/postgres"
)

// DefaultTable postgres 位置默认表名
const DefaultTable = "gdid_persisted_ids"

// Schema 建表语句，%s 为表名
const Schema = `CREATE TABLE IF NOT EXISTS %s (
	authority  SMALLINT    NOT NULL,
	scope      VARCHAR(80) NOT NULL,
	sequence   VARCHAR(80) NOT NULL,
	id         TEXT        NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (authority, scope, sequence)
)`

// SQLStore PostgresLocation 需要的最小接口，*postgres.Client 满足
type SQLStore interface {
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	ExecBuilder(ctx context.Context, b squirrel.Sqlizer) (int64, error)
	QueryRowBuilder(ctx context.Context, b squirrel.Sqlizer, dest ...any) error
}

// PostgresLocation 一行一个键，id 列保存 "<era>::<value>"
type PostgresLocation struct {
	name   string
	store  SQLStore
	table  string
	closer func() error
}

// NewPostgresLocation 创建 postgres 位置
func NewPostgresLocation(name string, store SQLStore, table string) *PostgresLocation {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresLocation{name: name, store: store, table: table}
}

func (p *PostgresLocation) Name() string { return p.name }

// EnsureSchema 建表（幂等）
func (p *PostgresLocation) EnsureSchema(ctx context.Context) error {
	if _, err := p.store.Exec(ctx, fmt.Sprintf(Schema, p.table)); err != nil {
		return errors.Wrapf(err, "create table %s", p.table)
	}
	return nil
}

func (p *PostgresLocation) Write(ctx context.Context, authority uint8, scope, sequence string, id PersistedID) error {
	q := postgres.QueryBuilder.
		Insert(p.table).
		Columns("authority", "scope", "sequence", "id").
		Values(int16(authority), scope, sequence, id.String()).
		Suffix("ON CONFLICT (authority, scope, sequence) DO UPDATE SET id = EXCLUDED.id, updated_at = now()")

	_, err := p.store.ExecBuilder(ctx, q)
	return err
}

func (p *PostgresLocation) Read(ctx context.Context, authority uint8, scope, sequence string) (PersistedID, bool, error) {
	q := postgres.QueryBuilder.
		Select("id").
		From(p.table).
		Where(squirrel.Eq{"authority": int16(authority), "scope": scope, "sequence": sequence})

	var raw string
	if err := p.store.QueryRowBuilder(ctx, q, &raw); err != nil {
		if errors.Is(err, postgres.ErrNoRows) {
			return PersistedID{}, false, nil
		}
		return PersistedID{}, false, err
	}
	id, err := ParsePersistedID(raw)
	if err != nil {
		return PersistedID{}, false, err
	}
	return id, true, nil
}

// Close 关闭由 Open 创建的连接池
func (p *PostgresLocation) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}
