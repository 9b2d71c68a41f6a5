package postgres

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i := range dest {
		*(dest[i].(*int64)) = r.vals[i].(int64)
	}
	return nil
}

type fakePool struct {
	lastSQL  string
	lastArgs []any
	row      fakeRow
}

func (p *fakePool) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.lastSQL, p.lastArgs = sql, args
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (p *fakePool) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	p.lastSQL, p.lastArgs = sql, args
	return p.row
}

func (p *fakePool) Ping(context.Context) error { return nil }
func (p *fakePool) Close()                     {}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.True(t, errors.Is((*Config)(nil).Validate(), ErrNilConfig))

	bad := DefaultConfig()
	bad.Port = 0
	assert.True(t, errors.Is(bad.Validate(), ErrInvalidConfig))

	bad = DefaultConfig()
	bad.Pool.MinConns = bad.Pool.MaxConns + 1
	assert.True(t, errors.Is(bad.Validate(), ErrInvalidConfig))
}

func TestMergeConfig(t *testing.T) {
	merged, err := MergeConfig(DefaultConfig(), &Config{Host: "db", DBName: "ids"})
	require.NoError(t, err)
	assert.Equal(t, "db", merged.Host)
	assert.Equal(t, "ids", merged.DBName)
	assert.Equal(t, 5432, merged.Port)
	assert.Contains(t, merged.ConnString(), "host=db port=5432")
}

func TestClient_Builders(t *testing.T) {
	ctx := context.Background()
	p := &fakePool{row: fakeRow{vals: []any{int64(7)}}}
	c := &Client{pool: p, cfg: DefaultConfig()}

	n, err := c.ExecBuilder(ctx, QueryBuilder.Insert("t").Columns("a").Values(1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, "INSERT INTO t (a) VALUES ($1)", p.lastSQL)

	var v int64
	require.NoError(t, c.QueryRowBuilder(ctx, QueryBuilder.Select("a").From("t").Where("k = ?", "x"), &v))
	assert.Equal(t, int64(7), v)
	assert.Equal(t, "SELECT a FROM t WHERE k = $1", p.lastSQL)

	p.row = fakeRow{err: pgx.ErrNoRows}
	assert.True(t, errors.Is(c.QueryRowBuilder(ctx, QueryBuilder.Select("a").From("t"), &v), ErrNoRows))
}
