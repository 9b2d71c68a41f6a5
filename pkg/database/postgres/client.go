package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pool 连接池接口（*pgxpool.Pool 实现，测试中可替换）
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Client PostgreSQL 客户端
type Client struct {
	pool pool
	cfg  *Config
}

// New 创建 PostgreSQL 客户端并检查连通性
func New(ctx context.Context, cfg *Config) (*Client, error) {
	merged, err := MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to merge config")
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(merged.ConnString())
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse pool config")
	}
	poolConfig.MaxConns = merged.Pool.MaxConns
	poolConfig.MinConns = merged.Pool.MinConns
	poolConfig.MaxConnLifetime = merged.Pool.MaxConnLifetime
	poolConfig.MaxConnIdleTime = merged.Pool.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = merged.Pool.HealthCheckPeriod

	connectCtx, cancel := context.WithTimeout(ctx, merged.ConnectTimeout)
	defer cancel()

	p, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create pool")
	}
	if err := p.Ping(connectCtx); err != nil {
		p.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &Client{pool: p, cfg: merged}, nil
}

// applyQueryTimeout 应用查询超时
func (c *Client) applyQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.QueryTimeout > 0 {
		return context.WithTimeout(ctx, c.cfg.QueryTimeout)
	}
	return ctx, func() {}
}

// Exec 执行写操作，返回影响行数
func (c *Client) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	ctx, cancel := c.applyQueryTimeout(ctx)
	defer cancel()

	tag, err := c.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, errors.Wrap(err, "exec failed")
	}
	return tag.RowsAffected(), nil
}

// ExecBuilder 执行 squirrel 构建的语句
func (c *Client) ExecBuilder(ctx context.Context, b squirrel.Sqlizer) (int64, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "failed to build sql")
	}
	return c.Exec(ctx, sql, args...)
}

// QueryRowBuilder 执行 squirrel 构建的查询并扫描单行；无结果返回 ErrNoRows
func (c *Client) QueryRowBuilder(ctx context.Context, b squirrel.Sqlizer, dest ...any) error {
	sql, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build sql")
	}

	ctx, cancel := c.applyQueryTimeout(ctx)
	defer cancel()

	if err := c.pool.QueryRow(ctx, sql, args...).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNoRows
		}
		return errors.Wrap(err, "query failed")
	}
	return nil
}

// Ping 检查数据库连接
func (c *Client) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// Close 关闭连接池
func (c *Client) Close() {
	c.pool.Close()
}
