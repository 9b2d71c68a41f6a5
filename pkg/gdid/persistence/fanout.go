package persistence

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid"
	"github.com/lk2023060901/xdooria-gdid/pkg/logger"
	"github.com/lk2023060901/xdooria-gdid/pkg/otel"
	"golang.org/x/sync/errgroup"
)

// Fanout 把读写分发到全部持久化位置
//
// 写：全部尝试，单点失败只记录日志，至少一个成功即成功。
// 读：全部读取取最大值，任意一个失败立即中止。
// 两者的不对称是有意的：启动时宁可失败也不能从陈旧位置恢复出较小的值。
type Fanout struct {
	locations []Location
	logger    logger.Logger
	metrics   *Metrics
	timeout   time.Duration
}

// FanoutOption Fanout 选项
type FanoutOption func(*Fanout)

// WithLogger 设置日志
func WithLogger(l logger.Logger) FanoutOption {
	return func(f *Fanout) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithMetrics 设置指标
func WithMetrics(m *Metrics) FanoutOption {
	return func(f *Fanout) {
		f.metrics = m
	}
}

// WithTimeout 单个位置的读写超时，0 表示只受调用方 ctx 限制
func WithTimeout(d time.Duration) FanoutOption {
	return func(f *Fanout) {
		f.timeout = d
	}
}

// NewFanout 创建 Fanout，locations 按优先级排列
func NewFanout(locations []Location, opts ...FanoutOption) (*Fanout, error) {
	if len(locations) == 0 {
		return nil, errors.Wrap(gdid.ErrInvalidConfig, "no persistence locations configured")
	}

	f := &Fanout{
		locations: locations,
		logger:    logger.NewNoop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.Named("persistence")
	return f, nil
}

// Locations 返回位置名称，顺序即优先级
func (f *Fanout) Locations() []string {
	names := make([]string, len(f.locations))
	for i, loc := range f.locations {
		names[i] = loc.Name()
	}
	return names
}

func (f *Fanout) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.timeout > 0 {
		return context.WithTimeout(ctx, f.timeout)
	}
	return ctx, func() {}
}

const tracerName = "gdid/persistence"

func spanAttributes(authority uint8, scope, sequence string, locations int) []otel.Attribute {
	return []otel.Attribute{
		otel.Int("gdid.authority", int(authority)),
		otel.String("gdid.scope", scope),
		otel.String("gdid.sequence", sequence),
		otel.Int("persistence.locations", locations),
	}
}

// Write 写入全部位置，全部失败时返回 ErrPersistenceUnavailable
func (f *Fanout) Write(ctx context.Context, authority uint8, scope, sequence string, id PersistedID) (err error) {
	ctx, span := otel.StartSpan(ctx, tracerName, "persistence.write", spanAttributes(authority, scope, sequence, len(f.locations))...)
	defer func() { otel.EndSpan(span, err) }()

	var (
		g         errgroup.Group
		mu        sync.Mutex
		failures  []error
		succeeded int
	)

	for _, loc := range f.locations {
		g.Go(func() error {
			lctx, cancel := f.withTimeout(ctx)
			defer cancel()

			err := loc.Write(lctx, authority, scope, sequence, id)
			f.metrics.observe(loc.Name(), opWrite, err)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				f.logger.WarnContext(ctx, "persistence write failed",
					"location", loc.Name(),
					"authority", authority,
					"id", id.String(),
					"error", err,
				)
				failures = append(failures, errors.Wrapf(err, "location %s", loc.Name()))
				return nil
			}
			succeeded++
			return nil
		})
	}
	_ = g.Wait()
	span.SetAttributes(otel.Int("persistence.succeeded", succeeded))

	if succeeded == 0 {
		var combined error
		for _, err := range failures {
			combined = errors.CombineErrors(combined, err)
		}
		f.logger.ErrorContext(ctx, "all persistence locations failed",
			"authority", authority,
			"id", id.String(),
			"locations", len(f.locations),
		)
		return errors.Mark(errors.Wrapf(combined, "all %d persistence locations failed", len(f.locations)), gdid.ErrPersistenceUnavailable)
	}
	return nil
}

// Read 读取全部位置并返回 (era, value) 最大者；没有任何记录时返回 (0, 0)
func (f *Fanout) Read(ctx context.Context, authority uint8, scope, sequence string) (_ PersistedID, err error) {
	ctx, span := otel.StartSpan(ctx, tracerName, "persistence.read", spanAttributes(authority, scope, sequence, len(f.locations))...)
	defer func() { otel.EndSpan(span, err) }()

	g, gctx := errgroup.WithContext(ctx)

	var (
		mu     sync.Mutex
		result PersistedID
	)

	for _, loc := range f.locations {
		g.Go(func() error {
			lctx, cancel := f.withTimeout(gctx)
			defer cancel()

			id, found, err := loc.Read(lctx, authority, scope, sequence)
			f.metrics.observe(loc.Name(), opRead, err)
			if err != nil {
				f.logger.ErrorContext(ctx, "persistence read failed",
					"location", loc.Name(),
					"authority", authority,
					"error", err,
				)
				return errors.Wrapf(err, "location %s", loc.Name())
			}
			if !found {
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			if result.Less(id) {
				result = id
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return PersistedID{}, errors.Mark(errors.Wrapf(err, "bootstrap %s/%s", scope, sequence), gdid.ErrBootstrapFailed)
	}
	return result, nil
}

// Close 关闭持有连接的位置
func (f *Fanout) Close() error {
	var combined error
	for _, loc := range f.locations {
		if c, ok := loc.(io.Closer); ok {
			combined = errors.CombineErrors(combined, c.Close())
		}
	}
	return combined
}
