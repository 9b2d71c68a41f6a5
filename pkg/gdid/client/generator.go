// Package client 从权威节点批量获取 block 并在本地发放 GDID
package client

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/config"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid"
	"github.com/lk2023060901/xdooria-gdid/pkg/logger"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/atomic"
)

// Generator GDID 生成器
//
// 同一 (scope, sequence) 的发放和重新分配串行执行，不同 sequence 互不影响。
type Generator struct {
	cfg       *Config
	hosts     []gdid.Host
	transport Transport
	logger    logger.Logger
	metrics   *Metrics
	clock     gdid.Clock
	pool      *ants.Pool

	mu        sync.Mutex
	sequences map[string]*sequenceState

	overrideMu sync.Mutex
	override   string
	allocated  bool

	hits              atomic.Uint64
	misses            atomic.Uint64
	allocations       atomic.Uint64
	hostFailures      atomic.Uint64
	prefetchesStarted atomic.Uint64
	prefetchesFailed  atomic.Uint64
	prefetchesUsed    atomic.Uint64
	closed            atomic.Bool
}

// New 创建生成器
func New(cfg *Config, transport Transport, opts ...Option) (*Generator, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to merge config")
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	if transport == nil {
		return nil, errors.Wrap(gdid.ErrInvalidConfig, "transport is nil")
	}

	g := &Generator{
		cfg:       merged,
		hosts:     sortedHosts(merged.Hosts),
		transport: transport,
		logger:    logger.NewNoop(),
		clock:     gdid.SystemClock{},
		sequences: make(map[string]*sequenceState),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.Named("gdid.client")

	pool, err := ants.NewPool(merged.PrefetchPoolSize,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p any) {
			g.logger.Error("prefetch task panicked", "panic", p)
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create prefetch pool")
	}
	g.pool = pool
	return g, nil
}

func (g *Generator) state(scope, sequence string) *sequenceState {
	key := scope + "/" + sequence
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sequences[key]
	if !ok {
		s = &sequenceState{}
		g.sequences[key] = s
	}
	return s
}

func (g *Generator) blockSize(s *sequenceState, hint int) int {
	if hint > 0 {
		return min(hint, g.cfg.MaxBlockSize)
	}
	return s.estimateBlockSize(g.cfg.DefaultBlockSize, g.cfg.MaxBlockSize)
}

// GenerateOne 生成一个 GDID
//
// 缓存命中时不做任何 I/O；当前 block 用完时优先换上预取的 block，否则同步分配。
// 失败时返回错误，不会返回 gdid.Zero 作为结果。
func (g *Generator) GenerateOne(ctx context.Context, scope, sequence string, opts ...GenerateOption) (gdid.GDID, error) {
	if g.closed.Load() {
		return gdid.Zero, ErrClosed
	}
	scope, sequence, err := gdid.CheckAndNormalize(scope, sequence)
	if err != nil {
		return gdid.Zero, err
	}
	o := applyGenerateOptions(opts)
	ctx = logger.WithSequence(ctx, scope, sequence)

	s := g.state(scope, sequence)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recordRequest(g.clock.Now())

	switch {
	case s.remaining() > 0:
		g.hits.Inc()
	case s.swapPrefetched():
		g.hits.Inc()
		g.prefetchesUsed.Inc()
	default:
		block, err := g.allocate(ctx, scope, sequence, g.blockSize(s, o.blockSize), o.vicinity)
		if err != nil {
			return gdid.Zero, err
		}
		s.current = newCachedBlock(block)
		g.misses.Inc()
	}

	id := s.current.take()
	g.maybePrefetch(scope, sequence, s, o)
	g.metrics.observeGenerated(scope, 1)
	return id, nil
}

// TryGenerateManyConsecutive 尽量从同一个 block 取出 count 个连续 ID，可能少于 count
//
// 当前 block 剩余不足 count/2 时直接按 count 重新分配（不走自适应大小）。
func (g *Generator) TryGenerateManyConsecutive(ctx context.Context, scope, sequence string, count int, opts ...GenerateOption) ([]gdid.GDID, error) {
	if g.closed.Load() {
		return nil, ErrClosed
	}
	scope, sequence, err := gdid.CheckAndNormalize(scope, sequence)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, errors.Wrapf(ErrInvalidCount, "count %d", count)
	}
	o := applyGenerateOptions(opts)
	ctx = logger.WithSequence(ctx, scope, sequence)

	s := g.state(scope, sequence)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recordRequest(g.clock.Now())

	if s.remaining() == 0 && s.swapPrefetched() {
		g.prefetchesUsed.Inc()
	}
	if s.remaining() == 0 || s.remaining() < count/2 {
		block, err := g.allocate(ctx, scope, sequence, min(count, g.cfg.MaxBlockSize), o.vicinity)
		if err != nil {
			return nil, err
		}
		s.current = newCachedBlock(block)
		g.misses.Inc()
	} else {
		g.hits.Inc()
	}

	ids := make([]gdid.GDID, min(count, s.current.remaining))
	for i := range ids {
		ids[i] = s.current.take()
	}
	g.maybePrefetch(scope, sequence, s, o)
	g.metrics.observeGenerated(scope, len(ids))
	return ids, nil
}

// maybePrefetch 低水位预取，调用方持有 s.mu
func (g *Generator) maybePrefetch(scope, sequence string, s *sequenceState, o generateOptions) {
	if o.noPrefetch || s.prefetchInFlight || s.prefetched != nil || s.current == nil {
		return
	}
	size := s.current.block.BlockSize
	if size <= MinPrefetchBlockSize {
		return
	}
	if float64(s.current.remaining)/float64(size) > LowWaterMark {
		return
	}

	next := g.blockSize(s, o.blockSize)
	s.prefetchInFlight = true
	g.prefetchesStarted.Inc()

	if err := g.pool.Submit(func() { g.prefetch(scope, sequence, s, next, o.vicinity) }); err != nil {
		s.prefetchInFlight = false
		g.prefetchesFailed.Inc()
		g.metrics.observePrefetch("rejected")
		g.logger.Warn("prefetch not scheduled", "scope", scope, "sequence", sequence, "error", err)
	}
}

// prefetch 在后台分配下一个 block，失败只记录日志
func (g *Generator) prefetch(scope, sequence string, s *sequenceState, size int, vicinity *uint64) {
	ctx := logger.WithSequence(context.Background(), scope, sequence)
	block, err := g.allocate(ctx, scope, sequence, size, vicinity)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefetchInFlight = false

	if err != nil {
		g.prefetchesFailed.Inc()
		g.metrics.observePrefetch("error")
		g.logger.WarnContext(ctx, "prefetch failed", "block_size", size, "error", err)
		return
	}
	s.prefetched = block
	g.metrics.observePrefetch("ok")
}

// targets 返回本次要尝试的节点，并锁定覆盖设置
func (g *Generator) targets() ([]gdid.Host, error) {
	g.overrideMu.Lock()
	defer g.overrideMu.Unlock()

	g.allocated = true
	if g.override != "" {
		return []gdid.Host{{Name: g.override}}, nil
	}
	if len(g.hosts) == 0 {
		return nil, ErrNoHosts
	}
	return g.hosts, nil
}

// allocate 按距离由近到远尝试每个节点一次
//
// 校验错误和 era 耗尽直接返回；其余错误记录后换下一个节点。
func (g *Generator) allocate(ctx context.Context, scope, sequence string, size int, vicinity *uint64) (*gdid.Block, error) {
	hosts, err := g.targets()
	if err != nil {
		return nil, err
	}

	var (
		attempted []string
		combined  error
	)
	for _, h := range hosts {
		block, err := g.allocateFrom(ctx, h.Name, scope, sequence, size, vicinity)
		g.metrics.observeAllocation(h.Name, size, err)
		if err == nil {
			g.allocations.Inc()
			return block, nil
		}
		if gdid.IsTerminal(err) {
			g.logger.ErrorContext(ctx, "authority rejected allocation", "host", h.Name, "error", err)
			return nil, err
		}

		g.hostFailures.Inc()
		g.logger.WarnContext(ctx, "authority host failed",
			"host", h.Name,
			"distance_km", h.DistanceKm,
			"error", err,
		)
		attempted = append(attempted, fmt.Sprintf("%s(%gkm)", h.Name, h.DistanceKm))
		combined = errors.CombineErrors(combined, errors.Wrapf(err, "host %s", h.Name))

		if ctx.Err() != nil {
			break
		}
	}

	return nil, errors.Mark(
		errors.Wrapf(combined, "all authority hosts failed: %s", strings.Join(attempted, ", ")),
		gdid.ErrAllHostsFailed,
	)
}

func (g *Generator) allocateFrom(ctx context.Context, host, scope, sequence string, size int, vicinity *uint64) (*gdid.Block, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
	defer cancel()

	block, err := g.transport.AllocateBlock(ctx, host, scope, sequence, size, vicinity)
	if err != nil {
		return nil, err
	}
	if err := block.Validate(); err != nil {
		return nil, err
	}
	if block.ScopeName != scope || block.SequenceName != sequence {
		return nil, errors.Wrapf(gdid.ErrInvalidBlock, "block for %s/%s returned for %s/%s",
			block.ScopeName, block.SequenceName, scope, sequence)
	}
	return block, nil
}

// SetAuthorityOverride 把所有分配固定到一个权威节点（测试用），空字符串取消覆盖
//
// 第一次分配之后不能再修改，返回 ErrOverrideLocked。
func (g *Generator) SetAuthorityOverride(host string) error {
	g.overrideMu.Lock()
	defer g.overrideMu.Unlock()

	if g.allocated && host != g.override {
		g.logger.Error("authority override changed after first allocation",
			"current", g.override,
			"requested", host,
		)
		return errors.Wrapf(ErrOverrideLocked, "current %q, requested %q", g.override, host)
	}
	g.override = host
	return nil
}

// AuthorityOverride 当前覆盖的节点
func (g *Generator) AuthorityOverride() string {
	g.overrideMu.Lock()
	defer g.overrideMu.Unlock()
	return g.override
}

// Hosts 按尝试顺序返回节点
func (g *Generator) Hosts() []gdid.Host {
	g.overrideMu.Lock()
	defer g.overrideMu.Unlock()
	return append([]gdid.Host(nil), g.hosts...)
}

// SetHosts 替换节点列表（服务发现刷新），正在进行的分配仍使用旧列表
func (g *Generator) SetHosts(hosts []gdid.Host) error {
	for _, h := range hosts {
		if h.Name == "" || h.DistanceKm < 0 {
			return errors.Wrapf(gdid.ErrInvalidConfig, "bad host %q (%.1fkm)", h.Name, h.DistanceKm)
		}
	}
	sorted := sortedHosts(hosts)

	g.overrideMu.Lock()
	defer g.overrideMu.Unlock()
	g.hosts = sorted
	return nil
}

// Stats 客户端统计
type Stats struct {
	Sequences         int    `json:"sequences"`
	Hits              uint64 `json:"hits"`
	Misses            uint64 `json:"misses"`
	Allocations       uint64 `json:"allocations"`
	HostFailures      uint64 `json:"host_failures"`
	PrefetchesStarted uint64 `json:"prefetches_started"`
	PrefetchesFailed  uint64 `json:"prefetches_failed"`
	PrefetchesUsed    uint64 `json:"prefetches_used"`
}

// Stats 返回统计
func (g *Generator) Stats() Stats {
	g.mu.Lock()
	n := len(g.sequences)
	g.mu.Unlock()

	return Stats{
		Sequences:         n,
		Hits:              g.hits.Load(),
		Misses:            g.misses.Load(),
		Allocations:       g.allocations.Load(),
		HostFailures:      g.hostFailures.Load(),
		PrefetchesStarted: g.prefetchesStarted.Load(),
		PrefetchesFailed:  g.prefetchesFailed.Load(),
		PrefetchesUsed:    g.prefetchesUsed.Load(),
	}
}

// Close 等待后台预取结束并关闭传输
func (g *Generator) Close() error {
	if !g.closed.CAS(false, true) {
		return nil
	}
	var combined error
	if err := g.pool.ReleaseTimeout(g.cfg.RequestTimeout); err != nil {
		combined = errors.Wrap(err, "release prefetch pool")
	}
	return errors.CombineErrors(combined, g.transport.Close())
}
