// Package authority 权威节点的 block 分配
package authority

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid/persistence"
	"github.com/lk2023060901/xdooria-gdid/pkg/logger"
	"github.com/lk2023060901/xdooria-gdid/pkg/otel"
	"go.uber.org/atomic"
)

// eraWarnThreshold era 达到该值后每次分配都告警
const eraWarnThreshold = math.MaxUint32 - 4

// running 进程内只允许一个 Allocator
var running atomic.Bool

// Store 持久化扇出，*persistence.Fanout 满足
type Store interface {
	Read(ctx context.Context, authority uint8, scope, sequence string) (persistence.PersistedID, error)
	Write(ctx context.Context, authority uint8, scope, sequence string, id persistence.PersistedID) error
}

// Reporter 上报需要人工介入的失败（era 耗尽、持久化全部不可用），*sentry.Client 满足
type Reporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
}

// sequenceKey 状态按 (sequence, authority) 区分，authority 轮换后各自独立推进
type sequenceKey struct {
	sequence  string
	authority uint8
}

type sequenceState struct {
	era  uint32
	next uint64
}

// scopeState 同一 scope 下的所有 sequence 共用一把锁
type scopeState struct {
	mu        sync.Mutex
	sequences map[sequenceKey]*sequenceState
}

// Allocator 权威节点分配器
type Allocator struct {
	cfg      *Config
	store    Store
	clock    gdid.Clock
	logger   logger.Logger
	metrics  *Metrics
	reporter Reporter

	mu     sync.Mutex
	scopes map[string]*scopeState

	allocations   atomic.Uint64
	failures      atomic.Uint64
	eraPromotions atomic.Uint64
	closed        atomic.Bool
}

// Option Allocator 选项
type Option func(*Allocator)

// WithClock 注入时钟
func WithClock(c gdid.Clock) Option {
	return func(a *Allocator) {
		if c != nil {
			a.clock = c
		}
	}
}

// WithLogger 设置日志
func WithLogger(l logger.Logger) Option {
	return func(a *Allocator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMetrics 设置指标
func WithMetrics(m *Metrics) Option {
	return func(a *Allocator) {
		a.metrics = m
	}
}

// WithReporter 设置失败上报
func WithReporter(r Reporter) Option {
	return func(a *Allocator) {
		a.reporter = r
	}
}

// New 创建 Allocator；同一进程内已有未关闭的 Allocator 时返回 ErrAlreadyRunning
func New(cfg *Config, store Store, opts ...Option) (*Allocator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.Wrap(gdid.ErrInvalidConfig, "authority: persistence store is nil")
	}
	if !running.CAS(false, true) {
		return nil, ErrAlreadyRunning
	}

	a := &Allocator{
		cfg:    cfg,
		store:  store,
		clock:  gdid.SystemClock{},
		logger: logger.NewNoop(),
		scopes: make(map[string]*scopeState),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.Named("authority")
	a.logger.Info("authority allocator started",
		"host", cfg.HostName,
		"authority_ids", cfg.AuthorityIDs,
		"max_block_size", cfg.MaxBlockSize,
	)
	return a, nil
}

// Close 释放进程级占用，之后的 Allocate 返回 ErrClosed
func (a *Allocator) Close() error {
	if !a.closed.CAS(false, true) {
		return nil
	}
	running.Store(false)
	return nil
}

// HostName 本进程标识
func (a *Allocator) HostName() string {
	return a.cfg.HostName
}

func (a *Allocator) scope(name string) *scopeState {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.scopes[name]
	if !ok {
		s = &scopeState{sequences: make(map[sequenceKey]*sequenceState)}
		a.scopes[name] = s
	}
	return s
}

// Allocate 为 (scope, sequence) 预留一个 block
//
// 名称与大小在任何 I/O 之前校验。scope 锁覆盖加载、计算、持久化和提交的全过程，
// 持久化全部失败时内存状态不变，重试会得到相同的起点。vicinity 目前被忽略。
func (a *Allocator) Allocate(ctx context.Context, scope, sequence string, blockSize int, vicinity *uint64) (*gdid.Block, error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}

	scope, sequence, err := gdid.CheckAndNormalize(scope, sequence)
	if err != nil {
		a.failures.Inc()
		return nil, err
	}
	if blockSize <= 0 {
		a.failures.Inc()
		return nil, errors.Wrapf(gdid.ErrInvalidBlockSize, "block size %d", blockSize)
	}
	if blockSize > a.cfg.MaxBlockSize {
		blockSize = a.cfg.MaxBlockSize
	}

	ctx, span := otel.StartSpan(ctx, "gdid/authority", "authority.allocate",
		otel.String("gdid.scope", scope),
		otel.String("gdid.sequence", sequence),
		otel.Int("gdid.block_size", blockSize),
	)
	start := time.Now()
	block, err := a.allocate(logger.WithSequence(ctx, scope, sequence), scope, sequence, blockSize)
	a.metrics.observeAllocation(scope, blockSize, time.Since(start).Seconds(), err)
	if err == nil {
		span.SetAttributes(
			otel.Int("gdid.authority", int(block.Authority)),
			otel.Int64("gdid.era", int64(block.Era)),
		)
	}
	otel.EndSpan(span, err)
	if err != nil {
		a.failures.Inc()
		a.report(ctx, scope, sequence, err)
		return nil, err
	}
	a.allocations.Inc()

	if vicinity != nil {
		a.logger.DebugContext(ctx, "vicinity hint ignored", "vicinity", *vicinity)
	}
	return block, nil
}

// report 只上报需要运维处理的失败，单次持久化抖动不上报
func (a *Allocator) report(ctx context.Context, scope, sequence string, err error) {
	if a.reporter == nil {
		return
	}
	var kind string
	switch {
	case errors.Is(err, gdid.ErrEraExhausted):
		kind = "era_exhausted"
	case errors.Is(err, gdid.ErrPersistenceUnavailable):
		kind = "persistence_unavailable"
	case errors.Is(err, gdid.ErrBootstrapFailed):
		kind = "bootstrap_failed"
	default:
		return
	}
	a.reporter.Report(ctx, err, map[string]string{
		"gdid.scope":    scope,
		"gdid.sequence": sequence,
		"gdid.failure":  kind,
		"gdid.host":     a.cfg.HostName,
	})
}

func (a *Allocator) allocate(ctx context.Context, scope, sequence string, blockSize int) (*gdid.Block, error) {
	now := a.clock.Now().UTC()
	authority := SelectAuthority(a.cfg.AuthorityIDs, now)
	key := sequenceKey{sequence: sequence, authority: authority}

	s := a.scope(scope)
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sequences[key]
	if !ok {
		loaded, err := a.store.Read(ctx, authority, scope, sequence)
		if err != nil {
			a.logger.ErrorContext(ctx, "sequence bootstrap failed", "authority", authority, "error", err)
			return nil, err
		}
		state = &sequenceState{era: loaded.Era, next: loaded.Value}
		s.sequences[key] = state
		a.logger.InfoContext(ctx, "sequence loaded",
			"authority", authority,
			"era", loaded.Era,
			"value", loaded.Value,
		)
	}

	era, value := state.era, state.next
	if era == math.MaxUint32 {
		return nil, errors.Wrapf(gdid.ErrEraExhausted, "%s/%s authority %d", scope, sequence, authority)
	}
	if authority == 0 && era == 0 && value == 0 {
		value = 1
	}

	if value >= gdid.CounterMax-uint64(blockSize+1) {
		era++
		value = 0
		if era == math.MaxUint32 {
			a.logger.ErrorContext(ctx, "era space exhausted", "authority", authority)
			return nil, errors.Wrapf(gdid.ErrEraExhausted, "%s/%s authority %d", scope, sequence, authority)
		}
		a.eraPromotions.Inc()
		a.metrics.observeEraPromotion(scope)
		a.logger.WarnContext(ctx, "era promoted", "authority", authority, "era", era)
	}
	if era >= eraWarnThreshold {
		a.logger.WarnContext(ctx, "era close to exhaustion", "authority", authority, "era", era)
	}

	next := value + uint64(blockSize)
	if err := a.store.Write(ctx, authority, scope, sequence, persistence.PersistedID{Era: era, Value: next}); err != nil {
		return nil, err
	}
	state.era, state.next = era, next

	return &gdid.Block{
		ScopeName:             scope,
		SequenceName:          sequence,
		Authority:             authority,
		AuthorityHost:         a.cfg.HostName,
		Era:                   era,
		StartCounterInclusive: value,
		BlockSize:             blockSize,
		ServerTimeUTC:         now,
	}, nil
}

// SequenceSnapshot 单个 (scope, sequence, authority) 的内存状态
type SequenceSnapshot struct {
	Scope     string `json:"scope"`
	Sequence  string `json:"sequence"`
	Authority uint8  `json:"authority"`
	Era       uint32 `json:"era"`
	NextValue uint64 `json:"next_value"`
}

// Snapshot 返回已加载的状态，sequence 为空时返回整个 scope
func (a *Allocator) Snapshot(scope, sequence string) ([]SequenceSnapshot, error) {
	if err := gdid.CheckName("scope", scope); err != nil {
		return nil, err
	}
	scope = gdid.NormalizeScope(scope)
	if sequence != "" {
		if err := gdid.CheckName("sequence", sequence); err != nil {
			return nil, err
		}
		sequence = gdid.NormalizeSequence(sequence)
	}

	a.mu.Lock()
	s, ok := a.scopes[scope]
	a.mu.Unlock()
	if !ok {
		return nil, nil
	}

	s.mu.Lock()
	out := make([]SequenceSnapshot, 0, len(s.sequences))
	for key, state := range s.sequences {
		if sequence != "" && key.sequence != sequence {
			continue
		}
		out = append(out, SequenceSnapshot{
			Scope:     scope,
			Sequence:  key.sequence,
			Authority: key.authority,
			Era:       state.era,
			NextValue: state.next,
		})
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Sequence != out[j].Sequence {
			return out[i].Sequence < out[j].Sequence
		}
		return out[i].Authority < out[j].Authority
	})
	return out, nil
}

// Stats 分配统计
type Stats struct {
	Host          string  `json:"host"`
	AuthorityIDs  []uint8 `json:"authority_ids"`
	Scopes        int     `json:"scopes"`
	Allocations   uint64  `json:"allocations"`
	Failures      uint64  `json:"failures"`
	EraPromotions uint64  `json:"era_promotions"`
}

// Stats 返回分配统计
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	scopes := len(a.scopes)
	a.mu.Unlock()

	return Stats{
		Host:          a.cfg.HostName,
		AuthorityIDs:  append([]uint8(nil), a.cfg.AuthorityIDs...),
		Scopes:        scopes,
		Allocations:   a.allocations.Load(),
		Failures:      a.failures.Load(),
		EraPromotions: a.eraPromotions.Load(),
	}
}
