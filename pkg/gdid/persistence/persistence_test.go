package persistence

import (
	"context"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid"
	"github.com/lk2023060901/xdooria-gdid/pkg/logger"
	"github.com/lk2023060901/xdooria-gdid/pkg/otel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// stubLocation 可注入读写结果的位置
type stubLocation struct {
	name     string
	readID   PersistedID
	found    bool
	readErr  error
	writeErr error

	mu     sync.Mutex
	writes []PersistedID
}

func (s *stubLocation) Name() string { return s.name }

func (s *stubLocation) Write(_ context.Context, _ uint8, _, _ string, id PersistedID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.writes = append(s.writes, id)
	return nil
}

func (s *stubLocation) Read(context.Context, uint8, string, string) (PersistedID, bool, error) {
	return s.readID, s.found, s.readErr
}

func TestPersistedID_Encoding(t *testing.T) {
	tests := []struct {
		id   PersistedID
		text string
	}{
		{PersistedID{}, "0::0"},
		{PersistedID{Era: 1, Value: 100}, "1::100"},
		{PersistedID{Era: 4294967295, Value: 288230376151711743}, "4294967295::288230376151711743"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.text, tt.id.String())
		parsed, err := ParsePersistedID(tt.text)
		require.NoError(t, err)
		assert.Equal(t, tt.id, parsed)
	}

	for _, bad := range []string{"", "1:2", "x::1", "1::y", "4294967296::0", "-1::0"} {
		_, err := ParsePersistedID(bad)
		assert.True(t, errors.Is(err, ErrMalformedID), bad)
	}
}

func TestPersistedID_Less(t *testing.T) {
	assert.True(t, PersistedID{Era: 1, Value: 100}.Less(PersistedID{Era: 2, Value: 0}))
	assert.True(t, PersistedID{Era: 1, Value: 50}.Less(PersistedID{Era: 1, Value: 100}))
	assert.False(t, PersistedID{Era: 1, Value: 1}.Less(PersistedID{Era: 1, Value: 1}))
}

func TestFanout_ReadMax(t *testing.T) {
	f, err := NewFanout([]Location{
		&stubLocation{name: "a", readID: PersistedID{Era: 1, Value: 100}, found: true},
		&stubLocation{name: "b", readID: PersistedID{Era: 1, Value: 50}, found: true},
		&stubLocation{name: "c", readID: PersistedID{Era: 2, Value: 0}, found: true},
		&stubLocation{name: "empty"},
	})
	require.NoError(t, err)

	id, err := f.Read(context.Background(), 1, "SCOPE", "seq")
	require.NoError(t, err)
	assert.Equal(t, PersistedID{Era: 2, Value: 0}, id)
}

func TestFanout_ReadNothingStored(t *testing.T) {
	f, err := NewFanout([]Location{&stubLocation{name: "a"}, &stubLocation{name: "b"}})
	require.NoError(t, err)

	id, err := f.Read(context.Background(), 0, "SCOPE", "seq")
	require.NoError(t, err)
	assert.Equal(t, PersistedID{}, id)
}

func TestFanout_ReadFailureAborts(t *testing.T) {
	f, err := NewFanout([]Location{
		&stubLocation{name: "ok", readID: PersistedID{Era: 9, Value: 9}, found: true},
		&stubLocation{name: "broken", readErr: errors.New("disk on fire")},
	})
	require.NoError(t, err)

	_, err = f.Read(context.Background(), 0, "SCOPE", "seq")
	require.Error(t, err)
	assert.True(t, errors.Is(err, gdid.ErrBootstrapFailed))
	assert.True(t, gdid.IsRetryable(err))
}

func TestFanout_WritePartialFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l, err := logger.New(nil, logger.WithCore(core))
	require.NoError(t, err)

	good := &stubLocation{name: "good"}
	bad := &stubLocation{name: "bad", writeErr: errors.New("timeout")}
	f, err := NewFanout([]Location{bad, good}, WithLogger(l))
	require.NoError(t, err)

	require.NoError(t, f.Write(context.Background(), 3, "SCOPE", "seq", PersistedID{Era: 0, Value: 10}))
	assert.Equal(t, []PersistedID{{Value: 10}}, good.writes)

	warnings := logs.FilterMessage("persistence write failed").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "bad", warnings[0].ContextMap()["location"])
}

func TestFanout_WriteTotalFailure(t *testing.T) {
	f, err := NewFanout([]Location{
		&stubLocation{name: "a", writeErr: errors.New("a down")},
		&stubLocation{name: "b", writeErr: errors.New("b down")},
	})
	require.NoError(t, err)

	err = f.Write(context.Background(), 0, "SCOPE", "seq", PersistedID{Value: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, gdid.ErrPersistenceUnavailable))
	assert.Contains(t, err.Error(), "all 2 persistence locations failed")
}

func TestNewFanout_NoLocations(t *testing.T) {
	_, err := NewFanout(nil)
	assert.True(t, gdid.IsValidation(err))
}

func TestFanout_Spans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	p, err := otel.New(context.Background(), &otel.Config{Enabled: true, ServiceName: "gdid-test", ExporterType: otel.ExporterTypeNoop}, otel.WithSpanProcessor(rec))
	require.NoError(t, err)
	defer p.Close()

	good := &stubLocation{name: "good", readID: PersistedID{Value: 7}, found: true}
	bad := &stubLocation{name: "bad", writeErr: errors.New("timeout")}
	f, err := NewFanout([]Location{bad, good})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, f.Write(ctx, 3, "SCOPE", "seq", PersistedID{Value: 10}))
	good.writeErr = errors.New("timeout")
	require.Error(t, f.Write(ctx, 3, "SCOPE", "seq", PersistedID{Value: 20}))
	bad.readErr = errors.New("refused")
	_, err = f.Read(ctx, 3, "SCOPE", "seq")
	require.Error(t, err)

	ended := rec.Ended()
	require.Len(t, ended, 3)

	assert.Equal(t, "persistence.write", ended[0].Name())
	assert.Equal(t, codes.Ok, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), otel.String("gdid.scope", "SCOPE"))
	assert.Contains(t, ended[0].Attributes(), otel.Int("persistence.locations", 2))
	assert.Contains(t, ended[0].Attributes(), otel.Int("persistence.succeeded", 1))

	assert.Equal(t, "persistence.write", ended[1].Name())
	assert.Equal(t, codes.Error, ended[1].Status().Code)
	assert.Contains(t, ended[1].Attributes(), otel.Int("persistence.succeeded", 0))

	assert.Equal(t, "persistence.read", ended[2].Name())
	assert.Equal(t, codes.Error, ended[2].Status().Code)
}
