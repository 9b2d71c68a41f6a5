package logger

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "nil config uses default", config: nil},
		{name: "json console", config: &Config{Level: DebugLevel, Format: JSONFormat, EnableConsole: true}},
		{name: "file without path", config: &Config{EnableFile: true}, wantErr: true},
		{
			name: "file with size rotation",
			config: &Config{
				EnableFile: true,
				OutputPath: filepath.Join(t.TempDir(), "authority.log"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestLogger_FieldsAndContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l, err := New(nil, WithCore(core), WithGlobalFields("host", "auth-a"))
	require.NoError(t, err)

	named := l.Named("authority").WithFields("pool", 3)
	ctx := WithSequence(context.Background(), "BANK", "orders")
	named.WarnContext(ctx, "persistence write failed", "location", "redis", "error", errors.New("boom"))

	entries := logs.FilterMessage("persistence write failed").All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "auth-a", fields["host"])
	assert.Equal(t, int64(3), fields["pool"])
	assert.Equal(t, "BANK", fields["scope"])
	assert.Equal(t, "orders", fields["sequence"])
	assert.Equal(t, "redis", fields["location"])
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "authority", entries[0].LoggerName)
}

func TestLogger_ZapFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l, err := New(nil, WithCore(core))
	require.NoError(t, err)

	l.Info("block issued", zap.Uint32("era", 2), zap.Int("size", 16))
	l.Debug("filtered")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(16), logs.All()[0].ContextMap()["size"])
}

func TestSensitiveDataHook(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l, err := New(nil, WithCore(core), WithHooks(SensitiveDataHook([]string{"password"})))
	require.NoError(t, err)

	l.Info("connect", "password", "secret")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "***REDACTED***", logs.All()[0].ContextMap()["password"])
}

func TestNoopLogger(t *testing.T) {
	var l Logger = NewNoop()
	l.Info("ignored")
	assert.Equal(t, l, l.Named("x"))
	assert.NoError(t, l.Sync())
}

func TestConfigValidate(t *testing.T) {
	assert.ErrorIs(t, (&Config{EnableFile: true}).Validate(), ErrInvalidOutputPath)
	assert.ErrorIs(t, (&Config{}).Validate(), ErrNoOutputEnabled)
	assert.NoError(t, DefaultConfig().Validate())
}

func TestNewRotationWriter(t *testing.T) {
	dir := t.TempDir()

	w, err := NewRotationWriter(&RotationConfig{Type: RotationBySize, MaxSize: 1}, filepath.Join(dir, "size.log"))
	require.NoError(t, err)
	_, err = w.Write([]byte("line\n"))
	assert.NoError(t, err)

	w, err = NewRotationWriter(&RotationConfig{Type: RotationByTime, RotationTime: "bogus"}, filepath.Join(dir, "time.log"))
	require.NoError(t, err)
	_, err = w.Write([]byte("line\n"))
	assert.NoError(t, err)

	assert.Equal(t, time.Hour, parseDurationOr("1h", time.Minute))
	assert.Equal(t, time.Minute, parseDurationOr("", time.Minute))
}

func TestWithConsoleWriter(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&Config{Level: WarnLevel, Format: JSONFormat, EnableConsole: true}, WithConsoleWriter(zapcore.AddSync(&buf)))
	require.NoError(t, err)

	l.Info("hidden")
	l.Warn("authority host failed", "host", "auth-b")
	require.NoError(t, l.Sync())

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"host":"auth-b"`)
}
