package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/config"
	"github.com/lk2023060901/xdooria-gdid/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	event []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.event = append(r.event, e)
}

func (r *recorder) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.event...)
}

type testServer struct {
	name     string
	rec      *recorder
	startErr error
}

func (s *testServer) Start() error {
	s.rec.add("start " + s.name)
	return s.startErr
}

func (s *testServer) Stop(context.Context) error {
	s.rec.add("stop " + s.name)
	return nil
}

func TestBaseApp_Lifecycle(t *testing.T) {
	rec := &recorder{}
	a := NewBaseApp(WithLogger(logger.NewNoop()), WithName("test"), WithID("id-1"))
	a.AppendServer(&testServer{name: "grpc", rec: rec})
	a.AppendCloser(
		CloserFunc(func() error { rec.add("close first"); return nil }),
		CloserFunc(func() error { rec.add("close second"); return nil }),
	)
	assert.Equal(t, "id-1", a.ID())

	done := make(chan error, 1)
	go func() { done <- a.Run() }()

	require.Eventually(t, func() bool {
		return len(rec.events()) > 0
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, a.Shutdown())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}

	assert.Equal(t, []string{"start grpc", "stop grpc", "close second", "close first"}, rec.events())
	assert.Error(t, a.Context().Err())
	assert.True(t, errors.Is(a.Run(), ErrAppAlreadyRunning))
}

func TestBaseApp_Stop(t *testing.T) {
	rec := &recorder{}
	a := NewBaseApp(WithLogger(logger.NewNoop()))
	a.AppendServer(&testServer{name: "grpc", rec: rec})

	done := make(chan error, 1)
	go func() { done <- a.Run() }()
	require.Eventually(t, func() bool {
		return len(rec.events()) > 0
	}, time.Second, 5*time.Millisecond)

	a.Stop()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, []string{"start grpc", "stop grpc"}, rec.events())
}

func TestBaseApp_StartFailure(t *testing.T) {
	rec := &recorder{}
	a := NewBaseApp(WithLogger(logger.NewNoop()))
	a.AppendServer(&testServer{name: "bad", rec: rec, startErr: errors.New("bind failed")})

	err := a.Run()
	require.Error(t, err)
	assert.Contains(t, rec.events(), "stop bad")
}

func TestBaseApp_CloserErrors(t *testing.T) {
	a := NewBaseApp(WithLogger(logger.NewNoop()))
	a.AppendCloser(CloserFunc(func() error { return errors.New("close failed") }))
	assert.Error(t, a.Shutdown())
	assert.NoError(t, a.Shutdown())
}

func TestBaseApp_LoggerFallback(t *testing.T) {
	a := NewBaseApp(WithLogger(logger.NewNoop()))
	assert.NotNil(t, a.Logger("persistence"))
}

func TestLoadConfigFile(t *testing.T) {
	type cfg struct {
		Authority struct {
			HostName     string        `mapstructure:"host_name"`
			MaxBlockSize int           `mapstructure:"max_block_size"`
			Timeout      time.Duration `mapstructure:"timeout"`
		} `mapstructure:"authority"`
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
authority:
  host_name: a1
  max_block_size: 512
  timeout: 2s
`), 0o644))

	t.Setenv("GDID_AUTHORITY_HOST_NAME", "from-env")

	var c cfg
	require.NoError(t, LoadConfigFile(path, &c))
	assert.Equal(t, "from-env", c.Authority.HostName)
	assert.Equal(t, 512, c.Authority.MaxBlockSize)
	assert.Equal(t, 2*time.Second, c.Authority.Timeout)

	err := LoadConfigFile(filepath.Join(dir, "missing.yaml"), &c)
	assert.True(t, errors.Is(err, config.ErrConfigFileNotFound))
}

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	assert.NotEmpty(t, info.AppName)
	assert.Contains(t, info.String(), info.Version)
}
