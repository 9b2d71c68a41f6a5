package grpctransport

import (
	"context"
	"math"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid/client"
	grpcclient "github.com/lk2023060901/xdooria-gdid/pkg/grpc/client"
	"github.com/lk2023060901/xdooria-gdid/pkg/grpc/interceptor"
	"github.com/lk2023060901/xdooria-gdid/pkg/grpc/server"
	"github.com/lk2023060901/xdooria-gdid/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const (
	liveHost = "passthrough:///live"
	deadHost = "passthrough:///dead"
)

type fakeAllocator struct {
	mu    sync.Mutex
	next  uint64
	err   error
	calls []*uint64
}

func (f *fakeAllocator) Allocate(_ context.Context, scope, sequence string, blockSize int, vicinity *uint64) (*gdid.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, vicinity)
	if f.err != nil {
		return nil, f.err
	}
	scope, sequence, err := gdid.CheckAndNormalize(scope, sequence)
	if err != nil {
		return nil, err
	}
	start := f.next + 1
	f.next = start + uint64(blockSize)
	return &gdid.Block{
		ScopeName:             scope,
		SequenceName:          sequence,
		Authority:             5,
		AuthorityHost:         "authority-live",
		Era:                   2,
		StartCounterInclusive: start,
		BlockSize:             blockSize,
		ServerTimeUTC:         time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}, nil
}

// startServer 在 bufconn 上启动服务，返回只能连到它的传输
func startServer(t *testing.T, alloc Allocator) *Transport {
	t.Helper()
	lis := bufconn.Listen(1 << 20)

	srv, err := server.New(&server.Config{Name: "test"},
		server.WithListener(lis),
		server.WithUnaryInterceptors(
			interceptor.ServerRecoveryInterceptor(logger.NewNoop(), nil),
			interceptor.ServerLoggingInterceptor(logger.NewNoop(), nil),
		),
	)
	require.NoError(t, err)
	NewService(alloc, nil).Register(srv)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	dialer := func(ctx context.Context, addr string) (net.Conn, error) {
		if addr != "live" {
			return nil, errors.Newf("connection refused: %s", addr)
		}
		return lis.DialContext(ctx)
	}
	tr, err := NewTransport(nil, grpcclient.WithDialOptions(grpc.WithContextDialer(dialer)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func TestTransport_AllocateBlock(t *testing.T) {
	alloc := &fakeAllocator{}
	tr := startServer(t, alloc)

	v := uint64(42)
	block, err := tr.AllocateBlock(context.Background(), liveHost, "bank", "user", 10, &v)
	require.NoError(t, err)
	require.NoError(t, block.Validate())

	assert.Equal(t, "BANK", block.ScopeName)
	assert.Equal(t, "user", block.SequenceName)
	assert.Equal(t, uint8(5), block.Authority)
	assert.Equal(t, "authority-live", block.AuthorityHost)
	assert.Equal(t, uint32(2), block.Era)
	assert.Equal(t, uint64(1), block.StartCounterInclusive)
	assert.Equal(t, 10, block.BlockSize)
	assert.True(t, block.ServerTimeUTC.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))

	_, err = tr.AllocateBlock(context.Background(), liveHost, "bank", "user", 10, nil)
	require.NoError(t, err)

	require.Len(t, alloc.calls, 2)
	require.NotNil(t, alloc.calls[0])
	assert.Equal(t, uint64(42), *alloc.calls[0])
	assert.Nil(t, alloc.calls[1])
}

func TestTransport_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		terminal bool
		sentinel error
	}{
		{"validation", errors.Wrap(gdid.ErrInvalidName, "scope"), true, gdid.ErrValidation},
		{"era exhausted", errors.Wrap(gdid.ErrEraExhausted, "BANK/user"), true, gdid.ErrEraExhausted},
		{"persistence", errors.Wrap(gdid.ErrPersistenceUnavailable, "all down"), false, gdid.ErrAuthorityUnavailable},
		{"bootstrap", errors.Wrap(gdid.ErrBootstrapFailed, "read"), false, gdid.ErrAuthorityUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := startServer(t, &fakeAllocator{err: tt.err})
			_, err := tr.AllocateBlock(context.Background(), liveHost, "bank", "user", 10, nil)
			require.Error(t, err)
			assert.Equal(t, tt.terminal, gdid.IsTerminal(err))
			assert.True(t, errors.Is(err, tt.sentinel), "%v", err)
		})
	}
}

func TestTransport_DeadHostUnavailable(t *testing.T) {
	tr := startServer(t, &fakeAllocator{})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := tr.AllocateBlock(ctx, deadHost, "bank", "user", 10, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gdid.ErrAuthorityUnavailable))
	assert.False(t, gdid.IsTerminal(err))
}

func TestTransport_BlockSizeOutOfWireRange(t *testing.T) {
	alloc := &fakeAllocator{}
	tr := startServer(t, alloc)

	_, err := tr.AllocateBlock(context.Background(), liveHost, "bank", "user", math.MaxInt32+1, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gdid.ErrInvalidBlockSize))
	assert.True(t, gdid.IsTerminal(err))
	assert.Empty(t, alloc.calls)
}

func TestTransport_Closed(t *testing.T) {
	tr := startServer(t, &fakeAllocator{})
	require.NoError(t, tr.Close())

	_, err := tr.AllocateBlock(context.Background(), liveHost, "bank", "user", 10, nil)
	assert.True(t, errors.Is(err, gdid.ErrAuthorityUnavailable))
}

func TestToStatus(t *testing.T) {
	assert.NoError(t, toStatus(nil))
	assert.Equal(t, codes.InvalidArgument, status.Code(toStatus(gdid.ErrInvalidBlockSize)))
	assert.Equal(t, codes.FailedPrecondition, status.Code(toStatus(gdid.ErrEraExhausted)))
	assert.Equal(t, codes.DeadlineExceeded, status.Code(toStatus(context.DeadlineExceeded)))
	assert.Equal(t, codes.Unavailable, status.Code(toStatus(errors.New("disk on fire"))))
}

func TestGenerator_FailoverOverGRPC(t *testing.T) {
	tr := startServer(t, &fakeAllocator{})

	g, err := client.New(&client.Config{
		Hosts: []gdid.Host{
			{Name: liveHost, DistanceKm: 900},
			{Name: deadHost, DistanceKm: 1},
		},
		RequestTimeout: 2 * time.Second,
	}, tr)
	require.NoError(t, err)
	defer g.Close()

	seen := make(map[gdid.GDID]struct{})
	for i := 0; i < 50; i++ {
		id, err := g.GenerateOne(context.Background(), "bank", "user")
		require.NoError(t, err)
		assert.Equal(t, uint32(2), id.Era)
		assert.Equal(t, uint8(5), id.Authority)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 50)
	assert.GreaterOrEqual(t, g.Stats().HostFailures, uint64(1))
}
