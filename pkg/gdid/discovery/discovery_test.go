package discovery

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lk2023060901/xdooria-gdid/pkg/gdid"
	"github.com/lk2023060901/xdooria-gdid/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanResolver struct {
	ch chan []*registry.ServiceInfo
}

func (r *chanResolver) Resolve(context.Context, string) ([]*registry.ServiceInfo, error) {
	return nil, nil
}

func (r *chanResolver) Watch(context.Context, string) (<-chan []*registry.ServiceInfo, error) {
	return r.ch, nil
}

type hostRecorder struct {
	mu    sync.Mutex
	hosts []gdid.Host
	sets  int
}

func (h *hostRecorder) SetHosts(hosts []gdid.Host) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hosts = hosts
	h.sets++
	return nil
}

func (h *hostRecorder) get() ([]gdid.Host, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hosts, h.sets
}

func svc(addr, zone string) *registry.ServiceInfo {
	return &registry.ServiceInfo{
		ServiceName: DefaultServiceName,
		Address:     addr,
		Metadata:    map[string]string{registry.MetaZone: zone},
	}
}

func TestHosts(t *testing.T) {
	cfg := &Config{Zones: map[string]float64{"us-east": 5, "eu-west": 900}}
	hosts := Hosts([]*registry.ServiceInfo{
		svc("a:7700", "US-EAST"),
		svc("b:7700", "eu-west"),
		svc("c:7700", "ap-south"),
		svc("a:7700", "us-east"),
		nil,
	}, cfg)

	assert.Equal(t, []gdid.Host{
		{Name: "a:7700", DistanceKm: 5},
		{Name: "b:7700", DistanceKm: 900},
		{Name: "c:7700", DistanceKm: DefaultDistanceKm},
	}, hosts)

	cfg.DefaultDistanceKm = 42
	assert.Equal(t, 42.0, Hosts([]*registry.ServiceInfo{svc("c:7700", "")}, cfg)[0].DistanceKm)
}

func TestSync(t *testing.T) {
	r := &chanResolver{ch: make(chan []*registry.ServiceInfo, 1)}
	r.ch <- []*registry.ServiceInfo{svc("a:7700", "z1")}
	target := &hostRecorder{}
	cfg := &Config{Zones: map[string]float64{"z1": 1, "z2": 2}}

	require.NoError(t, Sync(context.Background(), r, cfg, target, nil))
	hosts, sets := target.get()
	assert.Equal(t, 1, sets)
	assert.Equal(t, "a:7700", hosts[0].Name)

	// 空列表不覆盖
	r.ch <- nil
	r.ch <- []*registry.ServiceInfo{svc("a:7700", "z1"), svc("b:7700", "z2")}
	require.Eventually(t, func() bool {
		hosts, _ := target.get()
		return len(hosts) == 2
	}, time.Second, 5*time.Millisecond)
	_, sets = target.get()
	assert.Equal(t, 2, sets)
	close(r.ch)
}

func TestSync_ContextDone(t *testing.T) {
	r := &chanResolver{ch: make(chan []*registry.ServiceInfo)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sync(ctx, r, &Config{}, &hostRecorder{}, nil), context.Canceled)
}
