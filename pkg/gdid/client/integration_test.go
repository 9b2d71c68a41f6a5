package client_test

import (
	"context"
	"sync"
	"testing"

	"github.com/lk2023060901/xdooria-gdid/pkg/gdid"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid/authority"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid/client"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_LocalAuthorityUnique(t *testing.T) {
	mem := persistence.NewMemoryLocation("mem")
	fanout, err := persistence.NewFanout([]persistence.Location{mem})
	require.NoError(t, err)

	a, err := authority.New(&authority.Config{
		AuthorityIDs: []uint8{3},
		HostName:     "local",
		MaxBlockSize: 64,
	}, fanout)
	require.NoError(t, err)
	defer a.Close()

	g, err := client.New(&client.Config{
		Hosts:        []gdid.Host{{Name: "local"}},
		MaxBlockSize: 64,
	}, client.NewLocalTransport(a))
	require.NoError(t, err)
	defer g.Close()

	const (
		workers = 8
		perWork = 500
	)
	var (
		mu   sync.Mutex
		seen = make(map[gdid.GDID]struct{}, workers*perWork)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWork; i++ {
				id, err := g.GenerateOne(context.Background(), "bank", "user")
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWork)
	_, hasZero := seen[gdid.Zero]
	assert.False(t, hasZero)

	// 持久化的值不小于任何已发放的 counter
	persisted, found, err := mem.Read(context.Background(), 3, "BANK", "user")
	require.NoError(t, err)
	require.True(t, found)
	for id := range seen {
		assert.Equal(t, uint8(3), id.Authority)
		assert.Less(t, id.Counter, persisted.Value)
	}
}
