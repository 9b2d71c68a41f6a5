package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	next      uint64
	batch     int
	err       error
	ones      int
	manyCalls []int
}

func (f *fakeSource) GenerateOne(context.Context, string, string, ...client.GenerateOption) (gdid.GDID, error) {
	if f.err != nil {
		return gdid.Zero, f.err
	}
	f.ones++
	f.next++
	return gdid.GDID{Authority: 2, Counter: f.next}, nil
}

func (f *fakeSource) TryGenerateManyConsecutive(_ context.Context, _, _ string, count int, _ ...client.GenerateOption) ([]gdid.GDID, error) {
	f.manyCalls = append(f.manyCalls, count)
	n := min(count, f.batch)
	out := make([]gdid.GDID, 0, n)
	for range n {
		f.next++
		out = append(out, gdid.GDID{Authority: 2, Counter: f.next})
	}
	return out, nil
}

func TestParseHosts(t *testing.T) {
	hosts, err := ParseHosts([]string{"auth-a:7700@12.5", "auth-b:7700", "auth-c:7700@0"})
	require.NoError(t, err)
	assert.Equal(t, []gdid.Host{
		{Name: "auth-a:7700", DistanceKm: 12.5},
		{Name: "auth-b:7700", DistanceKm: 1},
		{Name: "auth-c:7700", DistanceKm: 0},
	}, hosts)

	for _, bad := range []string{"", "@3", "a@x", "a@-1"} {
		_, err := ParseHosts([]string{bad})
		assert.True(t, errors.Is(err, ErrUsage), bad)
	}
}

func TestFormat(t *testing.T) {
	id := gdid.GDID{Era: 1, Authority: 3, Counter: 255}

	s, err := Format(id, FormatText)
	require.NoError(t, err)
	assert.Equal(t, "1:3:255", s)

	s, err = Format(id, FormatID)
	require.NoError(t, err)
	assert.Equal(t, "864691128455135487", s)

	s, err = Format(id, FormatHex)
	require.NoError(t, err)
	assert.Equal(t, "1:0c000000000000ff", s)

	_, err = Format(id, "yaml")
	assert.True(t, errors.Is(err, ErrUsage))
}

func TestRun_One(t *testing.T) {
	src := &fakeSource{}
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), src, Request{Scope: "s", Sequence: "q", Count: 3}, &out))
	assert.Equal(t, "0:2:1\n0:2:2\n0:2:3\n", out.String())
	assert.Equal(t, 3, src.ones)
}

func TestRun_Consecutive(t *testing.T) {
	src := &fakeSource{batch: 4}
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), src, Request{Count: 10, Consecutive: true, Format: FormatID}, &out))
	assert.Len(t, strings.Fields(out.String()), 10)
	assert.Equal(t, []int{10, 6, 2}, src.manyCalls)
}

func TestRun_Errors(t *testing.T) {
	var out bytes.Buffer
	err := Run(context.Background(), &fakeSource{}, Request{Count: 0}, &out)
	assert.True(t, errors.Is(err, ErrUsage))

	err = Run(context.Background(), &fakeSource{}, Request{Count: 1, Format: "xml"}, &out)
	assert.True(t, errors.Is(err, ErrUsage))

	err = Run(context.Background(), &fakeSource{err: gdid.ErrAllHostsFailed}, Request{Count: 1}, &out)
	assert.True(t, errors.Is(err, gdid.ErrAllHostsFailed))
}
