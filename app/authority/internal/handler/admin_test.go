package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid/authority"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInspector struct {
	snaps []authority.SequenceSnapshot
	err   error

	gotScope, gotSequence string
}

func (f *fakeInspector) Snapshot(scope, sequence string) ([]authority.SequenceSnapshot, error) {
	f.gotScope, f.gotSequence = scope, sequence
	return f.snaps, f.err
}

func (f *fakeInspector) Stats() authority.Stats {
	return authority.Stats{Host: "auth-1", AuthorityIDs: []uint8{1, 2}, Scopes: 3, Allocations: 42}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newRouter(h *Admin) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.Register(r)
	return r
}

func do(t *testing.T, r http.Handler, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestAdmin_Health(t *testing.T) {
	r := newRouter(NewAdmin(&fakeInspector{}, "id", nil, nil, ""))
	w, _ := do(t, r, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestAdmin_Status(t *testing.T) {
	r := newRouter(NewAdmin(&fakeInspector{}, "instance-9", []string{"mem", "disk"}, nil, ""))
	w, env := do(t, r, "/api/v1/status")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Code)

	var status StatusResponse
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, "instance-9", status.InstanceID)
	assert.Equal(t, []string{"mem", "disk"}, status.Locations)
	assert.Equal(t, "auth-1", status.Allocations.Host)
	assert.Equal(t, uint64(42), status.Allocations.Allocations)
}

func TestAdmin_Snapshot(t *testing.T) {
	in := &fakeInspector{snaps: []authority.SequenceSnapshot{
		{Scope: "BANK", Sequence: "USER", Authority: 1, Era: 0, NextValue: 128},
	}}
	r := newRouter(NewAdmin(in, "id", nil, nil, ""))

	w, env := do(t, r, "/api/v1/scopes/bank/sequences/user")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bank", in.gotScope)
	assert.Equal(t, "user", in.gotSequence)

	var snaps []authority.SequenceSnapshot
	require.NoError(t, json.Unmarshal(env.Data, &snaps))
	require.Len(t, snaps, 1)
	assert.Equal(t, uint64(128), snaps[0].NextValue)

	in.snaps = nil
	w, env = do(t, r, "/api/v1/scopes/empty")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", in.gotSequence)
	assert.JSONEq(t, "[]", string(env.Data))
}

func TestAdmin_SnapshotErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"validation", errors.Wrap(gdid.ErrInvalidName, "scope"), http.StatusBadRequest, CodeInvalidArgument},
		{"internal", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(NewAdmin(&fakeInspector{err: tt.err}, "id", nil, nil, ""))
			w, env := do(t, r, "/api/v1/scopes/x")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, env.Code)
		})
	}
}

func TestAdmin_Metrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("gdid_up 1\n"))
	})
	r := newRouter(NewAdmin(&fakeInspector{}, "id", nil, metrics, "/prom"))
	w, _ := do(t, r, "/prom")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gdid_up 1")
}
