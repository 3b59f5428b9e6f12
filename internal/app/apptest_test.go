package app_test

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/nshein/duet/internal/app"
	"github.com/nshein/duet/internal/core"
	"github.com/nshein/duet/internal/domain"
)

const (
	testConfirmTimeout = 7 * time.Second
	testRingTimeout    = 10 * time.Second
)

// fakeConn captures every frame the coordinator pushes at a client.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// count reports how many captured frames carry the given type.
func (f *fakeConn) count(typ string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, fr := range f.frames {
		if gjson.GetBytes(fr, "type").String() == typ {
			n++
		}
	}
	return n
}

// last returns the most recent frame of the given type.
func (f *fakeConn) last(t *testing.T, typ string) gjson.Result {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.frames) - 1; i >= 0; i-- {
		if gjson.GetBytes(f.frames[i], "type").String() == typ {
			return gjson.ParseBytes(f.frames[i])
		}
	}
	t.Fatalf("no %q frame captured", typ)
	return gjson.Result{}
}

type harness struct {
	t     *testing.T
	clk   *clock.Mock
	coord *app.Coordinator
	reg   *app.Registry
}

func newHarness(t *testing.T) *harness {
	clk := clock.NewMock()
	reg := app.NewRegistry()
	coord := app.NewCoordinator(reg, clk, app.Timings{
		MatchConfirmTimeout: testConfirmTimeout,
		CallRingTimeout:     testRingTimeout,
	}, app.NewMetrics(prometheus.NewRegistry()))
	return &harness{t: t, clk: clk, coord: coord, reg: reg}
}

// connect registers a connection announcing the given identity.
func (h *harness) connect(conn, user, name string) *fakeConn {
	h.t.Helper()
	fc := &fakeConn{}
	profile, err := domain.NewProfile(domain.UserID(user), name, "")
	require.NoError(h.t, err)
	h.coord.UserOnline(core.ConnID(conn), *profile, fc)
	return fc
}

// pairUp connects a and b, queues both and confirms the resulting pairing.
func (h *harness) pairUp(a, b string) (*fakeConn, *fakeConn) {
	h.t.Helper()
	fa := h.connect(a, "user-"+a, "name-"+a)
	fb := h.connect(b, "user-"+b, "name-"+b)
	h.coord.JoinQueue(core.ConnID(a))
	h.coord.JoinQueue(core.ConnID(b))
	require.Equal(h.t, 1, fa.count(core.EvMatchFound))
	require.Equal(h.t, 1, fb.count(core.EvMatchFound))
	h.coord.Accept(core.ConnID(a))
	h.coord.Accept(core.ConnID(b))
	require.Equal(h.t, 1, fa.count(core.EvMatchConfirmed))
	require.Equal(h.t, 1, fb.count(core.EvMatchConfirmed))
	return fa, fb
}
