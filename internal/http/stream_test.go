package http

import (
	"bufio"
	"encoding/json"
	"net"
	nethttp "net/http"
	"strings"
	"testing"
	"time"

	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEvent(t *testing.T, r *bufio.Reader) domain.DashboardState {
	t.Helper()
	var (
		name string
		data string
	)
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && data != "":
			require.Equal(t, "state", name)
			var s domain.DashboardState
			require.NoError(t, json.Unmarshal([]byte(data), &s))
			return s
		}
	}
}

func TestEventStream(t *testing.T) {
	done := make(chan struct{})
	app, dash := newApp(t, func(d *Deps) { d.Done = done })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()

	resp, err := nethttp.Get("http://" + ln.Addr().String() + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	first := readEvent(t, r)
	assert.Equal(t, 75.0, first.TankLevels.TopTank.Level)
	assert.True(t, first.IsSimulationRunning)

	require.NoError(t, dash.Dispatch(store.PauseSimulation{}))
	assert.False(t, readEvent(t, r).IsSimulationRunning)

	close(done)
	stopped := make(chan error, 1)
	go func() { stopped <- app.Shutdown() }()
	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("shutdown blocked by an open event stream")
	}
}
