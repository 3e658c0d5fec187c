package web

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-bullseye/pkg/journal"
	"github.com/teslashibe/go-bullseye/pkg/rig"
	"github.com/teslashibe/go-bullseye/pkg/robot"
)

// fakeOperator records submitted commands and answers with err, if set.
type fakeOperator struct {
	mu       sync.Mutex
	commands []rig.Command
	err      error
	block    bool
	snap     rig.Snapshot
	events   []journal.Event
	eventErr error
	counts   map[journal.Kind]int
}

func (f *fakeOperator) Submit(ctx context.Context, cmd rig.Command) (rig.Result, error) {
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	err, block := f.err, f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return rig.Result{}, ctx.Err()
	}
	if err != nil {
		return rig.Result{}, err
	}
	return rig.Result{Command: cmd.Kind.String(), Message: "ok", Status: f.snap}, nil
}

func (f *fakeOperator) Snapshot() rig.Snapshot { return f.snap }

func (f *fakeOperator) Events(ctx context.Context, limit int) ([]journal.Event, error) {
	if f.eventErr != nil {
		return nil, f.eventErr
	}
	if limit < len(f.events) {
		return f.events[:limit], nil
	}
	return f.events, nil
}

func (f *fakeOperator) EventSummary(ctx context.Context) (map[journal.Kind]int, error) {
	if f.eventErr != nil {
		return nil, f.eventErr
	}
	return f.counts, nil
}

func (f *fakeOperator) last(t *testing.T) rig.Command {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.commands, "no command submitted")
	return f.commands[len(f.commands)-1]
}

func (f *fakeOperator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.commands)
}

func do(t *testing.T, s *Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	}
	return resp.StatusCode, out
}

func TestServer_Status(t *testing.T) {
	op := &fakeOperator{snap: rig.Snapshot{Tracking: true, Confidence: 0.5}}
	s := NewServer("0", op)

	code, body := do(t, s, http.MethodGet, "/api/status", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["tracking"])
	assert.Equal(t, 0.5, body["confidence"])
}

func TestServer_Commands(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		body  string
		check func(t *testing.T, cmd rig.Command)
	}{
		{"tracking on", "/api/tracking", `{"enabled":true}`, func(t *testing.T, cmd rig.Command) {
			assert.Equal(t, rig.CmdTracking, cmd.Kind)
			require.NotNil(t, cmd.Enable)
			assert.True(t, *cmd.Enable)
		}},
		{"tracking toggle", "/api/tracking", "", func(t *testing.T, cmd rig.Command) {
			assert.Equal(t, rig.CmdTracking, cmd.Kind)
			assert.Nil(t, cmd.Enable)
		}},
		{"move", "/api/move", `{"direction":"left"}`, func(t *testing.T, cmd rig.Command) {
			assert.Equal(t, rig.CmdMove, cmd.Kind)
			assert.Equal(t, rig.Left, cmd.Direction)
		}},
		{"position", "/api/position", `{"pan":84.5,"tilt":0}`, func(t *testing.T, cmd rig.Command) {
			assert.Equal(t, rig.CmdPosition, cmd.Kind)
			assert.Equal(t, 84.5, cmd.Pan)
			assert.Equal(t, 0.0, cmd.Tilt)
		}},
		{"pulse", "/api/pulse", `{"pan_us":1500,"tilt_us":1200}`, func(t *testing.T, cmd rig.Command) {
			assert.Equal(t, rig.CmdPulse, cmd.Kind)
			assert.Equal(t, 1500, cmd.PanUS)
			assert.Equal(t, 1200, cmd.TiltUS)
		}},
		{"smooth", "/api/smooth", `{"pan":90,"tilt":45,"duration_ms":500,"steps":10}`, func(t *testing.T, cmd rig.Command) {
			assert.Equal(t, rig.CmdSmooth, cmd.Kind)
			assert.Equal(t, 500*time.Millisecond, cmd.Duration)
			assert.Equal(t, 10, cmd.Steps)
		}},
		{"zoom in", "/api/zoom", `{"action":"in"}`, func(t *testing.T, cmd rig.Command) {
			assert.Equal(t, rig.CmdZoom, cmd.Kind)
			assert.Equal(t, 1, cmd.Delta)
		}},
		{"zoom reset", "/api/zoom", `{"action":"reset"}`, func(t *testing.T, cmd rig.Command) {
			assert.Equal(t, 0, cmd.Delta)
		}},
		{"center", "/api/center", "", func(t *testing.T, cmd rig.Command) {
			assert.Equal(t, rig.CmdCenter, cmd.Kind)
		}},
		{"calibrate", "/api/calibrate", "", func(t *testing.T, cmd rig.Command) {
			assert.Equal(t, rig.CmdCalibrate, cmd.Kind)
		}},
		{"confidence down", "/api/confidence", `{"direction":"down"}`, func(t *testing.T, cmd rig.Command) {
			assert.Equal(t, rig.CmdConfidence, cmd.Kind)
			assert.Equal(t, -1, cmd.Delta)
		}},
		{"console line", "/api/command", `{"line":"pan 84.5"}`, func(t *testing.T, cmd rig.Command) {
			assert.Equal(t, rig.CmdPan, cmd.Kind)
			assert.Equal(t, 84.5, cmd.Pan)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := &fakeOperator{}
			s := NewServer("0", op)

			code, body := do(t, s, http.MethodPost, tt.path, tt.body)
			require.Equal(t, http.StatusOK, code, "body: %v", body)
			assert.Equal(t, "ok", body["message"])
			tt.check(t, op.last(t))
		})
	}
}

func TestServer_RejectsInvalidBodies(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
	}{
		{"unknown direction", "/api/move", `{"direction":"sideways"}`},
		{"missing tilt", "/api/position", `{"pan":10}`},
		{"pulse out of range", "/api/pulse", `{"pan_us":3000,"tilt_us":1500}`},
		{"negative duration", "/api/smooth", `{"pan":1,"tilt":1,"duration_ms":-5}`},
		{"bad zoom action", "/api/zoom", `{"action":"sideways"}`},
		{"malformed json", "/api/move", `{"direction":`},
		{"unparseable line", "/api/command", `{"line":"dance"}`},
		{"quit over http", "/api/command", `{"line":"q"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := &fakeOperator{}
			s := NewServer("0", op)

			code, body := do(t, s, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.NotEmpty(t, body["error"])
			assert.Zero(t, op.count(), "rejected request reached the rig")
		})
	}
}

func TestServer_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"tracking active", rig.ErrTrackingActive, http.StatusConflict},
		{"invalid command", fmt.Errorf("%w: kind 99", rig.ErrInvalidCommand), http.StatusBadRequest},
		{"unreachable", fmt.Errorf("rig: move: %w", robot.ErrUnreachable), http.StatusBadGateway},
		{"actuator fault", &robot.StatusError{StatusCode: 500, Endpoint: "/control"}, http.StatusBadGateway},
		{"actuator rejected", fmt.Errorf("rig: move: %w", &robot.StatusError{StatusCode: 400, Endpoint: "/control"}), http.StatusUnprocessableEntity},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer("0", &fakeOperator{err: tt.err})
			code, body := do(t, s, http.MethodPost, "/api/move", `{"direction":"up"}`)
			assert.Equal(t, tt.want, code)
			assert.Equal(t, tt.err.Error(), body["error"])
		})
	}
}

func TestServer_CommandTimeout(t *testing.T) {
	s := NewServer("0", &fakeOperator{block: true}, WithCommandTimeout(20*time.Millisecond))

	code, _ := do(t, s, http.MethodPost, "/api/center", "")
	assert.Equal(t, http.StatusGatewayTimeout, code)
}

func TestServer_RateLimit(t *testing.T) {
	op := &fakeOperator{}
	s := NewServer("0", op, WithRateLimit(0.001, 1))

	code, _ := do(t, s, http.MethodPost, "/api/center", "")
	assert.Equal(t, http.StatusOK, code)

	code, body := do(t, s, http.MethodPost, "/api/center", "")
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "too many requests", body["error"])
	assert.Equal(t, 1, op.count())

	// Reads are not limited
	code, _ = do(t, s, http.MethodGet, "/api/status", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestServer_Events(t *testing.T) {
	op := &fakeOperator{events: []journal.Event{
		{ID: "b", Kind: journal.KindLocked},
		{ID: "a", Kind: journal.KindTrackingOn},
	}}
	s := NewServer("0", op)

	code, body := do(t, s, http.MethodGet, "/api/events?limit=1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, body["count"])

	code, _ = do(t, s, http.MethodGet, "/api/events?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, code)

	s = NewServer("0", &fakeOperator{eventErr: rig.ErrNoJournal})
	code, _ = do(t, s, http.MethodGet, "/api/events", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServer_EventSummary(t *testing.T) {
	op := &fakeOperator{counts: map[journal.Kind]int{
		journal.KindLocked:     3,
		journal.KindTrackingOn: 1,
	}}
	s := NewServer("0", op)

	code, body := do(t, s, http.MethodGet, "/api/events/summary", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 4.0, body["total"])
	counts, ok := body["counts"].(map[string]any)
	require.True(t, ok, "counts should be an object")
	assert.Equal(t, 3.0, counts[string(journal.KindLocked)])

	s = NewServer("0", &fakeOperator{eventErr: rig.ErrNoJournal})
	code, _ = do(t, s, http.MethodGet, "/api/events/summary", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServer_WebSocketRequiresUpgrade(t *testing.T) {
	s := NewServer("0", &fakeOperator{})
	code, _ := do(t, s, http.MethodGet, "/ws/status", "")
	assert.Equal(t, http.StatusUpgradeRequired, code)
}

func TestServer_StatusSocket(t *testing.T) {
	op := &fakeOperator{snap: rig.Snapshot{Tracking: true}}
	s := NewServer("0", op)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Serve(ctx, ln)
	defer s.Shutdown()

	s.PublishStatus(op.snap)

	url := "ws://" + ln.Addr().String() + "/ws/status"
	var conn *gorilla.Conn
	require.Eventually(t, func() bool {
		conn, _, err = gorilla.DefaultDialer.Dial(url, nil)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var status map[string]any
	require.NoError(t, conn.ReadJSON(&status))
	assert.Equal(t, true, status["tracking"])

	require.NoError(t, conn.WriteMessage(gorilla.TextMessage, []byte("p")))

	// Status carries text-encoded enums, so decode loosely
	var reply struct {
		Type   string `json:"type"`
		Error  string `json:"error"`
		Result *struct {
			Command string `json:"command"`
		} `json:"result"`
	}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "result", reply.Type)
	assert.Empty(t, reply.Error)
	require.NotNil(t, reply.Result)
	assert.Equal(t, "status", reply.Result.Command)
	assert.Equal(t, rig.CmdStatus, op.last(t).Kind)

	require.NoError(t, conn.WriteMessage(gorilla.TextMessage, []byte("q")))
	reply.Error, reply.Result = "", nil
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Contains(t, reply.Error, "console")
	assert.Nil(t, reply.Result)
}
