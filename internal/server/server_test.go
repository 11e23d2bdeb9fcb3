package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tycoonfree/tycoon-server-go/internal/config"
	"github.com/tycoonfree/tycoon-server-go/internal/game"
	"github.com/tycoonfree/tycoon-server-go/internal/game/rules"
)

type testServer struct {
	*httptest.Server
	engine *game.Engine
	hub    *Hub
}

func newTestServer(t *testing.T, heartbeat time.Duration) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)

	engine := game.NewEngine(logger)
	hub := NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	engine.SetNotificationHandler(hub.Notify)

	srv := New(engine, hub, game.DefaultConfig(), config.ServerConfig{
		HeartbeatInterval: heartbeat,
		WriteTimeout:      time.Second,
	}, logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return &testServer{Server: ts, engine: engine, hub: hub}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func (ts *testServer) createGame(t *testing.T, body map[string]any) string {
	t.Helper()
	code, out := ts.do(t, http.MethodPost, "/games", body)
	require.Equal(t, http.StatusCreated, code, out)
	id, _ := out["game_id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestCreateGame(t *testing.T) {
	ts := newTestServer(t, time.Minute)

	id := ts.createGame(t, map[string]any{"players": []string{"ada", "bob"}})
	assert.Equal(t, []string{id}, ts.engine.GameIDs())

	ts.createGame(t, map[string]any{
		"game_id": "rich",
		"players": []string{"ada", "bob", "cyd"},
		"config":  map[string]any{"starting_cash": 2000},
	})
	snap, err := ts.engine.Snapshot("rich")
	require.NoError(t, err)
	require.Len(t, snap.Players, 3)
	assert.Equal(t, 2000, snap.Players[0].Cash)

	code, _ := ts.do(t, http.MethodPost, "/games", map[string]any{"game_id": "rich", "players": []string{"a", "b"}})
	assert.Equal(t, http.StatusConflict, code)

	code, out := ts.do(t, http.MethodPost, "/games", map[string]any{"players": []string{"solo"}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, out["error"], "players")

	code, _ = ts.do(t, http.MethodPost, "/games", map[string]any{
		"players": []string{"a", "b"},
		"config":  map[string]any{"max_jail_turns": 0},
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, out = ts.do(t, http.MethodGet, "/games", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, out["games"], 2)
}

func TestQueries(t *testing.T) {
	ts := newTestServer(t, time.Minute)
	id := ts.createGame(t, map[string]any{"players": []string{"ada", "bob"}})

	code, out := ts.do(t, http.MethodGet, "/games/"+id+"/status", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, id, out["game_id"])
	assert.Equal(t, false, out["over"])

	code, out = ts.do(t, http.MethodGet, "/games/"+id+"/snapshot", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, out["players"], 2)

	code, out = ts.do(t, http.MethodGet, "/games/"+id+"/legal_actions?player=0", nil)
	require.Equal(t, http.StatusOK, code)
	actions, _ := out["actions"].([]any)
	require.NotEmpty(t, actions)
	assert.Equal(t, string(game.ActionRollDice), actions[0].(map[string]any)["type"])

	code, _ = ts.do(t, http.MethodGet, "/games/"+id+"/legal_actions?player=x", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = ts.do(t, http.MethodGet, "/games/"+id+"/legal_actions?player=7", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, out = ts.do(t, http.MethodGet, "/games/"+id+"/events?since=0", nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, out["events"])
	code, _ = ts.do(t, http.MethodGet, "/games/"+id+"/events?since=-1", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, out = ts.do(t, http.MethodGet, "/games/"+id+"/checksum", nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, out)

	for _, path := range []string{"/status", "/snapshot", "/events", "/checksum", "/legal_actions?player=0"} {
		code, _ = ts.do(t, http.MethodGet, "/games/missing"+path, nil)
		assert.Equal(t, http.StatusNotFound, code, path)
	}
}

func TestActions(t *testing.T) {
	ts := newTestServer(t, time.Minute)
	id := ts.createGame(t, map[string]any{"players": []string{"ada", "bob"}})
	path := "/games/" + id + "/actions"

	before, err := ts.engine.Checksum(id)
	require.NoError(t, err)

	code, out := ts.do(t, http.MethodPost, path, game.Action{Type: game.ActionRollDice, PlayerID: 1})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, false, out["accepted"])
	assert.NotEmpty(t, out["reason"])

	after, err := ts.engine.Checksum(id)
	require.NoError(t, err)
	assert.Equal(t, before.Hash, after.Hash, "rejections leave the game untouched")

	code, out = ts.do(t, http.MethodPost, path, game.Action{Type: game.ActionRollDice, PlayerID: 0})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["accepted"])

	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	code, _ = ts.do(t, http.MethodPost, "/games/missing/actions", game.Action{Type: game.ActionRollDice})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = ts.do(t, http.MethodDelete, "/games/"+id, nil)
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = ts.do(t, http.MethodDelete, "/games/"+id, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

type wsFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dial(t *testing.T, ts *testServer, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var frame wsFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

// readEvents reads event frames, skipping heartbeats, until the event with
// sequence last has arrived.
func readEvents(t *testing.T, conn *websocket.Conn, last int) []rules.Event {
	t.Helper()
	var events []rules.Event
	for len(events) == 0 || events[len(events)-1].Sequence < last {
		frame := readFrame(t, conn)
		if frame.Type == MessageHeartbeat {
			continue
		}
		require.Equal(t, MessageEvent, frame.Type)
		var evt rules.Event
		require.NoError(t, json.Unmarshal(frame.Data, &evt))
		events = append(events, evt)
	}
	return events
}

func assertContiguous(t *testing.T, events []rules.Event, from int) {
	t.Helper()
	for i, evt := range events {
		assert.Equal(t, from+i, evt.Sequence)
	}
}

func TestWebsocketBacklogThenLive(t *testing.T) {
	ts := newTestServer(t, time.Minute)
	id := ts.createGame(t, map[string]any{"players": []string{"ada", "bob"}})

	code, _ := ts.do(t, http.MethodPost, "/games/"+id+"/actions", game.Action{Type: game.ActionRollDice, PlayerID: 0})
	require.Equal(t, http.StatusOK, code)

	status, err := ts.engine.Status(id)
	require.NoError(t, err)
	conn := dial(t, ts, "/ws/games/"+id+"?since=0")

	backlog := readEvents(t, conn, status.EventCount-1)
	assertContiguous(t, backlog, 0)
	assert.Equal(t, rules.EventGameStarted, backlog[0].Type)

	require.Eventually(t, func() bool { return ts.hub.ClientCount(id) == 1 }, 5*time.Second, 10*time.Millisecond)

	legal, err := ts.engine.LegalActions(id, status.Actor)
	require.NoError(t, err)
	require.NotEmpty(t, legal)
	require.NoError(t, ts.engine.ProcessAction(id, legal[0]))

	status, err = ts.engine.Status(id)
	require.NoError(t, err)
	live := readEvents(t, conn, status.EventCount-1)
	assertContiguous(t, live, len(backlog))
}

// advance applies the first legal action of whichever seat can act.
func advance(t *testing.T, engine *game.Engine, id string, seats int) {
	t.Helper()
	for seat := 0; seat < seats; seat++ {
		legal, err := engine.LegalActions(id, seat)
		require.NoError(t, err)
		if len(legal) > 0 {
			require.NoError(t, engine.ProcessAction(id, legal[0]))
			return
		}
	}
	t.Fatalf("no seat can act in game %s", id)
}

func TestWebsocketBacklogLargerThanSendBuffer(t *testing.T) {
	ts := newTestServer(t, time.Minute)
	id := ts.createGame(t, map[string]any{"players": []string{"ada", "bob"}})

	status, err := ts.engine.Status(id)
	require.NoError(t, err)
	for steps := 0; status.EventCount <= 3*sendBufferSize && !status.Over && steps < 10000; steps++ {
		advance(t, ts.engine, id, 2)
		status, err = ts.engine.Status(id)
		require.NoError(t, err)
	}
	require.Greater(t, status.EventCount, sendBufferSize)

	conn := dial(t, ts, "/ws/games/"+id+"?since=0")
	backlog := readEvents(t, conn, status.EventCount-1)
	require.Len(t, backlog, status.EventCount)
	assertContiguous(t, backlog, 0)

	if status.Over {
		return
	}
	require.Eventually(t, func() bool { return ts.hub.ClientCount(id) == 1 }, 5*time.Second, 10*time.Millisecond)
	advance(t, ts.engine, id, 2)
	status, err = ts.engine.Status(id)
	require.NoError(t, err)
	live := readEvents(t, conn, status.EventCount-1)
	assertContiguous(t, live, len(backlog))
}

func TestWebsocketSinceSkipsOlderEvents(t *testing.T) {
	ts := newTestServer(t, time.Minute)
	id := ts.createGame(t, map[string]any{"players": []string{"ada", "bob"}})
	require.NoError(t, ts.engine.ProcessAction(id, game.Action{Type: game.ActionRollDice, PlayerID: 0}))

	status, err := ts.engine.Status(id)
	require.NoError(t, err)
	require.Greater(t, status.EventCount, 2)

	conn := dial(t, ts, "/ws/games/"+id+"?since=2")
	events := readEvents(t, conn, status.EventCount-1)
	assertContiguous(t, events, 2)
}

func TestWebsocketHeartbeat(t *testing.T) {
	ts := newTestServer(t, 20*time.Millisecond)
	id := ts.createGame(t, map[string]any{"players": []string{"ada", "bob"}})

	status, err := ts.engine.Status(id)
	require.NoError(t, err)
	conn := dial(t, ts, "/ws/games/"+id+"?since="+strconv.Itoa(status.EventCount))

	frame := readFrame(t, conn)
	assert.Equal(t, MessageHeartbeat, frame.Type)
}

func TestWebsocketGameRemoved(t *testing.T) {
	ts := newTestServer(t, time.Minute)
	id := ts.createGame(t, map[string]any{"players": []string{"ada", "bob"}})
	status, err := ts.engine.Status(id)
	require.NoError(t, err)

	conn := dial(t, ts, "/ws/games/"+id+"?since="+strconv.Itoa(status.EventCount))
	require.Eventually(t, func() bool { return ts.hub.ClientCount(id) == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, ts.engine.CleanupGame(id))
	frame := readFrame(t, conn)
	assert.Equal(t, MessageRemoved, frame.Type)

	require.Eventually(t, func() bool { return ts.hub.ClientCount(id) == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestWebsocketUnknownGame(t *testing.T) {
	ts := newTestServer(t, time.Minute)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/games/missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
