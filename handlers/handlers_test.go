package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pbl5-backend/algorithms"
	"pbl5-backend/models"
	"pbl5-backend/services"
)

type testServer struct {
	app        *fiber.App
	robot      *services.VirtualRobot
	supervisor *services.NavigationSupervisor
	logs       *services.LogBuffer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	grid := algorithms.DefaultGridMap()
	planner := algorithms.NewPathPlanner(grid)
	robot := services.NewVirtualRobot()

	db, err := services.OpenSQLite(":memory:")
	require.NoError(t, err)
	logs := services.NewLogBuffer(db, 1000, time.Hour)

	timing := services.LoopTiming{
		TickInterval: 5 * time.Millisecond,
		FrameBackoff: 5 * time.Millisecond,
		ErrorBackoff: 5 * time.Millisecond,
		TurnDuration: time.Millisecond,
		BaseMoveTime: time.Hour,
	}
	loop := services.NewControlLoop(robot, robot, robot, robot, timing, nil, logs)
	supervisor := services.NewNavigationSupervisor(planner, loop, robot, logs, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	clients := NewClientManager(10)
	go clients.Start(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		supervisor.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	app := fiber.New()
	routes := &Routes{
		Navigation:   &NavigationHandler{Supervisor: supervisor, Timeout: time.Second},
		Pathfinding:  &PathfindingHandler{Planner: planner},
		Logs:         &LogsHandler{Store: services.NewLogStore(db)},
		Clients:      clients,
		RobotMode:    services.RobotModeSim,
		WriteTimeout: time.Second,
	}
	routes.Register(app)

	return &testServer{app: app, robot: robot, supervisor: supervisor, logs: logs}
}

func (s *testServer) do(t *testing.T, method, target, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestStartNavigation(t *testing.T) {
	srv := newTestServer(t)

	code, body := srv.do(t, http.MethodPost, "/start-navigation", `{"start":[0,0],"end":[4,6]}`)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.StatusNavigationStarted, body["status"])
	assert.NotEmpty(t, body["session_id"])
	path, ok := body["path"].([]interface{})
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(path), 11)
	assert.Equal(t, []interface{}{0.0, 0.0}, path[0])
	assert.Equal(t, []interface{}{4.0, 6.0}, path[len(path)-1])
	assert.True(t, srv.supervisor.Running())
}

func TestStartNavigation_BadRequests(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"start":`},
		{"missing end", `{"start":[0,0]}`},
		{"three coordinates", `{"start":[0,0,1],"end":[4,6]}`},
		{"out of bounds", `{"start":[0,0],"end":[9,9]}`},
		{"negative", `{"start":[-1,0],"end":[4,6]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := srv.do(t, http.MethodPost, "/start-navigation", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, models.StatusInvalidRequest, body["status"])
		})
	}
	assert.Empty(t, srv.robot.Commands())
}

func TestStartNavigation_NoRoute(t *testing.T) {
	srv := newTestServer(t)

	// (0,1) is an obstacle
	code, body := srv.do(t, http.MethodPost, "/start-navigation", `{"start":[0,0],"end":[0,1]}`)

	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, models.StatusNoRoute, body["status"])
	assert.Equal(t, []interface{}{}, body["path"])
	assert.False(t, srv.supervisor.Running())
}

func TestStopNavigation(t *testing.T) {
	srv := newTestServer(t)

	code, _ := srv.do(t, http.MethodPost, "/start-navigation", `{"start":[0,0],"end":[4,6]}`)
	require.Equal(t, http.StatusOK, code)

	for i := 0; i < 2; i++ {
		code, body := srv.do(t, http.MethodPost, "/stop-navigation", "")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, models.StatusStopped, body["status"])
		last, ok := srv.robot.LastCommand()
		require.True(t, ok)
		assert.Equal(t, models.CommandStop, last.Command)
	}

	code, body := srv.do(t, http.MethodGet, "/api/navigation/status", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, string(services.StateIdle), body["state"])
}

func TestNavigationStatus(t *testing.T) {
	srv := newTestServer(t)

	code, body := srv.do(t, http.MethodGet, "/api/navigation/status", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, string(services.StateIdle), body["state"])
	assert.Nil(t, body["session"])

	srv.do(t, http.MethodPost, "/start-navigation", `{"start":[0,0],"end":[4,6]}`)
	code, body = srv.do(t, http.MethodGet, "/api/navigation/status", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, string(services.StateNavigating), body["state"])
	session, ok := body["session"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "backward", session["heading"])
	assert.Equal(t, 120.0, session["speed"])
	assert.Equal(t, []interface{}{4.0, 6.0}, session["goal_position"])
}

func TestPathfinding(t *testing.T) {
	srv := newTestServer(t)

	code, body := srv.do(t, http.MethodPost, "/api/pathfinding", `{"start":[0,0],"goal":[4,6]}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	path := body["path"].([]interface{})
	assert.Equal(t, float64(len(path)-1), body["steps"])

	code, body = srv.do(t, http.MethodPost, "/api/pathfinding", `{"start":[0,0],"goal":[0,1]}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["success"])

	code, _ = srv.do(t, http.MethodPost, "/api/pathfinding", `{"start":[0,0],"goal":[7,7]}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = srv.do(t, http.MethodPost, "/api/pathfinding", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)

	// a preview never moves the robot
	assert.Empty(t, srv.robot.Commands())
}

func TestGrid(t *testing.T) {
	srv := newTestServer(t)

	code, body := srv.do(t, http.MethodGet, "/api/grid", "")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 5.0, body["rows"])
	assert.Equal(t, 7.0, body["cols"])
	assert.Len(t, body["obstacles"], len(algorithms.DefaultObstacles))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	code, body := srv.do(t, http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, 0.0, body["clients"])
	assert.Equal(t, services.RobotModeSim, body["robot_mode"])
	assert.Equal(t, false, body["navigating"])
}

func TestLogsEndpoints(t *testing.T) {
	srv := newTestServer(t)

	code, body := srv.do(t, http.MethodPost, "/start-navigation", `{"start":[0,0],"end":[4,6]}`)
	require.Equal(t, http.StatusOK, code)
	session := body["session_id"].(string)
	srv.do(t, http.MethodPost, "/stop-navigation", "")
	srv.logs.Flush()

	code, body = srv.do(t, http.MethodGet, "/api/logs/recent?session_id="+session, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Greater(t, body["count"], 0.0)

	code, body = srv.do(t, http.MethodGet, "/api/logs/type?event_type="+models.EventNavigationStop, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, body["count"])

	code, _ = srv.do(t, http.MethodGet, "/api/logs/type", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = srv.do(t, http.MethodGet, "/api/logs/range?start=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = srv.do(t, http.MethodGet, "/api/logs/range", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Greater(t, body["count"], 0.0)

	code, body = srv.do(t, http.MethodGet, "/api/logs/stats?session_id="+session+"&hours=1", "")
	assert.Equal(t, http.StatusOK, code)
	stats := body["stats"].(map[string]interface{})
	counts := stats["event_counts"].(map[string]interface{})
	assert.Equal(t, 1.0, counts[models.EventNavigationStart])
	assert.Equal(t, 1.0, counts[models.EventNavigationStop])
}

func TestLogsEndpoints_NoDatabase(t *testing.T) {
	app := fiber.New()
	h := &LogsHandler{Store: services.NewLogStore(nil)}
	app.Get("/recent", h.HandleGetRecentLogs)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/recent", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	srv := newTestServer(t)

	code, _ := srv.do(t, http.MethodGet, "/ws", "")
	assert.Equal(t, http.StatusUpgradeRequired, code)
}
