package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/survey/internal/runtime"
	httpadapter "github.com/aretw0/survey/pkg/adapters/http"
	"github.com/aretw0/survey/pkg/adapters/memory"
	"github.com/aretw0/survey/pkg/domain"
	"github.com/aretw0/survey/pkg/dsl"
	"github.com/aretw0/survey/pkg/session"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, opts ...httpadapter.Option) *httptest.Server {
	t.Helper()
	b := dsl.New()
	b.Add("Start").Text("Welcome").Next("Q1")
	b.Add("Q1").Text("Continue?").Option("Yes", "Q2").Option("No", domain.EndID)
	b.Add("Q2").Text("Pick").Multi(1, 2).Option("A", "A1").Option("B", "B1").Order("B", "A")
	b.Add("A1")
	b.Add("B1")
	g, err := b.Build()
	require.NoError(t, err)

	mgr := session.NewManager(memory.NewStore(), runtime.NewEngine(g))
	srv := httptest.NewServer(httpadapter.NewHandler(mgr, opts...))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestServer_SurveyFlow(t *testing.T) {
	srv := newServer(t)

	var created session.View
	require.Equal(t, http.StatusCreated, do(t, srv, "POST", "/sessions", `{"session_id":"s1"}`, &created))
	assert.Equal(t, "s1", created.SessionID)
	assert.Equal(t, "Start", created.Current.ID)
	assert.Equal(t, "Welcome", created.Current.Text)
	assert.Equal(t, "Q1", created.Next)

	var resp session.CommandView
	require.Equal(t, http.StatusOK, do(t, srv, "POST", "/sessions/s1/advance", "", &resp))
	assert.Equal(t, "Q1", resp.Session.Current.ID)
	assert.True(t, resp.Session.CanGoBack)

	require.Equal(t, http.StatusOK, do(t, srv, "POST", "/sessions/s1/answers", `{"selections":["Yes"]}`, &resp))
	assert.Equal(t, []string{"Q2"}, resp.Session.Pending)

	require.Equal(t, http.StatusOK, do(t, srv, "POST", "/sessions/s1/advance", "", &resp))
	assert.Equal(t, "Q2", resp.Session.Current.ID)
	assert.Equal(t, []string{"B", "A"}, resp.Session.Current.Options)
	assert.True(t, resp.Session.Current.AllowMulti)
	assert.Equal(t, 2, resp.Session.Current.MaxSelect)

	require.Equal(t, http.StatusOK, do(t, srv, "POST", "/sessions/s1/answers", `{"node_id":"Q2","selections":["B","A"]}`, &resp))
	assert.Equal(t, []string{"A1", "B1"}, resp.Session.Pending)
	assert.Equal(t, "A1", resp.Session.Next)

	require.Equal(t, http.StatusOK, do(t, srv, "POST", "/sessions/s1/back", "", &resp))
	assert.Equal(t, "Q1", resp.Session.Current.ID)
	assert.Equal(t, []any{"B", "A"}, resp.Session.Answers["Q2"], "back keeps answers")

	var view session.View
	require.Equal(t, http.StatusOK, do(t, srv, "GET", "/sessions/s1", "", &view))
	assert.Equal(t, "Q1", view.Current.ID)

	var snap domain.Snapshot
	require.Equal(t, http.StatusOK, do(t, srv, "GET", "/sessions/s1/snapshot", "", &snap))
	assert.Equal(t, domain.SnapshotVersion, snap.Version)
	assert.Equal(t, []string{"Start"}, snap.HistoryNodeIDs())
}

func TestServer_ErrorMapping(t *testing.T) {
	srv := newServer(t)
	require.Equal(t, http.StatusCreated, do(t, srv, "POST", "/sessions", `{"session_id":"s1"}`, nil))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"missing session", "GET", "/sessions/nope", "", http.StatusNotFound},
		{"missing session command", "POST", "/sessions/nope/advance", "", http.StatusNotFound},
		{"unknown node", "POST", "/sessions/s1/answers", `{"node_id":"Ghost","selections":["A"]}`, http.StatusNotFound},
		{"validation", "POST", "/sessions/s1/answers", `{"node_id":"Q2","selections":["A","B","C"]}`, http.StatusUnprocessableEntity},
		{"unknown kind", "POST", "/sessions/s1/commands", `{"kind":"jump"}`, http.StatusBadRequest},
		{"malformed body", "POST", "/sessions/s1/answers", `{"selections":`, http.StatusBadRequest},
		{"unknown field", "POST", "/sessions/s1/answers", `{"choices":["A"]}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]any
			assert.Equal(t, tt.want, do(t, srv, tt.method, tt.path, tt.body, &body))
			assert.NotEmpty(t, body["error"])
		})
	}

	var rejected struct {
		Result domain.Result `json:"result"`
	}
	do(t, srv, "POST", "/sessions/s1/answers", `{"node_id":"Q2","selections":[]}`, &rejected)
	require.Len(t, rejected.Result.Events, 1)
	assert.Equal(t, domain.EventRejected, rejected.Result.Events[0].Type)
}

func TestServer_GenericCommandAndEnqueue(t *testing.T) {
	srv := newServer(t)
	require.Equal(t, http.StatusCreated, do(t, srv, "POST", "/sessions", `{"session_id":"s1"}`, nil))

	var resp session.CommandView
	require.Equal(t, http.StatusOK, do(t, srv, "POST", "/sessions/s1/enqueue", `{"node_id":"B1"}`, &resp))
	assert.True(t, resp.Result.OK)
	require.Equal(t, http.StatusOK, do(t, srv, "POST", "/sessions/s1/enqueue", `{"node_id":"B1"}`, &resp))
	assert.False(t, resp.Result.OK, "already queued")

	require.Equal(t, http.StatusOK, do(t, srv, "POST", "/sessions/s1/commands", `{"kind":"text","node_id":"Start","text":"hello"}`, &resp))
	assert.Equal(t, "hello", resp.Session.Answers["Start"])

	require.Equal(t, http.StatusOK, do(t, srv, "POST", "/sessions/s1/reset", "", &resp))
	assert.Empty(t, resp.Session.Pending)
}

func TestServer_ListDeleteAndGenerateID(t *testing.T) {
	srv := newServer(t)

	var created session.View
	require.Equal(t, http.StatusCreated, do(t, srv, "POST", "/sessions", "", &created))
	require.NotEmpty(t, created.SessionID)

	var list map[string][]string
	require.Equal(t, http.StatusOK, do(t, srv, "GET", "/sessions", "", &list))
	assert.Equal(t, []string{created.SessionID}, list["sessions"])

	assert.Equal(t, http.StatusNoContent, do(t, srv, "DELETE", "/sessions/"+created.SessionID, "", nil))
	assert.Equal(t, http.StatusNotFound, do(t, srv, "GET", "/sessions/"+created.SessionID, "", nil))
}

func TestServer_GraphAndMetrics(t *testing.T) {
	srv := newServer(t, httpadapter.WithMetricsHandler(promhttp.Handler()))
	require.Equal(t, http.StatusCreated, do(t, srv, "POST", "/sessions", `{"session_id":"s1"}`, nil))

	resp, err := srv.Client().Get(srv.URL + "/graph?session_id=s1")
	require.NoError(t, err)
	defer resp.Body.Close()
	scanner := bufio.NewScanner(resp.Body)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	assert.Equal(t, "graph TD", lines[0])
	assert.Contains(t, lines, `Q1 -- "Yes" --> Q2`)
	assert.Contains(t, lines, "class Start current;")

	metrics, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	metrics.Body.Close()
	assert.Equal(t, http.StatusOK, metrics.StatusCode)

	var health map[string]string
	require.Equal(t, http.StatusOK, do(t, srv, "GET", "/health", "", &health))
	assert.Equal(t, "ok", health["status"])
}

func TestServer_MetricsNotMountedByDefault(t *testing.T) {
	srv := newServer(t)
	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_SubscribeEvents(t *testing.T) {
	srv := newServer(t)
	require.Equal(t, http.StatusCreated, do(t, srv, "POST", "/sessions", `{"session_id":"s1"}`, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/sessions/s1/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	// The ping is flushed after the subscription is registered.
	require.Equal(t, http.StatusOK, do(t, srv, "POST", "/sessions/s1/advance", "", nil))

	for lines.Scan() {
		line := lines.Text()
		if !strings.HasPrefix(line, "data: [") {
			continue
		}
		var events []domain.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &events))
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventAdvanced, events[0].Type)
		assert.Equal(t, "Q1", events[0].NodeID)
		return
	}
	t.Fatal("no event received")
}
