package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/musicdash/internal/dataset"
	"github.com/KaramelBytes/musicdash/internal/view"
)

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

func testDataset() *dataset.Dataset {
	row := func(genre string, pop, dance, energy, tempo float64) dataset.Track {
		return dataset.NewTrack(genre, map[dataset.Column]float64{
			dataset.Popularity:   pop,
			dataset.Danceability: dance,
			dataset.Energy:       energy,
			dataset.Tempo:        tempo,
			dataset.Valence:      0.5,
		})
	}
	return dataset.New("mem", []dataset.Track{
		row("pop", 80, 0.7, 0.6, 120),
		row("pop", 60, 0.5, 0.9, 124),
		row("rock", 50, 0.3, 0.8, 140),
		row("jazz", 40, 0.4, 0.2, 90),
	})
}

func setupTestServer(t *testing.T, opt Options) *Server {
	t.Helper()
	if opt.Dataset == nil {
		opt.Dataset = testDataset()
	}
	s := New(opt)
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env testEnvelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	s := setupTestServer(t, Options{})
	rec, env := do(t, s, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	var h healthResponse
	require.NoError(t, json.Unmarshal(env.Data, &h))
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, 4, h.Rows)
}

func TestSchema(t *testing.T) {
	s := setupTestServer(t, Options{})
	rec, env := do(t, s, http.MethodGet, "/api/v1/schema", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var sc schemaResponse
	require.NoError(t, json.Unmarshal(env.Data, &sc))
	assert.Equal(t, []string{"pop", "rock", "jazz"}, sc.Genres)
	assert.Equal(t, []string{"popularity", "danceability", "energy", "tempo"}, sc.RankMetrics)
	assert.Equal(t, dataset.Popularity, sc.Defaults.Metric)
	assert.Equal(t, "pop", sc.Defaults.Genre)
}

func TestSessionLifecycle(t *testing.T) {
	s := setupTestServer(t, Options{})

	rec, env := do(t, s, http.MethodPost, "/api/v1/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var created sessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, view.Landing, created.Session.Screen)
	require.NotNil(t, created.Landing)
	assert.Equal(t, "Go to Dashboard", created.Landing.Action)
	base := "/api/v1/sessions/" + created.Session.ID

	rec, env = do(t, s, http.MethodGet, base+"/dashboard", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, CodeConflict, env.Error.Code)

	rec, env = do(t, s, http.MethodPost, base+"/navigate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var nav sessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &nav))
	assert.Equal(t, view.Dashboard, nav.Session.Screen)
	assert.Nil(t, nav.Landing)

	// navigating again stays on the dashboard
	rec, _ = do(t, s, http.MethodPost, base+"/navigate", `{"event":"navigate_to_dashboard"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, s, http.MethodGet, base+"/dashboard?metric=energy&selected=pop&selected=rock&genre=rock", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var dash dashboardResponse
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	assert.Equal(t, dataset.Energy, dash.Controls.Metric)
	require.Len(t, dash.Ranking.Entries, 3)
	assert.Equal(t, "rock", dash.Ranking.Entries[0].Group)
	assert.Equal(t, []string{"pop", "rock"}, dash.Projection.Order)
	assert.Len(t, dash.Projection.Series["pop"], 2)
	assert.Equal(t, 1, dash.Distribution.Stats.Count)
	assert.False(t, dash.Distribution.Empty)
}

func TestSessionErrors(t *testing.T) {
	s := setupTestServer(t, Options{})

	rec, env := do(t, s, http.MethodGet, "/api/v1/sessions/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, env.Error.Code)

	sess := s.sessions.Create()
	rec, env = do(t, s, http.MethodPost, "/api/v1/sessions/"+sess.ID+"/navigate", `{"event":"jump"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeValidation, env.Error.Code)

	rec, _ = do(t, s, http.MethodPost, "/api/v1/sessions/"+sess.ID+"/navigate", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, err := s.sessions.Apply(sess.ID, view.NavigateToDashboard)
	require.NoError(t, err)
	rec, env = do(t, s, http.MethodGet, "/api/v1/sessions/"+sess.ID+"/dashboard?x=loudness", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeValidation, env.Error.Code)
}

func TestRankings(t *testing.T) {
	s := setupTestServer(t, Options{})

	rec, env := do(t, s, http.MethodGet, "/api/v1/rankings?metric=popularity&top=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got rankingResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "pop", got.Entries[0].Group)
	assert.InDelta(t, 70, got.Entries[0].Mean, 1e-9)
	assert.False(t, got.Empty)
}

func TestRankingsValidation(t *testing.T) {
	s := setupTestServer(t, Options{})

	tests := []struct {
		name  string
		query string
		field string
	}{
		{"metric outside choices", "metric=loudness", "metric"},
		{"unknown metric", "metric=bogus", "metric"},
		{"non-integer top", "top=ten", "top"},
		{"negative top", "top=-1", "top"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, s, http.MethodGet, "/api/v1/rankings?"+tt.query, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, CodeValidation, env.Error.Code)
			assert.Contains(t, env.Error.Details, tt.field)
		})
	}
}

func TestProjections(t *testing.T) {
	s := setupTestServer(t, Options{})

	rec, env := do(t, s, http.MethodGet, "/api/v1/projections?x=tempo&y=tempo&genre=rock&genre=rock", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got projectionResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, []string{"rock"}, got.Order)
	require.Len(t, got.Series["rock"], 1)
	assert.Equal(t, got.Series["rock"][0].X, got.Series["rock"][0].Y)

	_, env = do(t, s, http.MethodGet, "/api/v1/projections?genre=metal", "")
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.True(t, got.Empty)

	rec, env = do(t, s, http.MethodGet, "/api/v1/projections?x=popularity", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error.Details["x"], "danceability")
}

func TestProjectionsBlankSelection(t *testing.T) {
	ds := dataset.New("mem", []dataset.Track{
		dataset.NewTrack("", map[dataset.Column]float64{dataset.Danceability: 0.1, dataset.Energy: 0.2}),
		dataset.NewTrack("pop", map[dataset.Column]float64{dataset.Danceability: 0.6, dataset.Energy: 0.7}),
	})
	s := setupTestServer(t, Options{Dataset: ds})

	for _, target := range []string{"/api/v1/projections?genre=", "/api/v1/projections?genre=&genre=%20"} {
		rec, env := do(t, s, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, rec.Code, target)
		var got projectionResponse
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.True(t, got.Empty, target)
		assert.Empty(t, got.Order, target)
		assert.Empty(t, got.Series, target)
	}

	rec, env := do(t, s, http.MethodGet, "/api/v1/projections?genre=&genre=pop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got projectionResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, []string{"pop"}, got.Order)

	rec, _ = do(t, s, http.MethodGet, "/api/v1/charts/projection.svg?genre=", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, env = do(t, s, http.MethodPost, "/api/v1/sessions", "")
	var created sessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	base := "/api/v1/sessions/" + created.Session.ID
	rec, _ = do(t, s, http.MethodPost, base+"/navigate", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, s, http.MethodGet, base+"/dashboard?selected=", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var dash dashboardResponse
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	assert.Empty(t, dash.Controls.SelectedGenres)
	assert.True(t, dash.Projection.Empty)
	assert.Empty(t, dash.Projection.Order)
}

func TestDistributions(t *testing.T) {
	s := setupTestServer(t, Options{Bins: 5})

	rec, env := do(t, s, http.MethodGet, "/api/v1/distributions?feature=tempo&genre=pop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got distributionResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Len(t, got.Bins, 5)
	assert.Equal(t, 2, got.Stats.Count)

	_, env = do(t, s, http.MethodGet, "/api/v1/distributions?feature=loudness&genre=pop", "")
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.True(t, got.Empty)
	assert.Empty(t, got.Bins)
}

func TestCharts(t *testing.T) {
	s := setupTestServer(t, Options{})

	rec, _ := do(t, s, http.MethodGet, "/api/v1/charts/ranking.svg", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec, _ = do(t, s, http.MethodGet, "/api/v1/charts/distribution.png?genre=rock", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec, _ = do(t, s, http.MethodGet, "/api/v1/charts/projection.svg?genre=metal", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, env := do(t, s, http.MethodGet, "/api/v1/charts/pie.svg", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeValidation, env.Error.Code)

	rec, _ = do(t, s, http.MethodGet, "/api/v1/charts/ranking.gif", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	s := setupTestServer(t, Options{RateLimitRPS: 0.001, RateLimitBurst: 2})

	for i := 0; i < 2; i++ {
		rec, _ := do(t, s, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, env := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, CodeRateLimited, env.Error.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestCORS(t *testing.T) {
	s := setupTestServer(t, Options{CORSOrigins: []string{"https://dash.example"}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://dash.example")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, "https://dash.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.7:5555"
	assert.Equal(t, "10.0.0.7", clientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.8")
	r.Header.Set("X-Forwarded-For", "203.0.113.1, 10.0.0.1")
	assert.Equal(t, "10.0.0.7", clientIP(r))
}

func TestRateLimitIgnoresForwardedFor(t *testing.T) {
	s := setupTestServer(t, Options{RateLimitRPS: 0.001, RateLimitBurst: 1})

	send := func(xff string) int {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "192.0.2.10:4000"
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		return rec.Code
	}
	require.Equal(t, http.StatusOK, send("198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.2"))
}

func TestRateLimitTrustProxy(t *testing.T) {
	s := setupTestServer(t, Options{RateLimitRPS: 0.001, RateLimitBurst: 1, TrustProxy: true})

	for _, ip := range []string{"198.51.100.1", "198.51.100.2"} {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "192.0.2.10:4000"
		req.Header.Set("X-Forwarded-For", ip)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, ip)
	}
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))

	rl.sweep(time.Now().Add(idleLimiterTTL + time.Second))
	rl.mu.Lock()
	n := len(rl.limiters)
	rl.mu.Unlock()
	assert.Zero(t, n)
	assert.True(t, rl.Allow("a"))
}
