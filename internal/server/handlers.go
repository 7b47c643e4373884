package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/KaramelBytes/musicdash/internal/analysis"
	"github.com/KaramelBytes/musicdash/internal/dataset"
	"github.com/KaramelBytes/musicdash/internal/render"
	"github.com/KaramelBytes/musicdash/internal/view"
)

type healthResponse struct {
	Status   string `json:"status"`
	Rows     int    `json:"rows"`
	Sessions int    `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Rows: s.ds.Len(), Sessions: s.sessions.Len()}, s.log)
}

type schemaResponse struct {
	Source               string        `json:"source"`
	Rows                 int           `json:"rows"`
	Columns              []string      `json:"columns"`
	RankMetrics          []string      `json:"rank_metrics"`
	AxisFeatures         []string      `json:"axis_features"`
	DistributionFeatures []string      `json:"distribution_features"`
	Genres               []string      `json:"genres"`
	Defaults             view.Controls `json:"defaults"`
}

func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, schemaResponse{
		Source:               s.ds.Source(),
		Rows:                 s.ds.Len(),
		Columns:              view.Names(s.ds.Columns()),
		RankMetrics:          view.Names(view.RankMetrics),
		AxisFeatures:         view.Names(view.AxisFeatures),
		DistributionFeatures: view.Names(view.DistributionFeatures),
		Genres:               s.ds.Genres(),
		Defaults:             view.DefaultControls(s.ds),
	}, s.log)
}

type sessionResponse struct {
	Session view.Session         `json:"session"`
	Landing *view.LandingContent `json:"landing,omitempty"`
}

func sessionView(sess view.Session) sessionResponse {
	resp := sessionResponse{Session: sess}
	if sess.Screen == view.Landing {
		lc := view.LandingPage()
		resp.Landing = &lc
	}
	return resp
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.sessions.Create()
	s.log.Debug("Session created", "session", sess.ID)
	writeJSON(w, http.StatusCreated, sessionView(sess), s.log)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, s.log)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(sess), s.log)
}

type navigateRequest struct {
	Event view.Event `json:"event"`
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	req := navigateRequest{Event: view.NavigateToDashboard}
	// an empty body means the dashboard button
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, &APIError{Code: CodeValidation, Message: "invalid JSON body: " + err.Error()}, s.log)
		return
	}
	if req.Event == "" {
		req.Event = view.NavigateToDashboard
	}
	sess, err := s.sessions.Apply(chi.URLParam(r, "id"), req.Event)
	if err != nil {
		writeError(w, err, s.log)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(sess), s.log)
}

type rankingResponse struct {
	analysis.RankedSummary
	Empty bool `json:"empty"`
}

type projectionResponse struct {
	analysis.Projection
	Empty bool `json:"empty"`
}

type distributionResponse struct {
	analysis.Histogram
	Empty bool `json:"empty"`
}

type dashboardResponse struct {
	Session      view.Session         `json:"session"`
	Controls     view.Controls        `json:"controls"`
	Ranking      rankingResponse      `json:"ranking"`
	Projection   projectionResponse   `json:"projection"`
	Distribution distributionResponse `json:"distribution"`
}

// handleDashboard runs all three engines with default controls, overridden
// by metric, x, y, selected (repeatable), feature and genre.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, s.log)
		return
	}
	if sess.Screen != view.Dashboard {
		writeError(w, fmt.Errorf("%w (screen %q)", errWrongScreen, sess.Screen), s.log)
		return
	}

	q := r.URL.Query()
	c := view.DefaultControls(s.ds)
	overrideColumn(&c.Metric, q, "metric")
	overrideColumn(&c.XAxis, q, "x")
	overrideColumn(&c.YAxis, q, "y")
	overrideColumn(&c.Feature, q, "feature")
	if sel, ok := selection(q, "selected"); ok {
		c.SelectedGenres = sel
	}
	if g := q.Get("genre"); g != "" {
		c.Genre = g
	}
	if err := c.Validate(); err != nil {
		writeError(w, err, s.log)
		return
	}

	rank, err := analysis.RankByMetric(s.ds, dataset.Genre, c.Metric, s.topN)
	if err != nil {
		writeError(w, err, s.log)
		return
	}
	proj, err := analysis.ProjectByGroup(s.ds, c.SelectedGenres, c.XAxis, c.YAxis)
	if err != nil {
		writeError(w, err, s.log)
		return
	}
	series, err := analysis.FeatureDistribution(s.ds, c.Genre, c.Feature)
	if err != nil {
		writeError(w, err, s.log)
		return
	}
	hist := analysis.BuildHistogram(series, s.bins)
	writeJSON(w, http.StatusOK, dashboardResponse{
		Session:      sess,
		Controls:     c,
		Ranking:      rankingResponse{rank, rank.Empty()},
		Projection:   projectionResponse{proj, proj.Empty()},
		Distribution: distributionResponse{hist, hist.Empty()},
	}, s.log)
}

func overrideColumn(dst *dataset.Column, q url.Values, key string) {
	if v := strings.TrimSpace(q.Get(key)); v != "" {
		*dst = dataset.Column(strings.ToLower(v))
	}
}

func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	rank, err := s.ranking(r.URL.Query())
	if err != nil {
		writeError(w, err, s.log)
		return
	}
	writeJSON(w, http.StatusOK, rankingResponse{rank, rank.Empty()}, s.log)
}

func (s *Server) handleProjections(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projection(r.URL.Query())
	if err != nil {
		writeError(w, err, s.log)
		return
	}
	writeJSON(w, http.StatusOK, projectionResponse{proj, proj.Empty()}, s.log)
}

func (s *Server) handleDistributions(w http.ResponseWriter, r *http.Request) {
	hist, err := s.distribution(r.URL.Query())
	if err != nil {
		writeError(w, err, s.log)
		return
	}
	writeJSON(w, http.StatusOK, distributionResponse{hist, hist.Empty()}, s.log)
}

// handleChart renders the chart for the same parameters as the matching
// data endpoint. Empty results are 204 No Content.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, &APIError{Code: CodeValidation, Message: err.Error()}, s.log)
		return
	}
	q := r.URL.Query()
	var buf bytes.Buffer
	switch kind := chi.URLParam(r, "kind"); kind {
	case "ranking":
		var rank analysis.RankedSummary
		if rank, err = s.ranking(q); err == nil {
			err = render.RankingChart(&buf, rank, format)
		}
	case "projection":
		var proj analysis.Projection
		if proj, err = s.projection(q); err == nil {
			err = render.ScatterChart(&buf, proj, format)
		}
	case "distribution":
		var hist analysis.Histogram
		if hist, err = s.distribution(q); err == nil {
			err = render.HistogramChart(&buf, hist, format)
		}
	default:
		err = &APIError{Code: CodeValidation, Message: fmt.Sprintf("unknown chart %q", kind), Details: map[string]string{"kind": "must be one of: ranking projection distribution"}}
	}
	if errors.Is(err, render.ErrNothingToDraw) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeError(w, err, s.log)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		s.log.Warn("Failed to write chart", "error", err)
	}
}

func (s *Server) ranking(q url.Values) (analysis.RankedSummary, error) {
	rq := rankingQuery{Metric: strings.ToLower(q.Get("metric")), Top: s.topN}
	if rq.Metric == "" {
		rq.Metric = string(view.RankMetrics[0])
	}
	if err := intParam(q, "top", &rq.Top); err != nil {
		return analysis.RankedSummary{}, err
	}
	if err := s.validate.Validate(rq); err != nil {
		return analysis.RankedSummary{}, err
	}
	return analysis.RankByMetric(s.ds, dataset.Genre, dataset.Column(rq.Metric), rq.Top)
}

func (s *Server) projection(q url.Values) (analysis.Projection, error) {
	genres, ok := selection(q, "genre")
	pq := projectionQuery{
		X:      strings.ToLower(q.Get("x")),
		Y:      strings.ToLower(q.Get("y")),
		Genres: genres,
	}
	if pq.X == "" {
		pq.X = string(view.AxisFeatures[0])
	}
	if pq.Y == "" {
		pq.Y = string(view.AxisFeatures[1])
	}
	if !ok {
		pq.Genres = view.DefaultControls(s.ds).SelectedGenres
	}
	if err := s.validate.Validate(pq); err != nil {
		return analysis.Projection{}, err
	}
	return analysis.ProjectByGroup(s.ds, pq.Genres, dataset.Column(pq.X), dataset.Column(pq.Y))
}

// selection returns the non-blank values of a repeatable parameter. A
// parameter given only as "?key=" is an explicit empty selection.
func selection(q url.Values, key string) ([]string, bool) {
	raw, ok := q[key]
	if !ok {
		return nil, false
	}
	out := []string{}
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out, true
}

func (s *Server) distribution(q url.Values) (analysis.Histogram, error) {
	dq := distributionQuery{Feature: strings.ToLower(q.Get("feature")), Genre: q.Get("genre"), Bins: s.bins}
	if dq.Feature == "" {
		dq.Feature = string(view.DistributionFeatures[0])
	}
	if dq.Genre == "" {
		dq.Genre = view.DefaultControls(s.ds).Genre
	}
	if err := intParam(q, "bins", &dq.Bins); err != nil {
		return analysis.Histogram{}, err
	}
	if err := s.validate.Validate(dq); err != nil {
		return analysis.Histogram{}, err
	}
	series, err := analysis.FeatureDistribution(s.ds, dq.Genre, dataset.Column(dq.Feature))
	if err != nil {
		return analysis.Histogram{}, err
	}
	return analysis.BuildHistogram(series, dq.Bins), nil
}

// intParam parses q[key] into dst when present.
func intParam(q url.Values, key string, dst *int) error {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return &APIError{Code: CodeValidation, Message: "validation failed", Details: map[string]string{key: "must be an integer"}}
	}
	*dst = n
	return nil
}
