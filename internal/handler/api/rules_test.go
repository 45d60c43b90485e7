package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"ARMTS/internal/domain/models"
	"ARMTS/internal/repository"
	"ARMTS/internal/services/dataset"
	"ARMTS/internal/services/encoding"
	"ARMTS/internal/services/fitness"
	"ARMTS/internal/services/store"
	"ARMTS/internal/usecase"
	"ARMTS/pkg/cache"
	xhttp "ARMTS/pkg/http"
	xlogger "ARMTS/pkg/logger"
	"ARMTS/pkg/metrics"
	"ARMTS/pkg/optimizer"
)

func newTestMiner(t *testing.T) *usecase.Miner {
	t.Helper()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tbl := dataset.Table{Columns: []string{"timestamp", "x", "y"}}
	for i := range 10 {
		ts := t0.Add(time.Duration(i) * time.Hour)
		tbl.Timestamps = append(tbl.Timestamps, ts)
		tbl.Cells = append(tbl.Cells, []string{ts.Format(time.RFC3339), strconv.Itoa(i), strconv.Itoa(i % 3)})
	}
	ds, err := dataset.Build(tbl)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	st, err := store.New(ds.Transactions)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	opt := optimizer.DefaultConfig()
	opt.PopulationSize, opt.Generations, opt.Seed = 6, 2, 7
	m, err := usecase.NewMiner(ds.Metadata, st, usecase.MinerConfig{
		Decoder:   encoding.DefaultConfig(),
		Weights:   fitness.DefaultWeights(),
		Optimizer: opt,
	}, metrics.Nop{}, xlogger.Nop(), usecase.WithRunID("run-test"))
	if err != nil {
		t.Fatalf("NewMiner: %v", err)
	}
	return m
}

// fullVector selects both features over their whole range.
func fullVector() []float64 {
	// x: lo, hi, select | y: lo, hi, select | perm x, perm y | split, interval
	return []float64{0, 1, 1, 0, 1, 1, 0.9, 0.1, 0.5, 0}
}

func newTestServer(t *testing.T, h *RulesHandler) *echo.Echo {
	t.Helper()
	srv := xhttp.NewServer([]xhttp.Handler{h}, xhttp.WithCORS(false))
	return srv.Echo()
}

func do(t *testing.T, e *echo.Echo, method, target string, body any) (*httptest.ResponseRecorder, xhttp.APIResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp xhttp.APIResponse
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode %q: %v", rec.Body.String(), err)
		}
	}
	return rec, resp
}

func decodeData(t *testing.T, resp xhttp.APIResponse, dst any) {
	t.Helper()
	b, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
}

func TestProblem(t *testing.T) {
	m := newTestMiner(t)
	e := newTestServer(t, NewRulesHandler(xlogger.Nop(), m))

	rec, resp := do(t, e, http.MethodGet, "/api/problem", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var info models.ProblemInfo
	decodeData(t, resp, &info)
	if info.RunID != "run-test" || info.Dimension != 10 || info.Mode != models.IntervalFixed {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.Lower != 0 || info.Upper != 1 || len(info.Features) != 2 {
		t.Fatalf("unexpected bounds/features %+v", info)
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		body     any
		status   int
		wantCode string
		empty    bool
	}{
		{name: "rule", body: models.EvaluateRequest{Vector: fullVector()}, status: http.StatusOK},
		{name: "nothing selected", body: models.EvaluateRequest{Vector: make([]float64, 10)}, status: http.StatusOK, empty: true},
		{name: "wrong length", body: models.EvaluateRequest{Vector: []float64{0.5}}, status: http.StatusBadRequest, wantCode: "ERR_INVALID_ENCODING"},
		{name: "out of bounds", body: models.EvaluateRequest{Vector: []float64{0, 1, 2, 0, 1, 1, 0.9, 0.1, 0.5, 0}}, status: http.StatusBadRequest, wantCode: "ERR_INVALID_ENCODING"},
		{name: "missing vector", body: map[string]any{}, status: http.StatusBadRequest, wantCode: "ERR_REQUIRED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMiner(t)
			e := newTestServer(t, NewRulesHandler(xlogger.Nop(), m))
			rec, resp := do(t, e, http.MethodPost, "/api/evaluate", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status %d want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if tt.wantCode != "" {
				var errs []struct {
					Code string `json:"code"`
				}
				decodeData(t, resp, &errs)
				if len(errs) == 0 || errs[0].Code != tt.wantCode {
					t.Fatalf("errors %+v want code %s", errs, tt.wantCode)
				}
				return
			}
			var out models.EvaluateResponse
			decodeData(t, resp, &out)
			if out.Empty != tt.empty {
				t.Fatalf("empty = %v", out.Empty)
			}
			if tt.empty {
				if out.Fitness != 0 || m.Archive().Len() != 0 {
					t.Fatalf("empty rule scored %v, archive %d", out.Fitness, m.Archive().Len())
				}
				return
			}
			if out.Fitness <= 0 || out.Metrics == nil || out.Rule == "" || out.Detail == nil {
				t.Fatalf("unexpected response %+v", out)
			}
			if !strings.Contains(out.Rule, "=>") {
				t.Fatalf("rule string %q", out.Rule)
			}
			if m.Archive().Len() != 1 {
				t.Fatalf("archive len %d, want 1", m.Archive().Len())
			}
		})
	}
}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func TestEvaluateRateLimited(t *testing.T) {
	e := newTestServer(t, NewRulesHandler(xlogger.Nop(), newTestMiner(t), WithLimiter(denyAll{})))
	rec, _ := do(t, e, http.MethodPost, "/api/evaluate", models.EvaluateRequest{Vector: fullVector()})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestRules(t *testing.T) {
	m := newTestMiner(t)
	if _, err := m.Problem().Score(fullVector()); err != nil {
		t.Fatalf("Score: %v", err)
	}
	e := newTestServer(t, NewRulesHandler(xlogger.Nop(), m))

	rec, resp := do(t, e, http.MethodGet, "/api/rules?limit=5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var list struct {
		Rows  []models.ArchiveEntry `json:"rows"`
		Total int64                 `json:"total"`
	}
	decodeData(t, resp, &list)
	if list.Total != 1 || len(list.Rows) != 1 {
		t.Fatalf("list %+v", list)
	}

	rec, _ = do(t, e, http.MethodGet, "/api/rules?limit=5000", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("limit=5000 status %d", rec.Code)
	}
}

func TestRunRules(t *testing.T) {
	ctx := t.Context()
	m := newTestMiner(t)
	snap := repository.NewCacheSnapshot(cache.NewMemoryCache(), time.Hour)
	old := models.ArchiveEntry{Key: "old", Fitness: 0.3, Rule: models.Rule{
		Antecedent: []models.Condition{{Feature: "x", Column: 0, Kind: models.KindNumerical, Predicate: models.NumericRange{Lo: 0, Hi: 1}}},
		Consequent: []models.Condition{{Feature: "y", Column: 1, Kind: models.KindNumerical, Predicate: models.NumericRange{Lo: 0, Hi: 2}}},
	}}
	if err := snap.Save(ctx, "run-old", []models.ArchiveEntry{old}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	e := newTestServer(t, NewRulesHandler(xlogger.Nop(), m, WithHistory(snap, nil)))

	tests := []struct {
		path   string
		status int
		total  int64
	}{
		{"/api/runs/run-test/rules", http.StatusOK, 0},
		{"/api/runs/run-old/rules", http.StatusOK, 1},
		{"/api/runs/unknown/rules", http.StatusNotFound, 0},
	}
	for _, tt := range tests {
		rec, resp := do(t, e, http.MethodGet, tt.path, nil)
		if rec.Code != tt.status {
			t.Fatalf("%s: status %d want %d", tt.path, rec.Code, tt.status)
		}
		if tt.status != http.StatusOK {
			continue
		}
		var list struct {
			Total int64 `json:"total"`
		}
		decodeData(t, resp, &list)
		if list.Total != tt.total {
			t.Fatalf("%s: total %d want %d", tt.path, list.Total, tt.total)
		}
	}
}

func TestStream(t *testing.T) {
	m := newTestMiner(t)
	if _, err := m.Problem().Score(fullVector()); err != nil {
		t.Fatalf("Score: %v", err)
	}
	srv := httptest.NewServer(newTestServer(t, NewRulesHandler(xlogger.Nop(), m)))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/rules/stream?top=5"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first StreamMessage
	if err := ws.ReadJSON(&first); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if first.Type != "snapshot" || first.Entry.Key == "" {
		t.Fatalf("first frame %+v", first)
	}

	// the subscription is registered before the snapshot frames are written
	v := fullVector()
	v[6], v[7] = 0.1, 0.9
	if _, err := m.Problem().Score(v); err != nil {
		t.Fatalf("Score: %v", err)
	}
	var upd StreamMessage
	if err := ws.ReadJSON(&upd); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if upd.Type != "update" || upd.Entry.Key == first.Entry.Key {
		t.Fatalf("update frame %+v", upd)
	}
}

func TestStreamTopHasFloorOfOne(t *testing.T) {
	m := newTestMiner(t)
	swapped := fullVector()
	swapped[6], swapped[7] = 0.1, 0.9
	for _, v := range [][]float64{fullVector(), swapped} {
		if _, err := m.Problem().Score(v); err != nil {
			t.Fatalf("Score: %v", err)
		}
	}
	if m.Archive().Len() != 2 {
		t.Fatalf("archive = %d, want 2", m.Archive().Len())
	}
	srv := httptest.NewServer(newTestServer(t, NewRulesHandler(xlogger.Nop(), m)))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/rules/stream?top=0"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first StreamMessage
	if err := ws.ReadJSON(&first); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if first.Type != "snapshot" {
		t.Fatalf("first frame %+v", first)
	}

	narrow := fullVector()
	narrow[1] = 0.5
	if _, err := m.Problem().Score(narrow); err != nil {
		t.Fatalf("Score: %v", err)
	}
	var next StreamMessage
	if err := ws.ReadJSON(&next); err != nil {
		t.Fatalf("read: %v", err)
	}
	if next.Type != "update" {
		t.Fatalf("top=0 sent more than one snapshot frame: %+v", next)
	}
}
