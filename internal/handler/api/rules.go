package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"ARMTS/internal/domain/models"
	domrepo "ARMTS/internal/domain/repository"
	"ARMTS/internal/repository"
	"ARMTS/internal/services/encoding"
	"ARMTS/internal/usecase"
	xhttp "ARMTS/pkg/http"
	"ARMTS/pkg/http/middleware"
	xlogger "ARMTS/pkg/logger"
)

// RulesHandler serves the problem of the current run, vector evaluation and the rule archive.
type RulesHandler struct {
	logger   *xlogger.Logger
	miner    *usecase.Miner
	limiter  middleware.Limiter
	snapshot domrepo.Snapshot
	storage  domrepo.Storage
	stream   streamConfig
}

// RulesOption configures RulesHandler.
type RulesOption func(*RulesHandler)

// WithLimiter rate limits the evaluate endpoint.
func WithLimiter(l middleware.Limiter) RulesOption {
	return func(h *RulesHandler) { h.limiter = l }
}

// WithHistory serves rules of past runs from a snapshot cache, falling back to storage.
// Either may be nil.
func WithHistory(s domrepo.Snapshot, st domrepo.Storage) RulesOption {
	return func(h *RulesHandler) {
		h.snapshot = s
		h.storage = st
	}
}

func NewRulesHandler(logger *xlogger.Logger, miner *usecase.Miner, opts ...RulesOption) *RulesHandler {
	h := &RulesHandler{logger: logger, miner: miner, stream: defaultStreamConfig()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *RulesHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.GET("/problem", h.Problem)
	if h.limiter != nil {
		g.POST("/evaluate", h.Evaluate, middleware.RateLimit(h.limiter))
	} else {
		g.POST("/evaluate", h.Evaluate)
	}
	g.GET("/rules", h.Rules)
	g.GET("/rules/stream", h.Stream)
	g.GET("/runs/:id/rules", h.RunRules)
}

func (h *RulesHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]any{"run_id": h.miner.RunID(), "rules": h.miner.Archive().Len()})
}

func (h *RulesHandler) Problem(c echo.Context) error {
	p := h.miner.Problem()
	lo, hi := p.Bounds()
	return xhttp.SuccessResponse(c, models.ProblemInfo{
		RunID:     h.miner.RunID(),
		Mode:      h.miner.Mode(),
		Dimension: p.Dimension(),
		Lower:     lo,
		Upper:     hi,
		Features:  h.miner.Metadata().Features(),
		Rules:     h.miner.Archive().Len(),
	})
}

func (h *RulesHandler) Evaluate(c echo.Context) error {
	req := &models.EvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.miner.Problem().Score(req.Vector)
	if err != nil {
		if errors.Is(err, encoding.ErrInvalidEncoding) {
			appErr := xhttp.NewAppError("ERR_INVALID_ENCODING", "vector", err.Error(), http.StatusBadRequest).
				WithParam("dimension", h.miner.Problem().Dimension())
			var ie *encoding.InvalidEncodingError
			if errors.As(err, &ie) && ie.Index >= 0 {
				appErr.WithParam("index", ie.Index)
			}
			return xhttp.AppErrorResponse(c, appErr)
		}
		h.logger.Error("evaluate error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("evaluation failed").WithError(err))
	}

	out := models.EvaluateResponse{Fitness: res.Fitness, Empty: res.Empty()}
	if !res.Empty() {
		m, scope := res.Metrics, res.Scope
		out.Rule = res.Rule.String()
		out.Detail = res.Rule
		out.Metrics = &m
		out.Scope = &scope
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *RulesHandler) Rules(c echo.Context) error {
	req := &models.RulesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	a := h.miner.Archive()
	return xhttp.ListResponse(c, a.Top(req.Limit), int64(a.Len()))
}

func (h *RulesHandler) RunRules(c echo.Context) error {
	req := &models.RunRulesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()

	if req.RunID == h.miner.RunID() {
		a := h.miner.Archive()
		return xhttp.ListResponse(c, a.Top(req.Limit), int64(a.Len()))
	}
	if h.snapshot != nil {
		entries, err := h.snapshot.Load(ctx, req.RunID)
		switch {
		case err == nil:
			total := int64(len(entries))
			return xhttp.ListResponse(c, entries[:min(req.Limit, len(entries))], total)
		case !errors.Is(err, repository.ErrSnapshotNotFound):
			h.logger.Warn("snapshot load error", xlogger.String("run_id", req.RunID), xlogger.Error(err))
		}
	}
	if h.storage != nil {
		entries, err := h.storage.Query(ctx, req.RunID, req.Limit)
		if err != nil {
			h.logger.Error("storage query error", xlogger.String("run_id", req.RunID), xlogger.Error(err))
			return xhttp.AppErrorResponse(c, xhttp.InternalError("query failed").WithError(err))
		}
		if len(entries) > 0 {
			return xhttp.ListResponse(c, entries, int64(len(entries)))
		}
	}
	return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("run %s not found", req.RunID))
}
