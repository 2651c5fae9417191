package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/pagecarbon/internal/model"
	"github.com/nao1215/pagecarbon/internal/report"
)

type handler struct {
	cfg     Config
	started time.Time
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version,omitempty"`
}

// AnalysisRequest is the body of POST /analyses.
type AnalysisRequest struct {
	URL string `json:"url" binding:"required"`
}

// ReportsResponse is the body of GET /reports.
type ReportsResponse struct {
	Reports []*report.JSONReport `json:"reports"`
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Uptime:  h.cfg.Now().Sub(h.started).Round(time.Second).String(),
		Version: h.cfg.Version,
	})
}

func (h *handler) createAnalysis(c *gin.Context) {
	var body AnalysisRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, http.StatusBadRequest, ErrCodeInvalidInput, err.Error())
		return
	}

	req, err := model.NewAnalysisRequest(body.URL, userID(c))
	if err != nil {
		respondAnalysisError(c, err)
		return
	}

	ctx := c.Request.Context()
	if h.cfg.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.AnalysisTimeout)
		defer cancel()
	}

	result, err := h.cfg.Analyzer.Analyze(ctx, req)
	if err != nil {
		h.cfg.Logger.Warn("analysis failed", "url", req.TargetURL, "error", err)
		respondAnalysisError(c, err)
		return
	}

	c.JSON(http.StatusCreated, report.NewJSONReport(result))
}

func (h *handler) listReports(c *gin.Context) {
	ctx := c.Request.Context()
	user := userID(c)

	var (
		reports []*model.AnalysisReport
		err     error
	)
	if top := c.Query("top"); top != "" {
		n, convErr := strconv.Atoi(top)
		if convErr != nil || n < 1 {
			abortWithError(c, http.StatusBadRequest, ErrCodeInvalidInput, "top must be a positive integer")
			return
		}
		reports, err = h.cfg.Store.TopByEnergy(ctx, user, n)
	} else {
		since, ok := h.timeQuery(c, "since")
		if !ok {
			return
		}
		until, ok := h.timeQuery(c, "until")
		if !ok {
			return
		}
		reports, err = h.cfg.Store.History(ctx, user, since, until)
	}
	if err != nil {
		h.internalError(c, err)
		return
	}

	resp := ReportsResponse{Reports: make([]*report.JSONReport, len(reports))}
	for i, r := range reports {
		resp.Reports[i] = report.NewJSONReport(r)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) getReport(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, ErrCodeInvalidInput, "report id must be an integer")
		return
	}

	r, ok := h.lookup(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report.NewJSONReport(r))
}

// charts returns the score trend and top sites of the user and, when
// report_id is given, the link and footprint charts of that report.
func (h *handler) charts(c *gin.Context) {
	ctx := c.Request.Context()
	user := userID(c)
	now := h.cfg.Now()

	var selected *model.AnalysisReport
	if raw := c.Query("report_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, ErrCodeInvalidInput, "report_id must be an integer")
			return
		}
		r, ok := h.lookup(c, id)
		if !ok {
			return
		}
		selected = r
	}

	recent, err := h.cfg.Store.History(ctx, user, now.Add(-report.DefaultTrendWindow), time.Time{})
	if err != nil {
		h.internalError(c, err)
		return
	}
	top, err := h.cfg.Store.TopByEnergy(ctx, user, report.DefaultTopSites)
	if err != nil {
		h.internalError(c, err)
		return
	}

	charts := report.BuildCharts(selected, recent, now)
	charts.TopSites = report.TopSites(top, report.DefaultTopSites)
	c.JSON(http.StatusOK, charts)
}

// lookup fetches a report of the current user, writing 404 or 500 on failure.
func (h *handler) lookup(c *gin.Context, id int64) (*model.AnalysisReport, bool) {
	r, err := h.cfg.Store.GetReport(c.Request.Context(), userID(c), id)
	if err != nil {
		h.internalError(c, err)
		return nil, false
	}
	if r == nil {
		abortWithError(c, http.StatusNotFound, ErrCodeNotFound, "report "+strconv.FormatInt(id, 10)+" not found")
		return nil, false
	}
	return r, true
}

// timeQuery parses an optional RFC 3339 query parameter.
func (h *handler) timeQuery(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, ErrCodeInvalidInput, name+" must be an RFC 3339 timestamp")
		return time.Time{}, false
	}
	return t, true
}

func (h *handler) internalError(c *gin.Context, err error) {
	h.cfg.Logger.Error("request failed", "path", c.FullPath(), "error", err)
	abortWithError(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
}
