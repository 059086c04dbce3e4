package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/askdb/internal/store"
	"github.com/mohammad-safakhou/askdb/internal/tabular"
	"github.com/mohammad-safakhou/askdb/internal/translator"
	"github.com/mohammad-safakhou/askdb/session"
)

// sessionHeader carries the caller's session across requests; the response
// always echoes the effective id back.
const sessionHeader = "X-Session-ID"

var (
	exportNameRe = regexp.MustCompile(`^test_case[0-9]+\.csv$`)
	sessionIDRe  = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
)

type QueryHandler struct {
	Sessions    session.Store
	Translators *translators
	Collection  string
	SessionTTL  time.Duration
	ExportsDir  string
}

func (h *QueryHandler) Register(g *echo.Group) {
	g.POST("/query", h.query)
	g.GET("/exports/:session/:file", h.export)
}

type QueryResponse struct {
	SessionID string                   `json:"session_id"`
	QueryN    int                      `json:"query_n"`
	Filter    store.Filter             `json:"filter"`
	Source    string                   `json:"source"`
	Attempts  int                      `json:"attempts"`
	Count     int                      `json:"count"`
	Records   []map[string]interface{} `json:"records"`
	ElapsedMS int64                    `json:"elapsed_ms"`
	Export    string                   `json:"export,omitempty"`
}

func (h *QueryHandler) query(c echo.Context) error {
	var req struct {
		Collection string `json:"collection"`
		Question   string `json:"question"`
		Save       bool   `json:"save"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Question) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question required")
	}
	collection := req.Collection
	if collection == "" {
		collection = h.Collection
	}

	ctx := c.Request().Context()
	sess, err := h.Sessions.Ensure(ctx, c.Request().Header.Get(sessionHeader), h.SessionTTL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set(sessionHeader, sess.ID)

	tr, err := h.Translators.get(ctx, collection)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	res, err := tr.Ask(ctx, req.Question)
	if err != nil {
		if errors.Is(err, translator.ErrNoFields) {
			// The collection may have gained data since the sample was read.
			h.Translators.invalidate(collection)
		}
		return httpErrorFor(err)
	}

	n, err := h.Sessions.IncrementQueries(ctx, sess.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := QueryResponse{
		SessionID: sess.ID,
		QueryN:    n,
		Filter:    res.Filter,
		Source:    string(res.Source),
		Attempts:  res.Attempts,
		Count:     len(res.Records),
		Records:   recordFields(res.Records),
		ElapsedMS: res.Elapsed.Milliseconds(),
	}

	if req.Save {
		link, err := h.saveExport(sess.ID, n, res.Records)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		resp.Export = link
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *QueryHandler) saveExport(sessionID string, n int, records []store.Record) (string, error) {
	dir := filepath.Join(h.ExportsDir, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := tabular.ExportName(n)
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := tabular.WriteCSV(f, tabular.Columns(records), records); err != nil {
		return "", err
	}
	return "/api/exports/" + sessionID + "/" + name, nil
}

func (h *QueryHandler) export(c echo.Context) error {
	sessionID := c.Param("session")
	file := c.Param("file")
	if !sessionIDRe.MatchString(sessionID) || !exportNameRe.MatchString(file) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid export path")
	}
	path := filepath.Join(h.ExportsDir, sessionID, file)
	if _, err := os.Stat(path); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "export not found")
	}
	return c.Attachment(path, file)
}

// httpErrorFor maps pipeline failures onto status codes: generation 502,
// rejection 422, everything else 500.
func httpErrorFor(err error) error {
	var rej *translator.RejectionError
	switch {
	case errors.Is(err, translator.ErrGeneration):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	case errors.As(err, &rej):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, rej.Error())
	case errors.Is(err, translator.ErrNoFields):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func recordFields(records []store.Record) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Fields)
	}
	return out
}
