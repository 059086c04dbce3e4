package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/askdb/internal/search"
	"github.com/mohammad-safakhou/askdb/internal/store"
	"github.com/mohammad-safakhou/askdb/internal/tabular"
	"github.com/mohammad-safakhou/askdb/internal/translator"
)

const defaultPreviewLimit = 20

type CollectionsHandler struct {
	Store       store.Store
	Translators *translators
}

func (h *CollectionsHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.POST("/:name/import", h.importCSV)
	g.GET("/:name/fields", h.fields)
	g.GET("/:name/records", h.records)
	g.GET("/:name/search", h.search)
}

func (h *CollectionsHandler) list(c echo.Context) error {
	items, err := h.Store.Collections(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CollectionsHandler) importCSV(c echo.Context) error {
	name := c.Param("name")
	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file required")
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer src.Close()

	records, _, err := tabular.ReadCSV(src)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(records) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no records in file")
	}

	n, err := h.Store.InsertMany(c.Request().Context(), name, records)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	// New data can carry fields the cached sample never saw.
	h.Translators.invalidate(name)
	return c.JSON(http.StatusCreated, map[string]int{"inserted": n})
}

func (h *CollectionsHandler) fields(c echo.Context) error {
	name := c.Param("name")
	rec, ok, err := h.Store.FindOne(c.Request().Context(), name)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	fields := []string{}
	if ok {
		fields = translator.FieldsFromRecord(rec)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"collection": name, "fields": fields})
}

func (h *CollectionsHandler) records(c echo.Context) error {
	name := c.Param("name")
	limit := defaultPreviewLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}
	recs, err := h.Store.Find(c.Request().Context(), name, nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	total := len(recs)
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"collection": name,
		"total":      total,
		"records":    recordFields(recs),
	})
}

func (h *CollectionsHandler) search(c echo.Context) error {
	name := c.Param("name")
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q required")
	}
	limit := 10
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	recs, err := h.Store.Find(c.Request().Context(), name, nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	hits, err := search.Records(recs, q, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	out := make([]map[string]interface{}, 0, len(hits))
	for _, hit := range hits {
		out = append(out, map[string]interface{}{
			"rank":   hit.Rank,
			"score":  hit.Score,
			"record": hit.Record.Fields,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"collection": name,
		"query":      q,
		"count":      len(out),
		"hits":       out,
	})
}
