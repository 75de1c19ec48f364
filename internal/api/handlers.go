package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/0xRadioAc7iv/go-jewelstore/internal/index"
	"github.com/0xRadioAc7iv/go-jewelstore/internal/record"
	"github.com/0xRadioAc7iv/go-jewelstore/internal/report"
)

// Backend is the subset of the engine the HTTP layer needs.
type Backend interface {
	Lookup(kind record.Kind, key string) (record.Record, error)
	Insert(r record.Record) error
	Remove(kind record.Kind, key string) (int, error)
	List(kind record.Kind) ([]record.Record, error)
	MostSoldType() (report.TypeCount, error)
	MostExpensiveProduct() (report.ProductPrice, error)
	TopSpender() (report.UserSpend, error)
}

type Handler struct {
	backend Backend
	logger  *zap.Logger
}

func NewHandler(backend Backend, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{backend: backend, logger: logger}
}

// NewServer returns an echo instance with the standard middleware and every
// route registered.
func NewServer(backend Backend, logger *zap.Logger) *echo.Echo {
	h := NewHandler(backend, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			h.logger.Debug("http request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Error(v.Error),
			)
			return nil
		},
	}))

	h.RegisterRoutes(e)
	return e
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/health", h.Health)

	reports := api.Group("/reports")
	reports.GET("/most-sold-type", h.GetMostSoldType)
	reports.GET("/most-expensive", h.GetMostExpensive)
	reports.GET("/top-spender", h.GetTopSpender)

	api.GET("/:kind", h.ListRecords)
	api.GET("/:kind/:key", h.GetRecord)
	api.POST("/:kind", h.CreateRecord)
	api.DELETE("/:kind/:key", h.DeleteRecord)
}

// --- HANDLERS ---

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetRecord(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}

	rec, err := h.backend.Lookup(kind, c.Param("key"))
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ListRecords returns records in file (key) order, paginated with
// ?limit=&offset=.
func (h *Handler) ListRecords(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}

	recs, err := h.backend.List(kind)
	if err != nil {
		return h.fail(err)
	}

	total := len(recs)
	limit, offset := getPaginationParams(c, total)

	page := []record.Record{}
	if offset < total {
		end := offset + min(limit, total-offset)
		page = recs[offset:end]
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data":   page,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) CreateRecord(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}

	var rec record.Record
	switch kind {
	case record.KindCatalog:
		var r record.CatalogRecord
		if err := c.Bind(&r); err != nil {
			return err
		}
		rec = r
	case record.KindPurchase:
		var r record.PurchaseRecord
		if err := c.Bind(&r); err != nil {
			return err
		}
		rec = r
	}

	if rec.Key() == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "product_id is required")
	}

	if err := h.backend.Insert(rec); err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) DeleteRecord(c echo.Context) error {
	kind, err := kindParam(c)
	if err != nil {
		return err
	}

	removed, err := h.backend.Remove(kind, c.Param("key"))
	if err != nil {
		return h.fail(err)
	}
	if removed == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	return c.JSON(http.StatusOK, map[string]int{"removed": removed})
}

func (h *Handler) GetMostSoldType(c echo.Context) error {
	res, err := h.backend.MostSoldType()
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) GetMostExpensive(c echo.Context) error {
	res, err := h.backend.MostExpensiveProduct()
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) GetTopSpender(c echo.Context) error {
	res, err := h.backend.TopSpender()
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, res)
}

func kindParam(c echo.Context) (record.Kind, error) {
	kind, err := record.ParseKind(c.Param("kind"))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return kind, nil
}

// fail maps domain errors onto HTTP status codes.
func (h *Handler) fail(err error) error {
	switch {
	case errors.Is(err, index.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, report.ErrNoData):
		return echo.NewHTTPError(http.StatusNotFound, "no data")
	default:
		h.logger.Error("request failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
