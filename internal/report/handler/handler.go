package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fekuna/omnipos-donation-service/internal/auth"
	"github.com/fekuna/omnipos-donation-service/internal/report"
	"github.com/fekuna/omnipos-donation-service/internal/respond"
	"github.com/fekuna/omnipos-donation-service/pkg/logger"
)

type ReportHandler struct {
	uc     report.UseCase
	resp   *respond.Responder
	logger logger.ZapLogger
}

func NewReportHandler(uc report.UseCase, resp *respond.Responder, log logger.ZapLogger) *ReportHandler {
	return &ReportHandler{
		uc:     uc,
		resp:   resp,
		logger: log,
	}
}

func (h *ReportHandler) Register(g *echo.Group) {
	r := g.Group("/reports")
	r.GET("/overview", h.Overview)
	r.GET("/stock-summary", h.StockSummary)
	r.GET("/category-distribution", h.CategoryDistribution)
	r.GET("/recent-transactions", h.RecentTransactions)
}

func (h *ReportHandler) Overview(c echo.Context) error {
	o, err := h.uc.Overview(c.Request().Context(), auth.GetAssociationID(c.Request().Context()))
	if err != nil {
		return h.resp.Error(c, err)
	}
	return h.resp.OK(c, o)
}

func (h *ReportHandler) StockSummary(c echo.Context) error {
	s, err := h.uc.StockSummary(c.Request().Context(), auth.GetAssociationID(c.Request().Context()))
	if err != nil {
		return h.resp.Error(c, err)
	}
	return h.resp.OK(c, s)
}

func (h *ReportHandler) CategoryDistribution(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	items, err := h.uc.CategoryDistribution(c.Request().Context(), auth.GetAssociationID(c.Request().Context()), limit)
	if err != nil {
		return h.resp.Error(c, err)
	}
	return h.resp.List(c, items, len(items), 0, 0)
}

func (h *ReportHandler) RecentTransactions(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	items, err := h.uc.RecentTransactions(c.Request().Context(), auth.GetAssociationID(c.Request().Context()), limit)
	if err != nil {
		return h.resp.Error(c, err)
	}
	return h.resp.List(c, items, len(items), 0, 0)
}
