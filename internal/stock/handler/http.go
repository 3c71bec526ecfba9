package handler

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fekuna/omnipos-donation-service/internal/apperr"
	"github.com/fekuna/omnipos-donation-service/internal/auth"
	"github.com/fekuna/omnipos-donation-service/internal/respond"
	"github.com/fekuna/omnipos-donation-service/internal/stock"
	"github.com/fekuna/omnipos-donation-service/internal/stock/dto"
	"github.com/fekuna/omnipos-donation-service/pkg/logger"
)

const dateLayout = "2006-01-02"

type StockHandler struct {
	uc     stock.UseCase
	resp   *respond.Responder
	logger logger.ZapLogger
}

func NewStockHandler(uc stock.UseCase, resp *respond.Responder, log logger.ZapLogger) *StockHandler {
	return &StockHandler{
		uc:     uc,
		resp:   resp,
		logger: log,
	}
}

func (h *StockHandler) Register(g *echo.Group) {
	g.POST("/products/:id/replenish", h.Replenish)
	g.POST("/donations", h.Donate)
	g.GET("/transactions", h.ListTransactions)
}

func (h *StockHandler) Replenish(c echo.Context) error {
	var req dto.ReplenishRequest
	if err := c.Bind(&req); err != nil {
		return h.resp.BadRequest(c)
	}

	txn, err := h.uc.Replenish(c.Request().Context(), &dto.ReplenishInput{
		AssociationID: auth.GetAssociationID(c.Request().Context()),
		ProductID:     c.Param("id"),
		Quantity:      req.Quantity,
	})
	if err != nil {
		return h.resp.Error(c, err)
	}
	return h.resp.Created(c, txn)
}

// Donate records a donation and answers {success, transactions}, or the
// error envelope carrying the rejected product id.
func (h *StockHandler) Donate(c echo.Context) error {
	var req dto.DonationRequest
	if err := c.Bind(&req); err != nil {
		return h.resp.BadRequest(c)
	}

	txns, err := h.uc.DeductMany(c.Request().Context(), &dto.DeductManyInput{
		AssociationID: auth.GetAssociationID(c.Request().Context()),
		Items:         req.Items,
		AllOrNothing:  req.AllOrNothing,
	})
	if err != nil {
		return h.resp.Error(c, err)
	}
	return h.resp.Created(c, dto.DonationResponse{Success: true, Transactions: txns})
}

func (h *StockHandler) ListTransactions(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	start, err := parseDate(c.QueryParam("start_date"))
	if err != nil {
		return h.resp.Error(c, err)
	}
	end, err := parseDate(c.QueryParam("end_date"))
	if err != nil {
		return h.resp.Error(c, err)
	}

	items, count, err := h.uc.ListTransactions(c.Request().Context(), &dto.TransactionFilters{
		AssociationID: auth.GetAssociationID(c.Request().Context()),
		ProductID:     c.QueryParam("product_id"),
		StartDate:     start,
		EndDate:       end,
		Page:          page,
		PageSize:      pageSize,
	})
	if err != nil {
		return h.resp.Error(c, err)
	}
	return h.resp.List(c, items, count, page, pageSize)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return nil, apperr.Validation("validation.invalid_date", "dates must use the YYYY-MM-DD format")
	}
	return &t, nil
}
