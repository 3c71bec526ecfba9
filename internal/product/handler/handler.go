package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fekuna/omnipos-donation-service/internal/auth"
	"github.com/fekuna/omnipos-donation-service/internal/product"
	"github.com/fekuna/omnipos-donation-service/internal/product/dto"
	"github.com/fekuna/omnipos-donation-service/internal/respond"
	"github.com/fekuna/omnipos-donation-service/pkg/logger"
)

type ProductHandler struct {
	uc     product.UseCase
	resp   *respond.Responder
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, resp *respond.Responder, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		resp:   resp,
		logger: log,
	}
}

func (h *ProductHandler) Register(g *echo.Group) {
	g.GET("/products", h.ListProducts)
	g.POST("/products", h.CreateProduct)
	g.GET("/products/:id", h.GetProduct)
	g.PUT("/products/:id", h.UpdateProduct)
	g.DELETE("/products/:id", h.DeleteProduct)
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req dto.ProductRequest
	if err := c.Bind(&req); err != nil {
		return h.resp.BadRequest(c)
	}

	p, err := h.uc.CreateProduct(c.Request().Context(), &dto.CreateProductInput{
		AssociationID: auth.GetAssociationID(c.Request().Context()),
		CategoryID:    req.CategoryID,
		Name:          req.Name,
		Description:   req.Description,
		Price:         string(req.Price),
		Unit:          req.Unit,
		ImageURL:      req.ImageURL,
	})
	if err != nil {
		return h.resp.Error(c, err)
	}
	return h.resp.Created(c, p)
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	p, err := h.uc.GetProduct(c.Request().Context(), auth.GetAssociationID(c.Request().Context()), c.Param("id"))
	if err != nil {
		return h.resp.Error(c, err)
	}
	return h.resp.OK(c, p)
}

func (h *ProductHandler) ListProducts(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	products, count, err := h.uc.ListProducts(c.Request().Context(), &dto.ProductFilters{
		AssociationID: auth.GetAssociationID(c.Request().Context()),
		CategoryID:    c.QueryParam("category_id"),
		SearchQuery:   c.QueryParam("q"),
		SortBy:        c.QueryParam("sort_by"),
		SortOrder:     c.QueryParam("sort_order"),
		Page:          page,
		PageSize:      pageSize,
	})
	if err != nil {
		return h.resp.Error(c, err)
	}
	return h.resp.List(c, products, count, page, pageSize)
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	var req dto.ProductRequest
	if err := c.Bind(&req); err != nil {
		return h.resp.BadRequest(c)
	}

	p, err := h.uc.UpdateProduct(c.Request().Context(), &dto.UpdateProductInput{
		ID:            c.Param("id"),
		AssociationID: auth.GetAssociationID(c.Request().Context()),
		CategoryID:    req.CategoryID,
		Name:          req.Name,
		Description:   req.Description,
		Price:         string(req.Price),
		Unit:          req.Unit,
		ImageURL:      req.ImageURL,
	})
	if err != nil {
		return h.resp.Error(c, err)
	}
	return h.resp.OK(c, p)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	err := h.uc.DeleteProduct(c.Request().Context(), auth.GetAssociationID(c.Request().Context()), c.Param("id"))
	if err != nil {
		return h.resp.Error(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
