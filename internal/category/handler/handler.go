package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fekuna/omnipos-donation-service/internal/auth"
	"github.com/fekuna/omnipos-donation-service/internal/category"
	"github.com/fekuna/omnipos-donation-service/internal/category/dto"
	"github.com/fekuna/omnipos-donation-service/internal/respond"
	"github.com/fekuna/omnipos-donation-service/pkg/logger"
)

type CategoryHandler struct {
	uc     category.UseCase
	resp   *respond.Responder
	logger logger.ZapLogger
}

func NewCategoryHandler(uc category.UseCase, resp *respond.Responder, log logger.ZapLogger) *CategoryHandler {
	return &CategoryHandler{
		uc:     uc,
		resp:   resp,
		logger: log,
	}
}

func (h *CategoryHandler) Register(g *echo.Group) {
	g.GET("/categories", h.ListCategories)
	g.POST("/categories", h.CreateCategory)
	g.GET("/categories/:id", h.GetCategory)
	g.PUT("/categories/:id", h.UpdateCategory)
	g.DELETE("/categories/:id", h.DeleteCategory)
}

func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req dto.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return h.resp.BadRequest(c)
	}

	cat, err := h.uc.CreateCategory(c.Request().Context(), &dto.CreateCategoryInput{
		AssociationID: auth.GetAssociationID(c.Request().Context()),
		Name:          req.Name,
		Description:   req.Description,
	})
	if err != nil {
		return h.resp.Error(c, err)
	}
	return h.resp.Created(c, cat)
}

func (h *CategoryHandler) GetCategory(c echo.Context) error {
	cat, err := h.uc.GetCategory(c.Request().Context(), auth.GetAssociationID(c.Request().Context()), c.Param("id"))
	if err != nil {
		return h.resp.Error(c, err)
	}
	return h.resp.OK(c, cat)
}

func (h *CategoryHandler) ListCategories(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	cats, count, err := h.uc.ListCategories(c.Request().Context(), &dto.CategoryFilters{
		AssociationID: auth.GetAssociationID(c.Request().Context()),
		Page:          page,
		PageSize:      pageSize,
	})
	if err != nil {
		return h.resp.Error(c, err)
	}
	return h.resp.List(c, cats, count, page, pageSize)
}

func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	var req dto.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return h.resp.BadRequest(c)
	}

	cat, err := h.uc.UpdateCategory(c.Request().Context(), &dto.UpdateCategoryInput{
		ID:            c.Param("id"),
		AssociationID: auth.GetAssociationID(c.Request().Context()),
		Name:          req.Name,
		Description:   req.Description,
	})
	if err != nil {
		return h.resp.Error(c, err)
	}
	return h.resp.OK(c, cat)
}

func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	err := h.uc.DeleteCategory(c.Request().Context(), auth.GetAssociationID(c.Request().Context()), c.Param("id"))
	if err != nil {
		return h.resp.Error(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
