package handler

import (
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-donation-service/internal/apperr"
	"github.com/fekuna/omnipos-donation-service/internal/auth"
	"github.com/fekuna/omnipos-donation-service/internal/respond"
	"github.com/fekuna/omnipos-donation-service/internal/upload"
	"github.com/fekuna/omnipos-donation-service/pkg/logger"
)

type UploadHandler struct {
	store  *upload.Store
	resp   *respond.Responder
	logger logger.ZapLogger
}

func NewUploadHandler(store *upload.Store, resp *respond.Responder, log logger.ZapLogger) *UploadHandler {
	return &UploadHandler{
		store:  store,
		resp:   resp,
		logger: log,
	}
}

type uploadResponse struct {
	Success bool   `json:"success"`
	Path    string `json:"path,omitempty"`
}

type deleteRequest struct {
	Path string `json:"path" form:"path"`
}

func (h *UploadHandler) Register(g *echo.Group) {
	g.POST("/uploads", h.Upload)
	g.DELETE("/uploads", h.Delete)
}

func (h *UploadHandler) Upload(c echo.Context) error {
	associationID := auth.GetAssociationID(c.Request().Context())
	if associationID == "" {
		return h.resp.Error(c, apperr.NoAssociation())
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return h.resp.Error(c, apperr.Validation("upload.missing_file", "no file provided"))
	}
	src, err := fh.Open()
	if err != nil {
		return h.resp.Error(c, apperr.Internal(err))
	}
	defer src.Close()

	p, err := h.store.Save(associationID, fh.Filename, src)
	if err != nil {
		return h.resp.Error(c, err)
	}
	h.logger.Info("file uploaded", zap.String("path", p), zap.Int64("size", fh.Size))
	return h.resp.Created(c, uploadResponse{Success: true, Path: p})
}

func (h *UploadHandler) Delete(c echo.Context) error {
	associationID := auth.GetAssociationID(c.Request().Context())
	if associationID == "" {
		return h.resp.Error(c, apperr.NoAssociation())
	}
	var req deleteRequest
	if err := c.Bind(&req); err != nil {
		return h.resp.BadRequest(c)
	}
	if err := h.store.Delete(associationID, req.Path); err != nil {
		return h.resp.Error(c, err)
	}
	return h.resp.OK(c, uploadResponse{Success: true})
}

// Static serves stored files under upload.PublicPrefix.
func (h *UploadHandler) Static(e *echo.Echo) {
	e.Static(strings.TrimSuffix(upload.PublicPrefix, "/"), h.store.Dir())
}

