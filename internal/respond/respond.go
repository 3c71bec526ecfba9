// Package respond renders usecase results and errors as JSON for the HTTP
// API, localizing error messages from the request's Accept-Language.
package respond

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-donation-service/internal/apperr"
	"github.com/fekuna/omnipos-donation-service/pkg/i18n"
	"github.com/fekuna/omnipos-donation-service/pkg/logger"
)

// ErrorBody is the failure envelope. ProductID is only set for stock
// failures tied to one product.
type ErrorBody struct {
	Success   bool   `json:"success"`
	Code      string `json:"code"`
	Error     string `json:"error"`
	ProductID string `json:"product_id,omitempty"`
}

type ListBody struct {
	Data     any `json:"data"`
	Total    int `json:"total"`
	Page     int `json:"page,omitempty"`
	PageSize int `json:"page_size,omitempty"`
}

type Responder struct {
	tr     *i18n.Translator
	logger logger.ZapLogger
}

func New(tr *i18n.Translator, log logger.ZapLogger) *Responder {
	return &Responder{tr: tr, logger: log}
}

// Body converts err into the failure envelope in language lang. Errors
// that are not *apperr.Error are treated as INTERNAL and their text is
// never exposed.
func (r *Responder) Body(lang string, err error) ErrorBody {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Internal(err)
	}
	if e.Kind == apperr.KindInternal {
		r.logger.Error("request failed", zap.Error(err))
	}

	msg := r.tr.Translate(lang, e.MessageID, e.Data)
	if msg == "" {
		msg = e.Message
	}
	return ErrorBody{
		Success:   false,
		Code:      string(e.Kind),
		Error:     msg,
		ProductID: e.ProductID,
	}
}

func (r *Responder) Error(c echo.Context, err error) error {
	body := r.Body(c.Request().Header.Get("Accept-Language"), err)
	return c.JSON(apperr.HTTPStatus(apperr.Kind(body.Code)), body)
}

// BadRequest reports an unparsable request body or query.
func (r *Responder) BadRequest(c echo.Context) error {
	return r.Error(c, apperr.Validation("validation.invalid_request", "invalid request"))
}

func (r *Responder) OK(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, data)
}

func (r *Responder) Created(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, data)
}

func (r *Responder) List(c echo.Context, data any, total, page, pageSize int) error {
	return c.JSON(http.StatusOK, ListBody{Data: data, Total: total, Page: page, PageSize: pageSize})
}
