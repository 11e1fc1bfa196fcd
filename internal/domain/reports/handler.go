package reports

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medledger/medledger/internal/platform/auth"
	"github.com/medledger/medledger/internal/platform/contentstore"
	"github.com/medledger/medledger/internal/platform/ledger"
	"github.com/medledger/medledger/pkg/pagination"
)

type Handler struct {
	svc       *Service
	maxUpload int64
}

func NewHandler(svc *Service, maxUpload int64) *Handler {
	return &Handler{svc: svc, maxUpload: maxUpload}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/reports/upload", h.Upload)
	api.POST("/reports/grant", h.Grant)
	api.POST("/reports/revoke", h.Revoke)
	api.GET("/reports/me", h.ListMine)
	api.GET("/reports/:id", h.Get)
	api.GET("/reports/:id/download", h.Download)
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeError(c echo.Context, err error) error {
	status, kind := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, ErrValidation):
		status, kind = http.StatusBadRequest, "validation_error"
	case errors.Is(err, ErrNotOwner), errors.Is(err, ledger.ErrUnauthorized):
		status, kind = http.StatusForbidden, "not_owner"
	case errors.Is(err, ErrAccessDenied):
		status, kind = http.StatusForbidden, "access_denied"
	case errors.Is(err, ErrNotFound), errors.Is(err, contentstore.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, ledger.ErrNotGranted):
		status, kind = http.StatusNotFound, "not_granted"
	case errors.Is(err, ledger.ErrTimeout):
		status, kind = http.StatusGatewayTimeout, "ledger_timeout"
	case errors.Is(err, ledger.ErrUnavailable), errors.Is(err, ledger.ErrRejected):
		status, kind = http.StatusBadGateway, "ledger_error"
	case errors.Is(err, contentstore.ErrUnavailable):
		status, kind = http.StatusBadGateway, "store_unavailable"
	}
	return c.JSON(status, map[string]errorBody{"error": {Kind: kind, Message: err.Error()}})
}

func (h *Handler) Upload(c echo.Context) error {
	addr := auth.AddressFromContext(c.Request().Context())

	fh, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fmt.Errorf("%w: multipart field \"file\" is required", ErrValidation))
	}
	if fh.Size > h.maxUpload {
		return writeError(c, fmt.Errorf("%w: file exceeds %d bytes", ErrValidation, h.maxUpload))
	}

	f, err := fh.Open()
	if err != nil {
		return writeError(c, fmt.Errorf("%w: unreadable file part", ErrValidation))
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxUpload+1))
	if err != nil {
		return writeError(c, fmt.Errorf("read upload: %w", err))
	}
	if int64(len(data)) > h.maxUpload {
		return writeError(c, fmt.Errorf("%w: file exceeds %d bytes", ErrValidation, h.maxUpload))
	}

	var description *string
	if d := c.FormValue("description"); d != "" {
		description = &d
	}

	rp, err := h.svc.Upload(c.Request().Context(), addr, fh.Filename, description, data)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, rp)
}

type permissionRequest struct {
	ReportID       uuid.UUID `json:"report_id"`
	GranteeAddress string    `json:"grantee_address"`
}

func (h *Handler) Grant(c echo.Context) error {
	var req permissionRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, fmt.Errorf("%w: %v", ErrValidation, err))
	}
	ctx := c.Request().Context()
	rp, err := h.svc.Grant(ctx, auth.AddressFromContext(ctx), req.ReportID, req.GranteeAddress)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rp)
}

func (h *Handler) Revoke(c echo.Context) error {
	var req permissionRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, fmt.Errorf("%w: %v", ErrValidation, err))
	}
	ctx := c.Request().Context()
	rp, err := h.svc.Revoke(ctx, auth.AddressFromContext(ctx), req.ReportID, req.GranteeAddress)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rp)
}

func (h *Handler) ListMine(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	items, total, err := h.svc.ListByOwner(ctx, auth.AddressFromContext(ctx), pg.Limit, pg.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, fmt.Errorf("%w: invalid report id", ErrValidation))
	}
	ctx := c.Request().Context()
	rp, err := h.svc.Get(ctx, auth.AddressFromContext(ctx), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rp)
}

func (h *Handler) Download(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, fmt.Errorf("%w: invalid report id", ErrValidation))
	}
	ctx := c.Request().Context()
	dl, err := h.svc.Download(ctx, auth.AddressFromContext(ctx), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", dl.FileName))
	return c.Blob(http.StatusOK, echo.MIMEOctetStream, dl.Data)
}
