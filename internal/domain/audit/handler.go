package audit

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medledger/medledger/internal/platform/auth"
	"github.com/medledger/medledger/pkg/pagination"
)

// OwnerCheck reports whether addr owns the given report. The report-scoped
// listing is owner-only; actors can always see their own trail.
type OwnerCheck func(ctx context.Context, reportID uuid.UUID, addr string) (bool, error)

type Handler struct {
	svc     *Service
	isOwner OwnerCheck
}

func NewHandler(svc *Service, isOwner OwnerCheck) *Handler {
	return &Handler{svc: svc, isOwner: isOwner}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/audit/me", h.ListMine)
	api.GET("/audit/reports/:id", h.ListByReport)
}

func (h *Handler) ListMine(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	items, total, err := h.svc.ListByActor(ctx, auth.AddressFromContext(ctx), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListByReport(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report id")
	}

	ctx := c.Request().Context()
	owner, err := h.isOwner(ctx, id, auth.AddressFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "report not found")
	}
	if !owner {
		return echo.NewHTTPError(http.StatusForbidden, "owner only")
	}

	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByReport(ctx, id, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
