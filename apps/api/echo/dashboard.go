package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/dashboard"
)

func (s *Server) registerDashboardAPI(g *echo.Group) {
	dg := g.Group("/dashboard", s.jwt)
	dg.GET("", s.overview)
	dg.GET("/clients/:id/health", s.clientHealth)
	dg.GET("/overdue", s.overdue, s.adminMiddleware)
}

func (s *Server) overview(ctx echo.Context) error {
	uc, err := s.userContext(ctx)
	if err != nil {
		return err
	}
	ov, err := s.deps.DashboardSvc.Overview(ctx.Request().Context(), uc, bindSelection(ctx))
	if err != nil {
		return errors.Wrap(err, "building overview")
	}
	return ctx.JSON(http.StatusOK, ov)
}

func (s *Server) clientHealth(ctx echo.Context) error {
	uc, err := s.userContext(ctx)
	if err != nil {
		return err
	}
	row, err := s.deps.DashboardSvc.ClientHealth(ctx.Request().Context(), uc, ctx.Param("id"))
	if err != nil {
		return lookupErr(err, "scoring client")
	}
	return ctx.JSON(http.StatusOK, row)
}

func (s *Server) overdue(ctx echo.Context) error {
	digests, err := s.deps.DashboardSvc.OverdueDigest(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "building overdue digest")
	}
	if digests == nil {
		digests = []dashboard.OwnerDigest{}
	}
	return ctx.JSON(http.StatusOK, digests)
}
