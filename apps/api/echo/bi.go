package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/bi"
)

func (s *Server) registerBIAPI(g *echo.Group) {
	bg := g.Group("/bi", s.jwt)
	bg.GET("", s.queryClientPanels)
	bg.POST("", s.createClientPanel)

	dg := bg.Group("/:id", s.clientPanelObjectMiddleware)
	dg.GET("", s.retrieveClientPanel)
	dg.PUT("", s.updateClientPanel)
	dg.DELETE("", s.destroyClientPanel)
}

func (s *Server) clientPanelObjectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		cp, err := s.deps.BISvc.GetClientPanel(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			return lookupErr(err, "finding client panel by ID")
		}
		if err = s.canSeeRecord(ctx, cp.ClientID); err != nil {
			return err
		}
		ctx.Set(objectKey, cp)
		return next(ctx)
	}
}

func objectClientPanel(ctx echo.Context) (bi.ClientPanel, error) {
	cp, ok := ctx.Get(objectKey).(bi.ClientPanel)
	if !ok {
		return bi.ClientPanel{}, errors.New("client panel object not found in echo.Context")
	}
	return cp, nil
}

// Handlers

func (s *Server) queryClientPanels(ctx echo.Context) error {
	clientIDs, err := s.scopedClientIDs(ctx)
	if err != nil {
		return err
	}
	panels, err := s.deps.BISvc.FilterClientPanels(ctx.Request().Context(), bi.QueryFilter{
		ClientIDs: clientIDs,
		PanelID:   ctx.QueryParam("panel_id"),
		Statuses:  queryStatuses(ctx),
	})
	if err != nil {
		return errors.Wrap(err, "querying client panels")
	}
	if panels == nil {
		panels = []bi.ClientPanel{}
	}
	return ctx.JSON(http.StatusOK, panels)
}

func (s *Server) createClientPanel(ctx echo.Context) error {
	var data bi.NewClientPanel
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClientPanel")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}
	if err := s.checkClient(ctx, data.ClientID); err != nil {
		return err
	}
	if _, err := s.deps.BISvc.GetPanel(ctx.Request().Context(), data.PanelID); err != nil {
		if errors.Cause(err) == bi.ErrPanelNotFound {
			return core.NewFieldError("panel_id", bi.ErrPanelNotFound)
		}
		return errors.Wrap(err, "finding panel by ID")
	}

	cp, err := s.deps.BISvc.CreateClientPanel(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating client panel")
	}
	return ctx.JSON(http.StatusCreated, cp)
}

func (s *Server) retrieveClientPanel(ctx echo.Context) error {
	cp, err := objectClientPanel(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cp)
}

func (s *Server) updateClientPanel(ctx echo.Context) error {
	cp, err := objectClientPanel(ctx)
	if err != nil {
		return err
	}

	var data bi.UpdateClientPanel
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClientPanel")
	}
	if err = data.Validate(s.deps.Validate); err != nil {
		return err
	}
	cp, err = s.deps.BISvc.UpdateClientPanel(ctx.Request().Context(), cp, data)
	if err != nil {
		return errors.Wrap(err, "updating client panel")
	}
	return ctx.JSON(http.StatusOK, cp)
}

func (s *Server) destroyClientPanel(ctx echo.Context) error {
	cp, err := objectClientPanel(ctx)
	if err != nil {
		return err
	}
	if err = s.deps.BISvc.DeleteClientPanels(ctx.Request().Context(), cp.ID); err != nil {
		return errors.Wrap(err, "deleting client panel")
	}
	return ctx.NoContent(http.StatusNoContent)
}
