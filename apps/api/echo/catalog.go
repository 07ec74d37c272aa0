package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/bi"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/process"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/tech"
)

// registerCatalogAPI wires the shared catalogs: platforms, BI panels and process areas.
// Everyone may read them; only admins write.
func (s *Server) registerCatalogAPI(g *echo.Group) {
	pg := g.Group("/platforms", s.jwt)
	pg.GET("", s.queryPlatforms)
	pg.POST("", s.createPlatform, s.adminMiddleware)
	pg.GET("/:id", s.retrievePlatform)
	pg.PUT("/:id", s.updatePlatform, s.adminMiddleware)
	pg.DELETE("/:id", s.destroyPlatform, s.adminMiddleware)

	bg := g.Group("/panels", s.jwt)
	bg.GET("", s.queryPanels)
	bg.POST("", s.createPanel, s.adminMiddleware)
	bg.GET("/:id", s.retrievePanel)
	bg.PUT("/:id", s.updatePanel, s.adminMiddleware)
	bg.DELETE("/:id", s.destroyPanel, s.adminMiddleware)

	ag := g.Group("/areas", s.jwt)
	ag.GET("", s.queryAreas)
	ag.POST("", s.createArea, s.adminMiddleware)
	ag.GET("/:id", s.retrieveArea)
	ag.DELETE("/:id", s.destroyArea, s.adminMiddleware)
}

// Platforms

func (s *Server) queryPlatforms(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)
	platforms, err := s.deps.TechSvc.QueryPlatforms(ctx.Request().Context(), ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying platforms")
	}
	if platforms == nil {
		platforms = []tech.Platform{}
	}
	return ctx.JSON(http.StatusOK, platforms)
}

func (s *Server) createPlatform(ctx echo.Context) error {
	var data tech.NewPlatform
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPlatform")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}
	p, err := s.deps.TechSvc.CreatePlatform(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating platform")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (s *Server) retrievePlatform(ctx echo.Context) error {
	p, err := s.deps.TechSvc.GetPlatform(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return lookupErr(err, "finding platform by ID")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (s *Server) updatePlatform(ctx echo.Context) error {
	p, err := s.deps.TechSvc.GetPlatform(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return lookupErr(err, "finding platform by ID")
	}

	var data tech.UpdatePlatform
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePlatform")
	}
	if err = data.Validate(p, s.deps.Validate); err != nil {
		return err
	}
	p, err = s.deps.TechSvc.UpdatePlatform(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "updating platform")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (s *Server) destroyPlatform(ctx echo.Context) error {
	if err := s.deps.TechSvc.DeletePlatforms(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return lookupErr(err, "deleting platform")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// BI panels

func (s *Server) queryPanels(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)
	panels, err := s.deps.BISvc.QueryPanels(ctx.Request().Context(), ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying panels")
	}
	if panels == nil {
		panels = []bi.Panel{}
	}
	return ctx.JSON(http.StatusOK, panels)
}

func (s *Server) createPanel(ctx echo.Context) error {
	var data bi.NewPanel
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPanel")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}
	p, err := s.deps.BISvc.CreatePanel(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating panel")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (s *Server) retrievePanel(ctx echo.Context) error {
	p, err := s.deps.BISvc.GetPanel(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return lookupErr(err, "finding panel by ID")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (s *Server) updatePanel(ctx echo.Context) error {
	p, err := s.deps.BISvc.GetPanel(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return lookupErr(err, "finding panel by ID")
	}

	var data bi.UpdatePanel
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePanel")
	}
	if err = data.Validate(p, s.deps.Validate); err != nil {
		return err
	}
	p, err = s.deps.BISvc.UpdatePanel(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "updating panel")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (s *Server) destroyPanel(ctx echo.Context) error {
	if err := s.deps.BISvc.DeletePanels(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return lookupErr(err, "deleting panel")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Process areas

func (s *Server) queryAreas(ctx echo.Context) error {
	areas, err := s.deps.ProcessSvc.QueryAreas(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying areas")
	}
	if areas == nil {
		areas = []process.Area{}
	}
	return ctx.JSON(http.StatusOK, areas)
}

func (s *Server) createArea(ctx echo.Context) error {
	var data process.NewArea
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewArea")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}
	a, err := s.deps.ProcessSvc.CreateArea(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating area")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (s *Server) retrieveArea(ctx echo.Context) error {
	a, err := s.deps.ProcessSvc.GetArea(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return lookupErr(err, "finding area by ID")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (s *Server) destroyArea(ctx echo.Context) error {
	if err := s.deps.ProcessSvc.DeleteAreas(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return lookupErr(err, "deleting area")
	}
	return ctx.NoContent(http.StatusNoContent)
}
