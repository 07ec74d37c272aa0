package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/tech"
)

func (s *Server) registerTechAPI(g *echo.Group) {
	tg := g.Group("/tech", s.jwt)
	tg.GET("", s.queryImplementations)
	tg.POST("", s.createImplementation)

	dg := tg.Group("/:id", s.implementationObjectMiddleware)
	dg.GET("", s.retrieveImplementation)
	dg.PUT("", s.updateImplementation)
	dg.DELETE("", s.destroyImplementation)
}

func (s *Server) implementationObjectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		impl, err := s.deps.TechSvc.GetImplementation(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			return lookupErr(err, "finding implementation by ID")
		}
		if err = s.canSeeRecord(ctx, impl.ClientID); err != nil {
			return err
		}
		ctx.Set(objectKey, impl)
		return next(ctx)
	}
}

func objectImplementation(ctx echo.Context) (tech.Implementation, error) {
	impl, ok := ctx.Get(objectKey).(tech.Implementation)
	if !ok {
		return tech.Implementation{}, errors.New("implementation object not found in echo.Context")
	}
	return impl, nil
}

// Handlers

func (s *Server) queryImplementations(ctx echo.Context) error {
	clientIDs, err := s.scopedClientIDs(ctx)
	if err != nil {
		return err
	}
	impls, err := s.deps.TechSvc.FilterImplementations(ctx.Request().Context(), tech.QueryFilter{
		ClientIDs:  clientIDs,
		PlatformID: ctx.QueryParam("platform_id"),
		Statuses:   queryStatuses(ctx),
	})
	if err != nil {
		return errors.Wrap(err, "querying implementations")
	}
	if impls == nil {
		impls = []tech.Implementation{}
	}
	return ctx.JSON(http.StatusOK, impls)
}

func (s *Server) createImplementation(ctx echo.Context) error {
	var data tech.NewImplementation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewImplementation")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}
	if err := s.checkClient(ctx, data.ClientID); err != nil {
		return err
	}
	if _, err := s.deps.TechSvc.GetPlatform(ctx.Request().Context(), data.PlatformID); err != nil {
		if errors.Cause(err) == tech.ErrPlatformNotFound {
			return core.NewFieldError("platform_id", tech.ErrPlatformNotFound)
		}
		return errors.Wrap(err, "finding platform by ID")
	}

	impl, err := s.deps.TechSvc.CreateImplementation(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating implementation")
	}
	return ctx.JSON(http.StatusCreated, impl)
}

func (s *Server) retrieveImplementation(ctx echo.Context) error {
	impl, err := objectImplementation(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, impl)
}

func (s *Server) updateImplementation(ctx echo.Context) error {
	impl, err := objectImplementation(ctx)
	if err != nil {
		return err
	}

	var data tech.UpdateImplementation
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateImplementation")
	}
	if err = data.Validate(s.deps.Validate); err != nil {
		return err
	}
	impl, err = s.deps.TechSvc.UpdateImplementation(ctx.Request().Context(), impl, data)
	if err != nil {
		return errors.Wrap(err, "updating implementation")
	}
	return ctx.JSON(http.StatusOK, impl)
}

func (s *Server) destroyImplementation(ctx echo.Context) error {
	impl, err := objectImplementation(ctx)
	if err != nil {
		return err
	}
	if err = s.deps.TechSvc.DeleteImplementations(ctx.Request().Context(), impl.ID); err != nil {
		return errors.Wrap(err, "deleting implementation")
	}
	return ctx.NoContent(http.StatusNoContent)
}
