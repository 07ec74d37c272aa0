package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/process"
)

// Surveys are area scoped, not client scoped: everyone reads them and only admins write.
func (s *Server) registerProcessAPI(g *echo.Group) {
	sg := g.Group("/surveys", s.jwt)
	sg.GET("", s.querySurveys)
	sg.POST("", s.createSurvey, s.adminMiddleware)
	sg.GET("/:id", s.retrieveSurvey)
	sg.PUT("/:id", s.updateSurvey, s.adminMiddleware)
	sg.DELETE("/:id", s.destroySurvey, s.adminMiddleware)
}

func (s *Server) querySurveys(ctx echo.Context) error {
	surveys, err := s.deps.ProcessSvc.QuerySurveys(ctx.Request().Context(), process.QueryFilter{
		AreaID: ctx.QueryParam("area_id"),
	})
	if err != nil {
		return errors.Wrap(err, "querying surveys")
	}
	if surveys == nil {
		surveys = []process.Survey{}
	}
	return ctx.JSON(http.StatusOK, surveys)
}

func (s *Server) createSurvey(ctx echo.Context) error {
	var data process.NewSurvey
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSurvey")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}
	sv, err := s.deps.ProcessSvc.CreateSurvey(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating survey")
	}
	return ctx.JSON(http.StatusCreated, sv)
}

func (s *Server) retrieveSurvey(ctx echo.Context) error {
	sv, err := s.deps.ProcessSvc.GetSurvey(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return lookupErr(err, "finding survey by ID")
	}
	return ctx.JSON(http.StatusOK, sv)
}

func (s *Server) updateSurvey(ctx echo.Context) error {
	sv, err := s.deps.ProcessSvc.GetSurvey(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return lookupErr(err, "finding survey by ID")
	}

	var data process.UpdateSurvey
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSurvey")
	}
	if err = data.Validate(s.deps.Validate); err != nil {
		return err
	}
	sv, err = s.deps.ProcessSvc.UpdateSurvey(ctx.Request().Context(), sv, data)
	if err != nil {
		return errors.Wrap(err, "updating survey")
	}
	return ctx.JSON(http.StatusOK, sv)
}

func (s *Server) destroySurvey(ctx echo.Context) error {
	if err := s.deps.ProcessSvc.DeleteSurveys(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting survey")
	}
	return ctx.NoContent(http.StatusNoContent)
}
