package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/nps"
)

func (s *Server) registerNPSAPI(g *echo.Group) {
	ng := g.Group("/nps", s.jwt)
	ng.GET("", s.queryResponses)
	ng.GET("/score", s.npsScore)
	ng.POST("", s.createResponse)

	dg := ng.Group("/:id", s.responseObjectMiddleware)
	dg.GET("", s.retrieveResponse)
	dg.DELETE("", s.destroyResponse)
}

func (s *Server) responseObjectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		r, err := s.deps.NPSSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			return lookupErr(err, "finding NPS response by ID")
		}
		if err = s.canSeeRecord(ctx, r.ClientID); err != nil {
			return err
		}
		ctx.Set(objectKey, r)
		return next(ctx)
	}
}

func (s *Server) filterResponses(ctx echo.Context) ([]nps.Response, error) {
	clientIDs, err := s.scopedClientIDs(ctx)
	if err != nil {
		return nil, err
	}
	filter := nps.QueryFilter{ClientIDs: clientIDs}
	if filter.From, err = queryTime(ctx, "from"); err != nil {
		return nil, err
	}
	if filter.To, err = queryTime(ctx, "to"); err != nil {
		return nil, err
	}

	responses, err := s.deps.NPSSvc.Filter(ctx.Request().Context(), filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying NPS responses")
	}
	if responses == nil {
		responses = []nps.Response{}
	}
	return responses, nil
}

// Handlers

func (s *Server) queryResponses(ctx echo.Context) error {
	responses, err := s.filterResponses(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, responses)
}

type NPSScoreResponse struct {
	Score     int `json:"score"`
	Responses int `json:"responses"`
}

func (s *Server) npsScore(ctx echo.Context) error {
	responses, err := s.filterResponses(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, NPSScoreResponse{Score: nps.Score(responses), Responses: len(responses)})
}

func (s *Server) createResponse(ctx echo.Context) error {
	var data nps.NewResponse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewResponse")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}
	if err := s.checkClient(ctx, data.ClientID); err != nil {
		return err
	}

	r, err := s.deps.NPSSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating NPS response")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (s *Server) retrieveResponse(ctx echo.Context) error {
	r, ok := ctx.Get(objectKey).(nps.Response)
	if !ok {
		return errors.New("NPS response object not found in echo.Context")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (s *Server) destroyResponse(ctx echo.Context) error {
	r, ok := ctx.Get(objectKey).(nps.Response)
	if !ok {
		return errors.New("NPS response object not found in echo.Context")
	}
	if err := s.deps.NPSSvc.Delete(ctx.Request().Context(), r.ID); err != nil {
		return errors.Wrap(err, "deleting NPS response")
	}
	return ctx.NoContent(http.StatusNoContent)
}
