package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/client"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/scope"
)

func (s *Server) registerClientAPI(g *echo.Group) {
	cg := g.Group("/clients", s.jwt)
	cg.GET("", s.queryClients)
	cg.GET("/options", s.clientOptions)
	cg.POST("", s.createClient, s.adminMiddleware)

	dg := cg.Group("/:id", s.clientObjectMiddleware)
	dg.GET("", s.retrieveClient)
	dg.PUT("", s.updateClient, s.adminMiddleware)
	dg.DELETE("", s.destroyClient, s.adminMiddleware)
}

func bindSelection(ctx echo.Context) scope.Selection {
	return scope.Selection{
		ClientID: ctx.QueryParam("client"),
		OwnerID:  ctx.QueryParam("owner"),
		Group:    ctx.QueryParam("group"),
	}
}

// clientObjectMiddleware loads the `:id` client; clients outside the user's scope are reported as missing.
func (s *Server) clientObjectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		uc, err := s.userContext(ctx)
		if err != nil {
			return err
		}
		id := ctx.Param("id")
		if !uc.CanSee(id) {
			return errHttpNotFound
		}
		c, err := s.deps.ClientSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			return lookupErr(err, "finding client by ID")
		}
		ctx.Set(objectKey, c)
		return next(ctx)
	}
}

func objectClient(ctx echo.Context) (client.Client, error) {
	c, ok := ctx.Get(objectKey).(client.Client)
	if !ok {
		return client.Client{}, errors.New("client object not found in echo.Context")
	}
	return c, nil
}

// visibleClients lists the clients the user may see that match the query selection.
func (s *Server) visibleClients(ctx echo.Context) ([]client.Client, scope.Options, error) {
	uc, err := s.userContext(ctx)
	if err != nil {
		return nil, scope.Options{}, err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	clients, err := s.deps.ClientSvc.QueryAll(ctx.Request().Context(), ordering.Orderings...)
	if err != nil {
		return nil, scope.Options{}, errors.Wrap(err, "querying clients")
	}
	selected, opts := scope.Filter(clients, uc, bindSelection(ctx))
	return selected, opts, nil
}

// clientRead is a client with its health score, which is computed on each read and never stored.
type clientRead struct {
	client.Client
	HealthScore int `json:"health_score"`
}

func (s *Server) withHealth(ctx echo.Context, clients ...client.Client) ([]clientRead, error) {
	scores, err := s.deps.DashboardSvc.Scores(ctx.Request().Context(), clients)
	if err != nil {
		return nil, errors.Wrap(err, "scoring clients")
	}
	out := make([]clientRead, 0, len(clients))
	for _, c := range clients {
		out = append(out, clientRead{Client: c, HealthScore: scores[c.ID]})
	}
	return out, nil
}

func (s *Server) clientResponse(ctx echo.Context, code int, c client.Client) error {
	reads, err := s.withHealth(ctx, c)
	if err != nil {
		return err
	}
	return ctx.JSON(code, reads[0])
}

// Handlers

func (s *Server) queryClients(ctx echo.Context) error {
	clients, _, err := s.visibleClients(ctx)
	if err != nil {
		return err
	}
	reads, err := s.withHealth(ctx, clients...)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, reads)
}

func (s *Server) clientOptions(ctx echo.Context) error {
	_, opts, err := s.visibleClients(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, opts)
}

func (s *Server) createClient(ctx echo.Context) error {
	var data client.NewClient
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClient")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		return err
	}

	c, err := s.deps.ClientSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating client")
	}
	return s.clientResponse(ctx, http.StatusCreated, c)
}

func (s *Server) retrieveClient(ctx echo.Context) error {
	c, err := objectClient(ctx)
	if err != nil {
		return err
	}
	return s.clientResponse(ctx, http.StatusOK, c)
}

func (s *Server) updateClient(ctx echo.Context) error {
	c, err := objectClient(ctx)
	if err != nil {
		return err
	}

	var data client.UpdateClient
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClient")
	}
	if err = data.Validate(s.deps.Validate); err != nil {
		return err
	}

	c, err = s.deps.ClientSvc.Update(ctx.Request().Context(), c, data)
	if err != nil {
		return errors.Wrap(err, "updating client")
	}
	return s.clientResponse(ctx, http.StatusOK, c)
}

func (s *Server) destroyClient(ctx echo.Context) error {
	c, err := objectClient(ctx)
	if err != nil {
		return err
	}
	if err = s.deps.ClientSvc.Delete(ctx.Request().Context(), c.ID); err != nil {
		return errors.Wrap(err, "deleting client")
	}
	return ctx.NoContent(http.StatusNoContent)
}
