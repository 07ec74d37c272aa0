package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/user"
)

var errUsrNotFoundInCtx = errors.New("user object not found in echo.Context")

func (s *Server) registerUserAPI(g *echo.Group) {
	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/login", s.login)

	// authed endpoints
	ag := ug.Group("", s.jwt)
	ag.POST("/token-refresh", s.tokenRefresh)
	ag.GET("/me", s.me)
	ag.GET("/roles", s.queryRoles, s.adminMiddleware)
	ag.GET("", s.queryUsers, s.adminMiddleware)
	ag.POST("", s.createUser, s.adminMiddleware)

	// detail endpoints
	dg := ag.Group("/:id", s.adminMiddleware, s.userObjectMiddleware)
	dg.GET("", s.retrieveUser)
	dg.PUT("", s.updateUser)
	dg.DELETE("", s.destroyUser)
	dg.PUT("/clients", s.assignUserClients)
}

func (s *Server) userObjectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := s.deps.UserSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding user by ID")
		}
		ctx.Set(objectKey, usr)
		return next(ctx)
	}
}

func objectUser(ctx echo.Context) (user.User, error) {
	usr, ok := ctx.Get(objectKey).(user.User)
	if !ok {
		return user.User{}, errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}
	return usr, nil
}

// Handlers

func (s *Server) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err := s.deps.Validate.Struct(data); err != nil {
		return err
	}

	claims, err := s.authenticate(ctx, data.Email, data.Password)
	if err != nil {
		return err
	}
	token, err := GenerateToken(s.deps.Conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (s *Server) tokenRefresh(ctx echo.Context) error {
	token, err := s.refreshToken(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (s *Server) me(ctx echo.Context) error {
	usr, err := s.getContextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (s *Server) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Roles)
}

func (s *Server) queryUsers(ctx echo.Context) error {
	filter := user.QueryFilter{
		Search: ctx.QueryParam("search"),
		Role:   ctx.QueryParam("role"),
	}
	if v := ctx.QueryParam("is_active"); v != "" {
		isActive, err := strconv.ParseBool(v)
		if err != nil {
			return core.NewFieldError("is_active", err)
		}
		filter.IsActive = &isActive
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	users, err := s.deps.UserSvc.Filter(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (s *Server) createUser(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(ctx.Request().Context(), s.deps.Validate, s.deps.UserSvc); err != nil {
		return err
	}

	usr, err := s.deps.UserSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (s *Server) retrieveUser(ctx echo.Context) error {
	usr, err := objectUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (s *Server) updateUser(ctx echo.Context) error {
	usr, err := objectUser(ctx)
	if err != nil {
		return err
	}

	var data user.UpdateUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err = data.Validate(ctx.Request().Context(), usr, s.deps.Validate, s.deps.UserSvc); err != nil {
		return err
	}

	// admins cannot lock themselves out
	ctxUsr, err := s.getContextUser(ctx)
	if err != nil {
		return err
	}
	if usr.ID == ctxUsr.ID && (data.Role != user.RoleAdmin || (data.IsActive != nil && !*data.IsActive)) {
		return errHttpForbidden
	}

	usr, err = s.deps.UserSvc.Update(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (s *Server) destroyUser(ctx echo.Context) error {
	usr, err := objectUser(ctx)
	if err != nil {
		return err
	}

	// Say No to Suicide! ctxUser cannot delete themselves
	ctxUsr, err := s.getContextUser(ctx)
	if err != nil {
		return err
	}
	if usr.ID == ctxUsr.ID {
		return errHttpForbidden
	}

	if err = s.deps.UserSvc.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (s *Server) assignUserClients(ctx echo.Context) error {
	usr, err := objectUser(ctx)
	if err != nil {
		return err
	}

	var data user.AssignClients
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignClients")
	}
	if err = data.Validate(s.deps.Validate); err != nil {
		return err
	}

	usr, err = s.deps.UserSvc.AssignClients(ctx.Request().Context(), usr, data.ClientIDs...)
	if err != nil {
		return errors.Wrap(err, "assigning clients")
	}
	return ctx.JSON(http.StatusOK, usr)
}
