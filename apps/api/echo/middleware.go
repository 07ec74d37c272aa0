package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/client"
)

const objectKey = "object"

func (s *Server) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := s.getContextUser(ctx)
		if err != nil {
			return err
		}
		if usr.IsAdmin() {
			return next(ctx)
		}
		return errHttpForbidden
	}
}

// scopedClientIDs resolves the clients a list endpoint may return: the `client_id` query param when
// visible, every client for admins (nil) and the assigned clients otherwise.
func (s *Server) scopedClientIDs(ctx echo.Context) ([]string, error) {
	uc, err := s.userContext(ctx)
	if err != nil {
		return nil, err
	}
	if id := ctx.QueryParam("client_id"); id != "" {
		if !uc.CanSee(id) {
			return nil, errHttpNotFound
		}
		return []string{id}, nil
	}
	if uc.IsAdmin() {
		return nil, nil
	}
	ids := make([]string, len(uc.AssignedClients))
	copy(ids, uc.AssignedClients)
	return ids, nil
}

// checkClient verifies that a client referenced by a write exists and is visible to the user.
func (s *Server) checkClient(ctx echo.Context, clientID string) error {
	uc, err := s.userContext(ctx)
	if err != nil {
		return err
	}
	if !uc.CanSee(clientID) {
		return core.NewFieldError("client_id", client.ErrNotFound)
	}
	if _, err = s.deps.ClientSvc.GetByID(ctx.Request().Context(), clientID); err != nil {
		if errors.Cause(err) == client.ErrNotFound {
			return core.NewFieldError("client_id", client.ErrNotFound)
		}
		return errors.Wrap(err, "finding client by ID")
	}
	return nil
}

// canSeeRecord answers 404 for records of clients outside the user's scope.
func (s *Server) canSeeRecord(ctx echo.Context, clientID string) error {
	uc, err := s.userContext(ctx)
	if err != nil {
		return err
	}
	if !uc.CanSee(clientID) {
		return errHttpNotFound
	}
	return nil
}

// lookupErr reports missing records as a plain 404.
func lookupErr(err error, msg string) error {
	if isNotFound(err) {
		return errHttpNotFound
	}
	return errors.Wrap(err, msg)
}
