package client

import (
	"context"
	"errors"
	"time"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
)

var (
	// errors
	ErrNotFound      = errors.New("client not found")
	ErrNameExists    = errors.New("a client with this name already exists")
	ErrOwnerNotFound = errors.New("owner not found")
)

type (
	Repository interface {
		CreateClient(ctx context.Context, c Client) (Client, error)
		QueryAllClients(ctx context.Context, ordering ...core.DBOrdering) ([]Client, error)
		GetClientByID(ctx context.Context, id string) (Client, error)
		UpdateClient(ctx context.Context, c Client) (Client, error)
		DeleteClientsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNameExists):
		return core.AsFieldError(err, ErrNameExists, "name")
	case errors.Is(err, ErrOwnerNotFound):
		return core.AsFieldError(err, ErrOwnerNotFound, "owner_id")
	}
	return err
}

func (svc *Service) Create(ctx context.Context, nc NewClient) (Client, error) {
	now := time.Now().UTC()
	c, err := svc.repo.CreateClient(ctx, Client{
		ID:              core.NewID(),
		Name:            nc.Name,
		ManagementGroup: nc.ManagementGroup,
		OwnerID:         nc.OwnerID,
		Headcount:       nc.Headcount,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	return c, svc.mapErr(err)
}

func (svc *Service) QueryAll(ctx context.Context, ordering ...core.DBOrdering) ([]Client, error) {
	return svc.repo.QueryAllClients(ctx, ordering...)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Client, error) {
	return svc.repo.GetClientByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, orig Client, uc UpdateClient) (Client, error) {
	c := uc.Apply(orig)
	c.UpdatedAt = time.Now().UTC()
	c, err := svc.repo.UpdateClient(ctx, c)
	return c, svc.mapErr(err)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteClientsByID(ctx, ids...)
}
