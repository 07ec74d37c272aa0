package bi

import (
	"context"
	"errors"
	"time"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
)

var (
	// errors
	ErrPanelNotFound       = errors.New("BI panel not found")
	ErrPanelExists         = errors.New("a BI panel with this name already exists")
	ErrClientPanelNotFound = errors.New("client panel not found")
	ErrClientPanelExists   = errors.New("this panel is already tracked for this client")
)

type (
	Repository interface {
		CreatePanel(ctx context.Context, p Panel) (Panel, error)
		QueryAllPanels(ctx context.Context, ordering ...core.DBOrdering) ([]Panel, error)
		GetPanelByID(ctx context.Context, id string) (Panel, error)
		UpdatePanel(ctx context.Context, p Panel) (Panel, error)
		DeletePanelsByID(ctx context.Context, ids ...string) error

		CreateClientPanel(ctx context.Context, cp ClientPanel) (ClientPanel, error)
		FilterClientPanels(ctx context.Context, filter QueryFilter) ([]ClientPanel, error)
		GetClientPanelByID(ctx context.Context, id string) (ClientPanel, error)
		UpdateClientPanel(ctx context.Context, cp ClientPanel) (ClientPanel, error)
		DeleteClientPanelsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CreatePanel(ctx context.Context, np NewPanel) (Panel, error) {
	now := time.Now().UTC()
	p := Panel{
		ID:          core.NewID(),
		Name:        np.Name,
		Description: np.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	p, err := svc.repo.CreatePanel(ctx, p)
	return p, core.AsFieldError(err, ErrPanelExists, "name")
}

func (svc *Service) QueryPanels(ctx context.Context, ordering ...core.DBOrdering) ([]Panel, error) {
	return svc.repo.QueryAllPanels(ctx, ordering...)
}

func (svc *Service) GetPanel(ctx context.Context, id string) (Panel, error) {
	return svc.repo.GetPanelByID(ctx, id)
}

func (svc *Service) UpdatePanel(ctx context.Context, orig Panel, up UpdatePanel) (Panel, error) {
	orig.Name = up.Name
	if up.Description != nil {
		orig.Description = *up.Description
	}
	orig.UpdatedAt = time.Now().UTC()
	p, err := svc.repo.UpdatePanel(ctx, orig)
	return p, core.AsFieldError(err, ErrPanelExists, "name")
}

func (svc *Service) DeletePanels(ctx context.Context, ids ...string) error {
	return svc.repo.DeletePanelsByID(ctx, ids...)
}

func (svc *Service) CreateClientPanel(ctx context.Context, ncp NewClientPanel) (ClientPanel, error) {
	now := time.Now().UTC()
	cp := ClientPanel{
		ID:         core.NewID(),
		ClientID:   ncp.ClientID,
		PanelID:    ncp.PanelID,
		Status:     ncp.Status,
		Progress:   core.ClampPercent(ncp.Progress),
		TargetDate: ncp.TargetDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	cp, err := svc.repo.CreateClientPanel(ctx, cp)
	return cp, core.AsFieldError(err, ErrClientPanelExists, "panel_id")
}

func (svc *Service) FilterClientPanels(ctx context.Context, filter QueryFilter) ([]ClientPanel, error) {
	if filter.ClientIDs != nil && len(filter.ClientIDs) == 0 {
		return []ClientPanel{}, nil
	}
	return svc.repo.FilterClientPanels(ctx, filter)
}

func (svc *Service) GetClientPanel(ctx context.Context, id string) (ClientPanel, error) {
	return svc.repo.GetClientPanelByID(ctx, id)
}

func (svc *Service) UpdateClientPanel(ctx context.Context, orig ClientPanel, ucp UpdateClientPanel) (ClientPanel, error) {
	cp := ucp.Apply(orig)
	cp.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClientPanel(ctx, cp)
}

func (svc *Service) DeleteClientPanels(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteClientPanelsByID(ctx, ids...)
}
