package tech

import (
	"context"
	"errors"
	"time"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
)

var (
	// errors
	ErrPlatformNotFound       = errors.New("platform not found")
	ErrPlatformExists         = errors.New("a platform with this name already exists")
	ErrImplementationNotFound = errors.New("tech implementation not found")
	ErrImplementationExists   = errors.New("this platform is already tracked for this client")
)

type (
	Repository interface {
		CreatePlatform(ctx context.Context, p Platform) (Platform, error)
		QueryAllPlatforms(ctx context.Context, ordering ...core.DBOrdering) ([]Platform, error)
		GetPlatformByID(ctx context.Context, id string) (Platform, error)
		UpdatePlatform(ctx context.Context, p Platform) (Platform, error)
		DeletePlatformsByID(ctx context.Context, ids ...string) error

		CreateImplementation(ctx context.Context, impl Implementation) (Implementation, error)
		FilterImplementations(ctx context.Context, filter QueryFilter) ([]Implementation, error)
		GetImplementationByID(ctx context.Context, id string) (Implementation, error)
		UpdateImplementation(ctx context.Context, impl Implementation) (Implementation, error)
		DeleteImplementationsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CreatePlatform(ctx context.Context, np NewPlatform) (Platform, error) {
	now := time.Now().UTC()
	p := Platform{
		ID:        core.NewID(),
		Name:      np.Name,
		Category:  np.Category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p, err := svc.repo.CreatePlatform(ctx, p)
	return p, core.AsFieldError(err, ErrPlatformExists, "name")
}

func (svc *Service) QueryPlatforms(ctx context.Context, ordering ...core.DBOrdering) ([]Platform, error) {
	return svc.repo.QueryAllPlatforms(ctx, ordering...)
}

func (svc *Service) GetPlatform(ctx context.Context, id string) (Platform, error) {
	return svc.repo.GetPlatformByID(ctx, id)
}

func (svc *Service) UpdatePlatform(ctx context.Context, orig Platform, up UpdatePlatform) (Platform, error) {
	orig.Name = up.Name
	orig.Category = up.Category
	orig.UpdatedAt = time.Now().UTC()
	p, err := svc.repo.UpdatePlatform(ctx, orig)
	return p, core.AsFieldError(err, ErrPlatformExists, "name")
}

func (svc *Service) DeletePlatforms(ctx context.Context, ids ...string) error {
	return svc.repo.DeletePlatformsByID(ctx, ids...)
}

func (svc *Service) CreateImplementation(ctx context.Context, ni NewImplementation) (Implementation, error) {
	now := time.Now().UTC()
	impl := Implementation{
		ID:         core.NewID(),
		ClientID:   ni.ClientID,
		PlatformID: ni.PlatformID,
		Status:     ni.Status,
		Progress:   core.ClampPercent(ni.Progress),
		TargetDate: ni.TargetDate,
		Notes:      ni.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	impl, err := svc.repo.CreateImplementation(ctx, impl)
	return impl, core.AsFieldError(err, ErrImplementationExists, "platform_id")
}

func (svc *Service) FilterImplementations(ctx context.Context, filter QueryFilter) ([]Implementation, error) {
	if filter.ClientIDs != nil && len(filter.ClientIDs) == 0 {
		return []Implementation{}, nil
	}
	return svc.repo.FilterImplementations(ctx, filter)
}

func (svc *Service) GetImplementation(ctx context.Context, id string) (Implementation, error) {
	return svc.repo.GetImplementationByID(ctx, id)
}

func (svc *Service) UpdateImplementation(ctx context.Context, orig Implementation, ui UpdateImplementation) (Implementation, error) {
	impl := ui.Apply(orig)
	impl.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateImplementation(ctx, impl)
}

func (svc *Service) DeleteImplementations(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteImplementationsByID(ctx, ids...)
}
