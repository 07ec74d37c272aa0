package process

import (
	"context"
	"errors"
	"time"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
)

var (
	// errors
	ErrAreaNotFound   = errors.New("process area not found")
	ErrAreaExists     = errors.New("a process area with this name already exists")
	ErrSurveyNotFound = errors.New("process survey not found")
)

type (
	Repository interface {
		CreateArea(ctx context.Context, a Area) (Area, error)
		QueryAllAreas(ctx context.Context) ([]Area, error)
		GetAreaByID(ctx context.Context, id string) (Area, error)
		DeleteAreasByID(ctx context.Context, ids ...string) error

		CreateSurvey(ctx context.Context, s Survey) (Survey, error)
		FilterSurveys(ctx context.Context, filter QueryFilter) ([]Survey, error)
		GetSurveyByID(ctx context.Context, id string) (Survey, error)
		UpdateSurvey(ctx context.Context, s Survey) (Survey, error)
		DeleteSurveysByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CreateArea(ctx context.Context, na NewArea) (Area, error) {
	now := time.Now().UTC()
	a, err := svc.repo.CreateArea(ctx, Area{
		ID:        core.NewID(),
		Name:      na.Name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return a, core.AsFieldError(err, ErrAreaExists, "name")
}

func (svc *Service) QueryAreas(ctx context.Context) ([]Area, error) {
	return svc.repo.QueryAllAreas(ctx)
}

func (svc *Service) GetArea(ctx context.Context, id string) (Area, error) {
	return svc.repo.GetAreaByID(ctx, id)
}

func (svc *Service) DeleteAreas(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteAreasByID(ctx, ids...)
}

func (svc *Service) CreateSurvey(ctx context.Context, ns NewSurvey) (Survey, error) {
	now := time.Now().UTC()
	s, err := svc.repo.CreateSurvey(ctx, Survey{
		ID:         core.NewID(),
		AreaID:     ns.AreaID,
		Status:     ns.Status,
		Mapping:    core.ClampPercent(ns.Mapping),
		Procedures: core.ClampPercent(ns.Procedures),
		Controls:   core.ClampPercent(ns.Controls),
		Evidence:   core.ClampPercent(ns.Evidence),
		SurveyedAt: ns.SurveyedAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	return s, core.AsFieldError(err, ErrAreaNotFound, "area_id")
}

func (svc *Service) QuerySurveys(ctx context.Context, filter QueryFilter) ([]Survey, error) {
	return svc.repo.FilterSurveys(ctx, filter)
}

func (svc *Service) GetSurvey(ctx context.Context, id string) (Survey, error) {
	return svc.repo.GetSurveyByID(ctx, id)
}

func (svc *Service) UpdateSurvey(ctx context.Context, orig Survey, us UpdateSurvey) (Survey, error) {
	s := us.Apply(orig)
	s.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSurvey(ctx, s)
}

func (svc *Service) DeleteSurveys(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteSurveysByID(ctx, ids...)
}
