package nps

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
)

var ErrNotFound = errors.New("NPS response not found")

// Response is one client satisfaction answer on the 0..10 scale.
type Response struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id"`
	Score       int       `json:"score"`
	Comment     string    `json:"comment"`
	RespondedAt time.Time `json:"responded_at"` // UTC
	CreatedAt   time.Time `json:"created_at"`   // UTC
}

func (r Response) ScopeClientID() string { return r.ClientID }

func (r Response) IsPromoter() bool  { return r.Score >= 9 }
func (r Response) IsDetractor() bool { return r.Score <= 6 }

// Score is the Net Promoter Score of responses: % promoters (9-10) minus % detractors (0-6), rounded half up.
// It ranges from -100 to 100 and is 0 without responses.
func Score(responses []Response) int {
	if len(responses) == 0 {
		return 0
	}
	var promoters, detractors int
	for _, r := range responses {
		switch {
		case r.IsPromoter():
			promoters++
		case r.IsDetractor():
			detractors++
		}
	}
	num, den := (promoters-detractors)*100, len(responses)
	return int(math.Floor(float64(2*num+den) / float64(2*den)))
}

type NewResponse struct {
	ClientID    string    `json:"client_id" validate:"required,uuid"`
	Score       int       `json:"score" validate:"min=0,max=10"`
	Comment     string    `json:"comment"`
	RespondedAt time.Time `json:"responded_at"`
}

func (nr *NewResponse) Validate(validate *validator.Validate) error {
	nr.Comment = core.CleanString(nr.Comment)
	if nr.RespondedAt.IsZero() {
		nr.RespondedAt = time.Now()
	}
	nr.RespondedAt = nr.RespondedAt.UTC()
	return validate.Struct(nr)
}

// QueryFilter narrows responses. A nil ClientIDs means any client; an empty one matches nothing.
type QueryFilter struct {
	ClientIDs []string
	From      time.Time
	To        time.Time
}

type (
	Repository interface {
		CreateResponse(ctx context.Context, r Response) (Response, error)
		FilterResponses(ctx context.Context, filter QueryFilter) ([]Response, error)
		GetResponseByID(ctx context.Context, id string) (Response, error)
		DeleteResponsesByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nr NewResponse) (Response, error) {
	return svc.repo.CreateResponse(ctx, Response{
		ID:          core.NewID(),
		ClientID:    nr.ClientID,
		Score:       nr.Score,
		Comment:     nr.Comment,
		RespondedAt: nr.RespondedAt,
		CreatedAt:   time.Now().UTC(),
	})
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Response, error) {
	if filter.ClientIDs != nil && len(filter.ClientIDs) == 0 {
		return []Response{}, nil
	}
	return svc.repo.FilterResponses(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Response, error) {
	return svc.repo.GetResponseByID(ctx, id)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteResponsesByID(ctx, ids...)
}
