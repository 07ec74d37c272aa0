package process

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/status"
)

// Area is a business area whose processes get documented.
type Area struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Survey is an area-scoped process documentation assessment. It is not tied to a client.
type Survey struct {
	ID         string        `json:"id"`
	AreaID     string        `json:"area_id"`
	Status     status.Status `json:"status"`
	Mapping    int           `json:"mapping"`
	Procedures int           `json:"procedures"`
	Controls   int           `json:"controls"`
	Evidence   int           `json:"evidence"`
	SurveyedAt time.Time     `json:"surveyed_at"` // UTC
	CreatedAt  time.Time     `json:"created_at"`  // UTC
	UpdatedAt  time.Time     `json:"updated_at"`  // UTC
}

// SubScores returns mapping, procedures, controls and evidence in that order.
func (s Survey) SubScores() [4]int {
	return [4]int{s.Mapping, s.Procedures, s.Controls, s.Evidence}
}

type NewArea struct {
	Name string `json:"name" validate:"required,notblank"`
}

func (na *NewArea) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	return validate.Struct(na)
}

type NewSurvey struct {
	AreaID     string        `json:"area_id" validate:"required,uuid"`
	Status     status.Status `json:"status" validate:"omitempty,techstatus"`
	Mapping    int           `json:"mapping" validate:"percent"`
	Procedures int           `json:"procedures" validate:"percent"`
	Controls   int           `json:"controls" validate:"percent"`
	Evidence   int           `json:"evidence" validate:"percent"`
	SurveyedAt time.Time     `json:"surveyed_at"`
}

func (ns *NewSurvey) Validate(validate *validator.Validate) error {
	if ns.Status == "" {
		ns.Status = status.NotStarted
	}
	if ns.SurveyedAt.IsZero() {
		ns.SurveyedAt = time.Now()
	}
	ns.SurveyedAt = ns.SurveyedAt.UTC()
	return validate.Struct(ns)
}

// UpdateSurvey leaves nil fields untouched.
type UpdateSurvey struct {
	Status     *status.Status `json:"status" validate:"omitempty,techstatus"`
	Mapping    *int           `json:"mapping" validate:"omitempty,percent"`
	Procedures *int           `json:"procedures" validate:"omitempty,percent"`
	Controls   *int           `json:"controls" validate:"omitempty,percent"`
	Evidence   *int           `json:"evidence" validate:"omitempty,percent"`
}

func (us *UpdateSurvey) Validate(validate *validator.Validate) error {
	return validate.Struct(us)
}

func (us UpdateSurvey) Apply(s Survey) Survey {
	set := func(dst *int, v *int) {
		if v != nil {
			*dst = core.ClampPercent(*v)
		}
	}
	if us.Status != nil {
		s.Status = *us.Status
	}
	set(&s.Mapping, us.Mapping)
	set(&s.Procedures, us.Procedures)
	set(&s.Controls, us.Controls)
	set(&s.Evidence, us.Evidence)
	return s
}

type QueryFilter struct {
	AreaID string
}
