package tech

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/status"
)

// Platform is a technology product rolled out to clients.
type Platform struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Implementation tracks the rollout of a Platform for a client.
type Implementation struct {
	ID         string        `json:"id"`
	ClientID   string        `json:"client_id"`
	PlatformID string        `json:"platform_id"`
	Status     status.Status `json:"status"`
	Progress   int           `json:"progress"`
	TargetDate *core.Date    `json:"target_date"`
	Notes      string        `json:"notes"`
	CreatedAt  time.Time     `json:"created_at"` // UTC
	UpdatedAt  time.Time     `json:"updated_at"` // UTC
}

func (i Implementation) ProgressStatus() status.Status { return i.Status }
func (i Implementation) ProgressPercent() int          { return i.Progress }
func (i Implementation) Due() *core.Date               { return i.TargetDate }
func (i Implementation) ScopeClientID() string         { return i.ClientID }

type NewPlatform struct {
	Name     string `json:"name" validate:"required,notblank"`
	Category string `json:"category"`
}

func (np *NewPlatform) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	np.Category = core.CleanString(np.Category)
	return validate.Struct(np)
}

type UpdatePlatform struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

func (up *UpdatePlatform) Validate(orig Platform, validate *validator.Validate) error {
	if name := core.CleanString(up.Name); name != "" {
		up.Name = name
	} else {
		up.Name = orig.Name
	}
	if cat := core.CleanString(up.Category); cat != "" {
		up.Category = cat
	} else {
		up.Category = orig.Category
	}
	return validate.Struct(up)
}

type NewImplementation struct {
	ClientID   string        `json:"client_id" validate:"required,uuid"`
	PlatformID string        `json:"platform_id" validate:"required,uuid"`
	Status     status.Status `json:"status" validate:"omitempty,techstatus"`
	Progress   int           `json:"progress" validate:"percent"`
	TargetDate *core.Date    `json:"target_date"`
	Notes      string        `json:"notes"`
}

func (ni *NewImplementation) Validate(validate *validator.Validate) error {
	ni.Notes = core.CleanString(ni.Notes)
	if ni.Status == "" {
		ni.Status = status.NotStarted
	}
	return validate.Struct(ni)
}

// UpdateImplementation defines what may be changed on an existing Implementation.
// Nil fields are left untouched.
type UpdateImplementation struct {
	Status     *status.Status `json:"status" validate:"omitempty,techstatus"`
	Progress   *int           `json:"progress" validate:"omitempty,percent"`
	TargetDate *core.Date     `json:"target_date"`
	ClearDate  bool           `json:"clear_target_date"`
	Notes      *string        `json:"notes"`
}

func (ui *UpdateImplementation) Validate(validate *validator.Validate) error {
	if ui.Notes != nil {
		notes := core.CleanString(*ui.Notes)
		ui.Notes = &notes
	}
	return validate.Struct(ui)
}

// Apply returns a copy of impl with the update applied.
func (ui UpdateImplementation) Apply(impl Implementation) Implementation {
	if ui.Status != nil {
		impl.Status = *ui.Status
	}
	if ui.Progress != nil {
		impl.Progress = core.ClampPercent(*ui.Progress)
	}
	if ui.ClearDate {
		impl.TargetDate = nil
	} else if ui.TargetDate != nil {
		impl.TargetDate = ui.TargetDate
	}
	if ui.Notes != nil {
		impl.Notes = *ui.Notes
	}
	return impl
}

// QueryFilter narrows implementations. A nil ClientIDs means any client; an empty one matches nothing.
type QueryFilter struct {
	ClientIDs  []string
	PlatformID string
	Statuses   []status.Status
}
