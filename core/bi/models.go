package bi

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/status"
)

// Panel is a BI dashboard from the catalog.
type Panel struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// ClientPanel is the delivery of a Panel to a client. It is never DEPRECATED.
type ClientPanel struct {
	ID         string        `json:"id"`
	ClientID   string        `json:"client_id"`
	PanelID    string        `json:"panel_id"`
	Status     status.Status `json:"status"`
	Progress   int           `json:"progress"`
	TargetDate *core.Date    `json:"target_date"`
	CreatedAt  time.Time     `json:"created_at"` // UTC
	UpdatedAt  time.Time     `json:"updated_at"` // UTC
}

func (cp ClientPanel) ProgressStatus() status.Status { return cp.Status }
func (cp ClientPanel) ProgressPercent() int          { return cp.Progress }
func (cp ClientPanel) Due() *core.Date               { return cp.TargetDate }
func (cp ClientPanel) ScopeClientID() string         { return cp.ClientID }

type NewPanel struct {
	Name        string `json:"name" validate:"required,notblank"`
	Description string `json:"description"`
}

func (np *NewPanel) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	np.Description = core.CleanString(np.Description)
	return validate.Struct(np)
}

type UpdatePanel struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (up *UpdatePanel) Validate(orig Panel, validate *validator.Validate) error {
	if name := core.CleanString(up.Name); name != "" {
		up.Name = name
	} else {
		up.Name = orig.Name
	}
	if up.Description == nil {
		up.Description = &orig.Description
	} else {
		desc := core.CleanString(*up.Description)
		up.Description = &desc
	}
	return validate.Struct(up)
}

type NewClientPanel struct {
	ClientID   string        `json:"client_id" validate:"required,uuid"`
	PanelID    string        `json:"panel_id" validate:"required,uuid"`
	Status     status.Status `json:"status" validate:"omitempty,bistatus"`
	Progress   int           `json:"progress" validate:"percent"`
	TargetDate *core.Date    `json:"target_date"`
}

func (ncp *NewClientPanel) Validate(validate *validator.Validate) error {
	if ncp.Status == "" {
		ncp.Status = status.NotStarted
	}
	return validate.Struct(ncp)
}

// UpdateClientPanel leaves nil fields untouched.
type UpdateClientPanel struct {
	Status     *status.Status `json:"status" validate:"omitempty,bistatus"`
	Progress   *int           `json:"progress" validate:"omitempty,percent"`
	TargetDate *core.Date     `json:"target_date"`
	ClearDate  bool           `json:"clear_target_date"`
}

func (ucp *UpdateClientPanel) Validate(validate *validator.Validate) error {
	return validate.Struct(ucp)
}

func (ucp UpdateClientPanel) Apply(cp ClientPanel) ClientPanel {
	if ucp.Status != nil {
		cp.Status = *ucp.Status
	}
	if ucp.Progress != nil {
		cp.Progress = core.ClampPercent(*ucp.Progress)
	}
	if ucp.ClearDate {
		cp.TargetDate = nil
	} else if ucp.TargetDate != nil {
		cp.TargetDate = ucp.TargetDate
	}
	return cp
}

// QueryFilter narrows client panels. A nil ClientIDs means any client; an empty one matches nothing.
type QueryFilter struct {
	ClientIDs []string
	PanelID   string
	Statuses  []status.Status
}
