package client

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
)

// Client is a corporate client. Its health score is derived on read and never stored.
type Client struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	ManagementGroup string    `json:"management_group"`
	OwnerID         string    `json:"owner_id"`
	Headcount       int       `json:"headcount"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

func (c Client) ScopeClientID() string { return c.ID }
func (c Client) ScopeOwnerID() string  { return c.OwnerID }
func (c Client) ScopeGroup() string    { return c.ManagementGroup }

// NewClient contains information needed to create a new Client.
type NewClient struct {
	Name            string `json:"name" validate:"required,notblank"`
	ManagementGroup string `json:"management_group"`
	OwnerID         string `json:"owner_id" validate:"omitempty,uuid"`
	Headcount       int    `json:"headcount" validate:"min=0"`
}

func (nc *NewClient) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.ManagementGroup = core.CleanString(nc.ManagementGroup)
	nc.OwnerID = core.CleanString(nc.OwnerID)
	return validate.Struct(nc)
}

// UpdateClient defines what information may be provided to modify an existing Client.
type UpdateClient struct {
	Name            string  `json:"name"`
	ManagementGroup *string `json:"management_group"`
	OwnerID         *string `json:"owner_id" validate:"omitempty,uuid|eq="`
	Headcount       *int    `json:"headcount" validate:"omitempty,min=0"`
}

func (uc *UpdateClient) Validate(validate *validator.Validate) error {
	uc.Name = core.CleanString(uc.Name)
	if uc.ManagementGroup != nil {
		group := core.CleanString(*uc.ManagementGroup)
		uc.ManagementGroup = &group
	}
	if uc.OwnerID != nil {
		owner := core.CleanString(*uc.OwnerID)
		uc.OwnerID = &owner
	}
	return validate.Struct(uc)
}

func (uc UpdateClient) Apply(c Client) Client {
	if uc.Name != "" {
		c.Name = uc.Name
	}
	if uc.ManagementGroup != nil {
		c.ManagementGroup = *uc.ManagementGroup
	}
	if uc.OwnerID != nil {
		c.OwnerID = *uc.OwnerID
	}
	if uc.Headcount != nil {
		c.Headcount = *uc.Headcount
	}
	return c
}
