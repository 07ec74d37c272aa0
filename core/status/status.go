// Package status holds the rollout status shared by tech implementations, BI panels and process surveys.
package status

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
)

type Status string

const (
	NotStarted  Status = "NOT_STARTED"
	Planned     Status = "PLANNED"
	InProgress  Status = "IN_PROGRESS"
	Implemented Status = "IMPLEMENTED"
	Blocked     Status = "BLOCKED"
	Deprecated  Status = "DEPRECATED"
)

var (
	TechStatuses = []Status{NotStarted, Planned, InProgress, Implemented, Blocked, Deprecated}
	BIStatuses   = []Status{NotStarted, Planned, InProgress, Implemented, Blocked}

	techStatusTag  = "techstatus"
	techStatusText = "{0} must be one of NOT_STARTED, PLANNED, IN_PROGRESS, IMPLEMENTED, BLOCKED, DEPRECATED"

	biStatusTag  = "bistatus"
	biStatusText = "{0} must be one of NOT_STARTED, PLANNED, IN_PROGRESS, IMPLEMENTED, BLOCKED"
)

// In reports whether s is one of statuses.
func (s Status) In(statuses ...Status) bool {
	for _, st := range statuses {
		if s == st {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(techStatusTag, statusValidation(TechStatuses))
	core.RegisterCustomTranslation(validate, translator, techStatusTag, techStatusText)

	_ = validate.RegisterValidation(biStatusTag, statusValidation(BIStatuses))
	core.RegisterCustomTranslation(validate, translator, biStatusTag, biStatusText)
}

func statusValidation(allowed []Status) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).In(allowed...)
	}
}
