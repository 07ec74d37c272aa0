package echoapi

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/status"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads `?ordering=name,-headcount`. Unknown fields are dropped by the repositories.
func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// queryList returns the comma separated and repeated values of a query param, or nil when absent.
func queryList(ctx echo.Context, name string) []string {
	var out []string
	for _, v := range ctx.QueryParams()[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func queryStatuses(ctx echo.Context) []status.Status {
	var out []status.Status
	for _, v := range queryList(ctx, "status") {
		out = append(out, status.Status(strings.ToUpper(v)))
	}
	return out
}

// queryTime accepts RFC 3339 timestamps or plain dates (UTC midnight).
func queryTime(ctx echo.Context, name string) (time.Time, error) {
	val := strings.TrimSpace(ctx.QueryParam(name))
	if val == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t.UTC(), nil
	}
	d, err := core.ParseDate(val)
	if err != nil {
		return time.Time{}, core.NewFieldError(name, err)
	}
	return d.Time, nil
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}
)
