package scope

import "github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"

// Selection is the client / owner / management group chosen in the UI. Empty or All skips a dimension.
type Selection struct {
	ClientID string `json:"client" query:"client"`
	OwnerID  string `json:"owner" query:"owner"`
	Group    string `json:"group" query:"group"`
}

// Options are the values a selection may take, derived from permission-visible clients.
type Options struct {
	Selection Selection `json:"selection"`
	Clients   []string  `json:"clients"`
	Owners    []string  `json:"owners"`
	Groups    []string  `json:"groups"`
}

func isSet(v string) bool {
	return v != "" && v != All
}

// Normalize replaces empty dimensions with All.
func (sel Selection) Normalize() Selection {
	if !isSet(sel.ClientID) {
		sel.ClientID = All
	}
	if !isSet(sel.OwnerID) {
		sel.OwnerID = All
	}
	if !isSet(sel.Group) {
		sel.Group = All
	}
	return sel
}

// BySelection AND-combines the client, owner and group equality filters of sel.
func BySelection[C Scoped](clients []C, sel Selection) []C {
	out := make([]C, 0, len(clients))
	for _, c := range clients {
		if isSet(sel.ClientID) && c.ScopeClientID() != sel.ClientID {
			continue
		}
		if isSet(sel.OwnerID) && c.ScopeOwnerID() != sel.OwnerID {
			continue
		}
		if isSet(sel.Group) && c.ScopeGroup() != sel.Group {
			continue
		}
		out = append(out, c)
	}
	return out
}

func distinct[C Scoped](clients []C, value func(C) string) []string {
	seen := make(map[string]struct{}, len(clients))
	out := make([]string, 0)
	for _, c := range clients {
		v := value(c)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// AvailableOwners lists the distinct owner ids of clients, in first-seen order.
func AvailableOwners[C Scoped](clients []C) []string {
	return distinct(clients, func(c C) string { return c.ScopeOwnerID() })
}

// AvailableGroups lists the distinct management groups of clients, in first-seen order.
func AvailableGroups[C Scoped](clients []C) []string {
	return distinct(clients, func(c C) string { return c.ScopeGroup() })
}

// Contains reports whether v is one of values.
func Contains(values []string, v string) bool {
	return core.StringInSlice(v, values)
}

// Reconcile resets every selected dimension that is no longer available to All, and returns the options
// the selection was checked against. clients must already be permission-filtered.
// Groups come from every visible client; owners and clients are narrowed by the group filter.
func Reconcile[C Scoped](clients []C, sel Selection) Options {
	sel = sel.Normalize()

	groups := AvailableGroups(clients)
	if isSet(sel.Group) && !Contains(groups, sel.Group) {
		sel.Group = All
	}

	inGroup := BySelection(clients, Selection{Group: sel.Group})
	owners := AvailableOwners(inGroup)
	if isSet(sel.OwnerID) && !Contains(owners, sel.OwnerID) {
		sel.OwnerID = All
	}

	candidates := IDs(BySelection(inGroup, Selection{OwnerID: sel.OwnerID}))
	if isSet(sel.ClientID) && !Contains(candidates, sel.ClientID) {
		sel.ClientID = All
	}

	return Options{
		Selection: sel,
		Clients:   candidates,
		Owners:    owners,
		Groups:    groups,
	}
}

// Filter applies the permission scope of uc, reconciles sel against what remains and applies it.
func Filter[C Scoped](clients []C, uc *UserContext, sel Selection) ([]C, Options) {
	visible := ByPermission(clients, uc)
	opts := Reconcile(visible, sel)
	return BySelection(visible, opts.Selection), opts
}
