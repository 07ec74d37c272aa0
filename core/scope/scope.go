// Package scope narrows client-scoped records to what a user may see and to the current UI selection.
// Permission filtering always runs before selection filtering, so selection options never leak
// owners or groups of clients the user cannot see.
package scope

import (
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/user"
)

// All is the selection sentinel meaning "do not filter on this dimension".
const All = "all"

type (
	// ClientScoped is any record that belongs to one client.
	ClientScoped interface {
		ScopeClientID() string
	}

	// Scoped is a client-like record that can be filtered by owner and management group.
	Scoped interface {
		ClientScoped
		ScopeOwnerID() string
		ScopeGroup() string
	}
)

// UserContext is the resolved permission context of the acting user.
type UserContext struct {
	Role            string
	AssignedClients []string // ignored for admins
}

func NewUserContext(usr user.User) *UserContext {
	ids := make([]string, len(usr.ClientIDs))
	copy(ids, usr.ClientIDs)
	return &UserContext{Role: usr.Role, AssignedClients: ids}
}

func (uc *UserContext) IsAdmin() bool {
	return uc.Role == user.RoleAdmin
}

// CanSee reports whether the user may see records of the given client. A nil context sees everything.
func (uc *UserContext) CanSee(clientID string) bool {
	if uc == nil || uc.IsAdmin() {
		return true
	}
	for _, id := range uc.AssignedClients {
		if id == clientID {
			return true
		}
	}
	return false
}

// ByPermission returns the clients uc may see. A nil uc (trusted internal use) and admins see every client.
// A non-admin with no assigned clients sees nothing.
func ByPermission[C ClientScoped](clients []C, uc *UserContext) []C {
	if uc == nil || uc.IsAdmin() {
		return clients
	}
	assigned := make(map[string]struct{}, len(uc.AssignedClients))
	for _, id := range uc.AssignedClients {
		assigned[id] = struct{}{}
	}
	out := make([]C, 0, len(clients))
	for _, c := range clients {
		if _, ok := assigned[c.ScopeClientID()]; ok {
			out = append(out, c)
		}
	}
	return out
}

// RecordsForClients keeps the records that belong to one of clients.
func RecordsForClients[R ClientScoped, C ClientScoped](records []R, clients []C) []R {
	ids := make(map[string]struct{}, len(clients))
	for _, c := range clients {
		ids[c.ScopeClientID()] = struct{}{}
	}
	out := make([]R, 0, len(records))
	for _, r := range records {
		if _, ok := ids[r.ScopeClientID()]; ok {
			out = append(out, r)
		}
	}
	return out
}

// IDs returns the client ids of records, in order.
func IDs[C ClientScoped](clients []C) []string {
	ids := make([]string, 0, len(clients))
	for _, c := range clients {
		ids = append(ids, c.ScopeClientID())
	}
	return ids
}
