package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/client"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/nps"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/user"
)

var (
	acme    = client.Client{ID: "c1", Name: "Acme", OwnerID: "ana", ManagementGroup: "Retail"}
	globex  = client.Client{ID: "c2", Name: "Globex", OwnerID: "bob", ManagementGroup: "Retail"}
	initech = client.Client{ID: "c3", Name: "Initech", OwnerID: "ana", ManagementGroup: "Banking"}
	umbrela = client.Client{ID: "c4", Name: "Umbrella", OwnerID: "carla", ManagementGroup: "Health"}

	allClients = []client.Client{acme, globex, initech, umbrela}

	admin = &UserContext{Role: user.RoleAdmin}
)

func names(clients []client.Client) []string {
	out := make([]string, 0, len(clients))
	for _, c := range clients {
		out = append(out, c.Name)
	}
	return out
}

func TestByPermission(t *testing.T) {
	tests := []struct {
		name string
		uc   *UserContext
		want []client.Client
	}{
		{name: "no context", uc: nil, want: allClients},
		{name: "admin", uc: admin, want: allClients},
		{name: "admin ignores assignments", uc: &UserContext{Role: user.RoleAdmin, AssignedClients: []string{"c1"}}, want: allClients},
		{name: "user without assignments", uc: &UserContext{Role: user.RoleUser}, want: []client.Client{}},
		{name: "user with assignments", uc: &UserContext{Role: user.RoleUser, AssignedClients: []string{"c3", "c1", "unknown"}}, want: []client.Client{acme, initech}},
		{name: "unknown role is not admin", uc: &UserContext{Role: "root", AssignedClients: []string{"c2"}}, want: []client.Client{globex}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ByPermission(allClients, tt.uc))
		})
	}

	t.Run("empty input", func(t *testing.T) {
		got := ByPermission([]client.Client{}, &UserContext{Role: user.RoleUser, AssignedClients: []string{"c1"}})
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestBySelection(t *testing.T) {
	tests := []struct {
		name string
		sel  Selection
		want []string
	}{
		{name: "zero selection", sel: Selection{}, want: []string{"Acme", "Globex", "Initech", "Umbrella"}},
		{name: "all everywhere", sel: Selection{ClientID: All, OwnerID: All, Group: All}, want: []string{"Acme", "Globex", "Initech", "Umbrella"}},
		{name: "by client", sel: Selection{ClientID: "c2"}, want: []string{"Globex"}},
		{name: "by owner", sel: Selection{OwnerID: "ana"}, want: []string{"Acme", "Initech"}},
		{name: "by group", sel: Selection{Group: "Retail"}, want: []string{"Acme", "Globex"}},
		{name: "owner and group", sel: Selection{OwnerID: "ana", Group: "Retail"}, want: []string{"Acme"}},
		{name: "disjoint filters", sel: Selection{ClientID: "c2", OwnerID: "ana"}, want: []string{}},
		{name: "unknown value", sel: Selection{Group: "Mining"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(BySelection(allClients, tt.sel)))
		})
	}

	t.Run("AND is commutative", func(t *testing.T) {
		both := BySelection(allClients, Selection{ClientID: "c1", OwnerID: "ana"})
		clientThenOwner := BySelection(BySelection(allClients, Selection{ClientID: "c1"}), Selection{OwnerID: "ana"})
		ownerThenClient := BySelection(BySelection(allClients, Selection{OwnerID: "ana"}), Selection{ClientID: "c1"})
		assert.Equal(t, both, clientThenOwner)
		assert.Equal(t, both, ownerThenClient)
	})
}

func TestAvailableOptions(t *testing.T) {
	withBlank := append([]client.Client{{ID: "c5"}}, allClients...)

	assert.Equal(t, []string{"ana", "bob", "carla"}, AvailableOwners(withBlank))
	assert.Equal(t, []string{"Retail", "Banking", "Health"}, AvailableGroups(withBlank))
	assert.Equal(t, []string{}, AvailableOwners([]client.Client{}))
	assert.True(t, Contains([]string{"a", "b"}, "b"))
	assert.False(t, Contains(nil, "b"))
}

func TestReconcile(t *testing.T) {
	restricted := ByPermission(allClients, &UserContext{Role: user.RoleUser, AssignedClients: []string{"c1", "c3"}})

	tests := []struct {
		name    string
		clients []client.Client
		sel     Selection
		want    Options
	}{
		{
			name:    "defaults to all",
			clients: allClients,
			want: Options{
				Selection: Selection{ClientID: All, OwnerID: All, Group: All},
				Clients:   []string{"c1", "c2", "c3", "c4"},
				Owners:    []string{"ana", "bob", "carla"},
				Groups:    []string{"Retail", "Banking", "Health"},
			},
		},
		{
			name:    "group narrows owners and clients",
			clients: allClients,
			sel:     Selection{Group: "Retail", OwnerID: "bob"},
			want: Options{
				Selection: Selection{ClientID: All, OwnerID: "bob", Group: "Retail"},
				Clients:   []string{"c2"},
				Owners:    []string{"ana", "bob"},
				Groups:    []string{"Retail", "Banking", "Health"},
			},
		},
		{
			name:    "owner outside the group is reset",
			clients: allClients,
			sel:     Selection{Group: "Health", OwnerID: "ana", ClientID: "c1"},
			want: Options{
				Selection: Selection{ClientID: All, OwnerID: All, Group: "Health"},
				Clients:   []string{"c4"},
				Owners:    []string{"carla"},
				Groups:    []string{"Retail", "Banking", "Health"},
			},
		},
		{
			name:    "permission scope hides other owners and groups",
			clients: restricted,
			sel:     Selection{OwnerID: "bob", Group: "Health", ClientID: "c2"},
			want: Options{
				Selection: Selection{ClientID: All, OwnerID: All, Group: All},
				Clients:   []string{"c1", "c3"},
				Owners:    []string{"ana"},
				Groups:    []string{"Retail", "Banking"},
			},
		},
		{
			name:    "nothing visible",
			clients: []client.Client{},
			sel:     Selection{ClientID: "c1"},
			want: Options{
				Selection: Selection{ClientID: All, OwnerID: All, Group: All},
				Clients:   []string{},
				Owners:    []string{},
				Groups:    []string{},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reconcile(tt.clients, tt.sel))
		})
	}
}

func TestFilter(t *testing.T) {
	t.Run("user with no assignments sees nothing", func(t *testing.T) {
		got, opts := Filter(allClients, &UserContext{Role: user.RoleUser}, Selection{})
		assert.Len(t, got, 0)
		assert.Empty(t, opts.Owners)
	})

	t.Run("selection cannot escape the permission scope", func(t *testing.T) {
		uc := &UserContext{Role: user.RoleUser, AssignedClients: []string{"c1"}}
		got, opts := Filter(allClients, uc, Selection{ClientID: "c2"})
		assert.Equal(t, []string{"Acme"}, names(got))
		assert.Equal(t, All, opts.Selection.ClientID)
	})

	t.Run("admin selection", func(t *testing.T) {
		got, _ := Filter(allClients, admin, Selection{OwnerID: "ana"})
		assert.Equal(t, []string{"Acme", "Initech"}, names(got))
	})
}

func TestRecordsForClients(t *testing.T) {
	responses := []nps.Response{{ID: "r1", ClientID: "c1"}, {ID: "r2", ClientID: "c2"}, {ID: "r3", ClientID: "c1"}}

	got := RecordsForClients(responses, []client.Client{acme})
	assert.Equal(t, []nps.Response{responses[0], responses[2]}, got)
	assert.Empty(t, RecordsForClients(responses, []client.Client{}))
}

func TestUserContext(t *testing.T) {
	uc := NewUserContext(user.User{Role: user.RoleUser, ClientIDs: []string{"c1"}})
	assert.False(t, uc.IsAdmin())
	assert.True(t, uc.CanSee("c1"))
	assert.False(t, uc.CanSee("c2"))

	var none *UserContext
	assert.True(t, none.CanSee("c2"))
	assert.True(t, admin.CanSee("c2"))
}
