package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/bi"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/client"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/nps"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/process"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/status"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/tech"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/user"
	testutil "github.com/Chrissalvo1985/monitor-gestion-integral-sub000/tests"
)

var ctx = context.Background()

func TestUserRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	users := NewUserRepository(db)
	clients := NewClientRepository(db)

	acme := testutil.CreateClient(t, clients, "Acme", "Retail", "", 10)
	globex := testutil.CreateClient(t, clients, "Globex", "Retail", "", 20)

	ana := testutil.CreateUser(t, users, "Ana", "ana@example.com", "Sup3rS3cr3t!", user.RoleUser, true, globex.ID, acme.ID, acme.ID)
	bob := testutil.CreateUser(t, users, "Bob", "bob@example.com", "", user.RoleAdmin, false)

	t.Run("create keeps assignments", func(t *testing.T) {
		assert.ElementsMatch(t, []string{acme.ID, globex.ID}, ana.ClientIDs)
		assert.Equal(t, []string{}, bob.ClientIDs)
		assert.NoError(t, ana.CheckPassword("Sup3rS3cr3t!"))
	})

	t.Run("email uniqueness", func(t *testing.T) {
		assert.Equal(t, user.ErrEmailExists, users.CheckEmailUniqueness(ctx, "ana@example.com"))
		assert.NoError(t, users.CheckEmailUniqueness(ctx, "ana@example.com", ana))
		assert.NoError(t, users.CheckEmailUniqueness(ctx, "carla@example.com"))

		dup := ana
		dup.ID = core.NewID()
		_, err := users.CreateUser(ctx, dup)
		assert.Equal(t, user.ErrEmailExists, err)
	})

	t.Run("unknown client", func(t *testing.T) {
		_, err := users.CreateUser(ctx, user.User{ID: core.NewID(), Name: "X", Email: "x@example.com", Role: user.RoleUser, ClientIDs: []string{"nope"}})
		assert.Equal(t, user.ErrClientNotFound, err)
		_, err = users.GetUserByEmail(ctx, "x@example.com")
		assert.Equal(t, user.ErrNotFound, err, "the failed insert must be rolled back")
	})

	t.Run("filter", func(t *testing.T) {
		active := true
		tests := []struct {
			name   string
			filter user.QueryFilter
			want   []string
		}{
			{name: "all", filter: user.QueryFilter{}, want: []string{"Ana", "Bob"}},
			{name: "search", filter: user.QueryFilter{Search: "BOB"}, want: []string{"Bob"}},
			{name: "search email", filter: user.QueryFilter{Search: "ana@"}, want: []string{"Ana"}},
			{name: "role", filter: user.QueryFilter{Role: user.RoleAdmin}, want: []string{"Bob"}},
			{name: "active", filter: user.QueryFilter{IsActive: &active}, want: []string{"Ana"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := users.FilterUsers(ctx, tt.filter)
				require.NoError(t, err)
				names := make([]string, 0, len(got))
				for _, u := range got {
					names = append(names, u.Name)
				}
				assert.Equal(t, tt.want, names)
			})
		}

		got, err := users.FilterUsers(ctx, user.QueryFilter{}, core.DBOrdering{Field: "name"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Bob", got[0].Name)
		assert.ElementsMatch(t, []string{acme.ID, globex.ID}, got[1].ClientIDs)
	})

	t.Run("update", func(t *testing.T) {
		upd := bob
		upd.Name = "Robert"
		upd.IsActive = true
		got, err := users.UpdateUser(ctx, upd)
		require.NoError(t, err)
		assert.Equal(t, "Robert", got.Name)
		assert.True(t, got.IsActive)

		upd.Email = ana.Email
		_, err = users.UpdateUser(ctx, upd)
		assert.Equal(t, user.ErrEmailExists, err)

		_, err = users.UpdateUser(ctx, user.User{ID: core.NewID(), Email: "ghost@example.com"})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("set clients", func(t *testing.T) {
		require.NoError(t, users.SetUserClients(ctx, ana.ID, acme.ID))
		got, err := users.GetUserByID(ctx, ana.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{acme.ID}, got.ClientIDs)

		assert.Equal(t, user.ErrClientNotFound, users.SetUserClients(ctx, ana.ID, "nope"))
		got, _ = users.GetUserByID(ctx, ana.ID)
		assert.Equal(t, []string{acme.ID}, got.ClientIDs, "the failed assignment must be rolled back")

		assert.Equal(t, user.ErrNotFound, users.SetUserClients(ctx, core.NewID()))

		require.NoError(t, users.SetUserClients(ctx, ana.ID))
		got, _ = users.GetUserByID(ctx, ana.ID)
		assert.Equal(t, []string{}, got.ClientIDs)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, users.DeleteUsersByID(ctx, ana.ID, bob.ID))
		require.NoError(t, users.DeleteUsersByID(ctx))
		_, err := users.GetUserByID(ctx, ana.ID)
		assert.Equal(t, user.ErrNotFound, err)
	})
}

func TestClientRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	users := NewUserRepository(db)
	clients := NewClientRepository(db)

	owner := testutil.CreateUser(t, users, "Ana", "ana@example.com", "", user.RoleUser, true)
	initech := testutil.CreateClient(t, clients, "Initech", "Banking", owner.ID, 300)
	acme := testutil.CreateClient(t, clients, "Acme", "Retail", "", 10)

	t.Run("create", func(t *testing.T) {
		assert.Equal(t, owner.ID, initech.OwnerID)
		assert.Equal(t, "", acme.OwnerID)

		_, err := clients.CreateClient(ctx, client.Client{ID: core.NewID(), Name: "Acme"})
		assert.Equal(t, client.ErrNameExists, err)

		_, err = clients.CreateClient(ctx, client.Client{ID: core.NewID(), Name: "Hooli", OwnerID: core.NewID()})
		assert.Equal(t, client.ErrOwnerNotFound, err)
	})

	t.Run("query ordering", func(t *testing.T) {
		got, err := clients.QueryAllClients(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Acme", got[0].Name)

		got, err = clients.QueryAllClients(ctx, core.DBOrdering{Field: "headcount"}, core.DBOrdering{Field: "1; DROP TABLE clients"})
		require.NoError(t, err)
		assert.Equal(t, "Initech", got[0].Name)
	})

	t.Run("update", func(t *testing.T) {
		upd := acme
		upd.OwnerID = owner.ID
		upd.Headcount = 12
		got, err := clients.UpdateClient(ctx, upd)
		require.NoError(t, err)
		assert.Equal(t, owner.ID, got.OwnerID)
		assert.Equal(t, 12, got.Headcount)

		upd.Name = "Initech"
		_, err = clients.UpdateClient(ctx, upd)
		assert.Equal(t, client.ErrNameExists, err)

		_, err = clients.UpdateClient(ctx, client.Client{ID: core.NewID(), Name: "Ghost"})
		assert.Equal(t, client.ErrNotFound, err)
	})

	t.Run("owner removal clears ownership", func(t *testing.T) {
		require.NoError(t, users.DeleteUsersByID(ctx, owner.ID))
		got, err := clients.GetClientByID(ctx, initech.ID)
		require.NoError(t, err)
		assert.Equal(t, "", got.OwnerID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, clients.DeleteClientsByID(ctx, acme.ID))
		_, err := clients.GetClientByID(ctx, acme.ID)
		assert.Equal(t, client.ErrNotFound, err)
	})
}

func TestTechRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	clients := NewClientRepository(db)
	techs := NewTechRepository(db)

	acme := testutil.CreateClient(t, clients, "Acme", "Retail", "", 0)
	globex := testutil.CreateClient(t, clients, "Globex", "Retail", "", 0)
	erp := testutil.CreatePlatform(t, techs, "ERP")
	crm := testutil.CreatePlatform(t, techs, "CRM")

	due := testutil.DatePtr(2026, time.March, 31)
	impl := testutil.CreateImplementation(t, techs, acme.ID, erp.ID, status.InProgress, 40, due)
	testutil.CreateImplementation(t, techs, acme.ID, crm.ID, status.Blocked, 10, nil)
	testutil.CreateImplementation(t, techs, globex.ID, erp.ID, status.Implemented, 100, nil)

	t.Run("platforms", func(t *testing.T) {
		_, err := techs.CreatePlatform(ctx, tech.Platform{ID: core.NewID(), Name: "ERP"})
		assert.Equal(t, tech.ErrPlatformExists, err)

		got, err := techs.QueryAllPlatforms(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "CRM", got[0].Name)

		upd := crm
		upd.Category = "sales"
		p, err := techs.UpdatePlatform(ctx, upd)
		require.NoError(t, err)
		assert.Equal(t, "sales", p.Category)

		upd.Name = "ERP"
		_, err = techs.UpdatePlatform(ctx, upd)
		assert.Equal(t, tech.ErrPlatformExists, err)

		_, err = techs.GetPlatformByID(ctx, core.NewID())
		assert.Equal(t, tech.ErrPlatformNotFound, err)
	})

	t.Run("target date round trip", func(t *testing.T) {
		got, err := techs.GetImplementationByID(ctx, impl.ID)
		require.NoError(t, err)
		require.NotNil(t, got.TargetDate)
		assert.Equal(t, "2026-03-31", got.TargetDate.String())
		assert.Equal(t, status.InProgress, got.Status)
		assert.Equal(t, 40, got.Progress)
	})

	t.Run("one implementation per client and platform", func(t *testing.T) {
		_, err := techs.CreateImplementation(ctx, tech.Implementation{
			ID: core.NewID(), ClientID: acme.ID, PlatformID: erp.ID, Status: status.Planned,
		})
		assert.Equal(t, tech.ErrImplementationExists, err)
	})

	t.Run("filter", func(t *testing.T) {
		tests := []struct {
			name   string
			filter tech.QueryFilter
			want   int
		}{
			{name: "any client", filter: tech.QueryFilter{}, want: 3},
			{name: "no client", filter: tech.QueryFilter{ClientIDs: []string{}}, want: 0},
			{name: "by client", filter: tech.QueryFilter{ClientIDs: []string{acme.ID}}, want: 2},
			{name: "by platform", filter: tech.QueryFilter{PlatformID: erp.ID}, want: 2},
			{name: "by status", filter: tech.QueryFilter{Statuses: []status.Status{status.Blocked, status.Implemented}}, want: 2},
			{name: "combined", filter: tech.QueryFilter{ClientIDs: []string{acme.ID, globex.ID}, PlatformID: crm.ID}, want: 1},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := techs.FilterImplementations(ctx, tt.filter)
				require.NoError(t, err)
				assert.Len(t, got, tt.want)
				assert.NotNil(t, got)
			})
		}
	})

	t.Run("update clears date", func(t *testing.T) {
		upd := impl
		upd.TargetDate = nil
		upd.Status = status.Implemented
		upd.Progress = 100
		_, err := techs.UpdateImplementation(ctx, upd)
		require.NoError(t, err)

		got, err := techs.GetImplementationByID(ctx, impl.ID)
		require.NoError(t, err)
		assert.Nil(t, got.TargetDate)
		assert.Equal(t, status.Implemented, got.Status)

		_, err = techs.UpdateImplementation(ctx, tech.Implementation{ID: core.NewID()})
		assert.Equal(t, tech.ErrImplementationNotFound, err)
	})

	t.Run("client removal cascades", func(t *testing.T) {
		require.NoError(t, clients.DeleteClientsByID(ctx, acme.ID))
		got, err := techs.FilterImplementations(ctx, tech.QueryFilter{})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}

func TestBIRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	clients := NewClientRepository(db)
	bis := NewBIRepository(db)

	acme := testutil.CreateClient(t, clients, "Acme", "Retail", "", 0)
	sales := testutil.CreatePanel(t, bis, "Sales")
	cp := testutil.CreateClientPanel(t, bis, acme.ID, sales.ID, status.Planned, 0, testutil.DatePtr(2026, time.January, 15))

	_, err := bis.CreatePanel(ctx, bi.Panel{ID: core.NewID(), Name: "Sales"})
	assert.Equal(t, bi.ErrPanelExists, err)

	_, err = bis.CreateClientPanel(ctx, bi.ClientPanel{ID: core.NewID(), ClientID: acme.ID, PanelID: sales.ID, Status: status.Planned})
	assert.Equal(t, bi.ErrClientPanelExists, err)

	upd := sales
	upd.Description = "monthly sales"
	p, err := bis.UpdatePanel(ctx, upd)
	require.NoError(t, err)
	assert.Equal(t, "monthly sales", p.Description)

	got, err := bis.GetClientPanelByID(ctx, cp.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-15", got.TargetDate.String())

	got.Status = status.InProgress
	got.Progress = 50
	_, err = bis.UpdateClientPanel(ctx, got)
	require.NoError(t, err)

	list, err := bis.FilterClientPanels(ctx, bi.QueryFilter{ClientIDs: []string{acme.ID}, Statuses: []status.Status{status.InProgress}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 50, list[0].Progress)

	require.NoError(t, bis.DeletePanelsByID(ctx, sales.ID))
	_, err = bis.GetClientPanelByID(ctx, cp.ID)
	assert.Equal(t, bi.ErrClientPanelNotFound, err, "panel removal cascades")
}

func TestProcessRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	procs := NewProcessRepository(db)

	finance := testutil.CreateArea(t, procs, "Finance")
	hr := testutil.CreateArea(t, procs, "HR")
	s := testutil.CreateSurvey(t, procs, finance.ID, 100, 50, 50, 0)
	testutil.CreateSurvey(t, procs, hr.ID, 10, 10, 10, 10)

	_, err := procs.CreateArea(ctx, process.Area{ID: core.NewID(), Name: "HR"})
	assert.Equal(t, process.ErrAreaExists, err)

	_, err = procs.CreateSurvey(ctx, process.Survey{ID: core.NewID(), AreaID: core.NewID(), Status: status.Planned})
	assert.Equal(t, process.ErrAreaNotFound, err)

	areas, err := procs.QueryAllAreas(ctx)
	require.NoError(t, err)
	assert.Len(t, areas, 2)

	all, err := procs.FilterSurveys(ctx, process.QueryFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := procs.FilterSurveys(ctx, process.QueryFilter{AreaID: finance.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, [4]int{100, 50, 50, 0}, mine[0].SubScores())

	s.Evidence = 80
	_, err = procs.UpdateSurvey(ctx, s)
	require.NoError(t, err)
	got, err := procs.GetSurveyByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, got.Evidence)

	require.NoError(t, procs.DeleteAreasByID(ctx, finance.ID))
	_, err = procs.GetSurveyByID(ctx, s.ID)
	assert.Equal(t, process.ErrSurveyNotFound, err)
}

func TestNPSRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	clients := NewClientRepository(db)
	responses := NewNPSRepository(db)

	acme := testutil.CreateClient(t, clients, "Acme", "Retail", "", 0)
	globex := testutil.CreateClient(t, clients, "Globex", "Retail", "", 0)

	jan := time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)
	feb := time.Date(2026, time.February, 10, 12, 0, 0, 0, time.UTC)
	r1 := testutil.CreateNPSResponse(t, responses, acme.ID, 10, jan)
	testutil.CreateNPSResponse(t, responses, acme.ID, 3, feb)
	testutil.CreateNPSResponse(t, responses, globex.ID, 8, feb)

	tests := []struct {
		name   string
		filter nps.QueryFilter
		want   int
	}{
		{name: "all", filter: nps.QueryFilter{}, want: 3},
		{name: "none", filter: nps.QueryFilter{ClientIDs: []string{}}, want: 0},
		{name: "client", filter: nps.QueryFilter{ClientIDs: []string{acme.ID}}, want: 2},
		{name: "from", filter: nps.QueryFilter{From: feb}, want: 2},
		{name: "to", filter: nps.QueryFilter{To: jan}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := responses.FilterResponses(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	got, err := responses.GetResponseByID(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Score)
	assert.True(t, got.RespondedAt.Equal(jan))

	require.NoError(t, responses.DeleteResponsesByID(ctx, r1.ID))
	_, err = responses.GetResponseByID(ctx, r1.ID)
	assert.Equal(t, nps.ErrNotFound, err)
}
