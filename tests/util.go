package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/bi"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/client"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/nps"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/process"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/status"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/tech"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/user"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/storage/database"
)

// PrepareDB returns a migrated in-memory sqlite database, closed when the test ends.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	isActive bool,
	clientIDs ...string,
) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		ID:        core.NewID(),
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		ClientIDs: clientIDs,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateClient(t *testing.T, repo client.Repository, name, group, ownerID string, headcount int) client.Client {
	t.Helper()
	now := time.Now().UTC()
	c, err := repo.CreateClient(context.Background(), client.Client{
		ID:              core.NewID(),
		Name:            name,
		ManagementGroup: group,
		OwnerID:         ownerID,
		Headcount:       headcount,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("CreateClient() failed: %v", err)
	}
	return c
}

func CreatePlatform(t *testing.T, repo tech.Repository, name string) tech.Platform {
	t.Helper()
	now := time.Now().UTC()
	p, err := repo.CreatePlatform(context.Background(), tech.Platform{ID: core.NewID(), Name: name, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("CreatePlatform() failed: %v", err)
	}
	return p
}

func CreateImplementation(
	t *testing.T,
	repo tech.Repository,
	clientID, platformID string,
	st status.Status,
	progress int,
	target *core.Date,
) tech.Implementation {
	t.Helper()
	now := time.Now().UTC()
	impl, err := repo.CreateImplementation(context.Background(), tech.Implementation{
		ID:         core.NewID(),
		ClientID:   clientID,
		PlatformID: platformID,
		Status:     st,
		Progress:   progress,
		TargetDate: target,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateImplementation() failed: %v", err)
	}
	return impl
}

func CreatePanel(t *testing.T, repo bi.Repository, name string) bi.Panel {
	t.Helper()
	now := time.Now().UTC()
	p, err := repo.CreatePanel(context.Background(), bi.Panel{ID: core.NewID(), Name: name, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("CreatePanel() failed: %v", err)
	}
	return p
}

func CreateClientPanel(
	t *testing.T,
	repo bi.Repository,
	clientID, panelID string,
	st status.Status,
	progress int,
	target *core.Date,
) bi.ClientPanel {
	t.Helper()
	now := time.Now().UTC()
	cp, err := repo.CreateClientPanel(context.Background(), bi.ClientPanel{
		ID:         core.NewID(),
		ClientID:   clientID,
		PanelID:    panelID,
		Status:     st,
		Progress:   progress,
		TargetDate: target,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateClientPanel() failed: %v", err)
	}
	return cp
}

func CreateArea(t *testing.T, repo process.Repository, name string) process.Area {
	t.Helper()
	now := time.Now().UTC()
	a, err := repo.CreateArea(context.Background(), process.Area{ID: core.NewID(), Name: name, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("CreateArea() failed: %v", err)
	}
	return a
}

func CreateSurvey(t *testing.T, repo process.Repository, areaID string, mapping, procedures, controls, evidence int) process.Survey {
	t.Helper()
	now := time.Now().UTC()
	s, err := repo.CreateSurvey(context.Background(), process.Survey{
		ID:         core.NewID(),
		AreaID:     areaID,
		Status:     status.InProgress,
		Mapping:    mapping,
		Procedures: procedures,
		Controls:   controls,
		Evidence:   evidence,
		SurveyedAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateSurvey() failed: %v", err)
	}
	return s
}

func CreateNPSResponse(t *testing.T, repo nps.Repository, clientID string, score int, respondedAt time.Time) nps.Response {
	t.Helper()
	r, err := repo.CreateResponse(context.Background(), nps.Response{
		ID:          core.NewID(),
		ClientID:    clientID,
		Score:       score,
		RespondedAt: respondedAt.UTC(),
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateNPSResponse() failed: %v", err)
	}
	return r
}

// DatePtr is a shorthand for a *core.Date literal.
func DatePtr(year int, month time.Month, day int) *core.Date {
	d := core.NewDate(year, month, day)
	return &d
}
