package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/bi"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/client"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/dashboard"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/nps"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/process"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/status"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/tech"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/user"
	appfs "github.com/Chrissalvo1985/monitor-gestion-integral-sub000/fs"
	emailsvc "github.com/Chrissalvo1985/monitor-gestion-integral-sub000/services/email"
	logsvc "github.com/Chrissalvo1985/monitor-gestion-integral-sub000/services/logger"
	sqlxrepos "github.com/Chrissalvo1985/monitor-gestion-integral-sub000/storage/database/sqlx"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/tests"
)

const strongPassword = "N3w!Passw0rd"

type fixture struct {
	cli        *commandLine
	out        *bytes.Buffer
	mail       *emailsvc.ConsoleServiceMock
	usrRepo    user.Repository
	clientRepo client.Repository
	techRepo   tech.Repository
	biRepo     bi.Repository
}

func setup(t *testing.T) *fixture {
	t.Helper()
	color.NoColor = true

	db := testutil.PrepareDB(t)
	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	core.ParseEmailTemplates(appfs.EmailTemplates(), conf, logger)

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	status.InitValidators(validate, translator)

	f := &fixture{
		out:        new(bytes.Buffer),
		mail:       emailsvc.NewConsoleServiceMock(conf, logger),
		usrRepo:    sqlxrepos.NewUserRepository(db),
		clientRepo: sqlxrepos.NewClientRepository(db),
		techRepo:   sqlxrepos.NewTechRepository(db),
		biRepo:     sqlxrepos.NewBIRepository(db),
	}
	usrSvc := user.NewService(f.usrRepo)
	clientSvc := client.NewService(f.clientRepo)
	techSvc := tech.NewService(f.techRepo)
	biSvc := bi.NewService(f.biRepo)
	processSvc := process.NewService(sqlxrepos.NewProcessRepository(db))

	f.cli = &commandLine{
		db:         db,
		validate:   validate,
		usrSvc:     usrSvc,
		clientSvc:  clientSvc,
		techSvc:    techSvc,
		biSvc:      biSvc,
		processSvc: processSvc,
		dashboardSvc: dashboard.NewService(dashboard.Deps{
			ClientSvc:  clientSvc,
			TechSvc:    techSvc,
			BISvc:      biSvc,
			ProcessSvc: processSvc,
			NPSSvc:     nps.NewService(sqlxrepos.NewNPSRepository(db)),
			UserSvc:    usrSvc,
			MailSvc:    f.mail,
			Logger:     logger,
		}),
		out: f.out,
	}
	return f
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), tt.wantErrStr)
		}
	default:
		assert.NoError(t, err)
	}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func Test_commandLine_root(t *testing.T) {
	f := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErrStr: `unknown command "lol"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, f.cli.run(append([]string{"admin"}, tt.args...)))
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	f := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "rollout_notes", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, f.cli.run(append([]string{"admin"}, tt.args...)))
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	existing := testutil.CreateUser(t, f.usrRepo, "Ana", "ana@test.cd", "Old!Passw0rd", user.RoleUser, false)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"adduser", "--email", "new@test.cd"}, wantErr: errHelp},
		{name: "weak password", args: []string{"adduser", "-e", "new@test.cd"}, extra: extra{pwd: "12345678"}, wantErrStr: "password cannot be entirely numeric"},
		{name: "create", args: []string{"adduser", "-e", " NEW@test.cd", "-n", "Newbie", "--admin"}, extra: extra{pwd: strongPassword}},
		{name: "update", args: []string{"adduser", "--email", "ana@test.cd"}, extra: extra{pwd: strongPassword}},
	}
	for _, tt := range tests {
		pwd := ""
		if e, ok := tt.extra.(extra); ok {
			pwd = e.pwd
		}
		mockPassword(pwd)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, f.cli.run(append([]string{"admin"}, tt.args...)))
		})
	}

	created, err := f.usrRepo.GetUserByEmail(ctx, "new@test.cd")
	require.NoError(t, err)
	assert.Equal(t, "Newbie", created.Name)
	assert.True(t, created.IsAdmin())
	assert.True(t, created.IsActive)
	assert.NoError(t, created.CheckPassword(strongPassword))

	updated, err := f.usrRepo.GetUserByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsActive)
	assert.Equal(t, user.RoleUser, updated.Role)
	assert.NoError(t, updated.CheckPassword(strongPassword))
}

func Test_commandLine_resetPassword(t *testing.T) {
	f := setup(t)
	usr := testutil.CreateUser(t, f.usrRepo, "User", "awe@test.cd", "Old!Passw0rd", user.RoleUser, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "--email", "lol@test.cd"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "--email", "lol@test.cd"}, extra: extra{pwd: strongPassword}, wantErr: user.ErrNotFound},
		{name: "weak password", args: []string{"resetpassword", "--email", usr.Email}, extra: extra{pwd: "short"}, wantErrStr: "at least 8 characters"},
		{name: "reset", args: []string{"resetpassword", "-e", "AWE@test.cd"}, extra: extra{pwd: strongPassword}},
	}
	for _, tt := range tests {
		pwd := ""
		if e, ok := tt.extra.(extra); ok {
			pwd = e.pwd
		}
		mockPassword(pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := f.cli.run(append([]string{"admin"}, tt.args...))
			tt.check(t, err)
			if err != nil {
				return
			}
			refreshed, err := f.usrRepo.GetUserByID(context.Background(), usr.ID)
			require.NoError(t, err)
			assert.False(t, bytes.Equal(refreshed.PasswordHash, usr.PasswordHash), "password was not updated")
			assert.NoError(t, refreshed.CheckPassword(pwd))
		})
	}
}

const seedYAML = `
platforms:
  - name: CRM
    category: sales
  - name: ERP
panels:
  - name: Sales
    description: Monthly sales
areas:
  - name: Finance
clients:
  - name: Acme
    management_group: Retail
    owner_email: ana@test.cd
    headcount: 100
    tech:
      - name: CRM
        status: implemented
        progress: 100
      - name: ERP
        status: in_progress
        progress: 40
        target_date: 2030-06-30
    bi:
      - name: Sales
        status: planned
        progress: 10
  - name: Globex
    management_group: Industry
    headcount: 50
surveys:
  - area: Finance
    mapping: 80
    procedures: 60
    controls: 40
    evidence: 20
`

func writeSeed(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func Test_commandLine_seed(t *testing.T) {
	f := setup(t)
	ana := testutil.CreateUser(t, f.usrRepo, "Ana", "ana@test.cd", strongPassword, user.RoleUser, true)
	path := writeSeed(t, seedYAML)

	tests := []cliTest{
		{name: "no file", args: []string{"seed"}, wantErr: errHelp},
		{name: "missing file", args: []string{"seed", "-f", filepath.Join(t.TempDir(), "nope.yaml")}, wantErrStr: "reading seed file"},
		{name: "invalid yaml", args: []string{"seed", "-f", writeSeed(t, "clients: [")}, wantErrStr: "parsing seed file"},
		{name: "unknown platform", args: []string{"seed", "-f", writeSeed(t, "clients:\n  - name: Initech\n    tech:\n      - name: SAP\n")}, wantErrStr: `unknown platform "SAP"`},
		{name: "invalid status", args: []string{"seed", "-f", writeSeed(t, "platforms:\n  - name: CRM\nclients:\n  - name: Hooli\n    tech:\n      - name: CRM\n        status: done\n")}, wantErrStr: "implementation of \"CRM\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, f.cli.run(append([]string{"admin"}, tt.args...)))
		})
	}

	// earlier failures may have left Initech and Hooli behind; only the seeded records are checked
	f.out.Reset()
	require.NoError(t, f.cli.run([]string{"admin", "seed", "-f", path}))
	assert.Contains(t, f.out.String(), "2 clients, 2 implementations, 1 client panels, 1 surveys")

	clients, err := f.clientRepo.QueryAllClients(context.Background())
	require.NoError(t, err)
	byName := make(map[string]client.Client)
	for _, c := range clients {
		byName[c.Name] = c
	}
	require.Contains(t, byName, "Acme")
	assert.Equal(t, ana.ID, byName["Acme"].OwnerID)
	assert.Equal(t, "", byName["Globex"].OwnerID)

	impls, err := f.techRepo.FilterImplementations(context.Background(), tech.QueryFilter{ClientIDs: []string{byName["Acme"].ID}})
	require.NoError(t, err)
	require.Len(t, impls, 2)
	statuses := []status.Status{impls[0].Status, impls[1].Status}
	assert.ElementsMatch(t, []status.Status{status.Implemented, status.InProgress}, statuses)

	t.Run("idempotent", func(t *testing.T) {
		f.out.Reset()
		require.NoError(t, f.cli.run([]string{"admin", "seed", "-f", path}))
		assert.Contains(t, f.out.String(), "created 0 platforms, 0 panels, 0 areas, 0 clients, 0 implementations, 0 client panels, 0 surveys")
	})
}

func Test_commandLine_health(t *testing.T) {
	f := setup(t)
	ana := testutil.CreateUser(t, f.usrRepo, "Ana", "ana@test.cd", strongPassword, user.RoleUser, true)
	acme := testutil.CreateClient(t, f.clientRepo, "Acme", "Retail", ana.ID, 100)
	globex := testutil.CreateClient(t, f.clientRepo, "Globex", "Industry", "", 50)
	crm := testutil.CreatePlatform(t, f.techRepo, "CRM")
	sales := testutil.CreatePanel(t, f.biRepo, "Sales")
	testutil.CreateImplementation(t, f.techRepo, acme.ID, crm.ID, status.Implemented, 100, nil)
	testutil.CreateClientPanel(t, f.biRepo, acme.ID, sales.ID, status.InProgress, 50, nil)
	testutil.CreateImplementation(t, f.techRepo, globex.ID, crm.ID, status.InProgress, 40, nil)

	t.Run("all clients", func(t *testing.T) {
		f.out.Reset()
		require.NoError(t, f.cli.run([]string{"admin", "health"}))
		out := f.out.String()
		assert.Contains(t, out, "100 healthy")
		assert.Contains(t, out, "16 critical")
		assert.Contains(t, out, "2 clients, average 58 (critical 1, warning 0, healthy 1)")
	})

	t.Run("by group", func(t *testing.T) {
		f.out.Reset()
		require.NoError(t, f.cli.run([]string{"admin", "health", "--group", "Industry"}))
		out := f.out.String()
		assert.Contains(t, out, "Globex")
		assert.NotContains(t, out, "Acme")
	})

	t.Run("by owner", func(t *testing.T) {
		f.out.Reset()
		require.NoError(t, f.cli.run([]string{"admin", "health", "-o", "ana@test.cd"}))
		assert.Contains(t, f.out.String(), "1 clients, average 100")
	})

	t.Run("unknown owner", func(t *testing.T) {
		err := f.cli.run([]string{"admin", "health", "-o", "who@test.cd"})
		assert.Equal(t, user.ErrNotFound, errors.Cause(err))
	})
}

func Test_commandLine_notifyOverdue(t *testing.T) {
	f := setup(t)
	ana := testutil.CreateUser(t, f.usrRepo, "Ana", "ana@test.cd", strongPassword, user.RoleUser, true)
	eve := testutil.CreateUser(t, f.usrRepo, "Eve", "eve@test.cd", strongPassword, user.RoleUser, false)
	acme := testutil.CreateClient(t, f.clientRepo, "Acme", "Retail", ana.ID, 100)
	globex := testutil.CreateClient(t, f.clientRepo, "Globex", "Industry", eve.ID, 50)
	crm := testutil.CreatePlatform(t, f.techRepo, "CRM")

	past := testutil.DatePtr(2020, time.January, 20)
	testutil.CreateImplementation(t, f.techRepo, acme.ID, crm.ID, status.Planned, 10, past)
	testutil.CreateImplementation(t, f.techRepo, globex.ID, crm.ID, status.Planned, 10, past) // inactive owner

	require.NoError(t, f.cli.run([]string{"admin", "notify-overdue"}))
	assert.Contains(t, f.out.String(), "Ana <ana@test.cd>: 1 overdue items\n1 digests sent\n")

	sent := f.mail.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "ana@test.cd", sent[0].To[0].Address)
	assert.Contains(t, sent[0].TextContent, "Acme")
}
