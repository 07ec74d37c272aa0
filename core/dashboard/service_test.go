package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/bi"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/client"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/health"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/nps"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/process"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/scope"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/status"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/tech"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/user"
	sqlxrepos "github.com/Chrissalvo1985/monitor-gestion-integral-sub000/storage/database/sqlx"
	testutil "github.com/Chrissalvo1985/monitor-gestion-integral-sub000/tests"
)

var ctx = context.Background()

type memCache struct {
	mu      sync.Mutex
	entries map[string]health.Breakdown
	hits    int
	sets    int
	fail    bool
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]health.Breakdown)}
}

func (c *memCache) Get(_ context.Context, key string) (health.Breakdown, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return health.Breakdown{}, false, errors.New("cache down")
	}
	b, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return b, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, b health.Breakdown) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("cache down")
	}
	c.entries[key] = b
	c.sets++
	return nil
}

type mailRecorder struct {
	messages []*core.EmailMessage
}

func (m *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	m.messages = append(m.messages, messages...)
}

type logged struct {
	msg  string
	args []interface{}
}

type logRecorder struct {
	warnings []logged
}

func (l *logRecorder) Debug(string, ...interface{}) {}
func (l *logRecorder) Info(string, ...interface{})  {}
func (l *logRecorder) Warn(msg string, args ...interface{}) {
	l.warnings = append(l.warnings, logged{msg: msg, args: args})
}
func (l *logRecorder) Error(string, ...interface{}) {}
func (l *logRecorder) Fatal(string, ...interface{}) {}

func loggedClient(l logged) client.Client {
	for _, arg := range l.args {
		if c, ok := arg.(client.Client); ok {
			return c
		}
	}
	return client.Client{}
}

type fixture struct {
	svc                   *Service
	logger                *logRecorder
	techRepo              tech.Repository
	cache                 *memCache
	mail                  *mailRecorder
	ana, bob              user.User
	acme, globex, initech client.Client
	globexERP             tech.Implementation
}

// setup builds three clients on 2026-02-01:
//   - Acme (ana): every relevant item implemented, a deprecated overdue platform, one panel -> 100
//   - Globex (bob, inactive): ERP at 50% overdue -> 0.4*50 + 0.3*50 - 5 = 30
//   - Initech (ana): CRM planned and overdue -> 0.3*50 - 5 = 10
func setup(t *testing.T) fixture {
	db := testutil.PrepareDB(t)
	userRepo := sqlxrepos.NewUserRepository(db)
	clientRepo := sqlxrepos.NewClientRepository(db)
	techRepo := sqlxrepos.NewTechRepository(db)
	biRepo := sqlxrepos.NewBIRepository(db)
	procRepo := sqlxrepos.NewProcessRepository(db)
	npsRepo := sqlxrepos.NewNPSRepository(db)

	f := fixture{techRepo: techRepo, cache: newMemCache(), mail: &mailRecorder{}, logger: &logRecorder{}}
	f.ana = testutil.CreateUser(t, userRepo, "Ana", "ana@example.com", "", user.RoleUser, true)
	f.bob = testutil.CreateUser(t, userRepo, "Bob", "bob@example.com", "", user.RoleUser, false)

	f.acme = testutil.CreateClient(t, clientRepo, "Acme", "Retail", f.ana.ID, 100)
	f.globex = testutil.CreateClient(t, clientRepo, "Globex", "Retail", f.bob.ID, 50)
	f.initech = testutil.CreateClient(t, clientRepo, "Initech", "Banking", f.ana.ID, 10)

	erp := testutil.CreatePlatform(t, techRepo, "ERP")
	crm := testutil.CreatePlatform(t, techRepo, "CRM")
	sales := testutil.CreatePanel(t, biRepo, "Sales")

	testutil.CreateImplementation(t, techRepo, f.acme.ID, erp.ID, status.Implemented, 100, nil)
	testutil.CreateImplementation(t, techRepo, f.acme.ID, crm.ID, status.Deprecated, 30, testutil.DatePtr(2025, time.December, 1))
	testutil.CreateClientPanel(t, biRepo, f.acme.ID, sales.ID, status.Implemented, 100, nil)
	f.globexERP = testutil.CreateImplementation(t, techRepo, f.globex.ID, erp.ID, status.InProgress, 50, testutil.DatePtr(2026, time.January, 1))
	testutil.CreateImplementation(t, techRepo, f.initech.ID, crm.ID, status.Planned, 0, testutil.DatePtr(2026, time.January, 20))

	area := testutil.CreateArea(t, procRepo, "Finance")
	testutil.CreateSurvey(t, procRepo, area.ID, 100, 50, 50, 0)

	respondedAt := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	testutil.CreateNPSResponse(t, npsRepo, f.acme.ID, 10, respondedAt)
	testutil.CreateNPSResponse(t, npsRepo, f.acme.ID, 9, respondedAt)
	testutil.CreateNPSResponse(t, npsRepo, f.acme.ID, 3, respondedAt)
	testutil.CreateNPSResponse(t, npsRepo, f.globex.ID, 8, respondedAt)

	f.svc = NewService(Deps{
		ClientSvc:  client.NewService(clientRepo),
		TechSvc:    tech.NewService(techRepo),
		BISvc:      bi.NewService(biRepo),
		ProcessSvc: process.NewService(procRepo),
		NPSSvc:     nps.NewService(npsRepo),
		UserSvc:    user.NewService(userRepo),
		MailSvc:    f.mail,
		Cache:      f.cache,
		Logger:     f.logger,
	})
	f.svc.nowFunc = func() time.Time { return time.Date(2026, time.February, 1, 10, 0, 0, 0, time.UTC) }
	return f
}

func rowNames(rows []ClientRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Client.Name)
	}
	return out
}

func TestOverview(t *testing.T) {
	f := setup(t)

	t.Run("admin sees everything", func(t *testing.T) {
		ov, err := f.svc.Overview(ctx, &scope.UserContext{Role: user.RoleAdmin}, scope.Selection{})
		require.NoError(t, err)

		assert.Equal(t, []string{"Acme", "Globex", "Initech"}, rowNames(ov.Clients))
		acme, globex, initech := ov.Clients[0], ov.Clients[1], ov.Clients[2]

		assert.True(t, acme.Health.Shortcut)
		assert.Equal(t, 100, acme.Health.Score)
		assert.Equal(t, 100, acme.Health.TechProgress, "deprecated platforms are ignored")
		assert.Equal(t, 0, acme.Health.Penalty, "deprecated platforms are never overdue")
		assert.Equal(t, 33, acme.NPS)
		assert.Equal(t, 3, acme.NPSResponses)

		assert.Equal(t, 30, globex.Health.Score)
		assert.Equal(t, 5, globex.Health.Penalty)
		assert.Equal(t, 0, globex.NPS)

		assert.Equal(t, 10, initech.Health.Score)
		assert.Equal(t, health.BandCritical, initech.Health.Band)

		assert.Equal(t, 47, ov.AverageScore)
		assert.Equal(t, 50, ov.TechProgress)
		assert.Equal(t, 33, ov.BIProgress)
		assert.Equal(t, 50, ov.ProcessProgress)
		assert.Equal(t, 25, ov.NPS)
		assert.Equal(t, 160, ov.Headcount)
		assert.Equal(t, map[health.Band]int{health.BandCritical: 2, health.BandWarning: 0, health.BandHealthy: 1}, ov.Bands)
		assert.Equal(t, "2026-02-01", ov.Today.String())
	})

	t.Run("user sees assigned clients only", func(t *testing.T) {
		uc := &scope.UserContext{Role: user.RoleUser, AssignedClients: []string{f.acme.ID}}
		ov, err := f.svc.Overview(ctx, uc, scope.Selection{Group: "Banking"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Acme"}, rowNames(ov.Clients))
		assert.Equal(t, scope.All, ov.Options.Selection.Group)
		assert.Equal(t, []string{"Retail"}, ov.Options.Groups)
		assert.Equal(t, 100, ov.AverageScore)
	})

	t.Run("user without assignments sees nothing", func(t *testing.T) {
		ov, err := f.svc.Overview(ctx, &scope.UserContext{Role: user.RoleUser}, scope.Selection{})
		require.NoError(t, err)
		assert.Empty(t, ov.Clients)
		assert.Equal(t, 0, ov.AverageScore)
		assert.Equal(t, 0, ov.NPS)
	})

	t.Run("selection", func(t *testing.T) {
		ov, err := f.svc.Overview(ctx, nil, scope.Selection{OwnerID: f.ana.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{"Acme", "Initech"}, rowNames(ov.Clients))

		ov, err = f.svc.Overview(ctx, nil, scope.Selection{Group: "Banking"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Initech"}, rowNames(ov.Clients))
		assert.Equal(t, []string{f.ana.ID}, ov.Options.Owners)
	})
}

func TestOverviewCache(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Overview(ctx, nil, scope.Selection{})
	require.NoError(t, err)
	assert.Equal(t, 0, f.cache.hits)
	assert.Equal(t, 3, f.cache.sets)

	_, err = f.svc.Overview(ctx, nil, scope.Selection{})
	require.NoError(t, err)
	assert.Equal(t, 3, f.cache.hits)
	assert.Equal(t, 3, f.cache.sets)

	// a write changes the fingerprint of that client only
	upd := f.globexERP
	upd.Status = status.Implemented
	upd.Progress = 100
	_, err = f.techRepo.UpdateImplementation(ctx, upd)
	require.NoError(t, err)

	row, err := f.svc.ClientHealth(ctx, nil, f.globex.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, f.cache.sets)
	assert.Equal(t, 55, row.Health.Score, "0.4*100 + 0.3*50, no longer overdue")

	t.Run("cache failures fall back to computing", func(t *testing.T) {
		f.cache.fail = true
		row, err := f.svc.ClientHealth(ctx, nil, f.acme.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, row.Health.Score)

		require.Len(t, f.logger.warnings, 2)
		get := f.logger.warnings[0]
		assert.Contains(t, get.msg, "health cache get")
		assert.Equal(t, f.acme.ID, loggedClient(get).ID, "warnings name the client being scored")
		set := f.logger.warnings[1]
		assert.Contains(t, set.msg, "health cache set")
		assert.Contains(t, set.args, row.Health)
	})
}

func TestScores(t *testing.T) {
	f := setup(t)

	scores, err := f.svc.Scores(ctx, []client.Client{f.acme, f.globex, f.initech})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{f.acme.ID: 100, f.globex.ID: 30, f.initech.ID: 10}, scores)

	scores, err = f.svc.Scores(ctx, []client.Client{f.initech})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{f.initech.ID: 10}, scores, "records of other clients do not leak in")

	scores, err = f.svc.Scores(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestClientHealth(t *testing.T) {
	f := setup(t)
	f.svc.Cache = nil

	uc := &scope.UserContext{Role: user.RoleUser, AssignedClients: []string{f.acme.ID}}
	_, err := f.svc.ClientHealth(ctx, uc, f.globex.ID)
	assert.Equal(t, client.ErrNotFound, err)

	_, err = f.svc.ClientHealth(ctx, nil, core.NewID())
	assert.Equal(t, client.ErrNotFound, err)

	row, err := f.svc.ClientHealth(ctx, uc, f.acme.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, row.Health.Score)
	assert.Equal(t, 2, row.Implementations)
	assert.Equal(t, 1, row.Panels)
}

func TestOverdueDigest(t *testing.T) {
	f := setup(t)

	digests, err := f.svc.OverdueDigest(ctx)
	require.NoError(t, err)
	require.Len(t, digests, 1, "inactive owners get no digest")

	d := digests[0]
	assert.Equal(t, f.ana.ID, d.OwnerID)
	require.Len(t, d.Items, 1, "deprecated items are never overdue")
	assert.Equal(t, OverdueItem{
		ClientID:    f.initech.ID,
		ClientName:  "Initech",
		Kind:        KindTech,
		Name:        "CRM",
		Status:      status.Planned,
		TargetDate:  core.NewDate(2026, time.January, 20),
		DaysOverdue: 12,
	}, d.Items[0])

	t.Run("notify", func(t *testing.T) {
		sent, err := f.svc.NotifyOverdue(ctx)
		require.NoError(t, err)
		assert.Len(t, sent, 1)
		require.Len(t, f.mail.messages, 1)

		msg := f.mail.messages[0]
		assert.Equal(t, "ana@example.com", msg.To[0].Address)
		assert.Equal(t, digestTemplate, msg.TemplateName)
		assert.Equal(t, d, msg.TemplateData)
	})

	t.Run("nothing overdue in the past", func(t *testing.T) {
		f.svc.nowFunc = func() time.Time { return time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC) }
		digests, err := f.svc.OverdueDigest(ctx)
		require.NoError(t, err)
		assert.Empty(t, digests)
	})
}

func TestFingerprint(t *testing.T) {
	today := core.NewDate(2026, time.February, 1)
	in := health.Input{
		Client: client.Client{ID: "c1"},
		Tech:   []tech.Implementation{{ID: "t1", Status: status.InProgress, Progress: 10}},
	}
	key := Fingerprint(in, today)
	assert.Equal(t, key, Fingerprint(in, today))
	assert.Contains(t, key, "c1:")

	changed := in
	changed.Tech = []tech.Implementation{{ID: "t1", Status: status.InProgress, Progress: 11}}
	assert.NotEqual(t, key, Fingerprint(changed, today))
	assert.NotEqual(t, key, Fingerprint(in, core.NewDate(2026, time.February, 2)))
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0, mean(nil))
	assert.Equal(t, 2, mean([]int{1, 2}))
	assert.Equal(t, 47, mean([]int{100, 30, 10}))
	assert.Equal(t, 13, mean([]int{25, 0}), "halves round up")
}
