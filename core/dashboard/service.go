// Package dashboard composes the domain services into the per-client overview:
// load, permission scope, selection, then health aggregation.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/bi"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/client"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/health"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/nps"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/process"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/scope"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/tech"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/user"
)

type (
	// HealthCache stores computed breakdowns under a key derived from the exact inputs.
	// It is an optimisation only: a miss or an error falls back to computing.
	HealthCache interface {
		Get(ctx context.Context, key string) (health.Breakdown, bool, error)
		Set(ctx context.Context, key string, b health.Breakdown) error
	}

	Deps struct {
		ClientSvc  *client.Service
		TechSvc    *tech.Service
		BISvc      *bi.Service
		ProcessSvc *process.Service
		NPSSvc     *nps.Service
		UserSvc    *user.Service
		MailSvc    core.EmailService
		Cache      HealthCache // optional
		Logger     core.Logger
		Location   *time.Location // calendar used for overdue checks; UTC when nil
	}

	Service struct {
		Deps
		nowFunc func() time.Time
	}
)

func NewService(deps Deps) *Service {
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	return &Service{Deps: deps, nowFunc: time.Now}
}

// Today is the current calendar day in the dashboard's location.
func (svc *Service) Today() core.Date {
	return core.DateOf(svc.nowFunc(), svc.Location)
}

type (
	ClientRow struct {
		Client          client.Client    `json:"client"`
		Health          health.Breakdown `json:"health"`
		NPS             int              `json:"nps"`
		NPSResponses    int              `json:"nps_responses"`
		Implementations int              `json:"implementations"`
		Panels          int              `json:"panels"`
	}

	Overview struct {
		Options         scope.Options       `json:"options"`
		Clients         []ClientRow         `json:"clients"`
		AverageScore    int                 `json:"average_score"`
		TechProgress    int                 `json:"tech_progress"`
		BIProgress      int                 `json:"bi_progress"`
		ProcessProgress int                 `json:"process_progress"`
		NPS             int                 `json:"nps"`
		Headcount       int                 `json:"headcount"`
		Bands           map[health.Band]int `json:"bands"`
		Today           core.Date           `json:"today"`
	}
)

// records groups the items of a set of clients.
type records struct {
	tech      map[string][]tech.Implementation
	panels    map[string][]bi.ClientPanel
	responses map[string][]nps.Response
	surveys   []process.Survey
}

// loadRecords loads the items of clientIDs and groups those belonging to clients.
// A nil clientIDs loads every row, which is then narrowed to clients.
func (svc *Service) loadRecords(ctx context.Context, clients []client.Client, clientIDs []string) (records, error) {
	recs := records{
		tech:      make(map[string][]tech.Implementation),
		panels:    make(map[string][]bi.ClientPanel),
		responses: make(map[string][]nps.Response),
	}

	impls, err := svc.TechSvc.FilterImplementations(ctx, tech.QueryFilter{ClientIDs: clientIDs})
	if err != nil {
		return recs, errors.Wrap(err, "loading tech implementations")
	}
	for _, impl := range scope.RecordsForClients(impls, clients) {
		recs.tech[impl.ClientID] = append(recs.tech[impl.ClientID], impl)
	}

	panels, err := svc.BISvc.FilterClientPanels(ctx, bi.QueryFilter{ClientIDs: clientIDs})
	if err != nil {
		return recs, errors.Wrap(err, "loading client panels")
	}
	for _, cp := range scope.RecordsForClients(panels, clients) {
		recs.panels[cp.ClientID] = append(recs.panels[cp.ClientID], cp)
	}

	responses, err := svc.NPSSvc.Filter(ctx, nps.QueryFilter{ClientIDs: clientIDs})
	if err != nil {
		return recs, errors.Wrap(err, "loading NPS responses")
	}
	for _, r := range scope.RecordsForClients(responses, clients) {
		recs.responses[r.ClientID] = append(recs.responses[r.ClientID], r)
	}

	// surveys are area-scoped and feed every client's process score
	if recs.surveys, err = svc.ProcessSvc.QuerySurveys(ctx, process.QueryFilter{}); err != nil {
		return recs, errors.Wrap(err, "loading process surveys")
	}
	return recs, nil
}

func (svc *Service) row(ctx context.Context, c client.Client, recs records, today core.Date) ClientRow {
	in := health.Input{
		Client:  c,
		Tech:    recs.tech[c.ID],
		BI:      recs.panels[c.ID],
		Surveys: recs.surveys,
	}
	return ClientRow{
		Client:          c,
		Health:          svc.score(ctx, in, today),
		NPS:             nps.Score(recs.responses[c.ID]),
		NPSResponses:    len(recs.responses[c.ID]),
		Implementations: len(in.Tech),
		Panels:          len(in.BI),
	}
}

// score computes the breakdown of in, going through the cache when one is configured.
func (svc *Service) score(ctx context.Context, in health.Input, today core.Date) health.Breakdown {
	if svc.Cache == nil {
		return health.Compute(in, today)
	}

	key := Fingerprint(in, today)
	if b, ok, err := svc.Cache.Get(ctx, key); err != nil {
		svc.warn("health cache get", err, in.Client, map[string]interface{}{"cache_key": key})
	} else if ok {
		return b
	}

	b := health.Compute(in, today)
	if err := svc.Cache.Set(ctx, key, b); err != nil {
		svc.warn("health cache set", err, in.Client, b, map[string]interface{}{"cache_key": key})
	}
	return b
}

func (svc *Service) warn(msg string, err error, args ...interface{}) {
	if svc.Logger != nil {
		svc.Logger.Warn(fmt.Sprintf("%s: %v", msg, err), append([]interface{}{err}, args...)...)
	}
}

// Overview scores every client visible to uc and matching sel. A nil uc sees every client.
func (svc *Service) Overview(ctx context.Context, uc *scope.UserContext, sel scope.Selection) (Overview, error) {
	clients, err := svc.ClientSvc.QueryAll(ctx, core.DBOrdering{Field: "name", Ascending: true})
	if err != nil {
		return Overview{}, errors.Wrap(err, "querying clients")
	}

	selected, opts := scope.Filter(clients, uc, sel)
	recs, err := svc.loadRecords(ctx, selected, scope.IDs(selected))
	if err != nil {
		return Overview{}, err
	}

	today := svc.Today()
	ov := Overview{
		Options: opts,
		Clients: make([]ClientRow, 0, len(selected)),
		Bands:   map[health.Band]int{health.BandCritical: 0, health.BandWarning: 0, health.BandHealthy: 0},
		Today:   today,
	}

	var scores, techs, bis []int
	var allResponses []nps.Response
	for _, c := range selected {
		row := svc.row(ctx, c, recs, today)
		ov.Clients = append(ov.Clients, row)
		ov.Bands[row.Health.Band]++
		ov.Headcount += c.Headcount
		scores = append(scores, row.Health.Score)
		techs = append(techs, row.Health.TechProgress)
		bis = append(bis, row.Health.BIProgress)
		allResponses = append(allResponses, recs.responses[c.ID]...)
	}
	sort.SliceStable(ov.Clients, func(i, j int) bool {
		return ov.Clients[i].Client.Name < ov.Clients[j].Client.Name
	})

	ov.AverageScore = mean(scores)
	ov.TechProgress = mean(techs)
	ov.BIProgress = mean(bis)
	ov.ProcessProgress = health.ProcessProgress(recs.surveys)
	ov.NPS = nps.Score(allResponses)
	return ov, nil
}

// ClientHealth scores a single client. Clients uc cannot see are reported as client.ErrNotFound.
func (svc *Service) ClientHealth(ctx context.Context, uc *scope.UserContext, clientID string) (ClientRow, error) {
	if !uc.CanSee(clientID) {
		return ClientRow{}, client.ErrNotFound
	}
	c, err := svc.ClientSvc.GetByID(ctx, clientID)
	if err != nil {
		return ClientRow{}, err
	}
	recs, err := svc.loadRecords(ctx, []client.Client{c}, []string{c.ID})
	if err != nil {
		return ClientRow{}, err
	}
	return svc.row(ctx, c, recs, svc.Today()), nil
}

// Scores computes the health score of each of clients, keyed by client ID.
// Callers pass clients already filtered by permission.
func (svc *Service) Scores(ctx context.Context, clients []client.Client) (map[string]int, error) {
	scores := make(map[string]int, len(clients))
	if len(clients) == 0 {
		return scores, nil
	}
	recs, err := svc.loadRecords(ctx, clients, scope.IDs(clients))
	if err != nil {
		return nil, err
	}
	today := svc.Today()
	for _, c := range clients {
		in := health.Input{Client: c, Tech: recs.tech[c.ID], BI: recs.panels[c.ID], Surveys: recs.surveys}
		scores[c.ID] = svc.score(ctx, in, today).Score
	}
	return scores, nil
}

// mean is the arithmetic mean of non-negative values rounded half up; 0 when empty.
func mean(values []int) int {
	if len(values) == 0 {
		return 0
	}
	var sum int
	for _, v := range values {
		sum += v
	}
	n := len(values)
	return (2*sum + n) / (2 * n)
}
