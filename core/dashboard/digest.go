package dashboard

import (
	"context"
	"net/mail"
	"sort"

	"github.com/pkg/errors"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/client"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/health"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/status"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/user"
)

const (
	KindTech = "tech"
	KindBI   = "bi"

	digestTemplate = "overdue_digest"
	digestSubject  = "Overdue rollout items"
)

type (
	OverdueItem struct {
		ClientID    string        `json:"client_id"`
		ClientName  string        `json:"client_name"`
		Kind        string        `json:"kind"`
		Name        string        `json:"name"`
		Status      status.Status `json:"status"`
		TargetDate  core.Date     `json:"target_date"`
		DaysOverdue int           `json:"days_overdue"`
	}

	// OwnerDigest lists the overdue items of the clients one user owns.
	OwnerDigest struct {
		OwnerID    string        `json:"owner_id"`
		OwnerName  string        `json:"owner_name"`
		OwnerEmail string        `json:"owner_email"`
		Items      []OverdueItem `json:"items"`
	}
)

// OverdueDigest collects every overdue tech and BI item, grouped by client owner.
// Deprecated tech, clients without an owner and inactive owners are left out.
func (svc *Service) OverdueDigest(ctx context.Context) ([]OwnerDigest, error) {
	clients, err := svc.ClientSvc.QueryAll(ctx, core.DBOrdering{Field: "name", Ascending: true})
	if err != nil {
		return nil, errors.Wrap(err, "querying clients")
	}
	byID := make(map[string]client.Client, len(clients))
	for _, c := range clients {
		byID[c.ID] = c
	}

	platforms, err := svc.TechSvc.QueryPlatforms(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying platforms")
	}
	platformNames := make(map[string]string, len(platforms))
	for _, p := range platforms {
		platformNames[p.ID] = p.Name
	}

	panels, err := svc.BISvc.QueryPanels(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying panels")
	}
	panelNames := make(map[string]string, len(panels))
	for _, p := range panels {
		panelNames[p.ID] = p.Name
	}

	// every client: skip the IN list and drop rows of clients deleted meanwhile
	recs, err := svc.loadRecords(ctx, clients, nil)
	if err != nil {
		return nil, err
	}

	today := svc.Today()
	items := make(map[string][]OverdueItem) // {ownerID: items}
	add := func(clientID, kind, name string, st status.Status, target *core.Date) {
		c, ok := byID[clientID]
		if !ok || c.OwnerID == "" || !health.Overdue(target, st, today) {
			return
		}
		items[c.OwnerID] = append(items[c.OwnerID], OverdueItem{
			ClientID:    c.ID,
			ClientName:  c.Name,
			Kind:        kind,
			Name:        name,
			Status:      st,
			TargetDate:  *target,
			DaysOverdue: target.DaysUntil(today),
		})
	}

	for _, c := range clients {
		for _, impl := range recs.tech[c.ID] {
			if impl.Status == status.Deprecated {
				continue
			}
			add(impl.ClientID, KindTech, platformNames[impl.PlatformID], impl.Status, impl.TargetDate)
		}
		for _, cp := range recs.panels[c.ID] {
			add(cp.ClientID, KindBI, panelNames[cp.PanelID], cp.Status, cp.TargetDate)
		}
	}

	digests := make([]OwnerDigest, 0, len(items))
	for ownerID, ownerItems := range items {
		owner, err := svc.UserSvc.GetByID(ctx, ownerID)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				continue
			}
			return nil, errors.Wrapf(err, "getting owner %s", ownerID)
		}
		if !owner.IsActive {
			continue
		}
		sort.SliceStable(ownerItems, func(i, j int) bool {
			return ownerItems[i].DaysOverdue > ownerItems[j].DaysOverdue
		})
		digests = append(digests, OwnerDigest{
			OwnerID:    owner.ID,
			OwnerName:  owner.Name,
			OwnerEmail: owner.Email,
			Items:      ownerItems,
		})
	}
	sort.Slice(digests, func(i, j int) bool {
		if digests[i].OwnerName == digests[j].OwnerName {
			return digests[i].OwnerID < digests[j].OwnerID
		}
		return digests[i].OwnerName < digests[j].OwnerName
	})
	return digests, nil
}

// NotifyOverdue emails each owner their digest and returns the digests sent.
func (svc *Service) NotifyOverdue(ctx context.Context) ([]OwnerDigest, error) {
	if svc.MailSvc == nil {
		return nil, errors.New("no email service configured")
	}
	digests, err := svc.OverdueDigest(ctx)
	if err != nil {
		return nil, err
	}

	msgs := make([]*core.EmailMessage, 0, len(digests))
	for _, d := range digests {
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{{Name: d.OwnerName, Address: d.OwnerEmail}},
			Subject:      digestSubject,
			TemplateName: digestTemplate,
			TemplateData: d,
		})
	}
	if len(msgs) > 0 {
		svc.MailSvc.SendMessages(msgs...)
	}
	return digests, nil
}
