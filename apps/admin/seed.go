package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/bi"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/client"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/process"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/status"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/tech"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/user"
)

type (
	seedItem struct {
		Name       string     `yaml:"name"` // platform or panel name
		Status     string     `yaml:"status"`
		Progress   int        `yaml:"progress"`
		TargetDate *core.Date `yaml:"target_date"`
	}

	seedClient struct {
		Name            string     `yaml:"name"`
		ManagementGroup string     `yaml:"management_group"`
		OwnerEmail      string     `yaml:"owner_email"`
		Headcount       int        `yaml:"headcount"`
		Tech            []seedItem `yaml:"tech"`
		BI              []seedItem `yaml:"bi"`
	}

	seedSurvey struct {
		Area       string `yaml:"area"`
		Status     string `yaml:"status"`
		Mapping    int    `yaml:"mapping"`
		Procedures int    `yaml:"procedures"`
		Controls   int    `yaml:"controls"`
		Evidence   int    `yaml:"evidence"`
	}

	seedFile struct {
		Platforms []tech.NewPlatform `yaml:"platforms"`
		Panels    []bi.NewPanel      `yaml:"panels"`
		Areas     []process.NewArea  `yaml:"areas"`
		Clients   []seedClient       `yaml:"clients"`
		Surveys   []seedSurvey       `yaml:"surveys"`
	}
)

// seedStats counts created records; existing ones are left untouched.
type seedStats struct {
	platforms, panels, areas, clients, implementations, clientPanels, surveys int
}

func (st seedStats) String() string {
	return fmt.Sprintf(
		"created %d platforms, %d panels, %d areas, %d clients, %d implementations, %d client panels, %d surveys",
		st.platforms, st.panels, st.areas, st.clients, st.implementations, st.clientPanels, st.surveys,
	)
}

func (cli *commandLine) seedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load catalog items, clients and their rollout records from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				_ = cmd.Usage()
				return errHelp
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return errors.Wrap(err, "reading seed file")
			}
			stats, err := cli.seed(data)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cli.stdout(), stats)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "The YAML seed file")
	return cmd
}

func parseStatus(s string) status.Status {
	return status.Status(strings.ToUpper(core.CleanString(s)))
}

// seed is idempotent on names: catalog items and clients are matched by name,
// rollout records by (client, item), and an area that already has surveys gets no more.
func (cli *commandLine) seed(data []byte) (seedStats, error) {
	var (
		sf    seedFile
		stats seedStats
		ctx   = context.Background()
	)
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return stats, errors.Wrap(err, "parsing seed file")
	}

	platforms, err := cli.seedPlatforms(ctx, sf.Platforms, &stats)
	if err != nil {
		return stats, err
	}
	panels, err := cli.seedPanels(ctx, sf.Panels, &stats)
	if err != nil {
		return stats, err
	}
	areas, err := cli.seedAreas(ctx, sf.Areas, &stats)
	if err != nil {
		return stats, err
	}

	existing, err := cli.clientSvc.QueryAll(ctx)
	if err != nil {
		return stats, errors.Wrap(err, "querying clients")
	}
	clients := make(map[string]client.Client, len(existing))
	for _, c := range existing {
		clients[c.Name] = c
	}

	for _, sc := range sf.Clients {
		c, ok := clients[core.CleanString(sc.Name)]
		if !ok {
			if c, err = cli.seedClient(ctx, sc); err != nil {
				return stats, errors.Wrapf(err, "seeding client %q", sc.Name)
			}
			clients[c.Name] = c
			stats.clients++
		}
		if err = cli.seedTech(ctx, c, sc.Tech, platforms, &stats); err != nil {
			return stats, errors.Wrapf(err, "seeding tech of %q", c.Name)
		}
		if err = cli.seedBI(ctx, c, sc.BI, panels, &stats); err != nil {
			return stats, errors.Wrapf(err, "seeding BI of %q", c.Name)
		}
	}

	if err = cli.seedSurveys(ctx, sf.Surveys, areas, &stats); err != nil {
		return stats, err
	}
	return stats, nil
}

func (cli *commandLine) seedPlatforms(ctx context.Context, items []tech.NewPlatform, stats *seedStats) (map[string]string, error) {
	existing, err := cli.techSvc.QueryPlatforms(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying platforms")
	}
	ids := make(map[string]string, len(existing)+len(items)) // {name: id}
	for _, p := range existing {
		ids[p.Name] = p.ID
	}
	for _, np := range items {
		if err = np.Validate(cli.validate); err != nil {
			return nil, errors.Wrapf(err, "platform %q", np.Name)
		}
		if _, ok := ids[np.Name]; ok {
			continue
		}
		p, err := cli.techSvc.CreatePlatform(ctx, np)
		if err != nil {
			return nil, errors.Wrapf(err, "creating platform %q", np.Name)
		}
		ids[p.Name] = p.ID
		stats.platforms++
	}
	return ids, nil
}

func (cli *commandLine) seedPanels(ctx context.Context, items []bi.NewPanel, stats *seedStats) (map[string]string, error) {
	existing, err := cli.biSvc.QueryPanels(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying panels")
	}
	ids := make(map[string]string, len(existing)+len(items))
	for _, p := range existing {
		ids[p.Name] = p.ID
	}
	for _, np := range items {
		if err = np.Validate(cli.validate); err != nil {
			return nil, errors.Wrapf(err, "panel %q", np.Name)
		}
		if _, ok := ids[np.Name]; ok {
			continue
		}
		p, err := cli.biSvc.CreatePanel(ctx, np)
		if err != nil {
			return nil, errors.Wrapf(err, "creating panel %q", np.Name)
		}
		ids[p.Name] = p.ID
		stats.panels++
	}
	return ids, nil
}

func (cli *commandLine) seedAreas(ctx context.Context, items []process.NewArea, stats *seedStats) (map[string]string, error) {
	existing, err := cli.processSvc.QueryAreas(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying areas")
	}
	ids := make(map[string]string, len(existing)+len(items))
	for _, a := range existing {
		ids[a.Name] = a.ID
	}
	for _, na := range items {
		if err = na.Validate(cli.validate); err != nil {
			return nil, errors.Wrapf(err, "area %q", na.Name)
		}
		if _, ok := ids[na.Name]; ok {
			continue
		}
		a, err := cli.processSvc.CreateArea(ctx, na)
		if err != nil {
			return nil, errors.Wrapf(err, "creating area %q", na.Name)
		}
		ids[a.Name] = a.ID
		stats.areas++
	}
	return ids, nil
}

func (cli *commandLine) seedClient(ctx context.Context, sc seedClient) (client.Client, error) {
	nc := client.NewClient{Name: sc.Name, ManagementGroup: sc.ManagementGroup, Headcount: sc.Headcount}
	if email := core.CleanString(sc.OwnerEmail); email != "" {
		owner, err := cli.usrSvc.GetByEmail(ctx, email)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				return client.Client{}, errors.Errorf("owner %q not found", email)
			}
			return client.Client{}, err
		}
		nc.OwnerID = owner.ID
	}
	if err := nc.Validate(cli.validate); err != nil {
		return client.Client{}, err
	}
	return cli.clientSvc.Create(ctx, nc)
}

func (cli *commandLine) seedTech(ctx context.Context, c client.Client, items []seedItem, platforms map[string]string, stats *seedStats) error {
	existing, err := cli.techSvc.FilterImplementations(ctx, tech.QueryFilter{ClientIDs: []string{c.ID}})
	if err != nil {
		return errors.Wrap(err, "querying implementations")
	}
	tracked := make(map[string]bool, len(existing))
	for _, impl := range existing {
		tracked[impl.PlatformID] = true
	}

	for _, item := range items {
		platformID, ok := platforms[core.CleanString(item.Name)]
		if !ok {
			return errors.Errorf("unknown platform %q", item.Name)
		}
		if tracked[platformID] {
			continue
		}
		ni := tech.NewImplementation{
			ClientID:   c.ID,
			PlatformID: platformID,
			Status:     parseStatus(item.Status),
			Progress:   item.Progress,
			TargetDate: item.TargetDate,
		}
		if err = ni.Validate(cli.validate); err != nil {
			return errors.Wrapf(err, "implementation of %q", item.Name)
		}
		if _, err = cli.techSvc.CreateImplementation(ctx, ni); err != nil {
			return errors.Wrapf(err, "creating implementation of %q", item.Name)
		}
		tracked[platformID] = true
		stats.implementations++
	}
	return nil
}

func (cli *commandLine) seedBI(ctx context.Context, c client.Client, items []seedItem, panels map[string]string, stats *seedStats) error {
	existing, err := cli.biSvc.FilterClientPanels(ctx, bi.QueryFilter{ClientIDs: []string{c.ID}})
	if err != nil {
		return errors.Wrap(err, "querying client panels")
	}
	tracked := make(map[string]bool, len(existing))
	for _, cp := range existing {
		tracked[cp.PanelID] = true
	}

	for _, item := range items {
		panelID, ok := panels[core.CleanString(item.Name)]
		if !ok {
			return errors.Errorf("unknown panel %q", item.Name)
		}
		if tracked[panelID] {
			continue
		}
		ncp := bi.NewClientPanel{
			ClientID:   c.ID,
			PanelID:    panelID,
			Status:     parseStatus(item.Status),
			Progress:   item.Progress,
			TargetDate: item.TargetDate,
		}
		if err = ncp.Validate(cli.validate); err != nil {
			return errors.Wrapf(err, "client panel %q", item.Name)
		}
		if _, err = cli.biSvc.CreateClientPanel(ctx, ncp); err != nil {
			return errors.Wrapf(err, "creating client panel %q", item.Name)
		}
		tracked[panelID] = true
		stats.clientPanels++
	}
	return nil
}

func (cli *commandLine) seedSurveys(ctx context.Context, items []seedSurvey, areas map[string]string, stats *seedStats) error {
	surveyed := make(map[string]bool)
	for _, item := range items {
		areaID, ok := areas[core.CleanString(item.Area)]
		if !ok {
			return errors.Errorf("unknown area %q", item.Area)
		}
		if _, seen := surveyed[areaID]; !seen {
			existing, err := cli.processSvc.QuerySurveys(ctx, process.QueryFilter{AreaID: areaID})
			if err != nil {
				return errors.Wrap(err, "querying surveys")
			}
			surveyed[areaID] = len(existing) > 0
		}
		if surveyed[areaID] {
			continue
		}

		ns := process.NewSurvey{
			AreaID:     areaID,
			Status:     parseStatus(item.Status),
			Mapping:    item.Mapping,
			Procedures: item.Procedures,
			Controls:   item.Controls,
			Evidence:   item.Evidence,
		}
		if err := ns.Validate(cli.validate); err != nil {
			return errors.Wrapf(err, "survey of %q", item.Area)
		}
		if _, err := cli.processSvc.CreateSurvey(ctx, ns); err != nil {
			return errors.Wrapf(err, "creating survey of %q", item.Area)
		}
		stats.surveys++
	}
	return nil
}
