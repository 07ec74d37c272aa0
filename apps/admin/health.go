package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/health"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/scope"
)

var bandColors = map[health.Band]*color.Color{
	health.BandCritical: color.New(color.FgRed, color.Bold),
	health.BandWarning:  color.New(color.FgYellow),
	health.BandHealthy:  color.New(color.FgGreen),
}

func (cli *commandLine) healthCmd() *cobra.Command {
	var group, ownerEmail string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Print the health score of every client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.health(group, ownerEmail)
		},
	}
	cmd.Flags().StringVarP(&group, "group", "g", "", "Only clients of this management group")
	cmd.Flags().StringVarP(&ownerEmail, "owner", "o", "", "Only clients owned by the user with this email")
	return cmd
}

func (cli *commandLine) health(group, ownerEmail string) error {
	ctx := context.Background()
	sel := scope.Selection{Group: core.CleanString(group)}
	if email := core.CleanString(ownerEmail); email != "" {
		owner, err := cli.usrSvc.GetByEmail(ctx, email)
		if err != nil {
			return errors.Wrapf(err, "finding owner %q", email)
		}
		sel.OwnerID = owner.ID
	}

	ov, err := cli.dashboardSvc.Overview(ctx, nil, sel)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cli.stdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CLIENT\tGROUP\tSCORE\tTECH\tBI\tPROCESS\tPENALTY\tNPS")
	for _, row := range ov.Clients {
		b := row.Health
		score := fmt.Sprintf("%d %s", b.Score, b.Band)
		if c, ok := bandColors[b.Band]; ok {
			score = c.Sprint(score)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			row.Client.Name, row.Client.ManagementGroup, score,
			b.TechProgress, b.BIProgress, b.ProcessProgress, b.Penalty, row.NPS,
		)
	}
	if err = w.Flush(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.stdout(), "\n%d clients, average %d (critical %d, warning %d, healthy %d)\n",
		len(ov.Clients), ov.AverageScore,
		ov.Bands[health.BandCritical], ov.Bands[health.BandWarning], ov.Bands[health.BandHealthy],
	)
	return nil
}
