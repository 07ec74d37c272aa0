package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func (cli *commandLine) notifyOverdueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify-overdue",
		Short: "Email each client owner the list of their overdue rollout items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.notifyOverdue()
		},
	}
}

func (cli *commandLine) notifyOverdue() error {
	digests, err := cli.dashboardSvc.NotifyOverdue(context.Background())
	if err != nil {
		return err
	}
	// the mail services deliver in the background
	if w, ok := cli.dashboardSvc.MailSvc.(interface{ Wait() }); ok {
		w.Wait()
	}
	for _, d := range digests {
		_, _ = fmt.Fprintf(cli.stdout(), "%s <%s>: %d overdue items\n", d.OwnerName, d.OwnerEmail, len(d.Items))
	}
	_, _ = fmt.Fprintf(cli.stdout(), "%d digests sent\n", len(digests))
	return nil
}
