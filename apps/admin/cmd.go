package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/bi"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/client"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/dashboard"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/process"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/tech"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db           *sqlx.DB
	validate     *validator.Validate
	usrSvc       *user.Service
	clientSvc    *client.Service
	techSvc      *tech.Service
	biSvc        *bi.Service
	processSvc   *process.Service
	dashboardSvc *dashboard.Service
	out          io.Writer
}

func (cli *commandLine) stdout() io.Writer {
	if cli.out == nil {
		return os.Stdout
	}
	return cli.out
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Monitor administration commands",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errHelp
		},
	}
	root.SetOut(cli.stdout())
	root.SetErr(cli.stdout())
	root.AddCommand(
		cli.migrateCmd(),
		cli.addUserCmd(),
		cli.resetPasswordCmd(),
		cli.seedCmd(),
		cli.healthCmd(),
		cli.notifyOverdueCmd(),
	)
	return root
}

// run executes the command line args, program name included.
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	if len(args) > 1 {
		root.SetArgs(args[1:])
	} else {
		root.SetArgs([]string{})
	}
	return root.Execute()
}

// promptPassword reads a password from the terminal; an empty one is a usage error.
func (cli *commandLine) promptPassword(cmd *cobra.Command) (string, error) {
	_, _ = fmt.Fprint(cli.stdout(), "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.stdout())
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		_ = cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}
