package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/user"
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	var name, email string
	var isAdmin bool

	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create or update (and activate) a user; the password is prompted next",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if core.CleanString(email) == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.promptPassword(cmd)
			if err != nil {
				return err
			}
			return cli.addUser(name, email, pwd, isAdmin)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "The user's email")
	cmd.Flags().StringVarP(&name, "name", "n", "", "The user's name (defaults to the email)")
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "Grant the admin role")
	return cmd
}

// addUser updates or creates a user.User, activating it.
func (cli *commandLine) addUser(name, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)

	role := user.RoleUser
	if isAdmin {
		role = user.RoleAdmin
	}

	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		if name == "" {
			name = email
		}
		if err = user.ValidatePassword(pwd, name, email); err != nil {
			return err
		}
		_, err = cli.usrSvc.Create(ctx, user.NewUser{Name: name, Email: email, Role: role, Password: pwd})
		return err
	}

	if name == "" {
		name = usr.Name
	}
	if !isAdmin {
		role = usr.Role
	}
	if err = user.ValidatePassword(pwd, name, email); err != nil {
		return err
	}
	active := true
	_, err = cli.usrSvc.Update(ctx, usr, user.UpdateUser{
		Name:     name,
		Email:    email,
		Role:     role,
		IsActive: &active,
		Password: pwd,
	})
	return err
}
