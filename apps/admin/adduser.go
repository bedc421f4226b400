package main

import (
	"context"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/user"
)

// addUser updates or creates an active user.User
func (cli *commandLine) addUser(ctx context.Context, name, email, pwd string, role user.Role) error {
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		if !core.IsNotFound(err) {
			return err
		}
		_, err = cli.usrSvc.Create(ctx, user.NewUser{
			Name:     core.CleanString(name),
			Email:    core.CleanString(email, true /* lower */),
			Password: pwd,
			Role:     role,
		})
		return err
	}

	active := true
	if usr, err = cli.usrSvc.Update(ctx, usr, user.UpdateUser{
		Name:     core.StrPtr(core.CleanString(name)),
		Role:     &role,
		IsActive: &active,
	}); err != nil {
		return err
	}
	_, err = cli.usrSvc.SetPassword(ctx, usr, pwd)
	return err
}
