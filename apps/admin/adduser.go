package main

import (
	"context"

	"github.com/tchaleu/saetrack/core"
	"github.com/tchaleu/saetrack/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(name, uname, email, pwd string, isAdmin, isSupervisor bool) error {
	var usr user.User
	var err error
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	if usr, err = cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: uname}); err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Username: uname,
			Email:    email,
		}
	}
	if name != "" {
		usr.Name = name
	}
	switch {
	case isAdmin:
		usr.Roles = user.AllRoles
	case isSupervisor:
		usr.Roles = []string{user.RoleSupervisor}
	case len(usr.Roles) == 0:
		usr.Roles = []string{user.RoleStudent}
	}
	usr.SetActive(true)
	if err := user.ValidatePassword(pwd, usr.Name, usr.Username, usr.Email); err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	if _, err := cli.usrRepo.UpdateOrCreateUser(ctx, usr); err != nil {
		return err
	}
	return nil
}
