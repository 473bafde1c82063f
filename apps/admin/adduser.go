package main

import (
	"context"
	"fmt"
	"time"

	"github.com/acadboard/acadboard/core"
	"github.com/acadboard/acadboard/core/user"
)

type newUserArgs struct {
	name, uname, email, role, matric, pwd string
	isAdmin                               bool
}

// addUser updates or creates a user.User. The password policy does not apply.
func (cli *commandLine) addUser(args newUserArgs) error {
	ctx := context.Background()
	uname := core.CleanString(args.uname, true /* lower */)
	email := core.CleanString(args.email, true /* lower */)
	role := core.CleanString(args.role, true /* lower */)
	matric := core.CleanString(args.matric)

	if user.RolePriority(role) == 0 {
		return fmt.Errorf("invalid role %q", args.role)
	}
	if role == user.RoleStudent && matric == "" {
		return fmt.Errorf("students must have a matric number")
	}

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Username: uname})
	if err == user.ErrNotFound {
		usr, err = cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	}
	exists := err == nil
	if err != nil && err != user.ErrNotFound {
		return err
	}

	now := time.Now().UTC()
	if !exists {
		usr = user.User{CreatedAt: now}
	}
	usr.Name = core.CleanString(args.name)
	if usr.Name == "" {
		usr.Name = uname
	}
	usr.Username = uname
	usr.Email = email
	usr.MatricNumber = matric
	usr.Roles = []string{role}
	if args.isAdmin {
		usr.Roles = user.AllRoles
	}
	usr.IsActive = true
	usr.UpdatedAt = now
	if err = usr.SetPassword(args.pwd); err != nil {
		return err
	}

	if exists {
		if _, err = cli.usrRepo.UpdateUser(ctx, usr); err != nil {
			return err
		}
		cli.logger.Info("user updated", usr)
		return nil
	}
	if _, err = cli.usrRepo.CreateUser(ctx, usr); err != nil {
		return err
	}
	cli.logger.Info("user created", usr)
	return nil
}
