package main

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/user"
)

// addUser updates or creates a user.User; an existing user keeps its name unless a new one is given.
func (cli *commandLine) addUser(name, uname, email, studentID, pwd string, roles []string) error {
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	studentID = core.CleanString(studentID, true /* lower */)

	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(uname+email, "username or email"),
		vala.StringNotEmpty(pwd, "password"),
	).Check(); err != nil {
		return err
	}

	ctx := context.Background()
	now := time.Now().UTC()
	lookup := uname
	if lookup == "" {
		lookup = email
	}

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: lookup})
	switch {
	case errors.Cause(err) == user.ErrNotFound:
		if err = vala.BeginValidation().Validate(vala.StringNotEmpty(name, "name")).Check(); err != nil {
			return err
		}
		usr = user.User{Username: uname, Email: email, CreatedAt: now}
	case err != nil:
		return err
	}

	if name != "" {
		usr.Name = core.CleanString(name)
	}
	if roles != nil {
		usr.Roles = roles
	}
	if studentID != "" {
		usr.StudentID = studentID
	}
	usr.IsActive = true
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if usr.ID == "" {
		if err := cli.usrRepo.CheckUniqueness(ctx, usr.Username, usr.Email); err != nil {
			return err
		}
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	return err
}
