package main

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mkundi/kampasi/core"
	"github.com/mkundi/kampasi/core/user"
)

// addUser creates a user, or updates name, password and flags when the email
// is already taken.
func (cli *commandLine) addUser(name, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)
	now := time.Now().UTC()

	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			ID:        uuid.NewString(),
			Name:      name,
			Email:     email,
			IsAdmin:   isAdmin,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.usrRepo.UpdateOrCreateUser(ctx, usr)
		return err
	}

	usr.Name = name
	usr.UpdatedAt = now
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	active := true
	_, err = cli.usrRepo.UpdateUser(ctx, usr, &isAdmin, &active)
	return err
}
