package users

import (
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/constants"
)

type UserCmd struct {
	Add  UserAddCmd  `cmd:"" help:"Create a user."`
	List UserListCmd `cmd:"" help:"List users."`
	Use  UserUseCmd  `cmd:"" help:"Make a user the default for later commands."`
}

type UserAddCmd struct {
	Name   string `arg:"" help:"User name."`
	Avatar string `help:"Avatar URL."`
	Use    bool   `help:"Also make this user the default."`
}

func (c *UserAddCmd) Run(ctx *cli.Context) error {
	u, err := ctx.Service.CreateUser(ctx.Context(), c.Name, c.Avatar)
	if err != nil {
		return err
	}
	fmt.Printf("Created user %s (%s)\n", u.Name, cli.ShortID(u.ID))

	settings, err := ctx.Service.Settings()
	if err != nil {
		return err
	}
	if c.Use || settings.DefaultUser == "" {
		if err := ctx.Service.UpdateSetting(ctx.Context(), constants.SettingDefaultUser, u.ID); err != nil {
			return err
		}
		fmt.Printf("Default user is now %s\n", u.Name)
	}
	return nil
}

type UserListCmd struct{}

func (c *UserListCmd) Run(ctx *cli.Context) error {
	users, err := ctx.Service.ListUsers(ctx.Context())
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}
	settings, err := ctx.Service.Settings()
	if err != nil {
		return err
	}
	for _, u := range users {
		marker := " "
		if u.ID == settings.DefaultUser {
			marker = "*"
		}
		fmt.Printf("%s %s  %s\n", marker, cli.ShortID(u.ID), u.Name)
	}
	return nil
}

type UserUseCmd struct {
	User string `arg:"" help:"User name or ID."`
}

func (c *UserUseCmd) Run(ctx *cli.Context) error {
	u, err := ctx.Service.ResolveUser(ctx.Context(), c.User)
	if err != nil {
		return err
	}
	if err := ctx.Service.UpdateSetting(ctx.Context(), constants.SettingDefaultUser, u.ID); err != nil {
		return err
	}
	fmt.Printf("Default user is now %s\n", u.Name)
	return nil
}
