package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"unicode/utf8"

	"github.com/platinummonkey/snooze/pkg/models"
	"github.com/platinummonkey/snooze/pkg/storage"
	"github.com/platinummonkey/snooze/pkg/validation"
)

func newCreateStaffCommand(open Opener) *Command {
	cmd := &Command{
		Name:        "create-staff",
		Description: "Create a staff account",
		Flags:       flag.NewFlagSet("create-staff", flag.ContinueOnError),
	}
	username := cmd.Flags.String("username", "", "Username (letters, digits, underscores, hyphens)")
	password := cmd.Flags.String("password", "", "Password")
	firstName := cmd.Flags.String("first-name", "", "First name")
	lastName := cmd.Flags.String("last-name", "", "Last name")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		if err := checkUsername(*username); err != nil {
			return err
		}
		if utf8.RuneCountInString(*password) < validation.PasswordMinLength {
			return fmt.Errorf("password must have at least %d characters", validation.PasswordMinLength)
		}
		if err := checkName("first-name", *firstName); err != nil {
			return err
		}
		if err := checkName("last-name", *lastName); err != nil {
			return err
		}

		return withAdmin(open, func(ctx context.Context, a *Admin) error {
			hash, err := a.Hasher.Hash(*password)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			user := &models.User{
				Username:     *username,
				PasswordHash: hash,
				FirstName:    *firstName,
				LastName:     *lastName,
				IsStaff:      true,
			}
			if err := a.Store.CreateUser(ctx, user); err != nil {
				if errors.Is(err, storage.ErrUsernameTaken) {
					return fmt.Errorf("user %q already exists, use promote instead", *username)
				}
				return fmt.Errorf("failed to create user: %w", err)
			}
			fmt.Fprintf(a.Out, "created staff user %s\n", user.Username)
			fmt.Fprintf(a.Out, "token: %s\n", a.Codec.IssueFor(user))
			return nil
		})
	}
	return cmd
}

func newPromoteCommand(open Opener) *Command {
	cmd := &Command{
		Name:        "promote",
		Description: "Grant or revoke staff on an existing user",
		Flags:       flag.NewFlagSet("promote", flag.ContinueOnError),
	}
	username := cmd.Flags.String("username", "", "Username")
	revoke := cmd.Flags.Bool("revoke", false, "Revoke staff instead of granting it")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		if *username == "" {
			return fmt.Errorf("-username is required")
		}

		return withAdmin(open, func(ctx context.Context, a *Admin) error {
			staff := !*revoke
			err := a.Store.SetStaff(ctx, *username, staff)
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("user %q does not exist", *username)
			}
			if err != nil {
				return fmt.Errorf("failed to update user: %w", err)
			}
			fmt.Fprintf(a.Out, "%s staff=%t\n", *username, staff)
			return nil
		})
	}
	return cmd
}

func newTokenCommand(open Opener) *Command {
	cmd := &Command{
		Name:        "token",
		Description: "Print the API token of a user",
		Flags:       flag.NewFlagSet("token", flag.ContinueOnError),
	}
	username := cmd.Flags.String("username", "", "Username")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		if *username == "" {
			return fmt.Errorf("-username is required")
		}

		return withAdmin(open, func(ctx context.Context, a *Admin) error {
			user, err := a.Store.GetUser(ctx, *username)
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("user %q does not exist", *username)
			}
			if err != nil {
				return fmt.Errorf("failed to load user: %w", err)
			}
			fmt.Fprintln(a.Out, a.Codec.IssueFor(user))
			return nil
		})
	}
	return cmd
}

func checkUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < validation.UsernameMinLength || n > validation.NameMaxLength {
		return fmt.Errorf("username must have %d to %d characters", validation.UsernameMinLength, validation.NameMaxLength)
	}
	if !validation.ValidUsername(username) {
		return errors.New(validation.UsernameMessage)
	}
	return nil
}

// checkName applies the signup bounds on first and last names
func checkName(flagName, value string) error {
	n := utf8.RuneCountInString(value)
	if n < validation.NameMinLength || n > validation.NameMaxLength {
		return fmt.Errorf("-%s must have %d to %d characters", flagName, validation.NameMinLength, validation.NameMaxLength)
	}
	return nil
}
