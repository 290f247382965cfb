package cli

import (
	"context"
	"flag"
	"fmt"
)

func newMigrateCommand(open Opener) *Command {
	cmd := &Command{
		Name:        "migrate",
		Description: "Apply pending database migrations",
		Flags:       flag.NewFlagSet("migrate", flag.ContinueOnError),
	}
	status := cmd.Flags.Bool("status", false, "Only print the current schema version")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}

		return withAdmin(open, func(ctx context.Context, a *Admin) error {
			if !*status {
				if err := a.Store.Migrate(ctx); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
			}
			version, err := a.Store.SchemaVersion(ctx)
			if err != nil {
				return fmt.Errorf("failed to read schema version: %w", err)
			}
			fmt.Fprintf(a.Out, "schema version: %d\n", version)
			return nil
		})
	}
	return cmd
}
