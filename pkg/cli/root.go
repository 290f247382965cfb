package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
	out         io.Writer
}

// NewRootCommand creates the snooze-admin root command. open is only called
// by subcommands that need the database.
func NewRootCommand(open Opener) *Command {
	root := &Command{
		Name:        "snooze-admin",
		Description: "snooze administration",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("snooze-admin", flag.ContinueOnError),
		out:         os.Stdout,
	}

	root.Subcommands["create-staff"] = newCreateStaffCommand(open)
	root.Subcommands["promote"] = newPromoteCommand(open)
	root.Subcommands["migrate"] = newMigrateCommand(open)
	root.Subcommands["token"] = newTokenCommand(open)

	return root
}

// Execute runs the command with the process arguments
func (c *Command) Execute() error {
	return c.ExecuteArgs(os.Args[1:])
}

// ExecuteArgs dispatches args to a subcommand
func (c *Command) ExecuteArgs(args []string) error {
	if len(args) == 0 {
		return c.usage()
	}

	// Check for help flag
	switch strings.ToLower(args[0]) {
	case "-h", "--help", "help":
		return c.usage()
	}

	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the command usage
func (c *Command) usage() error {
	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(c.out, "Usage: %s <command> [args]\n\n", c.Name)
	fmt.Fprintf(c.out, "Commands:\n")
	for _, name := range names {
		fmt.Fprintf(c.out, "  %-15s %s\n", name, c.Subcommands[name].Description)
	}
	return nil
}
