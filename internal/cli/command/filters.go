package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/kvantum-go/internal/cli/output"
	"github.com/yndnr/kvantum-go/internal/core/filter"
	"github.com/yndnr/kvantum-go/internal/server/acceptor"
)

// FiltersCommand returns the filters command.
func FiltersCommand() *cli.Command {
	return &cli.Command{
		Name:  "filters",
		Usage: "List the socket filter catalog and which filters are enabled",
		Action: func(c *cli.Context) error {
			ctx, cancel := requestContext(c)
			defer cancel()

			var statuses []filter.Status
			if err := socketClient(c).Execute(ctx, "filters", &statuses); err != nil {
				return err
			}
			return render(c, statuses, nil)
		},
	}
}

// ConnectionsCommand returns the connections command.
func ConnectionsCommand() *cli.Command {
	return &cli.Command{
		Name:    "connections",
		Aliases: []string{"conns"},
		Usage:   "List live connections",
		Action: func(c *cli.Context) error {
			ctx, cancel := requestContext(c)
			defer cancel()

			var conns []acceptor.ConnInfo
			if err := socketClient(c).Execute(ctx, "connections", &conns); err != nil {
				return err
			}
			if len(conns) == 0 && ParseGlobalFlags(c).Output == output.FormatTable {
				_, err := fmt.Fprintln(writer(c), "no live connections")
				return err
			}
			return render(c, conns, nil)
		},
	}
}

// LogLevelCommand returns the loglevel command.
func LogLevelCommand() *cli.Command {
	return &cli.Command{
		Name:      "loglevel",
		Usage:     "Show or change the server log level",
		ArgsUsage: "[debug|info|warn|error]",
		Action: func(c *cli.Context) error {
			if c.NArg() > 1 {
				return fmt.Errorf("expected at most one argument")
			}
			ctx, cancel := requestContext(c)
			defer cancel()

			cmd := "loglevel"
			if c.NArg() == 1 {
				cmd += " " + c.Args().First()
			}
			var reply map[string]string
			if err := socketClient(c).Execute(ctx, cmd, &reply); err != nil {
				return err
			}
			return render(c, reply, nil)
		},
	}
}
