package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/kvantum-go/internal/cli/connection"
	"github.com/yndnr/kvantum-go/internal/cli/output"
	"github.com/yndnr/kvantum-go/internal/infra/buildinfo"
	"github.com/yndnr/kvantum-go/internal/server/config"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "kvantum-cli",
		Usage:   "kvantum-server management tool",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			StatusCommand(),
			HealthCommand(),
			FiltersCommand(),
			ConnectionsCommand(),
			LogLevelCommand(),
			ShutdownCommand(),
		},
		Before: func(c *cli.Context) error {
			_, err := output.ParseFormat(c.String("output"))
			return err
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "socket",
			Aliases: []string{"s"},
			Usage:   "path of the server's local management socket",
			EnvVars: []string{"KVANTUM_SOCKET"},
			Value:   config.DefaultLocalSocket,
		},
		&cli.StringFlag{
			Name:    "admin",
			Aliases: []string{"a"},
			Usage:   "admin HTTP address (e.g. 127.0.0.1:7080); used by status and health instead of the socket",
			EnvVars: []string{"KVANTUM_ADMIN"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "show wide output (more columns)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "request timeout",
			Value: 10 * time.Second,
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Socket  string
	Admin   string
	Output  output.Format
	Wide    bool
	Timeout time.Duration
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	format, _ := output.ParseFormat(c.String("output"))
	return &GlobalFlags{
		Socket:  c.String("socket"),
		Admin:   c.String("admin"),
		Output:  format,
		Wide:    c.Bool("wide"),
		Timeout: c.Duration("timeout"),
	}
}

func socketClient(c *cli.Context) *connection.SocketClient {
	flags := ParseGlobalFlags(c)
	return connection.NewSocketClient(flags.Socket, flags.Timeout)
}

func httpClient(c *cli.Context) *connection.HTTPClient {
	flags := ParseGlobalFlags(c)
	return connection.NewHTTPClient(flags.Admin, flags.Timeout)
}

func requestContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context, ParseGlobalFlags(c).Timeout)
}

func writer(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

// render writes data in the selected format. table renders the table view
// when non-nil; otherwise the generic table formatter is used.
func render(c *cli.Context, data any, table func() *output.Table) error {
	flags := ParseGlobalFlags(c)
	if flags.Output == output.FormatTable && table != nil {
		return table().Render(writer(c))
	}
	return output.NewFormatter(flags.Output, flags.Wide).Format(writer(c), data)
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
