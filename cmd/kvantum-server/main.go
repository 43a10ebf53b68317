package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/kvantum-go/internal/infra/buildinfo"
)

func main() {
	app := &cli.App{
		Name:    "kvantum-server",
		Usage:   "connection acceptor and dispatcher",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML configuration file",
				EnvVars: []string{"KVANTUM_CONFIG"},
			},
			&cli.StringFlag{Name: "listen", Usage: "connection listener address"},
			&cli.StringFlag{Name: "admin", Usage: "admin HTTP address"},
			&cli.StringFlag{Name: "socket", Usage: "local management socket path"},
			&cli.IntFlag{Name: "workers", Usage: "worker pool size"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.BoolFlag{Name: "debug", Usage: "log every accepted connection"},
		},
		Action: func(c *cli.Context) error {
			return run(c.Context, c.String("config"), flagOverrides(c))
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// flagOverrides maps explicitly set flags onto configuration keys.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := make(map[string]any)
	if c.IsSet("listen") {
		overrides["server.listen.addr"] = c.String("listen")
	}
	if c.IsSet("admin") {
		overrides["server.admin.addr"] = c.String("admin")
		overrides["server.admin.enabled"] = true
	}
	if c.IsSet("socket") {
		overrides["server.local.path"] = c.String("socket")
		overrides["server.local.enabled"] = true
	}
	if c.IsSet("workers") {
		overrides["workers.size"] = c.Int("workers")
	}
	if c.IsSet("log-level") {
		overrides["log.level"] = c.String("log-level")
	}
	if c.IsSet("debug") {
		overrides["debug"] = c.Bool("debug")
	}
	return overrides
}
