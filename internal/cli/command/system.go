package command

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/kvantum-go/internal/cli/output"
	"github.com/yndnr/kvantum-go/internal/server/status"
)

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show acceptor, worker pool and filter status",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "connections",
				Aliases: []string{"c"},
				Usage:   "include live connections",
			},
		},
		Action: runStatus,
	}
}

func runStatus(c *cli.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	withConns := c.Bool("connections")
	var rep status.Report
	if ParseGlobalFlags(c).Admin != "" {
		path := "/status"
		if withConns {
			path += "?connections=true"
		}
		if err := httpClient(c).Get(ctx, path, &rep); err != nil {
			return err
		}
	} else {
		cmd := "status"
		if withConns {
			cmd += " connections"
		}
		if err := socketClient(c).Execute(ctx, cmd, &rep); err != nil {
			return err
		}
	}

	return render(c, rep, func() *output.Table { return statusTable(rep) })
}

func statusTable(rep status.Report) *output.Table {
	t := &output.Table{}
	t.SetHeaders("FIELD", "VALUE")
	t.AddRow("version", rep.Build.Version)
	t.AddRow("uptime", orDash(rep.Uptime))
	t.AddRow("shutting_down", strconv.FormatBool(rep.Acceptor.ShuttingDown))
	t.AddRow("active", strconv.Itoa(rep.Acceptor.Active))
	t.AddRow("accepted", u64(rep.Acceptor.Accepted))

	keys := make([]string, 0, len(rep.Acceptor.Rejected))
	for k := range rep.Acceptor.Rejected {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.AddRow("rejected["+k+"]", u64(rep.Acceptor.Rejected[k]))
	}

	t.AddRow("dropped", u64(rep.Acceptor.Dropped))
	t.AddRow("teardowns", u64(rep.Acceptor.Teardowns))
	t.AddRow("pipeline_failures", u64(rep.Acceptor.PipelineFailures))
	t.AddRow("workers", fmt.Sprintf("%d busy / %d", rep.Workers.Busy, rep.Workers.Size))
	t.AddRow("queued", strconv.Itoa(rep.Workers.Queued))
	t.AddRow("completed", u64(rep.Workers.Completed))

	for _, f := range rep.Filters {
		state := "disabled"
		if f.Enabled {
			state = "enabled"
		}
		t.AddRow("filter["+f.Key+"]", state)
	}
	for _, conn := range rep.Conns {
		t.AddRow("conn["+conn.ID+"]", conn.Remote)
	}
	return t
}

// HealthCommand returns the health command.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check liveness and readiness over the admin HTTP endpoint",
		Action: func(c *cli.Context) error {
			if ParseGlobalFlags(c).Admin == "" {
				return fmt.Errorf("health requires --admin")
			}
			ctx, cancel := requestContext(c)
			defer cancel()

			client := httpClient(c)
			result := map[string]string{"health": "ok", "ready": "ok"}
			if err := client.Get(ctx, "/health", nil); err != nil {
				result["health"] = err.Error()
			}
			if err := client.Get(ctx, "/ready", nil); err != nil {
				result["ready"] = err.Error()
			}
			if err := render(c, result, nil); err != nil {
				return err
			}
			if result["health"] != "ok" || result["ready"] != "ok" {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

// ShutdownCommand returns the shutdown command.
func ShutdownCommand() *cli.Command {
	return &cli.Command{
		Name:  "shutdown",
		Usage: "Ask the server to shut down gracefully",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "yes",
				Usage: "do not ask for confirmation",
			},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("yes") {
				return fmt.Errorf("refusing to shut down %s without --yes", ParseGlobalFlags(c).Socket)
			}
			ctx, cancel := requestContext(c)
			defer cancel()

			var reply map[string]string
			if err := socketClient(c).Execute(ctx, "shutdown", &reply); err != nil {
				return err
			}
			return render(c, reply, nil)
		},
	}
}

func u64(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
