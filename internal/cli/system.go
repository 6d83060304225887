package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"freeradical-go/pkg/freeradical"

	"github.com/spf13/cobra"
)

func (a *App) searchCommand() *cobra.Command {
	var resources string
	var opts freeradical.PaginationOptions
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search pages, modules and media",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.client().SearchWithOptions(cmd.Context(), freeradical.SearchOptions{
				Query:             strings.Join(args, " "),
				Resources:         splitList(resources),
				PaginationOptions: opts,
			})
			if err != nil {
				return err
			}
			a.info("%s found", plural(resp.Total, "result"))
			tw := a.table()
			for _, hit := range resp.Results {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", hit.ResourceType, hit.ID, hit.Title, hit.Snippet)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&resources, "resources", "", "comma separated: pages,modules,media")
	paginationFlags(cmd, &opts)
	return cmd
}

func (a *App) webhooksCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "webhooks", Short: "Inspect and test webhooks"}
	list := &cobra.Command{
		Use:   "list",
		Short: "List webhooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hooks, err := a.client().ListWebhooks(cmd.Context())
			if err != nil {
				return err
			}
			tw := a.table()
			fmt.Fprintln(tw, "ID\tACTIVE\tURL\tEVENTS")
			for _, h := range hooks {
				events := make([]string, 0, len(h.Events))
				for _, e := range h.Events {
					events = append(events, string(e))
				}
				fmt.Fprintf(tw, "%d\t%t\t%s\t%s\n", h.ID, h.Active, h.URL, strings.Join(events, ","))
			}
			return tw.Flush()
		},
	}
	test := &cobra.Command{
		Use:   "test <id>",
		Short: "Send a test delivery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid webhook id %q", args[0])
			}
			result, err := a.client().TestWebhook(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.printJSON(result)
		},
	}
	cmd.AddCommand(list, test)
	return cmd
}

func (a *App) healthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the API health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			health, err := a.client().Health(cmd.Context())
			if err != nil {
				return err
			}
			a.success("%s is healthy", a.client().BaseURL())
			return a.printJSON(health)
		},
	}
}

// metricLine is the subset of a metric sample the watch view prints.
type metricLine struct {
	CapturedAt       time.Time `json:"captured_at"`
	SystemCPULoad    float64   `json:"system_cpu_load"`
	ProcessCPULoad   float64   `json:"process_cpu_load"`
	SystemMemoryUsed int64     `json:"system_memory_used_bytes"`
	HeapUsedBytes    int64     `json:"heap_used_bytes"`
}

func (a *App) metricsCommand() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show server metrics, or stream them with --watch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !watch {
				metrics, err := a.client().Metrics(cmd.Context())
				if err != nil {
					return err
				}
				return a.printJSON(metrics)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			a.info("Streaming metrics, Ctrl-C to stop")
			return a.client().WatchMetrics(ctx, func(raw json.RawMessage) error {
				return a.printMetricLine(raw)
			})
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "stream samples over the websocket")
	return cmd
}

func (a *App) printMetricLine(raw json.RawMessage) error {
	var line metricLine
	if err := json.Unmarshal(raw, &line); err != nil {
		a.warn("Unreadable sample: %v", err)
		return nil
	}
	_, err := fmt.Fprintf(a.Out, "%s  cpu %5.1f%%  proc %5.1f%%  mem %s  rss %s\n",
		line.CapturedAt.Local().Format("15:04:05"),
		line.SystemCPULoad*100, line.ProcessCPULoad*100,
		humanBytes(line.SystemMemoryUsed), humanBytes(line.HeapUsedBytes))
	return err
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
