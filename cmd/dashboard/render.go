package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/axelarscope/dashboard/app/dashboard"
	"github.com/axelarscope/dashboard/pkg/catalog"
	"github.com/axelarscope/dashboard/pkg/logging"
	"github.com/axelarscope/dashboard/pkg/pages"
	"github.com/axelarscope/dashboard/pkg/termrender"
	"github.com/axelarscope/dashboard/pkg/warehouse/clickhouse"
)

// paramFlags are the page parameters shared by render and sql.
type paramFlags struct {
	start   string
	end     string
	bucket  string
	filters []string
}

func (f *paramFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "first day, YYYY-MM-DD (page default when empty)")
	cmd.Flags().StringVar(&f.end, "end", "", "last day, YYYY-MM-DD (page default when empty)")
	cmd.Flags().StringVar(&f.bucket, "bucket", "", "time bucket: day, week or month")
	cmd.Flags().StringSliceVar(&f.filters, "filter", nil, "contract address to match (repeatable)")
}

func (f *paramFlags) params() (catalog.Params, error) {
	var p catalog.Params
	var err error
	if f.start != "" {
		if p.Start, err = catalog.ParseDate("start", f.start); err != nil {
			return p, err
		}
	}
	if f.end != "" {
		if p.End, err = catalog.ParseDate("end", f.end); err != nil {
			return p, err
		}
	}
	if f.bucket != "" {
		if p.Bucket, err = catalog.ParseBucket(f.bucket); err != nil {
			return p, err
		}
	}
	p.Filters = f.filters
	return p, nil
}

func newRenderCmd() *cobra.Command {
	var (
		flags   paramFlags
		maxRows int
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "render <page>",
		Short: "Run a dashboard page against the warehouse and print it as tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}
			p, err := flags.params()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := logging.NewStderr("dashboard-cli")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			wh, err := clickhouse.New(ctx, logger.Named("warehouse"), clickhouse.ConfigFromEnv())
			if err != nil {
				return fmt.Errorf("connect to warehouse: %w", err)
			}
			app, err := dashboard.Build(logger, wh)
			if err != nil {
				_ = wh.Close()
				return err
			}
			defer app.Close()

			res, err := app.Runner.Run(ctx, args[0], p)
			if err != nil {
				return err
			}
			if err := termrender.Render(os.Stdout, res, termrender.Options{MaxRows: maxRows}); err != nil {
				return err
			}
			if res.Failed > 0 {
				return fmt.Errorf("%d of %d panels failed", res.Failed, len(res.Panels))
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&maxRows, "max-rows", 25, "rows per table, 0 for all")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}

func newSQLCmd() *cobra.Command {
	var flags paramFlags

	cmd := &cobra.Command{
		Use:   "sql <query>",
		Short: "Print the SQL a catalog query renders to, with page defaults for unset flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.params()
			if err != nil {
				return err
			}
			cat, err := catalog.New()
			if err != nil {
				return err
			}
			if page, ok := pages.Builtin().PageFor(args[0]); ok {
				p = page.WithDefaults(p)
			}
			sql, err := cat.Render(args[0], p)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sql)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
