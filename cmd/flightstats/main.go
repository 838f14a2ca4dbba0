// Airport dataset profiler and operation-duration analyzer
// Profiles airports and runways into sampling rules, and summarises timing logs
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/andrewh/flightstats/pkg/dataset"
	"github.com/andrewh/flightstats/pkg/oplog"
	"github.com/andrewh/flightstats/pkg/profile"
	"github.com/andrewh/flightstats/pkg/rules"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "flightstats",
		Short:        "Airport dataset profiler and operation-duration analyzer",
		SilenceUsage: true,
	}

	root.AddCommand(profileCmd())
	root.AddCommand(percentileCmd())
	root.AddCommand(durationsCmd())
	root.AddCommand(versionCmd())

	return root
}

type profileOptions struct {
	configPath string
	format     string
	rulesOnly  bool
	trace      bool
	telemetry  telemetryOptions
}

func profileCmd() *cobra.Command {
	var opts profileOptions

	cmd := &cobra.Command{
		Use:   "profile [dataset]",
		Short: "Profile an airport dataset and emit sampling rules",
		Long: "Profile an airport dataset and emit sampling rules.\n\n" +
			"The dataset can be a SQLite or DuckDB file, or a postgres:// DSN. Without an\n" +
			"argument, " + dataset.DefaultFile + " is looked up in $XDG_DATA_HOME/flight-planner,\n" +
			"~/.local/share/flight-planner and the current directory.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) == 1 {
				arg = args[0]
			}
			opts.telemetry.writer = cmd.ErrOrStderr()
			return runProfile(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), arg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "YAML settings file (quantiles, bands, top_n)")
	cmd.Flags().StringVar(&opts.format, "format", "yaml", "rule set format: yaml or json")
	cmd.Flags().BoolVar(&opts.rulesOnly, "rules-only", false, "print only the rule set, without the summary tables")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "export a span per dataset query")
	cmd.Flags().StringVar(&opts.telemetry.endpoint, "endpoint", "", "OTLP endpoint (e.g. localhost:4318)")
	cmd.Flags().StringVar(&opts.telemetry.protocol, "protocol", "http/protobuf", "OTLP protocol (http/protobuf or grpc)")
	cmd.Flags().BoolVar(&opts.telemetry.stdout, "stdout", false, "write telemetry to stderr as JSON instead of OTLP")

	return cmd
}

func runProfile(ctx context.Context, stdout, stderr io.Writer, arg string, opts profileOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	format, err := rules.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if err := validateProtocol(opts.telemetry.protocol); err != nil {
		return err
	}
	cfg, err := rules.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	source, err := dataset.Locate(arg, dataset.DefaultCandidates())
	if err != nil {
		return fmt.Errorf("%w\n\nUsage: flightstats profile [dataset]", err)
	}

	var storeOpts []dataset.Option
	if opts.trace {
		tp, err := newTracerProvider(ctx, opts.telemetry)
		if err != nil {
			return fmt.Errorf("creating tracer: %w", err)
		}
		defer shutdown([]shutdownable{tp})
		storeOpts = append(storeOpts, dataset.WithTracer(tp.Tracer("flightstats-dataset")))
	}

	var report *profile.Report
	err = dataset.With(ctx, source, func(s *dataset.Store) error {
		var aerr error
		report, aerr = profile.Analyze(ctx, s, profile.Options{
			Quantiles:   cfg.Quantiles,
			Placeholder: cfg.Placeholder,
			Filters:     cfg.Filters(),
		})
		return aerr
	}, storeOpts...)
	if err != nil {
		return err
	}

	set, err := rules.Compile(report, cfg, stderr)
	if err != nil {
		return err
	}
	data, err := rules.Marshal(set, format)
	if err != nil {
		return err
	}

	if !opts.rulesOnly {
		if err := profile.WriteSummary(stdout, report); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(stdout)
	}
	_, err = stdout.Write(data)
	return err
}

type percentileOptions struct {
	where     string
	trace     bool
	telemetry telemetryOptions
}

func percentileCmd() *cobra.Command {
	var opts percentileOptions

	cmd := &cobra.Command{
		Use:   "percentile <table.column> <p> [dataset]",
		Short: "Print one nearest-rank percentile of a numeric column",
		Long: "Print one nearest-rank percentile of a numeric column.\n\n" +
			"The column is qualified by its table, e.g. Runways.Length, and p is in [0,1).\n" +
			"--where restricts the rows with a predicate such as \"Length > 0\".",
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) == 3 {
				arg = args[2]
			}
			opts.telemetry.writer = cmd.ErrOrStderr()
			return runPercentile(cmd.Context(), cmd.OutOrStdout(), args[0], args[1], arg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.where, "where", "", "row predicate \"<column> <op> <integer>\"")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "export a span per dataset query")
	cmd.Flags().StringVar(&opts.telemetry.endpoint, "endpoint", "", "OTLP endpoint (e.g. localhost:4318)")
	cmd.Flags().StringVar(&opts.telemetry.protocol, "protocol", "http/protobuf", "OTLP protocol (http/protobuf or grpc)")
	cmd.Flags().BoolVar(&opts.telemetry.stdout, "stdout", false, "write telemetry to stderr as JSON instead of OTLP")

	return cmd
}

func parseQuery(column, where string) (dataset.Query, error) {
	tableName, colName, ok := strings.Cut(column, ".")
	if !ok {
		return dataset.Query{}, fmt.Errorf("%w: column %q must be qualified as <table>.<column>", dataset.ErrConfiguration, column)
	}
	table, err := dataset.ParseTable(tableName)
	if err != nil {
		return dataset.Query{}, err
	}
	col, err := dataset.ParseColumn(table, colName)
	if err != nil {
		return dataset.Query{}, err
	}
	return profile.FilteredQuery(col, where)
}

func runPercentile(ctx context.Context, stdout io.Writer, column, quantile, arg string, opts percentileOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := strconv.ParseFloat(quantile, 64)
	if err != nil {
		return fmt.Errorf("%w: quantile %q is not a number", dataset.ErrConfiguration, quantile)
	}
	q, err := parseQuery(column, opts.where)
	if err != nil {
		return err
	}
	if err := validateProtocol(opts.telemetry.protocol); err != nil {
		return err
	}
	source, err := dataset.Locate(arg, dataset.DefaultCandidates())
	if err != nil {
		return fmt.Errorf("%w\n\nUsage: flightstats percentile <table.column> <p> [dataset]", err)
	}

	var storeOpts []dataset.Option
	if opts.trace {
		tp, err := newTracerProvider(ctx, opts.telemetry)
		if err != nil {
			return fmt.Errorf("creating tracer: %w", err)
		}
		defer shutdown([]shutdownable{tp})
		storeOpts = append(storeOpts, dataset.WithTracer(tp.Tracer("flightstats-dataset")))
	}

	var v float64
	err = dataset.With(ctx, source, func(s *dataset.Store) error {
		var perr error
		v, perr = profile.NewEstimator(s).Percentile(ctx, q, p)
		return perr
	}, storeOpts...)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "%s\n", strconv.FormatFloat(v, 'f', -1, 64))
	return err
}

type durationsOptions struct {
	chart         bool
	output        string
	signals       string
	slowThreshold time.Duration
	telemetry     telemetryOptions
}

func durationsCmd() *cobra.Command {
	var opts durationsOptions

	cmd := &cobra.Command{
		Use:   "durations <log>",
		Short: "Summarise operation durations from a timing log",
		Long: "Summarise operation durations from a timing log.\n\n" +
			"Each line has the form \"<timestamp> - <operation> in <duration>\", e.g.\n" +
			"  2024-03-01T12:00:00Z - load airports in 3.2s\n" +
			"Malformed lines are skipped with a warning.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("missing log file\n\nUsage: flightstats durations <log>")
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("slow-threshold") && !strings.Contains(opts.signals, "logs") {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Warning: --slow-threshold has no effect without --signals logs")
			}
			opts.telemetry.writer = cmd.ErrOrStderr()
			return runDurations(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.chart, "chart", false, "render a bar chart of mean durations")
	cmd.Flags().StringVarP(&opts.output, "output", "o", defaultChartPath, "chart output file")
	cmd.Flags().StringVar(&opts.signals, "signals", "", "comma-separated signals to emit per entry: metrics,logs")
	cmd.Flags().DurationVar(&opts.slowThreshold, "slow-threshold", time.Second, "duration above which an entry is logged as slow")
	cmd.Flags().StringVar(&opts.telemetry.endpoint, "endpoint", "", "OTLP endpoint (e.g. localhost:4318)")
	cmd.Flags().StringVar(&opts.telemetry.protocol, "protocol", "http/protobuf", "OTLP protocol (http/protobuf or grpc)")
	cmd.Flags().BoolVar(&opts.telemetry.stdout, "stdout", false, "write telemetry to stderr as JSON instead of OTLP")

	return cmd
}

func runDurations(ctx context.Context, stdout, stderr io.Writer, path string, opts durationsOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.slowThreshold < 0 {
		return fmt.Errorf("--slow-threshold must be non-negative, got %s", opts.slowThreshold)
	}
	enabled, err := parseSignals(opts.signals)
	if err != nil {
		return err
	}
	if err := validateProtocol(opts.telemetry.protocol); err != nil {
		return err
	}

	f, err := os.Open(path) //nolint:gosec // user-supplied file path is expected
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	var (
		observers []oplog.Observer
		providers []shutdownable
	)
	defer func() { shutdown(providers) }()
	if enabled["metrics"] {
		mp, err := newMeterProvider(ctx, opts.telemetry)
		if err != nil {
			return fmt.Errorf("creating meter provider: %w", err)
		}
		providers = append(providers, mp)
		obs, err := oplog.NewMetricObserver(mp)
		if err != nil {
			return err
		}
		observers = append(observers, obs)
	}
	if enabled["logs"] {
		lp, err := newLoggerProvider(ctx, opts.telemetry)
		if err != nil {
			return fmt.Errorf("creating logger provider: %w", err)
		}
		providers = append(providers, lp)
		observers = append(observers, oplog.NewLogObserver(lp, opts.slowThreshold))
	}

	res, err := oplog.Analyze(f, oplog.Options{Warnings: stderr, Observers: observers})
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if len(res.Summaries) == 0 {
		_, _ = fmt.Fprintf(stderr, "no operations found in %s (%d lines, %d skipped)\n", path, res.Lines, res.Skipped)
		return nil
	}
	if err := oplog.WriteReport(stdout, res.Summaries); err != nil {
		return err
	}

	if opts.chart {
		if err := writeChart(opts.output, svgChart{title: "Mean operation duration (± std dev)"}, res.Summaries); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stderr, "Chart written to %s\n", opts.output)
	}
	return nil
}

func writeChart(path string, r ChartRenderer, summaries []oplog.Summary) error {
	f, err := os.Create(path) //nolint:gosec // user-supplied output path is expected
	if err != nil {
		return fmt.Errorf("creating chart file: %w", err)
	}
	if err := r.Render(f, summaries); err != nil {
		_ = f.Close()
		return fmt.Errorf("rendering chart: %w", err)
	}
	return f.Close()
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "flightstats %s (commit: %s, built: %s)\n", version, commit, buildTime)
		},
	}
}
