// Command tilefilter pipes every layer of every vector tile through a shell
// command speaking newline-delimited GeoJSON and writes the filtered tiles.
//
//	tilefilter -i planet.mbtiles -o filtered.mbtiles -e "jq -c 'select(.properties.class != \"path\")'"
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/kbukum/tilefilter/bootstrap"
	"github.com/kbukum/tilefilter/config"
	"github.com/kbukum/tilefilter/filter"
	"github.com/kbukum/tilefilter/logger"
	"github.com/kbukum/tilefilter/observability"
	"github.com/kbukum/tilefilter/runner"
	"github.com/kbukum/tilefilter/tilestore"
	"github.com/kbukum/tilefilter/version"
)

const serviceName = "tilefilter"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var flags cliFlags
	fs := newFlagSet(&flags)
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}
	if flags.showVersion {
		fmt.Println(serviceName, version.Get().String())
		return 0
	}

	cfg, err := loadConfig(fs, &flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tilefilter: %v\n", err)
		return 2
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tilefilter: %v\n", err)
		return 2
	}

	if err := app.RunTask(context.Background(), func(ctx context.Context) error {
		return process(ctx, app)
	}); err != nil {
		app.Logger.Error("tilefilter failed", logger.Fields(logger.FieldError, err.Error()))
		return 1
	}
	return 0
}

func loadConfig(fs *pflag.FlagSet, flags *cliFlags) (*AppConfig, error) {
	var opts []config.LoaderOption
	if flags.configFile != "" {
		opts = append(opts, config.WithConfigFile(flags.configFile))
	}
	if flags.envFile != "" {
		opts = append(opts, config.WithEnvFile(flags.envFile))
	}

	cfg := &AppConfig{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	flags.apply(fs, cfg)
	return cfg, nil
}

func process(ctx context.Context, app *bootstrap.App[*AppConfig]) error {
	cfg := app.Cfg

	shutdown, err := observability.Setup(ctx, cfg.Observability, app.Name, app.Version)
	if err != nil {
		return err
	}
	app.OnStop(shutdown)

	metrics, err := observability.NewMetrics(observability.Meter(serviceName))
	if err != nil {
		return err
	}

	f, err := filter.New(cfg.Filter, filter.WithMetrics(metrics))
	if err != nil {
		return err
	}
	r, err := runner.New(cfg.Run, f, runner.WithMetrics(metrics), runner.WithLogger(app.Logger.WithComponent("runner")))
	if err != nil {
		return err
	}

	src, err := tilestore.OpenSource(cfg.Run.Input)
	if err != nil {
		return err
	}
	defer src.Close()

	sink, err := tilestore.CreateSink(cfg.Run.Output)
	if err != nil {
		return err
	}

	s := app.Summary
	s.Setting("command", cfg.Filter.Command)
	s.Setting("input", cfg.Run.Input)
	s.Setting("output", cfg.Run.Output)
	s.Setting("workers", cfg.Run.Workers)
	s.Setting("on_error", cfg.Run.OnError)

	stats, runErr := r.Run(ctx, src, sink)
	s.Count("read", stats.Read)
	s.Count("filtered", stats.Filtered)
	s.Count("copied", stats.Copied)
	s.Count("skipped", stats.Skipped)

	if err := sink.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
