// Package bootstrap runs a finite task with the process lifecycle around
// it: configuration defaults and validation, logger setup, start and stop
// hooks, and cancellation on SIGINT/SIGTERM.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.OnStop(shutdownTelemetry)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return run(ctx)
//	})
package bootstrap
