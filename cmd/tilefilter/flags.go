package main

import (
	"github.com/spf13/pflag"
)

type cliFlags struct {
	configFile  string
	envFile     string
	showVersion bool

	command    string
	input      string
	output     string
	workers    int
	onError    string
	layers     []string
	zooms      []uint
	strictExit bool
	tileEnv    bool
	logLevel   string
}

func newFlagSet(f *cliFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet("tilefilter", pflag.ContinueOnError)
	fs.StringVarP(&f.configFile, "config", "c", "", "path to config.yml")
	fs.StringVar(&f.envFile, "env", "", "path to .env file")
	fs.BoolVar(&f.showVersion, "version", false, "print version and exit")

	fs.StringVarP(&f.command, "command", "e", "", "shell command that filters each layer")
	fs.StringVarP(&f.input, "input", "i", "", "input tile directory or .mbtiles file")
	fs.StringVarP(&f.output, "output", "o", "", "output tile directory or .mbtiles file")
	fs.IntVarP(&f.workers, "workers", "j", 0, "tiles processed concurrently")
	fs.StringVar(&f.onError, "on-error", "", "abort or skip when a tile fails")
	fs.StringSliceVarP(&f.layers, "layer", "l", nil, "only filter these layers (repeatable)")
	fs.UintSliceVarP(&f.zooms, "zoom", "z", nil, "only process these zoom levels (repeatable)")
	fs.BoolVar(&f.strictExit, "strict-exit", false, "fail when the filter exits non-zero")
	fs.BoolVar(&f.tileEnv, "tile-env", false, "export TILE_Z, TILE_X, TILE_Y and TILE_LAYER to the filter")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	return fs
}

// apply copies flags the user set onto cfg so they win over file and env.
func (f *cliFlags) apply(fs *pflag.FlagSet, cfg *AppConfig) {
	fs.Visit(func(fl *pflag.Flag) {
		switch fl.Name {
		case "command":
			cfg.Filter.Command = f.command
		case "input":
			cfg.Run.Input = f.input
		case "output":
			cfg.Run.Output = f.output
		case "workers":
			cfg.Run.Workers = f.workers
		case "on-error":
			cfg.Run.OnError = f.onError
		case "layer":
			cfg.Run.Layers = f.layers
		case "zoom":
			cfg.Run.Zooms = cfg.Run.Zooms[:0]
			for _, z := range f.zooms {
				cfg.Run.Zooms = append(cfg.Run.Zooms, uint32(z))
			}
		case "strict-exit":
			cfg.Filter.StrictExit = f.strictExit
		case "tile-env":
			cfg.Filter.ExportTileEnv = f.tileEnv
		case "log-level":
			cfg.Logging.Level = f.logLevel
		}
	})
}
