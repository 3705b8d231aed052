package main

import (
	"github.com/urfave/cli/v3"

	"github.com/dthelegend/diss/internal/backend"
	"github.com/dthelegend/diss/internal/reduce"
	"github.com/dthelegend/diss/internal/solver"
)

var (
	configFile string
	logLevel   string
	logFormat  string
	debug      bool

	backendName   string
	deviceOrdinal int64
	memoryValues  int64
	workers       int64

	solverName string
	batchSize  int64
	iterations int64
	restarts   int64
	seed       uint64

	reductionName string
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default: $XDG_CONFIG_HOME/qubo/config.yaml)",
			Sources:     cli.EnvVars(envConfig),
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func deviceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "backend",
			Usage:       "device backend (auto, sim, cuda)",
			Value:       backend.Auto,
			Destination: &backendName,
		},
		&cli.Int64Flag{
			Name:        "device",
			Usage:       "cuda device ordinal",
			Destination: &deviceOrdinal,
		},
		&cli.Int64Flag{
			Name:        "sim-memory",
			Usage:       "simulated device memory in values",
			Destination: &memoryValues,
		},
		&cli.Int64Flag{
			Name:        "sim-workers",
			Usage:       "goroutines per simulated kernel launch (0 = GOMAXPROCS)",
			Destination: &workers,
		},
	}
}

func solverFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "solver",
			Aliases:     []string{"s"},
			Usage:       "solver (anneal, exhaustive)",
			Value:       solver.NameAnneal,
			Destination: &solverName,
		},
		&cli.Int64Flag{
			Name:        "batch-size",
			Usage:       "assignments per exhaustive kernel launch",
			Value:       solver.DefaultBatchSize,
			Destination: &batchSize,
		},
		&cli.Int64Flag{
			Name:        "iterations",
			Aliases:     []string{"n"},
			Usage:       "annealing steps per chain",
			Value:       solver.DefaultIterations,
			Destination: &iterations,
		},
		&cli.Int64Flag{
			Name:        "restarts",
			Usage:       "independent annealing chains",
			Value:       1,
			Destination: &restarts,
		},
		&cli.Uint64Flag{
			Name:        "seed",
			Usage:       "random seed (0 = random)",
			Destination: &seed,
		},
		reductionFlag(),
	}
}

func reductionFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "reduction",
		Usage:       "sat to qubo reduction (nusslein23, choi, chancellor)",
		Value:       reduce.NameNusslein23,
		Destination: &reductionName,
	}
}

func backendOptions() backend.Options {
	return backend.Options{
		Ordinal:      int(deviceOrdinal),
		MemoryValues: int(memoryValues),
		Workers:      int(workers),
	}
}
