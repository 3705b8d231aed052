package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/dthelegend/diss/internal/api"
	"github.com/dthelegend/diss/internal/logger"
	"github.com/dthelegend/diss/internal/metrics"
	"github.com/dthelegend/diss/internal/reduce"
	"github.com/dthelegend/diss/internal/solver"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
	)

	flags := append(deviceFlags(), solverFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "listen address",
			Value:       "127.0.0.1:8080",
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "read-timeout",
			Usage:       "read header timeout",
			Value:       30 * time.Second,
			Destination: &readTimeout,
		},
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the QUBO REST API",
		Flags: flags,
		Action: withConfig(func(ctx context.Context, cmd *cli.Command, cfg Config) (err error) {
			applyDeviceConfig(cmd, cfg)
			applySolverConfig(cmd, cfg)
			applyServeConfig(cmd, cfg, &addr)
			log := logger.FromContext(ctx)
			if _, err := reduce.New(reductionName); err != nil {
				return err
			}

			rt, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer closeRuntime(rt, &err)

			server := api.NewServer(api.Config{
				Runtime:   rt,
				Backend:   rt.Name(),
				Solver:    solverName,
				Reduction: reductionName,
				Defaults: solver.Options{
					BatchSize:  int(batchSize),
					Iterations: int(iterations),
					Restarts:   int(restarts),
					Seed:       seed,
				},
				Metrics: metrics.New(),
				Logger:  log,
			}, api.NewSolveStore())

			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "backend", rt.Name())
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		}),
	}
}
