package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/config"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/engine"
	httpHandlers "github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/http"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/service"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/simulation"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	maintenanceCheckInterval = time.Hour
	shutdownTimeout          = 10 * time.Second
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	scenario, err := domain.ParseScenario(config.SimScenario())
	if err != nil {
		log.Fatal().Err(err).Msg("bad SIM_SCENARIO")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dash, err := service.NewDashboard(engine.Config{
		BaseInterval:  config.SimBaseInterval(),
		EventInterval: config.SimEventInterval(),
		Rand:          simulation.NewRand(config.SimSeed()),
		Logger:        log.Logger,
	}, config.SimSpeed(), scenario)
	if err != nil {
		log.Fatal().Err(err).Msg("dashboard init failed")
	}

	cloudSvcs, err := service.ConnectCloud(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("cloud init failed")
	}

	maint := &service.MaintenanceService{
		FailureRatePerYear: config.PumpFailureRate(),
		RatedHours:         config.PumpRatedHours(),
		ServiceInterval:    config.PumpServiceInterval(),
		LastService:        config.PumpLastService(),
	}

	g, ctx := errgroup.WithContext(ctx)

	app := fiber.New()
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	httpHandlers.Register(app, httpHandlers.Deps{
		Dashboard:   dash,
		Maintenance: maint,
		Reports:     cloudSvcs.Reports(),
		Done:        ctx.Done(),
	})

	g.Go(func() error { return dash.Driver.Run(ctx) })

	if cloudSvcs != nil {
		notifier := cloudSvcs.Notifier(log.Logger)
		unsubscribe := dash.Subscribe(notifier.Observe)
		defer unsubscribe()
		g.Go(func() error { return notifier.Run(ctx) })
	}

	usage := &service.UsageMonitor{}
	checkUsage := func() {
		raised, err := usage.Check(dash.GetState(), dash)
		if err != nil {
			log.Error().Err(err).Msg("usage check failed")
			return
		}
		if raised {
			log.Info().Msg("high usage alert raised")
		}
	}
	checkUsage()

	g.Go(func() error {
		t := time.NewTicker(maintenanceCheckInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				pred, raised, err := maint.Check(dash.GetState(), dash)
				if err != nil {
					log.Error().Err(err).Msg("maintenance check failed")
				} else if raised {
					log.Info().Float64("risk_30d", pred.FailureRisk30Days).Msg("maintenance alert raised")
				}
				checkUsage()
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	addr := config.APIAddr()
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("api listening")
		return app.Listen(addr)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server exit")
	}
}
