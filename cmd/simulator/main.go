package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/broker"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/config"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/engine"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/service"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/simulation"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
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

	opts := mqtt.NewClientOptions().AddBroker(config.MQTTBroker()).SetClientID(config.MQTTClientID())
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	publisher := broker.NewPublisher(client, config.MQTTStateTopic(), config.MQTTEventTopic(), log.Logger)
	publisher.Observe(dash.GetState())
	defer dash.Subscribe(publisher.Observe)()

	if err := broker.ListenCommands(client, config.MQTTCommandTopic(), dash, log.Logger); err != nil {
		log.Fatal().Err(err).Msg("subscribe failed")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return dash.Driver.Run(ctx) })
	g.Go(func() error { return publisher.Run(ctx) })

	cloudSvcs, err := service.ConnectCloud(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("cloud init failed")
	}
	if cloudSvcs != nil {
		notifier := cloudSvcs.Notifier(log.Logger)
		defer dash.Subscribe(notifier.Observe)()
		g.Go(func() error { return notifier.Run(ctx) })
	}

	log.Info().Str("broker", config.MQTTBroker()).Msg("simulator running; Ctrl+C to stop")
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("simulator exit")
	}
	log.Info().Msg("simulation done")
}
