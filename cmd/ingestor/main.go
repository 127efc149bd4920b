package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/config"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/database"
	httpHandlers "github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/http"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/service"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	db, err := database.Connect(config.DBDSN())
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	svcs := service.New(db)

	opts := mqtt.NewClientOptions().AddBroker(config.MQTTBroker()).SetClientID(config.MQTTClientID() + "-ingestor")
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	ingest := func(fn func(string, []byte) error) mqtt.MessageHandler {
		return func(_ mqtt.Client, msg mqtt.Message) {
			if err := fn(msg.Topic(), msg.Payload()); err != nil {
				log.Error().Err(err).Str("topic", msg.Topic()).Msg("ingest failed")
			}
		}
	}

	topic, eventTopic := config.MQTTStateTopic(), config.MQTTEventTopic()
	if token := client.Subscribe(topic, 1, ingest(svcs.Snapshots.FromMQTT)); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("subscribe failed")
	}
	if token := client.Subscribe(eventTopic, 1, ingest(svcs.Snapshots.EventFromMQTT)); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("subscribe failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := fiber.New()
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	httpHandlers.RegisterHistory(app, svcs.Repos)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return app.Shutdown()
	})
	addr := config.HistoryAddr()
	g.Go(func() error {
		log.Info().Str("topic", topic).Str("event_topic", eventTopic).Str("addr", addr).Msg("ingestor running; Ctrl+C to stop")
		return app.Listen(addr)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("ingestor exit")
	}
}
