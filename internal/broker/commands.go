package broker

import (
	"encoding/json"
	"fmt"

	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/store"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// Dispatcher accepts decoded transitions.
type Dispatcher interface {
	Dispatch(t store.Transition) error
}

// ListenCommands subscribes to topic and dispatches every message as a
// transition envelope. Bad messages are logged and skipped.
func ListenCommands(client Client, topic string, d Dispatcher, logger zerolog.Logger) error {
	handler := func(_ mqtt.Client, msg mqtt.Message) {
		if err := HandleCommand(msg.Payload(), d); err != nil {
			logger.Warn().Err(err).Str("topic", msg.Topic()).Msg("command rejected")
		}
	}
	if token := client.Subscribe(topic, 1, handler); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	logger.Info().Str("topic", topic).Msg("listening for commands")
	return nil
}

func HandleCommand(payload []byte, d Dispatcher) error {
	var env store.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("decode command: %w", err)
	}
	t, err := store.Decode(env)
	if err != nil {
		return err
	}
	return d.Dispatch(t)
}
