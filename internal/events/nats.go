package events

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nats-io/nats.go"
)

var _ Bus = NATSBus{}

type NATSBus struct {
	nats *nats.Conn
	js   nats.JetStreamContext
	log  *slog.Logger
}

func NewNATSBus(addr string, logger *slog.Logger) (*NATSBus, error) {

	opts := []nats.Option{
		// Identification: makes debugging on the NATS dashboard easier
		nats.Name("authoring-service"),

		// Never give up trying to reconnect (default is 60 attempts)
		nats.MaxReconnects(-1),

		// Don't spam the server between attempts
		nats.ReconnectWait(3 * time.Second),

		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected! Buffering messages...", "error", err)
		}),

		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected successfully!", "url", nc.ConnectedUrl())
		}),

		// If the connection is permanently dead (e.g. auth failure),
		// kill the app so the orchestrator restarts it with fresh state.
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Error("NATS connection closed permanently. Exiting process.")
			os.Exit(1)
		}),
	}
	nc, err := nats.Connect(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create nats client: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}

	return &NATSBus{
		nats: nc,
		js:   js,
		log:  logger,
	}, nil
}

func (b NATSBus) Publish(subject string, data []byte, msgId string) error {
	b.log.Debug("Publishing event", "subject", subject, "data_size", len(data))

	_, err := b.js.Publish(subject, data, nats.MsgId(msgId))
	return err
}

func (b NATSBus) Drain() error {
	b.log.Info("Draining events")
	return b.nats.Drain()
}

func (b NATSBus) Close() {
	b.log.Info("Closing NATS connection")
	b.nats.Close()
}
