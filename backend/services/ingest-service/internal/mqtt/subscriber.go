package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"tankwatch/backend/services/ingest-service/internal/fuel"
	"tankwatch/backend/services/ingest-service/internal/service"
)

// Ingester consumes tanker readings.
type Ingester interface {
	Ingest(ctx context.Context, in service.TankerReading) (*service.TankerResult, error)
}

// Config holds broker connection settings.
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
}

// Subscriber feeds tanker readings published on the broker into the ingest pipeline.
// Topics look like tanker/<number_plate>/data.
type Subscriber struct {
	cfg      Config
	client   paho.Client
	ingester Ingester
	timeout  time.Duration
	logger   *zap.Logger
}

// NewSubscriber builds subscriber; Run connects it.
func NewSubscriber(cfg Config, ingester Ingester, logger *zap.Logger) *Subscriber {
	if cfg.Topic == "" {
		cfg.Topic = "tanker/+/data"
	}
	return &Subscriber{cfg: cfg, ingester: ingester, timeout: 15 * time.Second, logger: logger}
}

// Run connects, subscribes and blocks until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	opts := paho.NewClientOptions()
	opts.AddBroker(s.cfg.Broker)
	opts.SetClientID(s.cfg.ClientID)
	opts.SetUsername(s.cfg.Username)
	opts.SetPassword(s.cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		s.logger.Warn("mqtt connection lost", zap.Error(err))
	})
	opts.SetOnConnectHandler(func(c paho.Client) {
		// Subscriptions are lost on reconnect with a clean session.
		token := c.Subscribe(s.cfg.Topic, 1, s.handle(ctx))
		if token.Wait() && token.Error() != nil {
			s.logger.Error("mqtt subscribe failed", zap.String("topic", s.cfg.Topic), zap.Error(token.Error()))
			return
		}
		s.logger.Info("mqtt subscribed", zap.String("topic", s.cfg.Topic))
	})

	s.client = paho.NewClient(opts)
	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt: connect %s: %w", s.cfg.Broker, token.Error())
	}
	s.logger.Info("mqtt connected", zap.String("broker", s.cfg.Broker))

	<-ctx.Done()
	s.client.Disconnect(250)
	s.logger.Info("mqtt disconnected")
	return nil
}

func (s *Subscriber) handle(ctx context.Context) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		s.process(ctx, msg.Topic(), msg.Payload())
	}
}

func (s *Subscriber) process(ctx context.Context, topic string, payload []byte) {
	reading, err := ParseMessage(topic, payload)
	if err != nil {
		s.logger.Warn("dropping mqtt message", zap.String("topic", topic), zap.Error(err))
		return
	}

	ingestCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.ingester.Ingest(ingestCtx, reading)
	if err != nil {
		s.logger.Error("mqtt ingest failed", zap.String("device", reading.NumberPlate), zap.Error(err))
		return
	}
	s.logger.Debug("mqtt reading ingested", zap.String("device", res.NumberPlate), zap.String("status", string(res.Status)))
}

// ParseMessage extracts a reading from a tanker/<plate>/data message.
func ParseMessage(topic string, payload []byte) (service.TankerReading, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "tanker" || parts[2] != "data" || strings.TrimSpace(parts[1]) == "" {
		return service.TankerReading{}, fmt.Errorf("mqtt: unexpected topic %q", topic)
	}

	var body struct {
		Fuel      *float64 `json:"fuel"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return service.TankerReading{}, fmt.Errorf("mqtt: decode payload: %w", err)
	}
	if body.Fuel == nil || body.Latitude == nil || body.Longitude == nil {
		return service.TankerReading{}, errors.New("mqtt: fuel, latitude and longitude are required")
	}

	return service.TankerReading{
		NumberPlate: parts[1],
		Fuel:        *body.Fuel,
		Point:       fuel.Coordinate{Latitude: *body.Latitude, Longitude: *body.Longitude},
	}, nil
}
