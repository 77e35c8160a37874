package mqtt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"lorasense/internal/config"
)

func testClient() *Client {
	cfg := config.Config{
		MQTTBroker:      "127.0.0.1",
		MQTTPort:        1,
		MQTTClientID:    "test",
		MQTTUplinkTopic: "lora/+/uplink",
		MQTTQoS:         1,
	}
	return NewClient(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBrokerURL(t *testing.T) {
	got := BrokerURL(config.Config{MQTTBroker: "mosquitto", MQTTPort: 1883})
	if got != "tcp://mosquitto:1883" {
		t.Errorf("BrokerURL = %q", got)
	}
}

func TestPublish_NotConnected(t *testing.T) {
	c := testClient()
	if err := c.Publish("lora/formatted", []byte("{}")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish error = %v, want ErrNotConnected", err)
	}
	if c.IsConnected() {
		t.Error("IsConnected = true before Connect")
	}
}

func TestConnect_AfterDisconnect(t *testing.T) {
	c := testClient()
	c.Disconnect()
	c.Disconnect()
	if err := c.Connect(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Connect error = %v, want ErrStopped", err)
	}
}

func TestConnect_ContextCanceled(t *testing.T) {
	c := testClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Connect(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Connect error = %v, want context.Canceled", err)
	}
}
