package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Simulator configures cmd/simulator. It shares the broker and logging
// settings of the formatter.
type Simulator struct {
	Config

	UplinkTopic string
	DeviceEUI   string
	DevAddr     string
	Interval    time.Duration
	// Samples is the number of samples packed in each frame (1..16).
	Samples int
}

func LoadSimulatorFromEnv() (Simulator, error) {
	base, err := LoadFromEnv()
	if err != nil {
		return Simulator{}, err
	}
	if strings.TrimSpace(os.Getenv("MQTT_CLIENT_ID")) == "" {
		base.MQTTClientID = "lorasense-simulator"
	}

	intervalStr := envOr("SIM_INTERVAL", "10s")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return Simulator{}, fmt.Errorf("invalid SIM_INTERVAL %q: %w", intervalStr, err)
	}
	if interval <= 0 {
		return Simulator{}, fmt.Errorf("SIM_INTERVAL must be positive, got %v", interval)
	}

	samplesStr := envOr("SIM_SAMPLES", "4")
	samples, err := strconv.Atoi(samplesStr)
	if err != nil {
		return Simulator{}, fmt.Errorf("invalid SIM_SAMPLES %q: %w", samplesStr, err)
	}
	if samples < 1 || samples > 16 {
		return Simulator{}, fmt.Errorf("SIM_SAMPLES must be in 1..16, got %d", samples)
	}

	return Simulator{
		Config:      base,
		UplinkTopic: envOr("SIM_UPLINK_TOPIC", "lora/sim/uplink"),
		DeviceEUI:   envOr("SIM_DEVICE_EUI", "70B3D57ED0000001"),
		DevAddr:     envOr("SIM_DEVADDR", "260B0001"),
		Interval:    interval,
		Samples:     samples,
	}, nil
}
