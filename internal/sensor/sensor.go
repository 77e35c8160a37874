// Package sensor simulates a LoRa node that buffers readings and sends
// them as one multi-sample frame per interval.
package sensor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"lorasense/internal/config"
	"lorasense/internal/formatter"
	"lorasense/internal/frame"
)

type Publisher interface {
	Publish(topic string, data []byte) error
}

// walk is a bounded random walk rounded to the frame resolution.
type walk struct {
	value    float64
	step     float64
	min, max float64
	divisor  float64
}

func (w *walk) next(r *rand.Rand) float64 {
	w.value += (r.Float64()*2 - 1) * w.step
	w.value = math.Max(w.min, math.Min(w.max, w.value))
	return math.Round(w.value*w.divisor) / w.divisor
}

// Node produces frames for one simulated device.
type Node struct {
	devEUI  string
	devAddr string
	samples int
	// window is the emission field written in multi-sample frames.
	window uint16
	rng    *rand.Rand
	series []series
}

type series struct {
	t frame.MeasurementType
	w *walk
}

func NewNode(cfg config.Simulator, seed uint64) *Node {
	n := &Node{
		devEUI:  cfg.DeviceEUI,
		devAddr: cfg.DevAddr,
		samples: cfg.Samples,
		window:  uint16(math.Round(cfg.Interval.Minutes())),
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	add := func(t frame.MeasurementType, w *walk) {
		w.divisor = t.Divisor()
		n.series = append(n.series, series{t: t, w: w})
	}
	add(frame.Temperature, &walk{value: 21, step: 0.3, min: 0, max: 60})
	add(frame.Voltage, &walk{value: 3.6, step: 0.01, min: 3.0, max: 4.2})
	add(frame.Current, &walk{value: 1.2, step: 0.05, min: 0, max: 10})
	return n
}

// NextFrame returns the hex payload of the next transmission.
func (n *Node) NextFrame() (string, error) {
	in := frame.EncodeInput{PacketKind: 0xA, EmissionWindow: n.window}
	for _, s := range n.series {
		values := make([]float64, n.samples)
		for i := range values {
			values[i] = s.w.next(n.rng)
		}
		in.Segments = append(in.Segments, frame.EncodeSegment{Type: s.t, Values: values})
	}
	return frame.Encode(in)
}

// NextUplink wraps the next frame the way the network server does.
func (n *Node) NextUplink(topic string) (formatter.Uplink, error) {
	payload, err := n.NextFrame()
	if err != nil {
		return formatter.Uplink{}, err
	}
	return formatter.Uplink{
		Payload: payload,
		RawData: formatter.RawData{DevEUI: n.devEUI, DevAddr: n.devAddr},
		Topic:   topic,
	}, nil
}

// Run publishes one uplink per interval until ctx is done.
func Run(ctx context.Context, cfg config.Simulator, node *Node, pub Publisher) error {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	sequence := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			u, err := node.NextUplink(cfg.UplinkTopic)
			if err != nil {
				return fmt.Errorf("build uplink: %w", err)
			}
			data, err := json.Marshal(u)
			if err != nil {
				return fmt.Errorf("marshal uplink: %w", err)
			}
			sequence++
			if err := pub.Publish(cfg.UplinkTopic, data); err != nil {
				slog.Warn("publish uplink failed", "sequence", sequence, "error", err)
				continue
			}
			slog.Info("uplink sent", "sequence", sequence, "dev_eui", u.RawData.DevEUI, "payload", u.Payload)
		}
	}
}
