// Package pipeline turns raw MQTT uplinks into published envelopes.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"lorasense/internal/deadletter"
	"lorasense/internal/formatter"
	"lorasense/internal/frame"
	"lorasense/internal/metrics"
)

type OutputMode string

const (
	// Split publishes one message per sample.
	Split OutputMode = "split"
	// Batch publishes all samples of a frame as one JSON array.
	Batch OutputMode = "batch"
)

type Publisher interface {
	Publish(topic string, data []byte) error
}

type Handler struct {
	formatter   *formatter.Formatter
	publisher   Publisher
	outputTopic string
	mode        OutputMode
	metrics     *metrics.Metrics
	deadLetters deadletter.Repository
	logger      *slog.Logger
}

type Options struct {
	Formatter   *formatter.Formatter
	Publisher   Publisher
	OutputTopic string
	Mode        OutputMode
	Metrics     *metrics.Metrics
	// DeadLetters may be nil, failures are then only logged and counted.
	DeadLetters deadletter.Repository
	Logger      *slog.Logger
}

func New(opts Options) *Handler {
	mode := opts.Mode
	if mode == "" {
		mode = Split
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		formatter:   opts.Formatter,
		publisher:   opts.Publisher,
		outputTopic: opts.OutputTopic,
		mode:        mode,
		metrics:     opts.Metrics,
		deadLetters: opts.DeadLetters,
		logger:      logger,
	}
}

// HandleUplink is the MQTT message callback. It never returns an error:
// failures end up in the logs, the metrics and the dead-letter store.
func (h *Handler) HandleUplink(topic string, payload []byte) {
	if _, err := h.Process(topic, payload); err != nil {
		h.logger.Warn("uplink dropped", "topic", topic, "reason", frame.Reason(err), "error", err)
	}
}

// Process formats and publishes one uplink and returns the envelopes sent.
func (h *Handler) Process(topic string, payload []byte) ([]formatter.Envelope, error) {
	var u formatter.Uplink
	if err := json.Unmarshal(payload, &u); err != nil {
		err = fmt.Errorf("parse uplink: %w", err)
		h.reject(topic, "", string(payload), err)
		return nil, err
	}
	if u.Topic == "" {
		u.Topic = topic
	}

	start := time.Now()
	envs, err := h.formatter.Format(u)
	took := time.Since(start)
	if err != nil {
		dev, _ := h.formatter.DeviceID(u)
		h.reject(topic, dev, u.Payload, err)
		return nil, err
	}

	if err := h.publish(envs); err != nil {
		if h.metrics != nil {
			h.metrics.PublishFailures.Inc()
		}
		return nil, err
	}
	if h.metrics != nil {
		h.metrics.ObserveDecode(len(envs), took)
	}
	h.logger.Debug("uplink formatted", "topic", topic, "samples", len(envs), "mode", string(h.mode))
	return envs, nil
}

func (h *Handler) publish(envs []formatter.Envelope) error {
	if h.mode == Batch {
		data, err := json.Marshal(envs)
		if err != nil {
			return fmt.Errorf("marshal batch: %w", err)
		}
		return h.publisher.Publish(h.outputTopic, data)
	}
	for i, env := range envs {
		data, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("marshal envelope %d: %w", i, err)
		}
		if err := h.publisher.Publish(h.outputTopic, data); err != nil {
			return fmt.Errorf("publish envelope %d of %d: %w", i+1, len(envs), err)
		}
	}
	return nil
}

func (h *Handler) reject(topic, device, raw string, err error) {
	reason := frame.Reason(err)
	if h.metrics != nil {
		h.metrics.Reject(reason)
	}
	if h.deadLetters == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	d := deadletter.FromError(deadletter.DeadLetter{Topic: topic, Device: device, RawPayload: raw}, err)
	if _, recErr := h.deadLetters.Record(ctx, d); recErr != nil {
		if h.metrics != nil {
			h.metrics.DeadLetterErrors.Inc()
		}
		h.logger.Error("store dead letter", "topic", topic, "error", recErr)
	}
}
