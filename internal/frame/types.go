// Package frame decodes the hex telemetry frames emitted by the LoRa
// temperature/voltage/current sensor.
//
// Frame layout (hex characters, no delimiters):
//
//	KN [FFFF] (TT VVVV{N})+
//
// K is the packet kind, N+1 the number of samples, FFFF the emission
// window in minutes (present only when more than one sample is carried),
// TT a measurement type code and VVVV one raw value per sample.
package frame

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// MeasurementType is one of the quantities the sensor reports.
type MeasurementType uint8

const (
	Temperature MeasurementType = iota + 1
	Voltage
	Current
)

type measurementInfo struct {
	code    string
	name    string
	unit    string
	divisor float64
}

// Raw values are hundredths of a degree, thousandths of a volt and
// hundredths of an ampere.
var measurements = map[MeasurementType]measurementInfo{
	Temperature: {code: "08", name: "Temperature", unit: "°C", divisor: 100},
	Voltage:     {code: "0A", name: "Voltage", unit: "V", divisor: 1000},
	Current:     {code: "0B", name: "Current", unit: "A", divisor: 100},
}

var byCode = map[string]MeasurementType{
	"08": Temperature,
	"0A": Voltage,
	"0B": Current,
}

// LookupCode resolves a two character type code such as "0A".
func LookupCode(code string) (MeasurementType, bool) {
	t, ok := byCode[code]
	return t, ok
}

// Code returns the frame type code, e.g. "08".
func (t MeasurementType) Code() string { return measurements[t].code }

// Divisor converts raw integer units to physical units.
func (t MeasurementType) Divisor() float64 { return measurements[t].divisor }

// Unit returns the physical unit symbol.
func (t MeasurementType) Unit() string { return measurements[t].unit }

func (t MeasurementType) String() string {
	if m, ok := measurements[t]; ok {
		return m.name
	}
	return fmt.Sprintf("MeasurementType(%d)", uint8(t))
}

// Header is the fixed part at the start of every frame.
type Header struct {
	PacketType  string
	SampleCount int
	// EmissionFrequency is the interval between two samples, in minutes.
	// Zero for single sample frames.
	EmissionFrequency float64
}

// Segment holds the decoded values of one type block, in sample order.
// Type is zero when the code was unknown and the sentinel policy applied.
type Segment struct {
	Code   string
	Type   MeasurementType
	Label  string
	Values []float64
}

// Entry is one labeled value of a SampleRecord.
type Entry struct {
	Label string
	Value float64
}

// SampleRecord maps labels to values for a single sampling instant.
// Entries keep the order in which labels first appeared in the frame.
type SampleRecord struct {
	entries []Entry
}

// Set stores value under label, replacing an earlier value in place.
func (r *SampleRecord) Set(label string, value float64) {
	for i := range r.entries {
		if r.entries[i].Label == label {
			r.entries[i].Value = value
			return
		}
	}
	r.entries = append(r.entries, Entry{Label: label, Value: value})
}

// Get returns the value stored under label.
func (r SampleRecord) Get(label string) (float64, bool) {
	for _, e := range r.entries {
		if e.Label == label {
			return e.Value, true
		}
	}
	return 0, false
}

// Len returns the number of distinct labels.
func (r SampleRecord) Len() int { return len(r.entries) }

// Entries returns a copy of the record entries in order.
func (r SampleRecord) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// Map returns the record as a plain map.
func (r SampleRecord) Map() map[string]float64 {
	out := make(map[string]float64, len(r.entries))
	for _, e := range r.entries {
		out[e.Label] = e.Value
	}
	return out
}

// MarshalJSON writes the record as a JSON object in entry order.
func (r SampleRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Label)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("label %q: %w", e.Label, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of numbers. Key order follows the input.
func (r *SampleRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("sample record: expected object, got %v", tok)
	}
	r.entries = nil
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		label, ok := tok.(string)
		if !ok {
			return fmt.Errorf("sample record: expected key, got %v", tok)
		}
		var v float64
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("sample record %q: %w", label, err)
		}
		r.Set(label, v)
	}
	_, err = dec.Token()
	return err
}

// Message is one decoded sample, ready to be handed to a sink.
type Message struct {
	Timestamp time.Time
	DeviceID  string
	Record    SampleRecord
}

// TimestampLayout matches JavaScript's Date.prototype.toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
