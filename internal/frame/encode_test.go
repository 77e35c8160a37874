package frame

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestEncode_Layout(t *testing.T) {
	got, err := Encode(EncodeInput{
		PacketKind:     0xA,
		EmissionWindow: 10,
		Segments: []EncodeSegment{
			{Type: Temperature, Values: []float64{1, 2}},
		},
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if want := "A1000A08006400C8"; got != want {
		t.Errorf("Encode = %q; want %q", got, want)
	}

	got, err = Encode(EncodeInput{
		PacketKind:     0xA,
		EmissionWindow: 99, // ignored for a single sample
		Segments:       []EncodeSegment{{Type: Temperature, Values: []float64{1}}},
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if want := "A0080064"; got != want {
		t.Errorf("Encode = %q; want %q", got, want)
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		window   uint16
		segments []EncodeSegment
	}{
		{
			name:     "single temperature",
			segments: []EncodeSegment{{Type: Temperature, Values: []float64{21.37}}},
		},
		{
			name:   "three types four samples",
			window: 60,
			segments: []EncodeSegment{
				{Type: Temperature, Values: []float64{20.5, 20.75, 21, 21.25}},
				{Type: Voltage, Values: []float64{3.301, 3.299, 3.297, 3.3}},
				{Type: Current, Values: []float64{0.12, 0.5, 1.99, 655.35}},
			},
		},
		{
			name:   "sixteen samples",
			window: 0xFFFF,
			segments: []EncodeSegment{
				{Type: Voltage, Values: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 65.535}},
			},
		},
	}

	d := NewDecoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Encode(EncodeInput{PacketKind: 0xA, EmissionWindow: tt.window, Segments: tt.segments})
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			_, segs, err := d.Segments(raw, "dev")
			if err != nil {
				t.Fatalf("Segments(%q): %v", raw, err)
			}
			if len(segs) != len(tt.segments) {
				t.Fatalf("len(segments) = %d; want %d", len(segs), len(tt.segments))
			}
			for i, seg := range segs {
				if seg.Type != tt.segments[i].Type {
					t.Errorf("segment %d type = %v; want %v", i, seg.Type, tt.segments[i].Type)
				}
				if diff := cmp.Diff(tt.segments[i].Values, seg.Values, cmpopts.EquateApprox(1e-9, 0)); diff != "" {
					t.Errorf("segment %d values (-want +got):\n%s", i, diff)
				}
			}

			msgs, err := d.DecodeAt(raw, "dev", refTime)
			if err != nil {
				t.Fatalf("DecodeAt: %v", err)
			}
			if len(msgs) != len(tt.segments[0].Values) {
				t.Errorf("len(msgs) = %d; want %d", len(msgs), len(tt.segments[0].Values))
			}
		})
	}
}

func TestEncode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		in      EncodeInput
		wantErr string
	}{
		{name: "no segments", in: EncodeInput{}, wantErr: "at least one segment"},
		{
			name:    "packet kind too large",
			in:      EncodeInput{PacketKind: 0x10, Segments: []EncodeSegment{{Type: Temperature, Values: []float64{1}}}},
			wantErr: "nibble",
		},
		{
			name:    "no samples",
			in:      EncodeInput{Segments: []EncodeSegment{{Type: Temperature}}},
			wantErr: "out of range",
		},
		{
			name:    "too many samples",
			in:      EncodeInput{Segments: []EncodeSegment{{Type: Temperature, Values: make([]float64, 17)}}},
			wantErr: "out of range",
		},
		{
			name: "ragged segments",
			in: EncodeInput{Segments: []EncodeSegment{
				{Type: Temperature, Values: []float64{1, 2}},
				{Type: Voltage, Values: []float64{1}},
			}},
			wantErr: "values, want 2",
		},
		{
			name:    "negative value",
			in:      EncodeInput{Segments: []EncodeSegment{{Type: Temperature, Values: []float64{-1}}}},
			wantErr: "encodable range",
		},
		{
			name:    "overflow",
			in:      EncodeInput{Segments: []EncodeSegment{{Type: Voltage, Values: []float64{70}}}},
			wantErr: "encodable range",
		},
		{
			name:    "unknown type",
			in:      EncodeInput{Segments: []EncodeSegment{{Type: MeasurementType(9), Values: []float64{1}}}},
			wantErr: "MeasurementType(9)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.in)
			if err == nil {
				t.Fatal("Encode error = nil; want non-nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q; want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
