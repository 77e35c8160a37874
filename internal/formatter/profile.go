package formatter

import (
	"fmt"
	"strings"

	"lorasense/internal/frame"
)

// Profile captures the per-installation conventions of the sink: which
// address identifies the device, how much of it is kept and how labels
// are spelled.
type Profile struct {
	Name string
	// AddressField selects the uplink address: "deveui" or "devaddr".
	AddressField string
	// SuffixLen is the number of trailing address characters kept as the
	// device id.
	SuffixLen int
	Labeler   frame.Labeler
	// PassTopic copies the uplink topic onto every envelope.
	PassTopic bool
}

var devEUINames = map[frame.MeasurementType]string{
	frame.Temperature: "temperature",
	frame.Voltage:     "voltage",
	frame.Current:     "current",
}

var devAddrNames = map[frame.MeasurementType]string{
	frame.Temperature: "Temperature",
	frame.Voltage:     "Tension",
	frame.Current:     "Courant",
}

// DevEUIProfile keys samples as "<5 last DevEUI chars>:temperature".
var DevEUIProfile = Profile{
	Name:         "deveui",
	AddressField: "deveui",
	SuffixLen:    5,
	Labeler: func(t frame.MeasurementType, dev string) string {
		return dev + ":" + devEUINames[t]
	},
	PassTopic: true,
}

// DevAddrProfile keys samples as "Temperature:<8 last DevAddr chars>".
var DevAddrProfile = Profile{
	Name:         "devaddr",
	AddressField: "devaddr",
	SuffixLen:    8,
	Labeler: func(t frame.MeasurementType, dev string) string {
		return devAddrNames[t] + ":" + dev
	},
}

// ProfileByName returns a built-in profile.
func ProfileByName(name string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "deveui":
		return DevEUIProfile, nil
	case "devaddr":
		return DevAddrProfile, nil
	default:
		return Profile{}, fmt.Errorf("unknown device profile %q (allowed: deveui, devaddr)", name)
	}
}

// DeviceSuffix returns the last n characters of addr, or addr when it is
// shorter. n <= 0 keeps the whole address.
func DeviceSuffix(addr string, n int) string {
	addr = strings.TrimSpace(addr)
	if n <= 0 || len(addr) <= n {
		return addr
	}
	return addr[len(addr)-n:]
}
