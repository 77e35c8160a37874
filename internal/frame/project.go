package frame

import "time"

// project returns the timestamp of every sample. The newest sample (last
// index) is stamped at ref, earlier ones are moved back by whole emission
// intervals. Fractional minutes are kept down to the nanosecond.
func project(ref time.Time, frequencyMinutes float64, sampleCount int) []time.Time {
	out := make([]time.Time, sampleCount)
	for i := range out {
		steps := float64(sampleCount - i - 1)
		back := time.Duration(frequencyMinutes * steps * float64(time.Minute))
		out[i] = ref.Add(-back)
	}
	return out
}
