package frame

// reassemble turns segment-major values into one record per sample index.
// A label repeated by a later segment overwrites the earlier value.
func reassemble(segments []Segment, sampleCount int) []SampleRecord {
	records := make([]SampleRecord, sampleCount)
	for _, seg := range segments {
		for i := 0; i < sampleCount && i < len(seg.Values); i++ {
			records[i].Set(seg.Label, seg.Values[i])
		}
	}
	return records
}
