package frame

const (
	packetTypeLen  = 2
	emissionLen    = 4
	typeCodeLen    = 2
	valueLen       = 4
	maxSampleCount = 16
)

// readHeader extracts the packet type, sample count and emission frequency.
// The sample count lives in the second hex digit and is stored minus one.
func readHeader(raw string) (Header, error) {
	if len(raw) < packetTypeLen {
		return Header{}, newError(ErrMalformedHeader, len(raw), "need %d hex characters, got %d", packetTypeLen, len(raw))
	}
	if _, err := hexNumber(raw, 0, packetTypeLen); err != nil {
		return Header{}, err
	}
	stored, _ := hexDigit(raw[1])
	h := Header{
		PacketType:  raw[:packetTypeLen],
		SampleCount: int(stored) + 1,
	}
	if h.SampleCount == 1 {
		return h, nil
	}

	if len(raw) < packetTypeLen+emissionLen {
		return Header{}, newError(ErrMalformedHeader, len(raw), "%d samples need an emission field, got %d hex characters", h.SampleCount, len(raw))
	}
	window, err := hexNumber(raw, packetTypeLen, emissionLen)
	if err != nil {
		return Header{}, err
	}
	h.EmissionFrequency = float64(window) / float64(h.SampleCount)
	return h, nil
}

// bodyOffset is where the first segment starts.
func (h Header) bodyOffset() int {
	if h.SampleCount > 1 {
		return packetTypeLen + emissionLen
	}
	return packetTypeLen
}

// segmentLen is the number of hex characters one segment occupies.
func (h Header) segmentLen() int {
	return typeCodeLen + valueLen*h.SampleCount
}
