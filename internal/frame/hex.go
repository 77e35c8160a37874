package frame

// hexNumber parses raw[off:off+width] as an unsigned base 16 number.
// The caller guarantees the range is inside raw.
func hexNumber(raw string, off, width int) (uint32, error) {
	var v uint32
	for i := off; i < off+width; i++ {
		d, ok := hexDigit(raw[i])
		if !ok {
			return 0, newError(ErrInvalidHexDigit, i, "%q", raw[i])
		}
		v = v<<4 | uint32(d)
	}
	return v, nil
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

// Hex4 formats v as four upper-case hex digits.
func Hex4(v uint16) string {
	const hexd = "0123456789ABCDEF"
	return string([]byte{
		hexd[(v>>12)&0xF],
		hexd[(v>>8)&0xF],
		hexd[(v>>4)&0xF],
		hexd[v&0xF],
	})
}

func hex2(v uint8) string {
	const hexd = "0123456789ABCDEF"
	return string([]byte{hexd[v>>4], hexd[v&0x0F]})
}
