package cmvh

import "strings"

// encodeQuotedPrintable matches the original encoder byte-for-byte:
// printable ASCII 32-126 except '=' pass through; everything else
// becomes "=XX" uppercase hex; '\n' resets the line and becomes
// "\r\n"; a standalone '\r' is dropped; lines soft-wrap with "=\r\n"
// once their length reaches 75. An escape sequence is written whole
// before that check, so it is never split and a line can hold up to
// 77 characters before the soft break. mime/quotedprintable's writer doesn't expose a
// configurable wrap column, so this is hand-rolled to match exactly.
func encodeQuotedPrintable(text string) string {
	var out strings.Builder
	lineLength := 0

	for i := 0; i < len(text); i++ {
		b := text[i]
		switch {
		case b == '\n':
			out.WriteString("\r\n")
			lineLength = 0
			continue
		case b == '\r':
			continue
		case b >= 32 && b <= 126 && b != '=':
			out.WriteByte(b)
			lineLength++
		default:
			out.WriteString(hexEscape(b))
			lineLength += 3
		}

		if lineLength >= 75 {
			out.WriteString("=\r\n")
			lineLength = 0
		}
	}

	return out.String()
}

const hexDigits = "0123456789ABCDEF"

func hexEscape(b byte) string {
	return string([]byte{'=', hexDigits[b>>4], hexDigits[b&0x0f]})
}
