// Package codec implements header word decoding, date parsing with a
// server-time fallback, and the structural attachment-detection
// heuristic shared by ImapSession and SyncEngine.
package codec

import (
	"encoding/base64"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
)

// DecodeEncodedWords decodes RFC 2047 encoded words
// (=?charset?Q|B?payload?=) interleaved with literal text. Malformed
// runs are passed through literally; whitespace between adjacent
// encoded words is dropped per RFC 2047 §6.2.
func DecodeEncodedWords(text string) string {
	if !strings.Contains(text, "=?") {
		return text
	}

	var result strings.Builder
	remaining := text

	for {
		start := strings.Index(remaining, "=?")
		if start < 0 {
			break
		}
		result.WriteString(remaining[:start])

		afterStart := remaining[start+2:]
		charsetEnd := strings.IndexByte(afterStart, '?')
		if charsetEnd < 0 {
			result.WriteString(remaining[start : start+2])
			remaining = remaining[start+2:]
			continue
		}
		cs := afterStart[:charsetEnd]
		afterCharset := afterStart[charsetEnd+1:]

		encEnd := strings.IndexByte(afterCharset, '?')
		if encEnd < 0 {
			result.WriteString(remaining[start : start+2])
			remaining = remaining[start+2:]
			continue
		}
		enc := afterCharset[:encEnd]
		afterEncoding := afterCharset[encEnd+1:]

		textEnd := strings.Index(afterEncoding, "?=")
		if textEnd < 0 {
			result.WriteString(remaining[start : start+2])
			remaining = remaining[start+2:]
			continue
		}
		encodedText := afterEncoding[:textEnd]

		fullLength := 2 + len(cs) + 1 + len(enc) + 1 + len(encodedText) + 2
		fullEncoded := remaining[start : start+fullLength]

		var decodedBytes []byte
		var ok bool
		switch strings.ToUpper(enc) {
		case "Q":
			decodedBytes, ok = decodeQEncoding(encodedText)
		case "B":
			decodedBytes, ok = decodeBase64Lenient(encodedText)
		}

		if ok {
			result.WriteString(decodeCharset(decodedBytes, cs))
		} else {
			result.WriteString(fullEncoded)
		}

		remaining = remaining[start+fullLength:]

		// Whitespace between adjacent encoded words is dropped.
		if trimmed := strings.TrimLeft(remaining, " \t\r\n"); len(trimmed) < len(remaining) && strings.HasPrefix(trimmed, "=?") {
			remaining = trimmed
		}
	}

	result.WriteString(remaining)
	return result.String()
}

// decodeQEncoding decodes RFC 2047 "Q" (quoted-printable-like) payloads.
func decodeQEncoding(s string) ([]byte, bool) {
	var out []byte
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '_':
			out = append(out, ' ')
		case '=':
			if i+2 >= len(runes) {
				return nil, false
			}
			b, err := strconv.ParseUint(string(runes[i+1:i+3]), 16, 8)
			if err != nil {
				return nil, false
			}
			out = append(out, byte(b))
			i += 2
		default:
			if runes[i] > 127 {
				return nil, false
			}
			out = append(out, byte(runes[i]))
		}
	}
	return out, true
}

// decodeBase64Lenient decodes RFC 2047 "B" payloads, tolerating
// missing padding the way the server sometimes emits it.
func decodeBase64Lenient(s string) ([]byte, bool) {
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			return -1
		}
		return r
	}, s)
	if m := len(s) % 4; m != 0 {
		s += strings.Repeat("=", 4-m)
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, false
	}
	return b, true
}

// decodeCharset reinterprets decoded bytes using the named charset,
// falling back to x/net's charset table, then UTF-8, then lossy UTF-8.
func decodeCharset(b []byte, name string) string {
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "us-ascii") {
		return DecodeBytes(b)
	}

	if enc, err := htmlindex.Get(name); err == nil {
		if s, err := enc.NewDecoder().String(string(b)); err == nil {
			return s
		}
	}

	if enc, _ := charset.Lookup(name); enc != nil {
		if s, err := enc.NewDecoder().String(string(b)); err == nil {
			return s
		}
	}

	return DecodeBytes(b)
}

// DecodeBytes returns the valid UTF-8 interpretation of b, or a lossy
// UTF-8 conversion if b is not valid UTF-8.
func DecodeBytes(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "�")
}

// ParseDate parses an RFC 2822 or RFC 3339 date string, falling back
// to the server's INTERNALDATE string, then to the current wall
// clock. It never fails: the fallback used is logged, not surfaced.
func ParseDate(rfcDate, internalDate string, logger *slog.Logger) int64 {
	if logger == nil {
		logger = slog.Default()
	}

	if t, ok := tryParseDate(rfcDate); ok {
		return t.Unix()
	}

	if internalDate != "" {
		if t, ok := tryParseDate(internalDate); ok {
			logger.Debug("date header unparseable, used INTERNALDATE", "date", rfcDate, "internaldate", internalDate)
			return t.Unix()
		}
	}

	logger.Debug("date header and INTERNALDATE both unparseable, using current time", "date", rfcDate, "internaldate", internalDate)
	return time.Now().Unix()
}

// numericZoneLayout covers "Mon, 2 Jan 2006 15:04:05 -0700" style
// dates some servers emit with an unpadded single-digit day of the
// month, which time.RFC1123Z's two-digit "02" does not accept.
const numericZoneLayout = "Mon, 2 Jan 2006 15:04:05 -0700"

func tryParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC1123Z, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(numericZoneLayout, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// HasAttachment is a conservative heuristic over a server's
// serialized structural description: it detects the tokens
// "attachment" or "filename" case-insensitively. False negatives are
// permitted (StructureWorker records such an item as having no
// attachment); false positives are acceptable.
func HasAttachment(bodyStructureDebug string) bool {
	lower := strings.ToLower(bodyStructureDebug)
	return strings.Contains(lower, "attachment") || strings.Contains(lower, "filename")
}
