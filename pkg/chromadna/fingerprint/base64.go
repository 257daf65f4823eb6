package fingerprint

import (
	"encoding/base64"
	"strings"
)

// encoding is base64 over A-Z a-z 0-9 - _ without padding. A trailing
// 1-byte group encodes to 2 characters and a 2-byte group to 3.
var encoding = base64.RawURLEncoding

// EncodeBase64 renders packed fingerprint bytes as text.
func EncodeBase64(data []byte) string {
	return encoding.EncodeToString(data)
}

// EncodeBase64Padded is EncodeBase64 with '=' padding up to a multiple of
// four characters, for consumers that insist on it.
func EncodeBase64Padded(data []byte) string {
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeBase64 parses text produced by EncodeBase64 or EncodeBase64Padded.
// Surrounding whitespace, '=' padding and a NUL terminator are tolerated. A
// lone character left over after the last full group carries less than a
// byte and is ignored.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "\x00")
	s = strings.TrimRight(s, "=")
	if len(s)%4 == 1 {
		s = s[:len(s)-1]
	}

	data, err := encoding.DecodeString(s)
	if err != nil {
		return nil, &FormatError{Reason: "invalid base64: " + err.Error()}
	}
	return data, nil
}
