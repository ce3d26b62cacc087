// Package codec frames attachment bytes for transport inside JSON messages.
package codec

import (
	"encoding/base64"
	"strings"
)

// attachments always travel under the generic marker; clients decide how to
// present them from the message's filename
const prefix = "data:application/octet-stream;base64,"

// EncodeAttachment renders raw file bytes as a data URI.
func EncodeAttachment(data []byte) string {
	return prefix + base64.StdEncoding.EncodeToString(data)
}

// DecodeAttachment reverses EncodeAttachment. It accepts any data URI
// payload, not only the generic marker.
func DecodeAttachment(s string) ([]byte, error) {
	if i := strings.Index(s, ";base64,"); i >= 0 {
		s = s[i+len(";base64,"):]
	}
	return base64.StdEncoding.DecodeString(s)
}
