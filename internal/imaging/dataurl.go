// Package imaging is the stateless re-encoding collaborator: it decodes an
// attachment image, resizes it within a maximum dimension and produces
// candidate encodings, of which the smallest wins. It holds no persistent or
// concurrent state.
package imaging

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const defaultMimeType = "application/octet-stream"

// ParseDataURL splits a base64 data URL into its mime type and raw bytes.
// Bare base64 without the "data:" prefix is accepted and typed as
// application/octet-stream. Whitespace inside the payload is tolerated.
func ParseDataURL(input string) (string, []byte, error) {
	input = strings.TrimSpace(input)

	mimeType := defaultMimeType
	data := input

	if comma := strings.Index(input, ","); comma >= 0 {
		meta := strings.TrimPrefix(input[:comma], "data:")
		if m, _, _ := strings.Cut(meta, ";"); m != "" {
			mimeType = m
		}
		data = input[comma+1:]
	}

	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			return -1
		}
		return r
	}, data)

	raw, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return "", nil, fmt.Errorf("base64 decode failed: %w", err)
	}
	return mimeType, raw, nil
}

// BuildDataURL encodes bytes as a base64 data URL under mimeType.
func BuildDataURL(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}
