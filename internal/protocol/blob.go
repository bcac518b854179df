package protocol

import (
	"encoding/base64"
	"fmt"
)

// Blob is binary data carried as standard base64 text, as XML and JSON protocols
// send blob members.
type Blob []byte

// MarshalText encodes b as base64.
func (b Blob) MarshalText() ([]byte, error) {
	out := make([]byte, base64.StdEncoding.EncodedLen(len(b)))
	base64.StdEncoding.Encode(out, b)
	return out, nil
}

// UnmarshalText decodes base64 text. Whitespace inside the text is ignored.
func (b *Blob) UnmarshalText(text []byte) error {
	clean := make([]byte, 0, len(text))
	for _, c := range text {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		}
		clean = append(clean, c)
	}
	out := make([]byte, base64.StdEncoding.DecodedLen(len(clean)))
	n, err := base64.StdEncoding.Decode(out, clean)
	if err != nil {
		return fmt.Errorf("blob: %w", err)
	}
	*b = out[:n]
	return nil
}
