package yupee

import (
	"fmt"

	"github.com/pthm/yupee/lib/encoding"
)

// Encoder seals model snapshots with a signing or encryption key. Pages
// uses one when Config.SealKey is set.
type Encoder = encoding.Encoder

// Encodable is implemented by types that can be sealed into a snapshot.
type Encodable = encoding.Encodable

// Decodable is implemented by types that can be restored from a snapshot.
type Decodable = encoding.Decodable

var (
	_ Encodable = (*Model)(nil)
	_ Decodable = (*Model)(nil)
)

// NewEncoder returns an encoder for key.
func NewEncoder(key []byte) (*Encoder, error) {
	enc, err := encoding.NewEncoder(key)
	if err != nil {
		return nil, fmt.Errorf("yupee: seal key: %w", err)
	}
	return enc, nil
}
