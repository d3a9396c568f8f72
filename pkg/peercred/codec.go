package peercred

import (
	"fmt"
)

// Codec defines the interface for encoding/decoding wire messages
type Codec interface {
	// Marshal serializes a value to bytes
	Marshal(v interface{}) ([]byte, error)

	// Unmarshal deserializes bytes to a value
	Unmarshal(data []byte, v interface{}) error

	// Name returns the name of the codec
	Name() string
}

// CodecType represents the type of codec to use
type CodecType string

const (
	// CodecMessagePack uses MessagePack encoding (default)
	CodecMessagePack CodecType = "msgpack"
	// CodecJSON uses JSON encoding
	CodecJSON CodecType = "json"
)

// NewCodec creates a new codec based on the type
func NewCodec(codecType CodecType) (Codec, error) {
	switch codecType {
	case CodecMessagePack, "":
		return &MessagePackCodec{}, nil
	case CodecJSON:
		return &JSONCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec type: %s", codecType)
	}
}
