package cache

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v4"
)

// entryVersion is bumped whenever the entry layout changes.
const entryVersion = 1

// NoExpiry marks entries that stay valid until their key changes.
const NoExpiry time.Duration = 0

// entry is the on-disk envelope of a cached value.
type entry struct {
	Version  int    `msgpack:"version"`
	Module   string `msgpack:"module"`
	Function string `msgpack:"function"`
	StoredAt int64  `msgpack:"stored_at"`
	TTL      int64  `msgpack:"ttl"`
	Value    []byte `msgpack:"value"`
}

// expired reports whether e is past its TTL at now.
func (e *entry) expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return now.After(time.Unix(0, e.StoredAt).Add(time.Duration(e.TTL)))
}

func encodeEntry(e *entry) ([]byte, error) {
	return msgpack.Marshal(e)
}

func decodeEntry(data []byte) (*entry, error) {
	var e entry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	if e.Version != entryVersion {
		return nil, fmt.Errorf("unsupported cache entry version %d", e.Version)
	}
	return &e, nil
}

// Codec converts cached values of type T to bytes and back.
type Codec[T any] interface {
	Encode(value T) ([]byte, error)
	Decode(data []byte) (T, error)
}

// MsgpackCodec encodes values with msgpack.
type MsgpackCodec[T any] struct{}

func (MsgpackCodec[T]) Encode(value T) ([]byte, error) {
	return msgpack.Marshal(value)
}

func (MsgpackCodec[T]) Decode(data []byte) (T, error) {
	var value T
	err := msgpack.Unmarshal(data, &value)
	return value, err
}
