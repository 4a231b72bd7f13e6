package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/vmihailenco/msgpack/v4"
)

// Key identifies one cached computation. Args and Kwargs are encoded
// verbatim, so two calls share an entry only when every argument matches.
type Key struct {
	Module    string                 `msgpack:"module"`
	Function  string                 `msgpack:"function"`
	Namespace string                 `msgpack:"namespace"`
	Args      []interface{}          `msgpack:"args"`
	Kwargs    map[string]interface{} `msgpack:"kwargs"`
}

// NewKey creates a key for function of module called with args.
func NewKey(module, function string, args ...interface{}) Key {
	return Key{Module: module, Function: function, Args: args}
}

// With returns a copy of k with the keyword argument name set.
func (k Key) With(name string, value interface{}) Key {
	kwargs := make(map[string]interface{}, len(k.Kwargs)+1)
	for n, v := range k.Kwargs {
		kwargs[n] = v
	}
	kwargs[name] = value
	k.Kwargs = kwargs
	return k
}

// Encode returns the stable serialization of k. Map keys are sorted.
func (k Key) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf).SortMapKeys(true)
	if err := enc.Encode(k); err != nil {
		return nil, fmt.Errorf("failed to encode cache key %s.%s: %w", k.Module, k.Function, err)
	}
	return buf.Bytes(), nil
}

// Hash returns the hex sha256 of the encoded key.
func (k Key) Hash() (string, error) {
	data, err := k.Encode()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
