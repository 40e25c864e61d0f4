package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Fingerprint derives a deterministic cache key from a call's logical
// identity: the operation name plus its positional and keyword arguments.
// Keyword arguments are sorted by name and the whole structure is serialized
// with stable key ordering before hashing, so two calls with equal logical
// arguments map to the same key regardless of keyword order.
func Fingerprint(name string, args []any, kwargs map[string]any) string {
	keyData := map[string]any{
		"func":   name,
		"args":   canonicalizeSlice(args),
		"kwargs": canonicalizeMap(kwargs),
	}

	// encoding/json writes map keys in sorted order, which keeps the
	// serialized form stable.
	data, err := json.Marshal(keyData)
	if err != nil {
		// Canonicalization reduces everything to JSON-encodable forms, so
		// this only fires on non-finite floats. Fall back to the textual form.
		data = []byte(fmt.Sprintf("%s|%v|%v", name, keyData["args"], keyData["kwargs"]))
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// canonicalize reduces a value to a deterministic JSON-encodable form.
// Primitives pass through; composites recurse; anything else is reduced to
// its Go-syntax textual representation.
func canonicalize(v any) any {
	switch val := v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val
	case []any:
		return canonicalizeSlice(val)
	case map[string]any:
		return canonicalizeMap(val)
	default:
		return fmt.Sprintf("%#v", val)
	}
}

func canonicalizeSlice(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = canonicalize(v)
	}
	return out
}

func canonicalizeMap(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out[k] = canonicalize(values[k])
	}
	return out
}
