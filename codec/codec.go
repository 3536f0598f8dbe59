// Package codec compresses encoded tiles for storage and transport.
//
// Vector tiles are commonly stored gzip compressed (MBTiles, most HTTP tile
// servers) and served with a matching Content-Encoding header. Codecs are
// identified by a stable name so stores can record which one was used.
package codec

import "fmt"

// Codec compresses and decompresses tile payloads.
// Implementations must be safe for concurrent use.
type Codec interface {
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte) ([]byte, error)
	// Name is the stable identifier accepted by ByName.
	Name() string
	// ContentEncoding is the HTTP Content-Encoding value, "" for identity.
	ContentEncoding() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "", "none", "identity":
		return Identity{}, true
	case "gzip":
		return Gzip{}, true
	case "zstd":
		return Zstd{}, true
	case "lz4":
		return LZ4{}, true
	default:
		return nil, false
	}
}

// Names lists the names of the built-in codecs.
func Names() []string {
	return []string{"identity", "gzip", "zstd", "lz4"}
}

// Identity stores payloads unchanged.
type Identity struct{}

// Compress returns src unchanged.
func (Identity) Compress(src []byte) ([]byte, error) { return src, nil }

// Decompress returns src unchanged.
func (Identity) Decompress(src []byte) ([]byte, error) { return src, nil }

// Name returns "identity".
func (Identity) Name() string { return "identity" }

// ContentEncoding returns "".
func (Identity) ContentEncoding() string { return "" }

// Default is the codec used when none is configured.
var Default Codec = Gzip{}

// MustCompress is a helper for tests and examples.
func MustCompress(c Codec, src []byte) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Compress(src)
	if err != nil {
		panic(fmt.Errorf("codec %s compress failed: %w", c.Name(), err))
	}
	return b
}
