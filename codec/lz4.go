package codec

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v4"
)

// LZ4 is an LZ4 frame codec backed by github.com/pierrec/lz4/v4.
// It has no registered HTTP content coding and suits local caches.
type LZ4 struct{}

// Compress encodes src as an LZ4 frame.
func (LZ4) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress decodes an LZ4 frame.
func (LZ4) Decompress(src []byte) ([]byte, error) {
	return io.ReadAll(lz4.NewReader(bytes.NewReader(src)))
}

// Name returns "lz4".
func (LZ4) Name() string { return "lz4" }

// ContentEncoding returns "".
func (LZ4) ContentEncoding() string { return "" }
