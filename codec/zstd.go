package codec

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Zstd is a zstandard codec backed by github.com/klauspost/compress/zstd.
type Zstd struct{}

// Compress encodes src as a single zstd frame.
func (Zstd) Compress(src []byte) ([]byte, error) {
	enc := getZstdEncoder()
	defer zstdEncoderPool.Put(enc)
	return enc.EncodeAll(src, nil), nil
}

// Decompress decodes all zstd frames in src.
func (Zstd) Decompress(src []byte) ([]byte, error) {
	dec := getZstdDecoder()
	defer zstdDecoderPool.Put(dec)
	return dec.DecodeAll(src, nil)
}

// Name returns "zstd".
func (Zstd) Name() string { return "zstd" }

// ContentEncoding returns "zstd".
func (Zstd) ContentEncoding() string { return "zstd" }
