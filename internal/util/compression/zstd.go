package compression

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// The encoder and decoder are safe for concurrent EncodeAll/DecodeAll calls
// and expensive to build, so they are shared.
var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

func zstdCodecs() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil)
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil)
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

type ZstdCompressor struct{}

func (z ZstdCompressor) Compress(data []byte) ([]byte, error) {
	encoder, _, err := zstdCodecs()
	if err != nil {
		return nil, err
	}
	return encoder.EncodeAll(data, nil), nil
}

func (z ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	_, decoder, err := zstdCodecs()
	if err != nil {
		return nil, err
	}
	return decoder.DecodeAll(data, nil)
}
