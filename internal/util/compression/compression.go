// Package compression provides the codecs used for post content at rest.
package compression

import "fmt"

type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

var (
	_ Compressor = ZstdCompressor{}
	_ Compressor = GzipCompressor{}
	_ Compressor = NoopCompressor{}
)

// New returns the compressor registered under name: "zstd", "gzip" or "none".
func New(name string) (Compressor, error) {
	switch name {
	case "zstd", "":
		return ZstdCompressor{}, nil
	case "gzip":
		return GzipCompressor{}, nil
	case "none":
		return NoopCompressor{}, nil
	default:
		return nil, fmt.Errorf("unknown compressor %q", name)
	}
}

type NoopCompressor struct{}

func (NoopCompressor) Compress(data []byte) ([]byte, error)   { return data, nil }
func (NoopCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }
