package toktx

import (
	"bytes"
	"fmt"

	"github.com/DataDog/zstd"
)

// zstdCompressionLevel is the level of every wrapped container.
const zstdCompressionLevel = zstd.DefaultCompression

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

func isZstd(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}

// zstdWrap compresses a serialized container into a single zstd frame.
func zstdWrap(data []byte) ([]byte, error) {
	out, err := zstd.CompressLevel(nil, data, zstdCompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: compress: %v", ErrZstd, err)
	}

	return out, nil
}

// zstdUnwrap inflates a zstd wrapped container.
func zstdUnwrap(data []byte) ([]byte, error) {
	out, err := zstd.Decompress(nil, data)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %v", ErrZstd, err)
	}

	return out, nil
}
