package toktx

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package matches exactly one of
// them with errors.Is.
var (
	// ErrFormat indicates invalid block dimensions, a zero-sized axis or a corrupt header.
	ErrFormat = errors.New("format error")
	// ErrUnsupportedOperation indicates an operation the image variant cannot perform.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrUnsupportedFormat indicates an unrecognized target format.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrEncode indicates the block codec failed to compress.
	ErrEncode = errors.New("encode error")
	// ErrDecode indicates the block codec failed to decompress.
	ErrDecode = errors.New("decode error")
	// ErrIO indicates a file could not be opened, read or written.
	ErrIO = errors.New("io error")
	// ErrContainer indicates a container backend failure.
	ErrContainer = errors.New("container error")
)

// Narrow errors wrap one kind.
var (
	// ErrSizeOverflow indicates a size or dimension exceeds supported limits.
	ErrSizeOverflow = fmt.Errorf("%w: size overflow", ErrFormat)
	// ErrInvalidBlockDim indicates a block footprint outside the ASTC allow-list.
	ErrInvalidBlockDim = fmt.Errorf("%w: invalid block dimensions", ErrFormat)
	// ErrZeroDimension indicates a zero width, height or depth.
	ErrZeroDimension = fmt.Errorf("%w: zero dimension", ErrFormat)
	// ErrBadMagic indicates an ASTC header with the wrong signature.
	ErrBadMagic = fmt.Errorf("%w: bad ASTC magic", ErrFormat)
	// ErrShortHeader indicates a buffer smaller than the ASTC header.
	ErrShortHeader = fmt.Errorf("%w: truncated ASTC header", ErrFormat)
	// ErrPayloadSize indicates block payload length does not match the block grid.
	ErrPayloadSize = fmt.Errorf("%w: payload size mismatch", ErrFormat)
	// ErrLayoutSize indicates raw pixel bytes do not match width, height and layout.
	ErrLayoutSize = fmt.Errorf("%w: pixel buffer size mismatch", ErrFormat)

	// ErrResizeCompressed indicates a resize requested on block-compressed data.
	ErrResizeCompressed = fmt.Errorf("%w: compressed images cannot be resized", ErrUnsupportedOperation)
	// ErrConvertCompressed indicates a layout conversion requested on block-compressed data.
	ErrConvertCompressed = fmt.Errorf("%w: compressed images cannot be converted", ErrUnsupportedOperation)

	// ErrUnknownFormat indicates a format name or GL identifier that is not recognized.
	ErrUnknownFormat = fmt.Errorf("%w: unknown format", ErrUnsupportedFormat)

	// ErrLoadSource indicates the source image for an encode could not be loaded.
	ErrLoadSource = fmt.Errorf("%w: load source failed", ErrEncode)
	// ErrCodecEncode indicates the block codec rejected an encode.
	ErrCodecEncode = fmt.Errorf("%w: block codec failed", ErrEncode)
	// ErrBCEncode indicates the BCn encoder failed.
	ErrBCEncode = fmt.Errorf("%w: BCn encode failed", ErrEncode)

	// ErrCodecDecode indicates the block codec rejected a block.
	ErrCodecDecode = fmt.Errorf("%w: block codec failed", ErrDecode)
	// ErrBCDecode indicates the BCn decoder failed.
	ErrBCDecode = fmt.Errorf("%w: BCn decode failed", ErrDecode)

	// ErrOpenFile indicates a file open failed.
	ErrOpenFile = fmt.Errorf("%w: open file failed", ErrIO)
	// ErrCreateFile indicates a file creation failed.
	ErrCreateFile = fmt.Errorf("%w: create file failed", ErrIO)
	// ErrShortRead indicates a file was not fully read.
	ErrShortRead = fmt.Errorf("%w: short read", ErrIO)
	// ErrWriteFile indicates a file write failed.
	ErrWriteFile = fmt.Errorf("%w: write file failed", ErrIO)
)

// EDDS backend errors wrap ErrContainer.
var (
	// ErrEmptyMipmaps indicates missing mipmap data.
	ErrEmptyMipmaps = fmt.Errorf("%w: empty mipmaps", ErrContainer)
	// ErrMipmapSizeMismatch indicates mipmap payload size mismatch.
	ErrMipmapSizeMismatch = fmt.Errorf("%w: mipmap size mismatch", ErrContainer)
	// ErrEDDSFormat indicates a format the EDDS backend cannot store.
	ErrEDDSFormat = fmt.Errorf("%w: format not storable in EDDS", ErrContainer)
	// ErrLZ4Compress indicates LZ4 compression failed.
	ErrLZ4Compress = fmt.Errorf("%w: LZ4 compression failed", ErrContainer)
	// ErrLZ4Decode indicates LZ4 decode failed.
	ErrLZ4Decode = fmt.Errorf("%w: LZ4 decode failed", ErrContainer)
	// ErrChunkTooLarge indicates a compressed chunk exceeds allowed size.
	ErrChunkTooLarge = fmt.Errorf("%w: compressed chunk too large", ErrContainer)
	// ErrCopySizeMismatch indicates COPY block data size mismatch.
	ErrCopySizeMismatch = fmt.Errorf("%w: COPY block size mismatch", ErrContainer)
	// ErrUnknownBlockMagic indicates an unknown block magic.
	ErrUnknownBlockMagic = fmt.Errorf("%w: unknown block magic", ErrContainer)
	// ErrChunkStreamTruncated indicates LZ4 chunk stream is truncated.
	ErrChunkStreamTruncated = fmt.Errorf("%w: LZ4 chunk-stream truncated", ErrContainer)
	// ErrUnknownLZ4Flags indicates unknown LZ4 chunk flags.
	ErrUnknownLZ4Flags = fmt.Errorf("%w: unknown LZ4 flags", ErrContainer)
	// ErrInvalidChunkSize indicates invalid LZ4 chunk size.
	ErrInvalidChunkSize = fmt.Errorf("%w: invalid compressed chunk size", ErrContainer)
	// ErrDecodeOverrun indicates decoded data overruns target buffer.
	ErrDecodeOverrun = fmt.Errorf("%w: decoded LZ4 overruns target buffer", ErrContainer)
	// ErrDecodedSizeMismatch indicates decoded size mismatch.
	ErrDecodedSizeMismatch = fmt.Errorf("%w: LZ4 decoded size mismatch", ErrContainer)
	// ErrBlockTable indicates a malformed block table.
	ErrBlockTable = fmt.Errorf("%w: invalid block table", ErrContainer)
	// ErrDDSHeader indicates the DDS header could not be read or written.
	ErrDDSHeader = fmt.Errorf("%w: DDS header", ErrContainer)
	// ErrZstd indicates zstd wrapping or unwrapping failed.
	ErrZstd = fmt.Errorf("%w: zstd", ErrContainer)
)

// ContainerErrorCode is a container backend failure code.
type ContainerErrorCode int

// Container backend failure codes.
const (
	CodeFileDataError ContainerErrorCode = iota + 1
	CodeFileOpenFailed
	CodeFileOverflow
	CodeFileReadError
	CodeFileSeekError
	CodeFileUnexpectedEOF
	CodeFileWriteError
	CodeInvalidOperation
	CodeInvalidValue
	CodeNotFound
	CodeOutOfMemory
	CodeUnknownFileFormat
	CodeUnsupportedTextureType
)

var containerErrorText = map[ContainerErrorCode]string{
	CodeFileDataError:          "the data in the file is inconsistent with the KTX format",
	CodeFileOpenFailed:         "the target file could not be opened",
	CodeFileOverflow:           "the operation would exceed the max file size",
	CodeFileReadError:          "an error occurred while reading from the file",
	CodeFileSeekError:          "an error occurred while seeking in the file",
	CodeFileUnexpectedEOF:      "file does not have enough data to satisfy request",
	CodeFileWriteError:         "an error occurred while writing to the file",
	CodeInvalidOperation:       "the operation is not allowed in the current state",
	CodeInvalidValue:           "a parameter value was not valid",
	CodeNotFound:               "requested key was not found",
	CodeOutOfMemory:            "not enough memory to complete the operation",
	CodeUnknownFileFormat:      "the file is not a KTX file",
	CodeUnsupportedTextureType: "the KTX file specifies an unsupported texture type",
}

// String returns the human-readable description of c.
func (c ContainerErrorCode) String() string {
	if s, ok := containerErrorText[c]; ok {
		return s
	}

	return "unknown"
}

// ContainerError is a container backend failure with its code.
type ContainerError struct {
	// Op names the failed step, e.g. "cannot load KTX texture".
	Op   string
	Code ContainerErrorCode
	// Err is the underlying cause, if any.
	Err error
}

func (e *ContainerError) Error() string {
	msg := e.Op + ": " + e.Code.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns ErrContainer and the underlying cause.
func (e *ContainerError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrContainer, e.Err}
	}

	return []error{ErrContainer}
}

func containerErr(op string, code ContainerErrorCode, cause error) error {
	return &ContainerError{Op: op, Code: code, Err: cause}
}
