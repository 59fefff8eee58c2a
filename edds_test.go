package toktx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"

	"github.com/woozymasta/bcn"
)

func TestLZ4BlockRoundTrip(t *testing.T) {
	t.Parallel()

	data := make([]byte, 200*1024)
	for i := range data {
		data[i] = byte((i/64*31 + 7) & 0xff)
	}

	block, err := lz4Block(data)
	if err != nil {
		t.Fatalf("lz4Block: %v", err)
	}
	if block.magic != BlockMagicLZ4 {
		t.Fatalf("expected LZ4 block, got %q", block.magic)
	}

	out, err := block.inflate(len(data))
	if err != nil {
		t.Fatalf("inflate: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("round-trip mismatch")
	}
}

func TestLZ4BlockFallsBackToCopy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "small", data: bytes.Repeat([]byte{1}, lz4MinInput-1)},
		{name: "incompressible", data: noise(64 * 1024)},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			block, err := lz4Block(tc.data)
			if err != nil {
				t.Fatalf("lz4Block: %v", err)
			}
			if block.magic != BlockMagicCOPY {
				t.Fatalf("expected COPY block, got %q", block.magic)
			}
		})
	}
}

func TestInflateChunkStreamErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		stream  []byte
		want    int
		wantErr error
	}{
		{name: "truncated", stream: []byte{1, 0}, want: 16, wantErr: ErrChunkStreamTruncated},
		{name: "flags", stream: []byte{4, 0, 0, 0x04, 1, 2, 3, 4}, want: 16, wantErr: ErrUnknownLZ4Flags},
		{name: "chunk-size", stream: []byte{9, 0, 0, 0x80, 1, 2}, want: 16, wantErr: ErrInvalidChunkSize},
		{name: "zero-target", stream: []byte{1, 0, 0, 0x80, 0}, want: 0, wantErr: ErrDecodedSizeMismatch},
		{name: "target-beyond-stream", stream: []byte{4, 0, 0, 0x80, 1, 2, 3, 4}, want: 1 << 40, wantErr: ErrChunkStreamTruncated},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := inflateChunkStream(tc.stream, tc.want)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if !errors.Is(err, ErrContainer) {
				t.Fatalf("expected container error kind, got %v", err)
			}
		})
	}
}

func TestEDDSRoundTripRGBA(t *testing.T) {
	t.Parallel()

	for _, copyBlocks := range []bool{false, true} {
		copyBlocks := copyBlocks
		name := "lz4"
		if copyBlocks {
			name = "copy"
		}

		t.Run(name, func(t *testing.T) {
			t.Parallel()

			base := testRaw(t, 64, 32)
			want := bytes.Clone(base.Data())

			tex := NewTexture(base)
			if err := tex.GenerateMipmapChain(); err != nil {
				t.Fatalf("GenerateMipmapChain: %v", err)
			}

			c, err := NewContainerFromTexture(tex)
			if err != nil {
				t.Fatalf("NewContainerFromTexture: %v", err)
			}

			path := filepath.Join(t.TempDir(), "rgba.edds")
			if err := c.Save(path, &SaveOptions{Backend: BackendEDDS, EDDSCopyBlocks: copyBlocks}); err != nil {
				t.Fatalf("Save: %v", err)
			}

			got, err := OpenContainer(path, nil)
			if err != nil {
				t.Fatalf("OpenContainer: %v", err)
			}
			if got.Backend() != BackendEDDS {
				t.Fatalf("backend = %s, want edds", got.Backend())
			}
			if got.LevelCount() != tex.Levels() {
				t.Fatalf("levels = %d, want %d", got.LevelCount(), tex.Levels())
			}

			img, err := got.Image()
			if err != nil {
				t.Fatalf("Image: %v", err)
			}
			if !bytes.Equal(img.Data(), want) {
				t.Fatalf("base level mismatch")
			}
		})
	}
}

func TestEDDSExpandsRGB(t *testing.T) {
	t.Parallel()

	base := testRawRGB(t, 8, 8)
	c, err := NewContainerFromImage(base)
	if err != nil {
		t.Fatalf("NewContainerFromImage: %v", err)
	}

	data, err := c.Marshal(&SaveOptions{Backend: BackendEDDS})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got, err := ReadContainer(data, nil)
	if err != nil {
		t.Fatalf("ReadContainer: %v", err)
	}
	if got.Format() != FormatRGBA {
		t.Fatalf("format = %s, want rgba", got.Format())
	}

	img, err := got.Image()
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	pix := img.Data()
	src := base.Data()
	for i := 0; i < 64; i++ {
		if !bytes.Equal(pix[i*4:i*4+3], src[i*3:i*3+3]) || pix[i*4+3] != 0xff {
			t.Fatalf("texel %d: got %v, want %v+ff", i, pix[i*4:i*4+4], src[i*3:i*3+3])
		}
	}
}

func TestEDDSGeneratesMipmaps(t *testing.T) {
	t.Parallel()

	c, err := NewContainerFromTexture(NewTexture(testRaw(t, 32, 16)))
	if err != nil {
		t.Fatalf("NewContainerFromTexture: %v", err)
	}
	if !c.GenerateMipmaps() {
		t.Fatalf("expected mipmap generation for a texture without a chain")
	}

	data, err := c.Marshal(&SaveOptions{Backend: BackendEDDS})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got, err := ReadContainer(data, nil)
	if err != nil {
		t.Fatalf("ReadContainer: %v", err)
	}

	want, err := calculateMipMapCount(32, 16)
	if err != nil {
		t.Fatalf("calculateMipMapCount: %v", err)
	}
	if got.LevelCount() != want {
		t.Fatalf("levels = %d, want %d", got.LevelCount(), want)
	}
}

func TestEDDSRejectsCorruptHeader(t *testing.T) {
	t.Parallel()

	c, err := NewContainerFromTexture(NewTexture(testRaw(t, 32, 16)))
	if err != nil {
		t.Fatalf("NewContainerFromTexture: %v", err)
	}
	valid, err := c.Marshal(&SaveOptions{Backend: BackendEDDS})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	// DDS header fields after the 4-byte magic: size, flags, height, width,
	// pitch, depth, mipMapCount.
	const (
		widthAt = 4 + 4*3
		mipsAt  = 4 + 4*6
	)

	levels := bytes.Clone(valid)
	binary.LittleEndian.PutUint32(levels[mipsAt:], 0xFFFFFFFF)

	wide := bytes.Clone(valid)
	binary.LittleEndian.PutUint32(wide[widthAt:], 1<<30)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "level-count", data: levels},
		{name: "width", data: wide},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := ReadContainer(tc.data, nil)
			var cerr *ContainerError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected *ContainerError, got %v", err)
			}
			if cerr.Code != CodeFileDataError {
				t.Fatalf("code = %s, want %s", cerr.Code, CodeFileDataError)
			}
		})
	}
}

func TestEDDSRoundTripDXT5(t *testing.T) {
	t.Parallel()

	tex := NewTexture(testRaw(t, 16, 16))
	if err := tex.GenerateMipmapChain(); err != nil {
		t.Fatalf("GenerateMipmapChain: %v", err)
	}
	opts := &ConvertOptions{BC: &BCOptions{Encode: &bcn.EncodeOptions{QualityLevel: bcn.QualityLevelFast}}}
	if err := tex.Convert(FormatDXT5, opts); err != nil {
		t.Fatalf("Convert: %v", err)
	}

	c, err := NewContainerFromTexture(tex)
	if err != nil {
		t.Fatalf("NewContainerFromTexture: %v", err)
	}
	data, err := c.Marshal(&SaveOptions{Backend: BackendEDDS})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got, err := ReadContainer(data, nil)
	if err != nil {
		t.Fatalf("ReadContainer: %v", err)
	}
	if got.Format() != FormatDXT5 {
		t.Fatalf("format = %s, want dxt5", got.Format())
	}
	if got.LevelCount() != 5 {
		t.Fatalf("levels = %d, want 5", got.LevelCount())
	}

	img, err := got.Image()
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	bc, ok := img.(*BCImage)
	if !ok {
		t.Fatalf("expected *BCImage, got %T", img)
	}
	if !bytes.Equal(bc.Data(), tex.Image().Data()) {
		t.Fatalf("DXT5 payload mismatch")
	}

	raw, err := bc.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if raw.Width() != 16 || raw.Height() != 16 || raw.Layout() != FormatRGBA {
		t.Fatalf("decoded %dx%d %s", raw.Width(), raw.Height(), raw.Layout())
	}
}

func TestEDDSRejectsASTC(t *testing.T) {
	t.Parallel()

	img, err := EncodeASTC(testRaw(t, 16, 16), nil)
	if err != nil {
		t.Fatalf("EncodeASTC: %v", err)
	}
	c, err := NewContainerFromImage(img)
	if err != nil {
		t.Fatalf("NewContainerFromImage: %v", err)
	}

	_, err = c.Marshal(&SaveOptions{Backend: BackendEDDS})
	if !errors.Is(err, ErrEDDSFormat) {
		t.Fatalf("expected ErrEDDSFormat, got %v", err)
	}

	var cerr *ContainerError
	if !errors.As(err, &cerr) || cerr.Code != CodeUnsupportedTextureType {
		t.Fatalf("expected CodeUnsupportedTextureType, got %v", err)
	}
}

func TestEDDSLegacySingleBlock(t *testing.T) {
	t.Parallel()

	payload := make([]byte, 4*4*4)
	for i := range payload {
		payload[i] = byte(i + 1)
	}
	// The first texel must not look like a table entry or a chunk header.
	copy(payload, []byte{1, 2, 3, 4})

	header, err := makeDDSHeader(4, 4, 1, bcn.FormatRGBA8)
	if err != nil {
		t.Fatalf("makeDDSHeader: %v", err)
	}

	var buf bytes.Buffer
	if err := bcn.WriteDDSMagic(&buf); err != nil {
		t.Fatalf("WriteDDSMagic: %v", err)
	}
	if err := bcn.WriteDDSHeader(&buf, header); err != nil {
		t.Fatalf("WriteDDSHeader: %v", err)
	}
	buf.Write(payload)

	c, err := ReadContainer(buf.Bytes(), nil)
	if err != nil {
		t.Fatalf("ReadContainer: %v", err)
	}

	img, err := c.Image()
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if !bytes.Equal(img.Data(), payload) {
		t.Fatalf("legacy payload mismatch")
	}
}

func TestDetectDDSFormatTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header *bcn.DDSHeader
		dx10   *bcn.DDSHeaderDX10
		want   bcn.Format
	}{
		{
			name: "fourcc-dxt1",
			header: &bcn.DDSHeader{
				PixelFormat: bcn.DDSPixelFormat{
					Flags:  bcn.DDSPFFourCC,
					FourCC: fourCC("DXT1"),
				},
			},
			want: bcn.FormatDXT1,
		},
		{
			name: "fourcc-ati2",
			header: &bcn.DDSHeader{
				PixelFormat: bcn.DDSPixelFormat{
					Flags:  bcn.DDSPFFourCC,
					FourCC: fourCC("ATI2"),
				},
			},
			want: bcn.FormatBC5,
		},
		{
			name: "rgb-bgra8",
			header: &bcn.DDSHeader{
				PixelFormat: bcn.DDSPixelFormat{
					Flags:       bcn.DDSPFRGB | bcn.DDSPFAlphaPixels,
					RGBBitCount: 32,
					RBitMask:    0x00ff0000,
					GBitMask:    0x0000ff00,
					BBitMask:    0x000000ff,
					ABitMask:    0xff000000,
				},
			},
			want: bcn.FormatBGRA8,
		},
		{
			name: "rgb-rgba8",
			header: &bcn.DDSHeader{
				PixelFormat: bcn.DDSPixelFormat{
					Flags:       bcn.DDSPFRGB | bcn.DDSPFAlphaPixels,
					RGBBitCount: 32,
					RBitMask:    0x000000ff,
					GBitMask:    0x0000ff00,
					BBitMask:    0x00ff0000,
					ABitMask:    0xff000000,
				},
			},
			want: bcn.FormatRGBA8,
		},
		{
			name: "dxgi-dxt5",
			dx10: &bcn.DDSHeaderDX10{DXGIFormat: 77},
			want: bcn.FormatDXT5,
		},
		{
			name: "dxgi-unknown",
			dx10: &bcn.DDSHeaderDX10{DXGIFormat: 2},
			want: bcn.FormatUnknown,
		},
		{
			name: "unknown",
			header: &bcn.DDSHeader{
				PixelFormat: bcn.DDSPixelFormat{
					Flags:  bcn.DDSPFFourCC,
					FourCC: fourCC("XXXX"),
				},
			},
			want: bcn.FormatUnknown,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, _ := detectDDSFormat(tc.header, tc.dx10)
			if got != tc.want {
				t.Fatalf("detectDDSFormat() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEDDSDataLengthTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format bcn.Format
		w      int
		h      int
		want   int
	}{
		{name: "dxt1-4x4", format: bcn.FormatDXT1, w: 4, h: 4, want: 8},
		{name: "dxt1-5x7", format: bcn.FormatDXT1, w: 5, h: 7, want: 32},
		{name: "dxt5-4x4", format: bcn.FormatDXT5, w: 4, h: 4, want: 16},
		{name: "bc4-8x8", format: bcn.FormatBC4, w: 8, h: 8, want: 32},
		{name: "bgra8-1x1", format: bcn.FormatBGRA8, w: 1, h: 1, want: 4},
		{name: "rgba8-5x7", format: bcn.FormatRGBA8, w: 5, h: 7, want: 140},
		{name: "unknown", format: bcn.FormatUnknown, w: 4, h: 4, want: -1},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := eddsDataLength(tc.format, tc.w, tc.h)
			if got != tc.want {
				t.Fatalf("eddsDataLength(%v,%d,%d) = %d, want %d", tc.format, tc.w, tc.h, got, tc.want)
			}
		})
	}
}

func TestReadBlockTableErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		magic string
		size  int32
	}{
		{name: "unknown-magic", magic: "ABCD", size: 8},
		{name: "negative-size", magic: BlockMagicCOPY, size: -1},
		{name: "size-beyond-input", magic: BlockMagicLZ4, size: 1 << 30},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			_, _ = buf.WriteString(tc.magic)
			_ = binary.Write(&buf, binary.LittleEndian, tc.size)

			_, err := readBlockTable(bytes.NewReader(buf.Bytes()), 1)
			if !errors.Is(err, ErrBlockTable) {
				t.Fatalf("expected ErrBlockTable, got %v", err)
			}
		})
	}

	t.Run("truncated", func(t *testing.T) {
		t.Parallel()

		_, err := readBlockTable(bytes.NewReader([]byte("COP")), 1)
		if !errors.Is(err, ErrBlockTable) {
			t.Fatalf("expected ErrBlockTable, got %v", err)
		}
	})
}

// noise returns xorshift bytes that LZ4 cannot shrink.
func noise(n int) []byte {
	out := make([]byte, n)
	x := uint32(2463534242)
	for i := range out {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		out[i] = byte(x)
	}
	return out
}
