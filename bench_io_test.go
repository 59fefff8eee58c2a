package toktx

import (
	"path/filepath"
	"testing"

	"github.com/woozymasta/bcn"
)

// benchTexture builds a texture with a full mipmap chain for IO benchmarks.
func benchTexture(b *testing.B, size int) *Texture {
	b.Helper()

	tex := NewTexture(testRaw(b, size, size))
	if err := tex.GenerateMipmapChain(); err != nil {
		b.Fatalf("prepare mipmaps: %v", err)
	}

	return tex
}

// benchContainer converts a texture and wraps it in a container.
func benchContainer(b *testing.B, size int, format Format) *Container {
	b.Helper()

	tex := benchTexture(b, size)
	opts := &ConvertOptions{BC: &BCOptions{Encode: &bcn.EncodeOptions{QualityLevel: bcn.QualityLevelFast}}}
	if err := tex.Convert(format, opts); err != nil {
		b.Fatalf("prepare %s: %v", format, err)
	}

	c, err := NewContainerFromTexture(tex)
	if err != nil {
		b.Fatalf("prepare container: %v", err)
	}

	return c
}

func BenchmarkEncodeASTC(b *testing.B) {
	raw := testRaw(b, 512, 512)
	opts := &ASTCOptions{Threads: 4}

	b.ReportAllocs()
	b.SetBytes(int64(raw.Size()))
	b.ResetTimer()

	for b.Loop() {
		if _, err := EncodeASTC(raw, opts); err != nil {
			b.Fatalf("encode: %v", err)
		}
	}
}

func BenchmarkDecodeASTC(b *testing.B) {
	img, err := EncodeASTC(testRaw(b, 512, 512), nil)
	if err != nil {
		b.Fatalf("prepare: %v", err)
	}

	b.ReportAllocs()
	b.SetBytes(int64(img.Width() * img.Height() * 4))
	b.ResetTimer()

	for b.Loop() {
		if _, err := img.Decode(); err != nil {
			b.Fatalf("decode: %v", err)
		}
	}
}

func BenchmarkGenerateMipmapChain(b *testing.B) {
	raw := testRaw(b, 512, 512)

	b.ReportAllocs()
	b.ResetTimer()

	for b.Loop() {
		if err := NewTexture(raw).GenerateMipmapChain(); err != nil {
			b.Fatalf("mipmaps: %v", err)
		}
	}
}

func BenchmarkContainerSave(b *testing.B) {
	tests := []struct {
		name   string
		format Format
		opts   *SaveOptions
	}{
		{name: "KTX-ASTC", format: FormatASTC, opts: &SaveOptions{}},
		{name: "KTX-ASTC-zstd", format: FormatASTC, opts: &SaveOptions{Compression: CompressionZstd}},
		{name: "EDDS-DXT5-LZ4", format: FormatDXT5, opts: &SaveOptions{Backend: BackendEDDS}},
		{name: "EDDS-DXT5-COPY", format: FormatDXT5, opts: &SaveOptions{Backend: BackendEDDS, EDDSCopyBlocks: true}},
		{name: "EDDS-RGBA-LZ4", format: FormatRGBA, opts: &SaveOptions{Backend: BackendEDDS}},
	}

	for _, tc := range tests {
		b.Run(tc.name, func(b *testing.B) {
			c := benchContainer(b, 1024, tc.format)
			path := filepath.Join(b.TempDir(), "out"+tc.opts.Backend.Ext())

			b.ReportAllocs()
			b.ResetTimer()

			for b.Loop() {
				if err := c.Save(path, tc.opts); err != nil {
					b.Fatalf("save: %v", err)
				}
			}
		})
	}
}

func BenchmarkContainerOpen(b *testing.B) {
	tests := []struct {
		name   string
		format Format
		opts   *SaveOptions
	}{
		{name: "KTX-ASTC", format: FormatASTC, opts: &SaveOptions{}},
		{name: "EDDS-DXT5", format: FormatDXT5, opts: &SaveOptions{Backend: BackendEDDS}},
		{name: "EDDS-RGBA", format: FormatRGBA, opts: &SaveOptions{Backend: BackendEDDS}},
	}

	for _, tc := range tests {
		b.Run(tc.name, func(b *testing.B) {
			c := benchContainer(b, 1024, tc.format)
			path := filepath.Join(b.TempDir(), "in"+tc.opts.Backend.Ext())
			if err := c.Save(path, tc.opts); err != nil {
				b.Fatalf("prepare input file: %v", err)
			}

			b.ReportAllocs()
			b.ResetTimer()

			for b.Loop() {
				got, err := OpenContainer(path, nil)
				if err != nil {
					b.Fatalf("open: %v", err)
				}
				if _, err := got.Image(); err != nil {
					b.Fatalf("image: %v", err)
				}
			}
		})
	}
}
