package toktx

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// Backend selects the on-disk container format.
type Backend uint8

const (
	// BackendKTX is the KTX 1.1 container.
	BackendKTX Backend = iota
	// BackendEDDS is the Enfusion DDS container with LZ4 block tables.
	BackendEDDS
)

func (b Backend) String() string {
	switch b {
	case BackendKTX:
		return "ktx"
	case BackendEDDS:
		return "edds"
	default:
		return "unknown"
	}
}

// Ext returns the file extension of the backend, with the dot.
func (b Backend) Ext() string {
	return "." + b.String()
}

// ParseBackend maps a name to a Backend.
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "ktx":
		return BackendKTX, nil
	case "edds":
		return BackendEDDS, nil
	default:
		return 0, fmt.Errorf("%w: container %q", ErrUnknownFormat, name)
	}
}

// Compression selects whole-file supercompression.
type Compression uint8

const (
	// CompressionNone writes the container as is.
	CompressionNone Compression = iota
	// CompressionZstd wraps the container in a zstd frame.
	CompressionZstd
)

// ParseCompression maps a name to a Compression.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("%w: compression %q", ErrUnknownFormat, name)
	}
}

// SaveOptions configures Container.Save. Nil writes an uncompressed KTX file.
type SaveOptions struct {
	Backend     Backend
	Compression Compression
	// EDDSCopyBlocks stores EDDS levels as COPY blocks instead of LZ4.
	EDDSCopyBlocks bool
	// BC configures the BCn encoder used when EDDS mipmaps are generated.
	BC *BCOptions
}

// OpenOptions configures how extracted images decode. Nil uses defaults.
type OpenOptions struct {
	ASTC *ASTCOptions
	BC   *BCOptions
}

// Container is an in-memory multi-level texture container.
//
// Levels are ordered from the base (0) to the coarsest mipmap. When
// GenerateMipmaps is set, only the base level is stored and the backend is
// asked to produce the rest.
type Container struct {
	glFormat uint32
	desc     glDesc
	width    int
	height   int
	depth    int
	levels   [][]byte
	generate bool
	// extracted is set once level 0 has been handed to an Image.
	extracted bool

	backend  Backend
	metadata map[string]string
	opts     *OpenOptions
}

// NewContainerFromImage describes a single level taken from img.
func NewContainerFromImage(img Image) (*Container, error) {
	c, err := newContainer(img)
	if err != nil {
		return nil, err
	}

	if err := c.setLevel(0, img); err != nil {
		return nil, err
	}

	return c, nil
}

// NewContainerFromTexture describes every level of t. A texture without a
// mipmap chain asks the backend to generate mipmaps.
func NewContainerFromTexture(t *Texture) (*Container, error) {
	base := t.Image()
	c, err := newContainer(base)
	if err != nil {
		return nil, err
	}

	c.generate = len(t.Mipmaps()) == 0
	c.levels = make([][]byte, t.Levels())

	for i := 0; i < t.Levels(); i++ {
		level := t.Level(i)
		if gl := level.GLFormat(); gl != c.glFormat {
			return nil, containerErr("cannot create KTX texture", CodeInvalidValue,
				fmt.Errorf("level %d has GL format 0x%04X, base has 0x%04X", i, gl, c.glFormat))
		}
		if err := c.setLevel(i, level); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func newContainer(img Image) (*Container, error) {
	gl := img.GLFormat()
	desc, err := describeGL(gl)
	if err != nil {
		return nil, containerErr("cannot create KTX texture", CodeInvalidValue, err)
	}

	depth := img.Depth()
	if depth < 1 {
		depth = 1
	}

	return &Container{
		glFormat: gl,
		desc:     desc,
		width:    img.Width(),
		height:   img.Height(),
		depth:    depth,
		levels:   make([][]byte, 1),
		metadata: map[string]string{},
	}, nil
}

// setLevel stores the payload of level i after checking its size.
func (c *Container) setLevel(i int, img Image) error {
	w, h, d := c.levelDims(i)
	if img.Width() != w || img.Height() != h || max(img.Depth(), 1) != d {
		return containerErr("cannot set image to KTX texture", CodeInvalidValue,
			fmt.Errorf("level %d is %dx%dx%d, expected %dx%dx%d", i, img.Width(), img.Height(), img.Depth(), w, h, d))
	}
	if want := levelSize(c.desc, w, h, d); want >= 0 && img.Size() != want {
		return containerErr("cannot set image to KTX texture", CodeInvalidValue,
			fmt.Errorf("level %d holds %d bytes, expected %d", i, img.Size(), want))
	}

	c.levels[i] = img.Data()
	return nil
}

// levelDims returns the dimensions of level i.
func (c *Container) levelDims(i int) (w, h, d int) {
	return mipDimension(c.width, i), mipDimension(c.height, i), mipDimension(c.depth, i)
}

// levelSize is the tightly packed byte size of a level, or -1 when the GL
// format is not known.
func levelSize(desc glDesc, w, h, d int) int {
	switch {
	case desc.format == FormatASTC:
		hdr := ASTCHeader{BlockDim: desc.astcDim, Width: w, Height: h, Depth: d}
		size, err := hdr.PayloadSize()
		if err != nil {
			return -1
		}
		return size
	case desc.format.IsBC():
		return bcDataLength(desc.format, w, h) * d
	case desc.channels > 0:
		return w * h * d * desc.channels
	default:
		return -1
	}
}

// GLFormat returns the GL internal format of every level.
func (c *Container) GLFormat() uint32 { return c.glFormat }

// Width returns the base width.
func (c *Container) Width() int { return c.width }

// Height returns the base height.
func (c *Container) Height() int { return c.height }

// Depth returns the base depth.
func (c *Container) Depth() int { return c.depth }

// LevelCount returns the number of stored levels.
func (c *Container) LevelCount() int { return len(c.levels) }

// GenerateMipmaps reports whether the backend generates levels past the base.
func (c *Container) GenerateMipmaps() bool { return c.generate }

// Backend returns the format the container was read from.
func (c *Container) Backend() Backend { return c.backend }

// Metadata returns the key/value entries read from the file.
func (c *Container) Metadata() map[string]string { return c.metadata }

// Format returns the pixel format of the stored levels.
func (c *Container) Format() Format { return c.desc.format }

// Image hands level 0 to a new Image. The container gives up the buffer, so
// a second call fails with CodeInvalidOperation.
func (c *Container) Image() (Image, error) {
	if c.extracted || len(c.levels) == 0 || c.levels[0] == nil {
		return nil, containerErr("cannot extract image", CodeInvalidOperation, nil)
	}

	data := c.levels[0]
	var (
		img Image
		err error
	)

	switch {
	case c.desc.format == FormatASTC:
		opts := ASTCOptions{}
		if c.opts != nil && c.opts.ASTC != nil {
			opts = *c.opts.ASTC
		}
		opts.Linear = !c.desc.srgb
		img, err = NewASTCFromBlocks(data, c.width, c.height, c.depth, c.desc.astcDim, &opts)
	case c.desc.format.IsBC():
		var bc *BCImage
		bc, err = NewBCImage(data, c.width, c.height, c.desc.format, c.desc.srgb)
		if err == nil && c.opts != nil && c.opts.BC != nil {
			bc.decode = c.opts.BC.Decode
		}
		img = bc
	default:
		var raw *RawImage
		raw, err = NewRawImage(data, c.width, c.height, c.depth, c.desc.format)
		if err == nil {
			raw.srgb = c.desc.srgb
			raw.gl = c.glFormat
		}
		img = raw
	}
	if err != nil {
		return nil, containerErr("cannot extract image", CodeFileDataError, err)
	}

	c.levels[0] = nil
	c.extracted = true

	return img, nil
}

// Marshal serializes the container with the given options.
func (c *Container) Marshal(opts *SaveOptions) ([]byte, error) {
	if opts == nil {
		opts = &SaveOptions{}
	}
	if c.extracted {
		return nil, containerErr("cannot save KTX texture", CodeInvalidOperation, nil)
	}

	var (
		buf bytes.Buffer
		err error
	)
	switch opts.Backend {
	case BackendKTX:
		err = c.writeKTX(&buf)
	case BackendEDDS:
		err = c.writeEDDS(&buf, opts)
	default:
		err = fmt.Errorf("%w: container %s", ErrUnknownFormat, opts.Backend)
	}
	if err != nil {
		return nil, err
	}

	if opts.Compression == CompressionZstd {
		return zstdWrap(buf.Bytes())
	}

	return buf.Bytes(), nil
}

// Save writes the container to path.
func (c *Container) Save(path string, opts *SaveOptions) error {
	data, err := c.Marshal(opts)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return containerErr("cannot save KTX texture", CodeFileWriteError, err)
	}

	return nil
}

// ReadContainer parses a KTX or EDDS container, optionally zstd wrapped.
func ReadContainer(data []byte, opts *OpenOptions) (*Container, error) {
	if isZstd(data) {
		raw, err := zstdUnwrap(data)
		if err != nil {
			return nil, err
		}
		data = raw
	}

	var (
		c   *Container
		err error
	)
	switch {
	case bytes.HasPrefix(data, ktxIdentifier[:]):
		c, err = readKTX(data)
	case bytes.HasPrefix(data, []byte(ddsMagic)):
		c, err = readEDDS(data)
	default:
		return nil, containerErr("cannot load KTX texture", CodeUnknownFileFormat, nil)
	}
	if err != nil {
		return nil, err
	}

	c.opts = opts
	return c, nil
}

// OpenContainer reads and parses the container file at path.
func OpenContainer(path string, opts *OpenOptions) (*Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, containerErr("cannot load KTX texture", CodeFileOpenFailed, err)
	}

	return ReadContainer(data, opts)
}
