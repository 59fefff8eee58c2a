package toktx

import "fmt"

// ConvertOptions configures Texture.Convert. Nil uses defaults.
type ConvertOptions struct {
	ASTC *ASTCOptions
	BC   *BCOptions
}

// Texture owns a base image and its mipmap chain, finest to coarsest.
type Texture struct {
	base    Image
	mipmaps []Image
}

// NewTexture takes ownership of base.
func NewTexture(base Image) *Texture {
	return &Texture{base: base}
}

// Image returns the base level.
func (t *Texture) Image() Image { return t.base }

// Mipmaps returns the generated levels below the base, finest first.
func (t *Texture) Mipmaps() []Image { return t.mipmaps }

// Levels returns the level count including the base.
func (t *Texture) Levels() int { return len(t.mipmaps) + 1 }

// Level returns level i, 0 being the base.
func (t *Texture) Level(i int) Image {
	if i == 0 {
		return t.base
	}

	return t.mipmaps[i-1]
}

// GenerateMipmapChain resizes the base image to every halved size until a
// 1x1 level is produced. It does nothing when the chain already exists, and
// leaves the chain empty on error.
func (t *Texture) GenerateMipmapChain() error {
	if len(t.mipmaps) > 0 {
		return nil
	}

	w, h := t.base.Width(), t.base.Height()
	var chain []Image
	for w != 1 || h != 1 {
		w = nextMipSize(w)
		h = nextMipSize(h)

		mip, err := t.base.Resize(w, h)
		if err != nil {
			return fmt.Errorf("mipmap %dx%d: %w", w, h, err)
		}
		chain = append(chain, mip)
	}

	t.mipmaps = chain
	return nil
}

// Convert converts the base image and every mipmap level to format, each
// level independently. Compressed targets encode every level with its own
// block grid. Levels are converted on copies, so on error the texture keeps
// its original levels.
func (t *Texture) Convert(format Format, opts *ConvertOptions) error {
	var conv func(Image) (Image, error)

	switch {
	case format == FormatRGB || format == FormatRGBA:
		conv = func(img Image) (Image, error) {
			img = detached(img)
			if err := img.Convert(format); err != nil {
				return nil, err
			}
			return img, nil
		}
	case format == FormatASTC:
		var astcOpts *ASTCOptions
		if opts != nil {
			astcOpts = opts.ASTC
		}
		conv = func(img Image) (Image, error) {
			img = detached(img)
			if err := img.Convert(FormatRGBA); err != nil {
				return nil, err
			}
			return EncodeASTC(img, astcOpts)
		}
	case format.IsBC():
		var bcOpts *BCOptions
		if opts != nil {
			bcOpts = opts.BC
		}
		conv = func(img Image) (Image, error) {
			img = detached(img)
			if err := img.Convert(FormatRGBA); err != nil {
				return nil, err
			}
			return EncodeBC(img, format, bcOpts)
		}
	default:
		return fmt.Errorf("%w: convert to %s", ErrUnknownFormat, format)
	}

	base, err := conv(t.base)
	if err != nil {
		return fmt.Errorf("level 0: %w", err)
	}

	mipmaps := make([]Image, len(t.mipmaps))
	for i, mip := range t.mipmaps {
		out, err := conv(mip)
		if err != nil {
			return fmt.Errorf("level %d: %w", i+1, err)
		}
		mipmaps[i] = out
	}

	t.base = base
	t.mipmaps = mipmaps
	return nil
}

// detached returns an image whose Convert leaves img untouched. RawImage
// replaces its buffer on Convert, so a struct copy is enough.
func detached(img Image) Image {
	if raw, ok := img.(*RawImage); ok {
		cp := *raw
		return &cp
	}
	return img
}
