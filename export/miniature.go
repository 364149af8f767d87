// Package export renders grids to small two-colour bitmaps.
package export

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"

	"github.com/sheikhrachel/go-conway/model"
)

// Palette holds the two colors of a miniature
type Palette struct {
	Dead   color.Color
	Living color.Color
}

// DefaultPalette draws living cells black on white
var DefaultPalette = Palette{Dead: color.White, Living: color.Black}

// ErrUnknownFormat is returned by SaveFile for extensions other than .png and .bmp
var ErrUnknownFormat = errors.New("unknown image format")

// Miniature returns the grid as a paletted image with scale×scale pixels per
// cell. Index 0 of the palette is dead, index 1 living.
func Miniature(g *model.Grid, scale int, p Palette) (*image.Paletted, error) {
	if scale < 1 {
		return nil, errors.Wrapf(model.ErrInvalidConfiguration, "[Miniature] scale %d must be at least 1", scale)
	}
	pal := color.Palette{p.Dead, p.Living}

	size := g.Size()
	cells := image.NewPaletted(image.Rect(0, 0, size, size), pal)
	g.ForEach(func(x, y int, living bool) {
		if living {
			cells.SetColorIndex(x, y, 1)
		}
	})
	if scale == 1 {
		return cells, nil
	}

	out := image.NewPaletted(image.Rect(0, 0, size*scale, size*scale), pal)
	xdraw.NearestNeighbor.Scale(out, out.Bounds(), cells, cells.Bounds(), xdraw.Src, nil)
	return out, nil
}

// WritePNG encodes the miniature of g as PNG
func WritePNG(w io.Writer, g *model.Grid, scale int, p Palette) error {
	img, err := Miniature(g, scale, p)
	if err != nil {
		return errors.Wrap(err, "[WritePNG]")
	}
	return errors.Wrap(png.Encode(w, img), "[WritePNG] encode")
}

// WriteBMP encodes the miniature of g as BMP
func WriteBMP(w io.Writer, g *model.Grid, scale int, p Palette) error {
	img, err := Miniature(g, scale, p)
	if err != nil {
		return errors.Wrap(err, "[WriteBMP]")
	}
	return errors.Wrap(bmp.Encode(w, img), "[WriteBMP] encode")
}

// SaveFile writes the miniature to path, picking the encoder from the file extension
func SaveFile(path string, g *model.Grid, scale int, p Palette) (err error) {
	var write func(io.Writer, *model.Grid, int, Palette) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		write = WritePNG
	case ".bmp":
		write = WriteBMP
	default:
		return errors.Wrapf(ErrUnknownFormat, "[SaveFile] %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "[SaveFile] failed to create file: %+v", path)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrapf(cerr, "[SaveFile] failed to close file: %+v", path)
		}
	}()
	return write(f, g, scale, p)
}
