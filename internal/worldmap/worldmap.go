// Package worldmap renders a top-down picture of the live chunks.
package worldmap

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"tradecraft/internal/profiling"
	"tradecraft/internal/registry"
	"tradecraft/internal/world"
)

// Source is the set of chunks a map is drawn from.
type Source interface {
	Dims() world.Dimensions
	LiveCoords() []world.ChunkCoord
	Chunk(coord world.ChunkCoord) *world.Chunk
}

// Options control the rendering.
type Options struct {
	// Scale is the pixel size of one block column; values below 1 mean 1.
	Scale int
	// Grid outlines every chunk.
	Grid bool
	// Labels writes the chunk coordinate into each chunk's corner.
	Labels bool
}

var (
	gridColor  = color.RGBA{0, 0, 0, 96}
	labelColor = color.RGBA{0, 0, 0, 255}
	voidColor  = color.RGBA{0, 0, 0, 0}
)

// Render draws every live chunk's core columns, colored by the topmost non-air block and
// shaded by its height. North (+Y) is up. Returns nil when nothing is live.
func Render(src Source, blocks *registry.Registry, opts Options) *image.RGBA {
	defer profiling.Track("worldmap.Render")()
	coords := src.LiveCoords()
	if len(coords) == 0 {
		return nil
	}
	dims := src.Dims()
	w := dims.Width

	minC, maxC := coords[0], coords[0]
	for _, c := range coords[1:] {
		minC.X, minC.Y = min(minC.X, c.X), min(minC.Y, c.Y)
		maxC.X, maxC.Y = max(maxC.X, c.X), max(maxC.Y, c.Y)
	}
	cols := (maxC.X - minC.X + 1) * w
	rows := (maxC.Y - minC.Y + 1) * w
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))

	for _, coord := range coords {
		c := src.Chunk(coord)
		if c == nil {
			continue
		}
		baseX := (coord.X - minC.X) * w
		baseY := (coord.Y - minC.Y) * w
		for x := 1; x <= w; x++ {
			for y := 1; y <= w; y++ {
				px := baseX + x - 1
				py := rows - 1 - (baseY + y - 1)
				img.SetRGBA(px, py, topColor(c, x, y, blocks))
			}
		}
	}

	scale := max(opts.Scale, 1)
	if scale > 1 {
		scaled := image.NewRGBA(image.Rect(0, 0, cols*scale, rows*scale))
		xdraw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
		img = scaled
	}

	chunkPx := w * scale
	if opts.Grid {
		drawGrid(img, chunkPx)
	}
	if opts.Labels {
		for _, coord := range coords {
			left := (coord.X - minC.X) * chunkPx
			top := img.Bounds().Dy() - (coord.Y-minC.Y+1)*chunkPx
			label(img, left+2, top+basicfont.Face7x13.Ascent+1, fmt.Sprintf("%d,%d", coord.X, coord.Y))
		}
	}
	return img
}

func topColor(c *world.Chunk, x, y int, blocks *registry.Registry) color.RGBA {
	h := c.Dims().Height
	for z := h - 1; z >= 0; z-- {
		id := c.GetBlock(x, y, z)
		if id == world.BlockTypeAir {
			continue
		}
		def, ok := blocks.Blocks[id]
		if !ok {
			return ColumnColor(0xFF00FF, z, h)
		}
		return ColumnColor(def.TintColor, z, h)
	}
	return voidColor
}

// ColumnColor shades a 0xRRGGBB tint by the height of the column's top block; low columns are
// darker.
func ColumnColor(tint uint32, z, height int) color.RGBA {
	shade := 0.6 + 0.4*float64(z)/float64(max(height-1, 1))
	ch := func(v uint32) uint8 {
		return uint8(float64(v&0xFF)*shade + 0.5)
	}
	return color.RGBA{ch(tint >> 16), ch(tint >> 8), ch(tint), 255}
}

func drawGrid(img *image.RGBA, step int) {
	b := img.Bounds()
	line := image.NewUniform(gridColor)
	for x := 0; x < b.Dx(); x += step {
		draw.Draw(img, image.Rect(x, 0, x+1, b.Dy()), line, image.Point{}, draw.Over)
	}
	for y := b.Dy(); y > 0; y -= step {
		draw.Draw(img, image.Rect(0, y-1, b.Dx(), y), line, image.Point{}, draw.Over)
	}
}

func label(img *image.RGBA, x, y int, text string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if img == nil {
		return fmt.Errorf("no chunks to draw")
	}
	return png.Encode(w, img)
}
