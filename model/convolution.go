package model

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// ConvolutionCounter computes the neighbor count of every cell at once by a
// circular 2D convolution of the grid with the Moore kernel. The convolution
// is done in the frequency domain: a real FFT along each row followed by a
// complex FFT along each column. Circular convolution over an N×N buffer is
// exactly toroidal adjacency, so no padding is needed.
//
// A ConvolutionCounter owns scratch buffers and is not safe for concurrent use.
type ConvolutionCounter struct {
	size   int
	halfC  int     // size/2 + 1 coefficients kept per row
	norm   float64 // 1/(size*size), the inverse transforms are unnormalized
	real   *fourier.FFT
	cmplx  *fourier.CmplxFFT
	kernel []complex128
	freq   []complex128
	col    []complex128
	colOut []complex128
	row    []float64
}

// NewConvolutionCounter prepares transforms and the pre-transformed kernel for
// grids of the given side length.
func NewConvolutionCounter(size int) *ConvolutionCounter {
	if size <= 0 {
		size = 1
	}
	c := &ConvolutionCounter{
		size:  size,
		halfC: size/2 + 1,
		norm:  1 / float64(size*size),
	}
	if size == 1 {
		return c
	}

	c.real = fourier.NewFFT(size)
	c.cmplx = fourier.NewCmplxFFT(size)
	c.kernel = make([]complex128, size*c.halfC)
	c.freq = make([]complex128, size*c.halfC)
	c.col = make([]complex128, size)
	c.colOut = make([]complex128, size)
	c.row = make([]float64, size)

	// Offsets that wrap onto the same cell accumulate, offsets that wrap onto
	// the centre are dropped.
	spatial := make([]float64, size*size)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			fy := (dy + size) % size
			fx := (dx + size) % size
			if fx == 0 && fy == 0 {
				continue
			}
			spatial[fy*size+fx]++
		}
	}
	c.forward(c.kernel, func(y int) []float64 {
		return spatial[y*size : (y+1)*size]
	})
	return c
}

// forward writes the 2D transform of the rows returned by rowAt into dst.
func (c *ConvolutionCounter) forward(dst []complex128, rowAt func(y int) []float64) {
	for y := 0; y < c.size; y++ {
		c.real.Coefficients(dst[y*c.halfC:(y+1)*c.halfC], rowAt(y))
	}
	for x := 0; x < c.halfC; x++ {
		for y := 0; y < c.size; y++ {
			c.col[y] = dst[y*c.halfC+x]
		}
		c.cmplx.Coefficients(c.colOut, c.col)
		for y := 0; y < c.size; y++ {
			dst[y*c.halfC+x] = c.colOut[y]
		}
	}
}

// Counts returns the living-neighbor count of every cell in row-major order.
// dst is reused when it has the right length.
func (c *ConvolutionCounter) Counts(g *Grid, dst []int) []int {
	n := g.size * g.size
	if len(dst) != n {
		dst = make([]int, n)
	}
	if g.size != c.size {
		*c = *NewConvolutionCounter(g.size)
	}
	if c.size == 1 {
		for i := range dst {
			dst[i] = 0
		}
		return dst
	}

	c.forward(c.freq, func(y int) []float64 {
		for x := 0; x < c.size; x++ {
			c.row[x] = 0
			if g.cells[g.index(x, y)] {
				c.row[x] = 1
			}
		}
		return c.row
	})

	for i := range c.freq {
		c.freq[i] *= c.kernel[i]
	}

	for x := 0; x < c.halfC; x++ {
		for y := 0; y < c.size; y++ {
			c.col[y] = c.freq[y*c.halfC+x]
		}
		c.cmplx.Sequence(c.colOut, c.col)
		for y := 0; y < c.size; y++ {
			c.freq[y*c.halfC+x] = c.colOut[y]
		}
	}
	for y := 0; y < c.size; y++ {
		c.real.Sequence(c.row, c.freq[y*c.halfC:(y+1)*c.halfC])
		for x := 0; x < c.size; x++ {
			dst[y*c.size+x] = int(math.Round(c.row[x] * c.norm))
		}
	}
	return dst
}
