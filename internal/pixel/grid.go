package pixel

import (
	"errors"
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidArgument signals an index, value or mode outside of the grid bounds.
var ErrInvalidArgument = errors.New("invalid argument")

const (
	// MaxSize is the largest width or height of a grid.
	MaxSize = 16
	// DefaultSize is the width and height of a new grid.
	DefaultSize = 5
	// DefaultGray is the initial value of the grayscale layer.
	DefaultGray = 128
)

// Mode selects one of the grid layers.
type Mode string

const (
	Binary    Mode = "binary"
	Grayscale Mode = "grayscale"
	RGB       Mode = "rgb"
)

// Color is an 8 bit per channel colour.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Red is the initial colour of the rgb layer.
var Red = Color{R: 255}

func (c Color) colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

// Hex renders the colour as #rrggbb.
func (c Color) Hex() string {
	return c.colorful().Hex()
}

// Gray returns the relative luminance of the colour on a 0-255 scale,
// i.e. the Y component of CIE XYZ over linear sRGB.
func (c Color) Gray() uint8 {
	_, y, _ := c.colorful().Xyz()
	return uint8(math.Round(math.Max(0, math.Min(1, y)) * 255))
}

// ParseHex parses a #rrggbb colour.
func ParseHex(s string) (Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("could not parse colour '%s': %v: %w", s, err, ErrInvalidArgument)
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b}, nil
}

// Grid is an editable image kept in three layers, one per mode.
type Grid struct {
	width  int
	height int
	binary []uint8
	gray   []uint8
	rgb    []Color
}

// New creates a grid of the given dimensions with all layers at their defaults.
func New(width, height int) (*Grid, error) {
	g := &Grid{}
	if err := g.Resize(width, height); err != nil {
		return nil, err
	}
	return g, nil
}

// Resize changes the dimensions of the grid and resets every layer.
func (g *Grid) Resize(width, height int) error {
	if width < 1 || width > MaxSize || height < 1 || height > MaxSize {
		return fmt.Errorf("size %dx%d outside of [1,%d]: %w", width, height, MaxSize, ErrInvalidArgument)
	}
	size := width * height
	g.width = width
	g.height = height
	g.binary = make([]uint8, size)
	g.gray = make([]uint8, size)
	g.rgb = make([]Color, size)
	for i := 0; i < size; i++ {
		g.gray[i] = DefaultGray
		g.rgb[i] = Red
	}
	return nil
}

// Width is the number of columns.
func (g *Grid) Width() int {
	return g.width
}

// Height is the number of rows.
func (g *Grid) Height() int {
	return g.height
}

// Size is the number of cells.
func (g *Grid) Size() int {
	return g.width * g.height
}

func (g *Grid) check(i int) error {
	if i < 0 || i >= g.Size() {
		return fmt.Errorf("cell %d outside of [0,%d): %w", i, g.Size(), ErrInvalidArgument)
	}
	return nil
}

// Toggle flips a cell of the binary layer.
func (g *Grid) Toggle(i int) error {
	if err := g.check(i); err != nil {
		return err
	}
	g.binary[i] = 1 - g.binary[i]
	return nil
}

// PaintGray sets a cell of the grayscale layer.
func (g *Grid) PaintGray(i int, value int) error {
	if err := g.check(i); err != nil {
		return err
	}
	if value < 0 || value > 255 {
		return fmt.Errorf("gray value %d outside of [0,255]: %w", value, ErrInvalidArgument)
	}
	g.gray[i] = uint8(value)
	return nil
}

// PaintRGB sets a cell of the rgb layer.
func (g *Grid) PaintRGB(i int, c Color) error {
	if err := g.check(i); err != nil {
		return err
	}
	g.rgb[i] = c
	return nil
}

// Hex renders a cell of the rgb layer.
func (g *Grid) Hex(i int) (string, error) {
	if err := g.check(i); err != nil {
		return "", err
	}
	return g.rgb[i].Hex(), nil
}

// Gray converts the rgb layer to grayscale.
func (g *Grid) Gray() []uint8 {
	gray := make([]uint8, len(g.rgb))
	for i, c := range g.rgb {
		gray[i] = c.Gray()
	}
	return gray
}

// Features flattens a layer into a feature vector with values in [0,1].
// The rgb layer contributes three values per cell.
func (g *Grid) Features(mode Mode) ([]float64, error) {
	switch mode {
	case Binary:
		ff := make([]float64, len(g.binary))
		for i, v := range g.binary {
			ff[i] = float64(v)
		}
		return ff, nil
	case Grayscale:
		ff := make([]float64, len(g.gray))
		for i, v := range g.gray {
			ff[i] = float64(v) / 255
		}
		return ff, nil
	case RGB:
		ff := make([]float64, 0, 3*len(g.rgb))
		for _, c := range g.rgb {
			ff = append(ff, float64(c.R)/255, float64(c.G)/255, float64(c.B)/255)
		}
		return ff, nil
	}
	return nil, fmt.Errorf("unknown mode '%s': %w", mode, ErrInvalidArgument)
}

// Snapshot is the serialisable view of the grid.
type Snapshot struct {
	Width     int      `json:"width"`
	Height    int      `json:"height"`
	Binary    []int    `json:"binary"`
	Grayscale []int    `json:"grayscale"`
	RGB       []Color  `json:"rgb"`
	Hex       []string `json:"hex"`
}

// Snapshot copies the grid layers.
func (g *Grid) Snapshot() Snapshot {
	hex := make([]string, len(g.rgb))
	for i, c := range g.rgb {
		hex[i] = c.Hex()
	}
	return Snapshot{
		Width:     g.width,
		Height:    g.height,
		Binary:    ints(g.binary),
		Grayscale: ints(g.gray),
		RGB:       append([]Color{}, g.rgb...),
		Hex:       hex,
	}
}

// ints widens a layer so that it encodes as a json array.
func ints(layer []uint8) []int {
	vv := make([]int, len(layer))
	for i, v := range layer {
		vv[i] = int(v)
	}
	return vv
}
