package render

import (
	"context"
	_ "embed"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"go.opentelemetry.io/otel"
)

// ColorfulPalette is sorted by position list of colors in [0, 1].
type ColorfulPalette []struct {
	Col colorful.Color
	Pos float64
}

// GetInterpolatedColorFor blends two neighbouring palette colors in HCL space.
func (gt ColorfulPalette) GetInterpolatedColorFor(ctx context.Context, t float64) color.Color {
	for i := 0; i < len(gt)-1; i++ {
		c1 := gt[i]
		c2 := gt[i+1]
		if c1.Pos <= t && t <= c2.Pos {
			t := (t - c1.Pos) / (c2.Pos - c1.Pos)
			return c1.Col.BlendHcl(c2.Col, t).Clamped()
		}
	}
	return gt[len(gt)-1].Col
}

//go:embed palettes/RdBu.csv
var paletteRdBuCSV string

//go:embed palettes/RdYlGn.csv
var paletteRdYlGnCSV string

// Palettes returns names of all embedded palettes.
func Palettes() []string { return []string{"RdBu", "RdYlGn"} }

func makePaletteFromCSV(csv string) (ColorfulPalette, error) {
	var palette ColorfulPalette
	for _, row := range strings.Split(csv, "\n") {
		parts := strings.Split(strings.TrimSpace(row), ",")
		if len(parts) != 2 {
			continue
		}

		c, err := colorful.Hex(parts[0])
		if err != nil {
			return nil, fmt.Errorf("bad color(%s): %w", parts[0], err)
		}

		v, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("bad position(%s): %w", parts[1], err)
		}

		palette = append(palette, struct {
			Col colorful.Color
			Pos float64
		}{Col: c, Pos: v})
	}
	if len(palette) == 0 {
		return nil, fmt.Errorf("empty palette")
	}
	return palette, nil
}

func GetPalette(ctx context.Context, name string) (ColorfulPalette, bool) {
	_, span := otel.Tracer("bag-treemap").Start(ctx, "GetPalette")
	defer span.End()

	var csv string
	switch name {
	case "RdBu":
		csv = paletteRdBuCSV
	case "RdYlGn":
		csv = paletteRdYlGnCSV
	default:
		return nil, false
	}

	palette, err := makePaletteFromCSV(csv)
	if err != nil {
		return nil, false
	}
	return palette, true
}
