package render

import (
	"context"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/nikolaydubina/bag-treemap/treemap"
)

var (
	DarkTextColor  color.Color = color.Black
	LightTextColor color.Color = color.White
)

// NoneColorer leaves boxes transparent.
type NoneColorer struct{}

func (s NoneColorer) ColorBox(ctx context.Context, tree treemap.Tree, node string) color.Color {
	return color.Transparent
}

func (s NoneColorer) ColorText(ctx context.Context, tree treemap.Tree, node string) color.Color {
	return DarkTextColor
}

// HeatColorer picks box color from palette by heat of node.
type HeatColorer struct {
	Palette ColorfulPalette
}

func (s HeatColorer) ColorBox(ctx context.Context, tree treemap.Tree, node string) color.Color {
	n, ok := tree.Nodes[node]
	if !ok || !n.HasHeat {
		return s.Palette.GetInterpolatedColorFor(ctx, 0.5)
	}
	return s.Palette.GetInterpolatedColorFor(ctx, n.Heat)
}

func (s HeatColorer) ColorText(ctx context.Context, tree treemap.Tree, node string) color.Color {
	return textColorFor(s.ColorBox(ctx, tree, node))
}

// textColorFor picks text color readable on top of box color.
func textColorFor(boxColor color.Color) color.Color {
	c, ok := colorful.MakeColor(boxColor)
	if !ok {
		return DarkTextColor
	}
	if _, _, l := c.Hcl(); l > 0.5 {
		return DarkTextColor
	}
	return LightTextColor
}
