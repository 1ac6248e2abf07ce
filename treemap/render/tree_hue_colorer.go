package render

import (
	"context"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"go.opentelemetry.io/otel"

	"github.com/nikolaydubina/bag-treemap/treemap"
)

// TreeHueColorer gives every subtree its own range of hues,
// so siblings differ in hue and descendants stay close to their ancestor.
type TreeHueColorer struct {
	Hues map[string]float64
	C    float64
	L    float64
	// DeltaL makes every level of depth lighter by this amount.
	DeltaL float64
	Depths map[string]int
}

func NewTreeHueColorer(ctx context.Context, tree treemap.Tree) TreeHueColorer {
	hues, depths := TreeHues(ctx, tree, 0)
	return TreeHueColorer{
		Hues:   hues,
		Depths: depths,
		C:      0.5,
		L:      0.5,
		DeltaL: 0.08,
	}
}

func (s TreeHueColorer) ColorBox(ctx context.Context, tree treemap.Tree, node string) color.Color {
	l := math.Min(s.L+s.DeltaL*float64(s.Depths[node]), 0.95)
	return colorful.Hcl(s.Hues[node], s.C, l).Clamped()
}

func (s TreeHueColorer) ColorText(ctx context.Context, tree treemap.Tree, node string) color.Color {
	return textColorFor(s.ColorBox(ctx, tree, node))
}

// TreeHues splits hue circle between children of every node in breadth first order.
// Returns hue and depth of every node.
func TreeHues(ctx context.Context, tree treemap.Tree, offset float64) (map[string]float64, map[string]int) {
	_, span := otel.Tracer("bag-treemap").Start(ctx, "TreeHues")
	defer span.End()

	ranges := map[string][2]float64{tree.Root: {offset, 360 + offset}}
	depths := map[string]int{tree.Root: 0}

	que := []string{tree.Root}
	var q string
	for len(que) > 0 {
		q, que = que[0], que[1:]
		children := tree.To[q]
		que = append(que, children...)

		minH, maxH := ranges[q][0], ranges[q][1]
		w := math.Abs(maxH-minH) / float64(len(children))
		split := minH
		for i, child := range children {
			depths[child] = depths[q] + 1
			if i == (len(children) - 1) {
				ranges[child] = [2]float64{split, maxH}
				continue
			}
			ranges[child] = [2]float64{split, split + w}
			split += w
		}
	}

	hues := make(map[string]float64, len(ranges))
	for node, r := range ranges {
		hues[node] = math.Mod((r[0]+r[1])/2, 360)
	}
	return hues, depths
}
