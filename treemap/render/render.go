package render

import (
	"context"
	"image/color"

	"go.opentelemetry.io/otel"

	"github.com/nikolaydubina/bag-treemap/treemap"
	"github.com/nikolaydubina/bag-treemap/treemap/layout"
)

const (
	fontSize             int     = 12
	textHeightMultiplier float64 = 0.8
	textWidthMultiplier  float64 = 0.8
	tooSmallBoxHeight    float64 = 5
	tooSmallBoxWidth     float64 = 5
	textMarginH          float64 = 2
)

type UIText struct {
	Text  string
	X     float64
	Y     float64
	H     float64
	W     float64
	Scale float64
	Color color.Color
}

type UIBox struct {
	Title       *UIText
	Tooltip     string
	X           float64
	Y           float64
	W           float64
	H           float64
	Children    []UIBox
	IsInvisible bool
	IsRoot      bool
	Color       color.Color
	BorderColor color.Color
}

func (f UIBox) IsEmpty() bool {
	return f.W == 0 || f.H == 0
}

type Colorer interface {
	ColorBox(ctx context.Context, tree treemap.Tree, node string) color.Color
	ColorText(ctx context.Context, tree treemap.Tree, node string) color.Color
}

// UITreeMapBuilder lays out tree into nested boxes.
type UITreeMapBuilder struct {
	Colorer     Colorer
	BorderColor color.Color
	Tiling      layout.Tiling
}

// NewUITreeMap lays out whole tree into w x h canvas.
// Root without name is treated as synthetic and its children are placed directly on canvas.
func (s UITreeMapBuilder) NewUITreeMap(ctx context.Context, tree treemap.Tree, w, h, margin, padding, paddingRoot float64) UIBox {
	ctx, span := otel.Tracer("bag-treemap").Start(ctx, "UITreeMapBuilder.NewUITreeMap")
	defer span.End()

	t := UIBox{
		X:           0 + paddingRoot,
		Y:           0 + paddingRoot,
		W:           w - (2 * paddingRoot),
		H:           h - (2 * paddingRoot),
		IsInvisible: true,
		IsRoot:      true,
	}

	if root, ok := tree.Nodes[tree.Root]; ok && root.Name != "" {
		t.Children = []UIBox{
			s.NewUIBox(ctx, tree.Root, tree, t.X, t.Y, t.W, t.H, margin, padding, 0),
		}
		return t
	}

	children := tree.To[tree.Root]
	areas := make([]float64, 0, len(children))
	for _, child := range children {
		areas = append(areas, nodeSize(tree, child))
	}
	boxes := layout.Tile(ctx, s.Tiling, layout.Box{X: t.X, Y: t.Y, W: t.W, H: t.H}, areas, 0)
	for i, child := range children {
		if boxes[i] == layout.NilBox {
			continue
		}
		box := s.NewUIBox(ctx, child, tree, boxes[i].X, boxes[i].Y, boxes[i].W, boxes[i].H, margin, padding, 1)
		if box.IsEmpty() {
			continue
		}
		t.Children = append(t.Children, box)
	}
	return t
}

func (s UITreeMapBuilder) NewUIBox(ctx context.Context, node string, tree treemap.Tree, x, y, w, h, margin float64, padding float64, depth int) UIBox {
	if (w <= (2 * padding)) || (h <= (2 * padding)) || w < tooSmallBoxWidth || h < tooSmallBoxHeight {
		// too small, do not draw
		return UIBox{}
	}

	n := tree.Nodes[node]
	t := UIBox{
		X:           x + margin,
		Y:           y + margin,
		W:           w - (2 * margin),
		H:           h - (2 * margin),
		Color:       s.Colorer.ColorBox(ctx, tree, node),
		BorderColor: s.BorderColor,
		Tooltip:     n.Tooltip,
	}

	var textHeight float64
	if title := n.Name; title != "" {
		w := t.W - (2 * padding) - (2 * margin)
		h := t.H - (2 * padding) - (2 * margin) - (2 * textMarginH)
		if scale, th := fitText(title, fontSize, w); scale > 0 && th > 0 && th < h {
			textHeight = th
			t.Title = &UIText{
				Text:  title,
				X:     t.X + padding + margin,
				Y:     t.Y + padding + textMarginH,
				W:     w,
				H:     textHeight,
				Scale: scale,
				Color: s.Colorer.ColorText(ctx, tree, node),
			}
		}
	}

	children := tree.To[node]
	if len(children) == 0 {
		return t
	}

	// node may carry own size on top of its children, it is laid out as last invisible area
	areas := make([]float64, 0, len(children)+1)
	var childrenSize float64
	for _, toPath := range children {
		v := nodeSize(tree, toPath)
		areas = append(areas, v)
		childrenSize += v
	}
	if remainder := n.Size - childrenSize; remainder > 0 {
		areas = append(areas, remainder)
	}

	childrenContainer := layout.Box{
		X: t.X + padding,
		Y: t.Y + padding + textHeight + (2 * textMarginH),
		W: t.W - (2 * padding),
		H: t.H - (2 * padding) - textHeight - (2 * textMarginH),
	}
	boxes := layout.Tile(ctx, s.Tiling, childrenContainer, areas, depth)

	for i, toPath := range children {
		if boxes[i] == layout.NilBox {
			continue
		}
		box := s.NewUIBox(
			ctx,
			toPath,
			tree,
			boxes[i].X,
			boxes[i].Y,
			boxes[i].W,
			boxes[i].H,
			margin,
			padding,
			depth+1,
		)
		if box.IsEmpty() {
			continue
		}
		t.Children = append(t.Children, box)
	}

	return t
}

func nodeSize(tree treemap.Tree, node string) float64 {
	if n, ok := tree.Nodes[node]; ok {
		return n.Size
	}
	var s float64
	for _, child := range tree.To[node] {
		s += nodeSize(tree, child)
	}
	return s
}

func fitText(text string, fontSize int, W float64) (scale float64, h float64) {
	w := textWidth(text, float64(fontSize))
	h = textHeight(float64(fontSize))

	scale = 1.0
	if wscale := W / w; wscale < scale {
		scale = wscale
	}
	return scale, h * scale
}

func textWidth(text string, fontSize float64) float64 {
	return fontSize * float64(len(text)) * textWidthMultiplier
}

func textHeight(fontSize float64) float64 {
	return fontSize * textHeightMultiplier
}
