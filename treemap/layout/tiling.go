package layout

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel"
)

// Tiling is strategy of splitting box between children.
type Tiling string

const (
	TilingSquarify  Tiling = "squarify"
	TilingBinary    Tiling = "binary"
	TilingSlice     Tiling = "slice"
	TilingDice      Tiling = "dice"
	TilingSliceDice Tiling = "slice-dice"
	TilingDiceSlice Tiling = "dice-slice"
)

var tilings = []Tiling{TilingSquarify, TilingBinary, TilingSlice, TilingDice, TilingSliceDice, TilingDiceSlice}

// Tilings returns all supported tilings.
func Tilings() []Tiling { return append([]Tiling(nil), tilings...) }

func ParseTiling(s string) (Tiling, error) {
	if s == "" {
		return TilingSquarify, nil
	}
	for _, t := range tilings {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tiling(%s), expected one of %v", s, tilings)
}

// Tile splits box between areas with given tiling.
// Depth is depth of parent node, slice-dice and dice-slice alternate direction on it.
// Boxes are returned in order of areas, areas that are not positive get NilBox.
func Tile(ctx context.Context, tiling Tiling, box Box, areas []float64, depth int) []Box {
	ctx, span := otel.Tracer("bag-treemap").Start(ctx, "Tile")
	defer span.End()

	switch tiling {
	case TilingBinary:
		return Binary(box, areas)
	case TilingSlice:
		return Slice(box, areas)
	case TilingDice:
		return Dice(box, areas)
	case TilingSliceDice:
		if depth%2 == 1 {
			return Slice(box, areas)
		}
		return Dice(box, areas)
	case TilingDiceSlice:
		if depth%2 == 1 {
			return Dice(box, areas)
		}
		return Slice(box, areas)
	default:
		return Squarify(ctx, box, areas)
	}
}

// Slice stacks boxes top to bottom, each of full width.
func Slice(box Box, areas []float64) []Box {
	res := make([]Box, len(areas))
	total := positiveSum(areas)
	if total == 0 {
		return res
	}
	offset := box.Y
	for i, s := range areas {
		if s <= 0 {
			continue
		}
		h := box.H * s / total
		res[i] = Box{X: box.X, Y: offset, W: box.W, H: h}
		offset += h
	}
	return res
}

// Dice places boxes left to right, each of full height.
func Dice(box Box, areas []float64) []Box {
	res := make([]Box, len(areas))
	total := positiveSum(areas)
	if total == 0 {
		return res
	}
	offset := box.X
	for i, s := range areas {
		if s <= 0 {
			continue
		}
		w := box.W * s / total
		res[i] = Box{X: offset, Y: box.Y, W: w, H: box.H}
		offset += w
	}
	return res
}

// Binary splits areas in two groups of nearly equal sum, then splits box along its longer side,
// and repeats for each group.
func Binary(box Box, areas []float64) []Box {
	res := make([]Box, len(areas))
	idx := make([]int, 0, len(areas))
	for i, s := range areas {
		if s > 0 {
			idx = append(idx, i)
		}
	}
	binarySplit(box, areas, idx, res)
	return res
}

func binarySplit(box Box, areas []float64, idx []int, res []Box) {
	switch len(idx) {
	case 0:
		return
	case 1:
		res[idx[0]] = box
		return
	}

	var total float64
	for _, i := range idx {
		total += areas[i]
	}

	k, left, best := 1, 0.0, math.Inf(1)
	var acc float64
	for j := 0; j < len(idx)-1; j++ {
		acc += areas[idx[j]]
		if d := math.Abs(acc - total/2); d < best {
			k, left, best = j+1, acc, d
		}
	}

	frac := left / total
	var a, b Box
	if box.W >= box.H {
		a = Box{X: box.X, Y: box.Y, W: box.W * frac, H: box.H}
		b = Box{X: box.X + a.W, Y: box.Y, W: box.W - a.W, H: box.H}
	} else {
		a = Box{X: box.X, Y: box.Y, W: box.W, H: box.H * frac}
		b = Box{X: box.X, Y: box.Y + a.H, W: box.W, H: box.H - a.H}
	}

	binarySplit(a, areas, idx[:k], res)
	binarySplit(b, areas, idx[k:], res)
}

func positiveSum(areas []float64) float64 {
	var total float64
	for _, s := range areas {
		if s > 0 {
			total += s
		}
	}
	return total
}
