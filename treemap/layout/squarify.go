package layout

import (
	"context"
	"math"
	"sort"

	"go.opentelemetry.io/otel"
)

type wrappedArea struct {
	i    int
	area float64
}

// Squarify lays out areas into box so that boxes are as close to squares as possible.
// Boxes are returned in order of areas. Areas that do not fit or are not positive get NilBox.
// Reference: Bruls, Huizing, van Wijk "Squarified Treemaps".
func Squarify(ctx context.Context, box Box, areas []float64) []Box {
	ctx, span := otel.Tracer("bag-treemap").Start(ctx, "Squarify")
	defer span.End()

	sortedAreas := make([]wrappedArea, len(areas))
	for i, s := range normalizeAreas(areas, box.W*box.H) {
		sortedAreas[i] = wrappedArea{i: i, area: s}
	}
	sort.SliceStable(sortedAreas, func(i, j int) bool { return sortedAreas[i].area > sortedAreas[j].area })

	cleanAreas := make([]float64, 0, len(areas))
	for _, v := range sortedAreas {
		if v.area > 0 {
			cleanAreas = append(cleanAreas, v.area)
		}
	}

	l := squarifyBoxLayout{freeSpace: box}
	l.squarify(cleanAreas, nil, math.Min(l.freeSpace.W, l.freeSpace.H))
	cutoffOverflows(box, l.boxes)

	res := make([]Box, len(areas))
	for i, wr := range sortedAreas {
		if i < len(cleanAreas) && i < len(l.boxes) {
			res[wr.i] = l.boxes[i]
		}
	}
	return res
}

type squarifyBoxLayout struct {
	boxes     []Box
	freeSpace Box
}

func (l *squarifyBoxLayout) squarify(unassignedAreas []float64, stackAreas []float64, w float64) {
	for {
		if len(unassignedAreas) == 0 {
			l.stackBoxes(stackAreas)
			return
		}

		if len(stackAreas) == 0 {
			stackAreas = []float64{unassignedAreas[0]}
			unassignedAreas = unassignedAreas[1:]
			continue
		}

		c := unassignedAreas[0]
		stackc := append(append([]float64{}, stackAreas...), c)
		if highestAspectRatio(stackAreas, w) > highestAspectRatio(stackc, w) {
			// adding to stack improves aspect ratio
			stackAreas = stackc
			unassignedAreas = unassignedAreas[1:]
			continue
		}

		l.stackBoxes(stackAreas)
		stackAreas = nil
		w = math.Min(l.freeSpace.W, l.freeSpace.H)
	}
}

func (l *squarifyBoxLayout) stackBoxes(stackAreas []float64) {
	if l.freeSpace.W < l.freeSpace.H {
		l.stackBoxesHorizontal(stackAreas)
	} else {
		l.stackBoxesVertical(stackAreas)
	}
}

// stackBoxesVertical puts stack as column at left side of free space.
func (l *squarifyBoxLayout) stackBoxesVertical(areas []float64) {
	stackArea, totalArea := sum(areas), l.freeSpace.W*l.freeSpace.H
	if len(areas) == 0 || stackArea == 0 || totalArea == 0 {
		return
	}

	w := l.freeSpace.W * stackArea / totalArea
	offset := l.freeSpace.Y
	for _, s := range areas {
		h := l.freeSpace.H * s / stackArea
		l.boxes = append(l.boxes, Box{X: l.freeSpace.X, Y: offset, W: w, H: h})
		offset += h
	}

	l.freeSpace = Box{
		X: l.freeSpace.X + w,
		Y: l.freeSpace.Y,
		W: l.freeSpace.W - w,
		H: l.freeSpace.H,
	}
}

// stackBoxesHorizontal puts stack as row at top of free space.
func (l *squarifyBoxLayout) stackBoxesHorizontal(areas []float64) {
	stackArea, totalArea := sum(areas), l.freeSpace.W*l.freeSpace.H
	if len(areas) == 0 || stackArea == 0 || totalArea == 0 {
		return
	}

	h := l.freeSpace.H * stackArea / totalArea
	offset := l.freeSpace.X
	for _, s := range areas {
		w := l.freeSpace.W * s / stackArea
		l.boxes = append(l.boxes, Box{X: offset, Y: l.freeSpace.Y, W: w, H: h})
		offset += w
	}

	l.freeSpace = Box{
		X: l.freeSpace.X,
		Y: l.freeSpace.Y + h,
		W: l.freeSpace.W,
		H: l.freeSpace.H - h,
	}
}

func highestAspectRatio(areas []float64, w float64) float64 {
	var minArea, maxArea, totalArea float64
	for i, s := range areas {
		totalArea += s
		if i == 0 || s < minArea {
			minArea = s
		}
		if i == 0 || s > maxArea {
			maxArea = s
		}
	}

	v1 := w * w * maxArea / (totalArea * totalArea)
	v2 := totalArea * totalArea / (w * w * minArea)

	return math.Max(v1, v2)
}

// cutoffOverflows trims boxes that go beyond bounding box due to float rounding.
func cutoffOverflows(boundingBox Box, boxes []Box) {
	maxX := boundingBox.X + boundingBox.W
	maxY := boundingBox.Y + boundingBox.H

	for i, b := range boxes {
		if delta := (b.X + b.W) - maxX; delta > 0 {
			boxes[i].W -= delta
		}
		if delta := (b.Y + b.H) - maxY; delta > 0 {
			boxes[i].H -= delta
		}
	}
}
