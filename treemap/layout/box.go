package layout

type Box struct {
	X float64
	Y float64
	W float64
	H float64
}

var NilBox Box = Box{}

func normalizeAreas(areas []float64, target float64) []float64 {
	total := sum(areas)
	if total == target || total == 0 {
		return areas
	}
	n := make([]float64, len(areas))
	for i, s := range areas {
		n[i] = target * s / total
	}
	return n
}

func sum(areas []float64) float64 {
	var total float64
	for _, s := range areas {
		total += s
	}
	return total
}
