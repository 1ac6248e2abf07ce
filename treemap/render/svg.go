package render

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"go.opentelemetry.io/otel"
)

// SVGRenderer writes boxes as nested SVG groups.
// Tooltip of a box becomes its <title>, which browsers show on hover.
type SVGRenderer struct{}

func (r SVGRenderer) Render(ctx context.Context, root UIBox, w, h float64) []byte {
	_, span := otel.Tracer("bag-treemap").Start(ctx, "SVGRenderer.Render")
	defer span.End()

	var b bytes.Buffer
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f" style="font-family: Monaco, monospace;">`, w, h, w, h)
	b.WriteString("\n")
	writeBox(&b, root)
	b.WriteString("</svg>\n")
	return b.Bytes()
}

func writeBox(b *bytes.Buffer, box UIBox) {
	if box.IsInvisible {
		for _, child := range box.Children {
			writeBox(b, child)
		}
		return
	}

	b.WriteString("<g>\n")
	if box.Tooltip != "" {
		fmt.Fprintf(b, "<title>%s</title>\n", html.EscapeString(box.Tooltip))
	}
	fmt.Fprintf(b,
		`<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" style="fill: %s; stroke: %s; stroke-width: 1px;" />`+"\n",
		box.X, box.Y, box.W, box.H, colorString(box.Color), colorString(box.BorderColor),
	)
	if t := box.Title; t != nil {
		fmt.Fprintf(b,
			`<text x="%.2f" y="%.2f" font-size="%.2f" dominant-baseline="hanging" fill="%s">%s</text>`+"\n",
			t.X, t.Y, float64(fontSize)*t.Scale, colorString(t.Color), html.EscapeString(t.Text),
		)
	}
	for _, child := range box.Children {
		writeBox(b, child)
	}
	b.WriteString("</g>\n")
}

func colorString(c color.Color) string {
	if c == nil {
		return "none"
	}
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return "none"
	}
	return cf.Hex()
}

// HTMLRenderer wraps SVG into standalone web page.
type HTMLRenderer struct {
	Title string
}

func (r HTMLRenderer) Render(ctx context.Context, root UIBox, w, h float64) []byte {
	ctx, span := otel.Tracer("bag-treemap").Start(ctx, "HTMLRenderer.Render")
	defer span.End()

	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(r.Title))
	b.WriteString("</head>\n<body>\n")
	b.Write(SVGRenderer{}.Render(ctx, root, w, h))
	b.WriteString("</body>\n</html>\n")
	return b.Bytes()
}
