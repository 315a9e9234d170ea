// Package render draws circuits as SVG diagrams.
package render

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"arcreactor/internal/circuit"
	"arcreactor/internal/logging"
)

// Options controls diagram output.
type Options struct {
	Scale     float64 // 1.0 = native coordinates
	PinLabels bool    // label pins on large components and the board
}

// DefaultOptions renders at native scale with pin labels.
func DefaultOptions() Options {
	return Options{Scale: 1.0, PinLabels: true}
}

// Wire colors by endpoint pin kind.
const (
	wireDefault = "#0000ff"
	wirePower   = "#ff0000"
	wireGround  = "#000000"
)

var pinColors = map[circuit.PinKind]string{
	circuit.PinDigital:  "#0000ff",
	circuit.PinAnalog:   "#ff00ff",
	circuit.PinPower:    "#ff0000",
	circuit.PinGround:   "#000000",
	circuit.PinTerminal: "#009600",
}

const padding = 50

// SVG renders the circuit as an SVG document.
func SVG(c *circuit.Circuit, opts Options) []byte {
	if opts.Scale <= 0 {
		opts.Scale = 1.0
	}
	timer := logging.StartTimer(logging.CategoryRender, "SVG")
	defer timer.Stop()

	maxX, maxY := 800, 600
	for _, comp := range c.Components {
		if x := comp.Position.X + comp.Width; x > maxX {
			maxX = x
		}
		if y := comp.Position.Y + comp.Height; y > maxY {
			maxY = y
		}
	}
	width := scale(maxX+padding, opts.Scale)
	height := scale(maxY+padding, opts.Scale)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		width, height, width, height)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="#ffffff"/>`+"\n", width, height)

	// Wires first, so components draw on top of them.
	for _, conn := range c.Connections {
		drawWire(&b, c, conn, opts.Scale)
	}

	// Stable draw order keeps output diffable.
	comps := make([]*circuit.Component, len(c.Components))
	copy(comps, c.Components)
	sort.Slice(comps, func(i, j int) bool { return comps[i].ID < comps[j].ID })
	for _, comp := range comps {
		drawComponent(&b, comp, opts)
	}

	b.WriteString("</svg>\n")
	logging.Render("rendered circuit: components=%d connections=%d scale=%v", len(c.Components), len(c.Connections), opts.Scale)
	return []byte(b.String())
}

func drawWire(b *strings.Builder, c *circuit.Circuit, conn *circuit.Connection, s float64) {
	pin1 := c.PinByID(conn.Pin1ID)
	pin2 := c.PinByID(conn.Pin2ID)
	if pin1 == nil || pin2 == nil {
		return
	}
	comp1 := c.ComponentByID(pin1.ComponentID)
	comp2 := c.ComponentByID(pin2.ComponentID)
	if comp1 == nil || comp2 == nil {
		return
	}

	color := wireDefault
	if pin1.Kind == circuit.PinPower || pin2.Kind == circuit.PinPower {
		color = wirePower
	} else if pin1.Kind == circuit.PinGround || pin2.Kind == circuit.PinGround {
		color = wireGround
	}

	x1, y1 := pin1.AbsolutePosition(comp1.Position)
	x2, y2 := pin2.AbsolutePosition(comp2.Position)

	points := make([][2]int, 0, len(conn.Path)+2)
	points = append(points, [2]int{x1, y1})
	for _, p := range conn.Path {
		points = append(points, [2]int{p.X, p.Y})
	}
	points = append(points, [2]int{x2, y2})

	for i := 0; i < len(points)-1; i++ {
		fmt.Fprintf(b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="%d"/>`+"\n",
			scale(points[i][0], s), scale(points[i][1], s),
			scale(points[i+1][0], s), scale(points[i+1][1], s),
			color, max(1, scale(2, s)))
	}
}

func drawComponent(b *strings.Builder, comp *circuit.Component, opts Options) {
	s := opts.Scale
	x, y := scale(comp.Position.X, s), scale(comp.Position.Y, s)
	w, h := scale(comp.Width, s), scale(comp.Height, s)

	fmt.Fprintf(b, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s" stroke="#000000"/>`+"\n",
		x, y, w, h, comp.BodyColor())
	fmt.Fprintf(b, `<text x="%d" y="%d" font-size="%d" text-anchor="middle" fill="#000000">%s</text>`+"\n",
		x+w/2, y+h/2, max(8, scale(12, s)), escape(strings.ToUpper(comp.Type)))
	fmt.Fprintf(b, `<text x="%d" y="%d" font-size="%d" text-anchor="middle" fill="#323232">%s</text>`+"\n",
		x+w/2, y+h+scale(12, s), max(7, scale(10, s)), escape(truncate(comp.ID, 8)))

	// Stable pin order.
	names := make([]string, 0, len(comp.Pins))
	for name := range comp.Pins {
		names = append(names, name)
	}
	sort.Strings(names)

	big := comp.Width >= 60 || comp.Height >= 60 || comp.Type == circuit.TypeArduinoUno
	for _, name := range names {
		pin := comp.Pins[name]
		px, py := pin.AbsolutePosition(comp.Position)
		px, py = scale(px, s), scale(py, s)

		color, ok := pinColors[pin.Kind]
		if !ok {
			color = "#646464"
		}
		fmt.Fprintf(b, `<circle cx="%d" cy="%d" r="%d" fill="%s" stroke="#000000"/>`+"\n",
			px, py, max(1, scale(3, s)), color)

		if opts.PinLabels && (big || pin.Kind == circuit.PinPower || pin.Kind == circuit.PinGround) {
			fmt.Fprintf(b, `<text x="%d" y="%d" font-size="%d" fill="#000000">%s</text>`+"\n",
				px+scale(5, s), py-scale(4, s), max(6, scale(9, s)), escape(pin.Name))
		}
	}
}

func scale(v int, s float64) int {
	return int(float64(v) * s)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string {
	return escaper.Replace(s)
}

// WriteFile renders the circuit and writes the SVG to disk.
func WriteFile(c *circuit.Circuit, path string, opts Options) error {
	data := SVG(c, opts)
	if err := os.WriteFile(path, data, 0644); err != nil {
		logging.RenderError("failed to write %s: %v", path, err)
		return fmt.Errorf("failed to write diagram: %w", err)
	}
	logging.Render("wrote diagram to %s (%d bytes)", path, len(data))
	return nil
}
