// Package circuit defines the data model for Arduino circuits: components,
// pins, wire connections, verification, and a boolean step simulator.
package circuit

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"arcreactor/internal/logging"
)

// Position is a component's top-left coordinate on the workspace.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Pin represents a single connection point (pin or terminal) on a component.
type Pin struct {
	ID          string
	Name        string // e.g. "D13", "A0", "anode", "pin1"
	Kind        PinKind
	ComponentID string
	OffsetX     int
	OffsetY     int

	// Connections attached to this pin, by connection id.
	ConnectionIDs []string

	// Simulated electrical state.
	State PinState
}

// AbsolutePosition returns the pin's workspace coordinate given its
// component's position.
func (p *Pin) AbsolutePosition(pos Position) (int, int) {
	return pos.X + p.OffsetX, pos.Y + p.OffsetY
}

func (p *Pin) attach(connID string) {
	for _, id := range p.ConnectionIDs {
		if id == connID {
			return
		}
	}
	p.ConnectionIDs = append(p.ConnectionIDs, connID)
}

func (p *Pin) detach(connID string) {
	for i, id := range p.ConnectionIDs {
		if id == connID {
			p.ConnectionIDs = append(p.ConnectionIDs[:i], p.ConnectionIDs[i+1:]...)
			return
		}
	}
}

// Connected reports whether any wire is attached to the pin.
func (p *Pin) Connected() bool {
	return len(p.ConnectionIDs) > 0
}

// Connection represents a wire between two pins.
type Connection struct {
	ID     string
	Pin1ID string
	Pin2ID string

	// Optional routed waypoints for drawing; empty means a straight wire.
	Path []Position
}

// Component represents a single component in the circuit.
type Component struct {
	ID       string
	Type     string // normalized lowercase
	Position Position

	// Component-specific properties, e.g. {"color": "red"}.
	Properties map[string]interface{}

	// Declared pin name -> Arduino pin mapping, as produced by the AI or a
	// loaded document, e.g. {"anode": "13", "cathode": "GND"}. Materialized
	// into Connection objects by FromData.
	Declared map[string]string

	// Pins built from the catalog for this type, by pin name.
	Pins map[string]*Pin

	Width  int
	Height int
}

// NewComponent builds a component with catalog pins. An empty id gets a UUID.
func NewComponent(id, ctype string, pos Position, properties map[string]interface{}, declared map[string]interface{}) *Component {
	if id == "" {
		id = uuid.NewString()
	}
	ctype = strings.ToLower(strings.TrimSpace(ctype))

	fp, ok := footprints[ctype]
	if !ok {
		fp = defaultFootprint
	}

	c := &Component{
		ID:         id,
		Type:       ctype,
		Position:   pos,
		Properties: map[string]interface{}{},
		Declared:   map[string]string{},
		Pins:       map[string]*Pin{},
		Width:      fp.width,
		Height:     fp.height,
	}
	for k, v := range properties {
		c.Properties[k] = v
	}
	// Connection values arrive as strings or numbers; store strings.
	for k, v := range declared {
		c.Declared[k] = fmt.Sprintf("%v", v)
	}

	for name, spec := range pinCatalog[ctype] {
		c.Pins[name] = &Pin{
			ID:          PinID(id, name),
			Name:        name,
			Kind:        spec.kind,
			ComponentID: id,
			OffsetX:     spec.offsetX,
			OffsetY:     spec.offsetY,
			State:       StateUnknown,
		}
	}
	return c
}

// PinID builds the stable id for a component's pin.
func PinID(componentID, pinName string) string {
	return fmt.Sprintf("pin_%s_%s", componentID, pinName)
}

// BodyColor returns the rendered fill color for the component type.
func (c *Component) BodyColor() string {
	if color, ok := bodyColors[c.Type]; ok {
		return color
	}
	return defaultBodyColor
}

// MoveTo relocates the component.
func (c *Component) MoveTo(pos Position) {
	c.Position = pos
}

// Circuit represents an entire circuit design.
type Circuit struct {
	Components  []*Component
	Connections []*Connection
}

// New returns an empty circuit.
func New() *Circuit {
	return &Circuit{}
}

// AddComponent appends a new component of the given type at a position.
// The id is derived from the type and the current component count.
func (c *Circuit) AddComponent(ctype string, pos Position) *Component {
	comp := NewComponent(fmt.Sprintf("%s_%d", strings.ToLower(ctype), len(c.Components)), ctype, pos, nil, nil)
	c.Components = append(c.Components, comp)
	logging.CircuitDebug("added component id=%s type=%s", comp.ID, comp.Type)
	return comp
}

// RemoveComponent removes a component and every connection touching it.
func (c *Circuit) RemoveComponent(componentID string) {
	comp := c.ComponentByID(componentID)
	if comp == nil {
		return
	}

	pinIDs := make(map[string]bool, len(comp.Pins))
	for _, pin := range comp.Pins {
		pinIDs[pin.ID] = true
	}

	kept := c.Connections[:0]
	for _, conn := range c.Connections {
		if pinIDs[conn.Pin1ID] || pinIDs[conn.Pin2ID] {
			if other := c.PinByID(conn.Pin1ID); other != nil {
				other.detach(conn.ID)
			}
			if other := c.PinByID(conn.Pin2ID); other != nil {
				other.detach(conn.ID)
			}
			continue
		}
		kept = append(kept, conn)
	}
	c.Connections = kept

	for i, existing := range c.Components {
		if existing.ID == componentID {
			c.Components = append(c.Components[:i], c.Components[i+1:]...)
			break
		}
	}
	logging.CircuitDebug("removed component id=%s", componentID)
}

// Connect wires two pins together. Returns nil if either pin does not exist
// or the connection already exists in either orientation.
func (c *Circuit) Connect(pin1ID, pin2ID string) *Connection {
	pin1 := c.PinByID(pin1ID)
	pin2 := c.PinByID(pin2ID)
	if pin1 == nil || pin2 == nil {
		logging.CircuitWarn("connect skipped, unknown pin: %s or %s", pin1ID, pin2ID)
		return nil
	}
	for _, conn := range c.Connections {
		if (conn.Pin1ID == pin1ID && conn.Pin2ID == pin2ID) ||
			(conn.Pin1ID == pin2ID && conn.Pin2ID == pin1ID) {
			return nil
		}
	}

	conn := &Connection{
		ID:     uuid.NewString(),
		Pin1ID: pin1ID,
		Pin2ID: pin2ID,
	}
	c.Connections = append(c.Connections, conn)
	pin1.attach(conn.ID)
	pin2.attach(conn.ID)
	return conn
}

// Disconnect removes a connection by id.
func (c *Circuit) Disconnect(connectionID string) {
	for i, conn := range c.Connections {
		if conn.ID != connectionID {
			continue
		}
		if pin := c.PinByID(conn.Pin1ID); pin != nil {
			pin.detach(conn.ID)
		}
		if pin := c.PinByID(conn.Pin2ID); pin != nil {
			pin.detach(conn.ID)
		}
		c.Connections = append(c.Connections[:i], c.Connections[i+1:]...)
		return
	}
}

// ComponentByID finds a component, or nil.
func (c *Circuit) ComponentByID(id string) *Component {
	for _, comp := range c.Components {
		if comp.ID == id {
			return comp
		}
	}
	return nil
}

// PinByID finds a pin across all components, or nil.
func (c *Circuit) PinByID(id string) *Pin {
	for _, comp := range c.Components {
		for _, pin := range comp.Pins {
			if pin.ID == id {
				return pin
			}
		}
	}
	return nil
}

// Board returns the Arduino component, or nil when the circuit has none.
func (c *Circuit) Board() *Component {
	for _, comp := range c.Components {
		if comp.Type == TypeArduinoUno {
			return comp
		}
	}
	return nil
}

// Counts returns the number of components per type.
func (c *Circuit) Counts() map[string]int {
	counts := make(map[string]int)
	for _, comp := range c.Components {
		counts[comp.Type]++
	}
	return counts
}
