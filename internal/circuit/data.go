package circuit

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"arcreactor/internal/logging"
)

// ComponentData is the wire form of a component, as produced by the AI
// designer and stored in circuit documents.
type ComponentData struct {
	ID          string                 `json:"id"`
	Type        string                 `json:"type"`
	Properties  map[string]interface{} `json:"properties,omitempty"`
	Connections map[string]interface{} `json:"connections,omitempty"`
}

// Data is the wire form of a whole circuit.
type Data struct {
	Components []ComponentData `json:"components"`
}

// Imported component grid layout.
const (
	gridOriginX  = 50
	gridOriginY  = 50
	gridSpacingX = 150
	gridSpacingY = 200
	gridColumns  = 3
)

// FromData builds a circuit from its wire form. Components are laid out on a
// grid, a board is synthesized when the data has none, and each component's
// declared pin mapping is materialized into Connection objects.
func FromData(data Data) *Circuit {
	c := New()

	for i, cd := range data.Components {
		col := i % gridColumns
		row := i / gridColumns
		pos := Position{X: gridOriginX + col*gridSpacingX, Y: gridOriginY + row*gridSpacingY}

		id := cd.ID
		if id == "" {
			id = fmt.Sprintf("comp_%d", i)
		}
		ctype := cd.Type
		if ctype == "" {
			ctype = "unknown"
		}
		comp := NewComponent(id, ctype, pos, cd.Properties, cd.Connections)
		c.Components = append(c.Components, comp)
	}

	c.materializeDeclared()
	logging.Circuit("built circuit from data: components=%d connections=%d", len(c.Components), len(c.Connections))
	return c
}

// materializeDeclared turns each component's declared pin->Arduino-pin map
// into Connection objects, creating the board if the data omitted it.
func (c *Circuit) materializeDeclared() {
	board := c.Board()
	if board == nil {
		board = NewComponent("arduino_main", TypeArduinoUno, Position{X: gridOriginX, Y: gridOriginY}, nil, nil)
		c.Components = append(c.Components, board)
		logging.CircuitDebug("no board in data, synthesized %s", board.ID)
	}

	for _, comp := range c.Components {
		if comp.ID == board.ID {
			continue
		}
		for pinName, target := range comp.Declared {
			pin, ok := comp.Pins[pinName]
			if !ok {
				logging.CircuitWarn("component %s declares unknown pin %q", comp.ID, pinName)
				continue
			}
			boardPin := board.Pins[NormalizeBoardPin(target)]
			if boardPin == nil {
				continue
			}
			// GND appears on two headers; overflow onto GND2 when taken.
			if boardPin.Name == "GND" && boardPin.Connected() {
				if alt := board.Pins["GND2"]; alt != nil {
					boardPin = alt
				}
			}
			c.Connect(pin.ID, boardPin.ID)
		}
	}
}

// NormalizeBoardPin maps the loose pin spellings the AI produces onto the
// board's header names: "13" -> "D13", "a0" -> "A0", "gnd" -> "GND".
func NormalizeBoardPin(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	if isDigits(name) {
		return "D" + name
	}
	upper := strings.ToUpper(name)
	switch upper {
	case "GND", "GND2", "5V", "3.3V", "VIN":
		return upper
	}
	if len(upper) >= 2 && (upper[0] == 'D' || upper[0] == 'A') && isDigits(upper[1:]) {
		return upper
	}
	return name
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ToData produces the wire form of the circuit. Only connections that land
// on the board are reflected in each component's connections map, matching
// what the AI designer emits and what the code generator consumes.
func (c *Circuit) ToData() Data {
	data := Data{Components: make([]ComponentData, 0, len(c.Components))}

	for _, comp := range c.Components {
		connections := map[string]interface{}{}
		for pinName, pin := range comp.Pins {
			for _, connID := range pin.ConnectionIDs {
				conn := c.connectionByID(connID)
				if conn == nil {
					continue
				}
				otherID := conn.Pin2ID
				if otherID == pin.ID {
					otherID = conn.Pin1ID
				}
				other := c.PinByID(otherID)
				if other == nil {
					continue
				}
				if owner := c.ComponentByID(other.ComponentID); owner != nil && owner.Type == TypeArduinoUno {
					connections[pinName] = other.Name
				}
			}
		}

		cd := ComponentData{
			ID:   comp.ID,
			Type: comp.Type,
		}
		if len(comp.Properties) > 0 {
			props := make(map[string]interface{}, len(comp.Properties))
			for k, v := range comp.Properties {
				props[k] = v
			}
			cd.Properties = props
		}
		if len(connections) > 0 {
			cd.Connections = connections
		}
		data.Components = append(data.Components, cd)
	}
	return data
}

func (c *Circuit) connectionByID(id string) *Connection {
	for _, conn := range c.Connections {
		if conn.ID == id {
			return conn
		}
	}
	return nil
}

// SaveFile writes the circuit document as indented JSON.
func (c *Circuit) SaveFile(path string) error {
	data, err := json.MarshalIndent(c.ToData(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal circuit: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write circuit file: %w", err)
	}
	logging.Circuit("saved circuit to %s", path)
	return nil
}

// LoadFile reads a circuit document from disk.
func LoadFile(path string) (*Circuit, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read circuit file: %w", err)
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse circuit file: %w", err)
	}
	return FromData(data), nil
}

// ParseData decodes the wire form from raw JSON.
func ParseData(raw []byte) (Data, error) {
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return Data{}, fmt.Errorf("failed to parse circuit data: %w", err)
	}
	return data, nil
}
