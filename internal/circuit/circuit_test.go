package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewComponent_CatalogPins(t *testing.T) {
	led := NewComponent("led1", "LED", Position{X: 10, Y: 20}, nil, nil)

	assert.Equal(t, "led", led.Type)
	assert.Equal(t, 30, led.Width)
	assert.Equal(t, 30, led.Height)
	require.Len(t, led.Pins, 2)

	anode := led.Pins["anode"]
	require.NotNil(t, anode)
	assert.Equal(t, "pin_led1_anode", anode.ID)
	assert.Equal(t, PinTerminal, anode.Kind)
	assert.Equal(t, StateUnknown, anode.State)

	x, y := anode.AbsolutePosition(led.Position)
	assert.Equal(t, 25, x)
	assert.Equal(t, 20, y)
}

func TestNewComponent_UnknownType(t *testing.T) {
	comp := NewComponent("", "gizmo", Position{}, nil, nil)

	assert.NotEmpty(t, comp.ID)
	assert.Empty(t, comp.Pins)
	assert.Equal(t, 40, comp.Width)
	assert.Equal(t, defaultBodyColor, comp.BodyColor())
}

func TestNewComponent_DeclaredValues(t *testing.T) {
	// Connection targets arrive as strings or JSON numbers.
	comp := NewComponent("led1", "led", Position{}, nil, map[string]interface{}{
		"anode":   float64(13),
		"cathode": "GND",
	})

	assert.Equal(t, "13", comp.Declared["anode"])
	assert.Equal(t, "GND", comp.Declared["cathode"])
}

func TestCircuit_AddComponent(t *testing.T) {
	c := New()
	led := c.AddComponent("led", Position{X: 5, Y: 5})
	button := c.AddComponent("button", Position{X: 50, Y: 5})

	assert.Equal(t, "led_0", led.ID)
	assert.Equal(t, "button_1", button.ID)
	assert.Len(t, c.Components, 2)
}

func TestCircuit_ConnectAndDisconnect(t *testing.T) {
	c := New()
	board := c.AddComponent(TypeArduinoUno, Position{})
	led := c.AddComponent("led", Position{X: 200, Y: 50})

	conn := c.Connect(led.Pins["anode"].ID, board.Pins["D13"].ID)
	require.NotNil(t, conn)
	assert.True(t, led.Pins["anode"].Connected())
	assert.True(t, board.Pins["D13"].Connected())

	// A duplicate wire between the same pins is rejected.
	assert.Nil(t, c.Connect(led.Pins["anode"].ID, board.Pins["D13"].ID))
	assert.Nil(t, c.Connect(board.Pins["D13"].ID, led.Pins["anode"].ID))
	assert.Len(t, c.Connections, 1)

	c.Disconnect(conn.ID)
	assert.Empty(t, c.Connections)
	assert.False(t, led.Pins["anode"].Connected())
	assert.False(t, board.Pins["D13"].Connected())
}

func TestCircuit_Connect_UnknownPin(t *testing.T) {
	c := New()
	c.AddComponent("led", Position{})

	assert.Nil(t, c.Connect("pin_led_0_anode", "pin_nope_D13"))
	assert.Empty(t, c.Connections)
}

func TestCircuit_RemoveComponent(t *testing.T) {
	c := New()
	board := c.AddComponent(TypeArduinoUno, Position{})
	led := c.AddComponent("led", Position{X: 200, Y: 50})
	c.Connect(led.Pins["anode"].ID, board.Pins["D13"].ID)
	c.Connect(led.Pins["cathode"].ID, board.Pins["GND"].ID)

	c.RemoveComponent(led.ID)

	assert.Len(t, c.Components, 1)
	assert.Empty(t, c.Connections)
	assert.False(t, board.Pins["D13"].Connected())
	assert.False(t, board.Pins["GND"].Connected())
}

func TestCircuit_Board(t *testing.T) {
	c := New()
	assert.Nil(t, c.Board())

	c.AddComponent("led", Position{})
	board := c.AddComponent(TypeArduinoUno, Position{})
	assert.Same(t, board, c.Board())
}

func TestCircuit_Counts(t *testing.T) {
	c := New()
	c.AddComponent("led", Position{})
	c.AddComponent("led", Position{})
	c.AddComponent("button", Position{})

	counts := c.Counts()
	assert.Equal(t, 2, counts["led"])
	assert.Equal(t, 1, counts["button"])
}

func TestPinState_String(t *testing.T) {
	tests := []struct {
		state PinState
		want  string
	}{
		{StateHigh, "HIGH"},
		{StateLow, "LOW"},
		{StateConflict, "CONFLICT"},
		{StateUnknown, "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}
