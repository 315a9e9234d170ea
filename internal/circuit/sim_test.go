package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wiredLED builds a board with an LED on the 5V rail and ground.
func wiredLED(t *testing.T) (*Circuit, *Component) {
	t.Helper()
	c := New()
	board := c.AddComponent(TypeArduinoUno, Position{})
	led := c.AddComponent("led", Position{X: 200, Y: 50})
	require.NotNil(t, c.Connect(led.Pins["anode"].ID, board.Pins["5V"].ID))
	require.NotNil(t, c.Connect(led.Pins["cathode"].ID, board.Pins["GND"].ID))
	return c, led
}

func TestStep_LEDLightsOnPowerRail(t *testing.T) {
	c, led := wiredLED(t)

	snap := c.Step(0)

	assert.Equal(t, StateHigh, led.Pins["anode"].State)
	assert.Equal(t, StateLow, led.Pins["cathode"].State)
	assert.Equal(t, "on", led.Properties["state"])
	assert.Zero(t, snap.Conflicts)

	state := snap.Components[led.ID]
	assert.Equal(t, "led", state.Type)
	assert.Equal(t, StateHigh, state.PinStates["anode"])
}

func TestStep_LEDOffWithoutPower(t *testing.T) {
	c := New()
	board := c.AddComponent(TypeArduinoUno, Position{})
	led := c.AddComponent("led", Position{X: 200, Y: 50})
	c.Connect(led.Pins["anode"].ID, board.Pins["D13"].ID)
	c.Connect(led.Pins["cathode"].ID, board.Pins["GND"].ID)

	c.Step(0)

	// D13 is not driven, so the anode never sees HIGH.
	assert.Equal(t, StateUnknown, led.Pins["anode"].State)
	assert.Equal(t, "off", led.Properties["state"])
}

func TestStep_ConflictOnShortedRails(t *testing.T) {
	c := New()
	board := c.AddComponent(TypeArduinoUno, Position{})
	res := c.AddComponent("resistor", Position{X: 200, Y: 50})
	c.Connect(res.Pins["pin1"].ID, board.Pins["5V"].ID)
	c.Connect(res.Pins["pin2"].ID, board.Pins["GND"].ID)
	// Shorting the resistor's leads ties 5V to GND through it.
	c.Connect(res.Pins["pin1"].ID, res.Pins["pin2"].ID)

	snap := c.Step(0)
	assert.Greater(t, snap.Conflicts, 0)
	assert.Equal(t, StateConflict, res.Pins["pin1"].State)
	assert.Equal(t, StateConflict, res.Pins["pin2"].State)
}

func TestStep_PressedButtonBridges(t *testing.T) {
	c := New()
	board := c.AddComponent(TypeArduinoUno, Position{})
	button := c.AddComponent("button", Position{X: 200, Y: 50})
	buzzer := c.AddComponent("buzzer", Position{X: 400, Y: 50})

	c.Connect(button.Pins["pin1"].ID, board.Pins["5V"].ID)
	c.Connect(button.Pins["pin2"].ID, buzzer.Pins["plus"].ID)
	c.Connect(buzzer.Pins["minus"].ID, board.Pins["GND"].ID)

	c.Step(0)
	assert.Equal(t, "silent", buzzer.Properties["state"])

	button.Properties["pressed"] = true
	c.Step(0)
	assert.Equal(t, "sounding", buzzer.Properties["state"])

	button.Properties["pressed"] = false
	c.Step(0)
	assert.Equal(t, "silent", buzzer.Properties["state"])
}

func TestStep_PropagatesAlongWireChain(t *testing.T) {
	// 5V -> resistor pin1 -> LED anode shares one node through two wires;
	// the sweep loop has to carry HIGH across both hops. States never
	// conduct through a component body, only along wires.
	c := New()
	board := c.AddComponent(TypeArduinoUno, Position{})
	res := c.AddComponent("resistor", Position{X: 200, Y: 50})
	led := c.AddComponent("led", Position{X: 400, Y: 50})

	c.Connect(res.Pins["pin1"].ID, board.Pins["5V"].ID)
	c.Connect(res.Pins["pin1"].ID, led.Pins["anode"].ID)
	c.Connect(led.Pins["cathode"].ID, board.Pins["GND"].ID)

	c.Step(0)
	assert.Equal(t, "on", led.Properties["state"])
	assert.Equal(t, StateHigh, res.Pins["pin1"].State)
	assert.Equal(t, StateUnknown, res.Pins["pin2"].State)
}

func TestStep_ResetsBetweenSteps(t *testing.T) {
	c, led := wiredLED(t)
	c.Step(0)
	require.Equal(t, "on", led.Properties["state"])

	// Cut the power wire; the next step must not carry stale state.
	for _, connID := range append([]string(nil), led.Pins["anode"].ConnectionIDs...) {
		c.Disconnect(connID)
	}
	c.Step(0)
	assert.Equal(t, "off", led.Properties["state"])
}
