package circuit

import (
	"arcreactor/internal/logging"
)

// DefaultPropagationSweeps bounds state propagation per step; enough for
// chained connections in simple circuits.
const DefaultPropagationSweeps = 5

// ComponentState is one component's snapshot after a simulation step.
type ComponentState struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	PinStates  map[string]PinState    `json:"pin_states"`
}

// Snapshot is the full circuit state after a simulation step.
type Snapshot struct {
	Components map[string]ComponentState `json:"components"`
	Conflicts  int                       `json:"conflicts"`
}

// Step performs one simulation step: reset, seed power and ground, propagate
// states across connections for the given number of sweeps, then apply
// per-component behavior. Zero or negative sweeps use the default.
func (c *Circuit) Step(sweeps int) Snapshot {
	if sweeps <= 0 {
		sweeps = DefaultPropagationSweeps
	}
	timer := logging.StartTimer(logging.CategorySim, "Step")
	defer timer.Stop()

	for _, comp := range c.Components {
		for _, pin := range comp.Pins {
			switch pin.Kind {
			case PinPower:
				pin.State = StateHigh
			case PinGround:
				pin.State = StateLow
			default:
				pin.State = StateUnknown
			}
		}
	}

	// Pressed buttons bridge their own terminals, so treat the bridge as an
	// extra connection during propagation.
	type bridge struct{ a, b *Pin }
	var bridges []bridge
	for _, comp := range c.Components {
		if comp.Type != "button" {
			continue
		}
		if pressed, _ := comp.Properties["pressed"].(bool); !pressed {
			continue
		}
		p1, p2 := comp.Pins["pin1"], comp.Pins["pin2"]
		if p1 != nil && p2 != nil {
			bridges = append(bridges, bridge{p1, p2})
		}
	}

	propagate := func(a, b *Pin) {
		switch {
		case a.State != StateUnknown && b.State == StateUnknown:
			b.State = a.State
		case b.State != StateUnknown && a.State == StateUnknown:
			a.State = b.State
		case a.State != StateUnknown && b.State != StateUnknown && a.State != b.State:
			a.State = StateConflict
			b.State = StateConflict
		}
	}

	for i := 0; i < sweeps; i++ {
		for _, conn := range c.Connections {
			pin1 := c.PinByID(conn.Pin1ID)
			pin2 := c.PinByID(conn.Pin2ID)
			if pin1 == nil || pin2 == nil {
				continue
			}
			propagate(pin1, pin2)
		}
		for _, br := range bridges {
			propagate(br.a, br.b)
		}
	}

	conflicts := 0
	for _, comp := range c.Components {
		for _, pin := range comp.Pins {
			if pin.State == StateConflict {
				conflicts++
			}
		}
	}
	if conflicts > 0 {
		logging.Sim("step found %d conflicting pins", conflicts)
	}

	c.applyBehavior()

	snap := Snapshot{Components: make(map[string]ComponentState, len(c.Components)), Conflicts: conflicts}
	for _, comp := range c.Components {
		props := make(map[string]interface{}, len(comp.Properties))
		for k, v := range comp.Properties {
			props[k] = v
		}
		pinStates := make(map[string]PinState, len(comp.Pins))
		for name, pin := range comp.Pins {
			pinStates[name] = pin.State
		}
		snap.Components[comp.ID] = ComponentState{
			Type:       comp.Type,
			Properties: props,
			PinStates:  pinStates,
		}
	}
	return snap
}

// applyBehavior updates component properties from their pin states.
func (c *Circuit) applyBehavior() {
	for _, comp := range c.Components {
		switch comp.Type {
		case "led":
			anode, cathode := comp.Pins["anode"], comp.Pins["cathode"]
			if anode == nil || cathode == nil {
				continue
			}
			if anode.State == StateHigh && cathode.State == StateLow {
				comp.Properties["state"] = "on"
			} else {
				comp.Properties["state"] = "off"
			}

		case "motor":
			plus, minus := comp.Pins["plus"], comp.Pins["minus"]
			if plus == nil || minus == nil {
				continue
			}
			if plus.State == StateHigh && minus.State == StateLow {
				comp.Properties["state"] = "running"
			} else {
				comp.Properties["state"] = "stopped"
			}

		case "buzzer":
			plus, minus := comp.Pins["plus"], comp.Pins["minus"]
			if plus == nil || minus == nil {
				continue
			}
			if plus.State == StateHigh && minus.State == StateLow {
				comp.Properties["state"] = "sounding"
			} else {
				comp.Properties["state"] = "silent"
			}
		}
	}
}
