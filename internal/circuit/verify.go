package circuit

import (
	"fmt"
	"sort"
	"strings"
)

// Verify checks the circuit for common wiring mistakes and returns a list of
// human-readable issues. An empty list means the circuit passed.
func (c *Circuit) Verify() []string {
	var issues []string

	for _, comp := range c.Components {
		if comp.Type == TypeArduinoUno {
			continue
		}

		var connected, unconnected []string
		for name, pin := range comp.Pins {
			if pin.Connected() {
				connected = append(connected, name)
			} else {
				unconnected = append(unconnected, name)
			}
		}
		sort.Strings(unconnected)

		if len(connected) == 0 {
			issues = append(issues, fmt.Sprintf("component %s (%s) has no connections", comp.ID, comp.Type))
		} else if len(unconnected) > 0 {
			issues = append(issues, fmt.Sprintf("component %s (%s) has unconnected pins: %s",
				comp.ID, comp.Type, strings.Join(unconnected, ", ")))
		}
	}

	hasPower, hasGround := false, false
	for _, comp := range c.Components {
		for _, pin := range comp.Pins {
			if !pin.Connected() {
				continue
			}
			switch pin.Kind {
			case PinPower:
				hasPower = true
			case PinGround:
				hasGround = true
			}
		}
	}
	if !hasPower {
		issues = append(issues, "circuit has no connected power source")
	}
	if !hasGround {
		issues = append(issues, "circuit has no connected ground")
	}

	if c.Board() == nil {
		issues = append(issues, "circuit has no Arduino board")
	}

	return issues
}
