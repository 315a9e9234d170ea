package codegen

import (
	"fmt"
	"sort"
	"strings"

	"arcreactor/internal/circuit"
	"arcreactor/internal/logging"
)

// Local generates a sketch without any AI involvement: pin constants from
// the declared connections plus a per-type setup/loop skeleton. Used when no
// API key is configured, or on request. An empty circuit yields a stub
// sketch, not an error.
func Local(data circuit.Data) string {
	if len(data.Components) == 0 {
		return "// No circuit components provided.\n\nvoid setup() {}\n\nvoid loop() {}\n"
	}

	timer := logging.StartTimer(logging.CategoryCodegen, "Local")
	defer timer.Stop()

	s := &sketch{includes: map[string]bool{}}
	for _, comp := range data.Components {
		if comp.Type == circuit.TypeArduinoUno {
			continue
		}
		s.emitComponent(comp)
	}
	return s.render()
}

// sketch accumulates the sections of a generated .ino file.
type sketch struct {
	includes  map[string]bool
	constants []string
	globals   []string
	setup     []string
	loop      []string
}

func (s *sketch) emitComponent(comp circuit.ComponentData) {
	pins := declaredPins(comp)
	name := constName(comp.ID)

	switch comp.Type {
	case "led":
		if pin, ok := pins["anode"]; ok {
			c := name + "_PIN"
			s.constants = append(s.constants, fmt.Sprintf("const int %s = %s; // %s anode", c, pin, comp.ID))
			s.setup = append(s.setup, fmt.Sprintf("pinMode(%s, OUTPUT);", c))
			s.loop = append(s.loop,
				fmt.Sprintf("digitalWrite(%s, HIGH);", c),
				"delay(500);",
				fmt.Sprintf("digitalWrite(%s, LOW);", c),
				"delay(500);")
		}

	case "button":
		if pin, ok := pins["pin1"]; ok {
			c := name + "_PIN"
			s.constants = append(s.constants, fmt.Sprintf("const int %s = %s; // %s", c, pin, comp.ID))
			s.setup = append(s.setup, fmt.Sprintf("pinMode(%s, INPUT_PULLUP);", c))
			s.loop = append(s.loop,
				fmt.Sprintf("int %sState = digitalRead(%s);", lowerFirst(comp.ID), c))
		}

	case "buzzer":
		if pin, ok := pins["plus"]; ok {
			c := name + "_PIN"
			s.constants = append(s.constants, fmt.Sprintf("const int %s = %s; // %s", c, pin, comp.ID))
			s.setup = append(s.setup, fmt.Sprintf("pinMode(%s, OUTPUT);", c))
			s.loop = append(s.loop,
				fmt.Sprintf("tone(%s, 440, 250);", c),
				"delay(1000);")
		}

	case "servo":
		if pin, ok := pins["signal"]; ok {
			s.includes["Servo.h"] = true
			obj := lowerFirst(comp.ID)
			c := name + "_PIN"
			s.constants = append(s.constants, fmt.Sprintf("const int %s = %s; // %s signal", c, pin, comp.ID))
			s.globals = append(s.globals, fmt.Sprintf("Servo %s;", obj))
			s.setup = append(s.setup, fmt.Sprintf("%s.attach(%s);", obj, c))
			s.loop = append(s.loop,
				fmt.Sprintf("%s.write(0);", obj),
				"delay(1000);",
				fmt.Sprintf("%s.write(180);", obj),
				"delay(1000);")
		}

	case "motor":
		if pin, ok := pins["plus"]; ok {
			c := name + "_PIN"
			s.constants = append(s.constants, fmt.Sprintf("const int %s = %s; // %s", c, pin, comp.ID))
			s.setup = append(s.setup, fmt.Sprintf("pinMode(%s, OUTPUT);", c))
			s.loop = append(s.loop, fmt.Sprintf("digitalWrite(%s, HIGH);", c))
		}

	case "motor_driver":
		for _, pinName := range []string{"in1", "in2", "in3", "in4"} {
			if pin, ok := pins[pinName]; ok {
				c := fmt.Sprintf("%s_%s", name, strings.ToUpper(pinName))
				s.constants = append(s.constants, fmt.Sprintf("const int %s = %s; // %s %s", c, pin, comp.ID, pinName))
				s.setup = append(s.setup, fmt.Sprintf("pinMode(%s, OUTPUT);", c))
			}
		}
		for _, pinName := range []string{"ena", "enb"} {
			if pin, ok := pins[pinName]; ok {
				c := fmt.Sprintf("%s_%s", name, strings.ToUpper(pinName))
				s.constants = append(s.constants, fmt.Sprintf("const int %s = %s; // %s %s", c, pin, comp.ID, pinName))
				s.setup = append(s.setup, fmt.Sprintf("pinMode(%s, OUTPUT);", c))
				s.loop = append(s.loop, fmt.Sprintf("analogWrite(%s, 200);", c))
			}
		}

	case "ultrasonic":
		trig, hasTrig := pins["trig"]
		echo, hasEcho := pins["echo"]
		if hasTrig && hasEcho {
			ct := name + "_TRIG_PIN"
			ce := name + "_ECHO_PIN"
			s.constants = append(s.constants,
				fmt.Sprintf("const int %s = %s; // %s trig", ct, trig, comp.ID),
				fmt.Sprintf("const int %s = %s; // %s echo", ce, echo, comp.ID))
			s.setup = append(s.setup,
				fmt.Sprintf("pinMode(%s, OUTPUT);", ct),
				fmt.Sprintf("pinMode(%s, INPUT);", ce))
			s.loop = append(s.loop,
				fmt.Sprintf("digitalWrite(%s, LOW);", ct),
				"delayMicroseconds(2);",
				fmt.Sprintf("digitalWrite(%s, HIGH);", ct),
				"delayMicroseconds(10);",
				fmt.Sprintf("digitalWrite(%s, LOW);", ct),
				fmt.Sprintf("long %sDuration = pulseIn(%s, HIGH);", lowerFirst(comp.ID), ce),
				fmt.Sprintf("long %sDistance = %sDuration * 0.034 / 2;", lowerFirst(comp.ID), lowerFirst(comp.ID)))
		}

	case "potentiometer":
		if pin, ok := pins["wiper"]; ok {
			c := name + "_PIN"
			s.constants = append(s.constants, fmt.Sprintf("const int %s = %s; // %s wiper", c, pin, comp.ID))
			s.loop = append(s.loop, fmt.Sprintf("int %sValue = analogRead(%s);", lowerFirst(comp.ID), c))
		}

	case "bluetooth":
		tx, hasTx := pins["tx"]
		rx, hasRx := pins["rx"]
		if hasTx && hasRx {
			s.includes["SoftwareSerial.h"] = true
			obj := lowerFirst(comp.ID)
			s.globals = append(s.globals, fmt.Sprintf("SoftwareSerial %s(%s, %s); // RX, TX", obj, tx, rx))
			s.setup = append(s.setup, fmt.Sprintf("%s.begin(9600);", obj))
		}

	case "lcd":
		needed := []string{"rs", "en", "d4", "d5", "d6", "d7"}
		args := make([]string, 0, len(needed))
		for _, pinName := range needed {
			pin, ok := pins[pinName]
			if !ok {
				args = nil
				break
			}
			args = append(args, pin)
		}
		if args != nil {
			s.includes["LiquidCrystal.h"] = true
			obj := lowerFirst(comp.ID)
			s.globals = append(s.globals, fmt.Sprintf("LiquidCrystal %s(%s);", obj, strings.Join(args, ", ")))
			s.setup = append(s.setup,
				fmt.Sprintf("%s.begin(16, 2);", obj),
				fmt.Sprintf("%s.print(\"Hello!\");", obj))
		}
	}
}

func (s *sketch) render() string {
	var b strings.Builder
	b.WriteString("// Generated by ARC Reactor CAD (local template)\n\n")

	if len(s.includes) > 0 {
		headers := make([]string, 0, len(s.includes))
		for h := range s.includes {
			headers = append(headers, h)
		}
		sort.Strings(headers)
		for _, h := range headers {
			fmt.Fprintf(&b, "#include <%s>\n", h)
		}
		b.WriteString("\n")
	}

	for _, line := range s.constants {
		b.WriteString(line + "\n")
	}
	if len(s.constants) > 0 {
		b.WriteString("\n")
	}
	for _, line := range s.globals {
		b.WriteString(line + "\n")
	}
	if len(s.globals) > 0 {
		b.WriteString("\n")
	}

	b.WriteString("void setup() {\n")
	b.WriteString("  Serial.begin(9600);\n")
	for _, line := range s.setup {
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("}\n\n")

	b.WriteString("void loop() {\n")
	if len(s.loop) == 0 {
		b.WriteString("  // Nothing to do.\n")
	}
	for _, line := range s.loop {
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("}\n")
	return b.String()
}

// declaredPins returns the component's board pins as Arduino source
// literals: "D13" becomes "13", analog pins stay symbolic, power and ground
// rails are dropped.
func declaredPins(comp circuit.ComponentData) map[string]string {
	pins := make(map[string]string, len(comp.Connections))
	for pinName, target := range comp.Connections {
		lit, ok := pinLiteral(fmt.Sprintf("%v", target))
		if ok {
			pins[pinName] = lit
		}
	}
	return pins
}

func pinLiteral(boardPin string) (string, bool) {
	normalized := circuit.NormalizeBoardPin(boardPin)
	switch {
	case len(normalized) >= 2 && normalized[0] == 'D':
		return normalized[1:], true
	case len(normalized) >= 2 && normalized[0] == 'A':
		return normalized, true
	default:
		// Power and ground rails carry no code.
		return "", false
	}
}

func constName(id string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(id) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	name := b.String()
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "C_" + name
	}
	return name
}

func lowerFirst(id string) string {
	var b strings.Builder
	upperNext := false
	for i, r := range id {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			if upperNext {
				b.WriteString(strings.ToUpper(string(r)))
				upperNext = false
			} else if i == 0 {
				b.WriteString(strings.ToLower(string(r)))
			} else {
				b.WriteRune(r)
			}
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			upperNext = true
		}
	}
	if b.Len() == 0 {
		return "component"
	}
	return b.String()
}
