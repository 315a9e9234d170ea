package circuit

// PinKind classifies a connection point.
type PinKind string

const (
	PinDigital  PinKind = "digital"
	PinAnalog   PinKind = "analog"
	PinPower    PinKind = "power"
	PinGround   PinKind = "gnd"
	PinTerminal PinKind = "terminal" // generic component pin (LED legs, resistor leads)
)

// PinState is the simulated electrical state of a pin.
type PinState int

const (
	StateUnknown  PinState = iota - 2 // -2
	StateConflict                     // -1: HIGH wired to LOW or similar
	StateLow                          // 0
	StateHigh                         // 1
)

func (s PinState) String() string {
	switch s {
	case StateHigh:
		return "HIGH"
	case StateLow:
		return "LOW"
	case StateConflict:
		return "CONFLICT"
	default:
		return "UNKNOWN"
	}
}

// TypeArduinoUno is the board type every circuit is anchored on.
const TypeArduinoUno = "arduinouno"

// pinSpec describes one catalog pin: its kind and drawing offset.
type pinSpec struct {
	kind    PinKind
	offsetX int
	offsetY int
}

// pinCatalog maps component type to its pin layout. Offsets are relative to
// the component's top-left corner and drive both rendering and hit testing.
var pinCatalog = map[string]map[string]pinSpec{
	TypeArduinoUno: {
		"D0":   {PinDigital, 0, 20},
		"D1":   {PinDigital, 0, 30},
		"D2":   {PinDigital, 0, 40},
		"D3":   {PinDigital, 0, 50},
		"D4":   {PinDigital, 0, 60},
		"D5":   {PinDigital, 0, 70},
		"D6":   {PinDigital, 0, 80},
		"D7":   {PinDigital, 0, 90},
		"D8":   {PinDigital, 0, 100},
		"D9":   {PinDigital, 0, 110},
		"D10":  {PinDigital, 0, 120},
		"D11":  {PinDigital, 0, 130},
		"D12":  {PinDigital, 0, 140},
		"D13":  {PinDigital, 0, 150},
		"A0":   {PinAnalog, 100, 20},
		"A1":   {PinAnalog, 100, 30},
		"A2":   {PinAnalog, 100, 40},
		"A3":   {PinAnalog, 100, 50},
		"A4":   {PinAnalog, 100, 60},
		"A5":   {PinAnalog, 100, 70},
		"5V":   {PinPower, 100, 90},
		"3.3V": {PinPower, 100, 100},
		"GND":  {PinGround, 100, 110},
		"GND2": {PinGround, 100, 120},
		"VIN":  {PinPower, 100, 130},
	},
	"led": {
		"anode":   {PinTerminal, 15, 0},
		"cathode": {PinTerminal, 15, 30},
	},
	"button": {
		"pin1": {PinTerminal, 0, 20},
		"pin2": {PinTerminal, 40, 20},
	},
	"resistor": {
		"pin1": {PinTerminal, 0, 10},
		"pin2": {PinTerminal, 60, 10},
	},
	"potentiometer": {
		"wiper": {PinTerminal, 25, 0},
		"pin1":  {PinTerminal, 0, 20},
		"pin2":  {PinTerminal, 50, 20},
	},
	"servo": {
		"signal": {PinTerminal, 30, 0},
		"power":  {PinPower, 15, 40},
		"ground": {PinGround, 45, 40},
	},
	"motor": {
		"plus":  {PinTerminal, 0, 25},
		"minus": {PinTerminal, 50, 25},
	},
	"motor_driver": {
		"in1":  {PinTerminal, 0, 10},
		"in2":  {PinTerminal, 0, 25},
		"in3":  {PinTerminal, 0, 40},
		"in4":  {PinTerminal, 0, 55},
		"ena":  {PinTerminal, 35, 0},
		"enb":  {PinTerminal, 55, 0},
		"out1": {PinTerminal, 70, 10},
		"out2": {PinTerminal, 70, 25},
		"out3": {PinTerminal, 70, 40},
		"out4": {PinTerminal, 70, 55},
		"vcc":  {PinPower, 35, 70},
		"gnd":  {PinGround, 55, 70},
	},
	"ultrasonic": {
		"trig": {PinTerminal, 10, 0},
		"echo": {PinTerminal, 30, 0},
		"vcc":  {PinPower, 10, 30},
		"gnd":  {PinGround, 30, 30},
	},
	"bluetooth": {
		"tx":  {PinTerminal, 0, 10},
		"rx":  {PinTerminal, 0, 25},
		"vcc": {PinPower, 50, 10},
		"gnd": {PinGround, 50, 25},
	},
	"lcd": {
		"rs":  {PinTerminal, 10, 0},
		"en":  {PinTerminal, 25, 0},
		"d4":  {PinTerminal, 40, 0},
		"d5":  {PinTerminal, 55, 0},
		"d6":  {PinTerminal, 70, 0},
		"d7":  {PinTerminal, 85, 0},
		"vcc": {PinPower, 10, 40},
		"gnd": {PinGround, 25, 40},
	},
	"buzzer": {
		"plus":  {PinTerminal, 15, 0},
		"minus": {PinTerminal, 15, 30},
	},
}

// footprint is the drawn width/height of a component type.
type footprint struct {
	width  int
	height int
}

var footprints = map[string]footprint{
	TypeArduinoUno:  {100, 160},
	"led":           {30, 30},
	"button":        {40, 40},
	"resistor":      {60, 20},
	"potentiometer": {50, 40},
	"servo":         {60, 40},
	"motor":         {50, 50},
	"motor_driver":  {70, 70},
	"ultrasonic":    {60, 30},
	"bluetooth":     {50, 40},
	"lcd":           {80, 40},
	"buzzer":        {30, 30},
}

var defaultFootprint = footprint{40, 40}

// bodyColors maps component type to its rendered fill color.
var bodyColors = map[string]string{
	TypeArduinoUno:  "#007800",
	"led":           "#ff6464",
	"button":        "#646464",
	"resistor":      "#c8b400",
	"potentiometer": "#969600",
	"servo":         "#6464c8",
	"motor":         "#963296",
	"motor_driver":  "#329696",
	"ultrasonic":    "#0096c8",
	"bluetooth":     "#000096",
	"lcd":           "#64c8c8",
	"buzzer":        "#c86400",
}

const defaultBodyColor = "#969696"

// KnownTypes returns the component types the catalog defines, including the
// board itself, in no particular order.
func KnownTypes() []string {
	types := make([]string, 0, len(pinCatalog))
	for t := range pinCatalog {
		types = append(types, t)
	}
	return types
}

// IsKnownType reports whether the catalog defines pins for the given type.
func IsKnownType(ctype string) bool {
	_, ok := pinCatalog[ctype]
	return ok
}

// CatalogPins returns the pin names and kinds for a component type.
// Unknown types yield nil.
func CatalogPins(ctype string) map[string]PinKind {
	spec, ok := pinCatalog[ctype]
	if !ok {
		return nil
	}
	pins := make(map[string]PinKind, len(spec))
	for name, s := range spec {
		pins[name] = s.kind
	}
	return pins
}
