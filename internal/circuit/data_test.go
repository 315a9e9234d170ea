package circuit

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBoardPin(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare digital number", "13", "D13"},
		{"digital with prefix", "d13", "D13"},
		{"analog", "a0", "A0"},
		{"analog upper", "A5", "A5"},
		{"ground", "gnd", "GND"},
		{"second ground", "gnd2", "GND2"},
		{"five volts", "5v", "5V"},
		{"three three volts", "3.3v", "3.3V"},
		{"vin", "vin", "VIN"},
		{"whitespace", " 7 ", "D7"},
		{"empty", "", ""},
		{"unrecognized", "weird", "weird"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeBoardPin(tt.input))
		})
	}
}

func TestFromData_MaterializesConnections(t *testing.T) {
	data := Data{Components: []ComponentData{
		{ID: "arduino_main", Type: "arduinouno"},
		{ID: "led1", Type: "led", Connections: map[string]interface{}{
			"anode":   "13",
			"cathode": "GND",
		}},
	}}

	c := FromData(data)
	require.Len(t, c.Components, 2)
	require.Len(t, c.Connections, 2)

	led := c.ComponentByID("led1")
	require.NotNil(t, led)
	assert.True(t, led.Pins["anode"].Connected())
	assert.True(t, led.Pins["cathode"].Connected())

	board := c.Board()
	require.NotNil(t, board)
	assert.True(t, board.Pins["D13"].Connected())
	assert.True(t, board.Pins["GND"].Connected())
}

func TestFromData_SynthesizesBoard(t *testing.T) {
	data := Data{Components: []ComponentData{
		{ID: "led1", Type: "led", Connections: map[string]interface{}{"anode": "13"}},
	}}

	c := FromData(data)
	board := c.Board()
	require.NotNil(t, board)
	assert.Equal(t, "arduino_main", board.ID)
	assert.True(t, board.Pins["D13"].Connected())
}

func TestFromData_GroundOverflow(t *testing.T) {
	// Two components both ask for GND; the second lands on GND2.
	data := Data{Components: []ComponentData{
		{ID: "arduino_main", Type: "arduinouno"},
		{ID: "led1", Type: "led", Connections: map[string]interface{}{"cathode": "GND"}},
		{ID: "buzzer1", Type: "buzzer", Connections: map[string]interface{}{"minus": "GND"}},
	}}

	c := FromData(data)
	board := c.Board()
	require.NotNil(t, board)
	assert.True(t, board.Pins["GND"].Connected())
	assert.True(t, board.Pins["GND2"].Connected())
}

func TestFromData_SkipsBadDeclarations(t *testing.T) {
	data := Data{Components: []ComponentData{
		{ID: "arduino_main", Type: "arduinouno"},
		{ID: "led1", Type: "led", Connections: map[string]interface{}{
			"nosuchpin": "13",   // pin not in catalog
			"anode":     "D99",  // pin not on the board
			"cathode":   "GND",  // valid
		}},
	}}

	c := FromData(data)
	assert.Len(t, c.Connections, 1)
}

func TestFromData_FillsMissingIDs(t *testing.T) {
	data := Data{Components: []ComponentData{
		{Type: "led"},
		{},
	}}

	c := FromData(data)
	require.GreaterOrEqual(t, len(c.Components), 2)
	assert.Equal(t, "comp_0", c.Components[0].ID)
	assert.Equal(t, "comp_1", c.Components[1].ID)
	assert.Equal(t, "unknown", c.Components[1].Type)
}

func TestToData_RoundTrip(t *testing.T) {
	original := Data{Components: []ComponentData{
		{ID: "arduino_main", Type: "arduinouno"},
		{ID: "led1", Type: "led",
			Properties:  map[string]interface{}{"color": "red"},
			Connections: map[string]interface{}{"anode": "D13", "cathode": "GND"}},
		{ID: "button1", Type: "button",
			Connections: map[string]interface{}{"pin1": "D2", "pin2": "GND2"}},
	}}

	got := FromData(original).ToData()
	if diff := cmp.Diff(original, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "circuit.json")

	c := FromData(Data{Components: []ComponentData{
		{ID: "arduino_main", Type: "arduinouno"},
		{ID: "led1", Type: "led", Connections: map[string]interface{}{"anode": "13"}},
	}})
	require.NoError(t, c.SaveFile(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, loaded.Components, 2)
	assert.Len(t, loaded.Connections, 1)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestParseData_Invalid(t *testing.T) {
	_, err := ParseData([]byte(`{"components": [`))
	assert.Error(t, err)
}
