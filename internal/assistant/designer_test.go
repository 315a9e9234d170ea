package assistant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arcreactor/internal/circuit"
)

const designJSON = `{
	"circuit_data": {
		"components": [
			{"id": "arduino_main", "type": "arduinouno"},
			{"id": "led1", "type": "led", "connections": {"anode": "13", "cathode": "GND"}}
		]
	},
	"arduino_code": "void setup() { pinMode(13, OUTPUT); }\nvoid loop() {}"
}`

func designerOverServer(t *testing.T, handler http.HandlerFunc) *Designer {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewDesigner(testClient(server.URL))
}

func TestPromptToCircuit(t *testing.T) {
	d := designerOverServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiReply(designJSON)))
	})

	design, err := d.PromptToCircuit(context.Background(), "blink an LED on pin 13")
	require.NoError(t, err)
	require.Len(t, design.Circuit.Components, 2)
	assert.Equal(t, "led", design.Circuit.Components[1].Type)
	assert.Contains(t, design.Sketch, "pinMode(13, OUTPUT)")
}

func TestPromptToCircuit_EmptyPrompt(t *testing.T) {
	d := NewDesigner(NewGeminiClient("key"))
	_, err := d.PromptToCircuit(context.Background(), "   ")
	assert.Error(t, err)
}

func TestParseDesign(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:  "clean envelope",
			input: designJSON,
		},
		{
			name:  "prose wrapped envelope",
			input: "Sure, here is the design:\n" + designJSON + "\nAnything else?",
		},
		{
			name: "fenced sketch inside envelope",
			input: `{"circuit_data": {"components": [{"id": "led1", "type": "led"}]},
				"arduino_code": "` + "```arduino\\nvoid setup() {}\\n```" + `"}`,
		},
		{
			name:    "missing components",
			input:   `{"circuit_data": {"components": []}, "arduino_code": "void setup() {}"}`,
			wantErr: "missing circuit data",
		},
		{
			name:    "missing sketch",
			input:   `{"circuit_data": {"components": [{"id": "a", "type": "led"}]}, "arduino_code": "  "}`,
			wantErr: "missing Arduino code",
		},
		{
			name:    "not a design at all",
			input:   "I cannot help with that.",
			wantErr: "not a design object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			design, err := parseDesign(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, design.Circuit.Components)
			assert.False(t, strings.Contains(design.Sketch, "```"), "fences must be stripped")
		})
	}
}

func TestAnalyzeImage(t *testing.T) {
	imagePath := filepath.Join(t.TempDir(), "board.png")
	require.NoError(t, os.WriteFile(imagePath, []byte("not-really-a-png"), 0644))

	d := designerOverServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiReply(designJSON)))
	})

	design, err := d.AnalyzeImage(context.Background(), imagePath)
	require.NoError(t, err)
	assert.Len(t, design.Circuit.Components, 2)
}

func TestAnalyzeImage_UnsupportedFormat(t *testing.T) {
	d := NewDesigner(NewGeminiClient("key"))
	_, err := d.AnalyzeImage(context.Background(), "circuit.gif")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported image format")
}

func TestAnalyzeImage_MissingFile(t *testing.T) {
	d := NewDesigner(NewGeminiClient("key"))
	_, err := d.AnalyzeImage(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}

func TestSuggestions_ClampsLongAnswers(t *testing.T) {
	long := "First sentence with plenty of detail about current limiting resistors and such. " +
		"Second sentence recommending a flyback diode across the motor terminals for safety. " +
		"Third sentence that rambles on well past the point of being useful to anybody."

	d := designerOverServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiReply("## Suggestions\n" + long)))
	})

	got, err := d.Suggestions(context.Background(), circuit.Data{
		Components: []circuit.ComponentData{{ID: "led1", Type: "led"}},
	})
	require.NoError(t, err)
	assert.NotContains(t, got, "#")
	assert.NotContains(t, got, "Third sentence")
	assert.True(t, strings.HasSuffix(got, "."))
}

func TestSuggestions_ShortAnswerUntouched(t *testing.T) {
	short := "Add a 220 ohm resistor. Your LED will thank you."
	d := designerOverServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiReply(short)))
	})

	got, err := d.Suggestions(context.Background(), circuit.Data{})
	require.NoError(t, err)
	assert.Equal(t, short, got)
}
