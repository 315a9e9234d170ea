package assistant

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"arcreactor/internal/circuit"
	"arcreactor/internal/logging"
)

// Designer wraps the Gemini client with the three circuit design
// operations: prompt-to-circuit, image analysis, and suggestions.
type Designer struct {
	client *GeminiClient
}

// NewDesigner creates a designer over the given client.
func NewDesigner(client *GeminiClient) *Designer {
	return &Designer{client: client}
}

// Client returns the underlying Gemini client.
func (d *Designer) Client() *GeminiClient {
	return d.client
}

// Design is a generated circuit paired with its Arduino sketch.
type Design struct {
	Circuit circuit.Data `json:"circuit_data"`
	Sketch  string       `json:"arduino_code"`
}

const designFormat = `Respond with a JSON object containing these two parts:
1. A "circuit_data" object describing components and connections
2. An "arduino_code" string with complete, functional Arduino code

The circuit_data must follow this format:
{
    "components": [
        {
            "id": "unique_id",
            "type": "component_type",
            "properties": {"key": "value"},
            "connections": {"pin_name": "arduino_pin"}
        }
    ]
}

Valid component types: arduinouno, led, button, resistor, potentiometer, servo, motor, motor_driver, ultrasonic, bluetooth, lcd, buzzer.

Use standard Arduino pin identifiers (0-13, A0-A5, GND, 5V, 3.3V).`

// PromptToCircuit converts a natural language description into a circuit
// and matching Arduino sketch.
func (d *Designer) PromptToCircuit(ctx context.Context, prompt string) (*Design, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("empty prompt")
	}
	logging.API("generating circuit from prompt: %q", prompt)

	userPrompt := fmt.Sprintf("Design an Arduino circuit based on this description:\n\n%q\n\n%s", prompt, designFormat)

	response, err := d.client.CompleteJSON(ctx, "", userPrompt)
	if err != nil {
		return nil, fmt.Errorf("circuit generation failed: %w", err)
	}
	return parseDesign(response)
}

// imageMimeTypes maps accepted photo extensions to their MIME type.
var imageMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// AnalyzeImage recognizes the circuit on a breadboard photo and produces
// matching circuit data and Arduino sketch.
func (d *Designer) AnalyzeImage(ctx context.Context, imagePath string) (*Design, error) {
	logging.API("analyzing circuit image: %s", imagePath)

	mimeType, ok := imageMimeTypes[strings.ToLower(filepath.Ext(imagePath))]
	if !ok {
		return nil, fmt.Errorf("unsupported image format %q (want jpg, png, or webp)", filepath.Ext(imagePath))
	}

	raw, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("image file %s is empty", imagePath)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	userPrompt := fmt.Sprintf(`Analyze this Arduino circuit image carefully. Identify all components, their connections to the Arduino, and the circuit's purpose.

%s`, designFormat)

	response, err := d.client.CompleteWithImage(ctx, "", userPrompt, mimeType, encoded)
	if err != nil {
		return nil, fmt.Errorf("image analysis failed: %w", err)
	}
	return parseDesign(response)
}

// parseDesign decodes the design envelope, falling back to digging JSON and
// code fences out of a prose answer.
func parseDesign(response string) (*Design, error) {
	var design Design
	if err := json.Unmarshal([]byte(response), &design); err != nil {
		jsonText, jerr := ExtractJSONObject(response)
		if jerr != nil {
			return nil, fmt.Errorf("response is not a design object: %w", jerr)
		}
		if err := json.Unmarshal([]byte(jsonText), &design); err != nil {
			return nil, fmt.Errorf("failed to decode design object: %w", err)
		}
	}

	if len(design.Circuit.Components) == 0 {
		return nil, fmt.Errorf("design is missing circuit data")
	}
	if strings.TrimSpace(design.Sketch) == "" {
		return nil, fmt.Errorf("design is missing Arduino code")
	}
	design.Sketch = ExtractCodeBlock(design.Sketch)
	return &design, nil
}

// suggestionClampLen triggers trimming long answers down to two sentences.
const suggestionClampLen = 150

// Suggestions analyzes a circuit and returns short improvement tips.
func (d *Designer) Suggestions(ctx context.Context, data circuit.Data) (string, error) {
	logging.API("generating suggestions for circuit with %d components", len(data.Components))

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode circuit: %w", err)
	}

	userPrompt := fmt.Sprintf(`Analyze this Arduino circuit and provide 1-2 witty but useful suggestions for improvements:

%s

Focus on:
- Energy efficiency
- Circuit protection
- Component alternatives
- Circuit simplification
- Performance improvements

Keep your response short, direct, and with an Iron Man-inspired touch.`, encoded)

	response, err := d.client.Complete(ctx, "", userPrompt)
	if err != nil {
		return "", fmt.Errorf("suggestion generation failed: %w", err)
	}

	// Strip markdown headers and clamp rambling answers.
	suggestions := strings.TrimSpace(strings.ReplaceAll(response, "#", ""))
	if len(suggestions) > suggestionClampLen {
		sentences := strings.SplitN(suggestions, ".", 3)
		if len(sentences) > 2 {
			suggestions = strings.TrimSpace(sentences[0]+"."+sentences[1]) + "."
		}
	}
	return suggestions, nil
}
