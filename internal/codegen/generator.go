// Package codegen produces Arduino sketches for circuits, either via the
// Gemini assistant or from deterministic local templates.
package codegen

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"arcreactor/internal/assistant"
	"arcreactor/internal/circuit"
	"arcreactor/internal/logging"
)

// Completer is the slice of the Gemini client the generator needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Generator produces Arduino sketches from circuit data using an LLM.
type Generator struct {
	client Completer
}

// NewGenerator creates a generator over the given client.
func NewGenerator(client Completer) *Generator {
	return &Generator{client: client}
}

const sketchRequirements = `Please generate complete, functional Arduino code (.ino) for this circuit. Include:
1. Appropriate #include statements for any required libraries
2. Pin definitions as constants
3. Any necessary global variables
4. A proper setup() function with pinMode configurations
5. A loop() function with basic functionality for the components
6. Simple logic to demonstrate component interactions where appropriate

Make the code clean, well-commented, and ready to compile and upload to an Arduino.`

// circuitPrompt renders a component-by-component description of the circuit.
func circuitPrompt(data circuit.Data) string {
	var b strings.Builder
	b.WriteString("Generate complete Arduino code for a circuit with the following components:\n\n")

	for _, comp := range data.Components {
		fmt.Fprintf(&b, "Component ID: %s\n", comp.ID)
		fmt.Fprintf(&b, "Type: %s\n", comp.Type)

		if len(comp.Properties) > 0 {
			b.WriteString("Properties:\n")
			for _, key := range sortedKeys(comp.Properties) {
				fmt.Fprintf(&b, "- %s: %v\n", key, comp.Properties[key])
			}
		}
		if len(comp.Connections) > 0 {
			b.WriteString("Connections:\n")
			for _, pin := range sortedKeys(comp.Connections) {
				fmt.Fprintf(&b, "- %s connected to %v\n", pin, comp.Connections[pin])
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(sketchRequirements)
	return b.String()
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FromCircuit generates a sketch for the given circuit data via the LLM.
func (g *Generator) FromCircuit(ctx context.Context, data circuit.Data) (string, error) {
	if len(data.Components) == 0 {
		return "", fmt.Errorf("no circuit components provided")
	}

	timer := logging.StartTimer(logging.CategoryCodegen, "FromCircuit")
	defer timer.Stop()

	response, err := g.client.Complete(ctx, "", circuitPrompt(data))
	if err != nil {
		return "", fmt.Errorf("code generation failed: %w", err)
	}
	code := assistant.ExtractCodeBlock(response)
	if code == "" {
		return "", fmt.Errorf("model returned no code")
	}
	logging.Codegen("generated sketch from circuit: %d bytes", len(code))
	return code, nil
}

// FromPrompt generates a sketch directly from a natural language request.
func (g *Generator) FromPrompt(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("empty prompt")
	}

	userPrompt := fmt.Sprintf("Based on this request: %q\n\n%s", prompt, sketchRequirements)
	response, err := g.client.Complete(ctx, "", userPrompt)
	if err != nil {
		return "", fmt.Errorf("code generation failed: %w", err)
	}
	code := assistant.ExtractCodeBlock(response)
	if code == "" {
		return "", fmt.Errorf("model returned no code")
	}
	return code, nil
}

// Save writes a sketch to disk.
func Save(code, path string) error {
	if err := os.WriteFile(path, []byte(code), 0644); err != nil {
		logging.CodegenError("failed to save sketch to %s: %v", path, err)
		return fmt.Errorf("failed to save sketch: %w", err)
	}
	logging.Codegen("saved sketch to %s", path)
	return nil
}
