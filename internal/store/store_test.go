package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arcreactor/internal/circuit"
)

func openTestStore(t *testing.T) *DesignStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func blinkyDesign() *Design {
	return &Design{
		Name:   "blinky",
		Prompt: "blink an LED on pin 13",
		Circuit: circuit.Data{Components: []circuit.ComponentData{
			{ID: "arduino_main", Type: "arduinouno"},
			{ID: "led1", Type: "led", Connections: map[string]interface{}{"anode": "D13", "cathode": "GND"}},
		}},
		Sketch: "void setup() { pinMode(13, OUTPUT); }",
	}
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "arc.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(blinkyDesign()))
}

func TestSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Save(blinkyDesign()))

	got, err := s.Get("blinky")
	require.NoError(t, err)
	assert.Equal(t, "blinky", got.Name)
	assert.Equal(t, "blink an LED on pin 13", got.Prompt)
	require.Len(t, got.Circuit.Components, 2)
	assert.Equal(t, "led", got.Circuit.Components[1].Type)
	assert.Contains(t, got.Sketch, "pinMode(13, OUTPUT)")
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSave_UpsertsByName(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Save(blinkyDesign()))

	updated := blinkyDesign()
	updated.Prompt = "blink two LEDs"
	updated.Circuit.Components = append(updated.Circuit.Components, circuit.ComponentData{
		ID: "led2", Type: "led", Connections: map[string]interface{}{"anode": "D12"},
	})
	require.NoError(t, s.Save(updated))

	got, err := s.Get("blinky")
	require.NoError(t, err)
	assert.Equal(t, "blink two LEDs", got.Prompt)
	assert.Len(t, got.Circuit.Components, 3)

	designs, err := s.List()
	require.NoError(t, err)
	assert.Len(t, designs, 1)
}

func TestSave_RequiresName(t *testing.T) {
	s := openTestStore(t)
	d := blinkyDesign()
	d.Name = "  "
	assert.Error(t, s.Save(d))
}

func TestGet_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get("ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestList(t *testing.T) {
	s := openTestStore(t)

	first := blinkyDesign()
	require.NoError(t, s.Save(first))

	second := blinkyDesign()
	second.Name = "sonar"
	require.NoError(t, s.Save(second))

	designs, err := s.List()
	require.NoError(t, err)
	require.Len(t, designs, 2)

	names := []string{designs[0].Name, designs[1].Name}
	assert.ElementsMatch(t, []string{"blinky", "sonar"}, names)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Save(blinkyDesign()))
	require.NoError(t, s.RecordSuggestion("blinky", "add a resistor"))

	require.NoError(t, s.Delete("blinky"))

	_, err := s.Get("blinky")
	assert.Error(t, err)

	history, err := s.SuggestionHistory("blinky", 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestDelete_NotFound(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.Delete("ghost"))
}

func TestSuggestionHistory(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Save(blinkyDesign()))

	require.NoError(t, s.RecordSuggestion("blinky", "first tip"))
	require.NoError(t, s.RecordSuggestion("blinky", "second tip"))
	require.NoError(t, s.RecordSuggestion("blinky", "third tip"))

	history, err := s.SuggestionHistory("blinky", 2)
	require.NoError(t, err)
	// Newest first, limited.
	assert.Equal(t, []string{"third tip", "second tip"}, history)

	all, err := s.SuggestionHistory("blinky", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestClose_Idempotent(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "arc.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
