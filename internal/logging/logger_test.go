package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initDebug points logging at a temp workspace and tears it down after.
func initDebug(t *testing.T, o Options) string {
	t.Helper()
	dir := t.TempDir()
	o.DebugMode = true
	require.NoError(t, Initialize(dir, o))
	t.Cleanup(func() {
		CloseAll()
		require.NoError(t, Initialize(dir, Options{}))
	})
	return dir
}

// readCategoryLog returns the concatenated log content for a category.
func readCategoryLog(t *testing.T, workspace string, category Category) string {
	t.Helper()
	pattern := filepath.Join(workspace, ".arc", "logs", "*_"+string(category)+".log")
	matches, err := filepath.Glob(pattern)
	require.NoError(t, err)
	var all strings.Builder
	for _, m := range matches {
		raw, err := os.ReadFile(m)
		require.NoError(t, err)
		all.Write(raw)
	}
	return all.String()
}

func TestInitialize_RequiresWorkspace(t *testing.T) {
	assert.Error(t, Initialize("", Options{}))
}

func TestInitialize_CreatesLogsDir(t *testing.T) {
	dir := initDebug(t, Options{Level: "info"})

	info, err := os.Stat(filepath.Join(dir, ".arc", "logs"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Initialize itself writes boot lines.
	assert.Contains(t, readCategoryLog(t, dir, CategoryBoot), "logging initialized")
}

func TestDisabledDebugModeIsNoop(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Options{DebugMode: false}))

	Circuit("should go nowhere")
	assert.False(t, IsDebugMode())
	_, err := os.Stat(filepath.Join(dir, ".arc", "logs"))
	assert.True(t, os.IsNotExist(err))
}

func TestCategoryFiles(t *testing.T) {
	dir := initDebug(t, Options{Level: "debug"})

	Circuit("added component %s", "led1")
	Store("saved design %q", "blinky")

	circuitLog := readCategoryLog(t, dir, CategoryCircuit)
	assert.Contains(t, circuitLog, "[INFO] added component led1")
	assert.NotContains(t, circuitLog, "blinky")

	storeLog := readCategoryLog(t, dir, CategoryStore)
	assert.Contains(t, storeLog, `saved design "blinky"`)
}

func TestLevelFiltering(t *testing.T) {
	dir := initDebug(t, Options{Level: "warn"})

	APIDebug("debug line")
	API("info line")
	APIWarn("warn line")
	APIError("error line")

	apiLog := readCategoryLog(t, dir, CategoryAPI)
	assert.NotContains(t, apiLog, "debug line")
	assert.NotContains(t, apiLog, "info line")
	assert.Contains(t, apiLog, "[WARN] warn line")
	assert.Contains(t, apiLog, "[ERROR] error line")
}

func TestCategoryToggle(t *testing.T) {
	dir := initDebug(t, Options{
		Level:      "debug",
		Categories: map[string]bool{"render": false},
	})

	Render("render line")
	Sim("sim line")

	assert.False(t, IsCategoryEnabled(CategoryRender))
	assert.True(t, IsCategoryEnabled(CategorySim))
	assert.Empty(t, readCategoryLog(t, dir, CategoryRender))
	assert.Contains(t, readCategoryLog(t, dir, CategorySim), "sim line")
}

func TestTimer(t *testing.T) {
	dir := initDebug(t, Options{Level: "debug"})

	timer := StartTimer(CategorySim, "Step")
	time.Sleep(5 * time.Millisecond)
	elapsed := timer.Stop()

	assert.GreaterOrEqual(t, elapsed, 5*time.Millisecond)
	assert.Contains(t, readCategoryLog(t, dir, CategorySim), "Step completed in")
}

func TestTimer_Threshold(t *testing.T) {
	dir := initDebug(t, Options{Level: "debug"})

	timer := StartTimer(CategoryAPI, "slowOp")
	time.Sleep(2 * time.Millisecond)
	timer.StopWithThreshold(time.Nanosecond)

	assert.Contains(t, readCategoryLog(t, dir, CategoryAPI), "slowOp took")
}
