package main

import (
	"arcreactor/internal/assistant"
	"arcreactor/internal/circuit"
	"arcreactor/internal/codegen"
	"arcreactor/internal/config"
	"arcreactor/internal/logging"
	"arcreactor/internal/render"
	"arcreactor/internal/store"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

var (
	// Global flags
	verbose    bool
	apiKey     string
	configPath string
	timeout    time.Duration

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "arc",
	Short: "ARC Reactor CAD - AI-assisted Arduino circuit design",
	Long: `ARC Reactor CAD designs Arduino circuits with help from Gemini.

Describe a circuit in plain language and get back a wired component layout
plus a working Arduino sketch. Point it at a photo of a breadboard and it
reconstructs the circuit. Verify wiring, simulate logic states, render SVG
diagrams, and keep every design in a local database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if apiKey != "" {
			cfg.LLM.APIKey = apiKey
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		cwd, err := os.Getwd()
		if err != nil {
			cwd = "."
		}
		if err := logging.Initialize(cwd, logging.Options{
			DebugMode:  cfg.Logging.DebugMode || verbose,
			Level:      cfg.Logging.Level,
			Categories: cfg.Logging.Categories,
		}); err != nil {
			logger.Warn("Category logging unavailable", zap.Error(err))
		}
		logging.Boot("arc starting: model=%s", cfg.LLM.Model)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// generateCmd turns a natural language prompt into a circuit and sketch
var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Generate a circuit and Arduino sketch from a description",
	Long: `Sends the description to Gemini and receives a complete design:
component list with pin connections plus a functional Arduino sketch.

Example:
  arc generate "blink an LED on pin 13 and beep a buzzer when a button is pressed"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

// analyzeCmd reconstructs a circuit from a photo
var analyzeCmd = &cobra.Command{
	Use:   "analyze [image]",
	Short: "Reconstruct a circuit from a breadboard photo",
	Long: `Uploads the image to Gemini and asks it to identify components and
wiring, returning the same design format as generate. Supported formats:
JPEG, PNG, WebP.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

// suggestCmd asks for one improvement suggestion
var suggestCmd = &cobra.Command{
	Use:   "suggest [circuit.json | design-name]",
	Short: "Get an improvement suggestion for a circuit",
	Long: `Asks Gemini for a short improvement suggestion. The argument is a
circuit file, or the name of a saved design when no such file exists.`,
	Args: cobra.ExactArgs(1),
	RunE: runSuggest,
}

// verifyCmd checks wiring without calling the API
var verifyCmd = &cobra.Command{
	Use:   "verify [circuit.json]",
	Short: "Check a circuit for wiring problems",
	Long: `Runs local wiring checks: unconnected components, missing power or
ground, missing board. No API key required.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

// simulateCmd steps the logic-state simulator
var simulateCmd = &cobra.Command{
	Use:   "simulate [circuit.json]",
	Short: "Simulate logic states across the circuit",
	Long: `Seeds HIGH on power pins and LOW on ground pins, propagates states
across connections, and reports the resulting component states. Pressed
buttons bridge their terminals. Conflicting pins are flagged.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

// renderCmd draws the circuit as SVG
var renderCmd = &cobra.Command{
	Use:   "render [circuit.json]",
	Short: "Render a circuit as an SVG diagram",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

// codegenCmd produces an Arduino sketch for an existing circuit
var codegenCmd = &cobra.Command{
	Use:   "codegen [circuit.json]",
	Short: "Generate an Arduino sketch for a circuit",
	Long: `Generates a sketch for an existing circuit file. By default Gemini
writes the code; --local uses the built-in deterministic generator instead
and needs no API key.`,
	Args: cobra.ExactArgs(1),
	RunE: runCodegen,
}

// designsCmd groups the saved-design subcommands
var designsCmd = &cobra.Command{
	Use:   "designs",
	Short: "Manage saved designs",
}

var designsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved designs",
	RunE:  runDesignsList,
}

var designsShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a saved design",
	Args:  cobra.ExactArgs(1),
	RunE:  runDesignsShow,
}

var designsDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a saved design",
	Args:  cobra.ExactArgs(1),
	RunE:  runDesignsDelete,
}

// componentsCmd lists the supported component types
var componentsCmd = &cobra.Command{
	Use:   "components",
	Short: "List supported component types and their pins",
	RunE:  runComponents,
}

var (
	// generate / analyze flags
	designName  string
	circuitOut  string
	sketchOut   string
	diagramOut  string
	withSuggest bool

	// simulate flags
	simSteps    int
	simInterval time.Duration
	simJSON     bool

	// render flags
	renderOut   string
	renderWatch bool
	renderScale float64

	// codegen flags
	codegenOut   string
	codegenLocal bool
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (or set GEMINI_API_KEY env)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "arc.yaml", "Config file path")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	for _, cmd := range []*cobra.Command{generateCmd, analyzeCmd} {
		cmd.Flags().StringVar(&designName, "name", "", "Save the design under this name")
		cmd.Flags().StringVarP(&circuitOut, "out", "o", "circuit.json", "Circuit output file")
		cmd.Flags().StringVar(&sketchOut, "sketch", "sketch.ino", "Arduino sketch output file")
		cmd.Flags().StringVar(&diagramOut, "svg", "", "Also render an SVG diagram to this file")
		cmd.Flags().BoolVar(&withSuggest, "suggest", false, "Also fetch an improvement suggestion")
	}

	suggestCmd.Flags().StringVar(&designName, "name", "", "Record the suggestion under this design name")

	simulateCmd.Flags().IntVar(&simSteps, "steps", 1, "Number of simulation steps")
	simulateCmd.Flags().DurationVar(&simInterval, "interval", 0, "Delay between steps (default from config)")
	simulateCmd.Flags().BoolVar(&simJSON, "json", false, "Emit snapshots as JSON")

	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "circuit.svg", "SVG output file")
	renderCmd.Flags().BoolVar(&renderWatch, "watch", false, "Re-render whenever the circuit file changes")
	renderCmd.Flags().Float64Var(&renderScale, "scale", 0, "Diagram scale (default from config)")

	codegenCmd.Flags().StringVarP(&codegenOut, "out", "o", "sketch.ino", "Sketch output file")
	codegenCmd.Flags().BoolVar(&codegenLocal, "local", false, "Use the deterministic local generator (no API)")

	designsCmd.AddCommand(designsListCmd)
	designsCmd.AddCommand(designsShowCmd)
	designsCmd.AddCommand(designsDeleteCmd)

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(codegenCmd)
	rootCmd.AddCommand(designsCmd)
	rootCmd.AddCommand(componentsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commandContext builds the operation context with timeout and
// SIGINT/SIGTERM cancellation.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func newDesigner() (*assistant.Designer, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	client := assistant.NewGeminiClientWithConfig(assistant.GeminiConfig{
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		Model:           cfg.LLM.Model,
		Timeout:         cfg.GetLLMTimeout(),
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
	})
	return assistant.NewDesigner(client), nil
}

func renderOptions() render.Options {
	opts := render.Options{Scale: cfg.Render.Scale, PinLabels: cfg.Render.PinLabels}
	if renderScale > 0 {
		opts.Scale = renderScale
	}
	return opts
}

// writeDesign persists a finished design to disk, optionally renders it,
// and optionally saves it to the design store.
func writeDesign(design *assistant.Design, prompt string) error {
	c := circuit.FromData(design.Circuit)

	if err := c.SaveFile(circuitOut); err != nil {
		return err
	}
	fmt.Printf("Circuit written to %s\n", circuitOut)

	if design.Sketch != "" {
		if err := codegen.Save(design.Sketch, sketchOut); err != nil {
			return err
		}
		fmt.Printf("Sketch written to %s\n", sketchOut)
	}

	if diagramOut != "" {
		if err := render.WriteFile(c, diagramOut, renderOptions()); err != nil {
			return err
		}
		fmt.Printf("Diagram written to %s\n", diagramOut)
	}

	if issues := c.Verify(); len(issues) > 0 {
		fmt.Println("\nWiring checks:")
		for _, issue := range issues {
			fmt.Printf("  - %s\n", issue)
		}
	}

	if designName != "" {
		db, err := store.Open(cfg.Storage.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Save(&store.Design{
			Name:    designName,
			Prompt:  prompt,
			Circuit: c.ToData(),
			Sketch:  design.Sketch,
		}); err != nil {
			return err
		}
		fmt.Printf("Design saved as %q\n", designName)
	}
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	designer, err := newDesigner()
	if err != nil {
		return err
	}

	prompt := strings.Join(args, " ")
	logger.Info("Generating circuit", zap.String("prompt", prompt))

	var design *assistant.Design
	var suggestion string

	// The suggestion call needs the finished circuit, so fan out only
	// after design generation; rendering and persistence stay on the
	// main goroutine.
	design, err = designer.PromptToCircuit(ctx, prompt)
	if err != nil {
		return err
	}
	fmt.Printf("Generated %d components\n", len(design.Circuit.Components))

	if withSuggest {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var serr error
			suggestion, serr = designer.Suggestions(gctx, design.Circuit)
			return serr
		})
		g.Go(func() error {
			return writeDesign(design, prompt)
		})
		if err := g.Wait(); err != nil {
			return err
		}
		fmt.Printf("\nSuggestion: %s\n", suggestion)
		if designName != "" {
			recordSuggestion(designName, suggestion)
		}
		return nil
	}
	return writeDesign(design, prompt)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	designer, err := newDesigner()
	if err != nil {
		return err
	}

	imagePath := args[0]
	logger.Info("Analyzing circuit image", zap.String("image", imagePath))

	design, err := designer.AnalyzeImage(ctx, imagePath)
	if err != nil {
		return err
	}
	fmt.Printf("Recognized %d components from %s\n", len(design.Circuit.Components), filepath.Base(imagePath))

	if withSuggest {
		suggestion, serr := designer.Suggestions(ctx, design.Circuit)
		if serr != nil {
			logger.Warn("Suggestion failed", zap.Error(serr))
		} else {
			fmt.Printf("\nSuggestion: %s\n", suggestion)
			if designName != "" {
				recordSuggestion(designName, suggestion)
			}
		}
	}
	return writeDesign(design, "image: "+filepath.Base(imagePath))
}

func runSuggest(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	designer, err := newDesigner()
	if err != nil {
		return err
	}

	data, name, err := resolveCircuitArg(args[0])
	if err != nil {
		return err
	}
	if designName != "" {
		name = designName
	}

	suggestion, err := designer.Suggestions(ctx, data)
	if err != nil {
		return err
	}
	fmt.Println(suggestion)
	if name != "" {
		recordSuggestion(name, suggestion)
	}
	return nil
}

// resolveCircuitArg loads a circuit from a file, or from the design store
// when no file by that name exists. The returned name is non-empty only for
// stored designs.
func resolveCircuitArg(arg string) (circuit.Data, string, error) {
	if _, statErr := os.Stat(arg); statErr == nil {
		c, err := circuit.LoadFile(arg)
		if err != nil {
			return circuit.Data{}, "", err
		}
		return c.ToData(), "", nil
	}

	db, err := store.Open(cfg.Storage.DatabasePath)
	if err != nil {
		return circuit.Data{}, "", err
	}
	defer db.Close()

	d, err := db.Get(arg)
	if err != nil {
		return circuit.Data{}, "", fmt.Errorf("%q is neither a circuit file nor a saved design", arg)
	}
	return d.Circuit, d.Name, nil
}

// recordSuggestion appends to history; failures only warn because the
// suggestion was already shown.
func recordSuggestion(name, suggestion string) {
	db, err := store.Open(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Warn("Could not open design store", zap.Error(err))
		return
	}
	defer db.Close()
	if err := db.RecordSuggestion(name, suggestion); err != nil {
		logger.Warn("Could not record suggestion", zap.Error(err))
	}
}

func runVerify(cmd *cobra.Command, args []string) error {
	c, err := circuit.LoadFile(args[0])
	if err != nil {
		return err
	}

	issues := c.Verify()
	if len(issues) == 0 {
		fmt.Println("No wiring problems found.")
		return nil
	}
	fmt.Printf("%d issue(s) found:\n", len(issues))
	for _, issue := range issues {
		fmt.Printf("  - %s\n", issue)
	}
	return nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	c, err := circuit.LoadFile(args[0])
	if err != nil {
		return err
	}

	interval := simInterval
	if interval <= 0 {
		interval = cfg.GetStepInterval()
	}
	if simSteps < 1 {
		simSteps = 1
	}

	for step := 1; step <= simSteps; step++ {
		snap := c.Step(cfg.Simulation.PropagationSweeps)
		if simJSON {
			raw, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode snapshot: %w", err)
			}
			fmt.Println(string(raw))
		} else {
			printSnapshot(step, snap)
		}

		if step == simSteps {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return nil
}

func printSnapshot(step int, snap circuit.Snapshot) {
	fmt.Printf("--- step %d ---\n", step)

	ids := make([]string, 0, len(snap.Components))
	for id := range snap.Components {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		cs := snap.Components[id]
		line := fmt.Sprintf("  %-16s %s", id, cs.Type)
		if state, ok := cs.Properties["state"].(string); ok {
			line += " [" + state + "]"
		}
		fmt.Println(line)
	}
	if snap.Conflicts > 0 {
		fmt.Printf("  WARNING: %d pin(s) in conflict (HIGH shorted to LOW)\n", snap.Conflicts)
	}
}

func runRender(cmd *cobra.Command, args []string) error {
	if renderWatch {
		ctx, cancel := commandContext()
		defer cancel()
		fmt.Printf("Watching %s, rendering to %s (Ctrl-C to stop)\n", args[0], renderOut)
		err := render.Watch(ctx, args[0], renderOut, renderOptions())
		if err == context.Canceled || err == context.DeadlineExceeded {
			return nil
		}
		return err
	}

	c, err := circuit.LoadFile(args[0])
	if err != nil {
		return err
	}
	if err := render.WriteFile(c, renderOut, renderOptions()); err != nil {
		return err
	}
	fmt.Printf("Diagram written to %s\n", renderOut)
	return nil
}

func runCodegen(cmd *cobra.Command, args []string) error {
	c, err := circuit.LoadFile(args[0])
	if err != nil {
		return err
	}
	data := c.ToData()

	var code string
	if codegenLocal {
		code = codegen.Local(data)
	} else {
		ctx, cancel := commandContext()
		defer cancel()

		designer, derr := newDesigner()
		if derr != nil {
			return fmt.Errorf("%w (use --local for the offline generator)", derr)
		}
		gen := codegen.NewGenerator(designer.Client())
		code, err = gen.FromCircuit(ctx, data)
		if err != nil {
			return err
		}
	}

	if err := codegen.Save(code, codegenOut); err != nil {
		return err
	}
	fmt.Printf("Sketch written to %s\n", codegenOut)
	return nil
}

func runDesignsList(cmd *cobra.Command, args []string) error {
	db, err := store.Open(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	designs, err := db.List()
	if err != nil {
		return err
	}
	if len(designs) == 0 {
		fmt.Println("No saved designs.")
		return nil
	}
	fmt.Printf("%-24s %-12s %-20s %s\n", "NAME", "COMPONENTS", "UPDATED", "PROMPT")
	for _, d := range designs {
		prompt := d.Prompt
		if len(prompt) > 40 {
			prompt = prompt[:37] + "..."
		}
		fmt.Printf("%-24s %-12d %-20s %s\n",
			d.Name, len(d.Circuit.Components), d.UpdatedAt.Format("2006-01-02 15:04:05"), prompt)
	}
	return nil
}

func runDesignsShow(cmd *cobra.Command, args []string) error {
	db, err := store.Open(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	d, err := db.Get(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Name:    %s\n", d.Name)
	fmt.Printf("Prompt:  %s\n", d.Prompt)
	fmt.Printf("Updated: %s\n", d.UpdatedAt.Format(time.RFC3339))
	fmt.Printf("Components (%d):\n", len(d.Circuit.Components))
	for _, comp := range d.Circuit.Components {
		fmt.Printf("  %-16s %s\n", comp.ID, comp.Type)
		pins := make([]string, 0, len(comp.Connections))
		for pin := range comp.Connections {
			pins = append(pins, pin)
		}
		sort.Strings(pins)
		for _, pin := range pins {
			fmt.Printf("    %s -> %s\n", pin, comp.Connections[pin])
		}
	}

	if history, err := db.SuggestionHistory(d.Name, 5); err == nil && len(history) > 0 {
		fmt.Println("Recent suggestions:")
		for _, s := range history {
			fmt.Printf("  - %s\n", s)
		}
	}

	if d.Sketch != "" {
		fmt.Println("\nSketch:")
		fmt.Println(d.Sketch)
	}
	return nil
}

func runDesignsDelete(cmd *cobra.Command, args []string) error {
	db, err := store.Open(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted design %q\n", args[0])
	return nil
}

func runComponents(cmd *cobra.Command, args []string) error {
	types := circuit.KnownTypes()
	sort.Strings(types)
	for _, t := range types {
		catalog := circuit.CatalogPins(t)
		names := make([]string, 0, len(catalog))
		for name := range catalog {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Printf("%-14s %s\n", t, strings.Join(names, ", "))
	}
	return nil
}
