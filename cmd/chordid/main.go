// Package main is the entry point for the chordid CLI
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/james-see/chordid/pkg/api"
	"github.com/james-see/chordid/pkg/config"
	"github.com/james-see/chordid/pkg/harmony"
	"github.com/james-see/chordid/pkg/input"
	"github.com/james-see/chordid/pkg/logger"
	"github.com/james-see/chordid/pkg/score"
	"github.com/james-see/chordid/pkg/sonority"
	"github.com/james-see/chordid/pkg/tui"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfg        *config.Config
	keyName    string
	logLevel   string
	outputFile string
	portName   string
	serverPort int
	jsonOutput bool
	saveConfig bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "chordid",
	Short: "Identify chords and label them with Roman numerals",
	Long: `chordid names the chord formed by a set of sounding notes and renders it
as a Roman-numeral label relative to a chosen key.

Notes can come from the command line, a MIDI controller, the on-screen
keyboard of the terminal UI, a Standard MIDI File or the HTTP API.

Examples:
  chordid classify 55 59 62 65 --key C
  chordid classify G3 B3 D4 F4 --key "Eb minor"
  chordid analyze song.mid
  chordid annotate song.mid -o song.annotated.mid
  chordid listen --port 1 --key G
  chordid tui
  chordid serve --port 8080`,
	Version:           fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
}

var classifyCmd = &cobra.Command{
	Use:   "classify <pitch>...",
	Short: "Label a set of pitches",
	Long:  `Pitches are MIDI note numbers (60 = middle C) or note names such as C4, F#3 or Bb2.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the selectable keys",
	Args:  cobra.NoArgs,
	RunE:  runKeys,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <input.mid>",
	Short: "Print the chord labels of a MIDI file",
	Long:  `Without --key the file's first key signature is used.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var annotateCmd = &cobra.Command{
	Use:   "annotate <input.mid>",
	Short: "Write a copy of a MIDI file with a marker per chord label",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnnotate,
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Label chords played on a MIDI input port",
	Args:  cobra.NoArgs,
	RunE:  runListen,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI input ports",
	Args:  cobra.NoArgs,
	RunE:  runPorts,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the configuration, or save flag values with --save",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&keyName, "key", "k", "", "Key name or id (default from config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	// analyze command
	analyzeCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the timeline as JSON")

	// annotate command
	annotateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path")

	// listen and tui commands
	listenCmd.Flags().StringVarP(&portName, "port", "p", "", "Input port index or name (default from config)")
	tuiCmd.Flags().StringVarP(&portName, "port", "p", "", "Also listen to this MIDI input port")

	// serve command
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "Server port (default from config)")

	// config command
	configCmd.Flags().BoolVar(&saveConfig, "save", false, "Save --key and --log-level to the config file")

	// Add commands
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(annotateCmd)
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load()
	if err != nil {
		return err
	}
	cfg = c

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	if _, ok := logger.ParseLevel(level); !ok {
		return fmt.Errorf("unknown log level %q", level)
	}
	logger.SetLevel(level)
	return nil
}

// resolveKey returns the --key flag, falling back to the configured key
func resolveKey() (harmony.Key, error) {
	name := cfg.Key
	if keyName != "" {
		name = keyName
	}
	return harmony.ParseKey(name)
}

// getOutputPath names the annotated copy next to input, keeping a MIDI extension
func getOutputPath(input string) string {
	if outputFile != "" {
		return outputFile
	}
	if score.DetectFormat(input) != score.FormatMIDI {
		return input + ".annotated.mid"
	}
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + ".annotated" + ext
}

func runClassify(cmd *cobra.Command, args []string) error {
	key, err := resolveKey()
	if err != nil {
		return err
	}
	pitches := make([]harmony.Pitch, len(args))
	for i, arg := range args {
		p, err := parsePitch(arg)
		if err != nil {
			return err
		}
		pitches[i] = p
	}

	label, _ := harmony.ClassifyPitches(pitches, key)
	if label.IsBlank() {
		fmt.Println("--")
		return nil
	}
	fmt.Println(label.String())
	return nil
}

func runKeys(cmd *cobra.Command, args []string) error {
	for _, k := range harmony.Keys() {
		fmt.Printf("%2d  %-10s %s\n", k.ID, k.Display(), k.Spelling)
	}
	return nil
}

// fileKey is the key for file analysis: only an explicit --key overrides the
// file's key signature
func fileKey() (harmony.Key, error) {
	if keyName == "" {
		return harmony.NoKey, nil
	}
	return harmony.ParseKey(keyName)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	key, err := fileKey()
	if err != nil {
		return err
	}
	tl, err := score.NewAnalyzer(score.WithKey(key)).AnalyzeFile(args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tl)
	}

	fmt.Printf("%s: %s (%s), %.0f BPM, %.1fs\n", filepath.Base(args[0]), tl.Key.Display(), tl.KeySource, tl.Tempo, tl.Duration)
	for _, seg := range tl.Segments {
		text := seg.Text
		if text == "" {
			text = "--"
		}
		fmt.Printf("%8.2fs  %-8s %v\n", seg.Seconds, text, seg.Pitches)
	}
	return nil
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := getOutputPath(input)

	key, err := fileKey()
	if err != nil {
		return err
	}
	tl, err := score.NewAnalyzer(score.WithKey(key)).AnnotateFile(input, output)
	if err != nil {
		return err
	}

	fmt.Printf("Annotated %s -> %s (%d labels)\n", input, output, len(tl.Labelled()))
	return nil
}

func selectPort(name string) (drivers.In, error) {
	if name == "" {
		name = cfg.MIDIIn
	}
	return input.FindPort(name)
}

func runListen(cmd *cobra.Command, args []string) error {
	key, err := resolveKey()
	if err != nil {
		return err
	}
	in, err := selectPort(portName)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	console := sonority.SinkFunc(func(label harmony.Label) {
		if label.IsBlank() {
			return
		}
		fmt.Printf("%s  %s\n", time.Now().Format("15:04:05.000"), label.String())
	})
	tracker := sonority.New(
		sonority.WithKey(key),
		sonority.WithSink(sonority.NewDebounced(console, cfg.Debounce())),
	)
	router := input.NewRouter(tracker)

	stopListen, err := input.Listen(in, router)
	if err != nil {
		return err
	}
	defer stopListen()

	fmt.Printf("Listening on %s in %s (ctrl+c to stop)\n", in.String(), key.Display())
	router.Run(ctx)
	return nil
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports := input.ListPorts()
	if len(ports) == 0 {
		fmt.Println("No MIDI input ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Printf("%2d  %s\n", p.Index, p.Name)
	}
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}

	if saveConfig {
		if keyName != "" {
			if _, err := harmony.ParseKey(keyName); err != nil {
				return err
			}
			cfg.Key = keyName
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		if err := cfg.SaveTo(path); err != nil {
			return err
		}
		fmt.Printf("Saved %s\n", path)
	}

	fmt.Printf("# %s\n", path)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

func runTUI(cmd *cobra.Command, args []string) error {
	key, err := resolveKey()
	if err != nil {
		return err
	}
	opts := []tui.Option{tui.WithKey(key)}
	if portName != "" {
		in, err := input.FindPort(portName)
		if err != nil {
			return err
		}
		opts = append(opts, tui.WithInput(in))
	}
	return tui.Run(opts...)
}

func runServe(cmd *cobra.Command, args []string) error {
	key, err := resolveKey()
	if err != nil {
		return err
	}
	port := cfg.ServerPort
	if serverPort != 0 {
		port = serverPort
	}

	fmt.Printf("Starting API server on port %d...\n", port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", port)
	return api.StartServer(port, api.WithDefaultKey(key))
}
