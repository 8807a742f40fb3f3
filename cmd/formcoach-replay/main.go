package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/meltforce/formcoach/internal/exercise"
	"github.com/meltforce/formcoach/internal/pose"
	"github.com/meltforce/formcoach/internal/replay"
	"github.com/meltforce/formcoach/internal/workout"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	exerciseID    string
	serverURL     string
	apiKey        string
	fps           float64
	minVisibility float64
	quiet         bool
	verbose       bool

	reps       int
	repSeconds float64
	sloppy     bool
	outPath    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "formcoach-replay",
		Short: "Replay recorded pose frames through the rep counter",
		Long: `formcoach-replay feeds JSON Lines landmark recordings through the rep
counter, either in-process or against a running formcoach server, and prints
the workout summary.`,
		Version:      Version,
		SilenceUsage: true,
	}

	runCmd := &cobra.Command{
		Use:   "run <recording.jsonl>",
		Short: "Replay a recording",
		Long: `Replay a recording. Without --server the frames run through a local
tracker that uses the recorded timestamps as its clock. With --server the
frames are posted to the server's REST endpoints at --fps.`,
		Args: cobra.ExactArgs(1),
		RunE: runReplay,
	}
	runCmd.Flags().StringVarP(&exerciseID, "exercise", "e", "", "exercise id (see 'formcoach-replay exercises')")
	runCmd.Flags().StringVar(&serverURL, "server", "", "formcoach server URL; replays locally when empty")
	runCmd.Flags().StringVar(&apiKey, "api-key", os.Getenv("FORMCOACH_AUTH_API_KEY"), "API key for the server's control endpoints")
	runCmd.Flags().Float64Var(&fps, "fps", 30, "frames per second sent to the server (0 = unthrottled)")
	runCmd.Flags().Float64Var(&minVisibility, "min-visibility", 0, "minimum landmark visibility for local replays")
	runCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	_ = runCmd.MarkFlagRequired("exercise")

	synthCmd := &cobra.Command{
		Use:   "synth",
		Short: "Generate a synthetic recording",
		Long:  "Generate a recording of clean (or --sloppy) repetitions for testing clients and servers.",
		Args:  cobra.NoArgs,
		RunE:  runSynth,
	}
	synthCmd.Flags().StringVarP(&exerciseID, "exercise", "e", "", "exercise id")
	synthCmd.Flags().IntVarP(&reps, "reps", "n", 5, "repetitions, or seconds held for time-based exercises")
	synthCmd.Flags().Float64Var(&fps, "fps", 30, "frame rate of the recording")
	synthCmd.Flags().Float64Var(&repSeconds, "rep-seconds", 2, "length of one repetition")
	synthCmd.Flags().BoolVar(&sloppy, "sloppy", false, "add a form fault to every rep")
	synthCmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file, - for stdout")
	_ = synthCmd.MarkFlagRequired("exercise")

	exercisesCmd := &cobra.Command{
		Use:   "exercises",
		Short: "List supported exercises",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, ex := range exercise.Catalog() {
				kind := "reps"
				if ex.TimeBased {
					kind = "timed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %-6s %s\n", ex.ID, kind, ex.Name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, synthCmd, exercisesCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runReplay(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	frames, err := readRecording(args[0])
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("%s: no frames", args[0])
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var progress replay.Progress
	if !quiet {
		bar := progressbar.Default(int64(len(frames)), "Replaying")
		defer func() { _ = bar.Finish() }()
		progress = func(done int) { _ = bar.Set(done) }
	}

	var res replay.Result
	if serverURL == "" {
		res, err = replay.Local(ctx, log, exerciseID, frames, progress, workout.WithMinVisibility(minVisibility))
	} else {
		log.Info("replaying against server", "server", serverURL, "fps", fps)
		res, err = replay.NewClient(serverURL, apiKey, fps).Replay(ctx, exerciseID, frames, progress)
	}
	if err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func runSynth(cmd *cobra.Command, args []string) error {
	frames, err := replay.Synthesize(replay.SynthOptions{
		Exercise:   exerciseID,
		Reps:       reps,
		FPS:        fps,
		RepSeconds: repSeconds,
		Sloppy:     sloppy,
	})
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if outPath != "-" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	if err := replay.WriteRecording(w, frames); err != nil {
		return err
	}
	if outPath != "-" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d frames to %s\n", len(frames), outPath)
	}
	return nil
}

func readRecording(path string) ([]pose.Message, error) {
	if path == "-" {
		return replay.ReadRecording(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening recording: %w", err)
	}
	defer func() { _ = f.Close() }()
	frames, err := replay.ReadRecording(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return frames, nil
}
