package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/clipmark/clipmark/internal/config"
	"github.com/clipmark/clipmark/internal/event"
	"github.com/clipmark/clipmark/internal/extract"
	"github.com/clipmark/clipmark/internal/ffmpeg"
	"github.com/clipmark/clipmark/internal/gui"
	"github.com/clipmark/clipmark/internal/logging"
	"github.com/clipmark/clipmark/internal/sampler"
	"github.com/clipmark/clipmark/internal/segment"
	"github.com/clipmark/clipmark/pkg/util"
)

var (
	cfgFile string
	verbose bool
	logFile string

	flagStart  string
	flagEnd    string
	flagFormat string
	flagIn     string
	flagOut    string
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "clipmark",
	Short: "clipmark - mark, annotate and extract video segments",
	Long:  "A desktop tool for marking time ranges on a video and exporting them as video clips, image sequences, audio tracks or CSV data.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logFile != "" {
			if err := logging.InitWithFile(verbose, logFile); err != nil {
				return err
			}
		} else {
			logging.Init(verbose)
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		cmd.SetContext(config.WithConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file")

	for _, cmd := range []*cobra.Command{trimCmd, imagesCmd, audioCmd} {
		cmd.Flags().StringVar(&flagStart, "start", "", "segment start (HH:MM:SS or seconds)")
		cmd.Flags().StringVar(&flagEnd, "end", "", "segment end (HH:MM:SS or seconds)")
		_ = cmd.MarkFlagRequired("start")
		_ = cmd.MarkFlagRequired("end")
	}
	audioCmd.Flags().StringVar(&flagFormat, "format", "mp3", "audio format (mp3 or wav)")

	exportCmd.Flags().StringVar(&flagStart, "start", "", "mark a segment start (HH:MM:SS or seconds)")
	exportCmd.Flags().StringVar(&flagEnd, "end", "", "mark a segment end (HH:MM:SS or seconds)")
	exportCmd.Flags().StringVar(&flagIn, "in", "", "existing CSV to import segments from")
	exportCmd.Flags().StringVar(&flagOut, "out", "", "output CSV path (default: generated name in the output directory)")

	rootCmd.AddCommand(guiCmd)
	rootCmd.AddCommand(trimCmd)
	rootCmd.AddCommand(imagesCmd)
	rootCmd.AddCommand(audioCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
}

// pipeline bundles the components shared by the GUI and headless commands.
type pipeline struct {
	bus       *event.Bus
	store     *segment.Store
	selection *segment.Selection
	manager   *extract.Manager
	prober    *ffmpeg.Prober
}

func buildPipeline(cfg *config.Config) *pipeline {
	toolPath, err := ffmpeg.Locate(cfg.FFmpeg.BinaryPath, cfg.FFmpeg.ExtraLocations)
	if err != nil {
		log.Warn().Err(err).Msg("ffmpeg unavailable, subprocess extraction disabled")
		toolPath = ""
	}

	var prober *ffmpeg.Prober
	if probePath, err := ffmpeg.Locate("ffprobe", cfg.FFmpeg.ExtraLocations); err == nil {
		prober = ffmpeg.NewProber(probePath)
	} else {
		log.Warn().Err(err).Msg("ffprobe unavailable")
	}

	bus := event.NewBus(log.Logger)
	store := segment.NewStore()
	selection := segment.NewSelection()

	timeout := time.Duration(cfg.FFmpeg.TimeoutMinutes) * time.Minute
	runner := ffmpeg.NewRunner(log.Logger, timeout)
	smp := sampler.New(log.Logger,
		sampler.WithFPSCeiling(cfg.Sampler.FPSCeiling),
		sampler.WithFallbackFPS(cfg.Sampler.FallbackFPS))

	manager := extract.New(log.Logger, bus, store, extract.Options{
		Runner:      runner,
		Sampler:     smp,
		Prober:      prober,
		ToolPath:    toolPath,
		OutputDir:   cfg.OutputDir,
		JPEGQuality: cfg.Sampler.JPEGQuality,
		FPSCeiling:  cfg.Sampler.FPSCeiling,
		Selected:    func() *segment.Segment { return selection.Resolve(store) },
	})

	return &pipeline{
		bus:       bus,
		store:     store,
		selection: selection,
		manager:   manager,
		prober:    prober,
	}
}

var guiCmd = &cobra.Command{
	Use:   "gui",
	Short: "Open the segment marking window",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		p := buildPipeline(cfg)
		gui.Run(log.Logger, cfg, p.bus, p.store, p.selection, p.manager, p.prober)
		return nil
	},
}

// runHeadless executes one extraction on the shared pipeline and blocks
// until its terminal event arrives.
func runHeadless(cmd *cobra.Command, input string, start func(p *pipeline, seg *segment.Segment) error) error {
	cfg := config.FromContext(cmd.Context())
	p := buildPipeline(cfg)

	startSec, err := util.ParseClock(flagStart)
	if err != nil {
		return err
	}
	endSec, err := util.ParseClock(flagEnd)
	if err != nil {
		return err
	}

	logger := logging.WithComponent("cli")

	done := make(chan error, 1)
	p.bus.Subscribe(extract.EventComplete, func(f event.Fields) {
		logger.Info().Interface("result", f["path"]).Msg("extraction complete")
		done <- nil
	})
	p.bus.Subscribe(extract.EventError, func(f event.Fields) {
		msg, _ := f["message"].(string)
		done <- fmt.Errorf("extraction failed: %s", msg)
	})
	p.bus.Subscribe(extract.EventCancelled, func(f event.Fields) {
		done <- fmt.Errorf("extraction cancelled")
	})
	p.bus.Subscribe(extract.EventProgress, func(f event.Fields) {
		percent, _ := f["percent"].(float64)
		logger.Info().Float64("percent", percent).Msg("progress")
	})

	p.manager.SetSource(input)
	seg := segment.New(input, startSec, endSec)

	if err := start(p, seg); err != nil {
		return err
	}
	err = <-done
	p.manager.Wait()
	return err
}

var trimCmd = &cobra.Command{
	Use:   "trim [video]",
	Short: "Export a segment as a re-encoded video clip",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHeadless(cmd, args[0], func(p *pipeline, seg *segment.Segment) error {
			return p.manager.ExtractVideo(seg)
		})
	},
}

var imagesCmd = &cobra.Command{
	Use:   "images [video]",
	Short: "Export a segment as an image sequence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHeadless(cmd, args[0], func(p *pipeline, seg *segment.Segment) error {
			return p.manager.ExtractImages(seg)
		})
	},
}

var audioCmd = &cobra.Command{
	Use:   "audio [video]",
	Short: "Export a segment's audio track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHeadless(cmd, args[0], func(p *pipeline, seg *segment.Segment) error {
			return p.manager.ExtractAudio(seg, ffmpeg.AudioFormat(flagFormat))
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [video]",
	Short: "Write segment data to a CSV file",
	Long:  "Collects segments from an existing CSV (--in) and/or a single --start/--end pair marked on the given video, then writes them out as CSV.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		logger := logging.WithComponent("cli")

		store := segment.NewStore()

		if flagIn != "" {
			f, err := os.Open(flagIn)
			if err != nil {
				return err
			}
			segs, err := segment.ReadCSV(f)
			f.Close()
			if err != nil {
				return err
			}
			for _, seg := range segs {
				store.Add(seg)
			}
			logger.Info().Int("segments", len(segs)).Str("from", flagIn).Msg("imported segment data")
		}

		if flagStart != "" || flagEnd != "" {
			startSec, err := util.ParseClock(flagStart)
			if err != nil {
				return err
			}
			endSec, err := util.ParseClock(flagEnd)
			if err != nil {
				return err
			}
			if err := segment.Validate(startSec, endSec); err != nil {
				return err
			}
			if store.NearDuplicate(startSec, endSec) {
				return fmt.Errorf("a segment with range %s -> %s is already present", flagStart, flagEnd)
			}
			store.Add(segment.New(args[0], startSec, endSec))
		}

		if store.Len() == 0 {
			return errors.New("nothing to export: provide --in and/or --start/--end")
		}

		out := flagOut
		if out == "" {
			if err := util.EnsureDir(cfg.OutputDir); err != nil {
				return err
			}
			out = filepath.Join(cfg.OutputDir,
				segment.DefaultCSVName(args[0], store.Len(), time.Now(), cfg.Export.MaxNameLen))
		}
		if err := store.ExportFile(out); err != nil {
			return err
		}
		logger.Info().Str("path", out).Int("segments", store.Len()).Msg("CSV written")
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default config file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "./config.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		cfg := config.FromContext(cmd.Context())
		if err := cfg.Save(path); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("config written")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
