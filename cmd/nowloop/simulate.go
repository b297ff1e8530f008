package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rpggio/nowloop/internal/domain/activity"
	"github.com/rpggio/nowloop/internal/domain/plugin"
	"github.com/rpggio/nowloop/internal/domain/track"
	"github.com/rpggio/nowloop/internal/driver"
	"github.com/rpggio/nowloop/internal/graph"
	"github.com/rpggio/nowloop/internal/sqlite"
)

var (
	argRecordSeconds float64
	argInput         int

	simulateCmd = &cobra.Command{
		Use:   "simulate",
		Short: "Record one loop on a headless clock and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			graphCfg, err := cfg.GraphConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(cfg.Log.Level)}))

			db, err := sqlite.New(":memory:")
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.RunMigrations(); err != nil {
				return err
			}
			activitySvc := activity.NewService(sqlite.NewActivityRepository(db), logger)

			g, err := graph.New(graphCfg, graph.Deps{Logger: logger, Activity: activitySvc})
			if err != nil {
				return err
			}
			if err := g.Initialize(cfg.GraphFFT(), cfg.PreRecording()); err != nil {
				return err
			}
			if err := g.Start(); err != nil {
				return err
			}

			sim := &simulation{graph: g}
			sim.driver, err = driver.New(g, g, driver.Config{
				SampleRate: graphCfg.SampleRate,
				BlockSize:  graphCfg.BlockSize,
				InputCount: graphCfg.InputCount,
			}, logger)
			if err != nil {
				return err
			}

			summary, err := sim.recordLoop(cmd.Context(), plugin.AudioInputID(argInput), argRecordSeconds)
			if err != nil {
				return err
			}

			entries, err := activitySvc.GetRecentActivity(cmd.Context(), g.SessionID(), activity.ListActivityOptions{})
			if err != nil {
				return err
			}
			summary.Events = len(entries)

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(summary)
		},
	}
)

func init() {
	simulateCmd.Flags().Float64VarP(&argRecordSeconds, "record-seconds", "r", 3, "How long to record before asking to finish")
	simulateCmd.Flags().IntVarP(&argInput, "input", "i", 1, "Audio input to record from")
	rootCmd.AddCommand(simulateCmd)
}

type loopSummary struct {
	SessionID       string  `yaml:"session_id"`
	TrackID         int     `yaml:"track_id"`
	State           string  `yaml:"state"`
	Blocks          int64   `yaml:"blocks"`
	StartTime       int64   `yaml:"start_time"`
	DurationSamples int64   `yaml:"duration_samples"`
	DurationBeats   int64   `yaml:"duration_beats"`
	ExactSeconds    float64 `yaml:"exact_seconds"`
	Events          int     `yaml:"events"`
}

type simulation struct {
	graph  *graph.Graph
	driver *driver.Driver
}

func (s *simulation) recordLoop(ctx context.Context, in plugin.AudioInputID, seconds float64) (loopSummary, error) {
	cfg := s.graph.Config()
	id, err := s.graph.CreateRecordingTrack(in)
	if err != nil {
		return loopSummary{}, err
	}

	blocks := int(math.Ceil(seconds * float64(cfg.SampleRate) / float64(cfg.BlockSize)))
	if err := s.step(ctx, blocks); err != nil {
		return loopSummary{}, err
	}
	if err := s.graph.FinishRecording(id); err != nil {
		return loopSummary{}, err
	}

	// A finish lands within one quantum, which is at most a few measures.
	limit := blocks + 64*cfg.SampleRate/cfg.BlockSize + 1
	for range limit {
		if err := s.step(ctx, 1); err != nil {
			return loopSummary{}, err
		}
		st, err := s.graph.TrackState(id)
		if err != nil {
			return loopSummary{}, err
		}
		if st == track.StateLooping {
			break
		}
	}

	info, err := s.graph.TrackInfo(id)
	if err != nil {
		return loopSummary{}, err
	}
	return loopSummary{
		SessionID:       s.graph.SessionID(),
		TrackID:         int(info.ID),
		State:           info.State.String(),
		Blocks:          s.driver.Blocks(),
		StartTime:       info.StartTime.Int64(),
		DurationSamples: info.Duration.Int64(),
		DurationBeats:   info.DurationInBeats.Int64(),
		ExactSeconds:    info.ExactDuration.Float64(),
	}, nil
}

// step processes n blocks and records the events they produced.
func (s *simulation) step(ctx context.Context, n int) error {
	if err := s.driver.Step(n); err != nil {
		return err
	}
	for {
		select {
		case ev := <-s.graph.Events():
			s.graph.Record(ctx, ev)
		default:
			return nil
		}
	}
}
