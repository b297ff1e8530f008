// Package driver stands in for the audio device callback. It calls the
// graph's ProcessBlock once per block period so the engine can run headless.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/rpggio/nowloop/internal/domain/plugin"
	"github.com/rpggio/nowloop/internal/graph"
)

// Engine is the audio-thread surface of a graph.
type Engine interface {
	ProcessBlock(n int) error
	State() graph.State
	Fail(cause error)
}

// Meters receives synthesized signal levels when the driver simulates input.
type Meters interface {
	ReportInputSignal(id plugin.AudioInputID, post bool, values ...float64) error
	ReportOutputSignal(values ...float64) error
}

// Config sets the block geometry the driver feeds the engine.
type Config struct {
	SampleRate int
	BlockSize  int
	InputCount int
}

// Driver pumps blocks into an Engine.
type Driver struct {
	engine Engine
	meters Meters
	cfg    Config
	logger *slog.Logger
	blocks atomic.Int64
}

// New returns a driver for engine. meters may be nil.
func New(engine Engine, meters Meters, cfg Config, logger *slog.Logger) (*Driver, error) {
	if cfg.SampleRate <= 0 || cfg.BlockSize <= 0 {
		return nil, fmt.Errorf("invalid block geometry: %d samples at %d Hz", cfg.BlockSize, cfg.SampleRate)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Driver{engine: engine, meters: meters, cfg: cfg, logger: logger}, nil
}

// Period is the wall-clock length of one block.
func (d *Driver) Period() time.Duration {
	return time.Duration(d.cfg.BlockSize) * time.Second / time.Duration(d.cfg.SampleRate)
}

// Blocks returns how many blocks have been processed.
func (d *Driver) Blocks() int64 { return d.blocks.Load() }

// Run processes one block per period until ctx ends. Ticks arriving while the
// graph is not Running are skipped. Any other ProcessBlock error fails the
// graph and stops the driver.
func (d *Driver) Run(ctx context.Context) error {
	t := time.NewTicker(d.Period())
	defer t.Stop()

	d.logger.Info("driver started", "period", d.Period(), "block_size", d.cfg.BlockSize)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("driver stopped", "blocks", d.Blocks())
			return nil
		case <-t.C:
			if err := d.tick(); err != nil {
				return err
			}
		}
	}
}

// Step processes n blocks back to back, ignoring wall-clock time.
func (d *Driver) Step(n int) error {
	for range n {
		if err := d.tick(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) tick() error {
	if d.engine.State() != graph.StateRunning {
		return nil
	}
	err := d.engine.ProcessBlock(d.cfg.BlockSize)
	if errors.Is(err, graph.ErrWrongGraphState) {
		// shut down between the state check and the block
		return nil
	}
	if err != nil {
		d.engine.Fail(err)
		return fmt.Errorf("processing block %d: %w", d.Blocks(), err)
	}
	d.blocks.Add(1)
	d.simulateLevels()
	return nil
}

// simulateLevels feeds the meters a random level per input, the way a device
// would report peak amplitude for the block.
func (d *Driver) simulateLevels() {
	if d.meters == nil {
		return
	}
	var sum float64
	for i := 1; i <= d.cfg.InputCount; i++ {
		level := rand.Float64()
		sum += level
		_ = d.meters.ReportInputSignal(plugin.AudioInputID(i), false, level)
		_ = d.meters.ReportInputSignal(plugin.AudioInputID(i), true, level)
	}
	if d.cfg.InputCount > 0 {
		_ = d.meters.ReportOutputSignal(sum / float64(d.cfg.InputCount))
	}
}
