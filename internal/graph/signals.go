package graph

import (
	"fmt"

	"github.com/rpggio/nowloop/internal/domain/plugin"
	"github.com/rpggio/nowloop/internal/domain/track"
	"github.com/rpggio/nowloop/internal/signal"
)

// The DSP layer reports levels and spectra here; the graph only keeps the
// summaries for queries.

// ReportInputSignal records levels for an input, before (post=false) or after
// its plugin chain.
func (g *Graph) ReportInputSignal(id plugin.AudioInputID, post bool, values ...float64) error {
	m, err := g.inputMeter(id, post)
	if err != nil {
		return err
	}
	return m.Record(values...)
}

// ReportTrackSignal records levels for a track.
func (g *Graph) ReportTrackSignal(id track.ID, values ...float64) error {
	tr, _, err := g.lookupTrack(id, "report track signal")
	if err != nil {
		return err
	}
	return tr.Meter().Record(values...)
}

// ReportOutputSignal records levels for the mixed output.
func (g *Graph) ReportOutputSignal(values ...float64) error {
	s, err := g.session("report output signal", StateInitialized, StateRunning)
	if err != nil {
		return err
	}
	return s.output.Record(values...)
}

// ReportInputFrequencies stores the latest spectrum of an input. bins must
// match the configured output bin count.
func (g *Graph) ReportInputFrequencies(id plugin.AudioInputID, bins []float64) error {
	if err := g.checkBins(bins); err != nil {
		return err
	}
	m, err := g.inputMeter(id, false)
	if err != nil {
		return err
	}
	m.SetFrequencies(bins)
	return nil
}

// ReportTrackFrequencies stores the latest spectrum of a track.
func (g *Graph) ReportTrackFrequencies(id track.ID, bins []float64) error {
	if err := g.checkBins(bins); err != nil {
		return err
	}
	tr, _, err := g.lookupTrack(id, "report track frequencies")
	if err != nil {
		return err
	}
	tr.Meter().SetFrequencies(bins)
	return nil
}

// InputSignalInfo summarizes recent levels of an input.
func (g *Graph) InputSignalInfo(id plugin.AudioInputID, post bool) (signal.Info, error) {
	m, err := g.inputMeter(id, post)
	if err != nil {
		return signal.Info{}, err
	}
	return m.Info(), nil
}

// TrackSignalInfo summarizes recent levels of a track.
func (g *Graph) TrackSignalInfo(id track.ID) (signal.Info, error) {
	tr, _, err := g.lookupTrack(id, "track signal info")
	if err != nil {
		return signal.Info{}, err
	}
	return tr.Meter().Info(), nil
}

// OutputSignalInfo summarizes recent levels of the mixed output.
func (g *Graph) OutputSignalInfo() (signal.Info, error) {
	s, err := g.session("output signal info", StateInitialized, StateRunning)
	if err != nil {
		return signal.Info{}, err
	}
	return s.output.Info(), nil
}

// InputFrequencies returns the latest spectrum of an input.
func (g *Graph) InputFrequencies(id plugin.AudioInputID) ([]float64, error) {
	m, err := g.inputMeter(id, false)
	if err != nil {
		return nil, err
	}
	return m.Frequencies(), nil
}

// TrackFrequencies returns the latest spectrum of a track.
func (g *Graph) TrackFrequencies(id track.ID) ([]float64, error) {
	tr, _, err := g.lookupTrack(id, "track frequencies")
	if err != nil {
		return nil, err
	}
	return tr.Meter().Frequencies(), nil
}

func (g *Graph) inputMeter(id plugin.AudioInputID, post bool) (*signal.Meter, error) {
	if err := plugin.CheckAudioInput(id); err != nil {
		return nil, err
	}
	s, err := g.session("input signal", StateInitialized, StateRunning)
	if err != nil {
		return nil, err
	}
	in, err := s.input(id)
	if err != nil {
		return nil, err
	}
	if post {
		return in.PostMeter(), nil
	}
	return in.RawMeter(), nil
}

func (g *Graph) checkBins(bins []float64) error {
	s, err := g.session("report frequencies", StateInitialized, StateRunning)
	if err != nil {
		return err
	}
	if len(bins) != s.fft.OutputBinCount {
		return fmt.Errorf("%w: got %d bins, want %d", ErrInvalidFFT, len(bins), s.fft.OutputBinCount)
	}
	return nil
}
