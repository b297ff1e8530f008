// Package input models the audio inputs tracks record from.
package input

import (
	"github.com/rpggio/nowloop/internal/domain/plugin"
	"github.com/rpggio/nowloop/internal/signal"
	"github.com/rpggio/nowloop/internal/syncx"
)

// Input is one channel of the capture device, with its own effect chain.
type Input struct {
	id      plugin.AudioInputID
	channel int

	pan    syncx.Float
	volume syncx.Float

	plugins *plugin.Chain
	raw     *signal.Meter
	post    *signal.Meter
}

// Info is a read-only view of an input.
type Info struct {
	ID      plugin.AudioInputID `json:"id"`
	Channel int                 `json:"channel"`
	Pan     float64             `json:"pan"`
	Volume  float64             `json:"volume"`
	Raw     signal.Info         `json:"raw"`
	Post    signal.Info         `json:"post"`
}

// New returns an input centred at full volume.
func New(id plugin.AudioInputID, channel, meterSize int) *Input {
	in := &Input{
		id:      id,
		channel: channel,
		plugins: plugin.NewChain(),
		raw:     signal.NewMeter(meterSize),
		post:    signal.NewMeter(meterSize),
	}
	in.pan.Store(0.5)
	in.volume.Store(1)
	return in
}

// NewSet allocates inputs 1..count on consecutive channels.
func NewSet(count, meterSize int) []*Input {
	out := make([]*Input, count)
	for i := range out {
		out[i] = New(plugin.AudioInputID(i+1), i, meterSize)
	}
	return out
}

// ID returns the input id.
func (in *Input) ID() plugin.AudioInputID { return in.id }

// Plugins returns the input's plugin chain.
func (in *Input) Plugins() *plugin.Chain { return in.plugins }

// RawMeter holds statistics of the signal before the effect chain.
func (in *Input) RawMeter() *signal.Meter { return in.raw }

// PostMeter holds statistics of the signal after the effect chain.
func (in *Input) PostMeter() *signal.Meter { return in.post }

// ApplyPan stores a validated pan. Audio thread only.
func (in *Input) ApplyPan(v float64) { in.pan.Store(v) }

// ApplyVolume stores a validated volume. Audio thread only.
func (in *Input) ApplyVolume(v float64) { in.volume.Store(v) }

// Info snapshots the input.
func (in *Input) Info() Info {
	return Info{
		ID:      in.id,
		Channel: in.channel,
		Pan:     in.pan.Load(),
		Volume:  in.volume.Load(),
		Raw:     in.raw.Info(),
		Post:    in.post.Info(),
	}
}
