package graph

import (
	"context"

	"github.com/rpggio/nowloop/internal/domain/activity"
	"github.com/rpggio/nowloop/internal/domain/plugin"
	"github.com/rpggio/nowloop/internal/domain/track"
)

// Plugin chains are edited synchronously under their own lock. The DSP layer
// reads them between blocks, so the hold time is a slice copy.

// owner identifies the track or input whose chain an operation targets.
type owner struct {
	track track.ID
	input plugin.AudioInputID
}

// AddTrackPluginInstance appends an instance to a track's chain.
func (g *Graph) AddTrackPluginInstance(ctx context.Context, id track.ID, pluginID plugin.PluginID, programID plugin.ProgramID, dryWet int) (plugin.InstanceIndex, error) {
	if err := track.CheckID(id); err != nil {
		return 0, err
	}
	return g.addInstance(ctx, owner{track: id}, pluginID, programID, dryWet)
}

// AddInputPluginInstance appends an instance to an input's chain.
func (g *Graph) AddInputPluginInstance(ctx context.Context, id plugin.AudioInputID, pluginID plugin.PluginID, programID plugin.ProgramID, dryWet int) (plugin.InstanceIndex, error) {
	if err := plugin.CheckAudioInput(id); err != nil {
		return 0, err
	}
	return g.addInstance(ctx, owner{input: id}, pluginID, programID, dryWet)
}

// SetTrackPluginDryWet changes the dry/wet mix of one track instance.
func (g *Graph) SetTrackPluginDryWet(id track.ID, idx plugin.InstanceIndex, dryWet int) error {
	if err := track.CheckID(id); err != nil {
		return err
	}
	return g.setDryWet(owner{track: id}, idx, dryWet)
}

// SetInputPluginDryWet changes the dry/wet mix of one input instance.
func (g *Graph) SetInputPluginDryWet(id plugin.AudioInputID, idx plugin.InstanceIndex, dryWet int) error {
	if err := plugin.CheckAudioInput(id); err != nil {
		return err
	}
	return g.setDryWet(owner{input: id}, idx, dryWet)
}

// DeleteTrackPluginInstance removes one instance; later ones shift down.
func (g *Graph) DeleteTrackPluginInstance(id track.ID, idx plugin.InstanceIndex) error {
	if err := track.CheckID(id); err != nil {
		return err
	}
	return g.deleteInstance(owner{track: id}, idx)
}

// DeleteInputPluginInstance removes one instance; later ones shift down.
func (g *Graph) DeleteInputPluginInstance(id plugin.AudioInputID, idx plugin.InstanceIndex) error {
	if err := plugin.CheckAudioInput(id); err != nil {
		return err
	}
	return g.deleteInstance(owner{input: id}, idx)
}

// TrackPluginInstances lists a track's chain in order.
func (g *Graph) TrackPluginInstances(id track.ID) ([]plugin.IndexedInstance, error) {
	if err := track.CheckID(id); err != nil {
		return nil, err
	}
	chain, _, err := g.chain(owner{track: id}, "list plugin instances")
	if err != nil {
		return nil, err
	}
	return chain.Instances(), nil
}

// InputPluginInstances lists an input's chain in order.
func (g *Graph) InputPluginInstances(id plugin.AudioInputID) ([]plugin.IndexedInstance, error) {
	if err := plugin.CheckAudioInput(id); err != nil {
		return nil, err
	}
	chain, _, err := g.chain(owner{input: id}, "list plugin instances")
	if err != nil {
		return nil, err
	}
	return chain.Instances(), nil
}

func (g *Graph) addInstance(ctx context.Context, o owner, pluginID plugin.PluginID, programID plugin.ProgramID, dryWet int) (plugin.InstanceIndex, error) {
	inst := plugin.Instance{PluginID: pluginID, ProgramID: programID, DryWet: dryWet}
	if err := plugin.ValidateInstance(inst); err != nil {
		return 0, err
	}
	chain, sid, err := g.chain(o, "add plugin instance")
	if err != nil {
		return 0, err
	}
	if g.deps.Plugins != nil {
		if err := g.deps.Plugins.Resolve(ctx, pluginID, programID); err != nil {
			return 0, err
		}
	}
	idx, err := chain.Add(inst)
	if err != nil {
		return 0, err
	}
	g.emit(Event{Type: activity.TypePluginInstanceAdded, SessionID: sid, TrackID: o.track, InputID: o.input, Index: idx, Value: float64(dryWet)})
	return idx, nil
}

func (g *Graph) setDryWet(o owner, idx plugin.InstanceIndex, dryWet int) error {
	if err := plugin.CheckIndex(idx); err != nil {
		return err
	}
	if err := plugin.ValidateDryWet(dryWet); err != nil {
		return err
	}
	chain, sid, err := g.chain(o, "set dry/wet")
	if err != nil {
		return err
	}
	if err := chain.SetDryWet(idx, dryWet); err != nil {
		return err
	}
	g.emit(Event{Type: activity.TypeDryWetChanged, SessionID: sid, TrackID: o.track, InputID: o.input, Index: idx, Value: float64(dryWet)})
	return nil
}

func (g *Graph) deleteInstance(o owner, idx plugin.InstanceIndex) error {
	if err := plugin.CheckIndex(idx); err != nil {
		return err
	}
	chain, sid, err := g.chain(o, "delete plugin instance")
	if err != nil {
		return err
	}
	if err := chain.Delete(idx); err != nil {
		return err
	}
	g.emit(Event{Type: activity.TypePluginInstanceDeleted, SessionID: sid, TrackID: o.track, InputID: o.input, Index: idx})
	return nil
}

func (g *Graph) chain(o owner, op string) (*plugin.Chain, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, err := g.session(op, StateInitialized, StateRunning)
	if err != nil {
		return nil, "", err
	}
	if o.track != track.Undefined {
		tr, err := s.track(o.track)
		if err != nil {
			return nil, "", err
		}
		return tr.Plugins(), s.id, nil
	}
	in, err := s.input(o.input)
	if err != nil {
		return nil, "", err
	}
	return in.Plugins(), s.id, nil
}
