package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `nowloop is the control plane of a live looping engine: one graph, a shared beat clock, and tracks that record an input and then loop it.

Core concepts:
- Graph: Uninitialized → Initialized → Running. Any state may fall into InError; reset_graph recovers.
- Clock: time advances in audio samples, one block at a time. time_info reports the sample position, the exact beat and the beat within the measure.
- Track: Recording → FinishRecording → Looping. A finish request lands on the next quantum boundary (a measure by default), counted from the track's start.
- Plugin chain: every track and input has an ordered chain of plugin instances addressed by 1-based index. Deleting an instance shifts later ones down.

Default workflow:
1) graph_state. If Uninitialized, initialize_graph then start_graph.
2) create_recording_track(input_id) → track_id. The track starts at the clock position of the last processed block.
3) finish_recording(track_id). Poll track_info until state is Looping.
4) Mix with set_track_volume / set_track_pan / set_track_muted and plugin instances.
5) set_bpm only works while no tracks exist.

Track and input commands are applied by the audio thread at the start of the next block, so a query right after a command may not reflect it yet. QUEUE_FULL means retry shortly.

Docs:
- nowloop://docs/index
- nowloop://docs/concepts
- nowloop://docs/workflows/record-a-loop
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "nowloop://docs/index",
		Name:        "docs_index",
		Title:       "nowloop docs index",
		Description: "Entry point: which doc to read for what.",
		Content: `# nowloop: Docs Index

- ` + "`nowloop://docs/concepts`" + `: time units, the beat clock, track states and ids.
- ` + "`nowloop://docs/workflows/record-a-loop`" + `: from an empty graph to a looping track.

## Errors

Tool errors carry a stable ` + "`code`" + `:

- ` + "`INVALID_ID`" + `: an id below 1.
- ` + "`TRACK_NOT_FOUND`" + `: a track id that was never issued or has been deleted.
- ` + "`INVALID_TRACK_STATE`" + `: e.g. finishing a track that is not Recording.
- ` + "`WRONG_GRAPH_STATE`" + `: e.g. creating a track before start_graph.
- ` + "`TRACKS_EXIST`" + `: set_bpm while tracks exist.
- ` + "`OUT_OF_RANGE`" + `: pan, volume, dry/wet or plugin index out of range.
- ` + "`QUEUE_FULL`" + `: the audio thread has not caught up; retry.
`,
	},
	{
		URI:         "nowloop://docs/concepts",
		Name:        "docs_concepts",
		Title:       "Concepts",
		Description: "Time units, beat clock, track lifecycle and id rules.",
		Content: `# Concepts

## Time

Positions and lengths are reported in **samples** (integers), **beats** (integers or fractions) and **seconds** (fractions). They are never mixed: a duration in samples is not a duration in beats.

## Beat clock

The clock starts at sample 0 and advances by one block per audio callback. At a given tempo a beat lasts ` + "`sample_rate * 60 / bpm`" + ` samples. ` + "`beat_in_measure`" + ` is in ` + "`[0, beats_per_measure)`" + `.

## Tracks

- **Recording**: the track grows with the clock.
- **FinishRecording**: a finish was requested; recording continues until the next quantum boundary after the track's start.
- **Looping**: the duration is fixed. ` + "`local_clock_time`" + ` wraps within ` + "`[0, duration)`" + `.

Only Looping tracks can be deleted. A deleted id is never reused and every later use of it fails.

## Ids

Track, input, plugin and program ids start at 1. Plugin instance indexes start at 1 and are positional.
`,
	},
	{
		URI:         "nowloop://docs/workflows/record-a-loop",
		Name:        "docs_workflow_record_a_loop",
		Title:       "Workflow: record a loop",
		Description: "Step by step from an empty graph to a looping track.",
		Content: `# Workflow: record a loop

1. ` + "`initialize_graph`" + ` (defaults are fine) then ` + "`start_graph`" + `.
2. Optional: ` + "`set_bpm({bpm: 120})`" + ` before any track exists.
3. ` + "`create_recording_track({input_id: 1})`" + ` → ` + "`{track_id: 1}`" + `.
4. Play. When done, ` + "`finish_recording({track_id: 1})`" + `.
5. Poll ` + "`track_info({track_id: 1})`" + ` until ` + "`state`" + ` is ` + "`Looping`" + `. At 120 BPM in 4/4 a one-measure loop lasts 2 seconds.
6. ` + "`list_loops`" + ` shows every loop archived in this and earlier sessions.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
