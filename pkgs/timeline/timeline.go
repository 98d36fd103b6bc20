// Package timeline re-derives caption timing from the measured length of
// synthesized audio and produces the assembly plan that reproduces it.
package timeline

import (
	"fmt"

	"github.com/xifan2333/subcue/pkgs/caption"
)

const (
	DefaultMinGapMs int64 = 100
	DefaultMaxGapMs int64 = 1000
)

// Segment is one cue on its way through the synthesis path.
type Segment struct {
	Text             string
	OriginalStartMs  int64
	OriginalEndMs    int64
	ActualDurationMs int64
	NewStartMs       int64
	NewEndMs         int64
	AudioPath        string
}

// Options bounds the pause inserted between consecutive cues.
type Options struct {
	MinGapMs int64
	MaxGapMs int64
}

// Validate fills zero values with defaults.
func (o *Options) Validate() error {
	if o.MinGapMs == 0 {
		o.MinGapMs = DefaultMinGapMs
	}
	if o.MaxGapMs == 0 {
		o.MaxGapMs = DefaultMaxGapMs
	}
	if o.MinGapMs < 0 || o.MaxGapMs < o.MinGapMs {
		return fmt.Errorf("timeline: invalid gap bounds [%d, %d]", o.MinGapMs, o.MaxGapMs)
	}
	return nil
}

// Kind tells the assembler what an Instruction places.
type Kind int

const (
	Silence Kind = iota
	Audio
)

func (k Kind) String() string {
	if k == Audio {
		return "audio"
	}
	return "silence"
}

// Instruction is one step of the assembly plan. Concatenating the steps in
// order yields a track whose audio segments start at StartMs.
type Instruction struct {
	Kind       Kind
	StartMs    int64
	DurationMs int64
	AudioPath  string
}

// Result is the rebuilt timeline.
type Result struct {
	Captions []caption.Caption
	Segments []Segment
	Plan     []Instruction
	// TotalMs is the length of the assembled track.
	TotalMs int64
}

// Rebuild lays segments out one after another. The first cue keeps its
// original lead-in; every later cue is preceded by its original gap clamped
// to [MinGapMs, MaxGapMs]. Input segments are not modified.
func Rebuild(segments []Segment, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	res := &Result{
		Captions: make([]caption.Caption, 0, len(segments)),
		Segments: make([]Segment, 0, len(segments)),
		Plan:     make([]Instruction, 0, 2*len(segments)),
	}

	var current int64
	for i, seg := range segments {
		if seg.ActualDurationMs <= 0 {
			return nil, fmt.Errorf("timeline: segment %d has no measured duration", i)
		}

		var gap int64
		if i == 0 {
			gap = max(0, seg.OriginalStartMs)
		} else {
			gap = clamp(seg.OriginalStartMs-segments[i-1].OriginalEndMs, opts.MinGapMs, opts.MaxGapMs)
		}

		seg.NewStartMs = current + gap
		seg.NewEndMs = seg.NewStartMs + seg.ActualDurationMs

		if gap > 0 {
			res.Plan = append(res.Plan, Instruction{Kind: Silence, StartMs: current, DurationMs: gap})
		}
		res.Plan = append(res.Plan, Instruction{
			Kind:       Audio,
			StartMs:    seg.NewStartMs,
			DurationMs: seg.ActualDurationMs,
			AudioPath:  seg.AudioPath,
		})

		res.Segments = append(res.Segments, seg)
		res.Captions = append(res.Captions, caption.Caption{
			Text:       seg.Text,
			StartMs:    seg.NewStartMs,
			EndMs:      seg.NewEndMs,
			Confidence: 1,
		})
		current = seg.NewEndMs
	}
	res.TotalMs = current

	return res, nil
}

// SegmentsFromCaptions seeds segments from an existing caption sequence.
// Durations are filled in once audio has been measured.
func SegmentsFromCaptions(captions []caption.Caption) []Segment {
	out := make([]Segment, len(captions))
	for i, c := range captions {
		out[i] = Segment{Text: c.Text, OriginalStartMs: c.StartMs, OriginalEndMs: c.EndMs}
	}
	return out
}

func clamp(v, lo, hi int64) int64 {
	return min(max(v, lo), hi)
}
