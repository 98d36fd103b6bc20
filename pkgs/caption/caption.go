// Package caption defines the canonical caption record and the normalization
// passes applied to every provider's output before it is written.
package caption

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxCharsPerLine is the grouping budget used when none is configured.
const DefaultMaxCharsPerLine = 42

// Caption is one timed line. The JSON field names are consumed by the player
// and must not change.
type Caption struct {
	Text        string  `json:"text"`
	StartMs     int64   `json:"startMs"`
	EndMs       int64   `json:"endMs"`
	TimestampMs *int64  `json:"timestampMs"`
	Confidence  float64 `json:"confidence"`
}

// Cue is a provider-neutral timed unit: an utterance, a word or an SRT block.
type Cue struct {
	Text    string
	StartMs int64
	EndMs   int64
}

// Options controls Normalize.
type Options struct {
	// MaxCharsPerLine is the grouping budget. Zero selects the default.
	MaxCharsPerLine int
	// Group merges consecutive cues into lines. Pre-segmented input leaves it off.
	Group bool
}

// FromCues maps cues onto captions without merging them.
func FromCues(cues []Cue) []Caption {
	out := make([]Caption, 0, len(cues))
	for _, c := range cues {
		out = append(out, Caption{
			Text:       norm.NFC.String(c.Text),
			StartMs:    c.StartMs,
			EndMs:      c.EndMs,
			Confidence: 1,
		})
	}
	return out
}

// Cues strips captions back down to their timing and text.
func Cues(captions []Caption) []Cue {
	out := make([]Cue, 0, len(captions))
	for _, c := range captions {
		out = append(out, Cue{Text: c.Text, StartMs: c.StartMs, EndMs: c.EndMs})
	}
	return out
}

// GroupByMaxChars packs cues greedily into lines whose space-joined text stays
// within maxChars runes. A cue is never split, so a single cue longer than the
// budget becomes a line of its own. Cues with blank text are skipped.
func GroupByMaxChars(cues []Cue, maxChars int) []Caption {
	return group(FromCues(cues), maxChars)
}

func group(items []Caption, maxChars int) []Caption {
	if maxChars <= 0 {
		maxChars = DefaultMaxCharsPerLine
	}

	var (
		out     []Caption
		line    []Caption
		lineLen int
	)
	flush := func() {
		if len(line) == 0 {
			return
		}
		texts := make([]string, len(line))
		confidence := line[0].Confidence
		for i, c := range line {
			texts[i] = c.Text
			if c.Confidence < confidence {
				confidence = c.Confidence
			}
		}
		out = append(out, Caption{
			Text:       strings.Join(texts, " "),
			StartMs:    line[0].StartMs,
			EndMs:      line[len(line)-1].EndMs,
			Confidence: confidence,
		})
		line = nil
		lineLen = 0
	}

	for _, c := range items {
		text := strings.TrimSpace(norm.NFC.String(c.Text))
		if text == "" {
			continue
		}
		n := utf8.RuneCountInString(text)
		if len(line) > 0 && lineLen+1+n > maxChars {
			flush()
		}
		if len(line) > 0 {
			lineLen++
		}
		lineLen += n
		c.Text = text
		line = append(line, c)
	}
	flush()

	return out
}

// RemoveOverlap clamps each caption's end to the next caption's start. It
// only ever shrinks the earlier cue and returns a new slice.
func RemoveOverlap(captions []Caption) []Caption {
	out := make([]Caption, len(captions))
	copy(out, captions)
	for i := 0; i < len(out)-1; i++ {
		if out[i].EndMs > out[i+1].StartMs {
			out[i].EndMs = out[i+1].StartMs
		}
	}
	return out
}

// Normalize applies optional grouping followed by the overlap pass. Running
// it on its own output changes nothing. Grouped lines keep the lowest
// confidence of their members.
func Normalize(captions []Caption, opts Options) []Caption {
	if opts.Group {
		return RemoveOverlap(group(captions, opts.MaxCharsPerLine))
	}
	out := make([]Caption, len(captions))
	for i, c := range captions {
		c.Text = norm.NFC.String(c.Text)
		out[i] = c
	}
	return RemoveOverlap(out)
}

// Validate checks the ordering invariant that holds after normalization.
func Validate(captions []Caption) error {
	for i := 0; i < len(captions)-1; i++ {
		if captions[i].EndMs > captions[i+1].StartMs {
			return &OverlapError{Index: i, EndMs: captions[i].EndMs, NextStartMs: captions[i+1].StartMs}
		}
	}
	return nil
}
