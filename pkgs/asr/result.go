package asr

import (
	"strings"

	"github.com/xifan2333/subcue/pkgs/caption"
)

// Segmented reports whether the provider already split the transcript into
// sentences.
func (r *StandardResult) Segmented() bool {
	return r != nil && len(r.Sentences) > 0
}

// Cues flattens the result into timed units. With wordLevel set, or when the
// provider returned no sentences, every word becomes a cue with its text
// trimmed. Otherwise each sentence is a cue.
func (r *StandardResult) Cues(wordLevel bool) []caption.Cue {
	if r == nil {
		return nil
	}
	if !wordLevel && r.Segmented() {
		cues := make([]caption.Cue, 0, len(r.Sentences))
		for _, s := range r.Sentences {
			cues = append(cues, caption.Cue{Text: s.Text, StartMs: s.Start, EndMs: s.End})
		}
		return cues
	}

	cues := make([]caption.Cue, 0, len(r.Words))
	for _, w := range r.Words {
		cues = append(cues, caption.Cue{Text: strings.TrimSpace(w.Text), StartMs: w.Start, EndMs: w.End})
	}
	return cues
}

// Captions maps Cues onto caption records with full confidence and no
// per-word timestamp.
func (r *StandardResult) Captions(wordLevel bool) []caption.Caption {
	return caption.FromCues(r.Cues(wordLevel))
}
