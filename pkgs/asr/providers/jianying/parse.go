package jianying

import (
	"strings"

	"github.com/xifan2333/subcue/pkgs/asr"
)

type queryData struct {
	Utterances []utterance `json:"utterances"`
	Attribute  struct {
		Extra struct {
			Language string `json:"language"`
		} `json:"extra"`
	} `json:"attribute"`
}

type utterance struct {
	Text      string  `json:"text"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Words     []word  `json:"words"`
	Attribute struct {
		Speaker string `json:"speaker"`
	} `json:"attribute"`
}

type word struct {
	Text      string  `json:"text"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// Parse converts the terminal query response to the standardized format.
//
// The parser extracts:
//   - Complete transcription text
//   - Word-level timestamps (phrase granularity)
//   - Sentence-level segments with speaker ids
//   - Language information
//
// Times are already in milliseconds.
func (j *Job) Parse(raw asr.RawResult) (*asr.StandardResult, error) {
	data, ok := raw.(*queryData)
	if !ok {
		return nil, &asr.ParseError{Message: "invalid raw result type, expected *queryData"}
	}
	if len(data.Utterances) == 0 {
		return nil, &asr.ParseError{Message: "no utterances in response"}
	}

	result := &asr.StandardResult{
		Words:     make([]asr.Word, 0),
		Sentences: make([]asr.Sentence, 0, len(data.Utterances)),
		Language:  data.Attribute.Extra.Language,
	}

	var textParts []string
	for _, utt := range data.Utterances {
		textParts = append(textParts, utt.Text)
		result.Sentences = append(result.Sentences, asr.Sentence{
			Text:      utt.Text,
			Start:     int64(utt.StartTime),
			End:       int64(utt.EndTime),
			SpeakerID: utt.Attribute.Speaker,
		})
		for _, w := range utt.Words {
			result.Words = append(result.Words, asr.Word{
				Text:      w.Text,
				Start:     int64(w.StartTime),
				End:       int64(w.EndTime),
				SpeakerID: utt.Attribute.Speaker,
			})
		}
	}
	result.Text = strings.Join(textParts, "")

	return result, nil
}
