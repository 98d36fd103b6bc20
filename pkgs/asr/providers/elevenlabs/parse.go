package elevenlabs

import (
	"math"

	"github.com/xifan2333/subcue/pkgs/asr"
)

type transcript struct {
	Text         *string `json:"text"`
	LanguageCode string  `json:"language_code"`
	Words        []word  `json:"words"`
}

type word struct {
	Text      string  `json:"text"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Type      string  `json:"type"`
	SpeakerID string  `json:"speaker_id"`
}

// Parse converts the ElevenLabs response to the standardized format.
//
// ElevenLabs does not segment sentences, so only Words is filled. Spacing
// tokens are dropped and times are converted from seconds to milliseconds.
func (j *Job) Parse(raw asr.RawResult) (*asr.StandardResult, error) {
	resp, ok := raw.(*transcript)
	if !ok || resp == nil {
		return nil, &asr.ParseError{Message: "invalid raw result type, expected *transcript"}
	}
	if resp.Text == nil {
		return nil, &asr.ParseError{Message: "missing text field in response"}
	}

	result := &asr.StandardResult{
		Text:     *resp.Text,
		Words:    make([]asr.Word, 0, len(resp.Words)),
		Language: resp.LanguageCode,
	}
	for _, w := range resp.Words {
		if w.Type == "spacing" {
			continue
		}
		result.Words = append(result.Words, asr.Word{
			Text:      w.Text,
			Start:     toMillis(w.Start),
			End:       toMillis(w.End),
			SpeakerID: w.SpeakerID,
		})
	}

	if len(result.Words) == 0 {
		return nil, &asr.ParseError{Message: "no words found in response"}
	}
	return result, nil
}

func toMillis(seconds float64) int64 {
	return int64(math.Round(seconds * 1000))
}
