package bijian

import (
	"encoding/json"
	"strings"

	"github.com/xifan2333/subcue/pkgs/asr"
)

type resultDocument struct {
	Utterances []utterance `json:"utterances"`
}

type utterance struct {
	Transcript string  `json:"transcript"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Words      []word  `json:"words"`
}

type word struct {
	Label     string  `json:"label"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// Parse decodes the result document carried as a string in the terminal
// response. Times are already in milliseconds. A task that recognised no
// speech yields an empty result rather than an error.
func (j *Job) Parse(raw asr.RawResult) (*asr.StandardResult, error) {
	res, ok := raw.(*taskResult)
	if !ok {
		return nil, &asr.ParseError{Message: "invalid raw result type, expected *taskResult"}
	}
	if strings.TrimSpace(res.Result) == "" {
		return nil, &asr.ParseError{Message: "missing result in response"}
	}

	var doc resultDocument
	if err := json.Unmarshal([]byte(res.Result), &doc); err != nil {
		return nil, &asr.ParseError{Message: "failed to parse result JSON", Err: err}
	}
	return parse(doc), nil
}

func parse(doc resultDocument) *asr.StandardResult {
	result := &asr.StandardResult{
		Words:     make([]asr.Word, 0),
		Sentences: make([]asr.Sentence, 0, len(doc.Utterances)),
	}

	var textParts []string
	for _, utt := range doc.Utterances {
		textParts = append(textParts, utt.Transcript)
		result.Sentences = append(result.Sentences, asr.Sentence{
			Text:  utt.Transcript,
			Start: int64(utt.StartTime),
			End:   int64(utt.EndTime),
		})
		for _, w := range utt.Words {
			result.Words = append(result.Words, asr.Word{
				Text:  w.Label,
				Start: int64(w.StartTime),
				End:   int64(w.EndTime),
			})
		}
	}
	result.Text = strings.Join(textParts, "")

	return result
}
