package caption

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSRT reads SubRip blocks into cues. Index lines are optional and
// multi-line cue text is joined with a space.
func ParseSRT(content string) ([]Cue, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimPrefix(content, "\ufeff")

	var cues []Cue
	for _, block := range strings.Split(strings.TrimSpace(content), "\n\n") {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		timing := -1
		for i, line := range lines {
			if strings.Contains(line, "-->") {
				timing = i
				break
			}
		}
		if timing < 0 {
			continue
		}

		parts := strings.SplitN(lines[timing], "-->", 2)
		start, err := parseSRTTimestamp(parts[0])
		if err != nil {
			return nil, err
		}
		endField := strings.Fields(parts[1])
		if len(endField) == 0 {
			return nil, fmt.Errorf("srt: missing end time in %q", lines[timing])
		}
		end, err := parseSRTTimestamp(endField[0])
		if err != nil {
			return nil, err
		}

		text := make([]string, 0, len(lines)-timing-1)
		for _, l := range lines[timing+1:] {
			if l = strings.TrimSpace(l); l != "" {
				text = append(text, l)
			}
		}
		cues = append(cues, Cue{Text: strings.Join(text, " "), StartMs: start, EndMs: end})
	}
	return cues, nil
}

// parseSRTTimestamp turns "HH:MM:SS,mmm" into milliseconds. A period is
// accepted in place of the comma.
func parseSRTTimestamp(value string) (int64, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ".", ",")
	if value == "" {
		return 0, fmt.Errorf("srt: empty timestamp")
	}
	clock, fraction, ok := strings.Cut(value, ",")
	if !ok {
		return 0, fmt.Errorf("srt: invalid timestamp %q", value)
	}
	hms := strings.Split(clock, ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("srt: invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(fraction)
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("srt: invalid timestamp %q", value)
	}
	return int64(hours*3600+minutes*60+seconds)*1000 + int64(millis), nil
}
