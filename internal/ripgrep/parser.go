package ripgrep

import (
	"encoding/json"
	"fmt"
	"strings"

	"greptide/internal/domain"
)

// ripgrep --json emits one JSON object per line. Only "match" records carry
// result data; "begin", "end", "context" and "summary" records are ignored.
type jsonEvent struct {
	Type string    `json:"type"`
	Data jsonMatch `json:"data"`
}

type jsonMatch struct {
	Path           jsonText       `json:"path"`
	Lines          jsonText       `json:"lines"`
	LineNumber     int            `json:"line_number"`
	AbsoluteOffset int            `json:"absolute_offset"`
	Submatches     []jsonSubmatch `json:"submatches"`
}

type jsonText struct {
	Text string `json:"text"`
}

type jsonSubmatch struct {
	Match jsonText `json:"match"`
	Start int      `json:"start"`
	End   int      `json:"end"`
}

// Parse converts raw process output into a ResultSet, preserving emission
// order. Any non-empty line that fails to decode fails the whole run.
func Parse(raw string) (domain.ResultSet, error) {
	raw = strings.TrimRight(raw, " \t\r\n")
	if raw == "" {
		return domain.ResultSet{}, nil
	}

	var rs domain.ResultSet
	for i, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var ev jsonEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return domain.ResultSet{}, fmt.Errorf("%w: line %d: %v", ErrParse, i+1, err)
		}
		if ev.Type != "match" {
			continue
		}
		if ev.Data.Path.Text == "" {
			// Fail closed instead of propagating a half-formed record
			return domain.ResultSet{}, fmt.Errorf("%w: line %d: match record without path", ErrParse, i+1)
		}

		m := domain.Match{
			Path:           ev.Data.Path.Text,
			Line:           strings.TrimRight(ev.Data.Lines.Text, "\r\n"),
			LineNumber:     ev.Data.LineNumber,
			AbsoluteOffset: ev.Data.AbsoluteOffset,
		}
		for _, sm := range ev.Data.Submatches {
			m.Submatches = append(m.Submatches, domain.Submatch{
				Start: sm.Start,
				End:   sm.End,
				Text:  sm.Match.Text,
			})
		}
		rs.Matches = append(rs.Matches, m)
	}

	return rs, nil
}
