package ripgrep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const matchLine = `{"type":"match","data":{"path":{"text":"/root/a.md"},"lines":{"text":"hello world\n"},"line_number":3,"absolute_offset":42,"submatches":[{"match":{"text":"world"},"start":6,"end":11}]}}`

func TestParseEmptyOutput(t *testing.T) {
	rs, err := Parse("")
	require.NoError(t, err)
	assert.True(t, rs.Empty())

	// Trailing whitespace only is still empty
	rs, err = Parse("\n\n  \n")
	require.NoError(t, err)
	assert.True(t, rs.Empty())
}

func TestParseMatchRecord(t *testing.T) {
	rs, err := Parse(matchLine + "\n")
	require.NoError(t, err)
	require.Len(t, rs.Matches, 1)

	m := rs.Matches[0]
	assert.Equal(t, "/root/a.md", m.Path)
	assert.Equal(t, "hello world", m.Line, "line text should be stripped of its trailing newline")
	assert.Equal(t, 3, m.LineNumber)
	assert.Equal(t, 42, m.AbsoluteOffset)
	require.Len(t, m.Submatches, 1)
	assert.Equal(t, 6, m.Submatches[0].Start)
	assert.Equal(t, 11, m.Submatches[0].End)
	assert.Equal(t, "world", m.Submatches[0].Text)
}

func TestParseDiscardsNonMatchRecords(t *testing.T) {
	raw := `{"type":"begin","data":{"path":{"text":"/root/a.md"}}}` + "\n" +
		matchLine + "\n" +
		`{"type":"end","data":{"path":{"text":"/root/a.md"}}}` + "\n" +
		`{"type":"summary","data":{"elapsed_total":{"secs":0}}}`

	rs, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, rs.Matches, 1)
	assert.Equal(t, "/root/a.md", rs.Matches[0].Path)
}

func TestParsePreservesEmissionOrder(t *testing.T) {
	raw := `{"type":"match","data":{"path":{"text":"/root/b.md"},"lines":{"text":"x"},"line_number":1,"absolute_offset":0,"submatches":[]}}` + "\n" +
		`{"type":"match","data":{"path":{"text":"/root/a.md"},"lines":{"text":"x"},"line_number":9,"absolute_offset":0,"submatches":[]}}`

	rs, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, rs.Matches, 2)
	assert.Equal(t, "/root/b.md", rs.Matches[0].Path)
	assert.Equal(t, "/root/a.md", rs.Matches[1].Path)
}

func TestParseMalformedLineIsFatal(t *testing.T) {
	raw := matchLine + "\n" + "this is not json"

	_, err := Parse(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
}

func TestParseMatchWithoutPathIsFatal(t *testing.T) {
	_, err := Parse(`{"type":"match","data":{}}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
}
