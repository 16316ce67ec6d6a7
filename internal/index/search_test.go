package index

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

var searchRecords = []Record{
	{Name: "jq-tools", Description: "Helpers around JSON"},
	{Name: "json-fmt", Description: "Pretty print files"},
	{Name: "mkvenv", Description: "Create a python virtualenv"},
}

func names(ms []Match) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Record.Name
	}
	return out
}

func TestSearch_NameBeforeDescription(t *testing.T) {
	got := Search(searchRecords, "JSON", 0)
	assert.Equal(t, []string{"json-fmt", "jq-tools"}, names(got))
	assert.Equal(t, 2, got[0].Score)
	assert.Equal(t, 1, got[1].Score)
}

func TestSearch_AllTokensMustMatch(t *testing.T) {
	assert.Equal(t, []string{"mkvenv"}, names(Search(searchRecords, "python venv", 0)))
	assert.Empty(t, Search(searchRecords, "python json", 0))
}

func TestSearch_EmptyQueryAndLimit(t *testing.T) {
	assert.Empty(t, Search(searchRecords, "   ", 0))
	assert.Len(t, Search(searchRecords, "e", 2), 2)
}

func TestSearch_ResultsContainEveryToken(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		records := rapid.SliceOfN(rapid.Custom(func(t *rapid.T) Record { return genRecord(t, "r") }), 0, 15).Draw(t, "records")
		query := rapid.StringMatching(`[a-e]{1,2}( [a-e]{1,2})?`).Draw(t, "query")

		for _, m := range Search(records, query, 0) {
			blob := strings.ToLower(m.Record.Name + "\n" + m.Record.Description)
			for _, tok := range strings.Fields(query) {
				if !strings.Contains(blob, tok) {
					t.Fatalf("%+v matched %q without token %q", m.Record, query, tok)
				}
			}
		}
	})
}
