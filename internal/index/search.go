package index

import (
	"sort"
	"strings"
)

// Match is one search hit.
type Match struct {
	Record Record
	// Score is 2 when every token matched the name, 1 when some token only
	// matched the description.
	Score int
}

// Search matches records by case-insensitive substring over name and
// description. All query tokens must match (AND semantics). Results are
// ordered by score, then name; limit <= 0 means no limit.
func Search(records []Record, query string, limit int) []Match {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return []Match{}
	}

	out := []Match{}
	for _, r := range records {
		name := strings.ToLower(r.Name)
		desc := strings.ToLower(r.Description)
		score := 2
		ok := true
		for _, tok := range tokens {
			if strings.Contains(name, tok) {
				continue
			}
			if !strings.Contains(desc, tok) {
				ok = false
				break
			}
			score = 1
		}
		if ok {
			out = append(out, Match{Record: r, Score: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Record.Name < out[j].Record.Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func tokenize(q string) []string {
	parts := strings.Fields(q)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.ToLower(p))
	}
	return out
}
