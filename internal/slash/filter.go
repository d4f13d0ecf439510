package slash

import (
	"sort"
	"strings"
	"unicode"
)

// Result is a matched command with its score.
type Result struct {
	Command *Command
	Score   int
	// Matches holds byte indices of matched characters in the label; empty
	// when the match came from another field.
	Matches []int
}

// Filter ranks commands against a query with fuzzy matching.
type Filter struct {
	// MinScore drops weaker matches.
	MinScore int
}

// NewFilter creates a filter with default settings.
func NewFilter() *Filter {
	return &Filter{}
}

// Search returns the commands matching query, best first. An empty query
// returns every command in registration order.
func (f *Filter) Search(commands []*Command, query string, limit int) []Result {
	if query == "" {
		results := make([]Result, 0, len(commands))
		for _, cmd := range commands {
			results = append(results, Result{Command: cmd})
		}
		if limit > 0 && len(results) > limit {
			results = results[:limit]
		}
		return results
	}

	query = strings.ToLower(query)
	results := make([]Result, 0, len(commands))
	for _, cmd := range commands {
		score, matches := f.matchCommand(query, cmd)
		if score > f.MinScore {
			results = append(results, Result{Command: cmd, Score: score, Matches: matches})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// matchCommand scores the label first, then keywords, then the
// description.
func (f *Filter) matchCommand(query string, cmd *Command) (int, []int) {
	if score, matches := f.fuzzyMatch(query, cmd.Label); score > 0 {
		return score + 50, matches
	}

	best := 0
	for _, kw := range cmd.Keywords {
		if score, _ := f.fuzzyMatch(query, kw); score > best {
			best = score
		}
	}
	if best > 0 {
		return best + 25, nil
	}

	if score, _ := f.fuzzyMatch(query, cmd.Description); score > 0 {
		return score, nil
	}
	return 0, nil
}

// fuzzyMatch requires every query byte to appear in order.
func (f *Filter) fuzzyMatch(query, text string) (int, []int) {
	if text == "" {
		return 0, nil
	}

	textLower := strings.ToLower(text)
	matches := make([]int, 0, len(query))
	queryIdx := 0

	for i := 0; i < len(textLower) && queryIdx < len(query); i++ {
		if textLower[i] == query[queryIdx] {
			matches = append(matches, i)
			queryIdx++
		}
	}

	if queryIdx != len(query) {
		return 0, nil
	}
	return f.calculateScore(query, text, textLower, matches), matches
}

func (f *Filter) calculateScore(query, text, textLower string, matches []int) int {
	if len(matches) == 0 {
		return 0
	}

	score := 100

	// Consecutive runs
	for i := 1; i < len(matches); i++ {
		if matches[i] == matches[i-1]+1 {
			score += 20
		}
	}

	for _, idx := range matches {
		if isWordBoundary(text, idx) {
			score += 15
		}
	}

	if matches[0] == 0 {
		score += 25
	}

	if len(matches) > 1 {
		if gap := matches[len(matches)-1] - matches[0] - len(matches) + 1; gap > 0 {
			score -= gap * 2
		}
	}
	score -= matches[0]

	if len(text) < 20 {
		score += 20 - len(text)
	}
	if strings.HasPrefix(textLower, query) {
		score += 50
	}

	if score < 1 {
		score = 1
	}
	return score
}

func isWordBoundary(text string, idx int) bool {
	if idx == 0 {
		return true
	}
	if idx >= len(text) {
		return false
	}
	prev, curr := rune(text[idx-1]), rune(text[idx])
	switch prev {
	case ' ', '-', '_', '/', '.', ':':
		return true
	}
	return unicode.IsLower(prev) && unicode.IsUpper(curr)
}
