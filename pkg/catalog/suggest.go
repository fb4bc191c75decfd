package catalog

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

// Names below this similarity are never suggested
const minSimilarity = 0.7

type match struct {
	name  string
	score float32
}

// Suggest returns up to n catalog names which look like name
func (c *Catalog) Suggest(name string, n int) []string {
	query := strings.ToLower(strings.TrimSuffix(Normalise(name), Extension))

	matches := make([]match, 0)
	for _, f := range c.List() {
		score, err := edlib.StringsSimilarity(query, strings.ToLower(f.Title()), edlib.JaroWinkler)
		if err != nil || score < minSimilarity {
			continue
		}
		matches = append(matches, match{name: f.Name, score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > n {
		matches = matches[:n]
	}

	names := make([]string, len(matches))
	for i := range matches {
		names[i] = matches[i].name
	}
	return names
}
