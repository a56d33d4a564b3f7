package analysis

import (
	"sort"

	"invoice-dashboard/internal/models"
)

// counter counts labels and remembers the order they were first seen in,
// which breaks ties when sorting.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(label string) {
	if _, ok := c.counts[label]; !ok {
		c.order = append(c.order, label)
	}
	c.counts[label]++
}

func (c *counter) len() int {
	return len(c.order)
}

// ranked returns the entries sorted by descending count
func (c *counter) ranked() []models.AnalysisEntry {
	out := make([]models.AnalysisEntry, len(c.order))
	for i, label := range c.order {
		out[i] = models.AnalysisEntry{Label: label, Count: c.counts[label]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func (c *counter) rankedKeys() []models.KeyTotal {
	ranked := c.ranked()
	out := make([]models.KeyTotal, len(ranked))
	for i, e := range ranked {
		out[i] = models.KeyTotal{Key: e.Label, Total: e.Count}
	}
	return out
}

// Top returns at most n leading entries. n < 0 keeps everything.
func Top[T any](ranked []T, n int) []T {
	return Window(ranked, 0, n)
}

// Window returns a copy of ranks [from, to) of ranked, clamped to its
// bounds. to < 0 means the end. The input is never modified.
func Window[T any](ranked []T, from, to int) []T {
	if to < 0 || to > len(ranked) {
		to = len(ranked)
	}
	if from < 0 {
		from = 0
	}
	if from >= to {
		return []T{}
	}
	out := make([]T, to-from)
	copy(out, ranked[from:to])
	return out
}
