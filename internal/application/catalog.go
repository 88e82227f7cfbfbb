package application

import (
	"fmt"
	"sort"
	"sync"

	"github.com/agnivade/levenshtein"
)

// maxSuggestionDistance bounds how different a known algorithm id may
// be from a typo before we stop suggesting it.
const maxSuggestionDistance = 3

// AlgorithmInfo describes one detection algorithm available to
// workflow authors.
type AlgorithmInfo struct {
	// ID is the stable identifier algorithm nodes reference.
	ID string `yaml:"id" json:"id" validate:"required"`

	// Name is the human-readable algorithm name shown in the editor.
	Name string `yaml:"name" json:"name"`

	// Classes lists the object classes the algorithm can detect.
	Classes []string `yaml:"classes,omitempty" json:"classes,omitempty"`
}

// AlgorithmCatalog resolves the algorithm identifiers referenced by
// algorithm nodes. The graph validator consults it so that a workflow
// pointing at a nonexistent algorithm fails at validation time instead
// of at the first detection call. Safe for concurrent use.
type AlgorithmCatalog struct {
	mu         sync.RWMutex
	algorithms map[string]AlgorithmInfo
}

// NewAlgorithmCatalog creates a catalog holding the given algorithms.
func NewAlgorithmCatalog(infos ...AlgorithmInfo) *AlgorithmCatalog {
	catalog := &AlgorithmCatalog{
		algorithms: make(map[string]AlgorithmInfo, len(infos)),
	}
	for _, info := range infos {
		catalog.algorithms[info.ID] = info
	}
	return catalog
}

// Register adds or replaces an algorithm.
func (c *AlgorithmCatalog) Register(info AlgorithmInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.algorithms[info.ID] = info
}

// IDs returns all known algorithm identifiers in sorted order.
func (c *AlgorithmCatalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.algorithms))
	for id := range c.algorithms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Resolve looks up an algorithm by id. Unknown identifiers produce an
// error that names the closest known id when one is plausibly a typo.
func (c *AlgorithmCatalog) Resolve(id string) (AlgorithmInfo, error) {
	c.mu.RLock()
	info, ok := c.algorithms[id]
	c.mu.RUnlock()
	if ok {
		return info, nil
	}

	if suggestion, found := c.Suggest(id); found {
		return AlgorithmInfo{}, fmt.Errorf("algorithm %q not found, did you mean %q", id, suggestion)
	}
	return AlgorithmInfo{}, fmt.Errorf("algorithm %q not found", id)
}

// Suggest returns the known id nearest to the given one by edit
// distance, when that distance is small enough to be a likely typo.
// Ties prefer the lexicographically smallest id so suggestions are
// deterministic.
func (c *AlgorithmCatalog) Suggest(id string) (string, bool) {
	best := ""
	bestDistance := maxSuggestionDistance + 1
	for _, known := range c.IDs() {
		d := levenshtein.ComputeDistance(id, known)
		if d < bestDistance {
			best, bestDistance = known, d
		}
	}
	return best, bestDistance <= maxSuggestionDistance
}
