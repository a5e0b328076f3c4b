package catalog

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/bnema/gw2ctl/internal/addons"
)

// SearchResult is a catalog addon matching a search query
type SearchResult struct {
	Addon addons.Addon
	Score int // Higher is better
}

// searchable wraps addons for fuzzy searching
type searchable []addons.Addon

func (s searchable) String(i int) string {
	addon := s[i]
	parts := []string{addon.Nickname, addon.AddonName}
	if addon.Developer != "" {
		parts = append(parts, addon.Developer)
	}
	if addon.Description != "" {
		parts = append(parts, addon.Description)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func (s searchable) Len() int {
	return len(s)
}

// Search fuzzy-matches query against nickname, display name, developer and description
func (c *Catalog) Search(query string) []SearchResult {
	all := searchable(c.Addons())
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		results := make([]SearchResult, 0, len(all))
		for _, addon := range all {
			results = append(results, SearchResult{Addon: addon})
		}
		return results
	}

	matches := fuzzy.FindFrom(query, all)
	results := make([]SearchResult, 0, len(matches))
	for _, match := range matches {
		results = append(results, SearchResult{Addon: all[match.Index], Score: match.Score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}
