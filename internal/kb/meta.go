// File path: internal/kb/meta.go
package kb

import (
	"sort"

	"github.com/rowadtech/mostashar/internal/normalize"
)

// MetaIndex holds the distinct entity values observed across all loaded
// records. The intent classifier is seeded with it and the store persists it
// for export.
type MetaIndex struct {
	Governorates []string `json:"governorates"`
	Locations    []string `json:"locations"`
	Activities   []string `json:"activities"`
	Authorities  []string `json:"authorities"`
}

// BuildMetaIndex scans every record's text with the gazetteer and collects
// the distinct hits per category.
func BuildMetaIndex(collections map[string]*Collection, gazetteer *normalize.Gazetteer) MetaIndex {
	if gazetteer == nil {
		gazetteer = normalize.DefaultGazetteer()
	}
	govs := make(map[string]struct{})
	locs := make(map[string]struct{})
	acts := make(map[string]struct{})
	auths := make(map[string]struct{})
	for _, collection := range collections {
		if collection == nil {
			continue
		}
		for i := range collection.Records {
			entities := gazetteer.Extract(collection.Records[i].text)
			addAll(govs, entities.Governorates)
			addAll(locs, entities.Locations)
			addAll(acts, entities.Activities)
			addAll(auths, entities.Authorities)
		}
	}
	return MetaIndex{
		Governorates: sortedKeys(govs),
		Locations:    sortedKeys(locs),
		Activities:   sortedKeys(acts),
		Authorities:  sortedKeys(auths),
	}
}

func addAll(set map[string]struct{}, values []string) {
	for _, v := range values {
		set[v] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
