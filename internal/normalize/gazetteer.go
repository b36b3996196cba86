// File path: internal/normalize/gazetteer.go
package normalize

import (
	"regexp"
	"strings"
	"sync"
)

// Entities holds everything the extractor recognized in a query.
type Entities struct {
	Numbers      []string `json:"numbers,omitempty"`
	Governorates []string `json:"governorates,omitempty"`
	Locations    []string `json:"locations,omitempty"`
	Activities   []string `json:"activities,omitempty"`
	Authorities  []string `json:"authorities,omitempty"`
	Sectors      []string `json:"sectors,omitempty"`
}

// Count reports how many distinct entity categories are populated.
func (e Entities) Count() int {
	count := 0
	for _, group := range [][]string{
		e.Numbers, e.Governorates, e.Locations, e.Activities, e.Authorities, e.Sectors,
	} {
		if len(group) > 0 {
			count++
		}
	}
	return count
}

// Total reports the number of extracted entities across all categories.
func (e Entities) Total() int {
	return len(e.Numbers) + len(e.Governorates) + len(e.Locations) +
		len(e.Activities) + len(e.Authorities) + len(e.Sectors)
}

// Gazetteer carries the fixed word lists the extractor and the intent
// classifier match against. All entries are stored in normalized orthography.
type Gazetteer struct {
	Governorates     []string
	Activities       []string
	ActivityTriggers []string
	LocationMarkers  []string
	AuthorityMarkers []string
}

var (
	defaultGazetteerOnce sync.Once
	defaultGazetteer     *Gazetteer
)

// DefaultGazetteer normalizes the canonical tables once and reuses them.
func DefaultGazetteer() *Gazetteer {
	defaultGazetteerOnce.Do(func() {
		defaultGazetteer = &Gazetteer{
			Governorates:     normalizeAll(governorateNames),
			Activities:       normalizeAll(activityNames),
			ActivityTriggers: normalizeAll(activityTriggers),
			LocationMarkers:  normalizeAll(locationMarkers),
			AuthorityMarkers: normalizeAll(authorityMarkers),
		}
	})
	return defaultGazetteer
}

func normalizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if normalized := ForEmbedding(v); normalized != "" {
			out = append(out, normalized)
		}
	}
	return out
}

var (
	numberPattern = regexp.MustCompile(`[0-9]+`)
	sectorPattern = regexp.MustCompile(`قطاع\s+(\S+)`)
)

// ExtractEntities detects numbers, governorates, locations, activities,
// authorities, and sectors in the text using the default gazetteer.
func ExtractEntities(text string) Entities {
	return DefaultGazetteer().Extract(text)
}

// Extract runs entity detection against this gazetteer. Input may be raw or
// already normalized; it is normalized again (idempotent) before matching.
func (g *Gazetteer) Extract(text string) Entities {
	normalized := ForEmbedding(text)
	if normalized == "" {
		return Entities{}
	}
	padded := " " + normalized + " "
	var entities Entities

	entities.Numbers = dedupe(numberPattern.FindAllString(normalized, -1))

	for _, gov := range g.Governorates {
		if strings.Contains(padded, " "+gov+" ") {
			entities.Governorates = append(entities.Governorates, gov)
		}
	}
	for _, act := range g.Activities {
		if strings.Contains(padded, " "+act+" ") {
			entities.Activities = append(entities.Activities, act)
		}
	}

	words := strings.Fields(normalized)
	for i, w := range words {
		if i+1 >= len(words) {
			break
		}
		next := words[i+1]
		if contains(g.LocationMarkers, w) {
			entities.Locations = append(entities.Locations, next)
		}
		if contains(g.AuthorityMarkers, w) {
			entities.Authorities = append(entities.Authorities, w+" "+next)
		}
		if contains(g.ActivityTriggers, w) && !contains(entities.Activities, next) {
			entities.Activities = append(entities.Activities, next)
		}
	}

	for _, match := range sectorPattern.FindAllStringSubmatch(normalized, -1) {
		if len(match) > 1 {
			entities.Sectors = append(entities.Sectors, match[1])
		}
	}

	entities.Governorates = dedupe(entities.Governorates)
	entities.Locations = dedupe(entities.Locations)
	entities.Activities = dedupe(entities.Activities)
	entities.Authorities = dedupe(entities.Authorities)
	entities.Sectors = dedupe(entities.Sectors)
	return entities
}

func contains(values []string, needle string) bool {
	for _, v := range values {
		if v == needle {
			return true
		}
	}
	return false
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
