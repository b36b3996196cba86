// File path: internal/kb/loader.go
package kb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rowadtech/mostashar/internal/common"
	"github.com/rowadtech/mostashar/internal/normalize"
)

// Provider supplies raw collection payloads by name. The file provider below
// is the default; tests inject in-memory providers.
type Provider interface {
	Load(ctx context.Context, name string) (*RawCollection, error)
}

// RawCollection mirrors the on-disk payload contract: metadata plus records
// under either "data" or "vectors".
type RawCollection struct {
	Name         string      `json:"name"`
	Version      string      `json:"version"`
	Dimension    int         `json:"dimension"`
	TotalVectors int         `json:"total_vectors"`
	Data         []RawRecord `json:"data"`
	Vectors      []RawRecord `json:"vectors"`
}

// RawRecord accepts every historical record shape: a bare "vector" array or
// nested "embeddings.<model>.<variant>" maps.
type RawRecord struct {
	ID         string                          `json:"id"`
	Database   string                          `json:"database"`
	Original   map[string]interface{}          `json:"original_data"`
	Vector     []float32                       `json:"vector"`
	Embeddings map[string]map[string][]float32 `json:"embeddings"`
}

// FileProvider reads <dir>/<name>.json collection files.
type FileProvider struct {
	dir string
}

func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{dir: strings.TrimSpace(dir)}
}

func (p *FileProvider) Load(ctx context.Context, name string) (*RawCollection, error) {
	if p == nil || p.dir == "" {
		return nil, fmt.Errorf("collection dir not configured")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	path := filepath.Join(p.dir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read collection %s: %w", name, err)
	}
	var raw RawCollection
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode collection %s: %w", name, err)
	}
	if raw.Name == "" {
		raw.Name = name
	}
	return &raw, nil
}

// Build canonicalizes a raw payload into an immutable Collection: one record
// shape, text extracted, keywords indexed, concept index derived.
func Build(raw *RawCollection, name string) (*Collection, error) {
	if raw == nil {
		return nil, fmt.Errorf("collection %s: empty payload", name)
	}
	rawRecords := raw.Data
	if len(rawRecords) == 0 {
		rawRecords = raw.Vectors
	}
	if len(rawRecords) == 0 {
		return nil, fmt.Errorf("collection %s: no records", name)
	}
	collection := &Collection{
		Name:      name,
		Version:   raw.Version,
		Dimension: raw.Dimension,
		Records:   make([]Record, 0, len(rawRecords)),
	}
	for i, rr := range rawRecords {
		record := Record{
			ID:       rr.ID,
			Database: name,
			Original: rr.Original,
		}
		if record.ID == "" {
			record.ID = fmt.Sprintf("%s-%d", name, i)
		}
		record.Embeddings = canonicalEmbeddings(rr)
		record.text = buildText(rr.Original)
		record.keywords = normalize.ExtractKeywords(record.text)
		collection.Records = append(collection.Records, record)
	}
	if collection.Dimension == 0 {
		collection.Dimension = detectDimension(collection.Records)
	}
	collection.buildConceptIndex()
	common.Logger().Info(
		"kb: collection built",
		"collection", name,
		"records", len(collection.Records),
		"usable_vectors", collection.UsableVectors(),
		"dimension", collection.Dimension,
	)
	return collection, nil
}

// canonicalEmbeddings flattens the model nesting: the first model entry wins,
// and a bare vector becomes the "full" variant.
func canonicalEmbeddings(rr RawRecord) map[string][]float32 {
	out := make(map[string][]float32)
	for _, variants := range rr.Embeddings {
		for variant, vec := range variants {
			if len(vec) == 0 {
				continue
			}
			if _, exists := out[variant]; !exists {
				out[variant] = vec
			}
		}
	}
	if len(rr.Vector) > 0 {
		if _, exists := out[VariantFull]; !exists {
			out[VariantFull] = rr.Vector
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func detectDimension(records []Record) int {
	for i := range records {
		for _, vec := range records[i].Embeddings {
			if len(vec) > 0 {
				return len(vec)
			}
		}
	}
	return 0
}

// Validate enforces the initialization contract: every collection must carry
// at least one record with a usable vector.
func Validate(collections map[string]*Collection) error {
	for _, name := range CollectionNames {
		collection, ok := collections[name]
		if !ok || collection.Len() == 0 {
			return fmt.Errorf("collection %s: missing or empty", name)
		}
		if collection.UsableVectors() == 0 {
			return fmt.Errorf("collection %s: no usable vector records", name)
		}
	}
	return nil
}
