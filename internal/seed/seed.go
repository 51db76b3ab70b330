// Package seed produces the initial record set for the records store,
// either from a YAML/JSON file or from a deterministic generator.
package seed

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/HerbHall/managedrecords/pkg/models"
	"gopkg.in/yaml.v3"
)

// Colors are the record colors produced by Generate.
var Colors = []string{"red", "brown", "blue", "yellow", "green"}

// DefaultCount is the number of generated records when none is configured.
const DefaultCount = 500

// Generate returns count records with ids 1..count. The same seed always
// yields the same records.
func Generate(count int, seed uint64) []models.Record {
	if count <= 0 {
		return []models.Record{}
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	out := make([]models.Record, count)
	for i := range out {
		disposition := models.DispositionClosed
		if rng.IntN(2) == 0 {
			disposition = models.DispositionOpen
		}
		out[i] = models.Record{
			ID:          int64(i + 1),
			Color:       Colors[rng.IntN(len(Colors))],
			Disposition: disposition,
		}
	}
	return out
}

// fileRecord is the on-disk form of a seed entry. Keys other than id,
// color and disposition are kept as pass-through fields.
type fileRecord map[string]any

// LoadFile reads seed records from a YAML file. JSON files are accepted
// since JSON is valid YAML.
func LoadFile(path string) ([]models.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML or JSON sequence of records.
func Parse(data []byte) ([]models.Record, error) {
	var entries []fileRecord
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	out := make([]models.Record, 0, len(entries))
	for i, e := range entries {
		// Round-trip through JSON so pass-through keys keep their raw form.
		b, err := json.Marshal(map[string]any(e))
		if err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i, err)
		}
		var rec models.Record
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i, err)
		}
		if rec.Color == "" || rec.Disposition == "" {
			return nil, fmt.Errorf("seed entry %d: color and disposition are required", i)
		}
		out = append(out, rec)
	}
	return out, nil
}
