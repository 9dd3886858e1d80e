package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/emilianohg/carbontrack/internal/models"
)

//go:embed seed/factors.yaml
var defaultSeed []byte

type seedEntry struct {
	Factor    float64  `yaml:"factor"`
	Unit      string   `yaml:"unit"`
	Price     *float64 `yaml:"price"`
	PriceUnit string   `yaml:"price_unit"`
}

// seedFile mirrors the layout scope -> type -> category -> factor.
type seedFile struct {
	Org    map[string]map[string]seedEntry `yaml:"org"`
	Worker map[string]map[string]seedEntry `yaml:"worker"`
}

// LoadSeed parses a YAML seed document into factors.
func LoadSeed(r io.Reader) ([]models.EmissionFactor, error) {
	var doc seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	var factors []models.EmissionFactor
	for _, part := range []struct {
		scope models.Scope
		types map[string]map[string]seedEntry
	}{
		{models.ScopeOrg, doc.Org},
		{models.ScopeWorker, doc.Worker},
	} {
		for _, factorType := range sortedKeys(part.types) {
			categories := part.types[factorType]
			for _, category := range sortedKeys(categories) {
				e := categories[category]
				if e.Unit == "" {
					return nil, fmt.Errorf("seed %s/%s/%s: unit is required", part.scope, factorType, category)
				}
				if e.Factor < 0 {
					return nil, fmt.Errorf("seed %s/%s/%s: factor must not be negative", part.scope, factorType, category)
				}
				factors = append(factors, models.EmissionFactor{
					Type:           factorType,
					Category:       category,
					Scope:          part.scope,
					EmissionFactor: e.Factor,
					Unit:           e.Unit,
					Price:          e.Price,
					PriceUnit:      e.PriceUnit,
				})
			}
		}
	}
	return factors, nil
}

// DefaultSeed returns the factors bundled with the binary.
func DefaultSeed() ([]models.EmissionFactor, error) {
	return LoadSeed(bytes.NewReader(defaultSeed))
}

// SeedFromFile reads path, or the bundled seed when path is empty.
func SeedFromFile(path string) ([]models.EmissionFactor, error) {
	if path == "" {
		return DefaultSeed()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadSeed(f)
}

// Upserter writes factors to the data store.
type Upserter interface {
	Upsert(ctx context.Context, f models.EmissionFactor) error
}

func Seed(ctx context.Context, dst Upserter, factors []models.EmissionFactor) error {
	if _, err := New(factors); err != nil {
		return err
	}
	for _, f := range factors {
		if err := dst.Upsert(ctx, f); err != nil {
			return fmt.Errorf("seed %s/%s/%s: %w", f.Scope, f.Type, f.Category, err)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
