package dealership

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

//go:embed inventory.json
var defaultCatalog []byte

// Singular user-facing names map to the catalog's category keys.
var typeAliases = map[string]string{
	"sedan":     "sedans",
	"suv":       "suvs",
	"hatchback": "hatchbacks",
	"electric":  "electric",
	"luxury":    "luxury",
}

// MemoryInventory implements Inventory over an in-memory catalog.
// The catalog is immutable after construction.
type MemoryInventory struct {
	mu         sync.RWMutex
	categories map[string][]Car
}

// NewInventory creates an inventory from the embedded default catalog.
func NewInventory() (*MemoryInventory, error) {
	return newInventoryFromJSON(defaultCatalog)
}

// LoadInventory creates an inventory from a catalog file on disk.
func LoadInventory(path string) (*MemoryInventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dealership: read catalog: %w", err)
	}
	return newInventoryFromJSON(data)
}

func newInventoryFromJSON(data []byte) (*MemoryInventory, error) {
	var categories map[string][]Car
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("dealership: parse catalog: %w", err)
	}
	return &MemoryInventory{categories: categories}, nil
}

// CarsByType returns all cars of a category.
func (m *MemoryInventory) CarsByType(carType string) ([]Car, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := strings.ToLower(strings.TrimSpace(carType))
	if mapped, ok := typeAliases[key]; ok {
		key = mapped
	}

	cars, ok := m.categories[key]
	if !ok {
		return nil, fmt.Errorf("%w: car type %q", ErrNotFound, carType)
	}
	out := make([]Car, len(cars))
	copy(out, cars)
	return out, nil
}

// CarByModel finds a car by case-insensitive substring model match.
func (m *MemoryInventory) CarByModel(name string) (Car, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return Car{}, fmt.Errorf("%w: empty model name", ErrNotFound)
	}

	for _, cars := range m.categories {
		for _, car := range cars {
			if strings.Contains(strings.ToLower(car.Model), needle) {
				return car, nil
			}
		}
	}
	return Car{}, fmt.Errorf("%w: model %q", ErrNotFound, name)
}

// Available returns every car that is in stock, sorted by model name.
func (m *MemoryInventory) Available() []Car {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Car
	for _, cars := range m.categories {
		for _, car := range cars {
			if car.InStock() {
				out = append(out, car)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out
}

// Types lists the known categories, sorted.
func (m *MemoryInventory) Types() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.categories))
	for k := range m.categories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
