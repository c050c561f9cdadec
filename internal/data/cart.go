package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CartKind toggles retention for one cart type.
type CartKind struct {
	Kind   string `yaml:"kind"`
	Retain bool   `yaml:"retain"`
}

// CartSpawn places a simulated cart. It rolls with its velocity for Ticks
// ticks and then stops; Ticks <= 0 rolls forever.
type CartSpawn struct {
	ID    string  `yaml:"id"`
	Kind  string  `yaml:"kind"`
	X     float64 `yaml:"x"`
	Z     float64 `yaml:"z"`
	VX    float64 `yaml:"vx"`
	VZ    float64 `yaml:"vz"`
	Ticks int64   `yaml:"ticks"`
}

// WorldSpawn lists the carts of one world.
type WorldSpawn struct {
	ID    string      `yaml:"id"`
	Carts []CartSpawn `yaml:"carts"`
}

type cartListFile struct {
	Kinds  []CartKind   `yaml:"kinds"`
	Worlds []WorldSpawn `yaml:"worlds"`
}

// CartTable holds the per-kind retention toggles and simulated spawns.
type CartTable struct {
	kinds  map[string]bool
	worlds []WorldSpawn
}

// Retains reports whether carts of kind may hold regions. Unknown kinds never do.
func (t *CartTable) Retains(kind string) bool {
	return t.kinds[kind]
}

// Worlds returns the configured worlds in file order.
func (t *CartTable) Worlds() []WorldSpawn {
	return t.worlds
}

// Count returns the number of spawned carts across all worlds.
func (t *CartTable) Count() int {
	n := 0
	for _, w := range t.worlds {
		n += len(w.Carts)
	}
	return n
}

// LoadCartTable loads cart kinds and spawns from a YAML file.
func LoadCartTable(path string) (*CartTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cart_list: %w", err)
	}
	var f cartListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse cart_list: %w", err)
	}
	t := &CartTable{kinds: make(map[string]bool, len(f.Kinds))}
	for _, k := range f.Kinds {
		t.kinds[k.Kind] = k.Retain
	}
	seen := make(map[string]bool)
	for _, w := range f.Worlds {
		if w.ID == "" {
			return nil, fmt.Errorf("cart_list: world without id")
		}
		if seen[w.ID] {
			return nil, fmt.Errorf("cart_list: duplicate world %q", w.ID)
		}
		seen[w.ID] = true
	}
	t.worlds = f.Worlds
	return t, nil
}
