package models

import "fmt"

// FeatureKind tags how a column is encoded and matched.
type FeatureKind string

const (
	KindNumerical   FeatureKind = "numerical"
	KindCategorical FeatureKind = "categorical"
	KindTimeSegment FeatureKind = "time-segment"
)

// Feature describes one column of the transaction table. Immutable once loaded.
type Feature struct {
	Name       string      `json:"name"`
	Kind       FeatureKind `json:"kind"`
	Min        float64     `json:"min"`
	Max        float64     `json:"max"`
	Categories []string    `json:"categories,omitempty"`
}

// Metadata is the ordered feature table. Order fixes the vector layout.
type Metadata struct {
	features []Feature
	index    map[string]int
}

// NewMetadata copies the descriptors and validates them.
func NewMetadata(features []Feature) (*Metadata, error) {
	if len(features) < 2 {
		return nil, fmt.Errorf("metadata: need at least 2 features, got %d", len(features))
	}
	m := &Metadata{
		features: make([]Feature, len(features)),
		index:    make(map[string]int, len(features)),
	}
	for i, f := range features {
		if f.Name == "" {
			return nil, fmt.Errorf("metadata: feature %d has empty name", i)
		}
		if _, dup := m.index[f.Name]; dup {
			return nil, fmt.Errorf("metadata: duplicate feature %q", f.Name)
		}
		switch f.Kind {
		case KindNumerical:
			if f.Min > f.Max {
				return nil, fmt.Errorf("metadata: feature %q min %v > max %v", f.Name, f.Min, f.Max)
			}
		case KindCategorical:
			if len(f.Categories) == 0 {
				return nil, fmt.Errorf("metadata: categorical feature %q has no categories", f.Name)
			}
		case KindTimeSegment:
		default:
			return nil, fmt.Errorf("metadata: feature %q has unknown kind %q", f.Name, f.Kind)
		}
		cp := f
		cp.Categories = append([]string(nil), f.Categories...)
		m.features[i] = cp
		m.index[f.Name] = i
	}
	return m, nil
}

// Len returns the number of features.
func (m *Metadata) Len() int { return len(m.features) }

// At returns the i-th descriptor.
func (m *Metadata) At(i int) Feature { return m.features[i] }

// Features returns a copy of the descriptor list.
func (m *Metadata) Features() []Feature {
	out := make([]Feature, len(m.features))
	copy(out, m.features)
	return out
}

// Index returns the column position of a feature by name.
func (m *Metadata) Index(name string) (int, bool) {
	i, ok := m.index[name]
	return i, ok
}

// HasKind reports whether any feature is of kind k.
func (m *Metadata) HasKind(k FeatureKind) bool {
	for _, f := range m.features {
		if f.Kind == k {
			return true
		}
	}
	return false
}
