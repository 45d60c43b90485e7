package encoding

import "ARMTS/internal/domain/models"

// Slot widths per feature kind: value slots followed by one selection slot.
//
//	numerical:    [lo, hi, select]
//	categorical:  [category, select]
//	time-segment: [segment, select]
//
// After all feature blocks come one permutation weight per feature, then the two control
// slots: antecedent/consequent split and global interval selector.
const (
	numericalWidth   = 3
	categoricalWidth = 2
	segmentWidth     = 2
	controlSlots     = 2
)

// Layout maps features to their slot offsets inside an encoded vector.
type Layout struct {
	offsets     []int
	widths      []int
	permutation int
	split       int
	interval    int
	dim         int
}

// NewLayout computes the fixed vector layout for md.
func NewLayout(md *models.Metadata) Layout {
	n := md.Len()
	l := Layout{offsets: make([]int, n), widths: make([]int, n)}
	pos := 0
	for i := 0; i < n; i++ {
		w := SlotWidth(md.At(i).Kind)
		l.offsets[i] = pos
		l.widths[i] = w
		pos += w
	}
	l.permutation = pos
	pos += n
	l.split = pos
	l.interval = pos + 1
	l.dim = pos + controlSlots
	return l
}

// SlotWidth returns the number of value+selection slots a feature of kind k consumes.
func SlotWidth(k models.FeatureKind) int {
	switch k {
	case models.KindNumerical:
		return numericalWidth
	case models.KindCategorical:
		return categoricalWidth
	default:
		return segmentWidth
	}
}

// Dimension returns the vector length.
func (l Layout) Dimension() int { return l.dim }

// Offset returns the first slot of feature i.
func (l Layout) Offset(i int) int { return l.offsets[i] }

// SelectSlot returns the selection slot of feature i.
func (l Layout) SelectSlot(i int) int { return l.offsets[i] + l.widths[i] - 1 }

// PermutationSlot returns the permutation weight slot of feature i.
func (l Layout) PermutationSlot(i int) int { return l.permutation + i }

// SplitSlot returns the antecedent/consequent split control slot.
func (l Layout) SplitSlot() int { return l.split }

// IntervalSlot returns the global interval selector control slot.
func (l Layout) IntervalSlot() int { return l.interval }
