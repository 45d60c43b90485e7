// Package archive keeps the distinct rules discovered during a search.
package archive

import (
	"fmt"
	"hash/fnv"
	"iter"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"ARMTS/internal/domain/models"
)

// DefaultEpsilon is the numeric tolerance for range bounds when comparing rules.
const DefaultEpsilon = 1e-6

// Archive is a set of rules keyed by structural identity. Safe for concurrent use;
// Record calls are serialized.
type Archive struct {
	mu      sync.RWMutex
	eps     float64
	entries []*models.ArchiveEntry
	buckets map[string][]int
	subs    map[int]func(models.ArchiveEntry)
	nextSub int
	now     func() time.Time
}

// Option configures an Archive.
type Option func(*Archive)

// WithEpsilon sets the numeric comparison tolerance.
func WithEpsilon(eps float64) Option {
	return func(a *Archive) {
		if eps >= 0 {
			a.eps = eps
		}
	}
}

// WithClock overrides time.Now for Recorded stamps.
func WithClock(now func() time.Time) Option {
	return func(a *Archive) {
		a.now = now
	}
}

// New returns an empty archive.
func New(opts ...Option) *Archive {
	a := &Archive{
		eps:     DefaultEpsilon,
		buckets: make(map[string][]int),
		subs:    make(map[int]func(models.ArchiveEntry)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Record inserts rule or, if a structurally equal rule exists, keeps whichever of the two
// has the higher fitness. changed is true when an entry was inserted or improved.
func (a *Archive) Record(rule *models.Rule, m models.MetricResult, fitness float64, start, end time.Time) (models.ArchiveEntry, bool) {
	if rule == nil || len(rule.Antecedent) == 0 || len(rule.Consequent) == 0 {
		return models.ArchiveEntry{}, false
	}
	sig := signature(rule)

	a.mu.Lock()
	var (
		entry   *models.ArchiveEntry
		changed bool
	)
	for _, idx := range a.buckets[sig] {
		if sameBounds(&a.entries[idx].Rule, rule, a.eps) {
			entry = a.entries[idx]
			break
		}
	}
	switch {
	case entry == nil:
		entry = &models.ArchiveEntry{
			Key:      keyFor(sig, len(a.buckets[sig])),
			Rule:     cloneRule(rule),
			Metrics:  m,
			Fitness:  fitness,
			Start:    start,
			End:      end,
			Hits:     1,
			Recorded: a.now(),
		}
		a.buckets[sig] = append(a.buckets[sig], len(a.entries))
		a.entries = append(a.entries, entry)
		changed = true
	case fitness > entry.Fitness:
		entry.Rule = cloneRule(rule)
		entry.Metrics = m
		entry.Fitness = fitness
		entry.Start = start
		entry.End = end
		entry.Hits++
		entry.Recorded = a.now()
		changed = true
	default:
		entry.Hits++
	}
	out := *entry
	var subs []func(models.ArchiveEntry)
	if changed {
		subs = a.subscribers()
	}
	a.mu.Unlock()

	for _, fn := range subs {
		fn(out)
	}
	return out, changed
}

// Len returns the number of distinct rules.
func (a *Archive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.entries)
}

// Entries yields entries in insertion order. The sequence is lazy and restartable: each
// iteration reads the archive as it is at that moment.
func (a *Archive) Entries() iter.Seq[models.ArchiveEntry] {
	return func(yield func(models.ArchiveEntry) bool) {
		for i := 0; ; i++ {
			a.mu.RLock()
			if i >= len(a.entries) {
				a.mu.RUnlock()
				return
			}
			e := *a.entries[i]
			a.mu.RUnlock()
			if !yield(e) {
				return
			}
		}
	}
}

// Top returns up to n entries by descending fitness; ties keep insertion order. n <= 0
// returns all entries.
func (a *Archive) Top(n int) []models.ArchiveEntry {
	a.mu.RLock()
	out := make([]models.ArchiveEntry, len(a.entries))
	for i, e := range a.entries {
		out[i] = *e
	}
	a.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Fitness > out[j].Fitness })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Best returns the highest-fitness entry.
func (a *Archive) Best() (models.ArchiveEntry, bool) {
	top := a.Top(1)
	if len(top) == 0 {
		return models.ArchiveEntry{}, false
	}
	return top[0], true
}

// Subscribe registers fn to be called after every insert or improvement, outside the
// archive lock. The returned func removes the subscription.
func (a *Archive) Subscribe(fn func(models.ArchiveEntry)) func() {
	a.mu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = fn
	a.mu.Unlock()
	return func() {
		a.mu.Lock()
		delete(a.subs, id)
		a.mu.Unlock()
	}
}

func (a *Archive) subscribers() []func(models.ArchiveEntry) {
	if len(a.subs) == 0 {
		return nil
	}
	ids := make([]int, 0, len(a.subs))
	for id := range a.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(models.ArchiveEntry), len(ids))
	for i, id := range ids {
		out[i] = a.subs[id]
	}
	return out
}

// signature encodes everything compared exactly: which features sit on which side, their
// kinds, and categorical/segment payloads. Numeric bounds are compared with tolerance.
func signature(r *models.Rule) string {
	var b strings.Builder
	writeSide(&b, r.Antecedent)
	b.WriteString("=>")
	writeSide(&b, r.Consequent)
	return b.String()
}

func writeSide(b *strings.Builder, conds []models.Condition) {
	for i, c := range sortedByColumn(conds) {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(strconv.Itoa(c.Column))
		b.WriteByte(':')
		switch p := c.Predicate.(type) {
		case models.NumericRange:
			b.WriteString("n")
		case models.CategoryValue:
			b.WriteString("c=")
			b.WriteString(strconv.Quote(p.Value))
		case models.SegmentIndex:
			b.WriteString("s=")
			b.WriteString(strconv.Itoa(p.Index))
		}
	}
}

func sameBounds(a, b *models.Rule, eps float64) bool {
	return sideBounds(a.Antecedent, b.Antecedent, eps) && sideBounds(a.Consequent, b.Consequent, eps)
}

func sideBounds(x, y []models.Condition, eps float64) bool {
	if len(x) != len(y) {
		return false
	}
	xs, ys := sortedByColumn(x), sortedByColumn(y)
	for i := range xs {
		rx, okx := xs[i].Predicate.(models.NumericRange)
		ry, oky := ys[i].Predicate.(models.NumericRange)
		if okx != oky {
			return false
		}
		if okx && (math.Abs(rx.Lo-ry.Lo) > eps || math.Abs(rx.Hi-ry.Hi) > eps) {
			return false
		}
	}
	return true
}

func sortedByColumn(conds []models.Condition) []models.Condition {
	out := make([]models.Condition, len(conds))
	copy(out, conds)
	sort.Slice(out, func(i, j int) bool { return out[i].Column < out[j].Column })
	return out
}

func keyFor(sig string, n int) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(sig))
	return fmt.Sprintf("%016x-%d", h.Sum64(), n)
}

func cloneRule(r *models.Rule) models.Rule {
	return models.Rule{
		Antecedent: append([]models.Condition(nil), r.Antecedent...),
		Consequent: append([]models.Condition(nil), r.Consequent...),
	}
}
