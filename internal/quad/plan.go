package quad

import (
	"fmt"
	"math"
	"strings"
)

// WeightClass says which Simpson pass a span belongs to.
type WeightClass int

const (
	// Odd samples sit at odd grid indices 1, 3, ..., N-1 and carry weight 4.
	Odd WeightClass = iota + 1
	// Even samples sit at interior even indices 2, 4, ..., N-2 and carry weight 2.
	Even
)

// String implements fmt.Stringer.
func (c WeightClass) String() string {
	switch c {
	case Odd:
		return "odd"
	case Even:
		return "even"
	}
	return fmt.Sprintf("WeightClass(%d)", int(c))
}

// Weight returns the Simpson coefficient of the class.
func (c WeightClass) Weight() int {
	switch c {
	case Odd:
		return 4
	case Even:
		return 2
	}
	return 0
}

// Tier is a worker count the planner knows how to decompose for.
type Tier int

const (
	Tier2 Tier = 2
	Tier4 Tier = 4
	Tier6 Tier = 6
)

// TierFor maps a worker count to its tier: up to 2 workers use Tier2,
// 3 to 4 use Tier4, more than 4 use Tier6. Callers resolve "use the host
// CPU count" before calling.
func TierFor(workers int) Tier {
	switch {
	case workers <= 2:
		return Tier2
	case workers <= 4:
		return Tier4
	default:
		return Tier6
	}
}

// Workers returns the number of plan entries (and goroutines) of the tier.
func (t Tier) Workers() int {
	return int(t)
}

// chunks is the number of spans each pass is split into.
func (t Tier) chunks() int {
	return int(t) / 2
}

// Entry is one unit of work: a span and the pass it contributes to.
type Entry struct {
	Span  Span        `json:"span"`
	Class WeightClass `json:"class"`
}

// Plan is an ordered, immutable decomposition of the two Simpson passes.
// Partial results are matched to entries by position.
type Plan struct {
	Tier    Tier
	Panels  int
	entries []Entry
}

// Entries returns a copy of the plan's entries in order.
func (p Plan) Entries() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Len returns the number of entries.
func (p Plan) Len() int {
	return len(p.entries)
}

// At returns entry i.
func (p Plan) At(i int) Entry {
	return p.entries[i]
}

// Strategy decomposes the passes of an n-panel grid into plan entries.
// Strategies are pure: the same n always gives the same entries.
type Strategy func(n int) []Entry

// ReferencePass returns the single span of the given pass over an n-panel
// grid, exactly as the unpartitioned algorithm visits it.
func ReferencePass(n int, class WeightClass) Span {
	switch class {
	case Odd:
		return Span{First: 1, Count: n / 2}
	case Even:
		return Span{First: 2, Count: n/2 - 1}
	}
	return Span{}
}

// StrategyFor returns the decomposition of tier t.
//
// Each pass is cut into t/2 contiguous spans at the fractions j/(t/2) of
// its sample count, which is the domain midpoint (Tier4) or thirds (Tier6)
// snapped onto the pass's own grid points. Cutting by sample index rather
// than by coordinate means the next span always starts exactly 2h after
// the previous one ends.
func StrategyFor(t Tier) Strategy {
	k := t.chunks()
	return func(n int) []Entry {
		entries := make([]Entry, 0, 2*k)
		entries = append(entries, split(ReferencePass(n, Odd), Odd, k)...)
		entries = append(entries, split(ReferencePass(n, Even), Even, k)...)
		return entries
	}
}

func split(ref Span, class WeightClass, k int) []Entry {
	out := make([]Entry, k)
	for j := 0; j < k; j++ {
		start := j * ref.Count / k
		end := (j + 1) * ref.Count / k
		out[j] = Entry{
			Span:  Span{First: ref.First + SpanStride*start, Count: end - start},
			Class: class,
		}
	}
	return out
}

// Request is the immutable description of one integration call.
type Request struct {
	A, B       float64
	Iterations int
	Workers    int
}

// NewPlan validates req and builds its plan.
//
// The domain is checked first: b <= a (or a non-finite bound) is rejected
// before any partitioning. Workers must already be resolved (> 0).
func NewPlan(req Request) (Plan, error) {
	if math.IsNaN(req.A) || math.IsNaN(req.B) || math.IsInf(req.A, 0) || math.IsInf(req.B, 0) {
		return Plan{}, &Error{Code: ErrCodeDomain, Message: fmt.Sprintf("bounds must be finite (a=%g, b=%g)", req.A, req.B)}
	}
	if req.B <= req.A {
		return Plan{}, NewDomainError(req.A, req.B)
	}
	if req.Workers <= 0 {
		return Plan{}, newInvalidArgument("workers must be positive, got %d", req.Workers)
	}
	n, err := Panels(req.Iterations)
	if err != nil {
		return Plan{}, err
	}

	return PlanFor(n, TierFor(req.Workers))
}

// PlanFor builds and verifies the plan of tier t over an n-panel grid.
func PlanFor(n int, t Tier) (Plan, error) {
	if n < 2 || n%2 != 0 {
		return Plan{}, newInvalidArgument("panel count must be a positive even number, got %d", n)
	}
	p := Plan{Tier: t, Panels: n, entries: StrategyFor(t)(n)}
	if err := p.Verify(); err != nil {
		return Plan{}, err
	}
	return p, nil
}

// Verify proves the plan against the reference passes: for each class the
// non-empty spans, in order, start at the reference's first index, follow
// one another with no gap or overlap (next.First == prev.Last + 2), end at
// the reference's last index, and hold the same number of samples.
func (p Plan) Verify() error {
	if len(p.entries) != p.Tier.Workers() {
		return newInvalidArgument("plan has %d entries, tier %d needs %d", len(p.entries), p.Tier, p.Tier.Workers())
	}
	for _, class := range []WeightClass{Odd, Even} {
		if err := p.verifyClass(class); err != nil {
			return err
		}
	}
	return nil
}

func (p Plan) verifyClass(class WeightClass) error {
	ref := ReferencePass(p.Panels, class)
	next := ref.First
	total := 0

	for i, e := range p.entries {
		if e.Class != class {
			continue
		}
		if e.Span.Count < 0 {
			return newInvalidArgument("entry %d: negative count %d", i, e.Span.Count)
		}
		if e.Span.Empty() {
			continue
		}
		if e.Span.First != next {
			return newInvalidArgument("entry %d (%s): starts at index %d, expected %d", i, class, e.Span.First, next)
		}
		next = e.Span.Last() + SpanStride
		total += e.Span.Count
	}

	if total != ref.Count {
		return newInvalidArgument("%s pass covers %d samples, expected %d", class, total, ref.Count)
	}
	if ref.Count > 0 && next-SpanStride != ref.Last() {
		return newInvalidArgument("%s pass ends at index %d, expected %d", class, next-SpanStride, ref.Last())
	}
	return nil
}

// String renders the plan one entry per line.
func (p Plan) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tier=%d panels=%d\n", p.Tier, p.Panels)
	for i, e := range p.entries {
		if e.Span.Empty() {
			fmt.Fprintf(&b, "%d %-4s empty\n", i, e.Class)
			continue
		}
		fmt.Fprintf(&b, "%d %-4s first=%d last=%d count=%d\n", i, e.Class, e.Span.First, e.Span.Last(), e.Span.Count)
	}
	return b.String()
}
