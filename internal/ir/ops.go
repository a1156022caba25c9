package ir

import (
	"cmp"
	"math"
	"slices"
)

// Apply evaluates a op b. ok is false when a division-family operator has a
// zero divisor.
func (op ArithOp) Apply(a, b float64) (v float64, ok bool) {
	switch op {
	case Add:
		return a + b, true
	case Subtract:
		return a - b, true
	case Multiply:
		return a * b, true
	}
	if b == 0 {
		return 0, false
	}
	switch op {
	case Divide:
		return a / b, true
	case IntDivide:
		return math.Floor(a / b), true
	default:
		return math.Mod(a, b), true
	}
}

// Apply reduces vals. ok is false for Max and Min of an empty list. The
// average of an empty list is 0.
func (fn AggregateFn) Apply(vals []float64) (v float64, ok bool) {
	switch fn {
	case Max:
		if len(vals) == 0 {
			return 0, false
		}
		return slices.Max(vals), true
	case Min:
		if len(vals) == 0 {
			return 0, false
		}
		return slices.Min(vals), true
	case Sum:
		return sum(vals), true
	case Avg:
		if len(vals) == 0 {
			return 0, true
		}
		return sum(vals) / float64(len(vals)), true
	default:
		return float64(len(vals)), true
	}
}

func sum(vals []float64) float64 {
	var total float64
	for _, v := range vals {
		total += v
	}
	return total
}

// Apply maps or sorts vals into a new slice.
func (fn ListFn) Apply(vals []float64) []float64 {
	out := slices.Clone(vals)
	if out == nil {
		out = []float64{}
	}
	switch fn {
	case Sort:
		slices.Sort(out)
	case SortDesc:
		slices.SortFunc(out, func(a, b float64) int { return cmp.Compare(b, a) })
	default:
		elem := NumberFn(fn) // ListFloor..ListAbs share order with Floor..Abs
		for i, v := range out {
			out[i] = elem.Apply(v)
		}
	}
	return out
}

// PickOrdered keeps the k largest (highest) or smallest values of vals in
// their original order. k is truncated toward zero; a negative k keeps
// nothing. Ties keep the earlier element.
func PickOrdered(vals []float64, k float64, highest bool) []float64 {
	if k < 0 || math.IsNaN(k) {
		return []float64{}
	}
	if k >= float64(len(vals)) {
		return append([]float64{}, vals...)
	}
	n := int(k)

	idx := make([]int, len(vals))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		if highest {
			return cmp.Compare(vals[b], vals[a])
		}
		return cmp.Compare(vals[a], vals[b])
	})
	idx = idx[:n]
	slices.Sort(idx)

	out := make([]float64, n)
	for i, j := range idx {
		out[i] = vals[j]
	}
	return out
}

// FilterValues keeps the values satisfying op against target.
func FilterValues(vals []float64, op CompareOp, target float64) []float64 {
	out := []float64{}
	for _, v := range vals {
		if op.Compare(v, target) {
			out = append(out, v)
		}
	}
	return out
}
