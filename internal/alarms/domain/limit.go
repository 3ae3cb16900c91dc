package alarms

// Direction reports which bound a value crossed.
type Direction string

const (
	DirectionLow  Direction = "low"
	DirectionHigh Direction = "high"
)

// Limit is an optional lower and upper bound. Values equal to a bound are in range.
type Limit struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// OutOfRange reports whether value violates a present bound.
func (l Limit) OutOfRange(value float64) bool {
	return (l.Min != nil && value < *l.Min) || (l.Max != nil && value > *l.Max)
}

// Defined reports whether at least one bound is set.
func (l Limit) Defined() bool {
	return l.Min != nil || l.Max != nil
}

// Ordered reports whether min <= max when both are set.
func (l Limit) Ordered() bool {
	return l.Min == nil || l.Max == nil || *l.Min <= *l.Max
}

// Breach describes a value outside a limit.
type Breach struct {
	Value     float64   `json:"value"`
	Direction Direction `json:"direction"`
	Bound     float64   `json:"bound"`
}

// Evaluate checks value against limit.
func Evaluate(value float64, limit Limit) (Breach, bool) {
	if limit.Min != nil && value < *limit.Min {
		return Breach{Value: value, Direction: DirectionLow, Bound: *limit.Min}, true
	}
	if limit.Max != nil && value > *limit.Max {
		return Breach{Value: value, Direction: DirectionHigh, Bound: *limit.Max}, true
	}
	return Breach{}, false
}
