package ags

import (
	"math"
	"sort"
	"sync"
)

// AccelerationPoint is a single (time, value) point on an automation curve
// (spec §3). The value pair is immutable once constructed; only the
// selection flag mutates in place.
type AccelerationPoint struct {
	X        uint
	Y        float64
	Selected bool
}

// TimestampMode distinguishes whether an Automation's timestamp is a wall
// clock (unix) value or a sample offset (spec §3).
type TimestampMode int

const (
	TimestampUnix TimestampMode = iota
	TimestampOffset
)

// Timestamp is the timestamp attribute of an Automation entity.
type Timestamp struct {
	Mode  TimestampMode
	Value uint64
}

// PortValueKind is the type GetValue translates a matching y into (spec
// §4.6 step 4).
type PortValueKind int

const (
	PortValueFloat PortValueKind = iota
	PortValueDouble
	PortValueBool
	PortValueInt64
	PortValueUint64
	PortValuePointer
)

// Value is the tagged union GetValue returns.
type Value struct {
	Kind   PortValueKind
	Float  float32
	Double float64
	Bool   bool
	Int64  int64
	Uint64 uint64
}

// NoMatch is returned as the match position when GetValue finds nothing,
// matching the original's UINT_MAX sentinel (spec §4.6 step 4).
const NoMatch = ^uint(0)

// Automation owns one port's control curve (spec §3, §4.6).
type Automation struct {
	mu sync.Mutex

	Timestamp   Timestamp
	ChannelType string
	Line        int
	ControlName string

	Steps        int
	Lower, Upper float64
	DefaultValue float64

	ValueKind PortValueKind

	points    []*AccelerationPoint
	selection []*AccelerationPoint
}

// NewAutomation constructs an Automation with steps defaulted to
// DefaultPrecision (spec §3 invariant: "else DEFAULT_PRECISION").
func NewAutomation(channelType string, line int, controlName string, lower, upper float64, kind PortValueKind) *Automation {
	return &Automation{
		ChannelType: channelType,
		Line:        line,
		ControlName: controlName,
		Steps:       DefaultPrecision,
		Lower:       lower,
		Upper:       upper,
		ValueKind:   kind,
	}
}

// SetToggled sets steps to 1, the invariant for toggled ports (spec §3).
func (a *Automation) SetToggled() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ValueKind = PortValueBool
	a.Steps = 1
}

// SetIntegerSteps sets steps to the plugin-declared scale_steps for integer
// ports (spec §3).
func (a *Automation) SetIntegerSteps(scaleSteps int) {
	a.SetSteps(scaleSteps)
}

// SetSteps sets the step count directly, for callers recomputing a port's
// scale at runtime (original_source/ags_automation.c's per-line steps
// recomputation, supplemented per SPEC_FULL.md §4).
func (a *Automation) SetSteps(steps int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Steps = steps
}

// SetInfiniteRange forces steps to MaximumSteps, the invariant for a port
// exposed as "infinite range" (spec §3).
func (a *Automation) SetInfiniteRange() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Steps = MaximumSteps
}

func pointLess(a, b *AccelerationPoint) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

// targetLocked returns the points or selection slice named by useSelection.
func (a *Automation) targetLocked(useSelection bool) *[]*AccelerationPoint {
	if useSelection {
		return &a.selection
	}
	return &a.points
}

// AddPoint inserts acc into the target list (points, or selection if
// useSelection), overwriting an existing point at the same x in place, or
// else inserting in (x, then y) sorted order (spec §3 invariant, §4.6
// add_point). NOTE: the points list is sorted by (x, then y) per the
// Automation entity invariant in spec §3; the comparator
// "(offset-ts, line, control_name)" named alongside add_point in spec §4.6
// describes how a *list of Automation objects* is ordered for
// FindNearTimestamp, not how one Automation's own point list is ordered --
// see DESIGN.md.
func (a *Automation) AddPoint(acc *AccelerationPoint, useSelection bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	list := a.targetLocked(useSelection)
	idx := sort.Search(len(*list), func(i int) bool { return (*list)[i].X >= acc.X })

	if idx < len(*list) && (*list)[idx].X == acc.X {
		(*list)[idx].Y = acc.Y
		return
	}

	// Insert preserving (x, then y) order.
	insertAt := sort.Search(len(*list), func(i int) bool { return pointLess(acc, (*list)[i]) })
	*list = append(*list, nil)
	copy((*list)[insertAt+1:], (*list)[insertAt:])
	(*list)[insertAt] = acc
}

// RemovePoint removes and drops one reference to acc from the target list
// (spec §4.6 remove_point).
func (a *Automation) RemovePoint(acc *AccelerationPoint, useSelection bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	list := a.targetLocked(useSelection)
	for i, p := range *list {
		if p == acc {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return
		}
	}
}

// RemovePointAtPosition removes the unique point in the main list whose x
// equals x and whose y lies within ±(upper-lower)/MAXIMUM_STEPS of y,
// returning true on success (spec §4.6 remove_point_at_position).
func (a *Automation) RemovePointAtPosition(x uint, y float64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	tolerance := math.Abs(a.Upper-a.Lower) / MaximumSteps

	idx := sort.Search(len(a.points), func(i int) bool { return a.points[i].X >= x })
	for i := idx; i < len(a.points) && a.points[i].X == x; i++ {
		if math.Abs(a.points[i].Y-y) <= tolerance {
			a.points = append(a.points[:i], a.points[i+1:]...)
			return true
		}
	}
	return false
}

// FindPoint returns the first point with the given x from the target list
// (spec §4.6 find_point). y is not used in the match.
func (a *Automation) FindPoint(x uint, y float64, useSelection bool) (*AccelerationPoint, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	list := *a.targetLocked(useSelection)
	idx := sort.Search(len(list), func(i int) bool { return list[i].X >= x })
	if idx < len(list) && list[idx].X == x {
		return list[idx], true
	}
	return nil, false
}

// FindRegion returns the points with x in [x0, x1] and y in [y0, y1),
// bounds normalized so x0 <= x1 and y0 <= y1 (spec §4.6 find_region).
func (a *Automation) FindRegion(x0, y0, x1, y1 float64, useSelection bool) []*AccelerationPoint {
	a.mu.Lock()
	defer a.mu.Unlock()

	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}

	list := *a.targetLocked(useSelection)
	var out []*AccelerationPoint
	for _, p := range list {
		fx := float64(p.X)
		if fx >= x0 && fx <= x1 && p.Y >= y0 && p.Y < y1 {
			out = append(out, p)
		}
	}
	return out
}

// AddPointToSelection marks the point at (x, y) selected, per FindPoint's
// matching rule.
func (a *Automation) AddPointToSelection(x uint, y float64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	idx := sort.Search(len(a.points), func(i int) bool { return a.points[i].X >= x })
	if idx >= len(a.points) || a.points[idx].X != x {
		return false
	}
	p := a.points[idx]
	p.Selected = true
	a.insertSelectionLocked(p)
	return true
}

func (a *Automation) insertSelectionLocked(p *AccelerationPoint) {
	for _, s := range a.selection {
		if s == p {
			return
		}
	}
	insertAt := sort.Search(len(a.selection), func(i int) bool { return pointLess(p, a.selection[i]) })
	a.selection = append(a.selection, nil)
	copy(a.selection[insertAt+1:], a.selection[insertAt:])
	a.selection[insertAt] = p
}

// RemovePointFromSelection clears the selected flag and drops the point
// from the selection list.
func (a *Automation) RemovePointFromSelection(x uint, y float64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, p := range a.selection {
		if p.X == x {
			p.Selected = false
			a.selection = append(a.selection[:i], a.selection[i+1:]...)
			return true
		}
	}
	return false
}

// AddRegionToSelection selects every point within the normalized region.
func (a *Automation) AddRegionToSelection(x0, y0, x1, y1 float64) {
	a.mu.Lock()
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for _, p := range a.points {
		fx := float64(p.X)
		if fx >= x0 && fx <= x1 && p.Y >= y0 && p.Y < y1 {
			p.Selected = true
			a.insertSelectionLocked(p)
		}
	}
	a.mu.Unlock()
}

// RemoveRegionFromSelection deselects every point within the normalized
// region.
func (a *Automation) RemoveRegionFromSelection(x0, y0, x1, y1 float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}

	kept := a.selection[:0]
	for _, p := range a.selection {
		fx := float64(p.X)
		if fx >= x0 && fx <= x1 && p.Y >= y0 && p.Y < y1 {
			p.Selected = false
			continue
		}
		kept = append(kept, p)
	}
	a.selection = kept
}

// AddAllToSelection selects every point in the main list.
func (a *Automation) AddAllToSelection() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.selection = a.selection[:0]
	for _, p := range a.points {
		p.Selected = true
		a.selection = append(a.selection, p)
	}
}

// FreeSelection deselects and clears the selection list.
func (a *Automation) FreeSelection() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range a.selection {
		p.Selected = false
	}
	a.selection = nil
}

// IsSelected reports whether p is currently selected.
func (a *Automation) IsSelected(p *AccelerationPoint) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return p.Selected
}

// Points returns a snapshot copy of the main point list.
func (a *Automation) Points() []*AccelerationPoint {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*AccelerationPoint, len(a.points))
	copy(out, a.points)
	return out
}

// Selection returns a snapshot copy of the selection list.
func (a *Automation) Selection() []*AccelerationPoint {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*AccelerationPoint, len(a.selection))
	copy(out, a.selection)
	return out
}

// GetValue is the central lookup of spec §4.6: finds the point governing
// the interval [x, xEnd), optionally falling back to the last point before
// x, and translates its y into the port's value type.
func (a *Automation) GetValue(x, xEnd uint, usePrevOnFailure bool) (matchX uint, value Value, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	idx := sort.Search(len(a.points), func(i int) bool { return a.points[i].X >= x })

	found := -1
	if idx < len(a.points) && a.points[idx].X < xEnd {
		found = idx
		// Walk forward while next.x <= x_end, keeping the last match.
		for found+1 < len(a.points) && a.points[found+1].X <= xEnd {
			found++
		}
	}

	if found < 0 && usePrevOnFailure {
		// Walk backward from current_end to the first point with x' < x.
		for i := idx - 1; i >= 0; i-- {
			if a.points[i].X < x {
				found = i
				break
			}
		}
	}

	if found < 0 {
		if len(a.points) == 0 && a.ValueKind == PortValueBool {
			return NoMatch, Value{Kind: PortValueBool, Bool: a.DefaultValue != 0}, nil
		}
		return NoMatch, Value{}, nil
	}

	p := a.points[found]
	return p.X, a.translate(p.Y), nil
}

func (a *Automation) translate(y float64) Value {
	switch a.ValueKind {
	case PortValueBool:
		return Value{Kind: PortValueBool, Bool: y != 0}
	case PortValueInt64:
		return Value{Kind: PortValueInt64, Int64: int64(math.Floor(y))}
	case PortValueUint64:
		return Value{Kind: PortValueUint64, Uint64: uint64(math.Floor(y))}
	case PortValueFloat:
		return Value{Kind: PortValueFloat, Float: float32(y)}
	case PortValuePointer:
		Logger.Warn("automation port value kind is pointer/object, no value translated", "control_name", a.ControlName)
		return Value{Kind: PortValuePointer}
	default:
		return Value{Kind: PortValueDouble, Double: y}
	}
}

// FindNearTimestamp bisects an input list of automations narrowing
// [start, end] based on whether the midpoint's timestamp offset is below
// or above the target, terminating on length <= 3 (spec §4.6
// find_near_timestamp). A candidate only matches when its own timestamp
// offset falls in the target's bucket, ts <= ts' < ts+DefaultOffset; the
// length<=3 base case linearly scans the remaining window with the same
// containment test so a match sitting on a bucket boundary is never
// silently skipped. Nothing qualifying yields nil.
func FindNearTimestamp(list []*Automation, line int, ts uint64) []*Automation {
	return findNearTimestamp(list, line, "", "", ts, false)
}

// FindNearTimestampExtended additionally filters candidates by channelType
// and controlName (spec §4.6 find_near_timestamp_extended).
func FindNearTimestampExtended(list []*Automation, line int, channelType, controlName string, ts uint64) []*Automation {
	return findNearTimestamp(list, line, channelType, controlName, ts, true)
}

func findNearTimestamp(list []*Automation, line int, channelType, controlName string, ts uint64, extended bool) []*Automation {
	inBucket := func(a *Automation) bool {
		return a.Timestamp.Value >= ts && a.Timestamp.Value < ts+DefaultOffset
	}

	start, end := 0, len(list)-1

	for end-start+1 > 3 {
		mid := (start + end) / 2

		if inBucket(list[mid]) {
			// The midpoint's bucket contains the target; the list is
			// sorted by timestamp offset, so the qualifying entries form
			// a contiguous run around mid.
			lo, hi := mid, mid
			for lo > start && inBucket(list[lo-1]) {
				lo--
			}
			for hi < end && inBucket(list[hi+1]) {
				hi++
			}
			start, end = lo, hi
			break
		}

		if list[mid].Timestamp.Value < ts {
			start = mid + 1
		} else {
			end = mid - 1
		}
	}

	if start < 0 {
		start = 0
	}
	if end >= len(list) {
		end = len(list) - 1
	}
	if start > end {
		return nil
	}

	var out []*Automation
	for i := start; i <= end; i++ {
		a := list[i]
		if a.Timestamp.Value < ts || a.Timestamp.Value >= ts+DefaultOffset {
			continue
		}
		if a.Line != line {
			continue
		}
		if extended && (a.ChannelType != channelType || a.ControlName != controlName) {
			continue
		}
		out = append(out, a)
	}
	return out
}
