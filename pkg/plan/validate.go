package plan

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"gcslink/pkg/geo"
	"gcslink/pkg/mav"
)

const (
	// maxItems is the largest item count the mission protocol can address.
	maxItems = 4096

	// latLimitE7 and lonLimitE7 bound global coordinates in 1e7 degrees.
	latLimitE7 = 900_000_000
	lonLimitE7 = 1_800_000_000

	// legSuspectM flags unusually long hops between consecutive waypoints.
	legSuspectM = 10_000
)

// Validate checks a plan against the model invariants. It is pure and
// needs no connection; transfer operations refuse plans whose validation
// yields any error-severity issue.
func Validate(p Plan) []Issue {
	var issues []Issue

	if p.Kind != KindMission && p.Home != nil {
		issues = append(issues, Issue{
			Code:     "plan.home_not_allowed",
			Message:  fmt.Sprintf("%s plans cannot carry a home position", p.Kind),
			Seq:      -1,
			Severity: SeverityError,
		})
	}

	if p.Home != nil {
		issues = append(issues, validateHome(*p.Home)...)
	}

	if len(p.Items) > maxItems {
		issues = append(issues, Issue{
			Code:     "plan.too_many_items",
			Message:  fmt.Sprintf("plan exceeds maximum supported item count (%d)", maxItems),
			Seq:      -1,
			Severity: SeverityError,
		})
	}

	for i, item := range p.Items {
		if int(item.Seq) != i {
			issues = append(issues, Issue{
				Code:     "plan.non_contiguous_sequence",
				Message:  fmt.Sprintf("expected sequence %d but found %d", i, item.Seq),
				Seq:      int(item.Seq),
				Severity: SeverityError,
			})
		}
		issues = append(issues, validateItem(item)...)
	}

	issues = append(issues, legWarnings(p)...)

	if p.Kind == KindFence {
		issues = append(issues, fenceWarnings(p)...)
	}

	return issues
}

// HasErrors reports whether any issue is of error severity.
func HasErrors(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

func validateHome(h HomePosition) []Issue {
	var issues []Issue
	if h.Lat < -90 || h.Lat > 90 || math.IsNaN(h.Lat) {
		issues = append(issues, Issue{
			Code:     "home.latitude_out_of_range",
			Message:  fmt.Sprintf("home latitude %v is outside [-90, 90]", h.Lat),
			Seq:      -1,
			Severity: SeverityError,
		})
	}
	if h.Lon < -180 || h.Lon > 180 || math.IsNaN(h.Lon) {
		issues = append(issues, Issue{
			Code:     "home.longitude_out_of_range",
			Message:  fmt.Sprintf("home longitude %v is outside [-180, 180]", h.Lon),
			Seq:      -1,
			Severity: SeverityError,
		})
	}
	if math.IsNaN(float64(h.Alt)) || math.IsInf(float64(h.Alt), 0) {
		issues = append(issues, Issue{
			Code:     "home.non_finite_altitude",
			Message:  "home altitude must be finite",
			Seq:      -1,
			Severity: SeverityError,
		})
	}
	return issues
}

func validateItem(item Item) []Issue {
	var issues []Issue
	seq := int(item.Seq)

	params := []struct {
		name  string
		value float32
	}{
		{"param1", item.Param1},
		{"param2", item.Param2},
		{"param3", item.Param3},
		{"param4", item.Param4},
		{"z", item.Z},
	}
	for _, p := range params {
		f := float64(p.value)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			issues = append(issues, Issue{
				Code:     "item.non_finite_value",
				Message:  fmt.Sprintf("%s must be finite", p.name),
				Seq:      seq,
				Severity: SeverityError,
			})
		}
	}

	if item.Frame.IsGlobal() {
		if item.X < -latLimitE7 || item.X > latLimitE7 {
			issues = append(issues, Issue{
				Code:     "item.latitude_out_of_range",
				Message:  fmt.Sprintf("latitude %v is outside [-90, 90]", float64(item.X)/1e7),
				Seq:      seq,
				Severity: SeverityError,
			})
		}
		if item.Y < -lonLimitE7 || item.Y > lonLimitE7 {
			issues = append(issues, Issue{
				Code:     "item.longitude_out_of_range",
				Message:  fmt.Sprintf("longitude %v is outside [-180, 180]", float64(item.Y)/1e7),
				Seq:      seq,
				Severity: SeverityError,
			})
		}
		if item.Command == mav.CmdNavWaypoint && item.Z == 0 {
			issues = append(issues, Issue{
				Code:     "item.zero_altitude",
				Message:  "waypoint altitude is exactly 0",
				Seq:      seq,
				Severity: SeverityWarning,
			})
		}
	}

	return issues
}

// legWarnings flags suspiciously long hops between consecutive global
// waypoints, a common symptom of a mistyped coordinate.
func legWarnings(p Plan) []Issue {
	if p.Kind != KindMission {
		return nil
	}
	var issues []Issue
	var prev *Item
	for i := range p.Items {
		item := &p.Items[i]
		if !item.Frame.IsGlobal() || !inBoundsE7(item) {
			prev = nil
			continue
		}
		if prev != nil {
			d := geo.Distance(geo.FromE7(prev.X, prev.Y), geo.FromE7(item.X, item.Y))
			if d > legSuspectM {
				issues = append(issues, Issue{
					Code:     "item.long_leg",
					Message:  fmt.Sprintf("leg from seq %d spans %.1f km", prev.Seq, d/1000),
					Seq:      int(item.Seq),
					Severity: SeverityWarning,
				})
			}
		}
		prev = item
	}
	return issues
}

// fenceWarnings sanity-checks inclusion/exclusion polygon geometry.
func fenceWarnings(p Plan) []Issue {
	var ring orb.Ring
	for i := range p.Items {
		item := &p.Items[i]
		if !item.Frame.IsGlobal() || !inBoundsE7(item) {
			continue
		}
		ring = append(ring, orb.Point{float64(item.Y) / 1e7, float64(item.X) / 1e7})
	}
	if len(ring) == 0 {
		return nil
	}

	var issues []Issue
	if len(ring) < 3 {
		issues = append(issues, Issue{
			Code:     "fence.too_few_vertices",
			Message:  fmt.Sprintf("fence polygon has %d vertices, need at least 3", len(ring)),
			Seq:      -1,
			Severity: SeverityWarning,
		})
		return issues
	}

	ring = append(ring, ring[0])
	if math.Abs(planar.Area(ring)) < 1e-12 {
		issues = append(issues, Issue{
			Code:     "fence.degenerate_polygon",
			Message:  "fence polygon encloses no area",
			Seq:      -1,
			Severity: SeverityWarning,
		})
	}
	return issues
}

func inBoundsE7(item *Item) bool {
	return item.X >= -latLimitE7 && item.X <= latLimitE7 &&
		item.Y >= -lonLimitE7 && item.Y <= lonLimitE7
}
