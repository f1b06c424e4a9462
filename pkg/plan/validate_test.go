package plan

import (
	"math"
	"testing"
)

func waypoint(seq uint16, x, y int32, z float32) Item {
	return Item{
		Seq:          seq,
		Command:      16,
		Frame:        FrameGlobalRelativeAltInt,
		Current:      seq == 0,
		Autocontinue: true,
		X:            x,
		Y:            y,
		Z:            z,
	}
}

// fenceSquare returns four vertices around Zürich SITL home.
func fenceSquare() []Item {
	coords := [][2]int32{
		{473980000, 85450000},
		{473980000, 85460000},
		{473975000, 85460000},
		{473975000, 85450000},
	}
	items := make([]Item, len(coords))
	for i, c := range coords {
		items[i] = Item{
			Seq:          uint16(i),
			Command:      5001, // NAV_FENCE_POLYGON_VERTEX_INCLUSION
			Frame:        FrameGlobalInt,
			Autocontinue: true,
			Param1:       4,
			X:            c[0],
			Y:            c[1],
		}
	}
	return items
}

func hasIssue(issues []Issue, code string) bool {
	for _, issue := range issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		plan       Plan
		wantCodes  []string
		wantErrors bool
	}{
		{
			name: "ValidMission",
			plan: Plan{
				Kind: KindMission,
				Home: &HomePosition{Lat: 42.3898, Lon: -71.1476, Alt: 14},
				Items: []Item{
					waypoint(0, 423898000, -711476000, 25),
					waypoint(1, 423902000, -711470000, 30),
				},
			},
		},
		{
			name: "ValidFence",
			plan: Plan{Kind: KindFence, Items: fenceSquare()},
		},
		{
			name: "SequenceGap",
			plan: Plan{
				Kind: KindMission,
				Items: []Item{
					waypoint(0, 423898000, -711476000, 25),
					waypoint(2, 423902000, -711470000, 30),
				},
			},
			wantCodes:  []string{"plan.non_contiguous_sequence"},
			wantErrors: true,
		},
		{
			name: "DuplicateSequence",
			plan: Plan{
				Kind: KindMission,
				Items: []Item{
					waypoint(0, 423898000, -711476000, 25),
					waypoint(0, 423902000, -711470000, 30),
				},
			},
			wantCodes:  []string{"plan.non_contiguous_sequence"},
			wantErrors: true,
		},
		{
			name: "LatitudeOutOfRange",
			plan: Plan{
				Kind:  KindMission,
				Items: []Item{waypoint(0, 999_000_000, 0, 25)},
			},
			wantCodes:  []string{"item.latitude_out_of_range"},
			wantErrors: true,
		},
		{
			name: "LongitudeOutOfRange",
			plan: Plan{
				Kind:  KindMission,
				Items: []Item{waypoint(0, 0, 1_900_000_000, 25)},
			},
			wantCodes:  []string{"item.longitude_out_of_range"},
			wantErrors: true,
		},
		{
			name: "NaNParameter",
			plan: Plan{
				Kind: KindMission,
				Items: []Item{
					func() Item {
						w := waypoint(0, 423898000, -711476000, 25)
						w.Param4 = float32(math.NaN())
						return w
					}(),
				},
			},
			wantCodes:  []string{"item.non_finite_value"},
			wantErrors: true,
		},
		{
			name: "HomeLatitudeOutOfRange",
			plan: Plan{
				Kind: KindMission,
				Home: &HomePosition{Lat: 95, Lon: 8, Alt: 0},
			},
			wantCodes:  []string{"home.latitude_out_of_range"},
			wantErrors: true,
		},
		{
			name: "HomeOnFence",
			plan: Plan{
				Kind:  KindFence,
				Home:  &HomePosition{Lat: 47, Lon: 8, Alt: 0},
				Items: fenceSquare(),
			},
			wantCodes:  []string{"plan.home_not_allowed"},
			wantErrors: true,
		},
		{
			name: "ZeroAltitudeWarning",
			plan: Plan{
				Kind:  KindMission,
				Items: []Item{waypoint(0, 423898000, -711476000, 0)},
			},
			wantCodes: []string{"item.zero_altitude"},
		},
		{
			name: "LongLegWarning",
			plan: Plan{
				Kind: KindMission,
				Items: []Item{
					waypoint(0, 423898000, -711476000, 25),
					waypoint(1, 473977420, 85455970, 25), // Boston to Zürich
				},
			},
			wantCodes: []string{"item.long_leg"},
		},
		{
			name: "FenceTooFewVertices",
			plan: Plan{
				Kind:  KindFence,
				Items: fenceSquare()[:2],
			},
			wantCodes: []string{"fence.too_few_vertices"},
		},
		{
			name: "LocalFrameSkipsCoordinateChecks",
			plan: Plan{
				Kind: KindMission,
				Items: []Item{{
					Seq:          0,
					Command:      16,
					Frame:        FrameLocalNed,
					Autocontinue: true,
					X:            2_000_000_000,
					Y:            2_000_000_000,
					Z:            5,
				}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := Validate(tt.plan)
			for _, code := range tt.wantCodes {
				if !hasIssue(issues, code) {
					t.Errorf("missing issue %q in %v", code, issues)
				}
			}
			if got := HasErrors(issues); got != tt.wantErrors {
				t.Errorf("HasErrors() = %v, want %v (issues: %v)", got, tt.wantErrors, issues)
			}
		})
	}
}

func TestValidateTooManyItems(t *testing.T) {
	items := make([]Item, maxItems+1)
	for i := range items {
		items[i] = waypoint(uint16(i), 423898000, -711476000, 25)
	}
	issues := Validate(Plan{Kind: KindMission, Items: items})
	if !hasIssue(issues, "plan.too_many_items") {
		t.Fatalf("expected plan.too_many_items, got %v", issues)
	}
}
