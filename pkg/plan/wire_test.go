package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToWireMissionPrependsHome(t *testing.T) {
	p := Plan{
		Kind: KindMission,
		Home: &HomePosition{Lat: 42.3898, Lon: -71.1476, Alt: 14},
		Items: []Item{
			waypoint(0, 423898000, -711476000, 25),
			waypoint(1, 423902000, -711470000, 30),
		},
	}

	wire := ToWire(p)
	require.Len(t, wire, 3)
	assert.Equal(t, uint16(0), wire[0].Seq)
	assert.Equal(t, FrameGlobalInt, wire[0].Frame)
	assert.Equal(t, int32(423898000), wire[0].X)
	assert.Equal(t, int32(-711476000), wire[0].Y)
	assert.InDelta(t, 14, float64(wire[0].Z), 1e-6)
	assert.Equal(t, uint16(1), wire[1].Seq)
	assert.Equal(t, uint16(2), wire[2].Seq)
}

func TestToWireMissionWithoutHomeUsesPlaceholder(t *testing.T) {
	p := Plan{
		Kind:  KindMission,
		Items: []Item{waypoint(0, 423898000, -711476000, 25)},
	}
	wire := ToWire(p)
	require.Len(t, wire, 2)
	assert.Equal(t, int32(0), wire[0].X)
	assert.Equal(t, int32(0), wire[0].Y)
	assert.Equal(t, uint16(16), wire[0].Command)
}

func TestToWireFencePassthrough(t *testing.T) {
	p := Plan{Kind: KindFence, Items: fenceSquare()}
	wire := ToWire(p)
	require.Len(t, wire, 4)
	for i, item := range wire {
		assert.Equal(t, uint16(i), item.Seq)
	}
}

func TestFromWireMissionExtractsHome(t *testing.T) {
	home := HomePosition{Lat: 47.397742, Lon: 8.545594, Alt: 488}
	wire := []Item{
		home.ToItem(0),
		waypoint(1, 473980000, 85460000, 25),
		waypoint(2, 473985000, 85465000, 30),
	}

	p := FromWire(KindMission, wire)
	require.NotNil(t, p.Home)
	assert.InDelta(t, 47.397742, p.Home.Lat, 1e-7)
	assert.InDelta(t, 8.545594, p.Home.Lon, 1e-7)
	require.Len(t, p.Items, 2)
	assert.Equal(t, uint16(0), p.Items[0].Seq)
	assert.Equal(t, uint16(1), p.Items[1].Seq)
	assert.True(t, p.Items[0].Current)
	assert.False(t, p.Items[1].Current)
}

func TestFromWireFencePassthrough(t *testing.T) {
	p := FromWire(KindFence, fenceSquare())
	assert.Nil(t, p.Home)
	assert.Len(t, p.Items, 4)
}

func TestFromWireEmpty(t *testing.T) {
	p := FromWire(KindMission, nil)
	assert.Nil(t, p.Home)
	assert.Empty(t, p.Items)
}

// Wire roundtrips must preserve the semantic plan exactly for valid input.
func TestWireRoundtrip(t *testing.T) {
	tests := []struct {
		name string
		plan Plan
	}{
		{
			name: "MissionWithHome",
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
			name: "Fence",
			plan: Plan{Kind: KindFence, Items: fenceSquare()},
		},
		{
			name: "Rally",
			plan: Plan{
				Kind:  KindRally,
				Items: []Item{waypoint(0, 473977420, 85455970, 0)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromWire(tt.plan.Kind, ToWire(tt.plan))
			assert.Equal(t, tt.plan.Kind, got.Kind)
			if tt.plan.Kind == KindMission && tt.plan.Home != nil {
				require.NotNil(t, got.Home)
				assert.InDelta(t, tt.plan.Home.Lat, got.Home.Lat, 1e-7)
				assert.InDelta(t, tt.plan.Home.Lon, got.Home.Lon, 1e-7)
			} else {
				assert.Nil(t, got.Home)
			}
			require.Len(t, got.Items, len(tt.plan.Items))
			for i := range got.Items {
				assert.True(t, itemsEquivalent(Normalize(tt.plan).Items[i], Normalize(got).Items[i]),
					"item %d: %+v vs %+v", i, tt.plan.Items[i], got.Items[i])
			}
			// ToWire output is always contiguously sequenced from 0.
			for i, item := range ToWire(tt.plan) {
				assert.Equal(t, uint16(i), item.Seq)
			}
		})
	}
}
