package plan

// The mission protocol stores the home position of a Mission transfer as
// the item at wire seq 0, with flight items shifted to 1..N. This file is
// the only place that shift happens; everything above it works on
// semantic plans. The functions assume validated input and do no bounds
// checking of their own.

// ToWire converts a semantic plan into the item list a mission upload
// transmits. Mission plans gain a leading home item (a zero placeholder
// when the plan has none, which autopilots replace with their own
// estimate); fence and rally plans pass through unchanged.
func ToWire(p Plan) []Item {
	if p.Kind != KindMission {
		return append([]Item(nil), p.Items...)
	}

	var homeItem Item
	if p.Home != nil {
		homeItem = p.Home.ToItem(0)
	} else {
		homeItem = Item{
			Seq:          0,
			Command:      16, // NAV_WAYPOINT by convention
			Frame:        FrameGlobalInt,
			Autocontinue: true,
		}
	}

	wire := make([]Item, 0, len(p.Items)+1)
	wire = append(wire, homeItem)
	for i, item := range p.Items {
		item.Seq = uint16(i + 1)
		wire = append(wire, item)
	}
	return wire
}

// FromWire converts downloaded wire items back into a semantic plan.
// Mission downloads peel the seq-0 item off as the home position and
// resequence the remainder from 0, marking the first flight item current.
func FromWire(kind Kind, wireItems []Item) Plan {
	if kind != KindMission || len(wireItems) == 0 {
		return Plan{Kind: kind, Items: append([]Item(nil), wireItems...)}
	}

	home := HomeFromItem(wireItems[0])
	items := make([]Item, 0, len(wireItems)-1)
	for i, item := range wireItems[1:] {
		item.Seq = uint16(i)
		item.Current = i == 0
		items = append(items, item)
	}

	return Plan{Kind: kind, Home: &home, Items: items}
}
