package assembly

import v3 "github.com/deadsy/sdfx/vec/v3"

const (
	legRadius      = 0.1
	legHeight      = 2.0
	uprightHeight  = 2.5
	roundSegments  = 16
	seatHeight     = 1.9
	uprightRailGap = 0.2
)

// Chair returns the chair model. The seat is static; four legs, two back
// uprights and a back rail start loose around it.
func Chair() *Model {
	b := NewModelBuilder()

	mustAdd(b, PartSchema{
		ID:              "seat",
		IsStatic:        true,
		Geometry:        Box{Width: 2, Height: 0.2, Depth: 2},
		InitialPosition: v3.Vec{X: 0, Y: seatHeight, Z: 0},
		Points: []ConnectionPoint{
			{Key: "seat_for_leg_bl", LocalOffset: v3.Vec{X: -0.8, Y: -0.1, Z: -0.8}, TargetKey: "leg_bl_top"},
			{Key: "seat_for_leg_br", LocalOffset: v3.Vec{X: 0.8, Y: -0.1, Z: -0.8}, TargetKey: "leg_br_top"},
			{Key: "seat_for_leg_fl", LocalOffset: v3.Vec{X: -0.8, Y: -0.1, Z: 0.8}, TargetKey: "leg_fl_top"},
			{Key: "seat_for_leg_fr", LocalOffset: v3.Vec{X: 0.8, Y: -0.1, Z: 0.8}, TargetKey: "leg_fr_top"},
			{Key: "seat_for_upright_l", LocalOffset: v3.Vec{X: -0.8, Y: 0.1, Z: -0.9}, TargetKey: "upright_l_bottom"},
			{Key: "seat_for_upright_r", LocalOffset: v3.Vec{X: 0.8, Y: 0.1, Z: -0.9}, TargetKey: "upright_r_bottom"},
		},
	})

	legs := []struct {
		id     PartID
		corner string
		at     v3.Vec
	}{
		{"leg_bl", "bl", v3.Vec{X: -3, Y: 1, Z: -2}},
		{"leg_br", "br", v3.Vec{X: 3, Y: 1, Z: -2}},
		{"leg_fl", "fl", v3.Vec{X: -3, Y: 1, Z: 2}},
		{"leg_fr", "fr", v3.Vec{X: 3, Y: 1, Z: 2}},
	}
	for _, l := range legs {
		mustAdd(b, PartSchema{
			ID:              l.id,
			Geometry:        Cylinder{RadiusTop: legRadius, RadiusBottom: legRadius, Height: legHeight, Segments: roundSegments},
			InitialPosition: l.at,
			Points: []ConnectionPoint{
				{Key: "leg_" + l.corner + "_top", LocalOffset: v3.Vec{Y: legHeight / 2}, TargetKey: "seat_for_leg_" + l.corner},
			},
		})
	}

	uprights := []struct {
		id   PartID
		side string
		at   v3.Vec
	}{
		{"back_upright_left", "l", v3.Vec{X: -2, Y: 3, Z: -3}},
		{"back_upright_right", "r", v3.Vec{X: 2, Y: 3, Z: -3}},
	}
	railEnd := map[string]string{"l": "rail_left_end", "r": "rail_right_end"}
	for _, u := range uprights {
		mustAdd(b, PartSchema{
			ID:              u.id,
			Geometry:        Cylinder{RadiusTop: legRadius, RadiusBottom: legRadius, Height: uprightHeight, Segments: roundSegments},
			InitialPosition: u.at,
			Points: []ConnectionPoint{
				{Key: "upright_" + u.side + "_bottom", LocalOffset: v3.Vec{Y: -uprightHeight / 2}, TargetKey: "seat_for_upright_" + u.side},
				{Key: "upright_" + u.side + "_for_rail", LocalOffset: v3.Vec{Y: uprightHeight/2 - uprightRailGap, Z: 0.05}, TargetKey: railEnd[u.side]},
			},
		})
	}

	mustAdd(b, PartSchema{
		ID:              "back_rail",
		Geometry:        Box{Width: 1.6, Height: 0.4, Depth: 0.1},
		InitialPosition: v3.Vec{X: 0, Y: 4, Z: -3},
		Points: []ConnectionPoint{
			{Key: "rail_left_end", LocalOffset: v3.Vec{X: -0.8}, TargetKey: "upright_l_for_rail"},
			{Key: "rail_right_end", LocalOffset: v3.Vec{X: 0.8}, TargetKey: "upright_r_for_rail"},
		},
	})

	return b.Build()
}

// mustAdd panics on builder errors; it is only used for compiled-in models.
func mustAdd(b *ModelBuilder, p PartSchema) {
	if err := b.AddPart(p); err != nil {
		panic("assembly: " + err.Error())
	}
}
