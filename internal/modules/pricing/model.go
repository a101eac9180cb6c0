// README: Price quote and breakdown types produced by the pricing engine.
package pricing

import "relay/internal/types"

// Line is one audited step of a computation. Value is a float64, string or bool.
type Line struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// Breakdown keeps lines in computation order.
type Breakdown []Line

func (b Breakdown) Get(label string) (any, bool) {
	for _, l := range b {
		if l.Label == label {
			return l.Value, true
		}
	}
	return nil, false
}

func (b Breakdown) Number(label string) float64 {
	v, _ := b.Get(label)
	f, _ := v.(float64)
	return f
}

func (b Breakdown) Text(label string) string {
	v, _ := b.Get(label)
	s, _ := v.(string)
	return s
}

func (b Breakdown) Flag(label string) bool {
	v, _ := b.Get(label)
	ok, _ := v.(bool)
	return ok
}

func (b *Breakdown) add(label string, value any) {
	*b = append(*b, Line{Label: label, Value: value})
}

type Quote struct {
	Price     types.Money `json:"price"`
	Breakdown Breakdown   `json:"breakdown"`
}

type SizeCategory string

const (
	SizeCompact    SizeCategory = "COMPACT"
	SizeStandard   SizeCategory = "STANDARD"
	SizeLarge      SizeCategory = "LARGE"
	SizeExtraLarge SizeCategory = "EXTRA_LARGE"
	SizeOversized  SizeCategory = "OVERSIZED"
)

type DensityCategory string

const (
	DensityVeryDense DensityCategory = "VERY_DENSE"
	DensityDense     DensityCategory = "DENSE"
	DensityLight     DensityCategory = "LIGHT"
	DensityVeryLight DensityCategory = "VERY_LIGHT"
)

type VehicleClass string

const (
	VehicleMotorcycle VehicleClass = "MOTORCYCLE"
	VehicleCar        VehicleClass = "CAR"
	VehicleVan        VehicleClass = "VAN"
	VehicleTruck      VehicleClass = "TRUCK"
)
