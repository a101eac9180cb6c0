// README: Tariff constants and bracket tables; read-only after package init.
package pricing

import (
	"math"
	"sort"
)

const (
	FixedHandling = 2.50
	RatePerKm     = 0.12
	RatePerKg     = 0.40
	MinimumPrice  = 5.00

	MinDistanceKm = 1.0
	MinWeightKg   = 0.1

	// Upper bounds keep every intermediate cost finite.
	MaxDistanceKm = 20000.0
	MaxWeightKg   = 10000.0

	// ReferenceVolumeCm3 stands in for missing or unreadable dimensions.
	ReferenceVolumeCm3 = 30000.0

	RideBaseFare  = 2.00
	RideRatePerKm = 0.15
	MinRidePrice  = 3.00
	MaxRidePrice  = 250.00
)

// bracket applies to values strictly below Below. The last entry of a table is open-ended.
type bracket struct {
	Below      float64
	Label      string
	Multiplier float64
}

var distanceBrackets = []bracket{
	{50, "Courte distance", 1.00},
	{200, "Moyenne distance", 1.15},
	{500, "Longue distance", 1.00},
	{math.Inf(1), "Très longue distance", 0.85},
}

// Heavy parcels (>= 30 kg) carry a handling penalty instead of a discount.
var weightBrackets = []bracket{
	{5, "Léger", 1.00},
	{15, "Moyen", 1.10},
	{30, "Lourd", 0.95},
	{math.Inf(1), "Très lourd", 1.30},
}

var rideBrackets = []bracket{
	{20, "Urbain", 1.50},
	{100, "Régional", 1.00},
	{300, "Interrégional", 0.85},
	{math.Inf(1), "Longue distance", 0.70},
}

func lookupBracket(table []bracket, v float64) bracket {
	i := sort.Search(len(table), func(i int) bool { return v < table[i].Below })
	if i == len(table) {
		i = len(table) - 1
	}
	return table[i]
}

// sizeBand covers volumes up to and including MaxCm3.
type sizeBand struct {
	MaxCm3     float64
	Category   SizeCategory
	Label      string
	Multiplier float64
}

var sizeBands = []sizeBand{
	{10000, SizeCompact, "Compact", 1.00},
	{50000, SizeStandard, "Standard", 1.10},
	{150000, SizeLarge, "Grand", 1.25},
	{500000, SizeExtraLarge, "Très grand", 1.50},
	{math.Inf(1), SizeOversized, "Hors gabarit", 2.00},
}

func lookupSize(volumeCm3 float64) sizeBand {
	i := sort.Search(len(sizeBands), func(i int) bool { return volumeCm3 <= sizeBands[i].MaxCm3 })
	if i == len(sizeBands) {
		i = len(sizeBands) - 1
	}
	return sizeBands[i]
}

func standardSize() sizeBand {
	return sizeBands[1]
}

// densityBand covers densities from MinKgPerDm3 upward, sorted ascending.
type densityBand struct {
	MinKgPerDm3 float64
	Category    DensityCategory
	Label       string
	Multiplier  float64
}

var densityBands = []densityBand{
	{0, DensityVeryLight, "Très léger", 1.30},
	{0.1, DensityLight, "Léger", 1.15},
	{0.2, DensityDense, "Dense", 1.00},
	{0.5, DensityVeryDense, "Très dense", 0.90},
}

func lookupDensity(kgPerDm3 float64) densityBand {
	i := sort.Search(len(densityBands), func(i int) bool { return kgPerDm3 < densityBands[i].MinKgPerDm3 })
	if i == 0 {
		return densityBands[0]
	}
	return densityBands[i-1]
}

var vehicleMultipliers = map[VehicleClass]float64{
	VehicleMotorcycle: 0.70,
	VehicleCar:        1.00,
	VehicleVan:        1.30,
	VehicleTruck:      1.80,
}

var vehicleAliases = map[string]VehicleClass{
	"MOTO":        VehicleMotorcycle,
	"SCOOTER":     VehicleMotorcycle,
	"VOITURE":     VehicleCar,
	"BERLINE":     VehicleCar,
	"CAMIONNETTE": VehicleVan,
	"UTILITAIRE":  VehicleVan,
	"CAMION":      VehicleTruck,
	"POIDS_LOURD": VehicleTruck,
}
