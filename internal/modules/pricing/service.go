// README: Pricing service computes package and ride quotes. Pure: no I/O, never fails.
package pricing

import (
	"math"
	"strings"

	"relay/internal/types"
)

type Service struct{}

func NewService() *Service {
	return &Service{}
}

func (s *Service) PriceForPackage(distanceKm, weightKg float64, dimensions string) Quote {
	return PriceForPackage(distanceKm, weightKg, dimensions)
}

func (s *Service) PriceForRide(distanceKm float64, vehicle string) Quote {
	return PriceForRide(distanceKm, vehicle)
}

// PriceForPackage prices a parcel. Distance and weight are clamped to [Min, Max] and unreadable
// dimensions fall back to the STANDARD band, so a quote is always produced.
func PriceForPackage(distanceKm, weightKg float64, dimensions string) Quote {
	km := clamp(distanceKm, MinDistanceKm, MaxDistanceKm)
	kg := clamp(weightKg, MinWeightKg, MaxWeightKg)

	volume, ok := ParseDimensions(dimensions)
	size := standardSize()
	if ok {
		size = lookupSize(volume)
	} else {
		volume = ReferenceVolumeCm3
	}

	density := kg / (volume / 1000)
	dens := lookupDensity(density)
	distB := lookupBracket(distanceBrackets, km)
	weightB := lookupBracket(weightBrackets, kg)

	handling := FixedHandling
	distanceCost := km * RatePerKm * distB.Multiplier
	weightCost := kg * RatePerKg * weightB.Multiplier
	base := handling + distanceCost + weightCost
	afterSize := base * size.Multiplier
	afterDensity := afterSize * dens.Multiplier
	total := math.Max(afterDensity, MinimumPrice)

	var b Breakdown
	b.add("distanceKm", km)
	b.add("weightKg", kg)
	b.add("volumeCm3", volume)
	b.add("dimensionsParsed", ok)
	b.add("sizeCategory", string(size.Category))
	b.add("sizeLabel", size.Label)
	b.add("sizeMultiplier", size.Multiplier)
	b.add("densityKgPerDm3", density)
	b.add("densityCategory", dens.Label)
	b.add("densityCode", string(dens.Category))
	b.add("densityMultiplier", dens.Multiplier)
	b.add("distanceBracket", distB.Label)
	b.add("distanceMultiplier", distB.Multiplier)
	b.add("weightBracket", weightB.Label)
	b.add("weightMultiplier", weightB.Multiplier)
	b.add("handlingCost", handling)
	b.add("distanceCost", distanceCost)
	b.add("weightCost", weightCost)
	b.add("baseCost", base)
	b.add("afterSize", afterSize)
	b.add("afterDensity", afterDensity)
	b.add("minimumPrice", MinimumPrice)
	b.add("minimumApplied", afterDensity < MinimumPrice)

	price := types.EUR(total)
	b.add("total", price.Float())
	return Quote{Price: price, Breakdown: b}
}

// PriceForRide prices a ride. The result is clamped to [MinRidePrice, MaxRidePrice];
// an unknown vehicle class is priced as a car.
func PriceForRide(distanceKm float64, vehicle string) Quote {
	km := clamp(distanceKm, MinDistanceKm, MaxDistanceKm)
	class, known := ParseVehicleClass(vehicle)
	vehicleMult := vehicleMultipliers[class]
	rideB := lookupBracket(rideBrackets, km)

	distanceCost := km * RideRatePerKm * rideB.Multiplier
	subtotal := RideBaseFare + distanceCost
	afterVehicle := subtotal * vehicleMult
	total := math.Min(math.Max(afterVehicle, MinRidePrice), MaxRidePrice)

	var b Breakdown
	b.add("distanceKm", km)
	b.add("vehicleClass", string(class))
	b.add("vehicleClassKnown", known)
	b.add("vehicleMultiplier", vehicleMult)
	b.add("distanceBracket", rideB.Label)
	b.add("distanceMultiplier", rideB.Multiplier)
	b.add("baseFare", RideBaseFare)
	b.add("distanceCost", distanceCost)
	b.add("subtotal", subtotal)
	b.add("afterVehicle", afterVehicle)
	b.add("minimumPrice", MinRidePrice)
	b.add("maximumPrice", MaxRidePrice)
	b.add("minimumApplied", afterVehicle < MinRidePrice)
	b.add("maximumApplied", afterVehicle > MaxRidePrice)

	price := types.EUR(total)
	b.add("total", price.Float())
	return Quote{Price: price, Breakdown: b}
}

// ParseVehicleClass accepts the canonical names and a few French aliases, case-insensitively.
func ParseVehicleClass(s string) (VehicleClass, bool) {
	key := strings.ToUpper(strings.TrimSpace(s))
	if _, ok := vehicleMultipliers[VehicleClass(key)]; ok {
		return VehicleClass(key), true
	}
	if c, ok := vehicleAliases[key]; ok {
		return c, true
	}
	return VehicleCar, false
}

// clamp maps NaN and anything below floor to floor, and +Inf or anything above ceil to ceil.
func clamp(v, floor, ceil float64) float64 {
	switch {
	case math.IsNaN(v) || v < floor:
		return floor
	case v > ceil:
		return ceil
	}
	return v
}
