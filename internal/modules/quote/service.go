// README: Quote service chains the distance resolver into the pricing engine.
package quote

import (
	"context"

	"github.com/sirupsen/logrus"

	"relay/internal/metrics"
	"relay/internal/modules/distance"
	"relay/internal/modules/pricing"
)

type DistanceResolver interface {
	Resolve(origin, destination string) distance.Quote
}

type Pricer interface {
	PriceForPackage(distanceKm, weightKg float64, dimensions string) pricing.Quote
	PriceForRide(distanceKm float64, vehicle string) pricing.Quote
}

type Service struct {
	distance DistanceResolver
	pricing  Pricer
	log      logrus.FieldLogger
}

func NewService(resolver DistanceResolver, pricer Pricer, log logrus.FieldLogger) *Service {
	return &Service{distance: resolver, pricing: pricer, log: log}
}

type PackageCommand struct {
	Origin      string
	Destination string
	WeightKg    float64
	Dimensions  string
}

type RideCommand struct {
	Origin       string
	Destination  string
	VehicleClass string
}

type Result struct {
	Distance distance.Quote `json:"distance"`
	Price    pricing.Quote  `json:"quote"`
}

func (s *Service) QuotePackage(ctx context.Context, cmd PackageCommand) Result {
	d := s.distance.Resolve(cmd.Origin, cmd.Destination)
	p := s.pricing.PriceForPackage(d.Kilometers, cmd.WeightKg, cmd.Dimensions)
	metrics.RecordQuote("package", string(d.Method))
	s.log.WithFields(logrus.Fields{
		"kind":   "package",
		"km":     d.Kilometers,
		"method": d.Method,
		"amount": p.Price.Amount.StringFixed(2),
	}).Debug("quote computed")
	return Result{Distance: d, Price: p}
}

func (s *Service) QuoteRide(ctx context.Context, cmd RideCommand) Result {
	d := s.distance.Resolve(cmd.Origin, cmd.Destination)
	p := s.pricing.PriceForRide(d.Kilometers, cmd.VehicleClass)
	metrics.RecordQuote("ride", string(d.Method))
	s.log.WithFields(logrus.Fields{
		"kind":   "ride",
		"km":     d.Kilometers,
		"method": d.Method,
		"amount": p.Price.Amount.StringFixed(2),
	}).Debug("quote computed")
	return Result{Distance: d, Price: p}
}
