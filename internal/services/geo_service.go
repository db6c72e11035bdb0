package services

import "math"

const (
	// earthRadiusKm is the mean Earth radius used by the haversine formula
	earthRadiusKm = 6371.0

	// routeToleranceKm is how far a point may sit off a route's great
	// circle and still count as on the route
	routeToleranceKm = 5.0
)

// GeoService performs great-circle distance and fare calculations.
// All methods are pure; coordinates are decimal degrees.
type GeoService struct{}

// NewGeoService creates a new GeoService
func NewGeoService() *GeoService {
	return &GeoService{}
}

// DistanceKm returns the haversine distance between two points in kilometers
func (s *GeoService) DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// Fare returns the trip fare for a distance at a per-kilometer rate,
// rounded half-up to two decimals.
func (s *GeoService) Fare(distanceKm, ratePerKm float64) float64 {
	return math.Round(distanceKm*ratePerKm*100) / 100
}

// CrossTrackDistanceKm returns the perpendicular distance from a point to
// the great circle through a route's start and end. A degenerate route
// (endpoints closer than about a meter) falls back to the direct distance.
func (s *GeoService) CrossTrackDistanceKm(pointLat, pointLng, startLat, startLng, endLat, endLng float64) float64 {
	routeLength := s.DistanceKm(startLat, startLng, endLat, endLng)
	distToPoint := s.DistanceKm(startLat, startLng, pointLat, pointLng)
	if routeLength < 0.001 {
		return distToPoint
	}

	bearingToPoint := s.bearing(startLat, startLng, pointLat, pointLng)
	bearingRoute := s.bearing(startLat, startLng, endLat, endLng)

	crossTrack := math.Asin(math.Sin(distToPoint/earthRadiusKm)*
		math.Sin(bearingToPoint-bearingRoute)) * earthRadiusKm

	return math.Abs(crossTrack)
}

// PointNearRoute reports whether a point lies within the route tolerance of
// the great circle from start to end.
func (s *GeoService) PointNearRoute(pointLat, pointLng, startLat, startLng, endLat, endLng float64) bool {
	return s.CrossTrackDistanceKm(pointLat, pointLng, startLat, startLng, endLat, endLng) <= routeToleranceKm
}

// IsPickupBeforeDrop reports whether the pickup point comes before the drop
// point along the route, measured by distance from the route start.
func (s *GeoService) IsPickupBeforeDrop(pickupLat, pickupLng, dropLat, dropLng, startLat, startLng float64) bool {
	distToPickup := s.DistanceKm(startLat, startLng, pickupLat, pickupLng)
	distToDrop := s.DistanceKm(startLat, startLng, dropLat, dropLng)
	return distToPickup < distToDrop
}

// RouteMatches reports whether a passenger's pickup and drop both lie on a
// ride's route, in travel order.
func (s *GeoService) RouteMatches(pickupLat, pickupLng, dropLat, dropLng, startLat, startLng, endLat, endLng float64) bool {
	if !s.PointNearRoute(pickupLat, pickupLng, startLat, startLng, endLat, endLng) {
		return false
	}
	if !s.PointNearRoute(dropLat, dropLng, startLat, startLng, endLat, endLng) {
		return false
	}
	return s.IsPickupBeforeDrop(pickupLat, pickupLng, dropLat, dropLng, startLat, startLng)
}

// bearing returns the initial bearing from one point to another, in radians
func (s *GeoService) bearing(lat1, lng1, lat2, lng2 float64) float64 {
	lat1R := toRadians(lat1)
	lat2R := toRadians(lat2)
	dLng := toRadians(lng2 - lng1)

	y := math.Sin(dLng) * math.Cos(lat2R)
	x := math.Cos(lat1R)*math.Sin(lat2R) -
		math.Sin(lat1R)*math.Cos(lat2R)*math.Cos(dLng)

	return math.Atan2(y, x)
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
