package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used by Distance.
const EarthRadiusMeters = 6371e3

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Distance returns the great-circle distance in meters between two
// coordinates using the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*
			math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// DistanceTo is Distance between p and q.
func (p Point) DistanceTo(q Point) float64 {
	return Distance(p.Latitude, p.Longitude, q.Latitude, q.Longitude)
}

// Within reports whether q lies inside the circle of radius meters around p.
func (p Point) Within(q Point, radius float64) bool {
	return p.DistanceTo(q) <= radius
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }
