package neo

// Asteroid is one near-Earth object from the feed, reduced to its first
// close approach.
type Asteroid struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	NasaJPLURL    string         `json:"nasa_jpl_url"`
	IsHazardous   bool           `json:"is_hazardous"`
	Diameter      Diameter       `json:"diameter"`
	CloseApproach *CloseApproach `json:"close_approach"`
	RiskScore     int            `json:"risk_score"`
}

type Diameter struct {
	MinKm float64 `json:"min_km"`
	MaxKm float64 `json:"max_km"`
	MinM  float64 `json:"min_m"`
	MaxM  float64 `json:"max_m"`
}

// MeanKm is the mean of the min/max estimated diameter in kilometres.
func (d Diameter) MeanKm() float64 {
	return (d.MinKm + d.MaxKm) / 2
}

type CloseApproach struct {
	Date          string  `json:"date"`
	DateFull      string  `json:"date_full"`
	VelocityKmh   float64 `json:"velocity_kmh"`
	VelocityKms   float64 `json:"velocity_kms"`
	DistanceKm    float64 `json:"distance_km"`
	DistanceLunar float64 `json:"distance_lunar"`
	DistanceAU    float64 `json:"distance_au"`
	OrbitingBody  string  `json:"orbiting_body"`
}

type Stats struct {
	TotalCount     int              `json:"total_count"`
	HazardousCount int              `json:"hazardous_count"`
	Closest        *ClosestAsteroid `json:"closest_asteroid"`
	Fastest        *FastestAsteroid `json:"fastest_asteroid"`
	Largest        *LargestAsteroid `json:"largest_asteroid"`
}

type ClosestAsteroid struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	DistanceKm    float64 `json:"distance_km"`
	DistanceLunar float64 `json:"distance_lunar"`
}

type FastestAsteroid struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	VelocityKmh float64 `json:"velocity_kmh"`
	VelocityKms float64 `json:"velocity_kms"`
}

type LargestAsteroid struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	DiameterKm float64 `json:"diameter_km"`
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Feed is the enriched view of one date range.
type Feed struct {
	DateRange DateRange  `json:"date_range"`
	Stats     Stats      `json:"stats"`
	Asteroids []Asteroid `json:"asteroids"`
}
