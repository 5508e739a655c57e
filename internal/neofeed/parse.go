package neofeed

import (
	"fmt"
	"math"

	"github.com/geocoder89/staroracle/internal/domain/neo"
	"github.com/geocoder89/staroracle/internal/risk"
	"github.com/tidwall/gjson"
)

// Parse turns a raw feed body into the enriched view. Objects are visited in
// document order so equal scores keep their feed order after sorting.
func Parse(body []byte, dates neo.DateRange) (neo.Feed, error) {
	if err := checkBody(body); err != nil {
		return neo.Feed{}, err
	}

	root := gjson.ParseBytes(body)

	feed := neo.Feed{
		DateRange: dates,
		Stats:     neo.Stats{TotalCount: int(root.Get("element_count").Int())},
		Asteroids: make([]neo.Asteroid, 0),
	}

	closest := math.MaxFloat64
	var fastest, largest float64

	eachObject(root, func(obj gjson.Result) {
		a := asteroidFrom(obj)

		if ca := a.CloseApproach; ca != nil {
			if ca.DistanceKm < closest {
				closest = ca.DistanceKm
				feed.Stats.Closest = &neo.ClosestAsteroid{
					ID:            a.ID,
					Name:          a.Name,
					DistanceKm:    ca.DistanceKm,
					DistanceLunar: ca.DistanceLunar,
				}
			}

			if ca.VelocityKmh > fastest {
				fastest = ca.VelocityKmh
				feed.Stats.Fastest = &neo.FastestAsteroid{
					ID:          a.ID,
					Name:        a.Name,
					VelocityKmh: ca.VelocityKmh,
					VelocityKms: ca.VelocityKms,
				}
			}
		}

		if mean := a.Diameter.MeanKm(); mean > largest {
			largest = mean
			feed.Stats.Largest = &neo.LargestAsteroid{ID: a.ID, Name: a.Name, DiameterKm: mean}
		}

		if a.IsHazardous {
			feed.Stats.HazardousCount++
		}

		a.RiskScore = risk.Score(a)
		feed.Asteroids = append(feed.Asteroids, a)
	})

	risk.SortByScore(feed.Asteroids)
	return feed, nil
}

func checkBody(body []byte) error {
	if !gjson.ValidBytes(body) {
		return fmt.Errorf("%w: unparseable body", ErrUpstream)
	}
	if !gjson.ParseBytes(body).IsObject() {
		return fmt.Errorf("%w: unexpected body", ErrUpstream)
	}
	return nil
}

// eachObject walks near_earth_objects date by date.
func eachObject(root gjson.Result, fn func(obj gjson.Result)) {
	root.Get("near_earth_objects").ForEach(func(_, day gjson.Result) bool {
		day.ForEach(func(_, obj gjson.Result) bool {
			fn(obj)
			return true
		})
		return true
	})
}

func asteroidFrom(obj gjson.Result) neo.Asteroid {
	km := obj.Get("estimated_diameter.kilometers")
	m := obj.Get("estimated_diameter.meters")

	a := neo.Asteroid{
		ID:          obj.Get("id").String(),
		Name:        obj.Get("name").String(),
		NasaJPLURL:  obj.Get("nasa_jpl_url").String(),
		IsHazardous: obj.Get("is_potentially_hazardous_asteroid").Bool(),
		Diameter: neo.Diameter{
			MinKm: km.Get("estimated_diameter_min").Float(),
			MaxKm: km.Get("estimated_diameter_max").Float(),
			MinM:  m.Get("estimated_diameter_min").Float(),
			MaxM:  m.Get("estimated_diameter_max").Float(),
		},
	}

	if ca := obj.Get("close_approach_data.0"); ca.Exists() {
		a.CloseApproach = &neo.CloseApproach{
			Date:          ca.Get("close_approach_date").String(),
			DateFull:      ca.Get("close_approach_date_full").String(),
			VelocityKmh:   ca.Get("relative_velocity.kilometers_per_hour").Float(),
			VelocityKms:   ca.Get("relative_velocity.kilometers_per_second").Float(),
			DistanceKm:    ca.Get("miss_distance.kilometers").Float(),
			DistanceLunar: ca.Get("miss_distance.lunar").Float(),
			DistanceAU:    ca.Get("miss_distance.astronomical").Float(),
			OrbitingBody:  ca.Get("orbiting_body").String(),
		}
	}

	return a
}
