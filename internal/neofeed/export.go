package neofeed

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"

	"github.com/tidwall/gjson"
)

// ExportRow is one flattened object. Approach fields are nil when the object
// has no close approach.
type ExportRow struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	IsHazardous       string   `json:"is_hazardous"`
	DiameterMinKm     float64  `json:"diameter_min_km"`
	DiameterMaxKm     float64  `json:"diameter_max_km"`
	CloseApproachDate string   `json:"close_approach_date"`
	VelocityKmh       *float64 `json:"velocity_km_h"`
	VelocityKms       *float64 `json:"velocity_km_s"`
	MissDistanceKm    *float64 `json:"miss_distance_km"`
	MissDistanceLunar *float64 `json:"miss_distance_lunar"`
	MissDistanceAU    *float64 `json:"miss_distance_au"`
	OrbitingBody      string   `json:"orbiting_body"`
	NasaJPLURL        string   `json:"nasa_jpl_url"`
}

var csvHeader = []string{
	"id", "name", "is_hazardous", "diameter_min_km", "diameter_max_km",
	"close_approach_date", "velocity_km_h", "velocity_km_s", "miss_distance_km",
	"miss_distance_lunar", "miss_distance_au", "orbiting_body", "nasa_jpl_url",
}

// Rows flattens a raw feed body in document order.
func Rows(body []byte) ([]ExportRow, error) {
	if err := checkBody(body); err != nil {
		return nil, err
	}

	out := make([]ExportRow, 0)

	eachObject(gjson.ParseBytes(body), func(obj gjson.Result) {
		km := obj.Get("estimated_diameter.kilometers")

		row := ExportRow{
			ID:            obj.Get("id").String(),
			Name:          obj.Get("name").String(),
			IsHazardous:   "No",
			DiameterMinKm: round(km.Get("estimated_diameter_min").Float(), 4),
			DiameterMaxKm: round(km.Get("estimated_diameter_max").Float(), 4),
			NasaJPLURL:    obj.Get("nasa_jpl_url").String(),
		}
		if obj.Get("is_potentially_hazardous_asteroid").Bool() {
			row.IsHazardous = "Yes"
		}

		ca := obj.Get("close_approach_data.0")
		row.CloseApproachDate = ca.Get("close_approach_date").String()
		row.OrbitingBody = ca.Get("orbiting_body").String()

		if v := ca.Get("relative_velocity"); v.Exists() {
			row.VelocityKmh = roundPtr(v.Get("kilometers_per_hour").Float(), 2)
			row.VelocityKms = roundPtr(v.Get("kilometers_per_second").Float(), 4)
		}
		if d := ca.Get("miss_distance"); d.Exists() {
			row.MissDistanceKm = roundPtr(d.Get("kilometers").Float(), 2)
			row.MissDistanceLunar = roundPtr(d.Get("lunar").Float(), 4)
			row.MissDistanceAU = roundPtr(d.Get("astronomical").Float(), 8)
		}

		out = append(out, row)
	})

	return out, nil
}

// WriteCSV writes a header line followed by one record per row.
func WriteCSV(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range rows {
		rec := []string{
			r.ID,
			r.Name,
			r.IsHazardous,
			formatFloat(r.DiameterMinKm),
			formatFloat(r.DiameterMaxKm),
			r.CloseApproachDate,
			formatOptional(r.VelocityKmh),
			formatOptional(r.VelocityKms),
			formatOptional(r.MissDistanceKm),
			formatOptional(r.MissDistanceLunar),
			formatOptional(r.MissDistanceAU),
			r.OrbitingBody,
			r.NasaJPLURL,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func CSVFilename(start, end string) string {
	return "asteroid_data_" + start + "_" + end + ".csv"
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func roundPtr(v float64, places int) *float64 {
	r := round(v, places)
	return &r
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
