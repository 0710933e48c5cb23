package uld

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64
	Lng float64
}

type Airport struct {
	Code string
	Name string
	Coordinate
}

var Airports = map[string]Airport{
	"TPE": {Code: "TPE", Name: "Taipei Taoyuan", Coordinate: Coordinate{Lat: 25.0797, Lng: 121.2342}},
	"LAX": {Code: "LAX", Name: "Los Angeles", Coordinate: Coordinate{Lat: 33.9416, Lng: -118.4085}},
	"NRT": {Code: "NRT", Name: "Tokyo Narita", Coordinate: Coordinate{Lat: 35.7647, Lng: 140.3864}},
	"HKG": {Code: "HKG", Name: "Hong Kong", Coordinate: Coordinate{Lat: 22.3080, Lng: 113.9185}},
	"SIN": {Code: "SIN", Name: "Singapore", Coordinate: Coordinate{Lat: 1.3644, Lng: 103.9915}},
	"BKK": {Code: "BKK", Name: "Bangkok", Coordinate: Coordinate{Lat: 13.6900, Lng: 100.7501}},
	"ICN": {Code: "ICN", Name: "Seoul Incheon", Coordinate: Coordinate{Lat: 37.4602, Lng: 126.4407}},
}

// AirportCodes is the stable ordering used for seeding and reports.
var AirportCodes = []string{"TPE", "LAX", "NRT", "HKG", "SIN", "BKK", "ICN"}

var Zones = []string{"Warehouse_A1", "Warehouse_A2", "Warehouse_B1", "Ramp_North", "Ramp_South", "Customs", "Maintenance"}

func LookupAirport(code string) (Airport, bool) {
	a, ok := Airports[code]
	return a, ok
}
