package uld

import "time"

// ULD is a tracked unit load device (container or pallet).
type ULD struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	Status     Status    `json:"status"`
	Airport    string    `json:"airport"`
	Location   Location  `json:"location"`
	Sensors    Sensors   `json:"sensors"`
	LastUpdate time.Time `json:"lastUpdate"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Zone    string  `json:"zone"`
	Airport string  `json:"airport"`
}

type Sensors struct {
	Temperature float64 `json:"temperature"` // °C
	Humidity    float64 `json:"humidity"`    // %
	ShockLevel  float64 `json:"shockLevel"`  // g
	Battery     float64 `json:"battery"`     // %
}

// Type is the IATA ULD contour/type code.
type Type string

const (
	TypeAKE Type = "AKE"
	TypeAKN Type = "AKN"
	TypeAMA Type = "AMA"
	TypeAAP Type = "AAP"
)

var Types = []Type{TypeAKE, TypeAKN, TypeAMA, TypeAAP}

type Status string

const (
	StatusAvailable   Status = "available"
	StatusInUse       Status = "in-use"
	StatusInTransit   Status = "in-transit"
	StatusMaintenance Status = "maintenance"
	StatusLost        Status = "lost"
)

// Statuses lists every status in reporting order.
var Statuses = []Status{StatusAvailable, StatusInUse, StatusInTransit, StatusMaintenance, StatusLost}

// ActiveStatuses are the statuses the simulator may assign at random.
var ActiveStatuses = []Status{StatusAvailable, StatusInUse, StatusInTransit, StatusMaintenance}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

func (t Type) Valid() bool {
	for _, v := range Types {
		if t == v {
			return true
		}
	}
	return false
}

// Clone returns a copy safe to hand out of the registry.
func (u *ULD) Clone() ULD {
	return *u
}
