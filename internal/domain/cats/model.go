package cats

import "time"

const PointType = "Point"

// Point es un punto GeoJSON: Coordinates = [lng, lat].
type Point struct {
	Type        string    `validate:"eq=Point"`
	Coordinates []float64 `validate:"len=2"`
}

func NewPoint(lat, lng float64) Point {
	return Point{Type: PointType, Coordinates: []float64{lng, lat}}
}

func (p Point) Lng() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[0]
}

func (p Point) Lat() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[1]
}

// Cat es el registro persistido en el document store.
// Owner es solo el id del usuario en el servicio de identidad (referencia débil):
// el usuario se hidrata aparte, nunca se embebe.
type Cat struct {
	ID string

	Name      string
	Weight    float64
	Birthdate time.Time
	Filename  string
	Location  Point

	Owner string

	CreatedAt time.Time
	UpdatedAt time.Time
}
