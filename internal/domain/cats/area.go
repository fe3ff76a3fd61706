package cats

import (
	"errors"
	"fmt"

	"github.com/twpayne/go-geom"
)

var ErrInvalidBounds = errors.New("invalid bounds")

// Coordinates es una esquina del rectángulo de búsqueda.
type Coordinates struct {
	Lat float64
	Lng float64
}

func (c Coordinates) inRange() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Bounds define el rectángulo por sus esquinas opuestas.
type Bounds struct {
	TopRight   Coordinates
	BottomLeft Coordinates
}

// Validate exige un rectángulo propio: TopRight estrictamente al noreste de
// BottomLeft. Esquinas invertidas o degeneradas son ErrInvalidBounds.
func (b Bounds) Validate() error {
	if !b.TopRight.inRange() || !b.BottomLeft.inRange() {
		return fmt.Errorf("%w: coordinates out of range", ErrInvalidBounds)
	}
	if b.TopRight.Lat <= b.BottomLeft.Lat {
		return fmt.Errorf("%w: topRight.lat must be greater than bottomLeft.lat", ErrInvalidBounds)
	}
	if b.TopRight.Lng <= b.BottomLeft.Lng {
		return fmt.Errorf("%w: topRight.lng must be greater than bottomLeft.lng", ErrInvalidBounds)
	}
	return nil
}

// Polygon arma el anillo cerrado de 5 puntos en sentido antihorario:
// TR, TL, BL, BR, TR. Coordenadas en orden GeoJSON (lng, lat).
func (b Bounds) Polygon() (*geom.Polygon, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	tr, bl := b.TopRight, b.BottomLeft
	ring := []geom.Coord{
		{tr.Lng, tr.Lat},
		{bl.Lng, tr.Lat},
		{bl.Lng, bl.Lat},
		{tr.Lng, bl.Lat},
		{tr.Lng, tr.Lat},
	}
	return geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{ring})
}

// Covers indica si p cae dentro del polígono o sobre su borde.
// Solo es exacto para los rectángulos alineados a ejes que arma Bounds.Polygon.
func Covers(poly *geom.Polygon, p Point) bool {
	if poly == nil || len(p.Coordinates) < 2 {
		return false
	}
	return poly.Bounds().OverlapsPoint(geom.XY, geom.Coord{p.Lng(), p.Lat()})
}
