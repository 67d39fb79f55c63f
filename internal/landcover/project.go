package landcover

import (
	"fmt"

	"github.com/rotisserie/eris"
	proj "github.com/twpayne/go-proj/v11"
)

// Transform converts a single coordinate pair between two reference systems.
// Implementations are not safe for concurrent use; callers obtain one
// Transform per extraction partition.
type Transform interface {
	Transform(x, y float64) (float64, float64, error)
}

// Reprojector creates transforms between EPSG-coded reference systems. The
// projection math itself is delegated entirely to the implementation.
type Reprojector interface {
	NewTransform(fromSRID, toSRID int) (Transform, error)
}

// ProjReprojector implements Reprojector on top of PROJ.
type ProjReprojector struct{}

// NewProjReprojector returns the PROJ-backed reprojector used in production.
func NewProjReprojector() ProjReprojector {
	return ProjReprojector{}
}

// NewTransform builds a PROJ pipeline between the two systems. Identical
// SRIDs yield a no-op transform without touching PROJ.
func (ProjReprojector) NewTransform(fromSRID, toSRID int) (Transform, error) {
	if fromSRID == toSRID {
		return identityTransform{}, nil
	}

	pj, err := proj.NewCRSToCRS(
		fmt.Sprintf("EPSG:%d", fromSRID),
		fmt.Sprintf("EPSG:%d", toSRID),
		nil,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "landcover: create transformation EPSG:%d to EPSG:%d", fromSRID, toSRID)
	}

	// PROJ honors authority axis order; geographic EPSG:4326 is lat,lon.
	return &projTransform{pj: pj, latLonInput: fromSRID == SRIDWGS84}, nil
}

type projTransform struct {
	pj          *proj.PJ
	latLonInput bool
}

func (t *projTransform) Transform(x, y float64) (float64, float64, error) {
	in := proj.Coord{x, y, 0, 0}
	if t.latLonInput {
		in = proj.Coord{y, x, 0, 0}
	}
	out, err := t.pj.Forward(in)
	if err != nil {
		return 0, 0, eris.Wrap(err, "landcover: transform coordinate")
	}
	return out.X(), out.Y(), nil
}

type identityTransform struct{}

func (identityTransform) Transform(x, y float64) (float64, float64, error) {
	return x, y, nil
}
