// Package camera declares the camera-database surface the decoder core
// consumes but does not implement (spec.md §1, §6): per-model CFA
// geometry, crop window, black/white points, and support/hint flags,
// looked up by (make, model, mode). Populating a Database from the
// per-camera XML metadata the real ecosystem ships is explicitly out
// of this specification's scope; this package only defines the shape
// decodeMetaData/checkSupport query against.
package camera

// Hints are free-form per-model overrides (e.g. "swap_red_blue",
// "real_bpp") keyed by name rather than by a dedicated typed field,
// mirroring how camera-database-driven decoders are commonly
// parameterized in the wider ecosystem. No decoder in this module
// reads them.
type Hints map[string]string

// Profile is the camera-specific calibration data the core consults
// once it has located and sized a raw tile. Supported=false means the
// database recognizes the (make, model, mode) triple but the format is
// explicitly not implemented; a Profile not being found at all is a
// distinct "unknown camera" outcome (see Database.Get's second return).
type Profile struct {
	CFA        CFAPattern
	CropPos    Point
	CropSize   Size
	BlackLevel [4]int32
	WhitePoint int32
	Supported  bool
	Hints      Hints
}

// CFAPattern is a small textual description of the 2x2 (or larger)
// color-filter tile, e.g. "RGGB"; the decoder core only needs this to
// hand to the image buffer's CFA geometry, not to interpret further.
type CFAPattern string

type Point struct{ X, Y int }
type Size struct{ W, H int }

// Database is the interface decodeMetaData(cameraDatabase) and
// checkSupport(cameraDatabase) consult, per spec.md §6's external
// interface. A real implementation loads it from the per-camera XML
// metadata (explicitly out of this specification's scope); this
// package ships only an in-memory Static implementation useful for
// tests and for callers that want to hand-register a handful of
// profiles without depending on an external data file.
type Database interface {
	// Get returns the profile for (make, model, mode), and whether one
	// was found at all (as opposed to found-but-unsupported).
	Get(make, model, mode string) (Profile, bool)
}

// Static is a Database backed by an in-memory map, keyed by
// "make/model/mode".
type Static map[string]Profile

func key(make, model, mode string) string { return make + "/" + model + "/" + mode }

// Get implements Database.
func (s Static) Get(make, model, mode string) (Profile, bool) {
	p, ok := s[key(make, model, mode)]
	return p, ok
}

// Set registers or replaces a profile for (make, model, mode).
func (s Static) Set(make, model, mode string, p Profile) {
	s[key(make, model, mode)] = p
}
