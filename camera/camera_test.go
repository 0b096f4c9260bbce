package camera_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/jrm-1535/rawspeed/camera"
)

func TestStaticGetMissReturnsNotFound(t *testing.T) {
	c := qt.New(t)
	db := camera.Static{}
	_, ok := db.Get("Canon", "EOS 5D", "CR2")
	c.Assert(ok, qt.IsFalse)
}

func TestStaticSetThenGetRoundTrips(t *testing.T) {
	c := qt.New(t)
	db := camera.Static{}
	profile := camera.Profile{
		CFA:        "RGGB",
		CropPos:    camera.Point{X: 2, Y: 2},
		CropSize:   camera.Size{W: 100, H: 80},
		BlackLevel: [4]int32{128, 128, 128, 128},
		WhitePoint: 16383,
		Supported:  true,
		Hints:      camera.Hints{"swap_red_blue": "true"},
	}
	db.Set("Canon", "EOS 5D", "CR2", profile)

	got, ok := db.Get("Canon", "EOS 5D", "CR2")
	c.Assert(ok, qt.IsTrue)
	c.Assert(got, qt.DeepEquals, profile)
}

func TestStaticGetDistinguishesModeAndModel(t *testing.T) {
	c := qt.New(t)
	db := camera.Static{}
	db.Set("Nikon", "D90", "NEF", camera.Profile{Supported: true})

	_, ok := db.Get("Nikon", "D90", "DNG")
	c.Assert(ok, qt.IsFalse)

	_, ok = db.Get("Nikon", "D800", "NEF")
	c.Assert(ok, qt.IsFalse)
}

func TestProfileCanBeFoundButUnsupported(t *testing.T) {
	c := qt.New(t)
	db := camera.Static{}
	db.Set("Sony", "A7", "ARW2", camera.Profile{Supported: false})

	p, ok := db.Get("Sony", "A7", "ARW2")
	c.Assert(ok, qt.IsTrue)
	c.Assert(p.Supported, qt.IsFalse)
}
