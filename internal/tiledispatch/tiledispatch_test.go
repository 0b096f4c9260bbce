package tiledispatch_test

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/jrm-1535/rawspeed/internal/tiledispatch"
)

func TestRunExecutesEveryTile(t *testing.T) {
	c := qt.New(t)
	var count int32
	tiles := make([]tiledispatch.Tile, 20)
	for i := range tiles {
		tiles[i] = tiledispatch.Tile{Index: i, Run: func() error {
			atomic.AddInt32(&count, 1)
			return nil
		}}
	}
	results := tiledispatch.Run(tiles, 4)
	c.Assert(results, qt.HasLen, 0)
	c.Assert(int(count), qt.Equals, 20)
}

func TestRunCollectsErrorsByIndex(t *testing.T) {
	c := qt.New(t)
	tiles := []tiledispatch.Tile{
		{Index: 0, Run: func() error { return nil }},
		{Index: 1, Run: func() error { return errors.New("boom") }},
		{Index: 2, Run: func() error { return nil }},
	}
	results := tiledispatch.Run(tiles, 2)
	c.Assert(results, qt.HasLen, 1)
	c.Assert(results[0].Index, qt.Equals, 1)
	c.Assert(results[0].Err, qt.ErrorMatches, "boom")
}

func TestRunRecoversPanics(t *testing.T) {
	c := qt.New(t)
	tiles := []tiledispatch.Tile{
		{Index: 0, Run: func() error { panic("kaboom") }},
	}
	results := tiledispatch.Run(tiles, 1)
	c.Assert(results, qt.HasLen, 1)
	c.Assert(results[0].Err, qt.ErrorMatches, ".*kaboom.*")
}

func TestRunDefaultsWorkerCountWhenNonPositive(t *testing.T) {
	c := qt.New(t)
	tiles := []tiledispatch.Tile{{Index: 0, Run: func() error { return nil }}}
	results := tiledispatch.Run(tiles, 0)
	c.Assert(results, qt.HasLen, 0)
	results = tiledispatch.Run(tiles, -3)
	c.Assert(results, qt.HasLen, 0)
}

func TestRunEmptyTileSetReturnsNoResults(t *testing.T) {
	c := qt.New(t)
	results := tiledispatch.Run(nil, 4)
	c.Assert(results, qt.HasLen, 0)
}

func TestRunDoesNotCancelSiblingsOnError(t *testing.T) {
	c := qt.New(t)
	var ran int32
	tiles := make([]tiledispatch.Tile, 10)
	for i := range tiles {
		i := i
		tiles[i] = tiledispatch.Tile{Index: i, Run: func() error {
			atomic.AddInt32(&ran, 1)
			if i%3 == 0 {
				return fmt.Errorf("tile %d failed", i)
			}
			return nil
		}}
	}
	results := tiledispatch.Run(tiles, 3)
	c.Assert(int(ran), qt.Equals, 10)
	c.Assert(len(results), qt.Equals, 4) // indices 0,3,6,9
}
