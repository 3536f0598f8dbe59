// Package testutil provides testing utilities for mvt.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded random source, geometry command stream helpers and
// generators for random tiles.
//
// # Random Tiles
//
//	rng := testutil.NewRNG(seed)
//	tile := testutil.RandomTile(rng, testutil.TileShape{Layers: 4, Features: 500, Tags: 6})
//
// # Geometry
//
//	g := testutil.LineString(mvt.Linestring, [][2]int32{{0, 0}, {10, 0}, {10, 10}})
package testutil
