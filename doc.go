// Package mvt builds Mapbox Vector Tiles and encodes them to the vector tile
// protocol buffer format.
//
// # Quick Start
//
//	tile := mvt.NewTile(4096)
//	layer := tile.CreateLayer("roads")
//
//	feature := layer.IntoFeature(mvt.EncodedGeometry{
//	    Type: mvt.Linestring,
//	    Data: cmds, // produced by a geometry encoder
//	})
//	_ = feature.SetID(42)
//	feature.AddTagString("name", "Main St")
//	feature.AddTagUint("lanes", 2)
//	layer = feature.IntoLayer()
//
//	if err := tile.AddLayer(layer); err != nil {
//	    return err
//	}
//	data, err := tile.ToBytes() // serve as application/vnd.mapbox-vector-tile
//
// # Ownership
//
// Go has no move semantics, so ownership is tracked at run time. A Layer is
// usable only while it is detached: Layer.IntoFeature hands it to a Feature
// and Feature.IntoLayer hands it back, and a successful Tile.AddLayer hands
// it to the tile for good. Calling any method on a handle whose ownership
// has moved panics with an error wrapping ErrStaleHandle. This is always a
// bug in the caller, never a condition to recover from.
//
// # Dictionaries
//
// Each layer keeps append-only key and value dictionaries. Tags are stored
// on features as pairs of indexes into them, and identical keys or values
// (same kind and payload) share one entry.
//
// # Geometry
//
// Geometry is passed in already encoded as the command/zigzag-delta stream of
// the vector tile format. The stream is stored verbatim and never checked.
package mvt
