package tilestore

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// MaxZoom is the highest zoom level a Key may have.
const MaxZoom = 30

// DefaultExtension is the file extension used for tile names.
const DefaultExtension = "mvt"

// Key addresses a tile in the XYZ (slippy map) scheme.
type Key struct {
	Z, X, Y uint32
}

// Valid reports whether the coordinates lie inside the zoom level.
func (k Key) Valid() bool {
	if k.Z > MaxZoom {
		return false
	}
	n := uint32(1) << k.Z
	return k.X < n && k.Y < n
}

// FlipY converts between the XYZ and TMS row numbering.
func (k Key) FlipY() Key {
	return Key{Z: k.Z, X: k.X, Y: (uint32(1) << k.Z) - 1 - k.Y}
}

// Path returns the tile name "z/x/y.ext". An empty ext means DefaultExtension.
func (k Key) Path(ext string) string {
	if ext == "" {
		ext = DefaultExtension
	}
	return fmt.Sprintf("%d/%d/%d.%s", k.Z, k.X, k.Y, ext)
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%d/%d", k.Z, k.X, k.Y)
}

// ParseKey parses a tile name of the form "z/x/y" or "z/x/y.ext", ignoring
// a leading slash.
func ParseKey(name string) (Key, error) {
	name = strings.TrimPrefix(name, "/")
	if ext := path.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	parts := strings.Split(name, "/")
	if len(parts) != 3 {
		return Key{}, fmt.Errorf("invalid tile name %q", name)
	}
	var nums [3]uint32
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return Key{}, fmt.Errorf("invalid tile name %q: %w", name, err)
		}
		nums[i] = uint32(v)
	}
	k := Key{Z: nums[0], X: nums[1], Y: nums[2]}
	if !k.Valid() {
		return Key{}, fmt.Errorf("tile %s out of range", k)
	}
	return k, nil
}
