package mvt

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateName is returned by Tile.AddLayer when the tile already
	// contains a layer with the same name.
	ErrDuplicateName = errors.New("layer name already exists")

	// ErrDuplicateID is returned by Feature.SetID when a feature already
	// committed to the layer has the same id.
	ErrDuplicateID = errors.New("feature id already exists")

	// ErrEncode is matched by every *EncodeError.
	ErrEncode = errors.New("error encoding MVT data")

	// ErrStaleHandle is the panic value (wrapped) raised when a Layer or
	// Feature is used after ownership has moved elsewhere. It indicates a
	// programming error and is never returned.
	ErrStaleHandle = errors.New("stale handle")
)

// EncodeError reports a failure while serializing a tile.
//
// The original underlying error can be accessed via errors.Unwrap.
type EncodeError struct {
	// Op names the step that failed, e.g. "write layer".
	Op    string
	cause error
}

func (e *EncodeError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%s: %s", ErrEncode, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", ErrEncode, e.Op, e.cause)
}

func (e *EncodeError) Unwrap() error { return e.cause }

// Is makes errors.Is(err, ErrEncode) hold for every EncodeError.
func (e *EncodeError) Is(target error) bool { return target == ErrEncode }

func encodeError(op string, cause error) error {
	return &EncodeError{Op: op, cause: cause}
}

func duplicateName(name string) error {
	return fmt.Errorf("%w: %q", ErrDuplicateName, name)
}

func duplicateID(id uint64) error {
	return fmt.Errorf("%w: %d", ErrDuplicateID, id)
}

func stale(what, op string) {
	panic(fmt.Errorf("mvt: %s.%s: %w", what, op, ErrStaleHandle))
}
