package flappy

import "errors"

var (
	// ErrInvalidGeometry is returned by Reset when the world cannot hold a
	// valid obstacle placement range.
	ErrInvalidGeometry = errors.New("flappy: invalid world geometry")

	// ErrNotReset is returned by Step before the first Reset.
	ErrNotReset = errors.New("flappy: step called before reset")

	// ErrEpisodeOver is returned by Step after a crash until Reset is called.
	ErrEpisodeOver = errors.New("flappy: step called after crash")
)
