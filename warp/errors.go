package warp

import "errors"

var (
	// ErrMissingDependency marks a programmer error: a nil collaborator or a
	// frame computed with no session.
	ErrMissingDependency = errors.New("warp: missing dependency")
	ErrNoSession         = errors.New("warp: no active session")

	ErrNoWarpWindow       = errors.New("warp: animation has no warp window")
	ErrTargetTooClose     = errors.New("warp: target too close")
	ErrAngleTooWide       = errors.New("warp: target angle too wide")
	ErrInsufficientMotion = errors.New("warp: insufficient motion")
	ErrTargetUnreachable  = errors.New("warp: target unreachable")
)
