package service

import "errors"

var (
	// ErrUnknownSession is returned for a missing, reset or evicted session id.
	ErrUnknownSession = errors.New("unknown session")

	// ErrNoArtifact is returned when a session has no generated report.
	ErrNoArtifact = errors.New("no artifact available")
)
