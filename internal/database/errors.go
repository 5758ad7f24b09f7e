package database

import "errors"

var (
	// ErrArchiveNotFound is returned by Open when the archive must already exist.
	ErrArchiveNotFound = errors.New("archive not found")

	// ErrRunNotFound is returned when a run id is not in the archive.
	ErrRunNotFound = errors.New("run not found")
)
