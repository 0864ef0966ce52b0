package storage

import "errors"

var ErrGameNotFound = errors.New("game not found in storage")
var ErrPlayerNotFound = errors.New("player not found in storage")
var ErrGameAlreadyExists = errors.New("game with this id already exists")

// ErrConditionFailed is returned when a conditional update finds the record
// no longer in the expected state (for example finalizing a round that a
// concurrent client already finalized).
var ErrConditionFailed = errors.New("conditional update failed")
