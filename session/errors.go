package session

import (
	"errors"
	"fmt"
)

// ErrDependencyUnavailable means the caller's identity or the storage
// collaborator was not available at call time. The operation is aborted and
// never retried here.
var ErrDependencyUnavailable = errors.New("storage or identity dependency unavailable")

// ErrNotAuthorized rejects a reveal or reset from a player who is neither
// the moderator nor delegated via the allow-members-manage flag.
var ErrNotAuthorized = errors.New("player is not allowed to manage this game")

// ErrVotingClosed rejects a vote cast after the round was revealed.
var ErrVotingClosed = errors.New("round is revealed, voting is closed")

// ErrAlreadyRevealed rejects a duplicate reveal. Reveal is deliberately not
// idempotent: the second caller is told someone beat them to it.
var ErrAlreadyRevealed = errors.New("round was already revealed")

// PartialApplyError reports a round reset that committed the game-level
// transition but failed to clear one or more players. The cleared state is
// not rolled back; clearing is idempotent, so the reset can simply be
// retried.
type PartialApplyError struct {
	GameID        string
	FailedPlayers []string
	Err           error
}

func (e *PartialApplyError) Error() string {
	return fmt.Sprintf("reset of game %s left %d players uncleared: %v", e.GameID, len(e.FailedPlayers), e.Err)
}

func (e *PartialApplyError) Unwrap() error { return e.Err }
