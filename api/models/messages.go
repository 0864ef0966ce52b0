package models

// Message kinds for transient client display. The client decides how long
// an info message lingers before auto-dismissing.
const (
	KindInfo  = "info"
	KindError = "error"
)

// Message keys returned by every operation; the client resolves them to
// localized text.
const (
	MsgGameCreated     = "GAME_CREATED"
	MsgGameJoined      = "GAME_JOINED"
	MsgGameNotFound    = "GAME_NOT_FOUND"
	MsgPlayerNotFound  = "PLAYER_NOT_FOUND"
	MsgVoteRecorded    = "VOTE_RECORDED"
	MsgVotingClosed    = "VOTING_CLOSED"
	MsgNotAuthorized   = "NOT_AUTHORIZED"
	MsgVotesRevealed   = "VOTES_REVEALED"
	MsgAlreadyRevealed = "ALREADY_REVEALED"
	MsgRoundReset      = "ROUND_RESET"
	MsgResetPartial    = "RESET_PARTIAL"
	MsgUnavailable     = "SERVICE_UNAVAILABLE"
	MsgInvalidRequest  = "INVALID_REQUEST"
	MsgInternalError   = "INTERNAL_ERROR"
)

type StatusResponse struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
}
