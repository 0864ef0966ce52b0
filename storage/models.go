package storage

import "time"

// RoundPhase is the lifecycle of a game round. A game cycles
// Started -> InProgress -> Finished and back to Started on reset.
type RoundPhase string

const (
	PhaseStarted    RoundPhase = "Started"
	PhaseInProgress RoundPhase = "InProgress"
	PhaseFinished   RoundPhase = "Finished"
)

// VoteState is the per-player voting progress within the current round.
// Deliberately a separate type from RoundPhase even though the string
// values overlap on the wire.
type VoteState string

const (
	VoteNotStarted VoteState = "NotStarted"
	VoteInProgress VoteState = "InProgress"
	VoteFinished   VoteState = "Finished"
)

type Game struct {
	ID                 string     `dynamodbav:"PK" json:"id"`
	Name               string     `dynamodbav:"Name" json:"name"`
	StoryName          string     `dynamodbav:"StoryName" json:"storyName,omitempty"`
	DeckType           string     `dynamodbav:"DeckType" json:"deckType"`
	Cards              []string   `dynamodbav:"Cards" json:"cards"`
	Phase              RoundPhase `dynamodbav:"Phase" json:"phase"`
	AutoReveal         bool       `dynamodbav:"AutoReveal" json:"autoReveal"`
	AllowMembersManage bool       `dynamodbav:"AllowMembersManage" json:"allowMembersManage"`
	Average            *float64   `dynamodbav:"Average" json:"average"`
	CreatedByID        string     `dynamodbav:"CreatedByID" json:"createdById"`
	CreatedByName      string     `dynamodbav:"CreatedByName" json:"createdByName"`
	CreatedAt          time.Time  `dynamodbav:"CreatedAt" json:"createdAt"`
	UpdatedAt          time.Time  `dynamodbav:"UpdatedAt" json:"updatedAt"`
}

// Player belongs to exactly one game at a time. The ID is stable per
// browser/device and survives moving between games; joining another game
// re-parents the record instead of duplicating it.
type Player struct {
	ID        string    `dynamodbav:"PK" json:"id"`
	GameID    string    `dynamodbav:"GameID" json:"gameId"`
	Name      string    `dynamodbav:"Name" json:"name"`
	State     VoteState `dynamodbav:"VoteState" json:"state"`
	Value     *string   `dynamodbav:"Value" json:"-"`
	CreatedAt time.Time `dynamodbav:"CreatedAt" json:"createdAt"`
	UpdatedAt time.Time `dynamodbav:"UpdatedAt" json:"updatedAt"`
}
