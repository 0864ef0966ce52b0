package storage

import "context"

type ChangeKind string

const (
	ChangeCreated ChangeKind = "Created"
	ChangeUpdated ChangeKind = "Updated"
	ChangeDeleted ChangeKind = "Deleted"
)

type GameChange struct {
	Kind ChangeKind
	Game *Game
}

type PlayerChange struct {
	Kind   ChangeKind
	Player *Player
}

// GameFeed and PlayerFeed deliver change notifications for one game and for
// the players of one game. Delivery is at-least-once and the two feeds carry
// no ordering guarantee relative to each other; consumers must do an initial
// full fetch and re-read the freshest state on every notification. Channels
// close when the context is cancelled or (for games) when the record is
// observed deleted.
type GameFeed interface {
	WatchGame(ctx context.Context, id string) (<-chan GameChange, error)
}

type PlayerFeed interface {
	WatchPlayers(ctx context.Context, gameID string) (<-chan PlayerChange, error)
}
