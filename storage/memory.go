package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage is an in-memory double for the DynamoDB storage: the Games
// and Players views implement GameStorage and PlayerStorage with the same
// conditional-update semantics, and MemoryStorage itself implements GameFeed
// and PlayerFeed with notifications delivered on mutation instead of by
// polling. Used by tests and local runs without AWS credentials.
type MemoryStorage struct {
	mu      sync.Mutex
	games   map[string]Game
	players map[string]Player

	gameSubs   map[string][]chan GameChange
	playerSubs map[string][]chan PlayerChange
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		games:      make(map[string]Game),
		players:    make(map[string]Player),
		gameSubs:   make(map[string][]chan GameChange),
		playerSubs: make(map[string][]chan PlayerChange),
	}
}

// Games returns the GameStorage view.
func (s *MemoryStorage) Games() *MemoryGameStorage { return &MemoryGameStorage{s: s} }

// Players returns the PlayerStorage view.
func (s *MemoryStorage) Players() *MemoryPlayerStorage { return &MemoryPlayerStorage{s: s} }

type MemoryGameStorage struct {
	s *MemoryStorage
}

func (g *MemoryGameStorage) Create(_ context.Context, game *Game) error {
	s := g.s
	s.mu.Lock()
	if _, ok := s.games[game.ID]; ok {
		s.mu.Unlock()
		return ErrGameAlreadyExists
	}
	now := time.Now().UTC()
	if game.CreatedAt.IsZero() {
		game.CreatedAt = now
	}
	game.UpdatedAt = now
	s.games[game.ID] = *game
	stored := *game
	s.mu.Unlock()

	s.notifyGame(game.ID, GameChange{Kind: ChangeCreated, Game: &stored})
	return nil
}

func (g *MemoryGameStorage) Get(_ context.Context, id string) (*Game, error) {
	s := g.s
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return &game, nil
}

func (g *MemoryGameStorage) Touch(_ context.Context, id string) error {
	return g.update(id, func(game *Game) error { return nil })
}

func (g *MemoryGameStorage) AdvancePhase(_ context.Context, id string, from, to RoundPhase) error {
	return g.update(id, func(game *Game) error {
		if game.Phase != from {
			return ErrConditionFailed
		}
		game.Phase = to
		return nil
	})
}

func (g *MemoryGameStorage) Finalize(_ context.Context, id string, average *float64) error {
	return g.update(id, func(game *Game) error {
		if game.Phase == PhaseFinished {
			return ErrConditionFailed
		}
		game.Phase = PhaseFinished
		game.Average = average
		return nil
	})
}

func (g *MemoryGameStorage) ResetRound(_ context.Context, id string) error {
	return g.update(id, func(game *Game) error {
		game.Phase = PhaseStarted
		game.Average = nil
		return nil
	})
}

// Delete removes a game record. Not part of GameStorage; exists so tests
// can simulate the external administrative deletion that the core only ever
// observes as a not-found condition.
func (g *MemoryGameStorage) Delete(id string) {
	s := g.s
	s.mu.Lock()
	_, ok := s.games[id]
	delete(s.games, id)
	s.mu.Unlock()

	if ok {
		s.notifyGame(id, GameChange{Kind: ChangeDeleted, Game: &Game{ID: id}})
	}
}

func (g *MemoryGameStorage) update(id string, apply func(*Game) error) error {
	s := g.s
	s.mu.Lock()
	game, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return ErrGameNotFound
	}
	if err := apply(&game); err != nil {
		s.mu.Unlock()
		return err
	}
	game.UpdatedAt = time.Now().UTC()
	s.games[id] = game
	s.mu.Unlock()

	s.notifyGame(id, GameChange{Kind: ChangeUpdated, Game: &game})
	return nil
}

type MemoryPlayerStorage struct {
	s *MemoryStorage
}

func (p *MemoryPlayerStorage) Get(_ context.Context, id string) (*Player, error) {
	s := p.s
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return &player, nil
}

func (p *MemoryPlayerStorage) Put(_ context.Context, player *Player) error {
	s := p.s
	s.mu.Lock()
	prev, existed := s.players[player.ID]
	now := time.Now().UTC()
	if player.CreatedAt.IsZero() {
		player.CreatedAt = now
	}
	player.UpdatedAt = now
	s.players[player.ID] = *player
	stored := *player
	s.mu.Unlock()

	kind := ChangeCreated
	if existed {
		kind = ChangeUpdated
	}
	s.notifyPlayer(stored.GameID, PlayerChange{Kind: kind, Player: &stored})
	if existed && prev.GameID != stored.GameID {
		// The old game's member list shrank; its watchers see a deletion.
		s.notifyPlayer(prev.GameID, PlayerChange{Kind: ChangeDeleted, Player: &Player{ID: stored.ID, GameID: prev.GameID}})
	}
	return nil
}

func (p *MemoryPlayerStorage) SetVote(_ context.Context, id, gameID, value string) error {
	return p.update(id, func(player *Player) error {
		if player.GameID != gameID {
			return ErrPlayerNotFound
		}
		v := value
		player.Value = &v
		player.State = VoteFinished
		return nil
	})
}

func (p *MemoryPlayerStorage) ClearVote(_ context.Context, id string) error {
	return p.update(id, func(player *Player) error {
		player.Value = nil
		player.State = VoteNotStarted
		return nil
	})
}

func (p *MemoryPlayerStorage) ListByGame(_ context.Context, gameID string) ([]*Player, error) {
	s := p.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var players []*Player
	for _, rec := range s.players {
		if rec.GameID == gameID {
			player := rec
			players = append(players, &player)
		}
	}
	return players, nil
}

func (p *MemoryPlayerStorage) update(id string, apply func(*Player) error) error {
	s := p.s
	s.mu.Lock()
	player, ok := s.players[id]
	if !ok {
		s.mu.Unlock()
		return ErrPlayerNotFound
	}
	if err := apply(&player); err != nil {
		s.mu.Unlock()
		return err
	}
	player.UpdatedAt = time.Now().UTC()
	s.players[id] = player
	s.mu.Unlock()

	s.notifyPlayer(player.GameID, PlayerChange{Kind: ChangeUpdated, Player: &player})
	return nil
}

func (s *MemoryStorage) WatchGame(ctx context.Context, id string) (<-chan GameChange, error) {
	ch := make(chan GameChange, 64)
	s.mu.Lock()
	s.gameSubs[id] = append(s.gameSubs[id], ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		subs := s.gameSubs[id]
		for i, sub := range subs {
			if sub == ch {
				s.gameSubs[id] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		close(ch)
		s.mu.Unlock()
	}()

	return ch, nil
}

func (s *MemoryStorage) WatchPlayers(ctx context.Context, gameID string) (<-chan PlayerChange, error) {
	ch := make(chan PlayerChange, 64)
	s.mu.Lock()
	s.playerSubs[gameID] = append(s.playerSubs[gameID], ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		subs := s.playerSubs[gameID]
		for i, sub := range subs {
			if sub == ch {
				s.playerSubs[gameID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		close(ch)
		s.mu.Unlock()
	}()

	return ch, nil
}

// Sends happen under the mutex so a channel is never closed mid-send; they
// never block because a full subscriber re-reads everything on its next
// notification anyway.
func (s *MemoryStorage) notifyGame(id string, change GameChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.gameSubs[id] {
		select {
		case ch <- change:
		default:
		}
	}
}

func (s *MemoryStorage) notifyPlayer(gameID string, change PlayerChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.playerSubs[gameID] {
		select {
		case ch <- change:
		default:
		}
	}
}
