package session

import "github.com/pankaj9057/planning-poker/storage"

// View is the derived, read-only facts the UI needs about a snapshot from
// one player's perspective. Views are recomputed from every snapshot and
// never stored.
type View struct {
	FinishedCount int  `json:"finishedCount"`
	TotalPlayers  int  `json:"totalPlayers"`
	IsModerator   bool `json:"isModerator"`
	CanManage     bool `json:"canManage"`
	CanReveal     bool `json:"canReveal"`
	CanReset      bool `json:"canReset"`
}

// ProjectView derives the view flags for selfID. A nil game yields the zero
// view.
func ProjectView(g *storage.Game, players []*storage.Player, selfID string) View {
	if g == nil {
		return View{}
	}

	finished := 0
	for _, p := range players {
		if p.State == storage.VoteFinished {
			finished++
		}
	}

	canManage := Authorized(g, selfID)
	return View{
		FinishedCount: finished,
		TotalPlayers:  len(players),
		IsModerator:   g.CreatedByID == selfID,
		CanManage:     canManage,
		CanReveal:     canManage && g.Phase != storage.PhaseFinished,
		CanReset:      canManage && g.Phase == storage.PhaseFinished,
	}
}
