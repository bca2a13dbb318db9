// internal/handlers/match_server.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mkarlsen/spireline/internal/auth"
	"github.com/mkarlsen/spireline/internal/cache"
	"github.com/mkarlsen/spireline/internal/database"
	"github.com/mkarlsen/spireline/internal/engine"
	"github.com/mkarlsen/spireline/internal/models"
)

// MatchServer holds the live match sessions and creates new ones. Each
// session owns its state and drains its own action queue; the server only
// routes connections and persistence.
type MatchServer struct {
	Logger *logrus.Logger

	// Persist enables postgres match saves; PublishHistory enables the
	// redis history queue. Both optional: the engine is complete without
	// either.
	Persist        bool
	PublishHistory bool

	mu      sync.Mutex
	matches map[uuid.UUID]*liveMatch
}

// liveMatch pairs a session with what a reconnect or save needs.
type liveMatch struct {
	session *engine.Session
	adapter *engine.Adapter
	initial engine.GameState
}

// NewMatchServer builds an empty server.
func NewMatchServer(logger *logrus.Logger) *MatchServer {
	if logger == nil {
		logger = logrus.New()
	}
	return &MatchServer{
		Logger:  logger,
		matches: make(map[uuid.UUID]*liveMatch),
	}
}

// starterState builds the demo combat every new match begins with.
func starterState() engine.GameState {
	hand := []models.Card{
		models.NewCard("Strike", 1),
		models.NewCard("Strike", 1),
		models.NewCard("Red Horse", 1),
		models.NewCard("Bandage", 1),
		models.NewCard("Reckless Lunge", 1),
	}
	draw := []models.Card{
		models.NewCard("Strike", 1),
		models.NewCard("Strike", 1),
		models.NewCard("Bandage", 1),
		models.NewCard("Red Horse", 1),
		models.NewCard("Strike", 1),
	}
	return engine.GameState{
		Hand:     hand,
		DrawPile: draw,
		Enemies: []models.Enemy{
			models.NewEnemy("Cultist", 24, 15),
			models.NewEnemy("Jaw Worm", 20, 25),
		},
		Player: models.PlayerStats{
			Health: 70, MaxHealth: 80,
			Energy: 3, MaxEnergy: 3,
		},
	}
}

// createMatch spins up a session, wiring the history queue and persistence
// hooks when enabled.
func (ms *MatchServer) createMatch() *liveMatch {
	initial := starterState()
	adapter := engine.NewAdapter()
	session := engine.NewSession(initial, adapter, ms.Logger)

	ms.wireHistoryQueue(session)
	if ms.Persist {
		if err := database.SaveMatch(context.Background(), session.Save(initial)); err != nil {
			ms.Logger.WithError(err).WithField("match_id", session.ID).
				Warn("failed to persist initial match save")
		}
	}

	lm := &liveMatch{session: session, adapter: adapter, initial: initial}
	ms.mu.Lock()
	ms.matches[session.ID] = lm
	ms.mu.Unlock()
	return lm
}

// wireHistoryQueue hooks the session's record stream into the redis history
// queue when publishing is enabled.
func (ms *MatchServer) wireHistoryQueue(session *engine.Session) {
	if !ms.PublishHistory {
		return
	}
	matchID := session.ID
	session.History().OnRecord(func(e engine.HistoryEntry) {
		rec := cache.NewHistoryRecord(matchID, e)
		if err := cache.PublishHistoryRecord(context.Background(), rec); err != nil {
			ms.Logger.WithError(err).WithField("match_id", matchID).
				Warn("failed to publish history record")
		}
	})
}

func (ms *MatchServer) getMatch(id uuid.UUID) (*liveMatch, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	lm, ok := ms.matches[id]
	return lm, ok
}

// CreateMatchHandler starts a new match and returns its ID plus a session
// token for the websocket.
func (ms *MatchServer) CreateMatchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	lm := ms.createMatch()
	token, err := auth.CreateMatchToken(lm.session.ID.String())
	if err != nil {
		ms.Logger.WithError(err).Error("failed to mint match token")
		http.Error(w, "failed to create match", http.StatusInternalServerError)
		return
	}

	ms.Logger.WithField("match_id", lm.session.ID).Info("match created")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"match_id": lm.session.ID.String(),
		"token":    token,
	})
}

// SaveMatchHandler persists the match's current save on demand.
func (ms *MatchServer) SaveMatchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	matchID, err := uuid.Parse(r.URL.Query().Get("match_id"))
	if err != nil {
		http.Error(w, "invalid match_id", http.StatusBadRequest)
		return
	}
	lm, ok := ms.getMatch(matchID)
	if !ok {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}
	if !ms.Persist {
		http.Error(w, "persistence disabled", http.StatusServiceUnavailable)
		return
	}
	if err := database.SaveMatch(r.Context(), lm.session.Save(lm.initial)); err != nil {
		ms.Logger.WithError(err).WithField("match_id", matchID).Error("save failed")
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LoadMatchHandler restores a persisted match into a live session by
// replaying its history, then returns a fresh token for it.
func (ms *MatchServer) LoadMatchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	if !ms.Persist {
		http.Error(w, "persistence disabled", http.StatusServiceUnavailable)
		return
	}
	matchID, err := uuid.Parse(r.URL.Query().Get("match_id"))
	if err != nil {
		http.Error(w, "invalid match_id", http.StatusBadRequest)
		return
	}

	save, err := database.LoadMatch(r.Context(), matchID)
	if err != nil {
		ms.Logger.WithError(err).WithField("match_id", matchID).Warn("load failed")
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}

	// The restored session keeps the match ID and its recorded history, so
	// a later save continues the same persisted match instead of forking a
	// fresh one that forgets the pre-load entries.
	adapter := engine.NewAdapter()
	session, err := engine.RestoreSession(save, adapter, ms.Logger)
	if err != nil {
		ms.Logger.WithError(err).WithField("match_id", matchID).Error("replay failed")
		http.Error(w, "corrupt match history", http.StatusInternalServerError)
		return
	}
	ms.wireHistoryQueue(session)

	lm := &liveMatch{session: session, adapter: adapter, initial: save.InitialState}
	ms.mu.Lock()
	ms.matches[session.ID] = lm
	ms.mu.Unlock()

	token, err := auth.CreateMatchToken(session.ID.String())
	if err != nil {
		http.Error(w, "failed to mint token", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"match_id": session.ID.String(),
		"token":    token,
	})
}

// PingHandler is a trivial liveness check.
func PingHandler(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("pong"))
}
