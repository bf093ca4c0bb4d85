package handler

import (
	"encoding/json"
	"net/http"

	"github.com/lightcade/lightcade/internal/api/request"
	"github.com/lightcade/lightcade/internal/api/response"
	"github.com/lightcade/lightcade/internal/model"
	"github.com/lightcade/lightcade/internal/services/ledger"
	"github.com/lightcade/lightcade/internal/services/relay"
	"github.com/lightcade/lightcade/internal/services/slots"
)

// ScoreHandler handles score-related endpoints
type ScoreHandler struct {
	registry *slots.Service
	ledger   *ledger.Service
	relay    *relay.Relay
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(registry *slots.Service, ledgerService *ledger.Service, scoreRelay *relay.Relay) *ScoreHandler {
	return &ScoreHandler{
		registry: registry,
		ledger:   ledgerService,
		relay:    scoreRelay,
	}
}

// Submit handles POST /api/v1/slots/{index}/scores
func (h *ScoreHandler) Submit(w http.ResponseWriter, r *http.Request) {
	slotIndex, err := slotIndexVar(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.SubmitScore
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.GameID == "" {
		WriteError(w, NewInvalidRequestError("game_id is required"))
		return
	}

	identity, err := h.slotIdentity(slotIndex)
	if err != nil {
		WriteError(w, err)
		return
	}

	key := model.GameKey{GameID: req.GameID, Mode: req.Mode, Difficulty: req.Difficulty}
	result, err := h.ledger.Submit(r.Context(), identity, key, req.Value, req.Metadata)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SubmitResultFromLedger(result))
}

// Best handles GET /api/v1/slots/{index}/best
func (h *ScoreHandler) Best(w http.ResponseWriter, r *http.Request) {
	slotIndex, err := slotIndexVar(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	query := r.URL.Query()
	key := model.GameKey{
		GameID:     query.Get("game_id"),
		Mode:       query.Get("mode"),
		Difficulty: query.Get("difficulty"),
	}
	if key.GameID == "" {
		WriteError(w, NewInvalidRequestError("game_id is required"))
		return
	}

	identity, err := h.slotIdentity(slotIndex)
	if err != nil {
		WriteError(w, err)
		return
	}

	pb, err := h.ledger.Best(r.Context(), identity, key)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PersonalBestFromModel(pb))
}

// ConnectivityRestored handles POST /api/v1/connectivity/restored. The shell
// calls this when its connectivity probe comes back up; the relay replays the
// score queue in the background.
func (h *ScoreHandler) ConnectivityRestored(w http.ResponseWriter, r *http.Request) {
	h.relay.Notify()
	response.NoContent(w)
}

// QueueLength handles GET /api/v1/scores/queue
func (h *ScoreHandler) QueueLength(w http.ResponseWriter, r *http.Request) {
	length, err := h.ledger.QueueLength(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]int{"length": length})
}

func (h *ScoreHandler) slotIdentity(slotIndex int) (model.Identity, error) {
	slot, err := h.registry.Slot(slotIndex)
	if err != nil {
		return model.Identity{}, err
	}
	if !slot.IsActive() {
		return model.Identity{}, model.ErrNotFound
	}
	return *slot.Identity, nil
}
