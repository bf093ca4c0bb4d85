package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/lightcade/lightcade/internal/api/request"
	"github.com/lightcade/lightcade/internal/api/response"
	"github.com/lightcade/lightcade/internal/model"
	"github.com/lightcade/lightcade/internal/remote"
	"github.com/lightcade/lightcade/internal/services/slots"
)

// SlotHandler handles slot-related endpoints
type SlotHandler struct {
	registry *slots.Service
}

// NewSlotHandler creates a new slot handler
func NewSlotHandler(registry *slots.Service) *SlotHandler {
	return &SlotHandler{
		registry: registry,
	}
}

// List handles GET /api/v1/slots
func (h *SlotHandler) List(w http.ResponseWriter, r *http.Request) {
	all := h.registry.Slots()
	out := make([]response.Slot, 0, len(all))
	for _, slot := range all {
		out = append(out, response.SlotFromModel(slot))
	}
	response.JSON(w, http.StatusOK, out)
}

// AssignDevice handles PUT /api/v1/slots/{index}/device
func (h *SlotHandler) AssignDevice(w http.ResponseWriter, r *http.Request) {
	slotIndex, err := slotIndexVar(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.AssignDevice
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	h.registry.AssignDevice(r.Context(), slotIndex, req.DeviceIndex)

	slot, err := h.registry.Slot(slotIndex)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.SlotFromModel(slot))
}

// Login handles POST /api/v1/slots/{index}/login
func (h *SlotHandler) Login(w http.ResponseWriter, r *http.Request) {
	slotIndex, err := slotIndexVar(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.Login
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	identity, err := h.registry.Login(r.Context(), slotIndex, remote.Credential{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.IdentityFromModel(identity))
}

// SetGuest handles POST /api/v1/slots/{index}/guest
func (h *SlotHandler) SetGuest(w http.ResponseWriter, r *http.Request) {
	slotIndex, err := slotIndexVar(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.SetGuest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	identity, err := h.registry.SetGuest(r.Context(), slotIndex, req.Name)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.IdentityFromModel(identity))
}

// Logout handles POST /api/v1/slots/{index}/logout
func (h *SlotHandler) Logout(w http.ResponseWriter, r *http.Request) {
	slotIndex, err := slotIndexVar(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.registry.Logout(r.Context(), slotIndex); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// ResolveDevice handles GET /api/v1/devices/{index}/identity
func (h *SlotHandler) ResolveDevice(w http.ResponseWriter, r *http.Request) {
	deviceIndex, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		WriteError(w, NewInvalidRequestError("invalid device index"))
		return
	}

	identity := h.registry.ResolveForDevice(deviceIndex)
	if identity == nil {
		WriteError(w, model.ErrNotFound)
		return
	}
	response.JSON(w, http.StatusOK, response.IdentityFromModel(*identity))
}

// slotIndexVar parses the slot index path variable
func slotIndexVar(r *http.Request) (int, error) {
	idx, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil || !model.ValidSlotIndex(idx) {
		return 0, model.ErrInvalidSlot
	}
	return idx, nil
}
