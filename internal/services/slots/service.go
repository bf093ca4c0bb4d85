package slots

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/lightcade/lightcade/internal/dependencies/random"
	"github.com/lightcade/lightcade/internal/localstore"
	"github.com/lightcade/lightcade/internal/model"
	"github.com/lightcade/lightcade/internal/remote"
)

const (
	slotsKey = "state"
	guestKey = "identity"

	guestNameAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
)

// persistedSlot is the durable shape of a slot. Session tokens and registered
// identity payloads are deliberately never persisted.
type persistedSlot struct {
	Index       int    `json:"index"`
	DeviceIndex *int   `json:"device_index,omitempty"`
	GuestName   string `json:"guest_name,omitempty"`
	IsGuest     bool   `json:"is_guest"`
}

// persistedGuest is the device's stable guest identity
type persistedGuest struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Listener is notified after a slot changes
type Listener func(slot model.PlayerSlot)

// Service is the slot registry: up to four local player positions, each
// holding an identity and optionally a physical input-device binding.
type Service struct {
	store  localstore.Store
	remote remote.Remote
	random random.Random
	logger *slog.Logger

	mu        sync.RWMutex
	slots     [model.MaxSlots]model.PlayerSlot
	listeners []Listener

	// swapMu serializes every login against the shared auth channel.
	// Concurrent secondary-slot logins would otherwise race on the
	// capture/exchange/restore sequence and corrupt the global session.
	swapMu sync.Mutex
}

// New creates a slot registry with four empty slots
func New(store localstore.Store, rem remote.Remote, rnd random.Random, logger *slog.Logger) *Service {
	s := &Service{
		store:  store,
		remote: rem,
		random: rnd,
		logger: logger,
	}
	for i := range s.slots {
		s.slots[i].Index = i
	}
	return s
}

// OnChange registers a listener called after any slot mutation
func (s *Service) OnChange(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Load restores persisted slot state. Guest slots come back as guests;
// registered slots come back empty since their sessions are never persisted.
// A missing or corrupt blob starts fresh.
func (s *Service) Load(ctx context.Context) error {
	data, err := s.store.Get(ctx, localstore.NamespaceSlots, slotsKey)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("%w: load slots: %v", model.ErrLocalStorage, err)
	}

	var persisted []persistedSlot
	if err := json.Unmarshal(data, &persisted); err != nil {
		s.logger.Warn("discarding corrupt slot state", slog.String("error", err.Error()))
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range persisted {
		if !model.ValidSlotIndex(p.Index) {
			continue
		}
		slot := &s.slots[p.Index]
		slot.DeviceIndex = p.DeviceIndex
		if p.IsGuest {
			identity := s.guestIdentity(ctx, p.GuestName)
			slot.Identity = &identity
		}
	}
	return nil
}

// Slots returns a snapshot of all slots
func (s *Service) Slots() [model.MaxSlots]model.PlayerSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots
}

// Slot returns a snapshot of one slot
func (s *Service) Slot(slotIndex int) (model.PlayerSlot, error) {
	if !model.ValidSlotIndex(slotIndex) {
		return model.PlayerSlot{}, model.ErrInvalidSlot
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots[slotIndex], nil
}

// AssignDevice binds a physical input device to a slot. A device index is
// unique across slots: assigning it here clears it from any slot that
// previously held it. An invalid slot index is a no-op.
func (s *Service) AssignDevice(ctx context.Context, slotIndex int, deviceIndex *int) {
	if !model.ValidSlotIndex(slotIndex) {
		return
	}

	s.mu.Lock()
	changed := []int{slotIndex}
	if deviceIndex != nil {
		for i := range s.slots {
			if i != slotIndex && s.slots[i].HasDevice(*deviceIndex) {
				s.slots[i].DeviceIndex = nil
				changed = append(changed, i)
			}
		}
	}
	s.slots[slotIndex].DeviceIndex = deviceIndex
	snapshots := s.snapshotLocked(changed)
	s.mu.Unlock()

	s.persist(ctx)
	s.notify(snapshots)
}

// ResolveForDevice returns the identity owning the given device, or nil. Pure
// lookup, no side effects.
func (s *Service) ResolveForDevice(deviceIndex int) *model.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.slots {
		if s.slots[i].HasDevice(deviceIndex) && s.slots[i].IsActive() {
			identity := *s.slots[i].Identity
			return &identity
		}
	}
	return nil
}

// Login authenticates a slot against the remote auth channel.
//
// The primary slot (index 0) owns the global session: its login leaves the
// new session on the shared channel. Secondary slots borrow the channel for
// the exchange and must hand it back exactly as found, on every exit path,
// including the collision-error path. The whole sequence is serialized by
// swapMu.
func (s *Service) Login(ctx context.Context, slotIndex int, cred remote.Credential) (model.Identity, error) {
	if !model.ValidSlotIndex(slotIndex) {
		return model.Identity{}, model.ErrInvalidSlot
	}

	s.swapMu.Lock()
	defer s.swapMu.Unlock()

	if slotIndex == 0 {
		return s.loginPrimary(ctx, cred)
	}
	return s.loginSecondary(ctx, slotIndex, cred)
}

func (s *Service) loginPrimary(ctx context.Context, cred remote.Credential) (model.Identity, error) {
	captured, err := s.remote.GetGlobalSession(ctx)
	if err != nil {
		return model.Identity{}, err
	}

	result, err := s.remote.Authenticate(ctx, cred)
	if err != nil {
		return model.Identity{}, err
	}

	// The exchange revealed the authoritative account id; another slot may
	// already hold this account under a different nominal identifier
	if s.accountActiveElsewhere(0, result.AccountID) {
		s.restoreGlobalSession(ctx, captured)
		return model.Identity{}, model.ErrIdentityCollision
	}

	identity := model.NewRegistered(result.AccountID, result.DisplayName)
	s.setRegistered(0, identity, result.SessionToken)

	s.persist(ctx)
	s.notify(s.snapshot(0))
	return identity, nil
}

func (s *Service) loginSecondary(ctx context.Context, slotIndex int, cred remote.Credential) (model.Identity, error) {
	captured, err := s.remote.GetGlobalSession(ctx)
	if err != nil {
		return model.Identity{}, err
	}

	// Hand the borrowed channel back no matter how we leave
	defer s.restoreGlobalSession(ctx, captured)

	result, err := s.remote.Authenticate(ctx, cred)
	if err != nil {
		return model.Identity{}, err
	}

	// Re-check by the authoritative account id the exchange revealed
	if s.accountActiveElsewhere(slotIndex, result.AccountID) {
		return model.Identity{}, model.ErrIdentityCollision
	}

	// The secondary slot keeps its own session token, independent of the
	// global session
	identity := model.NewRegistered(result.AccountID, result.DisplayName)
	s.setRegistered(slotIndex, identity, result.SessionToken)

	s.persist(ctx)
	s.notify(s.snapshot(slotIndex))
	return identity, nil
}

func (s *Service) restoreGlobalSession(ctx context.Context, token string) {
	if err := s.remote.SetGlobalSession(ctx, token); err != nil {
		s.logger.Error("failed to restore global session", slog.String("error", err.Error()))
	}
}

func (s *Service) accountActiveElsewhere(slotIndex int, accountID model.AccountID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.slots {
		if i == slotIndex {
			continue
		}
		id := s.slots[i].Identity
		if id != nil && id.Kind == model.IdentityRegistered && id.AccountID == accountID {
			return true
		}
	}
	return false
}

func (s *Service) setRegistered(slotIndex int, identity model.Identity, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slotIndex].Identity = &identity
	s.slots[slotIndex].SessionToken = token
}

// SetGuest places a guest identity in the slot. The guest id is generated
// once per device and reused ever after; only the display name varies. An
// empty name gets an auto-generated one. Any session token is cleared.
func (s *Service) SetGuest(ctx context.Context, slotIndex int, name string) (model.Identity, error) {
	if !model.ValidSlotIndex(slotIndex) {
		return model.Identity{}, model.ErrInvalidSlot
	}

	if name == "" {
		name = fmt.Sprintf("Guest-%s", s.random.String(4, guestNameAlphabet))
	}

	s.mu.Lock()
	identity := s.guestIdentity(ctx, name)
	s.slots[slotIndex].Identity = &identity
	s.slots[slotIndex].SessionToken = ""
	snapshot := s.snapshotLocked([]int{slotIndex})
	s.mu.Unlock()

	s.persist(ctx)
	s.notify(snapshot)
	return identity, nil
}

// Logout drops a slot back to a fresh guest. It never signs out the global
// auth channel: that would tear down slot 0's shared session when an
// unrelated slot leaves.
func (s *Service) Logout(ctx context.Context, slotIndex int) error {
	_, err := s.SetGuest(ctx, slotIndex, "")
	return err
}

// SyncPrimaryWithGlobalAuth is called after the global auth channel changed
// independently, e.g. the player signed in through the main menu. It only
// overwrites slot 0 if the slot is empty, a guest, or already holds the same
// account; a different registered identity is never clobbered.
func (s *Service) SyncPrimaryWithGlobalAuth(ctx context.Context, identity model.Identity, token string) {
	s.mu.Lock()
	current := s.slots[0].Identity
	if current != nil && current.Kind == model.IdentityRegistered && current.AccountID != identity.AccountID {
		s.mu.Unlock()
		return
	}
	s.slots[0].Identity = &identity
	s.slots[0].SessionToken = token
	snapshot := s.snapshotLocked([]int{0})
	s.mu.Unlock()

	s.persist(ctx)
	s.notify(snapshot)
}

// guestIdentity loads the stable per-device guest id, creating and persisting
// it on first use. Callers may hold s.mu; the store is independent.
func (s *Service) guestIdentity(ctx context.Context, name string) model.Identity {
	var g persistedGuest
	data, err := s.store.Get(ctx, localstore.NamespaceGuest, guestKey)
	if err == nil {
		if err := json.Unmarshal(data, &g); err != nil {
			g = persistedGuest{}
		}
	}

	if g.ID == "" {
		g = persistedGuest{ID: "g_" + uuid.NewString(), DisplayName: name}
		if data, err := json.Marshal(g); err == nil {
			if err := s.store.Put(ctx, localstore.NamespaceGuest, guestKey, data); err != nil {
				s.logger.Warn("failed to persist guest identity", slog.String("error", err.Error()))
			}
		}
	}

	if name == "" {
		name = g.DisplayName
	}
	return model.NewGuest(g.ID, name)
}

// persist writes the durable slot state. Failures are logged and swallowed;
// slot state must never block input handling.
func (s *Service) persist(ctx context.Context) {
	s.mu.RLock()
	persisted := make([]persistedSlot, 0, model.MaxSlots)
	for i := range s.slots {
		p := persistedSlot{Index: i, DeviceIndex: s.slots[i].DeviceIndex}
		if id := s.slots[i].Identity; id != nil && id.IsGuest() {
			p.IsGuest = true
			p.GuestName = id.DisplayName
		}
		persisted = append(persisted, p)
	}
	s.mu.RUnlock()

	data, err := json.Marshal(persisted)
	if err != nil {
		s.logger.Error("failed to marshal slot state", slog.String("error", err.Error()))
		return
	}
	if err := s.store.Put(ctx, localstore.NamespaceSlots, slotsKey, data); err != nil {
		s.logger.Warn("failed to persist slot state", slog.String("error", err.Error()))
	}
}

func (s *Service) snapshot(indexes ...int) []model.PlayerSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(indexes)
}

func (s *Service) snapshotLocked(indexes []int) []model.PlayerSlot {
	out := make([]model.PlayerSlot, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, s.slots[i])
	}
	return out
}

func (s *Service) notify(changed []model.PlayerSlot) {
	s.mu.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, l := range listeners {
		for _, slot := range changed {
			l(slot)
		}
	}
}
