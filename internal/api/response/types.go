package response

import (
	"time"

	"github.com/lightcade/lightcade/internal/model"
	"github.com/lightcade/lightcade/internal/services/ledger"
)

// Identity represents an identity in API responses
type Identity struct {
	Kind        string `json:"kind"`
	AccountID   string `json:"account_id,omitempty"`
	DisplayName string `json:"display_name"`
}

// IdentityFromModel converts a model.Identity to a response Identity
func IdentityFromModel(i model.Identity) Identity {
	return Identity{
		Kind:        string(i.Kind),
		AccountID:   string(i.AccountID),
		DisplayName: i.DisplayName,
	}
}

// Slot represents a player slot in API responses. Session tokens never
// appear here.
type Slot struct {
	Index       int       `json:"index"`
	Identity    *Identity `json:"identity"`
	DeviceIndex *int      `json:"device_index"`
}

// SlotFromModel converts a model.PlayerSlot to a response Slot
func SlotFromModel(s model.PlayerSlot) Slot {
	out := Slot{
		Index:       s.Index,
		DeviceIndex: s.DeviceIndex,
	}
	if s.Identity != nil {
		id := IdentityFromModel(*s.Identity)
		out.Identity = &id
	}
	return out
}

// SubmitResult is the response for a score submission
type SubmitResult struct {
	Accepted        bool `json:"accepted"`
	Queued          bool `json:"queued"`
	NewPersonalBest bool `json:"new_personal_best"`
}

// SubmitResultFromLedger converts a ledger.Result
func SubmitResultFromLedger(r ledger.Result) SubmitResult {
	return SubmitResult{
		Accepted:        r.Accepted,
		Queued:          r.Queued,
		NewPersonalBest: r.NewPersonalBest,
	}
}

// PersonalBest represents a personal-best aggregate in API responses
type PersonalBest struct {
	BestValue     int       `json:"best_value"`
	BestRecordRef string    `json:"best_record_ref"`
	Attempts      int       `json:"attempts"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PersonalBestFromModel converts a model.PersonalBest
func PersonalBestFromModel(pb model.PersonalBest) PersonalBest {
	return PersonalBest{
		BestValue:     pb.BestValue,
		BestRecordRef: pb.BestRecordRef,
		Attempts:      pb.Attempts,
		UpdatedAt:     pb.UpdatedAt,
	}
}
