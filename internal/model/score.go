package model

import (
	"fmt"
	"time"
)

// GameKey identifies one scoring bucket: a mini-game played in a particular
// mode at a particular difficulty
type GameKey struct {
	GameID     string `json:"game_id"`
	Mode       string `json:"mode"`
	Difficulty string `json:"difficulty"`
}

// String returns the storage key form, e.g. "color-match_arcade_normal"
func (k GameKey) String() string {
	return fmt.Sprintf("%s_%s_%s", k.GameID, k.Mode, k.Difficulty)
}

// ScoreRecord is a single submitted score. Records are immutable once created.
// An empty OwnerID marks a guest record, which never leaves the device.
type ScoreRecord struct {
	Ref       string            `json:"ref"`
	Key       GameKey           `json:"key"`
	Value     int               `json:"value"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	OwnerID   AccountID         `json:"owner_id,omitempty"`
}

// PersonalBest is the aggregate for one (owner, game, mode, difficulty) key.
// BestValue only ever moves up; Attempts counts every submission.
type PersonalBest struct {
	BestValue     int       `json:"best_value"`
	BestRecordRef string    `json:"best_record_ref"`
	Attempts      int       `json:"attempts"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Apply folds one submission into the aggregate and reports whether it set a
// new best. The comparison is strictly greater: ties do not replace the
// standing best. Guest and online submissions both go through here so the
// rule cannot diverge between the two paths.
func (pb *PersonalBest) Apply(record ScoreRecord) bool {
	pb.Attempts++
	pb.UpdatedAt = record.CreatedAt
	if pb.Attempts == 1 || record.Value > pb.BestValue {
		pb.BestValue = record.Value
		pb.BestRecordRef = record.Ref
		return true
	}
	return false
}

// QueueEntry is a score submission held locally because the remote store was
// unreachable. It exists only for registered identities and is removed only
// after confirmed remote acceptance.
type QueueEntry struct {
	Ref      string            `json:"ref"`
	OwnerID  AccountID         `json:"owner_id"`
	Key      GameKey           `json:"key"`
	Value    int               `json:"value"`
	Metadata map[string]string `json:"metadata,omitempty"`
	QueuedAt time.Time         `json:"queued_at"`
}
