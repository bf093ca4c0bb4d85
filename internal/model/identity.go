package model

// AccountID uniquely identifies a registered account in the remote store
type AccountID string

// IdentityKind distinguishes guest and registered identities
type IdentityKind string

const (
	IdentityGuest      IdentityKind = "guest"
	IdentityRegistered IdentityKind = "registered"
)

// Identity is the player identity held by a slot: either a locally generated
// guest or a registered account obtained from the remote auth channel
type Identity struct {
	Kind        IdentityKind
	AccountID   AccountID // set only for registered identities
	LocalID     string    // set only for guests, stable across restarts
	DisplayName string
}

// NewGuest creates a guest identity
func NewGuest(localID, displayName string) Identity {
	return Identity{
		Kind:        IdentityGuest,
		LocalID:     localID,
		DisplayName: displayName,
	}
}

// NewRegistered creates a registered identity
func NewRegistered(accountID AccountID, displayName string) Identity {
	return Identity{
		Kind:        IdentityRegistered,
		AccountID:   accountID,
		DisplayName: displayName,
	}
}

// IsGuest reports whether the identity is a guest
func (i Identity) IsGuest() bool {
	return i.Kind == IdentityGuest
}

// OwnerID returns the account id for registered identities, or empty for
// guests. Records with an empty owner never leave the device.
func (i Identity) OwnerID() AccountID {
	if i.Kind == IdentityRegistered {
		return i.AccountID
	}
	return ""
}

// SameAccount reports whether two identities refer to the same registered
// account. Guests are never the same account as anything.
func (i Identity) SameAccount(other Identity) bool {
	return i.Kind == IdentityRegistered &&
		other.Kind == IdentityRegistered &&
		i.AccountID == other.AccountID
}
