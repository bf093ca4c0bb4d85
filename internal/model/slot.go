package model

// MaxSlots is the number of local player positions
const MaxSlots = 4

// PlayerSlot is a local logical player position. A slot can hold an identity
// and a binding to a physical input device.
type PlayerSlot struct {
	Index        int
	Identity     *Identity
	DeviceIndex  *int // nil when no device is bound
	SessionToken string
}

// IsActive reports whether the slot holds any identity
func (s PlayerSlot) IsActive() bool {
	return s.Identity != nil
}

// HasDevice reports whether the slot is bound to the given device
func (s PlayerSlot) HasDevice(deviceIndex int) bool {
	return s.DeviceIndex != nil && *s.DeviceIndex == deviceIndex
}

// ValidSlotIndex reports whether idx addresses one of the local slots
func ValidSlotIndex(idx int) bool {
	return idx >= 0 && idx < MaxSlots
}
