package request

// AssignDevice is the request body for binding a device to a slot
type AssignDevice struct {
	DeviceIndex *int `json:"device_index"`
}

// Login is the request body for logging a slot in
type Login struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SetGuest is the request body for placing a guest in a slot
type SetGuest struct {
	Name string `json:"name"`
}

// SubmitScore is the request body for recording a score
type SubmitScore struct {
	GameID     string            `json:"game_id"`
	Mode       string            `json:"mode"`
	Difficulty string            `json:"difficulty"`
	Value      int               `json:"value"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}
