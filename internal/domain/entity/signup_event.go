package entity

// SignupEvent is the payload published when a user signs up.
// Absent fields decode to empty strings; nothing is validated.
type SignupEvent struct {
	FirstName       string `json:"first_name"`
	Username        string `json:"username"`
	Hostname        string `json:"hostname"`
	VerificationAPI string `json:"verification_api"`
}
