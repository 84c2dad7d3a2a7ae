package models

// UserProfile is the public projection of a user document. Private
// fields (password hash, Aadhar/PAN numbers, mobile) never leave the
// user repository.
type UserProfile struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Country  string `json:"country,omitempty"`
}
