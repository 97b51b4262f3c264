package model

// User is the only resource managed by the service.
// ID is assigned by the database; zero means the record has not been persisted yet.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}
