package model

// SessionUser is the authenticated user of a board session. It is passed
// explicitly to whatever needs "created by" or "tasked by" values.
type SessionUser struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

func (u SessionUser) Known() bool {
	return u.ID != ""
}
