package models

// Identity is the stable player identity resolved by the gateway.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
