package client

import "time"

// Client is a person holding banking credentials. Person attributes are
// folded into the client record; the identification number is the immutable
// natural key and is unique across the system.
type Client struct {
	ID             string
	Name           string
	Gender         string
	Age            int
	Identification string
	Address        string
	Phone          string
	PasswordHash   []byte
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
