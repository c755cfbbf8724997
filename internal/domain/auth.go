package domain

import "time"

// Token is the metadata of an issued identity token. Tokens are never stored.
type Token struct {
	Value     string
	Subject   string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}
