package entity

import (
	"database/sql"
	"time"
)

type User struct {
	ID                uint64
	Email             string
	PasswordHash      string
	IsVerified        bool
	VerificationToken sql.NullString
	CreatedAt         time.Time
	LastModifiedAt    time.Time
}

// PasswordResetToken rows are never deleted; consumed and expired tokens
// are kept as an audit trail.
type PasswordResetToken struct {
	ID         uint64
	UserID     uint64
	Token      string
	IsConsumed bool
	ValidTill  time.Time
	CreatedAt  time.Time
}
