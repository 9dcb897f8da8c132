package entity

import "time"

// UserClaims is the stored authorization record for a user. A missing row
// means no privileges: resolvers treat absence as admin=false, super-admin=false.
type UserClaims struct {
	ID             uint64
	UserID         uint64
	IsAdmin        bool
	IsSuperAdmin   bool
	LastModifiedBy uint64
	LastModifiedAt time.Time
}
