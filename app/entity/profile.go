package entity

import (
	"database/sql"
	"time"
)

type UserProfile struct {
	ID                uint64
	UserID            uint64
	FullName          string
	City              string
	Country           string
	Gender            string
	Age               int
	Occupation        string
	MobileNumber      int64
	PictureObjectName sql.NullString
	LastModifiedAt    time.Time
}
