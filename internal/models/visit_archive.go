package models

import (
	"time"

	"gorm.io/gorm"
)

// VisitArchive is a Postgres copy of a confirmed visit, maintained by the
// worker's archive task and used for admin statistics. The remote store
// stays authoritative; rows here are read-only reporting data.
type VisitArchive struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	VisitID    string    `gorm:"type:varchar(128);uniqueIndex" json:"visit_id"`
	MemberID   string    `gorm:"type:varchar(128);index" json:"member_id"`
	MemberName string    `gorm:"type:varchar(255)" json:"member_name"`
	ClubID     string    `gorm:"type:varchar(128);index" json:"club_id"`
	VisitedAt  time.Time `gorm:"index" json:"visited_at"`
}
