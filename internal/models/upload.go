package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UploadHistory summarises one import attempt.
type UploadHistory struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Flavor       string     `json:"flavor" gorm:"type:varchar(20);not null;index"`
	FileName     string     `json:"fileName" gorm:"type:varchar(255);not null"`
	StoragePath  string     `json:"storagePath,omitempty" gorm:"type:varchar(500)"`
	FileSize     int64      `json:"fileSize"`
	SuccessCount int        `json:"successCount"`
	ErrorCount   int        `json:"errorCount"`
	UploadedBy   *uuid.UUID `json:"uploadedBy,omitempty" gorm:"type:uuid"`
	UploadedAt   time.Time  `json:"uploadedAt" gorm:"not null;index"`
}

// Retained reports whether the uploaded file was archived.
func (u *UploadHistory) Retained() bool {
	return u.StoragePath != ""
}

// HumanSize renders the file size with a binary unit suffix.
func (u *UploadHistory) HumanSize() string {
	return HumanSize(u.FileSize)
}

// HumanSize renders n bytes as B, KB, MB or GB with two decimals.
func HumanSize(n int64) string {
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB"} {
		if size < 1024 {
			return fmt.Sprintf("%.2f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.2f GB", size)
}
