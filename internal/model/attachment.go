package model

import "time"

// AttachmentTypeOriginal marks a file uploaded with the original letter.
const AttachmentTypeOriginal = "original"

// FileAttachment is an uploaded file tied to a report
// (table: file_attachments).
type FileAttachment struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ReportID   string    `gorm:"type:varchar(64);not null;index" json:"reportId,omitempty"`
	FileName   string    `gorm:"type:varchar(255);not null" json:"fileName"`
	FileURL    string    `gorm:"type:text;not null" json:"fileUrl"`
	UploadedAt time.Time `gorm:"not null" json:"uploadedAt"`
	UploadedBy string    `gorm:"type:varchar(255)" json:"uploadedBy"`
	Type       string    `gorm:"type:varchar(32)" json:"type"`
}

// TableName pins the table to the file_attachments schema.
func (FileAttachment) TableName() string {
	return "file_attachments"
}
