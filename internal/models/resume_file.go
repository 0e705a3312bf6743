package models

import "time"

type ResumeFile struct {
	ID      string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OwnerID string `gorm:"column:owner_id;type:uuid;index" json:"owner_id"`

	FileName   string `gorm:"column:file_name;type:text" json:"file_name"`
	ObjectPath string `gorm:"column:object_path;type:text" json:"object_path"` // storage object key

	FileSize int    `gorm:"column:file_size;type:integer" json:"file_size"`
	MimeType string `gorm:"column:mime_type;type:text" json:"mime_type"`

	UploadedAt time.Time `gorm:"column:uploaded_at;type:timestamptz" json:"uploaded_at"`
}

func (ResumeFile) TableName() string { return "resume_files" }
