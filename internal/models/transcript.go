package models

import (
	"time"

	"gorm.io/datatypes"
)

// ChatTranscript is the durable copy of a verification-chat turn. The
// in-session message list is what the state machine reads; these rows
// outlive session archival.
type ChatTranscript struct {
	ID        string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OwnerID   string         `gorm:"column:owner_id;type:uuid;index" json:"owner_id"`
	SessionID string         `gorm:"column:session_id;type:uuid;index" json:"session_id"`
	Role      string         `gorm:"column:role;type:text" json:"role"` // "user" | "assistant"
	Content   string         `gorm:"column:content;type:text" json:"content"`
	Timestamp time.Time      `gorm:"column:timestamp;type:timestamptz;index" json:"timestamp"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
}

func (ChatTranscript) TableName() string { return "chat_transcripts" }
