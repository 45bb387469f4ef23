package models

import "time"

// DiaryDateLayout is the key format for diary entries.
const DiaryDateLayout = "2006-01-02"

// DiaryEntry is the daily log for one owner and day.
type DiaryEntry struct {
	OwnerID   int64     `json:"owner_id"`
	Date      string    `json:"date"`
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updated_at"`
}
