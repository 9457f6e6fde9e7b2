package models

import "time"

// UploadResult возвращается после успешного finish и содержит ключевые метаданные.
type UploadResult struct {
	FileID string
	Name   string
	Size   int64
}

// UploadStatus — снимок состояния сессии для резюмирования загрузки.
type UploadStatus struct {
	UploadID  string
	Received  []int
	CreatedAt time.Time
}
