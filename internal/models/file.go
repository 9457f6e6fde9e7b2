package models

import "time"

// File описывает один объект в content-addressed хранилище. Идентификатор —
// SHA-256 hex-дайджест содержимого, имя носит чисто информационный характер.
type File struct {
	ID        string    `json:"file_id"`
	Name      string    `json:"file_name,omitempty"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Entry — элемент листинга хранилища: имя берётся из индекса метаданных,
// хеш и размер — с диска.
type Entry struct {
	Name string `json:"name,omitempty"`
	Hash string `json:"sha256"`
	Size int64  `json:"size"`
}
