// Package driveproto описывает HTTP-протокол сервиса: пути, query-параметры
// и заголовки, общие для сервера и клиента.
package driveproto

// Пути эндпоинтов (форматируются от базового URL).
const (
	InitPathFormat     = "%s/upload/init"
	ChunkPathFormat    = "%s/upload/chunk?upload_id=%s&index=%d"
	FinishPathFormat   = "%s/upload/finish?upload_id=%s&filename=%s&total_chunks=%d"
	StatusPathFormat   = "%s/upload/status/%s"
	DownloadPathFormat = "%s/download/%s"
)

// Имена query-параметров upload-эндпоинтов.
const (
	ParamUploadID    = "upload_id"
	ParamIndex       = "index"
	ParamFilename    = "filename"
	ParamTotalChunks = "total_chunks"
)
