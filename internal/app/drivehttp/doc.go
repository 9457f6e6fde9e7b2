// Package drivehttp реализует HTTP API сервиса: резюмируемую чанковую загрузку
// и скачивание с поддержкой Range поверх content-addressed хранилища.
// Основные эндпоинты:
//   - POST /upload/init — открывает сессию, возвращает upload_id.
//   - POST /upload/chunk?upload_id=&index= — принимает один чанк (raw body или multipart-поле file).
//   - POST /upload/finish?upload_id=&filename=&total_chunks= — сливает чанки, возвращает SHA-256 файла.
//   - GET  /upload/status/{uploadID} — уже принятые индексы (резюмирование).
//   - GET/HEAD /download/{fileID} — выдача содержимого, 206 при Range-заголовке.
//   - GET  /files, GET /stats — листинг и агрегаты по хранилищу.
//   - POST /admin/gc — ручной запуск зачистки брошенных сессий.
//   - GET  /health — liveness и занятый объём.
//
// Все рабочие эндпоинты закрыты bearer-токеном; /health, / и /test открыты.
package drivehttp
