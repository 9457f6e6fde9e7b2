package drivehttp

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sir_venger/drive_lite/internal/models"
	"github.com/sir_venger/drive_lite/pkg/driveproto"
	"github.com/sir_venger/drive_lite/pkg/httperrors"
)

// initUploadResp — тело ответа init и status: то, что нужно для резюмирования.
type initUploadResp struct {
	UploadID  string `json:"upload_id"`
	Received  []int  `json:"uploaded_chunks"`
	CreatedAt string `json:"created_at,omitempty"`
}

// chunkResp — подтверждение приёма одного чанка.
type chunkResp struct {
	UploadID string `json:"upload_id"`
	Chunk    int    `json:"chunk"`
	Size     int64  `json:"size"`
}

// finishResp — итог слияния: content-addressed идентификатор файла.
type finishResp struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Sha256   string `json:"sha256"`
}

// incompleteResp при 409 перечисляет недостающие индексы: клиент дошлёт ровно их.
type incompleteResp struct {
	Detail        string `json:"detail"`
	MissingChunks []int  `json:"missing_chunks"`
}

// initUpload открывает новую сессию загрузки.
func (s *Server) initUpload(w http.ResponseWriter, r *http.Request) {
	st, err := s.FilesService.Init(r.Context())
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, initUploadResp{
		UploadID:  st.UploadID,
		Received:  st.Received,
		CreatedAt: st.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// uploadChunk принимает один чанк: либо raw body, либо multipart-поле file.
func (s *Server) uploadChunk(w http.ResponseWriter, r *http.Request) {
	uploadID := strings.TrimSpace(r.URL.Query().Get(driveproto.ParamUploadID))
	idxStr := r.URL.Query().Get(driveproto.ParamIndex)

	idx, err := strconv.Atoi(idxStr)
	if uploadID == "" || err != nil || idx < 0 {
		http.Error(w, "upload_id and non-negative index are required", http.StatusBadRequest)
		return
	}

	body, closeBody, err := chunkBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer closeBody()

	n, err := s.FilesService.PutChunk(r.Context(), uploadID, idx, body)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chunkResp{UploadID: uploadID, Chunk: idx, Size: n})
}

// finishUpload сливает чанки и отвечает дайджестом; при неполной загрузке —
// 409 со списком недостающих индексов.
func (s *Server) finishUpload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	uploadID := strings.TrimSpace(q.Get(driveproto.ParamUploadID))
	filename := q.Get(driveproto.ParamFilename)

	total, err := strconv.Atoi(q.Get(driveproto.ParamTotalChunks))
	if uploadID == "" || err != nil {
		http.Error(w, "upload_id and total_chunks are required", http.StatusBadRequest)
		return
	}

	res, err := s.FilesService.Finish(r.Context(), uploadID, filename, total)
	if err != nil {
		var inc *models.IncompleteError
		if errors.As(err, &inc) {
			writeJSON(w, http.StatusConflict, incompleteResp{
				Detail:        inc.Error(),
				MissingChunks: inc.Missing,
			})
			return
		}
		httperrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, finishResp{
		FileID:   res.FileID,
		Filename: res.Name,
		Size:     res.Size,
		Sha256:   res.FileID,
	})
}

// uploadStatus возвращает received-set сессии для резюмирования.
func (s *Server) uploadStatus(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")

	st, err := s.FilesService.Status(r.Context(), uploadID)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, initUploadResp{
		UploadID:  st.UploadID,
		Received:  st.Received,
		CreatedAt: st.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// chunkBody выбирает источник байтов чанка: multipart-поле file (как шлёт
// браузерный фронтенд) или сырое тело запроса.
func chunkBody(r *http.Request) (io.Reader, func(), error) {
	ct := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil || mediaType != "multipart/form-data" {
		return r.Body, func() {}, nil
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, nil, err
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, nil, errors.New("multipart body has no file field")
		}
		if err != nil {
			return nil, nil, err
		}
		if part.FormName() == "file" {
			return part, func() { part.Close() }, nil
		}
		part.Close()
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
