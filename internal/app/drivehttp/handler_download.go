package drivehttp

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sir_venger/drive_lite/pkg/httperrors"
)

// download отдаёт содержимое файла: 200 без Range-заголовка, 206 с ним.
// Обрыв клиента посреди стрима просто завершает io.Copy; defer закрывает
// файловый дескриптор, компенсирующих действий не требуется.
func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	dl, err := s.FilesService.OpenDownload(r.Context(), fileID, r.Header.Get("Range"))
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	defer dl.Body.Close()

	name := dl.Name
	if name == "" {
		name = fileID
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", mimeByName(name))
	w.Header().Set("Content-Length", strconv.FormatInt(dl.Length, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

	if dl.Partial {
		w.Header().Set("Content-Range",
			fmt.Sprintf("bytes %d-%d/%d", dl.Offset, dl.Offset+dl.Length-1, dl.Size))
		w.WriteHeader(http.StatusPartialContent)
	}

	_, _ = io.Copy(w, dl.Body)
}

// fileMeta отвечает на HEAD-запросы: размер и имя без тела. Клиент использует
// это, чтобы спланировать Range-докачку.
func (s *Server) fileMeta(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	info, err := s.FilesService.StatFile(r.Context(), fileID)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	name := info.Name
	if name == "" {
		name = fileID
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", mimeByName(name))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
}

func mimeByName(name string) string {
	if mt := mime.TypeByExtension(filepath.Ext(name)); mt != "" {
		return mt
	}

	return "application/octet-stream"
}
