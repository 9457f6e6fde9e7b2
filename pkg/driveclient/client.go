// Package driveclient — HTTP-клиент сервиса: управление сессиями загрузки,
// отправка чанков, finish и скачивание. Upload-хелпер умеет параллельную
// отправку и резюмирование по списку недостающих чанков.
package driveclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sir_venger/drive_lite/pkg/driveproto"
)

// UploadSession — состояние сессии на сервере: идентификатор и уже принятые индексы.
type UploadSession struct {
	UploadID string `json:"upload_id"`
	Received []int  `json:"uploaded_chunks"`
}

type PutChunkRequest struct {
	UploadID string
	Index    int
	Reader   io.Reader
	Size     int64
}

type FinishRequest struct {
	UploadID    string
	Filename    string
	TotalChunks int
}

// FinishResult — итог слияния на сервере.
type FinishResult struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// IncompleteError возвращается из Finish, когда сервер ответил 409 со списком
// недостающих чанков; Upload использует его для докачки.
type IncompleteError struct {
	Missing []int `json:"missing_chunks"`
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("upload incomplete: missing chunks %v", e.Missing)
}

type Client interface {
	// Init открывает новую сессию загрузки.
	Init(ctx context.Context, baseURL string) (UploadSession, error)
	// PutChunk отправляет один чанк.
	PutChunk(ctx context.Context, baseURL string, req PutChunkRequest) error
	// Status возвращает принятые сервером индексы (резюмирование).
	Status(ctx context.Context, baseURL, uploadID string) (UploadSession, error)
	// Finish запускает merge на сервере.
	Finish(ctx context.Context, baseURL string, req FinishRequest) (FinishResult, error)
	// Download открывает поток содержимого; rangeHeader опционален ("" — весь файл).
	Download(ctx context.Context, baseURL, fileID, rangeHeader string) (io.ReadCloser, error)
}

type httpClient struct {
	c     *http.Client
	token string
}

// New создаёт клиент с bearer-токеном (пустой токен — без аутентификации).
func New(token string) Client {
	return &httpClient{
		c:     &http.Client{},
		token: token,
	}
}

func (h *httpClient) Init(ctx context.Context, baseURL string) (UploadSession, error) {
	u := fmt.Sprintf(driveproto.InitPathFormat, baseURL)

	var out UploadSession
	if err := h.doJSON(ctx, http.MethodPost, u, nil, &out); err != nil {
		return UploadSession{}, err
	}

	return out, nil
}

func (h *httpClient) PutChunk(ctx context.Context, baseURL string, req PutChunkRequest) error {
	u := fmt.Sprintf(driveproto.ChunkPathFormat, baseURL, url.QueryEscape(req.UploadID), req.Index)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, req.Reader)
	if err != nil {
		return err
	}
	h.authorize(httpReq)
	httpReq.Header.Set("Content-Type", "application/octet-stream")
	if req.Size > 0 {
		httpReq.ContentLength = req.Size
	}

	resp, err := h.c.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chunk %d PUT failed: %s", req.Index, resp.Status)
	}

	return nil
}

func (h *httpClient) Status(ctx context.Context, baseURL, uploadID string) (UploadSession, error) {
	u := fmt.Sprintf(driveproto.StatusPathFormat, baseURL, url.PathEscape(uploadID))

	var out UploadSession
	if err := h.doJSON(ctx, http.MethodGet, u, nil, &out); err != nil {
		return UploadSession{}, err
	}

	return out, nil
}

func (h *httpClient) Finish(ctx context.Context, baseURL string, req FinishRequest) (FinishResult, error) {
	u := fmt.Sprintf(driveproto.FinishPathFormat,
		baseURL, url.QueryEscape(req.UploadID), url.QueryEscape(req.Filename), req.TotalChunks)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return FinishResult{}, err
	}
	h.authorize(httpReq)

	resp, err := h.c.Do(httpReq)
	if err != nil {
		return FinishResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		var inc IncompleteError
		if err := json.NewDecoder(resp.Body).Decode(&inc); err != nil {
			return FinishResult{}, fmt.Errorf("finish failed: %s", resp.Status)
		}
		return FinishResult{}, &inc
	}
	if resp.StatusCode != http.StatusOK {
		return FinishResult{}, fmt.Errorf("finish failed: %s", resp.Status)
	}

	var out FinishResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return FinishResult{}, err
	}

	return out, nil
}

func (h *httpClient) Download(ctx context.Context, baseURL, fileID, rangeHeader string) (io.ReadCloser, error) {
	u := fmt.Sprintf(driveproto.DownloadPathFormat, baseURL, url.PathEscape(fileID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	h.authorize(req)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return nil, fmt.Errorf("download failed: %s", resp.Status)
	}

	return resp.Body, nil
}

func (h *httpClient) doJSON(ctx context.Context, method, u string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	h.authorize(req)

	resp, err := h.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: %s", method, u, resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (h *httpClient) authorize(req *http.Request) {
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
}
