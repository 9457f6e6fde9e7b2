package drivehttp

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sir_venger/drive_lite/internal/config"
	meta "github.com/sir_venger/drive_lite/internal/repo"
	"github.com/sir_venger/drive_lite/internal/storage/blobstore"
	"github.com/sir_venger/drive_lite/internal/storage/chunkstore"
	"github.com/sir_venger/drive_lite/internal/usecase/filesvc"
)

type Server struct {
	FilesService filesvc.Service
	Cfg          *config.Config

	// Authorize — подключаемый предикат валидности bearer-токена; ядро сервиса
	// учётные данные не инспектирует.
	Authorize func(token string) bool
}

// NewServer конструктор
func NewServer(ctx context.Context, cfg *config.Config) (http.Handler, *Server, error) {
	files, err := buildFileService(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	srv := &Server{
		FilesService: files,
		Cfg:          cfg,
		Authorize:    tokenPredicate(cfg.AuthToken),
	}

	return srv.routes(), srv, nil
}

func buildFileService(ctx context.Context, cfg *config.Config) (filesvc.Service, error) {
	repo, err := meta.Open(ctx, cfg.MetaDSN)
	if err != nil {
		return nil, err
	}

	chunks, err := chunkstore.New(cfg.UploadDir, cfg.MaxChunkBytes)
	if err != nil {
		return nil, err
	}

	blobs, err := blobstore.New(cfg.StorageDir)
	if err != nil {
		return nil, err
	}

	return filesvc.New(filesvc.Deps{
		Meta:     repo,
		Sessions: filesvc.NewRegistry(),
		Chunks:   chunks,
		Blobs:    blobs,
	}), nil
}

// routes регистрирует обработчики; рабочие эндпоинты — под auth-мидлварью.
func (s *Server) routes() http.Handler {
	rtr := chi.NewRouter()

	rtr.Get("/", s.root)
	rtr.Get("/health", s.health)
	rtr.Get("/test", s.testToken)

	rtr.Group(func(pr chi.Router) {
		pr.Use(s.requireAuth)

		pr.Route("/upload", func(ur chi.Router) {
			ur.Post("/init", s.initUpload)
			ur.Post("/chunk", s.uploadChunk)
			ur.Post("/finish", s.finishUpload)
			ur.Get("/status/{uploadID}", s.uploadStatus)
		})

		pr.Get("/download/{fileID}", s.download)
		pr.Head("/download/{fileID}", s.fileMeta)

		pr.Get("/files", s.listFiles)
		pr.Get("/stats", s.stats)

		pr.Post("/admin/gc", s.gcOnce)
	})

	return rtr
}

// root отдаёт краткий дескриптор сервиса.
func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"service": "drive_lite",
		"status":  "running",
		"endpoints": map[string]string{
			"upload":   "/upload/*",
			"download": "/download/{file_id}",
			"files":    "/files",
		},
	})
}
