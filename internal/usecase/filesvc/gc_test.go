package filesvc

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sir_venger/drive_lite/internal/models"
)

func TestSweepOnce_ExpiresIdleSessions(t *testing.T) {
	svc := newTestService(t, 1<<20)
	ctx := context.Background()

	st, _ := svc.Init(ctx)
	if _, err := svc.PutChunk(ctx, st.UploadID, 0, bytes.NewReader([]byte("stale"))); err != nil {
		t.Fatal(err)
	}

	// ttl=0: всё считается протухшим
	if err := svc.SweepOnce(0); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Status(ctx, st.UploadID); !errors.Is(err, models.ErrSessionNotFound) {
		t.Fatalf("session survived sweep: %v", err)
	}
	if svc.Chunks.Exists(st.UploadID, 0) {
		t.Fatal("chunk survived sweep")
	}
}

func TestSweepOnce_KeepsLiveSessions(t *testing.T) {
	svc := newTestService(t, 1<<20)
	ctx := context.Background()

	st, _ := svc.Init(ctx)
	if _, err := svc.PutChunk(ctx, st.UploadID, 0, bytes.NewReader([]byte("fresh"))); err != nil {
		t.Fatal(err)
	}

	if err := svc.SweepOnce(time.Hour); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Status(ctx, st.UploadID); err != nil {
		t.Fatalf("live session swept: %v", err)
	}
	if !svc.Chunks.Exists(st.UploadID, 0) {
		t.Fatal("live chunk swept")
	}
}

func TestSweepOnce_RemovesOrphanedChunkDirs(t *testing.T) {
	svc := newTestService(t, 1<<20)

	// директория-сирота: чанки есть, сессии в реестре нет (рестарт процесса)
	if _, err := svc.Chunks.Write("orphan-session", 0, bytes.NewReader([]byte("lost"))); err != nil {
		t.Fatal(err)
	}

	if err := svc.SweepOnce(0); err != nil {
		t.Fatal(err)
	}

	if svc.Chunks.Exists("orphan-session", 0) {
		t.Fatal("orphaned chunk dir survived sweep")
	}
}

func TestStartGC_StopIsIdempotent(t *testing.T) {
	svc := newTestService(t, 1<<20)

	stop := svc.StartGC(time.Hour, time.Millisecond)
	stop()
	stop() // повторный вызов не должен паниковать
}
