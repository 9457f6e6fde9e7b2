package filesvc

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sir_venger/drive_lite/internal/models"
	meta "github.com/sir_venger/drive_lite/internal/repo"
	"github.com/sir_venger/drive_lite/internal/storage/blobstore"
	"github.com/sir_venger/drive_lite/internal/storage/chunkstore"
)

func newTestService(t *testing.T, maxChunk int64) *Files {
	t.Helper()

	chunks, err := chunkstore.New(t.TempDir(), maxChunk)
	if err != nil {
		t.Fatal(err)
	}
	blobs, err := blobstore.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	return New(Deps{
		Meta:     meta.NewMemoryStore(),
		Sessions: NewRegistry(),
		Chunks:   chunks,
		Blobs:    blobs,
	})
}

func uploadChunks(t *testing.T, svc *Files, uploadID string, chunks [][]byte, order []int) {
	t.Helper()
	ctx := context.Background()
	for _, idx := range order {
		if _, err := svc.PutChunk(ctx, uploadID, idx, bytes.NewReader(chunks[idx])); err != nil {
			t.Fatalf("put chunk %d: %v", idx, err)
		}
	}
}

func sha256hex(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func TestFinish_OutOfOrderChunks(t *testing.T) {
	svc := newTestService(t, 1<<20)
	ctx := context.Background()

	chunks := [][]byte{
		bytes.Repeat([]byte{0xA1}, 1000),
		bytes.Repeat([]byte{0xB2}, 1000),
		bytes.Repeat([]byte{0xC3}, 500),
	}
	want := sha256hex(chunks...)

	st, err := svc.Init(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// порядок прихода не совпадает с порядком индексов
	uploadChunks(t, svc, st.UploadID, chunks, []int{2, 0, 1})

	res, err := svc.Finish(ctx, st.UploadID, "data.bin", len(chunks))
	if err != nil {
		t.Fatal(err)
	}
	if res.FileID != want {
		t.Fatalf("content hash = %s, want %s", res.FileID, want)
	}
	if res.Size != 2500 {
		t.Fatalf("size = %d, want 2500", res.Size)
	}

	dl, err := svc.OpenDownload(ctx, res.FileID, "")
	if err != nil {
		t.Fatal(err)
	}
	defer dl.Body.Close()
	got, err := io.ReadAll(dl.Body)
	if err != nil {
		t.Fatal(err)
	}
	if sha256hex(got) != want {
		t.Fatal("downloaded bytes differ from uploaded concatenation")
	}
}

func TestFinish_IncompleteThenResume(t *testing.T) {
	svc := newTestService(t, 1<<20)
	ctx := context.Background()

	chunks := [][]byte{[]byte("aaa"), []byte("bbb"), []byte("ccc")}

	st, _ := svc.Init(ctx)
	uploadChunks(t, svc, st.UploadID, chunks, []int{0, 2})

	_, err := svc.Finish(ctx, st.UploadID, "f.txt", 3)
	var inc *models.IncompleteError
	if !errors.As(err, &inc) {
		t.Fatalf("finish: got %v, want IncompleteError", err)
	}
	if len(inc.Missing) != 1 || inc.Missing[0] != 1 {
		t.Fatalf("missing = %v, want [1]", inc.Missing)
	}

	// сессия осталась открытой: дошлём дырку и повторим finish
	uploadChunks(t, svc, st.UploadID, chunks, []int{1})

	res, err := svc.Finish(ctx, st.UploadID, "f.txt", 3)
	if err != nil {
		t.Fatalf("finish after resume: %v", err)
	}
	if res.FileID != sha256hex(chunks...) {
		t.Fatal("resumed upload produced wrong content hash")
	}
}

func TestFinish_RepeatedChunkIsIdempotent(t *testing.T) {
	svc := newTestService(t, 1<<20)
	ctx := context.Background()

	chunks := [][]byte{[]byte("hello "), []byte("world")}

	st, _ := svc.Init(ctx)
	// индекс 0 уходит дважды с одинаковыми байтами — ретрай клиента
	uploadChunks(t, svc, st.UploadID, chunks, []int{0, 1, 0})

	res, err := svc.Finish(ctx, st.UploadID, "hello.txt", 2)
	if err != nil {
		t.Fatal(err)
	}
	if res.FileID != sha256hex(chunks...) {
		t.Fatal("retry of a chunk changed the merge result")
	}
}

func TestFinish_DedupAcrossSessions(t *testing.T) {
	svc := newTestService(t, 1<<20)
	ctx := context.Background()

	chunks := [][]byte{bytes.Repeat([]byte{7}, 4096)}

	var ids []string
	for i := 0; i < 2; i++ {
		st, _ := svc.Init(ctx)
		uploadChunks(t, svc, st.UploadID, chunks, []int{0})
		res, err := svc.Finish(ctx, st.UploadID, "same.bin", 1)
		if err != nil {
			t.Fatalf("finish #%d: %v", i, err)
		}
		ids = append(ids, res.FileID)
	}

	if ids[0] != ids[1] {
		t.Fatalf("identical content produced different hashes: %s vs %s", ids[0], ids[1])
	}

	entries, err := svc.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("store has %d objects, want 1 (dedup)", len(entries))
	}
}

func TestFinish_InvalidTotal(t *testing.T) {
	svc := newTestService(t, 1<<20)
	ctx := context.Background()

	st, _ := svc.Init(ctx)
	for _, total := range []int{0, -3} {
		if _, err := svc.Finish(ctx, st.UploadID, "x", total); !errors.Is(err, models.ErrInvalidRequest) {
			t.Fatalf("total=%d: got %v, want ErrInvalidRequest", total, err)
		}
	}

	// сессия не должна быть съедена невалидным запросом
	if _, err := svc.Status(ctx, st.UploadID); err != nil {
		t.Fatalf("session gone after invalid finish: %v", err)
	}
}

func TestFinish_ExtraIndicesRejected(t *testing.T) {
	svc := newTestService(t, 1<<20)
	ctx := context.Background()

	chunks := [][]byte{[]byte("a"), []byte("b"), []byte("c")}

	st, _ := svc.Init(ctx)
	uploadChunks(t, svc, st.UploadID, chunks, []int{0, 1, 2})

	// total занижен: чанк 2 вне диапазона
	if _, err := svc.Finish(ctx, st.UploadID, "x", 2); !errors.Is(err, models.ErrInvalidRequest) {
		t.Fatalf("got %v, want ErrInvalidRequest", err)
	}
}

func TestFinish_ConcurrentSingleWinner(t *testing.T) {
	svc := newTestService(t, 1<<20)
	ctx := context.Background()

	chunks := [][]byte{bytes.Repeat([]byte{1}, 100), bytes.Repeat([]byte{2}, 100)}

	st, _ := svc.Init(ctx)
	uploadChunks(t, svc, st.UploadID, chunks, []int{0, 1})

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Finish(ctx, st.UploadID, "race.bin", 2)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, notFound int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, models.ErrSessionNotFound):
			notFound++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || notFound != workers-1 {
		t.Fatalf("ok=%d notFound=%d, want 1/%d", ok, notFound, workers-1)
	}
}

func TestPutChunk_TooLargeDoesNotMarkReceived(t *testing.T) {
	svc := newTestService(t, 8) // лимит 8 байт
	ctx := context.Background()

	st, _ := svc.Init(ctx)
	_, err := svc.PutChunk(ctx, st.UploadID, 0, bytes.NewReader(bytes.Repeat([]byte{9}, 9)))
	if !errors.Is(err, models.ErrChunkTooLarge) {
		t.Fatalf("got %v, want ErrChunkTooLarge", err)
	}

	snap, err := svc.Status(ctx, st.UploadID)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Received) != 0 {
		t.Fatalf("oversize chunk mutated received set: %v", snap.Received)
	}
}

func TestPutChunk_UnknownSession(t *testing.T) {
	svc := newTestService(t, 1<<20)

	_, err := svc.PutChunk(context.Background(), "ghost", 0, bytes.NewReader([]byte("x")))
	if !errors.Is(err, models.ErrSessionNotFound) {
		t.Fatalf("got %v, want ErrSessionNotFound", err)
	}
}

func TestOpenDownload_UnknownHash(t *testing.T) {
	svc := newTestService(t, 1<<20)

	hash := sha256hex([]byte("never uploaded"))
	if _, err := svc.OpenDownload(context.Background(), hash, ""); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestOpenDownload_Ranges(t *testing.T) {
	svc := newTestService(t, 1<<20)
	ctx := context.Background()

	payload := []byte("0123456789abcdefghij") // 20 байт
	st, _ := svc.Init(ctx)
	uploadChunks(t, svc, st.UploadID, [][]byte{payload}, []int{0})
	res, err := svc.Finish(ctx, st.UploadID, "r.txt", 1)
	if err != nil {
		t.Fatal(err)
	}

	read := func(header string) (*Download, []byte) {
		t.Helper()
		dl, err := svc.OpenDownload(ctx, res.FileID, header)
		if err != nil {
			t.Fatalf("open %q: %v", header, err)
		}
		defer dl.Body.Close()
		b, err := io.ReadAll(dl.Body)
		if err != nil {
			t.Fatal(err)
		}
		return dl, b
	}

	dl, b := read("")
	if dl.Partial || !bytes.Equal(b, payload) {
		t.Fatalf("full read: partial=%v len=%d", dl.Partial, len(b))
	}

	dl, b = read("bytes=0-0")
	if !dl.Partial || string(b) != "0" {
		t.Fatalf("first byte: partial=%v got %q", dl.Partial, b)
	}

	_, b = read("bytes=-10")
	if string(b) != "abcdefghij" {
		t.Fatalf("suffix: got %q", b)
	}

	_, b = read("bytes=-100")
	if !bytes.Equal(b, payload) {
		t.Fatalf("oversized suffix must return whole file, got %d bytes", len(b))
	}

	if _, err := svc.OpenDownload(ctx, res.FileID, "bytes=20-"); !errors.Is(err, models.ErrRangeNotSatisfiable) {
		t.Fatalf("start==size: got %v, want ErrRangeNotSatisfiable", err)
	}
}
