package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"objectsrecognition/internal/apperr"
	"objectsrecognition/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDatabase_Connection(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data", "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file should exist")
	}
}

func TestDetectionRepository_InsertAndListStill(t *testing.T) {
	ctx := context.Background()
	repo := NewDetectionRepository(newTestDB(t))

	inserted := []models.Detection{
		{Source: "a.jpg", ClassName: "human", X: 100, Y: 100, Width: 100, Height: 100},
		{Source: "a.jpg", ClassName: "kayak", X: 1870, Y: 1030, Width: 100, Height: 100},
		{Source: "b.jpg", ClassName: "bouy", X: 960, Y: 540, Width: 100, Height: 100},
	}
	for i := range inserted {
		id, err := repo.Insert(ctx, &inserted[i])
		if err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
		if id == 0 || inserted[i].ID != id {
			t.Errorf("Insert %d: id %d not set on record (%d)", i, id, inserted[i].ID)
		}
	}

	listed, err := repo.ListStill(ctx)
	if err != nil {
		t.Fatalf("ListStill failed: %v", err)
	}
	opts := cmpopts.IgnoreFields(models.Detection{}, "CreatedAt")
	if diff := cmp.Diff(inserted, listed, opts); diff != "" {
		t.Errorf("ListStill mismatch (-expected +got):\n%s", diff)
	}

	names, err := repo.GetAllClassNames(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"bouy", "human", "kayak"}, names); diff != "" {
		t.Errorf("class names mismatch (-expected +got):\n%s", diff)
	}
}

func TestVideoRepository_FramesAndDetections(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	videos := NewVideoRepository(db)
	detections := NewDetectionRepository(db)

	video := &models.Video{ID: "v1", Name: "harbor.mp4", FrameRate: 5}
	if err := videos.InsertVideo(ctx, video); err != nil {
		t.Fatalf("InsertVideo failed: %v", err)
	}

	for _, number := range []int{10, 5} {
		frame := &models.Frame{ID: fmt.Sprintf("f%d", number), VideoID: "v1", Number: number, FilePath: "/tmp/x.jpg", Width: 640, Height: 480}
		if err := videos.InsertFrame(ctx, frame); err != nil {
			t.Fatalf("InsertFrame failed: %v", err)
		}
	}

	for _, det := range []models.Detection{
		{Source: "harbor.mp4#10", FrameID: "f10", ClassName: "sailboat", X: 1, Y: 1, Width: 1, Height: 1},
		{Source: "harbor.mp4#5", FrameID: "f5", ClassName: "human", X: 2, Y: 2, Width: 2, Height: 2},
		{Source: "still.jpg", ClassName: "human", X: 3, Y: 3, Width: 3, Height: 3},
	} {
		det := det
		if _, err := detections.Insert(ctx, &det); err != nil {
			t.Fatal(err)
		}
	}

	byVideo, err := detections.ListByVideo(ctx, "v1")
	if err != nil {
		t.Fatalf("ListByVideo failed: %v", err)
	}
	if len(byVideo) != 2 || byVideo[0].FrameID != "f5" || byVideo[1].FrameID != "f10" {
		t.Errorf("expected detections ordered by frame number, got %+v", byVideo)
	}

	still, _ := detections.ListStill(ctx)
	if len(still) != 1 || still[0].Source != "still.jpg" {
		t.Errorf("ListStill should only contain still images, got %+v", still)
	}

	frames, err := videos.ListFrames(ctx, "v1")
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 2 || frames[0].Number != 5 {
		t.Errorf("frames not ordered by number: %+v", frames)
	}

	frame, err := videos.GetFrame(ctx, "f10")
	if err != nil || frame == nil || frame.Number != 10 {
		t.Errorf("GetFrame = %+v, %v", frame, err)
	}
	missing, err := videos.GetFrame(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("GetFrame(missing) = %+v, %v", missing, err)
	}

	listed, err := videos.ListVideos(ctx)
	if err != nil || len(listed) != 1 || listed[0].Name != "harbor.mp4" {
		t.Errorf("ListVideos = %+v, %v", listed, err)
	}
}

func TestVideoRepository_FrameRequiresVideo(t *testing.T) {
	videos := NewVideoRepository(newTestDB(t))

	err := videos.InsertFrame(context.Background(), &models.Frame{ID: "f1", VideoID: "missing", Number: 1, FilePath: "x", Width: 1, Height: 1})
	if !errors.Is(err, apperr.ErrPersistence) {
		t.Errorf("expected ErrPersistence for orphan frame, got %v", err)
	}
}

func TestDetectionRepository_ConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	repo := NewDetectionRepository(newTestDB(t))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			det := &models.Detection{Source: fmt.Sprintf("img%d.jpg", idx), ClassName: "human", X: idx, Y: idx, Width: 1, Height: 1}
			if _, err := repo.Insert(ctx, det); err != nil {
				t.Errorf("Concurrent insert %d failed: %v", idx, err)
			}
		}(i)
	}
	wg.Wait()

	all, _ := repo.ListStill(ctx)
	if len(all) != 10 {
		t.Errorf("Expected 10 detections, got %d", len(all))
	}
}

func TestDetectionRepository_CancelledContext(t *testing.T) {
	repo := NewDetectionRepository(newTestDB(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Insert(ctx, &models.Detection{Source: "a.jpg", ClassName: "human", X: 1, Y: 1, Width: 1, Height: 1})
	if !errors.Is(err, apperr.ErrPersistence) {
		t.Errorf("expected ErrPersistence, got %v", err)
	}
}
