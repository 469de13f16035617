package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"objectsrecognition/internal/journal"
	"objectsrecognition/internal/repository/sqlite"
)

func main() {
	dbPath := flag.String("db", "data/recognition.db", "Database path")
	videoID := flag.String("video", "", "Print the journal of one video")
	listVideos := flag.Bool("videos", false, "List processed videos")
	frameID := flag.String("frame", "", "Print the archived file of one frame")
	listClasses := flag.Bool("classes", false, "List detected class names")
	flag.Parse()

	if _, err := os.Stat(*dbPath); err != nil {
		log.Fatalf("Database %s not found: %v", *dbPath, err)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	svc := journal.NewService(sqlite.NewDetectionRepository(db), sqlite.NewVideoRepository(db))

	switch {
	case *listVideos:
		videos, err := svc.Videos(ctx)
		if err != nil {
			log.Fatalf("Failed to list videos: %v", err)
		}
		for _, v := range videos {
			fmt.Printf("%s  %s  every %d frame(s)  %s\n", v.ID, v.Name, v.FrameRate, v.CreatedAt.Format("2006-01-02 15:04:05"))
		}

	case *listClasses:
		classes, err := svc.Classes(ctx)
		if err != nil {
			log.Fatalf("Failed to list classes: %v", err)
		}
		for _, c := range classes {
			fmt.Println(c)
		}

	case *frameID != "":
		frame, err := svc.Frame(ctx, *frameID)
		if err != nil {
			log.Fatalf("Failed to read frame: %v", err)
		}
		fmt.Printf("frame %d of %s: %s (%dx%d)\n", frame.Number, frame.VideoID, frame.FilePath, frame.Width, frame.Height)

	case *videoID != "":
		vj, err := svc.Video(ctx, *videoID)
		if err != nil {
			log.Fatalf("Failed to read video journal: %v", err)
		}
		fmt.Printf("%s (%d frames, %d detections)\n", vj.Video.Name, len(vj.Frames), len(vj.Entries))
		for _, e := range vj.Entries {
			fmt.Println(journal.Format(e))
		}

	default:
		entries, err := svc.Still(ctx)
		if err != nil {
			log.Fatalf("Failed to read journal: %v", err)
		}
		if len(entries) == 0 {
			fmt.Println("Journal is empty")
			return
		}
		for _, e := range entries {
			fmt.Println(journal.Format(e))
		}
	}
}
