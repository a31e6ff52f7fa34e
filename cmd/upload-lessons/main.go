package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"trafficsafe-backend/catalog"
	"trafficsafe-backend/storage"

	"github.com/joho/godotenv"
)

func main() {
	dir := flag.String("dir", "./word_text", "directory holding the BÀI <id>.docx files")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	cat, err := catalog.Load()
	if err != nil {
		log.Fatalf("Failed to load lesson catalog: %v", err)
	}

	store, err := storage.NewStorageFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	ctx := context.Background()
	uploaded := 0
	for _, lesson := range cat.Lessons {
		doc := storage.LessonDocumentFor(lesson.ID)
		local := filepath.Join(*dir, doc.Filename)

		f, err := os.Open(local)
		if err != nil {
			log.Printf("Warning: skipping lesson %d: %v", lesson.ID, err)
			continue
		}
		err = store.Upload(ctx, doc.StoragePath, f)
		f.Close()
		if err != nil {
			log.Printf("Error: failed to upload %s: %v", local, err)
			continue
		}

		log.Printf("✓ %s -> %s", local, doc.StoragePath)
		uploaded++
	}

	fmt.Printf("\n✅ Uploaded %d of %d lesson documents\n", uploaded, len(cat.Lessons))
}
