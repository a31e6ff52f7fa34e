package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"trafficsafe-backend/models"
)

// ErrObjectNotFound is returned by Download when nothing is stored at the path
var ErrObjectNotFound = errors.New("object not found")

// Storage interface for lesson document storage operations
type Storage interface {
	// Upload stores data at storagePath, replacing any previous object
	Upload(ctx context.Context, storagePath string, data io.Reader) error

	// Download retrieves an object by storage path
	Download(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Delete removes an object by storage path
	Delete(ctx context.Context, storagePath string) error
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// LessonDocumentDir is the folder holding the downloadable lesson documents
const LessonDocumentDir = "word_text"

// StorageConfig holds configuration for storage
type StorageConfig struct {
	Type         StorageType
	LocalPath    string // For local storage
	S3Bucket     string // For S3 storage
	S3Region     string // For S3 storage
	AWSAccessKey string
	AWSSecretKey string
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(cfg StorageConfig) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal:
		return NewLocalStorage(cfg.LocalPath)
	case StorageTypeS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET environment variable is required for S3 storage")
		}
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// ConfigFromEnv reads the storage configuration from environment variables
func ConfigFromEnv() StorageConfig {
	cfg := StorageConfig{
		Type:         StorageType(os.Getenv("STORAGE_TYPE")),
		LocalPath:    os.Getenv("STORAGE_LOCAL_PATH"),
		S3Bucket:     os.Getenv("AWS_S3_BUCKET"),
		S3Region:     os.Getenv("AWS_REGION"),
		AWSAccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}
	if cfg.Type == "" {
		cfg.Type = StorageTypeLocal // Default to local for development
	}
	if cfg.LocalPath == "" {
		cfg.LocalPath = "./storage/files"
	}
	if cfg.S3Region == "" {
		cfg.S3Region = "us-east-1"
	}
	return cfg
}

// NewStorageFromEnv creates a storage instance from environment variables
func NewStorageFromEnv() (Storage, error) {
	return NewStorage(ConfigFromEnv())
}

// LessonDocumentFilename is the file name a lesson document is offered under
func LessonDocumentFilename(lessonID int) string {
	return fmt.Sprintf("BÀI %d.docx", lessonID)
}

// LessonDocumentPath is the storage path of a lesson document
func LessonDocumentPath(lessonID int) string {
	return LessonDocumentDir + "/" + LessonDocumentFilename(lessonID)
}

// ContentType determines content type from filename
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}

// LessonDocumentFor describes where the document of a lesson is stored
func LessonDocumentFor(lessonID int) models.LessonDocument {
	filename := LessonDocumentFilename(lessonID)
	return models.LessonDocument{
		LessonID:    lessonID,
		Filename:    filename,
		MimeType:    ContentType(filename),
		StoragePath: LessonDocumentPath(lessonID),
	}
}
