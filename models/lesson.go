package models

// Lesson is one fixed educational topic offered by the chat assistant
type Lesson struct {
	ID      int    `json:"id" yaml:"id"`
	Key     string `json:"key" yaml:"key"` // trigger keyword, lowercase
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// LessonDocument describes the downloadable document attached to a lesson
type LessonDocument struct {
	LessonID    int    `json:"lesson_id"`
	Filename    string `json:"filename"`
	MimeType    string `json:"mime_type"`
	StoragePath string `json:"storage_path"`
}
