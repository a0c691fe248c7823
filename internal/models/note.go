package models

import "time"

type NoteKind string

const (
	NoteKindLecture NoteKind = "lecture"
	NoteKindPYQ     NoteKind = "pyq"
)

// Note is one uploaded document reference. A user's lecture and
// past-year-question lists are the titles of their notes of each kind,
// ordered by Position.
type Note struct {
	ID       string   `json:"id" gorm:"primaryKey;size:36"`
	UserID   string   `json:"user_id" gorm:"index;not null;size:36"`
	Title    string   `json:"title" gorm:"not null;size:200"`
	Subject  string   `json:"subject" gorm:"not null;size:100"`
	Semester int      `json:"semester" gorm:"not null"`
	Kind     NoteKind `json:"kind" gorm:"index;not null;size:16"`

	FileName string `json:"file_name" gorm:"size:255"`
	FileSize int64  `json:"file_size"`
	// StoredPath points at the file under the upload directory; never exposed.
	StoredPath string `json:"-" gorm:"size:500"`

	// Position is the append order within (UserID, Kind).
	Position   int       `json:"position" gorm:"not null"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func (Note) TableName() string {
	return "notes"
}
