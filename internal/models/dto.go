package models

import "time"

// ===== REQUESTS =====

type RegisterRequest struct {
	FullName string `json:"full_name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,password_strength"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember"`
	// Redirect is echoed back after a successful login so the client can
	// resume where it left off. Relative paths only.
	Redirect string `json:"redirect" validate:"omitempty,max=500"`
}

type UpdateProfileRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,min=2,max=100"`
	College  *string `json:"college" validate:"omitempty,max=200"`
	Branch   *string `json:"branch" validate:"omitempty,max=100"`
	Year     *int    `json:"year" validate:"omitempty,academic_year"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,password_strength"`
}

type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

type ResetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type UploadNoteRequest struct {
	Title    string   `form:"title" validate:"required,min=1,max=200"`
	Subject  string   `form:"subject" validate:"required,min=1,max=100"`
	Semester int      `form:"semester" validate:"required,min=1,max=12"`
	Kind     NoteKind `form:"kind" validate:"required,note_kind"`
}

// ===== RESULTS =====

// CodeEmailExists marks a registration rejected because the email is taken.
// Handlers branch on codes, never on message wording.
const CodeEmailExists = "email_exists"

// Result is the common shape of every operation outcome: a success flag plus
// a user-facing message. Validation and business failures are Results, not
// errors. Code carries a machine-readable reason where callers need one.
type Result struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type RegisterResult struct {
	Result
	User *User `json:"user,omitempty"`
}

type LoginResult struct {
	Result
	Token      string    `json:"token,omitempty"`
	User       *User     `json:"user,omitempty"`
	ExpiresAt  time.Time `json:"expires_at,omitzero"`
	RedirectTo string    `json:"redirect_to,omitempty"`
}

type ResetPasswordResult struct {
	Result
	// TemporaryPassword is returned exactly once; only its hash is stored.
	TemporaryPassword string `json:"temporary_password,omitempty"`
}

// NoteMetadata is the ephemeral per-upload record returned to the client.
// Only the underlying note row persists.
type NoteMetadata struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Subject    string    `json:"subject"`
	Semester   int       `json:"semester"`
	Kind       NoteKind  `json:"kind"`
	FileName   string    `json:"file_name"`
	FileSize   int64     `json:"file_size"`
	UploaderID string    `json:"uploader_id"`
	UploadedAt time.Time `json:"uploaded_at"`
	FileURL    string    `json:"file_url"`
}

type UploadResult struct {
	Result
	Note       *NoteMetadata `json:"note,omitempty"`
	IsImage    bool          `json:"is_image"`
	PreviewURL string        `json:"preview_url,omitempty"`
}

// AccountResponse is everything the account page renders: profile fields plus
// both ordered notes lists.
type AccountResponse struct {
	User         *User    `json:"user"`
	LectureNotes []string `json:"lecture_notes"`
	PYQNotes     []string `json:"pyq_notes"`
	NoteCount    int      `json:"note_count"`
}
