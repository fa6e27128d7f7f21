package models

import "time"

// Screen names the page a session is currently on.
type Screen string

const (
	ScreenLanding Screen = "landing"
	ScreenUpload  Screen = "upload"
	ScreenResults Screen = "results"
)

// Upload is a file the user selected on the upload screen.
type Upload struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// Session is the per-browser UI state: current screen, last result and the
// selected image.
type Session struct {
	ID        string            `json:"id"`
	Screen    Screen            `json:"screen"`
	Result    *PredictionResult `json:"result,omitempty"`
	Upload    *Upload           `json:"upload,omitempty"`
	Error     string            `json:"error,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewSession returns a session on the landing screen.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		Screen:    ScreenLanding,
		UpdatedAt: time.Now(),
	}
}

// Clone returns a copy that shares no mutable pointers with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Result != nil {
		r := *s.Result
		c.Result = &r
	}
	if s.Upload != nil {
		u := *s.Upload
		u.Data = append([]byte(nil), s.Upload.Data...)
		c.Upload = &u
	}
	return &c
}
