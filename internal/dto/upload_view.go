package dto

// UploadView is the upload screen model.
type UploadView struct {
	FileName  string
	HasFile   bool
	Error     string
	Busy      bool
	MaxSizeMB int64
}
