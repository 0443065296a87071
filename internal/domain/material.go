package domain

import "time"

// ApprovalStatus is the tri-state field controlling student visibility of
// a material. It starts at pending and moves to approved or rejected by
// admin action only; no transition leads back to pending.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

// ValidStatus reports whether s names a known approval status.
func ValidStatus(s string) bool {
	switch ApprovalStatus(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Material is an uploaded study resource owned by a teacher. FilePath is
// the opaque storage key; OriginalName is the filename the teacher
// uploaded, kept as metadata and used as the attachment name on download.
type Material struct {
	ID             int64          `json:"id"`
	Title          string         `json:"title"`
	Subject        string         `json:"subject"`
	Description    string         `json:"description,omitempty"`
	FilePath       string         `json:"-"`
	OriginalName   string         `json:"originalName"`
	UploadedBy     int64          `json:"uploadedBy"`
	UploaderName   string         `json:"uploaderName,omitempty"` // joined from users
	ApprovalStatus ApprovalStatus `json:"approvalStatus"`
	UploadDate     time.Time      `json:"uploadDate"`
	ApprovedBy     *int64         `json:"approvedBy,omitempty"`
	ApprovalDate   *time.Time     `json:"approvalDate,omitempty"`
	DownloadCount  int64          `json:"downloadCount"`
}
