package models

// UploadProgress is a transient notification value describing how far a
// transfer has advanced. It is broadcast to observers and never stored.
type UploadProgress struct {
	UploadID string `json:"uploadId"`
	Loaded   int64  `json:"loaded"`
	Total    int64  `json:"total"`
	Done     bool   `json:"done"`
}
