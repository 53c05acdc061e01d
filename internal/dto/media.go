package dto

type UploadRequest struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

type UploadCredentialResponse struct {
	UploadID string `json:"uploadId"`
	URL      string `json:"url"`
	Expires  int64  `json:"expires"`
}

type CompleteUploadRequest struct {
	UploadID string `json:"uploadId"`
}

type MediaResponse struct {
	ID            string `json:"id"`
	FileName      string `json:"fileName"`
	MimeType      string `json:"mimeType"`
	Size          int64  `json:"size"`
	Status        string `json:"status"`
	StorageKey    string `json:"storageKey,omitempty"`
	StorageBucket string `json:"storageBucket,omitempty"`
	CreatedAt     int64  `json:"createdAt"`
	UpdatedAt     int64  `json:"updatedAt"`
	UploadedAt    int64  `json:"uploadedAt,omitempty"`
	DownloadURL   string `json:"downloadUrl,omitempty"`
}

type PaginationResponse struct {
	Page            int   `json:"page"`
	Limit           int   `json:"limit"`
	TotalItems      int64 `json:"totalItems"`
	TotalPages      int   `json:"totalPages"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

type MediaListResponse struct {
	Items      []MediaResponse    `json:"items"`
	Pagination PaginationResponse `json:"pagination"`
}

type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}
