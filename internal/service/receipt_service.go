package service

import (
	"context"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const MaxFileSize = 5 * 1024 * 1024 // 5MB

// ReceiptUploadMessage is returned for every accepted document.
const ReceiptUploadMessage = "Document uploaded successfully"

// Receipt describes an accepted document.
type Receipt struct {
	LoadID      string `json:"loadId"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Message     string `json:"message"`
}

// ReceiptService accepts load documents. Documents are validated but not
// stored; no storage backend exists yet.
type ReceiptService interface {
	UploadReceipt(ctx context.Context, loadID string, file *multipart.FileHeader) (*Receipt, error)
}

type receiptService struct {
	loads LoadService
	log   zerolog.Logger
}

func NewReceiptService(loads LoadService, log zerolog.Logger) ReceiptService {
	return &receiptService{loads: loads, log: log.With().Str("component", "receipts").Logger()}
}

var allowedExts = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".pdf":  "application/pdf",
}

func (s *receiptService) UploadReceipt(ctx context.Context, loadID string, file *multipart.FileHeader) (*Receipt, error) {
	if file == nil {
		return nil, ErrNoDocument
	}
	if _, err := s.loads.GetLoad(ctx, loadID); err != nil {
		return nil, err
	}

	// Validate file
	if file.Size > MaxFileSize {
		return nil, ErrFileSizeExceeded
	}
	contentType, ok := documentType(file)
	if !ok {
		return nil, ErrInvalidFileFormat
	}

	fileName := filepath.Base(file.Filename)
	s.log.Info().
		Str("load_id", loadID).
		Str("file", fileName).
		Str("content_type", contentType).
		Int64("size", file.Size).
		Msg("document accepted")

	return &Receipt{
		LoadID:      loadID,
		FileName:    fileName,
		ContentType: contentType,
		Size:        file.Size,
		Message:     ReceiptUploadMessage,
	}, nil
}

// documentType accepts image/* and application/pdf, judged by the declared
// part type first and the file extension second.
func documentType(file *multipart.FileHeader) (string, bool) {
	if declared := file.Header.Get("Content-Type"); declared != "" {
		mediaType, _, err := mime.ParseMediaType(declared)
		if err == nil && (strings.HasPrefix(mediaType, "image/") || mediaType == "application/pdf") {
			return mediaType, true
		}
	}
	ct, ok := allowedExts[strings.ToLower(filepath.Ext(file.Filename))]
	return ct, ok
}
