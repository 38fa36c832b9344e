package store

import (
	"context"
	"encoding/base64"
	"errors"
	"time"
)

//go:generate mockgen -source=store.go -destination=store_mock.go -package=store

var (
	// ErrNotFound is returned when no submission has the requested ID.
	ErrNotFound = errors.New("submission not found")
	// ErrExists is returned when creating a submission whose ID is taken.
	ErrExists = errors.New("submission already exists")
	// ErrInvalidPageToken is returned when a page token cannot be decoded.
	ErrInvalidPageToken = errors.New("invalid page token")
)

// Submission is the record kept for every processed upload.
type Submission struct {
	ID               string    `firestore:"id" json:"id"`
	OriginalFilename string    `firestore:"originalFilename" json:"original_filename"`
	UploadKey        string    `firestore:"uploadKey" json:"upload_key"`
	PDFKey           string    `firestore:"pdfKey" json:"pdf_key"`
	QueryType        string    `firestore:"queryType,omitempty" json:"query_type,omitempty"`
	RiskLevel        string    `firestore:"riskLevel" json:"risk_level"`
	Preview          string    `firestore:"preview" json:"preview"`
	Response         string    `firestore:"response" json:"response"`
	GenerationSource string    `firestore:"generationSource" json:"generation_source"`
	CreatedAt        time.Time `firestore:"createdAt" json:"created_at"`
}

// Store defines the persistence operations for submission records
type Store interface {
	CreateSubmission(ctx context.Context, s *Submission) error
	GetSubmission(ctx context.Context, id string) (*Submission, error)
	// ListSubmissions returns submissions in ID order, which is creation
	// order for time-ordered IDs.
	ListSubmissions(ctx context.Context, pageSize int32, pageToken string) ([]*Submission, string, error)
	DeleteSubmissionsBefore(ctx context.Context, before time.Time) (int, error)
}

// EncodePageToken encodes a document ID into a page token.
func EncodePageToken(docID string) string {
	if docID == "" {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(docID))
}

// DecodePageToken decodes a page token back to a document ID.
func DecodePageToken(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

const defaultPageSize = 100
