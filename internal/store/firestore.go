package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const submissionsCollection = "submissions"

// FirestoreStore implements the Store interface using Firestore
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed store
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{
		client: client,
	}
}

// applyCursorPagination adds OrderBy + StartAfter + Limit to a query for cursor-based pagination.
// It fetches pageSize+1 docs so the caller can detect whether a next page exists.
func applyCursorPagination(query firestore.Query, pageSize int32, pageToken string) (firestore.Query, int32, error) {
	query = query.OrderBy(firestore.DocumentID, firestore.Asc)

	if pageToken != "" {
		docID, err := DecodePageToken(pageToken)
		if err != nil {
			return query, 0, fmt.Errorf("%w: %v", ErrInvalidPageToken, err)
		}
		query = query.StartAfter(docID)
	}

	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return query.Limit(int(pageSize) + 1), pageSize, nil
}

// CreateSubmission creates a new submission document
func (s *FirestoreStore) CreateSubmission(ctx context.Context, sub *Submission) error {
	_, err := s.client.Collection(submissionsCollection).Doc(sub.ID).Create(ctx, sub)
	if status.Code(err) == codes.AlreadyExists {
		return ErrExists
	}
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

// GetSubmission retrieves a submission by ID
func (s *FirestoreStore) GetSubmission(ctx context.Context, id string) (*Submission, error) {
	doc, err := s.client.Collection(submissionsCollection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	var sub Submission
	if err := doc.DataTo(&sub); err != nil {
		return nil, fmt.Errorf("failed to parse submission: %w", err)
	}
	return &sub, nil
}

// ListSubmissions lists submissions with cursor pagination
func (s *FirestoreStore) ListSubmissions(ctx context.Context, pageSize int32, pageToken string) ([]*Submission, string, error) {
	query, pageSize, err := applyCursorPagination(s.client.Collection(submissionsCollection).Query, pageSize, pageToken)
	if err != nil {
		return nil, "", err
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list submissions: %w", err)
	}

	var nextPageToken string
	if len(docs) > int(pageSize) {
		docs = docs[:pageSize]
		nextPageToken = EncodePageToken(docs[pageSize-1].Ref.ID)
	}

	subs := make([]*Submission, 0, len(docs))
	for _, doc := range docs {
		var sub Submission
		if err := doc.DataTo(&sub); err != nil {
			return nil, "", fmt.Errorf("failed to parse submission: %w", err)
		}
		subs = append(subs, &sub)
	}
	return subs, nextPageToken, nil
}

// DeleteSubmissionsBefore removes every submission created before the cutoff
func (s *FirestoreStore) DeleteSubmissionsBefore(ctx context.Context, before time.Time) (int, error) {
	iter := s.client.Collection(submissionsCollection).Where("createdAt", "<", before).Documents(ctx)
	defer iter.Stop()

	n := 0
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return n, fmt.Errorf("failed to query expired submissions: %w", err)
		}
		if _, err := doc.Ref.Delete(ctx); err != nil && status.Code(err) != codes.NotFound {
			return n, fmt.Errorf("failed to delete submission %s: %w", doc.Ref.ID, err)
		}
		n++
	}
	return n, nil
}
