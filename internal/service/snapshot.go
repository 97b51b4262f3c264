package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"

	"userapi/internal/storage"
)

// SnapshotResult describes an uploaded user snapshot.
type SnapshotResult struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
	ETag string `json:"etag"`
	URL  string `json:"url"`
}

// SnapshotService exports the user table to object storage.
type SnapshotService interface {
	// Export uploads every user as a JSON array and returns a presigned download URL.
	Export(ctx context.Context) (*SnapshotResult, error)
}

type snapshotService struct {
	users     UserService
	store     storage.Storage
	urlExpiry time.Duration
	now       func() time.Time
}

// NewSnapshotService constructs a SnapshotService writing to store.
func NewSnapshotService(users UserService, store storage.Storage, urlExpiry time.Duration) SnapshotService {
	return &snapshotService{users: users, store: store, urlExpiry: urlExpiry, now: time.Now}
}

func (s *snapshotService) Export(ctx context.Context) (*SnapshotResult, error) {
	ctx, span := tracer.Start(ctx, "SnapshotService.Export")
	defer span.End()

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	body, err := json.Marshal(users)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	name := fmt.Sprintf("users-%s-%s.json", s.now().UTC().Format("20060102T150405Z"), uuid.NewString())
	key := path.Join("snapshots", name)

	info, err := s.store.Put(ctx, key, bytes.NewReader(body), storage.PutObjectOptions{
		Size:        int64(len(body)),
		ContentType: "application/json",
		Metadata: map[string]string{
			"user-count": strconv.Itoa(len(users)),
		},
	})
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("upload snapshot: %w", err)
	}

	url, err := s.store.PresignGet(ctx, info.Key, s.urlExpiry)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("presign snapshot: %w", err)
	}

	return &SnapshotResult{Key: info.Key, Size: info.Size, ETag: info.ETag, URL: url}, nil
}
