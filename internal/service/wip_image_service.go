package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	cfg "github.com/contentflow/contentflow-api/configs"
	"github.com/contentflow/contentflow-api/internal/transfer"
	"github.com/google/uuid"
)

// WIPImageService owns the scratch slot of a post: a single candidate image in
// the previews bucket that can be promoted to the post's permanent images.
type WIPImageService interface {
	Populate(ctx context.Context, orgID, postID uuid.UUID, data []byte, ext, contentType string) (*transfer.PreviewImage, error)
	Confirm(ctx context.Context, orgID, postID uuid.UUID, details *transfer.ConfirmWIPImageDetails, currentPath *string) (*ConfirmedImage, error)
	Discard(ctx context.Context, orgID, postID uuid.UUID) error
}

type ConfirmedImage struct {
	URL  string
	Path string
	// ReplacedPath is the previous permanent image, if it differs from Path.
	ReplacedPath *string
}

type wipImageService struct {
	store          ObjectStore
	mediaBucket    string
	previewsBucket string
	newID          func() uuid.UUID
	locks          *keyedMutex
}

func NewWIPImageService(store ObjectStore, c cfg.Config) WIPImageService {
	return &wipImageService{
		store:          store,
		mediaBucket:    c.Storage.MediaBucket,
		previewsBucket: c.Storage.PreviewsBucket,
		newID:          uuid.New,
		locks:          newKeyedMutex(),
	}
}

func (s *wipImageService) Populate(ctx context.Context, orgID, postID uuid.UUID, data []byte, ext, contentType string) (*transfer.PreviewImage, error) {
	ext = normalizeExtension(ext)
	if !isImageExtension(ext) {
		return nil, validationError("unsupported image extension %q", ext)
	}

	unlock, err := s.locks.lock(ctx, postID.String())
	if err != nil {
		return nil, storageError("scratch image is busy", err)
	}
	defer unlock()

	folder := WIPFolderPath(orgID, postID)
	if err := s.store.DeleteFolder(ctx, s.previewsBucket, folder); err != nil {
		slog.Warn("could not clear scratch folder before upload", "post_id", postID, "error", err)
	}

	path := WIPImageStoragePath(orgID, postID, ext)
	res, err := s.store.Upload(ctx, s.previewsBucket, path, data, contentType, UploadOptions{Upsert: true, CacheBust: true})
	if err != nil {
		return nil, err
	}

	return &transfer.PreviewImage{
		PreviewImageURL:       res.PublicURL,
		PreviewStoragePath:    res.Path,
		PreviewImageExtension: ext,
		PreviewContentType:    contentType,
	}, nil
}

func (s *wipImageService) Confirm(ctx context.Context, orgID, postID uuid.UUID, details *transfer.ConfirmWIPImageDetails, currentPath *string) (*ConfirmedImage, error) {
	if details == nil {
		return nil, validationError("confirm_wip_image_details is required")
	}

	ext := normalizeExtension(details.Extension)
	if !isImageExtension(ext) {
		return nil, validationError("unsupported image extension %q", details.Extension)
	}

	expected := WIPImageStoragePath(orgID, postID, ext)
	if details.Path != expected {
		slog.Warn("rejected scratch confirmation for foreign path", "post_id", postID, "path", details.Path)
		return nil, validationError("invalid WIP image path for this post")
	}

	contentType := imageExtensions[ext]
	if declared := strings.ToLower(strings.TrimSpace(details.ContentType)); declared != "" {
		if _, ok := allowedImageContentTypes[declared]; !ok {
			return nil, validationError("unsupported image content type %q", details.ContentType)
		}
		if declared != contentType {
			return nil, validationError("content type %q does not match extension %q", details.ContentType, ext)
		}
	}

	unlock, err := s.locks.lock(ctx, postID.String())
	if err != nil {
		return nil, storageError("scratch image is busy", err)
	}
	defer unlock()

	permanent := PostMediaStoragePath(orgID, postID, s.newID().String()+"."+ext)
	if _, err := s.store.Move(ctx, s.previewsBucket, expected, s.mediaBucket, permanent, contentType); err != nil {
		return nil, err
	}

	confirmed := &ConfirmedImage{
		URL:  s.store.PublicURL(s.mediaBucket, permanent),
		Path: permanent,
	}
	if currentPath != nil && *currentPath != "" && *currentPath != permanent {
		old := *currentPath
		confirmed.ReplacedPath = &old
	}

	return confirmed, nil
}

func (s *wipImageService) Discard(ctx context.Context, orgID, postID uuid.UUID) error {
	unlock, err := s.locks.lock(ctx, postID.String())
	if err != nil {
		return storageError("scratch image is busy", err)
	}
	defer unlock()

	return s.store.DeleteFolder(ctx, s.previewsBucket, WIPFolderPath(orgID, postID))
}

// keyedMutex serializes work per key and drops entries nobody is waiting on.
// Waiters give up when their context is done.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sem  chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

func (k *keyedMutex) lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{sem: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		k.release(key, l)
		return nil, ctx.Err()
	}

	return func() {
		<-l.sem
		k.release(key, l)
	}, nil
}

func (k *keyedMutex) release(key string, l *keyedLock) {
	k.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()
}
