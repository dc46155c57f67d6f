package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	cfg "github.com/contentflow/contentflow-api/configs"
	"github.com/contentflow/contentflow-api/internal/transfer"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() cfg.Config {
	return cfg.Config{
		MaxUploadBytes: 20 * 1024 * 1024,
		Storage: cfg.Storage{
			MediaBucket:    testMediaBucket,
			PreviewsBucket: testPreviewsBucket,
		},
	}
}

func newTestWIPService(store ObjectStore) *wipImageService {
	return NewWIPImageService(store, testConfig()).(*wipImageService)
}

func TestStoragePaths(t *testing.T) {
	org := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	post := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	assert.Equal(t, "11111111-1111-1111-1111-111111111111/posts/22222222-2222-2222-2222-222222222222/wip/", WIPFolderPath(org, post))
	assert.Equal(t, WIPFolderPath(org, post)+"preview_active.png", WIPImageStoragePath(org, post, ".PNG"))
	assert.Equal(t, WIPFolderPath(org, post)+"preview_active.jpg", WIPImageStoragePath(org, post, "jpg"))
	assert.Equal(t, "11111111-1111-1111-1111-111111111111/posts/22222222-2222-2222-2222-222222222222/images/a.webp",
		PostMediaStoragePath(org, post, "a.webp"))
}

func TestPopulateKeepsSingleScratchObject(t *testing.T) {
	store, backend := newTestStore()
	wip := newTestWIPService(store)
	org, post := uuid.New(), uuid.New()
	ctx := context.Background()

	_, err := wip.Populate(ctx, org, post, pngBytes, "png", "image/png")
	require.NoError(t, err)

	preview, err := wip.Populate(ctx, org, post, jpegBytes, ".jpg", "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, []string{WIPImageStoragePath(org, post, "jpg")}, backend.keys(testPreviewsBucket))
	assert.Equal(t, "jpg", preview.PreviewImageExtension)
	assert.Equal(t, "image/jpeg", preview.PreviewContentType)
	assert.Equal(t, WIPImageStoragePath(org, post, "jpg"), preview.PreviewStoragePath)
	assert.Contains(t, preview.PreviewImageURL, "?v=")
}

func TestPopulateContinuesWhenFolderCleanupFails(t *testing.T) {
	store, backend := newTestStore()
	backend.fail = func(op, bucket, key string) error {
		if op == "list" {
			return errBoom
		}
		return nil
	}
	wip := newTestWIPService(store)
	org, post := uuid.New(), uuid.New()

	_, err := wip.Populate(context.Background(), org, post, pngBytes, "png", "image/png")
	require.NoError(t, err)
	assert.True(t, backend.has(testPreviewsBucket, WIPImageStoragePath(org, post, "png")))
}

func TestPopulateUploadFailureIsFatal(t *testing.T) {
	store, backend := newTestStore()
	backend.fail = func(op, bucket, key string) error {
		if op == "put" {
			return errBoom
		}
		return nil
	}
	wip := newTestWIPService(store)

	_, err := wip.Populate(context.Background(), uuid.New(), uuid.New(), pngBytes, "png", "image/png")
	assert.True(t, errors.Is(err, ErrStorage))
}

func TestPopulateRejectsUnknownExtension(t *testing.T) {
	store, _ := newTestStore()
	wip := newTestWIPService(store)

	_, err := wip.Populate(context.Background(), uuid.New(), uuid.New(), pngBytes, "../x", "image/png")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestConcurrentPopulatesLeaveOneScratchObject(t *testing.T) {
	store, backend := newTestStore()
	wip := newTestWIPService(store)
	org, post := uuid.New(), uuid.New()

	var wg sync.WaitGroup
	for _, ext := range []string{"png", "jpg", "webp", "gif"} {
		wg.Add(1)
		go func(ext string) {
			defer wg.Done()
			_, err := wip.Populate(context.Background(), org, post, pngBytes, ext, imageExtensions[ext])
			assert.NoError(t, err)
		}(ext)
	}
	wg.Wait()

	assert.Len(t, backend.keys(testPreviewsBucket), 1)
}

func TestConfirmRejectsForeignPath(t *testing.T) {
	store, backend := newTestStore()
	wip := newTestWIPService(store)
	org, post, other := uuid.New(), uuid.New(), uuid.New()
	foreign := WIPImageStoragePath(other, post, "png")
	backend.put(testPreviewsBucket, foreign, pngBytes, "image/png")

	_, err := wip.Confirm(context.Background(), org, post, &transfer.ConfirmWIPImageDetails{
		Path: foreign, Extension: "png", ContentType: "image/png",
	}, nil)

	assert.True(t, errors.Is(err, ErrValidation))
	assert.True(t, backend.has(testPreviewsBucket, foreign))
	assert.Empty(t, backend.keys(testMediaBucket))
}

func TestConfirmMovesScratchToFreshPermanentPath(t *testing.T) {
	store, backend := newTestStore()
	wip := newTestWIPService(store)
	org, post := uuid.New(), uuid.New()
	ctx := context.Background()
	details := &transfer.ConfirmWIPImageDetails{Path: WIPImageStoragePath(org, post, "png"), Extension: "png", ContentType: "image/png"}

	_, err := wip.Populate(ctx, org, post, pngBytes, "png", "image/png")
	require.NoError(t, err)
	first, err := wip.Confirm(ctx, org, post, details, nil)
	require.NoError(t, err)
	assert.Nil(t, first.ReplacedPath)

	_, err = wip.Populate(ctx, org, post, pngBytes, "png", "image/png")
	require.NoError(t, err)
	second, err := wip.Confirm(ctx, org, post, details, &first.Path)
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
	require.NotNil(t, second.ReplacedPath)
	assert.Equal(t, first.Path, *second.ReplacedPath)
	assert.Regexp(t, `^`+PostImagesFolderPath(org, post)+`[0-9a-f-]{36}\.png$`, second.Path)
	assert.Equal(t, store.PublicURL(testMediaBucket, second.Path), second.URL)
	assert.Empty(t, backend.keys(testPreviewsBucket))
}

func TestConfirmMissingScratchObject(t *testing.T) {
	store, _ := newTestStore()
	wip := newTestWIPService(store)
	org, post := uuid.New(), uuid.New()

	_, err := wip.Confirm(context.Background(), org, post, &transfer.ConfirmWIPImageDetails{
		Path: WIPImageStoragePath(org, post, "png"), Extension: "png", ContentType: "image/png",
	}, nil)
	assert.True(t, errors.Is(err, ErrStorage))
}

func TestConfirmRejectsContentTypeThatDisagreesWithExtension(t *testing.T) {
	store, backend := newTestStore()
	wip := newTestWIPService(store)
	org, post := uuid.New(), uuid.New()
	scratch := WIPImageStoragePath(org, post, "png")
	backend.put(testPreviewsBucket, scratch, pngBytes, "image/png")

	_, err := wip.Confirm(context.Background(), org, post, &transfer.ConfirmWIPImageDetails{
		Path: scratch, Extension: "png", ContentType: "image/gif",
	}, nil)

	assert.True(t, errors.Is(err, ErrValidation))
	assert.True(t, backend.has(testPreviewsBucket, scratch))
	assert.Empty(t, backend.keys(testMediaBucket))
}

func TestConfirmDerivesContentTypeFromExtension(t *testing.T) {
	store, backend := newTestStore()
	wip := newTestWIPService(store)
	org, post := uuid.New(), uuid.New()
	scratch := WIPImageStoragePath(org, post, "jpeg")
	backend.put(testPreviewsBucket, scratch, jpegBytes, "image/jpeg")

	confirmed, err := wip.Confirm(context.Background(), org, post, &transfer.ConfirmWIPImageDetails{
		Path: scratch, Extension: "jpeg",
	}, nil)
	require.NoError(t, err)

	assert.True(t, backend.has(testMediaBucket, confirmed.Path))
	assert.Equal(t, "image/jpeg", backend.contentType(testMediaBucket, confirmed.Path))
}

func TestScratchLockWaitStopsOnCancel(t *testing.T) {
	locks := newKeyedMutex()
	unlock, err := locks.lock(context.Background(), "post")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locks.lock(ctx, "post")
	assert.ErrorIs(t, err, context.Canceled)

	other, err := locks.lock(context.Background(), "other-post")
	require.NoError(t, err)
	other()

	unlock()
	again, err := locks.lock(context.Background(), "post")
	require.NoError(t, err)
	again()
	assert.Empty(t, locks.locks)
}

func TestDiscardWaitsForPopulate(t *testing.T) {
	store, backend := newTestStore()
	wip := newTestWIPService(store)
	org, post := uuid.New(), uuid.New()

	unlock, err := wip.locks.lock(context.Background(), post.String())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = wip.Discard(ctx, org, post)
	assert.True(t, errors.Is(err, ErrStorage))
	assert.ErrorIs(t, err, context.Canceled)

	unlock()
	_, err = wip.Populate(context.Background(), org, post, pngBytes, "png", "image/png")
	require.NoError(t, err)
	require.NoError(t, wip.Discard(context.Background(), org, post))
	assert.Empty(t, backend.keys(testPreviewsBucket))
}
