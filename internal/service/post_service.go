package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	cfg "github.com/contentflow/contentflow-api/configs"
	"github.com/contentflow/contentflow-api/internal/models"
	"github.com/contentflow/contentflow-api/internal/repository"
	"github.com/contentflow/contentflow-api/internal/transfer"
	"github.com/google/uuid"
	"github.com/h2non/filetype"
)

const (
	defaultListLimit    = 20
	maxListLimit        = 100
	promptExcerptChars  = 200
	minTitlePromptLen   = 5
	minContentPromptLen = 10
)

var allowedImageContentTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
	"image/gif":  "gif",
}

type PostService interface {
	Create(ctx context.Context, user transfer.CurrentUser, pc *transfer.PostCreation) (*models.Post, error)
	List(ctx context.Context, user transfer.CurrentUser, filter transfer.PostFilter) ([]*models.Post, error)
	Get(ctx context.Context, user transfer.CurrentUser, postID uuid.UUID) (*models.Post, error)
	Update(ctx context.Context, user transfer.CurrentUser, postID uuid.UUID, pu *transfer.PostUpdate) (*models.Post, error)
	Delete(ctx context.Context, user transfer.CurrentUser, postID uuid.UUID) (*models.Post, error)
	GeneratePreviewImage(ctx context.Context, user transfer.CurrentUser, postID uuid.UUID, req *transfer.PreviewImageRequest) (*transfer.PreviewImage, error)
	UploadWIPPreview(ctx context.Context, user transfer.CurrentUser, postID uuid.UUID, upload *transfer.WIPUpload) (*transfer.PreviewImage, error)
}

type postService struct {
	pr             repository.PostRepository
	wip            WIPImageService
	store          ObjectStore
	images         ImageGenerator
	mediaBucket    string
	maxUploadBytes int64
	newID          func() uuid.UUID
	now            func() time.Time
}

func NewPostService(
	c cfg.Config,
	pr repository.PostRepository,
	wip WIPImageService,
	store ObjectStore,
	images ImageGenerator) PostService {
	return &postService{
		pr:             pr,
		wip:            wip,
		store:          store,
		images:         images,
		mediaBucket:    c.Storage.MediaBucket,
		maxUploadBytes: c.MaxUploadBytes,
		newID:          uuid.New,
		now:            time.Now,
	}
}

func requireOrganization(user transfer.CurrentUser) error {
	if !user.HasOrganization() {
		return newError(ErrForbidden, "user is not associated with an active organization", nil)
	}
	return nil
}

func (s *postService) getActivePost(ctx context.Context, orgID, postID uuid.UUID) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, postID, orgID)
	if err != nil {
		return nil, databaseError("failed to load post", err)
	}
	if post == nil {
		return nil, notFoundError(fmt.Sprintf("post %s not found", postID))
	}
	return post, nil
}

func (s *postService) Create(ctx context.Context, user transfer.CurrentUser, pc *transfer.PostCreation) (*models.Post, error) {
	if err := requireOrganization(user); err != nil {
		return nil, err
	}
	if pc == nil {
		return nil, validationError("post data is required")
	}

	network := strings.TrimSpace(pc.SocialNetwork)
	if network == "" {
		return nil, validationError("social_network is required")
	}
	if !models.IsContentType(pc.ContentType) {
		return nil, newError(ErrInvalidEnum, fmt.Sprintf("invalid content_type %q", pc.ContentType), nil)
	}

	status := pc.Status
	if status == "" {
		status = models.PostStatusDraft
	}
	if !models.IsPostStatus(status) || status == models.PostStatusDeleted {
		return nil, newError(ErrInvalidEnum, fmt.Sprintf("invalid status %q", status), nil)
	}

	post := &models.Post{
		ID:             s.newID(),
		OrganizationID: user.OrganizationID,
		AuthorUserID:   user.UserID,
		Title:          pc.Title,
		ContentText:    pc.ContentText,
		SocialNetwork:  network,
		ContentType:    pc.ContentType,
		Status:         status,
		ScheduledAt:    pc.ScheduledAt,
	}

	created, err := s.pr.Create(ctx, post)
	if err != nil {
		return nil, databaseError("failed to create post", err)
	}
	return created, nil
}

func (s *postService) List(ctx context.Context, user transfer.CurrentUser, filter transfer.PostFilter) ([]*models.Post, error) {
	if err := requireOrganization(user); err != nil {
		return nil, err
	}

	if filter.Limit == 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit < 1 || filter.Limit > maxListLimit {
		return nil, validationError("limit must be between 1 and %d", maxListLimit)
	}
	if filter.Offset < 0 {
		return nil, validationError("offset must not be negative")
	}
	switch filter.Deleted {
	case "":
		filter.Deleted = transfer.DeletedFilterNotDeleted
	case transfer.DeletedFilterNotDeleted, transfer.DeletedFilterDeleted, transfer.DeletedFilterAll:
	default:
		return nil, newError(ErrInvalidEnum, fmt.Sprintf("invalid deleted_filter %q", filter.Deleted), nil)
	}
	if filter.ContentType != "" && !models.IsContentType(filter.ContentType) {
		return nil, newError(ErrInvalidEnum, fmt.Sprintf("invalid content_type %q", filter.ContentType), nil)
	}
	filter.OrganizationID = user.OrganizationID

	posts, err := s.pr.List(ctx, filter)
	if err != nil {
		return nil, databaseError("failed to list posts", err)
	}
	return posts, nil
}

func (s *postService) Get(ctx context.Context, user transfer.CurrentUser, postID uuid.UUID) (*models.Post, error) {
	if err := requireOrganization(user); err != nil {
		return nil, err
	}
	return s.getActivePost(ctx, user.OrganizationID, postID)
}

type imageIntent int

const (
	imageUnchanged imageIntent = iota
	imageConfirm
	imageClear
	imageSetDirect
)

// classifyImageIntent decides what a PATCH does to the post image. An explicit
// null on either media field clears the image.
func classifyImageIntent(pu *transfer.PostUpdate) (imageIntent, error) {
	explicitMedia := pu.MediaURL.Set || pu.MediaStoragePath.Set

	if pu.ConfirmWIPImageDetails != nil {
		if explicitMedia {
			return imageUnchanged, validationError("confirm_wip_image_details cannot be combined with media_url or media_storage_path")
		}
		return imageConfirm, nil
	}
	if pu.MediaURL.IsNull() || pu.MediaStoragePath.IsNull() {
		return imageClear, nil
	}
	if explicitMedia {
		return imageSetDirect, nil
	}
	return imageUnchanged, nil
}

func nullableValue[T any](n transfer.Nullable[T]) any {
	if v := n.Ptr(); v != nil {
		return *v
	}
	return nil
}

func buildTextPatch(pu *transfer.PostUpdate) (repository.PostPatch, error) {
	patch := repository.PostPatch{}

	if pu.Title.Set {
		patch["title"] = nullableValue(pu.Title)
	}
	if pu.ContentText.Set {
		patch["content_text"] = nullableValue(pu.ContentText)
	}
	if pu.SocialNetwork.Set {
		if !pu.SocialNetwork.Valid || strings.TrimSpace(pu.SocialNetwork.Value) == "" {
			return nil, validationError("social_network cannot be empty")
		}
		patch["social_network"] = strings.TrimSpace(pu.SocialNetwork.Value)
	}
	if pu.ContentType.Set {
		if !pu.ContentType.Valid {
			return nil, validationError("content_type cannot be null")
		}
		if !models.IsContentType(pu.ContentType.Value) {
			return nil, newError(ErrInvalidEnum, fmt.Sprintf("invalid content_type %q", pu.ContentType.Value), nil)
		}
		patch["content_type"] = pu.ContentType.Value
	}
	if pu.Status.Set {
		if !pu.Status.Valid {
			return nil, validationError("status cannot be null")
		}
		if pu.Status.Value == models.PostStatusDeleted {
			return nil, validationError("use DELETE to remove a post")
		}
		if !models.IsPostStatus(pu.Status.Value) {
			return nil, newError(ErrInvalidEnum, fmt.Sprintf("invalid status %q", pu.Status.Value), nil)
		}
		patch["status"] = pu.Status.Value
	}
	if pu.ScheduledAt.Set {
		patch["scheduled_at"] = nullableValue(pu.ScheduledAt)
	}

	return patch, nil
}

// directImage validates a caller supplied permanent path. Only objects inside
// the post's own images folder are accepted.
func (s *postService) directImage(orgID, postID uuid.UUID, pu *transfer.PostUpdate) (string, string, error) {
	if !pu.MediaStoragePath.Valid || pu.MediaStoragePath.Value == "" {
		return "", "", validationError("media_storage_path is required when setting media directly")
	}

	path := pu.MediaStoragePath.Value
	prefix := PostImagesFolderPath(orgID, postID)
	name := strings.TrimPrefix(path, prefix)
	if !strings.HasPrefix(path, prefix) || name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		return "", "", validationError("media_storage_path must point to an image of this post")
	}

	url := s.store.PublicURL(s.mediaBucket, path)
	if pu.MediaURL.Valid && pu.MediaURL.Value != url {
		return "", "", validationError("media_url does not match media_storage_path")
	}

	return path, url, nil
}

type deferredDeletions struct {
	bucket string
	paths  []string
}

func (d *deferredDeletions) add(path *string) {
	if path != nil && *path != "" {
		d.paths = append(d.paths, *path)
	}
}

func (d *deferredDeletions) run(ctx context.Context, store ObjectStore) {
	if len(d.paths) == 0 {
		return
	}
	for _, res := range store.Delete(ctx, d.bucket, d.paths) {
		if !res.OK {
			slog.Warn("could not delete replaced post image", "path", res.Path, "error", res.Err)
		}
	}
}

// Update applies a partial update. Storage moves happen before the row is
// written; deletions of replaced objects only after it was written.
func (s *postService) Update(ctx context.Context, user transfer.CurrentUser, postID uuid.UUID, pu *transfer.PostUpdate) (*models.Post, error) {
	if err := requireOrganization(user); err != nil {
		return nil, err
	}
	if pu == nil {
		return nil, validationError("update data is required")
	}
	orgID := user.OrganizationID

	intent, err := classifyImageIntent(pu)
	if err != nil {
		return nil, err
	}
	patch, err := buildTextPatch(pu)
	if err != nil {
		return nil, err
	}

	var directPath, directURL string
	if intent == imageSetDirect {
		if directPath, directURL, err = s.directImage(orgID, postID, pu); err != nil {
			return nil, err
		}
	}

	post, err := s.getActivePost(ctx, orgID, postID)
	if err != nil {
		return nil, err
	}

	deferred := deferredDeletions{bucket: s.mediaBucket}
	var confirmed *ConfirmedImage

	switch intent {
	case imageConfirm:
		confirmed, err = s.wip.Confirm(ctx, orgID, postID, pu.ConfirmWIPImageDetails, post.MediaStoragePath)
		if err != nil {
			return nil, err
		}
		patch["media_url"] = confirmed.URL
		patch["media_storage_path"] = confirmed.Path
		deferred.add(confirmed.ReplacedPath)
	case imageClear:
		patch["media_url"] = nil
		patch["media_storage_path"] = nil
		deferred.add(post.MediaStoragePath)
	case imageSetDirect:
		patch["media_url"] = directURL
		patch["media_storage_path"] = directPath
		if post.MediaStoragePath != nil && *post.MediaStoragePath != directPath {
			deferred.add(post.MediaStoragePath)
		}
	}

	updated, err := s.writePatch(ctx, post, patch)
	if err != nil {
		if confirmed != nil {
			s.rollbackConfirmedImage(ctx, confirmed.Path)
		}
	} else {
		deferred.run(ctx, s.store)
	}

	if intent != imageConfirm {
		s.discardScratch(ctx, orgID, postID)
	}

	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *postService) writePatch(ctx context.Context, post *models.Post, patch repository.PostPatch) (*models.Post, error) {
	if len(patch) == 0 {
		return post, nil
	}

	res, err := s.pr.Update(ctx, post.ID, post.OrganizationID, patch)
	if err != nil {
		return nil, databaseError("failed to update post", err)
	}

	updated, ok := res.First()
	if !ok {
		return nil, notFoundError(fmt.Sprintf("post %s not found", post.ID))
	}
	return updated, nil
}

func (s *postService) rollbackConfirmedImage(ctx context.Context, path string) {
	for _, res := range s.store.Delete(ctx, s.mediaBucket, []string{path}) {
		if !res.OK {
			slog.Error("could not roll back confirmed image", "path", res.Path, "error", res.Err)
		}
	}
}

func (s *postService) discardScratch(ctx context.Context, orgID, postID uuid.UUID) {
	if err := s.wip.Discard(ctx, orgID, postID); err != nil {
		slog.Warn("could not discard scratch image", "post_id", postID, "error", err)
	}
}

func (s *postService) Delete(ctx context.Context, user transfer.CurrentUser, postID uuid.UUID) (*models.Post, error) {
	if err := requireOrganization(user); err != nil {
		return nil, err
	}
	orgID := user.OrganizationID

	post, err := s.getActivePost(ctx, orgID, postID)
	if err != nil {
		return nil, err
	}

	res, err := s.pr.SoftDelete(ctx, postID, orgID, s.now().UTC())
	if err != nil {
		return nil, databaseError("failed to delete post", err)
	}
	deleted, ok := res.First()
	if !ok {
		return nil, notFoundError(fmt.Sprintf("post %s not found", postID))
	}

	media := deferredDeletions{bucket: s.mediaBucket}
	media.add(post.MediaStoragePath)
	media.run(ctx, s.store)
	s.discardScratch(ctx, orgID, postID)

	return deleted, nil
}

func buildPreviewPrompt(post *models.Post, req *transfer.PreviewImageRequest) (string, error) {
	if req != nil && req.CustomPrompt != nil && strings.TrimSpace(*req.CustomPrompt) != "" {
		return strings.TrimSpace(*req.CustomPrompt), nil
	}

	var title, excerpt string
	if post.Title != nil {
		title = strings.TrimSpace(*post.Title)
	}
	if post.ContentText != nil {
		excerpt = truncateRunes(strings.TrimSpace(*post.ContentText), promptExcerptChars)
	}

	switch {
	case len([]rune(title)) >= minTitlePromptLen:
		return fmt.Sprintf("An image for a social media post titled '%s'. Additional context: '%s'", title, excerpt), nil
	case len([]rune(excerpt)) >= minContentPromptLen:
		return fmt.Sprintf("An image related to the following content: '%s'", excerpt), nil
	default:
		return "", validationError("could not build a prompt from the post; provide a custom prompt or more post content")
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func (s *postService) GeneratePreviewImage(ctx context.Context, user transfer.CurrentUser, postID uuid.UUID, req *transfer.PreviewImageRequest) (*transfer.PreviewImage, error) {
	if err := requireOrganization(user); err != nil {
		return nil, err
	}

	post, err := s.getActivePost(ctx, user.OrganizationID, postID)
	if err != nil {
		return nil, err
	}

	prompt, err := buildPreviewPrompt(post, req)
	if err != nil {
		return nil, err
	}

	data, err := s.images.GenerateImage(ctx, prompt)
	if err != nil {
		return nil, err
	}

	ext, contentType := "png", "image/png"
	if kind, err := filetype.Match(data); err == nil {
		if e, ok := allowedImageContentTypes[kind.MIME.Value]; ok {
			ext, contentType = e, kind.MIME.Value
		}
	}

	preview, err := s.wip.Populate(ctx, user.OrganizationID, postID, data, ext, contentType)
	if err != nil {
		return nil, err
	}
	preview.PromptUsed = prompt
	return preview, nil
}

// uploadExtension prefers the file name, then the declared content type.
func uploadExtension(filename, contentType string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 {
		if ext := normalizeExtension(filename[i+1:]); isImageExtension(ext) {
			return ext
		}
	}
	if ext, ok := allowedImageContentTypes[contentType]; ok {
		return ext
	}
	return "png"
}

func (s *postService) UploadWIPPreview(ctx context.Context, user transfer.CurrentUser, postID uuid.UUID, upload *transfer.WIPUpload) (*transfer.PreviewImage, error) {
	if err := requireOrganization(user); err != nil {
		return nil, err
	}
	if upload == nil || len(upload.Data) == 0 {
		return nil, validationError("image file is required")
	}
	if s.maxUploadBytes > 0 && int64(len(upload.Data)) > s.maxUploadBytes {
		return nil, validationError("image exceeds the maximum size of %d MB", s.maxUploadBytes/(1024*1024))
	}

	contentType := strings.ToLower(strings.TrimSpace(strings.Split(upload.ContentType, ";")[0]))
	if _, ok := allowedImageContentTypes[contentType]; !ok {
		return nil, validationError("unsupported image type %q", upload.ContentType)
	}

	kind, err := filetype.Match(upload.Data)
	if err != nil || !filetype.IsImage(upload.Data) {
		return nil, validationError("uploaded file is not an image")
	}
	if _, ok := allowedImageContentTypes[kind.MIME.Value]; !ok {
		return nil, validationError("unsupported image type %q", kind.MIME.Value)
	}
	if kind.MIME.Value != contentType {
		slog.Info("declared content type differs from file content", "declared", contentType, "detected", kind.MIME.Value)
		contentType = kind.MIME.Value
	}

	if _, err := s.getActivePost(ctx, user.OrganizationID, postID); err != nil {
		return nil, err
	}

	ext := uploadExtension(upload.Filename, contentType)
	if allowedImageContentTypes[contentType] != imageExtensionFamily(ext) {
		ext = allowedImageContentTypes[contentType]
	}

	return s.wip.Populate(ctx, user.OrganizationID, postID, upload.Data, ext, contentType)
}

// imageExtensionFamily folds jpeg onto jpg.
func imageExtensionFamily(ext string) string {
	if ext == "jpeg" {
		return "jpg"
	}
	return ext
}
