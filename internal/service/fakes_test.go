package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/contentflow/contentflow-api/internal/models"
	"github.com/contentflow/contentflow-api/internal/repository"
	"github.com/contentflow/contentflow-api/internal/transfer"
	"github.com/google/uuid"
)

type memObject struct {
	data        []byte
	contentType string
}

// memS3 is an in-memory bucket store that behaves like S3 for the calls
// R2Service makes.
type memS3 struct {
	mu       sync.Mutex
	buckets  map[string]map[string]memObject
	pageSize int
	fail     func(op, bucket, key string) error
}

func newMemS3() *memS3 {
	return &memS3{buckets: map[string]map[string]memObject{}}
}

func (m *memS3) failure(op, bucket, key string) error {
	if m.fail == nil {
		return nil
	}
	return m.fail(op, bucket, key)
}

func (m *memS3) bucket(name string) map[string]memObject {
	b, ok := m.buckets[name]
	if !ok {
		b = map[string]memObject{}
		m.buckets[name] = b
	}
	return b
}

func (m *memS3) put(bucket, key string, data []byte, contentType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bucket(bucket)[key] = memObject{data: data, contentType: contentType}
}

func (m *memS3) has(bucket, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.bucket(bucket)[key]
	return ok
}

func (m *memS3) contentType(bucket, key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bucket(bucket)[key].contentType
}

func (m *memS3) keys(bucket string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0)
	for k := range m.bucket(bucket) {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *memS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	bucket, key := aws.ToString(in.Bucket), aws.ToString(in.Key)
	if err := m.failure("put", bucket, key); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.bucket(bucket)
	if _, exists := b[key]; exists && aws.ToString(in.IfNoneMatch) == "*" {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "At least one of the pre-conditions you specified did not hold"}
	}
	b[key] = memObject{data: data, contentType: aws.ToString(in.ContentType)}
	return &s3.PutObjectOutput{}, nil
}

func (m *memS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	bucket, key := aws.ToString(in.Bucket), aws.ToString(in.Key)
	if err := m.failure("get", bucket, key); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.bucket(bucket)[key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(obj.data)),
		ContentType: aws.String(obj.contentType),
	}, nil
}

func (m *memS3) CopyObject(ctx context.Context, in *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	source, err := url.PathUnescape(aws.ToString(in.CopySource))
	if err != nil {
		return nil, err
	}
	srcBucket, srcKey, _ := strings.Cut(source, "/")
	dstBucket, dstKey := aws.ToString(in.Bucket), aws.ToString(in.Key)
	if err := m.failure("copy", dstBucket, dstKey); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.bucket(srcBucket)[srcKey]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	if in.ContentType != nil {
		obj.contentType = aws.ToString(in.ContentType)
	}
	m.bucket(dstBucket)[dstKey] = obj
	return &s3.CopyObjectOutput{}, nil
}

func (m *memS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	bucket, key := aws.ToString(in.Bucket), aws.ToString(in.Key)
	if err := m.failure("delete", bucket, key); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bucket(bucket), key)
	return &s3.DeleteObjectOutput{}, nil
}

func (m *memS3) DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	bucket := aws.ToString(in.Bucket)
	out := &s3.DeleteObjectsOutput{}
	for _, id := range in.Delete.Objects {
		key := aws.ToString(id.Key)
		if err := m.failure("delete", bucket, key); err != nil {
			out.Errors = append(out.Errors, types.Error{Key: id.Key, Message: aws.String(err.Error())})
			continue
		}
		m.mu.Lock()
		delete(m.bucket(bucket), key)
		m.mu.Unlock()
	}
	return out, nil
}

func (m *memS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	bucket, prefix := aws.ToString(in.Bucket), aws.ToString(in.Prefix)
	if err := m.failure("list", bucket, prefix); err != nil {
		return nil, err
	}

	var matched []string
	for _, k := range m.keys(bucket) {
		if strings.HasPrefix(k, prefix) {
			matched = append(matched, k)
		}
	}

	start := 0
	if in.ContinuationToken != nil {
		start, _ = strconv.Atoi(aws.ToString(in.ContinuationToken))
	}
	end := len(matched)
	if m.pageSize > 0 && start+m.pageSize < end {
		end = start + m.pageSize
	}

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(matched))}
	for _, k := range matched[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	if end < len(matched) {
		out.NextContinuationToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

const (
	testMediaBucket    = "content.flow.media"
	testPreviewsBucket = "post.previews"
	testPublicURL      = "https://storage.test/object/public"
)

func newTestStore() (*R2Service, *memS3) {
	backend := newMemS3()
	store := newR2Service(backend, testPublicURL)
	store.now = func() time.Time { return time.Unix(1700000000, 0) }
	return store, backend
}

// fakePostRepository keeps posts in memory and records writes.
type fakePostRepository struct {
	mu          sync.Mutex
	posts       map[uuid.UUID]*models.Post
	updateCalls int
	patches     []repository.PostPatch
	updateErr   error
	getErr      error

	// beforeUpdate runs under the lock, ahead of the row lookup.
	beforeUpdate func(posts map[uuid.UUID]*models.Post)
}

func newFakePostRepository(posts ...*models.Post) *fakePostRepository {
	r := &fakePostRepository{posts: map[uuid.UUID]*models.Post{}}
	for _, p := range posts {
		r.posts[p.ID] = p
	}
	return r
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	return &c
}

func (r *fakePostRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	created := clonePost(post)
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	r.posts[created.ID] = created
	return clonePost(created), nil
}

func (r *fakePostRepository) GetByID(ctx context.Context, id, orgID uuid.UUID) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	p, ok := r.posts[id]
	if !ok || p.OrganizationID != orgID || p.DeletedAt != nil {
		return nil, nil
	}
	return clonePost(p), nil
}

func (r *fakePostRepository) List(ctx context.Context, filter transfer.PostFilter) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Post
	for _, p := range r.posts {
		if p.OrganizationID == filter.OrganizationID && p.DeletedAt == nil {
			out = append(out, clonePost(p))
		}
	}
	return out, nil
}

func (r *fakePostRepository) Update(ctx context.Context, id, orgID uuid.UUID, patch repository.PostPatch) (repository.Result[*models.Post], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	r.patches = append(r.patches, patch)
	if r.updateErr != nil {
		return repository.Result[*models.Post]{}, r.updateErr
	}
	if r.beforeUpdate != nil {
		r.beforeUpdate(r.posts)
	}

	p, ok := r.posts[id]
	if !ok || p.OrganizationID != orgID || p.DeletedAt != nil {
		return repository.Result[*models.Post]{}, nil
	}
	for col, v := range patch {
		switch col {
		case "title":
			p.Title = optString(v)
		case "content_text":
			p.ContentText = optString(v)
		case "social_network":
			p.SocialNetwork = v.(string)
		case "content_type":
			p.ContentType = v.(string)
		case "status":
			p.Status = v.(string)
		case "media_url":
			p.MediaURL = optString(v)
		case "media_storage_path":
			p.MediaStoragePath = optString(v)
		case "scheduled_at":
			if v == nil {
				p.ScheduledAt = nil
			} else {
				t := v.(time.Time)
				p.ScheduledAt = &t
			}
		}
	}
	p.UpdatedAt = time.Now()
	return repository.Result[*models.Post]{Rows: []*models.Post{clonePost(p)}}, nil
}

func (r *fakePostRepository) SoftDelete(ctx context.Context, id, orgID uuid.UUID, at time.Time) (repository.Result[*models.Post], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok || p.OrganizationID != orgID || p.DeletedAt != nil {
		return repository.Result[*models.Post]{}, nil
	}
	p.Status = models.PostStatusDeleted
	p.DeletedAt = &at
	return repository.Result[*models.Post]{Rows: []*models.Post{clonePost(p)}}, nil
}

func (r *fakePostRepository) stored(id uuid.UUID) *models.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clonePost(r.posts[id])
}

func optString(v any) *string {
	if v == nil {
		return nil
	}
	s := v.(string)
	return &s
}

type fakeImageGenerator struct {
	data    []byte
	err     error
	prompts []string
}

func (g *fakeImageGenerator) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return nil, g.err
	}
	return g.data, nil
}

var errBoom = errors.New("boom")

// pngBytes is the smallest payload filetype recognises as PNG.
var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0x10, 'J', 'F', 'I', 'F', 0}
