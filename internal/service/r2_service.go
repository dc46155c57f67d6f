package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	cfg "github.com/contentflow/contentflow-api/configs"
)

// ObjectStore is the only way the rest of the service touches blob storage.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string, opts UploadOptions) (*UploadResult, error)
	Move(ctx context.Context, srcBucket, srcPath, dstBucket, dstPath, contentType string) (string, error)
	Delete(ctx context.Context, bucket string, paths []string) []DeleteResult
	ListFolder(ctx context.Context, bucket, folder string) ([]string, error)
	DeleteFolder(ctx context.Context, bucket, folder string) error
	PublicURL(bucket, path string) string
}

type UploadOptions struct {
	Upsert    bool
	CacheBust bool
}

type UploadResult struct {
	PublicURL string
	Path      string
}

type DeleteResult struct {
	Path string
	OK   bool
	Err  error
}

// s3API is the subset of *s3.Client used here.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	CopyObject(ctx context.Context, in *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

const deleteBatchSize = 1000

type R2Service struct {
	client    s3API
	publicURL string
	now       func() time.Time
}

func NewR2Service(ctx context.Context, c cfg.Config) (*R2Service, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.Storage.AccessKey, c.Storage.SecretKey, "")),
		config.WithRegion(c.Storage.Region),
	)
	if err != nil {
		slog.Error("failed to load storage config", "error", err)
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if c.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Storage.Endpoint)
		}
		o.UsePathStyle = true
	})

	publicURL := c.Storage.PublicURL
	if publicURL == "" {
		publicURL = c.Storage.Endpoint
	}

	return newR2Service(client, publicURL), nil
}

func newR2Service(client s3API, publicURL string) *R2Service {
	return &R2Service{
		client:    client,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

func (r *R2Service) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/%s/%s", r.publicURL, bucket, path)
}

func (r *R2Service) Upload(ctx context.Context, bucket, path string, data []byte, contentType string, opts UploadOptions) (*UploadResult, error) {
	input := &s3.PutObjectInput{
		Bucket:       aws.String(bucket),
		Key:          aws.String(path),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("max-age=3600"),
	}
	if !opts.Upsert {
		input.IfNoneMatch = aws.String("*")
	}

	if _, err := r.client.PutObject(ctx, input); err != nil {
		slog.Error("object upload failed", "bucket", bucket, "path", path, "error", err)
		if hasErrorCode(err, "PreconditionFailed") {
			return nil, storageError("object already exists", fmt.Errorf("%w: %s", ErrObjectExists, path))
		}
		return nil, storageError("failed to upload object", err)
	}

	publicURL := r.PublicURL(bucket, path)
	if opts.CacheBust {
		publicURL = fmt.Sprintf("%s?v=%d", publicURL, r.now().Unix())
	}

	return &UploadResult{PublicURL: publicURL, Path: path}, nil
}

// Move copies server side within a bucket. Across buckets the object is
// downloaded and uploaded again. The source is removed last; a failure there
// only leaves an orphan behind and is not reported to the caller.
func (r *R2Service) Move(ctx context.Context, srcBucket, srcPath, dstBucket, dstPath, contentType string) (string, error) {
	if srcBucket == dstBucket {
		input := &s3.CopyObjectInput{
			Bucket:     aws.String(dstBucket),
			Key:        aws.String(dstPath),
			CopySource: aws.String(copySource(srcBucket, srcPath)),
		}
		if contentType != "" {
			input.ContentType = aws.String(contentType)
			input.MetadataDirective = types.MetadataDirectiveReplace
		}
		if _, err := r.client.CopyObject(ctx, input); err != nil {
			slog.Error("object copy failed", "src", srcPath, "dst", dstPath, "error", err)
			return "", storageError("failed to move object", err)
		}
	} else {
		data, srcContentType, err := r.download(ctx, srcBucket, srcPath)
		if err != nil {
			return "", err
		}
		if contentType == "" {
			contentType = srcContentType
		}
		if _, err := r.Upload(ctx, dstBucket, dstPath, data, contentType, UploadOptions{}); err != nil {
			return "", err
		}
	}

	if err := r.deleteObject(ctx, srcBucket, srcPath); err != nil {
		slog.Warn("moved object but failed to remove source", "bucket", srcBucket, "path", srcPath, "error", err)
	}

	return dstPath, nil
}

func (r *R2Service) download(ctx context.Context, bucket, path string) ([]byte, string, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		slog.Error("object download failed", "bucket", bucket, "path", path, "error", err)
		if isNotFound(err) {
			return nil, "", storageError("source object not found", err)
		}
		return nil, "", storageError("failed to download object", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		slog.Error("object read failed", "bucket", bucket, "path", path, "error", err)
		return nil, "", storageError("failed to download object", err)
	}

	return data, aws.ToString(out.ContentType), nil
}

func (r *R2Service) deleteObject(ctx context.Context, bucket, path string) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// Delete reports one result per path. Missing objects count as deleted.
func (r *R2Service) Delete(ctx context.Context, bucket string, paths []string) []DeleteResult {
	results := make([]DeleteResult, 0, len(paths))
	for _, p := range paths {
		if err := r.deleteObject(ctx, bucket, p); err != nil {
			slog.Error("object delete failed", "bucket", bucket, "path", p, "error", err)
			results = append(results, DeleteResult{Path: p, Err: storageError("failed to delete object", err)})
			continue
		}
		results = append(results, DeleteResult{Path: p, OK: true})
	}
	return results
}

// ListFolder returns object names relative to folder.
func (r *R2Service) ListFolder(ctx context.Context, bucket, folder string) ([]string, error) {
	keys, err := r.listKeys(ctx, bucket, folder)
	if err != nil {
		return nil, err
	}

	prefix := folderPrefix(folder)
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, strings.TrimPrefix(k, prefix))
	}
	return names, nil
}

func (r *R2Service) listKeys(ctx context.Context, bucket, folder string) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(folderPrefix(folder)),
	}

	var keys []string
	for {
		out, err := r.client.ListObjectsV2(ctx, input)
		if err != nil {
			if hasErrorCode(err, "NoSuchBucket") {
				return nil, nil
			}
			slog.Error("object listing failed", "bucket", bucket, "folder", folder, "error", err)
			return nil, storageError("failed to list folder", err)
		}
		for _, obj := range out.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}

	return keys, nil
}

func (r *R2Service) DeleteFolder(ctx context.Context, bucket, folder string) error {
	keys, err := r.listKeys(ctx, bucket, folder)
	if err != nil {
		return err
	}

	for start := 0; start < len(keys); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(keys))

		ids := make([]types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(k)})
		}

		out, err := r.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			slog.Error("folder delete failed", "bucket", bucket, "folder", folder, "error", err)
			return storageError("failed to delete folder", err)
		}
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			err := fmt.Errorf("%s: %s", aws.ToString(first.Key), aws.ToString(first.Message))
			slog.Error("folder delete incomplete", "bucket", bucket, "folder", folder, "failed", len(out.Errors), "error", err)
			return storageError("failed to delete folder", err)
		}
	}

	return nil
}

func folderPrefix(folder string) string {
	if folder == "" || strings.HasSuffix(folder, "/") {
		return folder
	}
	return folder + "/"
}

func copySource(bucket, key string) string {
	return (&url.URL{Path: bucket + "/" + key}).EscapedPath()
}

func hasErrorCode(err error, codes ...string) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, c := range codes {
		if apiErr.ErrorCode() == c {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	return hasErrorCode(err, "NoSuchKey", "NotFound")
}
