package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrObjectNotFound = errors.New("object not found in storage")

// UploadCredential — подписанный URL на запись с абсолютным сроком действия.
type UploadCredential struct {
	Key       string
	URL       string
	ExpiresAt time.Time
}

// ObjectMetadata — фактические атрибуты объекта по данным хранилища.
// Не персистится как есть: движок переносит в запись только размер,
// MIME и время загрузки.
type ObjectMetadata struct {
	Key          string
	Bucket       string
	MimeType     string
	Size         int64
	LastModified time.Time
}

type ObjectStorage interface {
	IssueUploadCredential(ctx context.Context, key, mimeType string) (UploadCredential, error)
	ObjectExists(ctx context.Context, key string) (bool, error)
	ActualMetadata(ctx context.Context, key string) (ObjectMetadata, error)
	IssueDownloadCredential(ctx context.Context, key, filename string) (string, error)
	DeleteObject(ctx context.Context, key string) error
	SampleBytes(ctx context.Context, key string, length int64) ([]byte, error)
	Bucket() string
}

// ObjectKeyFor детерминированно выводит ключ объекта из идентификатора записи
// и заявленного имени файла.
func ObjectKeyFor(id primitive.ObjectID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("media/%s%s", id.Hex(), ext)
}

type minioStorage struct {
	client      *minio.Client
	bucketName  string
	uploadTTL   time.Duration
	downloadTTL time.Duration
}

func NewMinioStorage(endpoint, accessKey, secretKey string, useSSL bool, bucket string, uploadTTL, downloadTTL time.Duration) (ObjectStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, errBucket := client.BucketExists(ctx, bucket)
	if errBucket != nil {
		return nil, errBucket
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}

	return &minioStorage{
		client:      client,
		bucketName:  bucket,
		uploadTTL:   uploadTTL,
		downloadTTL: downloadTTL,
	}, nil
}

func (s *minioStorage) IssueUploadCredential(ctx context.Context, key, mimeType string) (UploadCredential, error) {
	_ = mimeType // presigned PUT не фиксирует Content-Type, клиент задаёт его заголовком

	expiresAt := time.Now().Add(s.uploadTTL)
	presigned, err := s.client.PresignedPutObject(ctx, s.bucketName, key, s.uploadTTL)
	if err != nil {
		return UploadCredential{}, err
	}

	return UploadCredential{
		Key:       key,
		URL:       presigned.String(),
		ExpiresAt: expiresAt,
	}, nil
}

func (s *minioStorage) ObjectExists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *minioStorage) ActualMetadata(ctx context.Context, key string) (ObjectMetadata, error) {
	info, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return ObjectMetadata{}, ErrObjectNotFound
		}
		return ObjectMetadata{}, err
	}

	return ObjectMetadata{
		Key:          info.Key,
		Bucket:       s.bucketName,
		MimeType:     info.ContentType,
		Size:         info.Size,
		LastModified: info.LastModified,
	}, nil
}

func (s *minioStorage) IssueDownloadCredential(ctx context.Context, key, filename string) (string, error) {
	reqParams := make(url.Values)
	if filename != "" {
		reqParams.Set("response-content-disposition",
			fmt.Sprintf(`attachment; filename="%s"`, EscapeFilename(filename)))
	}

	presigned, err := s.client.PresignedGetObject(ctx, s.bucketName, key, s.downloadTTL, reqParams)
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}

func (s *minioStorage) DeleteObject(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{})
}

func (s *minioStorage) SampleBytes(ctx context.Context, key string, length int64) ([]byte, error) {
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(0, length-1); err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucketName, key, opts)
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	sample, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return sample, nil
}

func (s *minioStorage) Bucket() string {
	return s.bucketName
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
