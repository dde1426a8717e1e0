package services

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// TemplateStore serves workspace template overlays for agent onboarding.
// Objects under "agents/<agentID>/" override the shared templates for
// that agent.
type TemplateStore interface {
	ListAgentFiles(ctx context.Context, bucketName, agentID string) ([]string, error)
	FetchFile(ctx context.Context, bucketName, objectName string) ([]byte, error)
	UploadFile(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64) error
	EnsureBucketExists(ctx context.Context, bucketName string) error
}

type minioTemplateStore struct {
	client *minio.Client
}

func NewMinioTemplateStore(endpoint, accessKey, secretKey string, useSSL bool) (TemplateStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioTemplateStore{client: client}, nil
}

func (m *minioTemplateStore) ListAgentFiles(ctx context.Context, bucketName, agentID string) ([]string, error) {
	prefix := "agents/" + agentID + "/"
	var names []string
	for object := range m.client.ListObjects(ctx, bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, object.Err
		}
		names = append(names, object.Key)
	}
	return names, nil
}

func (m *minioTemplateStore) FetchFile(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	object, err := m.client.GetObject(ctx, bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer object.Close()
	return io.ReadAll(object)
}

func (m *minioTemplateStore) UploadFile(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64) error {
	_, err := m.client.PutObject(ctx, bucketName, objectName, reader, objectSize, minio.PutObjectOptions{
		ContentType: "text/markdown",
	})
	return err
}

func (m *minioTemplateStore) EnsureBucketExists(ctx context.Context, bucketName string) error {
	found, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return err
	}
	if !found {
		return m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
	}
	return nil
}
