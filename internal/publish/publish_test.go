package publish

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
)

type fakeStore struct {
	buckets map[string]bool
	objects map[string][]byte
	types   map[string]string
	putErr  error
	made    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{buckets: map[string]bool{}, objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeStore) BucketExists(_ context.Context, bucket string) (bool, error) {
	return f.buckets[bucket], nil
}

func (f *fakeStore) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.buckets[bucket] = true
	f.made++
	return nil
}

func (f *fakeStore) PutObject(_ context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.objects[bucket+"/"+key] = data
	f.types[bucket+"/"+key] = opts.ContentType
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: size}, nil
}

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if p.Enabled() {
		t.Fatal("publisher without endpoint should be disabled")
	}
	if _, err := p.Publish(context.Background(), "k", nil); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestNew_RequiresBucket(t *testing.T) {
	if _, err := New(Config{Endpoint: "localhost:9000"}); err == nil {
		t.Fatal("expected error without bucket")
	}
}

func TestPublish(t *testing.T) {
	store := newFakeStore()
	p := &Publisher{store: store, bucket: "pipelines"}
	ctx := context.Background()

	uri, err := p.Publish(ctx, Key("covertype-classifier-training", "abc"), []byte("kind: Workflow\n"))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if uri != "s3://pipelines/covertype-classifier-training/abc.yaml" {
		t.Errorf("uri = %q", uri)
	}
	if string(store.objects["pipelines/covertype-classifier-training/abc.yaml"]) != "kind: Workflow\n" {
		t.Errorf("stored objects = %v", store.objects)
	}
	if store.types["pipelines/covertype-classifier-training/abc.yaml"] != ContentType {
		t.Errorf("content type = %q", store.types["pipelines/covertype-classifier-training/abc.yaml"])
	}

	if _, err := p.Publish(ctx, "other.yaml", []byte("x")); err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if store.made != 1 {
		t.Errorf("bucket created %d times, want 1", store.made)
	}
}

func TestPublish_PutError(t *testing.T) {
	store := newFakeStore()
	store.putErr = errors.New("denied")
	p := &Publisher{store: store, bucket: "pipelines"}
	if _, err := p.Publish(context.Background(), "k.yaml", []byte("x")); err == nil {
		t.Fatal("expected error")
	}
}
