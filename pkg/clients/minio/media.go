package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	fserr "github.com/fitstack/fitstack-core/pkg/errors"
)

// Export formats supported for workout downloads.
const (
	ExportFormatGPX = "gpx"
	ExportFormatCSV = "csv"
)

// exportContentTypes maps export formats to their MIME types.
var exportContentTypes = map[string]string{
	ExportFormatGPX: "application/gpx+xml",
	ExportFormatCSV: "text/csv",
}

// Photo describes a stored progress photo.
type Photo struct {
	// ID is the photo identifier, unique within the owning profile.
	ID string `json:"id"`

	// ProfileID is the owning profile.
	ProfileID string `json:"profile_id"`

	// Size is the object size in bytes.
	Size int64 `json:"size"`

	// UploadedAt is when the object was last written.
	UploadedAt time.Time `json:"uploaded_at"`
}

// MediaStore manages user media in the configured media bucket. It owns
// the object key layout:
//
//	profiles/<profile-id>/photos/<photo-id>.jpg
//	profiles/<profile-id>/exports/<workout-id>.<format>
//
// The store hands mobile clients presigned URLs for both upload and
// download so image bytes never pass through the API servers.
//
// Obtain a MediaStore from [Client.Media].
type MediaStore struct {
	client *Client
	bucket string
}

// Media returns the media store backed by the client's configured media
// bucket.
func (c *Client) Media() *MediaStore {
	return &MediaStore{
		client: c,
		bucket: c.config.MediaBucket,
	}
}

// Bucket returns the backing bucket name.
func (m *MediaStore) Bucket() string {
	return m.bucket
}

// EnsureBucket creates the media bucket if it does not already exist.
// Safe to call on every service start.
func (m *MediaStore) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{
		Region: m.client.config.Region,
	})
}

// photoKey builds the object key for a progress photo.
func photoKey(profileID, photoID string) string {
	return path.Join("profiles", profileID, "photos", photoID+".jpg")
}

// exportKey builds the object key for a workout export.
func exportKey(profileID, workoutID, format string) string {
	return path.Join("profiles", profileID, "exports", workoutID+"."+format)
}

// UploadPhoto stores a progress photo for the profile and returns its
// photo ID. The reader must supply JPEG bytes; size is the exact object
// size in bytes.
func (m *MediaStore) UploadPhoto(ctx context.Context, profileID string, r io.Reader, size int64) (string, error) {
	if profileID == "" {
		return "", fserr.Validation("minio: profile ID must not be empty")
	}
	if size <= 0 {
		return "", fserr.Validationf("minio: photo size must be positive, got %d", size)
	}

	photoID := uuid.New().String()
	_, err := m.client.PutObject(ctx, m.bucket, photoKey(profileID, photoID), r, size,
		minio.PutObjectOptions{ContentType: "image/jpeg"})
	if err != nil {
		return "", err
	}
	return photoID, nil
}

// PhotoUploadURL returns a presigned PUT URL the mobile client can use
// to upload a new progress photo directly, along with the photo ID the
// object will be stored under.
func (m *MediaStore) PhotoUploadURL(ctx context.Context, profileID string) (string, *url.URL, error) {
	if profileID == "" {
		return "", nil, fserr.Validation("minio: profile ID must not be empty")
	}

	photoID := uuid.New().String()
	u, err := m.client.PresignedPutObject(ctx, m.bucket, photoKey(profileID, photoID),
		m.client.config.PresignExpiry)
	if err != nil {
		return "", nil, err
	}
	return photoID, u, nil
}

// PhotoDownloadURL returns a presigned GET URL for an existing progress
// photo. Returns [fserr.CodeNotFound] when the photo does not exist.
func (m *MediaStore) PhotoDownloadURL(ctx context.Context, profileID, photoID string) (*url.URL, error) {
	if profileID == "" || photoID == "" {
		return nil, fserr.Validation("minio: profile ID and photo ID must not be empty")
	}

	key := photoKey(profileID, photoID)

	// Presigned URLs are generated locally without a server round trip,
	// so a stat confirms the object exists before handing out a URL
	// that would 404.
	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err != nil {
		return nil, err
	}

	return m.client.PresignedGetObject(ctx, m.bucket, key,
		m.client.config.PresignExpiry, nil)
}

// ListPhotos returns the profile's progress photos, newest first by
// upload time.
func (m *MediaStore) ListPhotos(ctx context.Context, profileID string) ([]Photo, error) {
	if profileID == "" {
		return nil, fserr.Validation("minio: profile ID must not be empty")
	}

	prefix := path.Join("profiles", profileID, "photos") + "/"
	var photos []Photo
	for info := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, wrapError(info.Err, "minio: failed to list photos")
		}
		photos = append(photos, Photo{
			ID:         strings.TrimSuffix(path.Base(info.Key), ".jpg"),
			ProfileID:  profileID,
			Size:       info.Size,
			UploadedAt: info.LastModified,
		})
	}

	// MinIO lists lexicographically by key; present newest first.
	sort.Slice(photos, func(i, j int) bool {
		return photos[i].UploadedAt.After(photos[j].UploadedAt)
	})
	return photos, nil
}

// DeletePhoto removes a progress photo. Returns [fserr.CodeNotFound]
// when the photo does not exist.
func (m *MediaStore) DeletePhoto(ctx context.Context, profileID, photoID string) error {
	if profileID == "" || photoID == "" {
		return fserr.Validation("minio: profile ID and photo ID must not be empty")
	}

	key := photoKey(profileID, photoID)

	// RemoveObject succeeds silently for absent keys, so stat first to
	// report missing photos to the caller.
	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err != nil {
		return err
	}
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}

// StoreExport writes a workout export file (GPX or CSV) and returns a
// presigned download URL for it.
func (m *MediaStore) StoreExport(ctx context.Context, profileID, workoutID, format string, r io.Reader, size int64) (*url.URL, error) {
	if profileID == "" || workoutID == "" {
		return nil, fserr.Validation("minio: profile ID and workout ID must not be empty")
	}
	contentType, ok := exportContentTypes[format]
	if !ok {
		return nil, fserr.Validationf("minio: unsupported export format %q", format)
	}
	if size <= 0 {
		return nil, fserr.Validationf("minio: export size must be positive, got %d", size)
	}

	key := exportKey(profileID, workoutID, format)
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("response-content-disposition",
		fmt.Sprintf("attachment; filename=%q", workoutID+"."+format))
	return m.client.PresignedGetObject(ctx, m.bucket, key,
		m.client.config.PresignExpiry, params)
}
