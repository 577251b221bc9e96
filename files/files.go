// Package files stores bill attachments for asset items.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"assetflow/models"
)

const (
	BackendMongo = "mongo"
	BackendMinIO = "minio"
)

var (
	ErrNotFound     = errors.New("file not found")
	ErrTooLarge     = errors.New("file too large")
	ErrType         = errors.New("file type not allowed")
	ErrFilename     = errors.New("invalid filename")
	ErrWrongBackend = errors.New("file stored in another backend")
)

// Upload is a file received with an asset request, bound to one item.
type Upload struct {
	AssetID     primitive.ObjectID
	ItemIndex   int
	Filename    string
	ContentType string
	Data        []byte
}

// FileStore saves, streams and removes attachments.
type FileStore interface {
	Save(ctx context.Context, u Upload) (*models.FileRef, error)
	Open(ctx context.Context, ref models.FileRef) (io.ReadCloser, error)
	Delete(ctx context.Context, ref models.FileRef) error
}

// Policy limits what may be uploaded.
type Policy struct {
	MaxBytes     int64
	AllowedTypes []string // media types, e.g. application/pdf
}

var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// Check validates a candidate upload and returns the media type to store.
// A missing or generic declared type is inferred from the extension.
func (p Policy) Check(filename, contentType string, size int64) (string, error) {
	if filename == "" || strings.ContainsAny(filename, `/\`) || strings.Contains(filename, "..") {
		return "", ErrFilename
	}
	if p.MaxBytes > 0 && size > p.MaxBytes {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, size, p.MaxBytes)
	}

	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = extensionTypes[strings.ToLower(filepath.Ext(filename))]
	}
	if mediaType == "" {
		return "", fmt.Errorf("%w: %s", ErrType, filename)
	}
	for _, t := range p.AllowedTypes {
		if strings.EqualFold(strings.TrimSpace(t), mediaType) {
			return mediaType, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrType, mediaType)
}

// SanitizeFilename keeps letters, digits, dot, dash and underscore.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "file"
	}
	return out
}
