package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
)

// ErrUploadFailed marks an upload that the asset host rejected or that never
// reached it. Callers see it only through logs; Upload itself reports failure
// with a nil result.
var ErrUploadFailed = errors.New("media upload failed")

// AssetStorage persists an asset under the given key and returns its durable
// public location.
type AssetStorage interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}

// UploadResult describes a successfully stored asset.
type UploadResult struct {
	URL string
}

// Relay moves local temporary files to the remote asset host. Whatever the
// outcome, the local file is deleted exactly once before Upload returns, so
// spooled multipart uploads never accumulate on disk.
type Relay struct {
	storage AssetStorage
}

// NewRelay constructs a Relay backed by the provided storage.
func NewRelay(storage AssetStorage) *Relay {
	if storage == nil {
		panic("media: asset storage must not be nil")
	}
	return &Relay{storage: storage}
}

// Upload sends the file at localPath to the asset host and returns its
// durable URL. An empty path returns nil immediately without touching the
// filesystem. Any failure is logged and collapsed into a nil result; the
// caller decides whether the asset was required.
func (r *Relay) Upload(ctx context.Context, localPath string) *UploadResult {
	if localPath == "" {
		return nil
	}

	ctx, span := logging.StartSpan(ctx, "media.upload")
	defer span.End()

	defer func() {
		if err := os.Remove(localPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.FromContext(ctx).Warn("remove temp upload", "path", localPath, "error", err)
		}
	}()

	file, err := os.Open(localPath)
	if err != nil {
		logging.FromContext(ctx).Error("open temp upload", "path", localPath, "error", err)
		return nil
	}
	defer file.Close()

	ext := filepath.Ext(localPath)
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("%s%s", uuid.NewString(), ext)

	url, err := r.storage.Save(ctx, key, contentType, file)
	if err != nil {
		logging.FromContext(ctx).Error("store asset", "key", key, "error", fmt.Errorf("%w: %v", ErrUploadFailed, err))
		return nil
	}

	return &UploadResult{URL: url}
}
