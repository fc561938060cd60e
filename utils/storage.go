package utils

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Upload subdirectories; created on startup by EnsureUploadDirs.
const (
	UploadTripsDir       = "trips"
	UploadAttachmentsDir = "attachments"
)

func EnsureUploadDirs(root string) error {
	for _, sub := range []string{UploadTripsDir, UploadAttachmentsDir} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return fmt.Errorf("failed to create upload dir %s: %w", sub, err)
		}
	}
	return nil
}

// SaveUpload stores a multipart file under root/sub with a random filename,
// keeping the original extension, and returns the public path ("/uploads/...")
// that gets persisted on the owning row.
func SaveUpload(c *fiber.Ctx, file *multipart.FileHeader, root, sub string) (string, error) {
	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".bin"
	}
	name := uuid.New().String() + ext
	if err := c.SaveFile(file, filepath.Join(root, sub, name)); err != nil {
		return "", err
	}
	return "/uploads/" + sub + "/" + name, nil
}

// RemoveFileIfExists unlinks the file behind a stored public path. Cleanup is
// advisory only: missing files and filesystem errors are ignored so database
// state never depends on storage tidiness.
func RemoveFileIfExists(root, publicPath string) {
	if publicPath == "" {
		return
	}
	cleaned := strings.TrimPrefix(publicPath, "/uploads/")
	cleaned = strings.TrimLeft(cleaned, "/")
	if cleaned == "" {
		return
	}
	abs := filepath.Join(root, filepath.Clean(cleaned))
	if !strings.HasPrefix(abs, filepath.Clean(root)+string(os.PathSeparator)) {
		return
	}
	_ = os.Remove(abs)
}
