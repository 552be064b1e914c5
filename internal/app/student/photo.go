package student

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"rosterhub/internal/pkg/errs"
	"rosterhub/internal/pkg/randx"
)

const (
	// MaxPhotoSizeMB is the maximum allowed photo size in megabytes.
	MaxPhotoSizeMB = 10

	// MaxPhotoSize is the maximum allowed photo size in bytes.
	MaxPhotoSize = MaxPhotoSizeMB * 1024 * 1024

	// PresignedURLDuration is how long an upload URL stays valid.
	PresignedURLDuration = 5 * time.Minute

	photoKeyPrefix = "students"
)

// AllowedMIMETypes defines the set of permitted MIME types for student photos.
var AllowedMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// ExtToMIME maps file extensions to their corresponding MIME types.
var ExtToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// PhotoUpload is the body of a presign request.
type PhotoUpload struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
}

// Validate checks size, MIME type and that the extension agrees with the MIME type.
func (u PhotoUpload) Validate() *errs.CustomError {
	if err := ValidateFileSize(u.FileSize); err != nil {
		return err
	}
	return ValidateFileType(u.FileName, u.MimeType)
}

// ValidateFileSize checks if the provided file size is within acceptable limits.
func ValidateFileSize(fileSize int64) *errs.CustomError {
	if fileSize <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if fileSize > MaxPhotoSize {
		return errs.NewError(errs.ErrFileSizeTooLarge, MaxPhotoSizeMB)
	}

	return nil
}

// ValidateFileType checks if the provided file name and MIME type are allowed.
func ValidateFileType(fileName string, mimeType string) *errs.CustomError {
	lowerMimeType := strings.ToLower(mimeType)

	if _, ok := AllowedMIMETypes[lowerMimeType]; !ok {
		return errs.NewError(errs.ErrFileTypeInvalid)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	expectedMIME, ok := ExtToMIME[ext]
	if !ok || expectedMIME != lowerMimeType {
		return errs.NewError(errs.ErrFileTypeInvalid)
	}

	return nil
}

// PhotoKey builds a fresh object key for a student photo, e.g. "students/12/3fK9a0bQ7xLm2Pz1.png".
func PhotoKey(studentID int64, fileName string) string {
	return fmt.Sprintf("%s/%d/%s%s", photoKeyPrefix, studentID, randx.ObjectName(), strings.ToLower(filepath.Ext(fileName)))
}

// OwnsPhotoKey reports whether key was issued for studentID.
func OwnsPhotoKey(studentID int64, key string) bool {
	prefix := fmt.Sprintf("%s/%d/", photoKeyPrefix, studentID)
	rest, ok := strings.CutPrefix(key, prefix)
	return ok && rest != "" && !strings.Contains(rest, "/")
}
