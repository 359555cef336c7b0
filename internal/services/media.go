package services

import (
	"errors"
	"fmt"

	"github.com/hosteldex/hosteldex-server/internal/models"
)

// Attachment limits, matching the original submission form.
const (
	MaxMediaFiles    = 5
	MaxMediaFileSize = 50 * 1024 * 1024 // 50MB per file
)

var (
	ErrTooManyMediaFiles = fmt.Errorf("at most %d media files per ticket", MaxMediaFiles)
	ErrMediaFileTooLarge = errors.New("media file exceeds the 50MB limit")
	ErrMediaFileType     = errors.New("media file must be an image or a video")
)

// ValidateMediaFiles checks a submission's attachments against the limits:
// at most MaxMediaFiles entries, each an image or video of at most
// MaxMediaFileSize bytes. Attachments are only accepted at ticket creation.
func ValidateMediaFiles(files []models.MediaFile) error {
	if len(files) > MaxMediaFiles {
		return ErrTooManyMediaFiles
	}
	for _, f := range files {
		if f.Type != "image" && f.Type != "video" {
			return fmt.Errorf("%w: %q", ErrMediaFileType, f.Name)
		}
		if f.Size > MaxMediaFileSize {
			return fmt.Errorf("%w: %q", ErrMediaFileTooLarge, f.Name)
		}
	}
	return nil
}
