package services

import (
	"errors"
	"testing"

	"github.com/hosteldex/hosteldex-server/internal/models"
)

func mediaFiles(n int) []models.MediaFile {
	files := make([]models.MediaFile, n)
	for i := range files {
		files[i] = models.MediaFile{ID: "m", Name: "photo.jpg", URL: "/m", Type: "image", Size: 1024}
	}
	return files
}

func TestValidateMediaFiles(t *testing.T) {
	if err := ValidateMediaFiles(nil); err != nil {
		t.Fatalf("no attachments must be valid: %v", err)
	}
	if err := ValidateMediaFiles(mediaFiles(5)); err != nil {
		t.Fatalf("five attachments must be valid: %v", err)
	}
	if err := ValidateMediaFiles(mediaFiles(6)); !errors.Is(err, ErrTooManyMediaFiles) {
		t.Fatalf("expected ErrTooManyMediaFiles, got %v", err)
	}

	oversize := []models.MediaFile{{Name: "clip.mp4", Type: "video", Size: MaxMediaFileSize + 1}}
	if err := ValidateMediaFiles(oversize); !errors.Is(err, ErrMediaFileTooLarge) {
		t.Fatalf("expected ErrMediaFileTooLarge, got %v", err)
	}
	atLimit := []models.MediaFile{{Name: "clip.mp4", Type: "video", Size: MaxMediaFileSize}}
	if err := ValidateMediaFiles(atLimit); err != nil {
		t.Fatalf("a file exactly at the limit must pass: %v", err)
	}

	wrongKind := []models.MediaFile{{Name: "notes.pdf", Type: "document", Size: 10}}
	if err := ValidateMediaFiles(wrongKind); !errors.Is(err, ErrMediaFileType) {
		t.Fatalf("expected ErrMediaFileType, got %v", err)
	}
}
