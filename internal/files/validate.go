// Package files validates banner images and names their storage keys. The
// same rules run in the client before upload and in the sandbox server on
// receipt.
package files

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNotImage is returned for files outside the image whitelist
var ErrNotImage = errors.New("file is not a supported image")

// ValidateFilename checks if filename is safe and valid
func ValidateFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}
	if len(filename) > MaxFilenameLength {
		return fmt.Errorf("filename too long (max %d characters)", MaxFilenameLength)
	}
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		return fmt.Errorf("filename contains invalid characters")
	}
	if filepath.Ext(filename) == "" {
		return fmt.Errorf("filename must have an extension")
	}
	return nil
}

// ValidateContentType checks if content type is allowed
func ValidateContentType(contentType string) error {
	if contentType == "" {
		return fmt.Errorf("content type cannot be empty")
	}
	if !AllowedContentTypes[strings.ToLower(contentType)] {
		return fmt.Errorf("%w: content type %s is not allowed", ErrNotImage, contentType)
	}
	return nil
}

// ContentType returns the canonical image content type for filename
func ContentType(filename string) (string, error) {
	ct, ok := AllowedExtensions[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotImage, filename)
	}
	return ct, nil
}

// ValidateImage checks a base file name and, when known, its declared
// content type
func ValidateImage(filename, contentType string) error {
	if err := ValidateFilename(filename); err != nil {
		return fmt.Errorf("invalid filename: %w", err)
	}
	if _, err := ContentType(filename); err != nil {
		return err
	}
	if contentType != "" {
		if err := ValidateContentType(contentType); err != nil {
			return err
		}
	}
	return nil
}

// NewKey generates a unique storage path for filename
func NewKey(filename string) string {
	name := strings.ReplaceAll(filepath.Base(filename), " ", "_")
	return fmt.Sprintf("%s%s-%s", UploadPrefix, uuid.New().String(), name)
}
