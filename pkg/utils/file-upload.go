package utils

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// ValidateFileTypeFromContent sniffs an uploaded file's real content type
// from its first 512 bytes and checks it against allowedTypes. The declared
// Content-Type header is ignored; answer media must be what it claims to be.
// Returns the detected MIME type.
func ValidateFileTypeFromContent(fileHeader *multipart.FileHeader, allowedTypes []string) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if n == 0 {
		return "", fmt.Errorf("file is empty")
	}

	contentType := http.DetectContentType(buffer[:n])

	if !ContainsString(allowedTypes, contentType) {
		return "", fmt.Errorf("invalid file type: %s", contentType)
	}

	// gin reopens the file for SaveUploadedFile, but rewind anyway in case
	// the caller reads it through this handle.
	_, _ = file.Seek(0, 0)

	return contentType, nil
}

// GetFileExtensionFromContentType maps a detected media content type to a
// storage file extension (with leading dot), empty when not recognized.
func GetFileExtensionFromContentType(contentType string) string {
	extensionMap := map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/gif":  ".gif",
		"image/webp": ".webp",
	}

	if ext, ok := extensionMap[contentType]; ok {
		return ext
	}
	return ""
}
