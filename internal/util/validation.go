package util

import (
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var folderPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-/]*$`)

// IsUUID reports whether s is a canonical uuid string
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}

// ValidateFilename checks that a display filename is a bare name.
// Filename is required, cannot contain directory separators and must be <= 255 chars.
func ValidateFilename(filename string) error {
	if strings.TrimSpace(filename) == "" {
		return errors.New("filename is required")
	}
	if strings.ContainsAny(filename, `/\`) {
		return errors.New("filename cannot contain directory paths")
	}
	if filename == "." || filename == ".." {
		return errors.New("filename is invalid")
	}
	if len(filename) > 255 {
		return errors.New("filename too long (max 255 characters)")
	}
	return nil
}

// ValidateFolder checks an optional destination folder. Empty is allowed.
func ValidateFolder(folder string) error {
	if folder == "" {
		return nil
	}
	if len(folder) > 128 {
		return errors.New("folder too long (max 128 characters)")
	}
	if !folderPattern.MatchString(folder) || strings.Contains(folder, "..") || strings.Contains(folder, "//") {
		return errors.New("folder may only contain lowercase letters, digits, '-', '_' and '/'")
	}
	return nil
}
