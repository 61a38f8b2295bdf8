package upload

import (
	"fmt"
	"regexp"
	"time"

	"salesintake/internal/domain"
)

const (
	keyDayLayout       = "2006/01/02"
	keyTimestampLayout = "2006-01-02T150405"
	notAvailable       = "N/A"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SanitizeFilename replaces every character outside [A-Za-z0-9._-] with an underscore.
func SanitizeFilename(name string) string {
	return unsafeKeyChars.ReplaceAllString(name, "_")
}

// BlobKey builds the storage key for a file uploaded at the given instant:
// YYYY/MM/DD/{timestamp}_{sanitized name}, all in UTC.
func BlobKey(name string, at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("%s/%s_%s", at.Format(keyDayLayout), at.Format(keyTimestampLayout), SanitizeFilename(name))
}

// Metadata is the descriptive metadata attached to an uploaded blob.
func Metadata(p *domain.Principal, at time.Time, source string) map[string]string {
	bp := p.BPCode
	if bp == "" {
		bp = notAvailable
	}
	return map[string]string{
		"uploadedby": p.UploaderName(),
		"usertype":   string(p.UserType),
		"bpcode":     bp,
		"uploadedat": at.UTC().Format(time.RFC3339),
		"source":     source,
	}
}
