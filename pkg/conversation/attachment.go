package conversation

import (
	"fmt"
	"strings"
	"time"
)

// Attachment describes a user supplied file. The binary payload is never part
// of the descriptor, it only lives in the attachments registry.
type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// AttachmentID derives the identity of a file so that attaching the same file
// twice collapses to one entry.
func AttachmentID(name string, size int64, lastModified time.Time) string {
	return fmt.Sprintf("%s-%d-%d", name, size, lastModified.UnixMilli())
}

func (a Attachment) Validate() error {
	var missing []string
	if a.ID == "" {
		missing = append(missing, "id")
	}
	if a.Name == "" {
		missing = append(missing, "name")
	}
	if a.Size < 0 {
		return fmt.Errorf("attachment %q has negative size %d", a.Name, a.Size)
	}
	if a.Type == "" {
		missing = append(missing, "type")
	}
	if len(missing) > 0 {
		return fmt.Errorf("attachment is missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Kind is the coarse preview category derived from the MIME type.
func (a Attachment) Kind() string {
	switch {
	case strings.HasPrefix(a.Type, "image/"):
		return "image"
	case strings.HasPrefix(a.Type, "video/"):
		return "video"
	case strings.HasPrefix(a.Type, "audio/"):
		return "audio"
	default:
		return "file"
	}
}
