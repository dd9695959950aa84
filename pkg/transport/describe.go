package transport

import (
	"fmt"
	"strings"

	"github.com/go-go-golems/solomon/pkg/conversation"
)

// DescribeAttachment renders the one-line summary backends receive in place of
// the binary content, e.g. "[FILE: report.pdf, 1.25MB, application/pdf]".
func DescribeAttachment(a conversation.Attachment) string {
	return fmt.Sprintf("[FILE: %s, %.2fMB, %s]", a.Name, float64(a.Size)/(1024*1024), a.Type)
}

// AugmentPrompt appends the attachment descriptions to prompt, space
// separated, the way the backend expects them.
func AugmentPrompt(prompt string, attachments []conversation.Attachment) string {
	parts := make([]string, 0, len(attachments)+1)
	parts = append(parts, prompt)
	for _, a := range attachments {
		parts = append(parts, DescribeAttachment(a))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
