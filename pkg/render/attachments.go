package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/go-go-golems/solomon/pkg/conversation"
	"github.com/rs/zerolog/log"
)

// Resolver returns the live handle URL for an attachment id.
type Resolver func(id string) (string, bool)

type Preview struct {
	Attachment conversation.Attachment `json:"attachment"`
	Kind       string                  `json:"kind"`
	URL        string                  `json:"url,omitempty"`
}

// Previews maps descriptors to previews. Invalid descriptors are skipped with a
// warning. Without a live handle, media degrades to the generic file preview.
func Previews(attachments []conversation.Attachment, resolve Resolver) []Preview {
	ret := make([]Preview, 0, len(attachments))
	for _, a := range attachments {
		if err := a.Validate(); err != nil {
			log.Warn().Err(err).Str("attachment", a.ID).Msg("skipping invalid attachment")
			continue
		}
		p := Preview{Attachment: a, Kind: "file"}
		if resolve != nil {
			if url, ok := resolve(a.ID); ok {
				p.Kind = a.Kind()
				p.URL = url
			}
		}
		ret = append(ret, p)
	}
	return ret
}

func formatSize(size int64) string {
	return fmt.Sprintf("%.2f MB", float64(size)/(1024*1024))
}

func (r *Renderer) PreviewsHTML(previews []Preview) string {
	var sb strings.Builder
	for _, p := range previews {
		name := html.EscapeString(p.Attachment.Name)
		src := html.EscapeString(p.URL)
		switch p.Kind {
		case "image":
			sb.WriteString(`<img class="attachment-image" src="` + src + `" alt="` + name + `">`)
		case "video":
			sb.WriteString(`<video class="attachment-video" controls src="` + src + `"></video>`)
		case "audio":
			sb.WriteString(`<audio class="attachment-audio" controls src="` + src + `"></audio>`)
		default:
			sb.WriteString(`<span class="attachment-file">` + name + ` (` + formatSize(p.Attachment.Size) + `)</span>`)
		}
	}
	return r.mediaPolicy.Sanitize(sb.String())
}

func PreviewsHTML(previews []Preview) string {
	return defaultRenderer.PreviewsHTML(previews)
}
