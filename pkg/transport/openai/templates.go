package openai

import (
	"bytes"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/go-go-golems/solomon/pkg/conversation"
	"github.com/go-go-golems/solomon/pkg/transport"
	"github.com/pkg/errors"
)

// PromptTemplate is a system/user template pair for one mode.
type PromptTemplate struct {
	System string
	User   string
}

type templateData struct {
	Prompt      string
	Attachments []conversation.Attachment
}

const attachmentsBlock = `{{ range .Attachments }}
{{ describe . }}{{ end }}`

var defaultTemplates = map[transport.Mode]PromptTemplate{
	transport.ModeText: {
		System: "You are Solomon, a helpful assistant. Answer in the language of the question.",
		User:   `{{ .Prompt | trim }}` + attachmentsBlock,
	},
	transport.ModeResearch: {
		System: "You are a research assistant. Write a structured, factual summary with sources where possible.",
		User:   `Research topic: {{ .Prompt | trim | default "(none)" }}` + attachmentsBlock,
	},
	transport.ModeAudio: {
		System: "You describe audio pieces. Reply with a vivid description of the requested audio.",
		User:   `Audio request: {{ .Prompt | trim }}` + attachmentsBlock,
	},
	transport.ModeVideo: {
		System: "You describe short videos. Reply with a scene-by-scene description of the requested video.",
		User:   `Video request: {{ .Prompt | trim }}` + attachmentsBlock,
	},
	transport.ModeAgentCreation: {
		System: "You design assistant agents. Reply with a short description of the agent defined by the instruction.",
		User:   `Instruction: {{ .Prompt | trim }}` + attachmentsBlock,
	},
	transport.ModeImage: {
		User: `{{ .Prompt | trim | trunc 1000 }}` + attachmentsBlock,
	},
}

func renderTemplate(name, text string, data templateData) (string, error) {
	funcs := sprig.TxtFuncMap()
	funcs["describe"] = transport.DescribeAttachment
	t, err := template.New(name).Funcs(funcs).Parse(text)
	if err != nil {
		return "", errors.Wrapf(err, "could not parse %s template", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", errors.Wrapf(err, "could not render %s template", name)
	}
	return buf.String(), nil
}
