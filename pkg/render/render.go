// Package render turns raw message content into sanitized display markup.
//
// Content goes through an ordered list of stages. Code extraction happens
// first on the raw text, the remaining text is formatted stage by stage and
// the assembled markup is always passed through a bluemonday policy.
package render

import (
	"github.com/go-go-golems/solomon/pkg/conversation"
	"github.com/microcosm-cc/bluemonday"
)

// Result is everything the display layer needs for one message.
type Result struct {
	HTML         string     `json:"html"`
	Code         *CodeBlock `json:"code,omitempty"`
	RTL          bool       `json:"rtl"`
	Thinking     string     `json:"thinking,omitempty"`
	ThinkingHTML string     `json:"thinkingHtml,omitempty"`
}

type Renderer struct {
	math        MathFunc
	policy      *bluemonday.Policy
	mediaPolicy *bluemonday.Policy
	stages      []Stage
}

type Option func(*Renderer)

func WithMathFunc(f MathFunc) Option {
	return func(r *Renderer) {
		r.math = f
	}
}

func WithPolicy(p *bluemonday.Policy) Option {
	return func(r *Renderer) {
		r.policy = p
	}
}

func NewRenderer(options ...Option) *Renderer {
	r := &Renderer{
		math:        defaultMath,
		policy:      NewTextPolicy(),
		mediaPolicy: NewMediaPolicy(),
	}
	for _, o := range options {
		o(r)
	}
	r.stages = []Stage{
		textStage("strip-literals", stripLiterals),
		textStage("strip-headings", stripHeadings),
		textStage("list-markers", breakListMarkers),
		textStage("punctuation", spacePunctuation),
		textStage("step-markers", breakStepMarkers),
		textStage("arrows", substituteArrows),
		textStage("protect-math", protectMath),
		mathStage(r.math),
		textStage("emphasis", convertEmphasis),
		textStage("keywords", breakKeywords),
		textStage("residuals", stripResiduals),
		{Name: "links", Apply: convertLinks},
	}
	return r
}

// Stages lists the formatting stage names in execution order.
func (r *Renderer) Stages() []string {
	ret := make([]string, 0, len(r.stages))
	for _, s := range r.stages {
		ret = append(ret, s.Name)
	}
	return ret
}

// Format runs every stage after code extraction and returns sanitized markup.
func (r *Renderer) Format(text string) string {
	if text == "" {
		return ""
	}
	d := newDocument(text)
	for _, s := range r.stages {
		s.Apply(d)
	}
	d.text = lineBreaks(d.text)
	return r.policy.Sanitize(d.restore())
}

// Render processes content that has no thinking section.
func (r *Renderer) Render(content string) Result {
	text, code := ExtractCode(content)
	return Result{
		HTML: r.Format(text),
		Code: code,
		RTL:  IsRTL(content),
	}
}

// RenderMessage splits off the thinking section of assistant messages before
// rendering the response.
func (r *Renderer) RenderMessage(m conversation.Message) Result {
	if m.Sender != conversation.SenderAssistant {
		return r.Render(m.Content)
	}
	t := ExtractThinking(m.Content)
	ret := r.Render(t.Response)
	ret.RTL = IsRTL(m.Content)
	if t.HasThinking {
		ret.Thinking = t.Thinking
		ret.ThinkingHTML = r.Format(t.Thinking)
	}
	return ret
}

var defaultRenderer = NewRenderer()

func Render(content string) Result {
	return defaultRenderer.Render(content)
}

func RenderMessage(m conversation.Message) Result {
	return defaultRenderer.RenderMessage(m)
}

func Format(text string) string {
	return defaultRenderer.Format(text)
}
