package session

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-go-golems/solomon/pkg/conversation"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// Document is the persisted form of a Session. Timestamps are epoch
// milliseconds. Handles from the attachment registry are never part of it.
type Document struct {
	Messages     conversation.Conversation   `json:"messages"`
	Loading      bool                        `json:"loading"`
	History      []conversation.Conversation `json:"history"`
	CurrentModel *Model                      `json:"currentModel,omitempty"`
	UserInfo     *Profile                    `json:"userInfo,omitempty"`
}

func NewDocument(s Session) Document {
	d := Document{
		Messages:     s.Messages,
		Loading:      s.Loading,
		History:      s.History,
		CurrentModel: &s.CurrentModel,
		UserInfo:     &s.UserProfile,
	}
	if d.Messages == nil {
		d.Messages = conversation.Conversation{}
	}
	if d.History == nil {
		d.History = []conversation.Conversation{}
	}
	return d
}

// Encode serializes s.
func Encode(s Session) ([]byte, error) {
	b, err := json.Marshal(NewDocument(s))
	if err != nil {
		return nil, errors.Wrap(err, "could not encode session")
	}
	return b, nil
}

// Decode validates b against the document schema and rebuilds the Session.
// The stored model is re-resolved against catalog, a missing profile falls
// back to the default one, and empty archived conversations are dropped.
// A persisted loading flag is cleared since no send survives a restart.
func Decode(b []byte, catalog Catalog) (Session, error) {
	if err := Validate(b); err != nil {
		return Session{}, err
	}
	var d Document
	if err := json.Unmarshal(b, &d); err != nil {
		return Session{}, errors.Wrap(err, "could not decode session")
	}

	s := Default(catalog)
	s.Messages = d.Messages
	for _, c := range d.History {
		if !c.IsEmpty() {
			s.History = append(s.History, c)
		}
	}
	if d.CurrentModel != nil {
		s.CurrentModel = catalog.Resolve(d.CurrentModel.ID)
	}
	if d.UserInfo != nil {
		s.UserProfile = *d.UserInfo
	}
	if s.Messages.IsEmpty() {
		s.Messages = nil
	}
	return s, nil
}

var (
	schemaOnce  sync.Once
	schemaBytes []byte
	schemaErr   error
)

// Schema returns the draft-07 JSON schema of Document.
func Schema() ([]byte, error) {
	schemaOnce.Do(func() {
		r := &jsonschema.Reflector{
			DoNotReference:            true,
			AllowAdditionalProperties: true,
			Mapper:                    mapSchemaType,
		}
		s := r.Reflect(&Document{})
		s.Version = "http://json-schema.org/draft-07/schema#"
		s.Title = "Solomon session"
		schemaBytes, schemaErr = json.MarshalIndent(s, "", "  ")
	})
	return schemaBytes, schemaErr
}

var (
	timeType       = reflect.TypeOf(time.Time{})
	senderType     = reflect.TypeOf(conversation.Sender(""))
	attachmentType = reflect.TypeOf(conversation.Attachment{})
)

func mapSchemaType(t reflect.Type) *jsonschema.Schema {
	switch t {
	case timeType:
		return &jsonschema.Schema{Type: "integer", Description: "epoch milliseconds"}
	case senderType:
		return &jsonschema.Schema{Type: "string", Enum: []interface{}{"user", "ai", "assistant", "bot"}}
	case attachmentType:
		// incomplete descriptors are tolerated and skipped when rendering
		return &jsonschema.Schema{Type: "object"}
	}
	return nil
}

// Validate checks b against Schema.
func Validate(b []byte) error {
	schema, err := Schema()
	if err != nil {
		return errors.Wrap(err, "could not build session schema")
	}
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(b))
	if err != nil {
		return errors.Wrap(err, "could not validate session document")
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return errors.Errorf("invalid session document: %s", strings.Join(msgs, "; "))
	}
	return nil
}
