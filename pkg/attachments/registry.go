// Package attachments keeps the live binary handles of the files attached to
// the active conversation.
//
// Descriptors (conversation.Attachment) are persisted with messages, handles
// never are. The registry only ever holds handles for the active transcript:
// callers release everything when the transcript is cleared, replaced or
// restored from history.
package attachments

import (
	"io"
	"sort"
	"sync"

	"github.com/go-go-golems/solomon/pkg/conversation"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const DefaultMaxSize int64 = 20 * 1024 * 1024

var (
	ErrTooLarge = errors.New("attachment exceeds size limit")
	ErrReleased = errors.New("attachment handle released")
)

// Handle is a revocable reference to the bytes of one attached file.
type Handle struct {
	ID  string
	URL string

	mu       sync.RWMutex
	data     []byte
	released bool
}

func (h *Handle) Bytes() ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.released {
		return nil, ErrReleased
	}
	return h.data, nil
}

func (h *Handle) Released() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.released
}

func (h *Handle) revoke() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.released = true
	h.data = nil
}

type Registry struct {
	mu      sync.RWMutex
	handles map[string]*Handle
	maxSize int64
}

type RegistryOption func(*Registry)

func WithMaxSize(size int64) RegistryOption {
	return func(r *Registry) {
		r.maxSize = size
	}
}

func NewRegistry(options ...RegistryOption) *Registry {
	r := &Registry{
		handles: map[string]*Handle{},
		maxSize: DefaultMaxSize,
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// Register reads f into a new handle and returns its descriptor. Registering a
// file whose derived id is already held returns the existing entry.
func (r *Registry) Register(f File) (conversation.Attachment, error) {
	desc := conversation.Attachment{
		ID:   conversation.AttachmentID(f.Name(), f.Size(), f.ModTime()),
		Name: f.Name(),
		Size: f.Size(),
		Type: f.Type(),
	}
	if desc.Type == "" {
		desc.Type = "application/octet-stream"
	}

	r.mu.RLock()
	_, exists := r.handles[desc.ID]
	r.mu.RUnlock()
	if exists {
		return desc, nil
	}

	if r.maxSize > 0 && f.Size() > r.maxSize {
		return conversation.Attachment{}, errors.Wrapf(ErrTooLarge, "%s is %d bytes, limit is %d", f.Name(), f.Size(), r.maxSize)
	}

	rc, err := f.Open()
	if err != nil {
		return conversation.Attachment{}, errors.Wrapf(err, "could not open %s", f.Name())
	}
	defer func() {
		_ = rc.Close()
	}()

	limit := r.maxSize
	if limit <= 0 {
		limit = f.Size()
	}
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return conversation.Attachment{}, errors.Wrapf(err, "could not read %s", f.Name())
	}
	if r.maxSize > 0 && int64(len(data)) > r.maxSize {
		return conversation.Attachment{}, errors.Wrapf(ErrTooLarge, "%s grew past %d bytes while reading", f.Name(), r.maxSize)
	}

	h := &Handle{
		ID:   desc.ID,
		URL:  "blob:solomon/" + uuid.NewString(),
		data: data,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handles[desc.ID]; ok {
		return desc, nil
	}
	r.handles[desc.ID] = h
	log.Debug().Str("attachment", desc.ID).Int64("size", desc.Size).Msg("registered attachment")
	return desc, nil
}

func (r *Registry) Resolve(id string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[id]
	return h, ok
}

// URL resolves the handle URL for id. It matches render.Resolver.
func (r *Registry) URL(id string) (string, bool) {
	h, ok := r.Resolve(id)
	if !ok {
		return "", false
	}
	return h.URL, true
}

// Release revokes the handle for id. Unknown ids are ignored.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	h, ok := r.handles[id]
	delete(r.handles, id)
	r.mu.Unlock()
	if ok {
		h.revoke()
	}
}

func (r *Registry) ReleaseAll() {
	r.mu.Lock()
	handles := r.handles
	r.handles = map[string]*Handle{}
	r.mu.Unlock()

	for _, h := range handles {
		h.revoke()
	}
	if len(handles) > 0 {
		log.Debug().Int("count", len(handles)).Msg("released attachment handles")
	}
}

// IDs lists the held ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]string, 0, len(r.handles))
	for id := range r.handles {
		ret = append(ret, id)
	}
	sort.Strings(ret)
	return ret
}
