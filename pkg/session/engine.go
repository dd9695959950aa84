package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-go-golems/solomon/pkg/attachments"
	"github.com/go-go-golems/solomon/pkg/conversation"
	"github.com/go-go-golems/solomon/pkg/events"
	"github.com/go-go-golems/solomon/pkg/security"
	"github.com/go-go-golems/solomon/pkg/store"
	"github.com/go-go-golems/solomon/pkg/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Engine serializes every transition of one Session. Only Send waits on the
// transport, and it does so without holding the lock. At most one send is in
// flight: a Send issued while loading is skipped, not queued.
type Engine struct {
	mu    sync.Mutex
	state Session

	store     store.Store
	transport transport.Transport
	registry  *attachments.Registry
	publisher *events.PublisherManager
	catalog   Catalog
	now       func() time.Time
}

type Option func(*Engine)

func WithStore(s store.Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

func WithTransport(t transport.Transport) Option {
	return func(e *Engine) {
		e.transport = t
	}
}

func WithRegistry(r *attachments.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithPublisher makes every transition publish an events.SessionEvent.
// Events are published while the engine lock is held, so subscribers must
// not call back into the engine.
func WithPublisher(p *events.PublisherManager) Option {
	return func(e *Engine) {
		e.publisher = p
	}
}

func WithCatalog(c Catalog) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New builds an engine and loads its state from the store. A missing or
// corrupt document yields the default session; that is logged, not returned.
func New(ctx context.Context, options ...Option) (*Engine, error) {
	e := &Engine{
		now: time.Now,
	}
	for _, o := range options {
		o(e)
	}
	if e.transport == nil {
		return nil, ErrNoTransport
	}
	if e.catalog == nil {
		e.catalog = DefaultCatalog()
	}
	if e.store == nil {
		e.store = store.NewMemoryStore()
	}
	if e.registry == nil {
		e.registry = attachments.NewRegistry()
	}

	e.state = e.load(ctx)
	e.publish(ctx, events.TransitionLoaded, nil)
	return e, nil
}

func (e *Engine) load(ctx context.Context) Session {
	b, err := e.store.Load(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Debug().Msg("no persisted session, starting with defaults")
		} else {
			log.Warn().Err(err).Msg("could not load persisted session, starting with defaults")
		}
		return Default(e.catalog)
	}
	s, err := Decode(b, e.catalog)
	if err != nil {
		log.Warn().Err(err).Msg("persisted session is corrupt, starting with defaults")
		return Default(e.catalog)
	}
	log.Debug().
		Int("messages", len(s.Messages)).
		Int("history", len(s.History)).
		Str("model", s.CurrentModel.ID).
		Msg("loaded persisted session")
	return s
}

// Snapshot returns a deep copy of the current session.
func (e *Engine) Snapshot() Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

func (e *Engine) Catalog() Catalog {
	return e.catalog
}

func (e *Engine) Registry() *attachments.Registry {
	return e.registry
}

// apply runs actions and persists. The caller holds e.mu.
func (e *Engine) apply(ctx context.Context, transition events.Transition, actions ...Action) error {
	next, err := Reduce(e.state, actions...)
	if err != nil {
		return err
	}
	e.state = next
	e.persist(ctx)
	e.publish(ctx, transition, nil)
	return nil
}

// persist failures are logged and never roll back the transition.
func (e *Engine) persist(ctx context.Context) {
	b, err := Encode(e.state)
	if err != nil {
		log.Error().Err(err).Msg("could not encode session")
		return
	}
	if err := e.store.Save(ctx, b); err != nil {
		log.Error().Err(err).Msg("could not persist session")
	}
}

func (e *Engine) publish(ctx context.Context, transition events.Transition, cause error) {
	if e.publisher == nil {
		return
	}
	ev := events.SessionEvent{
		Transition:   transition,
		MessageCount: len(e.state.Messages),
		HistoryCount: len(e.state.History),
		Loading:      e.state.Loading,
		Model:        e.state.CurrentModel.ID,
		Time:         e.now(),
	}
	if cause != nil {
		ev.Error = cause.Error()
	}
	e.publisher.PublishBlind(ctx, ev)
}

type SendRequest struct {
	Content string
	Files   []attachments.File
	Mode    transport.Mode
}

type SendResult struct {
	// Skipped is set when a send was already in flight or there was
	// nothing to send.
	Skipped bool
	User    conversation.Message
	Reply   conversation.Message
	// Err is the transport failure hidden behind the apology reply.
	Err error
}

// Send registers the files, appends the user message, calls the transport
// for req.Mode and appends the reply. Transport failures become an apology
// reply and are reported in SendResult.Err, not as the returned error. The
// returned error is only set when the attachments could not be registered,
// in which case the session is unchanged.
func (e *Engine) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	e.mu.Lock()
	if e.state.Loading {
		e.mu.Unlock()
		log.Debug().Msg("send already in flight, skipping")
		return SendResult{Skipped: true}, nil
	}
	if strings.TrimSpace(req.Content) == "" && len(req.Files) == 0 {
		e.mu.Unlock()
		return SendResult{Skipped: true}, nil
	}

	atts, err := e.register(req.Files)
	if err != nil {
		e.mu.Unlock()
		return SendResult{}, err
	}

	user := conversation.NewUserMessage(req.Content,
		conversation.WithTime(e.now()),
		conversation.WithAttachments(atts...))
	if err := e.apply(ctx, events.TransitionSendStarted, BeginSend(user)); err != nil {
		e.mu.Unlock()
		return SendResult{}, err
	}
	e.mu.Unlock()

	log.Debug().Str("mode", req.Mode.String()).Int("attachments", len(atts)).Msg("sending")
	reply, sendErr := transport.Dispatch(ctx, e.transport, req.Mode, req.Content, atts)

	var assistant conversation.Message
	transition := events.TransitionSendCompleted
	if sendErr != nil {
		log.Error().Err(sendErr).Str("mode", req.Mode.String()).Msg("transport failed")
		assistant = conversation.NewAssistantMessage(ApologyText, conversation.WithTime(e.now()))
		transition = events.TransitionSendFailed
	} else {
		assistant = conversation.NewAssistantMessage(reply.Content,
			conversation.WithTime(e.now()),
			conversation.WithImageURL(mediaURL(reply.ImageURL)),
			conversation.WithVideo(mediaURL(reply.VideoURL), mediaURL(reply.ThumbnailURL)))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	next, err := Reduce(e.state, CompleteSend(assistant))
	if err != nil {
		return SendResult{}, err
	}
	e.state = next
	e.persist(ctx)
	e.publish(ctx, transition, sendErr)

	return SendResult{User: user, Reply: assistant, Err: sendErr}, nil
}

// register adds files to the registry. On failure the handles created by
// this call are released again.
func (e *Engine) register(files []attachments.File) ([]conversation.Attachment, error) {
	var (
		ret   []conversation.Attachment
		fresh []string
	)
	for _, f := range files {
		id := conversation.AttachmentID(f.Name(), f.Size(), f.ModTime())
		_, held := e.registry.Resolve(id)
		a, err := e.registry.Register(f)
		if err != nil {
			for _, id := range fresh {
				e.registry.Release(id)
			}
			return nil, err
		}
		if !held {
			fresh = append(fresh, id)
		}
		ret = append(ret, a)
	}
	return ret, nil
}

// mediaURL drops addresses that must not end up in rendered markup.
func mediaURL(u string) string {
	if u == "" {
		return ""
	}
	if err := security.ValidateMediaURL(u); err != nil {
		log.Warn().Err(err).Str("url", u).Msg("dropping media URL from reply")
		return ""
	}
	return u
}

func (e *Engine) StartNew(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registry.ReleaseAll()
	e.mustApply(ctx, events.TransitionNewChat, StartNew())
}

func (e *Engine) Clear(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registry.ReleaseAll()
	e.mustApply(ctx, events.TransitionCleared, Clear())
}

// RemoveFromHistory deletes the archived conversation at index. Handles are
// released when this also clears the transcript.
func (e *Engine) RemoveFromHistory(ctx context.Context, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	hadMessages := !e.state.Messages.IsEmpty()
	if err := e.apply(ctx, events.TransitionHistoryRemove, RemoveFromHistory(index)); err != nil {
		return err
	}
	if hadMessages && e.state.Messages.IsEmpty() {
		e.registry.ReleaseAll()
	}
	return nil
}

// Restore makes c the active transcript, archiving the current one.
func (e *Engine) Restore(ctx context.Context, c conversation.Conversation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registry.ReleaseAll()
	e.mustApply(ctx, events.TransitionRestored, Restore(c))
}

// RestoreIndex restores the archived conversation at index.
func (e *Engine) RestoreIndex(ctx context.Context, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.state.History) {
		return errors.Wrapf(ErrIndexOutOfRange, "%d (history has %d entries)", index, len(e.state.History))
	}
	e.registry.ReleaseAll()
	return e.apply(ctx, events.TransitionRestored, Restore(e.state.History[index]))
}

func (e *Engine) ClearAllHistory(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mustApply(ctx, events.TransitionHistoryClear, ClearAllHistory())
}

func (e *Engine) AddToHistory(ctx context.Context, c conversation.Conversation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mustApply(ctx, events.TransitionHistoryAdd, AddToHistory(c))
}

func (e *Engine) SetModel(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.apply(ctx, events.TransitionModelChanged, SetModel(e.catalog, id))
}

func (e *Engine) UpdateProfile(ctx context.Context, u ProfileUpdate) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mustApply(ctx, events.TransitionProfileUpdate, UpdateProfile(u))
}

// mustApply is for the total transitions, which cannot fail.
func (e *Engine) mustApply(ctx context.Context, transition events.Transition, a Action) {
	if err := e.apply(ctx, transition, a); err != nil {
		log.Error().Err(err).Str("action", a.Name()).Msg("transition failed")
	}
}

// Close releases every attachment handle and closes the store.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registry.ReleaseAll()
	return e.store.Close()
}
