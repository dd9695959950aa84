package cmds

import (
	"context"

	"github.com/go-go-golems/solomon/pkg/attachments"
	"github.com/go-go-golems/solomon/pkg/session"
	"github.com/go-go-golems/solomon/pkg/settings"
	"github.com/go-go-golems/solomon/pkg/store"
	"github.com/go-go-golems/solomon/pkg/transport"
	"github.com/go-go-golems/solomon/pkg/transport/httpbackend"
	"github.com/go-go-golems/solomon/pkg/transport/mock"
	"github.com/go-go-golems/solomon/pkg/transport/openai"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func loadSettings() (*settings.Settings, error) {
	return settings.FromViper(viper.GetViper())
}

func newTransport(s *settings.Settings) (transport.Transport, error) {
	switch s.Backend.Kind {
	case settings.BackendHTTP:
		return httpbackend.NewClient(s.Backend.URL,
			httpbackend.WithTimeout(s.Backend.Timeout),
			httpbackend.WithTargetAgent(s.Backend.TargetAgentID),
			httpbackend.WithURLOptions(s.URLOptions()))
	case settings.BackendOpenAI:
		return openai.NewClient(s.OpenAI.APIKey, s.OpenAI.BaseURL, openai.WithModel(s.OpenAI.Model))
	case settings.BackendMock:
		return mock.New(), nil
	default:
		return nil, errors.Errorf("unknown backend %q", s.Backend.Kind)
	}
}

// openEngine builds the engine described by the current settings. The
// returned engine must be closed by the caller.
func openEngine(ctx context.Context, options ...session.Option) (*session.Engine, *settings.Settings, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, nil, err
	}
	t, err := newTransport(s)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(s.Store.Kind, s.Store.Path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not open session store")
	}
	log.Debug().
		Str("backend", string(s.Backend.Kind)).
		Str("store", string(s.Store.Kind)).
		Str("path", s.Store.Path).
		Msg("opening session")

	opts := append([]session.Option{
		session.WithTransport(t),
		session.WithStore(st),
		session.WithRegistry(attachments.NewRegistry(attachments.WithMaxSize(s.MaxAttachmentSize))),
	}, options...)
	e, err := session.New(ctx, opts...)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	return e, s, nil
}

func closeEngine(e *session.Engine) {
	if err := e.Close(); err != nil {
		log.Warn().Err(err).Msg("could not close session")
	}
}

func loadFiles(paths []string) ([]attachments.File, error) {
	ret := make([]attachments.File, 0, len(paths))
	for _, p := range paths {
		f, err := attachments.FromPath(p)
		if err != nil {
			return nil, err
		}
		ret = append(ret, f)
	}
	return ret, nil
}
