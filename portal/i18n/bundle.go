package i18n

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Bundle holds the loaded dictionaries for every supported language. It is
// shared by all requests; a reload swaps the whole set at once.
type Bundle struct {
	registry Registry
	loader   *Loader
	logger   *zap.Logger

	mu        sync.RWMutex
	dicts     map[Lang]Dictionary
	ready     chan struct{}
	readyOnce sync.Once
}

func NewBundle(registry Registry, logger *zap.Logger) *Bundle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bundle{
		registry: registry,
		loader:   NewLoader(registry, logger),
		logger:   logger,
		dicts:    map[Lang]Dictionary{},
		ready:    make(chan struct{}),
	}
}

func (b *Bundle) Registry() Registry {
	return b.registry
}

// Load reads every registered dictionary. When ctx is cancelled part way the
// previous set is kept and ctx's error returned.
func (b *Bundle) Load(ctx context.Context) error {
	dicts := make(map[Lang]Dictionary, len(b.registry.resources))
	for _, lang := range b.registry.Languages() {
		dicts[lang] = b.loader.Load(ctx, lang)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	b.dicts = dicts
	b.mu.Unlock()

	b.readyOnce.Do(func() { close(b.ready) })
	b.logger.Debug("dictionaries loaded", zap.Int("languages", len(dicts)))
	return nil
}

// LoadAsync runs Load in the background. The returned channel closes when
// it finishes, successfully or not.
func (b *Bundle) LoadAsync(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := b.Load(ctx); err != nil {
			b.logger.Debug("dictionary load cancelled", zap.Error(err))
		}
	}()
	return done
}

func (b *Bundle) Ready() bool {
	select {
	case <-b.ready:
		return true
	default:
		return false
	}
}

// Dictionary returns the loaded dictionary for lang, or an empty one.
func (b *Bundle) Dictionary(lang Lang) Dictionary {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if dict, ok := b.dicts[lang]; ok {
		return dict
	}
	return Dictionary{}
}

// NewStore starts a translation session in lang. Unsupported languages fall
// back to the registry default.
func (b *Bundle) NewStore(lang Lang, persister Persister) *Store {
	if !b.registry.Supports(lang) {
		lang = b.registry.Default()
	}
	return &Store{
		bundle:    b,
		lang:      lang,
		docLang:   string(lang),
		persister: persister,
	}
}
