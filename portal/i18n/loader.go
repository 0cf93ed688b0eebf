package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Loader reads dictionaries from a Registry.
type Loader struct {
	registry Registry
	logger   *zap.Logger
}

func NewLoader(registry Registry, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{registry: registry, logger: logger}
}

// Load returns the dictionary for lang. If it cannot be loaded the default
// language's dictionary is returned instead, and if that fails too an empty
// dictionary. It never fails.
func (l *Loader) Load(ctx context.Context, lang Lang) Dictionary {
	dict, err := l.load(ctx, lang)
	if err == nil {
		return dict
	}
	if ctx.Err() != nil {
		return Dictionary{}
	}

	fallback := l.registry.Default()
	l.logger.Warn("failed to load dictionary, using fallback language",
		zap.String("lang", string(lang)),
		zap.String("fallback", string(fallback)),
		zap.Error(err))

	if fallback != lang {
		dict, err = l.load(ctx, fallback)
		if err == nil {
			return dict
		}
		l.logger.Error("failed to load fallback dictionary",
			zap.String("lang", string(fallback)),
			zap.Error(err))
	}
	return Dictionary{}
}

func (l *Loader) load(ctx context.Context, lang Lang) (Dictionary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, ok := l.registry.resource(lang)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	if l.registry.fsys == nil {
		return nil, fmt.Errorf("no filesystem for %s", res.Path)
	}

	data, err := fs.ReadFile(l.registry.fsys, res.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", res.Path, err)
	}

	dict, err := decode(res.Path, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", res.Path, err)
	}
	return dict, nil
}

func decode(name string, data []byte) (Dictionary, error) {
	var raw map[string]any
	switch path.Ext(name) {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown dictionary format %q", path.Ext(name))
	}

	if raw == nil {
		return Dictionary{}, nil
	}
	normalized, err := normalize(raw)
	if err != nil {
		return nil, err
	}
	return Dictionary(normalized.(map[string]any)), nil
}
