package i18n

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Store is one visitor's translation session.
type Store struct {
	bundle    *Bundle
	persister Persister

	mu      sync.RWMutex
	lang    Lang
	docLang string
}

func (s *Store) Language() Lang {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lang
}

// DocumentLang is the value for the page's lang attribute.
func (s *Store) DocumentLang() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docLang
}

// T translates key for the current language, trying the other languages in
// registry order before giving up and returning key itself. It is safe to
// call before the bundle has loaded.
func (s *Store) T(key string, params map[string]string) string {
	lang := s.Language()
	for i, candidate := range s.bundle.registry.chain(lang) {
		value, ok := s.bundle.Dictionary(candidate).Lookup(key)
		if !ok {
			continue
		}
		if i > 0 {
			s.bundle.logger.Warn("translation missing, using fallback language",
				zap.String("key", key),
				zap.String("lang", string(lang)),
				zap.String("fallback", string(candidate)))
		}
		return Interpolate(value, params)
	}

	if s.bundle.Ready() {
		s.bundle.logger.Warn("translation missing in all languages",
			zap.String("key", key),
			zap.String("lang", string(lang)))
	}
	return key
}

// SetLanguage switches the session language, updates the document language
// and persists the choice.
func (s *Store) SetLanguage(lang Lang) error {
	if !s.bundle.registry.Supports(lang) {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}

	s.mu.Lock()
	s.lang = lang
	s.docLang = string(lang)
	s.mu.Unlock()

	if s.persister == nil {
		return nil
	}
	if err := s.persister.SaveLanguage(lang); err != nil {
		return fmt.Errorf("persist language %s: %w", lang, err)
	}
	return nil
}
