package server

import (
	"context"
	"sync"

	"github.com/mohammad-safakhou/askdb/config"
	"github.com/mohammad-safakhou/askdb/internal/store"
	"github.com/mohammad-safakhou/askdb/internal/translator"
	"github.com/mohammad-safakhou/askdb/provider"
)

// translators caches one translator per collection so the sample record is
// read once, not per request. Imports invalidate the entry because new data
// can carry new fields.
type translators struct {
	store    store.Store
	provider provider.Provider
	cfg      config.TranslatorConfig

	mu     sync.Mutex
	byName map[string]*translator.Translator
}

func newTranslators(st store.Store, prov provider.Provider, cfg config.TranslatorConfig) *translators {
	return &translators{store: st, provider: prov, cfg: cfg, byName: make(map[string]*translator.Translator)}
}

func (t *translators) get(ctx context.Context, collection string) (*translator.Translator, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tr, ok := t.byName[collection]; ok {
		return tr, nil
	}
	tr, err := translator.New(ctx, t.store, t.provider, collection, t.cfg.Attempts, t.cfg.RetryDelay)
	if err != nil {
		return nil, err
	}
	t.byName[collection] = tr
	return tr, nil
}

func (t *translators) invalidate(collection string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byName, collection)
}
