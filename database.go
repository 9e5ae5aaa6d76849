// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package witness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/witness/ai"
	"github.com/poiesic/witness/ai/openai"
	"github.com/poiesic/witness/extract"
	"github.com/poiesic/witness/ingestion"
	"github.com/poiesic/witness/profile"
	"github.com/poiesic/witness/reembed"
	"github.com/poiesic/witness/search"
	"github.com/poiesic/witness/storage"
	"github.com/poiesic/witness/storage/badger"
	"github.com/poiesic/witness/storage/sqlite"
	"github.com/poiesic/witness/topic"
)

// Storage backend names accepted by WithBackend.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// knownContactLimit bounds how many learned contacts seed the gazetteer.
const knownContactLimit = 500

// Database wires a store, an AI provider and the user's profile, and hands
// out the components that work on them.
type Database struct {
	store    storage.Store
	provider ai.AIProvider
	profile  *profile.Learner
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	backend   string
	aiConfig  *ai.Config
	provider  ai.AIProvider
	selfNames []string
	logger    *slog.Logger
}

// WithBackend selects the storage backend. Default is BackendBadger.
func WithBackend(name string) DatabaseOption {
	return func(o *databaseOptions) {
		o.backend = name
	}
}

// WithAIConfig sets the configuration for the OpenAI-compatible provider.
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider uses p instead of building an OpenAI-compatible provider.
func WithProvider(p ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = p
	}
}

// WithSelfNames sets the names the user is known by.
func WithSelfNames(names ...string) DatabaseOption {
	return func(o *databaseOptions) {
		o.selfNames = names
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// NewDatabase opens the store at path, creating it if needed. Without
// WithProvider an OpenAI-compatible provider is built from the AI config.
func NewDatabase(path string, opts ...DatabaseOption) (*Database, error) {
	options := newOptions(opts)
	var (
		store storage.Store
		err   error
	)
	switch options.backend {
	case BackendBadger:
		store, err = badger.Open(path)
	case BackendSQLite:
		store, err = sqlite.Open(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, options.backend)
	}
	if err != nil {
		return nil, err
	}
	return newDatabase(store, options)
}

// NewInMemoryDatabase opens a Badger store that lives in memory only.
func NewInMemoryDatabase(opts ...DatabaseOption) (*Database, error) {
	store, err := badger.OpenInMemory()
	if err != nil {
		return nil, err
	}
	return newDatabase(store, newOptions(opts))
}

func newOptions(opts []DatabaseOption) *databaseOptions {
	options := &databaseOptions{
		backend:  BackendBadger,
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	return options
}

func newDatabase(store storage.Store, options *databaseOptions) (*Database, error) {
	if err := store.Chunks().Initialize(context.Background()); err != nil {
		store.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	learner, err := profile.New(store.Contacts(),
		profile.WithSelfNames(options.selfNames...),
		profile.WithLogger(options.logger))
	if err != nil {
		provider.Close()
		store.Close()
		return nil, err
	}

	return &Database{
		store:    store,
		provider: provider,
		profile:  learner,
		logger:   options.logger,
	}, nil
}

// Close releases the provider and the store.
func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}
	if err := db.store.Close(); err != nil {
		db.logger.Error("error closing store", "err", err)
		return err
	}
	return nil
}

func (db *Database) ChunkRepository() storage.ChunkRepository {
	return db.store.Chunks()
}

func (db *Database) ContactRepository() storage.ContactRepository {
	return db.store.Contacts()
}

func (db *Database) CheckpointRepository() storage.CheckpointRepository {
	return db.store.Checkpoints()
}

func (db *Database) Profile() *profile.Learner {
	return db.profile
}

func (db *Database) Embedder() ai.Embedder {
	return db.provider.Embedder()
}

// NewExtractor returns an extractor using the provider's model tagger when
// one is configured. Otherwise the gazetteer also knows previously learned
// contacts.
func (db *Database) NewExtractor(ctx context.Context) (*extract.Extractor, error) {
	if tagger := db.provider.Tagger(); tagger != nil {
		return extract.New(extract.WithTagger(tagger), extract.WithLogger(db.logger)), nil
	}
	contacts, err := db.profile.KnownContacts(ctx, knownContactLimit)
	if err != nil {
		return nil, err
	}
	gazetteer := extract.NewGazetteer(contacts, extract.DefaultOrganizations, extract.DefaultPlaces)
	return extract.New(extract.WithTagger(gazetteer), extract.WithLogger(db.logger)), nil
}

// NewCollector creates a collector that persists into this database.
// opts are applied after the database's own and may override them.
func (db *Database) NewCollector(ctx context.Context, opts ...ingestion.Option) (*ingestion.Collector, error) {
	extractor, err := db.NewExtractor(ctx)
	if err != nil {
		return nil, err
	}
	base := []ingestion.Option{
		ingestion.WithLogger(db.logger),
		ingestion.WithExtractor(extractor),
		ingestion.WithProfile(db.profile),
	}
	return ingestion.New(db.store.Chunks(), db.provider.Embedder(), append(base, opts...)...)
}

func (db *Database) NewSearcher(ctx context.Context, opts ...search.Option) (*search.Searcher, error) {
	extractor, err := db.NewExtractor(ctx)
	if err != nil {
		return nil, err
	}
	base := []search.Option{
		search.WithLogger(db.logger),
		search.WithExtractor(extractor),
	}
	return search.NewSearcher(db.store.Chunks(), db.provider.Embedder(), append(base, opts...)...)
}

func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(db.store.Chunks(), db.store.Checkpoints(), db.provider.Embedder(), config, progress)
}

func (db *Database) NewReextractor(ctx context.Context, config *reembed.Config, progress io.Writer) (*reembed.Reextractor, error) {
	extractor, err := db.NewExtractor(ctx)
	if err != nil {
		return nil, err
	}
	r := reembed.NewReextractor(db.store.Chunks(), db.store.Checkpoints(), extractor, topic.New(), config, progress)
	r.IsMe = db.profile.IsMe
	return r, nil
}
