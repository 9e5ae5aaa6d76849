package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/witness/ai"
	"github.com/poiesic/witness/core"
	"github.com/poiesic/witness/dedup"
	"github.com/poiesic/witness/extract"
	"github.com/poiesic/witness/filter"
	"github.com/poiesic/witness/storage"
	"github.com/poiesic/witness/topic"
)

// State is the collector lifecycle state.
type State int

const (
	StateIdle State = iota
	StateCollecting
)

func (s State) String() string {
	if s == StateCollecting {
		return "collecting"
	}
	return "idle"
}

// Collector accepts raw text from producers and turns it into persisted chunks.
//
// All cache, pending and counter state is guarded by mu. Embedding and store
// I/O for a flush runs on the worker pool against a snapshot of the pending
// list, so ingestion continues while a flush is in flight.
type Collector struct {
	chunks     storage.ChunkRepository
	embedder   ai.Embedder
	filter     *filter.Filter
	dedup      *dedup.Deduplicator
	extractor  *extract.Extractor
	classifier *topic.Classifier
	profile    Profile
	pool       *ants.Pool
	logger     *slog.Logger
	now        func() time.Time

	batchSize          int
	flushDelay         time.Duration
	minLength          int
	clipboardMinLength int
	aggregateMinLength int

	mu         sync.Mutex
	state      State
	pending    []*core.ContextChunk
	generation uint64
	timer      *time.Timer
	counters   Counters

	// flush results are written from pool workers
	resultMu  sync.Mutex
	persisted int
	embedded  int
	failures  int
	lastError string

	inFlight sync.WaitGroup
}

// New creates a Collector writing to chunks and embedding with embedder.
func New(chunks storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Collector, error) {
	if chunks == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	c := &Collector{
		chunks:             chunks,
		embedder:           embedder,
		logger:             slog.Default(),
		now:                time.Now,
		batchSize:          DefaultBatchSize,
		flushDelay:         DefaultFlushDelay,
		minLength:          DefaultMinLength,
		clipboardMinLength: DefaultClipboardMinLength,
		aggregateMinLength: DefaultAggregateMinLength,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			c.Release()
			return nil, err
		}
	}

	c.logger = c.logger.With("component", "collector")
	if c.filter == nil {
		c.filter = filter.New(nil)
	}
	if c.dedup == nil {
		c.dedup = dedup.New(dedup.DefaultConfig())
	}
	if c.extractor == nil {
		c.extractor = extract.New()
	}
	if c.classifier == nil {
		c.classifier = topic.New()
	}
	if c.pool == nil {
		pool, err := newPool(defaultPoolSize(), c.logger)
		if err != nil {
			return nil, err
		}
		c.pool = pool
	}
	return c, nil
}

// Start initializes the store and begins accepting events.
// A store initialization failure leaves the collector idle.
func (c *Collector) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateCollecting {
		return ErrAlreadyStarted
	}
	if err := c.chunks.Initialize(ctx); err != nil {
		c.setLastError(err)
		return fmt.Errorf("%w: %w", ErrStoreInit, err)
	}
	c.state = StateCollecting
	c.logger.Info("collector started")
	return nil
}

// Stop cancels the flush timer, flushes pending chunks synchronously and
// waits for in-flight flushes to finish.
func (c *Collector) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateCollecting {
		c.mu.Unlock()
		return ErrNotStarted
	}
	c.state = StateIdle
	batch := c.takePendingLocked()
	c.mu.Unlock()

	if len(batch) > 0 {
		c.flush(context.WithoutCancel(ctx), batch)
	}
	c.inFlight.Wait()
	c.logger.Info("collector stopped")
	return nil
}

// Release stops the worker pool. The collector must not be used afterwards.
func (c *Collector) Release() {
	if c.pool != nil {
		c.pool.Release()
	}
}

// Collect runs text through the filter, the deduplication caches and
// enrichment, then queues it for embedding and storage. It reports whether
// the text became a chunk.
//
// sourceTag names the producer; a producer-specific tag such as "clipboard"
// overrides the source derived from appName.
func (c *Collector) Collect(ctx context.Context, text, appName, sourceTag string, metadata map[string]string) bool {
	text = strings.TrimSpace(text)
	source := core.ResolveSource(appName, sourceTag)
	minLength := c.minLength
	if source == core.SourceClipboard {
		minLength = c.clipboardMinLength
	}

	if !c.screen(text, minLength) {
		return false
	}

	entities := c.extractor.Extract(ctx, text)
	label := c.classifier.Classify(text, appName)

	c.mu.Lock()
	if !c.acceptLocked(text) {
		c.mu.Unlock()
		return false
	}
	chunk := c.newChunk(text, source, appName, sourceTag, metadata, entities, label)
	c.pending = append(c.pending, chunk)

	var batch []*core.ContextChunk
	switch {
	case len(c.pending) >= c.batchSize:
		batch = c.takePendingLocked()
	case len(c.pending) == 1:
		c.scheduleLocked()
	}
	c.mu.Unlock()

	c.logger.Debug("accepted chunk", "id", chunk.ID, "source", source, "topic", label, "entities", len(entities))
	if batch != nil {
		c.dispatch(batch)
	}
	return true
}

// CollectAggregateCapture stores a whole-screen OCR scan immediately,
// bypassing the batch. The user's own identity is dropped from person
// entities and the remaining people are learned as contacts.
func (c *Collector) CollectAggregateCapture(ctx context.Context, text, appName string) bool {
	text = strings.TrimSpace(text)
	if !c.screen(text, c.aggregateMinLength) {
		return false
	}

	entities := c.extractor.Extract(ctx, text)
	label := c.classifier.Classify(text, appName)

	c.mu.Lock()
	if !c.acceptLocked(text) {
		c.mu.Unlock()
		return false
	}
	c.inFlight.Add(1)
	c.mu.Unlock()
	defer c.inFlight.Done()

	if c.profile != nil {
		entities = c.withoutSelf(entities)
		if err := c.profile.LearnFromEntities(ctx, entities); err != nil {
			c.logger.Warn("error learning contacts", "err", err)
			c.setLastError(err)
		}
	}

	chunk := c.newChunk(text, core.SourceOCR, appName, string(core.SourceOCR), nil, entities, label)

	if c.embedder.IsConfigured() {
		vector, err := c.embedder.EmbedText(ctx, text)
		switch {
		case err != nil:
			c.logger.Error("error generating embedding", "id", chunk.ID, "err", err)
			c.setLastError(err)
		case len(vector) > 0:
			chunk = chunk.WithEmbedding(vector)
		}
	}
	c.insert(context.WithoutCancel(ctx), chunk)
	return true
}

// screen applies the checks that need no enrichment: lifecycle state,
// minimum length, the filter and a read-only duplicate probe.
func (c *Collector) screen(text string, minLength int) bool {
	reason := filter.Accepted
	if utf8.RuneCountInString(text) >= minLength {
		reason = c.filter.Check(text)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateCollecting {
		return false
	}
	if utf8.RuneCountInString(text) < minLength {
		c.counters.TooShort++
		return false
	}
	if reason != filter.Accepted {
		c.counters.Filtered++
		c.logger.Debug("rejected text", "reason", reason)
		return false
	}
	return c.countDuplicateLocked(c.dedup.Check(text))
}

// acceptLocked re-checks and remembers text now that enrichment is done.
// Another producer may have submitted the same text in the meantime.
func (c *Collector) acceptLocked(text string) bool {
	if c.state != StateCollecting {
		return false
	}
	if !c.countDuplicateLocked(c.dedup.Accept(text)) {
		return false
	}
	c.counters.Accepted++
	return true
}

func (c *Collector) countDuplicateLocked(r dedup.Result) bool {
	switch r {
	case dedup.Exact:
		c.counters.Duplicates++
	case dedup.Near:
		c.counters.NearDuplicates++
	default:
		return true
	}
	c.logger.Debug("rejected duplicate", "kind", r)
	return false
}

func (c *Collector) newChunk(text string, source core.ContextSource, appName, sourceTag string,
	metadata map[string]string, entities []core.Entity, label string) *core.ContextChunk {
	meta := maps.Clone(metadata)
	if meta == nil {
		meta = make(map[string]string, 2)
	}
	if appName != "" {
		meta[core.MetaApp] = appName
	}
	if sourceTag != "" {
		meta[core.MetaProducer] = sourceTag
	}
	return &core.ContextChunk{
		ID:        core.NewChunkID(),
		Timestamp: c.now().UTC(),
		Source:    source,
		Content:   text,
		Entities:  entities,
		Topic:     label,
		Metadata:  meta,
	}
}

func (c *Collector) withoutSelf(entities []core.Entity) []core.Entity {
	out := make([]core.Entity, 0, len(entities))
	for _, e := range entities {
		if e.Type == core.EntityPerson && c.profile.IsMe(e.Value) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// scheduleLocked starts the one-shot flush timer for a new pending window.
func (c *Collector) scheduleLocked() {
	c.generation++
	gen := c.generation
	c.timer = time.AfterFunc(c.flushDelay, func() {
		c.onTimer(gen)
	})
}

func (c *Collector) onTimer(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.state != StateCollecting {
		c.mu.Unlock()
		return
	}
	batch := c.takePendingLocked()
	c.mu.Unlock()

	if len(batch) > 0 {
		c.dispatch(batch)
	}
}

// takePendingLocked snapshots and clears the pending list and invalidates
// any outstanding timer. A non-empty snapshot is counted as in flight until
// flush completes.
func (c *Collector) takePendingLocked() []*core.ContextChunk {
	c.generation++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	batch := c.pending
	c.pending = nil
	if len(batch) > 0 {
		c.inFlight.Add(1)
	}
	return batch
}

// dispatch hands a batch to the worker pool.
func (c *Collector) dispatch(batch []*core.ContextChunk) {
	err := c.pool.Submit(func() {
		c.flush(context.Background(), batch)
	})
	if err != nil {
		c.logger.Warn("flush pool unavailable, flushing inline", "err", err)
		c.flush(context.Background(), batch)
	}
}

// flush embeds a batch and persists every chunk, with or without a vector.
func (c *Collector) flush(ctx context.Context, batch []*core.ContextChunk) {
	defer c.inFlight.Done()

	vectors := c.embedBatch(ctx, batch)
	embedded := 0
	for i, chunk := range batch {
		if i < len(vectors) && len(vectors[i]) > 0 {
			chunk = chunk.WithEmbedding(vectors[i])
			embedded++
		}
		c.insert(ctx, chunk)
	}
	c.logger.Info("flushed batch", "chunks", len(batch), "embedded", embedded)
}

// embedBatch returns vectors in batch order. It returns fewer vectors than
// chunks, possibly none, when the embedder is unconfigured or fails.
func (c *Collector) embedBatch(ctx context.Context, batch []*core.ContextChunk) [][]float32 {
	if !c.embedder.IsConfigured() {
		c.logger.Warn("embedder not configured, storing without embeddings", "chunks", len(batch))
		return nil
	}

	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Content
	}

	vectors, err := c.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		c.logger.Error("error generating embeddings", "chunks", len(batch), "err", err)
		c.setLastError(err)
		return nil
	}
	if len(vectors) < len(texts) {
		c.logger.Warn("embedding result short", "expected", len(texts), "received", len(vectors))
	}
	return vectors
}

func (c *Collector) insert(ctx context.Context, chunk *core.ContextChunk) {
	err := c.chunks.InsertChunk(ctx, chunk)

	c.resultMu.Lock()
	defer c.resultMu.Unlock()
	if err != nil {
		c.failures++
		c.lastError = err.Error()
		c.logger.Error("error storing chunk", "id", chunk.ID, "err", err)
		return
	}
	c.persisted++
	if chunk.HasEmbedding() {
		c.embedded++
	}
}

func (c *Collector) setLastError(err error) {
	c.resultMu.Lock()
	c.lastError = err.Error()
	c.resultMu.Unlock()
}
