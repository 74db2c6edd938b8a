// Package retrieval implements the semantic retrieval pipeline for the
// advising corpus: deduplicated incremental ingestion of heterogeneous
// source records into the vector store, and query-time expansion,
// filtering, and score normalization.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	retry "github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/wattlelabs/advisord/internal/sources"
	"github.com/wattlelabs/advisord/internal/vectorstore"
)

var tracer = otel.Tracer("advisord.retrieval")

// Metadata values for the three sources and four document types.
const (
	SourceUnitGuide      = "unit_guide"
	SourceSkillsMapping  = "skills_mapping"
	SourcePublicResource = "public_resource"

	TypeDescription     = "description"
	TypeLearningOutcome = "learning_outcome"
	TypeSkill           = "skill"
	TypeMaterial        = "material"
)

// UnitSource supplies unit records for ingestion.
type UnitSource interface {
	All(ctx context.Context) ([]sources.Unit, error)
}

// Config holds configuration for the retrieval service.
type Config struct {
	// SkillsFile is the path to the skills/roles JSON file.
	SkillsFile string

	// MaterialsFile is the path to the learning materials JSON file.
	MaterialsFile string

	// MaxParallel bounds the worker pool for blocking store calls.
	// Default: 4
	MaxParallel int

	// DefaultK is the result count when the caller passes k <= 0.
	// Default: 5
	DefaultK int

	// MaxRetries bounds retry attempts for a failed batch upsert.
	// Default: 3
	MaxRetries uint64
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.MaxParallel <= 0 {
		c.MaxParallel = 4
	}
	if c.DefaultK <= 0 {
		c.DefaultK = 5
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

// Result is a single query hit returned to callers.
type Result struct {
	// Content is the indexed document text.
	Content string `json:"content"`

	// Metadata is the document metadata (source, type, unit_code, ...).
	Metadata map[string]string `json:"metadata"`

	// Distance is the raw metric from the index, rounded to 4 decimals.
	// Smaller is closer.
	Distance float64 `json:"distance"`

	// SimilarityPercent is the bounded [0, 100] relevance score.
	SimilarityPercent float64 `json:"similarity_percent"`
}

// Service is the retrieval pipeline over the shared vector store.
//
// Ingestion and queries may run concurrently; the store owns write
// discipline, and the seen-ID set is mutex-guarded here. The set is a
// process-local optimization to skip redundant submissions within a run;
// it is not persisted, and a fresh process leans on the store's
// idempotent upsert instead.
type Service struct {
	store  vectorstore.Store
	units  UnitSource
	config Config
	logger *zap.Logger

	// sem bounds in-flight blocking store calls.
	sem *semaphore.Weighted

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewService creates a retrieval service over the given store.
// units may be nil when the deployment only ingests file-backed sources.
func NewService(store vectorstore.Store, units UnitSource, cfg Config, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg.ApplyDefaults()

	return &Service{
		store:  store,
		units:  units,
		config: cfg,
		logger: logger,
		sem:    semaphore.NewWeighted(int64(cfg.MaxParallel)),
		seen:   make(map[string]struct{}),
	}, nil
}

// IngestUnits ingests unit descriptions and learning outcomes from the
// unit catalog. Safe to call repeatedly; unchanged records are no-ops.
func (s *Service) IngestUnits(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "retrieval.IngestUnits")
	defer span.End()

	if s.units == nil {
		s.logger.Warn("no unit catalog configured, skipping unit ingestion")
		return nil
	}

	unitList, err := s.units.All(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("loading units: %w", err)
	}

	var batch []vectorstore.Document
	for _, u := range unitList {
		if u.UnitCode == "" {
			s.logger.Warn("skipping malformed unit record", zap.String("title", u.Title))
			RecordsSkipped.WithLabelValues(SourceUnitGuide, "malformed").Inc()
			continue
		}

		descText := unitDescriptionText(u)
		s.admit(&batch, vectorstore.Document{
			ID:      DocumentID(u.UnitCode, TypeDescription, descText),
			Content: descText,
			Metadata: map[string]string{
				"source":    SourceUnitGuide,
				"type":      TypeDescription,
				"unit_code": u.UnitCode,
			},
		})

		for i, outcome := range u.LearningOutcomes {
			loText := fmt.Sprintf("Unit Code: %s\nLearning Outcome %d: %s", u.UnitCode, i+1, outcome)
			s.admit(&batch, vectorstore.Document{
				ID:      DocumentID(u.UnitCode, TypeLearningOutcome, loText),
				Content: loText,
				Metadata: map[string]string{
					"source":        SourceUnitGuide,
					"type":          TypeLearningOutcome,
					"unit_code":     u.UnitCode,
					"outcome_index": strconv.Itoa(i),
				},
			})
		}
	}

	span.SetAttributes(attribute.Int("batch_size", len(batch)))
	return s.flush(ctx, SourceUnitGuide, batch)
}

// IngestSkills ingests skill-to-roles mappings from the skills JSON file.
// A missing or unreadable file degrades to a logged no-op.
func (s *Service) IngestSkills(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "retrieval.IngestSkills")
	defer span.End()

	skills, err := sources.LoadSkills(s.config.SkillsFile)
	if err != nil {
		s.logSourceUnavailable("skills", s.config.SkillsFile, err)
		return nil
	}

	var batch []vectorstore.Document
	for _, skill := range skills {
		if skill.Name == "" || skill.Description == "" {
			s.logger.Warn("skipping malformed skill record", zap.String("skill", skill.Name))
			RecordsSkipped.WithLabelValues(SourceSkillsMapping, "malformed").Inc()
			continue
		}

		text := fmt.Sprintf("Skill: %s\nRoles: %s\nDescription: %s\nCertifications: %s",
			skill.Name,
			strings.Join(skill.Roles, ", "),
			skill.Description,
			strings.Join(skill.Certifications, ", "),
		)
		s.admit(&batch, vectorstore.Document{
			// Skills are global entries with no unit code, so identity
			// comes from type and content alone.
			ID:      DocumentID("", TypeSkill, text),
			Content: text,
			Metadata: map[string]string{
				"source":     SourceSkillsMapping,
				"type":       TypeSkill,
				"skill_name": skill.Name,
			},
		})
	}

	span.SetAttributes(attribute.Int("batch_size", len(batch)))
	return s.flush(ctx, SourceSkillsMapping, batch)
}

// IngestMaterials ingests public learning resources from the materials
// JSON file. A missing or unreadable file degrades to a logged no-op.
func (s *Service) IngestMaterials(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "retrieval.IngestMaterials")
	defer span.End()

	materials, err := sources.LoadMaterials(s.config.MaterialsFile)
	if err != nil {
		s.logSourceUnavailable("materials", s.config.MaterialsFile, err)
		return nil
	}

	var batch []vectorstore.Document
	for _, m := range materials {
		if m.Title == "" || m.URL == "" {
			s.logger.Warn("skipping malformed material record", zap.String("title", m.Title))
			RecordsSkipped.WithLabelValues(SourcePublicResource, "malformed").Inc()
			continue
		}

		text := fmt.Sprintf("Title: %s\nType: %s\nDescription: %s\nURL: %s\nTags: %s",
			m.Title, m.Type, m.Description, m.URL, strings.Join(m.Tags, ", "))
		s.admit(&batch, vectorstore.Document{
			ID:      DocumentID("", TypeMaterial, text),
			Content: text,
			Metadata: map[string]string{
				"source": SourcePublicResource,
				"type":   TypeMaterial,
				"title":  m.Title,
			},
		})
	}

	span.SetAttributes(attribute.Int("batch_size", len(batch)))
	return s.flush(ctx, SourcePublicResource, batch)
}

// Query answers a free-text query with up to k relevant documents,
// optionally constrained by the filter. Results preserve the store's
// ascending-distance order; duplicates by content are suppressed.
func (s *Service) Query(ctx context.Context, text string, k int, filter Filter) ([]Result, error) {
	ctx, span := tracer.Start(ctx, "retrieval.Query")
	defer span.End()

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("query text cannot be empty")
	}
	if k <= 0 {
		k = s.config.DefaultK
	}

	timer := prometheus.NewTimer(QueryDuration)
	defer timer.ObserveDuration()

	expanded := ExpandQuery(text)
	span.SetAttributes(
		attribute.Int("k", k),
		attribute.Bool("expanded", expanded != text),
	)

	// Over-fetch to absorb dedup losses.
	var hits []vectorstore.SearchResult
	err := s.offload(ctx, func() error {
		var searchErr error
		hits, searchErr = s.store.Search(ctx, expanded, 2*k, filter.metadata())
		return searchErr
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("searching corpus: %w", err)
	}

	// Walk ascending-distance order, keeping the first occurrence of
	// each content hash. The same fact can be indexed under two
	// metadata shapes; callers want it once.
	seenContent := make(map[string]struct{}, len(hits))
	results := make([]Result, 0, k)
	for _, hit := range hits {
		hash := contentHash(hit.Content)
		if _, dup := seenContent[hash]; dup {
			QueryDuplicatesDropped.Inc()
			continue
		}
		seenContent[hash] = struct{}{}

		distance := float64(hit.Distance)
		results = append(results, Result{
			Content:           hit.Content,
			Metadata:          hit.Metadata,
			Distance:          roundDistance(distance),
			SimilarityPercent: SimilarityPercent(distance),
		})
		if len(results) >= k {
			break
		}
	}

	span.SetAttributes(attribute.Int("results_count", len(results)))
	span.SetStatus(codes.Ok, "success")

	s.logger.Debug("query answered",
		zap.String("query", text),
		zap.Int("k", k),
		zap.Int("candidates", len(hits)),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// unitDescriptionText renders the normalized description document for a unit.
func unitDescriptionText(u sources.Unit) string {
	prereqText := strings.Join(u.Prerequisites, ", ")
	if prereqText == "" {
		prereqText = u.RawPrerequisites
	}
	if prereqText == "" {
		prereqText = "None"
	}

	creditText := "N/A"
	if u.CreditPoints > 0 {
		creditText = strconv.Itoa(u.CreditPoints)
	}

	return fmt.Sprintf("Unit Code: %s\nTitle: %s\nDescription: %s\nPrerequisites: %s\nCredit Points: %s",
		u.UnitCode, u.Title, u.Description, prereqText, creditText)
}

// admit appends the document to the batch unless its ID was already
// submitted in this process lifetime. The seen set only skips redundant
// write calls within a run; the store's idempotent upsert is the durable
// guarantee.
func (s *Service) admit(batch *[]vectorstore.Document, doc vectorstore.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[doc.ID]; ok {
		return
	}
	s.seen[doc.ID] = struct{}{}
	*batch = append(*batch, doc)
}

// forget removes batch IDs from the seen set so a later ingestion call
// resubmits them. Called when a batch upsert fails for good.
func (s *Service) forget(batch []vectorstore.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range batch {
		delete(s.seen, doc.ID)
	}
}

// flush submits the batch in a single upsert, retrying transient
// embedding/store failures with Fibonacci backoff. Re-submission is safe
// because document identity is content-derived.
func (s *Service) flush(ctx context.Context, source string, batch []vectorstore.Document) error {
	if len(batch) == 0 {
		s.logger.Debug("no new documents to ingest", zap.String("source", source))
		return nil
	}

	backoff := retry.NewFibonacci(500 * time.Millisecond)
	err := retry.Do(ctx, retry.WithMaxRetries(s.config.MaxRetries, backoff), func(ctx context.Context) error {
		addErr := s.offload(ctx, func() error {
			_, err := s.store.AddDocuments(ctx, batch)
			return err
		})
		if addErr == nil {
			return nil
		}
		if errors.Is(addErr, vectorstore.ErrEmbeddingFailed) || errors.Is(addErr, vectorstore.ErrStoreUnavailable) {
			return retry.RetryableError(addErr)
		}
		return addErr
	})
	if err != nil {
		s.forget(batch)
		IngestBatches.WithLabelValues(source, "error").Inc()
		return fmt.Errorf("indexing %s batch: %w", source, err)
	}

	IngestBatches.WithLabelValues(source, "success").Inc()
	DocumentsIngested.WithLabelValues(source).Add(float64(len(batch)))

	s.logger.Info("ingested documents",
		zap.String("source", source),
		zap.Int("count", len(batch)),
	)

	return nil
}

// offload dispatches a blocking store call to the bounded worker pool
// and awaits its completion. Embedding and index operations are CPU/IO
// bound; this keeps callers' goroutines from tying up in them beyond
// the configured parallelism.
func (s *Service) offload(ctx context.Context, fn func() error) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		defer s.sem.Release(1)
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// logSourceUnavailable records a degraded-but-continuing source failure.
func (s *Service) logSourceUnavailable(source, path string, err error) {
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("source file missing, skipping ingestion",
			zap.String("source", source),
			zap.String("path", path),
		)
		return
	}
	s.logger.Warn("source file unreadable, skipping ingestion",
		zap.String("source", source),
		zap.String("path", path),
		zap.Error(err),
	)
}
