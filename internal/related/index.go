// Package related finds skills similar to a given one.
//
// The catalog is embedded into an in-memory chromem-go collection with a
// local hashing embedder, so no model or network access is needed.
package related

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/learnhooks/internal/hooks"
	"github.com/fyrsmithlabs/learnhooks/internal/logging"
)

const (
	collectionName = "skills"
	metaAgent      = "agent"
)

var tracer = otel.Tracer("github.com/fyrsmithlabs/learnhooks/internal/related")

// ErrUnknownSkill is returned when the queried skill is not indexed.
var ErrUnknownSkill = errors.New("skill not indexed")

// Index answers related-skill queries over a fixed set of skills.
type Index struct {
	collection *chromem.Collection
	skills     map[string]hooks.Skill
	logger     *logging.Logger
}

// NewIndex embeds skills into a fresh in-memory collection.
func NewIndex(ctx context.Context, skills []hooks.Skill, logger *logging.Logger) (*Index, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	db := chromem.NewDB()
	collection, err := db.GetOrCreateCollection(collectionName, nil, HashEmbedding())
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	idx := &Index{
		collection: collection,
		skills:     make(map[string]hooks.Skill, len(skills)),
		logger:     logger,
	}

	docs := make([]chromem.Document, 0, len(skills))
	for _, s := range skills {
		if _, dup := idx.skills[s.ID]; dup || s.ID == "" {
			continue
		}
		idx.skills[s.ID] = s
		docs = append(docs, chromem.Document{
			ID:       s.ID,
			Content:  document(s),
			Metadata: map[string]string{metaAgent: s.Agent},
		})
	}
	if len(docs) > 0 {
		if err := collection.AddDocuments(ctx, docs, 1); err != nil {
			return nil, fmt.Errorf("adding skills: %w", err)
		}
	}

	logger.Debug(ctx, "related index built", zap.Int("skills", len(docs)))
	return idx, nil
}

// document is the text embedded for a skill.
func document(s hooks.Skill) string {
	parts := []string{
		s.Name,
		s.Description,
		strings.ReplaceAll(s.ID, "-", " "),
		"agent:" + s.Agent,
		"agent:" + s.Agent,
	}
	return strings.Join(parts, " ")
}

// Len returns the number of indexed skills.
func (i *Index) Len() int {
	return len(i.skills)
}

// Related returns up to k skills nearest to id, excluding id itself.
// On equal similarity skills sharing id's agent come first.
func (i *Index) Related(ctx context.Context, id string, k int) ([]hooks.Skill, error) {
	ctx, span := tracer.Start(ctx, "related.Index.Related")
	defer span.End()
	span.SetAttributes(attribute.String("skill.id", id), attribute.Int("k", k))

	skill, ok := i.skills[id]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownSkill, id)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if k <= 0 || len(i.skills) < 2 {
		return []hooks.Skill{}, nil
	}

	n := k + 1
	if count := i.collection.Count(); n > count {
		n = count
	}
	results, err := i.collection.Query(ctx, document(skill), n, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying related skills: %w", err)
	}

	sort.SliceStable(results, func(a, b int) bool {
		ra, rb := results[a], results[b]
		if ra.Similarity != rb.Similarity {
			return ra.Similarity > rb.Similarity
		}
		sa, sb := ra.Metadata[metaAgent] == skill.Agent, rb.Metadata[metaAgent] == skill.Agent
		if sa != sb {
			return sa
		}
		return ra.ID < rb.ID
	})

	out := make([]hooks.Skill, 0, k)
	for _, r := range results {
		if r.ID == id {
			continue
		}
		out = append(out, i.skills[r.ID])
		if len(out) == k {
			break
		}
	}

	span.SetAttributes(attribute.Int("results_count", len(out)))
	i.logger.Trace(ctx, "related skills", zap.String("skill", id), zap.Int("results", len(out)))
	return out, nil
}
