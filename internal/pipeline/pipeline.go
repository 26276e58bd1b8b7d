// Package pipeline wires the extraction stages together: split a document,
// parse its references, locate citation contexts, match them to records,
// and resolve the records against the library.
package pipeline

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/refmine/refmine/internal/annotate"
	"github.com/refmine/refmine/internal/entry"
	"github.com/refmine/refmine/internal/library"
	"github.com/refmine/refmine/internal/marker"
	"github.com/refmine/refmine/internal/match"
	"github.com/refmine/refmine/internal/refparse"
	"github.com/refmine/refmine/internal/refrecord"
	"github.com/refmine/refmine/internal/resolve"
	"github.com/refmine/refmine/internal/section"
)

// MatchedContext pairs one citation context with the library entry it
// resolved to. Entry is nil when no record matched the marker.
type MatchedContext struct {
	Context    marker.Context `json:"context"`
	Entry      *entry.Entry   `json:"entry,omitempty"`
	IsNew      bool           `json:"is_new"`
	Confidence float64        `json:"confidence"`
	Strategy   string         `json:"strategy,omitempty"`
}

// Matched reports whether the context found a library entry.
func (mc MatchedContext) Matched() bool {
	return mc.Entry != nil
}

// ApplyResult summarizes what Apply persisted.
type ApplyResult struct {
	Contexts   int `json:"contexts"`
	Matched    int `json:"matched"`
	NewEntries int `json:"new_entries"`
	Annotated  int `json:"annotated"`
}

// Service runs the citation-context pipeline against one library.
type Service struct {
	lib       library.Collection
	parser    *refparse.Parser
	extractor *marker.Extractor
	matcher   *match.Matcher
	resolver  *resolve.Resolver
	annotator *annotate.Annotator
	log       *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithContextWindow sets how many sentences before and after the citing
// sentence go into each context window. Negative values keep the default.
func WithContextWindow(before, after int) Option {
	return func(s *Service) {
		if before >= 0 {
			s.extractor.Before = before
		}
		if after >= 0 {
			s.extractor.After = after
		}
	}
}

// NewService creates a Service annotating on behalf of owner. A nil
// logger disables diagnostics.
func NewService(lib library.Collection, owner string, log *zap.Logger, opts ...Option) (*Service, error) {
	if lib == nil {
		return nil, fmt.Errorf("library collection is required")
	}
	annotator, err := annotate.New(owner)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		lib:       lib,
		parser:    refparse.New(log),
		extractor: marker.NewExtractor(log),
		matcher:   match.NewMatcher(),
		resolver:  resolve.New(lib, log),
		annotator: annotator,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ParseReferences locates the document's references section and parses it
// into records. Fails when the document has no references section or the
// section yields no records.
func (s *Service) ParseReferences(doc section.Document) ([]refrecord.Record, error) {
	refs, ok := doc.ReferencesSection()
	if !ok {
		return nil, fmt.Errorf("document has no references section")
	}
	records := s.parser.Parse(refs.Text)
	if len(records) == 0 {
		return nil, fmt.Errorf("references section yielded no parseable records")
	}
	return records, nil
}

// ExtractContexts scans the document's citing sections for citation
// markers with their surrounding sentence context.
func (s *Service) ExtractContexts(doc section.Document, sourceKey string) ([]marker.Context, error) {
	if strings.TrimSpace(sourceKey) == "" {
		return nil, fmt.Errorf("source key is required")
	}
	var contexts []marker.Context
	for _, sec := range doc.CitingSections() {
		found, err := s.extractor.ExtractContexts(sec.Text, sourceKey)
		if err != nil {
			return nil, fmt.Errorf("extracting from %s section: %w", sec.Name, err)
		}
		contexts = append(contexts, found...)
	}
	return contexts, nil
}

// Preview runs the full pipeline without touching the library: every
// citation context is matched and resolved, and new entries are
// synthesized but not persisted.
func (s *Service) Preview(doc section.Document, sourceKey string) ([]MatchedContext, error) {
	records, err := s.ParseReferences(doc)
	if err != nil {
		return nil, err
	}
	contexts, err := s.ExtractContexts(doc, sourceKey)
	if err != nil {
		return nil, err
	}

	var matched []MatchedContext
	for _, ctx := range contexts {
		results := s.matcher.MatchMultiple(ctx.Marker, records)
		if len(results) == 0 {
			matched = append(matched, MatchedContext{Context: ctx})
			continue
		}
		for _, result := range results {
			resolved, err := s.resolver.Resolve(result.Record)
			if err != nil {
				return nil, fmt.Errorf("resolving %q: %w", ctx.Marker, err)
			}
			matched = append(matched, MatchedContext{
				Context:    ctx,
				Entry:      resolved.Entry,
				IsNew:      resolved.IsNew,
				Confidence: result.Confidence * resolved.Confidence,
				Strategy:   string(result.Strategy) + "+" + string(resolved.Strategy),
			})
		}
	}

	s.log.Info("preview complete",
		zap.String("source", sourceKey),
		zap.Int("records", len(records)),
		zap.Int("contexts", len(contexts)),
		zap.Int("matched", countMatched(matched)))
	return matched, nil
}

// Apply runs Preview and persists the outcome: new entries are inserted
// and every matched context is written onto its entry's comment field.
func (s *Service) Apply(doc section.Document, sourceKey string) (ApplyResult, []MatchedContext, error) {
	matched, err := s.Preview(doc, sourceKey)
	if err != nil {
		return ApplyResult{}, nil, err
	}
	result, err := s.ApplyContexts(matched)
	return result, matched, err
}

// ApplyContexts persists an already-computed preview, typically after the
// caller has filtered it. Unmatched contexts are counted and skipped.
func (s *Service) ApplyContexts(matched []MatchedContext) (ApplyResult, error) {
	result := ApplyResult{Contexts: len(matched)}
	for i := range matched {
		mc := &matched[i]
		if !mc.Matched() {
			continue
		}
		result.Matched++

		if mc.IsNew {
			added, err := s.resolver.AddEntryIfNotExists(mc.Entry)
			if err != nil {
				return result, fmt.Errorf("adding entry %s: %w", mc.Entry.CiteKey, err)
			}
			if added {
				result.NewEntries++
			} else if existing, err := s.lib.ByCiteKey(mc.Entry.CiteKey); err == nil && existing != nil {
				mc.Entry = existing
				mc.IsNew = false
			}
		}

		added, err := s.annotator.Add(mc.Entry, mc.Context.SourceKey, mc.Context.ContextText)
		if err != nil {
			return result, fmt.Errorf("annotating %s: %w", mc.Entry.CiteKey, err)
		}
		if added {
			if err := s.lib.Update(mc.Entry); err != nil {
				return result, fmt.Errorf("saving %s: %w", mc.Entry.CiteKey, err)
			}
			result.Annotated++
		}
	}

	s.log.Info("apply complete",
		zap.Int("contexts", result.Contexts),
		zap.Int("new_entries", result.NewEntries),
		zap.Int("annotated", result.Annotated))
	return result, nil
}

// RemoveSource strips a source's annotation blocks from every library
// entry, returning the number of blocks removed.
func (s *Service) RemoveSource(sourceKey string) (int, error) {
	if strings.TrimSpace(sourceKey) == "" {
		return 0, fmt.Errorf("source key is required")
	}
	entries, err := s.lib.All()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		n := s.annotator.RemoveSource(e, sourceKey)
		if n == 0 {
			continue
		}
		if err := s.lib.Update(e); err != nil {
			return removed, fmt.Errorf("saving %s: %w", e.CiteKey, err)
		}
		removed += n
	}
	return removed, nil
}

func countMatched(matched []MatchedContext) int {
	n := 0
	for _, mc := range matched {
		if mc.Matched() {
			n++
		}
	}
	return n
}
