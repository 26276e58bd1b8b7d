// Package resolve maps parsed reference records onto library entries.
// Resolution is a priority cascade like marker matching: DOI, citation
// key, title similarity, author+year, duplicate detection, and finally
// synthesis of a new entry. Resolve is a pure read; only ResolveAndAdd
// mutates the library.
package resolve

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/refmine/refmine/internal/entry"
	"github.com/refmine/refmine/internal/library"
	"github.com/refmine/refmine/internal/match"
	"github.com/refmine/refmine/internal/refrecord"
)

// Strategy identifies which cascade stage resolved the record.
type Strategy string

const (
	StrategyDOI        Strategy = "doi"
	StrategyCiteKey    Strategy = "cite_key"
	StrategyTitle      Strategy = "title"
	StrategyAuthorYear Strategy = "author_year"
	StrategyDuplicate  Strategy = "duplicate"
	StrategyNew        Strategy = "new"
)

// Confidence and gate constants. The cascade's behavior is calibrated
// around these values; see DESIGN.md before changing any of them.
const (
	doiConfidence         = 1.0
	citeKeyConfidence     = 0.95
	citeKeyFoldConfidence = 0.9025 // case-insensitive fallback
	titleSimGate          = 0.85
	titleHighSim          = 0.95
	titleHighConfidence   = 0.85
	titleMidConfidence    = 0.70
	titleLowWeight        = 0.8
	yearScore             = 0.3
	authorGate            = 0.75
	authorWeight          = 0.4
	titleScoreGate        = 0.5
	titleWeight           = 0.3
	authorYearGate        = 0.6
	authorYearDiscount    = 0.75
	duplicateConfidence   = 0.80
	newEntryConfidence    = 1.0
)

// Resolved is the outcome of resolving one record: an existing library
// entry, or a synthesized one that has not been persisted.
type Resolved struct {
	Entry      *entry.Entry
	IsNew      bool
	Confidence float64
	Strategy   Strategy
}

// Resolver resolves reference records against a library collection.
type Resolver struct {
	lib library.Collection
	log *zap.Logger
}

// New creates a Resolver. A nil logger disables diagnostics.
func New(lib library.Collection, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{lib: lib, log: log}
}

type stage func(rec refrecord.Record) (Resolved, bool, error)

// Resolve finds the library entry a record denotes, or synthesizes a new
// one. It never mutates the library.
func (r *Resolver) Resolve(rec refrecord.Record) (Resolved, error) {
	stages := []stage{
		r.resolveDOI,
		r.resolveCiteKey,
		r.resolveTitle,
		r.resolveAuthorYear,
		r.resolveDuplicate,
	}
	for _, s := range stages {
		resolved, ok, err := s(rec)
		if err != nil {
			return Resolved{}, err
		}
		if ok {
			r.log.Debug("resolved reference",
				zap.String("marker", rec.Marker),
				zap.String("strategy", string(resolved.Strategy)),
				zap.Float64("confidence", resolved.Confidence))
			return resolved, nil
		}
	}

	return Resolved{
		Entry:      entry.FromRecord(rec),
		IsNew:      true,
		Confidence: newEntryConfidence,
		Strategy:   StrategyNew,
	}, nil
}

// ResolveAndAdd resolves the record and inserts the entry into the library
// when it is new.
func (r *Resolver) ResolveAndAdd(rec refrecord.Record) (Resolved, error) {
	resolved, err := r.Resolve(rec)
	if err != nil {
		return Resolved{}, err
	}
	if resolved.IsNew {
		added, err := r.AddEntryIfNotExists(resolved.Entry)
		if err != nil {
			return Resolved{}, err
		}
		if !added {
			// Someone beat us to it; surface the stored entry.
			if existing, err := r.lib.ByCiteKey(resolved.Entry.CiteKey); err == nil && existing != nil {
				resolved.Entry = existing
				resolved.IsNew = false
			}
		}
	}
	return resolved, nil
}

// AddEntryIfNotExists inserts the entry unless its citation key, DOI, or
// duplicate fingerprint already exists. Reports whether insertion
// happened.
func (r *Resolver) AddEntryIfNotExists(e *entry.Entry) (bool, error) {
	if e == nil || e.CiteKey == "" {
		return false, fmt.Errorf("entry must have a citation key")
	}

	if existing, err := r.lib.ByCiteKey(e.CiteKey); err != nil {
		return false, fmt.Errorf("checking citation key: %w", err)
	} else if existing != nil {
		return false, nil
	}

	if e.DOI != "" {
		if existing, err := r.lib.ByDOI(e.DOI); err != nil {
			return false, fmt.Errorf("checking DOI: %w", err)
		} else if existing != nil {
			return false, nil
		}
	}

	if existing, err := r.lib.FindDuplicate(e); err != nil {
		return false, fmt.Errorf("checking duplicates: %w", err)
	} else if existing != nil {
		return false, nil
	}

	if err := r.lib.Insert(e); err != nil {
		return false, fmt.Errorf("inserting entry: %w", err)
	}
	return true, nil
}

// resolveDOI matches by normalized DOI equality or substring containment.
func (r *Resolver) resolveDOI(rec refrecord.Record) (Resolved, bool, error) {
	doi, ok := rec.DOI.Get()
	if !ok {
		return Resolved{}, false, nil
	}
	want := library.NormalizeDOI(doi)
	if want == "" {
		return Resolved{}, false, nil
	}

	entries, err := r.lib.All()
	if err != nil {
		return Resolved{}, false, fmt.Errorf("listing entries: %w", err)
	}
	for _, e := range entries {
		have := library.NormalizeDOI(e.DOI)
		if have == "" {
			continue
		}
		if have == want || strings.Contains(have, want) || strings.Contains(want, have) {
			return Resolved{Entry: e, Confidence: doiConfidence, Strategy: StrategyDOI}, true, nil
		}
	}
	return Resolved{}, false, nil
}

// resolveCiteKey tries the record's self-generated citation key and its
// normalized marker as literal keys, exact then case-insensitive. Numeric
// markers are positional, not identifying, and are skipped.
func (r *Resolver) resolveCiteKey(rec refrecord.Record) (Resolved, bool, error) {
	var keys []string
	if generated := entry.CiteKey(rec.Authors.OrEmpty(), rec.Year.OrEmpty(), rec.Title.OrEmpty()); generated != "" {
		keys = append(keys, generated)
	}
	if marker := match.NormalizeMarker(rec.Marker); marker != "" && !isNumeric(marker) {
		keys = append(keys, marker)
	}

	for _, key := range keys {
		found, err := r.lib.ByCiteKey(key)
		if err != nil {
			return Resolved{}, false, fmt.Errorf("looking up key %q: %w", key, err)
		}
		if found != nil {
			return Resolved{Entry: found, Confidence: citeKeyConfidence, Strategy: StrategyCiteKey}, true, nil
		}
	}

	// Case-insensitive fallback.
	if len(keys) > 0 {
		entries, err := r.lib.All()
		if err != nil {
			return Resolved{}, false, fmt.Errorf("listing entries: %w", err)
		}
		for _, e := range entries {
			for _, key := range keys {
				if strings.EqualFold(e.CiteKey, key) {
					return Resolved{Entry: e, Confidence: citeKeyFoldConfidence, Strategy: StrategyCiteKey}, true, nil
				}
			}
		}
	}
	return Resolved{}, false, nil
}

// resolveTitle accepts the most similar library title above the gate.
func (r *Resolver) resolveTitle(rec refrecord.Record) (Resolved, bool, error) {
	title, ok := rec.Title.Get()
	if !ok {
		return Resolved{}, false, nil
	}

	entries, err := r.lib.All()
	if err != nil {
		return Resolved{}, false, fmt.Errorf("listing entries: %w", err)
	}

	var best *entry.Entry
	bestSim := 0.0
	for _, e := range entries {
		if e.Title == "" {
			continue
		}
		sim := match.Similarity(strings.ToLower(title), strings.ToLower(e.Title))
		if sim > bestSim {
			best, bestSim = e, sim
		}
	}

	if best == nil || bestSim < titleSimGate {
		return Resolved{}, false, nil
	}

	confidence := bestSim * titleLowWeight
	switch {
	case bestSim >= titleHighSim:
		confidence = titleHighConfidence
	case bestSim >= titleSimGate:
		confidence = titleMidConfidence
	}
	return Resolved{Entry: best, Confidence: confidence, Strategy: StrategyTitle}, true, nil
}

// resolveAuthorYear scores entries on year, author similarity, and title
// similarity; an entry only counts when at least two of the three
// sub-scores fired.
func (r *Resolver) resolveAuthorYear(rec refrecord.Record) (Resolved, bool, error) {
	authors, okAuthors := rec.Authors.Get()
	year, okYear := rec.Year.Get()
	if !okAuthors || !okYear {
		return Resolved{}, false, nil
	}
	recAuthor := strings.ToLower(refrecord.FirstAuthorLastName(authors))

	entries, err := r.lib.All()
	if err != nil {
		return Resolved{}, false, fmt.Errorf("listing entries: %w", err)
	}

	var best *entry.Entry
	bestScore := 0.0
	for _, e := range entries {
		score, fired := 0.0, 0

		if e.Year != "" && e.Year == year {
			score += yearScore
			fired++
		}

		if e.Authors != "" && recAuthor != "" {
			sim := match.Similarity(recAuthor, strings.ToLower(e.FirstAuthorLastName()))
			if sim >= authorGate {
				score += authorWeight * sim
				fired++
			}
		}

		if title, ok := rec.Title.Get(); ok && e.Title != "" {
			sim := match.Similarity(strings.ToLower(title), strings.ToLower(e.Title))
			if sim >= titleScoreGate {
				score += titleWeight * sim
				fired++
			}
		}

		if fired < 2 {
			continue
		}
		if score > bestScore {
			best, bestScore = e, score
		}
	}

	if best == nil || bestScore < authorYearGate {
		return Resolved{}, false, nil
	}
	return Resolved{
		Entry:      best,
		Confidence: bestScore * authorYearDiscount,
		Strategy:   StrategyAuthorYear,
	}, true, nil
}

// resolveDuplicate consults the library's duplicate checker, but only for
// records with minimal metadata; anything richer was already covered by
// the earlier stages.
func (r *Resolver) resolveDuplicate(rec refrecord.Record) (Resolved, bool, error) {
	if !hasMinimalMetadata(rec) {
		return Resolved{}, false, nil
	}

	found, err := r.lib.FindDuplicate(entry.FromRecord(rec))
	if err != nil {
		return Resolved{}, false, fmt.Errorf("checking duplicates: %w", err)
	}
	if found == nil {
		return Resolved{}, false, nil
	}
	return Resolved{Entry: found, Confidence: duplicateConfidence, Strategy: StrategyDuplicate}, true, nil
}

// hasMinimalMetadata reports whether the record carries nothing the
// earlier stages could have used: no DOI, no title, and no complete
// author+year pair.
func hasMinimalMetadata(rec refrecord.Record) bool {
	if rec.DOI.Present() || rec.Title.Present() {
		return false
	}
	return !(rec.Authors.Present() && rec.Year.Present())
}

func isNumeric(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}
