package ingestion

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"finance-ledger-backend/internal/models"
	"finance-ledger-backend/internal/services/classify"
)

// DefaultChunkSize bounds how many rows go into a single store write.
const DefaultChunkSize = 1000

// TransactionStore is the slice of the record store the pipeline needs.
type TransactionStore interface {
	// ExistingKeys reports which of the given duplicate keys are already
	// persisted for the user.
	ExistingKeys(ctx context.Context, userID string, keys []string) (map[string]bool, error)
	// CreateMany inserts rows, skipping duplicate-key conflicts, and
	// returns how many were actually written.
	CreateMany(ctx context.Context, txs []models.Transaction) (int64, error)
}

// RuleSource yields the user's active rules ordered by ascending ID.
type RuleSource interface {
	ListActive(ctx context.Context, userID string) ([]models.Rule, error)
}

// CategorySource resolves free-text category labels to category rows.
type CategorySource interface {
	GetOrCreate(ctx context.Context, name string) (models.Category, error)
}

// Result summarizes one ingestion call. SkippedDuplicates covers
// intra-batch collisions, already-persisted keys, and store-level
// conflicts from concurrent imports alike.
type Result struct {
	Total             int `json:"total"`
	Prepared          int `json:"prepared"`
	Inserted          int `json:"inserted"`
	SkippedDuplicates int `json:"skipped_duplicates"`
	FlaggedCount      int `json:"flagged_count"`
}

// Pipeline turns raw rows into deduplicated, classified transactions.
type Pipeline struct {
	store      TransactionStore
	rules      RuleSource
	categories CategorySource
	log        zerolog.Logger
	chunkSize  int
}

func NewPipeline(store TransactionStore, rules RuleSource, categories CategorySource, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		store:      store,
		rules:      rules,
		categories: categories,
		log:        log,
		chunkSize:  DefaultChunkSize,
	}
}

// Ingest validates, classifies, deduplicates, and persists a batch of
// raw rows for one user. Invalid rows are dropped, never fatal. On a
// chunk write failure the returned counters reflect what was durably
// applied; re-running the same batch is safe because persisted rows are
// recognized as duplicates.
func (p *Pipeline) Ingest(ctx context.Context, userID string, rows []RawRow, defaultCategoryID *uint) (Result, error) {
	res := Result{Total: len(rows)}

	// Rules are captured once and held fixed for the whole run.
	rules, err := p.rules.ListActive(ctx, userID)
	if err != nil {
		return res, fmt.Errorf("load rules: %w", err)
	}

	labelCache := map[string]*uint{}
	seen := map[string]bool{}
	var pending []models.Transaction
	var flagged []bool

	for _, row := range rows {
		cand, ok := ValidateRow(row)
		if !ok {
			continue
		}
		res.Prepared++

		categoryID, err := p.resolveCategory(ctx, cand, rules, defaultCategoryID, labelCache)
		if err != nil {
			return res, err
		}

		key := BuildDuplicateKey(cand.Description, cand.Date, cand.Amount)
		if seen[key] {
			res.SkippedDuplicates++
			continue
		}
		seen[key] = true

		reasons := classify.FlagReasons(cand.Description, cand.Amount)
		tx := models.Transaction{
			UserID:       userID,
			Date:         cand.Date,
			Description:  cand.Description,
			Amount:       cand.Amount,
			CategoryID:   categoryID,
			DuplicateKey: key,
			IsFlagged:    len(reasons) > 0,
		}
		if len(reasons) > 0 {
			raw, err := json.Marshal(reasons)
			if err != nil {
				return res, fmt.Errorf("encode flag reasons: %w", err)
			}
			tx.FlagReasons = raw
		}
		pending = append(pending, tx)
		flagged = append(flagged, tx.IsFlagged)
	}

	before := len(pending)
	pending, flagged, err = p.dropPersisted(ctx, userID, pending, flagged)
	if err != nil {
		return res, err
	}
	res.SkippedDuplicates += before - len(pending)

	for start := 0; start < len(pending); start += p.chunkSize {
		end := start + p.chunkSize
		if end > len(pending) {
			end = len(pending)
		}
		chunk := pending[start:end]
		n, err := p.store.CreateMany(ctx, chunk)
		if err != nil {
			p.log.Error().Err(err).Int("chunk_start", start).Msg("chunk insert failed, aborting remaining chunks")
			return res, fmt.Errorf("insert chunk: %w", err)
		}
		res.Inserted += int(n)
		// Conflicts from a racing import surface as fewer rows written.
		res.SkippedDuplicates += len(chunk) - int(n)
		for i := start; i < end; i++ {
			if flagged[i] {
				res.FlaggedCount++
			}
		}
	}

	p.log.Info().
		Str("user_id", userID).
		Int("total", res.Total).
		Int("prepared", res.Prepared).
		Int("inserted", res.Inserted).
		Int("skipped", res.SkippedDuplicates).
		Int("flagged", res.FlaggedCount).
		Msg("ingestion complete")
	return res, nil
}

// resolveCategory picks the category with priority: explicit row label,
// then rule match, then the caller-supplied batch default, then none.
func (p *Pipeline) resolveCategory(ctx context.Context, cand Candidate, rules []models.Rule, defaultCategoryID *uint, labelCache map[string]*uint) (*uint, error) {
	if cand.CategoryLabel != "" {
		if id, ok := labelCache[cand.CategoryLabel]; ok {
			return id, nil
		}
		cat, err := p.categories.GetOrCreate(ctx, cand.CategoryLabel)
		if err != nil {
			return nil, fmt.Errorf("resolve category %q: %w", cand.CategoryLabel, err)
		}
		id := cat.ID
		labelCache[cand.CategoryLabel] = &id
		return &id, nil
	}
	if id := classify.Resolve(rules, cand.Description, cand.Amount); id != nil {
		return id, nil
	}
	return defaultCategoryID, nil
}

// dropPersisted filters out candidates whose keys already exist in the
// store. This is a write-avoidance optimization only: the unique index
// on (user_id, duplicate_key) is what actually enforces the invariant
// when two imports race.
func (p *Pipeline) dropPersisted(ctx context.Context, userID string, pending []models.Transaction, flagged []bool) ([]models.Transaction, []bool, error) {
	if len(pending) == 0 {
		return pending, flagged, nil
	}
	keys := make([]string, len(pending))
	for i, tx := range pending {
		keys[i] = tx.DuplicateKey
	}
	existing, err := p.store.ExistingKeys(ctx, userID, keys)
	if err != nil {
		return nil, nil, fmt.Errorf("check persisted keys: %w", err)
	}
	kept := pending[:0]
	keptFlags := flagged[:0]
	for i, tx := range pending {
		if existing[tx.DuplicateKey] {
			continue
		}
		kept = append(kept, tx)
		keptFlags = append(keptFlags, flagged[i])
	}
	return kept, keptFlags, nil
}
