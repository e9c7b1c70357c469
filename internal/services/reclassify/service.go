package reclassify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"finance-ledger-backend/internal/models"
	"finance-ledger-backend/internal/services/classify"
)

// DefaultPageSize bounds how many uncategorized rows are held in memory
// per sweep iteration.
const DefaultPageSize = 1000

// TransactionStore is the slice of the record store the sweep needs.
type TransactionStore interface {
	// ListUncategorized returns up to limit of the user's uncategorized
	// transactions with ID greater than afterID, ordered by ascending ID.
	ListUncategorized(ctx context.Context, userID string, afterID uint, limit int) ([]models.Transaction, error)
	// UpdateCategory sets one transaction's category.
	UpdateCategory(ctx context.Context, id uint, categoryID *uint) error
}

// RuleSource yields the user's active rules ordered by ascending ID.
type RuleSource interface {
	ListActive(ctx context.Context, userID string) ([]models.Rule, error)
}

// Result reports how many rows a sweep updated.
type Result struct {
	Updated int `json:"updated"`
}

// Service applies the current active rules to previously uncategorized
// transactions. The sweep pages by last-seen ID rather than offset so
// rows are neither skipped nor reprocessed as matches leave the
// uncategorized set mid-run.
type Service struct {
	store    TransactionStore
	rules    RuleSource
	log      zerolog.Logger
	pageSize int
}

func NewService(store TransactionStore, rules RuleSource, log zerolog.Logger) *Service {
	return &Service{store: store, rules: rules, log: log, pageSize: DefaultPageSize}
}

// Run sweeps the user's uncategorized transactions once. Rows that no
// rule matches stay untouched and get reconsidered on the next run, so
// back-to-back runs with unchanged rules converge to zero updates.
func (s *Service) Run(ctx context.Context, userID string) (Result, error) {
	res := Result{}

	rules, err := s.rules.ListActive(ctx, userID)
	if err != nil {
		return res, fmt.Errorf("load rules: %w", err)
	}

	var cursor uint
	for {
		page, err := s.store.ListUncategorized(ctx, userID, cursor, s.pageSize)
		if err != nil {
			return res, fmt.Errorf("fetch page after id %d: %w", cursor, err)
		}
		if len(page) == 0 {
			break
		}
		// Advance regardless of match outcomes.
		cursor = page[len(page)-1].ID

		for _, tx := range page {
			categoryID := classify.Resolve(rules, tx.Description, tx.Amount)
			if categoryID == nil {
				continue
			}
			if err := s.store.UpdateCategory(ctx, tx.ID, categoryID); err != nil {
				return res, fmt.Errorf("update transaction %d: %w", tx.ID, err)
			}
			res.Updated++
		}
	}

	s.log.Info().Str("user_id", userID).Int("updated", res.Updated).Msg("reclassification complete")
	return res, nil
}
