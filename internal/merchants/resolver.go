package merchants

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rasaeel/rasaeel/internal/db/sqlc"
)

// ErrUnknownMerchant is returned when no connected merchant owns a page.
var ErrUnknownMerchant = errors.New("unknown merchant")

// Merchant is the connected account that receives a page's messages.
type Merchant struct {
	ID             uuid.UUID
	UserIdentifier string
	PageIdentifier string
	BusinessName   string
	// PageAccessToken is the decrypted Graph API token.
	PageAccessToken string
}

type merchantQueries interface {
	GetConnectedMerchantByPageID(ctx context.Context, pageIdentifier string) (sqlc.Merchant, error)
	GetConnectedMerchantByUserIdentifier(ctx context.Context, userIdentifier string) (sqlc.Merchant, error)
	GetMerchantByID(ctx context.Context, id uuid.UUID) (sqlc.Merchant, error)
}

// Resolver maps webhook page identifiers to merchants. There is no default
// merchant: an unmatched page resolves to ErrUnknownMerchant.
type Resolver struct {
	queries merchantQueries
	cipher  *TokenCipher
	logger  *slog.Logger
}

func NewResolver(log *slog.Logger, queries merchantQueries, cipher *TokenCipher) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		queries: queries,
		cipher:  cipher,
		logger:  log.With(slog.String("service", "merchants")),
	}
}

// Resolve looks up the connected merchant by page identifier, then by the
// legacy user identifier.
func (r *Resolver) Resolve(ctx context.Context, pageID string) (Merchant, error) {
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		return Merchant{}, ErrUnknownMerchant
	}
	row, err := r.queries.GetConnectedMerchantByPageID(ctx, pageID)
	if errors.Is(err, pgx.ErrNoRows) {
		row, err = r.queries.GetConnectedMerchantByUserIdentifier(ctx, pageID)
		if err == nil {
			r.logger.Info("merchant matched by legacy user identifier", slog.String("page_id", pageID))
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return Merchant{}, fmt.Errorf("%w: page %s", ErrUnknownMerchant, pageID)
	}
	if err != nil {
		return Merchant{}, fmt.Errorf("resolve merchant: %w", err)
	}
	return r.toMerchant(row)
}

// ByID loads a merchant by its internal id regardless of connection state.
func (r *Resolver) ByID(ctx context.Context, id uuid.UUID) (Merchant, error) {
	row, err := r.queries.GetMerchantByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return Merchant{}, fmt.Errorf("%w: id %s", ErrUnknownMerchant, id)
	}
	if err != nil {
		return Merchant{}, fmt.Errorf("load merchant: %w", err)
	}
	return r.toMerchant(row)
}

func (r *Resolver) toMerchant(row sqlc.Merchant) (Merchant, error) {
	token, err := r.cipher.Open(row.PageAccessToken)
	if err != nil {
		return Merchant{}, err
	}
	return Merchant{
		ID:              row.ID,
		UserIdentifier:  row.UserIdentifier,
		PageIdentifier:  row.PageIdentifier.String,
		BusinessName:    row.BusinessName,
		PageAccessToken: token,
	}, nil
}
