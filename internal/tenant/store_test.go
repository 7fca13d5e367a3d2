package tenant

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	sql  string
	args []any
}

// recordingDB captures every statement and answers QueryRow through rowFor.
type recordingDB struct {
	calls      []recordedCall
	rowFor     func(sql string) pgx.Row
	committed  int
	rolledBack int
}

func (d *recordingDB) record(sql string, args []any) {
	d.calls = append(d.calls, recordedCall{sql: sql, args: args})
}

func (d *recordingDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	d.record(sql, args)
	return pgconn.NewCommandTag("DELETE 0"), nil
}

func (d *recordingDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	d.record(sql, args)
	return &emptyRows{}, nil
}

func (d *recordingDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	d.record(sql, args)
	if d.rowFor != nil {
		if row := d.rowFor(sql); row != nil {
			return row
		}
	}
	return fakeRow{err: pgx.ErrNoRows}
}

func (d *recordingDB) Begin(ctx context.Context) (pgx.Tx, error) {
	return &fakeTx{db: d}, nil
}

type fakeTx struct {
	pgx.Tx
	db *recordingDB
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.db.Exec(ctx, sql, args...)
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.db.Query(ctx, sql, args...)
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.db.QueryRow(ctx, sql, args...)
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.db.committed++
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.db.rolledBack++
	return nil
}

type emptyRows struct {
	pgx.Rows
}

func (r *emptyRows) Close()     {}
func (r *emptyRows) Err() error { return nil }
func (r *emptyRows) Next() bool { return false }

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i := range dest {
		if i >= len(r.values) {
			break
		}
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(r.values[i]))
	}
	return nil
}

func catalogRow(merchantID uuid.UUID) fakeRow {
	return fakeRow{values: []any{
		uuid.New(), merchantID, "DRESS-BLUE", "فستان صيفي أزرق", "", decimal.RequireFromString("35.000"),
		int32(10), "dresses", "", "",
	}}
}

func TestScopeStatementsAreMerchantScoped(t *testing.T) {
	t.Parallel()

	merchantID := uuid.New()
	orderID := uuid.New()
	db := &recordingDB{rowFor: func(sql string) pgx.Row {
		switch {
		case strings.Contains(sql, "InsertOrder"):
			return fakeRow{values: []any{orderID}}
		case strings.Contains(sql, "InsertConversationTurn"):
			return fakeRow{err: nil}
		}
		return nil
	}}
	scope := NewStore(nil, db).ForMerchant(merchantID)
	ctx := context.Background()

	_, err := scope.Catalog(ctx, 10)
	require.NoError(t, err)
	_, _, err = scope.BusinessRules(ctx)
	require.NoError(t, err)
	_, err = scope.KnowledgeBase(ctx, 5)
	require.NoError(t, err)
	_, err = scope.RecentTurns(ctx, "C1", 10)
	require.NoError(t, err)
	require.NoError(t, scope.AppendTurns(ctx,
		Turn{CustomerID: "C1", Text: "hi", Role: RoleCustomer, Sentiment: "neutral", Intent: "general_chat"},
		Turn{CustomerID: "C1", Text: "hello", Role: RoleAssistant, Sentiment: "neutral", Intent: "response"},
	))
	_, err = scope.CreateOrder(ctx, "dress", func(item CatalogItem, found bool) (NewOrder, error) {
		return NewOrder{SKU: "dress", Quantity: 1, CustomerName: "A", CustomerPhone: "1", DeliveryAddress: "X"}, nil
	})
	require.NoError(t, err)

	require.Len(t, db.calls, 8)
	for _, call := range db.calls {
		require.NotEmpty(t, call.args, call.sql)
		assert.Equal(t, merchantID, call.args[0], call.sql)
		if strings.Contains(call.sql, "WHERE") {
			assert.Contains(t, call.sql, "user_id = $1", call.sql)
		} else {
			assert.Contains(t, call.sql, "(user_id,", call.sql)
		}
	}
}

func TestScopeBusinessRulesAbsent(t *testing.T) {
	t.Parallel()

	scope := NewStore(nil, &recordingDB{}).ForMerchant(uuid.New())
	rules, found, err := scope.BusinessRules(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, BusinessRules{}, rules)
}

func TestCreateOrderResolvesCatalogItemInTransaction(t *testing.T) {
	t.Parallel()

	merchantID := uuid.New()
	orderID := uuid.New()
	db := &recordingDB{rowFor: func(sql string) pgx.Row {
		switch {
		case strings.Contains(sql, "FindCatalogItemByName"):
			return catalogRow(merchantID)
		case strings.Contains(sql, "InsertOrder"):
			return fakeRow{values: []any{orderID}}
		}
		return nil
	}}
	scope := NewStore(nil, db).ForMerchant(merchantID)

	var gotItem CatalogItem
	var gotFound bool
	id, err := scope.CreateOrder(context.Background(), "فستان صيفي", func(item CatalogItem, found bool) (NewOrder, error) {
		gotItem, gotFound = item, found
		return NewOrder{SKU: item.SKU, Quantity: 1, CustomerName: "أحمد", CustomerPhone: "0791234567", DeliveryAddress: "عمان"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, orderID, id)
	assert.True(t, gotFound)
	assert.Equal(t, "DRESS-BLUE", gotItem.SKU)
	assert.True(t, gotItem.Available())
	assert.Equal(t, 1, db.committed)
	assert.Equal(t, 0, db.rolledBack)
	assert.Equal(t, "%فستان صيفي%", db.calls[0].args[1])
}

func TestCreateOrderBuilderErrorRollsBack(t *testing.T) {
	t.Parallel()

	db := &recordingDB{}
	scope := NewStore(nil, db).ForMerchant(uuid.New())
	refuse := errors.New("missing fields")

	id, err := scope.CreateOrder(context.Background(), "shoe", func(item CatalogItem, found bool) (NewOrder, error) {
		assert.False(t, found)
		return NewOrder{}, refuse
	})
	require.ErrorIs(t, err, refuse)
	assert.Equal(t, uuid.Nil, id)
	assert.Equal(t, 0, db.committed)
	assert.Equal(t, 1, db.rolledBack)
	for _, call := range db.calls {
		assert.NotContains(t, call.sql, "InsertOrder")
	}
}

func TestContainsPatternEscapesWildcards(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `%50\% off\_sale%`, containsPattern(" 50% off_sale "))
}
