package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	product "github.com/angelmondragon/gasdrop-backend/internal/products"
	"github.com/angelmondragon/gasdrop-backend/internal/sessions"
	"github.com/angelmondragon/gasdrop-backend/pkg/db/dbtest"
	"github.com/angelmondragon/gasdrop-backend/pkg/db/models"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
	"github.com/angelmondragon/gasdrop-backend/pkg/money"
)

type cartFixture struct {
	svc      Service
	products *product.Repository
}

func newCartFixture(t *testing.T) cartFixture {
	t.Helper()
	client, gdb := dbtest.NewClient(t)
	products := product.NewRepository(gdb)
	svc, err := NewService(NewRepository(gdb), client, products, DefaultPricer())
	require.NoError(t, err)
	return cartFixture{svc: svc, products: products}
}

func (f cartFixture) seed(t *testing.T, name, price string, qty *int) *models.Product {
	t.Helper()
	p, err := f.products.CreateProduct(context.Background(), &models.Product{
		Name:     name,
		Type:     enums.ProductTypeGasCylinder,
		Price:    money.MustParse(price),
		InStock:  true,
		Quantity: qty,
	})
	require.NoError(t, err)
	return p
}

func customer(uid string) *sessions.Session {
	return &sessions.Session{UID: uid, Role: enums.RoleCustomer}
}

func intPtr(v int) *int { return &v }

func TestAddLineMergesSameProduct(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	p := f.seed(t, "HP Gas Cylinder 14.2 KG", "850", nil)
	buyer := customer("cust-1")

	first, err := f.svc.AddLine(ctx, buyer, p.ID, 1)
	require.NoError(t, err)
	second, err := f.svc.AddLine(ctx, buyer, p.ID, 2)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 3, second.Quantity)

	lines, err := f.svc.ListLines(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, 3, lines[0].Quantity)
	require.Equal(t, "2550.00", lines[0].LineTotal.StringFixed(2))
}

func TestAddLineRejectsUnavailableStock(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	buyer := customer("cust-1")

	limited := f.seed(t, "HP Gas Cylinder 5 KG", "450", intPtr(2))
	_, err := f.svc.AddLine(ctx, buyer, limited.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.AddLine(ctx, buyer, limited.ID, 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	out := f.seed(t, "HP Gas Cylinder 19 KG", "1200", nil)
	require.NoError(t, f.products.UpdateFields(ctx, out.ID, map[string]any{"in_stock": false}))
	_, err = f.svc.AddLine(ctx, buyer, out.ID, 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.AddLine(ctx, buyer, uuid.New(), 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.AddLine(ctx, buyer, limited.ID, 0)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	p := f.seed(t, "Gas Lighter", "50", nil)
	buyer := customer("cust-1")

	line, err := f.svc.AddLine(ctx, buyer, p.ID, 1)
	require.NoError(t, err)

	updated, err := f.svc.SetQuantity(ctx, buyer, line.ID, 4)
	require.NoError(t, err)
	require.Equal(t, 4, updated.Quantity)

	removed, err := f.svc.SetQuantity(ctx, buyer, line.ID, 0)
	require.NoError(t, err)
	require.Nil(t, removed)

	lines, err := f.svc.ListLines(ctx, buyer)
	require.NoError(t, err)
	require.Empty(t, lines)
}

func TestCartLinesAreScopedByUser(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	p := f.seed(t, "Gas Regulator", "350", nil)
	owner := customer("cust-1")
	other := customer("cust-2")

	line, err := f.svc.AddLine(ctx, owner, p.ID, 1)
	require.NoError(t, err)

	_, err = f.svc.SetQuantity(ctx, other, line.ID, 5)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	err = f.svc.RemoveLine(ctx, other, line.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	require.NoError(t, f.svc.Clear(ctx, other))

	lines, err := f.svc.ListLines(ctx, owner)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, 1, lines[0].Quantity)
}

func TestQuoteUsesPricer(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	big := f.seed(t, "HP Gas Cylinder 14.2 KG", "850", nil)
	small := f.seed(t, "HP Gas Cylinder 5 KG", "450", nil)
	buyer := customer("cust-1")

	_, err := f.svc.AddLine(ctx, buyer, big.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.AddLine(ctx, buyer, small.ID, 2)
	require.NoError(t, err)

	quote, err := f.svc.Quote(ctx, buyer, "save50")
	require.NoError(t, err)
	require.Len(t, quote.Lines, 2)
	require.True(t, quote.PromoApplied)
	require.Equal(t, "1817.50", quote.Totals.Total.StringFixed(2))
}

func TestCartRequiresCustomerRole(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	_, err := f.svc.ListLines(ctx, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	agent := &sessions.Session{UID: "agent-1", Role: enums.RoleDelivery}
	_, err = f.svc.Quote(ctx, agent, "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}
