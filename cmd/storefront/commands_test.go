package main

import (
	"bytes"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/account"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand(&app{})

	for _, path := range [][]string{
		{"locations"}, {"use-location"}, {"detect-location"}, {"categories"}, {"products"},
		{"login"}, {"register"}, {"checkout"}, {"logout"},
		{"cart", "show"}, {"cart", "add"}, {"cart", "update"}, {"cart", "remove"}, {"cart", "clear"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestPrintCart(t *testing.T) {
	var buf bytes.Buffer
	printCart(&buf, nil)
	assert.Equal(t, "Cart is empty\n", buf.String())

	buf.Reset()
	cart := domain.Cart{}.
		Add(domain.CartItem{ProductGroup: domain.ProductGroup{ID: "g1", Name: "Rice", Price: decimal.NewFromInt(100)}, Quantity: 1}).
		Add(domain.CartItem{ProductGroup: domain.ProductGroup{ID: "g2", Name: "Oil", Price: decimal.NewFromInt(30)}, Quantity: 2})
	printCart(&buf, cart)

	out := buf.String()
	assert.Contains(t, out, "Rice")
	assert.Contains(t, out, domain.DefaultVariant)
	assert.Contains(t, out, "60.00")
	assert.Contains(t, out, "160.00")
}

func TestPrintOutcome(t *testing.T) {
	var buf bytes.Buffer
	printOutcome(&buf, account.Result{
		Outcome: account.OutcomeLocationMismatch,
		Shop:    &domain.Shop{LocationID: "L2"},
	})
	assert.Contains(t, buf.String(), "use-location L2")

	buf.Reset()
	printOutcome(&buf, account.Result{Outcome: account.OutcomeApproved, Shop: &domain.Shop{Name: "Fresh Mart"}})
	assert.Equal(t, "Welcome, Fresh Mart\n", buf.String())
}

func riceGroup() domain.ProductGroup {
	groups := domain.GroupProducts([]domain.Product{
		{ID: "p1", Name: "Basmati Rice", PriceGroupID: "rice", Price: decimal.NewFromInt(120), Variant: "1kg"},
		{ID: "p2", Name: "Basmati Rice", PriceGroupID: "rice", Price: decimal.NewFromInt(120), Variant: "5kg"},
	})
	return groups[0]
}

func TestNewCartItem_DefaultsToFirstVariant(t *testing.T) {
	group := riceGroup()
	require.Equal(t, "rice", group.ID)

	item, err := newCartItem(group, "", 1)
	require.NoError(t, err)
	require.NotNil(t, item.SelectedVariant)

	orderItem := domain.OrderItemFromCart("order-1", item)
	assert.Equal(t, "p1", orderItem.ProductID)
	assert.Equal(t, "1kg", orderItem.Variant)

	item, err = newCartItem(group, "p2", 1)
	require.NoError(t, err)
	assert.Equal(t, "p2", domain.OrderItemFromCart("order-1", item).ProductID)

	_, err = newCartItem(group, "p9", 1)
	assert.Error(t, err)
	_, err = newCartItem(domain.ProductGroup{ID: "empty"}, "", 1)
	assert.Error(t, err)
}

func TestLineKey(t *testing.T) {
	group := riceGroup()
	small, err := newCartItem(group, "", 1)
	require.NoError(t, err)
	large, err := newCartItem(group, "p2", 1)
	require.NoError(t, err)

	cart := domain.Cart{}.Add(small)
	key, err := lineKey(cart, "rice", "")
	require.NoError(t, err)
	assert.Equal(t, domain.LineKey{GroupID: "rice", VariantID: "p1"}, key)

	line, ok := cart.Line(key)
	require.True(t, ok)
	assert.Equal(t, 1, line.Quantity)

	cart = cart.Add(large)
	_, err = lineKey(cart, "rice", "")
	assert.ErrorContains(t, err, "--variant")

	key, err = lineKey(cart, "rice", "p2")
	require.NoError(t, err)
	_, ok = cart.Line(key)
	assert.True(t, ok)

	_, err = lineKey(cart, "oil", "")
	assert.Error(t, err)
}
