package services_test

import (
	"context"
	"testing"

	"github.com/or73/Async-API-Pizza-Delivery/internal/apperr"
	"github.com/or73/Async-API-Pizza-Delivery/internal/models"
	"github.com/or73/Async-API-Pizza-Delivery/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenuCreateAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.menus.Create(ctx, services.MenuItemInput{Name: "Burger", Price: 5})
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)

	got, err := f.menus.Get(ctx, "Burger")
	require.NoError(t, err)
	assert.Equal(t, item, got)

	_, err = f.menus.Create(ctx, services.MenuItemInput{Name: "Burger", Price: 7})
	assert.True(t, apperr.Is(err, apperr.AlreadyExists))

	_, err = f.menus.Create(ctx, services.MenuItemInput{Name: "Free", Price: 0})
	assert.True(t, apperr.Is(err, apperr.InvalidArgument))

	_, err = f.menus.Get(ctx, "Pizza")
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = f.menus.Get(ctx, "")
	assert.True(t, apperr.Is(err, apperr.InvalidArgument))
}

func TestMenuList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entries, err := f.menus.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	f.addMenuItem(t, "Burger", 5)
	f.addMenuItem(t, "Pizza", 12.5)

	entries, err = f.menus.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.MenuEntry{
		{Name: "Burger", Price: 5},
		{Name: "Pizza", Price: 12.5},
	}, entries)
}

func TestMenuUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cred := f.signUp(t, "a@b.com")
	f.addMenuItem(t, "Burger", 5)
	original, err := f.menus.Get(ctx, "Burger")
	require.NoError(t, err)

	updated, err := f.menus.Update(ctx, cred, "Burger", services.MenuUpdateInput{Price: 6})
	require.NoError(t, err)
	assert.Equal(t, 6.0, updated.Price)
	assert.Equal(t, original.ID, updated.ID)

	_, err = f.menus.Update(ctx, cred, "Burger", services.MenuUpdateInput{Name: "Bigger", Price: 6})
	assert.True(t, apperr.Is(err, apperr.NotPermitted))

	_, err = f.menus.Update(ctx, cred, "Burger", services.MenuUpdateInput{Price: -1})
	assert.True(t, apperr.Is(err, apperr.InvalidArgument))

	_, err = f.menus.Update(ctx, cred, "Pizza", services.MenuUpdateInput{Price: 6})
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = f.menus.Update(ctx, services.Credentials{Email: cred.Email, Token: "zzzzzzzzzzzzzzzzzzzz"}, "Burger", services.MenuUpdateInput{Price: 6})
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestMenuDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cred := f.signUp(t, "a@b.com")
	f.addMenuItem(t, "Burger", 5)

	err := f.menus.Delete(ctx, services.Credentials{Email: "x@b.com", Token: cred.Token}, "Burger")
	assert.True(t, apperr.Is(err, apperr.Unauthorized))

	require.NoError(t, f.menus.Delete(ctx, cred, "Burger"))
	_, err = f.menus.Get(ctx, "Burger")
	assert.True(t, apperr.Is(err, apperr.NotFound))

	err = f.menus.Delete(ctx, cred, "Burger")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}
