package services_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"happy-sandwich/db"
	"happy-sandwich/models"
	"happy-sandwich/services"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) *services.Repository {
	t.Helper()
	st, err := db.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return services.NewRepository(st).WithClock(func() time.Time { return fixedNow })
}

func seeded(t *testing.T) *services.Repository {
	t.Helper()
	repo := newRepo(t)
	n, err := repo.EnsureDefaultMenuItems(context.Background())
	require.NoError(t, err)
	require.Equal(t, 6, n)
	return repo
}

func ptr[T any](v T) *T { return &v }

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Ham & Cheese":          "ham-cheese",
		"  Thai Iced Tea  ":     "thai-iced-tea",
		"--Pork__Bun!!":         "pork-bun",
		"ข้าวผัด":               "menu-item",
		"":                      "menu-item",
		"Combo #2 (Large)":      "combo-2-large",
		"ALREADY-slugged-value": "already-slugged-value",
	}
	for in, want := range cases {
		assert.Equal(t, want, services.Slugify(in), in)
	}
}

func TestSlugify_OnlyURLSafeCharacters(t *testing.T) {
	valid := regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	for _, in := range []string{"a", "A B C", "ümlaut café", "x--y", "!!!", "123 456", "tab\tand\nnewline", "-lead", "trail-"} {
		slug := services.Slugify(in)
		assert.Regexp(t, valid, slug, in)
	}
}

func TestCreateMenuItem_UniqueSlugs(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	first, err := repo.CreateMenuItem(ctx, models.CreateMenuItemInput{Name: "Egg Salad", DefaultPrice: 40})
	require.NoError(t, err)
	second, err := repo.CreateMenuItem(ctx, models.CreateMenuItemInput{Name: "egg salad!", DefaultPrice: 40})
	require.NoError(t, err)
	third, err := repo.CreateMenuItem(ctx, models.CreateMenuItemInput{Name: "Other", Slug: "Egg  Salad", DefaultPrice: 40})
	require.NoError(t, err)

	assert.Equal(t, "egg-salad", first.Slug)
	assert.Equal(t, "egg-salad-2", second.Slug)
	assert.Equal(t, "egg-salad-3", third.Slug)
	assert.Equal(t, fixedNow, first.CreatedAt)
	assert.Equal(t, models.DefaultPriority, first.Priority)
	assert.True(t, first.IsActive)
}

func TestCreateMenuItem_Validation(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.CreateMenuItem(ctx, models.CreateMenuItemInput{Name: "  ", DefaultPrice: 1})
	assert.True(t, services.IsValidation(err))
	_, err = repo.CreateMenuItem(ctx, models.CreateMenuItemInput{Name: "x", DefaultPrice: -1})
	assert.True(t, services.IsValidation(err))
	_, err = repo.CreateMenuItem(ctx, models.CreateMenuItemInput{Name: "x", Priority: ptr(-5)})
	assert.True(t, services.IsValidation(err))
}

func TestUpdateMenuItem_SlugKeepsOwnAndAvoidsOthers(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	item, err := repo.GetMenuItemBySlug(ctx, "tuna-mayo")
	require.NoError(t, err)

	item, err = repo.UpdateMenuItem(ctx, item, models.MenuItemUpdate{Slug: ptr("Tuna Mayo")})
	require.NoError(t, err)
	assert.Equal(t, "tuna-mayo", item.Slug)

	item, err = repo.UpdateMenuItem(ctx, item, models.MenuItemUpdate{Slug: ptr("pork bun"), Name: ptr("Tuna Deluxe")})
	require.NoError(t, err)
	assert.Equal(t, "pork-bun-2", item.Slug)
	assert.Equal(t, "Tuna Deluxe", item.Name)

	item, err = repo.UpdateMenuItem(ctx, item, models.MenuItemUpdate{Slug: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, "pork-bun-2", item.Slug)

	reloaded, err := repo.GetMenuItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tuna Deluxe", reloaded.Name)
}

func TestDeleteMenuItem(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	_, err := repo.PlaceOrder(ctx, models.CreateOrderInput{CustomerName: "Ann", MenuItemID: "pork-bun", Quantity: 1})
	require.NoError(t, err)

	used, err := repo.GetMenuItemBySlug(ctx, "pork-bun")
	require.NoError(t, err)
	err = repo.DeleteMenuItem(ctx, used)
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrMenuItemInUse))
	assert.True(t, services.IsValidation(err))

	unused, err := repo.GetMenuItemBySlug(ctx, "iced-tea")
	require.NoError(t, err)
	require.NoError(t, repo.DeleteMenuItem(ctx, unused))
	_, err = repo.GetMenuItem(ctx, unused.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestEnsureDefaultMenuItems_Idempotent(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	n, err := repo.EnsureDefaultMenuItems(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	items, err := repo.ListMenuItems(ctx, false)
	require.NoError(t, err)
	assert.Len(t, items, 6)

	porkBun, err := repo.GetMenuItemBySlug(ctx, "pork-bun")
	require.NoError(t, err)
	assert.Equal(t, 35.0, porkBun.DefaultPrice)
}

func TestEnsureDefaultMenuItems_SkipsNonEmptyMenu(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	_, err := repo.CreateMenuItem(ctx, models.CreateMenuItemInput{Name: "Soup", DefaultPrice: 30})
	require.NoError(t, err)

	n, err := repo.EnsureDefaultMenuItems(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPlaceOrder_Price(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	order, err := repo.PlaceOrder(ctx, models.CreateOrderInput{CustomerName: "Ann", MenuItemID: "pork-bun", Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 70.0, order.Price)
	assert.Equal(t, "Pork Bun", order.MenuItemName)
	assert.False(t, order.IsPaid)
	assert.Equal(t, fixedNow, order.OrderDate)

	order, err = repo.PlaceOrder(ctx, models.CreateOrderInput{CustomerName: "Ann", MenuItemID: "pork-bun", Quantity: 2, Price: -3})
	require.NoError(t, err)
	assert.Equal(t, 70.0, order.Price)

	order, err = repo.PlaceOrder(ctx, models.CreateOrderInput{CustomerName: "Ann", MenuItemID: "pork-bun", Quantity: 2, Price: 12.5})
	require.NoError(t, err)
	assert.Equal(t, 12.5, order.Price)
}

func TestPlaceOrder_Errors(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	_, err := repo.PlaceOrder(ctx, models.CreateOrderInput{CustomerName: "Ann", MenuItemID: "ghost", Quantity: 1})
	require.Error(t, err)
	assert.Equal(t, "invalid menu item", err.Error())

	_, err = repo.PlaceOrder(ctx, models.CreateOrderInput{CustomerName: "Ann", Quantity: 1})
	assert.True(t, services.IsValidation(err))

	_, err = repo.PlaceOrder(ctx, models.CreateOrderInput{CustomerName: "Ann", MenuItemID: "pork-bun", Quantity: 0})
	assert.True(t, services.IsValidation(err))

	orders, err := repo.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestMenuNameIsFrozenOnOrders(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	order, err := repo.PlaceOrder(ctx, models.CreateOrderInput{CustomerName: "Ann", MenuItemID: "pork-bun", Quantity: 1})
	require.NoError(t, err)

	item, err := repo.GetMenuItemBySlug(ctx, "pork-bun")
	require.NoError(t, err)
	_, err = repo.UpdateMenuItem(ctx, item, models.MenuItemUpdate{Name: ptr("Crispy Pork Bun")})
	require.NoError(t, err)

	reloaded, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pork Bun", reloaded.MenuItemName)
}

func TestReviseOrder(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()
	order, err := repo.PlaceOrder(ctx, models.CreateOrderInput{CustomerName: "Ann", MenuItemID: "pork-bun", Quantity: 2})
	require.NoError(t, err)

	same, err := repo.ReviseOrder(ctx, order, models.OrderUpdate{})
	require.NoError(t, err)
	assert.Equal(t, 70.0, same.Price)

	revised, err := repo.ReviseOrder(ctx, order, models.OrderUpdate{MenuItemID: ptr("egg-salad"), Quantity: ptr(3)})
	require.NoError(t, err)
	assert.Equal(t, "Egg Salad Sandwich", revised.MenuItemName)
	assert.Equal(t, 120.0, revised.Price)
	assert.Equal(t, 3, revised.Quantity)

	revised, err = repo.ReviseOrder(ctx, order, models.OrderUpdate{MenuItemID: ptr("iced-tea"), Price: ptr(10.0)})
	require.NoError(t, err)
	assert.Equal(t, 10.0, revised.Price)

	revised, err = repo.ReviseOrder(ctx, order, models.OrderUpdate{Quantity: ptr(5)})
	require.NoError(t, err)
	assert.Equal(t, 10.0, revised.Price, "price only follows quantity on a menu change")

	_, err = repo.ReviseOrder(ctx, order, models.OrderUpdate{MenuItemID: ptr("ghost")})
	assert.True(t, services.IsValidation(err))
}

func TestUpdateOrder_PresentFieldsOnly(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()
	order, err := repo.PlaceOrder(ctx, models.CreateOrderInput{CustomerName: "Ann", MenuItemID: "pork-bun", Quantity: 2, Note: ptr("spicy")})
	require.NoError(t, err)

	updated, err := repo.UpdateOrder(ctx, order, models.OrderUpdate{IsPaid: ptr(true)})
	require.NoError(t, err)
	assert.True(t, updated.IsPaid)
	assert.Equal(t, "Ann", updated.CustomerName)
	require.NotNil(t, updated.Note)
	assert.Equal(t, "spicy", *updated.Note)

	_, err = repo.UpdateOrder(ctx, order, models.OrderUpdate{CustomerName: ptr("")})
	assert.True(t, services.IsValidation(err))

	_, err = repo.UpdateOrder(ctx, &models.Order{ID: 999, CustomerName: "x", MenuItemID: "pork-bun", Quantity: 1},
		models.OrderUpdate{IsPaid: ptr(true)})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestDeleteOrder(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()
	order, err := repo.PlaceOrder(ctx, models.CreateOrderInput{CustomerName: "Ann", MenuItemID: "pork-bun", Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteOrder(ctx, order))
	assert.ErrorIs(t, repo.DeleteOrder(ctx, order), services.ErrNotFound)
}

func TestComputeSummary(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	empty, err := repo.ComputeSummary(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalOrders)
	assert.Zero(t, empty.UnpaidOrders)
	assert.Zero(t, empty.TotalQuantity)
	assert.NotNil(t, empty.MenuBreakdown)
	assert.Empty(t, empty.MenuBreakdown)

	for _, in := range []models.CreateOrderInput{
		{CustomerName: "Ann", MenuItemID: "pork-bun", Quantity: 2},
		{CustomerName: "Bob", MenuItemID: "pork-bun", Quantity: 3, IsPaid: true},
		{CustomerName: "Cid", MenuItemID: "egg-salad", Quantity: 1},
	} {
		_, err := repo.PlaceOrder(ctx, in)
		require.NoError(t, err)
	}

	s, err := repo.ComputeSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), s.TotalOrders)
	assert.Equal(t, int64(2), s.UnpaidOrders)
	assert.Equal(t, int64(6), s.TotalQuantity)
	assert.Equal(t, []models.MenuSummary{
		{MenuItemID: "egg-salad", MenuItemName: "Egg Salad Sandwich", TotalQuantity: 1, UnpaidQuantity: 1},
		{MenuItemID: "pork-bun", MenuItemName: "Pork Bun", TotalQuantity: 5, UnpaidQuantity: 2},
	}, s.MenuBreakdown)

	var sum int64
	for _, m := range s.MenuBreakdown {
		sum += m.TotalQuantity
	}
	assert.Equal(t, s.TotalQuantity, sum)
}

func TestGroupOrdersByMenu(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()
	day := func(d int) *time.Time {
		ts := time.Date(2024, 3, d, 9, 0, 0, 0, time.UTC)
		return &ts
	}
	for _, in := range []models.CreateOrderInput{
		{CustomerName: "Late", MenuItemID: "pork-bun", Quantity: 1, OrderDate: day(12)},
		{CustomerName: "Early", MenuItemID: "pork-bun", Quantity: 2, OrderDate: day(10), Note: ptr("x")},
		{CustomerName: "Tea", MenuItemID: "iced-tea", Quantity: 1, OrderDate: day(11), IsPaid: true},
	} {
		_, err := repo.PlaceOrder(ctx, in)
		require.NoError(t, err)
	}

	groups, err := repo.GroupOrdersByMenu(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "pork-bun", groups[0].MenuItemID)
	assert.Equal(t, []models.GroupedOrder{
		{CustomerName: "Early", Quantity: 2, Note: ptr("x")},
		{CustomerName: "Late", Quantity: 1},
	}, groups[0].Orders)

	assert.Equal(t, "iced-tea", groups[1].MenuItemID)
	assert.Equal(t, "Thai Iced Tea", groups[1].MenuItemName)
	assert.True(t, groups[1].Orders[0].IsPaid)
}

func TestMarkPaidByDate(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()
	at := func(s string) *time.Time {
		ts, err := time.Parse(time.RFC3339Nano, s)
		require.NoError(t, err)
		return &ts
	}
	for _, date := range []string{
		"2024-03-09T23:59:59.999999Z",
		"2024-03-10T00:00:00Z",
		"2024-03-11T23:59:59.999999Z",
		"2024-03-12T00:00:00Z",
	} {
		_, err := repo.PlaceOrder(ctx, models.CreateOrderInput{CustomerName: "Ann", MenuItemID: "pork-bun", Quantity: 1, OrderDate: at(date)})
		require.NoError(t, err)
	}

	start := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 11, 1, 0, 0, 0, time.UTC)
	n, err := repo.MarkPaidByDate(ctx, start, end, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	s, err := repo.ComputeSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.UnpaidOrders)

	n, err = repo.MarkPaidByDate(ctx, start, start, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.MarkPaidByDate(ctx, end.AddDate(0, 0, 1), start, true)
	assert.True(t, services.IsValidation(err))
}

func TestDayRange(t *testing.T) {
	start, end := services.DayRange(
		time.Date(2024, 3, 10, 18, 30, 0, 0, time.UTC),
		time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC),
	)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 3, 10, 23, 59, 59, 999999000, time.UTC), end)
}

func TestMenuOptions(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()
	_, err := repo.CreateMenuItem(ctx, models.CreateMenuItemInput{Name: "Soup", DefaultPrice: 30, Priority: ptr(20)})
	require.NoError(t, err)
	_, err = repo.CreateMenuItem(ctx, models.CreateMenuItemInput{Name: "Gone", DefaultPrice: 30, IsActive: ptr(false)})
	require.NoError(t, err)

	options, err := repo.MenuOptions(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(options))
	for _, o := range options {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []string{"ham-cheese", "tuna-mayo", "soup", "egg-salad", "chicken-teriyaki", "pork-bun", "iced-tea"}, ids)
	assert.Equal(t, 20, options[2].Priority)
}

func TestPriceFor(t *testing.T) {
	item := &models.MenuItem{DefaultPrice: 35}
	assert.Equal(t, 70.0, services.PriceFor(item, 2, 0))
	assert.Equal(t, 70.0, services.PriceFor(item, 2, -1))
	assert.Equal(t, 5.0, services.PriceFor(item, 2, 5))
}
