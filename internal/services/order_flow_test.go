package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"utok/internal/cart"
	"utok/internal/domain"
	"utok/internal/repos"
	"utok/internal/services"
	"utok/internal/session"
)

type env struct {
	auth    *services.AuthService
	catalog *services.CatalogService
	carts   *services.CartService
	orders  *services.OrderService
	repo    *repos.OrderRepo
	db      *sqlx.DB
}

func newEnv(t *testing.T) env {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := session.NewStore(16)
	require.NoError(t, err)

	tokens := &services.Tokens{Secret: []byte("test-secret"), Issuer: "utok", TTL: time.Hour}
	catalog := services.NewCatalogService(repos.NewServiceRepo(db), repos.NewItemRepo(db))
	orderRepo := repos.NewOrderRepo(db)
	return env{
		auth:    services.NewAuthService(repos.NewUserRepo(db), tokens, store),
		catalog: catalog,
		carts:   services.NewCartService(catalog, store),
		orders:  services.NewOrderService(orderRepo, store),
		repo:    orderRepo,
		db:      db,
	}
}

var placement = domain.OrderFields{
	Area:          "Area B",
	Location:      "Akwa, Douala, Cameroon",
	PaymentMethod: "MoMo",
	Phone:         "677123456",
	UserName:      "Ana",
	Comments:      "ring twice",
}

func TestOrderFlow_AddCartCheckout(t *testing.T) {
	e := newEnv(t)
	u := &domain.User{ID: "u1", Email: "ana@utok.cm"}
	sid := "s1"

	_, err := e.orders.Checkout(sid)
	require.ErrorIs(t, err, services.ErrEmptyCart)

	_, err = e.carts.Add(sid, "shirt")
	require.NoError(t, err)
	_, err = e.carts.Add(sid, "bedsheet")
	require.NoError(t, err)
	v, err := e.carts.SetQuantity(sid, "shirt", "2")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2500).Equal(v.Total), "2x500 + 1500, got %s", v.Total)

	h, err := e.orders.Checkout(sid)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Shirt": 2, "Bedsheet": 1}, h.Items.Map())

	// edits after the handoff do not change what gets stored
	_, err = e.carts.Increment(sid, "shirt")
	require.NoError(t, err)

	o, err := e.orders.Place(sid, u, placement)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2500).Equal(o.TotalPrice))
	assert.Equal(t, "ana@utok.cm", o.Email)

	stored, err := e.repo.Get(o.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2500).Equal(stored.TotalPrice))
	assert.Equal(t, []string{"Shirt", "Bedsheet"}, stored.Items.Names())

	v, err = e.carts.View(sid)
	require.NoError(t, err)
	assert.Equal(t, cart.StateNone, v.State)
	_, err = e.orders.PendingHandoff(sid)
	require.ErrorIs(t, err, services.ErrNoHandoff)
}

func TestPlaceValidationKeepsState(t *testing.T) {
	e := newEnv(t)
	u := &domain.User{ID: "u1", Email: "ana@utok.cm"}
	sid := "s1"

	_, err := e.carts.Add(sid, "towel")
	require.NoError(t, err)
	_, err = e.orders.Place(sid, u, placement)
	require.ErrorIs(t, err, services.ErrNoHandoff)

	_, err = e.orders.Checkout(sid)
	require.NoError(t, err)

	bad := placement
	bad.PaymentMethod = "Visa"
	_, err = e.orders.Place(sid, u, bad)
	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "paymentMethod", ve.Field)

	bad = placement
	bad.Location = "  "
	_, err = e.orders.Place(sid, u, bad)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "location", ve.Field)

	v, err := e.carts.View(sid)
	require.NoError(t, err)
	assert.Equal(t, cart.StateFilled, v.State)
	_, err = e.orders.PendingHandoff(sid)
	require.NoError(t, err)
}

func TestCartMutationsOnMissingItem(t *testing.T) {
	e := newEnv(t)

	_, err := e.carts.Add("s", "no-such-item")
	require.ErrorIs(t, err, services.ErrNotFound)

	_, err = e.carts.Increment("s", "shirt")
	require.ErrorIs(t, err, services.ErrNotFound)

	_, err = e.carts.Add("s", "shirt")
	require.NoError(t, err)
	v, err := e.carts.Remove("s", "shirt")
	require.NoError(t, err)
	assert.Equal(t, cart.StateEmpty, v.State)
	assert.NotNil(t, v.Items)

	_, err = e.carts.Remove("s", "shirt")
	require.ErrorIs(t, err, services.ErrNotFound)
}

func TestAddIsToggleWithDecrement(t *testing.T) {
	e := newEnv(t)

	r, err := e.carts.Add("s", "dress")
	require.NoError(t, err)
	assert.True(t, r.Present)
	assert.Equal(t, 1, r.Quantity)

	r, err = e.carts.Add("s", "dress")
	require.NoError(t, err)
	assert.True(t, r.Present)
	assert.Equal(t, 1, r.Quantity)
	assert.Len(t, r.Cart.Items, 1)
}

func placed(t *testing.T, e env, sid string, u *domain.User) domain.Order {
	t.Helper()
	_, err := e.carts.Add(sid, "shirt")
	require.NoError(t, err)
	_, err = e.carts.Add(sid, "towel")
	require.NoError(t, err)
	_, err = e.carts.SetQuantity(sid, "shirt", 2)
	require.NoError(t, err)
	_, err = e.orders.Checkout(sid)
	require.NoError(t, err)
	o, err := e.orders.Place(sid, u, placement)
	require.NoError(t, err)
	return o
}

func TestDraftEditRemoveAndSave(t *testing.T) {
	e := newEnv(t)
	u := &domain.User{ID: "u1", Email: "ana@utok.cm"}
	o := placed(t, e, "s", u)

	d, err := e.orders.OpenDraft("s", u, o.ID)
	require.NoError(t, err)
	assert.Len(t, d.Items, 2)

	_, err = e.orders.RemoveDraftItem("s", o.ID, "Towel")
	require.NoError(t, err)
	loc := "Bonapriso, Douala"
	_, err = e.orders.PatchDraft("s", o.ID, services.DraftPatch{Location: &loc})
	require.NoError(t, err)

	saved, err := e.orders.SaveDraft("s", u, o.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Shirt": 2}, saved.Items.Map())

	stored, err := e.repo.Get(o.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Shirt": 2}, stored.Items.Map())
	assert.Equal(t, loc, stored.Location)
	assert.True(t, o.TotalPrice.Equal(stored.TotalPrice), "total is not recomputed")

	_, err = e.orders.Draft("s", o.ID)
	require.ErrorIs(t, err, services.ErrNoDraft)
}

func TestDraftBadQuantityIsValidationError(t *testing.T) {
	e := newEnv(t)
	u := &domain.User{ID: "u1", Email: "ana@utok.cm"}
	o := placed(t, e, "s", u)

	_, err := e.orders.OpenDraft("s", u, o.ID)
	require.NoError(t, err)
	d, err := e.orders.SetDraftQuantity("s", o.ID, "Shirt", "two")
	require.NoError(t, err)
	assert.Equal(t, "two", d.Items[0].Quantity)

	_, err = e.orders.SaveDraft("s", u, o.ID)
	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "items", ve.Field)

	stored, err := e.repo.Get(o.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Shirt": 2, "Towel": 1}, stored.Items.Map())

	// draft survives the failed save
	d, err = e.orders.Draft("s", o.ID)
	require.NoError(t, err)
	assert.Equal(t, "two", d.Items[0].Quantity)

	_, err = e.orders.SetDraftQuantity("s", o.ID, "Iron", "1")
	require.ErrorIs(t, err, services.ErrNotFound)
}

func TestOrdersAreOwnerOnly(t *testing.T) {
	e := newEnv(t)
	ana := &domain.User{ID: "u1", Email: "ana@utok.cm"}
	ben := &domain.User{ID: "u2", Email: "ben@utok.cm"}
	o := placed(t, e, "s", ana)

	_, err := e.orders.Get(ben, o.ID)
	require.ErrorIs(t, err, services.ErrForbidden)
	_, err = e.orders.OpenDraft("s2", ben, o.ID)
	require.ErrorIs(t, err, services.ErrForbidden)
	require.ErrorIs(t, e.orders.Delete("s2", ben, o.ID), services.ErrForbidden)

	list, err := e.orders.List(ben)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = e.orders.List(ana)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, e.orders.Delete("s", ana, o.ID))
	_, err = e.orders.Get(ana, o.ID)
	require.ErrorIs(t, err, services.ErrNotFound)
}

func TestSelectService(t *testing.T) {
	e := newEnv(t)

	svc, err := e.catalog.SelectService("Laundry")
	require.NoError(t, err)
	assert.True(t, svc.Available)

	_, err = e.catalog.SelectService("Drying")
	require.ErrorIs(t, err, services.ErrServiceUnavailable)
	var ue *services.UnavailableError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "Drying", ue.Service)

	_, err = e.catalog.SelectService("Polishing")
	require.ErrorIs(t, err, services.ErrNotFound)

	items, err := e.catalog.ListItems("TOW")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Towel", items[0].Name)

	_, err = e.catalog.ListItems("<script>")
	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
}

// refuseWrites makes the orders table reject one kind of write, standing in
// for a storage outage.
func refuseWrites(t *testing.T, db *sqlx.DB, op string) {
	t.Helper()
	_, err := db.Exec(`CREATE TRIGGER orders_refuse_` + op + ` BEFORE ` + op + ` ON orders
		BEGIN SELECT RAISE(ABORT, 'storage offline'); END`)
	require.NoError(t, err)
}

func TestPlaceRemoteFailureKeepsCartAndHandoff(t *testing.T) {
	e := newEnv(t)
	u := &domain.User{ID: "u1", Email: "ana@utok.cm"}

	_, err := e.carts.Add("s", "blanket")
	require.NoError(t, err)
	_, err = e.carts.Add("s", "towel")
	require.NoError(t, err)
	before, err := e.carts.View("s")
	require.NoError(t, err)
	h, err := e.orders.Checkout("s")
	require.NoError(t, err)

	refuseWrites(t, e.db, "INSERT")
	_, err = e.orders.Place("s", u, placement)
	var re *services.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "orders.create", re.Op)

	after, err := e.carts.View("s")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	pending, err := e.orders.PendingHandoff("s")
	require.NoError(t, err)
	assert.True(t, h.Total.Equal(pending.Total))
	assert.Equal(t, h.Items.Map(), pending.Items.Map())

	list, err := e.orders.List(u)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSaveDraftRemoteFailureKeepsDraft(t *testing.T) {
	e := newEnv(t)
	u := &domain.User{ID: "u1", Email: "ana@utok.cm"}
	o := placed(t, e, "s", u)

	_, err := e.orders.OpenDraft("s", u, o.ID)
	require.NoError(t, err)
	_, err = e.orders.SetDraftQuantity("s", o.ID, "Shirt", "4")
	require.NoError(t, err)
	comments := "fold only"
	want, err := e.orders.PatchDraft("s", o.ID, services.DraftPatch{Comments: &comments})
	require.NoError(t, err)

	refuseWrites(t, e.db, "UPDATE")
	_, err = e.orders.SaveDraft("s", u, o.ID)
	var re *services.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "orders.update", re.Op)

	d, err := e.orders.Draft("s", o.ID)
	require.NoError(t, err, "draft stays open after a failed save")
	assert.Equal(t, want, d)

	stored, err := e.repo.Get(o.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Shirt": 2, "Towel": 1}, stored.Items.Map())
	assert.Equal(t, placement.Comments, stored.Comments)
}
