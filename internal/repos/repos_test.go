package repos_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"utok/internal/domain"
	"utok/internal/orderitems"
	"utok/internal/repos"
)

type repoSuite struct {
	suite.Suite

	driver string
	dsn    func(ctx context.Context) (string, error)
	stop   func()

	db     *sqlx.DB
	users  *repos.UserRepo
	svcs   *repos.ServiceRepo
	items  *repos.ItemRepo
	orders *repos.OrderRepo
}

func TestSQLiteRepos(t *testing.T) {
	suite.Run(t, &repoSuite{
		driver: "sqlite",
		dsn:    func(context.Context) (string, error) { return ":memory:", nil },
	})
}

// Needs a docker daemon.
func TestPostgresRepos(t *testing.T) {
	if os.Getenv("UTOK_PG_TESTS") == "" {
		t.Skip("set UTOK_PG_TESTS=1 to run against postgres")
	}
	s := &repoSuite{driver: "pgx"}
	s.dsn = func(ctx context.Context) (string, error) {
		pc, err := postgres.Run(ctx, "postgres:17.6-alpine3.22", postgres.BasicWaitStrategies())
		if err != nil {
			return "", fmt.Errorf("postgres.Run: %w", err)
		}
		s.stop = func() { _ = testcontainers.TerminateContainer(pc) }
		connStr, err := pc.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			return "", fmt.Errorf("pc.ConnectionString: %w", err)
		}
		return connStr, nil
	}
	suite.Run(t, s)
}

func (s *repoSuite) SetupSuite() {
	dsn, err := s.dsn(s.T().Context())
	s.Require().NoError(err)

	s.db, err = repos.OpenDB(s.driver, dsn)
	s.Require().NoError(err)

	s.users = repos.NewUserRepo(s.db)
	s.svcs = repos.NewServiceRepo(s.db)
	s.items = repos.NewItemRepo(s.db)
	s.orders = repos.NewOrderRepo(s.db)
}

func (s *repoSuite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.stop != nil {
		s.stop()
	}
}

func (s *repoSuite) TearDownTest() {
	for _, q := range []string{`DELETE FROM orders`, `DELETE FROM sessions`, `DELETE FROM users`} {
		_, err := s.db.Exec(q)
		s.Require().NoError(err)
	}
}

func randomUser() domain.User {
	return domain.User{
		ID:    uuid.NewString(),
		Email: gofakeit.Email(),
		Name:  gofakeit.FirstName(),
		Hash:  gofakeit.LetterN(60),
	}
}

func randomOrder(email string) domain.Order {
	return domain.Order{
		ID:            uuid.NewString(),
		Email:         email,
		Area:          gofakeit.RandomString(domain.Areas),
		Location:      gofakeit.Street(),
		PaymentMethod: gofakeit.RandomString(domain.PaymentMethods),
		Phone:         gofakeit.Numerify("6########"),
		UserName:      gofakeit.Name(),
		Comments:      gofakeit.Sentence(5),
		Items: orderitems.FromLines(
			orderitems.Line{Name: "Shirt", Quantity: gofakeit.IntRange(1, 5)},
			orderitems.Line{Name: "Towel", Quantity: gofakeit.IntRange(1, 5)},
		),
		TotalPrice: decimal.NewFromInt(int64(gofakeit.IntRange(100, 9000))),
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
}

var orderCmp = []cmp.Option{
	cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b orderitems.Items) bool { return cmp.Equal(a.Lines(), b.Lines()) }),
	cmpopts.EquateApproxTime(time.Millisecond),
}

func (s *repoSuite) TestSeededReferenceData() {
	t := s.T()

	svcs, err := s.svcs.List()
	require.NoError(t, err)
	require.Len(t, svcs, 4)
	assert.Equal(t, "Laundry", svcs[0].Name)
	assert.True(t, svcs[0].Available)
	for _, sv := range svcs[1:] {
		assert.False(t, sv.Available, sv.Name)
	}

	got, err := s.svcs.Get("ironing")
	require.NoError(t, err)
	assert.Equal(t, "Ironing", got.Name)

	all, err := s.items.Search("")
	require.NoError(t, err)
	assert.NotEmpty(t, all)

	shirts, err := s.items.Search("SHI")
	require.NoError(t, err)
	require.Len(t, shirts, 1)
	assert.Equal(t, "Shirt", shirts[0].Name)
	assert.True(t, decimal.NewFromInt(500).Equal(shirts[0].Price))

	none, err := s.items.Search("zzz")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = s.items.Get("nope")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func (s *repoSuite) TestUsersAndSessions() {
	t := s.T()
	u := randomUser()
	require.NoError(t, s.users.Create(u))
	require.Error(t, s.users.Create(u), "duplicate email")

	got, err := s.users.ByEmail(u.Email)
	require.NoError(t, err)
	assert.Equal(t, u, *got)

	sid := uuid.NewString()
	require.NoError(t, s.users.BindSession(sid, u.ID))
	got, err = s.users.SessionUser(sid)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, s.users.UpdateHash(u.ID, "new-hash"))
	got, err = s.users.ByID(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.Hash)

	require.NoError(t, s.users.UnbindSession(sid))
	_, err = s.users.SessionUser(sid)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func (s *repoSuite) TestDeleteUserKeepsOrders() {
	t := s.T()
	u := randomUser()
	require.NoError(t, s.users.Create(u))
	require.NoError(t, s.users.BindSession("s1", u.ID))
	require.NoError(t, s.users.BindSession("s2", u.ID))
	o := randomOrder(u.Email)
	require.NoError(t, s.orders.Create(o))

	sids, err := s.users.DeleteUserCascade(u.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s1", "s2"}, sids)

	_, err = s.users.ByID(u.ID)
	require.ErrorIs(t, err, sql.ErrNoRows)

	_, err = s.orders.Get(o.ID)
	require.NoError(t, err)
}

func (s *repoSuite) TestOrderLifecycle() {
	t := s.T()
	email := gofakeit.Email()

	older := randomOrder(email)
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	newer := randomOrder(email)
	other := randomOrder(gofakeit.Email())
	for _, o := range []domain.Order{older, newer, other} {
		require.NoError(t, s.orders.Create(o))
	}

	got, err := s.orders.Get(newer.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(newer, got, orderCmp...); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	list, err := s.orders.ListByEmail(email)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	fields := newer.Fields()
	fields.Location = "Bonamoussadi, Douala"
	items := orderitems.FromLines(orderitems.Line{Name: "Shirt", Quantity: 9})
	require.NoError(t, s.orders.Update(newer.ID, fields, items))

	got, err = s.orders.Get(newer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bonamoussadi, Douala", got.Location)
	assert.Equal(t, map[string]int{"Shirt": 9}, got.Items.Map())
	assert.True(t, newer.TotalPrice.Equal(got.TotalPrice), "total is left as placed")

	require.ErrorIs(t, s.orders.Update("missing", fields, items), sql.ErrNoRows)

	require.NoError(t, s.orders.Delete(newer.ID))
	require.ErrorIs(t, s.orders.Delete(newer.ID), sql.ErrNoRows)

	empty, err := s.orders.ListByEmail(gofakeit.Email())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
