package main

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/ahinestrog/bestsellers/internal/cart"
	"github.com/ahinestrog/bestsellers/internal/money"
	"github.com/ahinestrog/bestsellers/internal/rpc"
)

// stubCatalog fails until up is set, then lists books.
type stubCatalog struct {
	mu    sync.Mutex
	up    bool
	books []*rpc.Book
	calls int
}

func (s *stubCatalog) ListBooks(context.Context, *rpc.Empty, ...grpc.CallOption) (*rpc.BookList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if !s.up {
		return nil, status.Error(codes.Unavailable, "catalog unavailable")
	}
	return &rpc.BookList{Books: s.books}, nil
}

func (s *stubCatalog) GetBook(context.Context, *rpc.BookRef, ...grpc.CallOption) (*rpc.Book, error) {
	return nil, status.Error(codes.Unimplemented, "")
}

func (s *stubCatalog) Status(context.Context, *rpc.Empty, ...grpc.CallOption) (*rpc.CatalogStatus, error) {
	return nil, status.Error(codes.Unimplemented, "")
}

func (s *stubCatalog) Reload(context.Context, *rpc.Empty, ...grpc.CallOption) (*rpc.CatalogStatus, error) {
	return nil, status.Error(codes.Unimplemented, "")
}

func (s *stubCatalog) setUp(up bool) {
	s.mu.Lock()
	s.up = up
	s.mu.Unlock()
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{up: true, books: []*rpc.Book{
		{ID: "b20", Title: "Twenty", Author: "A", Price: money.MustParse("20.00")},
		{ID: "b15", Title: "Fifteen", Author: "B", Price: money.MustParse("15.00")},
		{ID: "b25", Title: "TwentyFive", Author: "C", Price: money.MustParse("25.00")},
	}}
}

func startCart(t *testing.T, cat rpc.CatalogClient) (rpc.CartClient, *cart.Engine) {
	t.Helper()
	books := newCatalogBooks(cat, time.Second)
	engine := cart.NewEngine(books)

	lis := bufconn.Listen(1 << 20)
	g := grpc.NewServer()
	rpc.RegisterCartServer(g, NewCartServer(engine, books))
	go func() { _ = g.Serve(lis) }()
	t.Cleanup(g.Stop)

	cc, err := grpc.NewClient("passthrough:///cart",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cc.Close() })
	return rpc.NewCartClient(cc), engine
}

func TestDiscountScenario(t *testing.T) {
	client, _ := startCart(t, newStubCatalog())
	ctx := context.Background()

	v, err := client.AddToCart(ctx, &rpc.BookRef{BookID: "b20"})
	require.NoError(t, err)
	assert.Equal(t, "20.00", v.Total.String())

	v, err = client.ChangeQuantity(ctx, &rpc.QuantityChange{BookID: "b20", Delta: 1})
	require.NoError(t, err)
	assert.Equal(t, "40.00", v.Total.String())
	assert.Equal(t, 2, v.ItemCount)
	require.Len(t, v.Lines, 1)
	assert.Equal(t, "Twenty", v.Lines[0].Title)
	assert.Equal(t, "40.00", v.Lines[0].LineTotal.String())

	v, err = client.SetDiscount(ctx, &rpc.DiscountToggle{Enabled: true})
	require.NoError(t, err)
	assert.Equal(t, "36.00", v.Total.String())
	assert.True(t, v.Discount)

	for i := 0; i < 2; i++ {
		v, err = client.ChangeQuantity(ctx, &rpc.QuantityChange{BookID: "b20", Delta: -1})
		require.NoError(t, err)
	}
	assert.Empty(t, v.Lines)
	assert.Equal(t, "0.00", v.Total.String())
}

func TestClearScenario(t *testing.T) {
	client, _ := startCart(t, newStubCatalog())
	ctx := context.Background()

	_, err := client.AddToCart(ctx, &rpc.BookRef{BookID: "b15"})
	require.NoError(t, err)
	v, err := client.AddToCart(ctx, &rpc.BookRef{BookID: "b25"})
	require.NoError(t, err)
	assert.Equal(t, "40.00", v.Total.String())

	v, err = client.RequestClear(ctx, &rpc.Empty{})
	require.NoError(t, err)
	require.NotNil(t, v.PendingClear)
	v, err = client.CancelClear(ctx, &rpc.ClearDecision{RequestID: v.PendingClear.RequestID})
	require.NoError(t, err)
	assert.Equal(t, "40.00", v.Total.String())
	assert.Nil(t, v.PendingClear)

	v, err = client.RequestClear(ctx, &rpc.Empty{})
	require.NoError(t, err)
	id := v.PendingClear.RequestID
	v, err = client.ConfirmClear(ctx, &rpc.ClearDecision{RequestID: id})
	require.NoError(t, err)
	assert.Equal(t, "0.00", v.Total.String())
	assert.Empty(t, v.Lines)

	_, err = client.ConfirmClear(ctx, &rpc.ClearDecision{RequestID: id})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestRefusals(t *testing.T) {
	client, engine := startCart(t, newStubCatalog())
	ctx := context.Background()

	_, err := client.AddToCart(ctx, &rpc.BookRef{BookID: "nope"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.AddToCart(ctx, &rpc.BookRef{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.ChangeQuantity(ctx, &rpc.QuantityChange{BookID: "b20", Delta: 2})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.ChangeQuantity(ctx, &rpc.QuantityChange{BookID: "b20", Delta: 0})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.RequestClear(ctx, &rpc.Empty{})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = client.CancelClear(ctx, &rpc.ClearDecision{RequestID: uuid.New()})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	v, err := client.ChangeQuantity(ctx, &rpc.QuantityChange{BookID: "b20", Delta: -1})
	require.NoError(t, err, "decrementing an absent book is a no-op")
	assert.Empty(t, v.Lines)
	assert.True(t, engine.IsEmpty())
}

func TestCatalogFetchedLazilyAndKept(t *testing.T) {
	cat := newStubCatalog()
	cat.setUp(false)
	client, _ := startCart(t, cat)
	ctx := context.Background()

	_, err := client.AddToCart(ctx, &rpc.BookRef{BookID: "b20"})
	assert.Equal(t, codes.Unavailable, status.Code(err))

	cat.setUp(true)
	_, err = client.AddToCart(ctx, &rpc.BookRef{BookID: "b20"})
	require.NoError(t, err)

	cat.setUp(false)
	v, err := client.ChangeQuantity(ctx, &rpc.QuantityChange{BookID: "b20", Delta: 1})
	require.NoError(t, err, "the first list is kept")
	assert.Equal(t, "40.00", v.Total.String())

	cat.mu.Lock()
	assert.Equal(t, 2, cat.calls)
	cat.mu.Unlock()
}

func TestEmptyListIsNotKept(t *testing.T) {
	cat := &stubCatalog{up: true}
	books := newCatalogBooks(cat, time.Second)

	_, err := books.Ensure(context.Background())
	require.Error(t, err)
	_, ok := books.Lookup("b20")
	assert.False(t, ok)
	assert.Equal(t, -1, books.Position("b20"))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("CATALOG_RPC_TIMEOUT", "750ms")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, cfg.CatalogTimeout)
	assert.Equal(t, "localhost:50051", cfg.CatalogTarget)
	assert.Equal(t, 256, cfg.EventBuffer)

	t.Setenv("EVENT_BUFFER", "lots")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "EVENT_BUFFER")
}
