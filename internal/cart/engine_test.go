package cart

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahinestrog/bestsellers/internal/catalog"
	"github.com/ahinestrog/bestsellers/internal/money"
)

func snapshot(t *testing.T, prices ...string) *catalog.Snapshot {
	t.Helper()
	books := make([]catalog.Book, 0, len(prices))
	for i, p := range prices {
		id := string(rune('a' + i))
		books = append(books, catalog.Book{
			ID:     id,
			Title:  "Title " + id,
			Author: "Author " + id,
			Price:  money.MustParse(p),
		})
	}
	s, err := catalog.NewSnapshot(books)
	require.NoError(t, err)
	return s
}

func record(e *Engine) *[]Change {
	var got []Change
	e.Subscribe(func(c Change) { got = append(got, c) })
	return &got
}

func kinds(changes []Change) []ChangeKind {
	out := make([]ChangeKind, 0, len(changes))
	for _, c := range changes {
		out = append(out, c.Kind)
	}
	return out
}

func TestAdd(t *testing.T) {
	e := NewEngine(snapshot(t, "20.00"))

	require.NoError(t, e.Add("a"))
	assert.Equal(t, 1, e.Quantity("a"))
	assert.Equal(t, "20.00", e.Total().String())

	assert.ErrorIs(t, e.Add("nope"), ErrUnknownBook)
	assert.Equal(t, 1, e.ItemCount(), "unknown add leaves the cart alone")
}

func TestAddResetsToOne(t *testing.T) {
	e := NewEngine(snapshot(t, "20.00"))
	require.NoError(t, e.Add("a"))
	for i := 0; i < 4; i++ {
		require.NoError(t, e.UpdateQuantity("a", true))
	}
	require.Equal(t, 5, e.Quantity("a"))

	require.NoError(t, e.Add("a"))
	assert.Equal(t, 1, e.Quantity("a"))
	assert.Len(t, e.Lines(), 1)
}

func TestUpdateQuantity(t *testing.T) {
	e := NewEngine(snapshot(t, "20.00", "10.00"))

	require.NoError(t, e.UpdateQuantity("a", true), "increment of an absent book adds it")
	assert.Equal(t, 1, e.Quantity("a"))
	require.NoError(t, e.UpdateQuantity("a", true))
	assert.Equal(t, 2, e.Quantity("a"))

	require.NoError(t, e.UpdateQuantity("a", false))
	require.NoError(t, e.UpdateQuantity("a", false))
	assert.Equal(t, 0, e.Quantity("a"))
	assert.True(t, e.IsEmpty(), "reaching zero removes the line")

	require.NoError(t, e.UpdateQuantity("a", false), "decrement of an absent book is a no-op")
	require.NoError(t, e.UpdateQuantity("zzz", false), "even for unknown ids")
	assert.True(t, e.IsEmpty())

	assert.ErrorIs(t, e.UpdateQuantity("zzz", true), ErrUnknownBook)
}

func TestQuantityNeverNegative(t *testing.T) {
	e := NewEngine(snapshot(t, "20.00"))
	ops := []bool{true, false, false, false, true, true, false, true, false, false, false}
	for _, inc := range ops {
		require.NoError(t, e.UpdateQuantity("a", inc))
		assert.GreaterOrEqual(t, e.Quantity("a"), 0)
		for _, l := range e.Lines() {
			assert.GreaterOrEqual(t, l.Quantity, 1)
		}
	}
}

func TestTotalIsMonotonic(t *testing.T) {
	e := NewEngine(snapshot(t, "15.00", "25.00", "17.35"))
	prev := e.Total()
	for _, id := range []string{"a", "b", "c", "a", "c", "c"} {
		require.NoError(t, e.UpdateQuantity(id, true))
		cur := e.Total()
		assert.True(t, prev.LessThan(cur), "increment raises the total")
		prev = cur
	}
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, e.UpdateQuantity(id, false))
		cur := e.Total()
		assert.True(t, cur.LessThan(prev), "decrement lowers the total")
		prev = cur
	}
}

func TestDiscount(t *testing.T) {
	e := NewEngine(snapshot(t, "16.65", "25.00"))
	require.NoError(t, e.Add("a"))
	require.NoError(t, e.UpdateQuantity("a", true))
	require.NoError(t, e.UpdateQuantity("a", true))
	require.NoError(t, e.Add("b"))

	full := e.Total()
	assert.Equal(t, "74.95", full.Round2().String())

	e.SetDiscountEnabled(true)
	assert.True(t, e.DiscountEnabled())
	assert.True(t, e.Total().Equal(full.Scale("0.9")))
	assert.Equal(t, "67.46", e.Total().Round2().String(), "67.455 rounds once at the end")

	e.SetDiscountEnabled(false)
	assert.True(t, e.Total().Equal(full))
}

func TestClearKeepsDiscount(t *testing.T) {
	e := NewEngine(snapshot(t, "20.00", "10.00"))
	require.NoError(t, e.Add("a"))
	require.NoError(t, e.Add("b"))
	e.SetDiscountEnabled(true)

	e.Clear()
	assert.True(t, e.IsEmpty())
	assert.Zero(t, e.ItemCount())
	assert.True(t, e.Total().IsZero())
	assert.True(t, e.DiscountEnabled())

	e.Clear()
	assert.True(t, e.IsEmpty(), "clearing an empty cart is fine")
}

func TestLinesFollowCatalogOrder(t *testing.T) {
	e := NewEngine(snapshot(t, "1.00", "2.00", "3.00"))
	require.NoError(t, e.Add("c"))
	require.NoError(t, e.Add("a"))
	require.NoError(t, e.Add("b"))

	assert.Equal(t, []Line{{"a", 1}, {"b", 1}, {"c", 1}}, e.Lines())
}

func TestClearConfirmation(t *testing.T) {
	t.Run("empty cart has nothing to confirm", func(t *testing.T) {
		e := NewEngine(snapshot(t, "20.00"))
		_, err := e.RequestClear()
		assert.ErrorIs(t, err, ErrCartEmpty)
		_, ok := e.PendingClear()
		assert.False(t, ok)
	})

	t.Run("cancel leaves the cart as it was", func(t *testing.T) {
		e := NewEngine(snapshot(t, "20.00"))
		require.NoError(t, e.Add("a"))
		e.SetDiscountEnabled(true)
		before := e.Snapshot()

		req, err := e.RequestClear()
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, req.ID)
		require.NoError(t, e.CancelClear(req.ID))

		after := e.Snapshot()
		assert.Equal(t, before.Lines, after.Lines)
		assert.Equal(t, before.DiscountEnabled, after.DiscountEnabled)
		assert.Nil(t, after.PendingClear)
	})

	t.Run("confirm clears", func(t *testing.T) {
		e := NewEngine(snapshot(t, "20.00"))
		require.NoError(t, e.Add("a"))
		req, err := e.RequestClear()
		require.NoError(t, err)
		assert.Equal(t, 1, e.Quantity("a"), "nothing removed before confirmation")

		require.NoError(t, e.ConfirmClear(req.ID))
		assert.True(t, e.IsEmpty())
		assert.ErrorIs(t, e.ConfirmClear(req.ID), ErrNoPendingClear, "a request is used once")
	})

	t.Run("stale ids are refused", func(t *testing.T) {
		e := NewEngine(snapshot(t, "20.00"))
		require.NoError(t, e.Add("a"))
		first, err := e.RequestClear()
		require.NoError(t, err)
		second, err := e.RequestClear()
		require.NoError(t, err)

		assert.ErrorIs(t, e.ConfirmClear(first.ID), ErrNoPendingClear)
		assert.ErrorIs(t, e.CancelClear(uuid.New()), ErrNoPendingClear)
		assert.Equal(t, 1, e.Quantity("a"))

		pending, ok := e.PendingClear()
		require.True(t, ok)
		assert.Equal(t, second.ID, pending.ID)
	})

	t.Run("content change invalidates the request", func(t *testing.T) {
		e := NewEngine(snapshot(t, "20.00", "10.00"))
		require.NoError(t, e.Add("a"))
		req, err := e.RequestClear()
		require.NoError(t, err)

		require.NoError(t, e.Add("b"))
		assert.ErrorIs(t, e.ConfirmClear(req.ID), ErrNoPendingClear)
		assert.Equal(t, 2, e.ItemCount())
	})

	t.Run("discount toggle keeps the request", func(t *testing.T) {
		e := NewEngine(snapshot(t, "20.00"))
		require.NoError(t, e.Add("a"))
		req, err := e.RequestClear()
		require.NoError(t, err)

		e.SetDiscountEnabled(true)
		require.NoError(t, e.ConfirmClear(req.ID))
		assert.True(t, e.IsEmpty())
	})
}

func TestChanges(t *testing.T) {
	e := NewEngine(snapshot(t, "20.00"))
	got := record(e)

	require.NoError(t, e.Add("a"))
	require.NoError(t, e.Add("a"))
	require.NoError(t, e.UpdateQuantity("a", true))
	require.NoError(t, e.Add("a"))
	require.NoError(t, e.UpdateQuantity("a", false))
	require.NoError(t, e.UpdateQuantity("a", false))
	e.SetDiscountEnabled(false)
	e.SetDiscountEnabled(true)
	e.SetDiscountEnabled(true)

	assert.Equal(t, []ChangeKind{LineAdded, LineUpdated, LineUpdated, LineRemoved, DiscountChanged}, kinds(*got))
	assert.Equal(t, 2, (*got)[1].Quantity)
	assert.Equal(t, "a", (*got)[3].BookID)
	assert.True(t, (*got)[4].Discount)
}

func TestClearChanges(t *testing.T) {
	e := NewEngine(snapshot(t, "20.00"))
	require.NoError(t, e.Add("a"))
	got := record(e)

	req, err := e.RequestClear()
	require.NoError(t, err)
	again, err := e.RequestClear()
	require.NoError(t, err)
	e.Clear()

	require.Equal(t, []ChangeKind{ClearRequested, ClearCancelled, ClearRequested, Cleared, ClearCancelled}, kinds(*got))
	assert.Equal(t, req.ID, (*got)[0].RequestID)
	assert.Equal(t, req.ID, (*got)[1].RequestID)
	assert.Equal(t, again.ID, (*got)[4].RequestID)

	*got = nil
	require.NoError(t, e.Add("a"))
	req, err = e.RequestClear()
	require.NoError(t, err)
	require.NoError(t, e.ConfirmClear(req.ID))
	assert.Equal(t, []ChangeKind{LineAdded, ClearRequested, ClearConfirmed}, kinds(*got))
	assert.Equal(t, req.ID, (*got)[2].RequestID)
}

func TestClearOfEmptyCartEmitsNothing(t *testing.T) {
	e := NewEngine(snapshot(t, "20.00"))
	e.SetDiscountEnabled(true)
	got := record(e)

	e.Clear()
	assert.Empty(t, *got)
	assert.True(t, e.DiscountEnabled())

	require.NoError(t, e.Add("a"))
	e.Clear()
	e.Clear()
	assert.Equal(t, []ChangeKind{LineAdded, Cleared}, kinds(*got))
}

func TestUnsubscribe(t *testing.T) {
	e := NewEngine(snapshot(t, "20.00"))
	var n int
	stop := e.Subscribe(func(Change) { n++ })
	require.NoError(t, e.Add("a"))
	stop()
	require.NoError(t, e.UpdateQuantity("a", true))
	assert.Equal(t, 1, n)
}

func TestObserverMayReadEngine(t *testing.T) {
	e := NewEngine(snapshot(t, "20.00"))
	var totals []string
	e.Subscribe(func(Change) { totals = append(totals, e.Total().String()) })

	require.NoError(t, e.Add("a"))
	require.NoError(t, e.UpdateQuantity("a", true))
	assert.Equal(t, []string{"20.00", "40.00"}, totals)
}

func TestObserverMaySubscribeAndUnsubscribe(t *testing.T) {
	e := NewEngine(snapshot(t, "20.00"))
	var late []ChangeKind
	var once func()
	once = e.Subscribe(func(c Change) {
		once()
		e.Subscribe(func(c Change) { late = append(late, c.Kind) })
	})

	require.NoError(t, e.Add("a"))
	require.NoError(t, e.UpdateQuantity("a", true))
	assert.Equal(t, []ChangeKind{LineUpdated}, late)
}

func TestConcurrentIntents(t *testing.T) {
	e := NewEngine(snapshot(t, "20.00", "10.00"))
	var mu sync.Mutex
	var events int
	e.Subscribe(func(Change) {
		mu.Lock()
		events++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, e.UpdateQuantity("a", true))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, e.UpdateQuantity("b", true))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, e.Quantity("a"))
	assert.Equal(t, 50, e.Quantity("b"))
	assert.Equal(t, "1500.00", e.Total().String())
	assert.Equal(t, 100, events)
}

func TestScenarioDiscountThenEmpty(t *testing.T) {
	e := NewEngine(snapshot(t, "20.00"))

	require.NoError(t, e.Add("a"))
	require.NoError(t, e.UpdateQuantity("a", true))
	assert.Equal(t, "40.00", e.Total().Round2().String())

	e.SetDiscountEnabled(true)
	assert.Equal(t, "36.00", e.Total().Round2().String())

	require.NoError(t, e.UpdateQuantity("a", false))
	require.NoError(t, e.UpdateQuantity("a", false))
	assert.True(t, e.IsEmpty())
	assert.Equal(t, "0.00", e.Total().Round2().String())
}

func TestScenarioCancelThenConfirm(t *testing.T) {
	e := NewEngine(snapshot(t, "15.00", "25.00"))
	require.NoError(t, e.Add("a"))
	require.NoError(t, e.Add("b"))
	assert.Equal(t, "40.00", e.Total().String())

	req, err := e.RequestClear()
	require.NoError(t, err)
	require.NoError(t, e.CancelClear(req.ID))
	assert.Equal(t, "40.00", e.Total().String())

	req, err = e.RequestClear()
	require.NoError(t, err)
	require.NoError(t, e.ConfirmClear(req.ID))
	assert.Equal(t, "0.00", e.Total().String())
	assert.True(t, e.IsEmpty())
}
