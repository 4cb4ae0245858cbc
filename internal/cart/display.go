package cart

import (
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/ahinestrog/bestsellers/internal/catalog"
	"github.com/ahinestrog/bestsellers/internal/money"
)

// Row is one book of the list as the screen shows it.
type Row struct {
	Book        catalog.Book `json:"book"`
	Quantity    int          `json:"quantity"`
	ShowAdd     bool         `json:"show_add"`
	ShowStepper bool         `json:"show_stepper"`
}

type Summary struct {
	Total         money.Amount  `json:"total"`
	TotalText     string        `json:"total_text"`
	ItemCount     int           `json:"item_count"`
	ItemCountText string        `json:"item_count_text"`
	Discount      bool          `json:"discount"`
	ShowClear     bool          `json:"show_clear"`
	ShowItemCount bool          `json:"show_item_count"`
	PendingClear  *ClearRequest `json:"pending_clear,omitempty"`
}

type Screen struct {
	Rows    []Row   `json:"rows"`
	Summary Summary `json:"summary"`
}

// NewScreen lays the cart over the book list. total is rounded here and only
// here.
func NewScreen(books []catalog.Book, st State, total money.Amount) Screen {
	rows := make([]Row, 0, len(books))
	for _, b := range books {
		q := st.Quantity(b.ID)
		rows = append(rows, Row{Book: b, Quantity: q, ShowAdd: q == 0, ShowStepper: q > 0})
	}
	rounded := total.Round2()
	count := st.ItemCount()
	return Screen{
		Rows: rows,
		Summary: Summary{
			Total:         rounded,
			TotalText:     rounded.Display(),
			ItemCount:     count,
			ItemCountText: ItemCountText(count),
			Discount:      st.DiscountEnabled,
			ShowClear:     !st.IsEmpty(),
			ShowItemCount: !st.IsEmpty(),
			PendingClear:  st.PendingClear,
		},
	}
}

// ItemCountText renders 1 as "1 item" and 1200 as "1,200 items".
func ItemCountText(n int) string {
	return humanize.Comma(int64(n)) + " " + english.PluralWord(n, "item", "")
}
