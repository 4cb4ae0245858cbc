// Package money holds the two-decimal amounts shown by the storefront.
package money

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Amount keeps full precision internally; rounding to cents happens only
// when the amount is rendered.
type Amount struct{ d decimal.Decimal }

var Zero = Amount{d: decimal.Zero}

func FromCents(cents int64) Amount { return Amount{d: decimal.New(cents, -2)} }

// Parse accepts "12.34", "12" or "12.3456".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return Amount{d: d}, nil
}

func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Add(o Amount) Amount   { return Amount{d: a.d.Add(o.d)} }
func (a Amount) Mul(qty int) Amount    { return Amount{d: a.d.Mul(decimal.NewFromInt(int64(qty)))} }
func (a Amount) Scale(f string) Amount { return Amount{d: a.d.Mul(decimal.RequireFromString(f))} }

func (a Amount) IsZero() bool             { return a.d.IsZero() }
func (a Amount) Equal(o Amount) bool      { return a.d.Equal(o.d) }
func (a Amount) LessThan(o Amount) bool   { return a.d.LessThan(o.d) }
func (a Amount) Cmp(o Amount) int         { return a.d.Cmp(o.d) }
func (a Amount) Decimal() decimal.Decimal { return a.d }

// Round2 rounds half away from zero to cents.
func (a Amount) Round2() Amount { return Amount{d: a.d.Round(2)} }

// Cents of the rounded amount.
func (a Amount) Cents() int64 { return a.d.Round(2).Shift(2).IntPart() }

// String is the plain two-decimal form used on the wire ("36.00").
func (a Amount) String() string { return a.d.StringFixed(2) }

// Display is the screen form with thousands separators ("$1,234.50").
func (a Amount) Display() string {
	f, _ := a.d.Round(2).Float64()
	return "$" + humanize.FormatFloat("#,###.##", f)
}

func (a Amount) MarshalJSON() ([]byte, error) { return json.Marshal(a.String()) }

func (a *Amount) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("money: amount must be a string: %w", err)
	}
	p, err := Parse(s)
	if err != nil {
		return err
	}
	*a = p
	return nil
}
