package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ahinestrog/bestsellers/internal/rpc"
)

// Intent types accepted by POST /api/intents.
const (
	IntentAddToCart      = "AddToCart"
	IntentChangeQuantity = "ChangeQuantity"
	IntentToggleDiscount = "ToggleDiscount"
	IntentRequestClear   = "RequestClear"
	IntentConfirmClear   = "ConfirmClear"
	IntentCancelClear    = "CancelClear"
)

type Intent struct {
	Type      string    `json:"type"`
	BookID    string    `json:"book_id,omitempty"`
	Delta     int32     `json:"delta,omitempty"`
	Enabled   bool      `json:"enabled,omitempty"`
	RequestID uuid.UUID `json:"request_id"`
}

var errUnknownIntent = errors.New("unknown intent")

// apply forwards one intent to the cart service. The message is what the
// user is told on success, if anything.
func (s *Server) apply(ctx context.Context, in Intent) (*rpc.CartView, string, error) {
	switch in.Type {
	case IntentAddToCart:
		v, err := s.cart.AddToCart(ctx, &rpc.BookRef{BookID: in.BookID})
		return v, "", err
	case IntentChangeQuantity:
		v, err := s.cart.ChangeQuantity(ctx, &rpc.QuantityChange{BookID: in.BookID, Delta: in.Delta})
		return v, "", err
	case IntentToggleDiscount:
		v, err := s.cart.SetDiscount(ctx, &rpc.DiscountToggle{Enabled: in.Enabled})
		return v, "", err
	case IntentRequestClear:
		v, err := s.cart.RequestClear(ctx, &rpc.Empty{})
		return v, "", err
	case IntentConfirmClear:
		v, err := s.cart.ConfirmClear(ctx, &rpc.ClearDecision{RequestID: in.RequestID})
		return v, "Your cart has been cleared.", err
	case IntentCancelClear:
		v, err := s.cart.CancelClear(ctx, &rpc.ClearDecision{RequestID: in.RequestID})
		return v, "Nothing was removed.", err
	default:
		return nil, "", fmt.Errorf("%w %q", errUnknownIntent, in.Type)
	}
}

// userMessage turns a failed intent into the banner text shown on screen.
func userMessage(err error) string {
	if errors.Is(err, errUnknownIntent) {
		return err.Error()
	}
	switch status.Code(err) {
	case codes.NotFound:
		return "That book is not in the catalog."
	case codes.FailedPrecondition:
		return "That action no longer applies. The cart may have changed."
	case codes.Unavailable:
		return "The catalog is unavailable right now."
	case codes.InvalidArgument:
		return "That request was not understood."
	case codes.DeadlineExceeded:
		return "The store took too long to answer."
	default:
		return "Something went wrong. Please try again."
	}
}

func httpStatus(err error) int {
	if errors.Is(err, errUnknownIntent) {
		return http.StatusBadRequest
	}
	switch status.Code(err) {
	case codes.NotFound:
		return http.StatusNotFound
	case codes.FailedPrecondition:
		return http.StatusConflict
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
