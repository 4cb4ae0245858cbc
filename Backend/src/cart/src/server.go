package main

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ahinestrog/bestsellers/internal/cart"
	"github.com/ahinestrog/bestsellers/internal/catalog"
	"github.com/ahinestrog/bestsellers/internal/rpc"
)

var errBadDelta = errors.New("delta must be +1 or -1")

// CartServer exposes the session cart over gRPC.
type CartServer struct {
	engine *cart.Engine
	books  *catalogBooks
}

func NewCartServer(engine *cart.Engine, books *catalogBooks) *CartServer {
	return &CartServer{engine: engine, books: books}
}

func (s *CartServer) view() *rpc.CartView {
	return rpc.CartViewFromState(s.engine.Snapshot(), s.books)
}

func (s *CartServer) GetCart(ctx context.Context, _ *rpc.Empty) (*rpc.CartView, error) {
	return s.view(), nil
}

func (s *CartServer) AddToCart(ctx context.Context, in *rpc.BookRef) (*rpc.CartView, error) {
	if err := s.needBook(ctx, in.BookID); err != nil {
		return nil, err
	}
	if err := s.engine.Add(in.BookID); err != nil {
		return nil, s.refuse("AddToCart", in.BookID, err)
	}
	log.Debug().Str("book", in.BookID).Msg("AddToCart")
	return s.view(), nil
}

func (s *CartServer) ChangeQuantity(ctx context.Context, in *rpc.QuantityChange) (*rpc.CartView, error) {
	var err error
	switch in.Delta {
	case 1:
		if err = s.needBook(ctx, in.BookID); err != nil {
			return nil, err
		}
		err = s.engine.UpdateQuantity(in.BookID, true)
	case -1:
		if strings.TrimSpace(in.BookID) == "" {
			return nil, status.Error(codes.InvalidArgument, "book_id is required")
		}
		err = s.engine.UpdateQuantity(in.BookID, false)
	default:
		err = errBadDelta
	}
	if err != nil {
		return nil, s.refuse("ChangeQuantity", in.BookID, err)
	}
	log.Debug().Str("book", in.BookID).Int32("delta", in.Delta).Msg("ChangeQuantity")
	return s.view(), nil
}

func (s *CartServer) SetDiscount(ctx context.Context, in *rpc.DiscountToggle) (*rpc.CartView, error) {
	s.engine.SetDiscountEnabled(in.Enabled)
	log.Debug().Bool("enabled", in.Enabled).Msg("SetDiscount")
	return s.view(), nil
}

func (s *CartServer) RequestClear(ctx context.Context, _ *rpc.Empty) (*rpc.CartView, error) {
	req, err := s.engine.RequestClear()
	if err != nil {
		return nil, s.refuse("RequestClear", "", err)
	}
	log.Debug().Str("request", req.ID.String()).Msg("RequestClear")
	return s.view(), nil
}

func (s *CartServer) ConfirmClear(ctx context.Context, in *rpc.ClearDecision) (*rpc.CartView, error) {
	if err := s.engine.ConfirmClear(in.RequestID); err != nil {
		return nil, s.refuse("ConfirmClear", "", err)
	}
	log.Info().Str("request", in.RequestID.String()).Msg("cart cleared")
	return s.view(), nil
}

func (s *CartServer) CancelClear(ctx context.Context, in *rpc.ClearDecision) (*rpc.CartView, error) {
	if err := s.engine.CancelClear(in.RequestID); err != nil {
		return nil, s.refuse("CancelClear", "", err)
	}
	return s.view(), nil
}

// needBook makes sure the catalog is here before an intent that must know
// the book.
func (s *CartServer) needBook(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return status.Error(codes.InvalidArgument, "book_id is required")
	}
	if _, err := s.books.Ensure(ctx); err != nil {
		log.Warn().Err(err).Msg("catalog not reachable")
		return mapError(err)
	}
	return nil
}

func (s *CartServer) refuse(op, bookID string, err error) error {
	log.Warn().Err(err).Str("op", op).Str("book", bookID).Msg("intent refused")
	return mapError(err)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, cart.ErrUnknownBook):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, catalog.ErrCatalogUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, cart.ErrNoPendingClear), errors.Is(err, cart.ErrCartEmpty):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, errBadDelta):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
