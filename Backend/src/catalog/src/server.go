package main

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ahinestrog/bestsellers/internal/catalog"
	"github.com/ahinestrog/bestsellers/internal/events"
	"github.com/ahinestrog/bestsellers/internal/rpc"
)

var errBookNotFound = errors.New("book not found")

type Loader interface {
	Load(ctx context.Context) ([]catalog.Book, error)
}

// CatalogServer serves the one snapshot loaded for this process. The state
// goes loading -> ready or loading -> unavailable; only an unavailable
// catalog may be loaded again, and a ready snapshot is never replaced.
type CatalogServer struct {
	loader Loader
	events events.Sink
	base   context.Context

	mu       sync.Mutex
	state    string
	reason   string
	snap     *catalog.Snapshot
	loadedAt time.Time
	wg       sync.WaitGroup
}

func NewCatalogServer(base context.Context, loader Loader, sink events.Sink) *CatalogServer {
	return &CatalogServer{loader: loader, events: sink, base: base, state: rpc.CatalogLoading}
}

// Start runs the first load in the background.
func (s *CatalogServer) Start() {
	s.mu.Lock()
	s.state = rpc.CatalogLoading
	s.mu.Unlock()
	s.goLoad()
}

func (s *CatalogServer) goLoad() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.load(s.base)
	}()
}

// Wait blocks until no load is running.
func (s *CatalogServer) Wait() { s.wg.Wait() }

func (s *CatalogServer) load(ctx context.Context) {
	start := time.Now()
	books, err := s.loader.Load(ctx)
	var snap *catalog.Snapshot
	if err == nil {
		snap, err = catalog.NewSnapshot(books)
	}

	s.mu.Lock()
	if err != nil {
		s.state, s.reason = rpc.CatalogUnavailable, err.Error()
	} else {
		s.state, s.reason, s.snap, s.loadedAt = rpc.CatalogReady, "", snap, time.Now()
	}
	loadedAt := s.loadedAt
	s.mu.Unlock()

	pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err != nil {
		log.Error().Err(err).Dur("took", time.Since(start)).Msg("catalog unavailable")
		s.publish(pubCtx, events.CatalogUnavailable, events.CatalogUnavailableEvent{Reason: err.Error()})
		return
	}
	log.Info().Int("books", snap.Len()).Dur("took", time.Since(start)).Msg("catalog loaded")
	s.publish(pubCtx, events.CatalogLoaded, events.CatalogLoadedEvent{Books: snap.Len(), LoadedAt: loadedAt})
}

func (s *CatalogServer) publish(ctx context.Context, key string, v any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, key, v); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("publish failed")
	}
}

func (s *CatalogServer) ready() (*catalog.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != rpc.CatalogReady {
		return nil, catalog.ErrCatalogUnavailable
	}
	return s.snap, nil
}

func (s *CatalogServer) status() *rpc.CatalogStatus {
	return &rpc.CatalogStatus{State: s.state, Reason: s.reason, Books: s.snap.Len(), LoadedAt: s.loadedAt}
}

func (s *CatalogServer) ListBooks(ctx context.Context, _ *rpc.Empty) (*rpc.BookList, error) {
	snap, err := s.ready()
	if err != nil {
		return nil, mapError(err)
	}
	return rpc.BookListFromDomain(snap.Books()), nil
}

func (s *CatalogServer) GetBook(ctx context.Context, in *rpc.BookRef) (*rpc.Book, error) {
	if strings.TrimSpace(in.BookID) == "" {
		return nil, status.Error(codes.InvalidArgument, "book_id is required")
	}
	snap, err := s.ready()
	if err != nil {
		return nil, mapError(err)
	}
	b, ok := snap.Lookup(in.BookID)
	if !ok {
		return nil, mapError(errBookNotFound)
	}
	return rpc.BookFromDomain(b), nil
}

func (s *CatalogServer) Status(ctx context.Context, _ *rpc.Empty) (*rpc.CatalogStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status(), nil
}

// Reload retries a failed load. It answers at once with state loading.
func (s *CatalogServer) Reload(ctx context.Context, _ *rpc.Empty) (*rpc.CatalogStatus, error) {
	s.mu.Lock()
	if s.state != rpc.CatalogUnavailable {
		st := s.state
		s.mu.Unlock()
		return nil, status.Errorf(codes.FailedPrecondition, "catalog is %s", st)
	}
	s.state, s.reason = rpc.CatalogLoading, ""
	out := s.status()
	s.mu.Unlock()

	log.Info().Msg("catalog reload requested")
	s.goLoad()
	return out, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, catalog.ErrCatalogUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, errBookNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
