package main

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/ahinestrog/bestsellers/internal/cart"
	"github.com/ahinestrog/bestsellers/internal/rpc"
)

//go:embed templates/*.html
var templatesFS embed.FS

type Server struct {
	tpl     *template.Template
	catalog rpc.CatalogClient
	cart    rpc.CartClient
	timeout time.Duration
	origins []string
}

func NewServer(catalog rpc.CatalogClient, cartClient rpc.CartClient, timeout time.Duration, origins []string) *Server {
	funcs := template.FuncMap{
		"year": func() int { return time.Now().Year() },
	}
	tpl := template.Must(template.New("layout.html").Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", "templates/index.html"))
	return &Server{tpl: tpl, catalog: catalog, cart: cartClient, timeout: timeout, origins: origins}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(withLog)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Post("/catalog/reload", s.handleReload)
	r.Route("/cart", func(r chi.Router) {
		r.Post("/add", s.formIntent(func(r *http.Request) Intent {
			return Intent{Type: IntentAddToCart, BookID: r.PostFormValue("book_id")}
		}))
		r.Post("/increment", s.formIntent(func(r *http.Request) Intent {
			return Intent{Type: IntentChangeQuantity, BookID: r.PostFormValue("book_id"), Delta: 1}
		}))
		r.Post("/decrement", s.formIntent(func(r *http.Request) Intent {
			return Intent{Type: IntentChangeQuantity, BookID: r.PostFormValue("book_id"), Delta: -1}
		}))
		r.Post("/discount", s.formIntent(func(r *http.Request) Intent {
			on, _ := strconv.ParseBool(r.PostFormValue("enabled"))
			return Intent{Type: IntentToggleDiscount, Enabled: on || r.PostFormValue("enabled") == "on"}
		}))
		r.Post("/clear", s.formIntent(func(r *http.Request) Intent {
			return Intent{Type: IntentRequestClear}
		}))
		r.Post("/clear/confirm", s.formIntent(func(r *http.Request) Intent {
			return Intent{Type: IntentConfirmClear, RequestID: formUUID(r, "request_id")}
		}))
		r.Post("/clear/cancel", s.formIntent(func(r *http.Request) Intent {
			return Intent{Type: IntentCancelClear, RequestID: formUUID(r, "request_id")}
		}))
	})

	api := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	r.Route("/api", func(r chi.Router) {
		r.Use(api.Handler)
		r.Get("/screen", s.handleScreen)
		r.Post("/intents", s.handleIntent)
	})
	return r
}

func withLog(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		h.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("req_id", middleware.GetReqID(r.Context())).
			Msg("http")
	})
}

func (s *Server) ctx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.timeout)
}

// page is everything the single screen needs.
type page struct {
	Catalog *rpc.CatalogStatus
	Screen  cart.Screen
	Msg     string
	Error   string
}

// load gathers catalog state, books and cart. A catalog that is not ready is
// reported in the page rather than failing it.
func (s *Server) load(ctx context.Context) (page, error) {
	var p page
	st, err := s.catalog.Status(ctx, &rpc.Empty{})
	if err != nil {
		st = &rpc.CatalogStatus{State: rpc.CatalogUnavailable, Reason: err.Error()}
	}
	p.Catalog = st

	var list *rpc.BookList
	if st.State == rpc.CatalogReady {
		list, err = s.catalog.ListBooks(ctx, &rpc.Empty{})
		if err != nil {
			p.Catalog = &rpc.CatalogStatus{State: rpc.CatalogUnavailable, Reason: err.Error()}
		}
	}

	view, err := s.cart.GetCart(ctx, &rpc.Empty{})
	if err != nil {
		return p, err
	}
	p.Screen = cart.NewScreen(list.Domain(), view.State(), view.Total)
	return p, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.ctx(r)
	defer cancel()

	p, err := s.load(ctx)
	if err != nil {
		log.Error().Err(err).Msg("load screen")
		httpError(w, "The cart is unavailable: "+userMessage(err), httpStatus(err))
		return
	}
	p.Msg = r.URL.Query().Get("msg")
	p.Error = r.URL.Query().Get("error")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.ExecuteTemplate(w, "layout.html", p); err != nil {
		log.Error().Err(err).Msg("template execute")
	}
}

// formIntent handles a form post the PRG way: apply, then redirect back to
// the screen with the outcome in the query string.
func (s *Server) formIntent(build func(*http.Request) Intent) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			httpError(w, err.Error(), http.StatusBadRequest)
			return
		}
		in := build(r)

		ctx, cancel := s.ctx(r)
		defer cancel()
		_, msg, err := s.apply(ctx, in)
		q := url.Values{}
		if err != nil {
			log.Warn().Err(err).Str("intent", in.Type).Str("book", in.BookID).Msg("intent failed")
			q.Set("error", userMessage(err))
		} else if msg != "" {
			q.Set("msg", msg)
		}
		target := "/"
		if len(q) > 0 {
			target += "?" + q.Encode()
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.ctx(r)
	defer cancel()
	target := "/"
	if _, err := s.catalog.Reload(ctx, &rpc.Empty{}); err != nil {
		log.Warn().Err(err).Msg("catalog reload")
		target += "?" + url.Values{"error": {"The catalog could not be reloaded."}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}

func formUUID(r *http.Request, key string) uuid.UUID {
	id, err := uuid.Parse(r.PostFormValue(key))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func httpError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte("<pre>" + template.HTMLEscapeString(msg) + "</pre>"))
}
