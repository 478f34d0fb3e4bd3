// Package demosite serves an in-process replica of the pages the browser
// suite exercises: form authentication with a secure area, add/remove
// elements, checkboxes and a dropdown. Suites run against it when BASE_URL
// points nowhere else, and `e2e serve` exposes it on a port.
package demosite

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kuitang/internet-e2e/internal/config"
	"github.com/kuitang/internet-e2e/internal/obs"
)

// Flash messages.
const (
	MsgLoggedIn        = "You logged into a secure area!"
	MsgInvalidUsername = "Your username is invalid!"
	MsgInvalidPassword = "Your password is invalid!"
	MsgLoggedOut       = "You logged out of the secure area!"
	MsgLoginRequired   = "You must login to view the secure area!"
)

// Options configures the demo account and login throttle. Zero values take
// the defaults.
type Options struct {
	Username string
	Password string

	// BcryptCost is the cost for hashing the demo password.
	BcryptCost int

	LoginRPS   float64
	LoginBurst int
}

func (o Options) withDefaults() Options {
	if o.Username == "" {
		o.Username = config.DefaultUsername
	}
	if o.Password == "" {
		o.Password = config.DefaultPassword
	}
	if o.BcryptCost < bcrypt.MinCost || o.BcryptCost > bcrypt.MaxCost {
		o.BcryptCost = bcrypt.MinCost
	}
	if o.LoginRPS <= 0 {
		o.LoginRPS = 50
	}
	if o.LoginBurst <= 0 {
		o.LoginBurst = 100
	}
	return o
}

// Server is the demo site handler set.
type Server struct {
	opts         Options
	passwordHash []byte
	renderer     *Renderer
	sessions     *sessionStore
	limiter      *loginLimiter
	homeMarkdown string
}

// New builds a server with its templates, content and account.
func New(opts Options) (*Server, error) {
	opts = opts.withDefaults()

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("demosite: failed to hash password: %w", err)
	}
	renderer, err := newEmbeddedRenderer()
	if err != nil {
		return nil, fmt.Errorf("demosite: %w", err)
	}
	home, err := loadContent("home.md")
	if err != nil {
		return nil, fmt.Errorf("demosite: %w", err)
	}

	return &Server{
		opts:         opts,
		passwordHash: hash,
		renderer:     renderer,
		sessions:     newSessionStore(),
		limiter:      newLoginLimiter(opts.LoginRPS, opts.LoginBurst, 10*time.Minute),
		homeMarkdown: home,
	}, nil
}

// RegisterRoutes adds the site's routes to mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /login", s.handleLogin)
	mux.Handle("POST /authenticate", s.limiter.middleware(http.HandlerFunc(s.handleAuthenticate)))
	mux.HandleFunc("GET /secure", s.handleSecure)
	mux.HandleFunc("GET /logout", s.handleLogout)
	mux.HandleFunc("GET /add_remove_elements/{$}", s.handleStatic("add_remove_elements"))
	mux.HandleFunc("GET /checkboxes", s.handleStatic("checkboxes"))
	mux.HandleFunc("GET /dropdown", s.handleStatic("dropdown"))
	mux.HandleFunc("GET /healthz", handleHealth)
}

// Handler returns the routes wrapped with access logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return obs.AccessLogMiddleware("demosite", mux)
}

type pageData struct {
	Flash        *Flash
	Markdown     string
	Username     string
	PasswordHint string
	User         string
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, page string, data pageData) {
	data.Flash = s.sessions.popFlash(r)
	if err := s.renderer.Render(w, http.StatusOK, page, data); err != nil {
		obs.From(r.Context()).Error("render_failed", "page", page, "error", err)
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "home", pageData{Markdown: s.homeMarkdown})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "login", pageData{
		Username:     s.opts.Username,
		PasswordHint: s.opts.Password,
	})
}

func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	log := obs.From(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	id := s.sessions.ensure(w, r)
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	switch {
	case username != s.opts.Username:
		log.Info("login_rejected", "reason", "username")
		s.sessions.setFlash(id, Flash{Kind: "error", Message: MsgInvalidUsername})
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) != nil:
		log.Info("login_rejected", "reason", "password")
		s.sessions.setFlash(id, Flash{Kind: "error", Message: MsgInvalidPassword})
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	default:
		log.Info("login_succeeded")
		s.sessions.setUser(id, username)
		s.sessions.setFlash(id, Flash{Kind: "success", Message: MsgLoggedIn})
		http.Redirect(w, r, "/secure", http.StatusSeeOther)
	}
}

func (s *Server) handleSecure(w http.ResponseWriter, r *http.Request) {
	user := s.sessions.user(r)
	if user == "" {
		id := s.sessions.ensure(w, r)
		s.sessions.setFlash(id, Flash{Kind: "error", Message: MsgLoginRequired})
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	s.render(w, r, "secure", pageData{User: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	id := s.sessions.ensure(w, r)
	s.sessions.setUser(id, "")
	s.sessions.setFlash(id, Flash{Kind: "success", Message: MsgLoggedOut})
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleStatic(page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, page, pageData{})
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
