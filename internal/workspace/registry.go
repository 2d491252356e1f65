package workspace

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"docsflow/internal/api"
	"docsflow/internal/auth"
	"docsflow/internal/config"
	"docsflow/internal/repository"
	"docsflow/internal/repository/remote"
	"docsflow/internal/service"
	"docsflow/internal/session"
)

// Workspace is everything one browser session owns. Workspaces share nothing
// mutable except the underlying session store.
type Workspace struct {
	ID        string
	Session   *session.Session
	Client    *api.Client
	Auth      *auth.Manager
	Repo      repository.DocumentRepository
	Documents *service.DocumentController
	Uploads   *service.UploadOrchestrator
	Dashboard *service.Dashboard

	loginRequired atomic.Bool
	lastSeen      atomic.Int64
	restoreOnce   sync.Once
}

// RedirectToLogin is invoked by the API client after a 401.
func (w *Workspace) RedirectToLogin() {
	w.Auth.Expire()
	w.loginRequired.Store(true)
}

// TakeLoginRedirect reports and resets the pending login redirect.
func (w *Workspace) TakeLoginRedirect() bool {
	return w.loginRequired.Swap(false)
}

// LastSeen returns when the workspace was last handed out.
func (w *Workspace) LastSeen() time.Time {
	return time.Unix(0, w.lastSeen.Load())
}

// Options configure every workspace a Registry builds.
type Options struct {
	API        config.APIConfig
	Upload     config.UploadConfig
	HTTPClient *http.Client
}

// Registry maps browser session ids to workspaces.
type Registry struct {
	store session.Store
	opts  Options
	now   func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

func NewRegistry(store session.Store, opts Options) *Registry {
	return &Registry{
		store:      store,
		opts:       opts,
		now:        time.Now,
		workspaces: make(map[string]*Workspace),
	}
}

// Store returns the session store backing every workspace.
func (r *Registry) Store() session.Store { return r.store }

func (r *Registry) build(id string) *Workspace {
	w := &Workspace{ID: id}
	w.Session = session.New(r.store, session.TokenKey+":"+id)

	clientOpts := []api.ClientOption{
		api.WithBaseURL(r.opts.API.BaseURL),
		api.WithTimeout(r.opts.API.Timeout),
		api.WithSession(w.Session),
		api.WithNavigator(w),
	}
	if r.opts.API.UserAgent != "" {
		clientOpts = append(clientOpts, api.WithUserAgent(r.opts.API.UserAgent))
	}
	if r.opts.HTTPClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(r.opts.HTTPClient))
	}
	w.Client = api.NewClient(clientOpts...)

	w.Auth = auth.NewManager(w.Client, w.Session)
	w.Repo = remote.NewDocumentRemote(w.Client, r.opts.API)
	w.Documents = service.NewDocumentController(w.Repo, service.ControllerOptions{DefaultLimit: r.opts.API.PageSize})
	w.Uploads = service.NewUploadOrchestrator(w.Repo, r.opts.Upload.Concurrency)
	w.Dashboard = service.NewDashboard(w.Repo)
	return w
}

// Get returns the workspace for id, creating it on first use. A new
// workspace restores its auth state from the session store before Get returns.
func (r *Registry) Get(ctx context.Context, id string) *Workspace {
	r.mu.Lock()
	w, ok := r.workspaces[id]
	if !ok {
		w = r.build(id)
		r.workspaces[id] = w
	}
	w.lastSeen.Store(r.now().UnixNano())
	r.mu.Unlock()

	w.restoreOnce.Do(func() {
		w.Auth.Restore(ctx)
		log.Ctx(ctx).Debug().
			Bool("authenticated", w.Auth.IsAuthenticated()).
			Msg("workspace restored")
	})
	return w
}

// Lookup returns an existing workspace without creating one.
func (r *Registry) Lookup(id string) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workspaces[id]
	return w, ok
}

// Drop forgets a workspace. Its stored credential is left in place.
func (r *Registry) Drop(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workspaces[id]; !ok {
		return false
	}
	delete(r.workspaces, id)
	return true
}

// Sweep drops workspaces not seen for maxIdle and returns how many went.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle).UnixNano()
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, w := range r.workspaces {
		if w.lastSeen.Load() < cutoff {
			delete(r.workspaces, id)
			n++
		}
	}
	return n
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	if interval <= 0 || maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(maxIdle); n > 0 {
				log.Info().Int("evicted", n).Int("remaining", r.Len()).Msg("idle workspaces swept")
			}
		}
	}
}
