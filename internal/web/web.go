package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/notenexus/internal/auth"
	"github.com/desertthunder/notenexus/internal/catalog"
	"github.com/desertthunder/notenexus/internal/models"
	"github.com/desertthunder/notenexus/internal/server"
	"github.com/desertthunder/notenexus/internal/store"
)

// SavedStore is the subset of [store.Store] the saved-content routes use.
type SavedStore interface {
	SaveLeaf(userID string, kind models.Kind, in store.LeafInput) ([]models.LeafItem, error)
	RemoveLeaf(userID string, kind models.Kind, leafID string) ([]models.LeafItem, error)
	SaveCourse(userID, courseName, courseID string) ([]models.CourseRef, error)
	RemoveCourse(userID, courseID string) ([]models.CourseRef, error)
	ListAll(userID string) (models.SavedContent, error)
	List(userID string, kind models.Kind) ([]models.LeafItem, error)
	Courses(userID string) ([]models.CourseRef, error)
}

// Deps holds everything the router needs.
type Deps struct {
	Store    SavedStore
	Accounts *auth.Accounts
	Catalog  *catalog.Catalog
	Metrics  *server.Metrics
	Logger   *log.Logger

	AllowedOrigins []string
	RatePerMinute  int
	Burst          int
}

// API serves the JSON routes.
type API struct {
	store     SavedStore
	accounts  *auth.Accounts
	catalog   *catalog.Catalog
	metrics   *server.Metrics
	logger    *log.Logger
	validator *requestValidator
}

// NewRouter builds the HTTP handler. Metrics and authentication wrap individual routes;
// logging, panic recovery and CORS wrap the whole mux so preflight requests are answered.
func NewRouter(d Deps) (http.Handler, error) {
	if d.Store == nil || d.Accounts == nil || d.Catalog == nil {
		return nil, fmt.Errorf("web: store, accounts and catalog are required")
	}
	if d.Logger == nil {
		d.Logger = log.Default()
	}
	if d.Metrics == nil {
		d.Metrics = server.NewMetrics("notenexus")
	}

	v, err := newRequestValidator()
	if err != nil {
		return nil, err
	}

	api := &API{
		store:     d.Store,
		accounts:  d.Accounts,
		catalog:   d.Catalog,
		metrics:   d.Metrics,
		logger:    d.Logger.WithPrefix("web"),
		validator: v,
	}

	router := server.NewBasicRouter()
	router.Use(d.Metrics.Middleware)

	api.registerAuth(router, server.RateLimit(d.RatePerMinute, d.Burst))
	api.registerSaved(router, server.Authenticate(d.Accounts, api.logger))
	api.registerCatalog(router)

	router.HandleFunc(http.MethodGet, "/health", func(w http.ResponseWriter, _ *http.Request) {
		server.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Handle(http.MethodGet, "/metrics", d.Metrics.Handler())

	return server.Chain(router,
		server.Logging(api.logger),
		server.Recover(api.logger),
		server.CORS(d.AllowedOrigins),
	), nil
}

// catalogFiles serves documents below the catalog root under /database/.
type catalogFiles struct {
	files http.Handler
}

func newCatalogFiles(root string) catalogFiles {
	prefix := "/" + catalog.URLPrefix + "/"
	return catalogFiles{files: http.StripPrefix(prefix, http.FileServer(http.Dir(root)))}
}

// ServeHTTP refuses directory listings and hidden entries.
func (c catalogFiles) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/") || strings.Contains(r.URL.Path, "/.") {
		server.WriteError(w, http.StatusNotFound, "File not found")
		return
	}
	c.files.ServeHTTP(w, r)
}

// Routes implements [server.Handler].
func (c catalogFiles) Routes() []string {
	return []string{http.MethodGet + " /" + catalog.URLPrefix + "/"}
}
