package web

import (
	"errors"
	"net/http"

	"github.com/desertthunder/notenexus/internal/auth"
	"github.com/desertthunder/notenexus/internal/models"
	"github.com/desertthunder/notenexus/internal/server"
	"github.com/desertthunder/notenexus/internal/shared"
	"github.com/desertthunder/notenexus/internal/store"
)

type courseRequest struct {
	CourseName string `json:"courseName" validate:"nonblank"`
	CourseID   string `json:"courseId"`
}

type leafRequest struct {
	Title      string `json:"title" validate:"nonblank"`
	CourseName string `json:"courseName" validate:"nonblank"`
	URL        string `json:"url"`
}

// messages are the caller-facing texts for one saved-content route.
type messages struct {
	invalid   string
	duplicate string
	notFound  string
}

func (m messages) pick(err error) string {
	switch {
	case errors.Is(err, shared.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, shared.ErrValidation):
		return m.invalid
	case errors.Is(err, shared.ErrDuplicate):
		return m.duplicate
	case errors.Is(err, shared.ErrNotFound):
		return m.notFound
	default:
		return ""
	}
}

func leafMessages(kind models.Kind) messages {
	return messages{
		invalid:   "Title and course name are required",
		duplicate: kind.Label() + " already saved",
		notFound:  kind.Label() + " not found",
	}
}

var courseMessages = messages{
	invalid:   "Course name is required",
	duplicate: "Course already saved",
	notFound:  "Course not found",
}

func (a *API) registerSaved(router *server.BasicRouter, authn server.Middleware) {
	routes := []struct {
		method, path string
		fn           http.HandlerFunc
	}{
		{http.MethodGet, "/api/saved", a.listAll},
		{http.MethodGet, "/api/saved/courses", a.listCourses},
		{http.MethodPost, "/api/saved/course", a.saveCourse},
		{http.MethodDelete, "/api/saved/course/{id}", a.removeCourse},
		{http.MethodGet, "/api/saved/{collection}", a.listLeaves},
		{http.MethodPost, "/api/saved/{kind}", a.saveLeaf},
		{http.MethodDelete, "/api/saved/{kind}/{id}", a.removeLeaf},
	}

	for _, route := range routes {
		router.Handle(route.method, route.path, server.Chain(route.fn, authn))
	}
}

func (a *API) listAll(w http.ResponseWriter, r *http.Request) {
	content, err := a.store.ListAll(auth.UserID(r.Context()))
	if err != nil {
		a.fail(w, r, err, courseMessages.pick(err))
		return
	}
	server.WriteJSON(w, http.StatusOK, content)
}

func (a *API) listCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := a.store.Courses(auth.UserID(r.Context()))
	if err != nil {
		a.fail(w, r, err, courseMessages.pick(err))
		return
	}
	server.WriteJSON(w, http.StatusOK, courses)
}

func (a *API) saveCourse(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := a.validator.decode(r, &req); err != nil {
		a.fail(w, r, err, courseMessages.invalid)
		return
	}

	courses, err := a.store.SaveCourse(auth.UserID(r.Context()), req.CourseName, req.CourseID)
	a.metrics.ObserveSaved("save", "course", err)
	if err != nil {
		a.fail(w, r, err, courseMessages.pick(err))
		return
	}
	server.WriteJSON(w, http.StatusOK, courses)
}

func (a *API) removeCourse(w http.ResponseWriter, r *http.Request) {
	courses, err := a.store.RemoveCourse(auth.UserID(r.Context()), r.PathValue("id"))
	a.metrics.ObserveSaved("remove", "course", err)
	if err != nil {
		a.fail(w, r, err, courseMessages.pick(err))
		return
	}
	server.WriteJSON(w, http.StatusOK, courses)
}

// listLeaves serves the plural listing routes: notes, syllabus and papers.
func (a *API) listLeaves(w http.ResponseWriter, r *http.Request) {
	kind, ok := a.kind(w, r, r.PathValue("collection"), true)
	if !ok {
		return
	}

	items, err := a.store.List(auth.UserID(r.Context()), kind)
	if err != nil {
		a.fail(w, r, err, leafMessages(kind).pick(err))
		return
	}
	server.WriteJSON(w, http.StatusOK, items)
}

func (a *API) saveLeaf(w http.ResponseWriter, r *http.Request) {
	kind, ok := a.kind(w, r, r.PathValue("kind"), false)
	if !ok {
		return
	}
	msgs := leafMessages(kind)

	var req leafRequest
	if err := a.validator.decode(r, &req); err != nil {
		a.fail(w, r, err, msgs.invalid)
		return
	}

	items, err := a.store.SaveLeaf(auth.UserID(r.Context()), kind, store.LeafInput{
		Title:      req.Title,
		CourseName: req.CourseName,
		URL:        req.URL,
	})
	a.metrics.ObserveSaved("save", string(kind), err)
	if err != nil {
		a.fail(w, r, err, msgs.pick(err))
		return
	}
	server.WriteJSON(w, http.StatusOK, items)
}

func (a *API) removeLeaf(w http.ResponseWriter, r *http.Request) {
	kind, ok := a.kind(w, r, r.PathValue("kind"), false)
	if !ok {
		return
	}

	items, err := a.store.RemoveLeaf(auth.UserID(r.Context()), kind, r.PathValue("id"))
	a.metrics.ObserveSaved("remove", string(kind), err)
	if err != nil {
		a.fail(w, r, err, leafMessages(kind).pick(err))
		return
	}
	server.WriteJSON(w, http.StatusOK, items)
}

// kind resolves a route segment. Listing routes use the plural form and mutations the
// singular one ("syllabus" serves both); anything else is a 404.
func (a *API) kind(w http.ResponseWriter, r *http.Request, segment string, plural bool) (models.Kind, bool) {
	kind, err := models.ParseKind(segment)
	if err == nil {
		if plural && segment == kind.Plural() || !plural && segment == string(kind) {
			return kind, true
		}
	}

	server.WriteError(w, http.StatusNotFound, "Route not found")
	a.logger.Debug("unknown saved collection", "method", r.Method, "segment", segment)
	return "", false
}
