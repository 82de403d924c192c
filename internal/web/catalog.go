package web

import (
	"errors"
	"net/http"

	"github.com/desertthunder/notenexus/internal/server"
	"github.com/desertthunder/notenexus/internal/shared"
)

func (a *API) registerCatalog(router *server.BasicRouter) {
	router.HandleFunc(http.MethodGet, "/api/courses", a.courses)
	router.HandleFunc(http.MethodGet, "/api/course/{courseName}", a.courseFiles)
	router.Handler(newCatalogFiles(a.catalog.Root()))
}

func (a *API) courses(w http.ResponseWriter, r *http.Request) {
	courses, err := a.catalog.Courses()
	if err != nil {
		a.fail(w, r, err, "Course catalog not found")
		return
	}
	server.WriteJSON(w, http.StatusOK, courses)
}

// courseFiles answers 404 for invalid names as well as missing ones.
func (a *API) courseFiles(w http.ResponseWriter, r *http.Request) {
	files, err := a.catalog.Files(r.PathValue("courseName"))
	if errors.Is(err, shared.ErrValidation) || errors.Is(err, shared.ErrNotFound) {
		server.WriteError(w, http.StatusNotFound, "Course not found")
		return
	}
	if err != nil {
		a.fail(w, r, err, "")
		return
	}
	server.WriteJSON(w, http.StatusOK, files)
}
