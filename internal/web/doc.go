// Package web implements the JSON API of the bookmarking service.
//
// Routes are registered on a [server.BasicRouter]:
//
//	POST   /api/auth/register            → create account, returns {token}
//	POST   /api/auth/login               → exchange credentials for {token}
//	GET    /api/auth/user                → profile of the caller
//	GET    /api/saved                    → all four saved collections
//	GET    /api/saved/courses            → saved courses
//	POST   /api/saved/course             → save a course directly
//	DELETE /api/saved/course/{id}        → remove a course (leaves are kept)
//	GET    /api/saved/{notes|syllabus|papers}
//	POST   /api/saved/{note|syllabus|paper}
//	DELETE /api/saved/{note|syllabus|paper}/{id}
//	GET    /api/courses                  → catalog courses
//	GET    /api/course/{courseName}      → catalog files of a course
//	GET    /database/...                 → catalog files
//	GET    /health, /metrics
//
// Every error body is {"message": "..."}. Saved-content routes require a token in
// x-auth-token or an Authorization bearer header.
package web
