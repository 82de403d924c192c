// Package models defines domain entities and persistence interfaces for the notenexus bookmarking service.
//
// The package contains two categories of types:
//
// 1. Saved references: small value types stored inside a user record
//   - [LeafItem] : A saved note, syllabus or question paper, keyed by (title, course name)
//   - [CourseRef] : A saved course, keyed by course name
//   - [Kind] : Which leaf collection an item belongs to
//   - [SavedContent] : The four collections returned together for rendering
//
// 2. Persistent entities: records with full lifecycle management
//   - [User] : Account record owning every saved collection
//   - [Document] : The on-disk {"users": [...]} table
//
// [User] implements the [Model] interface. The [Repository] interface defines the
// CRUD operations each storage backend provides.
package models
