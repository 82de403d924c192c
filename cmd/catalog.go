package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/notenexus/internal/catalog"
	"github.com/desertthunder/notenexus/internal/shared"
)

func (r *Runner) openCatalog() *catalog.Catalog {
	return catalog.New(r.Config().Catalog.Root, r.logger)
}

// CatalogList prints the courses found under the catalog root.
func (r *Runner) CatalogList(ctx context.Context, cmd *cli.Command) error {
	courses, err := r.openCatalog().Courses()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(courses, cmd.Bool("pretty"))
	}

	if len(courses) == 0 {
		return r.writePlain("No courses found in %s\n", r.Config().Catalog.Root)
	}

	r.writePlainHeader(fmt.Sprintf("Courses (%d)", len(courses)))
	for i, c := range courses {
		r.writePlain("%d. %s\n   %s\n", i+1, c.Name, c.Description)
	}
	return nil
}

// CatalogShow prints a course's files grouped by category.
func (r *Runner) CatalogShow(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("course")
	if name == "" {
		return fmt.Errorf("%w: course name is required", shared.ErrMissingArgument)
	}

	files, err := r.openCatalog().Files(name)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(files, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%s (%d files)", name, files.Total()))
	for _, group := range []struct {
		title string
		files []catalog.File
	}{
		{"Notes", files.Notes},
		{"Syllabus", files.Syllabus},
		{"Question papers", files.QuestionPapers},
	} {
		r.writePlain("%s (%d)\n", group.title, len(group.files))
		for _, f := range group.files {
			r.writePlain("  - %s  %s\n", f.Name, f.Path)
		}
	}
	return nil
}
