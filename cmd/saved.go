package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/notenexus/internal/formatter"
	"github.com/desertthunder/notenexus/internal/models"
	"github.com/desertthunder/notenexus/internal/store"
)

// SavedList prints a user's saved content, or one collection with --kind.
func (r *Runner) SavedList(ctx context.Context, cmd *cli.Command) error {
	return r.withStore(func(s *store.Store) error {
		u, err := r.userFor(s, cmd)
		if err != nil {
			return err
		}

		if k := cmd.String("kind"); k != "" {
			kind, err := models.ParseKind(k)
			if err != nil {
				return err
			}
			items, err := s.List(u.ID, kind)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return r.writeJSON(items, cmd.Bool("pretty"))
			}
			r.writeLeaves(kind, items)
			return nil
		}

		content, err := s.ListAll(u.ID)
		if err != nil {
			return err
		}
		if cmd.Bool("json") {
			return r.writeJSON(content, cmd.Bool("pretty"))
		}

		r.writePlainHeader(fmt.Sprintf("Saved content for %s", u.Email))
		r.writePlain("Courses (%d)\n", len(content.SavedCourses))
		for i, c := range content.SavedCourses {
			r.writePlain("%d. %s\n   ID: %s | Course ID: %s\n", i+1, c.CourseName, c.ID, c.CourseID)
		}
		for _, kind := range models.Kinds {
			r.writeLeaves(kind, content.Leaves(kind))
		}
		return nil
	})
}

func (r *Runner) writeLeaves(kind models.Kind, items []models.LeafItem) {
	r.writePlain("\n%s (%d)\n", kind.Label(), len(items))
	for i, item := range items {
		r.writePlain("%d. %s - %s\n   ID: %s | URL: %s\n", i+1, item.CourseName, item.Title, item.ID, item.URL)
	}
}

// SavedAdd saves a leaf item and, when missing, its course.
func (r *Runner) SavedAdd(ctx context.Context, cmd *cli.Command) error {
	kind, err := models.ParseKind(cmd.String("kind"))
	if err != nil {
		return err
	}

	return r.withStore(func(s *store.Store) error {
		u, err := r.userFor(s, cmd)
		if err != nil {
			return err
		}

		items, err := s.SaveLeaf(u.ID, kind, store.LeafInput{
			Title:      cmd.String("title"),
			CourseName: cmd.String("course"),
			URL:        cmd.String("url"),
		})
		if err != nil {
			return err
		}

		saved := items[len(items)-1]
		return r.writePlain("✓ Saved %s '%s' (%s)\n", kind, saved.Title, saved.ID)
	})
}

// SavedRemove removes a leaf item by ID.
func (r *Runner) SavedRemove(ctx context.Context, cmd *cli.Command) error {
	kind, err := models.ParseKind(cmd.String("kind"))
	if err != nil {
		return err
	}

	return r.withStore(func(s *store.Store) error {
		u, err := r.userFor(s, cmd)
		if err != nil {
			return err
		}

		items, err := s.RemoveLeaf(u.ID, kind, cmd.String("id"))
		if err != nil {
			return err
		}
		return r.writePlain("✓ Removed %s %s, %d left\n", kind, cmd.String("id"), len(items))
	})
}

// SavedCourse saves a course.
func (r *Runner) SavedCourse(ctx context.Context, cmd *cli.Command) error {
	return r.withStore(func(s *store.Store) error {
		u, err := r.userFor(s, cmd)
		if err != nil {
			return err
		}

		courses, err := s.SaveCourse(u.ID, cmd.String("name"), cmd.String("id"))
		if err != nil {
			return err
		}

		saved := courses[len(courses)-1]
		return r.writePlain("✓ Saved course '%s' (%s)\n", saved.CourseName, saved.ID)
	})
}

// SavedUncourse removes a saved course. Items saved under it are kept.
func (r *Runner) SavedUncourse(ctx context.Context, cmd *cli.Command) error {
	return r.withStore(func(s *store.Store) error {
		u, err := r.userFor(s, cmd)
		if err != nil {
			return err
		}

		courses, err := s.RemoveCourse(u.ID, cmd.String("id"))
		if err != nil {
			return err
		}
		return r.writePlain("✓ Removed course %s, %d left\n", cmd.String("id"), len(courses))
	})
}

// SavedExport renders a user's saved content to stdout or writes it under --output.
func (r *Runner) SavedExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	return r.withStore(func(s *store.Store) error {
		u, err := r.userFor(s, cmd)
		if err != nil {
			return err
		}

		content, err := s.ListAll(u.ID)
		if err != nil {
			return err
		}
		export := &formatter.Export{Owner: u.Email, GeneratedAt: time.Now().UTC(), Content: content}

		output := cmd.String("output")
		if output == "" {
			data, err := formatter.Render(export, format)
			if err != nil {
				return err
			}
			_, err = r.output.Write(data)
			return err
		}

		switch format {
		case formatter.FormatCSV:
			result, err := formatter.WriteCSVExport(export, output)
			if err != nil {
				return err
			}
			return r.writePlain("✓ Exported to %s and %s\n", result.ItemsFile, result.MetadataFile)
		case formatter.FormatMarkdown:
			path, err := formatter.WriteMarkdownExport(export, output)
			if err != nil {
				return err
			}
			return r.writePlain("✓ Exported to %s\n", path)
		default:
			path, err := formatter.WriteTextExport(export, output)
			if err != nil {
				return err
			}
			return r.writePlain("✓ Exported to %s\n", path)
		}
	})
}
