// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "user",
		Aliases:  []string{"u"},
		Usage:    "Email of the user to act for",
		Required: true,
	}
}

func kindFlag(required bool) cli.Flag {
	return &cli.StringFlag{
		Name:     "kind",
		Aliases:  []string{"k"},
		Usage:    "Item kind: note, syllabus or paper",
		Required: required,
	}
}

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

// setupCommand writes the config file and initializes storage.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml if missing and initialize storage",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "Roll back the most recent SQLite migration instead of applying pending ones",
			},
		},
		Action: r.Setup,
	}
}

// serveCommand runs the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, overrides server.host and server.port",
			},
		},
		Action: r.Serve,
	}
}

// usersCommand handles administrative user operations.
func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Administrative user operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List users without passwords",
				Flags:  jsonFlags(),
				Action: r.UsersList,
			},
			{
				Name:  "add",
				Usage: "Create a user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Display name", Required: true},
					&cli.StringFlag{Name: "email", Usage: "Email address", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Password", Required: true, Sources: cli.EnvVars("NEXUS_USER_PASSWORD")},
				},
				Action: r.UsersAdd,
			},
			{
				Name:  "delete",
				Usage: "Delete a user and everything they saved",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "email"},
				},
				Action: r.UsersDelete,
			},
			{
				Name:   "stats",
				Usage:  "Show user and saved-item totals",
				Flags:  jsonFlags(),
				Action: r.UsersStats,
			},
			{
				Name:  "backup",
				Usage: "Write every user (without passwords) and a timestamp as JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path, defaults to stdout",
					},
				},
				Action: r.UsersBackup,
			},
			{
				Name:  "export-all",
				Usage: "Export every user's saved content concurrently",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "csv, markdown or text",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory, defaults to saved_export_{epoch}",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent export workers (max 10)",
						Value: 5,
					},
				},
				Action: r.UsersExportAll,
			},
		},
	}
}

// savedCommand drives a user's saved collections.
func savedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "saved",
		Usage: "Manage a user's saved courses and items",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List saved courses and items",
				Flags:  append([]cli.Flag{userFlag(), kindFlag(false)}, jsonFlags()...),
				Action: r.SavedList,
			},
			{
				Name:  "add",
				Usage: "Save a note, syllabus or question paper",
				Flags: []cli.Flag{
					userFlag(),
					kindFlag(true),
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Item title", Required: true},
					&cli.StringFlag{Name: "course", Usage: "Course name", Required: true},
					&cli.StringFlag{Name: "url", Usage: "Link to the document", Value: "#"},
				},
				Action: r.SavedAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a saved item by ID",
				Flags: []cli.Flag{
					userFlag(),
					kindFlag(true),
					&cli.StringFlag{Name: "id", Usage: "Item ID", Required: true},
				},
				Action: r.SavedRemove,
			},
			{
				Name:  "course",
				Usage: "Save a course",
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{Name: "name", Usage: "Course name", Required: true},
					&cli.StringFlag{Name: "id", Usage: "Course ID, defaults to a generated one"},
				},
				Action: r.SavedCourse,
			},
			{
				Name:  "uncourse",
				Usage: "Remove a saved course by ID; its items are kept",
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{Name: "id", Usage: "Saved course ID or course ID", Required: true},
				},
				Action: r.SavedUncourse,
			},
			{
				Name:  "export",
				Usage: "Export saved content as CSV, Markdown or text",
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "csv, markdown or text",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (file base for csv, directory for markdown); stdout when empty",
					},
				},
				Action: r.SavedExport,
			},
		},
	}
}

// catalogCommand prints the course catalog.
func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Browse the course catalog",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List catalog courses",
				Flags:  jsonFlags(),
				Action: r.CatalogList,
			},
			{
				Name:  "show",
				Usage: "List the files of a course by category",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "course"},
				},
				Flags:  jsonFlags(),
				Action: r.CatalogShow,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for browsing saved content.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse and prune a user's saved content interactively",
		Flags:   []cli.Flag{userFlag()},
		Action:  r.TUI,
	}
}
