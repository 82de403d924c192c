// package catalog reads the course catalog from disk.
//
// Every non-hidden directory under the catalog root is a course. Files inside a course
// are grouped by the name of the folder that holds them: "syllabus" folders hold
// syllabi, question-paper folders hold papers and everything else is a note.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/desertthunder/notenexus/internal/shared"
)

// URLPrefix is the path under which catalog files are served.
const URLPrefix = "database"

// MetadataFile is the optional per-course metadata document.
const MetadataFile = "course.yaml"

// DefaultImageKeyword is used when neither metadata nor a name rule applies.
const DefaultImageKeyword = "education"

var courseNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("notenexus/catalog"))

var paperFolders = map[string]bool{
	"question-paper": true,
	"questionpaper":  true,
	"question_paper": true,
	"questions":      true,
	"papers":         true,
	"exams":          true,
}

// Course is a directory of the catalog.
type Course struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Path         string `json:"path"`
	Description  string `json:"description"`
	ImageKeyword string `json:"imageKeyword"`
}

// File is a downloadable document of a course.
type File struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
	Mime string `json:"mime"`
}

// Files groups a course's documents by category.
type Files struct {
	Notes          []File `json:"notes"`
	Syllabus       []File `json:"syllabus"`
	QuestionPapers []File `json:"questionPapers"`
}

// Total returns the number of files across categories.
func (f Files) Total() int {
	return len(f.Notes) + len(f.Syllabus) + len(f.QuestionPapers)
}

type metadata struct {
	Description  string `yaml:"description"`
	ImageKeyword string `yaml:"imageKeyword"`
}

// Catalog scans a root directory at request time.
type Catalog struct {
	root   string
	logger *log.Logger
}

// New returns a [Catalog] over root.
func New(root string, logger *log.Logger) *Catalog {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Catalog{root: root, logger: logger.With("component", "catalog")}
}

// Root returns the catalog directory.
func (c *Catalog) Root() string { return c.root }

// Courses lists the course directories in name order.
func (c *Catalog) Courses() ([]Course, error) {
	entries, err := os.ReadDir(c.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: catalog root %s", shared.ErrNotFound, c.root)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	courses := []Course{}
	for _, entry := range entries {
		if !entry.IsDir() || hidden(entry.Name()) {
			continue
		}
		courses = append(courses, c.describe(entry.Name()))
	}

	c.logger.Debug("scanned catalog", "courses", len(courses))
	return courses, nil
}

// Course returns a single course by directory name.
func (c *Catalog) Course(name string) (Course, error) {
	dir, err := c.courseDir(name)
	if err != nil {
		return Course{}, err
	}
	return c.describe(filepath.Base(dir)), nil
}

// Files walks the course directory and buckets every file by its parent folder.
func (c *Catalog) Files(name string) (Files, error) {
	dir, err := c.courseDir(name)
	if err != nil {
		return Files{}, err
	}

	files := Files{Notes: []File{}, Syllabus: []File{}, QuestionPapers: []File{}}
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if hidden(d.Name()) && p != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || (filepath.Dir(p) == dir && d.Name() == MetadataFile) {
			return nil
		}

		rel, err := filepath.Rel(c.root, p)
		if err != nil {
			return err
		}

		f := File{
			Name: d.Name(),
			Path: path.Join(URLPrefix, filepath.ToSlash(rel)),
			Type: strings.TrimPrefix(strings.ToLower(filepath.Ext(d.Name())), "."),
			Mime: detectMime(p),
		}

		switch folder := strings.ToLower(filepath.Base(filepath.Dir(p))); {
		case folder == "syllabus":
			files.Syllabus = append(files.Syllabus, f)
		case paperFolders[folder]:
			files.QuestionPapers = append(files.QuestionPapers, f)
		default:
			files.Notes = append(files.Notes, f)
		}
		return nil
	})
	if err != nil {
		return Files{}, fmt.Errorf("failed to scan course %s: %w", name, err)
	}

	return files, nil
}

// courseDir resolves name to a directory below the root, rejecting traversal.
func (c *Catalog) courseDir(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: invalid course name %q", shared.ErrValidation, name)
	}

	dir := filepath.Join(c.root, name)
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return "", fmt.Errorf("%w: course %s", shared.ErrNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat course %s: %w", name, err)
	}
	return dir, nil
}

func (c *Catalog) describe(name string) Course {
	course := Course{
		ID:   uuid.NewSHA1(courseNamespace, []byte(name)).String(),
		Name: name,
		Path: path.Join(URLPrefix, name),
	}
	course.Description, course.ImageKeyword = Describe(name)

	meta, err := readMetadata(filepath.Join(c.root, name, MetadataFile))
	if err != nil {
		c.logger.Warn("ignoring course metadata", "course", name, "error", err)
	}
	if meta.Description != "" {
		course.Description = meta.Description
	}
	if meta.ImageKeyword != "" {
		course.ImageKeyword = meta.ImageKeyword
	}
	return course
}

func readMetadata(p string) (metadata, error) {
	var meta metadata
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return meta, nil
	}
	if err != nil {
		return meta, err
	}
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return metadata{}, err
	}
	return meta, nil
}

func detectMime(p string) string {
	mt, err := mimetype.DetectFile(p)
	if err != nil {
		return "application/octet-stream"
	}
	return mt.String()
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
