// package formatter exports a user's saved content to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/notenexus/internal/models"
	"github.com/desertthunder/notenexus/internal/shared"
)

// Format names an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// ParseFormat accepts the format names and their common short forms.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt", "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
	}
}

// Export is a snapshot of one user's saved collections.
type Export struct {
	Owner       string              `json:"owner"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Content     models.SavedContent `json:"-"`
}

// Metadata summarizes an export without its items.
type Metadata struct {
	Owner       string    `json:"owner"`
	GeneratedAt time.Time `json:"generatedAt"`
	Courses     int       `json:"courses"`
	Notes       int       `json:"notes"`
	Syllabus    int       `json:"syllabus"`
	Papers      int       `json:"papers"`
}

// ExportToCSV converts an Export to CSV format with columns: Kind, ID, Title, Course, URL, Date Added.
//
// Saved courses are written first with an empty title and URL.
func ExportToCSV(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Kind", "ID", "Title", "Course", "URL", "Date Added"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, course := range export.Content.SavedCourses {
		record := []string{"course", course.CourseID, "", course.CourseName, "", formatDate(course.DateAdded)}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	for _, kind := range models.Kinds {
		for _, item := range export.Content.Leaves(kind) {
			record := []string{string(kind), item.ID, item.Title, item.CourseName, item.URL, formatDate(item.DateAdded)}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts an Export to Markdown with one section per saved course.
//
// Items whose course is not among the saved courses are listed under "Other".
func ExportToMarkdown(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Saved content for %s\n\n", export.Owner)
	fmt.Fprintf(&buf, "**Generated**: %s\n", formatDate(export.GeneratedAt))
	fmt.Fprintf(&buf, "**Courses**: %d\n", len(export.Content.SavedCourses))
	fmt.Fprintf(&buf, "**Items**: %d\n\n", export.Content.Total()-len(export.Content.SavedCourses))

	sections := groupByCourse(export.Content)
	for _, section := range sections {
		fmt.Fprintf(&buf, "## %s\n\n", section.name)
		if section.empty() {
			buf.WriteString("_No saved items._\n\n")
			continue
		}

		for _, kind := range models.Kinds {
			items := section.items[kind]
			if len(items) == 0 {
				continue
			}
			fmt.Fprintf(&buf, "### %s\n\n", pluralLabel(kind))
			for _, item := range items {
				fmt.Fprintf(&buf, "- [%s](%s) (%s)\n", item.Title, item.URL, formatDate(item.DateAdded))
			}
			buf.WriteString("\n")
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts an Export to plain text format
func ExportToText(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Owner: %s\n", export.Owner)
	fmt.Fprintf(&buf, "Courses: %d\n\n", len(export.Content.SavedCourses))

	for i, course := range export.Content.SavedCourses {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, course.CourseName)
	}

	for _, kind := range models.Kinds {
		items := export.Content.Leaves(kind)
		fmt.Fprintf(&buf, "\n%s: %d\n", pluralLabel(kind), len(items))
		for i, item := range items {
			fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, item.CourseName, item.Title)
		}
	}

	return buf.Bytes(), nil
}

// ToMetadataJSON generates a JSON summary of the export (without items)
func ToMetadataJSON(export *Export) ([]byte, error) {
	meta := Metadata{
		Owner:       export.Owner,
		GeneratedAt: export.GeneratedAt,
		Courses:     len(export.Content.SavedCourses),
		Notes:       len(export.Content.SavedNotes),
		Syllabus:    len(export.Content.SavedSyllabus),
		Papers:      len(export.Content.SavedPapers),
	}
	return json.MarshalIndent(meta, "", "  ")
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	ItemsFile    string
	MetadataFile string
}

// WriteCSVExport exports saved content to CSV format with accompanying metadata JSON file.
//
// Creates {base}_saved.csv and {base}_metadata.json; base defaults to "saved".
func WriteCSVExport(export *Export, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = "saved"
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	itemsFile := baseFilepath + "_saved.csv"
	if err := os.WriteFile(itemsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		ItemsFile:    itemsFile,
		MetadataFile: metadataFile,
	}, nil
}

// WriteMarkdownExport writes {dir}/README.md, creating the directory. dir defaults to "saved".
func WriteMarkdownExport(export *Export, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = "saved"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return mdFile, nil
}

// WriteTextExport exports saved content to plain text format.
//
// Defaults to saved.txt as the filename.
func WriteTextExport(export *Export, path string) (string, error) {
	if path == "" {
		path = "saved.txt"
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// Render returns the export in format without touching the filesystem.
func Render(export *Export, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export)
	case FormatText:
		return ExportToText(export)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}

type section struct {
	name  string
	items map[models.Kind][]models.LeafItem
}

func (s section) empty() bool {
	for _, items := range s.items {
		if len(items) > 0 {
			return false
		}
	}
	return true
}

// groupByCourse orders sections like the saved courses, then an "Other" section for orphans.
func groupByCourse(content models.SavedContent) []section {
	var sections []section
	index := make(map[string]int)

	for _, course := range content.SavedCourses {
		if _, ok := index[course.Key()]; ok {
			continue
		}
		index[course.Key()] = len(sections)
		sections = append(sections, section{name: course.CourseName, items: map[models.Kind][]models.LeafItem{}})
	}

	other := -1
	for _, kind := range models.Kinds {
		for _, item := range content.Leaves(kind) {
			i, ok := index[shared.NormalizeKey(item.CourseName)]
			if !ok {
				if other < 0 {
					other = len(sections)
					sections = append(sections, section{name: "Other", items: map[models.Kind][]models.LeafItem{}})
				}
				i = other
			}
			sections[i].items[kind] = append(sections[i].items[kind], item)
		}
	}

	return sections
}

func pluralLabel(kind models.Kind) string {
	switch kind {
	case models.KindSyllabus:
		return "Syllabus"
	default:
		return kind.Label() + "s"
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}
