// Package export renders note lists into the five supported formats: JSON,
// plain text, CSV, Markdown, and HTML. Every writer is a deterministic
// single pass over the input slice in the order given; there is no
// corresponding importer.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ReliveRS/RecordNote/pkg/models"
)

// Format selects an output serialization.
type Format string

const (
	FormatJSON     Format = "json"
	FormatText     Format = "txt"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ParseFormat maps a user-supplied format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "txt", "text":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown export format: %q", s)
	}
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	case FormatMarkdown:
		return "text/markdown"
	case FormatHTML:
		return "text/html"
	default:
		return "text/plain"
	}
}

// Write renders notes to w in the given format.
func Write(w io.Writer, format Format, notes []*models.Note) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, notes)
	case FormatText:
		return writeText(w, notes)
	case FormatCSV:
		return writeCSV(w, notes)
	case FormatMarkdown:
		return writeMarkdown(w, notes)
	case FormatHTML:
		return writeHTML(w, notes)
	default:
		return fmt.Errorf("unknown export format: %q", format)
	}
}

func stamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

func writeJSON(w io.Writer, notes []*models.Note) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(notes)
}

func writeText(w io.Writer, notes []*models.Note) error {
	for i, n := range notes {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s\n%s\n", n.Title, strings.Repeat("=", len(n.Title))); err != nil {
			return err
		}
		if n.Content != "" {
			if _, err := fmt.Fprintln(w, n.Content); err != nil {
				return err
			}
		}
		if n.HasAudio() {
			if _, err := fmt.Fprintf(w, "[audio %s]\n", n.FormattedDuration()); err != nil {
				return err
			}
		}
		if len(n.Tags) > 0 {
			if _, err := fmt.Fprintf(w, "Tags: %s\n", strings.Join(n.Tags, ", ")); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "Created: %s\n", stamp(n.CreatedAt)); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(w io.Writer, notes []*models.Note) error {
	cw := csv.NewWriter(w)
	header := []string{"id", "title", "content", "tags", "favorite", "audio_duration", "created_at", "modified_at"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, n := range notes {
		record := []string{
			n.ID.String(),
			n.Title,
			n.Content,
			strings.Join(n.Tags, ";"),
			strconv.FormatBool(n.Favorite),
			strconv.FormatInt(n.AudioDuration, 10),
			stamp(n.CreatedAt),
			stamp(n.ModifiedAt),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeMarkdown(w io.Writer, notes []*models.Note) error {
	if _, err := fmt.Fprintf(w, "# Notes\n"); err != nil {
		return err
	}
	for _, n := range notes {
		if _, err := fmt.Fprintf(w, "\n## %s\n\n", n.Title); err != nil {
			return err
		}
		if n.Content != "" {
			if _, err := fmt.Fprintf(w, "%s\n", n.Content); err != nil {
				return err
			}
		}
		if n.HasAudio() {
			if _, err := fmt.Fprintf(w, "\n*Audio: %s*\n", n.FormattedDuration()); err != nil {
				return err
			}
		}
		if len(n.Tags) > 0 {
			if _, err := fmt.Fprintf(w, "\nTags: `%s`\n", strings.Join(n.Tags, "` `")); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "\n_Created %s_\n", stamp(n.CreatedAt)); err != nil {
			return err
		}
	}
	return nil
}

func writeHTML(w io.Writer, notes []*models.Note) error {
	if _, err := fmt.Fprint(w, "<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>Notes</title></head>\n<body>\n"); err != nil {
		return err
	}
	for _, n := range notes {
		if _, err := fmt.Fprintf(w, "<article style=\"background:%s\">\n", html.EscapeString(n.Color)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "<h2>%s</h2>\n", html.EscapeString(n.Title)); err != nil {
			return err
		}
		if n.Content != "" {
			if _, err := fmt.Fprintf(w, "<p>%s</p>\n", html.EscapeString(n.Content)); err != nil {
				return err
			}
		}
		if n.HasAudio() {
			if _, err := fmt.Fprintf(w, "<p><em>Audio: %s</em></p>\n", n.FormattedDuration()); err != nil {
				return err
			}
		}
		if len(n.Tags) > 0 {
			if _, err := fmt.Fprintf(w, "<p>Tags: %s</p>\n", html.EscapeString(strings.Join(n.Tags, ", "))); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "<time>%s</time>\n</article>\n", stamp(n.CreatedAt)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "</body>\n</html>\n")
	return err
}
