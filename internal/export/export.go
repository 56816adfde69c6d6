// Package export renders a document and its annotations into portable
// formats.  Exports are pure derivations of (text, annotations) and never
// touch session state.
package export

import (
	"bytes"
	"encoding/json"
	"html/template"

	"github.com/annolens/annolens/internal/domain/annotation"
	"github.com/annolens/annolens/internal/domain/segment"
	"github.com/annolens/annolens/pkg/errors"
)

// Format names an export format.
type Format string

const (
	FormatHTML Format = "html"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name from a request.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatHTML:
		return FormatHTML, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", errors.New(errors.ErrCodeExportFormatUnsupported, "unsupported export format: "+s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "application/json; charset=utf-8"
}

// Summary aggregates annotation counts for export payloads.
type Summary struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"by_category"`
	ByKind     map[string]int `json:"by_kind"`
}

func summarize(annotations []*annotation.Annotation) Summary {
	s := Summary{
		ByCategory: make(map[string]int),
		ByKind:     make(map[string]int),
	}
	for _, a := range annotations {
		s.Total++
		s.ByCategory[string(a.Category)]++
		s.ByKind[string(a.Kind)]++
	}
	return s
}

// Document is the JSON export payload.
type Document struct {
	Text        string                   `json:"text"`
	Annotations []*annotation.Annotation `json:"annotations"`
	Summary     Summary                  `json:"summary"`
}

// JSON renders the document as an indented JSON payload.
func JSON(text string, annotations []*annotation.Annotation) ([]byte, error) {
	if annotations == nil {
		annotations = []*annotation.Annotation{}
	}
	out, err := json.MarshalIndent(Document{
		Text:        text,
		Annotations: annotations,
		Summary:     summarize(annotations),
	}, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExportRenderFailed, "encode json export")
	}
	return out, nil
}

// htmlSegment is one rendered span; Annotated spans become <mark> elements.
type htmlSegment struct {
	Text     string
	Color    string
	Comment  string
	Annotate bool
}

type htmlNote struct {
	Category string
	Comment  string
	Snippet  string
}

type htmlPage struct {
	Segments []htmlSegment
	Notes    []htmlNote
	Summary  Summary
}

var htmlTmpl = template.Must(template.New("export").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Annotated document</title>
<style>
body { font-family: Georgia, serif; max-width: 46em; margin: 2em auto; line-height: 1.6; }
mark { padding: 0 .1em; }
mark.yellow { background: #fde68a; } mark.red { background: #fecaca; }
mark.green { background: #bbf7d0; } mark.blue { background: #bfdbfe; }
mark.purple { background: #e9d5ff; } mark.none { background: #e5e7eb; }
.notes { border-top: 1px solid #ddd; margin-top: 2em; padding-top: 1em; }
.notes li { margin-bottom: .5em; }
.category { font-size: .8em; color: #666; text-transform: uppercase; }
</style>
</head>
<body>
<div class="text">{{range .Segments}}{{if .Annotate}}<mark class="{{.Color}}"{{with .Comment}} title="{{.}}"{{end}}>{{.Text}}</mark>{{else}}{{.Text}}{{end}}{{end}}</div>
{{if .Notes}}<div class="notes">
<h2>Annotations ({{.Summary.Total}})</h2>
<ul>
{{range .Notes}}<li><span class="category">{{.Category}}</span> {{with .Comment}}{{.}}{{end}} <em>&ldquo;{{.Snippet}}&rdquo;</em></li>
{{end}}</ul>
</div>{{end}}
</body>
</html>
`))

// HTML renders escaped text with <mark> spans from the segment sweep plus a
// grouped note list.  Overlap resolution therefore matches the interactive
// rendering exactly.
func HTML(text string, annotations []*annotation.Annotation) ([]byte, error) {
	page := htmlPage{Summary: summarize(annotations)}

	for _, seg := range segment.Build(text, annotations) {
		hs := htmlSegment{Text: seg.Text}
		if seg.Annotated() {
			hs.Annotate = true
			hs.Color = string(seg.Annotation.Color)
			if hs.Color == "" {
				hs.Color = "none"
			}
			hs.Comment = seg.Annotation.Comment
		}
		page.Segments = append(page.Segments, hs)
	}

	for _, a := range annotations {
		if a == nil {
			continue
		}
		snippet := a.Text
		if runes := []rune(snippet); len(runes) > 80 {
			snippet = string(runes[:80]) + "…"
		}
		page.Notes = append(page.Notes, htmlNote{
			Category: string(a.Category),
			Comment:  a.Comment,
			Snippet:  snippet,
		})
	}

	var buf bytes.Buffer
	if err := htmlTmpl.Execute(&buf, page); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExportRenderFailed, "render html export")
	}
	return buf.Bytes(), nil
}

// Render dispatches on format.
func Render(f Format, text string, annotations []*annotation.Annotation) ([]byte, error) {
	if f == FormatHTML {
		return HTML(text, annotations)
	}
	return JSON(text, annotations)
}
