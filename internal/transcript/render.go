// Package transcript renders a conversation as a standalone HTML page.
// Model replies are markdown; they are converted with goldmark so code
// blocks, tables and headings survive into the transcript.
package transcript

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/sporefield/mycelium/internal/engine"
)

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		html.WithUnsafe(),
	),
)

// messageView is one rendered message handed to the page template.
type messageView struct {
	Role      string
	Timestamp string
	Content   template.HTML

	// Execution metadata, present on model replies only.
	SuggestionType string
	ModelUsed      string
	Duration       string
	Citations      []engine.Citation
}

type pageView struct {
	Generated string
	Messages  []messageView
}

// Render converts a conversation into a self-contained HTML transcript.
func Render(messages []engine.Message) ([]byte, error) {
	views := make([]messageView, 0, len(messages))
	for _, m := range messages {
		view, err := renderMessage(m)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	var buf bytes.Buffer
	data := pageView{
		Generated: time.Now().Format(time.RFC1123),
		Messages:  views,
	}
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing transcript template: %w", err)
	}
	return buf.Bytes(), nil
}

func renderMessage(m engine.Message) (messageView, error) {
	view := messageView{
		Role:      string(m.Role),
		Timestamp: m.Timestamp.Format("15:04:05"),
	}

	switch m.Role {
	case engine.RoleModel:
		// Model output is markdown.
		var htmlBuf bytes.Buffer
		if err := md.Convert([]byte(m.Content), &htmlBuf); err != nil {
			return messageView{}, fmt.Errorf("converting message markdown: %w", err)
		}
		view.Content = template.HTML(htmlBuf.String())
	default:
		// User and system text is shown verbatim, escaped.
		view.Content = template.HTML(template.HTMLEscapeString(m.Content))
	}

	if m.Meta != nil {
		view.SuggestionType = string(m.Meta.SuggestionType)
		view.ModelUsed = m.Meta.ModelUsed
		if m.Meta.Duration > 0 {
			view.Duration = m.Meta.Duration.Round(time.Millisecond).String()
		}
		view.Citations = m.Meta.Citations
	}

	return view, nil
}

var pageTemplate = template.Must(template.New("transcript").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>mycelium transcript</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; max-width: 52rem; margin: 2rem auto; padding: 0 1rem; color: #1f2328; }
.message { border: 1px solid #d0d7de; border-radius: 6px; margin-bottom: 1rem; }
.message header { display: flex; gap: .75rem; align-items: baseline; padding: .4rem .8rem; background: #f6f8fa; border-bottom: 1px solid #d0d7de; font-size: .85rem; }
.message .body { padding: .8rem; white-space: normal; }
.message.user .body { white-space: pre-wrap; }
.role { font-weight: 600; text-transform: capitalize; }
.meta { color: #57606a; }
.citations { padding: 0 .8rem .8rem; font-size: .85rem; }
.citations a { color: #0969da; }
pre { background: #f6f8fa; padding: .6rem; border-radius: 6px; overflow-x: auto; }
footer { color: #57606a; font-size: .8rem; margin-top: 2rem; }
</style>
</head>
<body>
<h1>Conversation transcript</h1>
{{range .Messages}}
<div class="message {{.Role}}">
<header>
<span class="role">{{.Role}}</span>
<span class="meta">{{.Timestamp}}</span>
{{if .SuggestionType}}<span class="meta">{{.SuggestionType}}</span>{{end}}
{{if .ModelUsed}}<span class="meta">{{.ModelUsed}}</span>{{end}}
{{if .Duration}}<span class="meta">{{.Duration}}</span>{{end}}
</header>
<div class="body">{{.Content}}</div>
{{if .Citations}}
<div class="citations">
Sources:
{{range .Citations}}<div><a href="{{.URI}}">{{.Title}}</a></div>{{end}}
</div>
{{end}}
</div>
{{end}}
<footer>Generated {{.Generated}}</footer>
</body>
</html>
`))
