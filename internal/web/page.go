package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

// Landing page copy.
const (
	LandingTitle   = "Full-Stack Starter"
	LandingTagline = "A minimal API host, a shared service library and a web front end, wired together and ready for your first feature."
)

//go:embed templates/index.html
var templates embed.FS

var landingTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

type landingPage struct {
	Title   string
	Tagline string
}

// RenderLandingPage renders the static landing page. It takes no input and
// touches no state, so every call returns the same bytes.
func RenderLandingPage() ([]byte, error) {
	var buf bytes.Buffer
	if err := landingTemplate.Execute(&buf, landingPage{Title: LandingTitle, Tagline: LandingTagline}); err != nil {
		return nil, fmt.Errorf("failed to render landing page: %w", err)
	}
	return buf.Bytes(), nil
}
