package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"plugshop/internal/forms"
	"plugshop/internal/models"

	"github.com/labstack/echo/v4"
)

//go:embed templates
var templateFS embed.FS

const (
	RegisterTemplate = "authentication/register.html"
	LoginTemplate    = "authentication/login.html"
	ProfileTemplate  = "authentication/profile.html"
	HomeTemplate     = "mainapp/home.html"
)

var pages = []string{RegisterTemplate, LoginTemplate, ProfileTemplate, HomeTemplate}

// PageData is handed to every page template.
type PageData struct {
	Title     string
	User      *models.User
	CSRFToken string

	// Values echoes submitted fields back into the form. Passwords are never included.
	Values map[string]string
	Errors forms.Errors
	Next   string

	Slides []*models.CarouselImage
}

// NonFieldErrors lists form level errors.
func (p PageData) NonFieldErrors() []string {
	return p.Errors[forms.NonFieldErrors]
}

// Renderer implements echo.Renderer over the embedded templates. Each page is
// parsed together with the shared base layout.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"join": strings.Join,
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}
	return t.ExecuteTemplate(w, "base", data)
}
