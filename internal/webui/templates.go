// ABOUTME: Template loading and rendering for the dashboard UI
// ABOUTME: Parses embedded templates once and converts Markdown page intros with goldmark

package webui

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/yuin/goldmark"
)

// pageNames lists the templates rendered inside base.html.
var pageNames = []string{"login", "error", "overview", "ventes", "analyses", "clients"}

// colorSeq is the chart palette, applied in order.
var colorSeq = []string{"#0d6efd", "#06b6d4", "#f59e0b", "#10b981", "#6366f1"}

// Page carries the fields base.html needs.
type Page struct {
	Title     string
	Active    string
	UserID    int64
	CSRFToken string
	Intro     template.HTML
}

type loginData struct {
	Page
	Tab      string // "login" or "signup"
	Email    string
	Username string
	Next     string
	Error    string
	Notice   string
}

type errorData struct {
	Page
	Status  int
	Message string
}

type previewRow struct {
	Date      string
	Product   string
	Category  string
	Region    string
	UnitPrice string
	Quantity  string
	Age       int
	Gender    string
	Total     string
}

type overviewData struct {
	Page
	Rows   []previewRow
	Total  string
	Source string
}

type ventesData struct {
	Page
	Revenue    string
	AOV        string
	Orders     string
	TopProduct string
}

type analysesData struct {
	Page
	Regions  []string
	Selected string
	Revenue  string
	Orders   string
}

type clientsData struct {
	Page
	Customers string
}

// pageSet holds the parsed templates and rendered page intros.
type pageSet struct {
	templates map[string]*template.Template
	intros    map[string]template.HTML
}

// loadPages parses every page template and converts the Markdown intros.
func loadPages(logger *slog.Logger) (*pageSet, error) {
	ps := &pageSet{
		templates: make(map[string]*template.Template, len(pageNames)),
		intros:    make(map[string]template.HTML),
	}

	for _, name := range pageNames {
		tmpl, err := template.ParseFS(uiFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		ps.templates[name] = tmpl
	}

	entries, err := uiFS.ReadDir("content")
	if err != nil {
		return nil, fmt.Errorf("reading page copy: %w", err)
	}
	for _, entry := range entries {
		md, err := uiFS.ReadFile("content/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}

		var buf bytes.Buffer
		if err := goldmark.Convert(md, &buf); err != nil {
			return nil, fmt.Errorf("converting %s: %w", entry.Name(), err)
		}
		name := entry.Name()[:len(entry.Name())-len(".md")]
		ps.intros[name] = template.HTML(buf.String())
	}
	logger.Debug("templates loaded", "pages", len(ps.templates), "intros", len(ps.intros))

	return ps, nil
}

// page fills the shared layout fields for a protected page.
func (u *UI) page(r *http.Request, title, active, csrfToken string) Page {
	return Page{
		Title:     title,
		Active:    active,
		UserID:    sessionUser(r),
		CSRFToken: csrfToken,
		Intro:     u.pages.intros[active],
	}
}

// render executes the named page template with data.
func (u *UI) render(w http.ResponseWriter, name string, data any) {
	u.renderStatus(w, http.StatusOK, name, data)
}

func (u *UI) renderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := u.pages.templates[name]
	if !ok {
		u.logger.Error("unknown template", "name", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		u.logger.Error("failed to render page", "name", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderLogin renders the login/sign-up page
func (u *UI) renderLogin(w http.ResponseWriter, status int, data loginData) {
	data.Active = "login"
	data.Intro = u.pages.intros["login"]
	u.renderStatus(w, status, "login", data)
}

// renderError renders a full-page error message
func (u *UI) renderError(w http.ResponseWriter, status int, msg string) {
	u.renderStatus(w, status, "error", errorData{
		Page:    Page{Title: "Erreur", Active: "error"},
		Status:  status,
		Message: msg,
	})
}
