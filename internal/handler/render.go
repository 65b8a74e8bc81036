package handler

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/sakif/devhelper/internal/auth"
	"github.com/sakif/devhelper/internal/model"
	"github.com/sakif/devhelper/web"
)

// Page names. Each one is templates/<name>.html rendered inside base.html.
const (
	PageHome     = "home"
	PageLogin    = "login"
	PageRegister = "register"
	PageAdd      = "add"
	PageEdit     = "edit"
	PageSnippets = "snippets"
	PageGenerate = "generate"
)

var pages = []string{PageHome, PageLogin, PageRegister, PageAdd, PageEdit, PageSnippets, PageGenerate}

// View is what every template receives. Data holds the page-specific
// view-model (e.g. snippetsPage for the list).
type View struct {
	Title    string
	LoggedIn bool
	Username string
	Data     any
}

// UserLookup resolves the logged-in user for the navigation bar.
// service.AuthService satisfies it.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// Renderer holds one parsed template set per page.
//
// WHY ONE SET PER PAGE?
// Every page defines {{define "content"}}. If all pages were parsed into a
// single template, the last "content" definition would win and every page
// would render the same body. Parsing base.html + <page>.html together for
// each page keeps the definitions apart.
type Renderer struct {
	pages  map[string]*template.Template
	users  UserLookup
	logger *slog.Logger
}

var templateFuncs = template.FuncMap{
	"isoTime": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
	"shortDate": func(t time.Time) string {
		return t.Local().Format("Jan 2, 2006 15:04")
	},
	// truncate cuts s to at most n runes. Used to prefill the title of a
	// generated snippet from its prompt.
	"truncate": func(n int, s string) string {
		if utf8.RuneCountInString(s) <= n {
			return s
		}
		return string([]rune(s)[:n])
	},
}

// NewRenderer parses every page from the embedded web.Templates at startup,
// so a broken template fails the process instead of a request. users may be
// nil, in which case the navigation shows no username.
func NewRenderer(users UserLookup, logger *slog.Logger) (*Renderer, error) {
	rd := &Renderer{
		pages:  make(map[string]*template.Template, len(pages)),
		users:  users,
		logger: logger,
	}
	for _, name := range pages {
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(web.Templates,
			"templates/base.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		rd.pages[name] = tmpl
	}
	return rd, nil
}

// Render executes the named page with status.
//
// The page is rendered into a buffer first. A template error halfway
// through would otherwise leave a 200 and half a page on the wire; this
// way the client gets a clean 500 instead.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	tmpl, ok := rd.pages[page]
	if !ok {
		rd.logger.Error("unknown page", slog.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	userID, loggedIn := auth.UserIDFromContext(r.Context())
	view := View{Title: title, LoggedIn: loggedIn, Data: data}
	if loggedIn {
		view.Username = rd.username(r.Context(), userID)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", view); err != nil {
		rd.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		rd.logger.Warn("failed to write page", slog.String("page", page), slog.String("error", err.Error()))
	}
}

// username looks up the name shown in the navigation. A failed lookup only
// costs the label, so it is logged and the page still renders.
func (rd *Renderer) username(ctx context.Context, userID string) string {
	if rd.users == nil {
		return ""
	}
	user, err := rd.users.GetUserByID(ctx, userID)
	if err != nil {
		rd.logger.Warn("failed to load user for navigation",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return ""
	}
	return user.Username
}
