package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"innercircle/internal/adapters/http/middleware"
	"innercircle/internal/application/listutil"
	"innercircle/internal/domain/account"
	"innercircle/internal/domain/lead"
)

//go:embed templates/*.html
var templateFS embed.FS

// Raw HTML in recipe descriptions is escaped; goldmark only passes it through WithUnsafe.
var markdown = goldmark.New(goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()))

var germanNumbers = message.NewPrinter(language.German)

var leadStatusLabels = map[string]string{
	lead.StatusNew:      "Neu",
	lead.StatusReviewed: "Geprüft",
	lead.StatusApproved: "Genehmigt",
	lead.StatusRejected: "Abgelehnt",
	lead.StatusInvited:  "Eingeladen",
}

const (
	dateLayout     = "2.1.2006"
	dateTimeLayout = "2.1.2006 15:04"
)

// staticFuncs do not depend on the request.
var staticFuncs = template.FuncMap{
	"markdown": func(md string) template.HTML {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(md), &buf); err != nil {
			return template.HTML(template.HTMLEscapeString(md))
		}
		return template.HTML(buf.String())
	},
	"fileSize": func(n int64) string {
		if n <= 0 {
			return ""
		}
		return humanize.Bytes(uint64(n))
	},
	"number":   func(n int) string { return germanNumbers.Sprintf("%d", n) },
	"date":     func(t time.Time) string { return formatLocal(t, dateLayout) },
	"datetime": func(t time.Time) string { return formatLocal(t, dateTimeLayout) },
	"statusLabel": func(s string) string {
		if s == "" {
			s = lead.StatusNew
		}
		if label, ok := leadStatusLabels[s]; ok {
			return label
		}
		return s
	},
	"add":      func(a, b int) int { return a + b },
	"sub":      func(a, b int) int { return a - b },
	"contains": func(items []string, v string) bool { return slices.Contains(items, v) },
	"pageQuery": func(lp listutil.ListParams, page int) template.URL {
		return template.URL(lp.Query(page))
	},
	"sortQuery": func(lp listutil.ListParams, col string) template.URL {
		dir := listutil.Asc
		if lp.Sort == col && lp.Dir == listutil.Asc {
			dir = listutil.Desc
		}
		lp.Sort, lp.Dir = col, dir
		return template.URL(lp.Query(1))
	},
}

// requestFuncs are rebound for every render. The zero versions let the
// templates parse once at first use.
func requestFuncs(r *http.Request) template.FuncMap {
	var (
		sess     middleware.Session
		loggedIn bool
	)
	if r != nil {
		sess, loggedIn = middleware.GetSessionFromContext(r.Context())
	}
	return template.FuncMap{
		"isLoggedIn":   func() bool { return loggedIn },
		"isAdmin":      func() bool { return loggedIn && sess.Role == account.RoleAdmin },
		"currentEmail": func() string { return sess.Email },
		"csrfField": func() template.HTML {
			if r == nil {
				return ""
			}
			return csrf.TemplateField(r)
		},
	}
}

func formatLocal(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.In(settings.Location).Format(layout)
}

var (
	pagesMu sync.Mutex
	pages   = map[string]*template.Template{}
)

// page returns the parsed layout plus the named page, cloned so request funcs can be bound.
func page(name string) (*template.Template, error) {
	pagesMu.Lock()
	defer pagesMu.Unlock()
	base, ok := pages[name]
	if !ok {
		var err error
		base, err = template.New("layout.html").
			Funcs(staticFuncs).
			Funcs(requestFuncs(nil)).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, err
		}
		pages[name] = base
	}
	return base.Clone()
}

func renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	renderTemplateStatus(w, r, http.StatusOK, name, data)
}

// renderTemplateStatus buffers the page so a template error still yields a clean 500.
func renderTemplateStatus(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	tpl, err := page(name)
	if err != nil {
		internalError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := tpl.Funcs(requestFuncs(r)).Execute(&buf, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
