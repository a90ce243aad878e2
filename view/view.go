// Package view renders the HTML pages. Every page is parsed together with
// layout.html and executed through the layout, which pulls in the page's
// "title" and "content" blocks.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/diewo77/go-questions/i18n"
)

//go:embed templates/*.html
var embedded embed.FS

const layoutName = "layout.html"

// Options configures a Renderer. The resolvers let the host app expose request
// state to templates without this package knowing its types.
type Options struct {
	// Dir, when set, loads templates from disk and reparses them on every render.
	Dir string

	Lang     func(*http.Request) string
	UserName func(*http.Request) (string, bool)
	Can      func(r *http.Request, resource, action string) bool
}

// Renderer executes cached page templates.
type Renderer struct {
	fsys   fs.FS
	reload bool
	opts   Options

	mu    sync.RWMutex
	cache map[string]*template.Template
}

// New returns a Renderer over the embedded templates, or over opts.Dir when set.
func New(opts Options) *Renderer {
	v := &Renderer{opts: opts, cache: map[string]*template.Template{}}
	if opts.Dir != "" {
		v.fsys = os.DirFS(opts.Dir)
		v.reload = true
	} else {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			panic(err)
		}
		v.fsys = sub
	}
	if v.opts.Lang == nil {
		v.opts.Lang = func(*http.Request) string { return i18n.DefaultLang }
	}
	if v.opts.UserName == nil {
		v.opts.UserName = func(*http.Request) (string, bool) { return "", false }
	}
	if v.opts.Can == nil {
		v.opts.Can = func(*http.Request, string, string) bool { return false }
	}
	return v
}

// Funcs returns the request-bound template functions.
func (v *Renderer) Funcs(r *http.Request) template.FuncMap {
	return v.funcs(r, v.opts.Lang(r))
}

func (v *Renderer) funcs(r *http.Request, lang string) template.FuncMap {
	return template.FuncMap{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"lang": func() string { return lang },
		"can": func(resource, action string) bool {
			return v.opts.Can(r, resource, action)
		},
		"year": func() int { return time.Now().Year() },
		// dict builds a map from key-value pairs for sub-templates.
		// Usage: {{ template "partial" (dict "Key1" val1 "Key2" val2) }}
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

// Render executes page name inside the layout and writes it with status.
// Nothing is written when the template fails.
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	userName, loggedIn := v.opts.UserName(r)
	if _, ok := data["UserName"]; !ok {
		data["UserName"] = userName
	}
	if _, ok := data["IsLoggedIn"]; !ok {
		data["IsLoggedIn"] = loggedIn
	}
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = map[string]string{}
	}
	if _, ok := data["Year"]; !ok {
		data["Year"] = time.Now().Year()
	}

	base, err := v.lookup(name)
	if err != nil {
		return err
	}
	t, err := base.Clone()
	if err != nil {
		return fmt.Errorf("clone %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Funcs(v.Funcs(r)).ExecuteTemplate(&buf, layoutName, data); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

// lookup returns the parsed layout+page set, cached unless reloading.
func (v *Renderer) lookup(name string) (*template.Template, error) {
	if !v.reload {
		v.mu.RLock()
		t, ok := v.cache[name]
		v.mu.RUnlock()
		if ok {
			return t, nil
		}
	}
	// Placeholder funcs; the real ones are bound per request.
	t, err := template.New(layoutName).Funcs(v.funcs(nil, i18n.DefaultLang)).ParseFS(v.fsys, layoutName, name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if !v.reload {
		v.mu.Lock()
		v.cache[name] = t
		v.mu.Unlock()
	}
	return t, nil
}
