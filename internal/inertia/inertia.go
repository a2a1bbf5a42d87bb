package inertia

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
)

const (
	HeaderInertia          = "X-Inertia"
	HeaderVersion          = "X-Inertia-Version"
	HeaderLocation         = "X-Inertia-Location"
	HeaderPartialData      = "X-Inertia-Partial-Data"
	HeaderPartialComponent = "X-Inertia-Partial-Component"
)

//go:embed templates/app.html
var templatesFS embed.FS

type Props map[string]any

// SharedFunc возвращает пропсы, общие для всех страниц (auth.user, flash, app)
type SharedFunc func(w http.ResponseWriter, r *http.Request) Props

// Page - объект страницы, который клиент получает в JSON или в data-page
type Page struct {
	Component string `json:"component"`
	Props     Props  `json:"props"`
	URL       string `json:"url"`
	Version   string `json:"version"`
}

type Renderer struct {
	title   string
	version string
	shared  SharedFunc
	root    *template.Template
}

func New(title, version string, shared SharedFunc) (*Renderer, error) {
	root, err := template.ParseFS(templatesFS, "templates/app.html")
	if err != nil {
		return nil, fmt.Errorf("parse root template: %w", err)
	}

	return &Renderer{
		title:   title,
		version: version,
		shared:  shared,
		root:    root,
	}, nil
}

func (r *Renderer) Version() string {
	return r.version
}

func IsInertia(req *http.Request) bool {
	return req.Header.Get(HeaderInertia) == "true"
}

// Render отдаёт JSON для Inertia-запроса и HTML-оболочку для первого захода
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, component string, props Props) error {
	return r.RenderStatus(w, req, http.StatusOK, component, props)
}

func (r *Renderer) RenderStatus(w http.ResponseWriter, req *http.Request, status int, component string, props Props) error {
	page := Page{
		Component: component,
		Props:     r.buildProps(w, req, component, props),
		URL:       req.URL.RequestURI(),
		Version:   r.version,
	}

	w.Header().Add("Vary", HeaderInertia)

	if IsInertia(req) {
		w.Header().Set(HeaderInertia, "true")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		return json.NewEncoder(w).Encode(page)
	}

	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("marshal page: %w", err)
	}

	var buf bytes.Buffer
	err = r.root.Execute(&buf, map[string]any{
		"Title":   r.title,
		"Version": r.version,
		"Page":    string(data),
	})
	if err != nil {
		return fmt.Errorf("render root template: %w", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

// Redirect: после PUT/PATCH/DELETE клиент должен получить 303, иначе повторит метод
func (r *Renderer) Redirect(w http.ResponseWriter, req *http.Request, url string) {
	status := http.StatusFound
	switch req.Method {
	case http.MethodPut, http.MethodPatch, http.MethodDelete:
		status = http.StatusSeeOther
	}
	http.Redirect(w, req, url, status)
}

// Location заставляет клиента сделать полный переход (например, на OAuth-провайдера)
func (r *Renderer) Location(w http.ResponseWriter, req *http.Request, url string) {
	if IsInertia(req) {
		w.Header().Set(HeaderLocation, url)
		w.WriteHeader(http.StatusConflict)
		return
	}
	http.Redirect(w, req, url, http.StatusFound)
}

// Middleware отвечает 409 на GET с устаревшей версией ассетов
func (r *Renderer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if IsInertia(req) && req.Method == http.MethodGet && req.Header.Get(HeaderVersion) != r.version {
			w.Header().Set(HeaderLocation, req.URL.RequestURI())
			w.WriteHeader(http.StatusConflict)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (r *Renderer) buildProps(w http.ResponseWriter, req *http.Request, component string, props Props) Props {
	merged := Props{}
	if r.shared != nil {
		for k, v := range r.shared(w, req) {
			merged[k] = v
		}
	}
	for k, v := range props {
		merged[k] = v
	}

	only := partialKeys(req, component)
	if only == nil {
		return merged
	}

	partial := Props{}
	for _, key := range only {
		if v, ok := merged[key]; ok {
			partial[key] = v
		}
	}
	return partial
}

// partialKeys - список пропсов частичной перезагрузки; nil, если перезагрузка полная
func partialKeys(req *http.Request, component string) []string {
	if !IsInertia(req) || req.Header.Get(HeaderPartialComponent) != component {
		return nil
	}
	raw := req.Header.Get(HeaderPartialData)
	if raw == "" {
		return nil
	}

	var keys []string
	for _, key := range strings.Split(raw, ",") {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}
