package pdf

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

// Service renders document templates to HTML and converts them to PDF
// through a Gotenberg instance.
type Service struct {
	endpoint  string
	client    *http.Client
	templates *template.Template
}

// NewService parses the embedded document templates. The endpoint points at
// the Gotenberg base URL.
func NewService(endpoint string, client *http.Client) (*Service, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	funcMap := template.FuncMap{
		"money": func(d decimal.Decimal) string {
			return d.StringFixed(2)
		},
		"qty": func(d decimal.Decimal) string {
			return d.String()
		},
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("January 2, 2006")
		},
		"formatDatePtr": func(t *time.Time) string {
			if t == nil || t.IsZero() {
				return ""
			}
			return t.Format("January 2, 2006")
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"label": func(s string) string {
			return strings.ReplaceAll(s, "_", " ")
		},
		"now": func() string {
			return time.Now().Format("January 2, 2006")
		},
	}

	tpl, err := template.New("documents").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse document templates: %w", err)
	}

	return &Service{
		endpoint:  strings.TrimRight(endpoint, "/"),
		client:    client,
		templates: tpl,
	}, nil
}

// Ping checks whether the Gotenberg service is reachable.
func (s *Service) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gotenberg returned status %d", resp.StatusCode)
	}
	return nil
}

// RenderDocument executes the named template with data and converts the
// resulting HTML to PDF bytes.
func (s *Service) RenderDocument(ctx context.Context, name string, data any) ([]byte, error) {
	html, err := s.buildHTML(name, data)
	if err != nil {
		return nil, fmt.Errorf("render %s template: %w", name, err)
	}
	return s.convert(ctx, name, html)
}

func (s *Service) buildHTML(name string, data any) (string, error) {
	buf := &bytes.Buffer{}
	if err := s.templates.ExecuteTemplate(buf, name+".html", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Service) convert(ctx context.Context, name, html string) ([]byte, error) {
	if s.endpoint == "" {
		return nil, fmt.Errorf("gotenberg endpoint required")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("files", name+".html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, err
	}

	fields := map[string]string{
		"paperWidth":   "8.5",
		"paperHeight":  "11",
		"marginTop":    "0.5",
		"marginBottom": "0.5",
		"marginLeft":   "0.5",
		"marginRight":  "0.5",
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("gotenberg response %d: %s", resp.StatusCode, string(detail))
	}
	return io.ReadAll(resp.Body)
}
