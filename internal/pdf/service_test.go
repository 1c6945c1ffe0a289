package pdf

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline-crm/fieldline-crm/internal/fieldops/quotes"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleQuote() *quotes.Quote {
	return &quotes.Quote{
		Number:    "Q-00042",
		Title:     "Spring maintenance",
		Status:    quotes.StatusSent,
		TaxRate:   dec("8.25"),
		Subtotal:  dec("1580.00"),
		TaxAmount: dec("130.35"),
		Total:     dec("1710.35"),
		Lines: []quotes.Line{
			{Position: 1, Description: "Labor", Quantity: dec("4"), UnitPrice: dec("95.00"), Amount: dec("380.00")},
			{Position: 2, Description: "Compressor", Quantity: dec("1"), UnitPrice: dec("1200.00"), Amount: dec("1200.00")},
		},
	}
}

func TestBuildHTMLRendersQuote(t *testing.T) {
	svc, err := NewService("http://gotenberg.invalid", nil)
	require.NoError(t, err)

	html, err := svc.buildHTML("quote", sampleQuote())
	require.NoError(t, err)

	assert.Contains(t, html, "Quote Q-00042")
	assert.Contains(t, html, "Spring maintenance")
	assert.Contains(t, html, "Compressor")
	assert.Contains(t, html, "1710.35")
	assert.Contains(t, html, "8.25%")
}

func TestRenderDocumentPostsToGotenberg(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("files")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()
		assert.Equal(t, "quote.html", header.Filename)
		assert.Equal(t, "8.5", r.FormValue("paperWidth"))
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer server.Close()

	svc, err := NewService(server.URL, server.Client())
	require.NoError(t, err)

	out, err := svc.RenderDocument(context.Background(), "quote", sampleQuote())
	require.NoError(t, err)

	assert.Equal(t, "/forms/chromium/convert/html", gotPath)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}

func TestRenderDocumentSurfacesGotenbergError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "chromium crashed", http.StatusInternalServerError)
	}))
	defer server.Close()

	svc, err := NewService(server.URL, server.Client())
	require.NoError(t, err)

	_, err = svc.RenderDocument(context.Background(), "quote", sampleQuote())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestRenderDocumentUnknownTemplate(t *testing.T) {
	svc, err := NewService("http://gotenberg.invalid", nil)
	require.NoError(t, err)

	_, err = svc.RenderDocument(context.Background(), "receipt", sampleQuote())
	require.Error(t, err)
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc, err := NewService(server.URL, server.Client())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Ping(ctx))
}
