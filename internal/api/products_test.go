package api

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pterrors "github.com/producttrack/producttrack/internal/errors"
)

func TestSummarize(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	products := []Product{
		{Name: "Leche", Quantity: 2, ExpiresOn: "2025-03-01"},
		{Name: "Yogur", Quantity: 10, ExpiresOn: "2025-03-15T00:00:00"},
		{Name: "Queso", Quantity: 10, ExpiresOn: "2025-03-17"},
		{Name: "Arroz", Quantity: 20, ExpiresOn: "2025-03-18"},
		{Name: "Pan", Quantity: 5, Status: StatusExpired},
		{Name: "Sal", Quantity: 8, ExpiresOn: "sin fecha"},
	}

	got := Summarize(products, 5, now)
	assert.Equal(t, StockSummary{Total: 6, Units: 55, LowStock: 2, Expired: 2, Expiring: 2}, got)
	assert.Equal(t, StockSummary{}, Summarize(nil, 5, now))
}

func TestHistoryKind(t *testing.T) {
	tests := []struct {
		action string
		want   string
	}{
		{"agregado", ActionAdded},
		{"MODIFICADO", ActionModified},
		{"eliminado", ActionDeleted},
		{"", ActionDeleted},
		{"archivado", ActionDeleted},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			assert.Equal(t, tt.want, HistoryEntry{Action: tt.action}.Kind())
		})
	}
}

func TestNewestFirst(t *testing.T) {
	entries := []HistoryEntry{
		{ID: 1, ChangedAt: "2025-01-01T08:00:00"},
		{ID: 2, ChangedAt: "?"},
		{ID: 3, ChangedAt: "2025-02-01T08:00:00Z"},
		{ID: 4, ChangedAt: "2025-01-15"},
	}
	NewestFirst(entries)

	var ids []int64
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []int64{3, 4, 1, 2}, ids)
}

func TestOwnedBy(t *testing.T) {
	products := []Product{
		{ID: 1, Owner: &ProductOwner{AccountType: "INDIVIDUAL"}},
		{ID: 2, Owner: &ProductOwner{AccountType: "EMPRESARIAL"}},
		{ID: 3},
	}
	assert.Len(t, OwnedBy(products, ""), 3)

	owned := OwnedBy(products, "individual")
	require.Len(t, owned, 1)
	assert.Equal(t, int64(1), owned[0].ID)
}

func TestProductExpiry(t *testing.T) {
	d, ok := Product{ExpiresOn: "2025-06-30T00:00:00.000+00:00"}.Expiry()
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), d)

	_, ok = Product{}.Expiry()
	assert.False(t, ok)
}

func TestAnalyzeFileRejectsBeforeUpload(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	dir := t.TempDir()

	gif := filepath.Join(dir, "label.gif")
	require.NoError(t, os.WriteFile(gif, []byte("GIF89a"), 0o600))
	_, err := c.AnalyzeFile(context.Background(), gif)
	assert.True(t, pterrors.HasCode(err, pterrors.ErrCodeFileReadFailed))
	assert.Contains(t, err.Error(), ".gif")

	_, err = c.AnalyzeFile(context.Background(), filepath.Join(dir, "missing.png"))
	assert.True(t, pterrors.HasCode(err, pterrors.ErrCodeFileNotFound))

	assert.False(t, called)
}

func TestAnalyzeFileUploadsBaseName(t *testing.T) {
	var filename string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, hdr, err := r.FormFile("imagen")
		require.NoError(t, err)
		filename = hdr.Filename
		_, _ = w.Write([]byte(`{"mensajeGPT":"Avena: 4 g de fibra"}`))
	})

	path := filepath.Join(t.TempDir(), "Avena.JPG")
	require.NoError(t, os.WriteFile(path, []byte("JPEGDATA"), 0o600))

	res, err := c.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Avena.JPG", filename)
	assert.Equal(t, "Avena: 4 g de fibra", res.Message)
}
