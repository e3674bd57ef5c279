package api

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"slices"
	"strings"

	pterrors "github.com/producttrack/producttrack/internal/errors"
)

// AnalysisOCR is the analysis mode the client requests.
const AnalysisOCR = "ocr-gpt-only"

// ScanResult is the reply to an analysis or a name confirmation.
type ScanResult struct {
	Message           string `json:"mensajeGPT" yaml:"message"`
	NeedsConfirmation bool   `json:"requiereConfirmacion" yaml:"needs_confirmation"`
	Suggestion        string `json:"sugerencia,omitempty" yaml:"suggestion,omitempty"`
	Record            struct {
		ID    int64  `json:"id" yaml:"id"`
		Query string `json:"consulta" yaml:"query"`
	} `json:"registro" yaml:"record"`
}

// ScanRecord is a stored analysis, as listed for audit.
type ScanRecord struct {
	ID           int64         `json:"id" yaml:"id"`
	Query        string        `json:"consulta" yaml:"query"`
	Response     *ScanResponse `json:"respuesta" yaml:"response,omitempty"`
	AnalyzedAt   string        `json:"fechaAnalisis" yaml:"analyzed_at"`
	IsFood       bool          `json:"esAlimento" yaml:"is_food"`
	AnalysisType string        `json:"tipoAnalisis" yaml:"analysis_type"`
	IsTest       bool          `json:"isTest,omitempty" yaml:"is_test,omitempty"`
	User         *struct {
		FullName    string `json:"nombreCompleto" yaml:"full_name"`
		AccountType string `json:"tipoUsuario" yaml:"account_type"`
	} `json:"usuario,omitempty" yaml:"user,omitempty"`
}

type ScanResponse struct {
	Message     string `json:"mensaje" yaml:"message"`
	GeneratedBy string `json:"generadoPor" yaml:"generated_by"`
}

// Analyze uploads a label image for analysis.
func (c *Client) Analyze(ctx context.Context, filename string, image io.Reader) (*ScanResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="imagen"; filename="`+escapeQuotes(filename)+`"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, pterrors.Wrap(pterrors.ErrCodeAPIRequest, "failed to build upload", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, pterrors.Wrap(pterrors.ErrCodeFileReadFailed, "failed to read image", err)
	}
	if err := w.WriteField("tipoAnalisis", AnalysisOCR); err != nil {
		return nil, pterrors.Wrap(pterrors.ErrCodeAPIRequest, "failed to build upload", err)
	}
	if err := w.Close(); err != nil {
		return nil, pterrors.Wrap(pterrors.ErrCodeAPIRequest, "failed to build upload", err)
	}

	var result ScanResult
	if err := c.send(ctx, http.MethodPost, "/api/ocr/nutriscan-ocr", nil, &buf, w.FormDataContentType(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ImageExtensions are the label image formats the analyzer accepts.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// AnalyzeFile uploads the image at path.
func (c *Client) AnalyzeFile(ctx context.Context, path string) (*ScanResult, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(ImageExtensions, ext) {
		return nil, pterrors.New(pterrors.ErrCodeFileReadFailed,
			"unsupported image type "+ext+"; use "+strings.Join(ImageExtensions, ", "))
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pterrors.NewFileNotFoundError(path)
		}
		return nil, pterrors.Wrap(pterrors.ErrCodeFileReadFailed, "failed to open image", err)
	}
	defer f.Close()
	return c.Analyze(ctx, filepath.Base(path), f)
}

// ConfirmName confirms or corrects the product name of an analysis.
func (c *Client) ConfirmName(ctx context.Context, recordID int64, productName string) (*ScanResult, error) {
	body := struct {
		RecordID    int64  `json:"registroId"`
		ProductName string `json:"nombreProducto"`
	}{recordID, productName}

	var result ScanResult
	if err := c.do(ctx, http.MethodPost, "/api/ocr/confirmar-nombre", nil, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ScanRecords lists every stored analysis. Audit only.
func (c *Client) ScanRecords(ctx context.Context) ([]ScanRecord, error) {
	var records []ScanRecord
	if err := c.do(ctx, http.MethodGet, "/nutriscan", nil, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ScanRecordsByUser lists one user's analyses.
func (c *Client) ScanRecordsByUser(ctx context.Context, userID int64) ([]ScanRecord, error) {
	var records []ScanRecord
	if err := c.do(ctx, http.MethodGet, idPath("/nutriscan/usuario/%d", userID), nil, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// UpdateScanRecord replaces a stored analysis.
func (c *Client) UpdateScanRecord(ctx context.Context, r ScanRecord) error {
	return c.do(ctx, http.MethodPut, idPath("/nutriscan/%d", r.ID), nil, r, nil)
}

// DeleteScanRecord removes a stored analysis.
func (c *Client) DeleteScanRecord(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/nutriscan/%d", id), nil, nil, nil)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
