// Package leadsource loads leads from JSON, CSV, and XLSX files, either on
// local disk or behind http(s):// and ftp:// URLs.
package leadsource

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/lead-scorer/internal/fetcher"
	"github.com/sells-group/lead-scorer/internal/model"
)

// Format names a lead file encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatOf infers the format from a path or URL extension.
func FormatOf(uri string) (Format, error) {
	p := uri
	if u, err := url.Parse(uri); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		p = u.Path
	}
	switch ext := strings.ToLower(path.Ext(filepath.ToSlash(p))); ext {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", eris.Errorf("leadsource: unsupported file type %q for %s", ext, uri)
	}
}

// Options configures a Loader.
type Options struct {
	Timeout time.Duration // remote fetch timeout
	Sheet   string        // xlsx sheet name; empty selects the first
}

// Loader reads leads from local files and remote URLs.
type Loader struct {
	opts Options
}

// NewLoader creates a Loader.
func NewLoader(opts Options) *Loader {
	return &Loader{opts: opts}
}

// Load reads every lead at uri. Rows without a name are skipped with a
// warning.
func (l *Loader) Load(ctx context.Context, uri string) ([]model.Lead, error) {
	format, err := FormatOf(uri)
	if err != nil {
		return nil, err
	}

	var rc io.ReadCloser
	if isRemote(uri) {
		f, err := fetcher.ForURL(uri, fetcher.Options{Timeout: l.opts.Timeout})
		if err != nil {
			return nil, eris.Wrap(err, "leadsource: load")
		}
		if rc, err = f.Download(ctx, uri); err != nil {
			return nil, eris.Wrapf(err, "leadsource: fetch %s", redact(uri))
		}
	} else {
		if rc, err = os.Open(uri); err != nil {
			return nil, eris.Wrapf(err, "leadsource: open %s", uri)
		}
	}
	defer rc.Close() //nolint:errcheck

	leads, err := l.Decode(ctx, format, rc)
	if err != nil {
		return nil, eris.Wrapf(err, "leadsource: load %s", redact(uri))
	}
	return leads, nil
}

// Decode parses leads in the given format from r.
func (l *Loader) Decode(ctx context.Context, format Format, r io.Reader) ([]model.Lead, error) {
	var (
		leads   []model.Lead
		skipped int
	)
	emit := func(raw rawLead) {
		lead, ok := raw.lead()
		if !ok {
			skipped++
			return
		}
		leads = append(leads, lead)
	}

	var err error
	switch format {
	case FormatJSON:
		err = decodeJSON(ctx, r, emit)
	case FormatCSV:
		err = decodeCSV(ctx, r, emit)
	case FormatXLSX:
		err = l.decodeWorkbook(ctx, r, emit)
	default:
		err = eris.Errorf("leadsource: unsupported format %q", format)
	}
	if err != nil {
		return nil, err
	}

	if skipped > 0 {
		zap.L().Warn("leadsource: skipped rows without a name",
			zap.String("format", string(format)),
			zap.Int("skipped", skipped),
		)
	}
	zap.L().Debug("leadsource: decoded leads",
		zap.String("format", string(format)),
		zap.Int("leads", len(leads)),
	)
	return leads, nil
}

func (l *Loader) decodeWorkbook(ctx context.Context, r io.Reader, emit func(rawLead)) error {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return eris.Wrap(err, "xlsx: read")
	}
	f, err := xlsx.OpenBinary(buf.Bytes())
	if err != nil {
		return eris.Wrap(err, "xlsx: open workbook")
	}
	return decodeXLSX(ctx, f, l.opts.Sheet, emit)
}

func isRemote(uri string) bool {
	u, err := url.Parse(uri)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https", "ftp":
		return true
	}
	return false
}

// redact strips credentials from a URL for logging.
func redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.User == nil {
		return uri
	}
	return u.Redacted()
}
