package chrome

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// A4 paper in inches.
const (
	paperWidth  = 8.27
	paperHeight = 11.69
	margin      = 0.4
)

// Options configures the headless browser used for conversion.
type Options struct {
	ChromePath string
	NoSandbox  bool
	Timeout    time.Duration
}

// Converter wraps a scanned or photographed page into a single-page PDF.
type Converter struct {
	opts Options
}

// NewConverter returns a converter; Chrome is started per conversion.
func NewConverter(opts Options) *Converter {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Converter{opts: opts}
}

// ImageToPDF renders img on an A4 page, scaled to fit, and returns the PDF bytes.
func (c *Converter) ImageToPDF(ctx context.Context, img []byte) ([]byte, error) {
	mime := http.DetectContentType(img)
	if len(mime) < 6 || mime[:6] != "image/" {
		return nil, fmt.Errorf("unsupported image content %q", mime)
	}

	tmpDir, err := os.MkdirTemp("", "chromedata-*")
	if err != nil {
		return nil, fmt.Errorf("cannot create temp profile dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	allocatorOptions := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(tmpDir),
		// Force software rendering and avoid Vulkan/ANGLE issues in minimal container environments.
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-gpu-compositing", true),
		chromedp.Flag("disable-features", "Vulkan,UseSkiaRenderer"),
		chromedp.Flag("use-gl", "swiftshader"),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if c.opts.ChromePath != "" {
		allocatorOptions = append(allocatorOptions, chromedp.ExecPath(c.opts.ChromePath))
	}
	if c.opts.NoSandbox {
		allocatorOptions = append(allocatorOptions, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions...)
	defer cancelAlloc()
	chromeCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	chromeCtx, cancelTimeout := context.WithTimeout(chromeCtx, c.opts.Timeout)
	defer cancelTimeout()

	return renderHTML(chromeCtx, imagePage(mime, img))
}

func imagePage(mime string, img []byte) string {
	return `<!DOCTYPE html><html><head><style>
html,body{margin:0;padding:0;height:100%}
body{display:flex;align-items:center;justify-content:center}
img{max-width:100%;max-height:100%;object-fit:contain}
</style></head><body><img src="data:` + mime + `;base64,` +
		base64.StdEncoding.EncodeToString(img) + `"></body></html>`
}

// renderHTML prints html into a PDF within the tab bound to ctx.
func renderHTML(ctx context.Context, html string) ([]byte, error) {
	var pdfBuf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frame, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frame.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("img", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidth).
				WithPaperHeight(paperHeight).
				WithMarginTop(margin).
				WithMarginBottom(margin).
				WithMarginLeft(margin).
				WithMarginRight(margin).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuf, nil
}
