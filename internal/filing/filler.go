// Package filing drives the e-invoice portal's declaration form in a real
// browser. It fills the form from an extracted record and stops there:
// logging in and pressing submit stay with the operator.
package filing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/einvtw/einvoice-filer/internal/einvoice"
)

// Config configures the Filler.
type Config struct {
	// PortalURL is the filing portal address.
	PortalURL string

	// Headless hides the browser window. Leave false when the operator
	// needs to log in by hand.
	Headless bool

	// ElementTimeout bounds the wait for each form element. Default: 10s.
	ElementTimeout time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.ElementTimeout <= 0 {
		c.ElementTimeout = 10 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Filler owns one browser for portal form filling.
type Filler struct {
	cfg     Config
	lnch    *launcher.Launcher
	browser *rod.Browser
}

// NewFiller creates a Filler. Call Start to launch the browser.
func NewFiller(cfg Config) *Filler {
	cfg.defaults()
	return &Filler{cfg: cfg}
}

// Start launches a local browser and connects to it.
func (f *Filler) Start(ctx context.Context) error {
	l := launcher.New().Headless(f.cfg.Headless)
	// Anti-detection flags.
	l = l.Set("disable-blink-features", "AutomationControlled")

	wsURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("filing: launch browser: %w", err)
	}
	f.lnch = l

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("filing: connect browser: %w", err)
	}
	f.browser = b

	f.cfg.Logger.Info("filing: browser started", "headless", f.cfg.Headless)
	return nil
}

// OpenPortal opens a stealth tab on the portal and waits for it to load.
// The operator logs in on this tab before Fill is called.
func (f *Filler) OpenPortal(ctx context.Context) (*rod.Page, error) {
	if f.browser == nil {
		return nil, fmt.Errorf("filing: browser not started")
	}

	page, err := stealth.Page(f.browser)
	if err != nil {
		return nil, fmt.Errorf("filing: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := page.Context(navCtx).Navigate(f.cfg.PortalURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("filing: navigate %s: %w", f.cfg.PortalURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		f.cfg.Logger.Warn("filing: portal load timeout", "url", f.cfg.PortalURL, "error", err)
	}

	f.cfg.Logger.Info("filing: portal opened", "url", f.cfg.PortalURL)
	return page, nil
}

// Fill types the record's fields into the declaration form on the given
// page. Fields without an extracted value are skipped and reported; a form
// element the page does not have fails only when the field is critical.
func (f *Filler) Fill(ctx context.Context, page *rod.Page, rec *einvoice.InvoiceRecord) (*FillReport, error) {
	plan, err := BuildPlan(rec)
	if err != nil {
		return nil, err
	}

	report := &FillReport{}
	for _, entry := range plan {
		if entry.Value == "" {
			report.Skipped = append(report.Skipped, entry.Field)
			continue
		}
		if err := f.fillOne(ctx, page, entry); err != nil {
			if entry.Critical {
				return nil, fmt.Errorf("filing: %s: %w", entry.Field, err)
			}
			f.cfg.Logger.Warn("filing: field skipped", "field", entry.Field, "error", err)
			report.Skipped = append(report.Skipped, entry.Field)
			continue
		}
		report.Filled = append(report.Filled, entry.Field)
	}

	f.cfg.Logger.Info("filing: form filled",
		"filled", len(report.Filled), "skipped", len(report.Skipped))
	return report, nil
}

func (f *Filler) fillOne(ctx context.Context, page *rod.Page, entry PlanEntry) error {
	elemCtx, cancel := context.WithTimeout(ctx, f.cfg.ElementTimeout)
	defer cancel()

	el, err := page.Context(elemCtx).Element(entry.Selector)
	if err != nil {
		return fmt.Errorf("element %s not found: %w", entry.Selector, err)
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("select %s: %w", entry.Selector, err)
	}
	if err := el.Input(entry.Value); err != nil {
		return fmt.Errorf("input %s: %w", entry.Selector, err)
	}
	return nil
}

// Screenshot captures the page into path for the filing audit trail.
func (f *Filler) Screenshot(page *rod.Page, path string) error {
	data, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return fmt.Errorf("filing: screenshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("filing: write screenshot: %w", err)
	}
	return nil
}

// Close shuts the browser down.
func (f *Filler) Close() error {
	if f.browser != nil {
		if err := f.browser.Close(); err != nil {
			return fmt.Errorf("filing: close browser: %w", err)
		}
		f.browser = nil
	}
	if f.lnch != nil {
		f.lnch.Cleanup()
		f.lnch = nil
	}
	return nil
}
