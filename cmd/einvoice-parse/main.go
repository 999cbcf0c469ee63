package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/einvtw/einvoice-filer/internal/config"
	"github.com/einvtw/einvoice-filer/internal/einvoice"
	"github.com/einvtw/einvoice-filer/internal/filing"
	"github.com/einvtw/einvoice-filer/internal/pdfsource"
)

var (
	outputFormat = flag.String("format", "text", "Output format: text, json")
	fill         = flag.Bool("fill", false, "Open the filing portal and fill the declaration form")
	portalURL    = flag.String("portal", config.DefaultPortalURL, "Filing portal URL")
	headless     = flag.Bool("headless", false, "Run the portal browser without a window")
	screenshot   = flag.String("screenshot", "", "Write a PNG of the filled form to this path")
	maxFileSize  = flag.Int64("maxfilesize", config.DefaultMaxFileSize, "Maximum PDF file size in bytes")
	help         = flag.Bool("help", false, "Show help message")
)

func main() {
	flag.Parse()

	if *help {
		printHelp()
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: invoice PDF path required\n\n")
		printUsage()
		os.Exit(1)
	}

	pdfPath := flag.Arg(0)
	if _, err := os.Stat(pdfPath); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: File not found: %s\n", pdfPath)
		os.Exit(1)
	}

	service := pdfsource.NewService(*maxFileSize)

	rec, err := service.ParseFile(pdfPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing invoice: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "json":
		payload, err := json.MarshalIndent(rec.Serialize(), "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding record: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(payload))
	default:
		fmt.Printf("Invoice: %s\n\n", pdfPath)
		fmt.Print(rec.Summary())
	}

	if *fill {
		if err := fillPortal(rec); err != nil {
			fmt.Fprintf(os.Stderr, "Error filling portal form: %v\n", err)
			os.Exit(1)
		}
	}
}

// fillPortal opens the portal, waits for the operator to log in and navigate
// to the declaration form, then fills the extracted fields. Submission stays
// with the operator.
func fillPortal(rec *einvoice.InvoiceRecord) error {
	ctx := context.Background()

	filler := filing.NewFiller(filing.Config{
		PortalURL: *portalURL,
		Headless:  *headless,
	})
	if err := filler.Start(ctx); err != nil {
		return err
	}
	defer filler.Close()

	page, err := filler.OpenPortal(ctx)
	if err != nil {
		return err
	}

	waitForOperator()

	report, err := filler.Fill(ctx, page, rec)
	if err != nil {
		return err
	}

	fmt.Printf("Filled fields: %v\n", report.Filled)
	if len(report.Skipped) > 0 {
		fmt.Printf("Skipped fields: %v\n", report.Skipped)
	}

	if *screenshot != "" {
		if err := filler.Screenshot(page, *screenshot); err != nil {
			return fmt.Errorf("screenshot: %w", err)
		}
		fmt.Printf("Screenshot written to %s\n", *screenshot)
	}

	fmt.Println("Review the form in the browser and submit it, then press Enter to exit...")
	var line string
	_, _ = fmt.Scanln(&line)
	return nil
}

func waitForOperator() {
	fmt.Println("Log in and open the declaration form, then press Enter to fill it...")
	var line string
	_, _ = fmt.Scanln(&line)
}

func printHelp() {
	fmt.Println("E-Invoice Parse - extract filing fields from a Taiwanese e-invoice PDF")
	fmt.Println()
	printUsage()
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -format        Output format: text (default), json")
	fmt.Println("  -fill          Open the filing portal and fill the declaration form")
	fmt.Println("  -portal        Filing portal URL")
	fmt.Println("  -headless      Run the portal browser without a window")
	fmt.Println("  -screenshot    Write a PNG of the filled form to this path")
	fmt.Println("  -maxfilesize   Maximum PDF file size in bytes")
	fmt.Println("  -help          Show this help message")
	fmt.Println()
	fmt.Println("With -fill, the tool opens the portal, waits for you to log in and reach the")
	fmt.Println("declaration form, then fills the extracted fields. Review and submit by hand.")
}

func printUsage() {
	fmt.Println("USAGE:")
	fmt.Println("  einvoice-parse [options] <invoice.pdf>")
}
