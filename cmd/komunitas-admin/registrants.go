package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/komunitas-inovasi/komunitas/internal/adapters/registrantapi"
	"github.com/komunitas-inovasi/komunitas/internal/domain/model"
	"github.com/komunitas-inovasi/komunitas/internal/i18n"
	"github.com/komunitas-inovasi/komunitas/internal/viewer"
)

// passwordEnv keeps the admin password out of shell history and process listings.
const passwordEnv = "KOMUNITAS_ADMIN_PASSWORD"

type backendOptions struct {
	Username    string
	Locale      string
	Timeout     time.Duration
	Concurrency int
}

func addBackendFlags(fs *pflag.FlagSet, opts *backendOptions) {
	fs.StringVarP(&opts.Username, "username", "u", os.Getenv("KOMUNITAS_ADMIN_USERNAME"), "admin username")
	fs.StringVar(&opts.Locale, "locale", "", "locale for export labels (default APP_LOCALE)")
	fs.DurationVar(&opts.Timeout, "timeout", 5*time.Minute, "overall command timeout")
	fs.IntVar(&opts.Concurrency, "concurrency", 0, "concurrent attachment downloads (default EXPORT_ATTACHMENT_CONCURRENCY)")
}

type listOptions struct {
	backendOptions
	Page int
}

type exportOptions struct {
	backendOptions
	Out string
}

func parseListFlags(args []string) (listOptions, error) {
	var opts listOptions
	fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
	addBackendFlags(fs, &opts.backendOptions)
	fs.IntVarP(&opts.Page, "page", "p", 1, "page to print")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.Page < 1 {
		return opts, errors.New("--page must be at least 1")
	}
	return opts, nil
}

func parseExportFlags(name string, args []string) (exportOptions, error) {
	var opts exportOptions
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	addBackendFlags(fs, &opts.backendOptions)
	fs.StringVarP(&opts.Out, "out", "o", ".", "output directory or file path")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

// loadedViewer logs in with the admin credentials and loads the full registrant collection.
func loadedViewer(ctx context.Context, cmdCtx *commandContext, opts backendOptions) (*viewer.Viewer, string, error) {
	password := os.Getenv(passwordEnv)
	if strings.TrimSpace(opts.Username) == "" || password == "" {
		return nil, "", fmt.Errorf("--username and %s are required", passwordEnv)
	}

	cfg := cmdCtx.Config
	client, err := registrantapi.NewClient(registrantapi.Config{
		BaseURL:            cfg.Backend.APIURL,
		Timeout:            cfg.Backend.Timeout,
		MaxAttachmentBytes: cfg.Export.MaxAttachmentBytes,
	})
	if err != nil {
		return nil, "", err
	}

	token, err := client.Login(ctx, model.AdminCredentials{Username: opts.Username, Password: password})
	if err != nil {
		return nil, "", fmt.Errorf("login: %w", err)
	}

	locale := opts.Locale
	if locale == "" {
		locale = cfg.Locale.Default
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = cfg.Export.AttachmentConcurrency
	}

	v, err := viewer.New(client, viewer.Options{
		Labels:                i18n.NewTranslator(cfg.Locale.Default, cmdCtx.Logger).ExportLabels(locale),
		AttachmentConcurrency: concurrency,
		Logger:                cmdCtx.Logger,
	})
	if err != nil {
		return nil, "", err
	}
	if err := v.LoadRecords(ctx, token.Token); err != nil {
		return nil, "", err
	}
	return v, token.Token, nil
}

func runList(cmdCtx *commandContext, args []string) error {
	opts, err := parseListFlags(args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	v, _, err := loadedViewer(ctx, cmdCtx, opts.backendOptions)
	if err != nil {
		return err
	}
	// An empty collection has no pages; page 1 still prints the empty notice.
	if v.TotalPages() == 0 && opts.Page == 1 {
		return printPage(cmdCtx, v.Snapshot())
	}
	if err := v.GoToPage(opts.Page); err != nil {
		return fmt.Errorf("page %d of %d: %w", opts.Page, v.TotalPages(), err)
	}
	return printPage(cmdCtx, v.Snapshot())
}

func printPage(cmdCtx *commandContext, page viewer.Page) error {
	if page.Empty {
		return writef(cmdCtx.Stdout, "No registrants.\n")
	}
	tw := tabwriter.NewWriter(cmdCtx.Stdout, 0, 0, 2, ' ', 0)
	if err := writef(tw, "#\tID\tNAME\tEMAIL\tPHONE\tPROOF\n"); err != nil {
		return err
	}
	for i, r := range page.Items {
		proof := "-"
		if r.Attachment != nil {
			proof = *r.Attachment
		}
		if err := writef(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			page.StartIndex+i+1, r.ID, r.Name, r.Email, r.Phone, proof); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writef(cmdCtx.Stdout, "\nPage %d of %d, %s registrants\n",
		page.Page, page.TotalPages, humanize.Comma(int64(page.TotalCount)))
}

func runExportSpreadsheet(cmdCtx *commandContext, args []string) error {
	opts, err := parseExportFlags("export-xlsx", args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	v, _, err := loadedViewer(ctx, cmdCtx, opts.backendOptions)
	if err != nil {
		return err
	}
	out, err := v.ExportSpreadsheet(ctx)
	if err != nil {
		return err
	}
	return saveExport(cmdCtx, opts.Out, out)
}

func runExportArchive(cmdCtx *commandContext, args []string) error {
	opts, err := parseExportFlags("export-zip", args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	v, token, err := loadedViewer(ctx, cmdCtx, opts.backendOptions)
	if err != nil {
		return err
	}
	out, err := v.ExportAttachmentsArchive(ctx, token)
	if err != nil {
		return err
	}
	return saveExport(cmdCtx, opts.Out, out)
}

// saveExport writes the export into dir (using its own file name) or to the given file path.
func saveExport(cmdCtx *commandContext, dest string, out *viewer.Export) error {
	path := dest
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		path = filepath.Join(dest, out.Filename)
	}
	if err := os.WriteFile(path, out.Data, 0o600); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	msg := fmt.Sprintf("Wrote %s (%s, %d entries", path, humanize.Bytes(uint64(len(out.Data))), out.Entries)
	if out.Skipped > 0 {
		msg += fmt.Sprintf(", %d skipped", out.Skipped)
	}
	return writef(cmdCtx.Stdout, "%s)\n", msg)
}
