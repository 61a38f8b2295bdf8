package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"salesintake/internal/disclosure"
	"salesintake/internal/domain"
	"salesintake/internal/intake"
	"salesintake/internal/notify"
	"salesintake/internal/repository/postgres"
	s3storage "salesintake/internal/storage/s3"
	"salesintake/internal/upload"
)

var (
	validateOffline bool
	uploadNote      string
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Parse and validate a member sales file",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

var uploadCmd = &cobra.Command{
	Use:   "upload FILE",
	Short: "Validate a file and upload it for processing",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

var zeroSalesCmd = &cobra.Command{
	Use:   "zero-sales",
	Short: "Declare that there were no sales this period",
	Args:  cobra.NoArgs,
	RunE:  runZeroSales,
}

func init() {
	validateCmd.Flags().BoolVar(&validateOffline, "offline", false, "skip sign-in and print the full report")
	uploadCmd.Flags().StringVar(&uploadNote, "note", "", "note recorded with the upload")
}

func readFile(path string) (intake.File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return intake.File{}, err
	}
	return intake.File{
		Name:    filepath.Base(path),
		Size:    int64(len(content)),
		Content: content,
	}, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	f, err := readFile(args[0])
	if err != nil {
		return err
	}

	d := domain.Disclosure{CanViewPreview: true, CanViewValidationDetails: true}
	if !validateOffline {
		p, _, err := a.authenticate(cmd)
		if err != nil {
			return err
		}
		d = disclosure.NewPolicy(a.cfg.Disclosure).Compute(p)
	}

	item := intake.NewPipeline(a.cfg.Intake, a.logger).ParseAndValidate(cmd.Context(), f)
	render(cmd.OutOrStdout(), disclosure.View(item, d, a.cfg.Storage.Enabled()))
	if item.Status == domain.ItemStatusError {
		if item.Cause != nil {
			return fmt.Errorf("%s: %w", item.Name, item.Cause)
		}
		return errors.New(item.Error)
	}
	return nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	p, cred, err := a.authenticate(cmd)
	if err != nil {
		return err
	}
	f, err := readFile(args[0])
	if err != nil {
		return err
	}

	item := intake.NewPipeline(a.cfg.Intake, a.logger).ParseAndValidate(cmd.Context(), f)
	out := cmd.OutOrStdout()
	render(out, disclosure.View(item, disclosure.NewPolicy(a.cfg.Disclosure).Compute(p), a.cfg.Storage.Enabled()))
	if err := item.CheckUploadable(); err != nil {
		return fmt.Errorf("%s: %w", item.Name, err)
	}

	orch, cleanup, err := a.orchestrator()
	if err != nil {
		return err
	}
	defer cleanup()

	op := orch.Start(cmd.Context(), upload.Request{Principal: p, Credential: cred, Item: item, Note: uploadNote})
	for pct := range op.Progress() {
		fmt.Fprintf(out, "\rUploading %s... %3d%%", item.Name, pct)
	}
	fmt.Fprintln(out)

	result, err := op.Wait()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Uploaded %s as %s\n", result.Filename, result.BlobKey)
	if result.Notified {
		fmt.Fprintf(out, "Accounting was notified of %d validation issue(s)\n", result.ValidationIssues)
	}
	return nil
}

func runZeroSales(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	p, cred, err := a.authenticate(cmd)
	if err != nil {
		return err
	}
	orch, cleanup, err := a.orchestrator()
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := orch.ZeroSales(cmd.Context(), p, cred); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Zero sales declared")
	return nil
}

// orchestrator wires the upload path from configuration. cleanup waits for
// background notifications and releases the database.
func (a *app) orchestrator() (*upload.Orchestrator, func(), error) {
	deps := upload.Deps{Registry: a.client, Logger: a.logger}
	var db *sqlx.DB

	if a.cfg.Storage.Enabled() {
		storage, err := s3storage.NewS3Client(&a.cfg.Storage)
		if err != nil {
			return nil, nil, err
		}
		deps.Storage = storage
	}
	notifier, err := notify.New(&a.cfg.Notify, a.client, a.logger)
	if err != nil {
		return nil, nil, err
	}
	deps.Notifier = notifier
	if a.cfg.Pipeline.TriggerURL != "" {
		deps.Pipeline = notify.NewHTTPTrigger(a.cfg.Pipeline.TriggerURL, nil)
	}
	if a.cfg.Journal.Enabled {
		db, err = postgres.NewDB(context.Background(), &a.cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		deps.Journal = postgres.NewUploadJournalRepo(db)
	}

	orch := upload.NewOrchestrator(deps, upload.Options{
		ReportType: a.cfg.Intake.ReportType,
		SourceTag:  "cli",
	})
	cleanup := func() {
		orch.Close()
		if db != nil {
			_ = db.Close()
		}
	}
	return orch, cleanup, nil
}

// render prints an item view the way the portal page lays it out.
func render(w io.Writer, v disclosure.ItemView) {
	fmt.Fprintf(w, "File:   %s (%d bytes)\n", v.Name, v.SizeBytes)
	fmt.Fprintf(w, "Status: %s\n", v.Status)
	if v.Error != "" {
		fmt.Fprintf(w, "Error:  %s\n", v.Error)
	}
	if val := v.Validation; val != nil {
		if val.OK {
			fmt.Fprintf(w, "Validation passed: %d row(s)\n", val.RowCount)
		} else {
			fmt.Fprintf(w, "Validation found %d issue(s) in %d row(s):\n", len(val.Errors), val.RowCount)
			for _, e := range val.Errors {
				fmt.Fprintf(w, "  - %s\n", e)
			}
		}
	}
	if pv := v.Preview; pv != nil && len(pv.Rows) > 0 {
		fmt.Fprintln(w, "Preview:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(pv.Headers, "\t"))
		for _, row := range pv.Rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		_ = tw.Flush()
	}
}

