package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"salesintake/internal/domain"
	"salesintake/internal/port"
)

const (
	// ZeroSalesFilename is registered in place of a file for a zero-sales declaration.
	ZeroSalesFilename = "ZERO_SALES"
	ZeroSalesNote     = "Zero Sales Declaration"

	defaultNotifyTimeout = 30 * time.Second
)

// Request asks for one item to be transferred and registered.
type Request struct {
	Principal  *domain.Principal
	Credential domain.Credential
	Item       *domain.IntakeItem
	Note       string
}

// Options tunes an Orchestrator.
type Options struct {
	ReportType    string
	SourceTag     string
	NotifyTimeout time.Duration
	Now           func() time.Time
}

// Deps are the collaborators of an Orchestrator. Storage nil disables uploads;
// Notifier, Journal and Pipeline are optional.
type Deps struct {
	Storage  port.ObjectStorage
	Registry port.UploadRegistry
	Notifier port.AccountingNotifier
	Journal  port.UploadJournal
	Pipeline port.PipelineTrigger
	Logger   *zap.Logger
}

// Orchestrator transfers parsed files to blob storage and registers them with
// the backend.
type Orchestrator struct {
	deps Deps
	opts Options
	wg   sync.WaitGroup
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(deps Deps, opts Options) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = defaultNotifyTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{deps: deps, opts: opts}
}

// Enabled reports whether a storage target is configured.
func (o *Orchestrator) Enabled() bool {
	return o != nil && o.deps.Storage != nil
}

// Start begins transferring req.Item. The returned Operation is already
// running; callers observe it through Progress and Wait.
func (o *Orchestrator) Start(ctx context.Context, req Request) *Operation {
	opCtx, cancel := context.WithCancel(ctx)
	op := newOperation(cancel)

	switch {
	case !o.Enabled():
		op.finish(nil, domain.ErrUploadsDisabled)
		return op
	case req.Principal == nil:
		op.finish(nil, domain.ErrUnauthenticated)
		return op
	case req.Item == nil:
		op.finish(nil, domain.ErrNoActiveItem)
		return op
	case req.Item.Content == nil || req.Item.Validation == nil:
		op.finish(nil, req.Item.CheckUploadable())
		return op
	}

	go func() {
		result, err := o.run(opCtx, op, req)
		op.finish(result, err)
	}()
	return op
}

func (o *Orchestrator) run(ctx context.Context, op *Operation, req Request) (*domain.UploadResult, error) {
	item := req.Item
	at := o.opts.Now().UTC()
	key := BlobKey(item.Name, at)
	size := int64(len(item.Content))

	o.deps.Logger.Info("upload.Orchestrator: transfer started",
		zap.String("item_id", item.ID.String()),
		zap.String("key", key),
		zap.Int64("size", size),
	)

	out, err := o.deps.Storage.Upload(ctx, port.UploadInput{
		Key:         key,
		Body:        bytes.NewReader(item.Content),
		ContentType: item.ContentType,
		Size:        size,
		Metadata:    Metadata(req.Principal, at, o.opts.SourceTag),
		OnProgress: func(sent int64) {
			if size > 0 {
				op.report(int(sent * 100 / size))
			}
		},
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, fmt.Errorf("%w: canceled", domain.ErrUploadFailed)
		}
		o.deps.Logger.Warn("upload.Orchestrator: transfer failed",
			zap.String("item_id", item.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	op.report(100)

	entry := o.recordStored(ctx, key, item.Name, req.Principal, at)

	input := domain.RegisterUploadInput{
		Filename:   item.Name,
		ReportType: o.opts.ReportType,
		Note:       req.Note,
	}
	if err := o.deps.Registry.RegisterUpload(ctx, req.Credential, input); err != nil {
		o.deps.Logger.Error("upload.Orchestrator: registration failed after transfer",
			zap.String("item_id", item.ID.String()),
			zap.String("key", key),
			zap.Error(err),
		)
		o.markOrphaned(entry, err)
		return nil, fmt.Errorf("%w: %v", domain.ErrRegistrationFailed, err)
	}
	o.markRegistered(entry)

	result := &domain.UploadResult{
		ItemID:     item.ID,
		Filename:   item.Name,
		BlobKey:    key,
		Location:   out.Location,
		ReportType: o.opts.ReportType,
	}
	if item.HasValidationIssues() {
		result.ValidationIssues = len(item.Validation.Errors)
		result.Notified = o.notifyAccounting(ctx, req, item)
	}
	o.triggerPipeline(ctx, port.PipelineEvent{
		BlobKey:    key,
		Filename:   item.Name,
		ReportType: o.opts.ReportType,
		UploadedBy: req.Principal.UploaderName(),
	})

	o.deps.Logger.Info("upload.Orchestrator: upload registered",
		zap.String("item_id", item.ID.String()),
		zap.String("key", key),
		zap.Int("validation_issues", result.ValidationIssues),
	)
	return result, nil
}

// ZeroSales registers a zero-sales declaration. Only business partners declare.
func (o *Orchestrator) ZeroSales(ctx context.Context, p *domain.Principal, cred domain.Credential) (*domain.UploadResult, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	if p.IsInternal() {
		return nil, domain.ErrBusinessPartnerOnly
	}
	input := domain.RegisterUploadInput{
		Filename:   ZeroSalesFilename,
		ReportType: o.opts.ReportType,
		Note:       ZeroSalesNote,
	}
	if err := o.deps.Registry.RegisterUpload(ctx, cred, input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRegistrationFailed, err)
	}
	o.deps.Logger.Info("upload.Orchestrator: zero sales declared",
		zap.String("principal", p.ID), zap.String("bp_code", p.BPCode))
	return &domain.UploadResult{Filename: ZeroSalesFilename, ReportType: o.opts.ReportType}, nil
}

// Close waits for in-flight notifications to finish.
func (o *Orchestrator) Close() {
	o.wg.Wait()
}

// notifyAccounting dispatches the validation failures in the background and
// reports whether a notification was sent off.
func (o *Orchestrator) notifyAccounting(ctx context.Context, req Request, item *domain.IntakeItem) bool {
	if o.deps.Notifier == nil {
		return false
	}
	notice := domain.AccountingNotice{
		FileName:   item.Name,
		UploadedBy: req.Principal.UploaderName(),
		Errors:     append([]string(nil), item.Validation.Errors...),
	}
	o.background(ctx, func(bgCtx context.Context) {
		if err := o.deps.Notifier.NotifyAccounting(bgCtx, req.Credential, notice); err != nil {
			o.deps.Logger.Warn("upload.Orchestrator: accounting notification failed",
				zap.String("file", notice.FileName), zap.Error(err))
		}
	})
	return true
}

func (o *Orchestrator) triggerPipeline(ctx context.Context, event port.PipelineEvent) {
	if o.deps.Pipeline == nil {
		return
	}
	o.background(ctx, func(bgCtx context.Context) {
		if err := o.deps.Pipeline.Trigger(bgCtx, event); err != nil {
			o.deps.Logger.Warn("upload.Orchestrator: pipeline trigger failed",
				zap.String("key", event.BlobKey), zap.Error(err))
		}
	})
}

// background runs fn on a context detached from the request so that it
// completes even after the caller has returned.
func (o *Orchestrator) background(ctx context.Context, fn func(context.Context)) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.NotifyTimeout)
		defer cancel()
		fn(bgCtx)
	}()
}

func (o *Orchestrator) recordStored(ctx context.Context, key, filename string, p *domain.Principal, at time.Time) *domain.JournalEntry {
	if o.deps.Journal == nil {
		return nil
	}
	entry := &domain.JournalEntry{
		ID:         uuid.New(),
		BlobKey:    key,
		Filename:   filename,
		UploaderID: p.ID,
		Status:     domain.JournalStatusStored,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	if err := o.deps.Journal.RecordStored(ctx, entry); err != nil {
		o.deps.Logger.Warn("upload.Orchestrator: journal record failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	return entry
}

func (o *Orchestrator) markRegistered(entry *domain.JournalEntry) {
	if entry == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), o.opts.NotifyTimeout)
	defer cancel()
	if err := o.deps.Journal.MarkRegistered(ctx, entry.ID); err != nil {
		o.deps.Logger.Warn("upload.Orchestrator: journal update failed", zap.String("key", entry.BlobKey), zap.Error(err))
	}
}

func (o *Orchestrator) markOrphaned(entry *domain.JournalEntry, cause error) {
	if entry == nil {
		return
	}
	// The request context may be the reason registration failed.
	ctx, cancel := context.WithTimeout(context.Background(), o.opts.NotifyTimeout)
	defer cancel()
	if err := o.deps.Journal.MarkOrphaned(ctx, entry.ID, cause.Error()); err != nil {
		o.deps.Logger.Warn("upload.Orchestrator: journal update failed", zap.String("key", entry.BlobKey), zap.Error(err))
	}
}
