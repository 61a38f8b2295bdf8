package port

import (
	"context"

	"salesintake/internal/domain"
)

// AccountingNotifier delivers validation failures to accounting staff.
type AccountingNotifier interface {
	NotifyAccounting(ctx context.Context, cred domain.Credential, notice domain.AccountingNotice) error
}

// PipelineEvent announces a registered upload to an external processing pipeline.
type PipelineEvent struct {
	BlobKey    string `json:"blob_key"`
	Filename   string `json:"filename"`
	ReportType string `json:"report_type"`
	UploadedBy string `json:"uploaded_by"`
}

// PipelineTrigger starts downstream processing of a registered upload.
type PipelineTrigger interface {
	Trigger(ctx context.Context, event PipelineEvent) error
}
