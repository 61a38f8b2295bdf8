package ses

import (
	"context"
	"fmt"
	"html"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"salesintake/internal/config"
	"salesintake/internal/domain"
	"salesintake/internal/port"
)

// emailAPI is the part of the SES client the notifier uses.
type emailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type sesNotifier struct {
	client      emailAPI
	fromAddress string
	fromName    string
	recipients  []string
}

// NewSESNotifier creates an SES-backed AccountingNotifier that emails the
// configured accounting recipients.
func NewSESNotifier(cfg *config.NotifyConfig) (port.AccountingNotifier, error) {
	if len(cfg.AccountingRecipients) == 0 {
		return nil, fmt.Errorf("ses notifier: notify.accounting_recipients is empty")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return newWithClient(sesv2.NewFromConfig(awsCfg), cfg), nil
}

func newWithClient(client emailAPI, cfg *config.NotifyConfig) *sesNotifier {
	return &sesNotifier{
		client:      client,
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
		recipients:  cfg.AccountingRecipients,
	}
}

func (s *sesNotifier) NotifyAccounting(ctx context.Context, _ domain.Credential, notice domain.AccountingNotice) error {
	subject := fmt.Sprintf("Validation issues in %s", notice.FileName)
	htmlBody := buildNoticeHTML(notice)
	textBody := buildNoticeText(notice)
	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: s.recipients,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildNoticeText(n domain.AccountingNotice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s uploaded %s with %d validation issue(s):\n\n", n.UploadedBy, n.FileName, len(n.Errors))
	for _, e := range n.Errors {
		fmt.Fprintf(&b, "  - %s\n", e)
	}
	b.WriteString("\nSales Intake")
	return b.String()
}

func buildNoticeHTML(n domain.AccountingNotice) string {
	var items strings.Builder
	for _, e := range n.Errors {
		fmt.Fprintf(&items, "    <li>%s</li>\n", html.EscapeString(e))
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Validation issues in an uploaded file</h2>
  <p><strong>%s</strong> uploaded <strong>%s</strong> with %d validation issue(s):</p>
  <ul>
%s  </ul>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">Sales Intake</p>
</body>
</html>`, html.EscapeString(n.UploadedBy), html.EscapeString(n.FileName), len(n.Errors), items.String())
}
