package ses

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesintake/internal/config"
	"salesintake/internal/domain"
)

type fakeSES struct {
	got *sesv2.SendEmailInput
	err error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.got = in
	return &sesv2.SendEmailOutput{}, f.err
}

var testCfg = &config.NotifyConfig{
	FromAddress:          "noreply@example.com",
	FromName:             "Sales Intake",
	AccountingRecipients: []string{"ap@example.com", "ar@example.com"},
}

func TestNotifyAccounting(t *testing.T) {
	fake := &fakeSES{}
	n := newWithClient(fake, testCfg)

	err := n.NotifyAccounting(context.Background(), domain.Credential{}, domain.AccountingNotice{
		FileName:   "march.csv",
		UploadedBy: "acme",
		Errors:     []string{"Row 3: CAF Dollars mismatch (expected 5, got <5.01>)"},
	})

	require.NoError(t, err)
	require.NotNil(t, fake.got)
	assert.Equal(t, "Sales Intake <noreply@example.com>", *fake.got.FromEmailAddress)
	assert.Equal(t, []string{"ap@example.com", "ar@example.com"}, fake.got.Destination.ToAddresses)
	assert.Equal(t, "Validation issues in march.csv", *fake.got.Content.Simple.Subject.Data)
	assert.Contains(t, *fake.got.Content.Simple.Body.Text.Data, "- Row 3: CAF Dollars mismatch")
	assert.Contains(t, *fake.got.Content.Simple.Body.Html.Data, "got &lt;5.01&gt;")
}

func TestNotifyAccounting_Error(t *testing.T) {
	n := newWithClient(&fakeSES{err: errors.New("throttled")}, testCfg)
	err := n.NotifyAccounting(context.Background(), domain.Credential{}, domain.AccountingNotice{FileName: "x.csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SES SendEmail: throttled")
}

func TestNewSESNotifier_RequiresRecipients(t *testing.T) {
	_, err := NewSESNotifier(&config.NotifyConfig{Region: "us-east-1"})
	assert.Error(t, err)
}
