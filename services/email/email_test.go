package emailsvc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo/core"
)

type logMock struct {
	errors []string
}

func (l *logMock) Debug(msg string, args ...interface{}) {}
func (l *logMock) Info(msg string, args ...interface{})  {}
func (l *logMock) Warn(msg string, args ...interface{})  {}
func (l *logMock) Error(msg string, args ...interface{}) { l.errors = append(l.errors, msg) }
func (l *logMock) Fatal(msg string, args ...interface{}) {}

func newMessage(to string) *core.EmailMessage {
	return &core.EmailMessage{
		To:      []mail.Address{{Name: "Ada", Address: to}},
		Subject: "Payment Receipt RCP-1",
		BodyStr: "Thanks for your payment.",
	}
}

func TestConsoleService(t *testing.T) {
	ClearSentMessages()
	conf := core.NewTestConfig()
	svc := NewConsoleServiceMock(conf)

	svc.SendMessages(
		newMessage("ada@test.cd"),
		&core.EmailMessage{To: []mail.Address{{Address: "empty@test.cd"}}, Subject: "nothing to say"},
		newMessage("ADA@test.cd"),
	)

	assert.Len(t, SentMessages(), 2, "undeliverable messages are dropped")
	msg, ok := LastSentMessage("ada@test.cd")
	if assert.True(t, ok) {
		assert.Equal(t, "ADA@test.cd", msg.To[0].Address)
		assert.Equal(t, "Thanks for your payment.", msg.TextContent)
	}
	_, ok = LastSentMessage("empty@test.cd")
	assert.False(t, ok)

	ClearSentMessages()
	assert.Empty(t, SentMessages())
}

func TestConsoleService_format(t *testing.T) {
	out := new(bytes.Buffer)
	svc := &consoleService{from: mail.Address{Name: "Masomo", Address: "noreply@masomo.test"}, subjPrefix: "[Masomo] ", out: out, blocking: true}

	msg := newMessage("ada@test.cd")
	msg.HTMLContent = "<p>Thanks</p>"
	msg.Cc = []mail.Address{{Address: "parent@test.cd"}}
	require.NoError(t, msg.Attach(strings.NewReader("receipt"), "receipt.txt"))
	svc.SendMessages(msg)

	raw := out.String()
	for _, want := range []string{
		`From: "Masomo" <noreply@masomo.test>`,
		`To: "Ada" <ada@test.cd>`,
		"Cc: <parent@test.cd>",
		"Subject: [Masomo] Payment Receipt RCP-1",
		"Content-Type: multipart/mixed; boundary=",
		"Content-Type: multipart/alternative; boundary=",
		"Thanks for your payment.",
		"<p>Thanks</p>",
		"Content-Disposition: attachment; filename=receipt.txt",
		"cmVjZWlwdA==",
	} {
		assert.Contains(t, raw, want)
	}
	assert.NotContains(t, raw, "Bcc:")
}

func TestSendgridService(t *testing.T) {
	conf := core.NewTestConfig()
	conf.AppName = "Masomo"
	conf.SendgridApiKey = "sg-key"

	tests := []struct {
		name       string
		msg        *core.EmailMessage
		res        *rest.Response
		err        error
		wantCalled bool
		wantErrs   int
	}{
		{name: "sent", msg: newMessage("ada@test.cd"), res: &rest.Response{StatusCode: http.StatusAccepted}, wantCalled: true},
		{name: "nothing to send", msg: &core.EmailMessage{To: []mail.Address{{Address: "ada@test.cd"}}}},
		{name: "rejected", msg: newMessage("ada@test.cd"), res: &rest.Response{StatusCode: http.StatusBadRequest, Body: "bad"}, wantCalled: true, wantErrs: 1},
		{name: "transport error", msg: newMessage("ada@test.cd"), err: errors.New("timeout"), wantCalled: true, wantErrs: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &logMock{}
			svc := NewSendgridService(conf, logger).(*sendgridService)

			var called bool
			var body map[string]interface{}
			svc.api = func(req rest.Request) (*rest.Response, error) {
				called = true
				assert.Equal(t, "Bearer sg-key", req.Headers["Authorization"])
				assert.Equal(t, "https://api.sendgrid.com/v3/mail/send", req.BaseURL)
				require.NoError(t, json.Unmarshal(req.Body, &body))
				return tt.res, tt.err
			}

			svc.deliver(tt.msg)
			assert.Equal(t, tt.wantCalled, called)
			assert.Len(t, logger.errors, tt.wantErrs)
			if called {
				personalizations := body["personalizations"].([]interface{})
				p := personalizations[0].(map[string]interface{})
				assert.Equal(t, "[Masomo] Payment Receipt RCP-1", p["subject"])
				assert.Len(t, body["content"], 1)
			}
		})
	}
}

func TestSendgridService_prepare(t *testing.T) {
	conf := core.NewTestConfig()
	svc := NewSendgridService(conf, &logMock{}).(*sendgridService)

	msg := newMessage("ada@test.cd")
	msg.TemplateName = "payment_receipt"
	msg.TextContent = "text"
	msg.HTMLContent = "<p>html</p>"
	msg.Bcc = []mail.Address{{Address: "audit@test.cd"}}
	require.NoError(t, msg.Attach(strings.NewReader("receipt"), "receipt.txt", "text/plain"))

	m := svc.prepare(*msg)
	assert.Equal(t, []string{"payment_receipt"}, m.Categories)
	if assert.Len(t, m.Personalizations, 1) {
		assert.Len(t, m.Personalizations[0].To, 1)
		assert.Empty(t, m.Personalizations[0].CC)
		assert.Len(t, m.Personalizations[0].BCC, 1)
	}
	if assert.Len(t, m.Content, 2) {
		assert.Equal(t, "text/plain", m.Content[0].Type)
		assert.Equal(t, "text/html", m.Content[1].Type)
	}
	if assert.Len(t, m.Attachments, 1) {
		assert.Equal(t, "cmVjZWlwdA==", m.Attachments[0].Content)
	}
}
