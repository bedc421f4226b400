package emailsvc

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
)

// outbox records every message delivered by the console services.
var outbox struct {
	sync.Mutex
	messages []core.EmailMessage
}

// ClearSentMessages empties the outbox.
func ClearSentMessages() {
	outbox.Lock()
	defer outbox.Unlock()
	outbox.messages = nil
}

// SentMessages returns a copy of the outbox, oldest first.
func SentMessages() []core.EmailMessage {
	outbox.Lock()
	defer outbox.Unlock()
	return append([]core.EmailMessage(nil), outbox.messages...)
}

// LastSentMessage returns the most recent message sent to addr.
func LastSentMessage(addr string) (core.EmailMessage, bool) {
	outbox.Lock()
	defer outbox.Unlock()
	for i := len(outbox.messages) - 1; i >= 0; i-- {
		for _, to := range outbox.messages[i].To {
			if strings.EqualFold(to.Address, addr) {
				return outbox.messages[i], true
			}
		}
	}
	return core.EmailMessage{}, false
}

// consoleService prints MIME messages instead of sending them.
type consoleService struct {
	from       mail.Address
	subjPrefix string
	out        io.Writer // nil: silent
	blocking   bool
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService(conf *core.Config) core.EmailService {
	return &consoleService{
		from:       conf.DefaultFromEmail,
		subjPrefix: "[" + conf.AppName + "] ",
		out:        os.Stdout,
	}
}

// NewConsoleServiceMock returns a silent console service delivering synchronously.
func NewConsoleServiceMock(conf *core.Config) core.EmailService {
	return &consoleService{
		from:       conf.DefaultFromEmail,
		subjPrefix: "[" + conf.AppName + "] ",
		blocking:   true,
	}
}

func (svc *consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if svc.blocking {
			svc.deliver(msg)
			continue
		}
		go svc.deliver(msg)
	}
}

func (svc *consoleService) deliver(msg *core.EmailMessage) {
	if err := msg.Render(); err != nil {
		log.Printf("emailsvc: rendering email %q: %v", msg.TemplateName, err)
		return
	}
	if !msg.Deliverable() {
		return
	}

	if svc.out != nil {
		raw, err := svc.format(*msg)
		if err != nil {
			log.Printf("emailsvc: %+v", err)
			return
		}
		_, _ = fmt.Fprintln(svc.out, raw)
	}

	outbox.Lock()
	outbox.messages = append(outbox.messages, *msg)
	outbox.Unlock()
}

// format builds the raw MIME message: multipart/alternative bodies, wrapped in multipart/mixed with attachments.
func (svc *consoleService) format(msg core.EmailMessage) (string, error) {
	var alt bytes.Buffer
	altW := multipart.NewWriter(&alt)
	if err := writePart(altW, "text/plain; charset=utf-8", "", msg.TextContent); err != nil {
		return "", err
	}
	if msg.HTMLContent != "" {
		if err := writePart(altW, "text/html; charset=utf-8", "", msg.HTMLContent); err != nil {
			return "", err
		}
	}
	if err := altW.Close(); err != nil {
		return "", errors.Wrap(err, "closing multipart/alternative")
	}
	altType := "multipart/alternative; boundary=" + altW.Boundary()

	var out strings.Builder
	header := func(key, val string) {
		if val != "" {
			_, _ = fmt.Fprintf(&out, "%s: %s\r\n", key, val)
		}
	}
	header("From", svc.from.String())
	header("To", joinAddresses(msg.To))
	header("Cc", joinAddresses(msg.Cc))
	header("Bcc", joinAddresses(msg.Bcc))
	header("Subject", mime.QEncoding.Encode("utf-8", svc.subjPrefix+msg.Subject))
	header("Date", time.Now().Format(time.RFC1123Z))
	header("MIME-Version", "1.0")

	if !msg.HasAttachments() {
		header("Content-Type", altType)
		out.WriteString("\r\n")
		out.Write(alt.Bytes())
		return out.String(), nil
	}

	var mixed bytes.Buffer
	mixedW := multipart.NewWriter(&mixed)
	if err := writePart(mixedW, altType, "", alt.String()); err != nil {
		return "", err
	}
	for _, at := range msg.Attachments {
		if err := writePart(mixedW, at.ContentType, at.Filename, at.Content.String()); err != nil {
			return "", err
		}
	}
	if err := mixedW.Close(); err != nil {
		return "", errors.Wrap(err, "closing multipart/mixed")
	}
	header("Content-Type", "multipart/mixed; boundary="+mixedW.Boundary())
	out.WriteString("\r\n")
	out.Write(mixed.Bytes())
	return out.String(), nil
}

// writePart adds a part to w; a filename makes it a base64 attachment.
func writePart(w *multipart.Writer, contentType, filename, content string) error {
	h := textproto.MIMEHeader{"Content-Type": {contentType}}
	if filename != "" {
		h.Set("Content-Transfer-Encoding", "base64")
		h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	}
	pw, err := w.CreatePart(h)
	if err != nil {
		return errors.Wrapf(err, "creating %s part", contentType)
	}
	_, err = io.WriteString(pw, content)
	return errors.Wrapf(err, "writing %s part", contentType)
}

func joinAddresses(addrs []mail.Address) string {
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}
