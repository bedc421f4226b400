package core

import (
	"bytes"
	"encoding/base64"
	"fmt"
	htmltmpl "html/template"
	"io"
	"io/fs"
	"net/http"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"
)

const (
	textTmplExt = ".txt"
	htmlTmplExt = ".gohtml"
	baseTmplPfx = "_"
)

// emailTemplates holds the parsed email templates, by name.
var emailTemplates = struct {
	sync.RWMutex
	byName map[string]*emailTemplate
	ctx    TemplateContext
}{byName: make(map[string]*emailTemplate)}

type (
	emailTemplate struct {
		text *texttmpl.Template
		html *htmltmpl.Template
	}

	// TemplateContext is the root value of every email template; per-message data is under `.Data`.
	TemplateContext struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	Attachment struct {
		Content     *bytes.Buffer // base64 encoded
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string // plain text, used instead of a template
		Attachments []Attachment

		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func lookupEmailTemplate(name string) (*emailTemplate, TemplateContext, bool) {
	emailTemplates.RLock()
	defer emailTemplates.RUnlock()
	tmpl, ok := emailTemplates.byName[name]
	return tmpl, emailTemplates.ctx, ok
}

// Render fills TextContent & HTMLContent from BodyStr or the message's template.
// An unknown template renders nothing.
func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}
	tmpl, ctx, ok := lookupEmailTemplate(m.TemplateName)
	if !ok {
		return nil
	}
	ctx.Data = m.TemplateData

	var buf bytes.Buffer
	if tmpl.text != nil && m.BodyStr == "" {
		if err := tmpl.text.Execute(&buf, ctx); err != nil {
			return fmt.Errorf("rendering %s%s: %w", m.TemplateName, textTmplExt, err)
		}
		m.TextContent = buf.String()
	}
	if tmpl.html != nil {
		buf.Reset()
		if err := tmpl.html.Execute(&buf, ctx); err != nil {
			return fmt.Errorf("rendering %s%s: %w", m.TemplateName, htmlTmplExt, err)
		}
		m.HTMLContent = buf.String()
	}
	return nil
}

// Attach base64-encodes the content of r as an attachment; its content type is sniffed unless given.
func (m *EmailMessage) Attach(r io.Reader, filename string, ct ...string) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	at := Attachment{Filename: filename, Content: new(bytes.Buffer)}
	encoder := base64.NewEncoder(base64.StdEncoding, at.Content)
	if _, err = encoder.Write(content); err != nil {
		return err
	}
	if err = encoder.Close(); err != nil {
		return err
	}
	if len(ct) > 0 {
		at.ContentType = ct[0]
	} else {
		at.ContentType = http.DetectContentType(content)
	}
	m.Attachments = append(m.Attachments, at)
	return nil
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return (m.TextContent != "") || (m.HTMLContent != "") }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }

// Deliverable reports whether a rendered message has somewhere to go and something to say.
func (m *EmailMessage) Deliverable() bool {
	return m.HasRecipients() && (m.HasContent() || m.HasAttachments())
}

// ParseEmailTemplates parses every `<name>.txt` & `<name>.gohtml` under dir of fsys,
// each on top of the `_base` template of the same extension.
func ParseEmailTemplates(fsys fs.FS, dir string, conf *Config, logger Logger) {
	emailTemplates.Lock()
	defer emailTemplates.Unlock()

	emailTemplates.ctx = TemplateContext{AppName: conf.AppName, FrontendBaseURL: conf.FrontendBaseURL}
	emailTemplates.byName = make(map[string]*emailTemplate)

	fps, err := fs.Glob(fsys, path.Join(dir, "*"))
	if err != nil {
		logger.Error(fmt.Sprintf("core.ParseEmailTemplates: %v", err), err)
		return
	}

	// fail on missing data keys outside of production
	missingKey := "missingkey=default"
	if conf.Debug || conf.TestMode {
		missingKey = "missingkey=error"
	}

	for _, fp := range fps {
		fname := path.Base(fp)
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, baseTmplPfx) || (ext != textTmplExt && ext != htmlTmplExt) {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		tmpl, ok := emailTemplates.byName[name]
		if !ok {
			tmpl = new(emailTemplate)
			emailTemplates.byName[name] = tmpl
		}

		base := path.Join(dir, baseTmplPfx+"base"+ext)
		switch ext {
		case textTmplExt:
			t, err := texttmpl.ParseFS(fsys, base, fp)
			if err != nil {
				logger.Error(fmt.Sprintf("core.ParseEmailTemplates(%s): %v", fname, err), err)
				continue
			}
			tmpl.text = t.Option(missingKey)
		case htmlTmplExt:
			t, err := htmltmpl.ParseFS(fsys, base, fp)
			if err != nil {
				logger.Error(fmt.Sprintf("core.ParseEmailTemplates(%s): %v", fname, err), err)
				continue
			}
			tmpl.html = t.Option(missingKey)
		}
	}
}
