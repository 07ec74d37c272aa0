package emailsvc

import (
	"fmt"
	"net/http"
	"net/mail"
	"sync"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

const (
	sendAttempts = 3
	appCategory  = "monitor"
)

// sendgridService delivers messages through the sendgrid v3 API.
// Each message is tagged with its template name, so digests can be tracked per kind in sendgrid.
type sendgridService struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	env        string
	sandbox    bool          // accepted by sendgrid but never delivered
	backoff    time.Duration // first retry delay, doubled on each attempt
	logger     core.Logger
	wg         *sync.WaitGroup
}

var _ core.EmailService = (*sendgridService)(nil)

func NewSendgridService(conf *core.Config, logger core.Logger) *sendgridService {
	from := conf.DefaultFromEmail()
	return &sendgridService{
		key:        conf.SendgridApiKey,
		from:       sgmail.NewEmail(from.Name, from.Address),
		subjPrefix: "[" + conf.AppName + "] ",
		env:        conf.Env,
		sandbox:    conf.TestMode,
		backoff:    time.Second,
		logger:     logger,
		wg:         new(sync.WaitGroup),
	}
}

func (svc sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		svc.wg.Add(1)
		go func(msg *core.EmailMessage) {
			defer svc.wg.Done()
			if err := msg.Render(); err != nil {
				svc.logger.Error(fmt.Sprintf("rendering email: %v", err), err, svc.extras(*msg, nil))
				return
			}
			if msg.HasRecipients() && (msg.HasContent() || msg.HasAttachments()) {
				svc.send(*msg)
			}
		}(msg)
	}
}

// Wait blocks until every message handed to SendMessages has been delivered or given up on.
func (svc sendgridService) Wait() { svc.wg.Wait() }

func (svc sendgridService) prepare(msg core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject
	for _, to := range msg.To {
		p.AddTos(svc.getSGEmail(to))
	}
	for _, cc := range msg.Cc {
		p.AddCCs(svc.getSGEmail(cc))
	}
	for _, bcc := range msg.Bcc {
		p.AddBCCs(svc.getSGEmail(bcc))
	}
	p.SetCustomArg("env", svc.env)
	if msg.TemplateName != "" {
		p.SetCustomArg("template", msg.TemplateName)
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	m.AddCategories(svc.categories(msg)...)
	if svc.sandbox {
		m.SetMailSettings(sgmail.NewMailSettings().SetSandboxMode(sgmail.NewSetting(true)))
	}

	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	for _, a := range msg.Attachments {
		m.AddAttachment(svc.getSGAttachment(a))
	}
	return m
}

func (svc sendgridService) categories(msg core.EmailMessage) []string {
	if msg.TemplateName == "" {
		return []string{appCategory}
	}
	return []string{appCategory, msg.TemplateName}
}

func (svc sendgridService) getSGEmail(addr mail.Address) *sgmail.Email {
	return sgmail.NewEmail(addr.Name, addr.Address)
}

func (svc sendgridService) getSGAttachment(at core.Attachment) *sgmail.Attachment {
	return &sgmail.Attachment{
		Content:     at.Content.String(),
		Type:        at.ContentType,
		Filename:    at.Filename,
		Disposition: "attachment",
	}
}

// extras describe a message in error reports without its content.
func (svc sendgridService) extras(msg core.EmailMessage, res *rest.Response) map[string]interface{} {
	to := make([]string, 0, len(msg.To))
	for _, a := range msg.To {
		to = append(to, a.Address)
	}
	extras := map[string]interface{}{
		"template": msg.TemplateName,
		"to":       to,
	}
	if res != nil {
		extras["status_code"] = res.StatusCode
		extras["response"] = res.Body
	}
	return extras
}

// retryable reports whether sendgrid may accept the same request later.
func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// send posts msg, retrying rate limits and server errors. Failures are logged, not returned.
func (svc sendgridService) send(msg core.EmailMessage) {
	body := sgmail.GetRequestBody(svc.prepare(msg))
	delay := svc.backoff

	for attempt := 1; ; attempt++ {
		req := sendgrid.GetRequest(svc.key, endpoint, host)
		req.Method = http.MethodPost
		req.Body = body

		res, err := sendgrid.API(req)
		switch {
		case err != nil:
			if attempt < sendAttempts {
				break
			}
			svc.logger.Error(fmt.Sprintf("sending email: %v", err), err, svc.extras(msg, nil))
			return
		case res.StatusCode < http.StatusBadRequest:
			return
		case !retryable(res.StatusCode) || attempt == sendAttempts:
			svc.logger.Error(fmt.Sprintf("sending email: status %d after %d attempts", res.StatusCode, attempt),
				svc.extras(msg, res))
			return
		}
		time.Sleep(delay)
		delay *= 2
	}
}
