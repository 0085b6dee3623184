package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dukerupert/bharosa/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Config configures the email service.
type Config struct {
	FromAddress string
	FromName    string
	AdminEmail  string
}

// Service composes and sends the store's transactional mail. A nil sender
// means SMTP is not configured; every send is then skipped.
type Service struct {
	sender    Sender
	config    Config
	templates map[string]*template.Template
}

// NewService creates a new email service and parses the embedded templates.
func NewService(sender Sender, config Config) (*Service, error) {
	printer := message.NewPrinter(language.MustParse("en-IN"))
	funcs := template.FuncMap{
		"rupees": func(amount int64) string {
			return printer.Sprintf("₹%d", amount)
		},
	}

	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email layout: %w", err)
	}

	pages := []EmailTemplate{
		AdminNewOrderEmail{},
		OrderPlacedEmail{},
		PaymentSuccessEmail{},
		StatusUpdateEmail{},
		OTPEmail{},
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, p := range pages {
		name := p.TemplateName()
		t, err := template.Must(layout.Clone()).ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse email template %s: %w", name, err)
		}
		templates[name] = t
	}

	return &Service{
		sender:    sender,
		config:    config,
		templates: templates,
	}, nil
}

// Configured reports whether mail can be sent at all.
func (s *Service) Configured() bool {
	return s.sender != nil
}

// AdminConfigured reports whether an admin recipient is set.
func (s *Service) AdminConfigured() bool {
	return s.sender != nil && s.config.AdminEmail != ""
}

// SendAdminNewOrder mails the order summary to the admin address.
func (s *Service) SendAdminNewOrder(ctx context.Context, order *domain.Order) (bool, error) {
	return s.send(ctx, s.config.AdminEmail, AdminNewOrderEmail{Order: order})
}

// SendOrderPlaced mails the customer a cash-on-delivery confirmation.
func (s *Service) SendOrderPlaced(ctx context.Context, order *domain.Order) (bool, error) {
	return s.send(ctx, order.Customer.Email, OrderPlacedEmail{Order: order})
}

// SendPaymentSuccess mails the customer a payment receipt.
func (s *Service) SendPaymentSuccess(ctx context.Context, order *domain.Order) (bool, error) {
	return s.send(ctx, order.Customer.Email, PaymentSuccessEmail{Order: order})
}

// SendStatusUpdate mails the customer the order's current status.
func (s *Service) SendStatusUpdate(ctx context.Context, order *domain.Order) (bool, error) {
	return s.send(ctx, order.Customer.Email, StatusUpdateEmail{Order: order})
}

// SendOTP mails a one-time password.
func (s *Service) SendOTP(ctx context.Context, to string, data OTPEmail) (bool, error) {
	return s.send(ctx, to, data)
}

// send renders and delivers a message. It reports false with no error when
// there is no sender or no recipient.
func (s *Service) send(ctx context.Context, to string, data EmailTemplate) (bool, error) {
	to = strings.TrimSpace(to)
	if s.sender == nil || to == "" {
		return false, nil
	}

	htmlBody, textBody, err := s.renderTemplate(data.TemplateName(), data)
	if err != nil {
		return false, err
	}

	email := &Email{
		To:       []string{to},
		Subject:  data.Subject(),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}
	if s.config.FromAddress != "" {
		email.From = s.config.FromAddress
		if s.config.FromName != "" {
			email.From = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromAddress)
		}
	}

	if _, err := s.sender.Send(ctx, email); err != nil {
		return false, fmt.Errorf("failed to send %s: %w", data.TemplateName(), err)
	}
	return true, nil
}

// Helper method to render a template
func (s *Service) renderTemplate(templateName string, data any) (string, string, error) {
	tmpl, ok := s.templates[templateName]
	if !ok {
		return "", "", ErrTemplateMissing
	}

	var htmlBuf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&htmlBuf, "email_layout", data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	htmlBody := htmlBuf.String()
	return htmlBody, generatePlainText(htmlBody), nil
}

var (
	plainTextPolicy = bluemonday.StrictPolicy()

	// block-level closings become line breaks before tags are stripped
	lineBreaks = strings.NewReplacer(
		"<br>", "\n", "<br/>", "\n", "<br />", "\n",
		"</div>", "</div>\n", "</tr>", "</tr>\n", "</li>", "</li>\n",
		"</p>", "</p>\n\n", "</h1>", "</h1>\n\n", "</h2>", "</h2>\n\n", "</h3>", "</h3>\n\n",
		"</td>", "</td> ",
	)
)

// generatePlainText derives the text/plain alternative from a rendered
// template.
func generatePlainText(body string) string {
	text := lineBreaks.Replace(body)
	text = html.UnescapeString(plainTextPolicy.Sanitize(text))
	text = strings.ReplaceAll(text, "\u00a0", " ")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
