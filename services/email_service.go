package services

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"golang.org/x/net/html"

	"backend/models"
)

// Send error categories reported back per vendor so the send endpoint
// can explain partial failures.
const (
	SendErrorConfig    = "CONFIG_ERROR"
	SendErrorAuth      = "AUTH_ERROR"
	SendErrorRecipient = "RECIPIENT_ERROR"
	SendErrorGeneric   = "EMAIL_ERROR"
)

// SendOutcome is the per-vendor result of an RFP distribution.
type SendOutcome struct {
	Success   bool   `json:"success"`
	Method    string `json:"method"`
	Vendor    string `json:"vendor"`
	Error     string `json:"error,omitempty"`
	ErrorType string `json:"errorType,omitempty"`
}

// EmailService sends RFP emails over SMTP. Credentials come from the
// environment; the service is safe to construct even when they are
// missing, every send just fails with a config error.
type EmailService struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewEmailService reads the SMTP settings from the environment.
func NewEmailService() *EmailService {
	port := os.Getenv("EMAIL_PORT")
	if port == "" {
		port = "587"
	}
	return &EmailService{
		host:     os.Getenv("EMAIL_HOST"),
		port:     port,
		username: os.Getenv("EMAIL_USER"),
		password: os.Getenv("EMAIL_PASSWORD"),
		from:     os.Getenv("EMAIL_FROM"),
	}
}

// Configured reports whether the SMTP settings are usable.
func (es *EmailService) Configured() bool {
	return es.host != "" && es.username != "" && es.password != "" && es.from != ""
}

// SendRFPToVendor renders the RFP email and delivers it to one vendor.
// Failures are reported in the outcome, never as a panic or a dropped
// vendor; the caller accumulates outcomes across the distribution list.
func (es *EmailService) SendRFPToVendor(rfp *models.RFP, vendor *models.Vendor) SendOutcome {
	outcome := SendOutcome{Method: "email", Vendor: vendor.Name}

	if !es.Configured() {
		outcome.Error = "SMTP not configured. Set EMAIL_HOST, EMAIL_USER, EMAIL_PASSWORD and EMAIL_FROM."
		outcome.ErrorType = SendErrorConfig
		return outcome
	}
	if !strings.Contains(vendor.Email, "@") {
		outcome.Error = fmt.Sprintf("Invalid recipient email address: %s", vendor.Email)
		outcome.ErrorType = SendErrorRecipient
		return outcome
	}

	subject := fmt.Sprintf("RFP: %s", rfp.Title)
	body := convertHTMLToText(generateRFPEmail(rfp))

	if err := es.sendEmail(vendor.Email, subject, body); err != nil {
		outcome.Error = err.Error()
		outcome.ErrorType = classifySendError(err)
		return outcome
	}

	outcome.Success = true
	return outcome
}

func classifySendError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "535") || strings.Contains(msg, "username") || strings.Contains(msg, "auth"):
		return SendErrorAuth
	case strings.Contains(msg, "550") || strings.Contains(msg, "recipient"):
		return SendErrorRecipient
	default:
		return SendErrorGeneric
	}
}

// sendEmail delivers a single plain-text message over SMTP.
func (es *EmailService) sendEmail(to, subject, body string) error {
	auth := smtp.PlainAuth("", es.username, es.password, es.host)

	headers := []string{
		"From: " + es.from,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}
	msg := []byte(strings.Join(headers, "\r\n") + "\r\n")

	return smtp.SendMail(es.host+":"+es.port, auth, es.from, []string{to}, msg)
}

// generateRFPEmail renders the vendor-facing RFP as HTML: an items
// table, the hard requirements, and the reply instructions.
func generateRFPEmail(rfp *models.RFP) string {
	var rows strings.Builder
	for _, item := range rfp.Items {
		spec := item.Specifications
		if spec == "" {
			spec = "N/A"
		}
		fmt.Fprintf(&rows, "<tr><td>%s</td><td>%d</td><td>%s</td></tr>", item.Name, item.Quantity, spec)
	}

	var reqs strings.Builder
	if rfp.Budget != nil {
		p := message.NewPrinter(language.English)
		reqs.WriteString(p.Sprintf("<li>Budget: $%d</li>", int64(*rfp.Budget)))
	}
	if rfp.DeliveryDate != nil {
		fmt.Fprintf(&reqs, "<li>Delivery: %s</li>", rfp.DeliveryDate.Format("2006-01-02"))
	}
	if rfp.PaymentTerms != nil {
		fmt.Fprintf(&reqs, "<li>Payment Terms: %s</li>", *rfp.PaymentTerms)
	}

	return fmt.Sprintf(`
      <html><body style="font-family: Arial, sans-serif;">
        <h2>Request for Proposal: %s</h2>
        <p>Dear Vendor,</p>
        <p>We are requesting proposals for: %s</p>

        <h3>Items Requested:</h3>
        <table border="1" style="border-collapse: collapse; width: 100%%;">
          <tr><th>Item</th><th>Quantity</th><th>Specifications</th></tr>
          %s
        </table>

        <h3>Requirements:</h3>
        <ul>
          %s
        </ul>

        <p>Please reply with your proposal including pricing, delivery timeline, and terms.</p>
        <p>Best regards,<br>Procurement Team</p>
      </body></html>
    `, rfp.Title, rfp.Description, rows.String(), reqs.String())
}

// convertHTMLToText converts HTML content to plain text for email sending
func convertHTMLToText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		// If parsing fails, return the original content
		return htmlContent
	}

	var text strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text.WriteString(n.Data)
		case html.ElementNode:
			// Add line breaks for block elements
			switch n.Data {
			case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6":
				text.WriteString("\n")
			case "li":
				text.WriteString("- ")
			case "table":
				text.WriteString("\n")
			case "tr":
				text.WriteString("\n")
			case "td", "th":
				text.WriteString(" | ")
			}
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			extractText(child)
		}
	}

	extractText(doc)

	result := text.String()
	result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	result = strings.TrimSpace(result)

	return result
}
