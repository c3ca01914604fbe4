package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"backend/models"
)

// rfpMatchWindow limits how far back the receiver looks for the RFP a
// replying vendor was invited to.
const rfpMatchWindow = 30 * 24 * time.Hour

var angleAddrPattern = regexp.MustCompile(`<(.+?)>`)

// ProcessResult describes what happened to one inbound vendor email.
type ProcessResult struct {
	Success bool   `json:"success"`
	Vendor  string `json:"vendor,omitempty"`
	RFPID   string `json:"rfpId,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// EmailReceiver pulls vendor replies from an IMAP mailbox and turns
// them into proposals.
type EmailReceiver struct {
	db *gorm.DB
	ai *AIService

	host     string
	username string
	password string
}

// NewEmailReceiver reads the IMAP settings from the environment.
func NewEmailReceiver(db *gorm.DB, ai *AIService) *EmailReceiver {
	host := os.Getenv("IMAP_HOST")
	if host == "" {
		host = "imap.gmail.com:993"
	}
	return &EmailReceiver{
		db:       db,
		ai:       ai,
		host:     host,
		username: os.Getenv("IMAP_USER"),
		password: os.Getenv("IMAP_PASSWORD"),
	}
}

// Configured reports whether mailbox credentials are present.
func (er *EmailReceiver) Configured() bool {
	return er.username != "" && er.password != ""
}

// CheckNewEmails connects to the mailbox and fetches unread messages
// whose subject mentions RFP. Fetched messages are marked seen.
func (er *EmailReceiver) CheckNewEmails() ([]models.InboundEmail, error) {
	if !er.Configured() {
		return nil, fmt.Errorf("mailbox credentials not configured. Set IMAP_USER and IMAP_PASSWORD")
	}

	c, err := client.DialTLS(er.host, nil)
	if err != nil {
		return nil, fmt.Errorf("IMAP connect failed: %w", err)
	}
	defer c.Logout()

	if err := c.Login(er.username, er.password); err != nil {
		return nil, fmt.Errorf("IMAP login failed: %w", err)
	}
	if _, err := c.Select("INBOX", false); err != nil {
		return nil, fmt.Errorf("failed to open INBOX: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	criteria.Header.Add("Subject", "RFP")

	ids, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("IMAP search failed: %w", err)
	}
	if len(ids) == 0 {
		return []models.InboundEmail{}, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	// Fetching the full body without peek marks the message seen.
	section := &imap.BodySectionName{}
	items := []imap.FetchItem{section.FetchItem()}

	messages := make(chan *imap.Message, len(ids))
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, items, messages)
	}()

	var emails []models.InboundEmail
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		email, err := parseInboundMessage(body)
		if err != nil {
			log.Printf("Failed to parse inbound message: %v", err)
			continue
		}
		emails = append(emails, email)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("IMAP fetch failed: %w", err)
	}

	return emails, nil
}

// parseInboundMessage reads the MIME structure of one message and pulls
// out the headers plus the text and HTML parts.
func parseInboundMessage(r io.Reader) (models.InboundEmail, error) {
	var email models.InboundEmail

	mr, err := mail.CreateReader(r)
	if err != nil {
		return email, err
	}

	header := mr.Header
	if from, err := header.AddressList("From"); err == nil && len(from) > 0 {
		email.From = from[0].Address
	}
	if to, err := header.AddressList("To"); err == nil && len(to) > 0 {
		email.To = to[0].Address
	}
	if subject, err := header.Subject(); err == nil {
		email.Subject = subject
	}
	if date, err := header.Date(); err == nil {
		email.Date = date
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return email, err
		}
		if h, ok := part.Header.(*mail.InlineHeader); ok {
			contentType, _, _ := h.ContentType()
			data, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			switch contentType {
			case "text/plain":
				email.Text += string(data)
			case "text/html":
				email.HTML += string(data)
			}
		}
	}

	return email, nil
}

// ProcessVendorEmail matches an inbound email to a vendor and their most
// recently sent RFP, extracts the proposal and persists it. A repeat
// reply from the same vendor refreshes the existing proposal row.
func (er *EmailReceiver) ProcessVendorEmail(ctx context.Context, email models.InboundEmail) ProcessResult {
	vendorEmail := extractAddress(email.From)
	log.Printf("Processing inbound email from %s", vendorEmail)

	var vendor models.Vendor
	err := er.db.WithContext(ctx).
		Where("LOWER(email) = ? AND is_active = ?", strings.ToLower(vendorEmail), true).
		First(&vendor).Error
	if err != nil {
		log.Printf("Vendor not found for %s", vendorEmail)
		return ProcessResult{Success: false, Reason: "Vendor not found"}
	}

	var link models.RFPVendor
	err = er.db.WithContext(ctx).
		Where("vendor_id = ? AND sent_at >= ?", vendor.ID, time.Now().Add(-rfpMatchWindow)).
		Order("sent_at DESC").
		First(&link).Error
	if err != nil {
		log.Printf("No recent RFP found for vendor %s", vendor.Name)
		return ProcessResult{Success: false, Reason: "No recent RFP"}
	}

	var rfp models.RFP
	if err := er.db.WithContext(ctx).First(&rfp, "id = ?", link.RFPID).Error; err != nil {
		return ProcessResult{Success: false, Reason: "RFP not found"}
	}

	content := email.Text
	if content == "" {
		content = convertHTMLToText(email.HTML)
	}

	parsed, err := er.ai.ParseProposalEmail(ctx, content, &rfp)
	if err != nil {
		return ProcessResult{Success: false, Reason: err.Error()}
	}

	now := time.Now()
	var proposal models.Proposal
	err = er.db.WithContext(ctx).
		Where("rfp_id = ? AND vendor_id = ?", rfp.ID, vendor.ID).
		First(&proposal).Error
	if err != nil {
		proposal = models.Proposal{
			ID:         uuid.NewString(),
			RFPID:      rfp.ID,
			VendorID:   vendor.ID,
			ReceivedAt: now,
		}
	}
	proposal.RawContent = content
	proposal.ApplyParsed(parsed, now)

	if err := er.db.WithContext(ctx).Save(&proposal).Error; err != nil {
		return ProcessResult{Success: false, Reason: err.Error()}
	}

	log.Printf("Proposal recorded for vendor %s on RFP %s", vendor.Name, rfp.ID)
	return ProcessResult{Success: true, Vendor: vendor.Name, RFPID: rfp.ID}
}

// PollOnce fetches and processes all pending vendor emails, returning
// how many were handled.
func (er *EmailReceiver) PollOnce(ctx context.Context) (int, error) {
	emails, err := er.CheckNewEmails()
	if err != nil {
		return 0, err
	}
	for _, email := range emails {
		er.ProcessVendorEmail(ctx, email)
	}
	return len(emails), nil
}

// extractAddress pulls the bare address out of a "Name <addr>" header
// value.
func extractAddress(from string) string {
	if match := angleAddrPattern.FindStringSubmatch(from); match != nil {
		return strings.TrimSpace(strings.ToLower(match[1]))
	}
	return strings.TrimSpace(strings.ToLower(from))
}

// Poller runs PollOnce on a fixed interval. Start and Stop are safe to
// call from handlers; a second Start while running is a no-op that
// reports false.
type Poller struct {
	receiver *EmailReceiver

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewPoller wraps a receiver in a start/stop handle.
func NewPoller(receiver *EmailReceiver) *Poller {
	return &Poller{receiver: receiver}
}

// Start begins background polling. Returns false if already running.
func (p *Poller) Start(interval time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := p.receiver.PollOnce(ctx); err != nil {
					log.Printf("Email polling error: %v", err)
				} else if n > 0 {
					log.Printf("Email polling processed %d message(s)", n)
				}
			}
		}
	}()

	return true
}

// Stop halts background polling. Returns false if it was not running.
func (p *Poller) Stop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel == nil {
		return false
	}
	p.cancel()
	p.cancel = nil
	return true
}

// Running reports whether the poller is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}
