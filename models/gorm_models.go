package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// JSONB column wrappers. GORM stores these as jsonb in postgres; the
// Valuer/Scanner pair keeps the structured Go types on the model.

// RFPItemList is a jsonb-backed slice of RFP items.
type RFPItemList []RFPItem

func (l RFPItemList) Value() (driver.Value, error) {
	if l == nil {
		l = RFPItemList{}
	}
	return json.Marshal(l)
}

func (l *RFPItemList) Scan(value interface{}) error {
	return scanJSONB(value, l)
}

// ItemPriceList is a jsonb-backed slice of extracted item prices.
type ItemPriceList []ItemPrice

func (l ItemPriceList) Value() (driver.Value, error) {
	if l == nil {
		l = ItemPriceList{}
	}
	return json.Marshal(l)
}

func (l *ItemPriceList) Scan(value interface{}) error {
	return scanJSONB(value, l)
}

// TermsJSON is a jsonb-backed ProposalTerms.
type TermsJSON ProposalTerms

func (t TermsJSON) Value() (driver.Value, error) {
	return json.Marshal(t)
}

func (t *TermsJSON) Scan(value interface{}) error {
	return scanJSONB(value, t)
}

// RequirementsMap is a jsonb-backed open key/value map.
type RequirementsMap map[string]string

func (m RequirementsMap) Value() (driver.Value, error) {
	if m == nil {
		m = RequirementsMap{}
	}
	return json.Marshal(m)
}

func (m *RequirementsMap) Scan(value interface{}) error {
	return scanJSONB(value, m)
}

func scanJSONB(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", value)
	}
}

// RFP represents the rfps table.
type RFP struct {
	ID           string          `gorm:"primaryKey;column:id;type:uuid" json:"id"`
	Title        string          `gorm:"column:title;not null" json:"title"`
	Description  string          `gorm:"column:description;type:text;not null" json:"description"`
	Items        RFPItemList     `gorm:"column:items;type:jsonb" json:"items"`
	Budget       *float64        `gorm:"column:budget;type:numeric(15,2)" json:"budget"`
	DeliveryDate *time.Time      `gorm:"column:delivery_date" json:"deliveryDate"`
	PaymentTerms *string         `gorm:"column:payment_terms" json:"paymentTerms"`
	Requirements RequirementsMap `gorm:"column:requirements;type:jsonb" json:"requirements"`
	Status       string          `gorm:"column:status;not null;default:'DRAFT'" json:"status"`
	CreatedAt    time.Time       `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;not null" json:"updatedAt"`
}

// TableName specifies the table name for RFP
func (RFP) TableName() string {
	return "rfps"
}

// Vendor represents the vendors table. Deletion is soft: IsActive flips
// to false and the row is kept for proposal history.
type Vendor struct {
	ID            string     `gorm:"primaryKey;column:id;type:uuid" json:"id"`
	Name          string     `gorm:"column:name;not null" json:"name"`
	Email         string     `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Phone         string     `gorm:"column:phone" json:"phone"`
	Address       string     `gorm:"column:address" json:"address"`
	ContactPerson string     `gorm:"column:contact_person" json:"contactPerson"`
	IsActive      bool       `gorm:"column:is_active;not null;default:true" json:"isActive"`
	DeletedAt     *time.Time `gorm:"column:deleted_at" json:"deletedAt,omitempty"`
	CreatedAt     time.Time  `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;not null" json:"updatedAt"`
}

// TableName specifies the table name for Vendor
func (Vendor) TableName() string {
	return "vendors"
}

// Proposal represents the proposals table. One row per (rfp, vendor)
// pair; a later reply from the same vendor updates the row in place.
type Proposal struct {
	ID           string         `gorm:"primaryKey;column:id;type:uuid" json:"id"`
	RFPID        string         `gorm:"column:rfp_id;type:uuid;not null;uniqueIndex:idx_proposal_rfp_vendor" json:"rfpId"`
	VendorID     string         `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:idx_proposal_rfp_vendor" json:"vendorId"`
	RawContent   string         `gorm:"column:raw_content;type:text" json:"rawContent"`
	Attachments  pq.StringArray `gorm:"column:attachments;type:text[]" json:"attachments"`
	TotalPrice   *float64       `gorm:"column:total_price;type:numeric(15,2)" json:"totalPrice"`
	ItemPrices   ItemPriceList  `gorm:"column:item_prices;type:jsonb" json:"itemPrices"`
	DeliveryDate *time.Time     `gorm:"column:delivery_date" json:"deliveryDate"`
	Warranty     *string        `gorm:"column:warranty" json:"warranty"`
	Terms        TermsJSON      `gorm:"column:terms;type:jsonb" json:"terms"`
	AISummary    string         `gorm:"column:ai_summary;type:text" json:"aiSummary"`
	IsComplete   bool           `gorm:"column:is_complete;not null;default:false" json:"isComplete"`
	ParseError   string         `gorm:"column:parse_error" json:"parseError,omitempty"`
	Status       string         `gorm:"column:status;not null;default:'PARSING'" json:"status"`
	ReceivedAt   time.Time      `gorm:"column:received_at;not null" json:"receivedAt"`
	ParsedAt     *time.Time     `gorm:"column:parsed_at" json:"parsedAt,omitempty"`
}

// TableName specifies the table name for Proposal
func (Proposal) TableName() string {
	return "proposals"
}

// ApplyParsed copies an extraction result onto the proposal and derives
// the status the way the inbound pipeline expects it:
// NO_CONTENT -> ERROR, INSUFFICIENT_DATA or incomplete -> INCOMPLETE,
// otherwise PARSED.
func (p *Proposal) ApplyParsed(parsed *ParsedProposal, now time.Time) {
	p.TotalPrice = parsed.TotalPrice
	p.ItemPrices = ItemPriceList(parsed.ItemPrices)
	p.DeliveryDate = parsed.DeliveryDate
	p.Warranty = parsed.Warranty
	p.Terms = TermsJSON(parsed.Terms)
	p.AISummary = parsed.Summary
	p.IsComplete = parsed.IsComplete
	p.ParseError = parsed.ParseError
	p.ParsedAt = &now

	switch {
	case parsed.ParseError == ParseErrorNoContent:
		p.Status = ProposalStatusError
	case parsed.ParseError == ParseErrorInsufficientData || !parsed.IsComplete:
		p.Status = ProposalStatusIncomplete
	default:
		p.Status = ProposalStatusParsed
	}
}

// RFPVendor represents the rfp_vendors table: one row per vendor an RFP
// was emailed to. SentAt is what the inbound matcher uses to find the
// most recent RFP for a replying vendor.
type RFPVendor struct {
	ID       uint      `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	RFPID    string    `gorm:"column:rfp_id;type:uuid;not null;index" json:"rfpId"`
	VendorID string    `gorm:"column:vendor_id;type:uuid;not null;index" json:"vendorId"`
	SentAt   time.Time `gorm:"column:sent_at;not null" json:"sentAt"`
}

// TableName specifies the table name for RFPVendor
func (RFPVendor) TableName() string {
	return "rfp_vendors"
}

// User represents the users table (database/sql layer).
type User struct {
	ID        int       `json:"id" db:"id"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	Role      string    `json:"role" db:"role"`
	Suspended bool      `json:"suspended" db:"suspended"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Session represents the session table (database/sql layer).
type Session struct {
	SessionID string    `json:"session_id" db:"session_id"`
	UserID    int       `json:"user_id" db:"user_id"`
	IPAddress string    `json:"ip_address" db:"ip_address"`
	HostName  string    `json:"host_name" db:"host_name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// ActivityLog represents the activity_logs audit table.
type ActivityLog struct {
	ID           int       `json:"id" db:"id"`
	EventContext string    `json:"event_context" db:"event_context"`
	EventName    string    `json:"event_name" db:"event_name"`
	Description  string    `json:"description" db:"description"`
	UserName     string    `json:"user_name" db:"user_name"`
	EntityID     string    `json:"entity_id" db:"entity_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
