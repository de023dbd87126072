package models

import (
	"time"
)

// User types recorded in the session ledger and lead history.
const (
	UserTypeAdmin   = "admin"
	UserTypePartner = "partner"
)

// Partner account states.
const (
	PartnerStatusActive   = "active"
	PartnerStatusInactive = "inactive"
)

// Admin represents a back-office user who manages partners, leads and payments.
type Admin struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Partner represents an external referral agent. Partners log in with their
// mobile number, own leads, and receive commission payments.
type Partner struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Mobile       string    `json:"mobile" db:"mobile"`
	Email        *string   `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Status       string    `json:"status" db:"status"`
	IsDeleted    bool      `json:"-" db:"is_deleted"`
	ShopName     *string   `json:"shop_name" db:"shop_name"`
	Profession   *string   `json:"profession" db:"profession"`
	Address      *string   `json:"address" db:"address"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Lead is a prospective student referred by a partner. PartnerID is immutable
// after creation. CurrentStatus is a free-text descriptive field supplied by
// the partner; the workflow state lives in LeadStatus.
type Lead struct {
	ID             int64      `json:"id" db:"id"`
	PartnerID      int64      `json:"partner_id" db:"partner_id"`
	StudentName    string     `json:"student_name" db:"student_name"`
	Mobile         string     `json:"mobile" db:"mobile"`
	Email          *string    `json:"email" db:"email"`
	Address        *string    `json:"address" db:"address"`
	CurrentStatus  string     `json:"current_status" db:"current_status"`
	LeadStatus     LeadStatus `json:"lead_status" db:"lead_status"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	ConversionDate *time.Time `json:"conversion_date" db:"conversion_date"`
}

// LeadStatusChange is one row of the append-only audit trail. A row is written
// for every accepted transition where the status actually changed.
type LeadStatusChange struct {
	ID            int64      `json:"id" db:"id"`
	LeadID        int64      `json:"lead_id" db:"lead_id"`
	OldStatus     LeadStatus `json:"old_status" db:"old_status"`
	NewStatus     LeadStatus `json:"new_status" db:"new_status"`
	ChangedByType string     `json:"changed_by_type" db:"changed_by_type"`
	ChangedByID   int64      `json:"changed_by_id" db:"changed_by_id"`
	ChangedAt     time.Time  `json:"changed_at" db:"changed_at"`
}

// Payment states. A payment only ever moves Pending -> Released.
const (
	PaymentStatusPending  = "Pending"
	PaymentStatusReleased = "Released"
)

// Payment is the commission obligation derived from a converted lead.
// At most one payment exists per lead (UNIQUE constraint on lead_id).
type Payment struct {
	ID           int64      `json:"id" db:"id"`
	PartnerID    int64      `json:"partner_id" db:"partner_id"`
	LeadID       int64      `json:"lead_id" db:"lead_id"`
	Amount       float64    `json:"amount" db:"amount"`
	Status       string     `json:"status" db:"status"`
	DueDate      *time.Time `json:"due_date" db:"due_date"`
	ReleasedDate *time.Time `json:"released_date" db:"released_date"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// LoginSession is one row of the session ledger, keyed by the jti embedded in
// an issued access token. Rows are created on login and deactivated on logout;
// they are never deleted. Expiry is judged against the token itself, not by
// mutating the row.
type LoginSession struct {
	ID         int64      `json:"id" db:"id"`
	UserType   string     `json:"user_type" db:"user_type"`
	UserID     int64      `json:"user_id" db:"user_id"`
	IPAddress  string     `json:"-" db:"ip_address"`
	UserAgent  string     `json:"-" db:"user_agent"`
	TokenID    string     `json:"-" db:"token_id"`
	LoginTime  time.Time  `json:"login_time" db:"login_time"`
	LogoutTime *time.Time `json:"logout_time" db:"logout_time"`
	IsActive   bool       `json:"is_active" db:"is_active"`
}
