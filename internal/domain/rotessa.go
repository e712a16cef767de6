package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Enumerations
// ============================================================

// CustomerType distinguishes personal from business customers.
type CustomerType string

const (
	CustomerPersonal CustomerType = "Personal"
	CustomerBusiness CustomerType = "Business"
)

// BankAccountType is only used for US bank accounts.
type BankAccountType string

const (
	BankAccountSavings  BankAccountType = "Savings"
	BankAccountChecking BankAccountType = "Checking"
)

// AuthorizationType records how the customer authorized debits.
type AuthorizationType string

const (
	AuthorizationInPerson AuthorizationType = "In Person"
	AuthorizationOnline   AuthorizationType = "Online"
)

// Frequency of a transaction schedule.
type Frequency string

const (
	FrequencyOnce            Frequency = "Once"
	FrequencyWeekly          Frequency = "Weekly"
	FrequencyEveryOtherWeek  Frequency = "Every Other Week"
	FrequencyMonthly         Frequency = "Monthly"
	FrequencyEveryOtherMonth Frequency = "Every Other Month"
	FrequencyQuarterly       Frequency = "Quarterly"
	FrequencySemiAnnually    Frequency = "Semi-Annually"
	FrequencyYearly          Frequency = "Yearly"
)

// TransactionStatus is the lifecycle state of a financial transaction.
type TransactionStatus string

const (
	StatusFuture     TransactionStatus = "Future"
	StatusPending    TransactionStatus = "Pending"
	StatusApproved   TransactionStatus = "Approved"
	StatusDeclined   TransactionStatus = "Declined"
	StatusChargeback TransactionStatus = "Chargeback"
)

// StatusReason explains a declined or charged back transaction.
// Unknown reasons decode as-is.
type StatusReason string

const (
	ReasonNSF                  StatusReason = "NSF"
	ReasonPaymentStopped       StatusReason = "Payment Stopped/Recalled"
	ReasonEditReject           StatusReason = "Edit Reject"
	ReasonFundsNotCleared      StatusReason = "Funds Not Cleared"
	ReasonAccountFrozen        StatusReason = "Account Frozen"
	ReasonInvalidAccountNumber StatusReason = "Invalid/Incorrect Account No."
	ReasonAccountClosed        StatusReason = "Account Closed"
	ReasonNoDebitAllowed       StatusReason = "No Debit Allowed"
)

// Frequencies lists every accepted schedule frequency.
func Frequencies() []Frequency {
	return []Frequency{
		FrequencyOnce, FrequencyWeekly, FrequencyEveryOtherWeek, FrequencyMonthly,
		FrequencyEveryOtherMonth, FrequencyQuarterly, FrequencySemiAnnually, FrequencyYearly,
	}
}

// TransactionStatuses lists every transaction status.
func TransactionStatuses() []TransactionStatus {
	return []TransactionStatus{StatusFuture, StatusPending, StatusApproved, StatusDeclined, StatusChargeback}
}

// UpdateStrategy selects which provider endpoint performs an update.
// The PATCH endpoint and the POST alternate behave differently, so callers pick one.
type UpdateStrategy string

const (
	UpdateViaPatch UpdateStrategy = "patch"
	UpdateViaPost  UpdateStrategy = "post"
)

// ParseUpdateStrategy accepts "patch" (default when empty) or "post".
func ParseUpdateStrategy(s string) (UpdateStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(UpdateViaPatch):
		return UpdateViaPatch, nil
	case string(UpdateViaPost):
		return UpdateViaPost, nil
	}
	return "", &ErrValidation{Field: "strategy", Message: fmt.Sprintf("unknown update strategy %q", s)}
}

// ============================================================
// Customers
// ============================================================

// Address is a customer's postal address.
type Address struct {
	ID           int64  `json:"id,omitempty"`
	Address1     string `json:"address_1,omitempty"`
	Address2     string `json:"address_2,omitempty"`
	City         string `json:"city,omitempty"`
	ProvinceCode string `json:"province_code,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
}

// Customer is the list-item shape returned by GET /customers.
type Customer struct {
	ID               int64        `json:"id"`
	CustomIdentifier string       `json:"custom_identifier,omitempty"`
	Identifier       string       `json:"identifier,omitempty"`
	Name             string       `json:"name"`
	Email            string       `json:"email,omitempty"`
	CustomerType     CustomerType `json:"customer_type,omitempty"`
	HomePhone        string       `json:"home_phone,omitempty"`
	Phone            string       `json:"phone,omitempty"`
	Active           bool         `json:"active"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// CustomerDetail is a Customer plus banking, address and nested activity.
// Bank numbers are masked by the provider.
type CustomerDetail struct {
	Customer
	BankName              string                 `json:"bank_name,omitempty"`
	InstitutionNumber     string                 `json:"institution_number,omitempty"`
	TransitNumber         string                 `json:"transit_number,omitempty"`
	AccountNumber         string                 `json:"account_number,omitempty"`
	RoutingNumber         string                 `json:"routing_number,omitempty"`
	BankAccountType       BankAccountType        `json:"bank_account_type,omitempty"`
	AuthorizationType     AuthorizationType      `json:"authorization_type,omitempty"`
	Address               *Address               `json:"address,omitempty"`
	TransactionSchedules  []TransactionSchedule  `json:"transaction_schedules,omitempty"`
	FinancialTransactions []FinancialTransaction `json:"financial_transactions,omitempty"`
}

// CustomerCreate is the body of POST /customers.
// Canadian accounts use institution/transit numbers, US accounts routing number
// and bank account type.
type CustomerCreate struct {
	CustomIdentifier  string            `json:"custom_identifier,omitempty"`
	Name              string            `json:"name"`
	Email             string            `json:"email,omitempty"`
	CustomerType      CustomerType      `json:"customer_type,omitempty"`
	HomePhone         string            `json:"home_phone,omitempty"`
	Phone             string            `json:"phone,omitempty"`
	BankName          string            `json:"bank_name,omitempty"`
	InstitutionNumber string            `json:"institution_number,omitempty"`
	TransitNumber     string            `json:"transit_number,omitempty"`
	AccountNumber     string            `json:"account_number,omitempty"`
	RoutingNumber     string            `json:"routing_number,omitempty"`
	BankAccountType   BankAccountType   `json:"bank_account_type,omitempty"`
	AuthorizationType AuthorizationType `json:"authorization_type,omitempty"`
	Address           *Address          `json:"address,omitempty"`
}

// CustomerUpdate is the body of PATCH /customers/{id}. Empty fields are left unchanged.
type CustomerUpdate struct {
	CustomIdentifier  string            `json:"custom_identifier,omitempty"`
	Name              string            `json:"name,omitempty"`
	Email             string            `json:"email,omitempty"`
	CustomerType      CustomerType      `json:"customer_type,omitempty"`
	HomePhone         string            `json:"home_phone,omitempty"`
	Phone             string            `json:"phone,omitempty"`
	BankName          string            `json:"bank_name,omitempty"`
	InstitutionNumber string            `json:"institution_number,omitempty"`
	TransitNumber     string            `json:"transit_number,omitempty"`
	AccountNumber     string            `json:"account_number,omitempty"`
	RoutingNumber     string            `json:"routing_number,omitempty"`
	BankAccountType   BankAccountType   `json:"bank_account_type,omitempty"`
	AuthorizationType AuthorizationType `json:"authorization_type,omitempty"`
	Address           *Address          `json:"address,omitempty"`
}

// CustomerUpdateViaPost is the body of POST /customers/update_via_post,
// which carries the customer id in the body.
type CustomerUpdateViaPost struct {
	ID int64 `json:"id"`
	CustomerUpdate
}

// ============================================================
// Transaction schedules & financial transactions
// ============================================================

// TransactionSchedule is a one-time or recurring debit instruction.
type TransactionSchedule struct {
	ID                    int64                  `json:"id"`
	CustomerID            int64                  `json:"customer_id,omitempty"`
	Amount                decimal.Decimal        `json:"amount"`
	Frequency             Frequency              `json:"frequency"`
	ProcessDate           string                 `json:"process_date"`
	NextProcessDate       string                 `json:"next_process_date,omitempty"`
	Installments          *int                   `json:"installments,omitempty"`
	Comment               string                 `json:"comment,omitempty"`
	CreatedAt             *time.Time             `json:"created_at,omitempty"`
	UpdatedAt             *time.Time             `json:"updated_at,omitempty"`
	FinancialTransactions []FinancialTransaction `json:"financial_transactions,omitempty"`
}

// FinancialTransaction is one dated debit attempt generated from a schedule.
type FinancialTransaction struct {
	ID                    int64             `json:"id"`
	Amount                decimal.Decimal   `json:"amount"`
	ProcessDate           string            `json:"process_date"`
	Status                TransactionStatus `json:"status"`
	StatusReason          *StatusReason     `json:"status_reason"`
	TransactionScheduleID int64             `json:"transaction_schedule_id"`
	BankName              string            `json:"bank_name,omitempty"`
}

// TransactionScheduleCreate is the body of POST /transaction_schedules.
type TransactionScheduleCreate struct {
	CustomerID   int64           `json:"customer_id"`
	Amount       decimal.Decimal `json:"amount"`
	Frequency    Frequency       `json:"frequency"`
	ProcessDate  string          `json:"process_date"`
	Installments *int            `json:"installments,omitempty"`
	Comment      string          `json:"comment,omitempty"`
}

// TransactionScheduleCreateWithCustomIdentifier addresses the customer by
// its custom identifier instead of the provider id.
type TransactionScheduleCreateWithCustomIdentifier struct {
	CustomIdentifier string          `json:"custom_identifier"`
	Amount           decimal.Decimal `json:"amount"`
	Frequency        Frequency       `json:"frequency"`
	ProcessDate      string          `json:"process_date"`
	Installments     *int            `json:"installments,omitempty"`
	Comment          string          `json:"comment,omitempty"`
}

// TransactionScheduleUpdate is the body of PATCH /transaction_schedules/{id}.
type TransactionScheduleUpdate struct {
	Amount  *decimal.Decimal `json:"amount,omitempty"`
	Comment string           `json:"comment,omitempty"`
}

// TransactionScheduleUpdateViaPost is the body of POST /transaction_schedules/update_via_post.
type TransactionScheduleUpdateViaPost struct {
	ID int64 `json:"id"`
	TransactionScheduleUpdate
}

// ============================================================
// Transaction report
// ============================================================

// TransactionReportItem is one flattened row of GET /transaction_report.
type TransactionReportItem struct {
	ID                    int64             `json:"id"`
	TransactionNumber     string            `json:"transaction_number,omitempty"`
	Amount                decimal.Decimal   `json:"amount"`
	Comment               string            `json:"comment,omitempty"`
	CustomerID            int64             `json:"customer_id"`
	CustomIdentifier      string            `json:"custom_identifier,omitempty"`
	TransactionScheduleID int64             `json:"transaction_schedule_id"`
	ProcessDate           string            `json:"process_date"`
	SettlementDate        string            `json:"settlement_date,omitempty"`
	EarliestApprovalDate  string            `json:"earliest_approval_date,omitempty"`
	Status                TransactionStatus `json:"status"`
	StatusReason          *StatusReason     `json:"status_reason"`
	InstitutionNumber     string            `json:"institution_number,omitempty"`
	TransitNumber         string            `json:"transit_number,omitempty"`
	AccountNumber         string            `json:"account_number,omitempty"`
	CreatedAt             *time.Time        `json:"created_at,omitempty"`
	UpdatedAt             *time.Time        `json:"updated_at,omitempty"`
}

// ReportQuery filters GET /transaction_report. StartDate is required.
// The provider accepts the status filter under either `status` or `filter`.
type ReportQuery struct {
	StartDate string
	EndDate   string
	Status    TransactionStatus
	Filter    TransactionStatus
	Page      int
}

// ScheduleRequest is the gateway body for creating a schedule. The customer is
// addressed by CustomerID or, when that is zero, by CustomIdentifier.
type ScheduleRequest struct {
	CustomerID       int64           `json:"customer_id,omitempty"`
	CustomIdentifier string          `json:"custom_identifier,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	Frequency        Frequency       `json:"frequency"`
	ProcessDate      string          `json:"process_date"`
	Installments     *int            `json:"installments,omitempty"`
	Comment          string          `json:"comment,omitempty"`
}
