package sales

// SaleStatus is the lifecycle state of a sale
type SaleStatus string

const (
	SaleStatusDraft    SaleStatus = "draft"
	SaleStatusPaid     SaleStatus = "paid"
	SaleStatusPending  SaleStatus = "pending"
	SaleStatusVoid     SaleStatus = "void"
	SaleStatusRefunded SaleStatus = "refunded"
)

// IsValid checks if the status is a valid SaleStatus
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusDraft, SaleStatusPaid, SaleStatusPending, SaleStatusVoid, SaleStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of SaleStatus
func (s SaleStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible
func (s SaleStatus) IsTerminal() bool {
	return s == SaleStatusVoid || s == SaleStatusRefunded
}

// CanTransitionTo checks if the status can transition to the target status
func (s SaleStatus) CanTransitionTo(target SaleStatus) bool {
	switch s {
	case SaleStatusDraft:
		return target == SaleStatusPaid || target == SaleStatusPending || target == SaleStatusVoid
	case SaleStatusPaid:
		return target == SaleStatusPending || target == SaleStatusVoid || target == SaleStatusRefunded
	case SaleStatusPending:
		return target == SaleStatusPaid || target == SaleStatusVoid || target == SaleStatusRefunded
	case SaleStatusVoid, SaleStatusRefunded:
		return false // Terminal states
	}
	return false
}

// PaymentType is how a sale was settled
type PaymentType string

const (
	PaymentTypeCash   PaymentType = "cash"
	PaymentTypeCard   PaymentType = "card"
	PaymentTypeUPI    PaymentType = "upi"
	PaymentTypeCredit PaymentType = "credit"
	PaymentTypeOther  PaymentType = "other"
)

// IsValid checks if the payment type is known
func (p PaymentType) IsValid() bool {
	switch p {
	case PaymentTypeCash, PaymentTypeCard, PaymentTypeUPI, PaymentTypeCredit, PaymentTypeOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentType
func (p PaymentType) String() string {
	return string(p)
}

// PaymentMethod describes a payment type for clients
type PaymentMethod struct {
	Code        PaymentType `json:"code"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
}

// PaymentMethods lists every supported payment type
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		{Code: PaymentTypeCash, Name: "Cash", Description: "Cash payment"},
		{Code: PaymentTypeCard, Name: "Card", Description: "Debit/Credit card"},
		{Code: PaymentTypeUPI, Name: "UPI", Description: "UPI payment (Google Pay, PhonePe, etc.)"},
		{Code: PaymentTypeCredit, Name: "Credit", Description: "Credit/Account payment"},
		{Code: PaymentTypeOther, Name: "Other", Description: "Other payment methods"},
	}
}
