package models

// Product identifiers known to the billing collaborator.
const (
	ProductMonthly = "voicememo_ai_monthly"
	ProductAnnual  = "voicememo_ai_annual"
)

// EntitlementID is the billing-side name of the premium entitlement.
const EntitlementID = "premium_features"

// Offering is a purchasable plan shown on the paywall.
type Offering struct {
	ID            string `json:"id"`
	Description   string `json:"description"`
	Price         string `json:"price"`
	PricePerMonth string `json:"pricePerMonth"`
	ProductID     string `json:"productId"`
	IsBestValue   bool   `json:"isBestValue,omitempty"`
	TrialText     string `json:"trialText,omitempty"`
}

// Offerings lists the available plans in display order.
func Offerings() []Offering {
	return []Offering{
		{
			ID:            "monthly",
			Description:   "Unlimited recordings, AI summaries & export",
			Price:         "$4.99/month",
			PricePerMonth: "$4.99",
			ProductID:     ProductMonthly,
		},
		{
			ID:            "annual",
			Description:   "Unlimited recordings, AI summaries & export",
			Price:         "$39.99/year",
			PricePerMonth: "$3.33",
			ProductID:     ProductAnnual,
			IsBestValue:   true,
			TrialText:     "3-day free trial",
		},
	}
}

// BillingOutcome tags the result of a purchase or restore attempt.
type BillingOutcome string

const (
	OutcomePurchased        BillingOutcome = "purchased"
	OutcomeRestored         BillingOutcome = "restored"
	OutcomeNothingToRestore BillingOutcome = "nothing_to_restore"
	OutcomeCancelled        BillingOutcome = "cancelled"
	OutcomeDeclined         BillingOutcome = "declined"
	OutcomeAlreadyOwned     BillingOutcome = "already_owned"
	OutcomeReceiptInvalid   BillingOutcome = "receipt_invalid"
	OutcomeNetworkFailure   BillingOutcome = "network_failure"
	OutcomeTimeout          BillingOutcome = "timeout"
	OutcomeStorageFailure   BillingOutcome = "storage_failure"
)

// BillingResult is returned by purchase and restore.
type BillingResult struct {
	Outcome BillingOutcome `json:"outcome"`
	// Tier is the entitlement after the operation.
	Tier   Tier   `json:"tier"`
	Detail string `json:"detail,omitempty"`
}

// OK reports whether the user now holds the entitlement as a result of the call.
func (r BillingResult) OK() bool {
	switch r.Outcome {
	case OutcomePurchased, OutcomeRestored, OutcomeAlreadyOwned:
		return true
	default:
		return false
	}
}

// Retryable reports whether showing a "try again" prompt makes sense.
func (r BillingResult) Retryable() bool {
	switch r.Outcome {
	case OutcomeNetworkFailure, OutcomeTimeout, OutcomeStorageFailure:
		return true
	default:
		return false
	}
}

// Receipt is what a billing provider hands back for a successful purchase.
type Receipt struct {
	ProductID     string `json:"productId"`
	TransactionID string `json:"transactionId"`
	PurchasedAt   int64  `json:"purchasedAt"`
}
