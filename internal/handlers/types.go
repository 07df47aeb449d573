package handlers

import "cardgate_app/internal/services"

// CreatePaymentRequest is the body of POST /api/payments
type CreatePaymentRequest struct {
	CustomerID   uint                `json:"customer_id"`
	ProductIDs   []uint              `json:"product_ids"`
	Currency     string              `json:"currency"`
	Installment  int                 `json:"installment"`
	Subscription bool                `json:"subscription"`
	Threeds      bool                `json:"threeds"`
	Card         *AdhocCardRequest   `json:"card,omitempty"`
}

// AdhocCardRequest carries an unsaved card with a single charge
type AdhocCardRequest struct {
	HolderName  string `json:"holder_name"`
	Number      string `json:"number"`
	ExpireMonth string `json:"expire_month"`
	ExpireYear  string `json:"expire_year"`
	CVC         string `json:"cvc"`
}

func (r *AdhocCardRequest) toService() *services.AdhocCard {
	if r == nil {
		return nil
	}
	return &services.AdhocCard{
		HolderName:  r.HolderName,
		Number:      r.Number,
		ExpireMonth: r.ExpireMonth,
		ExpireYear:  r.ExpireYear,
		CVC:         r.CVC,
	}
}

// AddCardRequest is the body of POST /api/cards
type AddCardRequest struct {
	CustomerID  uint   `json:"customer_id"`
	Alias       string `json:"alias"`
	HolderName  string `json:"holder_name"`
	Number      string `json:"number"`
	ExpireMonth string `json:"expire_month"`
	ExpireYear  string `json:"expire_year"`
}

// CreatePlanRequest is the body of POST /api/plans
type CreatePlanRequest struct {
	CustomerID    uint   `json:"customer_id"`
	ProductID     uint   `json:"product_id"`
	Name          string `json:"name"`
	Currency      string `json:"currency"`
	StartDate     string `json:"start_date"` // RFC 3339
	RecurringRule string `json:"recurring_rule"`
}
