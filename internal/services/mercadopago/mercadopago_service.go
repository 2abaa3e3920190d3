package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"

	"github.com/ThalesYuji/tcc-2025-sub000/internal/workflow"
)

var ErrMissingAccessToken = errors.New("missing MP_ACCESS_TOKEN")

// Service wraps the Mercado Pago SDK behind the two operations the workflow
// needs: create a hosted checkout and query transaction state.
type Service struct {
	preferences preference.Client
	payments    payment.Client
	NotifyURL   string
	FrontendURL string
}

func NewService(accessToken, appBaseURL, frontendURL string) (*Service, error) {
	if accessToken == "" {
		return nil, ErrMissingAccessToken
	}
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, err
	}
	log.Println("Mercado Pago client initialized")
	return &Service{
		preferences: preference.NewClient(cfg),
		payments:    payment.NewClient(cfg),
		NotifyURL:   appBaseURL + "/api/payments/webhook",
		FrontendURL: frontendURL,
	}, nil
}

type CheckoutRequest struct {
	Title             string
	Quantity          int
	UnitPrice         float64
	ExternalReference string
}

type CheckoutResponse struct {
	CheckoutID  string
	RedirectURL string
}

// CreateCheckout creates a hosted-checkout preference with the contract id
// as external_reference so webhooks reconcile back to us.
func (s *Service) CreateCheckout(ctx context.Context, req CheckoutRequest) (CheckoutResponse, error) {
	pref := preference.Request{
		Items: []preference.ItemRequest{
			{
				Title:     req.Title,
				Quantity:  req.Quantity,
				UnitPrice: req.UnitPrice,
			},
		},
		ExternalReference: req.ExternalReference,
		NotificationURL:   s.NotifyURL,
		BackURLs: &preference.BackURLsRequest{
			Success: s.FrontendURL + "/payments/success",
			Pending: s.FrontendURL + "/payments/pending",
			Failure: s.FrontendURL + "/payments/failure",
		},
	}

	resp, err := s.preferences.Create(ctx, pref)
	if err != nil {
		return CheckoutResponse{}, &workflow.GatewayUnavailableError{Err: err}
	}

	return CheckoutResponse{CheckoutID: resp.ID, RedirectURL: resp.InitPoint}, nil
}

// GetTransaction fetches the gateway truth for one transaction id. Returns
// nil without error when the gateway does not know the id.
func (s *Service) GetTransaction(ctx context.Context, id string) (*workflow.GatewayTransaction, error) {
	numericID, err := strconv.Atoi(id)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction id %q: %w", id, err)
	}

	resp, err := s.payments.Get(ctx, numericID)
	if err != nil {
		return nil, &workflow.GatewayUnavailableError{Err: err}
	}
	if resp == nil {
		return nil, nil
	}
	return toGatewayTransaction(resp), nil
}

// FindByReference locates the most recent transaction carrying our
// external reference, the fallback when the transaction id is unknown
// locally.
func (s *Service) FindByReference(ctx context.Context, externalRef string) (*workflow.GatewayTransaction, error) {
	resp, err := s.payments.Search(ctx, payment.SearchRequest{
		Filters: map[string]string{"external_reference": externalRef},
	})
	if err != nil {
		return nil, &workflow.GatewayUnavailableError{Err: err}
	}
	if resp == nil || len(resp.Results) == 0 {
		return nil, nil
	}

	latest := resp.Results[0]
	for _, r := range resp.Results[1:] {
		if !r.DateCreated.IsZero() && (latest.DateCreated.IsZero() || r.DateCreated.After(latest.DateCreated)) {
			latest = r
		}
	}
	return toGatewayTransaction(&latest), nil
}

func toGatewayTransaction(resp *payment.Response) *workflow.GatewayTransaction {
	var approvedAt *time.Time
	if !resp.DateApproved.IsZero() {
		approvedAt = &resp.DateApproved
	}
	return &workflow.GatewayTransaction{
		ID:                strconv.Itoa(resp.ID),
		Status:            resp.Status,
		Amount:            resp.TransactionAmount,
		ExternalReference: resp.ExternalReference,
		ApprovedAt:        approvedAt,
	}
}
