package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/irsalhamdi/course-market/api/web"
	"github.com/irsalhamdi/course-market/api/weberr"
	"github.com/irsalhamdi/course-market/config"
	"github.com/irsalhamdi/course-market/core/cart"
	"github.com/irsalhamdi/course-market/core/claims"
	"github.com/irsalhamdi/course-market/database"
	"github.com/plutov/paypal/v4"
)

// paypalAmount formats minor units the way paypal expects them, "50.00".
func paypalAmount(cents int) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func paypalUnits(ord Order, lines []cart.Line, currency string) []paypal.PurchaseUnitRequest {
	items := make([]paypal.Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, paypal.Item{
			Quantity:    "1",
			Name:        truncate(l.Course.Name, 127),
			Description: truncate(l.Course.Description, 127),
			SKU:         l.Course.ID,

			UnitAmount: &paypal.Money{
				Currency: currency,
				Value:    paypalAmount(l.Course.Price),
			},
		})
	}

	return []paypal.PurchaseUnitRequest{{
		ReferenceID: ord.ID,
		CustomID:    ord.UserID,
		Items:       items,

		Amount: &paypal.PurchaseUnitAmount{
			Currency: currency,
			Value:    paypalAmount(ord.Amount),

			Breakdown: &paypal.PurchaseUnitAmountBreakdown{ItemTotal: &paypal.Money{
				Currency: currency,
				Value:    paypalAmount(ord.Amount),
			}},
		},
	}}
}

// paypalReturnURL points the buyer back at base with the order id. PayPal adds
// its own token and PayerID parameters.
func paypalReturnURL(base, orderID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing paypal return url: %w", err)
	}

	q := u.Query()
	q.Set("order_id", orderID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func approveLink(ord *paypal.Order) string {
	for _, l := range ord.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			return l.Href
		}
	}
	return ""
}

func HandlePaypalCheckout(d Deps, pp *paypal.Client, cfg config.Paypal) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		ord, lines, err := prepare(ctx, d.DB, clm.UserID, ProviderPaypal)
		if err != nil {
			if errors.Is(err, ErrEmptyCart) {
				return weberr.Invalid(err)
			}
			return err
		}

		returnURL, err := paypalReturnURL(cfg.ReturnURL, ord.ID)
		if err != nil {
			return err
		}

		app := &paypal.ApplicationContext{
			BrandName:          cfg.BrandName,
			ShippingPreference: "NO_SHIPPING",
			UserAction:         "PAY_NOW",
			ReturnURL:          returnURL,
			CancelURL:          cfg.CancelURL,
		}

		po, err := pp.CreateOrder(ctx, "CAPTURE", paypalUnits(ord, lines, cfg.Currency), nil, app)
		if err != nil {
			return fmt.Errorf("creating paypal order for order[%s]: %w", ord.ID, err)
		}

		if err := attach(ctx, d.DB, &ord, po.ID, ""); err != nil {
			return fmt.Errorf("storing paypal order: %w", err)
		}
		d.Metrics.Checkout(string(ProviderPaypal))

		return web.Respond(ctx, w, Checkout{OrderID: ord.ID, CheckoutURL: approveLink(po)}, http.StatusOK)
	}
}

// HandlePaypalCapture is called by the buyer after approving the payment.
// Capturing an order that is already paid is a no-op.
func HandlePaypalCapture(d Deps, pp *paypal.Client) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		providerID := web.Param(r, "id")

		ord, err := FetchByProviderID(ctx, d.DB, ProviderPaypal, providerID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching order: %w", err)
		}

		if !clm.Owns(ord.UserID) {
			return weberr.NotFound(fmt.Errorf("order[%s] does not belong to user[%s]", ord.ID, clm.UserID))
		}

		if ord.Status == Paid {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		resp, err := pp.CaptureOrder(ctx, providerID, paypal.CaptureOrderRequest{})
		if err != nil {
			return fmt.Errorf("capturing paypal order[%s]: %w", providerID, err)
		}

		if resp.Status != "COMPLETED" {
			return fmt.Errorf("captured order[%s] with status[%s] different from 'COMPLETED'", providerID, resp.Status)
		}

		f, err := Fulfill(ctx, d.DB, ord.ID, ord.UserID)
		if err != nil {
			return fmt.Errorf("the order was paid but its fulfillment failed: %w", err)
		}
		d.fulfilled(ctx, f, ProviderPaypal)

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
