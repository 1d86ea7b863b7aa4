package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/irsalhamdi/course-market/api/web"
	"github.com/irsalhamdi/course-market/api/weberr"
	"github.com/irsalhamdi/course-market/config"
	"github.com/irsalhamdi/course-market/core/cart"
	"github.com/irsalhamdi/course-market/core/claims"
	"github.com/irsalhamdi/course-market/database"
	"github.com/irsalhamdi/course-market/validate"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
)

const (
	stripeSignatureHeader = "Stripe-Signature"
	eventCheckoutComplete = "checkout.session.completed"

	metaOrderID = "order_id"
	metaUserID  = "user_id"

	maxDescription = 255
)

func stripeLineItems(lines []cart.Line, currency string) []*stripe.CheckoutSessionLineItemParams {
	li := make([]*stripe.CheckoutSessionLineItemParams, 0, len(lines))
	for _, l := range lines {
		pd := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(l.Course.Name),
		}
		if d := truncate(l.Course.Description, maxDescription); d != "" {
			pd.Description = stripe.String(d)
		}
		if l.Course.ImageURL != "" {
			pd.Images = stripe.StringSlice([]string{l.Course.ImageURL})
		}

		li = append(li, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(1),

			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currency),
				UnitAmount:  stripe.Int64(int64(l.Course.Price)),
				ProductData: pd,
			},
		})
	}
	return li
}

func successURL(base, orderID string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	// Stripe fills in {CHECKOUT_SESSION_ID}, it must reach it unescaped.
	return base + sep + "session_id={CHECKOUT_SESSION_ID}&order_id=" + orderID
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// HandleStripeCheckout turns the cart into a pending order and a Stripe
// checkout session. The cart is kept until the payment is confirmed.
func HandleStripeCheckout(d Deps, strp *stripecl.API, cfg config.Stripe) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		ord, lines, err := prepare(ctx, d.DB, clm.UserID, ProviderStripe)
		if err != nil {
			if errors.Is(err, ErrEmptyCart) {
				return weberr.Invalid(err)
			}
			return err
		}

		params := &stripe.CheckoutSessionParams{
			SuccessURL:         stripe.String(successURL(cfg.SuccessURL, ord.ID)),
			CancelURL:          stripe.String(cfg.CancelURL),
			Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
			PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
			ClientReferenceID:  stripe.String(ord.ID),
			LineItems:          stripeLineItems(lines, cfg.Currency),
		}
		params.Context = ctx
		params.AddMetadata(metaOrderID, ord.ID)
		params.AddMetadata(metaUserID, clm.UserID)

		s, err := strp.CheckoutSessions.New(params)
		if err != nil {
			return fmt.Errorf("creating stripe session for order[%s]: %w", ord.ID, err)
		}

		var intent string
		if s.PaymentIntent != nil {
			intent = s.PaymentIntent.ID
		}

		if err := attach(ctx, d.DB, &ord, s.ID, intent); err != nil {
			return fmt.Errorf("storing stripe session: %w", err)
		}
		d.Metrics.Checkout(string(ProviderStripe))

		return web.Respond(ctx, w, Checkout{OrderID: ord.ID, CheckoutURL: s.URL}, http.StatusOK)
	}
}

// HandleStripeWebhook fulfills orders on checkout.session.completed. The
// signature is the only authentication of this endpoint. Every other event is
// acknowledged and ignored. Internal failures answer 500 so that Stripe
// delivers the event again, which Fulfill tolerates.
func HandleStripeWebhook(d Deps, cfg config.Stripe) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		b, err := web.ReadBody(w, r)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot read the request body: %w", err))
		}

		sig := r.Header.Get(stripeSignatureHeader)
		if sig == "" {
			d.Metrics.WebhookEvent("unknown", "unsigned")
			return weberr.BadRequest(errors.New("received stripe event is not signed"))
		}

		event, err := webhook.ConstructEvent(b, sig, cfg.WebhookSecret)
		if err != nil {
			d.Metrics.WebhookEvent("unknown", "bad_signature")
			return weberr.BadRequest(fmt.Errorf("cannot construct stripe event: %w", err))
		}

		typ := string(event.Type)
		log := d.Log.WithFields(logrus.Fields{"event_id": event.ID, "event_type": typ})

		if typ != eventCheckoutComplete {
			d.Metrics.WebhookEvent(typ, "ignored")
			return ack(ctx, w)
		}

		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode stripe event: %w", err))
		}

		if session.Mode != "" && session.Mode != stripe.CheckoutSessionModePayment {
			d.Metrics.WebhookEvent(typ, "ignored")
			return ack(ctx, w)
		}

		orderID := session.Metadata[metaOrderID]
		if validate.CheckID(orderID) != nil {
			log.WithField("session_id", session.ID).Warn("completed session carries no order id")
			d.Metrics.WebhookEvent(typ, "no_order")
			return ack(ctx, w)
		}

		// Access always goes to the order owner, the metadata user is only checked.
		userID := session.Metadata[metaUserID]
		if validate.CheckID(userID) != nil {
			userID = ""
		}

		f, err := Fulfill(ctx, d.DB, orderID, userID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				log.WithField("order_id", orderID).Warn("completed session references an unknown order")
				d.Metrics.WebhookEvent(typ, "unknown_order")
				return ack(ctx, w)
			}
			d.Metrics.WebhookEvent(typ, "failed")
			return fmt.Errorf("the order was paid but its fulfillment failed: %w", err)
		}

		if f.IgnoredUserID != "" {
			log.WithFields(logrus.Fields{
				"order_id":      orderID,
				"owner_id":      f.UserID,
				"metadata_user": f.IgnoredUserID,
			}).Warn("session user differs from the order owner, granting to the owner")
		}

		d.Metrics.WebhookEvent(typ, "fulfilled")
		d.fulfilled(ctx, f, ProviderStripe)

		return ack(ctx, w)
	}
}

func ack(ctx context.Context, w http.ResponseWriter) error {
	resp := struct {
		Received bool `json:"received"`
	}{true}
	return web.Respond(ctx, w, resp, http.StatusOK)
}
