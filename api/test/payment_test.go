package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/irsalhamdi/course-market/api/web"
	"github.com/irsalhamdi/course-market/events"
	"github.com/plutov/paypal/v4"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	mock "github.com/stripe/stripe-mock/param"
)

type recorder struct {
	mu   sync.Mutex
	evts []events.OrderPaid
}

func (r *recorder) PublishOrderPaid(_ context.Context, evt events.OrderPaid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evts = append(r.evts, evt)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.evts)
}

func stripeClient(url string) *stripecl.API {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:           stripe.String(url),
		LeveledLogger: &stripe.LeveledLogger{Level: stripe.LevelNull},
	})

	strp := &stripecl.API{}
	strp.Init("sk_test", &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	return strp
}

// mockStripe answers checkout session creation and remembers the metadata of
// every session so that tests can build the matching webhook event.
type mockStripe struct {
	mu       sync.Mutex
	sessions map[string]map[string]string
	amounts  map[string]int
	n        int
}

func (m *mockStripe) metadata(id string) map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

func (m *mockStripe) amount(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.amounts[id]
}

func (m *mockStripe) handle() http.Handler {
	checkout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params, err := mock.ParseParams(r)
		if err != nil {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		var tot int
		lines, _ := params["line_items"].(map[string]any)
		for _, li := range lines {
			it := li.(map[string]any)
			if it["quantity"] != "1" {
				web.Respond(context.Background(), w, nil, 400)
				return
			}

			pd := it["price_data"].(map[string]any)
			var amount int
			fmt.Sscan(pd["unit_amount"].(string), &amount)
			tot += amount
		}

		meta := map[string]string{}
		if md, ok := params["metadata"].(map[string]any); ok {
			for k, v := range md {
				meta[k], _ = v.(string)
			}
		}

		m.mu.Lock()
		if m.sessions == nil {
			m.sessions = map[string]map[string]string{}
			m.amounts = map[string]int{}
		}
		m.n++
		id := fmt.Sprintf("cs_test_%d", m.n)
		m.sessions[id] = meta
		m.amounts[id] = tot
		m.mu.Unlock()

		resp := map[string]any{
			"id":             id,
			"object":         "checkout.session",
			"url":            "https://checkout.stripe.test/" + id,
			"mode":           "payment",
			"payment_intent": "pi_" + id,
		}
		web.Respond(context.Background(), w, resp, 200)
	})

	r := mux.NewRouter()
	r.Handle("/v1/checkout/sessions", checkout).Methods("POST")
	return r
}

// mockPaypal accepts any order whose total matches its items and captures
// every approved order.
type mockPaypal struct {
	mu sync.Mutex
	n  int
}

func (m *mockPaypal) handle() http.Handler {
	checkout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var pu struct {
			Units []paypal.PurchaseUnitRequest `json:"purchase_units"`
		}
		if err := json.NewDecoder(r.Body).Decode(&pu); err != nil {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		if len(pu.Units) != 1 || pu.Units[0].Amount == nil {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		var tot float64
		for _, it := range pu.Units[0].Items {
			var v float64
			fmt.Sscan(it.UnitAmount.Value, &v)
			tot += v
		}
		if fmt.Sprintf("%.2f", tot) != pu.Units[0].Amount.Value {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		m.mu.Lock()
		m.n++
		id := fmt.Sprintf("PAYPAL-%d-%d", m.n, time.Now().UnixNano())
		m.mu.Unlock()

		ord := paypal.Order{
			ID:     id,
			Status: "CREATED",
			Links:  []paypal.Link{{Href: "https://paypal.test/approve/" + id, Rel: "approve"}},
		}
		web.Respond(context.Background(), w, ord, 201)
	})

	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ord := paypal.CaptureOrderResponse{ID: mux.Vars(r)["id"], Status: "COMPLETED"}
		web.Respond(context.Background(), w, ord, 201)
	})

	r := mux.NewRouter()
	r.Handle("/v2/checkout/orders", checkout).Methods("POST")
	r.Handle("/v2/checkout/orders/{id}/capture", capture).Methods("POST")
	return r
}
