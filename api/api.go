package api

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/irsalhamdi/course-market/api/middleware"
	"github.com/irsalhamdi/course-market/api/web"
	"github.com/irsalhamdi/course-market/api/weberr"
	"github.com/irsalhamdi/course-market/config"
	"github.com/irsalhamdi/course-market/core/auth"
	"github.com/irsalhamdi/course-market/core/cart"
	"github.com/irsalhamdi/course-market/core/course"
	"github.com/irsalhamdi/course-market/core/enrollment"
	"github.com/irsalhamdi/course-market/core/order"
	"github.com/irsalhamdi/course-market/core/user"
	"github.com/irsalhamdi/course-market/core/video"
	"github.com/irsalhamdi/course-market/database"
	"github.com/irsalhamdi/course-market/events"
	"github.com/irsalhamdi/course-market/metrics"
	"github.com/irsalhamdi/course-market/rate"
	"github.com/jmoiron/sqlx"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

type APIConfig struct {
	CorsOrigin       string
	Log              logrus.FieldLogger
	DB               *sqlx.DB
	Session          *scs.SessionManager
	Metrics          *metrics.Metrics
	Events           events.Publisher
	Limiter          *rate.Limiter
	Paypal           *paypal.Client
	PaypalCfg        config.Paypal
	Stripe           *stripecl.API
	StripeCfg        config.Stripe
	Providers        map[string]auth.Provider
	LoginRedirectURL string
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, auth.Identify(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Metrics(cfg.Metrics))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := auth.Authenticate()
	admin := auth.Admin()

	var limit []web.Middleware
	authenLimited := []web.Middleware{authen}
	if cfg.Limiter != nil {
		limit = []web.Middleware{middleware.RateLimit(cfg.Limiter)}
		authenLimited = []web.Middleware{middleware.RateLimit(cfg.Limiter), authen}
	}

	deps := order.Deps{
		DB:      cfg.DB,
		Log:     cfg.Log,
		Metrics: cfg.Metrics,
		Events:  cfg.Events,
	}

	a.Handle(http.MethodGet, "/health", handleHealth(cfg.DB))
	if cfg.Metrics != nil {
		a.Router.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)
	}

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(cfg.DB, cfg.Session), limit...)
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.DB, cfg.Session), limit...)
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session))
	a.Handle(http.MethodGet, "/auth/oauth-login/{provider}", auth.HandleOauthLogin(cfg.Session, cfg.Providers))
	a.Handle(http.MethodGet, "/auth/oauth-callback/{provider}", auth.HandleOauthCallback(cfg.DB, cfg.Session, cfg.Providers, cfg.LoginRedirectURL))

	a.Handle(http.MethodGet, "/users/current", user.HandleShowCurrent(cfg.DB), authen)

	a.Handle(http.MethodGet, "/courses/owned", course.HandleListOwned(cfg.DB), authen)
	a.Handle(http.MethodGet, "/courses/{course_id}/videos", video.HandleList(cfg.DB))
	a.Handle(http.MethodGet, "/courses/{id}", course.HandleShow(cfg.DB))
	a.Handle(http.MethodGet, "/courses", course.HandleList(cfg.DB))
	a.Handle(http.MethodPost, "/courses", course.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodPut, "/courses/{id}", course.HandleUpdate(cfg.DB), admin)

	a.Handle(http.MethodGet, "/videos/{id}", video.HandleShow(cfg.DB))
	a.Handle(http.MethodPost, "/videos", video.HandleCreate(cfg.DB), admin)

	a.Handle(http.MethodGet, "/enrollments/check", enrollment.HandleCheck(cfg.DB))

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodPost, "/cart/items", cart.HandleCreateItem(cfg.DB), authenLimited...)
	a.Handle(http.MethodDelete, "/cart/items/{id}", cart.HandleDeleteItem(cfg.DB), authen)

	a.Handle(http.MethodGet, "/orders", order.HandleList(cfg.DB), authen)
	a.Handle(http.MethodPost, "/orders/stripe", order.HandleStripeCheckout(deps, cfg.Stripe, cfg.StripeCfg), authenLimited...)
	a.Handle(http.MethodPost, "/webhooks/stripe", order.HandleStripeWebhook(deps, cfg.StripeCfg))
	if cfg.Paypal != nil {
		a.Handle(http.MethodPost, "/orders/paypal", order.HandlePaypalCheckout(deps, cfg.Paypal, cfg.PaypalCfg), authenLimited...)
		a.Handle(http.MethodPost, "/orders/paypal/{id}/capture", order.HandlePaypalCapture(deps, cfg.Paypal), authenLimited...)
	}
	a.Handle(http.MethodGet, "/orders/{id}", order.HandleShow(cfg.DB), authen)

	return a.Router
}

func handleHealth(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		status := struct {
			Status string `json:"status"`
		}{"ok"}

		if err := database.StatusCheck(ctx, db); err != nil {
			status.Status = "db not ready"
			return weberr.NewError(err, status.Status, http.StatusServiceUnavailable)
		}

		return web.Respond(ctx, w, status, http.StatusOK)
	}
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {
	handler = web.WrapMiddleware(mw, handler)
	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {
			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
