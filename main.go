package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/checkoutflow/lib/myconfig"
	"github.com/MarcGrol/checkoutflow/lib/myhttp"
	"github.com/MarcGrol/checkoutflow/lib/myhttpclient"
	"github.com/MarcGrol/checkoutflow/lib/myidempotency"
	"github.com/MarcGrol/checkoutflow/lib/mypublisher"
	"github.com/MarcGrol/checkoutflow/lib/mypubsub"
	"github.com/MarcGrol/checkoutflow/lib/myqueue"
	"github.com/MarcGrol/checkoutflow/lib/mystore"
	"github.com/MarcGrol/checkoutflow/lib/mytime"
	"github.com/MarcGrol/checkoutflow/lib/myuuid"
	"github.com/MarcGrol/checkoutflow/services/addresses"
	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
	"github.com/MarcGrol/checkoutflow/services/coupons"
	"github.com/MarcGrol/checkoutflow/services/orders"
	"github.com/MarcGrol/checkoutflow/services/payments"
	"github.com/MarcGrol/checkoutflow/services/shipping"
	"github.com/MarcGrol/checkoutflow/services/warmup"
)

func main() {
	c := context.Background()

	cfg, err := myconfig.Load(os.Getenv("CHECKOUT_CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Error loading configuration: %s", err)
	}

	router := mux.NewRouter()

	pubsub, pubsubCleanup, err := mypubsub.New(c)
	if err != nil {
		log.Fatalf("Error creating pubsub: %s", err)
	}
	defer pubsubCleanup()

	queue, queueCleanup, err := myqueue.New(c)
	if err != nil {
		log.Fatalf("Error creating task queue: %s", err)
	}
	defer queueCleanup()

	// without cloud infrastructure, deliver tasks and events to ourselves
	if fake, ok := pubsub.(*mypubsub.FakePubSub); ok {
		fake.WithDelivery(myhttpclient.New())
	}
	if fake, ok := queue.(*myqueue.FakeTaskQueue); ok {
		fake.WithDelivery(myhttp.GuessHostnameWithScheme(), myhttpclient.New())
	}

	nower := mytime.RealNower{}

	publisher, publisherCleanup, err := mypublisher.New(c, pubsub, queue, nower)
	if err != nil {
		log.Fatalf("Error creating event publisher: %s", err)
	}
	defer publisherCleanup()
	publisher.RegisterEndpoints(c, router)

	idempotency, idempotencyCleanup, err := newIdempotencyStore(c, cfg.Redis)
	if err != nil {
		log.Fatalf("Error creating idempotency store: %s", err)
	}
	defer idempotencyCleanup()

	gateway, err := payments.New(*cfg)
	if err != nil {
		log.Fatalf("Error creating payment gateway: %s", err)
	}

	addressStore, addressStoreCleanup, err := mystore.New[checkoutapi.Address](c)
	if err != nil {
		log.Fatalf("Error creating address store: %s", err)
	}
	defer addressStoreCleanup()
	addressService := addresses.NewWebService(addressStore)
	registerOrDie(c, router, "addresses", addressService.RegisterEndpoints)

	ruleStore, ruleStoreCleanup, err := mystore.New[shipping.DeliveryRule](c)
	if err != nil {
		log.Fatalf("Error creating delivery-rule store: %s", err)
	}
	defer ruleStoreCleanup()
	shippingService := shipping.NewWebService(ruleStore)
	registerOrDie(c, router, "shipping", shippingService.RegisterEndpoints)

	couponStore, couponStoreCleanup, err := mystore.New[coupons.Coupon](c)
	if err != nil {
		log.Fatalf("Error creating coupon store: %s", err)
	}
	defer couponStoreCleanup()
	usageStore, usageStoreCleanup, err := mystore.New[coupons.Usage](c)
	if err != nil {
		log.Fatalf("Error creating coupon-usage store: %s", err)
	}
	defer usageStoreCleanup()
	couponService := coupons.NewWebService(couponStore, usageStore, nower, pubsub, cfg.Coupons)

	orderStore, orderStoreCleanup, err := mystore.New[orders.Order](c)
	if err != nil {
		log.Fatalf("Error creating order store: %s", err)
	}
	defer orderStoreCleanup()
	orderService := orders.NewWebService(orders.Config{
		HomeCountry:    cfg.App.HomeCountry,
		Currency:       cfg.App.Currency,
		PublicBaseURL:  publicBaseURL(cfg.App),
		IdempotencyTTL: cfg.Idempotency.TTL,
	}, orderStore, addressService.Reader(), shippingService.Quoter(), couponService.Evaluator(),
		gateway, idempotency, nower, myuuid.RealUUIDer{}, publisher)
	registerOrDie(c, router, "orders", orderService.RegisterEndpoints)

	// coupons subscribe to order events, so the order topic must exist first
	registerOrDie(c, router, "coupons", couponService.RegisterEndpoints)

	warmupService := warmup.NewService(map[string]warmup.Check{
		"orders": func(c context.Context) error {
			_, _, err := orderStore.Get(c, "warmup")
			return err
		},
		"coupons": func(c context.Context) error {
			_, _, err := couponStore.Get(c, "WARMUP")
			return err
		},
	})
	registerOrDie(c, router, "warmup", warmupService.RegisterEndpoints)

	startWebServerBlocking(cfg.App.Port, router)
}

func newIdempotencyStore(c context.Context, cfg myconfig.RedisConfig) (myidempotency.Store, func(), error) {
	if !cfg.Enabled {
		return myidempotency.NewInMemoryStore(mytime.RealNower{}), func() {}, nil
	}
	return myidempotency.NewRedisStore(c, cfg.Addr, cfg.Password, cfg.DB)
}

func publicBaseURL(cfg myconfig.AppConfig) string {
	if cfg.PublicBaseURL != "" {
		return cfg.PublicBaseURL
	}
	return myhttp.GuessHostnameWithScheme()
}

func registerOrDie(c context.Context, router *mux.Router, name string, register func(c context.Context, router *mux.Router) error) {
	err := register(c, router)
	if err != nil {
		log.Fatalf("Error registering %s endpoints: %s", name, err)
	}
}

func startWebServerBlocking(port string, router *mux.Router) {
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = envPort
	}

	log.Printf("Starting webserver on port %s (try http://localhost:%s)", port, port)
	err := http.ListenAndServe(fmt.Sprintf(":%s", port), router)
	if err != nil {
		log.Fatalf("Error starting webserver on port %s: %s", port, err)
	}
}
