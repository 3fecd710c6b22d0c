package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mcalderon/go-checkout-reconciler/internal/aws"
	"github.com/mcalderon/go-checkout-reconciler/internal/catalog"
	"github.com/mcalderon/go-checkout-reconciler/internal/eventledger"
	"github.com/mcalderon/go-checkout-reconciler/internal/notify"
	"github.com/mcalderon/go-checkout-reconciler/internal/orders"
	"github.com/mcalderon/go-checkout-reconciler/internal/profiles"
	"github.com/mcalderon/go-checkout-reconciler/internal/reconciler"
	"github.com/mcalderon/go-checkout-reconciler/internal/stripe"
	"github.com/mcalderon/go-checkout-reconciler/internal/validation"
)

// HandlerConfig groups dependencies for the webhook handler. An empty
// QueueURL, FromEmail, or ProcessedEventsTable disables the corresponding
// optional step.
type HandlerConfig struct {
	DynamoDBClient       aws.DynamoDBAPI
	SQSClient            aws.SQSAPI
	CloudWatchClient     aws.CloudWatchAPI
	SESClient            aws.SESAPI
	OrdersTable          string
	OrderLineItemsTable  string
	ProductsTable        string
	ProfilesTable        string
	ProcessedEventsTable string
	QueueURL             string
	FromEmail            string
	MetricsNamespace     string
	Retry                reconciler.RetryPolicy
}

// NewReconciler assembles the reconciler and its stores from the config.
// Shared by the HTTP handler and the queue worker so both transports settle
// events identically.
func NewReconciler(cfg HandlerConfig) *reconciler.Reconciler {
	rcfg := reconciler.Config{
		Orders:   orders.NewStore(cfg.DynamoDBClient, cfg.OrdersTable, cfg.OrderLineItemsTable),
		Catalog:  catalog.NewStore(cfg.DynamoDBClient, cfg.ProductsTable),
		Profiles: profiles.NewStore(cfg.DynamoDBClient, cfg.ProfilesTable),
		Retry:    cfg.Retry,
	}
	if cfg.ProcessedEventsTable != "" {
		rcfg.Ledger = eventledger.NewStore(cfg.DynamoDBClient, cfg.ProcessedEventsTable, 0)
	}
	if cfg.FromEmail != "" && cfg.SESClient != nil {
		rcfg.Notifier = notify.NewEmailNotifier(cfg.SESClient, cfg.FromEmail)
	}
	if cfg.QueueURL != "" && cfg.SQSClient != nil {
		rcfg.Publisher = aws.NewPublisher(cfg.SQSClient, cfg.QueueURL)
	}
	return reconciler.New(rcfg)
}

// RegisterWebhookRoutes registers the Stripe webhook endpoint.
func RegisterWebhookRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	rec := NewReconciler(cfg)

	var metrics *aws.Metrics
	if cfg.CloudWatchClient != nil {
		metrics = aws.NewMetrics(cfg.CloudWatchClient, cfg.MetricsNamespace)
	}

	r.POST("/webhooks/stripe", func(c *gin.Context) {
		ctx := c.Request.Context()

		var ev stripe.Event
		if err := validation.BindAndValidate(c, &ev, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		out := rec.Handle(ctx, ev)

		if metrics != nil {
			if err := metrics.CountOutcome(ctx, out.EventType, string(out.Status)); err != nil {
				log.Printf("[handlers] outcome metric for %s failed: %v", ev.ID, err)
			}
		}

		writeOutcome(c, out)
	})
}

// writeOutcome maps a settlement to its transport acknowledgment. Only
// creation_failed asks Stripe to redeliver; everything else is final.
func writeOutcome(c *gin.Context, out reconciler.Outcome) {
	switch out.Status {
	case reconciler.StatusCreated:
		c.JSON(http.StatusOK, gin.H{
			"result":       "created",
			"order_number": out.OrderNumber,
			"event_type":   out.EventType,
		})
	case reconciler.StatusAlreadyRecorded:
		c.JSON(http.StatusOK, gin.H{
			"result":       "already_recorded",
			"order_number": out.OrderNumber,
			"event_type":   out.EventType,
		})
	case reconciler.StatusAcknowledged:
		c.JSON(http.StatusOK, gin.H{
			"result":     "acknowledged",
			"event_type": out.EventType,
		})
	case reconciler.StatusUnhandled:
		c.JSON(http.StatusOK, gin.H{
			"result":     "unhandled",
			"event_type": out.EventType,
		})
	case reconciler.StatusCreationFailed:
		c.JSON(http.StatusInternalServerError, gin.H{
			"result":     "creation_failed",
			"event_type": out.EventType,
			"detail":     out.Detail,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"result": string(out.Status)})
	}
}
