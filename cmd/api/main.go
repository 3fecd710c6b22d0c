package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/mcalderon/go-checkout-reconciler/internal/aws"
	"github.com/mcalderon/go-checkout-reconciler/internal/handlers"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterWebhookRoutes(r, cfg)

	return r
}

func main() {
	clients, err := aws.NewAWSClients(context.Background())

	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	cfg := handlers.HandlerConfig{
		DynamoDBClient:       clients.DynamoDB,
		SQSClient:            clients.SQS,
		CloudWatchClient:     clients.CloudWatch,
		SESClient:            clients.SES,
		OrdersTable:          os.Getenv("ORDERS_TABLE"),
		OrderLineItemsTable:  os.Getenv("ORDER_LINE_ITEMS_TABLE"),
		ProductsTable:        os.Getenv("PRODUCTS_TABLE"),
		ProfilesTable:        os.Getenv("PROFILES_TABLE"),
		ProcessedEventsTable: os.Getenv("PROCESSED_EVENTS_TABLE"),
		QueueURL:             os.Getenv("ORDER_EVENTS_QUEUE_URL"),
		FromEmail:            os.Getenv("FROM_EMAIL"),
		MetricsNamespace:     os.Getenv("METRICS_NAMESPACE"),
	}

	r := setupRouter(cfg)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		addr := ":8080"
		log.Printf("running local server on %s", addr)
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		// the adapter handles proxying; use adapter.ProxyWithContext for proper context propagation
		return adapter.ProxyWithContext(ctx, req)
	})
}
