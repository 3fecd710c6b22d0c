package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metrics emits per-outcome counters for processed webhook events.
// Emission is best-effort: callers log and move on when it fails.
type Metrics struct {
	CW        CloudWatchAPI
	Namespace string
}

// NewMetrics returns a Metrics publisher under the given CloudWatch namespace.
func NewMetrics(cw CloudWatchAPI, namespace string) *Metrics {
	if namespace == "" {
		namespace = "CheckoutWebhooks"
	}
	return &Metrics{CW: cw, Namespace: namespace}
}

// CountOutcome records one reconciliation with the outcome and event type as dimensions.
func (m *Metrics) CountOutcome(ctx context.Context, eventType, outcome string) error {
	one := 1.0
	input := &cloudwatch.PutMetricDataInput{
		Namespace: &m.Namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: awsString("WebhookReconciled"),
				Unit:       cwtypes.StandardUnitCount,
				Value:      &one,
				Dimensions: []cwtypes.Dimension{
					{Name: awsString("Outcome"), Value: &outcome},
					{Name: awsString("EventType"), Value: &eventType},
				},
			},
		},
	}

	if _, err := m.CW.PutMetricData(ctx, input); err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
