package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chocandle/cho-candle-backend/pkg/config"
)

func TestResourceNames(t *testing.T) {
	require.Equal(t, "projects/cho/topics/cho-order-events", topicResourceName("cho", "cho-order-events"))
	require.Equal(t, "projects/cho/subscriptions/sub", subscriptionResourceName("cho", " sub "))
	require.Equal(t, "projects/other/topics/t", topicResourceName("cho", "projects/other/topics/t"))
	require.Empty(t, topicResourceName("", "t"))
	require.Empty(t, subscriptionResourceName("cho", ""))
}

func TestConfiguredNames(t *testing.T) {
	cfg := config.PubSubConfig{
		OrdersTopic:        "orders",
		OrdersSubscription: "orders-notifications",
		NotificationTopic:  " ",
	}
	require.Equal(t, []string{"orders"}, topicNames(cfg))
	require.Equal(t, []string{"orders-notifications"}, subscriptionNames(cfg))
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{}, nil)
	require.ErrorIs(t, err, errProjectIDRequired)
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	require.Nil(t, c.Publisher("orders"))
	require.Nil(t, c.Subscription("orders"))
	require.Error(t, c.Ping(context.Background()))
	require.NoError(t, c.Close())
}
