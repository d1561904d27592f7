package qos

import (
	"context"
	"testing"

	"github.com/Postrantor/rmw-dds-common-go/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSubscriptionAllPublishersReliableResolvesReliable(t *testing.T) {
	sub := model.QoSProfile{Reliability: model.ReliabilityBestAvailable}
	publishers := []model.QoSProfile{
		{Reliability: model.ReliabilityReliable},
		{Reliability: model.ReliabilityReliable},
	}

	resolved := ResolveSubscription(sub, publishers)
	assert.Equal(t, model.ReliabilityReliable, resolved.Reliability)
}

func TestResolveSubscriptionMixedReliabilityResolvesBestEffort(t *testing.T) {
	sub := model.QoSProfile{Reliability: model.ReliabilityBestAvailable}
	publishers := []model.QoSProfile{
		{Reliability: model.ReliabilityReliable},
		{Reliability: model.ReliabilityBestEffort},
	}

	resolved := ResolveSubscription(sub, publishers)
	assert.Equal(t, model.ReliabilityBestEffort, resolved.Reliability)
}

func TestResolveSubscriptionDeadlineUsesLargestObserved(t *testing.T) {
	sub := model.QoSProfile{Deadline: model.DurationBestAvailable}
	publishers := []model.QoSProfile{
		{Deadline: model.Duration{Sec: 1}},
		{Deadline: model.Duration{Sec: 5}},
	}

	resolved := ResolveSubscription(sub, publishers)
	assert.Equal(t, model.Duration{Sec: 5}, resolved.Deadline)
}

func TestResolveSubscriptionNoPublishersLeavesDeadlineDefault(t *testing.T) {
	sub := model.QoSProfile{Deadline: model.DurationBestAvailable}

	resolved := ResolveSubscription(sub, nil)
	assert.Equal(t, model.DurationDefault, resolved.Deadline)
}

func TestResolveSubscriptionNoPublishersResolvesToConservativeBranch(t *testing.T) {
	sub := model.QoSProfile{
		Reliability: model.ReliabilityBestAvailable,
		Durability:  model.DurabilityBestAvailable,
		Liveliness:  model.LivelinessBestAvailable,
	}

	resolved := ResolveSubscription(sub, nil)
	assert.Equal(t, model.ReliabilityBestEffort, resolved.Reliability,
		"empty publisher set must not vacuously satisfy RELIABLE")
	assert.Equal(t, model.DurabilityVolatile, resolved.Durability,
		"empty publisher set must not vacuously satisfy TRANSIENT_LOCAL")
	assert.Equal(t, model.LivelinessAutomatic, resolved.Liveliness,
		"empty publisher set must not vacuously satisfy MANUAL_BY_TOPIC")
}

func TestResolvePublisherAlwaysPicksStrictestReliabilityAndDurability(t *testing.T) {
	pub := model.QoSProfile{Reliability: model.ReliabilityBestAvailable, Durability: model.DurabilityBestAvailable}
	subscriptions := []model.QoSProfile{
		{Reliability: model.ReliabilityBestEffort, Durability: model.DurabilityVolatile},
	}

	resolved := ResolvePublisher(pub, subscriptions)
	assert.Equal(t, model.ReliabilityReliable, resolved.Reliability)
	assert.Equal(t, model.DurabilityTransientLocal, resolved.Durability)
}

func TestResolvePublisherDeadlineUsesSmallestObserved(t *testing.T) {
	pub := model.QoSProfile{Deadline: model.DurationBestAvailable}
	subscriptions := []model.QoSProfile{
		{Deadline: model.Duration{Sec: 5}},
		{Deadline: model.Duration{Sec: 2}},
	}

	resolved := ResolvePublisher(pub, subscriptions)
	assert.Equal(t, model.Duration{Sec: 2}, resolved.Deadline)
}

func TestResolveServiceFallsBackToServicesDefaultProfile(t *testing.T) {
	profile := model.QoSProfile{Reliability: model.ReliabilityBestAvailable, Durability: model.DurabilityBestAvailable}

	resolved := ResolveService(profile)
	assert.Equal(t, ServicesDefaultProfile.Reliability, resolved.Reliability)
	assert.Equal(t, ServicesDefaultProfile.Durability, resolved.Durability)
}

func TestResolveTopicSkipsEnumerationWhenNoBestAvailablePolicy(t *testing.T) {
	called := false
	enumerate := func(ctx context.Context, topic string) ([]model.QoSProfile, error) {
		called = true
		return nil, nil
	}

	profile := model.QoSProfile{Reliability: model.ReliabilityReliable}
	resolved, err := ResolveTopic(context.Background(), "rt/chatter", profile, true, enumerate)
	require.NoError(t, err)
	assert.False(t, called, "enumerator must not run when there is nothing to resolve")
	assert.Equal(t, profile, resolved)
}

func TestResolveTopicForSubscriptionCallsEnumeratorAndResolves(t *testing.T) {
	enumerate := func(ctx context.Context, topic string) ([]model.QoSProfile, error) {
		return []model.QoSProfile{{Reliability: model.ReliabilityReliable}}, nil
	}

	profile := model.QoSProfile{Reliability: model.ReliabilityBestAvailable}
	resolved, err := ResolveTopic(context.Background(), "rt/chatter", profile, true, enumerate)
	require.NoError(t, err)
	assert.Equal(t, model.ReliabilityReliable, resolved.Reliability)
}
