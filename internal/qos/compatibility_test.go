package qos

import (
	"testing"

	"github.com/Postrantor/rmw-dds-common-go/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestCheckCompatibleBestEffortPublisherReliableSubscription(t *testing.T) {
	pub := model.QoSProfile{Reliability: model.ReliabilityBestEffort}
	sub := model.QoSProfile{Reliability: model.ReliabilityReliable}

	compat, reason := CheckCompatible(pub, sub)
	assert.Equal(t, CompatibilityError, compat)
	assert.Contains(t, reason, "ERROR: Best effort publisher and reliable subscription;")
}

func TestCheckCompatibleVolatilePublisherTransientLocalSubscription(t *testing.T) {
	pub := model.QoSProfile{Durability: model.DurabilityVolatile}
	sub := model.QoSProfile{Durability: model.DurabilityTransientLocal}

	compat, reason := CheckCompatible(pub, sub)
	assert.Equal(t, CompatibilityError, compat)
	assert.Contains(t, reason, "ERROR: Volatile publisher and transient local subscription;")
}

func TestCheckCompatibleSubscriptionDeadlineTighterThanPublisher(t *testing.T) {
	pub := model.QoSProfile{Deadline: model.Duration{Sec: 2}}
	sub := model.QoSProfile{Deadline: model.Duration{Sec: 1}}

	compat, reason := CheckCompatible(pub, sub)
	assert.Equal(t, CompatibilityError, compat)
	assert.Contains(t, reason, "ERROR: Subscription deadline is less than publisher deadline;")
}

func TestCheckCompatibleReliableMatchIsOK(t *testing.T) {
	pub := model.QoSProfile{Reliability: model.ReliabilityReliable, Durability: model.DurabilityVolatile}
	sub := model.QoSProfile{Reliability: model.ReliabilityReliable, Durability: model.DurabilityVolatile}

	compat, reason := CheckCompatible(pub, sub)
	assert.Equal(t, CompatibilityOK, compat)
	assert.Empty(t, reason)
}

func TestCheckCompatibleUnknownReliabilityWarns(t *testing.T) {
	pub := model.QoSProfile{Reliability: model.ReliabilitySystemDefault}
	sub := model.QoSProfile{Reliability: model.ReliabilityReliable}

	compat, reason := CheckCompatible(pub, sub)
	assert.Equal(t, CompatibilityWarning, compat)
	assert.Contains(t, reason, "WARNING: Reliable subscription, but publisher is")
}

func TestCheckCompatibleLivelinessAutomaticPublisherManualSubscriptionErrors(t *testing.T) {
	pub := model.QoSProfile{Liveliness: model.LivelinessAutomatic}
	sub := model.QoSProfile{Liveliness: model.LivelinessManualByTopic}

	compat, reason := CheckCompatible(pub, sub)
	assert.Equal(t, CompatibilityError, compat)
	assert.Contains(t, reason, "ERROR: Publisher's liveliness is automatic and subscription's is manual by topic;")
}
