// Package qos implements QoS compatibility checking and BEST_AVAILABLE QoS
// resolution. See spec §4.2.
package qos

import (
	"fmt"
	"strings"

	"github.com/Postrantor/rmw-dds-common-go/internal/model"
)

// Compatibility is the outcome of CheckCompatible.
type Compatibility int

const (
	// CompatibilityOK means the two profiles are compatible, with no
	// caveats worth surfacing.
	CompatibilityOK Compatibility = iota
	// CompatibilityWarning means the two profiles are compatible but one
	// or both sides left a policy SYSTEM_DEFAULT or UNKNOWN, so the
	// match could not be confirmed with certainty.
	CompatibilityWarning
	// CompatibilityError means the two profiles cannot communicate.
	CompatibilityError
)

// CheckCompatible compares a publisher's and a subscription's QoS
// profiles and reports whether they are compatible. reason accumulates
// one semicolon-terminated clause per rule that fired, in the same order
// the rules are evaluated, mirroring qos_profile_check_compatible's
// buffer-append behavior exactly (including its wording) so downstream
// tooling that greps for these strings keeps working unmodified.
func CheckCompatible(publisherQoS, subscriptionQoS model.QoSProfile) (Compatibility, string) {
	compatibility := CompatibilityOK
	var reason strings.Builder

	appendReason := func(format string, args ...interface{}) {
		fmt.Fprintf(&reason, format, args...)
	}

	if publisherQoS.Reliability == model.ReliabilityBestEffort &&
		subscriptionQoS.Reliability == model.ReliabilityReliable {
		compatibility = CompatibilityError
		appendReason("ERROR: Best effort publisher and reliable subscription;")
	}

	if publisherQoS.Durability == model.DurabilityVolatile &&
		subscriptionQoS.Durability == model.DurabilityTransientLocal {
		compatibility = CompatibilityError
		appendReason("ERROR: Volatile publisher and transient local subscription;")
	}

	pubDeadline := publisherQoS.Deadline
	subDeadline := subscriptionQoS.Deadline

	if pubDeadline == model.DurationDefault && subDeadline != model.DurationDefault {
		compatibility = CompatibilityError
		appendReason("ERROR: Subscription has a deadline, but publisher does not;")
	}

	if pubDeadline != model.DurationDefault && subDeadline != model.DurationDefault {
		if subDeadline.Less(pubDeadline) {
			compatibility = CompatibilityError
			appendReason("ERROR: Subscription deadline is less than publisher deadline;")
		}
	}

	if publisherQoS.Liveliness == model.LivelinessAutomatic &&
		subscriptionQoS.Liveliness == model.LivelinessManualByTopic {
		compatibility = CompatibilityError
		appendReason("ERROR: Publisher's liveliness is automatic and subscription's is manual by topic;")
	}

	pubLease := publisherQoS.LivelinessLeaseDuration
	subLease := subscriptionQoS.LivelinessLeaseDuration

	if pubLease == model.DurationDefault && subLease != model.DurationDefault {
		compatibility = CompatibilityError
		appendReason("ERROR: Subscription has a liveliness lease duration, but publisher does not;")
	}

	if pubLease != model.DurationDefault && subLease != model.DurationDefault {
		if subLease.Less(pubLease) {
			compatibility = CompatibilityError
			appendReason("ERROR: Subscription liveliness lease duration is less than publisher;")
		}
	}

	// Warnings are only worth raising when nothing is outright broken.
	if compatibility == CompatibilityOK {
		pubReliabilityUnknown := publisherQoS.Reliability == model.ReliabilitySystemDefault ||
			publisherQoS.Reliability == model.ReliabilityUnknown
		subReliabilityUnknown := subscriptionQoS.Reliability == model.ReliabilitySystemDefault ||
			subscriptionQoS.Reliability == model.ReliabilityUnknown
		pubDurabilityUnknown := publisherQoS.Durability == model.DurabilitySystemDefault ||
			publisherQoS.Durability == model.DurabilityUnknown
		subDurabilityUnknown := subscriptionQoS.Durability == model.DurabilitySystemDefault ||
			subscriptionQoS.Durability == model.DurabilityUnknown
		pubLivelinessUnknown := publisherQoS.Liveliness == model.LivelinessSystemDefault ||
			publisherQoS.Liveliness == model.LivelinessUnknown
		subLivelinessUnknown := subscriptionQoS.Liveliness == model.LivelinessSystemDefault ||
			subscriptionQoS.Liveliness == model.LivelinessUnknown

		switch {
		case pubReliabilityUnknown && subReliabilityUnknown:
			compatibility = CompatibilityWarning
			appendReason("WARNING: Publisher reliability is %s and subscription reliability is %s;",
				publisherQoS.Reliability, subscriptionQoS.Reliability)
		case pubReliabilityUnknown && subscriptionQoS.Reliability == model.ReliabilityReliable:
			compatibility = CompatibilityWarning
			appendReason("WARNING: Reliable subscription, but publisher is %s;", publisherQoS.Reliability)
		case publisherQoS.Reliability == model.ReliabilityBestEffort && subReliabilityUnknown:
			compatibility = CompatibilityWarning
			appendReason("WARNING: Best effort publisher, but subscription is %s;", subscriptionQoS.Reliability)
		}

		switch {
		case pubDurabilityUnknown && subDurabilityUnknown:
			compatibility = CompatibilityWarning
			appendReason("WARNING: Publisher durabilty is %s and subscription durability is %s;",
				publisherQoS.Durability, subscriptionQoS.Durability)
		case pubDurabilityUnknown && subscriptionQoS.Durability == model.DurabilityTransientLocal:
			compatibility = CompatibilityWarning
			appendReason("WARNING: Transient local subscription, but publisher is %s;", publisherQoS.Durability)
		case publisherQoS.Durability == model.DurabilityVolatile && subDurabilityUnknown:
			compatibility = CompatibilityWarning
			appendReason("WARNING: Volatile publisher, but subscription is %s;", subscriptionQoS.Durability)
		}

		switch {
		case pubLivelinessUnknown && subLivelinessUnknown:
			compatibility = CompatibilityWarning
			appendReason("WARNING: Publisher liveliness is %s and subscription liveliness is %s;",
				publisherQoS.Liveliness, subscriptionQoS.Liveliness)
		case pubLivelinessUnknown && subscriptionQoS.Liveliness == model.LivelinessManualByTopic:
			compatibility = CompatibilityWarning
			appendReason("WARNING: Subscription's liveliness is manual by topic, but publisher's is %s;", publisherQoS.Liveliness)
		case publisherQoS.Liveliness == model.LivelinessAutomatic && subLivelinessUnknown:
			compatibility = CompatibilityWarning
			appendReason("WARNING: Publisher's liveliness is automatic, but subscription's is %s;", subscriptionQoS.Liveliness)
		}
	}

	return compatibility, reason.String()
}
