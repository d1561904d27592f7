package qos

import (
	"context"

	"github.com/Postrantor/rmw-dds-common-go/internal/model"
)

// ServicesDefaultProfile is the QoS profile new services and clients fall
// back to when BEST_AVAILABLE resolution has nothing else to go on,
// mirroring rmw_qos_profile_services_default.
var ServicesDefaultProfile = model.QoSProfile{
	Reliability:             model.ReliabilityReliable,
	Durability:              model.DurabilityVolatile,
	Liveliness:              model.LivelinessSystemDefault,
	HistoryKind:             model.HistoryKeepLast,
	HistoryDepth:            10,
	Deadline:                model.DurationDefault,
	LivelinessLeaseDuration: model.DurationDefault,
	Lifespan:                model.DurationDefault,
}

// ResolveSubscription resolves every BEST_AVAILABLE policy in
// subscriptionQoS against the observed publisherProfiles, in place, and
// returns the resolved profile. A policy already concrete is left
// untouched. Matches qos_profile_get_best_available_for_subscription.
//
// When publisherProfiles is empty, every BEST_AVAILABLE policy resolves
// to its conservative branch (BEST_EFFORT / VOLATILE / AUTOMATIC /
// DEFAULT / DEFAULT): with no publisher observed, "all publishers
// satisfy the criterion" is never treated as vacuously true. See the
// decision recorded in DESIGN.md.
func ResolveSubscription(subscriptionQoS model.QoSProfile, publisherProfiles []model.QoSProfile) model.QoSProfile {
	result := subscriptionQoS

	numReliable := 0
	numTransientLocal := 0
	numManualByTopic := 0
	useDefaultDeadline := true
	var largestDeadline model.Duration
	useDefaultLease := true
	var largestLease model.Duration

	for _, p := range publisherProfiles {
		if p.Reliability == model.ReliabilityReliable {
			numReliable++
		}
		if p.Durability == model.DurabilityTransientLocal {
			numTransientLocal++
		}
		if p.Liveliness == model.LivelinessManualByTopic {
			numManualByTopic++
		}
		if p.Deadline != model.DurationDefault {
			useDefaultDeadline = false
			if largestDeadline.Less(p.Deadline) {
				largestDeadline = p.Deadline
			}
		}
		if p.LivelinessLeaseDuration != model.DurationDefault {
			useDefaultLease = false
			if largestLease.Less(p.LivelinessLeaseDuration) {
				largestLease = p.LivelinessLeaseDuration
			}
		}
	}

	n := len(publisherProfiles)

	if result.Reliability == model.ReliabilityBestAvailable {
		if n > 0 && numReliable == n {
			result.Reliability = model.ReliabilityReliable
		} else {
			result.Reliability = model.ReliabilityBestEffort
		}
	}
	if result.Durability == model.DurabilityBestAvailable {
		if n > 0 && numTransientLocal == n {
			result.Durability = model.DurabilityTransientLocal
		} else {
			result.Durability = model.DurabilityVolatile
		}
	}
	if result.Liveliness == model.LivelinessBestAvailable {
		if n > 0 && numManualByTopic == n {
			result.Liveliness = model.LivelinessManualByTopic
		} else {
			result.Liveliness = model.LivelinessAutomatic
		}
	}
	if result.Deadline == model.DurationBestAvailable {
		if useDefaultDeadline {
			result.Deadline = model.DurationDefault
		} else {
			result.Deadline = largestDeadline
		}
	}
	if result.LivelinessLeaseDuration == model.DurationBestAvailable {
		if useDefaultLease {
			result.LivelinessLeaseDuration = model.DurationDefault
		} else {
			result.LivelinessLeaseDuration = largestLease
		}
	}

	return result
}

// ResolvePublisher resolves every BEST_AVAILABLE policy in publisherQoS
// against the observed subscriptionProfiles, and returns the resolved
// profile. Reliability and durability always resolve to the strictest
// concrete value regardless of what subscribers report, since both are
// compatible with every subscription and offer the best service level.
// Matches qos_profile_get_best_available_for_publisher.
func ResolvePublisher(publisherQoS model.QoSProfile, subscriptionProfiles []model.QoSProfile) model.QoSProfile {
	result := publisherQoS

	if result.Reliability == model.ReliabilityBestAvailable {
		result.Reliability = model.ReliabilityReliable
	}
	if result.Durability == model.DurabilityBestAvailable {
		result.Durability = model.DurabilityTransientLocal
	}

	useManualByTopic := false
	useDefaultDeadline := true
	smallestDeadline := model.DurationInfinite
	useDefaultLease := true
	smallestLease := model.DurationInfinite

	for _, s := range subscriptionProfiles {
		if s.Liveliness == model.LivelinessManualByTopic {
			useManualByTopic = true
		}
		if s.Deadline != model.DurationDefault {
			useDefaultDeadline = false
			if s.Deadline.Less(smallestDeadline) {
				smallestDeadline = s.Deadline
			}
		}
		if s.LivelinessLeaseDuration != model.DurationDefault {
			useDefaultLease = false
			if s.LivelinessLeaseDuration.Less(smallestLease) {
				smallestLease = s.LivelinessLeaseDuration
			}
		}
	}

	if result.Liveliness == model.LivelinessBestAvailable {
		if useManualByTopic {
			result.Liveliness = model.LivelinessManualByTopic
		} else {
			result.Liveliness = model.LivelinessAutomatic
		}
	}
	if result.Deadline == model.DurationBestAvailable {
		if useDefaultDeadline {
			result.Deadline = model.DurationDefault
		} else {
			result.Deadline = smallestDeadline
		}
	}
	if result.LivelinessLeaseDuration == model.DurationBestAvailable {
		if useDefaultLease {
			result.LivelinessLeaseDuration = model.DurationDefault
		} else {
			result.LivelinessLeaseDuration = smallestLease
		}
	}

	return result
}

// ResolveService resolves every BEST_AVAILABLE policy in profile against
// ServicesDefaultProfile. Unlike ResolveSubscription/ResolvePublisher,
// service QoS resolution has no counterparty endpoint set to observe, so
// it always falls back to the fixed services-default profile. Matches
// qos_profile_update_best_available_for_services.
func ResolveService(profile model.QoSProfile) model.QoSProfile {
	result := profile
	if result.Reliability == model.ReliabilityBestAvailable {
		result.Reliability = ServicesDefaultProfile.Reliability
	}
	if result.Durability == model.DurabilityBestAvailable {
		result.Durability = ServicesDefaultProfile.Durability
	}
	if result.Liveliness == model.LivelinessBestAvailable {
		result.Liveliness = ServicesDefaultProfile.Liveliness
	}
	if result.Deadline == model.DurationBestAvailable {
		result.Deadline = ServicesDefaultProfile.Deadline
	}
	if result.LivelinessLeaseDuration == model.DurationBestAvailable {
		result.LivelinessLeaseDuration = ServicesDefaultProfile.LivelinessLeaseDuration
	}
	return result
}

// EndpointEnumerator looks up the QoS profiles of every endpoint
// currently known for topic, in the direction the caller is resolving
// against (publishers when resolving a subscription, subscriptions when
// resolving a publisher). It is the Go-idiom replacement for the
// original's GetEndpointInfoByTopicFunction indirection through an RMW
// implementation, letting ResolveTopic stay decoupled from the graph
// cache or any particular discovery transport.
type EndpointEnumerator func(ctx context.Context, topic string) ([]model.QoSProfile, error)

// ResolveTopic resolves qosProfile's BEST_AVAILABLE policies against the
// counterparty endpoints enumerate reports for topic. If qosProfile
// carries no BEST_AVAILABLE policy at all, enumerate is never called.
// forSubscription selects ResolveSubscription vs ResolvePublisher
// semantics. Matches
// qos_profile_get_best_available_for_topic_subscription/_publisher.
func ResolveTopic(ctx context.Context, topic string, qosProfile model.QoSProfile, forSubscription bool, enumerate EndpointEnumerator) (model.QoSProfile, error) {
	if !qosProfile.HasBestAvailablePolicy() {
		return qosProfile, nil
	}

	profiles, err := enumerate(ctx, topic)
	if err != nil {
		return qosProfile, err
	}

	if forSubscription {
		return ResolveSubscription(qosProfile, profiles), nil
	}
	return ResolvePublisher(qosProfile, profiles), nil
}
