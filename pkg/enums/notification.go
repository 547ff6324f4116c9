package enums

import "fmt"

// NotificationType categorizes in-app notifications.
type NotificationType string

const (
	NotificationTypePromo  NotificationType = "promo"
	NotificationTypeInfo   NotificationType = "info"
	NotificationTypeSystem NotificationType = "system"
	NotificationTypeOrder  NotificationType = "order"
)

var validNotificationTypes = []NotificationType{
	NotificationTypePromo,
	NotificationTypeInfo,
	NotificationTypeSystem,
	NotificationTypeOrder,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
