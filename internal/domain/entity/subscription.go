package entity

import "time"

// MaxSubscriptionsPerUser caps how many tickers one user may subscribe to.
const MaxSubscriptionsPerUser = 5

// Subscription is a (user, ticker) pair. Pairs are unique per user and ticker.
// Subscriptions are created and deleted by the user-facing surface; this core
// only reads them.
type Subscription struct {
	ID        int64
	UserID    string
	Ticker    string
	CreatedAt time.Time
}

// Subscriber is a notification recipient resolved from subscriptions.
type Subscriber struct {
	ID          string
	Email       string
	DeviceToken *string // push token, nil when the user has no registered device
}

// HasDeviceToken reports whether the subscriber can receive push notifications.
func (s *Subscriber) HasDeviceToken() bool {
	return s.DeviceToken != nil && *s.DeviceToken != ""
}

// NotificationChannel identifies a subscriber delivery channel.
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelPush  NotificationChannel = "push"
)

// NotificationStatus is the recorded outcome of one notification attempt.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// NotificationLogEntry records one (user, article, channel) delivery outcome.
// A logged "sent" entry prevents re-notifying the same user for the same
// article on that channel in later dispatch runs.
type NotificationLogEntry struct {
	ID           int64
	UserID       string
	ArticleID    int64
	Channel      NotificationChannel
	Status       NotificationStatus
	ErrorMessage string
	SentAt       *time.Time
	CreatedAt    time.Time
}
