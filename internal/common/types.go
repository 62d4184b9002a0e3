package common

// NotificationKind tells notifications produced by event fan-out apart from
// the ones other actions generate.
type NotificationKind string

const (
	KindEvent         NotificationKind = "event"
	KindParticipation NotificationKind = "participation"
	KindGeneral       NotificationKind = "general"
)

// EventMessagePrefix is prepended to the event name in fan-out notifications.
const EventMessagePrefix = "New event: "

func EventMessage(eventName string) string {
	return EventMessagePrefix + eventName
}

func ParticipationMessage(eventName string) string {
	return "You joined: " + eventName
}

// MessageType is the "type" field of every frame exchanged over a live channel.
type MessageType string

const (
	// server -> client
	MessageUnreadNotifications MessageType = "unreadNotifications"
	MessageNewEvent            MessageType = "newEvent"
	MessageNotification        MessageType = "notification"

	// client -> server
	MessageRegisterUser MessageType = "registerUser"
)

// Envelope is the JSON frame pushed to clients.
type Envelope struct {
	Type MessageType `json:"type"`
	Data any         `json:"data"`
}

// EventDraft is what the administrative layer submits to create an event.
type EventDraft struct {
	Name        string `json:"eventName"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Details     string `json:"additionalDetails"`
	CreatedBy   string `json:"createdBy"`
}

// EventAnnouncement is the live "newEvent" payload. It is a hint for the UI,
// durable state is fetched through the reconciliation payload.
type EventAnnouncement struct {
	EventID     uint64 `json:"eventId"`
	EventName   string `json:"eventName"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
}

type DashboardCounts struct {
	UserCount         int64 `json:"userCount"`
	EventCount        int64 `json:"eventCount"`
	NotificationCount int64 `json:"notificationCount"`
}
