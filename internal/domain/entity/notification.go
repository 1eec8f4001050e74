package entity

import "time"

const (
	NotificationNewMessage           = "new_message"
	NotificationAppointmentCreated   = "appointment_created"
	NotificationAppointmentApproved  = "appointment_approved"
	NotificationAppointmentCancelled = "appointment_cancelled"
	NotificationAppointmentRejected  = "appointment_rejected"
	NotificationAppointmentCompleted = "appointment_completed"
	NotificationGeneric              = "generic"
)

func IsValidNotificationType(t string) bool {
	switch t {
	case NotificationNewMessage,
		NotificationAppointmentCreated,
		NotificationAppointmentApproved,
		NotificationAppointmentCancelled,
		NotificationAppointmentRejected,
		NotificationAppointmentCompleted,
		NotificationGeneric:
		return true
	}
	return false
}

type Notification struct {
	ID        string    `json:"id" firestore:"id"`
	Recipient string    `json:"recipient" firestore:"recipient"`
	SenderID  string    `json:"sender_id,omitempty" firestore:"senderId,omitempty"`
	Title     string    `json:"title" firestore:"title"`
	Message   string    `json:"message" firestore:"message"`
	Type      string    `json:"type" firestore:"type"`
	EntityID  string    `json:"entity_id,omitempty" firestore:"entityId,omitempty"`
	IsRead    bool      `json:"is_read" firestore:"isRead"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
