package model

import "time"

// NotificationPreferences selects channels, content types and lead time
// for event notifications.
type NotificationPreferences struct {
    NotifyEmail       bool   `json:"notifyEmail"`
    NotifySMS         bool   `json:"notifySMS"`
    TypeLivestream    bool   `json:"typeLivestream"`
    TypeEvents        bool   `json:"typeEvents"`
    TypeAnnouncements bool   `json:"typeAnnouncements"`
    Timing            string `json:"timing"` // 1hour | day | week
}

// NotificationSignup is a row in `notification_signups`.
type NotificationSignup struct {
    ID          uint64                  `json:"id"`
    FirstName   string                  `json:"first_name"`
    LastName    string                  `json:"last_name"`
    Email       string                  `json:"email"`
    Phone       *string                 `json:"phone"`
    Preferences NotificationPreferences `json:"preferences"`
    Source      string                  `json:"source"`
    Active      bool                    `json:"active"`
    CreatedAt   time.Time               `json:"created_at"`
}

// NewsletterSubscriber is a row in `newsletter_signups`.
type NewsletterSubscriber struct {
    ID        uint64    `json:"id"`
    Name      string    `json:"name"`
    Email     string    `json:"email"`
    Active    bool      `json:"active"`
    CreatedAt time.Time `json:"created_at"`
}
