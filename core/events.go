package core

import "time"

// EventType enumerates domain events.
type EventType string

const (
	EventScoreRecorded       EventType = "score_recorded"
	EventAchievementUnlocked EventType = "achievement_unlocked"
	EventXPAwarded           EventType = "xp_awarded"
	EventBadgeAwarded        EventType = "badge_awarded"
	EventCategoryCompleted   EventType = "category_completed"
)

// Event represents an immutable domain event.
type Event struct {
	Type        EventType      `json:"type"`
	Time        time.Time      `json:"time"`
	UserID      UserID         `json:"user_id"`
	Achievement string         `json:"achievement,omitempty"`
	Category    string         `json:"category,omitempty"`
	Tier        int            `json:"tier,omitempty"`
	XP          int64          `json:"xp,omitempty"`
	Badge       string         `json:"badge,omitempty"`
	WPM         float64        `json:"wpm,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func NewScoreRecorded(user UserID, wpm float64) Event {
	return Event{Type: EventScoreRecorded, Time: time.Now().UTC(), UserID: user, WPM: wpm}
}

func NewAchievementUnlocked(user UserID, name string, category string, tier int) Event {
	return Event{Type: EventAchievementUnlocked, Time: time.Now().UTC(), UserID: user, Achievement: name, Category: category, Tier: tier}
}

func NewXPAwarded(user UserID, amount int64, total int64) Event {
	return Event{Type: EventXPAwarded, Time: time.Now().UTC(), UserID: user, XP: amount, Metadata: map[string]any{"total": total}}
}

func NewBadgeAwarded(user UserID, badge string) Event {
	return Event{Type: EventBadgeAwarded, Time: time.Now().UTC(), UserID: user, Badge: badge}
}

func NewCategoryCompleted(user UserID, category string) Event {
	return Event{Type: EventCategoryCompleted, Time: time.Now().UTC(), UserID: user, Category: category}
}
