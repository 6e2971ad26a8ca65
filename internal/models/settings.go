package models

// Settings represents device-level preferences kept next to the habit document
type Settings struct {
	TimezoneOffsetMinutes *int `json:"timezoneOffsetMinutes,omitempty"` // minutes east of UTC; nil means system local
	NotificationsEnabled  bool `json:"notificationsEnabled"`
}
