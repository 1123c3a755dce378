package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"pushconsole-backend/pkg/fcm"
)

// Template represents reusable push notification content
type Template struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Title       string    `json:"title" gorm:"not null"`
	Body        string    `json:"body" gorm:"not null"`
	ImageURL    string    `json:"image_url,omitempty"`
	ClickAction string    `json:"click_action,omitempty"` // URL to open when notification is clicked
	DataPayload string    `json:"data_payload,omitempty" gorm:"type:text"` // free-form JSON object
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Notification renders the template into the payload handed to the dispatch
// engine. Data payload values are coerced to strings before transmission.
func (t *Template) Notification() (fcm.Notification, error) {
	data, err := t.parseDataPayload()
	if err != nil {
		return fcm.Notification{}, err
	}
	return fcm.Notification{
		Title:       t.Title,
		Body:        t.Body,
		ImageURL:    t.ImageURL,
		ClickAction: t.ClickAction,
		Data:        data,
	}, nil
}

func (t *Template) parseDataPayload() (map[string]string, error) {
	if t.DataPayload == "" {
		return nil, nil
	}

	decoder := json.NewDecoder(bytes.NewReader([]byte(t.DataPayload)))
	decoder.UseNumber()

	var raw map[string]interface{}
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid template data payload: %w", err)
	}

	data := make(map[string]string, len(raw))
	for k, v := range raw {
		switch value := v.(type) {
		case string:
			data[k] = value
		default:
			data[k] = fmt.Sprint(value)
		}
	}
	return data, nil
}
