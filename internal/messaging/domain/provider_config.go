package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"pushconsole-backend/pkg/fcm"
)

// ProviderConfig holds the credential material for the push provider.
// A config is dispatch-capable when it carries a legacy server key, a
// service-account credential, or both.
type ProviderConfig struct {
	ID                 string    `json:"id" gorm:"primaryKey"`
	Name               string    `json:"name" gorm:"not null"`
	LegacyKey          string    `json:"-"` // Don't expose credentials in JSON
	ServiceAccountJSON string    `json:"-" gorm:"type:text"`
	ProjectID          string    `json:"project_id,omitempty"` // Optional override of the credential's project
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// serviceAccountCredential is the subset of a service-account JSON file the
// dispatch engine needs
type serviceAccountCredential struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	ProjectID   string `json:"project_id"`
}

// DispatchCredential converts the config into the credential the dispatch
// router consumes. The service-account credential takes precedence when both
// materials are present; a config with neither yields ErrNoUsableCredential.
func (c *ProviderConfig) DispatchCredential() (fcm.Credential, error) {
	if c.ServiceAccountJSON != "" {
		var account serviceAccountCredential
		if err := json.Unmarshal([]byte(c.ServiceAccountJSON), &account); err != nil {
			return nil, fmt.Errorf("invalid service account credential: %w", err)
		}

		projectID := c.ProjectID
		if projectID == "" {
			projectID = account.ProjectID
		}

		return fcm.ServiceAccount{
			ConfigID:    c.ID,
			ClientEmail: account.ClientEmail,
			PrivateKey:  account.PrivateKey,
			ProjectID:   projectID,
		}, nil
	}

	if c.LegacyKey != "" {
		return fcm.APIKey{Key: c.LegacyKey}, nil
	}

	return nil, fcm.ErrNoUsableCredential
}
