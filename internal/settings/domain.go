package settings

import "time"

// Setting is one site-wide key/value pair, e.g. "site.title".
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"`
}

// Update is a single change submitted by the form or the API.
type Update struct {
	Key   string `json:"key" validate:"required,max=64,settingkey"`
	Value string `json:"value" validate:"max=4096"`
}

// UpdateRequest is the body of PUT /api/settings.
type UpdateRequest struct {
	Settings []Update `json:"settings" validate:"required,min=1,max=50,dive"`
}
