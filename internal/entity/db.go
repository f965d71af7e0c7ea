package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringArray stores a string slice as a JSON column.
type StringArray []string

// Value implements driver.Valuer.
func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			*a = []string{}
			return nil
		}
		return json.Unmarshal(v, (*[]string)(a))
	case string:
		if v == "" {
			*a = []string{}
			return nil
		}
		return json.Unmarshal([]byte(v), (*[]string)(a))
	default:
		return fmt.Errorf("unsupported type for StringArray: %T", value)
	}
}

// DbGenerationRecord logs one generation request handled by the relay.
type DbGenerationRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Kind       string `gorm:"column:kind;type:varchar(32);index" json:"kind"` // avatar | tryon | videoloop
	ProviderID string `gorm:"column:provider_id;type:varchar(255);index" json:"provider_id"`
	ModelID    string `gorm:"column:model_id;type:varchar(255);index" json:"model_id"`

	InputAssets  StringArray `gorm:"column:input_assets;type:json" json:"input_assets"`
	OutputAssets StringArray `gorm:"column:output_assets;type:json" json:"output_assets"`

	Width           int     `gorm:"column:width" json:"width"`
	Height          int     `gorm:"column:height" json:"height"`
	DurationSeconds float64 `gorm:"column:duration_seconds" json:"duration_seconds"`
	LatencyMS       float64 `gorm:"column:latency_ms" json:"latency_ms"`

	ErrorMessage string `gorm:"column:error_message;type:text" json:"error_message"`
}

// TableName pins the table name independent of naming strategy.
func (DbGenerationRecord) TableName() string {
	return "generation_records"
}

// GenerationRecordUpdates holds the partial-update fields for a record.
type GenerationRecordUpdates struct {
	InputAssets     *StringArray
	OutputAssets    *StringArray
	Width           *int
	Height          *int
	DurationSeconds *float64
	LatencyMS       *float64
	ErrorMessage    *string
}

// ToMap converts the set fields into a GORM updates map.
func (u GenerationRecordUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.InputAssets != nil {
		updates["input_assets"] = *u.InputAssets
	}
	if u.OutputAssets != nil {
		updates["output_assets"] = *u.OutputAssets
	}
	if u.Width != nil {
		updates["width"] = *u.Width
	}
	if u.Height != nil {
		updates["height"] = *u.Height
	}
	if u.DurationSeconds != nil {
		updates["duration_seconds"] = *u.DurationSeconds
	}
	if u.LatencyMS != nil {
		updates["latency_ms"] = *u.LatencyMS
	}
	if u.ErrorMessage != nil {
		updates["error_message"] = *u.ErrorMessage
	}
	return updates
}

// IsEmpty reports whether no update field is set.
func (u GenerationRecordUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}

// GenerationRecordQuery filters and paginates record listings.
type GenerationRecordQuery struct {
	Kind     string
	Result   string // "", "all", "success", "failure"
	Page     int64
	PageSize int64
}

// Meta contains pagination metadata.
type Meta struct {
	Page     int64 `json:"page"`
	PageSize int64 `json:"page_size"`
	Total    int64 `json:"total"`
}
