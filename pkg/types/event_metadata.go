package types

// EventMetadata carries environmental readings captured alongside a
// supply-chain event. All fields are optional.
type EventMetadata struct {
	TemperatureCelsius *float64 `json:"temperature_celsius,omitempty"`
	HumidityPercent    *float64 `json:"humidity_percent,omitempty"`
	StorageConditions  *string  `json:"storage_conditions,omitempty"`
	HandlingNotes      *string  `json:"handling_notes,omitempty"`
}
