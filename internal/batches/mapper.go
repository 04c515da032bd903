package batches

import (
	"github.com/agritrace/agritrace-backend/pkg/types"
)

func (l *LocationInput) toLocation() *types.Location {
	if l == nil {
		return nil
	}
	loc := &types.Location{Name: l.Name}
	if l.Address != nil {
		loc.Address = *l.Address
	}
	if l.Latitude != nil && l.Longitude != nil {
		loc.Coordinates = &types.Coordinates{
			Latitude:  *l.Latitude,
			Longitude: *l.Longitude,
		}
	}
	return loc
}

func (m *MediaRefsInput) toMediaRefs() *types.MediaRefs {
	if m == nil {
		return nil
	}
	return &types.MediaRefs{
		Images:       m.Images,
		Documents:    m.Documents,
		Videos:       m.Videos,
		Certificates: m.Certificates,
	}
}

func (m *EventMetadataInput) toMetadata() *types.EventMetadata {
	if m == nil {
		return nil
	}
	return &types.EventMetadata{
		TemperatureCelsius: m.TemperatureCelsius,
		HumidityPercent:    m.HumidityPercent,
		StorageConditions:  m.StorageConditions,
		HandlingNotes:      m.HandlingNotes,
	}
}

func toQualityParameters(params []QualityParameterInput) types.QualityParameters {
	if len(params) == 0 {
		return nil
	}
	out := make(types.QualityParameters, 0, len(params))
	for _, p := range params {
		out = append(out, types.QualityParameter{
			Name:     p.Name,
			Value:    p.Value,
			Unit:     p.Unit,
			Standard: p.Standard,
			Status:   types.QualityParameterStatus(p.Status),
		})
	}
	return out
}
