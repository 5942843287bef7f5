package actions

import "strings"

// Zip codes covered by the direct service territory.
var serviceableZips = map[string]struct{}{
	"77001": {}, "77002": {}, "77003": {}, "77004": {}, "77005": {},
	"77006": {}, "77007": {}, "77008": {}, "77009": {}, "77010": {},
	"77019": {}, "77020": {}, "77021": {}, "77022": {}, "77023": {},
	"77024": {}, "77025": {}, "77026": {}, "77027": {}, "77028": {},
	"77029": {}, "77030": {}, "77031": {}, "77032": {}, "77098": {},
	"77099": {},
}

// TerritoryResult reports whether a location can be serviced directly.
type TerritoryResult struct {
	Location              map[string]any `json:"location"`
	Serviceable           bool           `json:"serviceable"`
	TerritoryName         string         `json:"territory_name,omitempty"`
	NearestServiceableZip string         `json:"nearest_serviceable_zip,omitempty"`
	Message               string         `json:"message"`
}

// CheckTerritory decides serviceability from the location's zip code.
// Only the first five characters of the zip are significant.
func (s *Service) CheckTerritory(location map[string]any) *TerritoryResult {
	zip, _ := location["zip"].(string)
	zip = strings.TrimSpace(zip)
	if len(zip) > 5 {
		zip = zip[:5]
	}

	_, serviceable := serviceableZips[zip]

	result := &TerritoryResult{
		Location:    location,
		Serviceable: serviceable,
	}
	if serviceable {
		result.TerritoryName = "Houston Metro Area"
		result.Message = "Location is within our direct service territory"
	} else {
		result.NearestServiceableZip = "77001"
		result.Message = "Location is outside our direct service territory. Third-party service providers are available."
	}
	return result
}
