package actions

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNoProviders is returned when no directory exists for a product type.
var ErrNoProviders = errors.New("no service providers found")

// Provider is one entry in the third-party service directory.
type Provider struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Phone          string   `json:"phone"`
	Rating         float64  `json:"rating"`
	Certifications []string `json:"certifications"`
	DistanceMiles  float64  `json:"distance_miles"`
}

// Directory is a filtered, distance-sorted provider listing.
type Directory struct {
	ProductType   string         `json:"product_type"`
	Location      map[string]any `json:"location"`
	ProviderCount int            `json:"provider_count"`
	Providers     []Provider     `json:"providers"`
}

// DirectoryFilters narrows a directory lookup.
type DirectoryFilters struct {
	CertifiedOnly bool
}

var serviceProviders = map[string][]Provider{
	"SALT": {
		{
			ID: "SP-001", Name: "AquaPure Service Co.",
			Address: "123 Water St, Houston, TX 77001", Phone: "(713) 555-0101",
			Rating:         4.8,
			Certifications: []string{"Certified Water Treatment Specialist", "Factory Authorized"},
			DistanceMiles:  5.2,
		},
		{
			ID: "SP-002", Name: "SoftWater Solutions",
			Address: "456 Mineral Ave, Houston, TX 77002", Phone: "(713) 555-0202",
			Rating:         4.5,
			Certifications: []string{"Factory Authorized"},
			DistanceMiles:  8.7,
		},
		{
			ID: "SP-003", Name: "ClearFlow Technicians",
			Address: "789 Filter Blvd, Sugar Land, TX 77478", Phone: "(281) 555-0303",
			Rating:         4.9,
			Certifications: []string{"Master Technician", "Factory Authorized"},
			DistanceMiles:  12.3,
		},
	},
	"HEAT": {
		{
			ID: "HP-001", Name: "HeatPro Services",
			Address: "321 Thermal Way, Houston, TX 77003", Phone: "(713) 555-0401",
			Rating:         4.7,
			Certifications: []string{"HVAC Certified", "Heat Pump Specialist", "Factory Authorized"},
			DistanceMiles:  6.1,
		},
		{
			ID: "HP-002", Name: "Efficient Energy Solutions",
			Address: "654 Pump Lane, Katy, TX 77449", Phone: "(281) 555-0502",
			Rating:         4.6,
			Certifications: []string{"Energy Star Partner", "Factory Authorized"},
			DistanceMiles:  15.4,
		},
		{
			ID: "HP-003", Name: "WarmWater Experts",
			Address: "987 Heat St, Pearland, TX 77584", Phone: "(832) 555-0603",
			Rating:         4.8,
			Certifications: []string{"Master Heat Pump Technician", "Factory Authorized"},
			DistanceMiles:  18.9,
		},
	},
}

func hasCertification(p Provider, cert string) bool {
	for _, c := range p.Certifications {
		if c == cert {
			return true
		}
	}
	return false
}

// GetServiceDirectory lists providers for a product type within the
// search radius, nearest first. A zero maxDistanceMiles means the
// default 50-mile radius.
func (s *Service) GetServiceDirectory(productType string, location map[string]any, maxDistanceMiles float64, filters DirectoryFilters) (*Directory, error) {
	providers, ok := serviceProviders[productType]
	if !ok || len(providers) == 0 {
		return nil, fmt.Errorf("%w for product type: %s", ErrNoProviders, productType)
	}

	if maxDistanceMiles <= 0 {
		maxDistanceMiles = 50
	}

	var filtered []Provider
	for _, p := range providers {
		if p.DistanceMiles > maxDistanceMiles {
			continue
		}
		if filters.CertifiedOnly && !hasCertification(p, "Factory Authorized") {
			continue
		}
		filtered = append(filtered, p)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].DistanceMiles < filtered[j].DistanceMiles
	})

	return &Directory{
		ProductType:   productType,
		Location:      location,
		ProviderCount: len(filtered),
		Providers:     filtered,
	}, nil
}
