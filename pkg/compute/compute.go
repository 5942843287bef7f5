// Package compute holds the deterministic arithmetic behind the warranty
// workflow: charge estimates, coverage windows, and proration. Same input,
// same output, no clock or I/O inside the calculations.
package compute

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	ErrUnknownProductType = errors.New("unknown product type")
	ErrUnknownCoverage    = errors.New("unknown coverage type")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidProration   = errors.New("invalid proration input")
)

type baseCharges struct {
	serviceCall       float64
	laborHourly       float64
	parts             map[string]float64
	averageLaborHours float64
}

// Published rate card per product type.
var rateCard = map[string]baseCharges{
	"SALT": {
		serviceCall: 95.00,
		laborHourly: 85.00,
		parts: map[string]float64{
			"valve_assembly": 245.00,
			"control_board":  189.00,
			"brine_tank":     175.00,
			"resin_bed":      325.00,
			"motor":          215.00,
			"general_parts":  75.00,
		},
		averageLaborHours: 2.0,
	},
	"HEAT": {
		serviceCall: 125.00,
		laborHourly: 95.00,
		parts: map[string]float64{
			"compressor":       850.00,
			"heat_exchanger":   425.00,
			"control_board":    275.00,
			"heating_element":  195.00,
			"thermostat":       85.00,
			"tank_replacement": 1200.00,
			"general_parts":    100.00,
		},
		averageLaborHours: 3.0,
	},
}

// Regional pricing modifiers keyed by state code.
var regionalModifiers = map[string]float64{
	"TX": 1.00,
	"CA": 1.25,
	"NY": 1.20,
	"FL": 1.05,
}

const defaultModifier = 1.0

var coverageDurations = map[string]map[string]int{
	"SALT": {"parts": 24, "labor": 12, "controller": 60},
	"HEAT": {"parts": 36, "labor": 12, "tank": 120},
}

// ChargeInput carries everything a charge estimate depends on.
type ChargeInput struct {
	ProductID       string
	ProductType     string
	ActiveCoverages []string
	State           string
}

// LineItem is one row of a charge breakdown.
type LineItem struct {
	Item        string  `json:"item"`
	Cost        float64 `json:"cost"`
	Description string  `json:"description"`
}

// CoveredItem is a cost the warranty absorbs.
type CoveredItem struct {
	Item         string  `json:"item"`
	OriginalCost float64 `json:"original_cost"`
	CoveredBy    string  `json:"covered_by"`
}

// ChargeSummary totals a charge estimate.
type ChargeSummary struct {
	TotalCoveredValue     float64 `json:"total_covered_value"`
	TotalPotentialCharges float64 `json:"total_potential_charges"`
	WarrantySavings       float64 `json:"warranty_savings"`
}

// ChargeEstimate is the full breakdown returned to the workflow.
type ChargeEstimate struct {
	ProductID        string        `json:"product_id"`
	ProductType      string        `json:"product_type"`
	RegionalModifier float64       `json:"regional_modifier"`
	CoveredItems     []CoveredItem `json:"covered_items"`
	PotentialCharges []LineItem    `json:"potential_charges"`
	Summary          ChargeSummary `json:"summary"`
	Assumptions      []string      `json:"assumptions"`
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// CalculateCharges estimates what a service visit would cost given the
// active warranty coverages. Labor and parts drop out of the potential
// charges when their coverage is active; the service call fee always
// applies. The regional modifier scales every line.
func CalculateCharges(in ChargeInput) (*ChargeEstimate, error) {
	base, ok := rateCard[in.ProductType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProductType, in.ProductType)
	}

	modifier := defaultModifier
	if m, ok := regionalModifiers[strings.ToUpper(in.State)]; ok {
		modifier = m
	}

	laborCovered := contains(in.ActiveCoverages, "labor")
	partsCovered := contains(in.ActiveCoverages, "parts")

	laborCost := roundCents(base.averageLaborHours * base.laborHourly * modifier)
	partsCost := roundCents(base.parts["general_parts"] * modifier)
	serviceCallCost := roundCents(base.serviceCall * modifier)

	var covered []CoveredItem
	var potential []LineItem

	if laborCovered {
		covered = append(covered, CoveredItem{
			Item:         "Labor",
			OriginalCost: laborCost,
			CoveredBy:    "labor warranty",
		})
	} else {
		potential = append(potential, LineItem{
			Item:        "Labor",
			Cost:        laborCost,
			Description: fmt.Sprintf("%.1f hours @ $%.2f/hr", base.averageLaborHours, base.laborHourly),
		})
	}

	if partsCovered {
		covered = append(covered, CoveredItem{
			Item:         "Parts",
			OriginalCost: partsCost,
			CoveredBy:    "parts warranty",
		})
	} else {
		potential = append(potential, LineItem{
			Item:        "Parts (estimated)",
			Cost:        partsCost,
			Description: "Actual parts cost may vary",
		})
	}

	potential = append(potential, LineItem{
		Item:        "Service Call",
		Cost:        serviceCallCost,
		Description: "Standard service call fee",
	})

	var totalCovered, totalPotential float64
	for _, c := range covered {
		totalCovered += c.OriginalCost
	}
	for _, p := range potential {
		totalPotential += p.Cost
	}
	totalCovered = roundCents(totalCovered)
	totalPotential = roundCents(totalPotential)

	return &ChargeEstimate{
		ProductID:        in.ProductID,
		ProductType:      in.ProductType,
		RegionalModifier: modifier,
		CoveredItems:     covered,
		PotentialCharges: potential,
		Summary: ChargeSummary{
			TotalCoveredValue:     totalCovered,
			TotalPotentialCharges: totalPotential,
			WarrantySavings:       totalCovered,
		},
		Assumptions: []string{
			"Labor hours are estimated at average repair time",
			"Parts costs are estimated - actual may vary based on diagnosis",
			"Service call fee is non-refundable",
			fmt.Sprintf("Regional pricing modifier applied: %gx", modifier),
		},
	}, nil
}

// WarrantyWindow describes one coverage period relative to a reference date.
type WarrantyWindow struct {
	CoverageType           string `json:"coverage_type"`
	ProductType            string `json:"product_type"`
	PurchaseDate           string `json:"purchase_date"`
	CoverageDurationMonths int    `json:"coverage_duration_months"`
	ExpirationDate         string `json:"expiration_date"`
	IsActive               bool   `json:"is_active"`
	DaysRemaining          int    `json:"days_remaining"`
	ReferenceDate          string `json:"reference_date"`
}

// CalculateWarrantyWindow computes a coverage period from the purchase
// date. Expiration is calendar months after purchase; the window is
// active while days remaining is positive.
func CalculateWarrantyWindow(purchaseDate, coverageType, productType string, referenceDate time.Time) (*WarrantyWindow, error) {
	purchase, err := time.Parse("2006-01-02", purchaseDate)
	if err != nil {
		return nil, fmt.Errorf("%w: purchase date %q", ErrInvalidDate, purchaseDate)
	}

	durations, ok := coverageDurations[productType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProductType, productType)
	}
	months, ok := durations[coverageType]
	if !ok {
		return nil, fmt.Errorf("%w: %q for product type %s", ErrUnknownCoverage, coverageType, productType)
	}

	expiration := purchase.AddDate(0, months, 0)
	daysRemaining := int(expiration.Sub(referenceDate).Hours() / 24)
	active := daysRemaining > 0
	if daysRemaining < 0 {
		daysRemaining = 0
	}

	return &WarrantyWindow{
		CoverageType:           coverageType,
		ProductType:            productType,
		PurchaseDate:           purchaseDate,
		CoverageDurationMonths: months,
		ExpirationDate:         expiration.Format("2006-01-02"),
		IsActive:               active,
		DaysRemaining:          daysRemaining,
		ReferenceDate:          referenceDate.Format("2006-01-02"),
	}, nil
}

// Proration splits a cost between warranty coverage and the customer.
type Proration struct {
	OriginalAmount         float64 `json:"original_amount"`
	WarrantyDurationMonths int     `json:"warranty_duration_months"`
	MonthsElapsed          int     `json:"months_elapsed"`
	ProrationPercent       float64 `json:"proration_percent"`
	ProratedCoverage       float64 `json:"prorated_coverage"`
	CustomerResponsibility float64 `json:"customer_responsibility"`
}

// CalculateProratedAmount splits an item cost by remaining warranty life.
// Coverage decays linearly and hits zero once the warranty lapses.
func CalculateProratedAmount(originalAmount float64, warrantyDurationMonths, monthsElapsed int) (*Proration, error) {
	if monthsElapsed < 0 {
		return nil, fmt.Errorf("%w: months elapsed cannot be negative", ErrInvalidProration)
	}
	if warrantyDurationMonths <= 0 {
		return nil, fmt.Errorf("%w: warranty duration must be positive", ErrInvalidProration)
	}

	var prorationPercent float64
	if monthsElapsed < warrantyDurationMonths {
		remaining := float64(warrantyDurationMonths-monthsElapsed) / float64(warrantyDurationMonths)
		prorationPercent = remaining * 100
	}

	proratedCoverage := roundCents(originalAmount * (prorationPercent / 100))

	return &Proration{
		OriginalAmount:         originalAmount,
		WarrantyDurationMonths: warrantyDurationMonths,
		MonthsElapsed:          monthsElapsed,
		ProrationPercent:       math.Round(prorationPercent*10) / 10,
		ProratedCoverage:       proratedCoverage,
		CustomerResponsibility: roundCents(originalAmount - proratedCoverage),
	}, nil
}
