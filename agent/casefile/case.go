// Package casefile holds the mutable record of everything known about one
// customer warranty interaction, plus the process-wide store that keeps
// cases across turns.
package casefile

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ProductType string

const (
	ProductSalt ProductType = "SALT"
	ProductHeat ProductType = "HEAT"
)

type CustomerDecision string

const (
	DecisionPending CustomerDecision = "PENDING"
	DecisionProceed CustomerDecision = "PROCEED"
	DecisionDecline CustomerDecision = "DECLINE"
)

// Location is considered complete when a zip is known, or both city and
// state are.
type Location struct {
	Zip   string   `json:"zip,omitempty"`
	City  string   `json:"city,omitempty"`
	State string   `json:"state,omitempty"`
	Lat   *float64 `json:"lat,omitempty"`
	Lon   *float64 `json:"lon,omitempty"`
}

func (l Location) IsComplete() bool {
	return l.Zip != "" || (l.City != "" && l.State != "")
}

func (l Location) Map() map[string]any {
	m := map[string]any{
		"zip":   l.Zip,
		"city":  l.City,
		"state": l.State,
	}
	if l.Lat != nil {
		m["lat"] = *l.Lat
	}
	if l.Lon != nil {
		m["lon"] = *l.Lon
	}
	return m
}

// LocationFromMap rebuilds a Location from the tool-args shape.
func LocationFromMap(m map[string]any) Location {
	var l Location
	if m == nil {
		return l
	}
	if v, ok := m["zip"].(string); ok {
		l.Zip = v
	}
	if v, ok := m["city"].(string); ok {
		l.City = v
	}
	if v, ok := m["state"].(string); ok {
		l.State = v
	}
	if v, ok := m["lat"].(float64); ok {
		l.Lat = &v
	}
	if v, ok := m["lon"].(float64); ok {
		l.Lon = &v
	}
	return l
}

// CoverageStatus describes one coverage type of a warranty record.
type CoverageStatus struct {
	Active         bool   `json:"active"`
	DurationMonths int    `json:"duration_months"`
	ExpirationDate string `json:"expiration_date"`
	DaysRemaining  int    `json:"days_remaining"`
}

// WarrantyStatus is populated only by a successful warranty lookup; a nil
// pointer on the case means the lookup has not happened yet.
type WarrantyStatus struct {
	Active         bool                      `json:"active"`
	CoverageTypes  []string                  `json:"coverage_types"`
	ExpirationDate string                    `json:"expiration_date,omitempty"`
	AllCoverage    map[string]CoverageStatus `json:"all_coverage"`
}

func (w *WarrantyStatus) Map() map[string]any {
	if w == nil {
		return map[string]any{}
	}
	coverage := make(map[string]any, len(w.AllCoverage))
	for name, st := range w.AllCoverage {
		coverage[name] = map[string]any{
			"active":          st.Active,
			"duration_months": st.DurationMonths,
			"expiration_date": st.ExpirationDate,
			"days_remaining":  st.DaysRemaining,
		}
	}
	types := make([]any, 0, len(w.CoverageTypes))
	for _, t := range w.CoverageTypes {
		types = append(types, t)
	}
	return map[string]any{
		"active":         w.Active,
		"coverage_types": types,
		"all_coverage":   coverage,
	}
}

// CaseContext is the single mutable record for one customer interaction.
// It is owned by the orchestrator for its lifetime; collaborator results
// are folded in by the plan executor between turns.
type CaseContext struct {
	CaseID    string `json:"case_id"`
	SessionID string `json:"session_id,omitempty"`

	LoggedIn              bool   `json:"logged_in"`
	HasRegisteredProducts bool   `json:"has_registered_products"`
	CustomerID            string `json:"customer_id,omitempty"`
	CustomerName          string `json:"customer_name,omitempty"`
	CustomerEmail         string `json:"customer_email,omitempty"`

	ProductID    string      `json:"product_id,omitempty"`
	SerialNumber string      `json:"serial_number,omitempty"`
	ProductType  ProductType `json:"product_type,omitempty"`
	ProductName  string      `json:"product_name,omitempty"`
	PurchaseDate string      `json:"purchase_date,omitempty"`

	Location Location        `json:"location"`
	Warranty *WarrantyStatus `json:"warranty_status,omitempty"`

	CustomerDecision     CustomerDecision `json:"customer_decision"`
	PotentialCharges     *float64         `json:"potential_charges,omitempty"`
	TerritoryChecked     *bool            `json:"territory_checked,omitempty"`
	TerritoryServiceable bool             `json:"territory_serviceable,omitempty"`

	IssueDescription string   `json:"issue_description,omitempty"`
	UserMessages     []string `json:"user_messages,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Channel string `json:"channel"`
}

// NewCaseID yields identifiers like CASE-20260831-4F2A91BC.
func NewCaseID(now time.Time) string {
	u := uuid.New()
	return fmt.Sprintf("CASE-%s-%s", now.Format("20060102"), strings.ToUpper(hex.EncodeToString(u[:4])))
}

func New(now time.Time) *CaseContext {
	return &CaseContext{
		CaseID:           NewCaseID(now),
		CustomerDecision: DecisionPending,
		Channel:          "chat",
		CreatedAt:        now.UTC(),
		UpdatedAt:        now.UTC(),
	}
}

func (c *CaseContext) Touch(now time.Time) {
	c.UpdatedAt = now.UTC()
}

func (c *CaseContext) AddUserMessage(message string, now time.Time) {
	c.UserMessages = append(c.UserMessages, message)
	c.Touch(now)
}

// ProductIdentifier returns the product id, falling back to the serial
// number. Empty when neither is known.
func (c *CaseContext) ProductIdentifier() string {
	if c.ProductID != "" {
		return c.ProductID
	}
	return c.SerialNumber
}

func (c *CaseContext) HasRequiredInfo() bool {
	return c.ProductIdentifier() != "" && c.Location.IsComplete()
}

// MissingFields lists the required fields still absent, in the fixed order
// the user is asked about them.
func (c *CaseContext) MissingFields() []string {
	var missing []string
	if c.ProductIdentifier() == "" {
		missing = append(missing, "product_id")
	}
	if !c.Location.IsComplete() {
		missing = append(missing, "location (zip code or city/state)")
	}
	return missing
}

// WarrantyDetermined reports whether a warranty lookup has completed.
func (c *CaseContext) WarrantyDetermined() bool {
	return c.ProductType != "" && c.Warranty != nil
}

// SetDecision records an explicit customer decision. A settled decision is
// never reverted to PENDING within the same case.
func (c *CaseContext) SetDecision(d CustomerDecision, now time.Time) {
	if d == DecisionPending && c.CustomerDecision != DecisionPending {
		return
	}
	c.CustomerDecision = d
	c.Touch(now)
}

// ToolContext serializes the case to the shape collaborator tools accept
// as a context argument.
func (c *CaseContext) ToolContext() map[string]any {
	m := map[string]any{
		"case_id":                 c.CaseID,
		"logged_in":               c.LoggedIn,
		"has_registered_products": c.HasRegisteredProducts,
		"customer_id":             c.CustomerID,
		"product_id":              c.ProductID,
		"serial_number":           c.SerialNumber,
		"product_type":            string(c.ProductType),
		"location":                c.Location.Map(),
		"warranty_status":         c.Warranty.Map(),
		"customer_decision":       string(c.CustomerDecision),
		"issue_description":       c.IssueDescription,
	}
	if c.PotentialCharges != nil {
		m["potential_charges"] = *c.PotentialCharges
	}
	if c.TerritoryChecked != nil {
		m["territory_checked"] = *c.TerritoryChecked
		m["territory_serviceable"] = c.TerritoryServiceable
	}
	return m
}
