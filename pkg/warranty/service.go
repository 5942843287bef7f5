package warranty

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/marquev/warranty-agent/agent/casefile"
)

const termsDocument = `
WARRANTY TERMS AND CONDITIONS

1. PARTS WARRANTY
   - Coverage: Defects in materials and workmanship
   - Duration: Varies by product (12-36 months from purchase)
   - Exclusions: Damage from misuse, neglect, or unauthorized modifications

2. LABOR WARRANTY
   - Coverage: Installation and repair labor costs
   - Duration: 12 months from purchase
   - Requirements: Service must be performed by authorized technicians

3. CONTROLLER WARRANTY (SALT Products)
   - Coverage: Electronic controller and sensors
   - Duration: 60 months from purchase
   - Includes: Software updates and calibration

4. TANK WARRANTY (HEAT Products)
   - Coverage: Tank integrity and heating elements
   - Duration: 120 months (10 years) from purchase
   - Pro-rated after first 5 years

5. GENERAL TERMS
   - Proof of purchase required for all warranty claims
   - Warranty is non-transferable
   - Service must be performed by authorized providers
`

// Record is the answer to a warranty lookup: the catalog row plus the
// per-coverage status computed against the clock.
type Record struct {
	ProductID      string                  `json:"product_id"`
	ProductType    string                  `json:"product_type"`
	ProductName    string                  `json:"product_name"`
	SerialNumber   string                  `json:"serial_number"`
	PurchaseDate   string                  `json:"purchase_date"`
	WarrantyStatus casefile.WarrantyStatus `json:"warranty_status"`
}

// Terms is the warranty terms and conditions document.
type Terms struct {
	Terms         string `json:"terms"`
	Version       string `json:"version"`
	EffectiveDate string `json:"effective_date"`
}

// Service answers warranty lookups against the product catalog.
// The clock is injectable so expiration math is testable.
type Service struct {
	repo ProductRepo
	now  func() time.Time
}

// NewService creates a warranty Service backed by the given repository.
func NewService(repo ProductRepo) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock overrides the service clock. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetWarrantyRecord resolves a product by ID or serial number and
// computes its coverage status. Expiration is calendar months from the
// purchase date. A coverage is active while the clock is strictly
// before its expiration date.
func (s *Service) GetWarrantyRecord(ctx context.Context, productID, serialNumber string) (*Record, error) {
	var (
		product *Product
		err     error
	)
	switch {
	case productID != "":
		product, err = s.repo.GetByProductID(ctx, productID)
	case serialNumber != "":
		product, err = s.repo.GetBySerialNumber(ctx, serialNumber)
	default:
		return nil, ErrMissingIdentifier
	}
	if err != nil {
		return nil, err
	}

	purchase, err := time.Parse("2006-01-02", product.PurchaseDate)
	if err != nil {
		return nil, fmt.Errorf("parsing purchase date %q: %w", product.PurchaseDate, err)
	}

	now := s.now()
	allCoverage := make(map[string]casefile.CoverageStatus, len(product.Coverage))
	var activeCoverages []string

	for covType, months := range product.Coverage {
		expiration := purchase.AddDate(0, months, 0)
		active := now.Before(expiration)
		daysRemaining := int(expiration.Sub(now).Hours() / 24)
		if daysRemaining < 0 {
			daysRemaining = 0
		}

		allCoverage[covType] = casefile.CoverageStatus{
			Active:         active,
			DurationMonths: months,
			ExpirationDate: expiration.Format("2006-01-02"),
			DaysRemaining:  daysRemaining,
		}
		if active {
			activeCoverages = append(activeCoverages, covType)
		}
	}
	sort.Strings(activeCoverages)

	return &Record{
		ProductID:    product.ProductID,
		ProductType:  product.ProductType,
		ProductName:  product.ProductName,
		SerialNumber: product.SerialNumber,
		PurchaseDate: product.PurchaseDate,
		WarrantyStatus: casefile.WarrantyStatus{
			Active:        len(activeCoverages) > 0,
			CoverageTypes: activeCoverages,
			AllCoverage:   allCoverage,
		},
	}, nil
}

// GetWarrantyTerms returns the warranty terms and conditions document.
func (s *Service) GetWarrantyTerms(ctx context.Context) (*Terms, error) {
	return &Terms{
		Terms:         termsDocument,
		Version:       "2024.1",
		EffectiveDate: "2024-01-01",
	}, nil
}
