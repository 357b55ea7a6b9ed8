package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"seaborne/voyagedesk/internal/constants"
	"seaborne/voyagedesk/internal/domain/report"
	models "seaborne/voyagedesk/internal/models/gorm"
)

type VoyageRepo struct {
	db *gorm.DB
}

func NewVoyageRepo(db *gorm.DB) *VoyageRepo {
	return &VoyageRepo{db: db}
}

func (r *VoyageRepo) WithTx(tx *gorm.DB) *VoyageRepo {
	return &VoyageRepo{db: tx}
}

func (r *VoyageRepo) Create(ctx context.Context, voyage *models.Voyage) error {
	if err := r.db.WithContext(ctx).Create(voyage).Error; err != nil {
		return fmt.Errorf("failed to create voyage: %w", err)
	}
	return nil
}

func (r *VoyageRepo) GetVoyage(ctx context.Context, id string) (*models.Voyage, error) {
	var voyage models.Voyage
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&voyage).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", constants.ErrVoyageNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch voyage: %w", err)
	}
	return &voyage, nil
}

// GetActiveVoyage returns the most recently departed voyage of a vessel, or
// nil if the vessel has never departed.
func (r *VoyageRepo) GetActiveVoyage(ctx context.Context, vesselID string) (*models.Voyage, error) {
	var voyage models.Voyage
	err := r.db.WithContext(ctx).
		Where("vessel_id = ?", vesselID).
		Order("departed_at DESC").
		First(&voyage).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch active voyage: %w", err)
	}
	return &voyage, nil
}

// SyncFromDeparture copies the voyage plan of an edited departure report
// onto its voyage.
func (r *VoyageRepo) SyncFromDeparture(ctx context.Context, voyageID string, d *report.Departure) error {
	err := r.db.WithContext(ctx).
		Model(&models.Voyage{}).
		Where("id = ?", voyageID).
		Updates(map[string]any{
			"departure_port":   d.DeparturePort,
			"destination_port": d.DestinationPort,
			"total_distance":   d.VoyageDistance,
			"cargo_type":       d.CargoType,
			"cargo_quantity":   d.CargoQuantity,
			"cargo_status":     d.CargoStatus,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to sync voyage plan: %w", err)
	}
	return nil
}
