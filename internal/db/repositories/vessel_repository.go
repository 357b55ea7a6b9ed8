package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"seaborne/voyagedesk/internal/constants"
	"seaborne/voyagedesk/internal/domain/bunker"
	models "seaborne/voyagedesk/internal/models/gorm"
)

// VesselRepo is the vessel store.
type VesselRepo struct {
	db *gorm.DB
}

func NewVesselRepo(db *gorm.DB) *VesselRepo {
	return &VesselRepo{db: db}
}

func (r *VesselRepo) WithTx(tx *gorm.DB) *VesselRepo {
	return &VesselRepo{db: tx}
}

// Upsert creates a vessel or refreshes its name by IMO number.
func (r *VesselRepo) Upsert(ctx context.Context, vessel *models.Vessel) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "imo"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
		}).
		Create(vessel).Error
	if err != nil {
		return fmt.Errorf("failed to upsert vessel: %w", err)
	}
	return nil
}

func (r *VesselRepo) GetVessel(ctx context.Context, id string) (*models.Vessel, error) {
	var vessel models.Vessel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&vessel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", constants.ErrVesselNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch vessel: %w", err)
	}
	return &vessel, nil
}

func (r *VesselRepo) ListActive(ctx context.Context) ([]models.Vessel, error) {
	var vessels []models.Vessel
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name ASC").Find(&vessels).Error; err != nil {
		return nil, fmt.Errorf("failed to list vessels: %w", err)
	}
	return vessels, nil
}

// GetVesselInitialRob returns the ROB the vessel was commissioned with.
// ok is false until the first departure has been approved.
func (r *VesselRepo) GetVesselInitialRob(ctx context.Context, vesselID string) (rob bunker.Snapshot, ok bool, err error) {
	vessel, err := r.GetVessel(ctx, vesselID)
	if err != nil {
		return bunker.Snapshot{}, false, err
	}
	return vessel.InitialROB, vessel.InitialROBSet, nil
}

// SetInitialROB records the initial ROB once. A vessel that already has
// one is left unchanged and ErrStructural is returned.
func (r *VesselRepo) SetInitialROB(ctx context.Context, vesselID string, rob bunker.Snapshot) error {
	res := r.db.WithContext(ctx).
		Model(&models.Vessel{}).
		Where("id = ? AND initial_rob_set = ?", vesselID, false).
		Updates(map[string]any{
			"initial_rob_lsifo":   rob.LSIFO,
			"initial_rob_lsmgo":   rob.LSMGO,
			"initial_rob_cyl_oil": rob.CylOil,
			"initial_rob_me_oil":  rob.MEOil,
			"initial_rob_ae_oil":  rob.AEOil,
			"initial_rob_set":     true,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to set initial ROB: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: initial ROB of vessel %s is already set", constants.ErrStructural, vesselID)
	}
	return nil
}

func (r *VesselRepo) SetLastDestinationPort(ctx context.Context, vesselID, port string) error {
	err := r.db.WithContext(ctx).
		Model(&models.Vessel{}).
		Where("id = ?", vesselID).
		Update("last_destination_port", port).Error
	if err != nil {
		return fmt.Errorf("failed to update destination port: %w", err)
	}
	return nil
}
