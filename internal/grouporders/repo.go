package grouporders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbpkg "github.com/streetcart/groupbuy-backend/pkg/db"
	"github.com/streetcart/groupbuy-backend/pkg/db/models"
	"github.com/streetcart/groupbuy-backend/pkg/enums"
	pkgerrors "github.com/streetcart/groupbuy-backend/pkg/errors"
)

const (
	participantUniqueConstraint = "ux_participants_order_vendor"
	reviewUniqueConstraint      = "ux_reviews_order_vendor"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a group order repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, input CreateOrderInput, supplierID uuid.UUID, supplierName string) (*models.GroupOrder, error) {
	now := time.Now().UTC()
	order := &models.GroupOrder{
		ID:                  uuid.New(),
		SupplierID:          supplierID,
		SupplierName:        supplierName,
		Item:                input.Item,
		Description:         input.Description,
		Unit:                input.Unit,
		BulkPrice:           input.BulkPrice,
		OriginalPrice:       input.OriginalPrice,
		MinQuantity:         input.MinQuantity,
		MaxQuantity:         input.MaxQuantity,
		Deadline:            input.Deadline.UTC(),
		LocationName:        input.LocationName,
		Location:            input.Location,
		DeliveryChargePerKm: input.DeliveryChargePerKm,
		ContactPhone:        input.ContactPhone,
		Status:              enums.OrderStatusOpen,
		TotalQuantity:       0,
		Version:             1,
		Participants:        []models.Participant{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error; err != nil {
		return nil, pkgerrors.WrapStore(err, "create group order")
	}
	return order, nil
}

func (r *repository) GetOrder(ctx context.Context, id uuid.UUID) (*models.GroupOrder, error) {
	return r.loadOrder(ctx, id, false)
}

// LockOrder loads the order while holding its row lock for the rest of the
// surrounding transaction. Dialects without row locks fall back to a plain read.
func (r *repository) LockOrder(ctx context.Context, id uuid.UUID) (*models.GroupOrder, error) {
	return r.loadOrder(ctx, id, true)
}

func (r *repository) loadOrder(ctx context.Context, id uuid.UUID, lock bool) (*models.GroupOrder, error) {
	query := r.db.WithContext(ctx)
	if lock && dbpkg.SupportsRowLocks(r.db) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var order models.GroupOrder
	if err := query.Where("id = ?", id).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "group order not found")
		}
		return nil, pkgerrors.WrapStore(err, "load group order")
	}
	participants, err := r.ListParticipants(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Participants = participants
	return &order, nil
}

func (r *repository) ListOrders(ctx context.Context) ([]models.GroupOrder, error) {
	return r.listOrders(ctx, r.db.WithContext(ctx))
}

func (r *repository) ListOrdersBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.GroupOrder, error) {
	return r.listOrders(ctx, r.db.WithContext(ctx).Where("supplier_id = ?", supplierID))
}

func (r *repository) ListOrdersByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.GroupOrder, error) {
	sub := r.db.Model(&models.Participant{}).Select("order_id").Where("vendor_id = ?", vendorID)
	return r.listOrders(ctx, r.db.WithContext(ctx).Where("id IN (?)", sub))
}

func (r *repository) ListOrdersByStatus(ctx context.Context, statuses ...enums.OrderStatus) ([]models.GroupOrder, error) {
	if len(statuses) == 0 {
		return []models.GroupOrder{}, nil
	}
	return r.listOrders(ctx, r.db.WithContext(ctx).Where("status IN ?", statuses))
}

func (r *repository) listOrders(ctx context.Context, query *gorm.DB) ([]models.GroupOrder, error) {
	var orders []models.GroupOrder
	err := query.
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC").Order("id ASC")
		}).
		Order("created_at DESC").
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, pkgerrors.WrapStore(err, "list group orders")
	}
	for i := range orders {
		if orders[i].Participants == nil {
			orders[i].Participants = []models.Participant{}
		}
	}
	return orders, nil
}

func (r *repository) UpdateOrder(ctx context.Context, id uuid.UUID, patch OrderPatch) error {
	updates := patch.updates()
	if len(updates) == 0 {
		return r.ensureOrderExists(ctx, id)
	}
	updates["updated_at"] = time.Now().UTC()
	updates["version"] = gorm.Expr("version + 1")
	res := r.db.WithContext(ctx).Model(&models.GroupOrder{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return pkgerrors.WrapStore(res.Error, "update group order")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "group order not found")
	}
	return nil
}

// SaveAggregate writes every mutable column of order, guarded by the version
// the caller read. A concurrent writer turns the update into a CodeConflict.
func (r *repository) SaveAggregate(ctx context.Context, order *models.GroupOrder, expectedVersion int64) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	now := time.Now().UTC()
	next := expectedVersion + 1
	res := r.db.WithContext(ctx).
		Model(&models.GroupOrder{}).
		Where("id = ? AND version = ?", order.ID, expectedVersion).
		Updates(map[string]any{
			"item":                   order.Item,
			"description":            order.Description,
			"unit":                   order.Unit,
			"bulk_price":             order.BulkPrice,
			"original_price":         order.OriginalPrice,
			"min_quantity":           order.MinQuantity,
			"max_quantity":           order.MaxQuantity,
			"deadline":               order.Deadline.UTC(),
			"location_name":          order.LocationName,
			"location_lat":           order.Location.Lat,
			"location_lng":           order.Location.Lng,
			"delivery_charge_per_km": order.DeliveryChargePerKm,
			"contact_phone":          order.ContactPhone,
			"status":                 order.Status,
			"total_quantity":         order.TotalQuantity,
			"version":                next,
			"updated_at":             now,
		})
	if res.Error != nil {
		return pkgerrors.WrapStore(res.Error, "save group order")
	}
	if res.RowsAffected == 0 {
		if err := r.ensureOrderExists(ctx, order.ID); err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeConflict, "group order was modified concurrently")
	}
	order.Version = next
	order.UpdatedAt = now
	return nil
}

func (r *repository) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", id).Delete(&models.Review{}).Error; err != nil {
		return pkgerrors.WrapStore(err, "delete order reviews")
	}
	if err := db.Where("order_id = ?", id).Delete(&models.Participant{}).Error; err != nil {
		return pkgerrors.WrapStore(err, "delete order participants")
	}
	res := db.Where("id = ?", id).Delete(&models.GroupOrder{})
	if res.Error != nil {
		return pkgerrors.WrapStore(res.Error, "delete group order")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "group order not found")
	}
	return nil
}

func (r *repository) AddParticipant(ctx context.Context, participant *models.Participant) (*models.Participant, error) {
	if participant == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "participant is required")
	}
	if participant.ID == uuid.Nil {
		participant.ID = uuid.New()
	}
	if participant.JoinedAt.IsZero() {
		participant.JoinedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(participant).Error; err != nil {
		if dbpkg.IsUniqueViolation(err, participantUniqueConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDuplicateParticipation, err, "vendor already participates in this order")
		}
		return nil, pkgerrors.WrapStore(err, "add participant")
	}
	return participant, nil
}

func (r *repository) UpdateParticipant(ctx context.Context, orderID, vendorID uuid.UUID, patch ParticipantPatch) (*models.Participant, error) {
	updates := patch.updates()
	if len(updates) > 0 {
		updates["updated_at"] = time.Now().UTC()
		res := r.db.WithContext(ctx).
			Model(&models.Participant{}).
			Where("order_id = ? AND vendor_id = ?", orderID, vendorID).
			Updates(updates)
		if res.Error != nil {
			return nil, pkgerrors.WrapStore(res.Error, "update participant")
		}
		if res.RowsAffected == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "participant not found")
		}
	}
	return r.findParticipant(ctx, orderID, vendorID)
}

func (r *repository) findParticipant(ctx context.Context, orderID, vendorID uuid.UUID) (*models.Participant, error) {
	var participant models.Participant
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND vendor_id = ?", orderID, vendorID).
		First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "participant not found")
		}
		return nil, pkgerrors.WrapStore(err, "load participant")
	}
	return &participant, nil
}

func (r *repository) RemoveParticipant(ctx context.Context, orderID, vendorID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("order_id = ? AND vendor_id = ?", orderID, vendorID).
		Delete(&models.Participant{})
	if res.Error != nil {
		return pkgerrors.WrapStore(res.Error, "remove participant")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "participant not found")
	}
	return nil
}

func (r *repository) RemoveAllParticipants(ctx context.Context, orderID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&models.Participant{})
	if res.Error != nil {
		return 0, pkgerrors.WrapStore(res.Error, "remove participants")
	}
	return res.RowsAffected, nil
}

func (r *repository) ListParticipants(ctx context.Context, orderID uuid.UUID) ([]models.Participant, error) {
	participants := []models.Participant{}
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("joined_at ASC").
		Order("id ASC").
		Find(&participants).Error
	if err != nil {
		return nil, pkgerrors.WrapStore(err, "list participants")
	}
	return participants, nil
}

// SumQuantities returns the participant count and committed quantity read
// straight from the participant rows.
func (r *repository) SumQuantities(ctx context.Context, orderID uuid.UUID) (int, int, error) {
	var row struct {
		Count int64
		Total int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Participant{}).
		Select("COUNT(*) AS count, COALESCE(SUM(quantity), 0) AS total").
		Where("order_id = ?", orderID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, pkgerrors.WrapStore(err, "sum participant quantities")
	}
	return int(row.Count), int(row.Total), nil
}

func (r *repository) CreateReview(ctx context.Context, review *models.Review) (*models.Review, error) {
	if review == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "review is required")
	}
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		if dbpkg.IsUniqueViolation(err, reviewUniqueConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "order already reviewed")
		}
		return nil, pkgerrors.WrapStore(err, "create review")
	}
	return review, nil
}

func (r *repository) ListReviewsBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Review, error) {
	reviews := []models.Review{}
	err := r.db.WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, pkgerrors.WrapStore(err, "list reviews")
	}
	return reviews, nil
}

func (r *repository) ensureOrderExists(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.GroupOrder{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return pkgerrors.WrapStore(err, "check group order")
	}
	if count == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "group order not found")
	}
	return nil
}
