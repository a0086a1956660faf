package grouporders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/streetcart/groupbuy-backend/pkg/db/models"
	"github.com/streetcart/groupbuy-backend/pkg/enums"
)

// Repository defines persistence operations for group orders, their
// participants and reviews.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateOrder(ctx context.Context, input CreateOrderInput, supplierID uuid.UUID, supplierName string) (*models.GroupOrder, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.GroupOrder, error)
	LockOrder(ctx context.Context, id uuid.UUID) (*models.GroupOrder, error)
	ListOrders(ctx context.Context) ([]models.GroupOrder, error)
	ListOrdersBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.GroupOrder, error)
	ListOrdersByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.GroupOrder, error)
	ListOrdersByStatus(ctx context.Context, statuses ...enums.OrderStatus) ([]models.GroupOrder, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, patch OrderPatch) error
	SaveAggregate(ctx context.Context, order *models.GroupOrder, expectedVersion int64) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error

	AddParticipant(ctx context.Context, participant *models.Participant) (*models.Participant, error)
	UpdateParticipant(ctx context.Context, orderID, vendorID uuid.UUID, patch ParticipantPatch) (*models.Participant, error)
	RemoveParticipant(ctx context.Context, orderID, vendorID uuid.UUID) error
	RemoveAllParticipants(ctx context.Context, orderID uuid.UUID) (int64, error)
	ListParticipants(ctx context.Context, orderID uuid.UUID) ([]models.Participant, error)
	SumQuantities(ctx context.Context, orderID uuid.UUID) (int, int, error)

	CreateReview(ctx context.Context, review *models.Review) (*models.Review, error)
	ListReviewsBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Review, error)
}
