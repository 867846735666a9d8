package cart

import (
	"time"

	"github.com/selliohq/cart-backend/pkg/db/models"
	"github.com/selliohq/cart-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// CartDTO is the canonical API representation of a cart. Money fields are
// rendered as fixed two-decimal strings so clients never see float noise.
type CartDTO struct {
	ID          int64            `json:"id"`
	CompanyID   int64            `json:"company_id"`
	UserID      *int64           `json:"user_id"`
	Cookie      *string          `json:"cookie"`
	Status      enums.CartStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	Items       []CartItemDTO    `json:"items"`
	TotalAmount string           `json:"total_amount"`
}

// CartItemDTO is a single product line in the API representation.
type CartItemDTO struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
}

// ComputeTotal sums price*quantity across items with exact decimal math.
func ComputeTotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// NewCartDTO maps a cart row and its loaded items into the API shape.
func NewCartDTO(cart *models.Cart) CartDTO {
	items := make([]CartItemDTO, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, CartItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price.StringFixed(2),
			Quantity:  item.Quantity,
		})
	}

	return CartDTO{
		ID:          cart.ID,
		CompanyID:   cart.CompanyID,
		UserID:      cart.UserID,
		Cookie:      cart.Cookie,
		Status:      cart.Status,
		CreatedAt:   cart.CreatedAt,
		Items:       items,
		TotalAmount: ComputeTotal(cart.Items).StringFixed(2),
	}
}

// NewCartDTOs maps a slice of cart rows, skipping empty carts so they stay
// invisible to list endpoints.
func NewCartDTOs(carts []models.Cart) []CartDTO {
	out := make([]CartDTO, 0, len(carts))
	for i := range carts {
		if carts[i].IsEmpty() {
			continue
		}
		out = append(out, NewCartDTO(&carts[i]))
	}
	return out
}
