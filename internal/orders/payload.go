package orders

import (
	"regexp"

	"github.com/angelmondragon/restaurant-storefront/internal/cart"
	"github.com/angelmondragon/restaurant-storefront/internal/catalog"
	"github.com/angelmondragon/restaurant-storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// DeliveryTypeDelivery is the only fulfilment the storefront submits.
const DeliveryTypeDelivery = "delivery"

var catalogIDPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// ExtractCatalogID returns the leading UUID of a cart line id. When the id has no
// UUID prefix it is returned verbatim and ok is false.
func ExtractCatalogID(lineID string) (id string, ok bool) {
	if match := catalogIDPattern.FindString(lineID); match != "" {
		return match, true
	}
	return lineID, false
}

// Item is one order line as the backend expects it.
type Item struct {
	ItemType     enums.ItemType    `json:"item_type"`
	ProductID    *string           `json:"product_id,omitempty"`
	OfferID      *string           `json:"offer_id,omitempty"`
	TitleAR      string            `json:"title_ar"`
	TitleEN      string            `json:"title_en"`
	Quantity     int               `json:"quantity"`
	PricePerUnit float64           `json:"price_per_unit"`
	TotalPrice   float64           `json:"total_price"`
	Size         string            `json:"size,omitempty"`
	SizeData     *catalog.SizeData `json:"size_data,omitempty"`
	Variants     []string          `json:"variants,omitempty"`
	Notes        string            `json:"notes,omitempty"`
}

// Payload is the body of POST /orders.
type Payload struct {
	AddressID     string  `json:"address_id"`
	DeliveryType  string  `json:"delivery_type"`
	Items         []Item  `json:"items"`
	Subtotal      float64 `json:"subtotal"`
	DeliveryFee   float64 `json:"delivery_fee"`
	Total         float64 `json:"total"`
	Notes         string  `json:"notes,omitempty"`
	PaymentMethod string  `json:"payment_method"`
}

// BuildInput is everything needed to turn a cart into an order.
type BuildInput struct {
	AddressID     string
	Cart          cart.Cart
	DeliveryFee   decimal.Decimal
	Notes         string
	PaymentMethod enums.PaymentMethod
}

// Draft is a built payload plus the exact totals it was derived from.
type Draft struct {
	Payload     Payload
	Subtotal    decimal.Decimal
	Total       decimal.Decimal
	FallbackIDs []string
}

// BuildPayload snapshots cart lines into order items. price_per_unit is derived
// from the line total at this moment; subtotal sums line totals and total adds the fee.
func BuildPayload(in BuildInput) Draft {
	draft := Draft{Subtotal: decimal.Zero}
	items := make([]Item, 0, len(in.Cart.Items))
	for _, line := range in.Cart.Items {
		id, ok := ExtractCatalogID(line.ID)
		if !ok {
			draft.FallbackIDs = append(draft.FallbackIDs, line.ID)
		}
		item := Item{
			ItemType:     line.Type,
			TitleAR:      line.TitleAR,
			TitleEN:      line.TitleEN,
			Quantity:     line.Quantity,
			PricePerUnit: money(line.UnitPrice()),
			TotalPrice:   money(line.TotalPrice),
			Size:         line.Size,
			SizeData:     line.SizeData,
			Variants:     line.Variants,
			Notes:        line.Notes,
		}
		if line.Type == enums.ItemTypeOffer {
			item.OfferID = &id
		} else {
			item.ProductID = &id
		}
		items = append(items, item)
		draft.Subtotal = draft.Subtotal.Add(line.TotalPrice)
	}
	draft.Total = draft.Subtotal.Add(in.DeliveryFee)
	draft.Payload = Payload{
		AddressID:     in.AddressID,
		DeliveryType:  DeliveryTypeDelivery,
		Items:         items,
		Subtotal:      money(draft.Subtotal),
		DeliveryFee:   money(in.DeliveryFee),
		Total:         money(draft.Total),
		Notes:         in.Notes,
		PaymentMethod: string(in.PaymentMethod),
	}
	return draft
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
