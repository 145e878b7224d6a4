package cart

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/restaurant-storefront/internal/catalog"
	"github.com/angelmondragon/restaurant-storefront/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrItemNotFound is returned when a line id is not in the cart.
var ErrItemNotFound = errors.New("cart item not found")

// Item is one cart line. TotalPrice always equals unit price times Quantity.
type Item struct {
	ID         string            `json:"id"`
	CatalogID  uuid.UUID         `json:"catalog_id"`
	Type       enums.ItemType    `json:"type"`
	TitleAR    string            `json:"title_ar"`
	TitleEN    string            `json:"title_en"`
	ImageURL   *string           `json:"image_url,omitempty"`
	Quantity   int               `json:"quantity"`
	TotalPrice decimal.Decimal   `json:"total_price"`
	Size       string            `json:"size,omitempty"`
	SizeData   *catalog.SizeData `json:"size_data,omitempty"`
	Variants   []string          `json:"variants,omitempty"`
	OfferID    *uuid.UUID        `json:"offer_id,omitempty"`
	Notes      string            `json:"notes,omitempty"`
	BranchID   uuid.UUID         `json:"branch_id"`
}

// UnitPrice derives the per-unit price from the line total.
func (i Item) UnitPrice() decimal.Decimal {
	if i.Quantity <= 0 {
		return decimal.Zero
	}
	return i.TotalPrice.Div(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the persisted set of lines bound to a single branch.
type Cart struct {
	Items    []Item     `json:"items"`
	BranchID *uuid.UUID `json:"branch_id,omitempty"`
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// IdentityKey is the merge identity of a line: products merge on
// (type, id, size, sorted variants), offers on (type, id).
func IdentityKey(item Item) string {
	if item.Type == enums.ItemTypeOffer {
		return fmt.Sprintf("%s|%s", item.Type, item.CatalogID)
	}
	variants := make([]string, 0, len(item.Variants))
	for _, v := range item.Variants {
		variants = append(variants, strings.ToLower(strings.TrimSpace(v)))
	}
	sort.Strings(variants)
	return fmt.Sprintf("%s|%s|%s|%s", item.Type, item.CatalogID, strings.ToLower(strings.TrimSpace(item.Size)), strings.Join(variants, ","))
}

// LineID builds the unique id of a freshly added line.
func LineID(catalogID uuid.UUID, now time.Time) string {
	return fmt.Sprintf("%s-%d", catalogID, now.UnixMilli())
}

// freeLineID bumps the millisecond stamp until the id is not taken by another line.
func freeLineID(c Cart, catalogID uuid.UUID, now time.Time) string {
	taken := make(map[string]bool, len(c.Items))
	for _, line := range c.Items {
		taken[line.ID] = true
	}
	id := LineID(catalogID, now)
	for taken[id] {
		now = now.Add(time.Millisecond)
		id = LineID(catalogID, now)
	}
	return id
}

// Add merges item into an existing line with the same identity or appends it.
// An empty cart is rebound to the branch of the added item.
func Add(c Cart, item Item, now time.Time) Cart {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	out := clone(c)
	key := IdentityKey(item)
	for i := range out.Items {
		if IdentityKey(out.Items[i]) == key {
			out.Items[i].Quantity += item.Quantity
			out.Items[i].TotalPrice = out.Items[i].TotalPrice.Add(item.TotalPrice)
			return out
		}
	}
	item.ID = freeLineID(out, item.CatalogID, now)
	wasEmpty := out.IsEmpty()
	out.Items = append(out.Items, item)
	if (wasEmpty || out.BranchID == nil) && item.BranchID != uuid.Nil {
		branch := item.BranchID
		out.BranchID = &branch
	}
	return out
}

// UpdateQuantity rescales the line total to qty. A qty of zero or less removes the line.
func UpdateQuantity(c Cart, id string, qty int) (Cart, error) {
	if qty <= 0 {
		return Remove(c, id)
	}
	out := clone(c)
	for i := range out.Items {
		if out.Items[i].ID != id {
			continue
		}
		line := &out.Items[i]
		if line.Quantity > 0 {
			line.TotalPrice = line.TotalPrice.Mul(decimal.NewFromInt(int64(qty))).Div(decimal.NewFromInt(int64(line.Quantity)))
		}
		line.Quantity = qty
		return out, nil
	}
	return c, ErrItemNotFound
}

// Remove drops the line with id.
func Remove(c Cart, id string) (Cart, error) {
	out := Cart{BranchID: c.BranchID, Items: make([]Item, 0, len(c.Items))}
	found := false
	for _, line := range c.Items {
		if line.ID == id {
			found = true
			continue
		}
		out.Items = append(out.Items, line)
	}
	if !found {
		return c, ErrItemNotFound
	}
	return out, nil
}

// Clear empties the cart and keeps its branch.
func Clear(c Cart) Cart {
	return Cart{Items: []Item{}, BranchID: c.BranchID}
}

func TotalPrice(c Cart) decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Items {
		total = total.Add(line.TotalPrice)
	}
	return total
}

func TotalItems(c Cart) int {
	count := 0
	for _, line := range c.Items {
		count += line.Quantity
	}
	return count
}

// BranchOutcome is the result of a branch selection attempt.
type BranchOutcome string

const (
	BranchUnchanged            BranchOutcome = "unchanged"
	BranchSwitched             BranchOutcome = "switched"
	BranchConfirmationRequired BranchOutcome = "confirmation_required"
)

// SelectBranch binds the cart to candidate. A non-empty cart of another branch is
// only switched (and emptied) when confirm is set; otherwise it is returned untouched.
func SelectBranch(c Cart, candidate uuid.UUID, confirm bool) (Cart, BranchOutcome) {
	if c.BranchID != nil && *c.BranchID == candidate {
		return c, BranchUnchanged
	}
	if !c.IsEmpty() && !confirm {
		return c, BranchConfirmationRequired
	}
	out := Clear(c)
	branch := candidate
	out.BranchID = &branch
	return out, BranchSwitched
}

func clone(c Cart) Cart {
	out := Cart{BranchID: c.BranchID, Items: make([]Item, len(c.Items))}
	copy(out.Items, c.Items)
	return out
}
