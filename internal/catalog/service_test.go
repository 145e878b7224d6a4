package catalog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/restaurant-storefront/pkg/db/models"
	"github.com/angelmondragon/restaurant-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openCatalogDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Branch{}, &models.Category{}, &models.Product{},
		&models.ProductSize{}, &models.ProductType{}, &models.ComboOffer{},
	))
	return conn
}

func money(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

type catalogFixture struct {
	branch   models.Branch
	closed   models.Branch
	burger   models.Product
	cheese   models.ProductType
	bacon    models.ProductType
	offer    models.ComboOffer
	category models.Category
}

func seedCatalog(t *testing.T, conn *gorm.DB) catalogFixture {
	t.Helper()
	fx := catalogFixture{}

	fx.branch = models.Branch{NameAR: "مدينة نصر", NameEN: "Nasr City", IsActive: true}
	require.NoError(t, conn.Create(&fx.branch).Error)
	fx.closed = models.Branch{NameAR: "مغلق", NameEN: "Closed", IsActive: true}
	require.NoError(t, conn.Create(&fx.closed).Error)
	require.NoError(t, conn.Model(&fx.closed).Update("is_active", false).Error)

	fx.category = models.Category{NameAR: "برجر", NameEN: "Burgers", SortOrder: 1, IsActive: true}
	require.NoError(t, conn.Create(&fx.category).Error)

	fx.burger = models.Product{
		BranchID:    fx.branch.ID,
		CategoryID:  &fx.category.ID,
		NameAR:      "برجر لحم",
		NameEN:      "Beef Burger",
		BasePrice:   money("50"),
		IsAvailable: true,
		Sizes: []models.ProductSize{
			{Name: "regular", NameAR: "عادي", NameEN: "Regular", Price: money("50")},
			{Name: "large", NameAR: "كبير", NameEN: "Large", Price: money("70")},
		},
	}
	require.NoError(t, conn.Create(&fx.burger).Error)

	fx.cheese = models.ProductType{ProductID: fx.burger.ID, NameAR: "جبن", NameEN: "Cheese", Price: money("5")}
	fx.bacon = models.ProductType{ProductID: fx.burger.ID, NameAR: "لحم مقدد", NameEN: "Bacon", Price: money("12.5")}
	require.NoError(t, conn.Create(&fx.cheese).Error)
	require.NoError(t, conn.Create(&fx.bacon).Error)

	hidden := models.Product{BranchID: fx.branch.ID, NameAR: "مخفي", NameEN: "Hidden", BasePrice: money("10"), IsAvailable: true}
	require.NoError(t, conn.Create(&hidden).Error)
	require.NoError(t, conn.Model(&hidden).Update("is_available", false).Error)

	fx.offer = models.ComboOffer{BranchID: fx.branch.ID, TitleAR: "وجبة عائلية", TitleEN: "Family Meal", Price: money("199.99"), IsActive: true}
	require.NoError(t, conn.Create(&fx.offer).Error)

	ended := time.Now().UTC().Add(-time.Hour)
	expired := models.ComboOffer{BranchID: fx.branch.ID, TitleAR: "منتهي", TitleEN: "Expired", Price: money("10"), IsActive: true, EndsAt: &ended}
	require.NoError(t, conn.Create(&expired).Error)

	return fx
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc
}

func TestListingsFilterInactiveRows(t *testing.T) {
	conn := openCatalogDB(t)
	fx := seedCatalog(t, conn)
	svc := newTestService(t, conn)
	ctx := context.Background()

	branches, err := svc.ListBranches(ctx)
	require.NoError(t, err)
	require.Len(t, branches, 1)
	assert.Equal(t, fx.branch.ID, branches[0].ID)

	products, err := svc.ListProducts(ctx, ProductFilter{BranchID: fx.branch.ID, CategoryID: &fx.category.ID})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Len(t, products[0].Sizes, 2)
	assert.Len(t, products[0].Variants, 2)
	assert.Equal(t, "regular", products[0].Sizes[0].Name)

	offers, err := svc.ListOffers(ctx, fx.branch.ID)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, fx.offer.ID, offers[0].ID)

	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
}

func TestEnsureActiveBranch(t *testing.T) {
	conn := openCatalogDB(t)
	fx := seedCatalog(t, conn)
	svc := newTestService(t, conn)
	ctx := context.Background()

	require.NoError(t, svc.EnsureActiveBranch(ctx, fx.branch.ID))

	err := svc.EnsureActiveBranch(ctx, fx.closed.ID)
	require.Error(t, err)
	assert.Equal(t, string(i18n.MsgBranchUnavailable), pkgerrors.As(err).Key())

	err = svc.EnsureActiveBranch(ctx, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	err = svc.EnsureActiveBranch(ctx, uuid.Nil)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestQuoteProductSizeAndVariants(t *testing.T) {
	conn := openCatalogDB(t)
	fx := seedCatalog(t, conn)
	svc := newTestService(t, conn)

	quote, err := svc.Quote(context.Background(), QuoteRequest{
		Type:      enums.ItemTypeProduct,
		CatalogID: fx.burger.ID,
		Size:      "LARGE",
		Variants:  []string{fx.bacon.ID.String(), fx.cheese.ID.String(), fx.cheese.ID.String()},
	})
	require.NoError(t, err)
	assert.True(t, quote.UnitPrice.Equal(money("87.5")), "got %s", quote.UnitPrice)
	assert.Equal(t, "large", quote.Size)
	require.NotNil(t, quote.SizeData)
	assert.True(t, quote.SizeData.Price.Equal(money("70")))
	assert.Len(t, quote.Variants, 2)
	assert.Equal(t, fx.branch.ID, quote.BranchID)
}

func TestQuoteProductBasePrice(t *testing.T) {
	product := models.Product{ID: uuid.New(), BasePrice: money("42"), IsAvailable: true}
	quote, err := QuoteProduct(product, "", nil)
	require.NoError(t, err)
	assert.True(t, quote.UnitPrice.Equal(money("42")))
	assert.Nil(t, quote.SizeData)
}

func TestQuoteProductRejectsUnknownSelections(t *testing.T) {
	product := models.Product{ID: uuid.New(), BasePrice: money("42"), IsAvailable: true}

	_, err := QuoteProduct(product, "huge", nil)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = QuoteProduct(product, "", []string{uuid.NewString()})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	product.IsAvailable = false
	_, err = QuoteProduct(product, "", nil)
	assert.Equal(t, string(i18n.MsgItemUnavailable), pkgerrors.As(err).Key())
}

func TestQuoteOffer(t *testing.T) {
	conn := openCatalogDB(t)
	fx := seedCatalog(t, conn)
	svc := newTestService(t, conn)

	quote, err := svc.Quote(context.Background(), QuoteRequest{Type: enums.ItemTypeOffer, CatalogID: fx.offer.ID})
	require.NoError(t, err)
	assert.True(t, quote.UnitPrice.Equal(money("199.99")))
	assert.Equal(t, enums.ItemTypeOffer, quote.Type)

	_, err = QuoteOffer(models.ComboOffer{IsActive: false}, time.Now())
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	_, err = svc.Quote(context.Background(), QuoteRequest{Type: enums.ItemTypeOffer, CatalogID: uuid.New()})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestQuoteRejectsUnknownType(t *testing.T) {
	svc := newTestService(t, openCatalogDB(t))
	_, err := svc.Quote(context.Background(), QuoteRequest{Type: "drink", CatalogID: uuid.New()})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
