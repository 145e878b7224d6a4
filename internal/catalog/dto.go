package catalog

import (
	"github.com/angelmondragon/restaurant-storefront/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BranchDTO struct {
	ID        uuid.UUID `json:"id"`
	NameAR    string    `json:"name_ar"`
	NameEN    string    `json:"name_en"`
	AddressAR *string   `json:"address_ar,omitempty"`
	AddressEN *string   `json:"address_en,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
}

func branchFromModel(m models.Branch) BranchDTO {
	return BranchDTO{
		ID:        m.ID,
		NameAR:    m.NameAR,
		NameEN:    m.NameEN,
		AddressAR: m.AddressAR,
		AddressEN: m.AddressEN,
		Phone:     m.Phone,
		Latitude:  m.Latitude,
		Longitude: m.Longitude,
	}
}

type CategoryDTO struct {
	ID       uuid.UUID `json:"id"`
	NameAR   string    `json:"name_ar"`
	NameEN   string    `json:"name_en"`
	ImageURL *string   `json:"image_url,omitempty"`
}

func categoryFromModel(m models.Category) CategoryDTO {
	return CategoryDTO{ID: m.ID, NameAR: m.NameAR, NameEN: m.NameEN, ImageURL: m.ImageURL}
}

type SizeDTO struct {
	Name   string          `json:"name"`
	NameAR string          `json:"name_ar"`
	NameEN string          `json:"name_en"`
	Price  decimal.Decimal `json:"price"`
}

type VariantDTO struct {
	ID     uuid.UUID       `json:"id"`
	NameAR string          `json:"name_ar"`
	NameEN string          `json:"name_en"`
	Price  decimal.Decimal `json:"price"`
}

type ProductDTO struct {
	ID            uuid.UUID       `json:"id"`
	BranchID      uuid.UUID       `json:"branch_id"`
	CategoryID    *uuid.UUID      `json:"category_id,omitempty"`
	NameAR        string          `json:"name_ar"`
	NameEN        string          `json:"name_en"`
	DescriptionAR *string         `json:"description_ar,omitempty"`
	DescriptionEN *string         `json:"description_en,omitempty"`
	ImageURL      *string         `json:"image_url,omitempty"`
	BasePrice     decimal.Decimal `json:"base_price"`
	Sizes         []SizeDTO       `json:"sizes"`
	Variants      []VariantDTO    `json:"variants"`
}

func productFromModel(m models.Product) ProductDTO {
	dto := ProductDTO{
		ID:            m.ID,
		BranchID:      m.BranchID,
		CategoryID:    m.CategoryID,
		NameAR:        m.NameAR,
		NameEN:        m.NameEN,
		DescriptionAR: m.DescriptionAR,
		DescriptionEN: m.DescriptionEN,
		ImageURL:      m.ImageURL,
		BasePrice:     m.BasePrice,
		Sizes:         make([]SizeDTO, 0, len(m.Sizes)),
		Variants:      make([]VariantDTO, 0, len(m.Types)),
	}
	for _, s := range m.Sizes {
		dto.Sizes = append(dto.Sizes, SizeDTO{Name: s.Name, NameAR: s.NameAR, NameEN: s.NameEN, Price: s.Price})
	}
	for _, v := range m.Types {
		dto.Variants = append(dto.Variants, VariantDTO{ID: v.ID, NameAR: v.NameAR, NameEN: v.NameEN, Price: v.Price})
	}
	return dto
}

type OfferDTO struct {
	ID            uuid.UUID       `json:"id"`
	BranchID      uuid.UUID       `json:"branch_id"`
	TitleAR       string          `json:"title_ar"`
	TitleEN       string          `json:"title_en"`
	DescriptionAR *string         `json:"description_ar,omitempty"`
	DescriptionEN *string         `json:"description_en,omitempty"`
	ImageURL      *string         `json:"image_url,omitempty"`
	Price         decimal.Decimal `json:"price"`
}

func offerFromModel(m models.ComboOffer) OfferDTO {
	return OfferDTO{
		ID:            m.ID,
		BranchID:      m.BranchID,
		TitleAR:       m.TitleAR,
		TitleEN:       m.TitleEN,
		DescriptionAR: m.DescriptionAR,
		DescriptionEN: m.DescriptionEN,
		ImageURL:      m.ImageURL,
		Price:         m.Price,
	}
}
