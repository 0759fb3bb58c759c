package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "sellit/internal/errors"
	"sellit/internal/model"
)

const (
	maxTitleLength        = 160
	maxDescriptionLength  = 5000
	maxCategoryNameLength = 64
	maxImageURLLength     = 2048
	maxImagePublicID      = 256
)

// maxPrice is the largest value a decimal(12,2) column holds.
var maxPrice = decimal.RequireFromString("9999999999.99")

// CategorySelector names a category by id or by name. Exactly one must be set.
type CategorySelector struct {
	ID   string
	Name string
}

// ProductInput carries the owner-editable fields of a listing.
type ProductInput struct {
	Title       string
	Description string
	Price       *decimal.Decimal
	Category    CategorySelector
	Images      []model.ProductImage

	// malformed holds request paths whose value had the wrong JSON type.
	malformed map[string]struct{}
}

// MarkMalformed records that the value sent for path could not be read as its expected type.
// Validate reports it as a field problem next to every other one.
func (in *ProductInput) MarkMalformed(path string) {
	if in.malformed == nil {
		in.malformed = make(map[string]struct{})
	}
	in.malformed[path] = struct{}{}
}

func (in *ProductInput) isMalformed(path string) bool {
	_, ok := in.malformed[path]
	return ok
}

// ListingValidator validates listing input.
type ListingValidator struct{}

// NewListingValidator creates a new listing validator.
func NewListingValidator() *ListingValidator {
	return &ListingValidator{}
}

// Validate trims in and reports every field problem at once.
func (v *ListingValidator) Validate(in *ProductInput) error {
	verr := &apperrors.ValidationError{}

	v.validateText(in, "title", "Title", &in.Title, maxTitleLength, verr)
	v.validateText(in, "description", "Description", &in.Description, maxDescriptionLength, verr)
	v.validatePrice(in, verr)
	v.validateCategory(in, verr)
	v.validateImages(in, verr)

	return verr.OrNil()
}

func (v *ListingValidator) validateText(in *ProductInput, path, label string, value *string, maxLen int, verr *apperrors.ValidationError) {
	if in.isMalformed(path) {
		verr.Add(path, label+" must be a string")
		return
	}
	*value = strings.TrimSpace(*value)
	switch n := utf8.RuneCountInString(*value); {
	case n == 0:
		verr.Add(path, label+" is required")
	case n > maxLen:
		verr.Add(path, fmt.Sprintf("%s must be at most %d characters", label, maxLen))
	}
}

func (v *ListingValidator) validatePrice(in *ProductInput, verr *apperrors.ValidationError) {
	if in.isMalformed("price") {
		verr.Add("price", "Price must be a positive number")
		return
	}
	if in.Price == nil {
		verr.Add("price", "Price is required")
		return
	}
	rounded := in.Price.Round(2)
	if !rounded.IsPositive() {
		verr.Add("price", "Price must be a positive number")
		return
	}
	if rounded.GreaterThan(maxPrice) {
		verr.Add("price", "Price is too large")
		return
	}
	in.Price = &rounded
}

func (v *ListingValidator) validateCategory(in *ProductInput, verr *apperrors.ValidationError) {
	badID, badName := in.isMalformed("categoryId"), in.isMalformed("categoryName")
	if badID {
		verr.Add("categoryId", "categoryId must be a string")
	}
	if badName {
		verr.Add("categoryName", "categoryName must be a string")
	}
	if badID || badName {
		return
	}

	sel := &in.Category
	sel.ID = strings.TrimSpace(sel.ID)
	sel.Name = model.NormalizeCategoryName(sel.Name)

	hasID, hasName := sel.ID != "", sel.Name != ""
	if hasID == hasName {
		verr.Add("category", "Provide exactly one of categoryId or categoryName")
		return
	}
	if hasID {
		if _, err := uuid.Parse(sel.ID); err != nil {
			verr.Add("categoryId", "categoryId must be a valid id")
		}
		return
	}
	if utf8.RuneCountInString(sel.Name) > maxCategoryNameLength {
		verr.Add("categoryName", fmt.Sprintf("categoryName must be 1-%d characters", maxCategoryNameLength))
	}
}

func (v *ListingValidator) validateImages(in *ProductInput, verr *apperrors.ValidationError) {
	if in.isMalformed("images") {
		verr.Add("images", "Images must be a list of {url, publicId} objects")
		return
	}
	if len(in.Images) > model.MaxProductImages {
		verr.Add("images", fmt.Sprintf("Images must have at most %d items", model.MaxProductImages))
		return
	}
	for i := range in.Images {
		img := &in.Images[i]
		img.URL = strings.TrimSpace(img.URL)
		img.PublicID = strings.TrimSpace(img.PublicID)

		switch {
		case img.URL == "":
			verr.Add(fmt.Sprintf("images[%d].url", i), "Image url is required")
		case len(img.URL) > maxImageURLLength:
			verr.Add(fmt.Sprintf("images[%d].url", i), "Image url is too long")
		}
		switch {
		case img.PublicID == "":
			verr.Add(fmt.Sprintf("images[%d].publicId", i), "Image publicId is required")
		case len(img.PublicID) > maxImagePublicID:
			verr.Add(fmt.Sprintf("images[%d].publicId", i), "Image publicId is too long")
		}
	}
}
