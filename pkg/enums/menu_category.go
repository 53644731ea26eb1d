package enums

import "fmt"

// MenuCategory groups menu items on the storefront.
type MenuCategory string

const (
	MenuCategoryPizza     MenuCategory = "pizza"
	MenuCategoryAppetizer MenuCategory = "appetizer"
	MenuCategoryDrink     MenuCategory = "drink"
	MenuCategoryDessert   MenuCategory = "dessert"
)

var validMenuCategories = []MenuCategory{
	MenuCategoryPizza,
	MenuCategoryAppetizer,
	MenuCategoryDrink,
	MenuCategoryDessert,
}

// String implements fmt.Stringer.
func (m MenuCategory) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MenuCategory.
func (m MenuCategory) IsValid() bool {
	for _, candidate := range validMenuCategories {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMenuCategory converts raw input into a MenuCategory.
func ParseMenuCategory(value string) (MenuCategory, error) {
	for _, candidate := range validMenuCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid menu category %q", value)
}
