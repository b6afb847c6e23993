package taxonomy

import "sort"

// Category is one entry in the static marketplace taxonomy. The table is
// maintained by the catalog team and shipped with the binary; sellers pick
// from it, they never extend it.
type Category struct {
	Name          string   `json:"name"`
	Icon          string   `json:"icon"`
	Subcategories []string `json:"subcategories"`
}

var categories = map[string]Category{
	"Art & Collectibles": {
		Name:          "Art & Collectibles",
		Icon:          "palette",
		Subcategories: []string{"Paintings", "Drawings", "Sculptures", "Prints", "Photography"},
	},
	"Clothing": {
		Name:          "Clothing",
		Icon:          "shirt",
		Subcategories: []string{"Men", "Women", "Kids", "Sarees", "Batik"},
	},
	"Jewellery": {
		Name:          "Jewellery",
		Icon:          "gem",
		Subcategories: []string{"Necklaces", "Earrings", "Bracelets", "Rings", "Gemstones"},
	},
	"Home & Living": {
		Name:          "Home & Living",
		Icon:          "home",
		Subcategories: []string{"Furniture", "Decor", "Kitchen", "Bedding", "Lighting"},
	},
	"Craft Supplies": {
		Name:          "Craft Supplies",
		Icon:          "scissors",
		Subcategories: []string{"Fabric", "Yarn", "Beads", "Tools", "Paper"},
	},
	"Bags & Accessories": {
		Name:          "Bags & Accessories",
		Icon:          "bag",
		Subcategories: []string{"Handbags", "Backpacks", "Wallets", "Belts", "Hats"},
	},
	"Food & Beverages": {
		Name:          "Food & Beverages",
		Icon:          "utensils",
		Subcategories: []string{"Spices", "Tea", "Sweets", "Preserves"},
	},
	"Toys & Games": {
		Name:          "Toys & Games",
		Icon:          "puzzle",
		Subcategories: []string{"Wooden Toys", "Dolls", "Board Games", "Educational"},
	},
	"Beauty & Care": {
		Name:          "Beauty & Care",
		Icon:          "sparkles",
		Subcategories: []string{"Soaps", "Oils", "Skincare", "Haircare"},
	},
	"Stationery": {
		Name:          "Stationery",
		Icon:          "pen",
		Subcategories: []string{"Notebooks", "Cards", "Gift Wrap", "Stickers"},
	},
}

// Categories returns the full table sorted by name.
func Categories() []Category {
	out := make([]Category, 0, len(categories))
	for _, c := range categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Subcategories returns the subcategory list for a category, or nil if the
// category does not exist.
func Subcategories(category string) []string {
	c, ok := categories[category]
	if !ok {
		return nil
	}
	return append([]string(nil), c.Subcategories...)
}

// Valid reports whether the category exists and, when subcategory is
// non-empty, whether it belongs to that category.
func Valid(category, subcategory string) bool {
	c, ok := categories[category]
	if !ok {
		return false
	}
	if subcategory == "" {
		return true
	}
	for _, s := range c.Subcategories {
		if s == subcategory {
			return true
		}
	}
	return false
}
