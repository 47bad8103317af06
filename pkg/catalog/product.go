// Package catalog holds the product record shared by search and cart.
// Products arrive already fetched from the document store; nothing here
// mutates them.
package catalog

// Product is a storefront product as delivered by the document store.
// Text fields and lists may be empty.
type Product struct {
	ID           string   `json:"id" yaml:"id"`
	Title        string   `json:"title,omitempty" yaml:"title"`
	Description  string   `json:"description,omitempty" yaml:"description"`
	Color        string   `json:"color,omitempty" yaml:"color"`
	Tags         []string `json:"tags,omitempty" yaml:"tags"`
	Keywords     []string `json:"keywords,omitempty" yaml:"keywords"`
	Sizes        []string `json:"sizes,omitempty" yaml:"sizes"`
	Price        Price    `json:"price,omitempty" yaml:"price"`
	CurrentPrice Price    `json:"currentPrice,omitempty" yaml:"currentPrice"`
	Img          string   `json:"img,omitempty" yaml:"img"`
	Gallery      []string `json:"gallery,omitempty" yaml:"gallery"`

	// Quantity is set by the caller when the product is handed to the cart.
	Quantity int `json:"quantity,omitempty" yaml:"quantity"`
}

// SearchFields returns the text-bearing fields in searchable order:
// title, description, color, each tag, each keyword.
func (p Product) SearchFields() []string {
	fields := make([]string, 0, 3+len(p.Tags)+len(p.Keywords))
	fields = append(fields, p.Title, p.Description, p.Color)
	fields = append(fields, p.Tags...)
	fields = append(fields, p.Keywords...)
	return fields
}

// HasSize reports whether size is one of the product's size labels.
func (p Product) HasSize(size string) bool {
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}
