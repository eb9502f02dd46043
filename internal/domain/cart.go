package domain

import "time"

// ProductSnapshot is the denormalized product data captured when a line is
// added to a cart. Stock is the units available at snapshot time; it is the
// ceiling every quantity change is validated against.
type ProductSnapshot struct {
	ID     string   `bson:"_id" json:"_id"`
	Name   string   `bson:"name" json:"name"`
	Price  float64  `bson:"price" json:"price"`
	Stock  int      `bson:"stock" json:"stock"`
	Images []string `bson:"images" json:"images"`
}

// CartLine is one product entry in a cart. Product IDs are unique within a
// cart: adding the same product again sums quantities instead of appending.
type CartLine struct {
	Product  ProductSnapshot `bson:"product" json:"product"`
	Quantity int             `bson:"quantity" json:"quantity"`
}

type Cart struct {
	ID         string     `bson:"_id,omitempty" json:"_id,omitempty"`
	CustomerID string     `bson:"customer" json:"customer"`
	Items      []CartLine `bson:"items" json:"items"`
	CreatedAt  time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `bson:"updated_at" json:"updated_at"`
}

// Find returns the line for productID, or nil if the cart has none.
func (c *Cart) Find(productID string) *CartLine {
	for i := range c.Items {
		if c.Items[i].Product.ID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// QuantityOf returns the quantity already in the cart for productID,
// 0 if the product has no line.
func (c *Cart) QuantityOf(productID string) int {
	if line := c.Find(productID); line != nil {
		return line.Quantity
	}
	return 0
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
