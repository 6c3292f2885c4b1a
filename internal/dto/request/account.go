package request

// WishlistRequest adds a product to the caller's wishlist.
type WishlistRequest struct {
	ProductID string `json:"productId" binding:"required,objectid"`
}

// AddressRequest adds an address to the caller's address book.
type AddressRequest struct {
	Alias   string `json:"alias" binding:"required,min=2,max=32"`
	Details string `json:"details" binding:"required,min=2,max=256"`
	Phone   string `json:"phone,omitempty" binding:"omitempty,phone"`
	City    string `json:"city" binding:"required,min=2,max=64"`
	State   string `json:"state,omitempty" binding:"omitempty,max=64"`
	Country string `json:"country,omitempty" binding:"omitempty,max=64"`
	Pincode string `json:"pincode,omitempty" binding:"omitempty,max=16"`
}
