package dao

// Relation describes a reference field that can be populated.
type Relation struct {
	Collection string
	Many       bool
	// Hidden fields of the referenced collection are never projected.
	Hidden []string
}

// Schema describes a collection: the fields that reference other
// collections and the fields that must never leave the store.
type Schema struct {
	Name      string
	Relations map[string]Relation
	Hidden    []string
}

// Relation returns the relation declared at path.
func (s Schema) Relation(path string) (Relation, bool) {
	r, ok := s.Relations[path]
	return r, ok
}

// Collection names.
const (
	CategoriesCollection    = "categories"
	SubcategoriesCollection = "subcategories"
	BrandsCollection        = "brands"
	ProductsCollection      = "products"
	ReviewsCollection       = "reviews"
	CouponsCollection       = "coupons"
	UsersCollection         = "users"
	TokensCollection        = "tokens"
)

var userHidden = []string{"password", "passwordChangedAt"}

// Catalog schemas.
var (
	Categories = Schema{Name: CategoriesCollection}

	Subcategories = Schema{
		Name: SubcategoriesCollection,
		Relations: map[string]Relation{
			"category": {Collection: CategoriesCollection},
		},
	}

	Brands = Schema{Name: BrandsCollection}

	Products = Schema{
		Name: ProductsCollection,
		Relations: map[string]Relation{
			"category":      {Collection: CategoriesCollection},
			"subcategories": {Collection: SubcategoriesCollection, Many: true},
			"brand":         {Collection: BrandsCollection},
		},
	}

	Reviews = Schema{
		Name: ReviewsCollection,
		Relations: map[string]Relation{
			"user":    {Collection: UsersCollection, Hidden: userHidden},
			"product": {Collection: ProductsCollection},
		},
	}

	Coupons = Schema{Name: CouponsCollection}

	Users = Schema{
		Name: UsersCollection,
		Relations: map[string]Relation{
			"wishlist": {Collection: ProductsCollection, Many: true},
		},
		Hidden: userHidden,
	}
)
