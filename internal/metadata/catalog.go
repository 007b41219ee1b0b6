package metadata

// Catalog builds the descriptors for the admin catalog schema. This is the
// single place the schema is declared; query translation, the repository, the
// migrator, and the HTTP layer are all driven from it.
func Catalog() *Registry {
	category := &Entity{
		Name:  "category",
		Table: "categories",
		Columns: []Column{
			{Name: "id", DBName: "id", Type: Int, PrimaryKey: true},
			{Name: "name", DBName: "name", Type: String},
			{Name: "categoryParentId", DBName: "category_parent_id", Type: Int, Nullable: true},
		},
		Relations: []Relation{
			{
				Name: "products", Entity: "product", DisplayKey: "name",
				Cardinality: ManyToMany,
				JoinTable:   "product_categories", JoinSelfKey: "category_id", JoinRelatedKey: "product_id",
				Writable: true,
			},
			{
				Name: "parent", Entity: "category", DisplayKey: "name",
				Cardinality: OneToMany, SelfReferential: true,
				FKColumn: "category_parent_id", FKOnSelf: true,
			},
			{
				Name: "children", Entity: "category", DisplayKey: "name",
				Cardinality: OneToMany, SelfReferential: true,
				FKColumn: "category_parent_id", FKOnSelf: false,
			},
		},
	}

	product := &Entity{
		Name:  "product",
		Table: "products",
		Columns: []Column{
			{Name: "id", DBName: "id", Type: Int, PrimaryKey: true},
			{Name: "name", DBName: "name", Type: String},
			{Name: "price", DBName: "price", Type: Float, Nullable: true},
			{Name: "date", DBName: "date", Type: DateTime, Nullable: true},
		},
		Relations: []Relation{
			{
				Name: "stock", Entity: "stock", DisplayKey: "quantity",
				Cardinality: OneToOne,
				FKColumn:    "product_id", FKOnSelf: false,
			},
			{
				Name: "pictures", Entity: "picture", DisplayKey: "picture",
				Cardinality: OneToMany,
				FKColumn:    "product_id", FKOnSelf: false,
			},
			{
				Name: "categories", Entity: "category", DisplayKey: "name",
				Cardinality: ManyToMany,
				JoinTable:   "product_categories", JoinSelfKey: "product_id", JoinRelatedKey: "category_id",
				Writable: true,
			},
		},
		Checks: []Check{
			{Name: "price_not_negative", Expr: "record.price == nil || record.price >= 0", Message: "price must not be negative"},
		},
	}

	stock := &Entity{
		Name:  "stock",
		Table: "stocks",
		Columns: []Column{
			{Name: "id", DBName: "id", Type: Int, PrimaryKey: true},
			{Name: "quantity", DBName: "quantity", Type: Int, Nullable: true},
			{Name: "productId", DBName: "product_id", Type: Int, Nullable: true, Unique: true},
		},
		Relations: []Relation{
			{
				Name: "product", Entity: "product", DisplayKey: "name",
				Cardinality: OneToOne,
				FKColumn:    "product_id", FKOnSelf: true,
			},
		},
		Checks: []Check{
			{Name: "quantity_not_negative", Expr: "record.quantity == nil || record.quantity >= 0", Message: "quantity must not be negative"},
		},
	}

	picture := &Entity{
		Name:  "picture",
		Table: "pictures",
		Columns: []Column{
			{Name: "id", DBName: "id", Type: Int, PrimaryKey: true},
			{Name: "picture", DBName: "picture", Type: File, Nullable: true},
			{Name: "productId", DBName: "product_id", Type: Int, Nullable: true},
		},
		Relations: []Relation{
			// Declared 1:N upstream even though the row itself carries the FK;
			// filtering semantics ("any related match") come out the same.
			{
				Name: "product", Entity: "product", DisplayKey: "name",
				Cardinality: OneToMany,
				FKColumn:    "product_id", FKOnSelf: true,
			},
		},
	}

	user := &Entity{
		Name:  "user",
		Table: "users",
		Columns: []Column{
			{Name: "id", DBName: "id", Type: UUID, PrimaryKey: true},
			{Name: "name", DBName: "name", Type: String},
			{Name: "email", DBName: "email", Type: String, Unique: true},
			{Name: "password", DBName: "password", Type: String, Sensitive: true},
			{Name: "active", DBName: "active", Type: Boolean},
			{Name: "createdAt", DBName: "created_at", Type: DateTime, Auto: AutoCreate},
			{Name: "updatedAt", DBName: "updated_at", Type: DateTime, Auto: AutoUpdate},
		},
		Checks: []Check{
			{Name: "email_shape", Expr: `record.email == nil || record.email matches "@"`, Message: "email must contain @"},
		},
	}

	return NewRegistry(category, product, stock, picture, user)
}
