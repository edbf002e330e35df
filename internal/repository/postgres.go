package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"estate-core/internal/model"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

const listingColumns = `
	id, owner_id, title, description, price, currency, listing_type, property_type,
	country, region, city, address, bedrooms, bathrooms, area_sqm,
	features, images, is_active, is_featured, view_count, created_at, updated_at`

// PostgresRepository handles database operations
type PostgresRepository struct {
	db *sqlx.DB
}

// listingRow is the database shape of a listing
type listingRow struct {
	ID           int64          `db:"id"`
	OwnerID      int64          `db:"owner_id"`
	Title        string         `db:"title"`
	Description  string         `db:"description"`
	Price        float64        `db:"price"`
	Currency     string         `db:"currency"`
	ListingType  string         `db:"listing_type"`
	PropertyType string         `db:"property_type"`
	Country      string         `db:"country"`
	Region       string         `db:"region"`
	City         string         `db:"city"`
	Address      string         `db:"address"`
	Bedrooms     int            `db:"bedrooms"`
	Bathrooms    int            `db:"bathrooms"`
	AreaSqm      float64        `db:"area_sqm"`
	Features     pq.StringArray `db:"features"`
	Images       pq.StringArray `db:"images"`
	IsActive     bool           `db:"is_active"`
	IsFeatured   bool           `db:"is_featured"`
	ViewCount    int64          `db:"view_count"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r listingRow) toModel() model.Listing {
	return model.Listing{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		Title:        r.Title,
		Description:  r.Description,
		Price:        r.Price,
		Currency:     r.Currency,
		ListingType:  model.ListingType(r.ListingType),
		PropertyType: r.PropertyType,
		Location: model.Location{
			Country: r.Country,
			Region:  r.Region,
			City:    r.City,
			Address: r.Address,
		},
		Bedrooms:         r.Bedrooms,
		Bathrooms:        r.Bathrooms,
		AreaSquareMeters: r.AreaSqm,
		Features:         nonNil(r.Features),
		Images:           nonNil(r.Images),
		IsActive:         r.IsActive,
		IsFeatured:       r.IsFeatured,
		ViewCount:        r.ViewCount,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func rowsToModels(rows []listingRow) []model.Listing {
	listings := make([]model.Listing, 0, len(rows))
	for _, row := range rows {
		listings = append(listings, row.toModel())
	}
	return listings
}

type ownerRow struct {
	ID                 int64          `db:"id"`
	Role               string         `db:"role"`
	SubscriptionTier   sql.NullString `db:"subscription_tier"`
	SubscriptionStatus sql.NullString `db:"subscription_status"`
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// NewPostgresRepositoryFromDB wraps an existing handle
func NewPostgresRepositoryFromDB(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// InitSchema creates the tables if they don't exist
func (r *PostgresRepository) InitSchema(ctx context.Context, embeddingDimensions int) error {
	query := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS accounts (
		id BIGSERIAL PRIMARY KEY,
		role VARCHAR(20) NOT NULL,
		subscription_tier VARCHAR(20),
		subscription_status VARCHAR(20),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS listings (
		id BIGSERIAL PRIMARY KEY,
		owner_id BIGINT NOT NULL REFERENCES accounts(id),
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price NUMERIC(14, 2) NOT NULL CHECK (price >= 0),
		currency VARCHAR(3) NOT NULL DEFAULT 'EUR',
		listing_type VARCHAR(10) NOT NULL CHECK (listing_type IN ('sale', 'rent')),
		property_type VARCHAR(50) NOT NULL,
		country TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		bedrooms INTEGER NOT NULL DEFAULT 0 CHECK (bedrooms >= 0),
		bathrooms INTEGER NOT NULL DEFAULT 0 CHECK (bathrooms >= 0),
		area_sqm NUMERIC(10, 2) NOT NULL CHECK (area_sqm > 0),
		features TEXT[] NOT NULL DEFAULT '{}',
		images TEXT[] NOT NULL DEFAULT '{}',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		is_featured BOOLEAN NOT NULL DEFAULT FALSE,
		view_count BIGINT NOT NULL DEFAULT 0 CHECK (view_count >= 0),
		embedding vector(%d),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_listings_active_created ON listings(is_active, created_at DESC, id DESC);
	CREATE INDEX IF NOT EXISTS idx_listings_owner ON listings(owner_id, is_active);
	CREATE INDEX IF NOT EXISTS idx_listings_country ON listings(LOWER(country));
	CREATE INDEX IF NOT EXISTS idx_listings_price ON listings(price);
	`, embeddingDimensions)

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// buildListingWhere turns a FilterSpec into an AND-ed WHERE clause with
// positional arguments starting at $1.
func buildListingWhere(spec model.FilterSpec, includeInactive bool) (string, []interface{}) {
	whereClauses := []string{"1=1"}
	args := []interface{}{}
	argIndex := 1

	add := func(format string, value interface{}) {
		whereClauses = append(whereClauses, fmt.Sprintf(format, argIndex))
		args = append(args, value)
		argIndex++
	}

	if !includeInactive {
		whereClauses = append(whereClauses, "is_active = true")
	}
	if v, ok := spec.Country(); ok {
		add("LOWER(TRIM(country)) = LOWER($%d)", v)
	}
	if v, ok := spec.Region(); ok {
		add("LOWER(TRIM(region)) = LOWER($%d)", v)
	}
	if v, ok := spec.City(); ok {
		add("LOWER(TRIM(city)) = LOWER($%d)", v)
	}
	if v, ok := spec.PropertyType(); ok {
		add("LOWER(property_type) = LOWER($%d)", v)
	}
	if lt := spec.ListingType(); lt != "" {
		add("listing_type = $%d", string(lt))
	}
	if v, ok := spec.MinPrice(); ok {
		add("price >= $%d", v)
	}
	if v, ok := spec.MaxPrice(); ok {
		add("price <= $%d", v)
	}
	if v, ok := spec.MinBedrooms(); ok {
		add("bedrooms >= $%d", v)
	}
	if v, ok := spec.MinBathrooms(); ok {
		add("bathrooms >= $%d", v)
	}

	return strings.Join(whereClauses, " AND "), args
}

// orderClause maps a sort key to ORDER BY; id DESC is always the tie-break
func orderClause(sort model.SortKey) string {
	switch sort {
	case model.SortPriceAsc:
		return "price ASC, id DESC"
	case model.SortPriceDesc:
		return "price DESC, id DESC"
	case model.SortSizeDesc:
		return "area_sqm DESC, id DESC"
	default:
		return "created_at DESC, id DESC"
	}
}

// FindMany returns one page of listings matching the filter
func (r *PostgresRepository) FindMany(
	ctx context.Context,
	spec model.FilterSpec,
	sort model.SortKey,
	page model.PageSpec,
	includeInactive bool,
) ([]model.Listing, error) {
	if page.Limit <= 0 {
		return []model.Listing{}, nil
	}
	if page.Offset < 0 {
		page.Offset = 0
	}

	whereClause, args := buildListingWhere(spec, includeInactive)
	query := fmt.Sprintf(`
		SELECT %s
		FROM listings
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, listingColumns, whereClause, orderClause(sort), len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset)

	var rows []listingRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}
	return rowsToModels(rows), nil
}

// Count returns the number of listings matching the filter
func (r *PostgresRepository) Count(ctx context.Context, spec model.FilterSpec, includeInactive bool) (int, error) {
	whereClause, args := buildListingWhere(spec, includeInactive)

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM listings WHERE %s", whereClause)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}
	return total, nil
}

// FindOne retrieves a single listing by its ID regardless of is_active
func (r *PostgresRepository) FindOne(ctx context.Context, id int64) (*model.Listing, error) {
	var row listingRow
	query := fmt.Sprintf(`SELECT %s FROM listings WHERE id = $1`, listingColumns)
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	listing := row.toModel()
	return &listing, nil
}

// FindByOwner lists every listing of an owner, inactive ones included
func (r *PostgresRepository) FindByOwner(ctx context.Context, ownerID int64, page model.PageSpec) ([]model.Listing, error) {
	if page.Limit <= 0 {
		return []model.Listing{}, nil
	}
	if page.Offset < 0 {
		page.Offset = 0
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM listings
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, listingColumns)

	var rows []listingRow
	if err := r.db.SelectContext(ctx, &rows, query, ownerID, page.Limit, page.Offset); err != nil {
		return nil, fmt.Errorf("failed to fetch owner listings: %w", err)
	}
	return rowsToModels(rows), nil
}

// CountActiveByOwner returns how many active listings an owner has
func (r *PostgresRepository) CountActiveByOwner(ctx context.Context, ownerID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM listings WHERE owner_id = $1 AND is_active = true`
	if err := r.db.GetContext(ctx, &count, query, ownerID); err != nil {
		return 0, fmt.Errorf("failed to count owner listings: %w", err)
	}
	return count, nil
}

// Create inserts a new listing with a zero view count
func (r *PostgresRepository) Create(ctx context.Context, ownerID int64, fields model.ListingFields) (*model.Listing, error) {
	isActive := true
	if fields.IsActive != nil {
		isActive = *fields.IsActive
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (
			owner_id, title, description, price, currency, listing_type, property_type,
			country, region, city, address, bedrooms, bathrooms, area_sqm,
			features, images, is_active, is_featured, view_count, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, 0, NOW(), NOW())
		RETURNING %s
	`, listingColumns)

	var row listingRow
	err := r.db.GetContext(ctx, &row, query,
		ownerID, fields.Title, fields.Description, fields.Price, fields.Currency,
		string(fields.ListingType), fields.PropertyType,
		fields.Location.Country, fields.Location.Region, fields.Location.City, fields.Location.Address,
		fields.Bedrooms, fields.Bathrooms, fields.AreaSquareMeters,
		pq.StringArray(nonNil(fields.Features)), pq.StringArray(nonNil(fields.Images)),
		isActive, fields.IsFeatured,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	listing := row.toModel()
	return &listing, nil
}

// buildListingSet turns a patch into a SET clause. Only columns present in
// the patch are written.
func buildListingSet(patch model.ListingPatch) ([]string, []interface{}) {
	var sets []string
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Price != nil {
		add("price", *patch.Price)
	}
	if patch.Currency != nil {
		add("currency", *patch.Currency)
	}
	if patch.ListingType != nil {
		add("listing_type", string(*patch.ListingType))
	}
	if patch.PropertyType != nil {
		add("property_type", *patch.PropertyType)
	}
	if patch.Country != nil {
		add("country", *patch.Country)
	}
	if patch.Region != nil {
		add("region", *patch.Region)
	}
	if patch.City != nil {
		add("city", *patch.City)
	}
	if patch.Address != nil {
		add("address", *patch.Address)
	}
	if patch.Bedrooms != nil {
		add("bedrooms", *patch.Bedrooms)
	}
	if patch.Bathrooms != nil {
		add("bathrooms", *patch.Bathrooms)
	}
	if patch.AreaSquareMeters != nil {
		add("area_sqm", *patch.AreaSquareMeters)
	}
	if patch.Features != nil {
		add("features", pq.StringArray(nonNil(*patch.Features)))
	}
	if patch.Images != nil {
		add("images", pq.StringArray(nonNil(*patch.Images)))
	}
	if patch.IsActive != nil {
		add("is_active", *patch.IsActive)
	}
	if patch.IsFeatured != nil {
		add("is_featured", *patch.IsFeatured)
	}

	return sets, args
}

// Update applies a partial update and returns the stored listing
func (r *PostgresRepository) Update(ctx context.Context, id int64, patch model.ListingPatch) (*model.Listing, error) {
	sets, args := buildListingSet(patch)
	if len(sets) == 0 {
		return r.FindOne(ctx, id)
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE listings SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), listingColumns)

	var row listingRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}
	listing := row.toModel()
	return &listing, nil
}

// IncrementViews bumps the view counter in a single statement
func (r *PostgresRepository) IncrementViews(ctx context.Context, id int64) (int64, bool, error) {
	var count int64
	query := `UPDATE listings SET view_count = view_count + 1 WHERE id = $1 RETURNING view_count`
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to increment views: %w", err)
	}
	return count, true, nil
}

// UpdateEmbedding updates the embedding vector for a listing
func (r *PostgresRepository) UpdateEmbedding(ctx context.Context, id int64, embedding []float32) (bool, error) {
	vec := pgvector.NewVector(embedding)
	query := `UPDATE listings SET embedding = $1, updated_at = NOW() WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, vec, id)
	if err != nil {
		return false, fmt.Errorf("failed to update embedding: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update embedding: %w", err)
	}
	return n > 0, nil
}

// BatchUpdateEmbeddings updates embeddings for multiple listings
func (r *PostgresRepository) BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string) {
	success := 0
	var errs []string

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		errs = append(errs, fmt.Sprintf("failed to start transaction: %v", err))
		return success, errs
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `UPDATE listings SET embedding = $1, updated_at = NOW() WHERE id = $2`)
	if err != nil {
		errs = append(errs, fmt.Sprintf("failed to prepare statement: %v", err))
		return success, errs
	}
	defer stmt.Close()

	for _, item := range items {
		vec := pgvector.NewVector(item.Embedding)
		res, err := stmt.ExecContext(ctx, vec, item.ListingID)
		if err != nil {
			errs = append(errs, fmt.Sprintf("listing_id %d: %v", item.ListingID, err))
			continue
		}
		if n, _ := res.RowsAffected(); n == 0 {
			errs = append(errs, fmt.Sprintf("listing_id %d: not found", item.ListingID))
			continue
		}
		success++
	}

	if err := tx.Commit(); err != nil {
		errs = append(errs, fmt.Sprintf("failed to commit transaction: %v", err))
		return 0, errs
	}

	return success, errs
}

// FindSimilar returns active listings closest to id by embedding distance
func (r *PostgresRepository) FindSimilar(ctx context.Context, id int64, limit int) ([]model.Listing, error) {
	if limit <= 0 {
		return []model.Listing{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM listings
		WHERE is_active = true
			AND id <> $1
			AND embedding IS NOT NULL
			AND EXISTS (SELECT 1 FROM listings src WHERE src.id = $1 AND src.embedding IS NOT NULL)
		ORDER BY embedding <-> (SELECT src.embedding FROM listings src WHERE src.id = $1), id DESC
		LIMIT $2
	`, listingColumns)

	var rows []listingRow
	if err := r.db.SelectContext(ctx, &rows, query, id, limit); err != nil {
		return nil, fmt.Errorf("failed to fetch similar listings: %w", err)
	}
	return rowsToModels(rows), nil
}

// GetOwner loads the account state used by the visibility gate
func (r *PostgresRepository) GetOwner(ctx context.Context, id int64) (*model.Owner, error) {
	var row ownerRow
	query := `SELECT id, role, subscription_tier, subscription_status FROM accounts WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get owner: %w", err)
	}

	owner := &model.Owner{
		ID:                 row.ID,
		Role:               model.Role(row.Role),
		SubscriptionStatus: model.SubscriptionStatus(row.SubscriptionStatus.String),
	}
	if row.SubscriptionTier.Valid {
		tier := row.SubscriptionTier.String
		owner.SubscriptionTier = &tier
	}
	return owner, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
