package models

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/partsflow/spareparts_backend/config"
	"github.com/partsflow/spareparts_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductCategory struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;uniqueIndex;not null" json:"name" binding:"required"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Product is a spare part in the catalog. Code and barcode are globally
// unique; identity is immutable once any invoice line references the product,
// so products with history are deactivated rather than deleted.
type Product struct {
	ID          int              `gorm:"primary_key" json:"id"`
	Code        string           `gorm:"size:100;uniqueIndex;not null" json:"code" binding:"required"`
	Barcode     *string          `gorm:"size:100;uniqueIndex" json:"barcode"`
	Name        string           `gorm:"size:100;not null" json:"name" binding:"required"`
	Description string           `gorm:"type:text" json:"description"`
	CategoryId  int              `gorm:"index;not null;default:0" json:"category_id"`
	Unit        string           `gorm:"size:20;not null;default:'pc'" json:"unit"`
	UnitPrice   *decimal.Decimal `gorm:"type:decimal(20,4)" json:"unit_price"`
	IsActive    *bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Code        string           `json:"code" validate:"required"`
	Barcode     *string          `json:"barcode"`
	Name        string           `json:"name" validate:"required"`
	Description string           `json:"description"`
	CategoryId  int              `json:"category_id"`
	Unit        string           `json:"unit"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
}

const productCacheKeyPrefix = "product:"

func CreateProductCategory(ctx context.Context, name string) (*ProductCategory, error) {
	if name == "" {
		return nil, NewValidationError("name", "name is required")
	}
	if err := utils.ValidateUnique[ProductCategory](ctx, "name", name, 0); err != nil {
		return nil, NewDuplicateError("category", "name", name)
	}
	category := ProductCategory{Name: name}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func ListProductCategories(ctx context.Context) ([]ProductCategory, error) {
	db := config.GetDB()
	var categories []ProductCategory
	err := db.WithContext(ctx).Where("is_active = ?", true).Order("name").Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	if msgs := utils.ValidateStruct(input); msgs != nil {
		return nil, NewValidationError("product", msgs[0])
	}
	if err := utils.ValidateUnique[Product](ctx, "code", input.Code, 0); err != nil {
		return nil, NewDuplicateError("product", "code", input.Code)
	}
	if input.Barcode != nil && *input.Barcode != "" {
		if err := utils.ValidateUnique[Product](ctx, "barcode", *input.Barcode, 0); err != nil {
			return nil, NewDuplicateError("product", "barcode", *input.Barcode)
		}
	}
	if input.CategoryId > 0 {
		if err := utils.ValidateResourceId[ProductCategory](ctx, input.CategoryId); err != nil {
			return nil, NewNotFoundError("category", input.CategoryId)
		}
	}

	unit := input.Unit
	if unit == "" {
		unit = "pc"
	}
	product := Product{
		Code:        input.Code,
		Barcode:     input.Barcode,
		Name:        input.Name,
		Description: input.Description,
		CategoryId:  input.CategoryId,
		Unit:        unit,
		UnitPrice:   input.UnitPrice,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func UpdateProduct(ctx context.Context, id int, input *NewProduct) (*Product, error) {
	product, err := GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Product](ctx, "code", input.Code, id); err != nil {
		return nil, NewDuplicateError("product", "code", input.Code)
	}

	// Code is identity: once referenced by any invoice line it must not change.
	if product.Code != input.Code {
		referenced, err := productIsReferenced(ctx, id)
		if err != nil {
			return nil, err
		}
		if referenced {
			return nil, &InvalidStateError{
				Entity:  "product",
				ID:      id,
				State:   "referenced",
				Message: "code cannot change once the product appears on an invoice",
			}
		}
	}

	product.Code = input.Code
	product.Barcode = input.Barcode
	product.Name = input.Name
	product.Description = input.Description
	product.CategoryId = input.CategoryId
	if input.Unit != "" {
		product.Unit = input.Unit
	}
	product.UnitPrice = input.UnitPrice

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	invalidateProductCache(id)
	return product, nil
}

// DeleteProduct removes a product outright only while no invoice line
// references it; otherwise it is soft-disabled.
func DeleteProduct(ctx context.Context, id int) (*Product, error) {
	product, err := GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	referenced, err := productIsReferenced(ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if referenced {
		if err := db.WithContext(ctx).Model(product).Update("is_active", false).Error; err != nil {
			return nil, err
		}
		product.IsActive = utils.NewFalse()
	} else {
		if err := db.WithContext(ctx).Delete(product).Error; err != nil {
			return nil, err
		}
	}
	invalidateProductCache(id)
	return product, nil
}

func productIsReferenced(ctx context.Context, productId int) (bool, error) {
	purchases, err := utils.ResourceCountWhere[PurchaseInvoiceItem](ctx, "product_id = ?", productId)
	if err != nil {
		return false, err
	}
	if purchases > 0 {
		return true, nil
	}
	sales, err := utils.ResourceCountWhere[SaleInvoiceItem](ctx, "product_id = ?", productId)
	if err != nil {
		return false, err
	}
	return sales > 0, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	var product Product
	key := productCacheKey(id)
	if ok, _ := config.GetRedisObject(key, &product); ok {
		return &product, nil
	}

	db := config.GetDB()
	err := db.WithContext(ctx).First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("product", id)
		}
		return nil, err
	}
	_ = config.SetRedisObject(key, &product, 10*time.Minute)
	return &product, nil
}

// GetProductTx reads inside an open transaction, bypassing the cache.
func GetProductTx(tx *gorm.DB, id int) (*Product, error) {
	var product Product
	err := tx.First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("product", id)
		}
		return nil, err
	}
	return &product, nil
}

func ListProducts(ctx context.Context, search string, activeOnly bool) ([]Product, error) {
	db := config.GetDB()
	q := db.WithContext(ctx).Model(&Product{})
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("code LIKE ? OR name LIKE ? OR barcode LIKE ?", like, like, like).
			Limit(config.SearchLimit)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var products []Product
	if err := q.Order("code").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func productCacheKey(id int) string {
	return productCacheKeyPrefix + strconv.Itoa(id)
}

func invalidateProductCache(id int) {
	_ = config.DeleteRedisKeys(productCacheKey(id))
}
