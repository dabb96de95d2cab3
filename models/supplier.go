package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/apotek_backend/config"
	"bitbucket.org/mmdatafocus/apotek_backend/utils"
)

type Supplier struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Kode      string    `gorm:"size:20;uniqueIndex;not null" json:"kode" binding:"required"`
	Nama      string    `gorm:"size:100;not null" json:"nama" binding:"required"`
	Alamat    string    `gorm:"type:text" json:"alamat"`
	Kota      string    `gorm:"size:50" json:"kota"`
	NoTelp    string    `gorm:"size:20" json:"noTelp"`
	Email     string    `gorm:"size:100" json:"email"`
	Kontak    string    `gorm:"size:100" json:"kontak"`
	IsActive  *bool     `gorm:"not null;default:true" json:"isActive"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplier struct {
	Kode     string `json:"kode" binding:"required"`
	Nama     string `json:"nama" binding:"required"`
	Alamat   string `json:"alamat"`
	Kota     string `json:"kota"`
	NoTelp   string `json:"noTelp"`
	Email    string `json:"email"`
	Kontak   string `json:"kontak"`
	IsActive *bool  `json:"isActive"`
}

func validateSupplierInput(input *NewSupplier) error {
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return utils.NewValidationError("invalid email address: %s", input.Email)
	}
	if input.NoTelp != "" {
		if err := utils.ValidatePhoneNumber(input.NoTelp, utils.CountryCode); err != nil {
			return utils.NewValidationError("invalid phone number: %s", input.NoTelp)
		}
	}
	return nil
}

func CreateSupplier(ctx context.Context, input *NewSupplier) (*Supplier, error) {
	if err := validateSupplierInput(input); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Supplier](ctx, "kode", input.Kode, 0); err != nil {
		return nil, err
	}

	supplier := &Supplier{
		Kode:     input.Kode,
		Nama:     input.Nama,
		Alamat:   input.Alamat,
		Kota:     input.Kota,
		NoTelp:   input.NoTelp,
		Email:    input.Email,
		Kontak:   input.Kontak,
		IsActive: utils.NewTrue(),
	}
	if input.IsActive != nil {
		supplier.IsActive = input.IsActive
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(supplier).Error; err != nil {
		return nil, err
	}
	_ = utils.RemoveRedisList[Supplier]()
	return supplier, nil
}

func UpdateSupplier(ctx context.Context, id int, input *NewSupplier) (*Supplier, error) {
	if err := validateSupplierInput(input); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Supplier](ctx, "kode", input.Kode, id); err != nil {
		return nil, err
	}

	supplier, err := utils.FetchModel[Supplier](ctx, id)
	if err != nil {
		return nil, err
	}
	supplier.Kode = input.Kode
	supplier.Nama = input.Nama
	supplier.Alamat = input.Alamat
	supplier.Kota = input.Kota
	supplier.NoTelp = input.NoTelp
	supplier.Email = input.Email
	supplier.Kontak = input.Kontak
	if input.IsActive != nil {
		supplier.IsActive = input.IsActive
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(supplier).Error; err != nil {
		return nil, err
	}
	_ = utils.RemoveRedisList[Supplier]()
	_ = utils.RemoveRedisItem[Supplier](id)
	return supplier, nil
}

func DeleteSupplier(ctx context.Context, id int) (*Supplier, error) {
	supplier, err := utils.FetchModel[Supplier](ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[PembelianObat](ctx, "supplier_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewConflictError("supplier %s masih dipakai oleh %d pembelian", supplier.Nama, count)
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(supplier).Error; err != nil {
		return nil, err
	}
	_ = utils.RemoveRedisList[Supplier]()
	_ = utils.RemoveRedisItem[Supplier](id)
	return supplier, nil
}

// FetchSupplier reads through the per-item cache; updates and deletes
// invalidate the entry.
func FetchSupplier(ctx context.Context, id int) (*Supplier, error) {
	if cached, err := utils.RetrieveRedis[Supplier](id); err == nil && cached != nil {
		return cached, nil
	}
	supplier, err := utils.FetchModel[Supplier](ctx, id)
	if err != nil {
		return nil, err
	}
	_ = utils.StoreRedis[Supplier](supplier, id)
	return supplier, nil
}

func ListSuppliers(ctx context.Context) ([]*Supplier, error) {
	if cached, err := utils.RetrieveRedisList[Supplier](); err == nil && cached != nil {
		return cached, nil
	}
	suppliers, err := utils.FetchAllModels[Supplier](ctx)
	if err != nil {
		return nil, err
	}
	_ = utils.StoreRedisList[Supplier](suppliers)
	return suppliers, nil
}
