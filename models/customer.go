package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/apotek_backend/config"
	"bitbucket.org/mmdatafocus/apotek_backend/utils"
)

type Customer struct {
	ID           int        `gorm:"primary_key" json:"id"`
	Kode         string     `gorm:"size:20;uniqueIndex;not null" json:"kode" binding:"required"`
	Nama         string     `gorm:"size:100;not null" json:"nama" binding:"required"`
	Alamat       string     `gorm:"type:text" json:"alamat"`
	NoTelp       string     `gorm:"size:20" json:"noTelp"`
	Email        string     `gorm:"size:100" json:"email"`
	TanggalLahir *time.Time `json:"tanggalLahir"`
	JenisKelamin string     `gorm:"size:1" json:"jenisKelamin"`
	IsActive     *bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Kode         string     `json:"kode" binding:"required"`
	Nama         string     `json:"nama" binding:"required"`
	Alamat       string     `json:"alamat"`
	NoTelp       string     `json:"noTelp"`
	Email        string     `json:"email"`
	TanggalLahir *time.Time `json:"tanggalLahir"`
	JenisKelamin string     `json:"jenisKelamin"`
	IsActive     *bool      `json:"isActive"`
}

func validateCustomerInput(input *NewCustomer) error {
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return utils.NewValidationError("invalid email address: %s", input.Email)
	}
	if input.NoTelp != "" {
		if err := utils.ValidatePhoneNumber(input.NoTelp, utils.CountryCode); err != nil {
			return utils.NewValidationError("invalid phone number: %s", input.NoTelp)
		}
	}
	if input.JenisKelamin != "" && input.JenisKelamin != "L" && input.JenisKelamin != "P" {
		return utils.NewValidationError("jenisKelamin must be L or P")
	}
	return nil
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	if err := validateCustomerInput(input); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Customer](ctx, "kode", input.Kode, 0); err != nil {
		return nil, err
	}

	customer := &Customer{
		Kode:         input.Kode,
		Nama:         input.Nama,
		Alamat:       input.Alamat,
		NoTelp:       input.NoTelp,
		Email:        input.Email,
		TanggalLahir: input.TanggalLahir,
		JenisKelamin: input.JenisKelamin,
		IsActive:     utils.NewTrue(),
	}
	if input.IsActive != nil {
		customer.IsActive = input.IsActive
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func UpdateCustomer(ctx context.Context, id int, input *NewCustomer) (*Customer, error) {
	if err := validateCustomerInput(input); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Customer](ctx, "kode", input.Kode, id); err != nil {
		return nil, err
	}

	customer, err := utils.FetchModel[Customer](ctx, id)
	if err != nil {
		return nil, err
	}
	customer.Kode = input.Kode
	customer.Nama = input.Nama
	customer.Alamat = input.Alamat
	customer.NoTelp = input.NoTelp
	customer.Email = input.Email
	customer.TanggalLahir = input.TanggalLahir
	customer.JenisKelamin = input.JenisKelamin
	if input.IsActive != nil {
		customer.IsActive = input.IsActive
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func DeleteCustomer(ctx context.Context, id int) (*Customer, error) {
	customer, err := utils.FetchModel[Customer](ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[Transaksi](ctx, "customer_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewConflictError("customer %s masih dipakai oleh %d transaksi", customer.Nama, count)
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func ListCustomers(ctx context.Context, params ListParams) ([]*Customer, *Pagination, error) {
	params.Normalize("nama ASC")

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Customer{})
	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		dbCtx = dbCtx.Where("nama LIKE ? OR kode LIKE ? OR no_telp LIKE ?", pattern, pattern, pattern)
	}

	var customers []*Customer
	pagination, err := paginate(dbCtx, params, &customers)
	if err != nil {
		return nil, nil, err
	}
	return customers, pagination, nil
}
