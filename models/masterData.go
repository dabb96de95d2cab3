package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/apotek_backend/config"
	"bitbucket.org/mmdatafocus/apotek_backend/utils"
)

// Referensi is the shared shape of the simple reference tables
// (drug category, drug class, dosage form, unit, position, department).
// These have no derived state; the inventory core only validates against them.
type Referensi struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Kode      string    `gorm:"size:20;uniqueIndex;not null" json:"kode" binding:"required"`
	Nama      string    `gorm:"size:100;not null" json:"nama" binding:"required"`
	Deskripsi string    `gorm:"type:text" json:"deskripsi"`
	IsActive  *bool     `gorm:"not null;default:true" json:"isActive"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type KategoriObat struct {
	Referensi
}

type GolonganObat struct {
	Referensi
}

type BentukSediaan struct {
	Referensi
}

type Satuan struct {
	Referensi
}

type Jabatan struct {
	Referensi
}

type UnitKerja struct {
	Referensi
}

type NewReferensi struct {
	Kode      string `json:"kode" binding:"required"`
	Nama      string `json:"nama" binding:"required"`
	Deskripsi string `json:"deskripsi"`
	IsActive  *bool  `json:"isActive"`
}

// referensiPtr lets the generic CRUD below reach the embedded Referensi
// of any concrete reference type.
type referensiPtr[T any] interface {
	*T
	Ref() *Referensi
}

func (r *KategoriObat) Ref() *Referensi  { return &r.Referensi }
func (r *GolonganObat) Ref() *Referensi  { return &r.Referensi }
func (r *BentukSediaan) Ref() *Referensi { return &r.Referensi }
func (r *Satuan) Ref() *Referensi        { return &r.Referensi }
func (r *Jabatan) Ref() *Referensi       { return &r.Referensi }
func (r *UnitKerja) Ref() *Referensi     { return &r.Referensi }

func CreateReferensi[T any, PT referensiPtr[T]](ctx context.Context, input *NewReferensi) (*T, error) {
	if err := utils.ValidateUnique[T](ctx, "kode", input.Kode, 0); err != nil {
		return nil, err
	}

	var model T
	ref := PT(&model).Ref()
	ref.Kode = input.Kode
	ref.Nama = input.Nama
	ref.Deskripsi = input.Deskripsi
	if input.IsActive != nil {
		ref.IsActive = input.IsActive
	} else {
		ref.IsActive = utils.NewTrue()
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, err
	}
	// stale list cache
	_ = utils.RemoveRedisList[T]()
	return &model, nil
}

func UpdateReferensi[T any, PT referensiPtr[T]](ctx context.Context, id int, input *NewReferensi) (*T, error) {
	if err := utils.ValidateUnique[T](ctx, "kode", input.Kode, id); err != nil {
		return nil, err
	}

	model, err := utils.FetchModel[T](ctx, id)
	if err != nil {
		return nil, err
	}
	ref := PT(model).Ref()
	ref.Kode = input.Kode
	ref.Nama = input.Nama
	ref.Deskripsi = input.Deskripsi
	if input.IsActive != nil {
		ref.IsActive = input.IsActive
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(model).Error; err != nil {
		return nil, err
	}
	_ = utils.RemoveRedisList[T]()
	_ = utils.RemoveRedisItem[T](id)
	return model, nil
}

func DeleteReferensi[T any](ctx context.Context, id int) (*T, error) {
	model, err := utils.FetchModel[T](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(model).Error; err != nil {
		return nil, err
	}
	_ = utils.RemoveRedisList[T]()
	_ = utils.RemoveRedisItem[T](id)
	return model, nil
}

// ListReferensi returns all rows of a reference type, served from the Redis
// list cache when warm.
func ListReferensi[T any](ctx context.Context) ([]*T, error) {
	if cached, err := utils.RetrieveRedisList[T](); err == nil && cached != nil {
		return cached, nil
	}
	results, err := utils.FetchAllModels[T](ctx)
	if err != nil {
		return nil, err
	}
	_ = utils.StoreRedisList[T](results)
	return results, nil
}
