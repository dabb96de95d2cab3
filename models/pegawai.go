package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/apotek_backend/config"
	"bitbucket.org/mmdatafocus/apotek_backend/utils"
)

type Pegawai struct {
	ID           int        `gorm:"primary_key" json:"id"`
	NIP          string     `gorm:"column:nip;size:30;uniqueIndex;not null" json:"nip" binding:"required"`
	Nama         string     `gorm:"size:100;not null" json:"nama" binding:"required"`
	JabatanId    int        `gorm:"not null" json:"jabatanId"`
	Jabatan      *Jabatan   `json:"jabatan,omitempty"`
	UnitKerjaId  int        `gorm:"not null" json:"unitKerjaId"`
	UnitKerja    *UnitKerja `json:"unitKerja,omitempty"`
	UserId       *int       `gorm:"uniqueIndex" json:"userId"`
	User         *User      `json:"user,omitempty"`
	Alamat       string     `gorm:"type:text" json:"alamat"`
	NoTelp       string     `gorm:"size:20" json:"noTelp"`
	TanggalMasuk *time.Time `json:"tanggalMasuk"`
	Status       string     `gorm:"size:20;not null;default:aktif" json:"status"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

const (
	PegawaiStatusAktif    = "aktif"
	PegawaiStatusNonAktif = "non-aktif"
	PegawaiStatusCuti     = "cuti"
)

type NewPegawai struct {
	NIP          string     `json:"nip" binding:"required"`
	Nama         string     `json:"nama" binding:"required"`
	JabatanId    int        `json:"jabatanId" binding:"required"`
	UnitKerjaId  int        `json:"unitKerjaId" binding:"required"`
	UserId       *int       `json:"userId"`
	Alamat       string     `json:"alamat"`
	NoTelp       string     `json:"noTelp"`
	TanggalMasuk *time.Time `json:"tanggalMasuk"`
	Status       string     `json:"status"`
}

func validPegawaiStatus(status string) bool {
	switch status {
	case PegawaiStatusAktif, PegawaiStatusNonAktif, PegawaiStatusCuti:
		return true
	}
	return false
}

func validatePegawaiInput(ctx context.Context, input *NewPegawai) error {
	if err := utils.ValidateResourceId[Jabatan](ctx, input.JabatanId); err != nil {
		return utils.NewValidationError("jabatan with ID %d not found", input.JabatanId)
	}
	if err := utils.ValidateResourceId[UnitKerja](ctx, input.UnitKerjaId); err != nil {
		return utils.NewValidationError("unit kerja with ID %d not found", input.UnitKerjaId)
	}
	if input.UserId != nil {
		if err := utils.ValidateResourceId[User](ctx, *input.UserId); err != nil {
			return utils.NewValidationError("user with ID %d not found", *input.UserId)
		}
	}
	if input.NoTelp != "" {
		if err := utils.ValidatePhoneNumber(input.NoTelp, utils.CountryCode); err != nil {
			return utils.NewValidationError("invalid phone number: %s", input.NoTelp)
		}
	}
	if input.Status != "" && !validPegawaiStatus(input.Status) {
		return utils.NewValidationError("unknown status: %s", input.Status)
	}
	return nil
}

func CreatePegawai(ctx context.Context, input *NewPegawai) (*Pegawai, error) {
	if err := validatePegawaiInput(ctx, input); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Pegawai](ctx, "nip", input.NIP, 0); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = PegawaiStatusAktif
	}
	pegawai := &Pegawai{
		NIP:          input.NIP,
		Nama:         input.Nama,
		JabatanId:    input.JabatanId,
		UnitKerjaId:  input.UnitKerjaId,
		UserId:       input.UserId,
		Alamat:       input.Alamat,
		NoTelp:       input.NoTelp,
		TanggalMasuk: input.TanggalMasuk,
		Status:       status,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(pegawai).Error; err != nil {
		return nil, err
	}
	return pegawai, nil
}

func UpdatePegawai(ctx context.Context, id int, input *NewPegawai) (*Pegawai, error) {
	if err := validatePegawaiInput(ctx, input); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Pegawai](ctx, "nip", input.NIP, id); err != nil {
		return nil, err
	}

	pegawai, err := utils.FetchModel[Pegawai](ctx, id)
	if err != nil {
		return nil, err
	}
	pegawai.NIP = input.NIP
	pegawai.Nama = input.Nama
	pegawai.JabatanId = input.JabatanId
	pegawai.UnitKerjaId = input.UnitKerjaId
	pegawai.UserId = input.UserId
	pegawai.Alamat = input.Alamat
	pegawai.NoTelp = input.NoTelp
	pegawai.TanggalMasuk = input.TanggalMasuk
	if input.Status != "" {
		pegawai.Status = input.Status
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(pegawai).Error; err != nil {
		return nil, err
	}
	return pegawai, nil
}

func DeletePegawai(ctx context.Context, id int) (*Pegawai, error) {
	pegawai, err := utils.FetchModel[Pegawai](ctx, id)
	if err != nil {
		return nil, err
	}

	salesCount, err := utils.ResourceCountWhere[Transaksi](ctx, "pegawai_id = ?", id)
	if err != nil {
		return nil, err
	}
	purchaseCount, err := utils.ResourceCountWhere[PembelianObat](ctx, "pegawai_id = ?", id)
	if err != nil {
		return nil, err
	}
	if salesCount+purchaseCount > 0 {
		return nil, utils.NewConflictError("pegawai %s masih dipakai oleh %d dokumen", pegawai.Nama, salesCount+purchaseCount)
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(pegawai).Error; err != nil {
		return nil, err
	}
	return pegawai, nil
}

func FetchPegawai(ctx context.Context, id int) (*Pegawai, error) {
	return utils.FetchModel[Pegawai](ctx, id, "Jabatan", "UnitKerja", "User")
}

func ListPegawai(ctx context.Context, params ListParams) ([]*Pegawai, *Pagination, error) {
	params.Normalize("nama ASC")

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Pegawai{}).
		Preload("Jabatan").Preload("UnitKerja")
	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		dbCtx = dbCtx.Where("nama LIKE ? OR nip LIKE ?", pattern, pattern)
	}

	var pegawai []*Pegawai
	pagination, err := paginate(dbCtx, params, &pegawai)
	if err != nil {
		return nil, nil, err
	}
	return pegawai, pagination, nil
}

// FindPegawaiByUserId resolves the employee record linked to a login
// account. Documents created without an explicit pegawaiId default to the
// caller's own record.
func FindPegawaiByUserId(ctx context.Context, userId int) (*Pegawai, error) {
	db := config.GetDB()

	var pegawai Pegawai
	err := db.WithContext(ctx).Where("user_id = ?", userId).First(&pegawai).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pegawai, nil
}
