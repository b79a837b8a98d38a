package visibility

import (
	"context"
	"errors"

	"github.com/jbernadas/islalist-pwa/internal/models"
)

type fakeDirectory struct {
	provinces      []models.Province
	municipalities []models.Municipality
	barangays      []models.Barangay
	err            error
	calls          int
}

func (d *fakeDirectory) FindProvince(ctx context.Context, code string) (*models.Province, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	for i := range d.provinces {
		if d.provinces[i].Code == code {
			return &d.provinces[i], nil
		}
	}
	return nil, nil
}

func (d *fakeDirectory) FindMunicipality(ctx context.Context, code, provinceID string) (*models.Municipality, error) {
	d.calls++
	for i := range d.municipalities {
		m := d.municipalities[i]
		if m.Code == code && m.ProvinceID == provinceID {
			return &d.municipalities[i], nil
		}
	}
	return nil, nil
}

func (d *fakeDirectory) FindBarangay(ctx context.Context, code, municipalityID string) (*models.Barangay, error) {
	d.calls++
	for i := range d.barangays {
		b := d.barangays[i]
		if b.Code == code && b.MunicipalityID == municipalityID {
			return &d.barangays[i], nil
		}
	}
	return nil, nil
}

var errDirectoryDown = errors.New("directory down")

// Codes follow the PSGC layout used in production data.
const (
	codeP1 = "112300000"
	codeP2 = "112400000"
	codeM1 = "112314000"
	codeM2 = "112302000"
	codeM3 = "112401000"
	codeB1 = "112314001"
	codeB2 = "112314002"
	codeB3 = "112302001"
)

func newDirectory() *fakeDirectory {
	return &fakeDirectory{
		provinces: []models.Province{
			{ID: "p1", Code: codeP1, Name: "Davao del Norte", Active: true},
			{ID: "p2", Code: codeP2, Name: "Davao de Oro", Active: true},
		},
		municipalities: []models.Municipality{
			{ID: "m1", Code: codeM1, Name: "City of Tagum", ProvinceID: "p1", Kind: models.MunicipalityKindCity, Active: true},
			{ID: "m2", Code: codeM2, Name: "Asuncion", ProvinceID: "p1", Kind: models.MunicipalityKindMunicipality, Active: true},
			{ID: "m3", Code: codeM3, Name: "Compostela", ProvinceID: "p2", Kind: models.MunicipalityKindMunicipality, Active: true},
		},
		barangays: []models.Barangay{
			{ID: "b1", Code: codeB1, Name: "Apokon", MunicipalityID: "m1"},
			{ID: "b2", Code: codeB2, Name: "Bincungan", MunicipalityID: "m1"},
			{ID: "b3", Code: codeB3, Name: "Binancian", MunicipalityID: "m2"},
		},
	}
}

func ref(id string) *string { return &id }

func loc(province, municipality, barangay string) models.Location {
	var l models.Location
	if province != "" {
		l.ProvinceID = ref(province)
	}
	if municipality != "" {
		l.MunicipalityID = ref(municipality)
	}
	if barangay != "" {
		l.BarangayID = ref(barangay)
	}
	return l
}
