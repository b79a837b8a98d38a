package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jbernadas/islalist-pwa/internal/models"
)

func TestParseScope(t *testing.T) {
	cases := []struct {
		name      string
		p, m, b   string
		level     models.LocationLevel
		key       string
		truncated bool
	}{
		{name: "nothing", level: models.LocationLevelNone, key: "all"},
		{name: "province", p: codeP1, level: models.LocationLevelProvince, key: "p:" + codeP1},
		{name: "municipality", p: codeP1, m: codeM1, level: models.LocationLevelMunicipality, key: "p:" + codeP1 + "/m:" + codeM1},
		{name: "barangay", p: codeP1, m: codeM1, b: codeB1, level: models.LocationLevelBarangay, key: "p:" + codeP1 + "/m:" + codeM1 + "/b:" + codeB1},
		{name: "municipality without province", m: codeM1, level: models.LocationLevelNone, key: "all", truncated: true},
		{name: "barangay without province", b: codeB1, level: models.LocationLevelNone, key: "all", truncated: true},
		{name: "barangay without municipality", p: codeP1, b: codeB1, level: models.LocationLevelProvince, key: "p:" + codeP1, truncated: true},
		{name: "whitespace only", p: "  ", m: "\t", level: models.LocationLevelNone, key: "all"},
		{name: "trims codes", p: " " + codeP1 + " ", level: models.LocationLevelProvince, key: "p:" + codeP1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := ParseScope(tc.p, tc.m, tc.b)
			assert.Equal(t, tc.level, s.Level())
			assert.Equal(t, tc.key, s.Key())
			assert.Equal(t, tc.truncated, s.Truncated())
		})
	}
}

func TestParseScopeKeepsCodesVerbatim(t *testing.T) {
	s := ParseScope("Abc", "dEf", "")
	assert.Equal(t, "Abc", s.ProvinceCode())
	assert.Equal(t, "dEf", s.MunicipalityCode())
	assert.Empty(t, s.BarangayCode())
}
