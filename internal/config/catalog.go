package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
)

// Catalog lists the indicators each pipeline requests and the column name
// each one takes in its output table.
type Catalog struct {
	WorldBank []domain.IndicatorSpec `yaml:"worldbank"`
	Education []domain.IndicatorSpec `yaml:"education"`
	DHS       []domain.IndicatorSpec `yaml:"dhs"`
}

// DefaultCatalog returns the built-in indicator lists.
func DefaultCatalog() Catalog {
	return Catalog{
		WorldBank: []domain.IndicatorSpec{
			{
				Code:   "SE.PRM.PRSL.MA.ZS",
				Column: "Persistance_Scolaire_Garcons_Primaire",
				Output: "wb_persistence_male_primary_benin.csv",
			},
		},
		Education: []domain.IndicatorSpec{
			{Code: "SE.PRM.ENRR", Column: "tx_scolarisation_primaire_brut"},
			{Code: "SE.PRM.ENRR.FE", Column: "tx_scolarisation_primaire_feminin"},
			{Code: "SE.PRM.TCAQ.ZS", Column: "pct_enseignants_formes"},
			{Code: "SE.PRM.TCAQ.FE.ZS", Column: "pct_enseignantes_formees"},
			{Code: "SE.PRM.TCAQ.MA.ZS", Column: "pct_enseignants_hommes_formes"},
			{Code: "SE.PRM.PRSL.MA.ZS", Column: "tx_persistance_primaire_masculin"},
		},
		DHS: []domain.IndicatorSpec{
			{Code: "HC_ELEC_H_ELC", Column: "pct_menages_electricite"},
			{Code: "ED_LITR_W_LIT", Column: "pct_alphab_femmes"},
			{Code: "CM_ECMR_C_IMR", Column: "tx_mortalite_infantile"},
			{Code: "WS_SRCE_H_IMP", Column: "pct_acces_eau_potable"},
		},
	}
}

// LoadCatalog reads a YAML catalog from path. An empty path yields the
// defaults; a section left out of the file keeps its default list.
func LoadCatalog(path string) (Catalog, error) {
	cat := DefaultCatalog()
	if path == "" {
		return cat, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read INDICATOR_CATALOG: %w", err)
	}
	var file Catalog
	if err := yaml.Unmarshal(b, &file); err != nil {
		return Catalog{}, fmt.Errorf("parse INDICATOR_CATALOG %s: %w", path, err)
	}
	if file.WorldBank != nil {
		cat.WorldBank = file.WorldBank
	}
	if file.Education != nil {
		cat.Education = file.Education
	}
	if file.DHS != nil {
		cat.DHS = file.DHS
	}

	for section, specs := range map[string][]domain.IndicatorSpec{
		"worldbank": cat.WorldBank,
		"education": cat.Education,
		"dhs":       cat.DHS,
	} {
		if err := validateSpecs(specs); err != nil {
			return Catalog{}, fmt.Errorf("INDICATOR_CATALOG %s: %w", section, err)
		}
	}
	return cat, nil
}

func validateSpecs(specs []domain.IndicatorSpec) error {
	if len(specs) == 0 {
		return fmt.Errorf("%w: no indicators listed", domain.ErrConfig)
	}
	columns := make(map[string]struct{}, len(specs))
	for i, s := range specs {
		if s.Code == "" || s.Column == "" {
			return fmt.Errorf("%w: entry %d needs both code and column", domain.ErrConfig, i)
		}
		if _, dup := columns[s.Column]; dup {
			return fmt.Errorf("%w: column %q listed twice", domain.ErrConfig, s.Column)
		}
		columns[s.Column] = struct{}{}
	}
	return nil
}
