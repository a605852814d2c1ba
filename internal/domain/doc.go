// Package domain models the demographic, educational, and geospatial
// indicators collected for a single target country (Benin by default).
//
// # Data Sources
//
// World Bank indicators are published as ZIP archives at
// https://api.worldbank.org/v2/en/indicator/<code>?downloadformat=csv. The
// archive holds a data member named "API_<code>_DS2_..." plus two
// "Metadata_*" members. The data CSV starts with four metadata lines; the
// fifth line is the header:
//
//	"Country Name","Country Code","Indicator Name","Indicator Code","1960",...,"2024",
//
// Missing observations are empty cells. A trailing comma produces one empty
// column name, which is ignored.
//
// DHS Program indicators come from https://api.dhsprogram.com/rest/dhs/data
// as JSON: {"Data":[{"IndicatorId":"CM_ECMR_C_IMR","SurveyYear":2017,
// "Value":55.0,"IsPreferred":1,...}]}. Several rows may share a survey year
// and indicator (breakdowns, non-preferred estimates); only rows with
// IsPreferred == 1 are kept and duplicates are averaged.
//
// WorldPop population rasters are GeoTIFFs named like
// "ben_ppp_2020_UNadj.tif": the year is the "_"-separated token made of
// exactly four digits. Each cell holds an estimated head count; the no-data
// value (usually -99999) marks cells outside the surveyed area.
//
// Natural Earth admin-1 boundaries ("ne_10m_admin_1_states_provinces") carry
// the department name in the "name" field and the country in "admin".
//
// UN World Population Prospects data is an Excel workbook whose "Estimates"
// sheet has sixteen banner rows above the header.
//
// # Zonal Aggregation
//
// A department's population for a year is the sum of the raster cells whose
// centre lies inside the department polygon, after the polygon has been
// expressed in the raster's spatial reference. Cells equal to the no-data
// value, NaN cells, and negative cells contribute nothing. A polygon that
// does not touch the raster contributes zero, not an error.
//
// # Known Defects
//
// The Natural Earth attribute table is sometimes decoded as Latin-1 upstream,
// turning "Ouémé" into "OuÃ©mÃ©". [FixRegionName] substitutes the exact
// malformed spelling; it is not a general encoding repair.
package domain
