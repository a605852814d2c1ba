// Package spatial resolves coordinate reference systems and moves region
// polygons between them.
package spatial

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ctessum/geom/proj"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
)

const (
	wgs84Proj4    = "+proj=longlat +datum=WGS84 +no_defs"
	webMercProj4  = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs"
	epsgPrefix    = "EPSG:"
	wktCodePrefix = "WKT:"
)

// epsgDefinitions holds the authority codes the pipelines meet in practice.
// UTM zones on WGS84 are derived in epsgDefinition.
var epsgDefinitions = map[int]string{
	4326: wgs84Proj4,
	3857: webMercProj4,
	4269: "+proj=longlat +datum=NAD83 +no_defs",
}

var (
	epsgPattern      = regexp.MustCompile(`(?i)^epsg:\s*(\d+)$`)
	wktAuthority     = regexp.MustCompile(`(?i)AUTHORITY\[\s*"EPSG"\s*,\s*"?(\d+)"?\s*\]\s*\]\s*$`)
	wktUTMZone       = regexp.MustCompile(`(?i)UTM[_ ]zone[_ ](\d{1,2})([NS])`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
	wgs84DatumMarker = regexp.MustCompile(`(?i)DATUM\[\s*"(D_)?WGS_?1984"`)
)

// ParseRef resolves an "EPSG:<n>" code, a PROJ.4 string, or a WKT
// definition (the content of a .prj file) into a SpatialRef. Anything the
// projection library cannot parse is a configuration error.
func ParseRef(text string) (domain.SpatialRef, error) {
	text = strings.TrimSpace(strings.TrimPrefix(text, "\uFEFF"))
	if text == "" {
		return domain.SpatialRef{}, fmt.Errorf("%w: empty spatial reference", domain.ErrConfig)
	}

	var ref domain.SpatialRef
	switch {
	case epsgPattern.MatchString(text):
		code, _ := strconv.Atoi(epsgPattern.FindStringSubmatch(text)[1])
		def, ok := epsgDefinition(code)
		if !ok {
			return domain.SpatialRef{}, fmt.Errorf("%w: unsupported spatial reference EPSG:%d", domain.ErrConfig, code)
		}
		ref = domain.SpatialRef{Code: epsgPrefix + strconv.Itoa(code), Definition: def}
	case strings.HasPrefix(text, "+"):
		ref = domain.SpatialRef{Code: proj4Code(text), Definition: text}
	default:
		ref = domain.SpatialRef{Code: wktCode(text), Definition: text}
	}

	if _, err := proj.Parse(ref.Definition); err != nil {
		return domain.SpatialRef{}, fmt.Errorf("%w: parse spatial reference %q: %v", domain.ErrConfig, ref.Code, err)
	}
	return ref, nil
}

// EPSG builds the reference for an authority code, as found in GeoTIFF keys.
func EPSG(code int) (domain.SpatialRef, error) {
	return ParseRef(epsgPrefix + strconv.Itoa(code))
}

func epsgDefinition(code int) (string, bool) {
	if def, ok := epsgDefinitions[code]; ok {
		return def, true
	}
	switch {
	case code >= 32601 && code <= 32660:
		return fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", code-32600), true
	case code >= 32701 && code <= 32760:
		return fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84 +units=m +no_defs", code-32700), true
	}
	return "", false
}

// proj4Code maps a PROJ.4 string onto a known EPSG code when its parameters
// match one, and otherwise onto its sorted parameter list so that parameter
// order does not affect equality.
func proj4Code(def string) string {
	params := proj4Params(def)
	for code, known := range epsgDefinitions {
		if params == proj4Params(known) {
			return epsgPrefix + strconv.Itoa(code)
		}
	}
	for zone := 1; zone <= 60; zone++ {
		for _, base := range []int{32600, 32700} {
			known, _ := epsgDefinition(base + zone)
			if params == proj4Params(known) {
				return epsgPrefix + strconv.Itoa(base+zone)
			}
		}
	}
	return params
}

func proj4Params(def string) string {
	fields := strings.Fields(def)
	kept := fields[:0]
	for _, f := range fields {
		if f == "+no_defs" || f == "+wktext" || f == "+type=crs" {
			continue
		}
		kept = append(kept, f)
	}
	sort.Strings(kept)
	return strings.Join(kept, " ")
}

// wktCode identifies a WKT definition. A trailing EPSG authority wins; a
// geographic WGS84 definition is EPSG:4326 and a WGS84 UTM projection maps
// to its zone code, which covers the ESRI-flavoured .prj files shipped with
// shapefiles. Anything else is identified by its whitespace-normalised text.
func wktCode(def string) string {
	if m := wktAuthority.FindStringSubmatch(def); m != nil {
		return epsgPrefix + m[1]
	}
	upper := strings.ToUpper(strings.TrimSpace(def))
	if wgs84DatumMarker.MatchString(def) {
		if strings.HasPrefix(upper, "GEOGCS[") || strings.HasPrefix(upper, "GEOGCRS[") {
			return epsgPrefix + "4326"
		}
		if m := wktUTMZone.FindStringSubmatch(def); m != nil {
			zone, _ := strconv.Atoi(m[1])
			base := 32600
			if strings.EqualFold(m[2], "S") {
				base = 32700
			}
			return epsgPrefix + strconv.Itoa(base+zone)
		}
	}
	return wktCodePrefix + whitespaceRun.ReplaceAllString(strings.TrimSpace(def), " ")
}
