package domain

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// knownMisdecodedNames lists department names observed upstream with their
// UTF-8 bytes read back as Latin-1.
var knownMisdecodedNames = []string{"Ouémé"}

// regionNameFixes maps each malformed spelling to the correct one,
// e.g. "OuÃ©mÃ©" -> "Ouémé".
var regionNameFixes = buildRegionNameFixes(knownMisdecodedNames)

func buildRegionNameFixes(names []string) map[string]string {
	fixes := make(map[string]string, len(names))
	for _, name := range names {
		bad, err := charmap.ISO8859_1.NewDecoder().String(name)
		if err != nil || bad == name {
			continue
		}
		fixes[bad] = name
	}
	return fixes
}

// FixRegionName replaces the known malformed spellings inside name and
// returns every other name unchanged.
func FixRegionName(name string) string {
	for bad, good := range regionNameFixes {
		if strings.Contains(name, bad) {
			name = strings.ReplaceAll(name, bad, good)
		}
	}
	return name
}
