package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixRegionName(t *testing.T) {
	t.Run("malformed spelling replaced", func(t *testing.T) {
		assert.Equal(t, "Ouémé", FixRegionName("OuÃ©mÃ©"))
	})

	t.Run("fix applies inside a longer value", func(t *testing.T) {
		assert.Equal(t, "Département de l'Ouémé", FixRegionName("Département de l'OuÃ©mÃ©"))
	})

	t.Run("other names unchanged", func(t *testing.T) {
		for _, name := range []string{"Alibori", "Atakora", "Atlantique", "Borgou", "Collines", "Kouffo", "Donga", "Littoral", "Mono", "Ouémé", "Plateau", "Zou", ""} {
			assert.Equal(t, name, FixRegionName(name))
		}
	})

	t.Run("partial sequence unchanged", func(t *testing.T) {
		assert.Equal(t, "OuÃ©", FixRegionName("OuÃ©"))
	})
}

func TestRegionNameFixesTable(t *testing.T) {
	assert.Equal(t, map[string]string{"OuÃ©mÃ©": "Ouémé"}, regionNameFixes)
}
