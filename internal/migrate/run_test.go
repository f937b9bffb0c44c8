package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedded_SortedByFileName(t *testing.T) {
	all, err := embedded()
	require.NoError(t, err)
	require.NotEmpty(t, all)

	versions := make([]string, len(all))
	for i, m := range all {
		versions[i] = m.Version
	}
	assert.Equal(t, []string{"0001_barns_users", "0002_barn_switch_seq"}, versions)
}
