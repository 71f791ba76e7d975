package memsim_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/heapsim/seglist"
	"github.com/heapsim/seglist/memsim"
)

func TestSbrkAdvancesBreak(t *testing.T) {
	sim := memsim.New(64 * 1024)

	old, err := sim.Sbrk(4096)
	require.NoError(t, err)
	require.Equal(t, 0, old)
	require.Equal(t, 4096, sim.Size())
	require.Len(t, sim.Region(), 4096)

	old, err = sim.Sbrk(100)
	require.NoError(t, err)
	require.Equal(t, 4096, old)
	require.Equal(t, 4196, sim.Size())
}

func TestCapacityRoundsToPages(t *testing.T) {
	sim := memsim.New(5000)
	require.Equal(t, 8192, sim.Capacity())

	sim = memsim.New(0)
	require.Equal(t, memsim.DefaultMaxSize, sim.Capacity())
}

func TestSbrkRefusesGrowthPastCapacity(t *testing.T) {
	sim := memsim.New(4096)

	_, err := sim.Sbrk(4096)
	require.NoError(t, err)

	_, err = sim.Sbrk(1)
	require.Error(t, err)
	require.True(t, errors.Is(err, seglist.ErrOutOfMemory))
	require.Equal(t, 4096, sim.Size())
}

func TestSbrkRefusesNonPositiveIncrement(t *testing.T) {
	sim := memsim.New(4096)

	_, err := sim.Sbrk(0)
	require.True(t, errors.Is(err, seglist.ErrOutOfMemory))

	_, err = sim.Sbrk(-8)
	require.True(t, errors.Is(err, seglist.ErrOutOfMemory))
	require.Equal(t, 0, sim.Size())
}

func TestRegionStorageIsStableAcrossGrowth(t *testing.T) {
	sim := memsim.New(64 * 1024)

	_, err := sim.Sbrk(4096)
	require.NoError(t, err)

	region := sim.Region()
	region[100] = 0xAB

	_, err = sim.Sbrk(4096)
	require.NoError(t, err)
	require.Equal(t, byte(0xAB), sim.Region()[100])
}

func TestReset(t *testing.T) {
	sim := memsim.New(64 * 1024)

	_, err := sim.Sbrk(4096)
	require.NoError(t, err)

	sim.Reset()
	require.Equal(t, 0, sim.Size())

	old, err := sim.Sbrk(4096)
	require.NoError(t, err)
	require.Equal(t, 0, old)
}
