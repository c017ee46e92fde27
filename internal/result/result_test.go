package result

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/fluxtrace/fluxtrace/internal/accum"
	"github.com/fluxtrace/fluxtrace/internal/geom"
)

func TestFromAccumulatorCopiesArrays(t *testing.T) {
	acc := accum.New(3)
	acc.Deposit(geom.PrimId(1), 0.5)
	acc.SetExposedAreas([]float64{1, 2, 3})

	r := FromAccumulator(acc)
	if r.Deposited[1] != 0.5 {
		t.Errorf("Deposited[1] = %v, want 0.5", r.Deposited[1])
	}
	if r.ExposedArea[2] != 3 {
		t.Errorf("ExposedArea[2] = %v, want 3", r.ExposedArea[2])
	}

	// Mutating the source accumulator afterward must not affect the
	// already-built Result (FromAccumulator copies).
	acc.Deposit(geom.PrimId(1), 10)
	if r.Deposited[1] != 0.5 {
		t.Errorf("Result.Deposited should be an independent copy, got %v", r.Deposited[1])
	}
}

func TestTotalDepositedSums(t *testing.T) {
	r := Result{Deposited: []float64{0.1, 0.2, 0.3}}
	if got := r.TotalDeposited(); got < 0.599 || got > 0.601 {
		t.Errorf("TotalDeposited() = %v, want ~0.6", got)
	}
}

func TestFromAccumulatorStampsAParsableRunID(t *testing.T) {
	r := FromAccumulator(accum.New(1))
	_, err := uuid.Parse(r.RunID)
	assert.NoError(t, err, "RunID should be a valid uuid")
}

func TestFromAccumulatorGivesEachCallADistinctRunID(t *testing.T) {
	a := FromAccumulator(accum.New(1))
	b := FromAccumulator(accum.New(1))
	assert.NotEqual(t, a.RunID, b.RunID)
}
