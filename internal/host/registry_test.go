package host

import (
	"errors"
	"fmt"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/gestalt/internal/dispatch"
	"github.com/inodb/gestalt/internal/engine"
	"github.com/inodb/gestalt/internal/enrich"
	"github.com/inodb/gestalt/internal/geneset"
	"github.com/inodb/gestalt/internal/job"
	"github.com/inodb/gestalt/internal/results"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	svc := enrich.NewService(dispatch.New(engine.New(2)), enrich.Options{
		ORA:  job.ORAConfig{MinOverlap: 1, MinSetSize: 1, MaxSetSize: 500},
		GSEA: job.GSEAConfig{Seed: 1},
	})
	r, err := NewServiceRegistry(svc)
	require.NoError(t, err)
	return r
}

func TestRegistry_Names(t *testing.T) {
	r := newTestRegistry(t)
	assert.Equal(t, []string{
		OpMembershipMatrix, OpGSEA, OpMultiOmicsGSEA, OpMultiOmicsORA, OpORA,
	}, r.Names())
}

func TestRegistry_DuplicateAndUnknown(t *testing.T) {
	r := NewRegistry()
	h := func([]byte) (any, error) { return "ok", nil }
	require.NoError(t, r.Register("op", h))
	assert.ErrorIs(t, r.Register("op", h), ErrDuplicateOperation)

	out, err := r.Call("op", nil)
	require.NoError(t, err)
	assert.Equal(t, `"ok"`, string(out))

	_, err = r.Call("missing", nil)
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestCall_MembershipMatrix(t *testing.T) {
	r := newTestRegistry(t)
	req := `{"geneSet":["setA","setA","setB"],"gene":["g1","g2","g3"],
		"genes":["g1","g2","g3"],"gene_sets":["setA","setB"]}`

	out, err := r.Call(OpMembershipMatrix, []byte(req))
	require.NoError(t, err)

	var resp MatrixResponse
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Equal(t, [][]int{{1, 1, 0}, {0, 0, 1}}, resp.Columns)
	assert.Equal(t, []string{"setA", "setB"}, resp.GeneSets)
}

func TestCall_MembershipMatrixLookupFailure(t *testing.T) {
	r := newTestRegistry(t)
	req := `{"geneSet":["setA"],"gene":["gX"],"genes":["g1"],"gene_sets":["setA"]}`

	_, err := r.Call(OpMembershipMatrix, []byte(req))
	assert.True(t, errors.Is(err, geneset.ErrLookupFailure))
}

func TestCall_ORA(t *testing.T) {
	r := newTestRegistry(t)
	req := `{"sets":["setA"],"parts":[["g1","g2","g3"]],
		"interest":["g1","g2"],"reference":["g1","g2","g3","g4"]}`

	out, err := r.Call(OpORA, []byte(req))
	require.NoError(t, err)

	var tbl results.ORATable
	require.NoError(t, json.Unmarshal(out, &tbl))
	assert.Equal(t, []string{"setA"}, tbl.GeneSet)
	assert.Equal(t, []int64{2}, tbl.Overlap)
	assert.InDelta(t, 1.5, tbl.Expect[0], 1e-12)
}

func TestCall_MultiOmicsORAShapeMismatch(t *testing.T) {
	r := newTestRegistry(t)
	req := `{"sets":["setA"],"parts":[["g1"]],
		"interest":[["g1"],["g1"],["g1"]],"reference":[["g1"],["g1"]],"method":"fisher"}`

	_, err := r.Call(OpMultiOmicsORA, []byte(req))
	assert.ErrorIs(t, err, job.ErrShapeMismatch)
}

func TestCall_MultiOmicsGSEA(t *testing.T) {
	r := newTestRegistry(t)
	req := `{"min_overlap":1,"max_overlap":500,"permutations":50,
		"sets":["top"],"parts":[["g1","g2"]],
		"analytes":[["g1","g2","g3","g4"],["g2","g1","g4"]],
		"ranks":[[4,3,2,1],[3,2,1]],
		"method_modifier":"rank","combo_method":"max"}`

	out, err := r.Call(OpMultiOmicsGSEA, []byte(req))
	require.NoError(t, err)

	var batch results.GSEABatch
	require.NoError(t, json.Unmarshal(out, &batch))
	require.Len(t, batch.Layers, 2)
	assert.Len(t, batch.Layers[0].RunningSum["top"], 4)
	assert.Len(t, batch.Layers[1].RunningSum["top"], 3)
	assert.Equal(t, []string{"top"}, batch.Combined.GeneSets)
}

func TestCall_RejectsUnknownFields(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Call(OpORA, []byte(`{"sets":[],"parts":[],"bogus":1}`))
	assert.Error(t, err)
}

func TestCall_GSEAZeroParamsUseDefaults(t *testing.T) {
	r := newTestRegistry(t)
	body := func(minOverlap int) []byte {
		return []byte(fmt.Sprintf(`{"min_overlap":%d,"permutations":20,
			"sets":["top"],"parts":[["g1","g2"]],
			"analytes":["g1","g2","g3","g4"],"ranks":[4,3,2,1]}`, minOverlap))
	}

	// min_overlap 0 falls back to the default of 15, which filters the set.
	out, err := r.Call(OpGSEA, body(0))
	require.NoError(t, err)
	var tbl results.GSEATable
	require.NoError(t, json.Unmarshal(out, &tbl))
	assert.Empty(t, tbl.GeneSets)

	out, err = r.Call(OpGSEA, body(1))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(out, &tbl))
	assert.Equal(t, []string{"top"}, tbl.GeneSets)
}
