package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTemplate is a fixed-result template for registry and service tests.
type stubTemplate struct {
	meta   Meta
	result *GenerateResult
	err    error
	calls  int
}

func (s *stubTemplate) Meta() Meta { return s.meta }

func (s *stubTemplate) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	tmpl := &stubTemplate{meta: Meta{ID: "ledger-daily", Name: "台账日报"}}
	r.Register(tmpl)

	got, err := r.Get("ledger-daily")
	require.NoError(t, err)
	assert.Same(t, Template(tmpl), got)
}

func TestRegistryUnknownID(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("nope")
	var notFound *TemplateNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nope", notFound.ID)
}

func TestRegistryDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTemplate{meta: Meta{ID: "dup"}})

	assert.Panics(t, func() {
		r.Register(&stubTemplate{meta: Meta{ID: "dup"}})
	})
}

func TestRegistryListSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTemplate{meta: Meta{ID: "b"}})
	r.Register(&stubTemplate{meta: Meta{ID: "a"}})
	r.Register(&stubTemplate{meta: Meta{ID: "c"}})

	metas := r.List()
	require.Len(t, metas, 3)
	assert.Equal(t, "a", metas[0].ID)
	assert.Equal(t, "b", metas[1].ID)
	assert.Equal(t, "c", metas[2].ID)
}
