package ai

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalEmbedDeterministicAndNormalized(t *testing.T) {
	p, err := NewEmbedProvider("local", map[string]interface{}{"dimension": 64})
	require.NoError(t, err)
	a, err := p.Embed(context.Background(), "", "The quick brown fox", TaskRetrievalDocument)
	require.NoError(t, err)
	b, err := p.Embed(context.Background(), "", "the QUICK brown fox!", TaskRetrievalQuery)
	require.NoError(t, err)
	require.Len(t, a, 64)
	require.Equal(t, a, b)
	var sum float64
	for _, v := range a {
		sum += float64(v) * float64(v)
	}
	require.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)

	empty, err := p.Embed(context.Background(), "", "", TaskRetrievalQuery)
	require.NoError(t, err)
	require.Len(t, empty, 64)
}

func TestLocalGenerateExtractive(t *testing.T) {
	p, err := NewProvider("local", nil)
	require.NoError(t, err)
	prompt := "You answer questions.\n\nContext:\nThe invoice total is 420 euros. The vendor is Acme.\n\nQuestion: what is the invoice total?\n\nAnswer:"
	out, err := p.Generate(context.Background(), "", prompt, GenerateOptions{})
	require.NoError(t, err)
	require.Equal(t, "The invoice total is 420 euros.", out)
}

func TestLocalGenerateEcho(t *testing.T) {
	p, err := NewProvider("local", map[string]interface{}{"echo": true})
	require.NoError(t, err)
	prompt := "Context:\nCats purr.\n\nQuestion: do cats purr?\n\nAnswer:"
	out, err := p.Generate(context.Background(), "", prompt, GenerateOptions{})
	require.NoError(t, err)
	require.Equal(t, "Cats purr.", StripEcho(out, prompt))
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider("nope", nil)
	require.Error(t, err)
	_, err = NewEmbedProvider("", nil)
	require.Error(t, err)
}
