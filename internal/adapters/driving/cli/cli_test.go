package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docq-labs/docq/internal/adapters/driven/index/memory"
	"github.com/docq-labs/docq/internal/core/domain"
)

// stubEmbedder reports a fixed model and dimensionality.
type stubEmbedder struct {
	model string
	dims  int
}

func (e *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return make([]float32, e.dims), nil
}

func (e *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, e.dims)
	}
	return out, nil
}

func (e *stubEmbedder) Dimensions() int              { return e.dims }
func (e *stubEmbedder) ModelName() string            { return e.model }
func (e *stubEmbedder) Ping(_ context.Context) error { return nil }
func (e *stubEmbedder) Close() error                 { return nil }

func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "docq", rootCmd.Use)
}

func TestRootCmd_HasPersistentFlags(t *testing.T) {
	verbose := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestVersionCmd_PrintsVersion(t *testing.T) {
	SetVersion("1.2.3")

	out, err := execute("version")

	require.NoError(t, err)
	assert.Contains(t, out, "docq version 1.2.3")
}

func TestSetVersion_IgnoresEmpty(t *testing.T) {
	SetVersion("9.9.9")
	SetVersion("")

	assert.Equal(t, "9.9.9", version)
}

func TestAskCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := execute("ask")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestAskCmd_HasFlags(t *testing.T) {
	topK := askCmd.Flags().Lookup("top-k")
	require.NotNil(t, topK)
	assert.Equal(t, "k", topK.Shorthand)

	assert.NotNil(t, askCmd.Flags().Lookup("json"))
}

func TestIngestCmd_RequiresAtLeastOneArg(t *testing.T) {
	_, err := execute("ingest")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestRemoveCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := execute("remove")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestVerifyIndexDimensions_ModelSwitchFails(t *testing.T) {
	idx := memory.NewIndex()
	_, err := idx.Upsert(context.Background(), []domain.IndexEntry{{
		Chunk:  domain.Chunk{ID: "c1", DocumentID: "d1", Content: "text"},
		Vector: []float32{1, 0, 0},
	}})
	require.NoError(t, err)

	err = verifyIndexDimensions(&stubEmbedder{model: "text-embedding-3-large", dims: 3072}, idx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "re-indexing required")
	assert.Contains(t, err.Error(), "text-embedding-3-large")
	var mismatch *domain.DimensionMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 3072, mismatch.Want)
	assert.Equal(t, 3, mismatch.Got)
}

func TestVerifyIndexDimensions_MatchingOrEmptyPasses(t *testing.T) {
	empty := memory.NewIndex()
	assert.NoError(t, verifyIndexDimensions(&stubEmbedder{model: "m", dims: 3}, empty))

	populated := memory.NewIndex()
	_, err := populated.Upsert(context.Background(), []domain.IndexEntry{{
		Chunk:  domain.Chunk{ID: "c1", DocumentID: "d1", Content: "text"},
		Vector: []float32{1, 0, 0},
	}})
	require.NoError(t, err)

	assert.NoError(t, verifyIndexDimensions(&stubEmbedder{model: "m", dims: 3}, populated))
	assert.NoError(t, verifyIndexDimensions(&stubEmbedder{model: "m", dims: 0}, populated))
}

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"ingest", "ask", "status", "remove", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}
