package detection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/skin-analyzer/pkg/types"
)

type fakeVisionClient struct {
	result *types.RemoteAnalysis
	err    error
	prompt string
}

func (f *fakeVisionClient) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	f.prompt = prompt
	return "a face", f.err
}

func (f *fakeVisionClient) AnalyzeSkin(ctx context.Context, model, prompt, imgB64 string) (*types.RemoteAnalysis, error) {
	f.prompt = prompt
	return f.result, f.err
}

func ptr[T any](v T) *T { return &v }

func TestAnalyzeSkinNormalizes(t *testing.T) {
	many := make([]types.RemoteDetection, 8)
	fake := &fakeVisionClient{result: &types.RemoteAnalysis{
		SkinType: ptr("  Oily "),
		Acne:     many,
	}}

	res, err := NewDetector(fake).AnalyzeSkin(context.Background(), "llava", "aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, DefaultPrompt, fake.prompt)
	require.NotNil(t, res.SkinType)
	assert.Equal(t, "oily", *res.SkinType)
	assert.Len(t, res.Acne, maxPerFeature)
}

func TestAnalyzeSkinDropsUnknownSkinType(t *testing.T) {
	fake := &fakeVisionClient{result: &types.RemoteAnalysis{SkinType: ptr("glowing")}}

	res, err := NewDetector(fake).AnalyzeSkinWithPrompt(context.Background(), "llava", "", "custom")
	require.NoError(t, err)
	assert.Nil(t, res.SkinType)
	assert.Equal(t, "custom", fake.prompt)
}

func TestAnalyzeSkinError(t *testing.T) {
	fake := &fakeVisionClient{err: errors.New("connection refused")}

	_, err := NewDetector(fake).AnalyzeSkin(context.Background(), "llava", "")
	assert.EqualError(t, err, "connection refused")
}

func TestTestVision(t *testing.T) {
	fake := &fakeVisionClient{}
	text, err := NewDetector(fake).TestVision(context.Background(), "llava", "")
	require.NoError(t, err)
	assert.Equal(t, "a face", text)
	assert.Equal(t, SimpleTestPrompt, fake.prompt)
}

func TestAnalyzeSkinDeclaresPercentScale(t *testing.T) {
	fake := &fakeVisionClient{result: &types.RemoteAnalysis{
		Acne: []types.RemoteDetection{{
			Severity: ptr(1.0),
			Location: &types.RemoteBox{X: ptr(0.5), Y: ptr(0.5), Width: ptr(1.0), Height: ptr(1.0)},
		}},
	}}

	res, err := NewDetector(fake).AnalyzeSkin(context.Background(), "llava", "")
	require.NoError(t, err)
	require.NotNil(t, res.Scale)
	assert.Equal(t, types.ScalePercent, *res.Scale)

	problems := res.Problems(640, 480)
	require.Len(t, problems, 1)
	assert.Equal(t, 1.0, problems[0].Severity)
	assert.Equal(t, types.RegionBox{X: 0.5, Y: 0.5, Width: 1, Height: 1}, problems[0].Location)

	fake.result = &types.RemoteAnalysis{Scale: ptr(types.ScaleUnit)}
	res, err = NewDetector(fake).AnalyzeSkin(context.Background(), "llava", "")
	require.NoError(t, err)
	assert.Equal(t, types.ScaleUnit, *res.Scale)
}
