package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRules() []Rule {
	return []Rule{
		{Key: Investment, Keywords: []string{"funding", "raises", "series a", "valuation", "融资"}},
		{Key: Product, Keywords: []string{"launch", "release", "rolls out", "app"}},
		{Key: Hardware, Keywords: []string{"chip", "gpu", "nvidia", "芯片"}},
		{Key: BigModel, Keywords: []string{"gpt", "llm", "claude", "gemini", "model", "大模型"}},
		{Key: Global, Keywords: []string{"overseas", "europe", "出海"}},
		{Key: Industry, Keywords: []string{"industry", "market", "regulation"}},
	}
}

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := New(testRules(), Product)
	require.NoError(t, err)
	return c
}

func TestClassify(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		title   string
		summary string
		want    Key
	}{
		{"OpenAI announces GPT-5", "OpenAI today ...", BigModel},
		{"Startup raises $50M to build LLM tools", "", Investment},
		{"Anthropic releases Claude app", "", Product},
		{"Nvidia unveils new GPU", "", Hardware},
		{"EU regulation for AI", "", Industry},
		{"中国AI企业出海加速", "", Global},
		{"某公司完成大模型融资", "", Investment},
		{"Top 10 AI apps this week", "", Product},
		{"Weekly roundup", "nothing in particular", Product},
		{"", "", Product},
	}
	for _, tt := range tests {
		got := c.Classify(tt.title, tt.summary)
		assert.Equal(t, tt.want, got, "Classify(%q, %q)", tt.title, tt.summary)
	}
}

func TestClassifyMatchesSubstrings(t *testing.T) {
	c := newTestClassifier(t)

	key, kw := c.ClassifyWithMatch("Best new apps for students", "")
	assert.Equal(t, Product, key)
	assert.Equal(t, "app", kw)

	key, kw = c.ClassifyWithMatch("GPUs are sold out", "")
	assert.Equal(t, Hardware, key)
	assert.Equal(t, "gpu", kw)
}

func TestClassifyPriorityOrder(t *testing.T) {
	c := newTestClassifier(t)
	// matches investment, hardware and big-model keywords; investment is checked first
	key, kw := c.ClassifyWithMatch("Chip startup raises funding for LLM inference", "")
	assert.Equal(t, Investment, key)
	assert.Equal(t, "funding", kw)
}

func TestClassifyDeterministic(t *testing.T) {
	c := newTestClassifier(t)
	first := c.Classify("Nvidia GPU roadmap", "new chip")
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, c.Classify("Nvidia GPU roadmap", "new chip"))
	}
}

func TestClassifyFallbackHasNoMatch(t *testing.T) {
	c := newTestClassifier(t)
	key, kw := c.ClassifyWithMatch("Our year in review", "")
	assert.Equal(t, Product, key)
	assert.Empty(t, kw)
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, Product)
	assert.Error(t, err)

	_, err = New([]Rule{{Key: BigModel}, {Key: BigModel}}, BigModel)
	assert.Error(t, err)

	_, err = New([]Rule{{Key: BigModel}}, Product)
	assert.Error(t, err)

	_, err = New([]Rule{{Key: ""}}, Product)
	assert.Error(t, err)
}

func TestKeysKeepPriorityOrder(t *testing.T) {
	c := newTestClassifier(t)
	assert.Equal(t, []Key{Investment, Product, Hardware, BigModel, Global, Industry}, c.Keys())
}

func TestAllKeys(t *testing.T) {
	assert.Len(t, AllKeys(), 6)
}
