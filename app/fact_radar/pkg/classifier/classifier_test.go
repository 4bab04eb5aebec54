package classifier

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/model"
)

func TestPreprocess(t *testing.T) {
	got := Preprocess("The 2025 BUDGET was approved!!! By the Senate.")
	for _, stop := range []string{"the", "was", "by"} {
		for _, w := range strings.Fields(got) {
			if w == stop {
				t.Errorf("stop word %q survived: %q", stop, got)
			}
		}
	}
	if strings.ContainsAny(got, "0123456789!.") {
		t.Errorf("non-letters survived: %q", got)
	}
	if got != strings.ToLower(got) {
		t.Errorf("not lowercased: %q", got)
	}
	if !strings.Contains(got, "budget") {
		t.Errorf("content word missing: %q", got)
	}
	if Preprocess("!!! 123 the of") != "" {
		t.Error("expected empty output for stop words and digits")
	}
}

// testModel 词表由 Preprocess 生成，避免依赖具体词干结果
func testModel() *Model {
	real1 := Preprocess("senate")
	real2 := Preprocess("budget")
	fake1 := Preprocess("shocking")
	fake2 := Preprocess("hoax")
	return &Model{
		Vocabulary: map[string]int{real1: 0, real2: 1, fake1: 2, fake2: 3},
		IDF:        []float64{1, 1, 1, 1},
		Coef:       []float64{3, 3, -3, -3},
		Intercept:  0,
		Accuracy:   0.91,
	}
}

func TestClassify(t *testing.T) {
	c := New(testModel())

	real, err := c.Classify("Senate budget")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if real.RealProbability <= 0.5 || real.MLScore <= 50 {
		t.Errorf("expected real-leaning result, got %+v", real)
	}

	fake, err := c.Classify("Shocking hoax")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if fake.RealProbability >= 0.5 || fake.MLScore >= 50 {
		t.Errorf("expected fake-leaning result, got %+v", fake)
	}
	if fake.Confidence < 0.5 || fake.Confidence > 1 {
		t.Errorf("confidence out of range: %v", fake.Confidence)
	}

	neutral, err := c.Classify("weather")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if neutral.MLScore != 50 {
		t.Errorf("out-of-vocabulary text should score 50, got %d", neutral.MLScore)
	}
}

func TestClassify_EmptyInput(t *testing.T) {
	_, err := New(testModel()).Classify("123 !!! the")
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
}

func TestPredict_Probabilities(t *testing.T) {
	p, err := testModel().Predict(Preprocess("senate senate hoax"))
	if err != nil {
		t.Fatal(err)
	}
	sum := p.ClassProbabilities[0] + p.ClassProbabilities[1]
	if sum < 0.999999 || sum > 1.000001 {
		t.Errorf("probabilities sum to %v", sum)
	}
	if p.Label != model.Real {
		t.Errorf("label = %s, want Real", p.Label)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "model.json")
	if err := os.WriteFile(jsonPath, []byte(`{"vocabulary":{"a":0,"b":1},"idf":[1,2],"coef":[0.5,-0.5],"intercept":0.1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := Load(jsonPath)
	if err != nil {
		t.Fatalf("Load(json) error = %v", err)
	}
	if m.Intercept != 0.1 || len(m.Vocabulary) != 2 {
		t.Errorf("model = %+v", m)
	}

	yamlPath := filepath.Join(dir, "model.yaml")
	yml := "vocabulary:\n  a: 0\nidf: [1]\ncoef: [2]\nintercept: 0\nsublinear_tf: true\n"
	if err := os.WriteFile(yamlPath, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	if m, err = Load(yamlPath); err != nil || !m.SublinearTF {
		t.Fatalf("Load(yaml) = %+v, %v", m, err)
	}

	badPath := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(badPath, []byte(`{"vocabulary":{"a":0,"b":1},"idf":[1],"coef":[1,2]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(badPath); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestLoad_SampleArtifact(t *testing.T) {
	m, err := Load(filepath.Join("..", "..", "configs", "classifier.sample.yaml"))
	if err != nil {
		t.Fatalf("Load(sample) error = %v", err)
	}
	c := New(m)

	realRes, err := c.Classify("Congress passed the budget")
	if err != nil {
		t.Fatalf("Classify(realRes) error = %v", err)
	}
	if realRes.MLScore <= 50 {
		t.Errorf("realRes MLScore = %d, want > 50", realRes.MLScore)
	}

	fakeRes, err := c.Classify("A secret hoax")
	if err != nil {
		t.Fatalf("Classify(fake) error = %v", err)
	}
	if fakeRes.MLScore >= 50 {
		t.Errorf("fakeRes MLScore = %d, want < 50", fakeRes.MLScore)
	}
}
