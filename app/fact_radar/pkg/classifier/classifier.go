package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/model"
)

// ErrEmptyInput 预处理后文本为空，无法判定
var ErrEmptyInput = errors.New("classifier: empty text after preprocessing")

// Model 离线训练得到的 TF-IDF + 逻辑回归参数
type Model struct {
	Vocabulary  map[string]int `json:"vocabulary" yaml:"vocabulary"`
	IDF         []float64      `json:"idf" yaml:"idf"`
	Coef        []float64      `json:"coef" yaml:"coef"`
	Intercept   float64        `json:"intercept" yaml:"intercept"`
	SublinearTF bool           `json:"sublinear_tf" yaml:"sublinear_tf"`
	Accuracy    float64        `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`
}

// Load 从 JSON 或 YAML 文件加载模型
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	var m Model
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &m)
	default:
		err = json.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate 检查参数维度一致
func (m *Model) Validate() error {
	n := len(m.Vocabulary)
	if n == 0 {
		return errors.New("classifier: empty vocabulary")
	}
	if len(m.IDF) != n || len(m.Coef) != n {
		return fmt.Errorf("classifier: dimension mismatch vocab=%d idf=%d coef=%d", n, len(m.IDF), len(m.Coef))
	}
	for term, idx := range m.Vocabulary {
		if idx < 0 || idx >= n {
			return fmt.Errorf("classifier: term %q has index %d out of range", term, idx)
		}
	}
	return nil
}

// Prediction 单次推理结果，ClassProbabilities 为 [pFake, pReal]
type Prediction struct {
	Label              model.Classification
	ClassProbabilities [2]float64
}

// Predict 对预处理后的文本做推理
func (m *Model) Predict(processed string) (Prediction, error) {
	terms := strings.Fields(processed)
	if len(terms) == 0 {
		return Prediction{}, ErrEmptyInput
	}

	counts := make(map[int]float64)
	for _, t := range terms {
		if idx, ok := m.Vocabulary[t]; ok {
			counts[idx]++
		}
	}

	var norm float64
	weights := make(map[int]float64, len(counts))
	for idx, c := range counts {
		tf := c
		if m.SublinearTF {
			tf = 1 + math.Log(c)
		}
		w := tf * m.IDF[idx]
		weights[idx] = w
		norm += w * w
	}

	z := m.Intercept
	if norm > 0 {
		norm = math.Sqrt(norm)
		for idx, w := range weights {
			z += m.Coef[idx] * w / norm
		}
	}

	pReal := 1 / (1 + math.Exp(-z))
	p := Prediction{ClassProbabilities: [2]float64{1 - pReal, pReal}, Label: model.Fake}
	if pReal >= 0.5 {
		p.Label = model.Real
	}
	return p, nil
}

// Classifier 文本分类器
type Classifier struct {
	model *Model
}

// New 使用已加载的模型创建分类器
func New(m *Model) *Classifier {
	return &Classifier{model: m}
}

// Classify 预处理并推理，空文本返回 ErrEmptyInput
func (c *Classifier) Classify(text string) (model.ClassifierResult, error) {
	p, err := c.model.Predict(Preprocess(text))
	if err != nil {
		return model.ClassifierResult{}, err
	}
	pReal := p.ClassProbabilities[1]
	return model.ClassifierResult{
		RealProbability: pReal,
		MLScore:         int(math.Round(pReal * 100)),
		Confidence:      math.Max(p.ClassProbabilities[0], pReal),
	}, nil
}

// Accuracy 训练时记录的准确率
func (c *Classifier) Accuracy() float64 {
	return c.model.Accuracy
}
