package transformer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/seq2seq/internal/optim"
)

// HyperParam is the configuration of a Transformer. It is supplied once at
// construction and never changes for the lifetime of the model.
type HyperParam struct {
	ModelDimension          int     `yaml:"model_dimension"`
	HiddenLayerDimension    int     `yaml:"hidden_layer_dimension"`
	WordEmbeddingDimension  int     `yaml:"word_embedding_dimension"`
	EncoderLayerCount       int     `yaml:"encoder_layer_count"`
	DecoderLayerCount       int     `yaml:"decoder_layer_count"`
	MaxSequenceLength       int     `yaml:"max_sequence_length"`
	Dropout                 float32 `yaml:"dropout"`
	AttentionHeadNumber     int     `yaml:"attention_head_number"`
	AttentionKeyDimension   int     `yaml:"attention_key_dimension"`
	AttentionValueDimension int     `yaml:"attention_value_dimension"`

	Opt   Opt   `yaml:"opt"`
	Infer Infer `yaml:"infer"`
}

// Opt holds the optimizer settings consumed by the training harness.
type Opt struct {
	AdamBeta         [2]float64 `yaml:"adam_beta,flow"`
	AdamEpsilon      float64    `yaml:"adam_epsilon"`
	WarmUpSteps      int        `yaml:"warm_up_steps"`
	LabelSmoothing   float64    `yaml:"label_smoothing"`
	InitLearningRate float64    `yaml:"init_learning_rate"`
	BatchSize        int        `yaml:"batch_size"`
}

// Infer holds the beam search settings consumed by the decoding collaborator.
type Infer struct {
	BeamSize int     `yaml:"beam_size"`
	Alpha    float64 `yaml:"alpha"`
}

// DefaultHyperParam returns the base model configuration.
func DefaultHyperParam() HyperParam {
	return HyperParam{
		ModelDimension:          512,
		HiddenLayerDimension:    2048,
		WordEmbeddingDimension:  512,
		EncoderLayerCount:       6,
		DecoderLayerCount:       6,
		MaxSequenceLength:       256,
		Dropout:                 0.1,
		AttentionHeadNumber:     8,
		AttentionKeyDimension:   64,
		AttentionValueDimension: 64,
		Opt: Opt{
			AdamBeta:         [2]float64{0.9, 0.98},
			AdamEpsilon:      1e-9,
			WarmUpSteps:      4000,
			LabelSmoothing:   0.1,
			InitLearningRate: 1e-7,
			BatchSize:        2048,
		},
		Infer: Infer{
			BeamSize: 4,
			Alpha:    0.6,
		},
	}
}

// LoadHyperParam reads a YAML configuration. Keys missing from the file keep
// their DefaultHyperParam value. The result is validated.
func LoadHyperParam(path string) (HyperParam, error) {
	hp := DefaultHyperParam()

	//nolint:gosec // G304: File path comes from user input, which is expected for configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return hp, fmt.Errorf("failed to read hyperparameters: %w", err)
	}
	if err := yaml.Unmarshal(data, &hp); err != nil {
		return hp, fmt.Errorf("failed to parse hyperparameters %s: %w", path, err)
	}
	if err := hp.Validate(); err != nil {
		return hp, err
	}
	return hp, nil
}

// Validate checks the structural invariants of the configuration.
// Every failure wraps ErrConfig.
func (hp HyperParam) Validate() error {
	if hp.ModelDimension != hp.WordEmbeddingDimension {
		return fmt.Errorf("%w: model_dimension (%d) must equal word_embedding_dimension (%d)",
			ErrConfig, hp.ModelDimension, hp.WordEmbeddingDimension)
	}

	positive := []struct {
		name  string
		value int
	}{
		{"model_dimension", hp.ModelDimension},
		{"hidden_layer_dimension", hp.HiddenLayerDimension},
		{"encoder_layer_count", hp.EncoderLayerCount},
		{"decoder_layer_count", hp.DecoderLayerCount},
		{"max_sequence_length", hp.MaxSequenceLength},
		{"attention_head_number", hp.AttentionHeadNumber},
		{"attention_key_dimension", hp.AttentionKeyDimension},
		{"attention_value_dimension", hp.AttentionValueDimension},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrConfig, p.name, p.value)
		}
	}

	if hp.Dropout < 0 || hp.Dropout >= 1 {
		return fmt.Errorf("%w: dropout must be in [0, 1), got %v", ErrConfig, hp.Dropout)
	}
	return nil
}

// Save writes the configuration as YAML.
func (hp HyperParam) Save(path string) error {
	data, err := yaml.Marshal(hp)
	if err != nil {
		return fmt.Errorf("failed to encode hyperparameters: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write hyperparameters: %w", err)
	}
	return nil
}

// LearningRate returns the warm-up schedule rate for a 1-based training step:
//
//	d_model^-0.5 * min(step^-0.5, step * warm_up^-1.5)
//
// Steps below 1 are treated as step 1.
func (o Opt) LearningRate(step, dModel int) float64 {
	return o.Schedule(dModel).LearningRate(step)
}

// Schedule returns the warm-up schedule for a model of width dModel.
func (o Opt) Schedule(dModel int) optim.WarmupSchedule {
	return optim.WarmupSchedule{DModel: dModel, WarmUpSteps: o.WarmUpSteps}
}
