package transformer

import (
	"fmt"
	"strconv"

	"github.com/born-ml/seq2seq/internal/nn"
	"github.com/born-ml/seq2seq/internal/serialization"
	"github.com/born-ml/seq2seq/internal/tensor"
)

// NamedParameter pairs a parameter with its hierarchical name.
type NamedParameter[B tensor.Backend] struct {
	Name  string
	Param *nn.Parameter[B]
}

// NamedParameters returns every distinct trainable parameter once, under the
// name of its first holder. The positional tables are not parameters and
// never appear.
func (m *Transformer[B]) NamedParameters() []NamedParameter[B] {
	var all []NamedParameter[B]
	add := func(prefix string, params []*nn.Parameter[B]) {
		for _, p := range params {
			all = append(all, NamedParameter[B]{Name: prefix + "." + p.Name(), Param: p})
		}
	}

	add("encoder.embedding", m.Encoder.Embedding.Parameters())
	for i, layer := range m.Encoder.Layers {
		prefix := "encoder.layers." + strconv.Itoa(i)
		addAttention(add, prefix+".self_attn", layer.SelfAttn.Attn)
		addFeedForward(add, prefix+".ffn", layer.FFN.FFN)
	}

	add("decoder.embedding", m.Decoder.Embedding.Parameters())
	for i, layer := range m.Decoder.Layers {
		prefix := "decoder.layers." + strconv.Itoa(i)
		addAttention(add, prefix+".self_attn", layer.SelfAttn.Attn)
		addAttention(add, prefix+".cross_attn", layer.CrossAttn.Attn)
		addFeedForward(add, prefix+".ffn", layer.FFN.FFN)
	}

	add("projection", m.Projection.Parameters())

	seen := make(map[*nn.Parameter[B]]struct{}, len(all))
	unique := all[:0]
	for _, np := range all {
		if _, ok := seen[np.Param]; ok {
			continue
		}
		seen[np.Param] = struct{}{}
		unique = append(unique, np)
	}
	return unique
}

func addAttention[B tensor.Backend](add func(string, []*nn.Parameter[B]), prefix string, mha *nn.MultiHeadAttention[B]) {
	add(prefix+".wq", mha.WQ.Parameters())
	add(prefix+".wk", mha.WK.Parameters())
	add(prefix+".wv", mha.WV.Parameters())
	add(prefix+".fc", mha.FC.Parameters())
	add(prefix+".norm", mha.Norm.Parameters())
}

func addFeedForward[B tensor.Backend](add func(string, []*nn.Parameter[B]), prefix string, ffn *nn.PositionwiseFeedForward[B]) {
	add(prefix+".linear1", ffn.Linear1.Parameters())
	add(prefix+".linear2", ffn.Linear2.Parameters())
	add(prefix+".norm", ffn.Norm.Parameters())
}

// Parameters returns every distinct trainable parameter once. Tied
// parameters appear a single time.
func (m *Transformer[B]) Parameters() []*nn.Parameter[B] {
	named := m.NamedParameters()
	params := make([]*nn.Parameter[B], len(named))
	for i, np := range named {
		params[i] = np.Param
	}
	return params
}

// NumParameters returns the number of trainable scalars.
func (m *Transformer[B]) NumParameters() int {
	n := 0
	for _, p := range m.Parameters() {
		n += p.Tensor().NumElements()
	}
	return n
}

// StateDict returns a map of parameter names to raw tensors. A tied
// parameter is stored once.
func (m *Transformer[B]) StateDict() map[string]*tensor.RawTensor {
	named := m.NamedParameters()
	stateDict := make(map[string]*tensor.RawTensor, len(named))
	for _, np := range named {
		stateDict[np.Name] = np.Param.Tensor().Raw()
	}
	return stateDict
}

// LoadStateDict copies parameters from stateDict in place, so every holder
// of a tied parameter sees the loaded values.
func (m *Transformer[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	named := m.NamedParameters()
	for _, np := range named {
		raw, ok := stateDict[np.Name]
		if !ok {
			return fmt.Errorf("missing %s in state dict", np.Name)
		}
		if err := np.Param.Load(raw); err != nil {
			return err
		}
	}
	if len(stateDict) != len(named) {
		return fmt.Errorf("state dict has %d tensors, model has %d parameters", len(stateDict), len(named))
	}
	return nil
}

// Metadata keys written by Save.
const (
	metaSrcVocab        = "src_vocab"
	metaTgtVocab        = "tgt_vocab"
	metaShareProjection = "tgt_emb_prj_weight_sharing"
	metaShareEmbeddings = "emb_src_tgt_weight_sharing"
)

// Save writes the parameters to a SafeTensors file.
func (m *Transformer[B]) Save(path string) error {
	meta := map[string]string{
		metaSrcVocab:        strconv.Itoa(m.srcVocab),
		metaTgtVocab:        strconv.Itoa(m.tgtVocab),
		metaShareProjection: strconv.FormatBool(m.shareProjection),
		metaShareEmbeddings: strconv.FormatBool(m.shareEmbeddings),
	}
	if err := serialization.WriteSafeTensors(path, m.StateDict(), meta); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	return nil
}

// Load reads parameters saved by Save into m. The file must have been written
// by a model with the same vocabulary sizes and sharing policy.
func (m *Transformer[B]) Load(path string) error {
	stateDict, meta, err := serialization.ReadSafeTensors(path)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	want := map[string]string{
		metaSrcVocab:        strconv.Itoa(m.srcVocab),
		metaTgtVocab:        strconv.Itoa(m.tgtVocab),
		metaShareProjection: strconv.FormatBool(m.shareProjection),
		metaShareEmbeddings: strconv.FormatBool(m.shareEmbeddings),
	}
	for key, value := range want {
		if got, ok := meta[key]; ok && got != value {
			return fmt.Errorf("%w: %s is %s in %s, model has %s", ErrConfig, key, got, path, value)
		}
	}

	return m.LoadStateDict(stateDict)
}
