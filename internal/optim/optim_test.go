package optim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/seq2seq/internal/backend/cpu"
	"github.com/born-ml/seq2seq/internal/nn"
	"github.com/born-ml/seq2seq/internal/optim"
	"github.com/born-ml/seq2seq/internal/tensor"
)

type cpuBackend = *cpu.CPUBackend

func param(t *testing.T, name string, values ...float32) *nn.Parameter[cpuBackend] {
	t.Helper()
	x, err := tensor.FromSlice(values, tensor.Shape{len(values)}, cpu.New())
	require.NoError(t, err)
	return nn.NewParameter(name, x)
}

func grad(t *testing.T, values ...float32) *tensor.Tensor[float32, cpuBackend] {
	t.Helper()
	g, err := tensor.FromSlice(values, tensor.Shape{len(values)}, cpu.New())
	require.NoError(t, err)
	return g
}

func TestAdam_FirstStep(t *testing.T) {
	x := param(t, "x", 1.0, -1.0)
	optimizer := optim.NewAdam([]*nn.Parameter[cpuBackend]{x}, optim.AdamConfig{
		Schedule: optim.ConstantLR(0.1),
	}, cpu.New())

	x.SetGrad(grad(t, 0.5, -2.0))
	optimizer.Step()

	// After bias correction the first step moves each element by lr*sign(g).
	assert.InDeltaSlice(t, []float32{0.9, -0.9}, x.Tensor().Data(), 1e-5)
	assert.InDelta(t, 0.1, optimizer.LR(), 1e-7)
	assert.Equal(t, 1, optimizer.Timestep())
}

func TestAdam_SkipsParametersWithoutGrad(t *testing.T) {
	x, y := param(t, "x", 1.0), param(t, "y", 2.0)
	optimizer := optim.NewAdam([]*nn.Parameter[cpuBackend]{x, y}, optim.AdamConfig{}, cpu.New())

	x.SetGrad(grad(t, 1.0))
	optimizer.Step()

	assert.Less(t, x.Tensor().At(0), float32(1.0))
	assert.Equal(t, float32(2.0), y.Tensor().At(0))

	optimizer.ZeroGrad()
	assert.Nil(t, x.Grad())
}

func TestAdam_TiedParameterUpdatedOnce(t *testing.T) {
	x := param(t, "x", 1.0)
	optimizer := optim.NewAdam([]*nn.Parameter[cpuBackend]{x, x}, optim.AdamConfig{
		Schedule: optim.ConstantLR(0.1),
	}, cpu.New())

	x.SetGrad(grad(t, 1.0))
	optimizer.Step()
	assert.InDelta(t, 0.9, x.Tensor().At(0), 1e-5)
}

func TestAdam_FollowsSchedule(t *testing.T) {
	schedule := optim.WarmupSchedule{DModel: 512, WarmUpSteps: 4}
	x := param(t, "x", 0)
	optimizer := optim.NewAdam([]*nn.Parameter[cpuBackend]{x}, optim.AdamConfig{
		Schedule: schedule,
		InitLR:   1e-7,
	}, cpu.New())
	assert.Equal(t, float32(1e-7), optimizer.LR())

	for step := 1; step <= 6; step++ {
		x.SetGrad(grad(t, 1))
		optimizer.Step()
		assert.InDelta(t, schedule.LearningRate(step), optimizer.LR(), 1e-9)
	}
}

func TestWarmupSchedule(t *testing.T) {
	w := optim.WarmupSchedule{DModel: 512, WarmUpSteps: 4000}

	assert.InDelta(t, 0.000698771, w.LearningRate(4000), 1e-9)
	assert.Less(t, w.LearningRate(100), w.LearningRate(1000))
	assert.Greater(t, w.LearningRate(4000), w.LearningRate(8000))
	assert.Equal(t, w.LearningRate(1), w.LearningRate(0))

	scaled := optim.WarmupSchedule{DModel: 512, WarmUpSteps: 4000, Scale: 2}
	assert.InDelta(t, 2*w.LearningRate(10), scaled.LearningRate(10), 1e-12)
}
