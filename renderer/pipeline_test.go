package renderer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/glook/graphics"
	"github.com/richinsley/glook/shader"
)

func colorFiles() memFiles {
	return memFiles{
		"red.glsl":   stageSource("red"),
		"green.glsl": stageSource("green"),
		"blue.glsl":  stageSource("blue"),
		"pass.glsl":  stageSource("pass"),
		"add.glsl":   stageSource("add"),
		"accum.glsl": stageSource("accum"),
		"time.glsl":  stageSource("time"),
		"bad.glsl":   stageSource("bogus"),
	}
}

func TestPushRejectsBeyondCapacity(t *testing.T) {
	d := newFakeDevice()
	p := newTestPipeline(t, d, colorFiles(), PipelineConfig{MaxStages: 2, MaxInputs: 4})

	_, err := p.Push("red.glsl")
	require.NoError(t, err)
	_, err = p.Push("green.glsl")
	require.NoError(t, err)

	_, err = p.Push("blue.glsl")
	require.ErrorIs(t, err, ErrCapacity)
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, 2, d.targets)
	assert.Len(t, d.programs, 2)
}

func TestPushValidatesInputs(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want error
	}{
		{"forward reference", "pass.glsl:1", ErrForwardReference},
		{"negative index", "pass.glsl:-1", ErrInputIndex},
		{"too many inputs", "add.glsl:0,0,0", ErrTooManyInputs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newFakeDevice()
			p := newTestPipeline(t, d, colorFiles(), PipelineConfig{MaxInputs: 2})

			_, err := p.Push(tt.arg)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, p.Len())
			assert.Equal(t, -1, p.Head())
			assert.Zero(t, d.targets)
			assert.Empty(t, d.programs)
		})
	}
}

func TestPushFailedCompileLeavesPipelineUnchanged(t *testing.T) {
	d := newFakeDevice()
	p := newTestPipeline(t, d, colorFiles(), PipelineConfig{MaxInputs: 4})
	_, err := p.Push("red.glsl")
	require.NoError(t, err)

	_, err = p.Push("bad.glsl")
	var ce *shader.CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, 0, p.Head())
	assert.Equal(t, 1, d.targets)

	_, err = p.Push("missing.glsl")
	require.Error(t, err)
	assert.Equal(t, 1, p.Len())
}

func TestPushReleasesProgramWhenTargetFails(t *testing.T) {
	d := newFakeDevice()
	p := newTestPipeline(t, d, colorFiles(), PipelineConfig{MaxInputs: 4})
	d.failTarget = true

	_, err := p.Push("red.glsl")
	require.ErrorIs(t, err, graphics.ErrIncompleteTarget)
	assert.Equal(t, 0, p.Len())
	assert.Empty(t, d.programs)
}

func TestDefaultWiringFanIn(t *testing.T) {
	d := newFakeDevice()
	p := newTestPipeline(t, d, colorFiles(), PipelineConfig{MaxInputs: 4})
	for i := 0; i < 6; i++ {
		_, err := p.Push("red.glsl")
		require.NoError(t, err)
	}

	assert.Empty(t, p.Stage(0).Inputs())
	assert.Equal(t, []int{0}, p.Stage(1).Inputs())
	assert.Equal(t, []int{0, 1}, p.Stage(2).Inputs())
	assert.Equal(t, []int{0, 1, 2, 3}, p.Stage(4).Inputs())
	assert.Equal(t, []int{0, 1, 2, 3}, p.Stage(5).Inputs())
}

func TestDefaultWiringChain(t *testing.T) {
	d := newFakeDevice()
	p := newTestPipeline(t, d, colorFiles(), PipelineConfig{MaxInputs: 4, Chain: true})
	for i := 0; i < 4; i++ {
		_, err := p.Push("red.glsl")
		require.NoError(t, err)
	}

	assert.Empty(t, p.Stage(0).Inputs())
	for i := 1; i < 4; i++ {
		assert.Equal(t, []int{i - 1}, p.Stage(i).Inputs())
	}
}

func TestDefaultWiringWithoutInputs(t *testing.T) {
	d := newFakeDevice()
	p := newTestPipeline(t, d, colorFiles(), PipelineConfig{MaxInputs: 0})
	_, err := p.Push("red.glsl")
	require.NoError(t, err)
	_, err = p.Push("red.glsl")
	require.NoError(t, err)
	assert.Empty(t, p.Stage(1).Inputs())

	_, err = p.Push("pass.glsl:0")
	assert.ErrorIs(t, err, ErrTooManyInputs)
}

func TestExplicitEmptyInputs(t *testing.T) {
	d := newFakeDevice()
	p := newTestPipeline(t, d, colorFiles(), PipelineConfig{MaxInputs: 4})
	_, err := p.Push("red.glsl")
	require.NoError(t, err)
	s, err := p.Push("green.glsl:")
	require.NoError(t, err)
	assert.Empty(t, s.Inputs())
}

func TestRenderSingleStage(t *testing.T) {
	d := newFakeDevice()
	p := newTestPipeline(t, d, colorFiles(), PipelineConfig{MaxInputs: 4})
	_, err := p.Push("red.glsl")
	require.NoError(t, err)

	out := p.RenderFrame(FrameState{})
	require.NotNil(t, out)
	assert.Same(t, p.Output(), out)
	assert.Equal(t, color{1, 0, 0, 1}, d.colors[out])
	assert.Equal(t, []string{"red"}, d.drawNames())
	assert.True(t, p.Stage(0).Rendered())
}

func TestRenderEmptyPipeline(t *testing.T) {
	d := newFakeDevice()
	p := newTestPipeline(t, d, colorFiles(), PipelineConfig{MaxInputs: 4})
	assert.Nil(t, p.RenderFrame(FrameState{}))
	assert.Empty(t, d.draws)
}

func TestRenderDependenciesFirst(t *testing.T) {
	d := newFakeDevice()
	p := newTestPipeline(t, d, colorFiles(), PipelineConfig{MaxInputs: 4})
	_, err := p.Push("red.glsl")
	require.NoError(t, err)
	_, err = p.Push("pass.glsl:0")
	require.NoError(t, err)
	require.Equal(t, 1, p.Head())

	out := p.RenderFrame(FrameState{})
	assert.Equal(t, []string{"red", "pass"}, d.drawNames())
	assert.Equal(t, color{1, 0, 0, 1}, d.colors[out])
	assert.Same(t, p.Stage(0).Target(), d.draws[1].inputs[0])
}

func TestRenderSharedDependencyOnce(t *testing.T) {
	d := newFakeDevice()
	p := newTestPipeline(t, d, colorFiles(), PipelineConfig{MaxInputs: 4})
	for _, arg := range []string{"red.glsl", "pass.glsl:0", "pass.glsl:0", "add.glsl:1,2"} {
		_, err := p.Push(arg)
		require.NoError(t, err)
	}

	out := p.RenderFrame(FrameState{})
	assert.Equal(t, []string{"red", "pass", "pass", "add"}, d.drawNames())
	assert.Equal(t, color{2, 0, 0, 2}, d.colors[out])
}

func TestRenderOnlyWhatHeadNeeds(t *testing.T) {
	d := newFakeDevice()
	p := newTestPipeline(t, d, colorFiles(), PipelineConfig{MaxInputs: 4})
	for _, arg := range []string{"red.glsl", "pass.glsl:0", "green.glsl:"} {
		_, err := p.Push(arg)
		require.NoError(t, err)
	}

	require.NoError(t, p.SetHead(1))
	p.RenderFrame(FrameState{})
	assert.Equal(t, []string{"red", "pass"}, d.drawNames())
	assert.False(t, p.Stage(2).Rendered())

	d.resetDraws()
	require.NoError(t, p.SetHead(2))
	out := p.RenderFrame(FrameState{})
	assert.Equal(t, []string{"green"}, d.drawNames())
	assert.Equal(t, color{0, 1, 0, 1}, d.colors[out])
}

func TestFeedbackAccumulates(t *testing.T) {
	d := newFakeDevice()
	p := newTestPipeline(t, d, colorFiles(), PipelineConfig{MaxInputs: 4})
	s, err := p.Push("accum.glsl:0")
	require.NoError(t, err)
	require.True(t, s.SelfReferencing())

	const frames = 5
	for i := 0; i < frames; i++ {
		d.resetDraws()
		p.RenderFrame(FrameState{Frame: int32(i)})
		assert.Equal(t, []string{"copy", "accum"}, d.drawNames())
	}
	assert.Equal(t, color{frames, 0, 0, 1}, d.colors[p.Output()])
	// the stage never samples the texture it draws into
	assert.NotSame(t, s.Target(), d.draws[1].inputs[0])
}

func TestFeedbackFeedsLaterStage(t *testing.T) {
	d := newFakeDevice()
	p := newTestPipeline(t, d, colorFiles(), PipelineConfig{MaxInputs: 4})
	_, err := p.Push("accum.glsl:0")
	require.NoError(t, err)
	_, err = p.Push("pass.glsl:0")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		d.resetDraws()
		p.RenderFrame(FrameState{Frame: int32(i)})
		assert.Equal(t, []string{"copy", "accum", "pass"}, d.drawNames())
	}
	assert.Equal(t, color{3, 0, 0, 1}, d.colors[p.Output()])
}

func TestRenderUniforms(t *testing.T) {
	d := newFakeDevice()
	p := newTestPipeline(t, d, colorFiles(), PipelineConfig{MaxInputs: 4})
	_, err := p.Push("time.glsl")
	require.NoError(t, err)

	date := time.Date(2024, time.March, 5, 6, 30, 0, 0, time.UTC)
	out := p.RenderFrame(FrameState{
		Frame:     7,
		Time:      1.5,
		TimeDelta: 0.5,
		Mouse:     [4]float32{1, 2, 3, 4},
		Date:      date,
	})

	assert.Equal(t, color{1.5, 7, 0.5, 1}, d.colors[out])
	u := d.draws[0].uniform
	assert.Equal(t, float32(2), u.FrameRate)
	assert.Equal(t, [3]float32{4, 2, 1}, u.Resolution)
	assert.Equal(t, [4]float32{1, 2, 3, 4}, u.Mouse)
	assert.Equal(t, [4]float32{2024, 3, 5, 6.5}, u.Date)
}

type recordingTimer struct{ phases []string }

func (r *recordingTimer) StartPhase(phase string) { r.phases = append(r.phases, phase) }

func TestPhaseTimerSeesEveryDraw(t *testing.T) {
	d := newFakeDevice()
	p := newTestPipeline(t, d, colorFiles(), PipelineConfig{MaxInputs: 4})
	_, err := p.Push("red.glsl")
	require.NoError(t, err)
	_, err = p.Push("pass.glsl:0")
	require.NoError(t, err)

	timer := &recordingTimer{}
	p.SetPhaseTimer(timer)
	p.RenderFrame(FrameState{})
	assert.Equal(t, []string{"stage0", "stage1"}, timer.phases)
}

func TestHeadFollowsTail(t *testing.T) {
	d := newFakeDevice()
	p := newTestPipeline(t, d, colorFiles(), PipelineConfig{MaxInputs: 4})
	assert.Equal(t, -1, p.Head())

	_, err := p.Push("red.glsl")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Head())
	_, err = p.Push("green.glsl")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Head())

	require.NoError(t, p.SetHead(0))
	_, err = p.Push("blue.glsl")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Head())

	assert.ErrorIs(t, p.SetHead(3), ErrStageIndex)
	assert.ErrorIs(t, p.SetHead(-1), ErrStageIndex)
}

func TestPop(t *testing.T) {
	d := newFakeDevice()
	p := newTestPipeline(t, d, colorFiles(), PipelineConfig{MaxInputs: 4})
	_, err := p.Push("red.glsl")
	require.NoError(t, err)
	assert.ErrorIs(t, p.Pop(), ErrLastStage)

	_, err = p.Push("accum.glsl:1")
	require.NoError(t, err)
	require.Equal(t, 1, p.Head())
	require.Equal(t, 3, d.targets)

	require.NoError(t, p.Pop())
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, 0, p.Head())
	assert.Equal(t, 1, d.targets)
	// the copy pass stays for later feedback stages
	assert.Len(t, d.programs, 2)
}

func TestDestroyReleasesEverything(t *testing.T) {
	d := newFakeDevice()
	p := newTestPipeline(t, d, colorFiles(), PipelineConfig{MaxInputs: 4})
	_, err := p.Push("red.glsl")
	require.NoError(t, err)
	_, err = p.Push("accum.glsl:0,1")
	require.NoError(t, err)

	p.Destroy()
	assert.Equal(t, 0, p.Len())
	assert.Zero(t, d.targets)
	assert.Empty(t, d.programs)
}

func TestNewPipelineRejectsEmptySize(t *testing.T) {
	_, err := NewPipeline(newFakeDevice(), PipelineConfig{Width: 0, Height: 10})
	assert.Error(t, err)
}

func TestNewPipelineDefaults(t *testing.T) {
	d := newFakeDevice()
	p := newTestPipeline(t, d, colorFiles(), PipelineConfig{MaxInputs: 9})
	assert.Equal(t, DefaultMaxStages, p.Capacity())

	_, err := p.Push("red.glsl")
	require.NoError(t, err)
	_, err = p.Push("add.glsl:0,0,0,0")
	assert.NoError(t, err)
	_, err = p.Push("add.glsl:0,0,0,0,0")
	assert.True(t, errors.Is(err, ErrTooManyInputs))
}
