package apps

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/workerview/internal/domain/adapter"
	"github.com/GriffinCanCode/workerview/internal/domain/host"
	"github.com/GriffinCanCode/workerview/internal/domain/snapshot"
	"github.com/GriffinCanCode/workerview/internal/eventloop"
)

type syncScheduler struct {
	tasks []func()
}

func (s *syncScheduler) Post(task func()) { s.tasks = append(s.tasks, task) }

func (s *syncScheduler) drain() {
	for len(s.tasks) > 0 {
		task := s.tasks[0]
		s.tasks = s.tasks[1:]
		task()
	}
}

func encode(t *testing.T, c *host.Container) string {
	t.Helper()
	data, err := sonic.Marshal(snapshot.Prepare(c))
	require.NoError(t, err)
	return string(data)
}

func TestCounterLayout(t *testing.T) {
	sched := &syncScheduler{}
	c := host.NewContainer(host.NewContext(nil))
	engine := adapter.NewEngine(c, sched)

	root, err := Root(NameCounter, 0)
	require.NoError(t, err)
	engine.Render(root)
	sched.drain()

	assert.JSONEq(t, `{"elements":[
		{"tag":"text","type":"header","text":"Counter"},
		{"tag":"btn","id":0,"children":[{"tag":"raw","text":"-"}]},
		{"tag":"text","children":[{"tag":"raw","text":"count: "},{"tag":"raw","text":"0"}]},
		{"tag":"btn","id":1,"children":[{"tag":"raw","text":"+"}]}
	]}`, encode(t, c))
}

func TestCounterClicks(t *testing.T) {
	sched := &syncScheduler{}
	c := host.NewContainer(host.NewContext(nil))
	engine := adapter.NewEngine(c, sched)
	root, err := Root(NameCounter, 0)
	require.NoError(t, err)
	engine.Render(root)
	sched.drain()

	label := func() string {
		return c.Children[2].(*host.Text).Children[1].(*host.RawText).Text.String()
	}

	require.True(t, c.Dispatch(1))
	sched.drain()
	assert.Equal(t, "1", label())

	require.True(t, c.Dispatch(0))
	require.True(t, c.Dispatch(0))
	sched.drain()
	assert.Equal(t, "-1", label())

	assert.False(t, c.Dispatch(42))
}

func TestDemoButtonsInDocumentOrder(t *testing.T) {
	sched := &syncScheduler{}
	c := host.NewContainer(host.NewContext(nil))
	engine := adapter.NewEngine(c, sched)
	root, err := Root(NameDemo, time.Hour)
	require.NoError(t, err)
	engine.Render(root)
	sched.drain()

	var ids []int
	for _, child := range c.Children {
		if b, ok := child.(*host.Button); ok {
			ids = append(ids, b.ID)
		}
	}
	assert.Equal(t, []int{0, 1}, ids)

	first := c.Children[0].(*host.Text)
	assert.Equal(t, "Nothing to see here", first.Text.String())

	engine.Unmount()
	sched.drain()
	assert.Empty(t, c.Children)
}

func TestUnknownApp(t *testing.T) {
	_, err := Root("nope", time.Second)
	assert.Error(t, err)
}

func TestTickingTextAdvancesAndStops(t *testing.T) {
	loop := eventloop.New()
	var (
		mu     sync.Mutex
		latest string
		commit int
	)
	c := host.NewContainer(host.NewContext(func(c *host.Container) {
		data, _ := sonic.Marshal(snapshot.Prepare(c))
		mu.Lock()
		latest = string(data)
		commit++
		mu.Unlock()
	}))
	engine := adapter.NewEngine(c, loop)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = loop.Run(ctx)
		close(done)
	}()

	root, err := Root(NameTicker, 5*time.Millisecond)
	require.NoError(t, err)
	engine.Render(root)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return commit >= 3
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Contains(t, latest, `"text":"counter: "`)
	mu.Unlock()

	engine.Unmount()
	loop.Post(func() {})
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	after := commit
	mu.Unlock()
	time.Sleep(40 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, after, commit)
	mu.Unlock()

	loop.Close()
	<-done
}
