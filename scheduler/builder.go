package scheduler

import (
	"github.com/sarchlab/yardsim/eventlog"
	"github.com/sarchlab/yardsim/hooking"
	"github.com/sarchlab/yardsim/yard"
)

// Builder can be used to build a Scheduler.
type Builder struct {
	width  int
	sink   eventlog.Sink
	params Params
	hooks  []hooking.Hook
}

// MakeBuilder creates a new builder with the default parameters.
func MakeBuilder() Builder {
	return Builder{
		params: DefaultParams(),
	}
}

// WithWidth sets the number of columns of the yard.
func (b Builder) WithWidth(width int) Builder {
	b.width = width
	return b
}

// WithSink sets where the event log goes.
func (b Builder) WithSink(sink eventlog.Sink) Builder {
	b.sink = sink
	return b
}

// WithParams sets the strategy parameters.
func (b Builder) WithParams(params Params) Builder {
	b.params = params
	return b
}

// WithHook registers a hook on the scheduler before the log starts.
func (b Builder) WithHook(hook hooking.Hook) Builder {
	b.hooks = append(b.hooks[:len(b.hooks):len(b.hooks)], hook)
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.width <= 0 {
		panic("yard width must be positive")
	}

	if b.sink == nil {
		panic("event log sink is not set")
	}

	if err := b.params.Validate(); err != nil {
		panic(err)
	}
}

// Build creates the scheduler and writes the START record.
func (b Builder) Build() (*Scheduler, error) {
	b.parametersMustBeValid()

	s := &Scheduler{
		params: b.params,
		yard:   yard.New(b.width),
		sink:   b.sink,
	}

	for _, h := range b.hooks {
		s.AcceptHook(h)
	}

	if err := s.sink.Record(eventlog.Start(b.params.Name, b.width)); err != nil {
		return nil, err
	}

	return s, nil
}
