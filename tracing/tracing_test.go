package tracing

import (
	"bytes"
	"log"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/yardsim/eventlog"
	"github.com/sarchlab/yardsim/hooking"
	"github.com/sarchlab/yardsim/scheduler"
	"github.com/sarchlab/yardsim/verify"
	"github.com/sarchlab/yardsim/yard"
)

func item(id, value, arrivalStart, arrivalEnd, deliveryStart, deliveryEnd int) yard.Container {
	return yard.Container{
		ID:       id,
		Size:     1,
		Value:    value,
		Arrival:  yard.TimeRange{Start: arrivalStart, End: arrivalEnd},
		Delivery: yard.TimeRange{Start: deliveryStart, End: deliveryEnd},
	}
}

var _ = Describe("ActionCounter", func() {
	var counter *ActionCounter

	BeforeEach(func() {
		counter = NewActionCounter()
	})

	It("should count the actions of a run", func() {
		s, err := scheduler.MakeBuilder().
			WithWidth(4).
			WithSink(eventlog.NewMemory()).
			WithHook(counter).
			Build()
		Expect(err).NotTo(HaveOccurred())

		err = scheduler.Run(s, []yard.Container{
			item(1, 100, 0, 1, 0, 1),
			item(2, 1, 1, 4, 10, 20),
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(counter.GetActionNames()).To(Equal([]scheduler.ActionKind{
			scheduler.ActionAdd,
			scheduler.ActionLose,
			scheduler.ActionMove,
		}))
		Expect(counter.GetActionCount(scheduler.ActionAdd)).To(Equal(uint64(2)))
		Expect(counter.Stats()).To(Equal(ActionStats{
			Adds:       2,
			Moves:      1,
			Losses:     1,
			LostValue:  100,
			Containers: 2,
		}))
	})

	It("should add up the sold value", func() {
		for i := 0; i < 3; i++ {
			counter.Func(hooking.HookCtx{
				Pos: scheduler.HookPosAction,
				Item: scheduler.Action{
					Kind:      scheduler.ActionSell,
					Container: item(i, 10*i, 0, 1, 0, 1),
				},
			})
		}

		Expect(counter.Stats().Sales).To(Equal(uint64(3)))
		Expect(counter.Stats().SoldValue).To(Equal(30))
	})

	It("should ignore other hook positions", func() {
		counter.Func(hooking.HookCtx{
			Pos:  verify.HookPosReplayStep,
			Item: eventlog.Cash(0, 0),
		})

		Expect(counter.GetActionNames()).To(BeEmpty())
	})

	It("should print a report", func() {
		counter.Func(hooking.HookCtx{
			Pos:  scheduler.HookPosAction,
			Item: scheduler.Action{Kind: scheduler.ActionAdd},
		})

		buf := new(bytes.Buffer)
		Expect(counter.Report(buf)).To(Succeed())

		Expect(buf.String()).To(ContainSubstring("adds: 1\n"))
	})
})

var _ = Describe("EventLogger", func() {
	var (
		buf    *bytes.Buffer
		logger *EventLogger
	)

	BeforeEach(func() {
		buf = new(bytes.Buffer)
		logger = NewEventLogger(log.New(buf, "", 0))
	})

	It("should print the scheduler actions", func() {
		c := item(1, 10, 0, 5, 1, 3)
		s, err := scheduler.MakeBuilder().
			WithWidth(4).
			WithSink(eventlog.NewMemory()).
			WithHook(logger).
			Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(scheduler.Run(s, []yard.Container{c})).To(Succeed())

		Expect(strings.Split(strings.TrimSpace(buf.String()), "\n")).To(Equal([]string{
			"0, add container 1 -> 0",
			"1, sell container 1 for 10, cash 10",
		}))
	})

	It("should print the replayed records", func() {
		c := item(1, 10, 0, 5, 1, 3)

		_, err := verify.Replay([]yard.Container{c}, []eventlog.Record{
			eventlog.Start("my_strategy", 4),
			eventlog.Add(0, c, 0),
		}, logger)
		Expect(err).NotTo(HaveOccurred())

		Expect(buf.String()).To(Equal(
			"replay 0 START my_strategy 4\nreplay 0 ADD 1 0\n"))
	})
})
