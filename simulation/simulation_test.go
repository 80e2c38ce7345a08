package simulation

import (
	"bytes"
	"net/http"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/yardsim/config"
	"github.com/sarchlab/yardsim/datarecording"
	"github.com/sarchlab/yardsim/eventlog"
	"github.com/sarchlab/yardsim/hooking"
	"github.com/sarchlab/yardsim/scheduler"
	"github.com/sarchlab/yardsim/yard"
)

func sellable(id int) yard.Container {
	return yard.Container{
		ID:       id,
		Size:     1,
		Value:    10,
		Arrival:  yard.TimeRange{Start: 0, End: 5},
		Delivery: yard.TimeRange{Start: 1, End: 3},
	}
}

var _ = Describe("Simulation", func() {
	var (
		dir string
		cfg config.Config
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		cfg = config.Default()
		cfg.Width = 4
		cfg.Log.Path = filepath.Join(dir, "log.txt")
	})

	It("should reject an invalid configuration", func() {
		cfg.Width = 0

		_, err := MakeBuilder().WithConfig(cfg).Build()

		Expect(err).To(MatchError(yard.ErrTypeMismatch))
	})

	It("should write the event log file", func() {
		s, err := MakeBuilder().WithConfig(cfg).Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(s.ID()).NotTo(BeEmpty())
		Expect(s.GetDataRecorder()).To(BeNil())
		Expect(s.GetMonitor()).To(BeNil())

		Expect(s.Run([]yard.Container{sellable(1)})).To(Succeed())
		Expect(s.Terminate()).To(Succeed())

		records, err := eventlog.ReadFile(cfg.Log.Path)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(5))
		Expect(records[0]).To(Equal(eventlog.Start(cfg.Strategy.Name, 4)))
		Expect(s.Scheduler().Cash()).To(Equal(10))
		Expect(s.Counter().Stats().Sales).To(Equal(uint64(1)))
	})

	It("should use the given sink", func() {
		log := eventlog.NewMemory()

		s, err := MakeBuilder().WithConfig(cfg).WithSink(log).Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Run([]yard.Container{sellable(1)})).To(Succeed())

		Expect(log.Records).To(HaveLen(5))
		Expect(cfg.Log.Path).NotTo(BeAnExistingFile())
	})

	It("should print the actions when verbose", func() {
		var buf bytes.Buffer

		cfg.Log.Verbose = true

		s, err := MakeBuilder().
			WithConfig(cfg).
			WithSink(eventlog.NewMemory()).
			WithLogWriter(&buf).
			Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Run([]yard.Container{sellable(1)})).To(Succeed())

		Expect(buf.String()).To(ContainSubstring("add container 1 -> 0"))
		Expect(buf.String()).To(ContainSubstring("sell container 1 for 10"))
	})

	It("should invoke the extra hooks", func() {
		ctrl := gomock.NewController(GinkgoT())
		hook := NewMockHook(ctrl)

		var positions []*hooking.HookPos
		hook.EXPECT().
			Func(gomock.Any()).
			Do(func(ctx hooking.HookCtx) {
				positions = append(positions, ctx.Pos)
			}).
			AnyTimes()

		s, err := MakeBuilder().
			WithConfig(cfg).
			WithSink(eventlog.NewMemory()).
			WithHook(hook).
			Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Run([]yard.Container{sellable(1)})).To(Succeed())

		Expect(positions).To(Equal([]*hooking.HookPos{
			scheduler.HookPosAction,
			scheduler.HookPosAction,
			scheduler.HookPosContainerDone,
		}))
	})

	It("should mirror the run into the recording database", func() {
		cfg.Recording.Enabled = true
		cfg.Recording.Name = filepath.Join(dir, "run")

		s, err := MakeBuilder().WithConfig(cfg).Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(s.GetDataRecorder()).NotTo(BeNil())
		Expect(s.Run([]yard.Container{sellable(1)})).To(Succeed())

		db := cfg.Recording.Name + datarecording.FileSuffix
		recorded, err := datarecording.ReadEvents(db)
		Expect(err).NotTo(HaveOccurred())

		logged, err := eventlog.ReadFile(cfg.Log.Path)
		Expect(err).NotTo(HaveOccurred())
		Expect(recorded).To(Equal(logged))
	})

	It("should refuse to overwrite a recording", func() {
		cfg.Recording.Enabled = true
		cfg.Recording.Name = filepath.Join(dir, "run")

		first, err := MakeBuilder().WithConfig(cfg).Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Terminate()).To(Succeed())

		cfg.Log.Path = filepath.Join(dir, "other.txt")
		_, err = MakeBuilder().WithConfig(cfg).Build()

		Expect(err).To(HaveOccurred())
	})

	It("should serve the monitor while running", func() {
		cfg.Monitor.Enabled = true

		s, err := MakeBuilder().
			WithConfig(cfg).
			WithSink(eventlog.NewMemory()).
			Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(s.GetMonitor()).NotTo(BeNil())
		Expect(s.MonitorURL()).To(HavePrefix("http://localhost:"))

		Expect(s.Run([]yard.Container{sellable(1)})).To(Succeed())

		rsp, err := http.Get(s.MonitorURL() + "/api/stats")
		Expect(err).NotTo(HaveOccurred())
		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
		Expect(rsp.Body.Close()).To(Succeed())

		Expect(s.Terminate()).To(Succeed())
	})
})
