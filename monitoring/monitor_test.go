package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/yardsim/eventlog"
	"github.com/sarchlab/yardsim/hooking"
	"github.com/sarchlab/yardsim/scheduler"
	"github.com/sarchlab/yardsim/tracing"
	"github.com/sarchlab/yardsim/verify"
	"github.com/sarchlab/yardsim/yard"
)

func container(id, value, arrivalStart, arrivalEnd, deliveryStart, deliveryEnd int) yard.Container {
	return yard.Container{
		ID:       id,
		Size:     1,
		Value:    value,
		Arrival:  yard.TimeRange{Start: arrivalStart, End: arrivalEnd},
		Delivery: yard.TimeRange{Start: deliveryStart, End: deliveryEnd},
	}
}

var _ = Describe("Monitor", func() {
	var (
		m      *Monitor
		router http.Handler
	)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		return rec
	}

	decode := func(rec *httptest.ResponseRecorder, v any) {
		ExpectWithOffset(1, rec.Code).To(Equal(http.StatusOK))
		ExpectWithOffset(1, json.Unmarshal(rec.Body.Bytes(), v)).To(Succeed())
	}

	BeforeEach(func() {
		m = NewMonitor().WithRefreshInterval(0)
		router = m.Router()
	})

	It("should report that no yard is observed yet", func() {
		Expect(get("/api/yard").Code).To(Equal(http.StatusNotFound))
		Expect(get("/api/yard/text").Code).To(Equal(http.StatusNotFound))
	})

	Context("when attached to a scheduler", func() {
		var counter *tracing.ActionCounter

		BeforeEach(func() {
			counter = tracing.NewActionCounter()
			m.RegisterStats(counter)

			containers := []yard.Container{
				container(1, 10, 0, 5, 200, 300),
				container(2, 5, 1, 100, 200, 300),
			}
			m.TrackContainers(uint64(len(containers)))

			s, err := scheduler.MakeBuilder().
				WithWidth(4).
				WithSink(eventlog.NewMemory()).
				WithHook(counter).
				WithHook(m).
				Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(scheduler.Run(s, containers)).To(Succeed())
		})

		It("should serve the time of the last action", func() {
			var rsp struct{ Now int }
			decode(get("/api/now"), &rsp)

			Expect(rsp.Now).To(BeNumerically(">", 0))
		})

		It("should serve the progress", func() {
			var bars []struct {
				Name     string
				Total    uint64
				Finished uint64
			}
			decode(get("/api/progress"), &bars)

			Expect(bars).To(HaveLen(1))
			Expect(bars[0].Name).To(Equal("Containers"))
			Expect(bars[0].Finished).To(Equal(uint64(2)))
		})

		It("should serve the action summary", func() {
			var rsp struct {
				Adds int `json:"adds"`
				Cash int `json:"cash"`
			}
			decode(get("/api/stats"), &rsp)

			Expect(rsp.Adds).To(Equal(2))
			Expect(rsp.Cash).To(Equal(0))
		})

		It("should serialize the yard", func() {
			rec := get("/api/yard")

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.Len()).To(BeNumerically(">", 0))
		})

		It("should draw the yard", func() {
			rec := get("/api/yard/text")

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring("$: 0"))
		})
	})

	It("should follow a replay", func() {
		c := container(1, 10, 0, 5, 1, 3)

		_, err := verify.Replay([]yard.Container{c}, []eventlog.Record{
			eventlog.Start("my_strategy", 4),
			eventlog.Add(0, c, 0),
			eventlog.Remove(1, c),
			eventlog.Cash(1, 10),
			eventlog.Cash(2, 10),
		}, m)
		Expect(err).NotTo(HaveOccurred())

		var rsp struct{ Now int }
		decode(get("/api/now"), &rsp)
		Expect(rsp.Now).To(Equal(2))

		var stats struct{ Cash int }
		decode(get("/api/stats"), &stats)
		Expect(stats.Cash).To(Equal(10))
	})

	It("should keep the first copy until the refresh interval passes", func() {
		m.WithRefreshInterval(time.Hour)
		y := yard.New(2)

		m.Update(0, y)
		Expect(y.Place(container(1, 1, 0, 1, 0, 1), 0)).To(Succeed())
		m.Func(hooking.HookCtx{
			Pos:    scheduler.HookPosAction,
			Item:   scheduler.Action{Kind: scheduler.ActionAdd, Time: 1},
			Detail: y,
		})

		Expect(m.snapshot.Order).To(BeEmpty())
		Expect(m.now).To(Equal(1))
	})

	It("should remove completed progress bars", func() {
		a := m.CreateProgressBar("a", 1)
		m.CreateProgressBar("b", 1)

		m.CompleteProgressBar(a)

		var bars []struct{ Name string }
		decode(get("/api/progress"), &bars)
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Name).To(Equal("b"))
	})

	It("should ignore low port numbers", func() {
		m.WithPortNumber(80)

		Expect(m.portNumber).To(Equal(0))
	})
})
