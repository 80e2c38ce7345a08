package verify

import (
	"math/rand"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/yardsim/eventlog"
	"github.com/sarchlab/yardsim/hooking"
	"github.com/sarchlab/yardsim/manifest"
	"github.com/sarchlab/yardsim/scheduler"
	"github.com/sarchlab/yardsim/yard"
)

func box(id, size, value, deliveryStart, deliveryEnd int) yard.Container {
	return yard.Container{
		ID:       id,
		Size:     size,
		Value:    value,
		Arrival:  yard.TimeRange{Start: 0, End: 100},
		Delivery: yard.TimeRange{Start: deliveryStart, End: deliveryEnd},
	}
}

func randomContainers(seed int64, n int) []yard.Container {
	rng := rand.New(rand.NewSource(seed))

	var containers []yard.Container

	t := 0
	for id := 1; id <= n; id++ {
		t += rng.Intn(4)
		deliveryStart := t + rng.Intn(40)
		containers = append(containers, yard.Container{
			ID:       id,
			Size:     1 + rng.Intn(manifest.MaxSize),
			Value:    rng.Intn(1000),
			Arrival:  yard.TimeRange{Start: t, End: t + 1 + rng.Intn(10)},
			Delivery: yard.TimeRange{Start: deliveryStart, End: deliveryStart + 1 + rng.Intn(30)},
		})
	}

	return containers
}

func integrityError(err error) *IntegrityError {
	var integrityErr *IntegrityError

	ExpectWithOffset(1, err).To(BeAssignableToTypeOf(integrityErr))

	return err.(*IntegrityError)
}

var _ = Describe("Replay", func() {
	var (
		c1, c2, c3 yard.Container
		containers []yard.Container
	)

	BeforeEach(func() {
		c1 = box(1, 1, 10, 1, 3)
		c2 = box(2, 2, 20, 0, 50)
		c3 = box(3, 1, 30, 5, 6)
		containers = []yard.Container{c1, c2, c3}
	})

	It("should accept a legal log", func() {
		records := []eventlog.Record{
			eventlog.Start("hand", 4),
			eventlog.Add(0, c1, 0),
			eventlog.Add(1, c2, 2),
			eventlog.Remove(2, c1),
			eventlog.Cash(2, 10),
			eventlog.Move(3, c2, 0),
			eventlog.Cash(4, 10),
		}

		result, err := Replay(containers, records)

		Expect(err).NotTo(HaveOccurred())
		Expect(*result).To(Equal(Result{
			Name:     "hand",
			Width:    4,
			Cash:     10,
			Events:   7,
			LastCash: 10,
		}))
	})

	It("should not credit a removal outside the delivery window", func() {
		records := []eventlog.Record{
			eventlog.Start("hand", 4),
			eventlog.Add(0, c3, 0),
			eventlog.Remove(1, c3),
			eventlog.Cash(1, 0),
		}

		result, err := Replay(containers, records)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Cash).To(Equal(0))
	})

	It("should reject a log that does not start with START", func() {
		_, err := Replay(containers, []eventlog.Record{eventlog.Add(0, c1, 0)})

		ie := integrityError(err)
		Expect(ie.Line).To(Equal(1))
		Expect(ie.Kind).To(Equal(eventlog.KindAdd))
	})

	It("should reject a START that is not at time 0", func() {
		start := eventlog.Start("hand", 4)
		start.Time = 3

		_, err := Replay(containers, []eventlog.Record{start})

		Expect(integrityError(err).Line).To(Equal(1))
	})

	It("should reject an empty log", func() {
		_, err := Replay(containers, nil)

		integrityError(err)
	})

	It("should reject a second START", func() {
		_, err := Replay(containers, []eventlog.Record{
			eventlog.Start("hand", 4),
			eventlog.Start("hand", 4),
		})

		Expect(integrityError(err).Line).To(Equal(2))
	})

	It("should reject time going back", func() {
		_, err := Replay(containers, []eventlog.Record{
			eventlog.Start("hand", 4),
			eventlog.Add(5, c1, 0),
			eventlog.Add(4, c2, 2),
		})

		ie := integrityError(err)
		Expect(ie.Line).To(Equal(3))
		Expect(ie.Time).To(Equal(4))
	})

	It("should reject unknown containers", func() {
		_, err := Replay(containers, []eventlog.Record{
			eventlog.Start("hand", 4),
			eventlog.Add(0, box(9, 1, 1, 0, 1), 0),
		})

		Expect(integrityError(err).Line).To(Equal(2))
	})

	It("should reject a straddling placement", func() {
		_, err := Replay(containers, []eventlog.Record{
			eventlog.Start("hand", 4),
			eventlog.Add(0, c1, 0),
			eventlog.Add(1, c2, 0),
		})

		Expect(err).To(MatchError(yard.ErrConstraintViolation))
		Expect(integrityError(err).Line).To(Equal(3))
	})

	It("should reject removing a buried container", func() {
		_, err := Replay(containers, []eventlog.Record{
			eventlog.Start("hand", 4),
			eventlog.Add(0, c1, 0),
			eventlog.Add(1, c3, 0),
			eventlog.Remove(2, c1),
		})

		Expect(err).To(MatchError(yard.ErrConstraintViolation))
	})

	It("should reject a cash record that does not match", func() {
		_, err := Replay(containers, []eventlog.Record{
			eventlog.Start("hand", 4),
			eventlog.Add(0, c1, 0),
			eventlog.Remove(1, c1),
			eventlog.Cash(1, 11),
		})

		ie := integrityError(err)
		Expect(ie.Line).To(Equal(4))
		Expect(ie.Kind).To(Equal(eventlog.KindCash))
	})

	It("should reject unknown record kinds", func() {
		_, err := Replay(containers, []eventlog.Record{
			eventlog.Start("hand", 4),
			{Time: 0, Kind: "JUMP", Container: 1},
		})

		Expect(err).To(MatchError(yard.ErrTypeMismatch))
	})

	It("should invoke the hooks after every record", func() {
		var heights [][]int

		hook := hooking.HookFunc(func(ctx hooking.HookCtx) {
			Expect(ctx.Pos).To(Equal(HookPosReplayStep))
			heights = append(heights, yard.Heights(ctx.Detail.(yard.View)))
		})

		_, err := Replay(containers, []eventlog.Record{
			eventlog.Start("hand", 4),
			eventlog.Add(0, c1, 0),
			eventlog.Add(1, c2, 2),
		}, hook)

		Expect(err).NotTo(HaveOccurred())
		Expect(heights).To(Equal([][]int{
			{0, 0, 0, 0},
			{1, 0, 0, 0},
			{1, 0, 1, 1},
		}))
	})

	Context("with logs written by the scheduler", func() {
		run := func(containers []yard.Container, width int) *eventlog.Memory {
			log := eventlog.NewMemory()
			s, err := scheduler.MakeBuilder().
				WithWidth(width).
				WithSink(log).
				Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(scheduler.Run(s, containers)).To(Succeed())

			return log
		}

		It("should certify the runs", func() {
			for seed := int64(1); seed <= 5; seed++ {
				containers := randomContainers(seed, 200)
				log := run(containers, 20)

				result, err := Replay(containers, log.Records)

				Expect(err).NotTo(HaveOccurred())
				Expect(result.Events).To(Equal(len(log.Records)))
				Expect(result.Cash).To(Equal(result.LastCash))
			}
		})

		It("should give the same result when replayed twice", func() {
			containers := randomContainers(7, 200)
			log := run(containers, 20)

			first, err := Replay(containers, log.Records)
			Expect(err).NotTo(HaveOccurred())
			second, err := Replay(containers, log.Records)
			Expect(err).NotTo(HaveOccurred())

			Expect(second).To(Equal(first))
		})

		It("should detect a dropped record", func() {
			containers := randomContainers(3, 200)
			records := run(containers, 20).Records

			touched := make(map[int]int)
			for _, r := range records {
				if r.Kind == eventlog.KindMove || r.Kind == eventlog.KindRemove {
					touched[r.Container]++
				}
			}

			var tampered []eventlog.Record
			dropped := false
			for _, r := range records {
				if !dropped && r.Kind == eventlog.KindAdd && touched[r.Container] > 0 {
					dropped = true
					continue
				}

				tampered = append(tampered, r)
			}
			Expect(dropped).To(BeTrue())

			_, err := Replay(containers, tampered)

			integrityError(err)
		})
	})
})

var _ = Describe("Check", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	It("should check files", func() {
		containers := write("containers.txt", "1 1 10 0 5 1 3\n")
		log := write("log.txt", "0 START my_strategy 4\n"+
			"0 ADD 1 0\n"+
			"1 REMOVE 1\n"+
			"1 CASH 10\n"+
			"2 CASH 10\n")

		Expect(Check(containers, log)).To(Succeed())
	})

	It("should check compressed logs", func() {
		containers := randomContainers(11, 50)
		path := filepath.Join(dir, "containers.txt")
		f, err := os.Create(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(manifest.Format(f, containers)).To(Succeed())
		Expect(f.Close()).To(Succeed())

		logPath := filepath.Join(dir, "run", "log.txt"+eventlog.CompressedSuffix)
		w, err := eventlog.Create(logPath)
		Expect(err).NotTo(HaveOccurred())
		s, err := scheduler.MakeBuilder().WithWidth(20).WithSink(w).Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(scheduler.Run(s, containers)).To(Succeed())

		result, err := CheckFiles(path, logPath)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Cash).To(Equal(s.Cash()))
	})

	It("should report a wrong cash line", func() {
		containers := write("containers.txt", "1 1 10 0 5 1 3\n")
		log := write("log.txt", "0 START my_strategy 4\n"+
			"0 ADD 1 0\n"+
			"1 REMOVE 1\n"+
			"1 CASH 12\n")

		err := Check(containers, log)

		Expect(integrityError(err).Line).To(Equal(4))
	})

	It("should report malformed logs", func() {
		containers := write("containers.txt", "1 1 10 0 5 1 3\n")
		log := write("log.txt", "0 START my_strategy 4\n0 ADD one 0\n")

		Expect(Check(containers, log)).To(MatchError(yard.ErrTypeMismatch))
	})

	It("should report missing files", func() {
		Expect(Check(filepath.Join(dir, "nope"), filepath.Join(dir, "nope"))).
			NotTo(Succeed())
	})
})
