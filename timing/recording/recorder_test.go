package recording_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cbpsim/insts"
	"github.com/sarchlab/cbpsim/timing/bpred"
	"github.com/sarchlab/cbpsim/timing/config"
	"github.com/sarchlab/cbpsim/timing/pipeline"
	"github.com/sarchlab/cbpsim/timing/recording"
)

var _ = Describe("Recorder", func() {
	var (
		dir string
		r   *recording.Recorder
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()

		var err error
		r, err = recording.New(filepath.Join(dir, "run"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = r.Close() })
	})

	count := func(table string) int {
		var n int
		Expect(r.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n)).To(Succeed())
		return n
	}

	It("should create the database file", func() {
		Expect(r.Filename()).To(Equal(filepath.Join(dir, "run.sqlite3")))
		_, err := os.Stat(r.Filename())
		Expect(err).NotTo(HaveOccurred())
	})

	It("should refuse to overwrite an existing database", func() {
		_, err := recording.New(filepath.Join(dir, "run"))
		Expect(err).To(MatchError(ContainSubstring("already exists")))
	})

	It("should record a run with its epochs, branches and caches", func() {
		stats := pipeline.Statistics{
			Instructions: 300,
			Cycles:       150,
			Branch:       bpred.Counters{CondBranches: 30, CondMispredicts: 3},
			Epochs: []pipeline.Epoch{
				{Instructions: 200, Cycles: 100},
				{Instructions: 100, Cycles: 50},
			},
			Caches: []pipeline.CacheStats{
				{Name: "L1", Config: config.DefaultConfig().Memory.L1},
			},
		}

		id := recording.NewRunID()
		info := recording.RunInfo{Trace: "t.gz", Start: time.Now(), Elapsed: time.Second}
		Expect(r.RecordRun(id, info, config.DefaultConfig(), stats)).To(Succeed())

		Expect(count("runs")).To(Equal(1))
		Expect(count("epochs")).To(Equal(2))
		Expect(count("branches")).To(Equal(5))
		Expect(count("caches")).To(Equal(1))

		var ipc float64
		var trace string
		Expect(r.QueryRow("SELECT trace, ipc FROM runs WHERE run_id = ?", id).
			Scan(&trace, &ipc)).To(Succeed())
		Expect(trace).To(Equal("t.gz"))
		Expect(ipc).To(Equal(2.0))

		var mispreds int
		Expect(r.QueryRow(
			"SELECT mispredicts FROM branches WHERE run_id = ? AND category = 'CondDirect'", id).
			Scan(&mispreds)).To(Succeed())
		Expect(mispreds).To(Equal(3))
	})

	It("should keep several runs apart", func() {
		cfg := config.DefaultConfig()
		Expect(r.RecordRun(recording.NewRunID(), recording.RunInfo{}, cfg, pipeline.Statistics{})).To(Succeed())
		Expect(r.RecordRun(recording.NewRunID(), recording.RunInfo{}, cfg, pipeline.Statistics{})).To(Succeed())
		Expect(count("runs")).To(Equal(2))
	})

	Context("commit tracing", func() {
		entry := func(seq uint64) *pipeline.WindowEntry {
			return &pipeline.WindowEntry{
				SeqNo:       seq,
				PC:          0x1000 + 4*seq,
				Info:        insts.ExecuteInfo{Decode: insts.DecodeInfo{Class: insts.ClassLoad}},
				FetchCycle:  seq,
				ExecCycle:   seq + 2,
				RetireCycle: seq + 3,
			}
		}

		It("should buffer commits until flushed", func() {
			t := r.NewCommitTracer("run-a")
			for i := uint64(0); i < 10; i++ {
				t.NotifyCommit(entry(i), i+3)
			}
			Expect(count("commits")).To(BeZero())

			Expect(r.Flush()).To(Succeed())
			Expect(count("commits")).To(Equal(10))
		})

		It("should flush once a batch is full", func() {
			r.SetBatchSize(4)
			t := r.NewCommitTracer("run-a")
			for i := uint64(0); i < 10; i++ {
				t.NotifyCommit(entry(i), i+3)
			}
			Expect(t.Err()).NotTo(HaveOccurred())
			Expect(count("commits")).To(Equal(8))
		})

		It("should sample commits", func() {
			t := r.NewCommitTracer("run-a")
			t.Every = 3
			for i := uint64(0); i < 10; i++ {
				t.NotifyCommit(entry(i), i+3)
			}
			Expect(r.Flush()).To(Succeed())

			rows, err := r.Query("SELECT seq_no FROM commits ORDER BY seq_no")
			Expect(err).NotTo(HaveOccurred())
			defer rows.Close()

			var seqs []int
			for rows.Next() {
				var s int
				Expect(rows.Scan(&s)).To(Succeed())
				seqs = append(seqs, s)
			}
			Expect(seqs).To(Equal([]int{0, 3, 6, 9}))
		})

		It("should record the stage cycles", func() {
			t := r.NewCommitTracer("run-a")
			t.NotifyCommit(entry(7), 10)
			Expect(r.Flush()).To(Succeed())

			var class string
			var exec, retire int
			Expect(r.QueryRow("SELECT class, exec_cycle, retire_cycle FROM commits").
				Scan(&class, &exec, &retire)).To(Succeed())
			Expect(class).To(Equal(insts.ClassLoad.String()))
			Expect(exec).To(Equal(9))
			Expect(retire).To(Equal(10))
		})

		It("should work as a pipeline observer", func() {
			var _ pipeline.StageObserver = r.NewCommitTracer("run-a")
		})
	})
})
