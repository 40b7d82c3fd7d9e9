package latency_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cbpsim/insts"
	"github.com/sarchlab/cbpsim/timing/latency"
)

var _ = Describe("Latency", func() {
	var table *latency.Table

	BeforeEach(func() {
		table = latency.NewTable()
	})

	Describe("Default Timing Values", func() {
		It("should use the ALU latency for simple classes", func() {
			for _, c := range []insts.InstClass{
				insts.ClassALU,
				insts.ClassStore,
				insts.ClassCondBranch,
				insts.ClassReturn,
				insts.ClassUndef,
			} {
				Expect(table.GetLatency(c)).To(Equal(uint64(1)), c.String())
			}
		})

		It("should have dedicated FP and slow ALU latencies", func() {
			Expect(table.GetLatency(insts.ClassFP)).To(Equal(uint64(3)))
			Expect(table.GetLatency(insts.ClassSlowALU)).To(Equal(uint64(4)))
		})

		It("should expose the front-end depth", func() {
			Expect(table.FillLatency()).To(Equal(uint64(10)))
			Expect(table.DecodeLatency()).To(Equal(uint64(3)))
		})
	})

	Describe("Custom Configuration", func() {
		It("should use custom config values", func() {
			config := latency.DefaultTimingConfig()
			config.FPLatency = 6
			config.PipelineFillLatency = 1
			config.DecodeLatency = 1

			custom := latency.NewTableWithConfig(config)
			Expect(custom.GetLatency(insts.ClassFP)).To(Equal(uint64(6)))
			Expect(custom.FillLatency()).To(Equal(uint64(1)))
			Expect(custom.Config()).To(BeIdenticalTo(config))
		})
	})
})

var _ = Describe("TimingConfig", func() {
	Describe("Default Config", func() {
		It("should create valid default config", func() {
			Expect(latency.DefaultTimingConfig().Validate()).To(Succeed())
		})
	})

	Describe("Validation", func() {
		var config *latency.TimingConfig

		BeforeEach(func() {
			config = latency.DefaultTimingConfig()
		})

		It("should reject zero ALU latency", func() {
			config.ALULatency = 0
			Expect(config.Validate()).To(MatchError(ContainSubstring("alu_latency")))
		})

		It("should reject zero FP latency", func() {
			config.FPLatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject a zero decode latency", func() {
			config.DecodeLatency = 0
			Expect(config.Validate()).To(MatchError(ContainSubstring("decode_latency")))
		})

		It("should reject decode later than the pipeline fill", func() {
			config.PipelineFillLatency = 2
			config.DecodeLatency = 3
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should accept decode equal to the pipeline fill", func() {
			config.PipelineFillLatency = 1
			config.DecodeLatency = 1
			Expect(config.Validate()).To(Succeed())
		})
	})

	Describe("Clone", func() {
		It("should create independent copy", func() {
			original := latency.DefaultTimingConfig()
			clone := original.Clone()

			clone.ALULatency = 100

			Expect(original.ALULatency).To(Equal(uint64(1)))
			Expect(clone.ALULatency).To(Equal(uint64(100)))
		})
	})

	Describe("File Operations", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "latency-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should save and load config", func() {
			original := latency.DefaultTimingConfig()
			original.ALULatency = 5
			original.SlowALULatency = 10

			path := filepath.Join(tempDir, "timing.json")
			Expect(original.SaveConfig(path)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.ALULatency).To(Equal(uint64(5)))
			Expect(loaded.SlowALULatency).To(Equal(uint64(10)))
		})

		It("should keep defaults for fields missing from the file", func() {
			path := filepath.Join(tempDir, "partial.json")
			Expect(os.WriteFile(path, []byte(`{"fp_latency": 7}`), 0644)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.FPLatency).To(Equal(uint64(7)))
			Expect(loaded.ALULatency).To(Equal(uint64(1)))
		})

		It("should return error for non-existent file", func() {
			_, err := latency.LoadConfig("/nonexistent/path/timing.json")
			Expect(err).To(HaveOccurred())
		})

		It("should return error for invalid JSON", func() {
			path := filepath.Join(tempDir, "invalid.json")
			err := os.WriteFile(path, []byte("not valid json"), 0644)
			Expect(err).NotTo(HaveOccurred())

			_, err = latency.LoadConfig(path)
			Expect(err).To(HaveOccurred())
		})
	})
})
