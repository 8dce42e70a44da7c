package picker_test

import (
	"math/rand"
	"time"

	"github.com/lisanmuaddib/wrap-agent/pkg/picker"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

var _ = Describe("Picker", func() {
	var p *picker.Picker

	BeforeEach(func() {
		p = picker.NewWithSource(rand.NewSource(7))
	})

	It("keeps amounts within [min, max)", func() {
		for i := 0; i < 10000; i++ {
			amount := p.Amount(1, 5)
			Expect(amount).To(BeNumerically(">=", 1))
			Expect(amount).To(BeNumerically("<", 5))
		}
	})

	It("returns min for an empty range", func() {
		Expect(p.Amount(3, 3)).To(Equal(3.0))
	})

	It("picks both kinds roughly evenly", func() {
		wraps := 0
		for i := 0; i < 10000; i++ {
			if p.Kind() == picker.Wrap {
				wraps++
			}
		}
		Expect(wraps).To(BeNumerically("~", 5000, 300))
	})

	It("scales intervals from minutes to milliseconds", func() {
		for i := 0; i < 1000; i++ {
			ms := p.IntervalMillis(1, 2)
			Expect(ms).To(BeNumerically(">=", 60_000))
			Expect(ms).To(BeNumerically("<", 120_000))
		}
		Expect(p.Interval(0.5, 0.5)).To(Equal(30 * time.Second))
	})

	It("builds requests with amounts in range", func() {
		for i := 0; i < 1000; i++ {
			req := p.Request(1, 5)
			Expect(req.Amount.GreaterThanOrEqual(decimal.NewFromInt(1))).To(BeTrue())
			Expect(req.Amount.LessThan(decimal.NewFromInt(5))).To(BeTrue())
		}
	})

	It("is reproducible for a fixed seed", func() {
		other := picker.NewWithSource(rand.NewSource(7))
		for i := 0; i < 10; i++ {
			Expect(p.Amount(0, 100)).To(Equal(other.Amount(0, 100)))
		}
	})
})

var _ = Describe("Request", func() {
	It("converts the amount to 18-decimal base units", func() {
		req := picker.Request{Kind: picker.Wrap, Amount: decimal.RequireFromString("1.5")}
		Expect(req.Wei().String()).To(Equal("1500000000000000000"))
	})

	It("truncates digits below one wei", func() {
		req := picker.Request{Kind: picker.Unwrap, Amount: decimal.RequireFromString("0.0000000000000000019")}
		Expect(req.Wei().String()).To(Equal("1"))
	})

	It("names its kind", func() {
		Expect(picker.Wrap.String()).To(Equal("wrap"))
		Expect(picker.Unwrap.String()).To(Equal("unwrap"))
	})
})
