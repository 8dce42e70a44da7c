package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type staticNonce uint64

func (n staticNonce) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return uint64(n), nil
}

var _ = Describe("NonceManager", func() {
	It("skips nonces held by in-flight transactions", func() {
		nm := newNonceManager()
		ctx := context.Background()

		first, err := nm.GetNonce(ctx, staticNonce(5), common.Address{})
		Expect(err).NotTo(HaveOccurred())
		second, err := nm.GetNonce(ctx, staticNonce(5), common.Address{})
		Expect(err).NotTo(HaveOccurred())

		Expect(first).To(Equal(uint64(5)))
		Expect(second).To(Equal(uint64(6)))
		Expect(nm.Pending()).To(Equal(2))

		nm.ReleaseNonce(first)
		third, err := nm.GetNonce(ctx, staticNonce(5), common.Address{})
		Expect(err).NotTo(HaveOccurred())
		Expect(third).To(Equal(uint64(5)))
	})
})
