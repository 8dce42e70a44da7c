package memory_test

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/lisanmuaddib/wrap-agent/pkg/db/models"
	"github.com/lisanmuaddib/wrap-agent/pkg/memory"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func operation(seq int64, status models.OperationStatus, startedAt time.Time) *models.Operation {
	return &models.Operation{
		ID:             uuid.New(),
		Sequence:       seq,
		Kind:           "wrap",
		Amount:         "2.5",
		Status:         status,
		TxHash:         "0xabc",
		PriorityFeeWei: "2000000000",
		MaxFeeWei:      "6000000000",
		FeeTier:        "network",
		StartedAt:      startedAt,
		FinishedAt:     startedAt.Add(3 * time.Second),
	}
}

var _ = Describe("OperationStore", func() {
	var (
		ctx   context.Context
		store *memory.OperationStore
		base  time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		base = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		// each connection to :memory: is a separate database
		sqlDB.SetMaxOpenConns(1)
		DeferCleanup(sqlDB.Close)

		Expect(db.AutoMigrate(&models.Operation{})).To(Succeed())

		log := logrus.New()
		log.SetOutput(io.Discard)
		store, err = memory.NewOperationStore(log, db)
		Expect(err).NotTo(HaveOccurred())
	})

	It("requires a database", func() {
		_, err := memory.NewOperationStore(nil, nil)
		Expect(err).To(HaveOccurred())
	})

	It("returns recent operations newest first", func() {
		for i := int64(1); i <= 3; i++ {
			Expect(store.SaveOperation(ctx, operation(i, models.StatusSucceeded, base.Add(time.Duration(i)*time.Minute)))).To(Succeed())
		}

		ops, err := store.RecentOperations(ctx, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(ops).To(HaveLen(2))
		Expect(ops[0].Sequence).To(Equal(int64(3)))
		Expect(ops[1].Sequence).To(Equal(int64(2)))
		Expect(ops[0].TxHash).To(Equal("0xabc"))
		Expect(ops[0].Duration()).To(Equal(3 * time.Second))
	})

	It("keeps a missing wrapped balance empty", func() {
		failed := operation(1, models.StatusFailed, base)
		failed.Error = "[TRANSACTION_REVERTED] transaction reverted"
		Expect(store.SaveOperation(ctx, failed)).To(Succeed())

		ops, err := store.RecentOperations(ctx, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(ops).To(HaveLen(1))
		Expect(ops[0].WrappedBalance).To(BeNil())
		Expect(ops[0].Error).To(ContainSubstring("TRANSACTION_REVERTED"))
	})

	It("updates an operation saved twice", func() {
		op := operation(1, models.StatusFailed, base)
		Expect(store.SaveOperation(ctx, op)).To(Succeed())

		op.Status = models.StatusSucceeded
		op.BlockNumber = 77
		Expect(store.SaveOperation(ctx, op)).To(Succeed())

		ops, err := store.RecentOperations(ctx, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(ops).To(HaveLen(1))
		Expect(ops[0].Status).To(Equal(models.StatusSucceeded))
		Expect(ops[0].BlockNumber).To(Equal(uint64(77)))
	})

	It("counts operations by status", func() {
		Expect(store.SaveOperation(ctx, operation(1, models.StatusSucceeded, base))).To(Succeed())
		Expect(store.SaveOperation(ctx, operation(2, models.StatusSucceeded, base.Add(time.Minute)))).To(Succeed())
		Expect(store.SaveOperation(ctx, operation(3, models.StatusFailed, base.Add(2*time.Minute)))).To(Succeed())

		counts, err := store.CountByStatus(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(counts).To(Equal(map[models.OperationStatus]int64{
			models.StatusSucceeded: 2,
			models.StatusFailed:    1,
		}))
	})
})
