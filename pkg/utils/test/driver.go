package testutils

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/hues/pkg/storage"
)

// ItBehavesLikeADriver registers the tests every storage.Driver must pass.
// newDriver is called before each test; the returned driver is closed after.
func ItBehavesLikeADriver(newDriver func() storage.Driver) {
	var (
		driver storage.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
		}
	})

	It("round trips a snapshot exactly", func() {
		snap := NewTestSnapshot("holiday")
		Expect(driver.Save(ctx, snap)).To(Succeed())

		loaded, err := driver.Load(ctx, "holiday")
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Meta.ID).To(Equal(snap.Meta.ID))
		Expect(loaded.Meta.Name).To(Equal("holiday"))
		Expect(loaded.Meta.Thumbnail).To(Equal(snap.Meta.Thumbnail))
		Expect(loaded.Meta.Count).To(Equal(snap.Meta.Count))
		Expect(loaded.Meta.CreatedAt.Equal(snap.Meta.CreatedAt)).To(BeTrue())
		Expect(loaded.Meta.UpdatedAt.Equal(snap.Meta.UpdatedAt)).To(BeTrue())

		Expect(loaded.Records).To(HaveLen(len(snap.Records)))
		for i, r := range snap.Records {
			Expect(loaded.Records[i].ID).To(Equal(r.ID))
			Expect(loaded.Records[i].Fingerprint.Equal(r.Fingerprint)).To(BeTrue(),
				"record %s changed: %v != %v", r.ID, loaded.Records[i].Fingerprint, r.Fingerprint)
		}
	})

	It("replaces a collection on save", func() {
		snap := NewTestSnapshot("holiday")
		Expect(driver.Save(ctx, snap)).To(Succeed())

		snap.Records = snap.Records[:1]
		snap.Meta.Count = 1
		Expect(driver.Save(ctx, snap)).To(Succeed())

		loaded, err := driver.Load(ctx, "holiday")
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Records).To(HaveLen(1))
		Expect(loaded.Meta.Count).To(Equal(1))
	})

	It("saves an empty collection", func() {
		snap := NewTestSnapshot("empty")
		snap.Records = nil
		snap.Meta.Count = 0
		Expect(driver.Save(ctx, snap)).To(Succeed())

		loaded, err := driver.Load(ctx, "empty")
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Records).To(BeEmpty())
	})

	It("returns NotFoundError for unknown collections", func() {
		_, err := driver.Load(ctx, "missing")
		var nf storage.NotFoundError
		Expect(errors.As(err, &nf)).To(BeTrue())
		Expect(nf.Name).To(Equal("missing"))
	})

	It("lists collections by name", func() {
		Expect(driver.Save(ctx, NewTestSnapshot("zebra"))).To(Succeed())
		Expect(driver.Save(ctx, NewTestSnapshot("apple"))).To(Succeed())

		metas, err := driver.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(metas).To(HaveLen(2))
		Expect(metas[0].Name).To(Equal("apple"))
		Expect(metas[1].Name).To(Equal("zebra"))
		Expect(metas[1].UpdatedAt).To(BeTemporally("~", NewTestSnapshot("x").Meta.UpdatedAt, time.Second))
	})

	It("deletes collections", func() {
		Expect(driver.Save(ctx, NewTestSnapshot("gone"))).To(Succeed())
		Expect(driver.Delete(ctx, "gone")).To(Succeed())

		_, err := driver.Load(ctx, "gone")
		Expect(err).To(BeAssignableToTypeOf(storage.NotFoundError{}))

		err = driver.Delete(ctx, "gone")
		Expect(err).To(BeAssignableToTypeOf(storage.NotFoundError{}))
	})

	It("keeps names with path separators and spaces apart", func() {
		Expect(driver.Save(ctx, NewTestSnapshot("a/b"))).To(Succeed())
		Expect(driver.Save(ctx, NewTestSnapshot("a b"))).To(Succeed())

		metas, err := driver.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(metas).To(HaveLen(2))

		loaded, err := driver.Load(ctx, "a/b")
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Meta.Name).To(Equal("a/b"))
	})

	It("rejects blank names", func() {
		snap := NewTestSnapshot(" ")
		Expect(driver.Save(ctx, snap)).To(MatchError(storage.ErrInvalidName))
	})
}
