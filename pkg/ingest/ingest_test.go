package ingest_test

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/hues/pkg/collection"
	"github.com/papercomputeco/hues/pkg/decode"
	"github.com/papercomputeco/hues/pkg/extract"
	"github.com/papercomputeco/hues/pkg/ingest"
	"github.com/papercomputeco/hues/pkg/logger"
	"github.com/papercomputeco/hues/pkg/storage/inmemory"
	"github.com/papercomputeco/hues/pkg/swatch"
	testutils "github.com/papercomputeco/hues/pkg/utils/test"
)

var _ = Describe("Files", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		Expect(os.MkdirAll(filepath.Join(dir, "nested"), 0o755)).To(Succeed())
		Expect(os.MkdirAll(filepath.Join(dir, ".cache"), 0o755)).To(Succeed())
		writePNG(filepath.Join(dir, "b.png"), color.White)
		writePNG(filepath.Join(dir, "a.png"), color.Black)
		writePNG(filepath.Join(dir, "nested", "c.png"), color.Black)
		writePNG(filepath.Join(dir, ".cache", "d.png"), color.Black)
		Expect(os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o600)).To(Succeed())
	})

	It("lists top-level images in sorted order", func() {
		paths, err := ingest.Files(dir, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(paths).To(Equal([]string{
			filepath.Join(dir, "a.png"),
			filepath.Join(dir, "b.png"),
		}))
	})

	It("descends into subdirectories but skips hidden ones", func() {
		paths, err := ingest.Files(dir, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(paths).To(Equal([]string{
			filepath.Join(dir, "a.png"),
			filepath.Join(dir, "b.png"),
			filepath.Join(dir, "nested", "c.png"),
		}))
	})

	It("fails on a missing folder", func() {
		_, err := ingest.Files(filepath.Join(dir, "missing"), false)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Ingester", func() {
	var (
		ctx       context.Context
		dir       string
		manager   *collection.Manager
		extractor *extract.Extractor
		publisher *testutils.RecordingPublisher
	)

	newIngester := func(skip bool, onProgress func(ingest.Progress)) *ingest.Ingester {
		return ingest.New(ingest.Config{
			Manager:      manager,
			Extractor:    extractor,
			Publisher:    publisher,
			Workers:      2,
			SkipExisting: skip,
			OnProgress:   onProgress,
			Logger:       logger.Nop(),
		})
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		manager = collection.NewManager(inmemory.NewDriver(), swatch.DefaultMetric, logger.Nop())
		extractor, err = extract.NewExtractor(extract.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		publisher = testutils.NewRecordingPublisher()
	})

	It("indexes every decodable image and records failures", func() {
		red := filepath.Join(dir, "red.png")
		blue := filepath.Join(dir, "blue.png")
		broken := filepath.Join(dir, "broken.png")
		writePNG(red, color.RGBA{R: 255, A: 255})
		writePNG(blue, color.RGBA{B: 255, A: 255})
		Expect(os.WriteFile(broken, []byte("nope"), 0o600)).To(Succeed())

		report, err := newIngester(false, nil).Run(ctx, "photos", []string{blue, broken, red})
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Indexed).To(Equal([]string{blue, red}))
		Expect(report.Failed).To(HaveLen(1))
		Expect(report.Failed[0].Path).To(Equal(broken))
		Expect(report.Failed[0].Err).To(MatchError(decode.ErrDecode))

		Expect(manager.View(ctx, "photos", func(c *collection.Collection) error {
			entries := c.Index.Entries()
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].ID).To(Equal(ingest.ImageID(blue)))
			Expect(entries[1].ID).To(Equal(ingest.ImageID(red)))
			Expect(c.Dirty()).To(BeTrue())
			return nil
		})).To(Succeed())
	})

	It("publishes an event per inserted image", func() {
		red := filepath.Join(dir, "red.png")
		writePNG(red, color.RGBA{R: 255, A: 255})

		_, err := newIngester(false, nil).Run(ctx, "photos", []string{red})
		Expect(err).NotTo(HaveOccurred())

		events := publisher.Events()
		Expect(events).To(HaveLen(1))
		Expect(events[0].Collection).To(Equal("photos"))
		Expect(events[0].ImageID).To(Equal(ingest.ImageID(red)))
	})

	It("keeps indexing when publishing fails", func() {
		red := filepath.Join(dir, "red.png")
		writePNG(red, color.RGBA{R: 255, A: 255})
		publisher.Err = errors.New("broker down")

		report, err := newIngester(false, nil).Run(ctx, "photos", []string{red})
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Indexed).To(HaveLen(1))
	})

	It("skips images that are already indexed when asked to", func() {
		red := filepath.Join(dir, "red.png")
		blue := filepath.Join(dir, "blue.png")
		writePNG(red, color.RGBA{R: 255, A: 255})
		writePNG(blue, color.RGBA{B: 255, A: 255})

		_, err := newIngester(false, nil).Run(ctx, "photos", []string{red})
		Expect(err).NotTo(HaveOccurred())

		report, err := newIngester(true, nil).Run(ctx, "photos", []string{red, blue})
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Skipped).To(Equal([]string{red}))
		Expect(report.Indexed).To(Equal([]string{blue}))
	})

	It("reports progress for every extracted image", func() {
		paths := []string{filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png"), filepath.Join(dir, "c.png")}
		for _, p := range paths {
			writePNG(p, color.Black)
		}

		var (
			mu   sync.Mutex
			seen   []int
			totals []int
		)
		_, err := newIngester(false, func(p ingest.Progress) {
			mu.Lock()
			defer mu.Unlock()
			totals = append(totals, p.Total)
			seen = append(seen, p.Done)
		}).Run(ctx, "photos", paths)
		Expect(err).NotTo(HaveOccurred())
		Expect(seen).To(ConsistOf(1, 2, 3))
		Expect(totals).To(HaveEach(3))
	})

	It("stops when the context is cancelled", func() {
		red := filepath.Join(dir, "red.png")
		writePNG(red, color.RGBA{R: 255, A: 255})

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := newIngester(false, nil).Run(cctx, "photos", []string{red})
		Expect(err).To(MatchError(context.Canceled))
	})
})

var _ = Describe("Watch", func() {
	It("reports images written into the watched folder", func() {
		dir := GinkgoT().TempDir()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		found := make(chan string, 64)
		done := make(chan error, 1)
		go func() {
			done <- ingest.Watch(ctx, dir, false, func(path string) { found <- path })
		}()

		path := filepath.Join(dir, "new.png")
		Eventually(func() string {
			writePNG(path, color.White)
			select {
			case p := <-found:
				return p
			default:
				return ""
			}
		}).Should(Equal(path))

		cancel()
		Eventually(done).Should(Receive(MatchError(context.Canceled)))
	})
})
