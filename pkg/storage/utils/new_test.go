package storageutils_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/hues/pkg/config"
	"github.com/papercomputeco/hues/pkg/logger"
	"github.com/papercomputeco/hues/pkg/storage/inmemory"
	"github.com/papercomputeco/hues/pkg/storage/jsonfile"
	"github.com/papercomputeco/hues/pkg/storage/sqlite"
	storageutils "github.com/papercomputeco/hues/pkg/storage/utils"
)

var _ = Describe("OptsFromConfig", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = filepath.EvalSymlinks(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
	})

	It("places json collections in the hues directory", func() {
		o, err := storageutils.OptsFromConfig(config.StorageConfig{Provider: "json"}, dir, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(o.Path).To(Equal(filepath.Join(dir, "collections")))
	})

	It("places the sqlite database in the hues directory", func() {
		o, err := storageutils.OptsFromConfig(config.StorageConfig{Provider: "sqlite"}, dir, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(o.Path).To(Equal(filepath.Join(dir, "hues.sqlite")))
	})

	It("keeps an explicit path", func() {
		o, err := storageutils.OptsFromConfig(config.StorageConfig{Provider: "json", Path: "/data"}, dir, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(o.Path).To(Equal("/data"))
	})

	It("carries remote connection settings", func() {
		o, err := storageutils.OptsFromConfig(config.StorageConfig{Provider: "qdrant", QdrantTarget: "q:6334", QdrantAPIKey: "k"}, dir, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(o.Path).To(BeEmpty())
		Expect(o.QdrantTarget).To(Equal("q:6334"))
		Expect(o.QdrantAPIKey).To(Equal("k"))
	})
})

var _ = Describe("NewStorageDriver", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("creates an in-memory driver", func() {
		d, err := storageutils.NewStorageDriver(ctx, &storageutils.NewStorageDriverOpts{ProviderType: "memory", Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(BeAssignableToTypeOf(&inmemory.Driver{}))
	})

	It("creates a json driver", func() {
		dir := filepath.Join(GinkgoT().TempDir(), "collections")
		d, err := storageutils.NewStorageDriver(ctx, &storageutils.NewStorageDriverOpts{ProviderType: "json", Path: dir, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(BeAssignableToTypeOf(&jsonfile.Driver{}))
		Expect(dir).To(BeADirectory())
	})

	It("creates a sqlite driver", func() {
		path := filepath.Join(GinkgoT().TempDir(), "hues.sqlite")
		d, err := storageutils.NewStorageDriver(ctx, &storageutils.NewStorageDriverOpts{ProviderType: "sqlite", Path: path, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(d.Close)
		Expect(d).To(BeAssignableToTypeOf(&sqlite.SQLiteDriver{}))
	})

	It("requires connection details for remote providers", func() {
		_, err := storageutils.NewStorageDriver(ctx, &storageutils.NewStorageDriverOpts{ProviderType: "postgres", Logger: logger.Nop()})
		Expect(err).To(MatchError(ContainSubstring("connection string")))

		_, err = storageutils.NewStorageDriver(ctx, &storageutils.NewStorageDriverOpts{ProviderType: "qdrant", Logger: logger.Nop()})
		Expect(err).To(MatchError(ContainSubstring("qdrant target is required")))
	})

	It("rejects unknown providers", func() {
		_, err := storageutils.NewStorageDriver(ctx, &storageutils.NewStorageDriverOpts{ProviderType: "chroma", Logger: logger.Nop()})
		Expect(err).To(MatchError("unsupported storage provider: chroma"))
	})
})
