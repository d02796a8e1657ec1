package eventstreamutils_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/hues/pkg/config"
	"github.com/papercomputeco/hues/pkg/eventstream/kafka"
	"github.com/papercomputeco/hues/pkg/eventstream/nop"
	eventstreamutils "github.com/papercomputeco/hues/pkg/eventstream/utils"
	"github.com/papercomputeco/hues/pkg/logger"
)

var _ = Describe("OptsFromConfig", func() {
	It("splits and trims the broker list", func() {
		o := eventstreamutils.OptsFromConfig(config.EventsConfig{
			Provider: "kafka",
			Brokers:  " a:9092, b:9092 ,,",
			Topic:    "colors",
		}, logger.Nop())
		Expect(o.Brokers).To(Equal([]string{"a:9092", "b:9092"}))
		Expect(o.Topic).To(Equal("colors"))
	})
})

var _ = Describe("NewPublisher", func() {
	It("defaults to the nop publisher", func() {
		p, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeAssignableToTypeOf(&nop.Publisher{}))
	})

	It("creates a kafka publisher without connecting", func() {
		p, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
			ProviderType: "kafka",
			Brokers:      []string{"localhost:9092"},
			Topic:        "colors",
			Logger:       logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeAssignableToTypeOf(&kafka.Publisher{}))
		Expect(p.Close()).To(Succeed())
	})

	It("requires brokers for kafka", func() {
		_, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{ProviderType: "kafka", Topic: "colors", Logger: logger.Nop()})
		Expect(err).To(MatchError("kafka brokers are required"))
	})

	It("rejects unknown providers", func() {
		_, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{ProviderType: "nats", Logger: logger.Nop()})
		Expect(err).To(MatchError("unsupported event publisher: nats"))
	})
})
