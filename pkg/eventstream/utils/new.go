package eventstreamutils

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/hues/pkg/config"
	"github.com/papercomputeco/hues/pkg/eventstream"
	"github.com/papercomputeco/hues/pkg/eventstream/kafka"
	"github.com/papercomputeco/hues/pkg/eventstream/nop"
)

type NewPublisherOpts struct {
	ProviderType string
	Brokers      []string
	Topic        string
	Logger       *slog.Logger
}

// OptsFromConfig builds publisher options from the events section.
func OptsFromConfig(c config.EventsConfig, logger *slog.Logger) *NewPublisherOpts {
	var brokers []string
	for _, b := range strings.Split(c.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return &NewPublisherOpts{
		ProviderType: c.Provider,
		Brokers:      brokers,
		Topic:        c.Topic,
		Logger:       logger,
	}
}

func NewPublisher(o *NewPublisherOpts) (eventstream.Publisher, error) {
	switch o.ProviderType {
	case "", "nop":
		return nop.NewPublisher(), nil
	case "kafka":
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: o.Brokers,
			Topic:   o.Topic,
		}, o.Logger)
		if err != nil {
			return nil, err
		}
		o.Logger.Info("publishing events to kafka", "brokers", o.Brokers, "topic", o.Topic)
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported event publisher: %s", o.ProviderType)
	}
}
