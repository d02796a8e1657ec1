// Package qdrant provides a storage.Driver backed by a Qdrant server.
//
// Every save of a hues collection writes a new generation: a fresh Qdrant
// collection named after the hues collection and a generation number. Each
// record is stored as point seq+1 whose vector is the Lab coordinates of the
// dominant color and whose payload holds the image id and the exact
// fingerprint blob. Point 0 carries the collection metadata and is written
// last, so a generation without it is incomplete and never read. Older
// generations are dropped once a newer one is complete.
package qdrant

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/hues/pkg/storage"
	"github.com/papercomputeco/hues/pkg/swatch"
)

const (
	collectionPrefix = "hues_"
	generationSep    = "_g"
	metaPointID      = 0
	upsertBatchSize  = 256
	defaultPort      = 6334
	vectorSize       = 3
)

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Target is the host:port of the Qdrant gRPC endpoint.
	Target string

	// APIKey is sent with every request when set.
	APIKey string

	// UseTLS enables TLS on the gRPC connection.
	UseTLS bool
}

// Driver implements storage.Driver using Qdrant.
type Driver struct {
	client *qdrant.Client
	logger *slog.Logger
}

// NewDriver connects to the Qdrant server at c.Target.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	host, port, err := splitTarget(c.Target)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	logger.Debug("qdrant storage driver initialized",
		"host", host,
		"port", port,
	)

	return &Driver{client: client, logger: logger}, nil
}

func splitTarget(target string) (string, int, error) {
	if target == "" {
		return "", 0, fmt.Errorf("qdrant target is required")
	}

	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return target, defaultPort, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}
	return host, port, nil
}

// collectionName encodes a hues collection name into the character set
// Qdrant accepts.
func collectionName(name string) string {
	return collectionPrefix + hex.EncodeToString([]byte(name))
}

// generationName is the Qdrant collection holding generation gen of name.
func generationName(name string, gen uint64) string {
	return collectionName(name) + generationSep + strconv.FormatUint(gen, 10)
}

// parseGeneration splits a Qdrant collection name into the hues collection
// name and generation. ok is false for collections hues does not own.
func parseGeneration(qname string) (name string, gen uint64, ok bool) {
	rest, found := strings.CutPrefix(qname, collectionPrefix)
	if !found {
		return "", 0, false
	}
	encoded, genStr, found := strings.Cut(rest, generationSep)
	if !found {
		return "", 0, false
	}
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return "", 0, false
	}
	gen, err = strconv.ParseUint(genStr, 10, 64)
	if err != nil {
		return "", 0, false
	}
	return string(raw), gen, true
}

// generations returns the Qdrant collections of every hues collection,
// newest generation first.
func (d *Driver) generations(ctx context.Context) (map[string][]uint64, error) {
	qnames, err := d.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing qdrant collections: %w", err)
	}

	gens := map[string][]uint64{}
	for _, qname := range qnames {
		name, gen, ok := parseGeneration(qname)
		if !ok {
			if strings.HasPrefix(qname, collectionPrefix) {
				d.logger.Warn("skipping foreign qdrant collection", "collection", qname)
			}
			continue
		}
		gens[name] = append(gens[name], gen)
	}
	for name := range gens {
		sort.Slice(gens[name], func(i, j int) bool { return gens[name][i] > gens[name][j] })
	}
	return gens, nil
}

// Save writes snap into a new generation and drops the older ones once it is
// complete. A failed save leaves the previous generation readable.
func (d *Driver) Save(ctx context.Context, snap *storage.Snapshot) error {
	if err := storage.ValidateName(snap.Meta.Name); err != nil {
		return err
	}
	name := snap.Meta.Name

	all, err := d.generations(ctx)
	if err != nil {
		return err
	}
	previous := all[name]

	gen := uint64(1)
	if len(previous) > 0 {
		gen = previous[0] + 1
	}
	qname := generationName(name, gen)

	if err := d.writeGeneration(ctx, qname, snap); err != nil {
		if derr := d.client.DeleteCollection(context.WithoutCancel(ctx), qname); derr != nil {
			d.logger.Warn("failed to drop incomplete generation",
				"collection", name,
				"generation", gen,
				"error", derr,
			)
		}
		return err
	}

	for _, old := range previous {
		if err := d.client.DeleteCollection(ctx, generationName(name, old)); err != nil {
			d.logger.Warn("failed to drop old generation",
				"collection", name,
				"generation", old,
				"error", err,
			)
		}
	}

	d.logger.Debug("saved collection to qdrant",
		"collection", name,
		"generation", gen,
		"records", len(snap.Records),
	)
	return nil
}

func (d *Driver) writeGeneration(ctx context.Context, qname string, snap *storage.Snapshot) error {
	name := snap.Meta.Name

	if err := d.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: qname,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     vectorSize,
			Distance: qdrant.Distance_Euclid,
		}),
	}); err != nil {
		return fmt.Errorf("creating collection %s: %w", name, err)
	}

	points := make([]*qdrant.PointStruct, 0, len(snap.Records))
	for i, r := range snap.Records {
		payload, err := qdrant.TryValueMap(map[string]any{
			"image_id": r.ID,
			"seq":      i,
			"colors":   base64.StdEncoding.EncodeToString(storage.EncodeColors(r.Fingerprint)),
			"hex":      hexColors(r.Fingerprint),
		})
		if err != nil {
			return fmt.Errorf("encoding payload of %s: %w", r.ID, err)
		}

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(i) + 1),
			Vectors: qdrant.NewVectors(dominantLab(r.Fingerprint)...),
			Payload: payload,
		})
	}

	for start := 0; start < len(points); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(points))
		if err := d.upsert(ctx, qname, points[start:end]); err != nil {
			return fmt.Errorf("upserting points of %s: %w", name, err)
		}
	}

	metaPayload, err := qdrant.TryValueMap(map[string]any{
		"name":       name,
		"id":         snap.Meta.ID.String(),
		"thumbnail":  snap.Meta.Thumbnail,
		"count":      snap.Meta.Count,
		"records":    len(snap.Records),
		"created_at": snap.Meta.CreatedAt.UnixNano(),
		"updated_at": snap.Meta.UpdatedAt.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("encoding metadata of %s: %w", name, err)
	}

	// The metadata point marks the generation complete.
	if err := d.upsert(ctx, qname, []*qdrant.PointStruct{{
		Id:      qdrant.NewIDNum(metaPointID),
		Vectors: qdrant.NewVectors(0, 0, 0),
		Payload: metaPayload,
	}}); err != nil {
		return fmt.Errorf("writing metadata of %s: %w", name, err)
	}
	return nil
}

func (d *Driver) upsert(ctx context.Context, qname string, points []*qdrant.PointStruct) error {
	wait := true
	_, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: qname,
		Wait:           &wait,
		Points:         points,
	})
	return err
}

// current returns the newest complete generation of name.
func (d *Driver) current(ctx context.Context, name string, gens []uint64) (string, storage.Meta, int, error) {
	for _, gen := range gens {
		qname := generationName(name, gen)
		meta, records, ok, err := d.loadMeta(ctx, qname)
		if err != nil {
			return "", storage.Meta{}, 0, err
		}
		if ok {
			return qname, meta, records, nil
		}
		d.logger.Debug("skipping incomplete generation", "collection", name, "generation", gen)
	}
	return "", storage.Meta{}, 0, storage.NotFoundError{Name: name}
}

// Load reads the newest complete generation of name.
func (d *Driver) Load(ctx context.Context, name string) (*storage.Snapshot, error) {
	all, err := d.generations(ctx)
	if err != nil {
		return nil, err
	}
	qname, meta, records, err := d.current(ctx, name, all[name])
	if err != nil {
		return nil, err
	}

	snap := &storage.Snapshot{Meta: meta, Records: make([]storage.Record, 0, records)}
	if records == 0 {
		return snap, nil
	}

	limit := uint32(records + 1)
	points, err := d.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: qname,
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("scrolling collection %s: %w", name, err)
	}

	type seqRecord struct {
		seq int64
		storage.Record
	}
	var loaded []seqRecord
	for _, p := range points {
		if p.GetId().GetNum() == metaPointID {
			continue
		}

		payload := p.GetPayload()
		blob, err := base64.StdEncoding.DecodeString(payload["colors"].GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("decoding colors of point %d: %w", p.GetId().GetNum(), err)
		}
		fp, err := storage.DecodeColors(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding colors of point %d: %w", p.GetId().GetNum(), err)
		}

		loaded = append(loaded, seqRecord{
			seq:    payload["seq"].GetIntegerValue(),
			Record: storage.Record{ID: payload["image_id"].GetStringValue(), Fingerprint: fp},
		})
	}

	sort.Slice(loaded, func(i, j int) bool { return loaded[i].seq < loaded[j].seq })
	for _, r := range loaded {
		snap.Records = append(snap.Records, r.Record)
	}
	return snap, nil
}

// loadMeta reads the metadata point of qname. ok is false when the
// generation has no metadata point yet.
func (d *Driver) loadMeta(ctx context.Context, qname string) (storage.Meta, int, bool, error) {
	points, err := d.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: qname,
		Ids:            []*qdrant.PointId{qdrant.NewIDNum(metaPointID)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return storage.Meta{}, 0, false, fmt.Errorf("reading metadata of %s: %w", qname, err)
	}
	if len(points) == 0 {
		return storage.Meta{}, 0, false, nil
	}

	payload := points[0].GetPayload()
	id, err := uuid.Parse(payload["id"].GetStringValue())
	if err != nil {
		return storage.Meta{}, 0, false, fmt.Errorf("parsing id of %s: %w", qname, err)
	}

	meta := storage.Meta{
		ID:        id,
		Name:      payload["name"].GetStringValue(),
		Thumbnail: payload["thumbnail"].GetStringValue(),
		Count:     int(payload["count"].GetIntegerValue()),
		CreatedAt: time.Unix(0, payload["created_at"].GetIntegerValue()).UTC(),
		UpdatedAt: time.Unix(0, payload["updated_at"].GetIntegerValue()).UTC(),
	}
	return meta, int(payload["records"].GetIntegerValue()), true, nil
}

// List reads the metadata of the newest complete generation of every hues
// collection on the server.
func (d *Driver) List(ctx context.Context) ([]storage.Meta, error) {
	all, err := d.generations(ctx)
	if err != nil {
		return nil, err
	}

	var metas []storage.Meta
	for name, gens := range all {
		_, meta, _, err := d.current(ctx, name, gens)
		var nf storage.NotFoundError
		if errors.As(err, &nf) {
			continue
		}
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}

	sort.Slice(metas, func(i, j int) bool { return metas[i].Name < metas[j].Name })
	return metas, nil
}

// Delete drops every generation of name.
func (d *Driver) Delete(ctx context.Context, name string) error {
	all, err := d.generations(ctx)
	if err != nil {
		return err
	}
	if _, _, _, err := d.current(ctx, name, all[name]); err != nil {
		return err
	}

	for _, gen := range all[name] {
		if err := d.client.DeleteCollection(ctx, generationName(name, gen)); err != nil {
			return fmt.Errorf("deleting collection %s: %w", name, err)
		}
	}
	return nil
}

// Close closes the gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

func dominantLab(fp swatch.Fingerprint) []float32 {
	c, ok := fp.Dominant()
	if !ok {
		return []float32{0, 0, 0}
	}
	l, a, b := c.Lab()
	return []float32{float32(l), float32(a), float32(b)}
}

func hexColors(fp swatch.Fingerprint) []any {
	out := make([]any, len(fp))
	for i, wc := range fp {
		out[i] = wc.Hex()
	}
	return out
}
