package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"estatehub/internal/types"
)

// Document is the serialized form of a catalog used by file and object
// storage sources. It carries no derived data; Build re-validates it.
type Document struct {
	Version   string                `json:"version"`
	Plans     []types.Plan          `json:"plans"`
	AddOns    []types.AddOn         `json:"add_ons"`
	Campaigns []types.PromoCampaign `json:"campaigns"`
}

// zstdMagic is the frame header every zstd stream starts with.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Encoder and decoder are safe for concurrent EncodeAll/DecodeAll calls.
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(64<<20))
)

// DocumentOf captures c as a Document.
func DocumentOf(c *Catalog) Document {
	return Document{
		Version:   c.Version(),
		Plans:     c.Plans(),
		AddOns:    c.AddOns(),
		Campaigns: c.Campaigns(),
	}
}

// Build validates the document into a Catalog.
func (d Document) Build(now func() time.Time) (*Catalog, error) {
	b := NewBuilder(d.Version)
	if now != nil {
		b.WithClock(now)
	}
	for _, p := range d.Plans {
		b.AddPlan(p)
	}
	for _, a := range d.AddOns {
		b.AddAddOn(a)
	}
	for _, c := range d.Campaigns {
		b.AddCampaign(c)
	}
	return b.Build()
}

// EncodeDocument renders d as JSON, zstd-compressed when compress is set.
func EncodeDocument(d Document, compress bool) ([]byte, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding catalog document: %w", err)
	}
	if !compress {
		return raw, nil
	}
	return zstdEncoder.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// DecodeDocument parses a JSON document, transparently decompressing zstd
// input. Unknown fields are rejected.
func DecodeDocument(data []byte) (Document, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		raw, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return Document{}, fmt.Errorf("decompressing catalog document: %w", err)
		}
		data = raw
	}

	var d Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return Document{}, fmt.Errorf("decoding catalog document: %w", err)
	}
	return d, nil
}
