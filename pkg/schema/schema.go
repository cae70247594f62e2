// Package schema holds the avro schemas of the broker records and
// the schema registry aware serdes for them.
package schema

import (
	"fmt"

	"github.com/hamba/avro/v2"
)

// avroCodec binds marshalling to one parsed schema.
type avroCodec struct {
	schema avro.Schema
}

func newAvroCodec(schemaText string) (avroCodec, error) {
	s, err := avro.Parse(schemaText)
	if err != nil {
		return avroCodec{}, fmt.Errorf("parse avro schema: %w", err)
	}
	return avroCodec{s}, nil
}

func (c avroCodec) encode(v any) ([]byte, error) {
	return avro.Marshal(c.schema, v)
}

// decode expects v to be a pointer.
func (c avroCodec) decode(data []byte, v any) error {
	return avro.Unmarshal(c.schema, data, v)
}
