package cart

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Lines is the cart snapshot stored with an order. On the wire it is an
// object keyed by item name, in insertion order, as stored order records
// have always had it. A JSON array of lines is accepted too.
type Lines []Line

type storedLine struct {
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

func (ls Lines) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, l := range ls {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(l.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(storedLine{Price: l.Price, Quantity: l.Quantity})
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (ls *Lines) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*ls = nil
		return nil
	case len(b) > 0 && b[0] == '[':
		var arr []Line
		if err := json.Unmarshal(b, &arr); err != nil {
			return err
		}
		*ls = arr
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	if _, err := dec.Token(); err != nil {
		return err
	}
	var out Lines
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("cart: unexpected key %v", tok)
		}
		var l Line
		if err := dec.Decode(&l); err != nil {
			return fmt.Errorf("cart: line %q: %w", name, err)
		}
		l.Name = name
		out = append(out, l)
	}
	*ls = out
	return nil
}
