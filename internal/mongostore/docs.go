package mongostore

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/digital-menu/api/internal/cart"
	"github.com/digital-menu/api/internal/menu"
	"github.com/digital-menu/api/internal/order"
)

// orderDoc is the orders collection layout. The cart is an object keyed by
// item name and the paid amount is stored as partialAmount.
type orderDoc struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	OrderNumber   int64                `bson:"orderNumber"`
	CustomerName  string               `bson:"customerName"`
	ContactNumber string               `bson:"contactNumber"`
	TableNumber   string               `bson:"tableNumber"`
	PaymentType   string               `bson:"paymentType"`
	PaymentMethod string               `bson:"paymentMethod"`
	PaymentID     string               `bson:"paymentId,omitempty"`
	Total         primitive.Decimal128 `bson:"total"`
	PartialAmount primitive.Decimal128 `bson:"partialAmount"`
	Remaining     primitive.Decimal128 `bson:"remaining"`
	Cart          bson.Raw             `bson:"cart"`
	Date          string               `bson:"date"`
	DeviceID      string               `bson:"deviceId"`
	AdminStatus   string               `bson:"adminStatus"`
	CreatedAt     time.Time            `bson:"createdAt"`
}

type lineDoc struct {
	Price    primitive.Decimal128 `bson:"price"`
	Quantity int                  `bson:"quantity"`
}

type lineReadDoc struct {
	Price    bson.RawValue `bson:"price"`
	Quantity bson.RawValue `bson:"quantity"`
	Qty      bson.RawValue `bson:"qty"`
}

type menuDoc struct {
	ID          bson.RawValue `bson:"_id"`
	Name        string        `bson:"name"`
	Price       bson.RawValue `bson:"price"`
	Description string        `bson:"description"`
	Image       string        `bson:"image"`
	ImageURL    string        `bson:"imageUrl"`
	Category    string        `bson:"category"`
	Status      string        `bson:"status"`
	CreatedAt   time.Time     `bson:"createdAt"`
}

type menuWriteDoc struct {
	Name        string               `bson:"name"`
	Price       primitive.Decimal128 `bson:"price"`
	Description string               `bson:"description"`
	Image       string               `bson:"image"`
	ImageURL    string               `bson:"imageUrl"`
	Category    string               `bson:"category"`
	Status      string               `bson:"status"`
}

// --- Orders ---

func orderToDoc(o order.Order) (orderDoc, error) {
	c, err := linesToRaw(o.Cart)
	if err != nil {
		return orderDoc{}, err
	}
	return orderDoc{
		OrderNumber:   o.OrderNumber,
		CustomerName:  o.CustomerName,
		ContactNumber: o.ContactNumber,
		TableNumber:   o.TableNumber,
		PaymentType:   string(o.PaymentType),
		PaymentMethod: o.PaymentMethod,
		PaymentID:     o.PaymentID,
		Total:         toDecimal128(o.Total),
		PartialAmount: toDecimal128(o.AmountPaid),
		Remaining:     toDecimal128(o.Remaining),
		Cart:          c,
		Date:          o.Date,
		DeviceID:      o.DeviceID,
		AdminStatus:   o.AdminStatus,
		CreatedAt:     o.CreatedAt,
	}, nil
}

func orderFromDoc(d orderDoc) (order.Order, error) {
	lines, err := linesFromRaw(d.Cart)
	if err != nil {
		return order.Order{}, fmt.Errorf("decode cart of order %d: %w", d.OrderNumber, err)
	}
	return order.Order{
		OrderNumber:   d.OrderNumber,
		CustomerName:  d.CustomerName,
		ContactNumber: d.ContactNumber,
		TableNumber:   d.TableNumber,
		PaymentType:   order.PaymentType(d.PaymentType),
		PaymentMethod: d.PaymentMethod,
		PaymentID:     d.PaymentID,
		Total:         fromDecimal128(d.Total),
		AmountPaid:    fromDecimal128(d.PartialAmount),
		Remaining:     fromDecimal128(d.Remaining),
		Cart:          lines,
		Date:          d.Date,
		DeviceID:      d.DeviceID,
		AdminStatus:   d.AdminStatus,
		CreatedAt:     d.CreatedAt,
	}, nil
}

func linesToRaw(lines cart.Lines) (bson.Raw, error) {
	d := bson.D{}
	for _, l := range lines {
		d = append(d, bson.E{Key: l.Name, Value: lineDoc{Price: toDecimal128(l.Price), Quantity: l.Quantity}})
	}
	b, err := bson.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode cart: %w", err)
	}
	return bson.Raw(b), nil
}

func linesFromRaw(raw bson.Raw) (cart.Lines, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	elems, err := raw.Elements()
	if err != nil {
		return nil, err
	}
	lines := make(cart.Lines, 0, len(elems))
	for _, e := range elems {
		var ld lineReadDoc
		if err := e.Value().Unmarshal(&ld); err != nil {
			return nil, fmt.Errorf("line %q: %w", e.Key(), err)
		}
		qty := intFromRaw(ld.Quantity)
		if qty == 0 {
			qty = intFromRaw(ld.Qty)
		}
		lines = append(lines, cart.Line{Name: e.Key(), Price: decimalFromRaw(ld.Price), Quantity: qty})
	}
	return lines, nil
}

// --- Menu ---

func itemFromDoc(d menuDoc) menu.Item {
	return menu.Normalize(menu.Item{
		ID:          idString(d.ID),
		Name:        d.Name,
		Price:       decimalFromRaw(d.Price),
		Description: d.Description,
		Image:       d.Image,
		ImageURL:    d.ImageURL,
		Category:    menu.Category(d.Category),
		Status:      d.Status,
		CreatedAt:   d.CreatedAt,
	})
}

func itemToWriteDoc(it menu.Item) menuWriteDoc {
	return menuWriteDoc{
		Name:        it.Name,
		Price:       toDecimal128(it.Price),
		Description: it.Description,
		Image:       it.Image,
		ImageURL:    it.ImageURL,
		Category:    string(it.Category),
		Status:      it.Status,
	}
}

// --- Value helpers ---

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.StringFixed(2))
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

// decimalFromRaw reads a price written as Decimal128, double, integer or
// string. Anything else is zero.
func decimalFromRaw(v bson.RawValue) decimal.Decimal {
	switch v.Type {
	case bson.TypeDecimal128:
		return fromDecimal128(v.Decimal128())
	case bson.TypeDouble:
		return decimal.NewFromFloat(v.Double())
	case bson.TypeInt32:
		return decimal.NewFromInt32(v.Int32())
	case bson.TypeInt64:
		return decimal.NewFromInt(v.Int64())
	case bson.TypeString:
		d, err := decimal.NewFromString(v.StringValue())
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

func intFromRaw(v bson.RawValue) int {
	switch v.Type {
	case bson.TypeInt32:
		return int(v.Int32())
	case bson.TypeInt64:
		return int(v.Int64())
	case bson.TypeDouble:
		return int(v.Double())
	default:
		return 0
	}
}

func idString(v bson.RawValue) string {
	switch v.Type {
	case bson.TypeString:
		return v.StringValue()
	case bson.TypeObjectID:
		return v.ObjectID().Hex()
	default:
		return ""
	}
}
