package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"blossoms/internal/domain"
)

var _ domain.OrderRepository = (*OrderStore)(nil)

type OrderStore struct{ coll *mongo.Collection }

type orderDoc struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	CustomerName  string               `bson:"customerName"`
	CustomerEmail string               `bson:"customerEmail"`
	Total         primitive.Decimal128 `bson:"total"`
	PrimaryInfo   primaryInfoDoc       `bson:"primaryInfo"`
	CreatedAt     time.Time            `bson:"createdAt"`
}

type primaryInfoDoc struct {
	ShippingStatus        string     `bson:"shippingStatus"`
	EstimatedDeliveryDate *time.Time `bson:"estimatedDeliveryDate,omitempty"`
}

func (d orderDoc) order() (domain.Order, error) {
	total, err := fromDecimal128(d.Total)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %s total: %w", d.ID.Hex(), err)
	}
	o := domain.Order{
		ID:            d.ID.Hex(),
		CustomerName:  d.CustomerName,
		CustomerEmail: d.CustomerEmail,
		Total:         total,
		PrimaryInfo:   domain.PrimaryInfo{ShippingStatus: d.PrimaryInfo.ShippingStatus},
		CreatedAt:     d.CreatedAt.UTC(),
	}
	if eta := d.PrimaryInfo.EstimatedDeliveryDate; eta != nil {
		t := eta.UTC()
		o.PrimaryInfo.EstimatedDeliveryDate = &t
	}
	return o, nil
}

func (s *OrderStore) Insert(ctx context.Context, o domain.Order) (domain.Order, error) {
	const op = "OrderStore.Insert"
	total, err := toDecimal128(o.Total)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: total: %w", op, err)
	}
	doc := orderDoc{
		ID:            primitive.NewObjectID(),
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Total:         total,
		PrimaryInfo: primaryInfoDoc{
			ShippingStatus:        o.PrimaryInfo.ShippingStatus,
			EstimatedDeliveryDate: o.PrimaryInfo.EstimatedDeliveryDate,
		},
		CreatedAt: o.CreatedAt,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	out, err := doc.order()
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *OrderStore) Get(ctx context.Context, id string) (domain.Order, error) {
	const op = "OrderStore.Get"
	oid, err := objectID(id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	var doc orderDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Order{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	out, err := doc.order()
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *OrderStore) UpdateShippingStatus(ctx context.Context, id, status string) (domain.Order, error) {
	const op = "OrderStore.UpdateShippingStatus"
	oid, err := objectID(id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc orderDoc
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"primaryInfo.shippingStatus": status}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Order{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	out, err := doc.order()
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *OrderStore) MarkDelivered(ctx context.Context, now time.Time) (int64, error) {
	const op = "OrderStore.MarkDelivered"
	res, err := s.coll.UpdateMany(ctx,
		bson.M{
			"primaryInfo.shippingStatus":        bson.M{"$ne": domain.ShippingDelivered},
			"primaryInfo.estimatedDeliveryDate": bson.M{"$lt": now},
		},
		bson.M{"$set": bson.M{"primaryInfo.shippingStatus": domain.ShippingDelivered}},
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return res.ModifiedCount, nil
}
