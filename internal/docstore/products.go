package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"blossoms/internal/domain"
)

var _ domain.ProductRepository = (*ProductStore)(nil)

type ProductStore struct{ coll *mongo.Collection }

type productDoc struct {
	ID                 primitive.ObjectID   `bson:"_id,omitempty"`
	Name               string               `bson:"name"`
	Description        string               `bson:"description"`
	Material           string               `bson:"material"`
	Price              primitive.Decimal128 `bson:"price"`
	DiscountPercentage float64              `bson:"discountPercentage"`
	DiscountType       string               `bson:"discountType"`
	Quantity           int                  `bson:"quantity"`
	Category           string               `bson:"category"`
	Size               string               `bson:"size"`
	Colors             []string             `bson:"colors"`
	Tags               []string             `bson:"tags"`
	ImageURL           *string              `bson:"imageUrl"`
	CreatedAt          time.Time            `bson:"createdAt"`
	UpdatedAt          time.Time            `bson:"updatedAt"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(d.String())
}

func toProductDoc(p domain.Product) (productDoc, error) {
	price, err := toDecimal128(p.Price)
	if err != nil {
		return productDoc{}, fmt.Errorf("price: %w", err)
	}
	return productDoc{
		Name:               p.Name,
		Description:        p.Description,
		Material:           p.Material,
		Price:              price,
		DiscountPercentage: p.DiscountPercentage,
		DiscountType:       p.DiscountType,
		Quantity:           p.Quantity,
		Category:           p.Category,
		Size:               p.Size,
		Colors:             nonNil(p.Colors),
		Tags:               nonNil(p.Tags),
		ImageURL:           p.ImageURL,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}, nil
}

func (d productDoc) product() (domain.Product, error) {
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %s price: %w", d.ID.Hex(), err)
	}
	return domain.Product{
		ID:                 d.ID.Hex(),
		Name:               d.Name,
		Description:        d.Description,
		Material:           d.Material,
		Price:              price,
		DiscountPercentage: d.DiscountPercentage,
		DiscountType:       d.DiscountType,
		Quantity:           d.Quantity,
		Category:           d.Category,
		Size:               d.Size,
		Colors:             nonNil(d.Colors),
		Tags:               nonNil(d.Tags),
		ImageURL:           d.ImageURL,
		CreatedAt:          d.CreatedAt.UTC(),
		UpdatedAt:          d.UpdatedAt.UTC(),
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// objectID maps ids that cannot name a document to ErrNotFound.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrNotFound
	}
	return oid, nil
}

func (s *ProductStore) find(ctx context.Context, filter any) ([]domain.Product, error) {
	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		p, err := d.product()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *ProductStore) Insert(ctx context.Context, p domain.Product) (domain.Product, error) {
	const op = "ProductStore.Insert"
	doc, err := toProductDoc(p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	doc.ID = primitive.NewObjectID()
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	out, err := doc.product()
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *ProductStore) List(ctx context.Context, search string) ([]domain.Product, error) {
	const op = "ProductStore.List"
	filter := bson.M{}
	if search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		filter = bson.M{"$or": bson.A{
			bson.M{"name": re},
			bson.M{"category": re},
		}}
	}
	out, err := s.find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *ProductStore) Get(ctx context.Context, id string) (domain.Product, error) {
	const op = "ProductStore.Get"
	oid, err := objectID(id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	var doc productDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	out, err := doc.product()
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *ProductStore) Update(ctx context.Context, id string, p domain.Product, setImage bool) (domain.Product, error) {
	const op = "ProductStore.Update"
	oid, err := objectID(id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	price, err := toDecimal128(p.Price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: price: %w", op, err)
	}
	set := bson.M{
		"name":               p.Name,
		"description":        p.Description,
		"material":           p.Material,
		"price":              price,
		"discountPercentage": p.DiscountPercentage,
		"discountType":       p.DiscountType,
		"quantity":           p.Quantity,
		"category":           p.Category,
		"size":               p.Size,
		"colors":             nonNil(p.Colors),
		"tags":               nonNil(p.Tags),
		"updatedAt":          p.UpdatedAt,
	}
	if setImage {
		set["imageUrl"] = p.ImageURL
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc productDoc
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	out, err := doc.product()
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *ProductStore) Delete(ctx context.Context, id string) error {
	const op = "ProductStore.Delete"
	oid, err := objectID(id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

func (s *ProductStore) ListMaxQuantity(ctx context.Context, max int) ([]domain.Product, error) {
	const op = "ProductStore.ListMaxQuantity"
	out, err := s.find(ctx, bson.M{"quantity": bson.M{"$lte": max}})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
