package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"time"

	"product-api/internal/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Uncategorized is the stats bucket for products without a category.
const Uncategorized = "Uncategorized"

const (
	MsgNameRequired  = "Name is required and must be a string"
	MsgPriceRequired = "Price is required and must be a number"
	MsgNotAnObject   = "Request body must be a JSON object"
	MsgMalformedBody = "Malformed JSON body"
)

type Product struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Price       float64            `json:"price" bson:"price"`
	Category    string             `json:"category,omitempty" bson:"category,omitempty"`
	InStock     bool               `json:"inStock" bson:"inStock"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ProductInput is the client payload for create and update. Pointers tell "absent" from zero.
type ProductInput struct {
	Name        *string  `json:"name" validate:"required,notblank"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"required,finite"`
	Category    *string  `json:"category"`
	InStock     *bool    `json:"inStock"`
}

type CategoryCount struct {
	Category string `bson:"_id"`
	Count    int64  `bson:"count"`
}

type ProductPage struct {
	Page       int64     `json:"page"`
	Limit      int64     `json:"limit"`
	Total      int64     `json:"total"`
	TotalPages int64     `json:"totalPages"`
	Products   []Product `json:"products"`
}

type SearchResult struct {
	Total    int64     `json:"total"`
	Products []Product `json:"products"`
}

type Stats struct {
	CountByCategory map[string]int64 `json:"countByCategory"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

// Validate checks name before price and reports the first failure as a ValidationError.
func (in *ProductInput) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		switch fe.StructField() {
		case "Name":
			return apperror.Validation(MsgNameRequired)
		case "Price":
			return apperror.Validation(MsgPriceRequired)
		}
	}
	return apperror.Validation(verrs[0].Error())
}

// DecodeProductInput decodes and validates a create/update body. An empty body counts as {}.
// Fields are decoded one by one so a wrongly typed field never hides the name and price checks.
func DecodeProductInput(raw []byte) (*ProductInput, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, apperror.Validation(MsgNotAnObject)
		}
		return nil, apperror.ValidationWrap(MsgMalformedBody, err)
	}
	if fields == nil {
		return nil, apperror.Validation(MsgNotAnObject)
	}

	var in ProductInput
	var badFields []string
	decodeField := func(key string, dst any) bool {
		value, ok := fields[key]
		if !ok {
			return true
		}
		if err := json.Unmarshal(value, dst); err != nil {
			badFields = append(badFields, key)
			return false
		}
		return true
	}

	// A wrongly typed name or price counts as missing.
	if !decodeField("name", &in.Name) {
		in.Name = nil
	}
	if !decodeField("price", &in.Price) {
		in.Price = nil
	}
	decodeField("description", &in.Description)
	decodeField("category", &in.Category)
	decodeField("inStock", &in.InStock)

	if err := in.Validate(); err != nil {
		return nil, err
	}
	if len(badFields) > 0 {
		return nil, apperror.Validation("Invalid value for field " + badFields[0])
	}
	return &in, nil
}

// NewProduct applies defaults and server-set fields. The id is left for the store to assign.
func NewProduct(in *ProductInput, now time.Time) Product {
	ts := now.UTC().Truncate(time.Millisecond)
	p := Product{
		InStock:   true,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.InStock != nil {
		p.InStock = *in.InStock
	}
	return p
}

// TotalPages is ceil(total/limit).
func TotalPages(total, limit int64) int64 {
	if limit <= 0 || total <= 0 {
		return 0
	}
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return pages
}
