package bsale

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FlexID tolerates the provider sending numeric IDs as either JSON numbers
// or numeric strings, which it does inconsistently across endpoints.
type FlexID int64

func (f *FlexID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some endpoints emit floats like 123.0 for IDs.
		fl, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return err
		}
		n = int64(fl)
	}
	*f = FlexID(n)
	return nil
}

func (f FlexID) Int64() int64 { return int64(f) }

// Ref is an expanded sub-resource reference, e.g. {"id": 42, "href": "..."}.
type Ref struct {
	ID FlexID `json:"id"`
}

type StockItem struct {
	ID                FlexID  `json:"id"`
	Quantity          float64 `json:"quantity"`
	QuantityReserved  float64 `json:"quantityReserved"`
	QuantityAvailable float64 `json:"quantityAvailable"`
	Variant           *Ref    `json:"variant"`
	Office            *Ref    `json:"office"`
}

type Variant struct {
	ID          FlexID      `json:"id"`
	Code        string      `json:"code"`
	BarCode     string      `json:"barCode"`
	Description string      `json:"description"`
	Product     *ProductRef `json:"product"`
}

type ProductRef struct {
	ID   FlexID `json:"id"`
	Name string `json:"name"`
}

type PriceList struct {
	ID    FlexID `json:"id"`
	Name  string `json:"name"`
	State int    `json:"state"`
}

type DocumentDetail struct {
	Quantity float64 `json:"quantity"`
	Variant  *Ref    `json:"variant"`
}

// DetailList mirrors the provider's expanded sub-collection wrapper.
type DetailList struct {
	Items []DocumentDetail `json:"items"`
}

type Document struct {
	ID           FlexID     `json:"id"`
	EmissionDate int64      `json:"emissionDate"` // unix seconds
	Office       *Ref       `json:"office"`
	Details      DetailList `json:"details"`
}

// Page is the provider's pagination envelope.
type Page struct {
	Count  int             `json:"count"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
	Items  json.RawMessage `json:"items"`
}
